package calculator

import (
	"errors"
	"math"
)

// CalculateRSI computes RSI over closing prices using an exponentially weighted average of
// gains and losses with smoothing factor 1/period. The average is seeded with the first
// delta and a value is only produced once `period` deltas have been observed.
//
// When the average loss is zero the ratio is infinite and RSI saturates at 100.
// A flat series (no gains and no losses) yields NaN.
func CalculateRSI(closes []float64, period int) (float64, error) {
	if period <= 0 {
		return 0, errors.New("period must be positive")
	}
	if len(closes) < period+1 {
		return math.NaN(), ErrInsufficientData
	}

	alpha := 1.0 / float64(period)
	var avgGain, avgLoss float64
	for i := 1; i < len(closes); i++ {
		change := closes[i] - closes[i-1]
		gain, loss := 0.0, 0.0
		if change > 0 {
			gain = change
		} else {
			loss = -change
		}
		if i == 1 {
			avgGain, avgLoss = gain, loss
			continue
		}
		avgGain += alpha * (gain - avgGain)
		avgLoss += alpha * (loss - avgLoss)
	}

	return rsiFromAverages(avgGain, avgLoss), nil
}

func rsiFromAverages(avgGain, avgLoss float64) float64 {
	if avgLoss == 0 {
		if avgGain == 0 {
			return math.NaN()
		}
		return 100
	}
	rs := avgGain / avgLoss
	return 100.0 - 100.0/(1.0+rs)
}
