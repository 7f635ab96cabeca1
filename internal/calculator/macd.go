package calculator

import "errors"

// MACD holds the last values of the MACD line, its signal line and the histogram.
type MACD struct {
	Line   float64
	Signal float64
	Hist   float64
}

// EMASeries returns the exponential moving average of values with the given span
// (alpha = 2/(span+1)), seeded with the first value and without a warm-up period.
func EMASeries(values []float64, span int) []float64 {
	out := make([]float64, len(values))
	if len(values) == 0 || span <= 0 {
		return out
	}
	alpha := 2.0 / (float64(span) + 1.0)
	ema := values[0]
	out[0] = ema
	for i := 1; i < len(values); i++ {
		// incremental form keeps a constant input exactly constant
		ema += alpha * (values[i] - ema)
		out[i] = ema
	}
	return out
}

// CalculateMACD computes MACD(fast, slow, signal) over closing prices and returns the last values.
func CalculateMACD(closes []float64, fast, slow, signal int) (MACD, error) {
	if fast <= 0 || slow <= 0 || signal <= 0 {
		return MACD{}, errors.New("spans must be positive")
	}
	if len(closes) == 0 {
		return MACD{}, ErrInsufficientData
	}
	emaFast := EMASeries(closes, fast)
	emaSlow := EMASeries(closes, slow)
	line := make([]float64, len(closes))
	for i := range closes {
		line[i] = emaFast[i] - emaSlow[i]
	}
	sig := EMASeries(line, signal)

	n := len(closes) - 1
	return MACD{
		Line:   line[n],
		Signal: sig[n],
		Hist:   line[n] - sig[n],
	}, nil
}
