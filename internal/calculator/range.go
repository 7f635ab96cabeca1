package calculator

import (
	"errors"

	"gonum.org/v1/gonum/floats"
)

// TradingDaysPerYear is the trailing window used for 52-week statistics.
const TradingDaysPerYear = 252

// Calculate52WeekRange returns the highest and lowest close over the most recent
// 252 closes, or over all closes when fewer are available.
func Calculate52WeekRange(closes []float64) (high, low float64, err error) {
	if len(closes) == 0 {
		return 0, 0, errors.New("no closes provided")
	}
	start := len(closes) - TradingDaysPerYear
	if start < 0 {
		start = 0
	}
	window := closes[start:]
	return floats.Max(window), floats.Min(window), nil
}

// Calculate52WeekPosition returns where the current price sits within the 52-week range (0.0~1.0).
func Calculate52WeekPosition(current, high, low float64) (float64, error) {
	if high == low {
		return 0.5, nil
	}
	if high < low {
		return 0, errors.New("high must be >= low")
	}
	pos := (current - low) / (high - low)
	if pos < 0 {
		pos = 0
	}
	if pos > 1 {
		pos = 1
	}
	return pos, nil
}
