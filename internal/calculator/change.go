package calculator

import "math"

// PercentChange returns closes[t]/closes[t-periods] - 1 at the last available pair.
func PercentChange(closes []float64, periods int) (float64, error) {
	if periods <= 0 || len(closes) <= periods {
		return math.NaN(), ErrInsufficientData
	}
	last := closes[len(closes)-1]
	prev := closes[len(closes)-1-periods]
	return last/prev - 1.0, nil
}

// RelativeTo returns price/ref - 1, or NaN when ref is zero.
func RelativeTo(price, ref float64) float64 {
	if ref == 0 {
		return math.NaN()
	}
	return price/ref - 1.0
}
