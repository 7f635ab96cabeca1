package model

import (
	"fmt"
	"math"
)

// FormatPrice renders x with two decimals, "-" when undefined.
func FormatPrice(x float64) string {
	if math.IsNaN(x) || math.IsInf(x, 0) {
		return "-"
	}
	return fmt.Sprintf("%.2f", x)
}

// FormatPct renders a fraction as a percentage with two decimals, "-" when undefined.
func FormatPct(x float64) string {
	if math.IsNaN(x) || math.IsInf(x, 0) {
		return "-"
	}
	return fmt.Sprintf("%.2f%%", x*100)
}

// FormatFixed renders x with the given number of decimals, "-" when undefined.
func FormatFixed(x float64, digits int) string {
	if math.IsNaN(x) || math.IsInf(x, 0) {
		return "-"
	}
	return fmt.Sprintf("%.*f", digits, x)
}
