package model

import (
	"math"
	"time"
)

// TrendLabel classifies the moving-average alignment.
type TrendLabel string

const (
	TrendUp       TrendLabel = "Uptrend"
	TrendDownSide TrendLabel = "Down/Sideways"
)

// RSIState classifies RSI(14).
type RSIState string

const (
	RSIOverbought RSIState = "Overbought"
	RSIOversold   RSIState = "Oversold"
	RSINeutral    RSIState = "Neutral"
)

// MACDState classifies the MACD line against its signal line.
type MACDState string

const (
	MACDBullish MACDState = "Bullish"
	MACDBearish MACDState = "Bearish"
)

// FeatureRecord holds the indicators computed from one BarSeries snapshot.
// Undefined scalars are NaN. A record is never mutated after it is built.
type FeatureRecord struct {
	Symbol    string // symbol that produced the data
	Requested string // symbol from the watchlist
	LastDate  time.Time
	Bars      int

	Price  float64
	Volume float64

	SMA20  float64
	SMA50  float64
	SMA200 float64

	RSI14 float64

	MACD       float64
	MACDSignal float64
	MACDHist   float64

	Change1d  float64
	Change5d  float64
	Change20d float64

	High52w        float64
	Low52w         float64
	OffHigh52wPct  float64
	AboveLow52wPct float64
	RangePos52w    float64 // 0 at the 52w low, 1 at the high

	Trend     TrendLabel
	RSIState  RSIState
	MACDState MACDState
}

// HasSMA200 reports whether enough history existed for the 200-day average.
func (f *FeatureRecord) HasSMA200() bool { return !math.IsNaN(f.SMA200) }

// DateString formats LastDate as YYYY-MM-DD.
func (f *FeatureRecord) DateString() string { return f.LastDate.Format("2006-01-02") }
