// Package features turns a daily bar series into a FeatureRecord.
package features

import (
	"math"

	"StockInsight/internal/calculator"
	"StockInsight/internal/model"
)

const (
	// MinBars is the shortest series a record can be built from.
	MinBars = 50
	// LongWindow is the window of the long moving average.
	LongWindow = 200

	rsiPeriod  = 14
	macdFast   = 12
	macdSlow   = 26
	macdSignal = 9

	overbought = 70.0
	oversold   = 30.0
)

// Build computes the feature record for series. It returns nil when the series
// has fewer than MinBars bars; callers skip such symbols.
func Build(series *model.BarSeries) *model.FeatureRecord {
	if series.Len() < MinBars {
		return nil
	}

	closes := series.Closes()
	last := series.Last()

	symbol := series.Symbol
	if symbol == "" {
		symbol = series.Requested
	}
	rec := &model.FeatureRecord{
		Symbol:    symbol,
		Requested: series.Requested,
		LastDate:  last.Time,
		Bars:      len(closes),
		Price:     last.Close,
		Volume:    last.Volume,
	}

	rec.SMA20 = smaOrNaN(closes, 20)
	rec.SMA50 = smaOrNaN(closes, 50)
	rec.SMA200 = smaOrNaN(closes, LongWindow)

	rec.RSI14, _ = calculator.CalculateRSI(closes, rsiPeriod)

	macd, err := calculator.CalculateMACD(closes, macdFast, macdSlow, macdSignal)
	if err != nil {
		macd = calculator.MACD{Line: math.NaN(), Signal: math.NaN(), Hist: math.NaN()}
	}
	rec.MACD, rec.MACDSignal, rec.MACDHist = macd.Line, macd.Signal, macd.Hist

	rec.Change1d, _ = calculator.PercentChange(closes, 1)
	rec.Change5d, _ = calculator.PercentChange(closes, 5)
	rec.Change20d, _ = calculator.PercentChange(closes, 20)

	rec.High52w, rec.Low52w, _ = calculator.Calculate52WeekRange(closes)
	rec.OffHigh52wPct = calculator.RelativeTo(rec.Price, rec.High52w)
	rec.AboveLow52wPct = calculator.RelativeTo(rec.Price, rec.Low52w)
	if pos, err := calculator.Calculate52WeekPosition(rec.Price, rec.High52w, rec.Low52w); err == nil {
		rec.RangePos52w = pos
	} else {
		rec.RangePos52w = math.NaN()
	}

	rec.Trend = TrendOf(rec.Price, rec.SMA50, rec.SMA200)
	rec.RSIState = RSIStateOf(rec.RSI14)
	rec.MACDState = MACDStateOf(rec.MACD, rec.MACDSignal)

	return rec
}

func smaOrNaN(closes []float64, period int) float64 {
	v, err := calculator.CalculateSMA(closes, period)
	if err != nil {
		return math.NaN()
	}
	return v
}

// TrendOf labels an uptrend when price > sma50 > sma200. An undefined sma200
// counts as negative infinity, so short histories only need price > sma50.
func TrendOf(price, sma50, sma200 float64) model.TrendLabel {
	long := sma200
	if math.IsNaN(long) {
		long = math.Inf(-1)
	}
	if price > sma50 && sma50 > long {
		return model.TrendUp
	}
	return model.TrendDownSide
}

// RSIStateOf classifies RSI; NaN is Neutral.
func RSIStateOf(rsi float64) model.RSIState {
	switch {
	case math.IsNaN(rsi):
		return model.RSINeutral
	case rsi >= overbought:
		return model.RSIOverbought
	case rsi <= oversold:
		return model.RSIOversold
	default:
		return model.RSINeutral
	}
}

// MACDStateOf is Bullish when the MACD line is strictly above its signal line.
func MACDStateOf(line, signal float64) model.MACDState {
	if line > signal {
		return model.MACDBullish
	}
	return model.MACDBearish
}
