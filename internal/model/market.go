package model

import "time"

// OHLCV represents a single daily candlestick bar.
type OHLCV struct {
	Time   time.Time
	Open   float64
	High   float64
	Low    float64
	Close  float64
	Volume float64
}

// BarSeries is an ordered run of daily bars for one symbol, oldest first.
// Requested is the symbol the caller asked for; Symbol is the one that produced the data,
// which differs when a fallback candidate was used.
type BarSeries struct {
	Requested string
	Symbol    string
	Bars      []OHLCV
	FetchedAt time.Time
}

// Len returns the number of bars.
func (s *BarSeries) Len() int {
	if s == nil {
		return 0
	}
	return len(s.Bars)
}

// Empty reports whether the series carries no data.
func (s *BarSeries) Empty() bool { return s.Len() == 0 }

// UsedFallback reports whether the data came from a substitute symbol.
func (s *BarSeries) UsedFallback() bool {
	return s != nil && s.Symbol != "" && s.Symbol != s.Requested
}

// Closes returns the closing prices in order.
func (s *BarSeries) Closes() []float64 {
	closes := make([]float64, s.Len())
	for i, b := range s.Bars {
		closes[i] = b.Close
	}
	return closes
}

// Last returns the most recent bar. The series must not be empty.
func (s *BarSeries) Last() OHLCV {
	return s.Bars[len(s.Bars)-1]
}
