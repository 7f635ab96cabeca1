// Package testutil holds fixtures shared by package tests.
package testutil

import (
	"context"
	"fmt"
	"sync"
	"time"

	"StockInsight/internal/collector"
	"StockInsight/internal/model"
)

// MockProvider returns controllable fixed data for development and testing.
// Symbols without data yield ErrNoData; FailFirst makes the first N calls for a symbol fail.
type MockProvider struct {
	Data      map[string][]model.OHLCV
	FailFirst map[string]int

	mu    sync.Mutex
	calls []string
}

func (m *MockProvider) Name() string { return "mock" }

func (m *MockProvider) FetchDailyBars(_ context.Context, symbol string, _ int) ([]model.OHLCV, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.calls = append(m.calls, symbol)

	if n := m.FailFirst[symbol]; n > 0 {
		m.FailFirst[symbol] = n - 1
		return nil, fmt.Errorf("mock: transient failure for %s", symbol)
	}
	bars, ok := m.Data[symbol]
	if !ok || len(bars) == 0 {
		return nil, collector.ErrNoData
	}
	out := make([]model.OHLCV, len(bars))
	copy(out, bars)
	return out, nil
}

// Calls returns the symbols requested so far, in order.
func (m *MockProvider) Calls() []string {
	m.mu.Lock()
	defer m.mu.Unlock()
	return append([]string(nil), m.calls...)
}

// GenerateBars builds count daily bars whose closes step linearly from `from` to `to`,
// ending on `end`.
func GenerateBars(count int, from, to float64, end time.Time) []model.OHLCV {
	bars := make([]model.OHLCV, count)
	step := 0.0
	if count > 1 {
		step = (to - from) / float64(count-1)
	}
	for i := 0; i < count; i++ {
		p := from + step*float64(i)
		bars[i] = model.OHLCV{
			Time:   end.AddDate(0, 0, -(count - 1 - i)),
			Open:   p * 0.999,
			High:   p * 1.005,
			Low:    p * 0.995,
			Close:  p,
			Volume: 1000000,
		}
	}
	return bars
}
