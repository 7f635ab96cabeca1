package collector

import (
	"context"
	"errors"
	"sort"

	"StockInsight/internal/model"
)

// ErrNoData is returned when a provider (or every fallback candidate) yields no bars.
var ErrNoData = errors.New("no data")

// Provider fetches daily bars from a market-data source.
type Provider interface {
	// FetchDailyBars returns the daily bars of the last windowDays calendar days, oldest first.
	FetchDailyBars(ctx context.Context, symbol string, windowDays int) ([]model.OHLCV, error)
	Name() string
}

// normalizeBars orders bars by time and drops repeated dates, keeping the last bar seen for a day.
func normalizeBars(bars []model.OHLCV) []model.OHLCV {
	sort.SliceStable(bars, func(i, j int) bool { return bars[i].Time.Before(bars[j].Time) })
	out := bars[:0]
	for _, b := range bars {
		if n := len(out); n > 0 && sameDay(out[n-1], b) {
			out[n-1] = b
			continue
		}
		out = append(out, b)
	}
	return out
}

func sameDay(a, b model.OHLCV) bool {
	ay, am, ad := a.Time.Date()
	by, bm, bd := b.Time.Date()
	return ay == by && am == bm && ad == bd
}
