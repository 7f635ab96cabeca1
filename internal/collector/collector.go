package collector

import (
	"context"

	"StockInsight/internal/features"
	"StockInsight/internal/model"

	"github.com/rs/zerolog/log"
)

// Group is a named list of symbols shown together in the market overview.
type Group struct {
	Key     string
	Title   string
	Symbols []string
}

// GroupResult holds the feature records of one overview group.
type GroupResult struct {
	Group   Group
	Records []*model.FeatureRecord
}

// Watchlist is the outcome of collecting the primary symbol list.
type Watchlist struct {
	Records []*model.FeatureRecord
	Series  map[string]*model.BarSeries // keyed by requested symbol
	Skipped []string
}

// Collector orchestrates history fetching and feature building, one symbol at a time.
type Collector struct {
	History  *HistoryFetcher
	Lookback int
}

// NewCollector creates a new Collector.
func NewCollector(history *HistoryFetcher, lookback int) *Collector {
	return &Collector{History: history, Lookback: lookback}
}

// Collect fetches one symbol and builds its record. A nil record with a non-empty
// series means the history was too short.
func (c *Collector) Collect(ctx context.Context, symbol string) (*model.BarSeries, *model.FeatureRecord, error) {
	series, err := c.History.Fetch(ctx, symbol, c.Lookback)
	if err != nil {
		return series, nil, err
	}
	return series, features.Build(series), nil
}

// Overview collects every group; symbols without data are dropped from their group.
func (c *Collector) Overview(ctx context.Context, groups []Group) []GroupResult {
	out := make([]GroupResult, 0, len(groups))
	for _, g := range groups {
		res := GroupResult{Group: g}
		for _, sym := range g.Symbols {
			if ctx.Err() != nil {
				break
			}
			_, rec, err := c.Collect(ctx, sym)
			if err != nil {
				log.Warn().Err(err).Str("group", g.Key).Str("symbol", sym).Msg("overview symbol skipped")
				continue
			}
			if rec == nil {
				log.Warn().Str("group", g.Key).Str("symbol", sym).Msg("overview symbol has too little history")
				continue
			}
			res.Records = append(res.Records, rec)
		}
		out = append(out, res)
	}
	return out
}

// Watchlist collects the primary symbols, keeping the bar series for charting.
func (c *Collector) Watchlist(ctx context.Context, symbols []string) Watchlist {
	wl := Watchlist{Series: make(map[string]*model.BarSeries)}
	for _, sym := range symbols {
		if ctx.Err() != nil {
			wl.Skipped = append(wl.Skipped, sym)
			continue
		}
		series, rec, err := c.Collect(ctx, sym)
		if err != nil {
			log.Warn().Err(err).Str("symbol", sym).Msg("no data, symbol skipped")
			wl.Skipped = append(wl.Skipped, sym)
			continue
		}
		wl.Series[sym] = series
		if rec == nil {
			log.Warn().Str("symbol", sym).Int("bars", series.Len()).Msg("not enough history, symbol skipped")
			wl.Skipped = append(wl.Skipped, sym)
			continue
		}
		wl.Records = append(wl.Records, rec)
	}
	return wl
}
