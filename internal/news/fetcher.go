package news

import (
	"context"
	"errors"
	"net/http"
	"time"

	"StockInsight/internal/model"

	"github.com/rs/zerolog/log"
	"golang.org/x/time/rate"
)

// Options mirrors the news section of the configuration.
type Options struct {
	Enable       bool
	LookbackDays int
	PerTicker    int
	RequestDelay time.Duration
}

// Fetcher collects a few recent headlines per symbol: Google News first,
// topped up from Yahoo when the feed returns fewer than PerTicker items.
type Fetcher struct {
	Google  *GoogleSource
	Yahoo   *YahooSource
	opts    Options
	limiter *rate.Limiter
}

func NewFetcher(client *http.Client, opts Options) *Fetcher {
	f := &Fetcher{
		Google: NewGoogleSource(client),
		Yahoo:  NewYahooSource(client),
		opts:   opts,
	}
	if opts.RequestDelay > 0 {
		f.limiter = rate.NewLimiter(rate.Every(opts.RequestDelay), 1)
	}
	return f
}

func (f *Fetcher) wait(ctx context.Context) error {
	if f.limiter == nil {
		return nil
	}
	return f.limiter.Wait(ctx)
}

// ForSymbol returns at most PerTicker items. Source failures are logged and reported
// in the error, but whatever was gathered is still returned.
func (f *Fetcher) ForSymbol(ctx context.Context, symbol, company string) ([]model.NewsItem, error) {
	if !f.opts.Enable || f.opts.PerTicker <= 0 {
		return nil, nil
	}
	if company == "" {
		company = symbol
	}
	want := f.opts.PerTicker
	var errs []error

	var items []model.NewsItem
	if err := f.wait(ctx); err != nil {
		return nil, err
	}
	got, err := f.Google.Search(ctx, Query(company, symbol, f.opts.LookbackDays), want)
	if err != nil {
		log.Warn().Err(err).Str("symbol", symbol).Msg("google news failed")
		errs = append(errs, err)
	}
	items = append(items, got...)

	if len(items) < want {
		if err := f.wait(ctx); err != nil {
			return items, err
		}
		more, err := f.Yahoo.Recent(ctx, symbol, f.opts.LookbackDays, want-len(items))
		if err != nil {
			log.Warn().Err(err).Str("symbol", symbol).Msg("yahoo news failed")
			errs = append(errs, err)
		}
		items = append(items, more...)
	}
	if len(items) > want {
		items = items[:want]
	}
	if len(items) > 0 {
		return items, nil
	}
	return items, errors.Join(errs...)
}

// ForSymbols fetches news for each symbol in order. The map is keyed by symbol and
// only holds symbols with at least one item.
func (f *Fetcher) ForSymbols(ctx context.Context, symbols []string, company func(string) string) map[string][]model.NewsItem {
	out := make(map[string][]model.NewsItem)
	for _, sym := range symbols {
		items, err := f.ForSymbol(ctx, sym, company(sym))
		if err != nil && ctx.Err() != nil {
			break
		}
		if len(items) > 0 {
			out[sym] = items
		}
	}
	return out
}
