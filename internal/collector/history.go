package collector

import (
	"context"
	"errors"
	"fmt"
	"time"

	"StockInsight/internal/model"

	"github.com/cenkalti/backoff/v4"
	"github.com/rs/zerolog/log"
	"golang.org/x/time/rate"
)

// HistoryOptions tunes a HistoryFetcher.
type HistoryOptions struct {
	Retries      int           // attempts per candidate symbol
	RetryDelay   time.Duration // wait between attempts of the same candidate
	WindowDays   int           // calendar days requested from the provider
	RequestDelay time.Duration // minimum spacing between provider requests, 0 disables
}

// HistoryFetcher loads bar series, retrying transient failures and substituting
// configured fallback symbols when the primary cannot be loaded.
type HistoryFetcher struct {
	provider  Provider
	fallbacks map[string][]string
	opts      HistoryOptions
	limiter   *rate.Limiter
	now       func() time.Time
}

// NewHistoryFetcher creates a fetcher over provider. fallbacks maps a primary symbol
// to the ordered substitutes tried after it.
func NewHistoryFetcher(provider Provider, fallbacks map[string][]string, opts HistoryOptions) *HistoryFetcher {
	if opts.Retries < 1 {
		opts.Retries = 1
	}
	if opts.WindowDays <= 0 {
		opts.WindowDays = 400
	}
	h := &HistoryFetcher{
		provider:  provider,
		fallbacks: fallbacks,
		opts:      opts,
		now:       time.Now,
	}
	if opts.RequestDelay > 0 {
		h.limiter = rate.NewLimiter(rate.Every(opts.RequestDelay), 1)
	}
	return h
}

// Candidates returns the symbols tried for symbol, in order.
func (h *HistoryFetcher) Candidates(symbol string) []string {
	out := []string{symbol}
	return append(out, h.fallbacks[symbol]...)
}

// Fetch returns the most recent lookbackDays bars for symbol. The first candidate that
// yields data wins and its name is recorded in the series. When every candidate fails
// the returned series is empty and the error wraps ErrNoData.
func (h *HistoryFetcher) Fetch(ctx context.Context, symbol string, lookbackDays int) (*model.BarSeries, error) {
	var lastErr error
	for _, candidate := range h.Candidates(symbol) {
		bars, err := h.fetchCandidate(ctx, candidate)
		if err == nil {
			if lookbackDays > 0 && len(bars) > lookbackDays {
				bars = bars[len(bars)-lookbackDays:]
			}
			if candidate != symbol {
				log.Info().Str("symbol", symbol).Str("candidate", candidate).Msg("using fallback symbol")
			}
			return &model.BarSeries{
				Requested: symbol,
				Symbol:    candidate,
				Bars:      bars,
				FetchedAt: h.now(),
			}, nil
		}
		lastErr = err
		if ctxErr := ctx.Err(); ctxErr != nil {
			return &model.BarSeries{Requested: symbol}, ctxErr
		}
		log.Warn().Err(err).Str("symbol", symbol).Str("candidate", candidate).Msg("candidate exhausted")
	}
	return &model.BarSeries{Requested: symbol}, fmt.Errorf("fetch history %s: %w", symbol, errors.Join(ErrNoData, lastErr))
}

func (h *HistoryFetcher) fetchCandidate(ctx context.Context, candidate string) ([]model.OHLCV, error) {
	var bars []model.OHLCV
	attempt := 0
	op := func() error {
		attempt++
		if h.limiter != nil {
			if err := h.limiter.Wait(ctx); err != nil {
				return backoff.Permanent(err)
			}
		}
		got, err := h.provider.FetchDailyBars(ctx, candidate, h.opts.WindowDays)
		if err != nil {
			return err
		}
		if len(got) == 0 {
			return ErrNoData
		}
		bars = got
		return nil
	}

	policy := backoff.WithContext(
		backoff.WithMaxRetries(backoff.NewConstantBackOff(h.opts.RetryDelay), uint64(h.opts.Retries-1)),
		ctx,
	)
	notify := func(err error, wait time.Duration) {
		log.Debug().Err(err).Str("candidate", candidate).Int("attempt", attempt).
			Dur("wait", wait).Msg("fetch attempt failed, retrying")
	}
	if err := backoff.RetryNotify(op, policy, notify); err != nil {
		return nil, err
	}
	return bars, nil
}
