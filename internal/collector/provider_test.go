package collector

import (
	"context"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"StockInsight/internal/model"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const chartBody = `{"chart":{"result":[{"timestamp":[1719792000,1719878400,1719964800],
"indicators":{"quote":[{"open":[10,11,null],"high":[10.5,11.5,null],"low":[9.5,10.5,null],
"close":[10.2,null,12.1],"volume":[1000,null,null]}]}}],"error":null}}`

func TestYahooFetcher_SkipsNullCloses(t *testing.T) {
	var gotUA, gotPath string
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		gotUA = r.Header.Get("User-Agent")
		gotPath = r.URL.Path
		_, _ = w.Write([]byte(chartBody))
	}))
	defer srv.Close()

	f := &YahooFetcher{Client: srv.Client(), Hosts: []string{srv.URL}, Now: time.Now}
	bars, err := f.FetchDailyBars(context.Background(), "^GSPC", 30)
	require.NoError(t, err)
	require.Len(t, bars, 2)
	assert.Equal(t, 10.2, bars[0].Close)
	assert.Equal(t, 12.1, bars[1].Close)
	assert.Equal(t, 0.0, bars[1].Volume)
	assert.True(t, bars[0].Time.Before(bars[1].Time))
	assert.Contains(t, gotUA, "Mozilla")
	assert.Equal(t, "/v8/finance/chart/^GSPC", gotPath)
}

func TestYahooFetcher_FallsBackToSecondHost(t *testing.T) {
	bad := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		http.Error(w, "throttled", http.StatusTooManyRequests)
	}))
	defer bad.Close()
	good := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		_, _ = w.Write([]byte(chartBody))
	}))
	defer good.Close()

	f := &YahooFetcher{Client: http.DefaultClient, Hosts: []string{bad.URL, good.URL}, Now: time.Now}
	bars, err := f.FetchDailyBars(context.Background(), "AAPL", 30)
	require.NoError(t, err)
	assert.Len(t, bars, 2)
}

func TestYahooFetcher_EmptyResult(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		_, _ = w.Write([]byte(`{"chart":{"result":[],"error":null}}`))
	}))
	defer srv.Close()

	f := &YahooFetcher{Client: srv.Client(), Hosts: []string{srv.URL}, Now: time.Now}
	_, err := f.FetchDailyBars(context.Background(), "NOPE", 30)
	assert.ErrorIs(t, err, ErrNoData)
}

func TestYahooFetcher_APIError(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		_, _ = w.Write([]byte(`{"chart":{"result":null,"error":{"code":"Not Found","description":"No data found"}}}`))
	}))
	defer srv.Close()

	f := &YahooFetcher{Client: srv.Client(), Hosts: []string{srv.URL}, Now: time.Now}
	_, err := f.FetchDailyBars(context.Background(), "NOPE", 30)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "No data found")
}

func TestRESTFetcher(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "Bearer secret", r.Header.Get("Authorization"))
		if r.URL.Query().Get("symbol") == "MISSING" {
			w.WriteHeader(http.StatusNotFound)
			return
		}
		_, _ = w.Write([]byte(`[
			{"timestamp":1719878400,"open":2,"high":2,"low":2,"close":2,"volume":5},
			{"timestamp":1719792000,"open":1,"high":1,"low":1,"close":1,"volume":5}
		]`))
	}))
	defer srv.Close()

	f := NewRESTFetcher(srv.URL, "secret", "")
	bars, err := f.FetchDailyBars(context.Background(), "MSFT", 10)
	require.NoError(t, err)
	require.Len(t, bars, 2)
	assert.Equal(t, 1.0, bars[0].Close)
	assert.Equal(t, 2.0, bars[1].Close)

	_, err = f.FetchDailyBars(context.Background(), "MISSING", 10)
	assert.ErrorIs(t, err, ErrNoData)
}

func TestNormalizeBars(t *testing.T) {
	d := func(day, hour int) time.Time { return time.Date(2025, 1, day, hour, 0, 0, 0, time.UTC) }
	bars := normalizeBars([]model.OHLCV{
		{Time: d(3, 14), Close: 3},
		{Time: d(1, 14), Close: 1},
		{Time: d(3, 20), Close: 33},
		{Time: d(2, 14), Close: 2},
	})
	require.Len(t, bars, 3)
	assert.Equal(t, 1.0, bars[0].Close)
	assert.Equal(t, 2.0, bars[1].Close)
	assert.Equal(t, 33.0, bars[2].Close)
}
