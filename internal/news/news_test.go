package news

import (
	"context"
	"fmt"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const rssBody = `<?xml version="1.0" encoding="UTF-8"?>
<rss version="2.0"><channel><title>Google News</title>
<item><title>Tesla deliveries beat estimates - Reuters</title><link>https://example.com/a</link>
<pubDate>Mon, 30 Jun 2025 10:00:00 GMT</pubDate></item>
<item><title>Tesla shares rally - Bloomberg</title><link>https://example.com/b</link>
<pubDate>Mon, 30 Jun 2025 09:00:00 GMT</pubDate></item>
</channel></rss>`

var newsNow = time.Date(2025, 6, 30, 12, 0, 0, 0, time.UTC)

func yahooBody(times ...int64) string {
	s := `{"news":[`
	for i, ts := range times {
		if i > 0 {
			s += ","
		}
		s += fmt.Sprintf(`{"title":"Y%d","link":"https://y/%d","publisher":"Yahoo","providerPublishTime":%d}`, i, i, ts)
	}
	return s + `]}`
}

func newTestFetcher(t *testing.T, rss, yahoo http.HandlerFunc, perTicker int) (*Fetcher, *string) {
	t.Helper()
	var gotQuery string
	gsrv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		gotQuery = r.URL.Query().Get("q")
		rss(w, r)
	}))
	t.Cleanup(gsrv.Close)
	ysrv := httptest.NewServer(yahoo)
	t.Cleanup(ysrv.Close)

	f := NewFetcher(http.DefaultClient, Options{Enable: true, LookbackDays: 2, PerTicker: perTicker})
	f.Google.BaseURL = gsrv.URL
	f.Yahoo.BaseURL = ysrv.URL
	f.Yahoo.Now = func() time.Time { return newsNow }
	return f, &gotQuery
}

func TestForSymbol_GoogleOnly(t *testing.T) {
	yahooCalled := false
	f, q := newTestFetcher(t,
		func(w http.ResponseWriter, r *http.Request) { _, _ = w.Write([]byte(rssBody)) },
		func(w http.ResponseWriter, r *http.Request) { yahooCalled = true },
		2)

	items, err := f.ForSymbol(context.Background(), "TSLA", "Tesla")
	require.NoError(t, err)
	require.Len(t, items, 2)
	assert.Equal(t, "Tesla deliveries beat estimates - Reuters", items[0].Title)
	assert.Equal(t, "https://example.com/a", items[0].Link)
	assert.Equal(t, "Reuters", items[0].Source)
	assert.Equal(t, "2025-06-30T10:00:00Z", items[0].Published)
	assert.Equal(t, "Tesla TSLA stock OR shares when:2d", *q)
	assert.False(t, yahooCalled)
}

func TestForSymbol_TopsUpFromYahoo(t *testing.T) {
	fresh := newsNow.Add(-time.Hour).Unix()
	stale := newsNow.Add(-72 * time.Hour).Unix()
	f, _ := newTestFetcher(t,
		func(w http.ResponseWriter, r *http.Request) { _, _ = w.Write([]byte(rssBody)) },
		func(w http.ResponseWriter, r *http.Request) {
			assert.Equal(t, "NVDA", r.URL.Query().Get("q"))
			_, _ = w.Write([]byte(yahooBody(stale, fresh, fresh)))
		},
		3)

	items, err := f.ForSymbol(context.Background(), "NVDA", "Nvidia")
	require.NoError(t, err)
	require.Len(t, items, 3)
	assert.Equal(t, "Y1", items[2].Title)
	assert.Equal(t, "Yahoo", items[2].Source)
}

func TestForSymbol_GoogleDownYahooUp(t *testing.T) {
	fresh := newsNow.Add(-time.Hour).Unix()
	f, _ := newTestFetcher(t,
		func(w http.ResponseWriter, r *http.Request) { w.WriteHeader(http.StatusServiceUnavailable) },
		func(w http.ResponseWriter, r *http.Request) { _, _ = w.Write([]byte(yahooBody(fresh))) },
		3)

	items, err := f.ForSymbol(context.Background(), "AMD", "")
	require.NoError(t, err)
	require.Len(t, items, 1)
	assert.Equal(t, "Y0", items[0].Title)
}

func TestForSymbol_AllSourcesFail(t *testing.T) {
	f, _ := newTestFetcher(t,
		func(w http.ResponseWriter, r *http.Request) { w.WriteHeader(http.StatusInternalServerError) },
		func(w http.ResponseWriter, r *http.Request) { w.WriteHeader(http.StatusInternalServerError) },
		3)

	items, err := f.ForSymbol(context.Background(), "AMD", "AMD")
	assert.Error(t, err)
	assert.Empty(t, items)
}

func TestForSymbol_Disabled(t *testing.T) {
	f := NewFetcher(http.DefaultClient, Options{Enable: false, PerTicker: 3})
	items, err := f.ForSymbol(context.Background(), "TSLA", "Tesla")
	assert.NoError(t, err)
	assert.Nil(t, items)
}

func TestForSymbols(t *testing.T) {
	f, _ := newTestFetcher(t,
		func(w http.ResponseWriter, r *http.Request) { _, _ = w.Write([]byte(rssBody)) },
		func(w http.ResponseWriter, r *http.Request) { _, _ = w.Write([]byte(`{"news":[]}`)) },
		1)

	got := f.ForSymbols(context.Background(), []string{"TSLA", "AAPL"}, func(s string) string { return s })
	assert.Len(t, got, 2)
	assert.Len(t, got["AAPL"], 1)
}

func TestGoogleSearchURL(t *testing.T) {
	g := NewGoogleSource(http.DefaultClient)
	u := g.searchURL("Apple AAPL stock OR shares when:2d")
	assert.Contains(t, u, "hl=en-US")
	assert.Contains(t, u, "gl=US")
	assert.Contains(t, u, "ceid=US%3Aen")
}
