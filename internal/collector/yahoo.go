package collector

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"math"
	"net/http"
	"net/url"
	"time"

	"StockInsight/internal/model"
)

const (
	yahooPrimaryHost   = "https://query1.finance.yahoo.com"
	yahooSecondaryHost = "https://query2.finance.yahoo.com"

	browserUserAgent = "Mozilla/5.0 (Windows NT 10.0; Win64; x64) AppleWebKit/537.36 " +
		"(KHTML, like Gecko) Chrome/123.0.0.0 Safari/537.36"
)

// YahooFetcher implements Provider using the Yahoo Finance chart API.
// Each fetch tries the hosts in order and returns the first non-empty answer.
type YahooFetcher struct {
	Client *http.Client
	Hosts  []string
	Now    func() time.Time
}

// NewYahooFetcher creates a Yahoo Finance provider with optional proxy support.
func NewYahooFetcher(proxyURL string) *YahooFetcher {
	return &YahooFetcher{
		Client: NewHTTPClient(proxyURL),
		Hosts:  []string{yahooPrimaryHost, yahooSecondaryHost},
		Now:    time.Now,
	}
}

// NewHTTPClient returns a client with a 30s timeout routed through proxyURL when set.
func NewHTTPClient(proxyURL string) *http.Client {
	transport := &http.Transport{}
	if proxyURL != "" {
		if u, err := url.Parse(proxyURL); err == nil {
			transport.Proxy = http.ProxyURL(u)
		}
	}
	return &http.Client{
		Timeout:   30 * time.Second,
		Transport: transport,
	}
}

func (f *YahooFetcher) Name() string { return "yahoo" }

// yahooChart is the response structure from Yahoo Finance chart API.
type yahooChart struct {
	Chart struct {
		Result []struct {
			Timestamp  []int64 `json:"timestamp"`
			Indicators struct {
				Quote []struct {
					Open   []interface{} `json:"open"`
					High   []interface{} `json:"high"`
					Low    []interface{} `json:"low"`
					Close  []interface{} `json:"close"`
					Volume []interface{} `json:"volume"`
				} `json:"quote"`
			} `json:"indicators"`
		} `json:"result"`
		Error *struct {
			Code        string `json:"code"`
			Description string `json:"description"`
		} `json:"error"`
	} `json:"chart"`
}

// toFloat converts one decoded JSON quote value to a float.
// Input contract: the value comes from encoding/json decoding into interface{}, so it is
// either a float64, a json.Number, or nil (Yahoo sends null for holidays and halted days).
// nil, non-numeric values and out-of-range indexes all map to NaN.
func toFloat(values []interface{}, i int) float64 {
	if i >= len(values) {
		return math.NaN()
	}
	switch n := values[i].(type) {
	case float64:
		return n
	case json.Number:
		if v, err := n.Float64(); err == nil {
			return v
		}
	}
	return math.NaN()
}

// FetchDailyBars returns daily bars covering the last windowDays calendar days.
func (f *YahooFetcher) FetchDailyBars(ctx context.Context, symbol string, windowDays int) ([]model.OHLCV, error) {
	now := f.Now()
	from := now.AddDate(0, 0, -windowDays)

	var lastErr error
	for _, host := range f.Hosts {
		bars, err := f.fetchChart(ctx, host, symbol, from, now)
		if err == nil && len(bars) > 0 {
			return bars, nil
		}
		if err == nil {
			err = ErrNoData
		}
		lastErr = err
		if ctx.Err() != nil {
			break
		}
	}
	return nil, lastErr
}

func (f *YahooFetcher) fetchChart(ctx context.Context, host, symbol string, from, to time.Time) ([]model.OHLCV, error) {
	u := fmt.Sprintf("%s/v8/finance/chart/%s?interval=1d&period1=%d&period2=%d&includePrePost=false&events=div%%2Csplit",
		host, url.PathEscape(symbol), from.Unix(), to.Unix())

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, u, nil)
	if err != nil {
		return nil, err
	}
	req.Header.Set("User-Agent", browserUserAgent)

	resp, err := f.Client.Do(req)
	if err != nil {
		return nil, fmt.Errorf("yahoo fetch: %w", err)
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, fmt.Errorf("yahoo read body: %w", err)
	}
	if resp.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("yahoo: status %d, body: %.200s", resp.StatusCode, string(body))
	}

	var chart yahooChart
	if err := json.Unmarshal(body, &chart); err != nil {
		return nil, fmt.Errorf("yahoo decode: %w", err)
	}
	if chart.Chart.Error != nil {
		return nil, fmt.Errorf("yahoo api error: %s", chart.Chart.Error.Description)
	}
	if len(chart.Chart.Result) == 0 || len(chart.Chart.Result[0].Timestamp) == 0 ||
		len(chart.Chart.Result[0].Indicators.Quote) == 0 {
		return nil, ErrNoData
	}

	result := chart.Chart.Result[0]
	quote := result.Indicators.Quote[0]
	bars := make([]model.OHLCV, 0, len(result.Timestamp))

	for i, ts := range result.Timestamp {
		c := toFloat(quote.Close, i)
		if math.IsNaN(c) {
			continue // null bars (holidays, halts)
		}
		vol := toFloat(quote.Volume, i)
		if math.IsNaN(vol) {
			vol = 0
		}
		bars = append(bars, model.OHLCV{
			Time:   time.Unix(ts, 0).UTC(),
			Open:   toFloat(quote.Open, i),
			High:   toFloat(quote.High, i),
			Low:    toFloat(quote.Low, i),
			Close:  c,
			Volume: vol,
		})
	}

	return normalizeBars(bars), nil
}
