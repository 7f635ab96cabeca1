package news

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"net/url"
	"time"

	"StockInsight/internal/model"
)

const yahooSearchURL = "https://query2.finance.yahoo.com/v1/finance/search"

// YahooSource reads headlines from the Yahoo Finance search endpoint.
type YahooSource struct {
	BaseURL string
	Client  *http.Client
	Now     func() time.Time
}

func NewYahooSource(client *http.Client) *YahooSource {
	return &YahooSource{BaseURL: yahooSearchURL, Client: client, Now: time.Now}
}

type yahooSearch struct {
	News []struct {
		Title               string `json:"title"`
		Link                string `json:"link"`
		Publisher           string `json:"publisher"`
		ProviderPublishTime int64  `json:"providerPublishTime"`
	} `json:"news"`
}

// Recent returns up to limit headlines for symbol published within the last days.
func (y *YahooSource) Recent(ctx context.Context, symbol string, days, limit int) ([]model.NewsItem, error) {
	q := url.Values{}
	q.Set("q", symbol)
	q.Set("quotesCount", "0")
	q.Set("newsCount", fmt.Sprint(limit*3))
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, y.BaseURL+"?"+q.Encode(), nil)
	if err != nil {
		return nil, err
	}
	req.Header.Set("User-Agent", "Mozilla/5.0")

	resp, err := y.Client.Do(req)
	if err != nil {
		return nil, fmt.Errorf("yahoo news: %w", err)
	}
	defer resp.Body.Close()
	if resp.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("yahoo news: status %d", resp.StatusCode)
	}
	var body yahooSearch
	if err := json.NewDecoder(resp.Body).Decode(&body); err != nil {
		return nil, fmt.Errorf("yahoo news decode: %w", err)
	}

	cutoff := y.Now().Add(-time.Duration(days) * 24 * time.Hour).Unix()
	var items []model.NewsItem
	for _, n := range body.News {
		if len(items) >= limit {
			break
		}
		if n.ProviderPublishTime == 0 || n.ProviderPublishTime < cutoff {
			continue
		}
		items = append(items, model.NewsItem{
			Title:     n.Title,
			Link:      n.Link,
			Published: time.Unix(n.ProviderPublishTime, 0).UTC().Format(time.RFC3339),
			Source:    n.Publisher,
		})
	}
	return items, nil
}
