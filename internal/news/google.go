package news

import (
	"context"
	"fmt"
	"net/http"
	"net/url"
	"strings"
	"time"

	"StockInsight/internal/model"

	"github.com/mmcdole/gofeed"
)

const googleNewsURL = "https://news.google.com/rss/search"

// GoogleSource reads the Google News RSS search feed.
type GoogleSource struct {
	BaseURL  string
	Language string // e.g. en-US
	Country  string // e.g. US
	parser   *gofeed.Parser
}

// NewGoogleSource creates a Google News source using client for transport.
func NewGoogleSource(client *http.Client) *GoogleSource {
	p := gofeed.NewParser()
	p.Client = client
	return &GoogleSource{
		BaseURL:  googleNewsURL,
		Language: "en-US",
		Country:  "US",
		parser:   p,
	}
}

// Query builds the search phrase for a company.
func Query(company, symbol string, days int) string {
	return fmt.Sprintf("%s %s stock OR shares when:%dd", company, symbol, days)
}

func (g *GoogleSource) searchURL(query string) string {
	lang := g.Language
	if i := strings.Index(lang, "-"); i >= 0 {
		lang = lang[:i]
	}
	q := url.Values{}
	q.Set("q", query)
	q.Set("hl", g.Language)
	q.Set("gl", g.Country)
	q.Set("ceid", g.Country+":"+lang)
	return g.BaseURL + "?" + q.Encode()
}

// Search returns at most limit items of the feed for query, in feed order.
func (g *GoogleSource) Search(ctx context.Context, query string, limit int) ([]model.NewsItem, error) {
	feed, err := g.parser.ParseURLWithContext(g.searchURL(query), ctx)
	if err != nil {
		return nil, fmt.Errorf("google news: %w", err)
	}
	items := make([]model.NewsItem, 0, limit)
	for _, it := range feed.Items {
		if len(items) >= limit {
			break
		}
		items = append(items, model.NewsItem{
			Title:     strings.TrimSpace(it.Title),
			Link:      strings.TrimSpace(it.Link),
			Published: publishedString(it),
			Source:    itemSource(it),
		})
	}
	return items, nil
}

func publishedString(it *gofeed.Item) string {
	if it.PublishedParsed != nil {
		return it.PublishedParsed.UTC().Format(time.RFC3339)
	}
	return it.Published
}

// itemSource prefers the feed author; Google titles end with " - Publisher" otherwise.
func itemSource(it *gofeed.Item) string {
	if len(it.Authors) > 0 && it.Authors[0] != nil && it.Authors[0].Name != "" {
		return it.Authors[0].Name
	}
	if i := strings.LastIndex(it.Title, " - "); i >= 0 {
		return strings.TrimSpace(it.Title[i+3:])
	}
	return ""
}
