package model

import (
	"bytes"
	"encoding/json"
	"fmt"
	"strconv"
	"strings"
)

// Stance is the model's recommendation for a symbol.
type Stance string

const (
	StanceBuy  Stance = "Buy"
	StanceSell Stance = "Sell"
	StanceHold Stance = "Hold"
)

// Advice is the structured reply of the language model for one batched prompt.
type Advice struct {
	Date    string           `json:"date"`
	Tickers []Recommendation `json:"tickers"`
	Notes   string           `json:"notes"`
}

// Recommendation is the per-symbol plan returned by the model.
type Recommendation struct {
	Ticker           string     `json:"ticker"`
	Stance           Stance     `json:"stance"`
	Confidence       Confidence `json:"confidence"`
	EntryRule        string     `json:"entry_rule"`
	EntryPriceRange  string     `json:"entry_price_range"`
	StopLoss         string     `json:"stop_loss"`
	TakeProfit       string     `json:"take_profit"`
	Timeframe        string     `json:"timeframe"`
	ReasoningBullets Bullets    `json:"reasoning_bullets"`
	PositiveFactors  Bullets    `json:"positive_factors"`
	NegativeFactors  Bullets    `json:"negative_factors"`
	NewsRefs         Bullets    `json:"news_refs"`
}

// ByTicker indexes recommendations by upper-cased ticker.
func (a *Advice) ByTicker() map[string]Recommendation {
	out := make(map[string]Recommendation)
	if a == nil {
		return out
	}
	for _, r := range a.Tickers {
		out[strings.ToUpper(strings.TrimSpace(r.Ticker))] = r
	}
	return out
}

// Lookup returns the recommendation for symbol, if the model produced one.
func (a *Advice) Lookup(symbol string) (Recommendation, bool) {
	r, ok := a.ByTicker()[strings.ToUpper(symbol)]
	return r, ok
}

// Confidence is a 0-100 score. Models emit it as a number or as a string such as "70" or "70%".
// Non-numeric values ("high") are kept verbatim in Raw.
type Confidence struct {
	Value float64
	Set   bool
	Raw   string
}

func (c *Confidence) UnmarshalJSON(data []byte) error {
	data = bytes.TrimSpace(data)
	if len(data) == 0 || bytes.Equal(data, []byte("null")) {
		*c = Confidence{}
		return nil
	}
	if data[0] != '"' {
		var v float64
		if err := json.Unmarshal(data, &v); err != nil {
			*c = Confidence{Raw: string(data)}
			return nil
		}
		*c = Confidence{Value: v, Set: true}
		return nil
	}
	var s string
	if err := json.Unmarshal(data, &s); err != nil {
		return err
	}
	s = strings.TrimSpace(s)
	if s == "" || s == "-" {
		*c = Confidence{}
		return nil
	}
	v, err := strconv.ParseFloat(strings.TrimSuffix(s, "%"), 64)
	if err != nil {
		*c = Confidence{Raw: s}
		return nil
	}
	*c = Confidence{Value: v, Set: true}
	return nil
}

func (c Confidence) MarshalJSON() ([]byte, error) {
	switch {
	case c.Set:
		return json.Marshal(c.Value)
	case c.Raw != "":
		return json.Marshal(c.Raw)
	}
	return []byte("null"), nil
}

func (c Confidence) String() string {
	switch {
	case c.Set:
		return strconv.FormatFloat(c.Value, 'f', -1, 64)
	case c.Raw != "":
		return c.Raw
	}
	return "-"
}

// Bullets is a list of short strings. A bare string is accepted as a one-item list,
// non-string items are printed with fmt.Sprint and the placeholder "-" decodes to an empty list.
type Bullets []string

func (b *Bullets) UnmarshalJSON(data []byte) error {
	data = bytes.TrimSpace(data)
	if len(data) == 0 || bytes.Equal(data, []byte("null")) {
		*b = nil
		return nil
	}
	if data[0] == '"' {
		var s string
		if err := json.Unmarshal(data, &s); err != nil {
			return err
		}
		*b = cleanBullets([]string{s})
		return nil
	}
	var raw []any
	if err := json.Unmarshal(data, &raw); err != nil {
		return fmt.Errorf("bullets: %w", err)
	}
	items := make([]string, 0, len(raw))
	for _, it := range raw {
		switch v := it.(type) {
		case nil:
		case string:
			items = append(items, v)
		default:
			items = append(items, fmt.Sprint(v))
		}
	}
	*b = cleanBullets(items)
	return nil
}

func cleanBullets(items []string) Bullets {
	var out Bullets
	for _, it := range items {
		it = strings.TrimSpace(it)
		if it == "" || it == "-" {
			continue
		}
		out = append(out, it)
	}
	return out
}

// Joined returns the bullets separated by "; ".
func (b Bullets) Joined() string { return strings.Join(b, "; ") }
