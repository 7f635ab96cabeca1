package report

import (
	"fmt"
	"math"
	"strings"

	"StockInsight/internal/model"

	"github.com/dustin/go-humanize"
)

// Group is one titled block of the market overview.
type Group struct {
	Title   string
	Records []*model.FeatureRecord
}

// Input carries everything a daily report shows.
type Input struct {
	Date     string
	Model    string
	Overview []Group
	Records  []*model.FeatureRecord
	Advice   *model.Advice
	News     map[string][]model.NewsItem
	Charts   map[string]string // requested symbol -> image path relative to the report
	Skipped  []string
}

const disclaimer = "> *Automated report generated from market data and a language model. " +
	"For education only, not investment advice.*"

// Render produces the Markdown daily report.
func Render(in Input) string {
	var b strings.Builder
	recs := in.Advice.ByTicker()
	source := in.Model
	if source == "" {
		source = "model"
	}

	b.WriteString(fmt.Sprintf("# Daily AI Stock Insight — %s\n\n", in.Date))
	b.WriteString(disclaimer + "\n\n")

	b.WriteString("## Market Overview\n\n")
	for _, g := range in.Overview {
		if len(g.Records) == 0 {
			continue
		}
		b.WriteString(fmt.Sprintf("**%s**\n", g.Title))
		for _, r := range g.Records {
			b.WriteString(fmt.Sprintf("- `%s` price %s | 1d %s | RSI %s | trend %s\n",
				r.Symbol, model.FormatPrice(r.Price), model.FormatPct(r.Change1d),
				model.FormatFixed(r.RSI14, 1), r.Trend))
		}
		b.WriteString("\n")
	}

	b.WriteString("## Signal Summary\n\n")
	b.WriteString("| Ticker | Price | 1d | Trend | RSI14 | Stance | Confidence |\n")
	b.WriteString("|---|---:|---:|---|---:|---|---:|\n")
	for _, f := range in.Records {
		r := recs[strings.ToUpper(f.Requested)]
		b.WriteString(fmt.Sprintf("| `%s` | %s | %s | %s | %s | %s | %s |\n",
			f.Requested, model.FormatPrice(f.Price), model.FormatPct(f.Change1d), f.Trend,
			model.FormatFixed(f.RSI14, 1), orDash(string(r.Stance)), r.Confidence))
	}
	b.WriteString("\n")

	b.WriteString("## Entry / Exit Plan\n\n")
	for _, f := range in.Records {
		r := recs[strings.ToUpper(f.Requested)]
		renderDetail(&b, f, r, in.News[f.Requested], source)
		if img := in.Charts[f.Requested]; img != "" {
			b.WriteString(fmt.Sprintf("![%s chart](%s)\n\n", f.Requested, img))
		}
	}

	if in.Advice != nil && strings.TrimSpace(in.Advice.Notes) != "" {
		b.WriteString("## Model Notes\n\n")
		b.WriteString(strings.TrimSpace(in.Advice.Notes) + "\n\n")
	}

	if len(in.Skipped) > 0 {
		b.WriteString("## Skipped Symbols\n\n")
		b.WriteString("No usable data: " + strings.Join(in.Skipped, ", ") + "\n\n")
	}

	b.WriteString("---\n")
	b.WriteString("**Notes / limitations:** generated by algorithms and an LLM for educational purposes only. " +
		"It is not investment advice and may contain errors; verify the data before acting.\n")
	return b.String()
}

func renderDetail(b *strings.Builder, f *model.FeatureRecord, r model.Recommendation, news []model.NewsItem, source string) {
	b.WriteString(fmt.Sprintf("### %s\n", f.Requested))
	if f.Symbol != f.Requested {
		b.WriteString(fmt.Sprintf("- Data from fallback symbol `%s`\n", f.Symbol))
	}
	b.WriteString(fmt.Sprintf("- Price: %s | 1d %s | 5d %s | 20d %s\n",
		model.FormatPrice(f.Price), model.FormatPct(f.Change1d), model.FormatPct(f.Change5d), model.FormatPct(f.Change20d)))
	b.WriteString(fmt.Sprintf("- SMA20/50/200: %s / %s / %s\n",
		model.FormatPrice(f.SMA20), model.FormatPrice(f.SMA50), model.FormatPrice(f.SMA200)))
	b.WriteString(fmt.Sprintf("- RSI14: %s (%s) | MACD: %s/%s (%s)\n",
		model.FormatFixed(f.RSI14, 1), f.RSIState, model.FormatFixed(f.MACD, 3), model.FormatFixed(f.MACDSignal, 3), f.MACDState))
	b.WriteString(fmt.Sprintf("- 52w: H %s / L %s | off 52wH: %s | range pos: %s\n",
		model.FormatPrice(f.High52w), model.FormatPrice(f.Low52w), model.FormatPct(f.OffHigh52wPct),
		model.FormatPct(f.RangePos52w)))
	if !math.IsNaN(f.Volume) && f.Volume > 0 {
		b.WriteString(fmt.Sprintf("- Volume: %s\n", humanize.Comma(int64(f.Volume))))
	}
	b.WriteString(fmt.Sprintf("- **Recommendation (%s):** %s | confidence: %s\n", source, orDash(string(r.Stance)), r.Confidence))
	b.WriteString(fmt.Sprintf("  - Entry: %s | entry range: %s\n", orDash(r.EntryRule), orDash(r.EntryPriceRange)))
	b.WriteString(fmt.Sprintf("  - Stop Loss: %s | Take Profit: %s | Timeframe: %s\n",
		orDash(r.StopLoss), orDash(r.TakeProfit), orDash(r.Timeframe)))

	if len(r.ReasoningBullets) > 0 {
		b.WriteString("  - Reasoning (technical):\n")
		for _, s := range r.ReasoningBullets {
			b.WriteString(fmt.Sprintf("    - %s\n", s))
		}
	}
	if len(r.PositiveFactors) > 0 {
		b.WriteString("\n**Positive Factors:**\n")
		for _, s := range r.PositiveFactors {
			b.WriteString(fmt.Sprintf("- %s\n", s))
		}
	}
	if len(r.NegativeFactors) > 0 {
		b.WriteString("**Negative Factors:**\n")
		for _, s := range r.NegativeFactors {
			b.WriteString(fmt.Sprintf("- %s\n", s))
		}
	}
	if len(news) > 0 {
		b.WriteString("\n**Latest Headlines:**\n")
		for _, it := range news {
			title := strings.TrimSpace(it.Title)
			if link := strings.TrimSpace(it.Link); link != "" {
				b.WriteString(fmt.Sprintf("- [%s](%s) — %s (%s)\n", title, link, it.Source, it.Published))
			} else {
				b.WriteString(fmt.Sprintf("- %s — %s (%s)\n", title, it.Source, it.Published))
			}
		}
	}
	b.WriteString("\n")
}

// RenderDiagnostic produces the short report written when no symbol had usable data.
func RenderDiagnostic(date string, skipped []string) string {
	var b strings.Builder
	b.WriteString(fmt.Sprintf("# Daily AI Stock Insight — %s\n\n", date))
	b.WriteString("No market data could be loaded for any symbol, so no analysis was produced.\n\n")
	b.WriteString("Possible causes:\n")
	b.WriteString("- the data provider is rate limiting or unreachable\n")
	b.WriteString("- every primary and fallback symbol returned an empty history\n")
	b.WriteString("- the market has been closed for the whole lookback window\n\n")
	if len(skipped) > 0 {
		b.WriteString("Symbols attempted: " + strings.Join(skipped, ", ") + "\n")
	}
	return b.String()
}

func orDash(s string) string {
	if strings.TrimSpace(s) == "" {
		return "-"
	}
	return s
}
