package advisor

import (
	"fmt"
	"strings"

	"StockInsight/internal/model"
)

// OverviewGroup is one block of the market overview (indices, commodities, fx).
type OverviewGroup struct {
	Key     string
	Records []*model.FeatureRecord
}

// PromptInput is everything the batched prompt is built from.
type PromptInput struct {
	Date          string
	Language      string
	StopLossPct   float64
	TakeProfitPct float64
	Overview      []OverviewGroup
	Records       []*model.FeatureRecord
	News          map[string][]model.NewsItem
}

const schemaBlock = `Schema:
{
  "date": "YYYY-MM-DD",
  "tickers": [
    {
      "ticker": "TSLA",
      "stance": "Buy|Sell|Hold",
      "confidence": 0-100,
      "entry_rule": "short entry rule",
      "entry_price_range": "e.g., 240-245 or '-'",
      "stop_loss": "price or percent string",
      "take_profit": "price or percent string",
      "timeframe": "days|weeks",
      "reasoning_bullets": ["2-4 short points citing indicator values"],
      "positive_factors": ["2-4 news items or factors supporting the price, or '-'"],
      "negative_factors": ["2-4 news items or factors pressuring the price, or '-'"],
      "news_refs": ["headlines used as references"]
    }
  ],
  "notes": "optional"
}`

// BuildPrompt renders the system and user messages for one batched request.
func BuildPrompt(in PromptInput) Prompt {
	lang := in.Language
	if lang == "" {
		lang = "English"
	}

	var sys strings.Builder
	sys.WriteString("You are a stock analyst. Based on technical metrics and provided headlines, output STRICT JSON only.\n\n")
	sys.WriteString(schemaBlock)
	sys.WriteString("\n\nRules:\n")
	sys.WriteString("- Use only the indicator values (SMA/RSI/MACD/52w) and the headlines provided.\n")
	sys.WriteString("- Give at least 2 positive_factors and 2 negative_factors; use \"-\" when none are found.\n")
	fmt.Fprintf(&sys, "- Write every free-text field in %s, concise and clear.\n", lang)
	sys.WriteString("- Do not invent data.\n")
	fmt.Fprintf(&sys, "- When unsure about SL/TP prices use the defaults: SL %s, TP %s.\n",
		model.FormatPct(in.StopLossPct), model.FormatPct(in.TakeProfitPct))
	sys.WriteString("- Output raw JSON only (no Markdown, no code fences).\n")

	var user strings.Builder
	fmt.Fprintf(&user, "Date: %s\n\n", in.Date)
	user.WriteString("Market overview (short):\n")
	fmt.Fprintf(&user, "- %s\n\n", overviewLine(in.Overview))
	user.WriteString("Stocks to analyse:\n")
	user.WriteString(bulletBlock(featureLines(in.Records)))
	user.WriteString("\n\nHeadlines per stock (for positive/negative_factors):\n")
	user.WriteString(bulletBlock(newsLines(in.Records, in.News)))
	user.WriteString("\n\nYour task:\n")
	user.WriteString("- Give a Buy/Sell/Hold recommendation with an entry and exit plan.\n")
	user.WriteString("- Separate positive and negative factors, citing the headlines above and the indicator values.\n")
	user.WriteString("- Return JSON following the schema (no other text).\n")

	return Prompt{System: sys.String(), User: user.String()}
}

func overviewLine(groups []OverviewGroup) string {
	var parts []string
	for _, g := range groups {
		for _, r := range g.Records {
			parts = append(parts, fmt.Sprintf("%s:%s p=%s 1d=%s rsi=%s trend=%s",
				g.Key, r.Symbol, model.FormatPrice(r.Price), model.FormatPct(r.Change1d),
				model.FormatFixed(r.RSI14, 1), r.Trend))
		}
	}
	if len(parts) == 0 {
		return "-"
	}
	return strings.Join(parts, "; ")
}

func featureLines(records []*model.FeatureRecord) []string {
	lines := make([]string, 0, len(records))
	for _, f := range records {
		lines = append(lines, fmt.Sprintf(
			"%s price=%s 1d=%s 5d=%s 20d=%s SMA20/50/200=%s/%s/%s RSI14=%s(%s) MACD=%s/%s(%s) 52wH/L=%s/%s offHigh=%s",
			f.Requested, model.FormatPrice(f.Price), model.FormatPct(f.Change1d), model.FormatPct(f.Change5d),
			model.FormatPct(f.Change20d), model.FormatPrice(f.SMA20), model.FormatPrice(f.SMA50),
			model.FormatPrice(f.SMA200), model.FormatFixed(f.RSI14, 1), f.RSIState,
			model.FormatFixed(f.MACD, 3), model.FormatFixed(f.MACDSignal, 3), f.MACDState,
			model.FormatPrice(f.High52w), model.FormatPrice(f.Low52w), model.FormatPct(f.OffHigh52wPct)))
	}
	return lines
}

func newsLines(records []*model.FeatureRecord, news map[string][]model.NewsItem) []string {
	var lines []string
	for _, f := range records {
		for i, it := range news[f.Requested] {
			lines = append(lines, fmt.Sprintf("%s NEWS%d: %s | %s", f.Requested, i+1, it.Title, it.Link))
		}
	}
	return lines
}

func bulletBlock(lines []string) string {
	if len(lines) == 0 {
		return "-"
	}
	return "- " + strings.Join(lines, "\n- ")
}
