package notifier

import (
	"fmt"
	"html"
	"strings"

	"StockInsight/internal/model"
	"StockInsight/internal/recorder"
)

// FormatDigest formats the daily run into a short Telegram message.
func FormatDigest(date string, records []*model.FeatureRecord, advice *model.Advice, skipped []string) string {
	var b strings.Builder

	b.WriteString(fmt.Sprintf("📊 <b>Daily AI Stock Insight</b> | %s\n\n", html.EscapeString(date)))
	for _, f := range records {
		r, _ := advice.Lookup(f.Requested)
		stance := string(r.Stance)
		if stance == "" {
			stance = "-"
		}
		b.WriteString(fmt.Sprintf("<b>%s</b> %s (%s) %s | %s %s\n",
			html.EscapeString(f.Requested), model.FormatPrice(f.Price), model.FormatPct(f.Change1d),
			html.EscapeString(string(f.Trend)), stanceIcon(r.Stance)+html.EscapeString(stance), html.EscapeString(r.Confidence.String())))
	}
	if len(skipped) > 0 {
		b.WriteString(fmt.Sprintf("\n⚠️ no data: %s\n", html.EscapeString(strings.Join(skipped, ", "))))
	}
	if advice != nil && advice.Notes != "" {
		b.WriteString(fmt.Sprintf("\n📝 %s\n", html.EscapeString(advice.Notes)))
	}
	return b.String()
}

// FormatDiagnostic is sent when no symbol produced data.
func FormatDiagnostic(date string, skipped []string) string {
	return fmt.Sprintf("⚠️ <b>Daily AI Stock Insight</b> | %s\n\nNo market data for any symbol (%s). A diagnostic report was written.",
		html.EscapeString(date), html.EscapeString(strings.Join(skipped, ", ")))
}

// FormatRunHistory lists recent runs.
func FormatRunHistory(runs []recorder.RunSummary) string {
	if len(runs) == 0 {
		return "No runs recorded yet."
	}
	var b strings.Builder
	b.WriteString("🗂 <b>Recent runs</b>\n\n")
	for _, r := range runs {
		b.WriteString(fmt.Sprintf("%s %s: %d symbols, %d skipped\n",
			r.RunDate, r.Status, r.Symbols, r.Skipped))
	}
	return b.String()
}

// FormatHelp lists the supported commands.
func FormatHelp() string {
	return "Commands:\n" +
		"/run - run the daily analysis now\n" +
		"/latest - show the latest digest\n" +
		"/history - recent runs\n" +
		"/help - this message"
}

func stanceIcon(s model.Stance) string {
	switch s {
	case model.StanceBuy:
		return "🟢"
	case model.StanceSell:
		return "🔴"
	case model.StanceHold:
		return "🟡"
	default:
		return ""
	}
}
