package notifier

import (
	"fmt"
	"html"
	"strings"

	"PriceScope/internal/apperr"
	"PriceScope/internal/calculator"
	"PriceScope/internal/model"
)

// DigestEntry is one watchlist ticker of a scheduled refresh.
type DigestEntry struct {
	Ticker   string
	History  *model.HistoryResult
	Forecast *model.PredictionResult
	Err      error
}

// FormatDigest renders the scheduled refresh summary.
func FormatDigest(date string, entries []DigestEntry) string {
	var b strings.Builder
	fmt.Fprintf(&b, "📊 <b>PriceScope digest</b> | %s\n", date)

	for _, e := range entries {
		b.WriteString("\n")
		if e.Err != nil {
			fmt.Fprintf(&b, "❌ <b>%s</b>: %s\n", html.EscapeString(e.Ticker), html.EscapeString(apperr.MessageOf(e.Err)))
			continue
		}
		fmt.Fprintf(&b, "<b>%s</b> %.2f (%s)\n", html.EscapeString(e.Ticker), e.History.CurrentPrice, e.History.Source)
		if e.Forecast != nil && len(e.Forecast.Predictions) > 0 {
			last := e.Forecast.Predictions[len(e.Forecast.Predictions)-1]
			change := calculator.PercentChange(e.History.CurrentPrice, last.PredictedPrice)
			fmt.Fprintf(&b, "  %dd → %.2f (%+.2f%%), range %.2f – %.2f\n",
				e.Forecast.PredictionDays, last.PredictedPrice, change, last.ConfidenceLower, last.ConfidenceUpper)
		}
	}
	return b.String()
}

// FormatHistory renders a history lookup for a bot reply.
func FormatHistory(res *model.HistoryResult) string {
	var b strings.Builder
	fmt.Fprintf(&b, "📈 <b>%s</b> | %d days (%s)\n\n", html.EscapeString(res.Ticker), len(res.HistoricalData), res.Source)
	fmt.Fprintf(&b, "Current price: %.2f\n", res.CurrentPrice)

	if len(res.HistoricalData) > 0 {
		st := calculator.Summarize(res.Ticker, res.CurrentPrice, res.HistoricalData, nil)
		fmt.Fprintf(&b, "Change since %s: %+.2f (%+.2f%%)\n", res.HistoricalData[0].Date, st.PriceChange, st.PriceChangePercent)
		fmt.Fprintf(&b, "High: %.2f | Low: %.2f\n", st.PeriodHigh, st.PeriodLow)
		fmt.Fprintf(&b, "Avg volume: %.0f\n", st.AverageVolume)
	}
	return b.String()
}

// FormatForecast renders a forecast for a bot reply.
func FormatForecast(res *model.PredictionResult) string {
	var b strings.Builder
	fmt.Fprintf(&b, "🔮 <b>%s</b> | %d day forecast\n\n", html.EscapeString(res.Ticker), res.PredictionDays)
	for _, p := range res.Predictions {
		fmt.Fprintf(&b, "%s  %.2f  [%.2f – %.2f]\n", p.Date, p.PredictedPrice, p.ConfidenceLower, p.ConfidenceUpper)
	}
	fmt.Fprintf(&b, "\n<i>%s</i>", html.EscapeString(res.Disclaimer))
	return b.String()
}
