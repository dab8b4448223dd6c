package model

import "time"

// DateLayout is the calendar-date format used for storage keys and JSON.
const DateLayout = "2006-01-02"

// PricePoint is one daily bar for a ticker. Date is a UTC calendar date.
type PricePoint struct {
	Date   string  `json:"date"`
	Open   float64 `json:"open"`
	High   float64 `json:"high"`
	Low    float64 `json:"low"`
	Close  float64 `json:"close"`
	Volume float64 `json:"volume"`
}

// Series is an ascending-by-date sequence of points for one ticker.
type Series []PricePoint

// Closes extracts the closing prices in series order.
func (s Series) Closes() []float64 {
	closes := make([]float64, len(s))
	for i, p := range s {
		closes[i] = p.Close
	}
	return closes
}

// Last returns the most recent point, or false when the series is empty.
func (s Series) Last() (PricePoint, bool) {
	if len(s) == 0 {
		return PricePoint{}, false
	}
	return s[len(s)-1], true
}

// Source tells whether a history result came from the store or the provider.
type Source string

const (
	SourceCache Source = "cache"
	SourceLive  Source = "live"
)

// HistoryResult is the caller-facing shape of a history lookup.
type HistoryResult struct {
	Ticker         string  `json:"ticker"`
	CurrentPrice   float64 `json:"current_price"`
	HistoricalData Series  `json:"historical_data"`
	Source         Source  `json:"source"`
}

// FormatDate renders t as a UTC calendar date.
func FormatDate(t time.Time) string {
	return t.UTC().Format(DateLayout)
}
