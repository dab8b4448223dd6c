package export

import (
	"encoding/csv"
	"encoding/json"
	"fmt"
	"io"
	"strconv"
	"time"

	"PriceScope/internal/model"
)

// Format selects the export encoding.
type Format string

const (
	FormatCSV  Format = "csv"
	FormatJSON Format = "json"
)

// ParseFormat accepts "csv" and "json"; empty means csv.
func ParseFormat(s string) (Format, error) {
	switch Format(s) {
	case "", FormatCSV:
		return FormatCSV, nil
	case FormatJSON:
		return FormatJSON, nil
	default:
		return "", fmt.Errorf("unsupported export format %q", s)
	}
}

// ContentType returns the MIME type of f.
func (f Format) ContentType() string {
	if f == FormatJSON {
		return "application/json"
	}
	return "text/csv"
}

// Filename builds the download name, e.g. AAPL_stock_data_2024-01-31.csv.
func Filename(ticker string, f Format, now time.Time) string {
	return fmt.Sprintf("%s_stock_data_%s.%s", ticker, model.FormatDate(now), f)
}

var csvHeader = []string{"Date", "Type", "Price", "Open", "High", "Low", "Volume", "Confidence Lower", "Confidence Upper"}

// WriteCSV writes historical rows followed by predicted rows.
func WriteCSV(w io.Writer, history model.Series, predictions []model.Forecast) error {
	cw := csv.NewWriter(w)
	if err := cw.Write(csvHeader); err != nil {
		return fmt.Errorf("write csv header: %w", err)
	}
	for _, p := range history {
		row := []string{
			p.Date, "Historical", money(p.Close), money(p.Open), money(p.High), money(p.Low),
			strconv.FormatFloat(p.Volume, 'f', -1, 64), "", "",
		}
		if err := cw.Write(row); err != nil {
			return fmt.Errorf("write csv row %s: %w", p.Date, err)
		}
	}
	for _, f := range predictions {
		row := []string{
			f.Date, "Predicted", money(f.PredictedPrice), "", "", "", "",
			money(f.ConfidenceLower), money(f.ConfidenceUpper),
		}
		if err := cw.Write(row); err != nil {
			return fmt.Errorf("write csv row %s: %w", f.Date, err)
		}
	}
	cw.Flush()
	return cw.Error()
}

type jsonDocument struct {
	Ticker         string           `json:"ticker"`
	ExportedAt     string           `json:"exported_at"`
	HistoricalData model.Series     `json:"historical_data"`
	Predictions    []model.Forecast `json:"predictions"`
}

// WriteJSON writes an indented document with both series.
func WriteJSON(w io.Writer, ticker string, now time.Time, history model.Series, predictions []model.Forecast) error {
	if history == nil {
		history = model.Series{}
	}
	if predictions == nil {
		predictions = []model.Forecast{}
	}
	enc := json.NewEncoder(w)
	enc.SetIndent("", "  ")
	return enc.Encode(jsonDocument{
		Ticker:         ticker,
		ExportedAt:     now.UTC().Format(time.RFC3339),
		HistoricalData: history,
		Predictions:    predictions,
	})
}

func money(v float64) string {
	return strconv.FormatFloat(v, 'f', 2, 64)
}
