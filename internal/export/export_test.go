package export

import (
	"bytes"
	"encoding/json"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"PriceScope/internal/model"
)

var (
	history = model.Series{
		{Date: "2024-01-02", Open: 187.15, High: 188.44, Low: 183.885, Close: 185.64, Volume: 82488700},
	}
	preds = []model.Forecast{
		{Date: "2024-01-03", PredictedPrice: 186.123, ConfidenceLower: 180.5, ConfidenceUpper: 191.746},
	}
	exportTime = time.Date(2024, 1, 2, 21, 0, 0, 0, time.UTC)
)

func TestWriteCSV(t *testing.T) {
	var buf bytes.Buffer
	require.NoError(t, WriteCSV(&buf, history, preds))

	lines := strings.Split(strings.TrimSpace(buf.String()), "\n")
	require.Len(t, lines, 3)
	assert.Equal(t, "Date,Type,Price,Open,High,Low,Volume,Confidence Lower,Confidence Upper", lines[0])
	assert.Equal(t, "2024-01-02,Historical,185.64,187.15,188.44,183.88,82488700,,", lines[1])
	assert.Equal(t, "2024-01-03,Predicted,186.12,,,,,180.50,191.75", lines[2])
}

func TestWriteJSON(t *testing.T) {
	var buf bytes.Buffer
	require.NoError(t, WriteJSON(&buf, "AAPL", exportTime, history, nil))

	var doc map[string]interface{}
	require.NoError(t, json.Unmarshal(buf.Bytes(), &doc))
	assert.Equal(t, "AAPL", doc["ticker"])
	assert.Equal(t, "2024-01-02T21:00:00Z", doc["exported_at"])
	assert.Len(t, doc["historical_data"], 1)
	assert.Equal(t, []interface{}{}, doc["predictions"])
}

func TestParseFormat(t *testing.T) {
	f, err := ParseFormat("")
	require.NoError(t, err)
	assert.Equal(t, FormatCSV, f)

	f, err = ParseFormat("json")
	require.NoError(t, err)
	assert.Equal(t, "application/json", f.ContentType())

	_, err = ParseFormat("xlsx")
	assert.Error(t, err)
}

func TestFilename(t *testing.T) {
	assert.Equal(t, "AAPL_stock_data_2024-01-02.csv", Filename("AAPL", FormatCSV, exportTime))
}
