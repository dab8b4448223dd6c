package model

// Forecast is one future day of a price prediction.
type Forecast struct {
	Date            string  `json:"date"`
	PredictedPrice  float64 `json:"predicted_price"`
	ConfidenceLower float64 `json:"confidence_lower"`
	ConfidenceUpper float64 `json:"confidence_upper"`
}

// PredictionResult is the caller-facing shape of a forecast request.
type PredictionResult struct {
	Ticker         string     `json:"ticker"`
	PredictionDays int        `json:"prediction_days"`
	Predictions    []Forecast `json:"predictions"`
	Model          string     `json:"model"`
	Disclaimer     string     `json:"disclaimer"`
}

// Stats summarizes a history window and, optionally, its forecast.
type Stats struct {
	Ticker                 string  `json:"ticker"`
	CurrentPrice           float64 `json:"current_price"`
	PriceChange            float64 `json:"price_change"`
	PriceChangePercent     float64 `json:"price_change_percent"`
	PeriodHigh             float64 `json:"period_high"`
	PeriodLow              float64 `json:"period_low"`
	AverageVolume          float64 `json:"average_volume"`
	PredictedPrice         float64 `json:"predicted_price,omitempty"`
	PredictedChange        float64 `json:"predicted_change,omitempty"`
	PredictedChangePercent float64 `json:"predicted_change_percent,omitempty"`
	ConfidenceLower        float64 `json:"confidence_lower,omitempty"`
	ConfidenceUpper        float64 `json:"confidence_upper,omitempty"`
}
