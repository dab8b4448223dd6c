package store

import (
	"context"
	"time"

	"PriceScope/internal/model"
)

// PredictionRecord is one persisted forecast step.
type PredictionRecord struct {
	RunID           string  `json:"run_id"`
	Ticker          string  `json:"ticker"`
	PredictionDate  string  `json:"prediction_date"` // day the forecast was produced
	TargetDate      string  `json:"target_date"`     // day the forecast is for
	PredictedPrice  float64 `json:"predicted_price"`
	ConfidenceLower float64 `json:"confidence_lower"`
	ConfidenceUpper float64 `json:"confidence_upper"`
	ModelVersion    string  `json:"model_version"`
}

// Store is the durable home of price points and produced forecasts.
type Store interface {
	// PointsSince returns the points of ticker with date >= fromDate, ascending.
	PointsSince(ctx context.Context, ticker, fromDate string) (model.Series, error)
	// UpsertPoints inserts points keyed on (ticker, date). Rows that already
	// exist are left untouched, so repeated or concurrent calls are safe.
	UpsertPoints(ctx context.Context, ticker string, points model.Series) error
	// RecentPoints returns at most limit of the newest points, ascending.
	RecentPoints(ctx context.Context, ticker string, limit int) (model.Series, error)
	SavePredictions(ctx context.Context, records []PredictionRecord) error
	// Predictions returns at most limit stored prediction rows, newest first.
	Predictions(ctx context.Context, ticker string, limit int) ([]PredictionRecord, error)
	Close() error
}

// ForecastCache holds recently computed forecasts.
type ForecastCache interface {
	Get(ctx context.Context, key string) ([]model.Forecast, bool, error)
	Put(ctx context.Context, key string, forecasts []model.Forecast, ttl time.Duration) error
}
