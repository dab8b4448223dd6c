// Package service sequences the history cache and the forecaster for the
// HTTP API, the scheduler and the Telegram bot.
package service

import (
	"context"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/sirupsen/logrus"

	"PriceScope/internal/apperr"
	"PriceScope/internal/calculator"
	"PriceScope/internal/forecast"
	"PriceScope/internal/history"
	"PriceScope/internal/logger"
	"PriceScope/internal/metrics"
	"PriceScope/internal/model"
	"PriceScope/internal/store"
)

const (
	DefaultHistoryDays = 365
	DefaultPredictDays = 30

	// closesLimit bounds how much stored history feeds a forecast.
	closesLimit = 365

	Disclaimer = "These predictions are for educational purposes only and should not be used for actual trading decisions."
)

// Config wires a Service. ForecastCache is optional.
type Config struct {
	History       *history.Cache
	Store         store.Store
	Forecaster    *forecast.Forecaster
	ForecastCache store.ForecastCache
	ForecastTTL   time.Duration
	Metrics       *metrics.Metrics
	Now           func() time.Time
}

type Service struct {
	history       *history.Cache
	store         store.Store
	forecaster    *forecast.Forecaster
	forecastCache store.ForecastCache
	forecastTTL   time.Duration
	metrics       *metrics.Metrics
	now           func() time.Time
	newRunID      func() string
	log           *logrus.Entry
}

func New(cfg Config) *Service {
	now := cfg.Now
	if now == nil {
		now = time.Now
	}
	f := cfg.Forecaster
	if f == nil {
		f = &forecast.Forecaster{Now: now}
	}
	ttl := cfg.ForecastTTL
	if ttl <= 0 {
		ttl = time.Hour
	}
	return &Service{
		history:       cfg.History,
		store:         cfg.Store,
		forecaster:    f,
		forecastCache: cfg.ForecastCache,
		forecastTTL:   ttl,
		metrics:       cfg.Metrics,
		now:           now,
		newRunID:      uuid.NewString,
		log:           logger.WithComponent("service"),
	}
}

// History returns the trailing days of ticker, honoring the cache policy.
func (s *Service) History(ctx context.Context, ticker string, days int) (*model.HistoryResult, error) {
	return s.history.Get(ctx, ticker, days)
}

// Predict forecasts days ahead from the newest stored closes of ticker.
// History must have been fetched before; nothing is fetched here.
func (s *Service) Predict(ctx context.Context, ticker string, days int) (*model.PredictionResult, error) {
	ticker = history.NormalizeTicker(ticker)
	if ticker == "" {
		return nil, apperr.New(apperr.CodeInvalidInput, "Ticker symbol is required")
	}
	if days < forecast.MinHorizon || days > forecast.MaxHorizon {
		return nil, apperr.InvalidInput("Days must be between %d and %d", forecast.MinHorizon, forecast.MaxHorizon)
	}

	points, err := s.store.RecentPoints(ctx, ticker, closesLimit)
	if err != nil {
		return nil, apperr.Wrap(apperr.CodeInternal, "Failed to fetch historical data", err)
	}
	if len(points) < forecast.MinPoints {
		return nil, apperr.New(apperr.CodeInsufficientData,
			"Insufficient historical data. Please fetch stock data first.")
	}

	today := model.FormatDate(s.now())
	last, _ := points.Last()
	key := fmt.Sprintf("%s:%d:%s:%s:%d", ticker, days, today, last.Date, len(points))
	log := s.log.WithFields(logrus.Fields{"ticker": ticker, "days": days})

	if s.forecastCache != nil {
		cached, ok, err := s.forecastCache.Get(ctx, key)
		if err != nil {
			log.WithError(err).Warn("forecast cache read failed")
		} else if ok {
			s.metrics.ForecastServed("cached")
			return newPrediction(ticker, days, cached), nil
		}
	}

	preds, err := s.forecaster.Predict(points.Closes(), days)
	if err != nil {
		return nil, err
	}
	s.metrics.ForecastServed("computed")

	runID := s.newRunID()
	records := make([]store.PredictionRecord, len(preds))
	for i, p := range preds {
		records[i] = store.PredictionRecord{
			RunID:           runID,
			Ticker:          ticker,
			PredictionDate:  today,
			TargetDate:      p.Date,
			PredictedPrice:  p.PredictedPrice,
			ConfidenceLower: p.ConfidenceLower,
			ConfidenceUpper: p.ConfidenceUpper,
			ModelVersion:    forecast.ModelVersion,
		}
	}
	if err := s.store.SavePredictions(ctx, records); err != nil {
		s.metrics.PersistFailed("predictions")
		log.WithError(err).Warn("persisting predictions failed")
	}
	if s.forecastCache != nil {
		if err := s.forecastCache.Put(ctx, key, preds, s.forecastTTL); err != nil {
			s.metrics.PersistFailed("forecast_cache")
			log.WithError(err).Warn("forecast cache write failed")
		}
	}

	log.WithField("run_id", runID).Info("forecast computed")
	return newPrediction(ticker, days, preds), nil
}

func newPrediction(ticker string, days int, preds []model.Forecast) *model.PredictionResult {
	return &model.PredictionResult{
		Ticker:         ticker,
		PredictionDays: days,
		Predictions:    preds,
		Model:          forecast.ModelVersion,
		Disclaimer:     Disclaimer,
	}
}

// Snapshot is a history window with an optional forecast.
type Snapshot struct {
	History    *model.HistoryResult
	Prediction *model.PredictionResult
}

// Predictions returns the forecast points, or nil when none were requested.
func (s *Snapshot) Predictions() []model.Forecast {
	if s.Prediction == nil {
		return nil
	}
	return s.Prediction.Predictions
}

// Snapshot loads history and, when predictDays > 0, forecasts from it.
func (s *Service) Snapshot(ctx context.Context, ticker string, days, predictDays int) (*Snapshot, error) {
	hist, err := s.History(ctx, ticker, days)
	if err != nil {
		return nil, err
	}
	snap := &Snapshot{History: hist}
	if predictDays > 0 {
		if snap.Prediction, err = s.Predict(ctx, hist.Ticker, predictDays); err != nil {
			return nil, err
		}
	}
	return snap, nil
}

// Stats summarizes a snapshot.
func (s *Service) Stats(ctx context.Context, ticker string, days, predictDays int) (*model.Stats, error) {
	snap, err := s.Snapshot(ctx, ticker, days, predictDays)
	if err != nil {
		return nil, err
	}
	st := calculator.Summarize(snap.History.Ticker, snap.History.CurrentPrice,
		snap.History.HistoricalData, snap.Predictions())
	return &st, nil
}

// PredictionHistory returns stored prediction rows of ticker, newest first.
func (s *Service) PredictionHistory(ctx context.Context, ticker string, limit int) ([]store.PredictionRecord, error) {
	ticker = history.NormalizeTicker(ticker)
	if ticker == "" {
		return nil, apperr.New(apperr.CodeInvalidInput, "Ticker symbol is required")
	}
	if limit <= 0 {
		return nil, apperr.InvalidInput("Limit must be a positive integer, got %d", limit)
	}
	recs, err := s.store.Predictions(ctx, ticker, limit)
	if err != nil {
		return nil, apperr.Wrap(apperr.CodeInternal, "Failed to load predictions", err)
	}
	return recs, nil
}

// Now exposes the service clock to callers that stamp exports.
func (s *Service) Now() time.Time { return s.now() }
