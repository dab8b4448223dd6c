// Package forecast projects a closing-price series forward with a windowed
// least-squares trend and a confidence band that widens with distance.
package forecast

import (
	"math"
	"time"

	"PriceScope/internal/apperr"
	"PriceScope/internal/model"
)

const (
	// ModelVersion identifies this algorithm in results and stored predictions.
	ModelVersion = "linear_regression_v1"

	MinPoints  = 10
	MinHorizon = 1
	MaxHorizon = 90

	maxWindow = 30
	maxChange = 0.15 // clamp to ±15% of the last observed price
	bandGrow  = 0.5  // band multiplier reaches 1.5 at the final step
	z95       = 1.96
)

// Forecaster is stateless apart from its clock.
type Forecaster struct {
	Now func() time.Time
}

func New() *Forecaster {
	return &Forecaster{Now: time.Now}
}

// Trend is the least-squares fit and volatility of the trailing window.
type Trend struct {
	Window    int
	Slope     float64
	Intercept float64
	Mean      float64
	StdDev    float64
}

// FitTrend fits the last min(30, n/3) prices against their index.
// The caller guarantees len(prices) >= MinPoints.
func FitTrend(prices []float64) Trend {
	w := len(prices) / 3
	if w > maxWindow {
		w = maxWindow
	}
	window := prices[len(prices)-w:]

	var sumX, sumY, sumXY, sumX2 float64
	for i, y := range window {
		x := float64(i)
		sumX += x
		sumY += y
		sumXY += x * y
		sumX2 += x * x
	}
	fw := float64(w)
	slope := (fw*sumXY - sumX*sumY) / (fw*sumX2 - sumX*sumX)
	intercept := (sumY - slope*sumX) / fw

	mean := sumY / fw
	var variance float64
	for _, y := range window {
		variance += (y - mean) * (y - mean)
	}
	variance /= fw

	return Trend{
		Window:    w,
		Slope:     slope,
		Intercept: intercept,
		Mean:      mean,
		StdDev:    math.Sqrt(variance),
	}
}

// Predict returns horizonDays forecasts starting tomorrow.
func (f *Forecaster) Predict(prices []float64, horizonDays int) ([]model.Forecast, error) {
	if horizonDays < MinHorizon || horizonDays > MaxHorizon {
		return nil, apperr.InvalidInput("Days must be between %d and %d", MinHorizon, MaxHorizon)
	}
	if len(prices) < MinPoints {
		return nil, apperr.New(apperr.CodeInsufficientData, "Insufficient historical data for prediction")
	}

	trend := FitTrend(prices)
	last := prices[len(prices)-1]
	lo, hi := last*(1-maxChange), last*(1+maxChange)
	today := f.now().UTC()

	out := make([]model.Forecast, 0, horizonDays)
	for i := 1; i <= horizonDays; i++ {
		raw := trend.Slope*float64(trend.Window+i) + trend.Intercept
		clamped := math.Max(lo, math.Min(hi, raw))

		mult := 1 + (float64(i)/float64(horizonDays))*bandGrow
		band := trend.StdDev * mult * z95

		out = append(out, model.Forecast{
			Date:            model.FormatDate(today.AddDate(0, 0, i)),
			PredictedPrice:  math.Max(0, clamped),
			ConfidenceLower: math.Max(0, clamped-band),
			ConfidenceUpper: clamped + band,
		})
	}
	return out, nil
}

func (f *Forecaster) now() time.Time {
	if f.Now == nil {
		return time.Now()
	}
	return f.Now()
}
