package forecast

import (
	"errors"
	"math"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"PriceScope/internal/apperr"
)

var fixedNow = time.Date(2024, 3, 29, 15, 0, 0, 0, time.UTC)

func newTestForecaster() *Forecaster {
	return &Forecaster{Now: func() time.Time { return fixedNow }}
}

func ramp(start float64, n int) []float64 {
	out := make([]float64, n)
	for i := range out {
		out[i] = start + float64(i)
	}
	return out
}

func TestFitTrend_AscendingRamp(t *testing.T) {
	trend := FitTrend(ramp(100, 30))

	assert.Equal(t, 10, trend.Window)
	assert.InDelta(t, 1.0, trend.Slope, 1e-12)
	assert.InDelta(t, 120.0, trend.Intercept, 1e-12)
	assert.InDelta(t, 124.5, trend.Mean, 1e-12)
	assert.InDelta(t, math.Sqrt(8.25), trend.StdDev, 1e-12)
}

func TestFitTrend_WindowSize(t *testing.T) {
	assert.Equal(t, 3, FitTrend(ramp(1, 10)).Window)
	assert.Equal(t, 3, FitTrend(ramp(1, 11)).Window)
	assert.Equal(t, 30, FitTrend(ramp(1, 90)).Window)
	assert.Equal(t, 30, FitTrend(ramp(1, 365)).Window)
}

func TestPredict_EndToEndRamp(t *testing.T) {
	preds, err := newTestForecaster().Predict(ramp(100, 30), 7)
	require.NoError(t, err)
	require.Len(t, preds, 7)

	sd := math.Sqrt(8.25)
	for i, p := range preds {
		step := float64(i + 1)
		assert.InDelta(t, 130+step, p.PredictedPrice, 1e-9, "step %d", i+1)
		band := sd * (1 + step/7*0.5) * 1.96
		assert.InDelta(t, 130+step-band, p.ConfidenceLower, 1e-9)
		assert.InDelta(t, 130+step+band, p.ConfidenceUpper, 1e-9)
	}
	assert.Equal(t, "2024-03-30", preds[0].Date)
	assert.Equal(t, "2024-04-05", preds[6].Date)

	for i := 1; i < len(preds); i++ {
		prev := preds[i-1].ConfidenceUpper - preds[i-1].PredictedPrice
		cur := preds[i].ConfidenceUpper - preds[i].PredictedPrice
		assert.Greater(t, cur, prev)
	}
}

func TestPredict_Deterministic(t *testing.T) {
	prices := []float64{187.1, 185.6, 186.2, 189.9, 190.3, 188.7, 191.2, 192.8, 191.1, 193.5, 195.0, 194.2, 196.8}
	f := newTestForecaster()

	a, err := f.Predict(prices, 30)
	require.NoError(t, err)
	b, err := f.Predict(prices, 30)
	require.NoError(t, err)
	assert.Equal(t, a, b)
}

func TestPredict_ClampAndBandOrdering(t *testing.T) {
	growth := make([]float64, 40)
	decline := make([]float64, 40)
	for i := range growth {
		growth[i] = 100 * math.Pow(1.1, float64(i))
		decline[i] = 1000 * math.Pow(0.9, float64(i))
	}

	for name, prices := range map[string][]float64{"growth": growth, "decline": decline, "ramp": ramp(50, 60)} {
		t.Run(name, func(t *testing.T) {
			last := prices[len(prices)-1]
			preds, err := newTestForecaster().Predict(prices, 90)
			require.NoError(t, err)
			for _, p := range preds {
				assert.GreaterOrEqual(t, p.PredictedPrice, last*0.85-1e-9)
				assert.LessOrEqual(t, p.PredictedPrice, last*1.15+1e-9)
				assert.LessOrEqual(t, p.ConfidenceLower, p.PredictedPrice)
				assert.LessOrEqual(t, p.PredictedPrice, p.ConfidenceUpper)
				assert.GreaterOrEqual(t, p.ConfidenceLower, 0.0)
			}
		})
	}

	preds, err := newTestForecaster().Predict(growth, 30)
	require.NoError(t, err)
	assert.InDelta(t, growth[39]*1.15, preds[29].PredictedPrice, 1e-6)

	preds, err = newTestForecaster().Predict(decline, 30)
	require.NoError(t, err)
	assert.InDelta(t, decline[39]*0.85, preds[29].PredictedPrice, 1e-9)
}

func TestPredict_WideningBand(t *testing.T) {
	prices := []float64{10, 12, 9, 14, 11, 13, 8, 15, 10, 12, 11, 14, 9, 13}
	preds, err := newTestForecaster().Predict(prices, 20)
	require.NoError(t, err)

	prev := -1.0
	for _, p := range preds {
		width := p.ConfidenceUpper - p.PredictedPrice
		assert.GreaterOrEqual(t, width, prev)
		prev = width
	}
}

func TestPredict_LowerBoundFloorsAtZero(t *testing.T) {
	prices := []float64{1, 30, 2, 28, 1, 29, 3, 27, 2, 0.5, 1, 0.2}
	preds, err := newTestForecaster().Predict(prices, 3)
	require.NoError(t, err)
	for _, p := range preds {
		assert.Equal(t, 0.0, p.ConfidenceLower)
		assert.Greater(t, p.ConfidenceUpper, p.PredictedPrice)
	}
}

func TestPredict_Validation(t *testing.T) {
	f := newTestForecaster()

	_, err := f.Predict(ramp(100, 30), 0)
	assert.True(t, errors.Is(err, apperr.ErrInvalidInput))
	_, err = f.Predict(ramp(100, 30), 91)
	assert.True(t, errors.Is(err, apperr.ErrInvalidInput))

	for _, h := range []int{1, 30, 90} {
		_, err = f.Predict(ramp(100, 9), h)
		assert.True(t, errors.Is(err, apperr.ErrInsufficientData), "horizon %d", h)
	}

	preds, err := f.Predict(ramp(100, 10), 90)
	require.NoError(t, err)
	assert.Len(t, preds, 90)
}
