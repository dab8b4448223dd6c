package calculator

import (
	"errors"
	"math"

	"PriceScope/internal/model"
)

// PeriodRange scans the whole series and returns the highest high and lowest low.
func PeriodRange(series model.Series) (high, low float64, err error) {
	if len(series) == 0 {
		return 0, 0, errors.New("no points provided")
	}
	high = math.Inf(-1)
	low = math.Inf(1)
	for _, p := range series {
		if p.High > high {
			high = p.High
		}
		if p.Low < low {
			low = p.Low
		}
	}
	return high, low, nil
}

// AverageVolume returns the mean daily volume rounded to a whole share.
func AverageVolume(series model.Series) (float64, error) {
	if len(series) == 0 {
		return 0, errors.New("no points provided")
	}
	sum := 0.0
	for _, p := range series {
		sum += p.Volume
	}
	return math.Round(sum / float64(len(series))), nil
}

// PercentChange returns (to-from)/from in percent, or 0 when from is 0.
func PercentChange(from, to float64) float64 {
	if from == 0 {
		return 0
	}
	return (to - from) / from * 100
}

// Summarize builds period statistics for a history window. predictions may
// be empty; when present the last one is reported against currentPrice.
func Summarize(ticker string, currentPrice float64, series model.Series, predictions []model.Forecast) model.Stats {
	st := model.Stats{Ticker: ticker, CurrentPrice: currentPrice}

	first := currentPrice
	if len(series) > 0 && series[0].Close != 0 {
		first = series[0].Close
	}
	st.PriceChange = currentPrice - first
	st.PriceChangePercent = PercentChange(first, currentPrice)

	if high, low, err := PeriodRange(series); err == nil {
		st.PeriodHigh, st.PeriodLow = high, low
	}
	if avg, err := AverageVolume(series); err == nil {
		st.AverageVolume = avg
	}

	if n := len(predictions); n > 0 {
		last := predictions[n-1]
		st.PredictedPrice = last.PredictedPrice
		st.PredictedChange = last.PredictedPrice - currentPrice
		st.PredictedChangePercent = PercentChange(currentPrice, last.PredictedPrice)
		st.ConfidenceLower = last.ConfidenceLower
		st.ConfidenceUpper = last.ConfidenceUpper
	}
	return st
}
