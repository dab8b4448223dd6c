package scheduler

import (
	"context"
	"fmt"
	"strings"
	"testing"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"PriceScope/internal/apperr"
	"PriceScope/internal/metrics"
	"PriceScope/internal/model"
)

type call struct {
	op     string
	ticker string
	days   int
}

type fakeService struct {
	calls  []call
	failOn map[string]error
}

func (f *fakeService) History(_ context.Context, ticker string, days int) (*model.HistoryResult, error) {
	f.calls = append(f.calls, call{"history", ticker, days})
	if err := f.failOn[ticker]; err != nil {
		return nil, err
	}
	return &model.HistoryResult{
		Ticker:         ticker,
		CurrentPrice:   100,
		Source:         model.SourceLive,
		HistoricalData: model.Series{{Date: "2024-06-14", Close: 100, High: 101, Low: 99, Volume: 10}},
	}, nil
}

func (f *fakeService) Predict(_ context.Context, ticker string, days int) (*model.PredictionResult, error) {
	f.calls = append(f.calls, call{"predict", ticker, days})
	preds := make([]model.Forecast, days)
	for i := range preds {
		preds[i] = model.Forecast{Date: fmt.Sprintf("2024-06-%02d", 15+i), PredictedPrice: 105}
	}
	return &model.PredictionResult{Ticker: ticker, PredictionDays: days, Predictions: preds}, nil
}

type fakeSender struct{ sent []string }

func (f *fakeSender) SendWithRetry(_ context.Context, text string, _ int) error {
	f.sent = append(f.sent, text)
	return nil
}

func newTestScheduler(svc Service, sender Sender, m *metrics.Metrics) *Scheduler {
	return NewScheduler(context.Background(), svc, sender, Options{
		Watchlist:   []string{"AAPL", "NOPE"},
		RefreshDays: 90,
		DigestDays:  5,
		Metrics:     m,
		Now:         func() time.Time { return time.Date(2024, 6, 14, 22, 30, 0, 0, time.UTC) },
	})
}

func TestRunNow(t *testing.T) {
	svc := &fakeService{failOn: map[string]error{
		"NOPE": apperr.New(apperr.CodeNoData, "No data found for this ticker symbol"),
	}}
	sender := &fakeSender{}
	m := metrics.New(prometheus.NewRegistry())

	entries := newTestScheduler(svc, sender, m).RunNow()
	require.Len(t, entries, 2)
	assert.NoError(t, entries[0].Err)
	assert.Equal(t, 5, entries[0].Forecast.PredictionDays)
	assert.Error(t, entries[1].Err)

	assert.Equal(t, []call{
		{"history", "AAPL", 90},
		{"predict", "AAPL", 5},
		{"history", "NOPE", 90},
	}, svc.calls)

	require.Len(t, sender.sent, 1)
	assert.Contains(t, sender.sent[0], "2024-06-14")
	assert.Contains(t, sender.sent[0], "<b>AAPL</b> 100.00")
	assert.Contains(t, sender.sent[0], "No data found for this ticker symbol")

	assert.Equal(t, 1.0, testutil.ToFloat64(m.RefreshRunsTotal.WithLabelValues("ok")))
	assert.Equal(t, 1.0, testutil.ToFloat64(m.RefreshRunsTotal.WithLabelValues("error")))
}

func TestRunNow_WithoutNotifier(t *testing.T) {
	svc := &fakeService{}
	entries := newTestScheduler(svc, nil, nil).RunNow()
	assert.Len(t, entries, 2)
}

func TestRegisterAll(t *testing.T) {
	s := newTestScheduler(&fakeService{}, nil, nil)
	require.NoError(t, s.RegisterAll("0 30 22 * * 1-5"))
	assert.Len(t, s.Cron.Entries(), 1)

	assert.Error(t, s.RegisterAll("not a cron"))
}

func TestHandleCommand(t *testing.T) {
	svc := &fakeService{}
	s := newTestScheduler(svc, nil, nil)
	ctx := context.Background()

	out := s.HandleCommand(ctx, "/history AAPL 30")
	assert.Contains(t, out, "<b>AAPL</b>")
	assert.Equal(t, call{"history", "AAPL", 30}, svc.calls[len(svc.calls)-1])

	svc.calls = nil
	out = s.HandleCommand(ctx, "/forecast@PriceScopeBot MSFT")
	assert.Contains(t, out, "5 day forecast")
	assert.Equal(t, []call{{"history", "MSFT", 90}, {"predict", "MSFT", 5}}, svc.calls)

	assert.Equal(t, "usage: /history TICKER [days]", s.HandleCommand(ctx, "/history"))
	assert.Contains(t, s.HandleCommand(ctx, "/forecast AAPL soon"), "days must be an integer")
	assert.True(t, strings.HasPrefix(s.HandleCommand(ctx, "hello"), "Available commands"))
}

func TestHandleCommand_ReportsErrorMessage(t *testing.T) {
	svc := &fakeService{failOn: map[string]error{"ZZZ": fmt.Errorf("boom")}}
	s := newTestScheduler(svc, nil, nil)
	assert.Equal(t, "❌ Internal server error", s.HandleCommand(context.Background(), "/history ZZZ"))
}
