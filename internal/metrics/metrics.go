package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
)

// Metrics holds the Prometheus collectors of the service. All methods are
// safe on a nil receiver so components can run without instrumentation.
type Metrics struct {
	CacheLookups     *prometheus.CounterVec // labels: result=hit|miss
	ProviderFetches  *prometheus.CounterVec // labels: outcome
	UpsertFailures   prometheus.Counter
	PersistFailures  *prometheus.CounterVec // labels: kind=predictions|forecast_cache
	Forecasts        *prometheus.CounterVec // labels: source=computed|cached
	HTTPRequests     *prometheus.CounterVec // labels: route, status
	HTTPDuration     *prometheus.HistogramVec
	RefreshRunsTotal *prometheus.CounterVec // labels: outcome=ok|error
}

// New creates the collectors and registers them with reg.
func New(reg prometheus.Registerer) *Metrics {
	m := &Metrics{
		CacheLookups: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "pricescope_history_cache_lookups_total",
			Help: "History lookups by freshness outcome",
		}, []string{"result"}),
		ProviderFetches: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "pricescope_provider_fetches_total",
			Help: "Provider fetches by outcome",
		}, []string{"outcome"}),
		UpsertFailures: prometheus.NewCounter(prometheus.CounterOpts{
			Name: "pricescope_upsert_failures_total",
			Help: "Best-effort price upserts that failed",
		}),
		PersistFailures: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "pricescope_persist_failures_total",
			Help: "Best-effort forecast writes that failed",
		}, []string{"kind"}),
		Forecasts: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "pricescope_forecasts_total",
			Help: "Forecasts served by source",
		}, []string{"source"}),
		HTTPRequests: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "pricescope_http_requests_total",
			Help: "HTTP requests by route and status",
		}, []string{"route", "status"}),
		HTTPDuration: prometheus.NewHistogramVec(prometheus.HistogramOpts{
			Name:    "pricescope_http_request_duration_seconds",
			Help:    "HTTP request latency by route",
			Buckets: []float64{0.005, 0.01, 0.05, 0.1, 0.25, 0.5, 1, 2.5, 5, 10},
		}, []string{"route"}),
		RefreshRunsTotal: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "pricescope_refresh_runs_total",
			Help: "Scheduled watchlist refreshes per ticker by outcome",
		}, []string{"outcome"}),
	}

	reg.MustRegister(
		m.CacheLookups,
		m.ProviderFetches,
		m.UpsertFailures,
		m.PersistFailures,
		m.Forecasts,
		m.HTTPRequests,
		m.HTTPDuration,
		m.RefreshRunsTotal,
	)
	return m
}

func (m *Metrics) CacheHit() {
	if m != nil {
		m.CacheLookups.WithLabelValues("hit").Inc()
	}
}

func (m *Metrics) CacheMiss() {
	if m != nil {
		m.CacheLookups.WithLabelValues("miss").Inc()
	}
}

func (m *Metrics) ProviderFetch(outcome string) {
	if m != nil {
		m.ProviderFetches.WithLabelValues(outcome).Inc()
	}
}

func (m *Metrics) UpsertFailed() {
	if m != nil {
		m.UpsertFailures.Inc()
	}
}

func (m *Metrics) PersistFailed(kind string) {
	if m != nil {
		m.PersistFailures.WithLabelValues(kind).Inc()
	}
}

func (m *Metrics) ForecastServed(source string) {
	if m != nil {
		m.Forecasts.WithLabelValues(source).Inc()
	}
}

func (m *Metrics) ObserveHTTP(route, status string, seconds float64) {
	if m != nil {
		m.HTTPRequests.WithLabelValues(route, status).Inc()
		m.HTTPDuration.WithLabelValues(route).Observe(seconds)
	}
}

func (m *Metrics) RefreshRun(outcome string) {
	if m != nil {
		m.RefreshRunsTotal.WithLabelValues(outcome).Inc()
	}
}
