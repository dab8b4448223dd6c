package metrics

import (
	"testing"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/assert"
)

func TestMetrics_Counters(t *testing.T) {
	m := New(prometheus.NewRegistry())

	m.CacheHit()
	m.CacheHit()
	m.CacheMiss()
	m.ProviderFetch("ok")
	m.UpsertFailed()
	m.ForecastServed("computed")

	assert.Equal(t, 2.0, testutil.ToFloat64(m.CacheLookups.WithLabelValues("hit")))
	assert.Equal(t, 1.0, testutil.ToFloat64(m.CacheLookups.WithLabelValues("miss")))
	assert.Equal(t, 1.0, testutil.ToFloat64(m.ProviderFetches.WithLabelValues("ok")))
	assert.Equal(t, 1.0, testutil.ToFloat64(m.UpsertFailures))
	assert.Equal(t, 1.0, testutil.ToFloat64(m.Forecasts.WithLabelValues("computed")))
}

func TestMetrics_NilReceiverIsNoop(t *testing.T) {
	var m *Metrics
	assert.NotPanics(t, func() {
		m.CacheHit()
		m.CacheMiss()
		m.ProviderFetch("unavailable")
		m.UpsertFailed()
		m.PersistFailed("predictions")
		m.ForecastServed("cached")
		m.ObserveHTTP("/api/v1/stock", "200", 0.01)
		m.RefreshRun("ok")
	})
}
