package store

import (
	"context"
	"sort"
	"sync"

	"PriceScope/internal/model"
)

// MemoryStore is an in-process Store used when SQLite is not configured or
// cannot be opened. It follows the same duplicate-ignore upsert rule.
type MemoryStore struct {
	mu          sync.RWMutex
	points      map[string]map[string]model.PricePoint
	predictions []PredictionRecord
}

func NewMemoryStore() *MemoryStore {
	return &MemoryStore{points: make(map[string]map[string]model.PricePoint)}
}

func (m *MemoryStore) PointsSince(_ context.Context, ticker, fromDate string) (model.Series, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()

	var out model.Series
	for date, p := range m.points[ticker] {
		if date >= fromDate {
			out = append(out, p)
		}
	}
	sortByDate(out)
	return out, nil
}

func (m *MemoryStore) RecentPoints(_ context.Context, ticker string, limit int) (model.Series, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()

	out := make(model.Series, 0, len(m.points[ticker]))
	for _, p := range m.points[ticker] {
		out = append(out, p)
	}
	sortByDate(out)
	if limit >= 0 && len(out) > limit {
		out = out[len(out)-limit:]
	}
	return out, nil
}

func (m *MemoryStore) UpsertPoints(_ context.Context, ticker string, points model.Series) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	byDate, ok := m.points[ticker]
	if !ok {
		byDate = make(map[string]model.PricePoint, len(points))
		m.points[ticker] = byDate
	}
	for _, p := range points {
		if _, exists := byDate[p.Date]; !exists {
			byDate[p.Date] = p
		}
	}
	return nil
}

func (m *MemoryStore) SavePredictions(_ context.Context, records []PredictionRecord) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.predictions = append(m.predictions, records...)
	return nil
}

func (m *MemoryStore) Predictions(_ context.Context, ticker string, limit int) ([]PredictionRecord, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()

	var out []PredictionRecord
	for i := len(m.predictions) - 1; i >= 0 && len(out) < limit; i-- {
		if m.predictions[i].Ticker == ticker {
			out = append(out, m.predictions[i])
		}
	}
	return out, nil
}

func (m *MemoryStore) Close() error { return nil }

func sortByDate(s model.Series) {
	sort.Slice(s, func(i, j int) bool { return s[i].Date < s[j].Date })
}
