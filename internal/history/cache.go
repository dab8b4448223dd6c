// Package history serves daily price series for a ticker from the store when
// enough recent points are present, and from the provider otherwise.
package history

import (
	"context"
	"errors"
	"strings"
	"time"

	"github.com/sirupsen/logrus"

	"PriceScope/internal/apperr"
	"PriceScope/internal/collector"
	"PriceScope/internal/logger"
	"PriceScope/internal/metrics"
	"PriceScope/internal/model"
)

// PointStore is the slice of the store the cache needs.
type PointStore interface {
	PointsSince(ctx context.Context, ticker, fromDate string) (model.Series, error)
	UpsertPoints(ctx context.Context, ticker string, points model.Series) error
}

// Config wires a Cache. Fetcher and Store are required.
type Config struct {
	Fetcher collector.Fetcher
	Store   PointStore
	Metrics *metrics.Metrics
	Now     func() time.Time
}

// Cache implements the freshness policy in front of the provider.
type Cache struct {
	fetcher collector.Fetcher
	store   PointStore
	metrics *metrics.Metrics
	now     func() time.Time
	log     *logrus.Entry
}

func New(cfg Config) *Cache {
	now := cfg.Now
	if now == nil {
		now = time.Now
	}
	return &Cache{
		fetcher: cfg.Fetcher,
		store:   cfg.Store,
		metrics: cfg.Metrics,
		now:     now,
		log:     logger.WithComponent("history"),
	}
}

// NormalizeTicker trims and uppercases a ticker symbol.
func NormalizeTicker(ticker string) string {
	return strings.ToUpper(strings.TrimSpace(ticker))
}

// MaxDays bounds the history window. It keeps IsFresh's integer arithmetic
// far from overflow.
const MaxDays = 36500

// IsFresh reports whether count stored points cover more than 80% of a
// days-long calendar window. Weekends and holidays keep trading days below
// calendar days, hence the slack. Integer form of count > 0.8*days.
func IsFresh(count, days int) bool {
	return 5*count > 4*days
}

// Get returns the trailing days-long series for ticker.
func (c *Cache) Get(ctx context.Context, ticker string, days int) (*model.HistoryResult, error) {
	ticker = NormalizeTicker(ticker)
	if ticker == "" {
		return nil, apperr.New(apperr.CodeInvalidInput, "Ticker symbol is required")
	}
	if days <= 0 {
		return nil, apperr.InvalidInput("Days must be a positive integer, got %d", days)
	}
	if days > MaxDays {
		return nil, apperr.InvalidInput("Days must be at most %d, got %d", MaxDays, days)
	}

	now := c.now().UTC()
	from := now.AddDate(0, 0, -days)
	log := c.log.WithFields(logrus.Fields{"ticker": ticker, "days": days})

	stored, err := c.store.PointsSince(ctx, ticker, model.FormatDate(from))
	if err != nil {
		log.WithError(err).Warn("read stored points failed, fetching from provider")
		stored = nil
	}
	if IsFresh(len(stored), days) {
		c.metrics.CacheHit()
		log.WithField("points", len(stored)).Debug("serving from cache")
		return newResult(ticker, stored, model.SourceCache), nil
	}
	c.metrics.CacheMiss()

	fetched, err := c.fetcher.FetchDaily(ctx, ticker, from, now)
	if err != nil {
		c.metrics.ProviderFetch(fetchOutcome(err))
		log.WithError(err).Warn("provider fetch failed")
		return nil, err
	}
	c.metrics.ProviderFetch("ok")

	if len(fetched) > 0 {
		if err := c.store.UpsertPoints(ctx, ticker, fetched); err != nil {
			c.metrics.UpsertFailed()
			log.WithError(err).Error("caching fetched points failed")
		}
	}
	log.WithField("points", len(fetched)).Info("served from provider")
	return newResult(ticker, fetched, model.SourceLive), nil
}

func newResult(ticker string, series model.Series, source model.Source) *model.HistoryResult {
	if series == nil {
		series = model.Series{}
	}
	res := &model.HistoryResult{
		Ticker:         ticker,
		HistoricalData: series,
		Source:         source,
	}
	if last, ok := series.Last(); ok {
		res.CurrentPrice = last.Close
	}
	return res
}

func fetchOutcome(err error) string {
	switch {
	case errors.Is(err, apperr.ErrProviderUnavailable):
		return "unavailable"
	case errors.Is(err, apperr.ErrNoData):
		return "no_data"
	default:
		return "error"
	}
}
