package collector

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/sony/gobreaker"

	"PriceScope/internal/apperr"
	"PriceScope/internal/logger"
	"PriceScope/internal/model"
)

// BreakerSettings tunes BreakerFetcher.
type BreakerSettings struct {
	MaxRequests uint32        // requests allowed while half-open
	Interval    time.Duration // closed-state counter reset period
	Timeout     time.Duration // open-state duration before probing
	ReadyToTrip uint32        // consecutive provider failures that open the breaker
}

// BreakerFetcher guards a Fetcher with a circuit breaker. Only provider
// outages count as failures; an answer with no data is a healthy provider.
type BreakerFetcher struct {
	next Fetcher
	cb   *gobreaker.CircuitBreaker
}

// NewBreakerFetcher wraps next.
func NewBreakerFetcher(next Fetcher, s BreakerSettings) *BreakerFetcher {
	log := logger.WithComponent("collector")
	if s.ReadyToTrip == 0 {
		s.ReadyToTrip = 5
	}
	settings := gobreaker.Settings{
		Name:        next.Name(),
		MaxRequests: s.MaxRequests,
		Interval:    s.Interval,
		Timeout:     s.Timeout,
		ReadyToTrip: func(counts gobreaker.Counts) bool {
			return counts.ConsecutiveFailures >= s.ReadyToTrip
		},
		IsSuccessful: func(err error) bool {
			return err == nil || !errors.Is(err, apperr.ErrProviderUnavailable)
		},
		OnStateChange: func(name string, from, to gobreaker.State) {
			log.WithField("provider", name).Warnf("circuit breaker %s -> %s", from, to)
		},
	}
	return &BreakerFetcher{next: next, cb: gobreaker.NewCircuitBreaker(settings)}
}

func (b *BreakerFetcher) Name() string { return fmt.Sprintf("breaker(%s)", b.next.Name()) }

// State exposes the breaker state for health reporting.
func (b *BreakerFetcher) State() gobreaker.State { return b.cb.State() }

func (b *BreakerFetcher) FetchDaily(ctx context.Context, ticker string, from, to time.Time) (model.Series, error) {
	res, err := b.cb.Execute(func() (interface{}, error) {
		return b.next.FetchDaily(ctx, ticker, from, to)
	})
	if errors.Is(err, gobreaker.ErrOpenState) || errors.Is(err, gobreaker.ErrTooManyRequests) {
		return nil, apperr.Wrap(apperr.CodeProviderUnavailable,
			"Market data provider is temporarily unavailable. Please retry shortly.", err)
	}
	if err != nil {
		return nil, err
	}
	return res.(model.Series), nil
}
