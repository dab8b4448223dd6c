package scheduler

import (
	"context"
	"fmt"
	"strconv"
	"strings"
	"time"

	"github.com/robfig/cron/v3"
	"github.com/sirupsen/logrus"

	"PriceScope/internal/apperr"
	"PriceScope/internal/logger"
	"PriceScope/internal/metrics"
	"PriceScope/internal/model"
	"PriceScope/internal/notifier"
	"PriceScope/internal/service"
)

// Service is the subset of service.Service the scheduler drives.
type Service interface {
	History(ctx context.Context, ticker string, days int) (*model.HistoryResult, error)
	Predict(ctx context.Context, ticker string, days int) (*model.PredictionResult, error)
}

// Sender delivers digests. Nil disables notifications.
type Sender interface {
	SendWithRetry(ctx context.Context, text string, maxRetries int) error
}

// Options configures the refresh job.
type Options struct {
	Watchlist   []string
	RefreshDays int
	DigestDays  int
	Metrics     *metrics.Metrics
	Now         func() time.Time
}

// Scheduler refreshes the watchlist on a cron schedule and answers bot commands.
type Scheduler struct {
	Cron     *cron.Cron
	Service  Service
	Notifier Sender
	Ctx      context.Context

	opts Options
	log  *logrus.Entry
}

// NewScheduler creates a new Scheduler. Cron expressions take a seconds field.
func NewScheduler(ctx context.Context, svc Service, sender Sender, opts Options) *Scheduler {
	if opts.RefreshDays <= 0 {
		opts.RefreshDays = service.DefaultHistoryDays
	}
	if opts.DigestDays <= 0 {
		opts.DigestDays = 7
	}
	if opts.Now == nil {
		opts.Now = time.Now
	}
	return &Scheduler{
		Cron:     cron.New(cron.WithSeconds()),
		Service:  svc,
		Notifier: sender,
		Ctx:      ctx,
		opts:     opts,
		log:      logger.WithComponent("scheduler"),
	}
}

// RegisterAll registers the watchlist refresh job.
func (s *Scheduler) RegisterAll(refreshCron string) error {
	if _, err := s.Cron.AddFunc(refreshCron, func() { s.RunNow() }); err != nil {
		return fmt.Errorf("register refresh task: %w", err)
	}
	return nil
}

// Start starts the cron scheduler.
func (s *Scheduler) Start() {
	s.Cron.Start()
	s.log.WithField("watchlist", s.opts.Watchlist).Info("scheduler started")
}

// Stop stops the cron scheduler and waits for a running job.
func (s *Scheduler) Stop() {
	<-s.Cron.Stop().Done()
	s.log.Info("scheduler stopped")
}

// RunNow refreshes every watchlist ticker, forecasts it and sends the digest.
func (s *Scheduler) RunNow() []notifier.DigestEntry {
	if len(s.opts.Watchlist) == 0 {
		return nil
	}
	s.log.Info("running watchlist refresh")

	entries := make([]notifier.DigestEntry, 0, len(s.opts.Watchlist))
	for _, ticker := range s.opts.Watchlist {
		entry := s.refresh(ticker)
		outcome := "ok"
		if entry.Err != nil {
			outcome = "error"
			s.log.WithError(entry.Err).WithField("ticker", ticker).Warn("refresh failed")
		}
		s.opts.Metrics.RefreshRun(outcome)
		entries = append(entries, entry)
	}

	if s.Notifier != nil {
		s.trySend(notifier.FormatDigest(model.FormatDate(s.opts.Now()), entries))
	}
	return entries
}

func (s *Scheduler) refresh(ticker string) notifier.DigestEntry {
	entry := notifier.DigestEntry{Ticker: ticker}
	hist, err := s.Service.History(s.Ctx, ticker, s.opts.RefreshDays)
	if err != nil {
		entry.Err = err
		return entry
	}
	entry.History = hist

	pred, err := s.Service.Predict(s.Ctx, ticker, s.opts.DigestDays)
	if err != nil {
		entry.Err = err
		return entry
	}
	entry.Forecast = pred
	return entry
}

const helpText = "Available commands:\n" +
	"• /history TICKER [days]\n" +
	"• /forecast TICKER [days]"

// HandleCommand processes a bot command and returns the reply.
func (s *Scheduler) HandleCommand(ctx context.Context, command string) string {
	fields := strings.Fields(command)
	if len(fields) == 0 {
		return helpText
	}
	name := strings.ToLower(fields[0])
	if i := strings.IndexByte(name, '@'); i > 0 {
		name = name[:i]
	}

	switch name {
	case "/history":
		ticker, days, err := commandArgs(fields, service.DefaultHistoryDays)
		if err != nil {
			return err.Error()
		}
		res, err := s.Service.History(ctx, ticker, days)
		if err != nil {
			return "❌ " + apperr.MessageOf(err)
		}
		return notifier.FormatHistory(res)
	case "/forecast":
		ticker, days, err := commandArgs(fields, s.opts.DigestDays)
		if err != nil {
			return err.Error()
		}
		if _, err := s.Service.History(ctx, ticker, s.opts.RefreshDays); err != nil {
			return "❌ " + apperr.MessageOf(err)
		}
		res, err := s.Service.Predict(ctx, ticker, days)
		if err != nil {
			return "❌ " + apperr.MessageOf(err)
		}
		return notifier.FormatForecast(res)
	default:
		return helpText
	}
}

func commandArgs(fields []string, defaultDays int) (string, int, error) {
	if len(fields) < 2 {
		return "", 0, fmt.Errorf("usage: %s TICKER [days]", fields[0])
	}
	days := defaultDays
	if len(fields) > 2 {
		n, err := strconv.Atoi(fields[2])
		if err != nil {
			return "", 0, fmt.Errorf("days must be an integer, got %q", fields[2])
		}
		days = n
	}
	return fields[1], days, nil
}

func (s *Scheduler) trySend(text string) {
	if err := s.Notifier.SendWithRetry(s.Ctx, text, 3); err != nil {
		s.log.WithError(err).Error("send digest failed")
	}
}
