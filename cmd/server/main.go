package main

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/prometheus/client_golang/prometheus"

	"PriceScope/internal/api"
	"PriceScope/internal/collector"
	"PriceScope/internal/config"
	"PriceScope/internal/forecast"
	"PriceScope/internal/history"
	"PriceScope/internal/logger"
	"PriceScope/internal/metrics"
	"PriceScope/internal/notifier"
	"PriceScope/internal/scheduler"
	"PriceScope/internal/service"
	"PriceScope/internal/store"
)

func main() {
	if err := run(); err != nil {
		logger.GetLogger().Fatalf("PriceScope: %v", err)
	}
}

// run wires and serves until SIGINT/SIGTERM. Errors are returned rather than
// fatal so deferred closes always run.
func run() error {
	// Load config
	cfgPath := "configs/config.yaml"
	if v := os.Getenv("CONFIG_PATH"); v != "" {
		cfgPath = v
	}
	cfg, err := config.Load(cfgPath)
	if err != nil {
		return fmt.Errorf("load config: %w", err)
	}
	if err := cfg.Validate(); err != nil {
		return fmt.Errorf("config validation: %w", err)
	}
	logger.Init(cfg.Log)
	log := logger.WithComponent("main")
	log.Info("PriceScope starting...")

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	// Init fetcher
	var fetcher collector.Fetcher = collector.NewYahooFetcher(cfg.Provider.BaseURL, cfg.Provider.Proxy, cfg.Provider.Timeout)
	var providerState func() string
	if b := cfg.Provider.Breaker; b.Enabled {
		bf := collector.NewBreakerFetcher(fetcher, collector.BreakerSettings{
			MaxRequests: b.MaxRequests,
			Interval:    b.Interval,
			Timeout:     b.Timeout,
			ReadyToTrip: b.ReadyToTrip,
		})
		providerState = func() string { return bf.State().String() }
		fetcher = bf
	}
	log.Infof("data source: %s", fetcher.Name())

	// Init store
	var st store.Store
	if sq, err := store.NewSQLiteStore(cfg.Database.SQLitePath); err != nil {
		log.WithError(err).Warn("init sqlite store failed, using in-memory store")
		st = store.NewMemoryStore()
	} else {
		st = sq
	}
	defer st.Close()

	// Optional forecast cache
	var fc store.ForecastCache
	if cfg.Redis.Addr != "" {
		rc, err := store.NewRedisForecastCache(ctx, store.RedisConfig{
			Addr:     cfg.Redis.Addr,
			Password: cfg.Redis.Password,
			DB:       cfg.Redis.DB,
		})
		if err != nil {
			log.WithError(err).Warn("redis unavailable, forecast cache disabled")
		} else {
			fc = rc
			defer rc.Close()
		}
	}

	m := metrics.New(prometheus.DefaultRegisterer)
	svc := service.New(service.Config{
		History:       history.New(history.Config{Fetcher: fetcher, Store: st, Metrics: m}),
		Store:         st,
		Forecaster:    forecast.New(),
		ForecastCache: fc,
		ForecastTTL:   cfg.Redis.ForecastTTL,
		Metrics:       m,
	})

	// Telegram is optional
	var sender scheduler.Sender
	var tn *notifier.TelegramNotifier
	if cfg.TelegramEnabled() {
		tn = notifier.NewTelegramNotifier(cfg.Telegram.BotToken, cfg.Telegram.ChatID, cfg.Provider.Proxy)
		sender = tn
	}

	// Init scheduler
	sched := scheduler.NewScheduler(ctx, svc, sender, scheduler.Options{
		Watchlist:   cfg.Schedule.Watchlist,
		RefreshDays: cfg.Schedule.RefreshDays,
		DigestDays:  cfg.Schedule.DigestDays,
		Metrics:     m,
	})
	if len(cfg.Schedule.Watchlist) > 0 {
		if err := sched.RegisterAll(cfg.Schedule.RefreshCron); err != nil {
			return fmt.Errorf("register cron tasks: %w", err)
		}
		sched.Start()
		defer sched.Stop()
	}

	if tn != nil {
		go tn.StartPolling(ctx, sched.HandleCommand)
		log.Info("Telegram polling started")
	}

	if os.Getenv("RUN_ON_START") == "true" {
		log.Info("RUN_ON_START enabled, refreshing watchlist now")
		go sched.RunNow()
	}

	// HTTP API
	gin.SetMode(gin.ReleaseMode)
	srv := &http.Server{
		Addr: cfg.Server.Addr,
		Handler: api.NewRouter(svc, api.Options{
			CORSOrigin:     cfg.Server.CORSOrigin,
			RequestTimeout: cfg.Server.RequestTimeout,
			Metrics:        m,
			Gatherer:       prometheus.DefaultGatherer,
			ProviderState:  providerState,
		}),
		ReadHeaderTimeout: 10 * time.Second,
	}
	serveErr := make(chan error, 1)
	go func() {
		log.Infof("HTTP API listening on %s", cfg.Server.Addr)
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			serveErr <- err
		}
	}()

	// Wait for shutdown signal or a listener failure
	sigCh := make(chan os.Signal, 1)
	signal.Notify(sigCh, syscall.SIGINT, syscall.SIGTERM)
	select {
	case <-sigCh:
		log.Info("shutdown signal received, stopping...")
	case err := <-serveErr:
		return fmt.Errorf("http server: %w", err)
	}

	shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer shutdownCancel()
	if err := srv.Shutdown(shutdownCtx); err != nil {
		log.WithError(err).Error("http shutdown")
	}
	cancel()
	log.Info("PriceScope stopped")
	return nil
}
