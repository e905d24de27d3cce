package commands

import (
	"context"
	"fmt"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"github.com/redis/go-redis/v9"
	"go.uber.org/zap"

	"github.com/user/auction-watch/internal/adapter/chromedp_fetch"
	"github.com/user/auction-watch/internal/adapter/httpfetch"
	"github.com/user/auction-watch/internal/adapter/lognotify"
	"github.com/user/auction-watch/internal/adapter/memory"
	"github.com/user/auction-watch/internal/adapter/ponip"
	"github.com/user/auction-watch/internal/adapter/postgres"
	redis_adapter "github.com/user/auction-watch/internal/adapter/redis"
	"github.com/user/auction-watch/internal/adapter/sqlite"
	"github.com/user/auction-watch/internal/adapter/targets"
	"github.com/user/auction-watch/internal/adapter/telegram"
	"github.com/user/auction-watch/internal/proxy"
	"github.com/user/auction-watch/internal/repository"
	"github.com/user/auction-watch/internal/usecase"
	"github.com/user/auction-watch/pkg/config"
	"github.com/user/auction-watch/pkg/logger"
	"github.com/user/auction-watch/pkg/metrics"
)

const notifyTimeout = 15 * time.Second

// app holds every long-lived dependency of one command invocation.
type app struct {
	cfg      *config.Config
	logger   *zap.Logger
	registry *prometheus.Registry
	metrics  *metrics.Metrics

	records  repository.RecordRepository
	failures repository.FailureRepository
	redis    *redis.Client
	pingers  map[string]usecase.Pinger

	closers []func()
}

// newApp loads the configuration, builds the logger and opens the store.
// The Redis client is created when configured; fetchers and notifiers are
// only built by monitor.
func newApp(ctx context.Context) (*app, error) {
	cfg, err := config.Load(configPath)
	if err != nil {
		return nil, fmt.Errorf("load config: %w", err)
	}
	log, err := logger.New(cfg.LogLevel)
	if err != nil {
		return nil, fmt.Errorf("init logger: %w", err)
	}

	reg := prometheus.NewRegistry()
	reg.MustRegister(collectors.NewGoCollector(), collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}))

	a := &app{
		cfg:      cfg,
		logger:   log,
		registry: reg,
		metrics:  metrics.New(reg),
		pingers:  map[string]usecase.Pinger{},
	}
	a.closers = append(a.closers, func() { _ = log.Sync() })

	if err := a.openStore(ctx); err != nil {
		a.Close()
		return nil, err
	}

	if cfg.RedisAddr != "" {
		rdb := redis.NewClient(&redis.Options{
			Addr:     cfg.RedisAddr,
			Password: cfg.RedisPassword,
			DB:       cfg.RedisDB,
		})
		if err := rdb.Ping(ctx).Err(); err != nil {
			rdb.Close()
			a.Close()
			return nil, fmt.Errorf("unable to connect to redis: %w", err)
		}
		a.redis = rdb
		a.pingers["redis"] = usecase.PingFunc(func(ctx context.Context) error { return rdb.Ping(ctx).Err() })
		a.closers = append(a.closers, func() { rdb.Close() })
		log.Info("Redis connection established", zap.String("addr", cfg.RedisAddr))
	}
	return a, nil
}

func (a *app) openStore(ctx context.Context) error {
	switch a.cfg.StoreDriver {
	case config.DriverPostgres:
		pool, err := postgres.Connect(ctx, a.cfg.PostgresDSN())
		if err != nil {
			return err
		}
		a.records = postgres.NewRecordRepo(pool)
		a.failures = postgres.NewFailureRepo(pool)
		a.closers = append(a.closers, pool.Close)
		a.logger.Info("PostgreSQL connection pool established")
	case config.DriverSQLite:
		db, err := sqlite.Open(ctx, a.cfg.SQLitePath)
		if err != nil {
			return err
		}
		a.records = sqlite.NewRecordRepo(db)
		a.failures = sqlite.NewFailureRepo(db)
		a.closers = append(a.closers, func() { db.Close() })
		a.logger.Info("SQLite database opened", zap.String("path", a.cfg.SQLitePath))
	case config.DriverMemory:
		a.records = memory.NewRecordRepo()
		a.failures = memory.NewFailureRepo()
		a.logger.Warn("Using the in-memory store, nothing will be kept across runs")
	default:
		return fmt.Errorf("unknown store driver %q", a.cfg.StoreDriver)
	}
	return nil
}

// monitor wires the change-detection pipeline.
func (a *app) monitor() (*usecase.Monitor, error) {
	cfg := a.cfg

	pm, err := proxy.NewManager(cfg.Proxies, cfg.UserAgents)
	if err != nil {
		return nil, err
	}

	var fetcher repository.FetcherRepository
	switch cfg.FetchMode {
	case config.FetchBrowser:
		f := chromedp_fetch.New(cfg.PageLoadTimeout, pm, a.logger)
		a.closers = append(a.closers, f.Close)
		fetcher = f
	default:
		fetcher = httpfetch.New(cfg.PageLoadTimeout, pm)
	}

	var notifier repository.NotifierRepository = lognotify.New(a.logger)
	if cfg.TelegramEnabled() {
		notifier = telegram.New(cfg.TelegramAPIURL, cfg.TelegramBotToken, cfg.TelegramChatID, notifyTimeout)
	} else {
		a.logger.Warn("Telegram is not configured, notifications are only logged")
	}

	var tgt targets.Combined
	if len(cfg.URLs) > 0 {
		tgt = append(tgt, targets.Static(cfg.URLs))
	}
	if cfg.TargetsFile != "" {
		tgt = append(tgt, targets.File{Path: cfg.TargetsFile})
	}

	deps := usecase.MonitorDeps{
		Targets:   tgt,
		Fetcher:   fetcher,
		Extractor: ponip.New(),
		Records:   a.records,
		Notifier:  notifier,
		Failures:  a.failures,
		Metrics:   a.metrics,
	}
	if a.redis != nil {
		deps.Outbox = redis_adapter.NewOutboxRepo(a.redis)
		deps.Lock = redis_adapter.NewLockRepo(a.redis)
	}

	return usecase.NewMonitor(deps, usecase.MonitorConfig{
		IdentityField:   cfg.IdentityField,
		Concurrency:     cfg.MaxConcurrency,
		LockTTL:         cfg.PassLockTTL,
		AnnounceTimeout: cfg.AnnounceTimeout,
		Projection: usecase.Projection{
			TopBid:           cfg.ProjectedFields.TopBid,
			Status:           cfg.ProjectedFields.Status,
			ParticipantCount: cfg.ProjectedFields.ParticipantCount,
		},
	}, a.logger), nil
}

func (a *app) inspector() usecase.Inspector {
	return usecase.NewInspector(a.records, a.failures, a.pingers)
}

// Close releases everything in reverse order of acquisition.
func (a *app) Close() {
	for i := len(a.closers) - 1; i >= 0; i-- {
		a.closers[i]()
	}
}
