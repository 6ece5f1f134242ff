package main

import (
	"context"
	"fmt"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"golang.org/x/time/rate"

	httpapi "github.com/i474232898/env-monitor/internal/api/http"
	"github.com/i474232898/env-monitor/internal/config"
	"github.com/i474232898/env-monitor/internal/observability"
	"github.com/i474232898/env-monitor/internal/scheduler"
	"github.com/i474232898/env-monitor/internal/store"
	"github.com/i474232898/env-monitor/internal/stream"
	"github.com/i474232898/env-monitor/internal/weather"
	"github.com/i474232898/env-monitor/internal/weather/providers"
)

// closableStore is a history store holding a connection that must be released.
type closableStore interface {
	weather.HistoryStore
	Close(ctx context.Context) error
}

func main() {
	cfg, err := config.Load()
	if err != nil {
		slog.Error("failed to load config", "error", err)
		os.Exit(1)
	}

	logger := observability.NewLogger(cfg.LogLevel, cfg.LogFormat)
	metrics := observability.NewMetrics()

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	history, err := openStore(ctx, cfg, logger)
	if err != nil {
		logger.Error("failed to open history store", "backend", cfg.StoreBackend, "error", err)
		os.Exit(1)
	}
	if err := initStore(ctx, history); err != nil {
		if cfg.StoreFailFast {
			logger.Error("history store unreachable", "backend", cfg.StoreBackend, "error", err)
			os.Exit(1)
		}
		// Cycles keep refreshing the cache; appends and history reads fail until the store is back.
		logger.Warn("history store unreachable, starting anyway", "backend", cfg.StoreBackend, "error", err)
	}

	// Shared HTTP client for the upstream API. A zero timeout keeps the transport default.
	httpClient := &http.Client{Timeout: cfg.UpstreamTimeout}

	var limiter *rate.Limiter
	if cfg.UpstreamRatePerMinute > 0 {
		limiter = rate.NewLimiter(rate.Limit(cfg.UpstreamRatePerMinute/60), cfg.UpstreamBurst)
	}

	loc := cfg.Location()
	fetcher := providers.NewGoogleWeatherProvider(providers.HTTPClientConfig{
		Client:  httpClient,
		Limiter: limiter,
		Backoff: providers.BackoffConfig{MaxRetries: cfg.UpstreamMaxRetries},
	}, cfg.WeatherBaseURL, cfg.GoogleWeatherAPIKey, loc)

	if cfg.GeocoderAPIKey != "" {
		name, err := providers.ResolvePlaceName(cfg.GeocoderAPIKey, loc)
		if err != nil {
			logger.Warn("reverse geocoding failed", "error", err)
		}
		loc.Name = name
	}

	opts := []weather.Option{
		weather.WithThresholds(cfg.Alerts),
		weather.WithHistoryLimit(cfg.HistoryLimit),
	}

	var publisher *stream.Writer
	if len(cfg.KafkaBrokers) > 0 {
		publisher = stream.NewWriter(cfg.KafkaBrokers, cfg.KafkaTopic, fmt.Sprintf("%.4f,%.4f", loc.Latitude, loc.Longitude), logger)
		opts = append(opts, weather.WithPublisher(publisher))
	}

	service := weather.NewService(fetcher, history, logger, metrics, opts...)

	sched := scheduler.New(service, scheduler.Options{
		Interval:     cfg.PollInterval,
		CycleTimeout: cfg.CycleTimeout,
		AllowOverlap: !cfg.SkipOverlap,
	}, logger, metrics)
	if err := sched.Start(ctx); err != nil {
		logger.Error("failed to start scheduler", "error", err)
		os.Exit(1)
	}

	app := httpapi.NewApp(httpapi.AppOptions{
		CORSAllowOrigins: cfg.CORSAllowOrigins,
		AccessLog:        true,
	}, logger, metrics)
	httpapi.RegisterRoutes(app, service, loc, logger)

	go func() {
		logger.Info("http server starting", "port", cfg.Port)
		if err := app.Listen(":" + cfg.Port); err != nil {
			logger.Error("fiber server stopped", "error", err)
			stop()
		}
	}()

	<-ctx.Done()
	logger.Info("shutting down")

	sched.Stop()

	shutdownCtx, cancel := context.WithTimeout(context.Background(), cfg.ShutdownTimeout)
	defer cancel()

	if err := app.ShutdownWithContext(shutdownCtx); err != nil {
		logger.Error("error during shutdown", "error", err)
	}
	if publisher != nil {
		if err := publisher.Close(); err != nil {
			logger.Error("kafka writer close error", "error", err)
		}
	}
	if c, ok := history.(closableStore); ok {
		if err := c.Close(shutdownCtx); err != nil {
			logger.Error("history store close error", "error", err)
		}
	}

	logger.Info("shutdown complete")
}

// initializer is a store that checks its connection and prepares its schema.
type initializer interface {
	Init(ctx context.Context) error
}

// openStore builds the configured backend without dialing it.
func openStore(ctx context.Context, cfg *config.AppConfig, logger *slog.Logger) (weather.HistoryStore, error) {
	switch cfg.StoreBackend {
	case config.BackendMemory:
		logger.Info("using in-memory history store", "max_history", cfg.StoreMaxHistory)
		return store.NewMemoryStore(cfg.StoreMaxHistory, nil), nil
	case config.BackendPostgres:
		s, err := store.NewPostgresStore(cfg.DatabaseURL, nil)
		if err != nil {
			return nil, err
		}
		logger.Info("using postgres history store")
		return s, nil
	default:
		s, err := store.NewMongoStore(ctx, store.MongoConfig{
			URI:        cfg.MongoURI,
			Database:   cfg.MongoDatabase,
			Collection: cfg.MongoCollection,
		}, nil)
		if err != nil {
			return nil, err
		}
		logger.Info("using mongo history store", "database", cfg.MongoDatabase, "collection", cfg.MongoCollection)
		return s, nil
	}
}

func initStore(ctx context.Context, history weather.HistoryStore) error {
	i, ok := history.(initializer)
	if !ok {
		return nil
	}
	initCtx, cancel := context.WithTimeout(ctx, 15*time.Second)
	defer cancel()
	return i.Init(initCtx)
}
