package weather

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"sync/atomic"
	"time"

	"github.com/google/uuid"
	"github.com/jonboulle/clockwork"

	"github.com/i474232898/env-monitor/internal/observability"
)

// DefaultHistoryLimit is the largest history slice the service hands out.
const DefaultHistoryLimit = 50

// Service owns the latest-reading cache and orchestrates one poll cycle:
// fetch, normalize, cache, append, publish.
type Service struct {
	fetcher    Fetcher
	store      HistoryStore
	publisher  Publisher
	normalizer *Normalizer
	cache      *LatestCache

	thresholds   Thresholds
	historyLimit int

	clock   clockwork.Clock
	logger  *slog.Logger
	metrics *observability.Metrics
	ready   atomic.Bool
}

// Option customizes a Service.
type Option func(*Service)

// WithPublisher fans every normalized Reading out to p.
func WithPublisher(p Publisher) Option {
	return func(s *Service) { s.publisher = p }
}

// WithClock swaps the time source used for timestamps and cycle durations.
func WithClock(c clockwork.Clock) Option {
	return func(s *Service) { s.clock = c }
}

// WithThresholds sets the alert thresholds.
func WithThresholds(th Thresholds) Option {
	return func(s *Service) { s.thresholds = th }
}

// WithHistoryLimit caps the history slice. Values outside 1..DefaultHistoryLimit are ignored.
func WithHistoryLimit(n int) Option {
	return func(s *Service) {
		if n > 0 && n <= DefaultHistoryLimit {
			s.historyLimit = n
		}
	}
}

// NewService creates a new Service. The cache starts out holding the
// all-default Reading.
func NewService(fetcher Fetcher, store HistoryStore, logger *slog.Logger, metrics *observability.Metrics, opts ...Option) *Service {
	s := &Service{
		fetcher:      fetcher,
		store:        store,
		thresholds:   DefaultThresholds(),
		historyLimit: DefaultHistoryLimit,
		clock:        clockwork.NewRealClock(),
		logger:       logger,
		metrics:      metrics,
	}
	for _, opt := range opts {
		opt(s)
	}

	s.normalizer = NewNormalizer(s.clock)
	s.cache = NewLatestCache(s.clock.Now().UTC())
	return s
}

// RunCycle performs one fetch-normalize-store sequence.
//
// On upstream failure the cache and store are left untouched and an error
// wrapping ErrUpstreamFailure is returned. Once a payload arrives the cache is
// always refreshed; append and publish failures are reported in the returned
// error but do not undo the cache update.
func (s *Service) RunCycle(ctx context.Context) error {
	start := s.clock.Now()
	log := s.logger.With("cycle_id", uuid.NewString(), "provider", s.fetcher.Name())

	payload, err := s.fetcher.FetchCurrent(ctx)
	if err != nil {
		s.metrics.CyclesTotal.WithLabelValues("upstream_error").Inc()
		if !errors.Is(err, ErrUpstreamFailure) {
			err = fmt.Errorf("%w: %v", ErrUpstreamFailure, err)
		}
		return err
	}

	reading := s.normalizer.Normalize(payload)
	s.cache.Set(reading)
	s.ready.Store(true)
	s.metrics.LastSuccess.Set(float64(reading.Timestamp.Unix()))

	var errs []error
	if err := s.store.Append(ctx, reading); err != nil {
		s.metrics.PersistErrors.Inc()
		if !errors.Is(err, ErrPersistenceFailure) {
			err = fmt.Errorf("%w: %v", ErrPersistenceFailure, err)
		}
		errs = append(errs, fmt.Errorf("append reading: %w", err))
	}

	if s.publisher != nil {
		if err := s.publisher.Publish(ctx, reading); err != nil {
			s.metrics.PublishErrors.Inc()
			errs = append(errs, fmt.Errorf("publish reading: %w", err))
		}
	}

	s.metrics.CycleDuration.Observe(s.clock.Since(start).Seconds())
	if len(errs) > 0 {
		s.metrics.CyclesTotal.WithLabelValues("persist_error").Inc()
		return errors.Join(errs...)
	}

	s.metrics.CyclesTotal.WithLabelValues("success").Inc()
	log.Info("fetched and stored weather reading",
		"temperature", reading.Temperature,
		"humidity", reading.Humidity,
		"condition", reading.WeatherCondition,
		"timestamp", reading.Timestamp.Format(time.RFC3339),
	)
	return nil
}

// Current returns the cached Reading. It never blocks and never fails.
func (s *Service) Current() Reading {
	return s.cache.Get()
}

// History returns up to limit stored records, newest first. A limit outside
// 1..the configured cap falls back to the cap.
func (s *Service) History(ctx context.Context, limit int) ([]Record, error) {
	if limit <= 0 || limit > s.historyLimit {
		limit = s.historyLimit
	}

	start := s.clock.Now()
	records, err := s.store.Recent(ctx, limit)
	s.metrics.HistoryQueryLatency.Observe(s.clock.Since(start).Seconds())
	if err != nil {
		if !errors.Is(err, ErrPersistenceFailure) {
			err = fmt.Errorf("%w: %v", ErrPersistenceFailure, err)
		}
		return nil, err
	}

	if len(records) > limit {
		records = records[:limit]
	}
	if records == nil {
		records = []Record{}
	}
	return records, nil
}

// HistoryLimit is the largest slice History will return.
func (s *Service) HistoryLimit() int {
	return s.historyLimit
}

// Alerts evaluates the thresholds against the cached Reading. Before the
// first successful cycle there is nothing real to judge, so it returns none.
func (s *Service) Alerts() []Alert {
	if !s.ready.Load() {
		return []Alert{}
	}
	return Evaluate(s.cache.Get(), s.thresholds)
}

// CheckReadiness returns nil once a cycle has refreshed the cache and the
// history store, if it can be pinged, answers.
func (s *Service) CheckReadiness(ctx context.Context) error {
	if !s.ready.Load() {
		return errors.New("no weather reading fetched yet")
	}
	if p, ok := s.store.(Pinger); ok {
		if err := p.Ping(ctx); err != nil {
			return fmt.Errorf("history store unreachable: %w", err)
		}
	}
	return nil
}
