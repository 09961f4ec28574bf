package main

import (
	"context"
	"errors"
	"fmt"
	"math/rand"
	"sync"
	"time"

	"github.com/angelmondragon/quotecart/pkg/logger"
	"github.com/angelmondragon/quotecart/pkg/metrics"
)

const (
	defaultInterval = time.Hour
	retryBase       = time.Minute
	maxBackoff      = 15 * time.Minute
	jitterWindow    = 5 * time.Second
)

type dbClient interface {
	Ping(context.Context) error
}

// expirer deletes storage rows whose TTL has passed; *kvstore.Gorm implements it.
type expirer interface {
	DeleteExpired(ctx context.Context) (int64, error)
}

type ServiceParams struct {
	Logger   *logger.Logger
	DB       dbClient
	Store    expirer
	Metrics  *metrics.CartMetrics
	Interval time.Duration
	// Sleep waits between sweeps; tests replace it.
	Sleep func(ctx context.Context, d time.Duration) error
}

// Service periodically removes expired carts from SQL storage. Redis-backed
// carts expire natively and never need it.
type Service struct {
	logg     *logger.Logger
	db       dbClient
	store    expirer
	metrics  *metrics.CartMetrics
	interval time.Duration
	sleep    func(ctx context.Context, d time.Duration) error

	jitterMu sync.Mutex
	jitter   *rand.Rand
}

func NewService(params ServiceParams) (*Service, error) {
	if params.Logger == nil {
		return nil, errors.New("logger is required")
	}
	if params.DB == nil {
		return nil, errors.New("database client is required")
	}
	if params.Store == nil {
		return nil, errors.New("expiring store is required")
	}
	interval := params.Interval
	if interval <= 0 {
		interval = defaultInterval
	}
	sleep := params.Sleep
	if sleep == nil {
		sleep = sleepContext
	}
	return &Service{
		logg:     params.Logger,
		db:       params.DB,
		store:    params.Store,
		metrics:  params.Metrics,
		interval: interval,
		sleep:    sleep,
		jitter:   rand.New(rand.NewSource(time.Now().UnixNano())),
	}, nil
}

func (s *Service) Run(ctx context.Context) error {
	if ctx == nil {
		ctx = context.Background()
	}
	if err := s.db.Ping(ctx); err != nil {
		s.logg.Error(ctx, "database ping failed", err)
		return fmt.Errorf("database ping failed: %w", err)
	}

	failures := 0
	for {
		select {
		case <-ctx.Done():
			s.logg.Info(ctx, "cart sweeper context canceled")
			return ctx.Err()
		default:
		}

		wait := s.interval
		if err := s.sweep(ctx); err != nil {
			s.logg.Error(ctx, "cart sweep failed", err)
			failures++
			wait = backoff(failures)
		} else {
			failures = 0
		}

		if err := s.sleep(ctx, s.withJitter(wait)); err != nil {
			return err
		}
	}
}

func (s *Service) sweep(ctx context.Context) error {
	removed, err := s.store.DeleteExpired(ctx)
	if err != nil {
		return err
	}
	s.metrics.AddExpired(removed)
	if removed > 0 {
		s.logg.Info(s.logg.WithField(ctx, "removed", removed), "expired carts removed")
	}
	return nil
}

// backoff is the wait after the nth consecutive failure: retryBase doubled
// per failure, capped at maxBackoff.
func backoff(failures int) time.Duration {
	wait := retryBase
	for i := 1; i < failures; i++ {
		wait *= 2
		if wait >= maxBackoff {
			return maxBackoff
		}
	}
	return wait
}

func (s *Service) withJitter(d time.Duration) time.Duration {
	if d <= 0 {
		return 0
	}
	s.jitterMu.Lock()
	defer s.jitterMu.Unlock()
	return d + time.Duration(s.jitter.Int63n(int64(jitterWindow)))
}

func sleepContext(ctx context.Context, d time.Duration) error {
	timer := time.NewTimer(d)
	defer timer.Stop()
	select {
	case <-ctx.Done():
		return ctx.Err()
	case <-timer.C:
		return nil
	}
}
