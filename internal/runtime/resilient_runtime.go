package runtime

import (
	"context"
	"errors"
	"time"

	"github.com/costwatch/costwatch/internal/logger"
	"github.com/costwatch/costwatch/internal/resilience"
	"github.com/costwatch/costwatch/pkg/models"
)

// ResilientRuntime wraps a Runtime with per-call retries and a shared
// circuit breaker, so a dead runtime API fails fast instead of stalling
// every container in a cycle.
type ResilientRuntime struct {
	runtime        Runtime
	circuitBreaker *resilience.CircuitBreaker
	retryAttempts  int
	retryDelay     time.Duration
}

type ResilientRuntimeConfig struct {
	Runtime       Runtime
	MaxFailures   int
	Timeout       time.Duration
	RetryAttempts int
	RetryDelay    time.Duration
	OnStateChange func(name string, from, to resilience.State)
}

func NewResilientRuntime(cfg ResilientRuntimeConfig) *ResilientRuntime {
	if cfg.RetryAttempts <= 0 {
		cfg.RetryAttempts = 2
	}
	if cfg.RetryDelay <= 0 {
		cfg.RetryDelay = 1 * time.Second
	}

	cb := resilience.NewCircuitBreaker(resilience.CircuitBreakerConfig{
		Name:          "runtime",
		MaxFailures:   cfg.MaxFailures,
		Timeout:       cfg.Timeout,
		OnStateChange: cfg.OnStateChange,
	})

	return &ResilientRuntime{
		runtime:        cfg.Runtime,
		circuitBreaker: cb,
		retryAttempts:  cfg.RetryAttempts,
		retryDelay:     cfg.RetryDelay,
	}
}

func (r *ResilientRuntime) ListRunningContainers(ctx context.Context) ([]models.ContainerIdentity, error) {
	var containers []models.ContainerIdentity
	err := r.execute(ctx, "list", func() error {
		var err error
		containers, err = r.runtime.ListRunningContainers(ctx)
		return err
	})
	return containers, err
}

func (r *ResilientRuntime) GetResourceSample(ctx context.Context, id string) (*models.ResourceSample, error) {
	var sample *models.ResourceSample
	err := r.execute(ctx, id, func() error {
		var err error
		sample, err = r.runtime.GetResourceSample(ctx, id)
		return err
	})
	return sample, err
}

func (r *ResilientRuntime) GetConfiguration(ctx context.Context, id string) (*models.ContainerConfig, error) {
	var cfg *models.ContainerConfig
	err := r.execute(ctx, id, func() error {
		var err error
		cfg, err = r.runtime.GetConfiguration(ctx, id)
		return err
	})
	return cfg, err
}

func (r *ResilientRuntime) execute(ctx context.Context, subject string, fn func() error) error {
	var lastErr error
	var notFound error

	err := r.circuitBreaker.Execute(func() error {
		for attempt := 1; attempt <= r.retryAttempts; attempt++ {
			select {
			case <-ctx.Done():
				return ctx.Err()
			default:
			}

			err := fn()
			if err == nil {
				return nil
			}

			// A vanished container will not come back; retrying wastes
			// the cycle's time budget. The skip says nothing about the
			// runtime's health, so it must not count against the breaker.
			if errors.Is(err, ErrNotFound) {
				notFound = err
				return nil
			}

			lastErr = err
			logger.WithContainer(subject).Warnf(
				"Runtime call attempt %d/%d failed: %v",
				attempt, r.retryAttempts, err,
			)

			if attempt < r.retryAttempts {
				select {
				case <-ctx.Done():
					return ctx.Err()
				case <-time.After(r.retryDelay):
				}
			}
		}
		return lastErr
	})
	if notFound != nil {
		return notFound
	}
	return err
}

func (r *ResilientRuntime) HealthCheck(ctx context.Context) error {
	return r.runtime.HealthCheck(ctx)
}

func (r *ResilientRuntime) Close() error {
	return r.runtime.Close()
}

func (r *ResilientRuntime) CircuitState() resilience.State {
	return r.circuitBreaker.State()
}
