// Package middleware decorates samplers with retries, per-attempt timeouts,
// and a circuit breaker, so a flapping provider degrades into a clean
// source-unavailable signal instead of stalling a run.
package middleware

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/sony/gobreaker"

	"github.com/harborwatch/sector-scoring/internal/domain"
)

// ResilientSampler wraps a Sampler with bounded retries and a circuit
// breaker. An open circuit or exhausted retries surfaces as
// domain.ErrSourceUnavailable, which scoring absorbs by redistributing
// weights.
type ResilientSampler struct {
	inner          domain.Sampler
	breaker        *gobreaker.CircuitBreaker
	maxRetries     int
	attemptTimeout time.Duration
	logger         *slog.Logger
}

// NewResilientSampler creates the resilience decorator. maxRetries counts
// retries after the first attempt; attemptTimeout bounds each attempt and may
// be zero for no bound.
func NewResilientSampler(inner domain.Sampler, maxRetries int, attemptTimeout time.Duration, logger *slog.Logger) *ResilientSampler {
	settings := gobreaker.Settings{
		Name:    string(inner.Source()),
		Timeout: 60 * time.Second,
		ReadyToTrip: func(counts gobreaker.Counts) bool {
			return counts.ConsecutiveFailures >= 3
		},
	}
	return &ResilientSampler{
		inner:          inner,
		breaker:        gobreaker.NewCircuitBreaker(settings),
		maxRetries:     maxRetries,
		attemptTimeout: attemptTimeout,
		logger:         logger,
	}
}

func (r *ResilientSampler) Source() domain.SourceKind { return r.inner.Source() }

func (r *ResilientSampler) Fetch(ctx context.Context, points []domain.GeoPoint, window domain.TimeWindow) (domain.SourceSamples, error) {
	// Exponential backoff: start at 200ms, double each retry, cap at 5s.
	backoff := 200 * time.Millisecond
	maxBackoff := 5 * time.Second

	var lastErr error
	for attempt := 0; attempt <= r.maxRetries; attempt++ {
		if attempt > 0 {
			select {
			case <-ctx.Done():
				return domain.SourceSamples{}, ctx.Err()
			case <-time.After(backoff):
			}
			backoff *= 2
			if backoff > maxBackoff {
				backoff = maxBackoff
			}
		}

		samples, err := r.attempt(ctx, points, window)
		if err == nil {
			return samples, nil
		}
		lastErr = err

		if ctx.Err() != nil {
			return domain.SourceSamples{}, ctx.Err()
		}
		if errors.Is(err, gobreaker.ErrOpenState) || errors.Is(err, gobreaker.ErrTooManyRequests) {
			r.logger.Warn("circuit open, skipping source",
				"source", r.inner.Source())
			break
		}
		r.logger.Warn("sampler attempt failed",
			"source", r.inner.Source(), "attempt", attempt+1, "error", err)
	}

	return domain.SourceSamples{}, fmt.Errorf("%s: retries exhausted: %v: %w",
		r.inner.Source(), lastErr, domain.ErrSourceUnavailable)
}

func (r *ResilientSampler) attempt(ctx context.Context, points []domain.GeoPoint, window domain.TimeWindow) (domain.SourceSamples, error) {
	attemptCtx := ctx
	if r.attemptTimeout > 0 {
		var cancel context.CancelFunc
		attemptCtx, cancel = context.WithTimeout(ctx, r.attemptTimeout)
		defer cancel()
	}

	result, err := r.breaker.Execute(func() (any, error) {
		return r.inner.Fetch(attemptCtx, points, window)
	})
	if err != nil {
		return domain.SourceSamples{}, err
	}
	return result.(domain.SourceSamples), nil
}
