package client

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/cenkalti/backoff/v4"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
	"github.com/rs/zerolog"
)

// Prometheus metrics for retry operations.
var (
	retriesTotal = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "catalog_retries_total",
		Help: "Total number of retry attempts by error class",
	}, []string{"error_class"})

	retryBackoffSeconds = promauto.NewHistogramVec(prometheus.HistogramOpts{
		Name:    "catalog_retry_backoff_seconds",
		Help:    "Backoff duration for retries by error class",
		Buckets: []float64{0.5, 1, 2, 5, 10, 30, 60},
	}, []string{"error_class"})

	retryExhaustedTotal = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "catalog_retry_exhausted_total",
		Help: "Total number of times retry attempts were exhausted by error class",
	}, []string{"error_class"})
)

// RetryPolicy holds the configuration for retry logic.
type RetryPolicy struct {
	// MaxAttempts is the maximum number of attempts (including the initial request).
	MaxAttempts int

	// InitialBackoff is the initial backoff duration.
	InitialBackoff time.Duration

	// MaxBackoff is the maximum backoff duration.
	MaxBackoff time.Duration

	// BackoffMultiplier is the multiplier for exponential backoff.
	BackoffMultiplier float64

	// Jitter is the randomization factor applied to each backoff (0.2 = ±20%).
	Jitter float64
}

// DefaultRetryPolicy returns the default retry policy.
func DefaultRetryPolicy() RetryPolicy {
	return RetryPolicy{
		MaxAttempts:       3,
		InitialBackoff:    1 * time.Second,
		MaxBackoff:        30 * time.Second,
		BackoffMultiplier: 2.0,
		Jitter:            0.2,
	}
}

// RetryPolicyForErrorClass returns the appropriate retry policy for an error class.
func RetryPolicyForErrorClass(errorClass ErrorClass) RetryPolicy {
	switch errorClass {
	case ErrorClassServer:
		return RetryPolicy{
			MaxAttempts:       3,
			InitialBackoff:    1 * time.Second,
			MaxBackoff:        10 * time.Second,
			BackoffMultiplier: 2.0,
			Jitter:            0.2,
		}
	case ErrorClassRateLimit:
		// 429 - the upstream asks for a few seconds of quiet
		return RetryPolicy{
			MaxAttempts:       6,
			InitialBackoff:    5 * time.Second,
			MaxBackoff:        60 * time.Second,
			BackoffMultiplier: 2.0,
			Jitter:            0.2,
		}
	case ErrorClassNetwork:
		return RetryPolicy{
			MaxAttempts:       3,
			InitialBackoff:    2 * time.Second,
			MaxBackoff:        30 * time.Second,
			BackoffMultiplier: 2.0,
			Jitter:            0.2,
		}
	default:
		return DefaultRetryPolicy()
	}
}

func (p RetryPolicy) newBackOff() backoff.BackOff {
	b := backoff.NewExponentialBackOff()
	b.InitialInterval = p.InitialBackoff
	b.MaxInterval = p.MaxBackoff
	b.Multiplier = p.BackoffMultiplier
	b.RandomizationFactor = p.Jitter
	b.MaxElapsedTime = 0
	b.Reset()
	return b
}

// Retrier runs an operation under a per-error-class RetryPolicy and an
// optional circuit breaker.
type Retrier struct {
	policyFor func(ErrorClass) RetryPolicy
	breaker   *Breaker
	logger    zerolog.Logger
}

// NewRetrier creates a retrier. A nil policyFor uses RetryPolicyForErrorClass;
// a nil breaker disables circuit breaking.
func NewRetrier(policyFor func(ErrorClass) RetryPolicy, breaker *Breaker, logger zerolog.Logger) *Retrier {
	if policyFor == nil {
		policyFor = RetryPolicyForErrorClass
	}
	return &Retrier{
		policyFor: policyFor,
		breaker:   breaker,
		logger:    logger,
	}
}

// Do executes fn until it succeeds, returns an error whose class is not
// retryable, exhausts the policy of the first failure's class, or the breaker
// opens. The policy is picked by the class of the first retryable failure.
func (r *Retrier) Do(ctx context.Context, fn func() error, classify func(error) ErrorClass) error {
	var (
		lastErr   error
		lastClass ErrorClass
		policy    RetryPolicy
		bo        backoff.BackOff
		attempt   int
	)

	for attempt = 1; ; attempt++ {
		if err := r.breaker.Allow(); err != nil {
			if lastErr != nil {
				return fmt.Errorf("%w after %d attempts: %w", ErrCircuitOpen, attempt-1, lastErr)
			}
			return err
		}

		err := fn()
		if err == nil {
			r.breaker.RecordSuccess()
			if attempt > 1 {
				r.logger.Info().
					Str("error_class", string(lastClass)).
					Int("attempt", attempt).
					Msg("Request succeeded after retry")
			}
			return nil
		}

		lastErr = err
		lastClass = classify(err)

		if !shouldRetry(lastClass) {
			return lastErr
		}
		r.breaker.RecordFailure()

		if bo == nil {
			policy = r.policyFor(lastClass)
			bo = policy.newBackOff()
		}

		if attempt >= policy.MaxAttempts {
			break
		}

		wait := bo.NextBackOff()
		if wait == backoff.Stop {
			break
		}
		var apiErr *APIError
		if errors.As(err, &apiErr) && apiErr.RetryAfter > wait {
			wait = apiErr.RetryAfter
		}

		retriesTotal.WithLabelValues(string(lastClass)).Inc()
		retryBackoffSeconds.WithLabelValues(string(lastClass)).Observe(wait.Seconds())

		r.logger.Warn().
			Err(err).
			Str("error_class", string(lastClass)).
			Int("attempt", attempt).
			Dur("backoff", wait).
			Msg("Retrying request after backoff")

		timer := time.NewTimer(wait)
		select {
		case <-ctx.Done():
			timer.Stop()
			r.logger.Warn().
				Str("error_class", string(lastClass)).
				Int("attempt", attempt).
				Msg("Context cancelled during retry backoff")
			return fmt.Errorf("%w: %v", ErrContextCancelled, ctx.Err())
		case <-timer.C:
		}
	}

	retryExhaustedTotal.WithLabelValues(string(lastClass)).Inc()
	r.logger.Warn().
		Str("error_class", string(lastClass)).
		Int("attempts", attempt).
		Msg("Retry attempts exhausted")

	return fmt.Errorf("%w after %d attempts: %w", ErrRetryExhausted, attempt, lastErr)
}
