package client

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"strings"
	"testing"
	"time"

	"github.com/rs/zerolog"
)

func fastPolicy(attempts int) func(ErrorClass) RetryPolicy {
	return func(ErrorClass) RetryPolicy {
		return RetryPolicy{
			MaxAttempts:       attempts,
			InitialBackoff:    1 * time.Millisecond,
			MaxBackoff:        5 * time.Millisecond,
			BackoffMultiplier: 2.0,
		}
	}
}

func newTestRetrier(attempts int, breaker *Breaker) *Retrier {
	return NewRetrier(fastPolicy(attempts), breaker, zerolog.Nop())
}

func TestDefaultRetryPolicy(t *testing.T) {
	policy := DefaultRetryPolicy()

	if policy.MaxAttempts != 3 {
		t.Errorf("MaxAttempts = %d, want 3", policy.MaxAttempts)
	}
	if policy.InitialBackoff != 1*time.Second {
		t.Errorf("InitialBackoff = %v, want 1s", policy.InitialBackoff)
	}
	if policy.MaxBackoff != 30*time.Second {
		t.Errorf("MaxBackoff = %v, want 30s", policy.MaxBackoff)
	}
	if policy.BackoffMultiplier != 2.0 {
		t.Errorf("BackoffMultiplier = %v, want 2.0", policy.BackoffMultiplier)
	}
}

func TestRetryPolicyForErrorClass(t *testing.T) {
	tests := []struct {
		name             string
		errorClass       ErrorClass
		expectedInitial  time.Duration
		expectedMax      time.Duration
		expectedAttempts int
	}{
		{
			name:             "server error policy",
			errorClass:       ErrorClassServer,
			expectedInitial:  1 * time.Second,
			expectedMax:      10 * time.Second,
			expectedAttempts: 3,
		},
		{
			name:             "rate limit policy starts at five seconds",
			errorClass:       ErrorClassRateLimit,
			expectedInitial:  5 * time.Second,
			expectedMax:      60 * time.Second,
			expectedAttempts: 6,
		},
		{
			name:             "network error policy",
			errorClass:       ErrorClassNetwork,
			expectedInitial:  2 * time.Second,
			expectedMax:      30 * time.Second,
			expectedAttempts: 3,
		},
		{
			name:             "unknown error class uses default",
			errorClass:       "",
			expectedInitial:  1 * time.Second,
			expectedMax:      30 * time.Second,
			expectedAttempts: 3,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			policy := RetryPolicyForErrorClass(tt.errorClass)

			if policy.InitialBackoff != tt.expectedInitial {
				t.Errorf("InitialBackoff = %v, want %v", policy.InitialBackoff, tt.expectedInitial)
			}
			if policy.MaxBackoff != tt.expectedMax {
				t.Errorf("MaxBackoff = %v, want %v", policy.MaxBackoff, tt.expectedMax)
			}
			if policy.MaxAttempts != tt.expectedAttempts {
				t.Errorf("MaxAttempts = %d, want %d", policy.MaxAttempts, tt.expectedAttempts)
			}
		})
	}
}

func TestRetrier_Success(t *testing.T) {
	callCount := 0
	fn := func() error {
		callCount++
		return nil
	}

	err := newTestRetrier(3, nil).Do(context.Background(), fn, func(error) ErrorClass {
		return ErrorClassServer
	})

	if err != nil {
		t.Errorf("Expected no error, got %v", err)
	}
	if callCount != 1 {
		t.Errorf("Expected 1 call, got %d", callCount)
	}
}

func TestRetrier_SuccessAfterRetry(t *testing.T) {
	callCount := 0
	fn := func() error {
		callCount++
		if callCount < 3 {
			return errors.New("temporary error")
		}
		return nil
	}

	err := newTestRetrier(3, nil).Do(context.Background(), fn, func(error) ErrorClass {
		return ErrorClassRateLimit
	})

	if err != nil {
		t.Errorf("Expected no error, got %v", err)
	}
	if callCount != 3 {
		t.Errorf("Expected 3 calls, got %d", callCount)
	}
}

func TestRetrier_MaxAttemptsExhausted(t *testing.T) {
	callCount := 0
	testErr := errors.New("persistent error")
	fn := func() error {
		callCount++
		return testErr
	}

	err := newTestRetrier(4, nil).Do(context.Background(), fn, func(error) ErrorClass {
		return ErrorClassRateLimit
	})

	if !errors.Is(err, ErrRetryExhausted) {
		t.Errorf("Expected ErrRetryExhausted, got %v", err)
	}
	if !errors.Is(err, testErr) {
		t.Errorf("Expected last error to be wrapped, got %v", err)
	}
	if callCount != 4 {
		t.Errorf("Expected 4 calls (MaxAttempts), got %d", callCount)
	}
}

func TestRetrier_ClientErrorNoRetry(t *testing.T) {
	callCount := 0
	testErr := errors.New("client error")
	fn := func() error {
		callCount++
		return testErr
	}

	err := newTestRetrier(3, nil).Do(context.Background(), fn, func(error) ErrorClass {
		return ErrorClassClient
	})

	if callCount != 1 {
		t.Errorf("Expected 1 call (no retry for client errors), got %d", callCount)
	}
	if errors.Is(err, ErrRetryExhausted) {
		t.Error("Should not return ErrRetryExhausted for client errors")
	}
	if !errors.Is(err, testErr) {
		t.Errorf("Expected original error, got %v", err)
	}
}

func TestRetrier_ContextCancelled(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())

	callCount := 0
	fn := func() error {
		callCount++
		if callCount == 1 {
			cancel()
		}
		return errors.New("error")
	}

	retrier := NewRetrier(func(ErrorClass) RetryPolicy {
		return RetryPolicy{MaxAttempts: 5, InitialBackoff: time.Second, MaxBackoff: time.Second, BackoffMultiplier: 1}
	}, nil, zerolog.Nop())

	err := retrier.Do(ctx, fn, func(error) ErrorClass { return ErrorClassServer })

	if !errors.Is(err, ErrContextCancelled) {
		t.Errorf("Expected ErrContextCancelled, got %v", err)
	}
	if callCount != 1 {
		t.Errorf("Expected 1 call before cancellation, got %d", callCount)
	}
}

func TestRetrier_HonorsRetryAfter(t *testing.T) {
	timestamps := []time.Time{}
	fn := func() error {
		timestamps = append(timestamps, time.Now())
		if len(timestamps) == 1 {
			return &APIError{StatusCode: 429, ErrorClass: ErrorClassRateLimit, RetryAfter: 50 * time.Millisecond}
		}
		return nil
	}

	err := newTestRetrier(3, nil).Do(context.Background(), fn, func(error) ErrorClass {
		return ErrorClassRateLimit
	})
	if err != nil {
		t.Fatalf("Expected no error, got %v", err)
	}

	if len(timestamps) != 2 {
		t.Fatalf("Expected 2 attempts, got %d", len(timestamps))
	}
	if delay := timestamps[1].Sub(timestamps[0]); delay < 50*time.Millisecond {
		t.Errorf("Retry delay %v shorter than Retry-After", delay)
	}
}

func TestRetrier_BackoffGrowsAndCaps(t *testing.T) {
	policy := RetryPolicy{
		InitialBackoff:    1 * time.Second,
		MaxBackoff:        3 * time.Second,
		BackoffMultiplier: 10.0,
	}

	bo := policy.newBackOff()
	first := bo.NextBackOff()
	if first != 1*time.Second {
		t.Errorf("First backoff = %v, want 1s", first)
	}
	for i := 0; i < 3; i++ {
		if d := bo.NextBackOff(); d != policy.MaxBackoff {
			t.Errorf("Backoff %d = %v, want cap %v", i+2, d, policy.MaxBackoff)
		}
	}
}

func TestRetrier_JitterStaysInRange(t *testing.T) {
	policy := RetryPolicy{
		InitialBackoff:    1 * time.Second,
		MaxBackoff:        10 * time.Second,
		BackoffMultiplier: 2.0,
		Jitter:            0.2,
	}

	for i := 0; i < 20; i++ {
		d := policy.newBackOff().NextBackOff()
		if d < 800*time.Millisecond || d > 1200*time.Millisecond {
			t.Errorf("Delay %v outside jitter range [800ms, 1200ms]", d)
		}
	}
}

func TestRetrier_BreakerEscape(t *testing.T) {
	breaker := NewBreaker(BreakerConfig{FailureThreshold: 2, Cooldown: time.Hour})

	callCount := 0
	fn := func() error {
		callCount++
		return errors.New("still throttled")
	}

	err := newTestRetrier(10, breaker).Do(context.Background(), fn, func(error) ErrorClass {
		return ErrorClassRateLimit
	})

	if !errors.Is(err, ErrCircuitOpen) {
		t.Fatalf("Expected ErrCircuitOpen, got %v", err)
	}
	if callCount != 2 {
		t.Errorf("Expected breaker to stop after 2 calls, got %d", callCount)
	}

	// Subsequent operations fail fast without calling fn.
	err = newTestRetrier(10, breaker).Do(context.Background(), fn, func(error) ErrorClass {
		return ErrorClassRateLimit
	})
	if !errors.Is(err, ErrCircuitOpen) {
		t.Errorf("Expected ErrCircuitOpen, got %v", err)
	}
	if callCount != 2 {
		t.Errorf("Expected no further calls while open, got %d", callCount)
	}
}

func TestRetrier_LogsWarningPerRetry(t *testing.T) {
	buf := &bytes.Buffer{}
	retrier := NewRetrier(fastPolicy(3), nil, zerolog.New(buf))

	callCount := 0
	fn := func() error {
		callCount++
		if callCount == 1 {
			return &APIError{StatusCode: 429, ErrorClass: ErrorClassRateLimit, Message: "429 Too Many Requests"}
		}
		return nil
	}

	if err := retrier.Do(context.Background(), fn, func(error) ErrorClass { return ErrorClassRateLimit }); err != nil {
		t.Fatalf("Expected no error, got %v", err)
	}

	var retries []map[string]any
	for _, line := range strings.Split(strings.TrimSpace(buf.String()), "\n") {
		var entry map[string]any
		if err := json.Unmarshal([]byte(line), &entry); err != nil {
			t.Fatalf("Invalid log line %q: %v", line, err)
		}
		if entry["message"] == "Retrying request after backoff" {
			retries = append(retries, entry)
		}
	}

	if len(retries) != 1 {
		t.Fatalf("Expected 1 retry log entry, got %d:\n%s", len(retries), buf.String())
	}
	if retries[0]["level"] != "warn" {
		t.Errorf("level = %v, want warn", retries[0]["level"])
	}
	if retries[0]["error_class"] != "rate_limit" {
		t.Errorf("error_class = %v, want rate_limit", retries[0]["error_class"])
	}
	if retries[0]["attempt"] != float64(1) {
		t.Errorf("attempt = %v, want 1", retries[0]["attempt"])
	}
}
