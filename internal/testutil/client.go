package testutil

import (
	"testing"
	"time"

	"github.com/Sternrassler/catalog-exporter/pkg/client"
)

// FastRetryPolicy retries every class with millisecond backoffs.
func FastRetryPolicy(attempts int) func(client.ErrorClass) client.RetryPolicy {
	return func(client.ErrorClass) client.RetryPolicy {
		return client.RetryPolicy{
			MaxAttempts:       attempts,
			InitialBackoff:    time.Millisecond,
			MaxBackoff:        5 * time.Millisecond,
			BackoffMultiplier: 2.0,
		}
	}
}

// NewClient returns a client with fast retries and no circuit breaker,
// closed when the test ends.
func NewClient(t *testing.T) *client.Client {
	t.Helper()

	cfg := client.DefaultConfig("catalog-exporter/test")
	cfg.Timeout = 5 * time.Second
	cfg.RetryPolicyFor = FastRetryPolicy(3)
	cfg.Breaker = client.BreakerConfig{}

	c, err := client.New(cfg)
	if err != nil {
		t.Fatalf("client.New() error = %v", err)
	}
	t.Cleanup(func() { c.Close() })
	return c
}
