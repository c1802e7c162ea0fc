package client

import (
	"sync"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

var (
	circuitBreakerState = promauto.NewGauge(prometheus.GaugeOpts{
		Name: "catalog_circuit_breaker_state",
		Help: "Circuit breaker state (0=closed, 1=half-open, 2=open)",
	})

	circuitOpenTotal = promauto.NewCounter(prometheus.CounterOpts{
		Name: "catalog_circuit_open_total",
		Help: "Total number of times the circuit breaker opened",
	})
)

// BreakerState is the state of a Breaker.
type BreakerState int

const (
	// BreakerClosed lets every request through.
	BreakerClosed BreakerState = iota

	// BreakerHalfOpen lets a single probe request through after the cooldown.
	BreakerHalfOpen

	// BreakerOpen rejects requests until the cooldown has passed.
	BreakerOpen
)

// String returns the state name.
func (s BreakerState) String() string {
	switch s {
	case BreakerClosed:
		return "closed"
	case BreakerHalfOpen:
		return "half-open"
	case BreakerOpen:
		return "open"
	default:
		return "unknown"
	}
}

// BreakerConfig holds the circuit breaker configuration.
type BreakerConfig struct {
	// FailureThreshold is the number of consecutive failed attempts, across
	// requests, after which the breaker opens. Zero disables the breaker.
	FailureThreshold int

	// Cooldown is how long the breaker stays open before allowing a probe.
	Cooldown time.Duration
}

// DefaultBreakerConfig returns the default breaker configuration.
func DefaultBreakerConfig() BreakerConfig {
	return BreakerConfig{
		FailureThreshold: 20,
		Cooldown:         2 * time.Minute,
	}
}

// Breaker is a consecutive-failure circuit breaker.
type Breaker struct {
	mu       sync.Mutex
	config   BreakerConfig
	state    BreakerState
	failures int
	openedAt time.Time
	now      func() time.Time
}

// NewBreaker creates a closed breaker.
func NewBreaker(config BreakerConfig) *Breaker {
	return &Breaker{
		config: config,
		state:  BreakerClosed,
		now:    time.Now,
	}
}

// Allow returns ErrCircuitOpen while the breaker is open. Once the cooldown
// has passed the breaker moves to half-open and lets one attempt through.
func (b *Breaker) Allow() error {
	if b == nil || b.config.FailureThreshold <= 0 {
		return nil
	}

	b.mu.Lock()
	defer b.mu.Unlock()

	switch b.state {
	case BreakerOpen:
		if b.now().Sub(b.openedAt) < b.config.Cooldown {
			return ErrCircuitOpen
		}
		b.setState(BreakerHalfOpen)
		return nil
	default:
		return nil
	}
}

// RecordSuccess closes the breaker and resets the failure count.
func (b *Breaker) RecordSuccess() {
	if b == nil || b.config.FailureThreshold <= 0 {
		return
	}

	b.mu.Lock()
	defer b.mu.Unlock()

	b.failures = 0
	b.setState(BreakerClosed)
}

// RecordFailure counts a failed attempt and opens the breaker at the threshold.
// A failed half-open probe reopens it immediately.
func (b *Breaker) RecordFailure() {
	if b == nil || b.config.FailureThreshold <= 0 {
		return
	}

	b.mu.Lock()
	defer b.mu.Unlock()

	b.failures++
	if b.state == BreakerHalfOpen || b.failures >= b.config.FailureThreshold {
		if b.state != BreakerOpen {
			circuitOpenTotal.Inc()
		}
		b.openedAt = b.now()
		b.setState(BreakerOpen)
	}
}

// State returns the current state.
func (b *Breaker) State() BreakerState {
	b.mu.Lock()
	defer b.mu.Unlock()
	return b.state
}

func (b *Breaker) setState(s BreakerState) {
	b.state = s
	circuitBreakerState.Set(float64(s))
}
