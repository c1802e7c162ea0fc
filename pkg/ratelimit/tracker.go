package ratelimit

import (
	"context"
	"encoding/json"
	"fmt"
	"sync"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
	"github.com/redis/go-redis/v9"
	"github.com/rs/zerolog"
)

// Prometheus metrics for throttle tracking.
var (
	throttlesTotal = promauto.NewCounter(prometheus.CounterOpts{
		Name: "catalog_throttles_total",
		Help: "Total number of 429 responses recorded",
	})

	consecutiveThrottles = promauto.NewGauge(prometheus.GaugeOpts{
		Name: "catalog_consecutive_throttles",
		Help: "Number of 429 responses since the last successful request",
	})

	throttleWaitSeconds = promauto.NewHistogram(prometheus.HistogramOpts{
		Name:    "catalog_throttle_wait_seconds",
		Help:    "Time spent waiting for a throttle window to pass",
		Buckets: []float64{0.5, 1, 2, 5, 10, 30, 60},
	})
)

// Store persists throttle state.
type Store interface {
	Load(ctx context.Context) (*ThrottleState, error)
	Save(ctx context.Context, state *ThrottleState) error
}

// Tracker records 429 responses and gates requests while throttled.
type Tracker struct {
	store  Store
	logger zerolog.Logger
}

// NewTracker creates a tracker backed by Redis, or by memory when redisClient is nil.
func NewTracker(redisClient *redis.Client, logger zerolog.Logger) *Tracker {
	var store Store = &memoryStore{}
	if redisClient != nil {
		store = &redisStore{redis: redisClient}
	}
	return NewTrackerWithStore(store, logger)
}

// NewTrackerWithStore creates a tracker with a custom store.
func NewTrackerWithStore(store Store, logger zerolog.Logger) *Tracker {
	return &Tracker{
		store:  store,
		logger: logger,
	}
}

// GetState retrieves the current throttle state.
func (t *Tracker) GetState(ctx context.Context) (*ThrottleState, error) {
	state, err := t.store.Load(ctx)
	if err != nil {
		return nil, fmt.Errorf("load throttle state: %w", err)
	}
	return state, nil
}

// RecordThrottle records a 429 response and opens a throttle window of the
// given length. An already open, longer window is kept.
func (t *Tracker) RecordThrottle(ctx context.Context, window time.Duration) error {
	if window < 0 {
		window = 0
	}

	state, err := t.GetState(ctx)
	if err != nil {
		return err
	}

	now := time.Now()
	state.Consecutive++
	until := now.Add(window)
	if until.After(state.ThrottledUntil) {
		state.ThrottledUntil = until
	}
	state.LastUpdate = now

	if err := t.store.Save(ctx, state); err != nil {
		return fmt.Errorf("save throttle state: %w", err)
	}

	throttlesTotal.Inc()
	consecutiveThrottles.Set(float64(state.Consecutive))

	event := t.logger.Info()
	if state.Consecutive >= ConsecutiveWarning {
		event = t.logger.Warn()
	}
	event.
		Int("consecutive", state.Consecutive).
		Time("throttled_until", state.ThrottledUntil).
		Msg("Rate limited by upstream")

	return nil
}

// RecordSuccess resets the throttle streak after a non-429 response.
func (t *Tracker) RecordSuccess(ctx context.Context) error {
	state, err := t.GetState(ctx)
	if err != nil {
		return err
	}
	if state.Consecutive == 0 {
		return nil
	}

	state.Consecutive = 0
	state.LastUpdate = time.Now()
	if err := t.store.Save(ctx, state); err != nil {
		return fmt.Errorf("save throttle state: %w", err)
	}
	consecutiveThrottles.Set(0)
	return nil
}

// Wait blocks until the throttle window has passed or ctx is done.
func (t *Tracker) Wait(ctx context.Context) error {
	state, err := t.GetState(ctx)
	if err != nil {
		return err
	}

	wait := state.TimeUntilClear()
	if wait <= 0 {
		return nil
	}

	t.logger.Debug().
		Dur("wait_duration", wait).
		Int("consecutive", state.Consecutive).
		Msg("Waiting for throttle window")
	throttleWaitSeconds.Observe(wait.Seconds())

	timer := time.NewTimer(wait)
	defer timer.Stop()
	select {
	case <-ctx.Done():
		return ctx.Err()
	case <-timer.C:
		return nil
	}
}

type memoryStore struct {
	mu    sync.Mutex
	state ThrottleState
}

func (m *memoryStore) Load(ctx context.Context) (*ThrottleState, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	s := m.state
	return &s, nil
}

func (m *memoryStore) Save(ctx context.Context, state *ThrottleState) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.state = *state
	return nil
}

// redisStore keeps the state under keys that expire shortly after the
// throttle window, so nothing lingers beyond it.
type redisStore struct {
	redis *redis.Client
}

func (r *redisStore) Load(ctx context.Context) (*ThrottleState, error) {
	state := &ThrottleState{}

	consecutive, err := r.redis.Get(ctx, RedisKeyConsecutive).Int()
	if err != nil && err != redis.Nil {
		return nil, fmt.Errorf("get consecutive: %w", err)
	}
	state.Consecutive = consecutive

	until, err := r.redis.Get(ctx, RedisKeyThrottledUntil).Int64()
	if err != nil && err != redis.Nil {
		return nil, fmt.Errorf("get throttled until: %w", err)
	}
	if until > 0 {
		state.ThrottledUntil = time.UnixMilli(until)
	}

	lastUpdateStr, err := r.redis.Get(ctx, RedisKeyLastUpdate).Result()
	if err != nil && err != redis.Nil {
		return nil, fmt.Errorf("get last update: %w", err)
	}
	if lastUpdateStr != "" {
		if err := json.Unmarshal([]byte(lastUpdateStr), &state.LastUpdate); err != nil {
			return nil, fmt.Errorf("parse last update: %w", err)
		}
	}

	return state, nil
}

func (r *redisStore) Save(ctx context.Context, state *ThrottleState) error {
	ttl := state.TimeUntilClear() + time.Minute

	lastUpdateJSON, err := json.Marshal(state.LastUpdate)
	if err != nil {
		return fmt.Errorf("marshal last update: %w", err)
	}

	pipe := r.redis.Pipeline()
	pipe.Set(ctx, RedisKeyConsecutive, state.Consecutive, ttl)
	pipe.Set(ctx, RedisKeyThrottledUntil, state.ThrottledUntil.UnixMilli(), ttl)
	pipe.Set(ctx, RedisKeyLastUpdate, lastUpdateJSON, ttl)
	if _, err := pipe.Exec(ctx); err != nil {
		return fmt.Errorf("store throttle state in redis: %w", err)
	}
	return nil
}
