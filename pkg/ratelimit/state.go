// Package ratelimit tracks HTTP 429 throttling by the marketplace API and
// gates outgoing requests until the throttle window has passed.
// State lives in Redis when configured so that it survives a client restart
// within the window, and in memory otherwise.
package ratelimit

import (
	"net/http"
	"strconv"
	"strings"
	"time"
)

// Redis keys for throttle state storage.
const (
	RedisKeyThrottledUntil = "catalog:rate_limit:throttled_until"
	RedisKeyConsecutive    = "catalog:rate_limit:consecutive"
	RedisKeyLastUpdate     = "catalog:rate_limit:last_update"
)

const (
	// DefaultThrottleWindow is the quiet period assumed when a 429 carries no Retry-After.
	DefaultThrottleWindow = 5 * time.Second

	// MaxThrottleWindow caps server supplied Retry-After values.
	MaxThrottleWindow = 5 * time.Minute

	// ConsecutiveWarning is the throttle streak at which the tracker logs at warn level.
	ConsecutiveWarning = 3
)

// ThrottleState represents the current throttle state.
type ThrottleState struct {
	// Consecutive is the number of 429 responses since the last success.
	Consecutive int `json:"consecutive"`

	// ThrottledUntil is when requests may resume.
	ThrottledUntil time.Time `json:"throttled_until"`

	// LastUpdate is when this state was last written.
	LastUpdate time.Time `json:"last_update"`
}

// IsThrottled reports whether the throttle window is still active.
func (s *ThrottleState) IsThrottled() bool {
	return s.TimeUntilClear() > 0
}

// TimeUntilClear returns the duration until requests may resume.
// Returns 0 if the window has already passed.
func (s *ThrottleState) TimeUntilClear() time.Duration {
	d := time.Until(s.ThrottledUntil)
	if d < 0 {
		return 0
	}
	return d
}

// ParseRetryAfter parses a Retry-After header value given either as
// delay-seconds or as an HTTP date. The result is clamped to MaxThrottleWindow.
func ParseRetryAfter(value string, now time.Time) (time.Duration, bool) {
	value = strings.TrimSpace(value)
	if value == "" {
		return 0, false
	}

	var d time.Duration
	if secs, err := strconv.Atoi(value); err == nil {
		if secs < 0 {
			return 0, false
		}
		d = time.Duration(secs) * time.Second
	} else if at, err := http.ParseTime(value); err == nil {
		d = at.Sub(now)
		if d < 0 {
			d = 0
		}
	} else {
		return 0, false
	}

	if d > MaxThrottleWindow {
		d = MaxThrottleWindow
	}
	return d, true
}
