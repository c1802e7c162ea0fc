// Package client provides the HTTP JSON fetcher used against the marketplace
// APIs, with bounded retries, circuit breaking, 429 throttle tracking and
// optional request pacing.
package client

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"strconv"
	"time"

	"github.com/Sternrassler/catalog-exporter/pkg/ratelimit"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
	"github.com/redis/go-redis/v9"
	"github.com/rs/zerolog"
	"github.com/rs/zerolog/log"
	"golang.org/x/time/rate"
)

// Prometheus metrics for client operations.
var (
	requestsTotal = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "catalog_requests_total",
		Help: "Total API requests by endpoint and status",
	}, []string{"endpoint", "status"})

	requestDuration = promauto.NewHistogramVec(prometheus.HistogramOpts{
		Name:    "catalog_request_duration_seconds",
		Help:    "API request duration in seconds by endpoint, retries included",
		Buckets: []float64{0.1, 0.5, 1, 2, 5, 10, 30, 60},
	}, []string{"endpoint"})

	errorsTotal = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "catalog_errors_total",
		Help: "Total API errors by class",
	}, []string{"class"})
)

// ErrorClass represents a classification of HTTP errors.
type ErrorClass string

const (
	// ErrorClassClient represents 4xx client errors other than 429.
	ErrorClassClient ErrorClass = "client"

	// ErrorClassServer represents 5xx server errors.
	ErrorClassServer ErrorClass = "server"

	// ErrorClassRateLimit represents 429 Too Many Requests.
	ErrorClassRateLimit ErrorClass = "rate_limit"

	// ErrorClassNetwork represents network/timeout errors.
	ErrorClassNetwork ErrorClass = "network"
)

// Client is the marketplace API client.
type Client struct {
	httpClient *http.Client
	tracker    *ratelimit.Tracker
	limiter    *rate.Limiter
	breaker    *Breaker
	retrier    *Retrier
	config     Config
	logger     zerolog.Logger
}

// Config holds the client configuration.
type Config struct {
	// Redis holds throttle state when set; in-memory otherwise.
	Redis *redis.Client

	// User-Agent header sent with every request.
	UserAgent string

	// Timeout per HTTP attempt. Zero disables the timeout.
	Timeout time.Duration

	// RequestsPerSecond paces outgoing requests. Zero means unlimited.
	RequestsPerSecond float64

	// MaxAttempts overrides the attempt limit for 429 responses when > 0.
	// Server and network errors keep their class policy.
	MaxAttempts int

	// RetryPolicyFor selects a policy per error class. Nil uses RetryPolicyForErrorClass.
	RetryPolicyFor func(ErrorClass) RetryPolicy

	// Breaker configures the circuit breaker.
	Breaker BreakerConfig
}

// DefaultConfig returns a safe default configuration.
func DefaultConfig(userAgent string) Config {
	return Config{
		UserAgent: userAgent,
		Timeout:   30 * time.Second,
		Breaker:   DefaultBreakerConfig(),
	}
}

// New creates a new client.
func New(cfg Config) (*Client, error) {
	if cfg.UserAgent == "" {
		return nil, fmt.Errorf("user-agent is required")
	}

	if cfg.RequestsPerSecond < 0 {
		return nil, fmt.Errorf("requests_per_second must be >= 0 (got %v)", cfg.RequestsPerSecond)
	}

	if cfg.MaxAttempts < 0 {
		return nil, fmt.Errorf("max_attempts must be >= 0 (got %d)", cfg.MaxAttempts)
	}

	logger := log.With().Str("component", "api-client").Logger()

	limit := rate.Inf
	if cfg.RequestsPerSecond > 0 {
		limit = rate.Limit(cfg.RequestsPerSecond)
	}

	policyFor := cfg.RetryPolicyFor
	if policyFor == nil {
		policyFor = RetryPolicyForErrorClass
	}
	if cfg.MaxAttempts > 0 {
		base := policyFor
		policyFor = func(class ErrorClass) RetryPolicy {
			p := base(class)
			if class == ErrorClassRateLimit {
				p.MaxAttempts = cfg.MaxAttempts
			}
			return p
		}
	}

	breaker := NewBreaker(cfg.Breaker)

	return &Client{
		httpClient: &http.Client{
			Timeout: cfg.Timeout,
		},
		tracker: ratelimit.NewTracker(cfg.Redis, logger),
		limiter: rate.NewLimiter(limit, 1),
		breaker: breaker,
		retrier: NewRetrier(policyFor, breaker, logger),
		config:  cfg,
		logger:  logger,
	}, nil
}

// Do performs an HTTP request with throttle gating, pacing and retries.
// Responses with a non-retryable status are returned to the caller as-is;
// retryable failures surface as errors once retries are exhausted.
// endpoint is a low-cardinality label used for metrics and logs.
func (c *Client) Do(req *http.Request, endpoint string) (*http.Response, error) {
	ctx := req.Context()

	startTime := time.Now()
	defer func() {
		requestDuration.WithLabelValues(endpoint).Observe(time.Since(startTime).Seconds())
	}()

	req.Header.Set("User-Agent", c.config.UserAgent)
	req.Header.Set("Accept", "application/json")

	c.logger.Debug().
		Str("endpoint", endpoint).
		Str("method", req.Method).
		Str("url", req.URL.String()).
		Msg("Executing API request")

	var resp *http.Response
	var errClass ErrorClass

	retryErr := c.retrier.Do(ctx, func() error {
		if err := c.tracker.Wait(ctx); err != nil {
			errClass = ErrorClassClient
			return fmt.Errorf("wait for throttle window: %w", err)
		}
		if err := c.limiter.Wait(ctx); err != nil {
			errClass = ErrorClassClient
			return fmt.Errorf("wait for rate limiter: %w", err)
		}

		attempt, err := cloneRequest(req)
		if err != nil {
			errClass = ErrorClassClient
			return err
		}

		var reqErr error
		resp, reqErr = c.httpClient.Do(attempt)
		if reqErr != nil {
			c.logger.Error().Err(reqErr).Str("endpoint", endpoint).Msg("HTTP request failed")
			errClass = c.classifyError(nil, reqErr)
			if ctx.Err() != nil {
				// cancellation is not a network failure worth retrying
				errClass = ErrorClassClient
			}
			errorsTotal.WithLabelValues(string(errClass)).Inc()
			requestsTotal.WithLabelValues(endpoint, "network_error").Inc()
			return reqErr
		}

		requestsTotal.WithLabelValues(endpoint, strconv.Itoa(resp.StatusCode)).Inc()

		if resp.StatusCode < 400 {
			if err := c.tracker.RecordSuccess(ctx); err != nil {
				c.logger.Warn().Err(err).Msg("Failed to reset throttle state")
			}
			return nil
		}

		errClass = c.classifyError(resp, nil)
		errorsTotal.WithLabelValues(string(errClass)).Inc()

		if !shouldRetry(errClass) {
			// let the caller interpret 4xx
			return nil
		}

		apiErr := &APIError{
			StatusCode: resp.StatusCode,
			ErrorClass: errClass,
			Message:    resp.Status,
		}
		if errClass == ErrorClassRateLimit {
			window := ratelimit.DefaultThrottleWindow
			if d, ok := ratelimit.ParseRetryAfter(resp.Header.Get("Retry-After"), time.Now()); ok {
				apiErr.RetryAfter = d
				window = d
			}
			if err := c.tracker.RecordThrottle(ctx, window); err != nil {
				c.logger.Warn().Err(err).Msg("Failed to record throttle state")
			}
		}

		c.logger.Warn().
			Str("endpoint", endpoint).
			Int("status", resp.StatusCode).
			Str("error_class", string(errClass)).
			Msg("API request error")

		io.Copy(io.Discard, resp.Body)
		resp.Body.Close()
		return apiErr
	}, func(err error) ErrorClass {
		return errClass
	})

	if retryErr != nil {
		if resp != nil && resp.Body != nil {
			resp.Body.Close()
		}
		return nil, retryErr
	}

	return resp, nil
}

// GetJSON performs a GET and decodes the JSON body into out.
// It returns found=false with a nil error when the API answers 400, which
// the marketplace uses for "no data for this item".
func (c *Client) GetJSON(ctx context.Context, endpoint, url string, out any) (bool, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, url, nil)
	if err != nil {
		return false, fmt.Errorf("create request: %w", err)
	}
	return c.doJSON(req, endpoint, out)
}

// PostJSON marshals body, POSTs it and decodes the JSON response into out,
// with the same 400 semantics as GetJSON.
func (c *Client) PostJSON(ctx context.Context, endpoint, url string, body, out any) (bool, error) {
	payload, err := json.Marshal(body)
	if err != nil {
		return false, fmt.Errorf("marshal request body: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, url, bytes.NewReader(payload))
	if err != nil {
		return false, fmt.Errorf("create request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")

	return c.doJSON(req, endpoint, out)
}

func (c *Client) doJSON(req *http.Request, endpoint string, out any) (bool, error) {
	resp, err := c.Do(req, endpoint)
	if err != nil {
		return false, err
	}
	defer resp.Body.Close()

	if resp.StatusCode == http.StatusBadRequest {
		c.logger.Debug().Str("endpoint", endpoint).Msg("No data (400)")
		return false, nil
	}

	if resp.StatusCode >= 400 {
		return false, &APIError{
			StatusCode: resp.StatusCode,
			ErrorClass: ErrorClassClient,
			Message:    resp.Status,
		}
	}

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return false, fmt.Errorf("read response body: %w", err)
	}

	if err := json.Unmarshal(body, out); err != nil {
		return false, &DecodeError{URL: req.URL.String(), Err: err}
	}

	return true, nil
}

// classifyError categorizes an error for observability and handling.
func (c *Client) classifyError(resp *http.Response, err error) ErrorClass {
	if err != nil {
		return ErrorClassNetwork
	}

	switch {
	case resp.StatusCode == http.StatusTooManyRequests:
		return ErrorClassRateLimit
	case resp.StatusCode >= 400 && resp.StatusCode < 500:
		return ErrorClassClient
	case resp.StatusCode >= 500:
		return ErrorClassServer
	default:
		return ""
	}
}

// cloneRequest returns a copy of req with a fresh body, so a POST can be resent.
func cloneRequest(req *http.Request) (*http.Request, error) {
	clone := req.Clone(req.Context())
	if req.Body == nil || req.Body == http.NoBody {
		return clone, nil
	}
	if req.GetBody == nil {
		return nil, errors.New("request body cannot be replayed")
	}
	body, err := req.GetBody()
	if err != nil {
		return nil, fmt.Errorf("replay request body: %w", err)
	}
	clone.Body = body
	return clone, nil
}

// Close closes the client and releases idle connections.
func (c *Client) Close() error {
	c.httpClient.CloseIdleConnections()
	return nil
}

// SetHTTPClient sets a custom HTTP client (for testing).
func (c *Client) SetHTTPClient(client *http.Client) {
	c.httpClient = client
}

// Breaker returns the circuit breaker (for testing).
func (c *Client) Breaker() *Breaker {
	return c.breaker
}

// Tracker returns the throttle tracker.
func (c *Client) Tracker() *ratelimit.Tracker {
	return c.tracker
}
