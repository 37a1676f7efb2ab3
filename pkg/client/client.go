// Package client provides the core GTEx Portal HTTP client with rate
// limiting, retry, and error classification.
package client

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strconv"
	"strings"
	"sync"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
	"github.com/rs/zerolog"

	"github.com/gtex-link/gtex-link/pkg/logging"
	"github.com/gtex-link/gtex-link/pkg/ratelimit"
)

// Prometheus metrics for GTEx client operations.
var (
	gtexRequestsTotal = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "gtex_requests_total",
		Help: "Total GTEx requests by endpoint and status",
	}, []string{"endpoint", "status"})

	gtexRequestDuration = promauto.NewHistogramVec(prometheus.HistogramOpts{
		Name:    "gtex_request_duration_seconds",
		Help:    "GTEx request duration in seconds by endpoint",
		Buckets: []float64{0.1, 0.5, 1, 2, 5, 10},
	}, []string{"endpoint"})

	gtexErrorsTotal = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "gtex_errors_total",
		Help: "Total GTEx errors by class",
	}, []string{"class"})
)

const (
	// diagnosticBodyLimit bounds how much of an error response body is
	// carried in diagnostics.
	diagnosticBodyLimit = 200

	// maxLatencySamples bounds the rolling latency window feeding the
	// average-latency statistic.
	maxLatencySamples = 100

	// maxResponseBody bounds how much of a response is read into memory.
	maxResponseBody = 32 * 1024 * 1024
)

// payloadKey wraps non-object JSON payloads so Call always returns a map.
const payloadKey = "data"

// Config holds the client configuration.
type Config struct {
	// BaseURL is the GTEx Portal API base URL. Must end with a slash.
	BaseURL string

	// Timeout is the per-attempt request timeout.
	Timeout time.Duration

	// RateLimit is the sustained outbound request rate per second.
	RateLimit float64

	// BurstSize is the token bucket burst capacity.
	BurstSize int

	// MaxRetries is the number of retries after the initial attempt.
	// Only transport errors are retried.
	MaxRetries int

	// RetryDelay is the base delay for exponential backoff.
	RetryDelay time.Duration

	// UserAgent identifies this gateway to the GTEx Portal.
	UserAgent string
}

// DefaultConfig returns a safe default configuration matching the GTEx
// Portal's published usage guidance.
func DefaultConfig() Config {
	return Config{
		BaseURL:    "https://gtexportal.org/api/v2/",
		Timeout:    30 * time.Second,
		RateLimit:  5.0,
		BurstSize:  10,
		MaxRetries: 3,
		RetryDelay: 1 * time.Second,
		UserAgent:  "gtex-link/0.1.0",
	}
}

// Stats is a point-in-time snapshot of client activity.
type Stats struct {
	TotalRequests      int64   `json:"total_requests"`
	SuccessfulRequests int64   `json:"successful_requests"`
	SuccessRate        float64 `json:"success_rate"`
	CurrentRate        float64 `json:"current_rate"`
	CurrentTokens      float64 `json:"current_tokens"`
	AvgLatencySeconds  float64 `json:"avg_latency_seconds"`
}

// Client is the resilient GTEx Portal API client. It throttles outbound
// requests through a token bucket, retries transport failures with bounded
// exponential backoff, and classifies every failure into an ErrorClass.
type Client struct {
	config Config
	bucket *ratelimit.Bucket
	logger zerolog.Logger

	// sessionMu guards lazy initialization of the shared HTTP transport.
	sessionMu sync.Mutex
	session   *http.Client

	// statsMu guards the request counters and latency window.
	statsMu            sync.Mutex
	totalRequests      int64
	successfulRequests int64
	latencies          []time.Duration

	closeOnce sync.Once
	closed    chan struct{}
	cancel    context.CancelFunc
	baseCtx   context.Context
}

// New creates a new GTEx client.
func New(cfg Config) (*Client, error) {
	if cfg.BaseURL == "" {
		return nil, fmt.Errorf("base URL is required")
	}
	if !strings.HasSuffix(cfg.BaseURL, "/") {
		cfg.BaseURL += "/"
	}
	if cfg.UserAgent == "" {
		return nil, fmt.Errorf("user-agent is required")
	}
	if cfg.RateLimit <= 0 {
		return nil, fmt.Errorf("rate limit must be positive (got %v)", cfg.RateLimit)
	}
	if cfg.Timeout <= 0 {
		cfg.Timeout = 30 * time.Second
	}
	if cfg.MaxRetries < 0 {
		cfg.MaxRetries = 0
	}

	baseCtx, cancel := context.WithCancel(context.Background())

	return &Client{
		config:  cfg,
		bucket:  ratelimit.NewBucket(cfg.RateLimit, cfg.BurstSize),
		logger:  logging.NewLogger("gtex-client"),
		closed:  make(chan struct{}),
		cancel:  cancel,
		baseCtx: baseCtx,
	}, nil
}

// getSession returns the shared HTTP transport, creating it on first use.
func (c *Client) getSession() *http.Client {
	c.sessionMu.Lock()
	defer c.sessionMu.Unlock()

	if c.session == nil {
		c.session = &http.Client{
			Timeout: c.config.Timeout,
		}
	}
	return c.session
}

// Close shuts the client down. It is idempotent. In-flight requests are
// cancelled and surface as unretried transport errors wrapping
// ErrClientClosed.
func (c *Client) Close() error {
	c.closeOnce.Do(func() {
		close(c.closed)
		c.cancel()

		c.sessionMu.Lock()
		if c.session != nil {
			c.session.CloseIdleConnections()
		}
		c.sessionMu.Unlock()

		c.logger.Info().Msg("GTEx client closed")
	})
	return nil
}

// isClosed reports whether Close has been called.
func (c *Client) isClosed() bool {
	select {
	case <-c.closed:
		return true
	default:
		return false
	}
}

// Call performs one logical GTEx Portal call: token bucket admission, HTTP
// request with per-attempt timeout, failure classification, and bounded
// retry of transport errors. Non-object JSON payloads are wrapped under the
// "data" key so the return shape is uniform.
func (c *Client) Call(ctx context.Context, method, endpoint string, query url.Values, body any) (map[string]any, error) {
	if c.isClosed() {
		return nil, &APIError{Class: ErrorClassNetwork, Message: "client is shut down", Err: ErrClientClosed}
	}

	// Tie the call lifetime to client shutdown so in-flight network I/O
	// fails fast when Close is called.
	callCtx, cancelCall := context.WithCancel(ctx)
	defer cancelCall()
	stop := context.AfterFunc(c.baseCtx, cancelCall)
	defer stop()

	// Admission: the bucket computes the wait, the caller performs it.
	if wait := c.bucket.Acquire(); wait > 0 {
		c.logger.Debug().Dur("wait", wait).Str("endpoint", endpoint).Msg("Rate limit applied")
		if err := c.sleep(callCtx, wait); err != nil {
			return nil, &APIError{Class: ErrorClassNetwork, Message: "interrupted awaiting admission", Err: err}
		}
	}

	fullURL, err := c.buildURL(endpoint, query)
	if err != nil {
		return nil, &APIError{Class: ErrorClassClient, Message: "invalid endpoint", Err: err}
	}

	var bodyBytes []byte
	if body != nil {
		bodyBytes, err = json.Marshal(body)
		if err != nil {
			return nil, &APIError{Class: ErrorClassClient, Message: "encode request body", Err: err}
		}
	}

	start := time.Now()
	defer func() {
		gtexRequestDuration.WithLabelValues(endpoint).Observe(time.Since(start).Seconds())
	}()

	var lastErr error
	for attempt := 0; attempt <= c.config.MaxRetries; attempt++ {
		payload, outcome := c.attempt(callCtx, method, endpoint, fullURL, bodyBytes)
		if outcome == nil {
			c.recordSuccess(time.Since(start))
			return payload, nil
		}

		lastErr = outcome

		apiErr, ok := outcome.(*APIError)
		if !ok || !shouldRetry(apiErr.Class) {
			c.recordFailure()
			return nil, outcome
		}

		// Shutdown must interrupt the retry loop, not feed it.
		if c.isClosed() {
			c.recordFailure()
			return nil, &APIError{Class: ErrorClassNetwork, Message: "client shut down during call", Err: ErrClientClosed}
		}

		if attempt < c.config.MaxRetries {
			if err := c.backoff(callCtx, attempt); err != nil {
				c.recordFailure()
				return nil, &APIError{Class: ErrorClassNetwork, Message: "retry interrupted", Err: err}
			}
		}
	}

	gtexRetryExhaustedTotal.Inc()
	c.recordFailure()

	attempts := c.config.MaxRetries + 1
	c.logger.Error().
		Str("endpoint", endpoint).
		Int("attempts", attempts).
		Err(lastErr).
		Msg("Retry attempts exhausted")

	return nil, &APIError{
		Class:   ErrorClassNetwork,
		Message: fmt.Sprintf("failed after %d attempts", attempts),
		Err:     fmt.Errorf("%w: %v", ErrRetryExhausted, lastErr),
	}
}

// attempt performs a single HTTP attempt and classifies its outcome. A nil
// error return means success with the parsed payload.
func (c *Client) attempt(ctx context.Context, method, endpoint, fullURL string, body []byte) (map[string]any, error) {
	attemptCtx, cancel := context.WithTimeout(ctx, c.config.Timeout)
	defer cancel()

	var reader io.Reader
	if body != nil {
		reader = bytes.NewReader(body)
	}

	req, err := http.NewRequestWithContext(attemptCtx, method, fullURL, reader)
	if err != nil {
		return nil, &APIError{Class: ErrorClassClient, Message: "create request", Err: err}
	}
	req.Header.Set("User-Agent", c.config.UserAgent)
	req.Header.Set("Accept", "application/json")
	if body != nil {
		req.Header.Set("Content-Type", "application/json")
	}

	resp, err := c.getSession().Do(req)
	if err != nil {
		gtexErrorsTotal.WithLabelValues(string(ErrorClassNetwork)).Inc()
		gtexRequestsTotal.WithLabelValues(endpoint, "network_error").Inc()
		c.logger.Warn().Err(err).Str("endpoint", endpoint).Msg("HTTP request failed")
		return nil, &APIError{Class: ErrorClassNetwork, Message: "request failed", Err: err}
	}
	defer resp.Body.Close()

	raw, err := io.ReadAll(io.LimitReader(resp.Body, maxResponseBody))
	if err != nil {
		gtexErrorsTotal.WithLabelValues(string(ErrorClassNetwork)).Inc()
		gtexRequestsTotal.WithLabelValues(endpoint, "network_error").Inc()
		return nil, &APIError{Class: ErrorClassNetwork, Message: "read response body", Err: err}
	}

	gtexRequestsTotal.WithLabelValues(endpoint, strconv.Itoa(resp.StatusCode)).Inc()

	return c.classify(endpoint, resp, raw)
}

// classify maps an HTTP response onto the error taxonomy. 2xx responses
// with a parseable JSON body are the only success.
func (c *Client) classify(endpoint string, resp *http.Response, raw []byte) (map[string]any, error) {
	status := resp.StatusCode

	switch {
	case status == http.StatusTooManyRequests:
		retryAfter := defaultRetryAfter
		if v := resp.Header.Get("Retry-After"); v != "" {
			if secs, err := strconv.ParseFloat(v, 64); err == nil {
				retryAfter = time.Duration(secs * float64(time.Second))
			}
		}
		gtexErrorsTotal.WithLabelValues(string(ErrorClassRateLimit)).Inc()
		c.logger.Warn().
			Str("endpoint", endpoint).
			Dur("retry_after", retryAfter).
			Msg("Rate limited by GTEx Portal")
		return nil, &APIError{
			Class:      ErrorClassRateLimit,
			StatusCode: status,
			Message:    "rate limit exceeded",
			RetryAfter: retryAfter,
		}

	case status >= http.StatusInternalServerError:
		gtexErrorsTotal.WithLabelValues(string(ErrorClassUnavailable)).Inc()
		c.logger.Warn().Str("endpoint", endpoint).Int("status", status).Msg("GTEx Portal unavailable")
		return nil, &APIError{
			Class:      ErrorClassUnavailable,
			StatusCode: status,
			Message:    "service unavailable",
		}

	case status >= http.StatusBadRequest:
		gtexErrorsTotal.WithLabelValues(string(ErrorClassClient)).Inc()
		c.logger.Warn().Str("endpoint", endpoint).Int("status", status).Msg("GTEx request rejected")
		return nil, &APIError{
			Class:      ErrorClassClient,
			StatusCode: status,
			Message:    truncateBody(raw, diagnosticBodyLimit),
		}
	}

	var payload any
	if err := json.Unmarshal(raw, &payload); err != nil {
		gtexErrorsTotal.WithLabelValues(string(ErrorClassMalformed)).Inc()
		c.logger.Warn().
			Str("endpoint", endpoint).
			Int("status", status).
			Str("body", truncateBody(raw, diagnosticBodyLimit)).
			Msg("Malformed JSON response")
		return nil, &APIError{
			Class:      ErrorClassMalformed,
			StatusCode: status,
			Message:    truncateBody(raw, diagnosticBodyLimit),
			Err:        err,
		}
	}

	if obj, ok := payload.(map[string]any); ok {
		return obj, nil
	}
	return map[string]any{payloadKey: payload}, nil
}

// Get performs a GET call against a GTEx endpoint.
func (c *Client) Get(ctx context.Context, endpoint string, query url.Values) (map[string]any, error) {
	return c.Call(ctx, http.MethodGet, endpoint, query, nil)
}

// buildURL joins the base URL with an endpoint path and encodes the query.
func (c *Client) buildURL(endpoint string, query url.Values) (string, error) {
	u, err := url.Parse(c.config.BaseURL + strings.TrimPrefix(endpoint, "/"))
	if err != nil {
		return "", err
	}
	if len(query) > 0 {
		u.RawQuery = query.Encode()
	}
	return u.String(), nil
}

// recordSuccess updates the counters and the bounded latency window.
func (c *Client) recordSuccess(latency time.Duration) {
	c.statsMu.Lock()
	defer c.statsMu.Unlock()

	c.totalRequests++
	c.successfulRequests++
	c.latencies = append(c.latencies, latency)
	if len(c.latencies) > maxLatencySamples {
		c.latencies = c.latencies[len(c.latencies)-maxLatencySamples:]
	}
}

// recordFailure updates the total-attempt counter for a terminal failure.
func (c *Client) recordFailure() {
	c.statsMu.Lock()
	defer c.statsMu.Unlock()
	c.totalRequests++
}

// Stats returns a snapshot of client statistics.
func (c *Client) Stats() Stats {
	c.statsMu.Lock()
	defer c.statsMu.Unlock()

	var avg float64
	if len(c.latencies) > 0 {
		var sum time.Duration
		for _, l := range c.latencies {
			sum += l
		}
		avg = sum.Seconds() / float64(len(c.latencies))
	}

	total := c.totalRequests
	if total == 0 {
		total = 1
	}

	return Stats{
		TotalRequests:      c.totalRequests,
		SuccessfulRequests: c.successfulRequests,
		SuccessRate:        float64(c.successfulRequests) / float64(total),
		CurrentRate:        c.bucket.CurrentRate(),
		CurrentTokens:      c.bucket.CurrentTokens(),
		AvgLatencySeconds:  avg,
	}
}

// Config returns the client configuration.
func (c *Client) Config() Config {
	return c.config
}

// RateLimiter exposes the token bucket for stats surfaces and tests.
func (c *Client) RateLimiter() *ratelimit.Bucket {
	return c.bucket
}
