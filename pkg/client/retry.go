package client

import (
	"context"
	"fmt"
	"math"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

// Prometheus metrics for retry operations.
var (
	gtexRetriesTotal = promauto.NewCounter(prometheus.CounterOpts{
		Name: "gtex_retries_total",
		Help: "Total number of retry attempts",
	})

	gtexRetryBackoffSeconds = promauto.NewHistogram(prometheus.HistogramOpts{
		Name:    "gtex_retry_backoff_seconds",
		Help:    "Backoff duration before retry attempts",
		Buckets: []float64{0.5, 1, 2, 5, 10, 30, 60},
	})

	gtexRetryExhaustedTotal = promauto.NewCounter(prometheus.CounterOpts{
		Name: "gtex_retry_exhausted_total",
		Help: "Total number of times retry attempts were exhausted",
	})
)

// backoffDelay returns the delay before retrying the given zero-based
// attempt: base * 2^attempt, capped to avoid overflow on large attempt
// counts.
func backoffDelay(base time.Duration, attempt int) time.Duration {
	if attempt > 30 {
		attempt = 30
	}
	return time.Duration(float64(base) * math.Pow(2, float64(attempt)))
}

// sleep waits for d while observing context cancellation and client
// shutdown. Shutdown wins over the timer so retry loops never outlive the
// client.
func (c *Client) sleep(ctx context.Context, d time.Duration) error {
	if d <= 0 {
		return nil
	}

	timer := time.NewTimer(d)
	defer timer.Stop()

	select {
	case <-ctx.Done():
		return ctx.Err()
	case <-c.closed:
		return ErrClientClosed
	case <-timer.C:
		return nil
	}
}

// backoff records retry metrics and waits out the delay for the given
// attempt.
func (c *Client) backoff(ctx context.Context, attempt int) error {
	delay := backoffDelay(c.config.RetryDelay, attempt)

	gtexRetriesTotal.Inc()
	gtexRetryBackoffSeconds.Observe(delay.Seconds())

	c.logger.Warn().
		Int("attempt", attempt+1).
		Int("max_retries", c.config.MaxRetries).
		Dur("backoff", delay).
		Msg("Transport error, retrying after backoff")

	if err := c.sleep(ctx, delay); err != nil {
		return fmt.Errorf("retry backoff interrupted: %w", err)
	}
	return nil
}
