// Package ratelimit provides token bucket admission control for outbound
// GTEx Portal API requests.
package ratelimit

import (
	"sync"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

// Prometheus metrics for rate limit admission.
var (
	gtexRateLimitWaitSeconds = promauto.NewHistogram(prometheus.HistogramOpts{
		Name:    "gtex_rate_limit_wait_seconds",
		Help:    "Wait duration imposed by the token bucket before admission",
		Buckets: []float64{0.01, 0.05, 0.1, 0.25, 0.5, 1, 2, 5},
	})

	gtexRateLimitTokens = promauto.NewGauge(prometheus.GaugeOpts{
		Name: "gtex_rate_limit_tokens",
		Help: "Tokens available in the bucket after the last acquire",
	})
)

const (
	// rateWindow is the trailing window used to estimate the observed
	// admission rate.
	rateWindow = 10 * time.Second

	// minSamplesForRate is the minimum number of admissions inside the
	// window required before a rate is reported.
	minSamplesForRate = 2
)

// Bucket is a token bucket rate limiter. Tokens replenish continuously at
// Rate per second up to Burst. Acquire never sleeps; it returns the wait the
// caller must perform before the request may be issued.
type Bucket struct {
	mu         sync.Mutex
	rate       float64
	burst      float64
	tokens     float64
	lastRefill time.Time
	admissions []time.Time

	// now is replaceable for tests.
	now func() time.Time
}

// NewBucket creates a token bucket admitting rate requests per second with
// the given burst capacity. A burst below 1 is raised to 1 so at least one
// request can ever be admitted.
func NewBucket(rate float64, burst int) *Bucket {
	if burst < 1 {
		burst = 1
	}
	return &Bucket{
		rate:       rate,
		burst:      float64(burst),
		tokens:     float64(burst),
		lastRefill: time.Now(),
		now:        time.Now,
	}
}

// Acquire attempts to consume one token. It returns zero when the request is
// admitted immediately, or the duration the caller must wait before issuing
// the request. The bucket itself never blocks.
func (b *Bucket) Acquire() time.Duration {
	b.mu.Lock()
	defer b.mu.Unlock()

	now := b.now()
	b.refill(now)

	if b.tokens >= 1 {
		b.tokens--
		b.admissions = append(b.admissions, now)
		b.pruneAdmissions(now)
		gtexRateLimitTokens.Set(b.tokens)
		gtexRateLimitWaitSeconds.Observe(0)
		return 0
	}

	wait := time.Duration((1 - b.tokens) / b.rate * float64(time.Second))
	gtexRateLimitTokens.Set(b.tokens)
	gtexRateLimitWaitSeconds.Observe(wait.Seconds())
	return wait
}

// refill adds tokens for the time elapsed since the last refill, capped at
// the burst capacity. Callers must hold the mutex.
func (b *Bucket) refill(now time.Time) {
	elapsed := now.Sub(b.lastRefill).Seconds()
	if elapsed > 0 {
		b.tokens = min(b.burst, b.tokens+elapsed*b.rate)
	}
	b.lastRefill = now
}

// pruneAdmissions drops admission timestamps older than the rate window.
// Callers must hold the mutex.
func (b *Bucket) pruneAdmissions(now time.Time) {
	cutoff := now.Add(-rateWindow)
	i := 0
	for i < len(b.admissions) && b.admissions[i].Before(cutoff) {
		i++
	}
	if i > 0 {
		b.admissions = append(b.admissions[:0], b.admissions[i:]...)
	}
}

// CurrentTokens returns the number of tokens that would be available right
// now, without consuming any or advancing the refill clock.
func (b *Bucket) CurrentTokens() float64 {
	b.mu.Lock()
	defer b.mu.Unlock()

	elapsed := b.now().Sub(b.lastRefill).Seconds()
	if elapsed <= 0 {
		return b.tokens
	}
	return min(b.burst, b.tokens+elapsed*b.rate)
}

// CurrentRate estimates the observed admission rate in requests per second
// over the trailing window. It returns 0 when fewer than two admissions fall
// inside the window, or when the admissions share a timestamp.
func (b *Bucket) CurrentRate() float64 {
	b.mu.Lock()
	defer b.mu.Unlock()

	now := b.now()
	b.pruneAdmissions(now)

	if len(b.admissions) < minSamplesForRate {
		return 0
	}

	window := now.Sub(b.admissions[0]).Seconds()
	if window <= 0 {
		return 0
	}
	return float64(len(b.admissions)) / window
}

// Rate returns the configured refill rate in requests per second.
func (b *Bucket) Rate() float64 {
	return b.rate
}

// Burst returns the configured burst capacity.
func (b *Bucket) Burst() int {
	return int(b.burst)
}
