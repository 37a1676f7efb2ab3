// Package metrics provides the centralized Prometheus metrics reference for
// the GTEx gateway. All metrics are defined in their respective packages
// (client, cache, ratelimit) to maintain modularity and avoid circular
// dependencies.
//
// This package provides documentation and reference for all available metrics.
package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
)

// Registry is the default Prometheus registry used by the gateway.
// All metrics are automatically registered via promauto in their respective packages.
var Registry = prometheus.DefaultRegisterer

// Metrics Documentation
//
// Rate Limit Metrics (pkg/ratelimit):
//   - gtex_rate_limit_wait_seconds (Histogram): Wait imposed by the token bucket before admission
//   - gtex_rate_limit_tokens (Gauge): Tokens available after the last acquire
//
// Cache Metrics (pkg/cache):
//   - gtex_cache_hits_total{cache} (Counter): Cache hits by cache name
//   - gtex_cache_misses_total{cache} (Counter): Cache misses by cache name
//   - gtex_cache_evictions_total{cache} (Counter): LRU evictions by cache name
//   - gtex_cache_entries{cache} (Gauge): Current entries by cache name
//
// Request Metrics (pkg/client):
//   - gtex_requests_total{endpoint, status} (Counter): Total requests by endpoint and HTTP status
//   - gtex_request_duration_seconds{endpoint} (Histogram): Request duration by endpoint
//   - gtex_errors_total{class} (Counter): Errors by class (network, rate_limit, unavailable, client, malformed)
//
// Retry Metrics (pkg/client):
//   - gtex_retries_total (Counter): Retry attempts
//   - gtex_retry_backoff_seconds (Histogram): Backoff duration before retries
//   - gtex_retry_exhausted_total (Counter): Requests that exhausted max retries
//
// Example Prometheus Queries:
//
//   # Cache Hit Rate
//   sum(rate(gtex_cache_hits_total[5m])) /
//   (sum(rate(gtex_cache_hits_total[5m])) + sum(rate(gtex_cache_misses_total[5m])))
//
//   # Request Error Rate
//   rate(gtex_errors_total[5m])
//
//   # P95 Request Latency
//   histogram_quantile(0.95, rate(gtex_request_duration_seconds_bucket[5m]))
//
//   # Throttling Pressure
//   histogram_quantile(0.95, rate(gtex_rate_limit_wait_seconds_bucket[5m]))
