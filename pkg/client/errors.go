package client

import (
	"errors"
	"fmt"
	"time"
)

// Common errors returned by the client.
var (
	// ErrRetryExhausted is returned when all retry attempts are exhausted.
	ErrRetryExhausted = errors.New("retry attempts exhausted")

	// ErrClientClosed is returned when a call is issued against a closed
	// client, or when shutdown interrupts an in-flight call.
	ErrClientClosed = errors.New("client closed")
)

// ErrorClass is the closed classification of GTEx Portal call failures.
// Exactly one class is assigned per failed call, and the class alone decides
// retry behavior: only network errors are retried locally.
type ErrorClass string

const (
	// ErrorClassNetwork represents transport failures: connection errors
	// and per-attempt timeouts. Retried with exponential backoff.
	ErrorClassNetwork ErrorClass = "network"

	// ErrorClassRateLimit represents HTTP 429 responses. Surfaced with the
	// Retry-After value so callers can apply their own backoff; never
	// retried here.
	ErrorClassRateLimit ErrorClass = "rate_limit"

	// ErrorClassUnavailable represents 5xx server errors. Kept distinct
	// from network errors so callers may apply a different backoff policy
	// upstream; never retried here.
	ErrorClassUnavailable ErrorClass = "unavailable"

	// ErrorClassClient represents 4xx client errors other than 429. The
	// input is wrong; retrying cannot help.
	ErrorClassClient ErrorClass = "client"

	// ErrorClassMalformed represents 2xx responses whose body failed to
	// parse as JSON.
	ErrorClassMalformed ErrorClass = "malformed"
)

// defaultRetryAfter is assumed when a 429 response omits the Retry-After
// header.
const defaultRetryAfter = 60 * time.Second

// APIError is the typed error surfaced for every non-success outcome of a
// GTEx Portal call. It always names the class, the HTTP status when one was
// received, and a truncated diagnostic message.
type APIError struct {
	Class      ErrorClass
	StatusCode int
	Message    string
	RetryAfter time.Duration
	Err        error
}

// Error implements the error interface.
func (e *APIError) Error() string {
	if e.StatusCode > 0 {
		if e.Err != nil {
			return fmt.Sprintf("gtex %s error (status %d): %s: %v",
				e.Class, e.StatusCode, e.Message, e.Err)
		}
		return fmt.Sprintf("gtex %s error (status %d): %s",
			e.Class, e.StatusCode, e.Message)
	}
	if e.Err != nil {
		return fmt.Sprintf("gtex %s error: %s: %v", e.Class, e.Message, e.Err)
	}
	return fmt.Sprintf("gtex %s error: %s", e.Class, e.Message)
}

// Unwrap implements error unwrapping for errors.Is/As.
func (e *APIError) Unwrap() error {
	return e.Err
}

// shouldRetry reports whether an error class is recovered locally. Rate
// limit and unavailable outcomes terminate immediately: honoring Retry-After
// and backing off from a degraded upstream are caller decisions.
func shouldRetry(class ErrorClass) bool {
	return class == ErrorClassNetwork
}

// truncateBody shortens a response body to at most limit bytes for
// diagnostics.
func truncateBody(body []byte, limit int) string {
	if len(body) == 0 {
		return "unknown error"
	}
	if len(body) > limit {
		return string(body[:limit])
	}
	return string(body)
}
