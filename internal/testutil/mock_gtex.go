// Package testutil provides testing utilities for the GTEx gateway.
package testutil

import (
	"fmt"
	"net/http"
	"net/http/httptest"
	"sync"
	"time"
)

// MockResponse defines the behavior for a mock GTEx endpoint response.
type MockResponse struct {
	StatusCode int
	Body       string
	Headers    map[string]string
	Delay      time.Duration
}

// MockGTEx is a configurable mock GTEx Portal server for testing.
type MockGTEx struct {
	server   *httptest.Server
	mu       sync.RWMutex
	handlers map[string]func(w http.ResponseWriter, r *http.Request)

	requestCount      int
	lastRequestHeader http.Header
}

// NewMockGTEx creates a new mock GTEx Portal server.
func NewMockGTEx() *MockGTEx {
	mock := &MockGTEx{
		handlers: make(map[string]func(w http.ResponseWriter, r *http.Request)),
	}

	mock.server = httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		mock.mu.Lock()
		mock.requestCount++
		mock.lastRequestHeader = r.Header.Clone()
		mock.mu.Unlock()

		mock.mu.RLock()
		handler, exists := mock.handlers[r.URL.Path]
		mock.mu.RUnlock()

		if exists {
			handler(w, r)
			return
		}

		mock.defaultHandler(w)
	}))

	return mock
}

// URL returns the mock server base URL with a trailing slash.
func (m *MockGTEx) URL() string {
	return m.server.URL + "/"
}

// Close shuts down the mock server.
func (m *MockGTEx) Close() {
	m.server.Close()
}

// Reset clears all tracking counters.
func (m *MockGTEx) Reset() {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.requestCount = 0
	m.lastRequestHeader = nil
}

// SetHandler sets a custom handler for a specific path.
func (m *MockGTEx) SetHandler(path string, handler func(w http.ResponseWriter, r *http.Request)) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.handlers[path] = handler
}

// SetResponse configures a fixed response for a path.
func (m *MockGTEx) SetResponse(path string, resp MockResponse) {
	m.SetHandler(path, func(w http.ResponseWriter, r *http.Request) {
		if resp.Delay > 0 {
			time.Sleep(resp.Delay)
		}

		for key, value := range resp.Headers {
			w.Header().Set(key, value)
		}
		if resp.Headers["Content-Type"] == "" {
			w.Header().Set("Content-Type", "application/json")
		}

		w.WriteHeader(resp.StatusCode)
		if resp.Body != "" {
			w.Write([]byte(resp.Body))
		}
	})
}

// RequestCount returns the number of requests made to the server.
func (m *MockGTEx) RequestCount() int {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return m.requestCount
}

// LastRequestHeader returns the headers of the most recent request.
func (m *MockGTEx) LastRequestHeader() http.Header {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return m.lastRequestHeader
}

// defaultHandler answers with an empty paginated payload.
func (m *MockGTEx) defaultHandler(w http.ResponseWriter) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(http.StatusOK)
	w.Write([]byte(PagedBody("[]", 1, 0, 0)))
}

// PagedBody builds a GTEx-shaped paginated response body around a JSON
// data array.
func PagedBody(dataJSON string, numberOfPages, page, totalItems int) string {
	return fmt.Sprintf(
		`{"data": %s, "pagingInfo": {"numberOfPages": %d, "page": %d, "maxItemsPerPage": 250, "totalNumberOfItems": %d}}`,
		dataJSON, numberOfPages, page, totalItems,
	)
}

// NewGeneSearchResponse creates a 200 OK gene search response.
func NewGeneSearchResponse(genes string) MockResponse {
	return MockResponse{
		StatusCode: http.StatusOK,
		Body:       PagedBody(genes, 1, 0, 1),
		Headers:    map[string]string{"Content-Type": "application/json"},
	}
}

// NewRateLimitResponse creates a 429 Too Many Requests response.
func NewRateLimitResponse(retryAfter string) MockResponse {
	headers := map[string]string{"Content-Type": "application/json"}
	if retryAfter != "" {
		headers["Retry-After"] = retryAfter
	}
	return MockResponse{
		StatusCode: http.StatusTooManyRequests,
		Body:       `{"error": "Rate limit exceeded"}`,
		Headers:    headers,
	}
}

// NewServerErrorResponse creates a 500 Internal Server Error response.
func NewServerErrorResponse() MockResponse {
	return MockResponse{
		StatusCode: http.StatusInternalServerError,
		Body:       `{"error": "Internal server error"}`,
		Headers:    map[string]string{"Content-Type": "application/json"},
	}
}

// NewClientErrorResponse creates a 422 validation error response.
func NewClientErrorResponse(detail string) MockResponse {
	return MockResponse{
		StatusCode: http.StatusUnprocessableEntity,
		Body:       fmt.Sprintf(`{"detail": %q}`, detail),
		Headers:    map[string]string{"Content-Type": "application/json"},
	}
}
