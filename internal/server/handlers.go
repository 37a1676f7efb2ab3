package server

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"strconv"
	"time"

	"github.com/gtex-link/gtex-link/pkg/client"
)

// readinessTimeout bounds the upstream probe behind /api/health/ready.
const readinessTimeout = 10 * time.Second

// handleHealth is the liveness probe.
func (s *Server) handleHealth(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, map[string]any{
		"status": "healthy",
	})
}

// handleReady probes the upstream GTEx Portal via the service-info endpoint.
func (s *Server) handleReady(w http.ResponseWriter, r *http.Request) {
	ctx, cancel := context.WithTimeout(r.Context(), readinessTimeout)
	defer cancel()

	if _, err := s.svc.ServiceInfo(ctx); err != nil {
		s.logger.Warn().Err(err).Msg("Readiness probe failed")
		writeJSON(w, http.StatusServiceUnavailable, map[string]any{
			"status": "not_ready",
			"error":  err.Error(),
		})
		return
	}

	writeJSON(w, http.StatusOK, map[string]any{
		"status": "ready",
	})
}

// handleStats reports client and cache statistics.
func (s *Server) handleStats(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, map[string]any{
		"client": s.svc.ClientStats(),
		"caches": s.svc.CacheStats(),
	})
}

// handleCacheClear empties every registered cache.
func (s *Server) handleCacheClear(w http.ResponseWriter, r *http.Request) {
	result := s.svc.ClearCaches()
	s.logger.Info().
		Int("entries", result.ClearedEntries).
		Int("caches", result.ClearedCaches).
		Msg("Caches cleared")
	writeJSON(w, http.StatusOK, result)
}

// handleGeneSearch serves the gene search passthrough with paging defaults.
func (s *Server) handleGeneSearch(w http.ResponseWriter, r *http.Request) {
	query := r.URL.Query().Get("query")
	if query == "" {
		writeJSON(w, http.StatusBadRequest, map[string]any{
			"error": "query parameter is required",
		})
		return
	}

	page := intParam(r, "page", 0)
	pageSize := intParam(r, "itemsPerPage", 250)

	payload, err := s.svc.SearchGenes(r.Context(), query, page, pageSize)
	if err != nil {
		s.writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, payload)
}

// passthrough builds a handler forwarding query parameters to a service
// operation.
func (s *Server) passthrough(name string, op operation) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		payload, err := op(r.Context(), r.URL.Query())
		if err != nil {
			s.logger.Warn().Err(err).Str("operation", name).Msg("Passthrough request failed")
			s.writeError(w, err)
			return
		}
		writeJSON(w, http.StatusOK, payload)
	}
}

// writeError maps gateway errors to HTTP responses.
func (s *Server) writeError(w http.ResponseWriter, err error) {
	var apiErr *client.APIError
	if errors.As(err, &apiErr) {
		status := http.StatusBadGateway
		switch apiErr.Class {
		case client.ErrorClassRateLimit:
			status = http.StatusTooManyRequests
			w.Header().Set("Retry-After", strconv.Itoa(int(apiErr.RetryAfter.Seconds())))
		case client.ErrorClassClient:
			status = apiErr.StatusCode
			if status < 400 || status > 499 {
				status = http.StatusBadRequest
			}
		case client.ErrorClassUnavailable, client.ErrorClassMalformed:
			status = http.StatusBadGateway
		case client.ErrorClassNetwork:
			status = http.StatusGatewayTimeout
		}

		writeJSON(w, status, map[string]any{
			"error":       apiErr.Message,
			"error_class": string(apiErr.Class),
		})
		return
	}

	if errors.Is(err, client.ErrClientClosed) {
		writeJSON(w, http.StatusServiceUnavailable, map[string]any{
			"error": "gateway is shutting down",
		})
		return
	}

	writeJSON(w, http.StatusInternalServerError, map[string]any{
		"error": err.Error(),
	})
}

// writeJSON writes a JSON response with the given status.
func writeJSON(w http.ResponseWriter, status int, payload any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(payload)
}

// intParam parses an integer query parameter with a fallback.
func intParam(r *http.Request, name string, fallback int) int {
	raw := r.URL.Query().Get(name)
	if raw == "" {
		return fallback
	}
	n, err := strconv.Atoi(raw)
	if err != nil || n < 0 {
		return fallback
	}
	return n
}
