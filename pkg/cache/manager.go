package cache

import (
	"fmt"
	"sync"

	"github.com/rs/zerolog"

	"github.com/gtex-link/gtex-link/pkg/logging"
)

// View is the manager-facing surface of a cache, independent of its value
// type.
type View interface {
	Name() string
	Stats() Stats
	Clear() int
}

// ClearResult reports the outcome of a bulk clear.
type ClearResult struct {
	ClearedEntries int `json:"cleared_entries"`
	ClearedCaches  int `json:"cleared_caches"`
}

// ManagerStats aggregates per-cache and global accounting.
type ManagerStats struct {
	Caches map[string]Stats `json:"caches"`
	Global Stats            `json:"global"`
}

// Manager owns a named collection of caches, one per wrapped operation.
// Operations register their cache explicitly at construction time.
type Manager struct {
	mu     sync.Mutex
	caches map[string]View
	logger zerolog.Logger
}

// NewManager creates an empty cache manager.
func NewManager() *Manager {
	return &Manager{
		caches: make(map[string]View),
		logger: logging.NewLogger("cache-manager"),
	}
}

// Register adds a cache to the managed set. Registering a second cache
// under an existing name is a wiring bug and returns an error.
func (m *Manager) Register(c View) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	if _, exists := m.caches[c.Name()]; exists {
		return fmt.Errorf("cache %q already registered", c.Name())
	}
	m.caches[c.Name()] = c
	return nil
}

// ClearAll clears every managed cache and reports how many entries and
// caches were affected.
func (m *Manager) ClearAll() ClearResult {
	m.mu.Lock()
	defer m.mu.Unlock()

	result := ClearResult{ClearedCaches: len(m.caches)}
	for _, c := range m.caches {
		result.ClearedEntries += c.Clear()
	}

	m.logger.Info().
		Int("cleared_entries", result.ClearedEntries).
		Int("cleared_caches", result.ClearedCaches).
		Msg("Cleared all caches")

	return result
}

// Stats returns per-cache snapshots plus a global aggregate across all
// managed caches.
func (m *Manager) Stats() ManagerStats {
	m.mu.Lock()
	defer m.mu.Unlock()

	stats := ManagerStats{Caches: make(map[string]Stats, len(m.caches))}
	for name, c := range m.caches {
		s := c.Stats()
		stats.Caches[name] = s

		stats.Global.Hits += s.Hits
		stats.Global.Misses += s.Misses
		stats.Global.CurrentSize += s.CurrentSize
		stats.Global.MaxSize += s.MaxSize
	}

	if total := stats.Global.Hits + stats.Global.Misses; total > 0 {
		stats.Global.HitRate = float64(stats.Global.Hits) / float64(total)
	}

	return stats
}

// Len returns the number of registered caches.
func (m *Manager) Len() int {
	m.mu.Lock()
	defer m.mu.Unlock()
	return len(m.caches)
}
