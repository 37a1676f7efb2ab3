package cache

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

var (
	// CacheHits tracks cache hits by cache name
	CacheHits = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "gtex_cache_hits_total",
			Help: "Total number of cache hits",
		},
		[]string{"cache"},
	)

	// CacheMisses tracks cache misses by cache name
	CacheMisses = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "gtex_cache_misses_total",
			Help: "Total number of cache misses",
		},
		[]string{"cache"},
	)

	// CacheEvictions tracks LRU evictions by cache name
	CacheEvictions = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "gtex_cache_evictions_total",
			Help: "Total number of LRU cache evictions",
		},
		[]string{"cache"},
	)

	// CacheEntries tracks the current entry count by cache name
	CacheEntries = promauto.NewGaugeVec(
		prometheus.GaugeOpts{
			Name: "gtex_cache_entries",
			Help: "Current number of cached entries",
		},
		[]string{"cache"},
	)
)
