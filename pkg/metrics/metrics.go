package metrics

import "github.com/prometheus/client_golang/prometheus"

// Cache coherency metrics, labelled by entity (recipe, review, favorite, profile).
var (
	CacheHits = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "feedup_cache_hits_total",
			Help: "Reads served from the local store within the TTL window",
		},
		[]string{"entity"},
	)

	CacheMisses = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "feedup_cache_misses_total",
			Help: "Reads that required a remote fetch (missing, stale or forced)",
		},
		[]string{"entity"},
	)

	StaleFallbacks = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "feedup_cache_stale_fallbacks_total",
			Help: "Reads served from a possibly stale local copy after a remote failure",
		},
		[]string{"entity"},
	)

	MirrorFailures = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "feedup_remote_mirror_failures_total",
			Help: "Fire-and-forget remote writes that failed and were dropped",
		},
		[]string{"entity"},
	)
)

func init() {
	prometheus.MustRegister(CacheHits)
	prometheus.MustRegister(CacheMisses)
	prometheus.MustRegister(StaleFallbacks)
	prometheus.MustRegister(MirrorFailures)
}
