package metrics

import "github.com/prometheus/client_golang/prometheus"

func init() { register(planCacheLookups, planCacheBackendErrors) }

var (
	planCacheLookups = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "plan_cache_lookups_total",
			Help: "Plan cache lookups by key kind (id, name, list) and outcome (hit, miss).",
		},
		[]string{"kind", "result"},
	)
	planCacheBackendErrors = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "plan_cache_backend_errors_total",
			Help: "Redis failures seen by the plan cache, by command.",
		},
		[]string{"command"},
	)
)

// CacheLookup records one read against the plan cache.
func CacheLookup(kind string, hit bool) {
	result := "miss"
	if hit {
		result = "hit"
	}
	planCacheLookups.WithLabelValues(norm(kind), result).Inc()
}

// CacheBackendError records a failed get, set or del.
func CacheBackendError(command string) {
	planCacheBackendErrors.WithLabelValues(norm(command)).Inc()
}
