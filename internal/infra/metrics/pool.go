package metrics

import "github.com/prometheus/client_golang/prometheus"

func init() { register(planStorePoolConns) }

// label values: total, idle, acquired, max
var planStorePoolConns = prometheus.NewGaugeVec(
	prometheus.GaugeOpts{
		Name: "plan_store_pool_connections",
		Help: "Postgres pool connections backing the plan store.",
	},
	[]string{"state"},
)

// PoolStats is a point-in-time view of a connection pool.
type PoolStats struct {
	Total, Idle, Acquired, Max int32
}

func SetPoolStats(s PoolStats) {
	planStorePoolConns.WithLabelValues("total").Set(float64(s.Total))
	planStorePoolConns.WithLabelValues("idle").Set(float64(s.Idle))
	planStorePoolConns.WithLabelValues("acquired").Set(float64(s.Acquired))
	planStorePoolConns.WithLabelValues("max").Set(float64(s.Max))
}
