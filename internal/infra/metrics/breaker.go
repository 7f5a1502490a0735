package metrics

import "github.com/prometheus/client_golang/prometheus"

func init() { register(storageBreakerState) }

var storageBreakerState = prometheus.NewGaugeVec(
	prometheus.GaugeOpts{
		Name: "storage_breaker_state",
		Help: "Storage circuit breaker state: 0 closed, 1 half-open, 2 open.",
	},
	[]string{"name"},
)

func SetBreakerState(name string, state int) {
	storageBreakerState.WithLabelValues(norm(name)).Set(float64(state))
}
