package metrics

import (
	"errors"
	"time"

	"github.com/prometheus/client_golang/prometheus"

	"plan-catalog/internal/domain"
)

func init() { register(planStoreOpsTotal, planStoreOpDuration) }

var (
	planStoreOpsTotal = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "plan_store_ops_total",
			Help: "Plan store operations by outcome.",
		},
		[]string{"op", "result"}, // result: ok, invalid, conflict, not_found, unavailable, error
	)

	planStoreOpDuration = prometheus.NewHistogramVec(
		prometheus.HistogramOpts{
			Name:    "plan_store_op_duration_seconds",
			Help:    "Plan store operation latency.",
			Buckets: []float64{.001, .0025, .005, .01, .025, .05, .1, .25, .5, 1, 2.5, 5},
		},
		[]string{"op"},
	)
)

// ResultLabel buckets err into the result label of plan_store_ops_total.
func ResultLabel(err error) string {
	switch {
	case err == nil:
		return "ok"
	case errors.Is(err, domain.ErrInvalidArgument):
		return "invalid"
	case errors.Is(err, domain.ErrAlreadyExists):
		return "conflict"
	case errors.Is(err, domain.ErrNotFound):
		return "not_found"
	case errors.Is(err, domain.ErrStorageUnavailable):
		return "unavailable"
	default:
		return "error"
	}
}

// ObservePlanOp records one plan operation started at start.
func ObservePlanOp(op string, start time.Time, err error) {
	planStoreOpsTotal.WithLabelValues(norm(op), ResultLabel(err)).Inc()
	planStoreOpDuration.WithLabelValues(norm(op)).Observe(time.Since(start).Seconds())
}
