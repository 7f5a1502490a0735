package metrics

import "github.com/prometheus/client_golang/prometheus"

func init() { register(planEventsPublishedTotal) }

// Event results. Accepted is the hand-off to the publisher; with async
// delivery the worker later records delivered or failed. An event is counted
// as failed at most once.
const (
	EventAccepted  = "accepted"
	EventDelivered = "delivered"
	EventFailed    = "failed"
)

var planEventsPublishedTotal = prometheus.NewCounterVec(
	prometheus.CounterOpts{
		Name: "plan_events_published_total",
		Help: "Plan change events by stage: accepted by the publisher, delivered or failed.",
	},
	[]string{"type", "result"},
)

func IncPlanEvent(eventType, result string) {
	planEventsPublishedTotal.WithLabelValues(norm(eventType), norm(result)).Inc()
}
