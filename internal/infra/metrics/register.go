// Package metrics exposes the plan catalog's Prometheus collectors. Each file
// enqueues its collectors from init; MustRegister publishes them.
package metrics

import (
	"strings"
	"sync"

	"github.com/prometheus/client_golang/prometheus"
)

var (
	registerOnce sync.Once
	pending      []prometheus.Collector
)

func register(cs ...prometheus.Collector) {
	pending = append(pending, cs...)
}

// MustRegister publishes the collectors on the default registry. Repeat calls are no-ops.
func MustRegister() {
	registerOnce.Do(func() {
		prometheus.MustRegister(pending...)
	})
}

// norm keeps label values lower case and trimmed.
func norm(s string) string { return strings.ToLower(strings.TrimSpace(s)) }
