package metrics

import (
	"sync"

	"github.com/prometheus/client_golang/prometheus"
)

var (
	once sync.Once

	apiRequests = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: "chargehub",
			Name:      "api_requests_total",
			Help:      "Marketplace API requests by method and status code.",
		},
		[]string{"method", "code"},
	)

	lifecycleTransitions = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: "chargehub",
			Name:      "session_transitions_total",
			Help:      "Charging session lifecycle transitions by phase.",
		},
		[]string{"phase"},
	)
)

// Register registers Prometheus metrics. Safe to call multiple times.
func Register() {
	once.Do(func() {
		prometheus.MustRegister(apiRequests, lifecycleTransitions)
	})
}

// IncRequest counts one outgoing API request.
func IncRequest(method, code string) {
	apiRequests.WithLabelValues(method, code).Inc()
}

// IncTransition counts one lifecycle transition into the given phase.
func IncTransition(phase string) {
	lifecycleTransitions.WithLabelValues(phase).Inc()
}
