package services

import (
	"github.com/prometheus/client_golang/prometheus"
)

var transitionsTotal = prometheus.NewCounterVec(
	prometheus.CounterOpts{
		Name: "request_lifecycle_transitions_total",
		Help: "Committed request state transitions by workflow and resulting status.",
	},
	[]string{"workflow", "status"},
)

func init() {
	prometheus.MustRegister(transitionsTotal)
}

func recordTransition(workflow, status string) {
	transitionsTotal.WithLabelValues(workflow, status).Inc()
}
