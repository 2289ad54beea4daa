package server

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

const namespace = "medrag"

// Request outcomes recorded by the ask handler
const (
	outcomeAnswered    = "answered"
	outcomeBadRequest  = "bad_request"
	outcomeUnavailable = "unavailable"
	outcomeTimeout     = "timeout"
	outcomeError       = "error"
)

// Metrics holds the Prometheus collectors for the HTTP surface.
type Metrics struct {
	AskRequests *prometheus.CounterVec
	AskDuration prometheus.Histogram
}

// NewMetrics registers the collectors with reg.
func NewMetrics(reg prometheus.Registerer) *Metrics {
	factory := promauto.With(reg)

	return &Metrics{
		AskRequests: factory.NewCounterVec(
			prometheus.CounterOpts{
				Namespace: namespace,
				Subsystem: "ask",
				Name:      "requests_total",
				Help:      "Total number of questions received, by outcome",
			},
			[]string{"outcome"},
		),
		AskDuration: factory.NewHistogram(
			prometheus.HistogramOpts{
				Namespace: namespace,
				Subsystem: "ask",
				Name:      "answer_duration_seconds",
				Help:      "Time to retrieve context and generate an answer",
				Buckets:   []float64{.1, .25, .5, 1, 2.5, 5, 10, 30, 60},
			},
		),
	}
}
