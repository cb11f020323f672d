// Package metrics holds the Prometheus collectors exported on /metrics.
package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

var (
	// IntentsTotal counts processed utterances by the intent that answered them.
	// Labels: intent (add, greeting, unrecognized, ...)
	IntentsTotal = promauto.NewCounterVec(prometheus.CounterOpts{
		Namespace: "voxmate",
		Subsystem: "assistant",
		Name:      "intents_total",
		Help:      "Total utterances processed by resolved intent",
	}, []string{"intent"})

	// DispatchSeconds measures end-to-end dispatch latency including routing.
	DispatchSeconds = promauto.NewHistogram(prometheus.HistogramOpts{
		Namespace: "voxmate",
		Subsystem: "dispatch",
		Name:      "duration_seconds",
		Help:      "End-to-end dispatch latency including target routing",
		Buckets:   []float64{0.0005, 0.001, 0.005, 0.01, 0.05, 0.1, 0.5, 1, 5},
	})

	// RoutedTotal counts deliveries to downstream targets.
	// Labels: protocol (http, grpc, nats), status (ok, error, open, no_transport)
	RoutedTotal = promauto.NewCounterVec(prometheus.CounterOpts{
		Namespace: "voxmate",
		Subsystem: "dispatch",
		Name:      "routed_total",
		Help:      "Total result deliveries to targets by protocol and status",
	}, []string{"protocol", "status"})

	// RequestsTotal counts inbound requests per transport.
	// Labels: transport (http, ws, grpc, nats), status (ok, rejected, error)
	RequestsTotal = promauto.NewCounterVec(prometheus.CounterOpts{
		Namespace: "voxmate",
		Subsystem: "transport",
		Name:      "requests_total",
		Help:      "Total inbound requests by transport and outcome",
	}, []string{"transport", "status"})

	// ActiveSessions is the number of sources with a live session.
	ActiveSessions = promauto.NewGauge(prometheus.GaugeOpts{
		Namespace: "voxmate",
		Subsystem: "session",
		Name:      "active",
		Help:      "Number of sources with a live session",
	})
)
