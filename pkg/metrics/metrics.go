package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

// Global metrics, registered on the default registry through promauto.

var (
	// Iterations counts completed simulation steps.
	Iterations = promauto.NewCounter(
		prometheus.CounterOpts{
			Name: "spacecol_iterations_total",
			Help: "Total number of simulation steps executed",
		},
	)

	// NodesCreated counts nodes spawned by steps (roots excluded).
	NodesCreated = promauto.NewCounter(
		prometheus.CounterOpts{
			Name: "spacecol_nodes_created_total",
			Help: "Total number of nodes grown by simulation steps",
		},
	)

	// AttractorEvents counts attractor state transitions, labeled by event:
	// connected, killed, disabled, influenced.
	AttractorEvents = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "spacecol_attractor_events_total",
			Help: "Attractor lifecycle events by type",
		},
		[]string{"event"},
	)

	// Nodes tracks the current arena size.
	Nodes = promauto.NewGauge(
		prometheus.GaugeOpts{
			Name: "spacecol_nodes",
			Help: "Number of nodes in the arena",
		},
	)

	// Attractors tracks the current attractor pool size.
	Attractors = promauto.NewGauge(
		prometheus.GaugeOpts{
			Name: "spacecol_attractors",
			Help: "Number of attractors still in play",
		},
	)

	// StepDuration measures how long a single step takes.
	// The scan is O(nodes x attractors), so the buckets go from microseconds to seconds.
	StepDuration = promauto.NewHistogram(
		prometheus.HistogramOpts{
			Name:    "spacecol_step_duration_seconds",
			Help:    "Duration of a simulation step in seconds",
			Buckets: []float64{0.00001, 0.0001, 0.001, 0.005, 0.01, 0.05, 0.1, 0.5, 1, 5},
		},
	)

	// HttpRequestsTotal counts HTTP requests by method, path and status code.
	HttpRequestsTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "spacecol_http_requests_total",
			Help: "Total number of HTTP requests processed",
		},
		[]string{"method", "path", "status"},
	)

	// HttpRequestDuration measures server response time.
	HttpRequestDuration = promauto.NewHistogramVec(
		prometheus.HistogramOpts{
			Name:    "spacecol_http_request_duration_seconds",
			Help:    "Duration of HTTP requests in seconds",
			Buckets: []float64{0.0005, 0.001, 0.005, 0.01, 0.05, 0.1, 0.5, 1, 5},
		},
		[]string{"method", "path"},
	)
)
