package observability

import (
	"context"
	"fmt"
	"time"

	"github.com/prometheus/client_golang/prometheus"
)

// PrometheusMetrics is a MetricsRecorder backed by Prometheus collectors,
// for services that expose a /metrics endpoint instead of running an OTel
// pipeline.
//
// Example:
//
//	registry := prometheus.NewRegistry()
//	metrics, err := observability.NewPrometheusMetrics(registry, "rag")
//	...
//	http.Handle("/metrics", promhttp.HandlerFor(registry, promhttp.HandlerOpts{}))
type PrometheusMetrics struct {
	nodeExecutions *prometheus.CounterVec
	nodeErrors     *prometheus.CounterVec
	nodeDuration   *prometheus.HistogramVec
	routes         *prometheus.CounterVec
	graphRuns      *prometheus.CounterVec
	graphDuration  *prometheus.HistogramVec
	graphSteps     *prometheus.HistogramVec
}

// Compile-time interface check.
var _ MetricsRecorder = (*PrometheusMetrics)(nil)

// NewPrometheusMetrics creates the collectors under namespace and registers
// them with reg. A nil reg uses prometheus.DefaultRegisterer.
func NewPrometheusMetrics(reg prometheus.Registerer, namespace string) (*PrometheusMetrics, error) {
	if reg == nil {
		reg = prometheus.DefaultRegisterer
	}

	m := &PrometheusMetrics{
		nodeExecutions: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "stategraph_node_executions_total",
			Help:      "Total number of node executions",
		}, []string{"node_id"}),
		nodeErrors: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "stategraph_node_errors_total",
			Help:      "Total number of node execution errors",
		}, []string{"node_id"}),
		nodeDuration: prometheus.NewHistogramVec(prometheus.HistogramOpts{
			Namespace: namespace,
			Name:      "stategraph_node_duration_seconds",
			Help:      "Duration of node executions",
			Buckets:   prometheus.DefBuckets,
		}, []string{"node_id"}),
		routes: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "stategraph_route_decisions_total",
			Help:      "Total number of routing decisions",
		}, []string{"from", "to"}),
		graphRuns: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "stategraph_graph_runs_total",
			Help:      "Total number of graph runs by final status",
		}, []string{"graph", "status"}),
		graphDuration: prometheus.NewHistogramVec(prometheus.HistogramOpts{
			Namespace: namespace,
			Name:      "stategraph_graph_duration_seconds",
			Help:      "Duration of graph runs",
			Buckets:   prometheus.DefBuckets,
		}, []string{"graph", "status"}),
		graphSteps: prometheus.NewHistogramVec(prometheus.HistogramOpts{
			Namespace: namespace,
			Name:      "stategraph_graph_steps",
			Help:      "Node invocations per graph run",
			Buckets:   prometheus.ExponentialBuckets(1, 2, 11),
		}, []string{"graph", "status"}),
	}

	collectors := []prometheus.Collector{
		m.nodeExecutions, m.nodeErrors, m.nodeDuration, m.routes,
		m.graphRuns, m.graphDuration, m.graphSteps,
	}
	for _, c := range collectors {
		if err := reg.Register(c); err != nil {
			return nil, fmt.Errorf("register prometheus collector: %w", err)
		}
	}

	return m, nil
}

// RecordNodeExecution records a node execution.
func (m *PrometheusMetrics) RecordNodeExecution(_ context.Context, nodeID string, duration time.Duration, err error) {
	m.nodeExecutions.WithLabelValues(nodeID).Inc()
	m.nodeDuration.WithLabelValues(nodeID).Observe(duration.Seconds())
	if err != nil {
		m.nodeErrors.WithLabelValues(nodeID).Inc()
	}
}

// RecordRoute records a routing decision.
func (m *PrometheusMetrics) RecordRoute(_ context.Context, from, to string) {
	m.routes.WithLabelValues(from, to).Inc()
}

// RecordGraphRun records a graph run.
func (m *PrometheusMetrics) RecordGraphRun(_ context.Context, graphName, status string, steps int, duration time.Duration) {
	m.graphRuns.WithLabelValues(graphName, status).Inc()
	m.graphDuration.WithLabelValues(graphName, status).Observe(duration.Seconds())
	m.graphSteps.WithLabelValues(graphName, status).Observe(float64(steps))
}
