// Package metrics exposes Prometheus counters and histograms fed by eventbus
// events.
package metrics

import (
	"context"
	"net/http"
	"strconv"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	eventbus "github.com/hanpama/socialgraph/internal/eventbus"
	events "github.com/hanpama/socialgraph/internal/events"
)

const namespace = "socialgraph"

// Metrics holds the collectors registered for one server.
type Metrics struct {
	registry *prometheus.Registry

	httpRequests *prometheus.CounterVec   // By method and status
	httpLatency  *prometheus.HistogramVec // By method

	operations *prometheus.CounterVec   // By operation type
	opErrors   *prometheus.CounterVec   // By operation type and error code
	opLatency  *prometheus.HistogramVec // By operation type

	storeOps     *prometheus.CounterVec   // By collection and operation
	storeErrors  *prometheus.CounterVec   // By collection and operation
	storeLatency *prometheus.HistogramVec // By collection and operation
}

// New creates the collectors and registers them, along with the Go runtime
// and process collectors, on a fresh registry.
func New() (*Metrics, error) {
	m := &Metrics{
		registry: prometheus.NewRegistry(),

		httpRequests: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Subsystem: "http",
			Name:      "requests_total",
			Help:      "Total number of HTTP requests",
		}, []string{"method", "status"}),

		httpLatency: prometheus.NewHistogramVec(prometheus.HistogramOpts{
			Namespace: namespace,
			Subsystem: "http",
			Name:      "request_duration_seconds",
			Help:      "HTTP request duration in seconds",
			Buckets:   prometheus.DefBuckets,
		}, []string{"method"}),

		operations: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Subsystem: "graphql",
			Name:      "operations_total",
			Help:      "Total number of executed GraphQL operations",
		}, []string{"type"}), // type: query, mutation, or empty when parsing failed

		opErrors: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Subsystem: "graphql",
			Name:      "errors_total",
			Help:      "Total number of GraphQL errors returned",
		}, []string{"type", "code"}), // code: extension code, or empty for validation and execution errors

		opLatency: prometheus.NewHistogramVec(prometheus.HistogramOpts{
			Namespace: namespace,
			Subsystem: "graphql",
			Name:      "operation_duration_seconds",
			Help:      "GraphQL operation duration in seconds",
			Buckets:   prometheus.DefBuckets,
		}, []string{"type"}),

		storeOps: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Subsystem: "store",
			Name:      "operations_total",
			Help:      "Total number of document store operations",
		}, []string{"collection", "operation"}),

		storeErrors: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Subsystem: "store",
			Name:      "operation_errors_total",
			Help:      "Total number of failed document store operations",
		}, []string{"collection", "operation"}),

		storeLatency: prometheus.NewHistogramVec(prometheus.HistogramOpts{
			Namespace: namespace,
			Subsystem: "store",
			Name:      "operation_duration_seconds",
			Help:      "Document store operation duration in seconds",
			Buckets:   []float64{0.0005, 0.001, 0.005, 0.01, 0.05, 0.1, 0.5, 1.0},
		}, []string{"collection", "operation"}),
	}

	for _, c := range []prometheus.Collector{
		collectors.NewGoCollector(),
		collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}),
		m.httpRequests, m.httpLatency,
		m.operations, m.opErrors, m.opLatency,
		m.storeOps, m.storeErrors, m.storeLatency,
	} {
		if err := m.registry.Register(c); err != nil {
			return nil, err
		}
	}
	return m, nil
}

// Handler serves the registry in the Prometheus exposition format.
func (m *Metrics) Handler() http.Handler {
	return promhttp.HandlerFor(m.registry, promhttp.HandlerOpts{EnableOpenMetrics: true})
}

// Attach subscribes the collectors to bus and returns a function that removes
// the subscriptions.
func (m *Metrics) Attach(bus *eventbus.Bus) (detach func()) {
	offs := []func(){
		eventbus.On(bus, func(_ context.Context, e events.HTTPFinish) {
			m.httpRequests.WithLabelValues(e.Request.Method, strconv.Itoa(e.Status)).Inc()
			m.httpLatency.WithLabelValues(e.Request.Method).Observe(e.Duration.Seconds())
		}),
		eventbus.On(bus, func(_ context.Context, e events.GraphQLFinish) {
			m.operations.WithLabelValues(e.OperationType).Inc()
			coded := len(e.ErrorCodes)
			for _, code := range e.ErrorCodes {
				m.opErrors.WithLabelValues(e.OperationType, code).Inc()
			}
			if uncoded := len(e.Errors) - coded; uncoded > 0 {
				m.opErrors.WithLabelValues(e.OperationType, "").Add(float64(uncoded))
			}
			m.opLatency.WithLabelValues(e.OperationType).Observe(e.Duration.Seconds())
		}),
		eventbus.On(bus, func(_ context.Context, e events.StoreFinish) {
			m.storeOps.WithLabelValues(e.Collection, e.Operation).Inc()
			if e.Err != nil {
				m.storeErrors.WithLabelValues(e.Collection, e.Operation).Inc()
			}
			m.storeLatency.WithLabelValues(e.Collection, e.Operation).Observe(e.Duration.Seconds())
		}),
	}
	return func() {
		for _, off := range offs {
			off()
		}
	}
}
