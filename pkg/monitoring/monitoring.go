// Package monitoring exposes clustering runs as Prometheus metrics.
package monitoring

import (
	"net/http"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"github.com/gilchrisn/leiden-runner/pkg/driver"
)

// Run outcomes
const (
	OutcomeSuccess = "success"
	OutcomeInput   = "input_error"
	OutcomeFailure = "algorithm_error"
)

// Registry holds all metrics for the runner
type Registry struct {
	// Run Metrics
	RunsTotal     *prometheus.CounterVec
	RunDuration   *prometheus.HistogramVec
	RoundsTotal   *prometheus.CounterVec
	Improvement   *prometheus.GaugeVec
	Quality       *prometheus.GaugeVec
	Clusters      prometheus.Gauge
	GraphVertices prometheus.Gauge
	GraphEdges    prometheus.Gauge

	// HTTP Metrics
	HTTPRequestsTotal   *prometheus.CounterVec
	HTTPRequestDuration *prometheus.HistogramVec

	registry *prometheus.Registry
}

// NewRegistry creates a registry with every metric initialized
func NewRegistry() *Registry {
	r := &Registry{registry: prometheus.NewRegistry()}
	r.initRunMetrics()
	r.initHTTPMetrics()
	return r
}

func (r *Registry) initRunMetrics() {
	r.RunsTotal = promauto.With(r.registry).NewCounterVec(
		prometheus.CounterOpts{
			Name: "leiden_runs_total",
			Help: "Total number of clustering runs by outcome",
		},
		[]string{"engine", "objective", "outcome"},
	)

	r.RunDuration = promauto.With(r.registry).NewHistogramVec(
		prometheus.HistogramOpts{
			Name:    "leiden_run_duration_seconds",
			Help:    "Wall clock time of clustering runs",
			Buckets: prometheus.ExponentialBuckets(0.001, 4, 10),
		},
		[]string{"engine", "objective"},
	)

	r.RoundsTotal = promauto.With(r.registry).NewCounterVec(
		prometheus.CounterOpts{
			Name: "leiden_optimisation_rounds_total",
			Help: "Total number of optimiser rounds",
		},
		[]string{"engine", "objective"},
	)

	r.Improvement = promauto.With(r.registry).NewGaugeVec(
		prometheus.GaugeOpts{
			Name: "leiden_last_round_improvement",
			Help: "Quality improvement reported by the most recent round",
		},
		[]string{"engine", "objective"},
	)

	r.Quality = promauto.With(r.registry).NewGaugeVec(
		prometheus.GaugeOpts{
			Name: "leiden_partition_quality",
			Help: "Objective value of the current partition",
		},
		[]string{"engine", "objective"},
	)

	r.Clusters = promauto.With(r.registry).NewGauge(
		prometheus.GaugeOpts{
			Name: "leiden_clusters",
			Help: "Number of clusters found by the last successful run",
		},
	)

	r.GraphVertices = promauto.With(r.registry).NewGauge(
		prometheus.GaugeOpts{
			Name: "leiden_graph_vertices",
			Help: "Vertices in the last clustered graph",
		},
	)

	r.GraphEdges = promauto.With(r.registry).NewGauge(
		prometheus.GaugeOpts{
			Name: "leiden_graph_edges",
			Help: "Edges in the last clustered graph",
		},
	)
}

func (r *Registry) initHTTPMetrics() {
	r.HTTPRequestsTotal = promauto.With(r.registry).NewCounterVec(
		prometheus.CounterOpts{
			Name: "leiden_http_requests_total",
			Help: "Total number of HTTP requests",
		},
		[]string{"method", "path", "status"},
	)

	r.HTTPRequestDuration = promauto.With(r.registry).NewHistogramVec(
		prometheus.HistogramOpts{
			Name:    "leiden_http_request_duration_seconds",
			Help:    "HTTP request latency in seconds",
			Buckets: prometheus.DefBuckets,
		},
		[]string{"method", "path", "status"},
	)
}

// ObserveRound records one optimiser round; Registry is a driver.Observer
func (r *Registry) ObserveRound(info driver.RoundInfo) {
	r.RoundsTotal.WithLabelValues(info.Engine, info.Objective).Inc()
	r.Improvement.WithLabelValues(info.Engine, info.Objective).Set(info.Improvement)
	r.Quality.WithLabelValues(info.Engine, info.Objective).Set(info.Quality)
}

// RecordRun records a finished run. Graph sizes are only updated on success.
func (r *Registry) RecordRun(engine, objective, outcome string, duration time.Duration, vertices, edges, clusters int) {
	r.RunsTotal.WithLabelValues(engine, objective, outcome).Inc()
	r.RunDuration.WithLabelValues(engine, objective).Observe(duration.Seconds())
	if outcome != OutcomeSuccess {
		return
	}
	r.GraphVertices.Set(float64(vertices))
	r.GraphEdges.Set(float64(edges))
	r.Clusters.Set(float64(clusters))
}

// RecordHTTPRequest records an HTTP request with its duration
func (r *Registry) RecordHTTPRequest(method, path, status string, duration time.Duration) {
	r.HTTPRequestsTotal.WithLabelValues(method, path, status).Inc()
	r.HTTPRequestDuration.WithLabelValues(method, path, status).Observe(duration.Seconds())
}

// Handler serves the registry in the Prometheus exposition format
func (r *Registry) Handler() http.Handler {
	return promhttp.HandlerFor(r.registry, promhttp.HandlerOpts{})
}

// WriteTextfile writes the registry for the node exporter textfile collector
func (r *Registry) WriteTextfile(path string) error {
	return prometheus.WriteToTextfile(path, r.registry)
}

// GetPrometheusRegistry returns the underlying Prometheus registry
func (r *Registry) GetPrometheusRegistry() *prometheus.Registry {
	return r.registry
}
