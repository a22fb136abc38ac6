package metrics

import (
	"net/http"
	"strconv"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"github.com/wonny/dipscan/internal/contracts"
)

const namespace = "dipscan"

// Metrics holds every collector on its own registry
// ⭐ SSOT: Prometheus 메트릭 정의는 여기서만
type Metrics struct {
	registry *prometheus.Registry

	filesLoaded     *prometheus.CounterVec
	filesSkipped    *prometheus.CounterVec
	rows            *prometheus.CounterVec
	sessionsCreated prometheus.Counter
	httpRequests    *prometheus.CounterVec
	httpDuration    *prometheus.HistogramVec
	jobRuns         *prometheus.CounterVec
}

// New creates and registers the collectors
func New() *Metrics {
	m := &Metrics{
		registry: prometheus.NewRegistry(),
		filesLoaded: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "files_loaded_total",
			Help:      "Input files parsed successfully, by format.",
		}, []string{"format"}),
		filesSkipped: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "files_skipped_total",
			Help:      "Input files skipped with a warning, by reason.",
		}, []string{"reason"}),
		rows: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "rows_total",
			Help:      "Data rows read, by outcome (kept or dropped).",
		}, []string{"outcome"}),
		sessionsCreated: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "sessions_created_total",
			Help:      "Analysis sessions created through the API.",
		}),
		httpRequests: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "http_requests_total",
			Help:      "HTTP requests, by route, method and status.",
		}, []string{"route", "method", "status"}),
		httpDuration: prometheus.NewHistogramVec(prometheus.HistogramOpts{
			Namespace: namespace,
			Name:      "http_request_duration_seconds",
			Help:      "HTTP request latency, by route.",
			Buckets:   prometheus.DefBuckets,
		}, []string{"route"}),
		jobRuns: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "job_runs_total",
			Help:      "Scheduled job runs, by job and status.",
		}, []string{"job", "status"}),
	}

	m.registry.MustRegister(
		collectors.NewGoCollector(),
		collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}),
		m.filesLoaded,
		m.filesSkipped,
		m.rows,
		m.sessionsCreated,
		m.httpRequests,
		m.httpDuration,
		m.jobRuns,
	)
	return m
}

// Registry exposes the registry, mainly for tests
func (m *Metrics) Registry() *prometheus.Registry {
	return m.registry
}

// Handler serves the /metrics endpoint
func (m *Metrics) Handler() http.Handler {
	return promhttp.HandlerFor(m.registry, promhttp.HandlerOpts{})
}

// FileLoaded records a parsed input
func (m *Metrics) FileLoaded(r contracts.FileReport) {
	m.filesLoaded.WithLabelValues(r.Format).Inc()
	m.rows.WithLabelValues("kept").Add(float64(r.RowsKept))
	m.rows.WithLabelValues("dropped").Add(float64(r.RowsDropped()))
}

// FileSkipped records a skipped input
func (m *Metrics) FileSkipped(w contracts.FileWarning) {
	m.filesSkipped.WithLabelValues(string(w.Reason)).Inc()
}

// SessionCreated records a new API session
func (m *Metrics) SessionCreated() {
	m.sessionsCreated.Inc()
}

// ObserveRequest records one HTTP request
func (m *Metrics) ObserveRequest(route, method string, status int, elapsed time.Duration) {
	m.httpRequests.WithLabelValues(route, method, strconv.Itoa(status)).Inc()
	m.httpDuration.WithLabelValues(route).Observe(elapsed.Seconds())
}

// JobRun records a scheduled job outcome
func (m *Metrics) JobRun(job string, err error) {
	status := "success"
	if err != nil {
		status = "failed"
	}
	m.jobRuns.WithLabelValues(job, status).Inc()
}
