// Package metrics provides Prometheus metrics for the goalie edge service.
package metrics

import (
	"sync/atomic"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

// Adapter outcome label values.
const (
	OutcomeOK    = "ok"
	OutcomeEmpty = "empty"
	OutcomeError = "error"
	OutcomePanic = "panic"
)

// Cache result label values.
const (
	CacheHit   = "hit"
	CacheMiss  = "miss"
	CacheStale = "stale"
)

// Manager owns every collector of the service.
type Manager struct {
	namespace        string
	subsystem        string
	histogramBuckets []float64
	registry         prometheus.Registerer

	adapterFetches  *prometheus.CounterVec
	adapterDuration *prometheus.HistogramVec
	adapterRecords  *prometheus.GaugeVec

	cacheLookups *prometheus.CounterVec

	upstreamRequests *prometheus.CounterVec

	httpRequests        *prometheus.CounterVec
	httpRequestDuration *prometheus.HistogramVec

	gamesBuilt     prometheus.Gauge
	edgesReported  *prometheus.CounterVec
	pipelineErrors prometheus.Counter

	alertsPublished prometheus.Counter
	snapshotsSaved  prometheus.Counter
}

type state struct {
	registry *prometheus.Registry
	manager  *Manager
}

var global atomic.Pointer[state] //nolint:gochecknoglobals // process-wide registry served on /metrics

func init() {
	Configure()
}

// Configure replaces the process-wide registry with one whose collectors are
// built with opts. Call it at startup, before /metrics is registered.
func Configure(opts ...Option) {
	reg := prometheus.NewRegistry()
	all := append(append([]Option{}, opts...), WithPrometheusRegistry(reg))
	m := NewManager(all...)
	global.Store(&state{registry: reg, manager: m})
}

func current() *Manager { return global.Load().manager }

// NewManager creates a manager and registers its collectors.
func NewManager(opts ...Option) *Manager {
	m := &Manager{
		namespace:        "nhledge",
		subsystem:        "",
		histogramBuckets: []float64{5, 25, 100, 250, 500, 1000, 2500, 5000, 10000, 30000},
		registry:         prometheus.DefaultRegisterer,
	}
	for _, opt := range opts {
		opt(m)
	}
	m.init()
	return m
}

func (m *Manager) init() {
	auto := promauto.With(m.registry)

	m.adapterFetches = auto.NewCounterVec(prometheus.CounterOpts{
		Namespace: m.namespace,
		Subsystem: m.subsystem,
		Name:      "adapter_fetches_total",
		Help:      "Source adapter fetches by source and outcome",
	}, []string{"source", "outcome"})

	m.adapterDuration = auto.NewHistogramVec(prometheus.HistogramOpts{
		Namespace: m.namespace,
		Subsystem: m.subsystem,
		Name:      "adapter_fetch_duration_milliseconds",
		Help:      "Source adapter fetch latency in milliseconds",
		Buckets:   m.histogramBuckets,
	}, []string{"source"})

	m.adapterRecords = auto.NewGaugeVec(prometheus.GaugeOpts{
		Namespace: m.namespace,
		Subsystem: m.subsystem,
		Name:      "adapter_records",
		Help:      "Records returned by the last fetch of each source",
	}, []string{"source"})

	m.cacheLookups = auto.NewCounterVec(prometheus.CounterOpts{
		Namespace: m.namespace,
		Subsystem: m.subsystem,
		Name:      "cache_lookups_total",
		Help:      "Time-windowed cache lookups by cache name and result",
	}, []string{"cache", "result"})

	m.upstreamRequests = auto.NewCounterVec(prometheus.CounterOpts{
		Namespace: m.namespace,
		Subsystem: m.subsystem,
		Name:      "upstream_requests_total",
		Help:      "Outbound HTTP requests by host and status class",
	}, []string{"host", "status"})

	m.httpRequests = auto.NewCounterVec(prometheus.CounterOpts{
		Namespace: m.namespace,
		Subsystem: m.subsystem,
		Name:      "http_requests_total",
		Help:      "HTTP requests by endpoint, method and status code",
	}, []string{"endpoint", "method", "status_code"})

	m.httpRequestDuration = auto.NewHistogramVec(prometheus.HistogramOpts{
		Namespace: m.namespace,
		Subsystem: m.subsystem,
		Name:      "http_request_duration_milliseconds",
		Help:      "HTTP request duration in milliseconds",
		Buckets:   m.histogramBuckets,
	}, []string{"endpoint", "method", "status_code"})

	m.gamesBuilt = auto.NewGauge(prometheus.GaugeOpts{
		Namespace: m.namespace,
		Subsystem: m.subsystem,
		Name:      "games_built",
		Help:      "Games in the last assembled response",
	})

	m.edgesReported = auto.NewCounterVec(prometheus.CounterOpts{
		Namespace: m.namespace,
		Subsystem: m.subsystem,
		Name:      "edges_reported_total",
		Help:      "Edge signals attached to games by basis and confidence",
	}, []string{"basis", "confidence"})

	m.pipelineErrors = auto.NewCounter(prometheus.CounterOpts{
		Namespace: m.namespace,
		Subsystem: m.subsystem,
		Name:      "pipeline_errors_total",
		Help:      "Pipeline runs that failed as a whole",
	})

	m.alertsPublished = auto.NewCounter(prometheus.CounterOpts{
		Namespace: m.namespace,
		Subsystem: m.subsystem,
		Name:      "alerts_published_total",
		Help:      "High-confidence edge alerts published to the stream",
	})

	m.snapshotsSaved = auto.NewCounter(prometheus.CounterOpts{
		Namespace: m.namespace,
		Subsystem: m.subsystem,
		Name:      "snapshots_saved_total",
		Help:      "Scheduled response snapshots written to the store",
	})
}

// GetRegistry returns the gatherer backing /metrics.
func GetRegistry() *prometheus.Registry { return global.Load().registry }

// RecordAdapterFetch records one adapter fetch.
func RecordAdapterFetch(source, outcome string, durationMs float64, records int) {
	current().adapterFetches.WithLabelValues(source, outcome).Inc()
	current().adapterDuration.WithLabelValues(source).Observe(durationMs)
	current().adapterRecords.WithLabelValues(source).Set(float64(records))
}

// RecordCacheLookup records one cache window lookup.
func RecordCacheLookup(cache, result string) {
	current().cacheLookups.WithLabelValues(cache, result).Inc()
}

// RecordUpstreamRequest records one outbound request; status is "2xx".."5xx" or "error".
func RecordUpstreamRequest(host, status string) {
	current().upstreamRequests.WithLabelValues(host, status).Inc()
}

// RecordHTTPRequest records one served request.
func RecordHTTPRequest(endpoint, method, statusCode string, durationMs float64) {
	current().httpRequests.WithLabelValues(endpoint, method, statusCode).Inc()
	current().httpRequestDuration.WithLabelValues(endpoint, method, statusCode).Observe(durationMs)
}

// UpdateGamesBuilt sets the number of games in the last response.
func UpdateGamesBuilt(n int) { current().gamesBuilt.Set(float64(n)) }

// RecordEdge counts one reported edge.
func RecordEdge(basis, confidence string) {
	current().edgesReported.WithLabelValues(basis, confidence).Inc()
}

// RecordPipelineError counts one failed pipeline run.
func RecordPipelineError() { current().pipelineErrors.Inc() }

// RecordAlertPublished counts one published alert.
func RecordAlertPublished() { current().alertsPublished.Inc() }

// RecordSnapshotSaved counts one stored snapshot.
func RecordSnapshotSaved() { current().snapshotsSaved.Inc() }
