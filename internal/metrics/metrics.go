package metrics

import (
	"net/http"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

// Read results used as the "result" label of rbin_paste_reads_total.
const (
	ReadFound    = "found"
	ReadNotFound = "not_found"
	ReadInvalid  = "invalid"
	ReadError    = "error"
)

// Registry holds all Prometheus metrics.
//
// All recording methods are safe to call on a nil *Registry, which lets
// components run without metrics in tests.
type Registry struct {
	*prometheus.Registry

	// HTTP metrics
	httpRequestsTotal    *prometheus.CounterVec
	httpRequestDuration  *prometheus.HistogramVec
	httpRequestsInFlight prometheus.Gauge

	// Paste metrics
	pastesCreated prometheus.Counter
	pasteBytes    prometheus.Histogram
	idCollisions  prometheus.Counter
	idExhausted   prometheus.Counter
	pasteReads    *prometheus.CounterVec
}

// NewRegistry creates a new metrics registry with all metrics registered.
func NewRegistry() *Registry {
	reg := prometheus.NewRegistry()

	// Register Go runtime metrics
	reg.MustRegister(collectors.NewGoCollector())
	reg.MustRegister(collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}))

	r := &Registry{
		Registry: reg,

		httpRequestsTotal: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Name: "http_requests_total",
				Help: "Total number of HTTP requests",
			},
			[]string{"method", "path", "status"},
		),

		httpRequestDuration: prometheus.NewHistogramVec(
			prometheus.HistogramOpts{
				Name:    "http_request_duration_seconds",
				Help:    "HTTP request duration in seconds",
				Buckets: prometheus.DefBuckets,
			},
			[]string{"method", "path"},
		),

		httpRequestsInFlight: prometheus.NewGauge(
			prometheus.GaugeOpts{
				Name: "http_requests_in_flight",
				Help: "Number of HTTP requests currently in flight",
			},
		),
	}

	reg.MustRegister(r.httpRequestsTotal)
	reg.MustRegister(r.httpRequestDuration)
	reg.MustRegister(r.httpRequestsInFlight)

	r.pastesCreated = prometheus.NewCounter(
		prometheus.CounterOpts{
			Name: "rbin_pastes_created_total",
			Help: "Total number of pastes created",
		},
	)
	r.pasteBytes = prometheus.NewHistogram(
		prometheus.HistogramOpts{
			Name:    "rbin_paste_bytes",
			Help:    "Size of created pastes in bytes",
			Buckets: prometheus.ExponentialBuckets(64, 4, 10),
		},
	)
	r.idCollisions = prometheus.NewCounter(
		prometheus.CounterOpts{
			Name: "rbin_id_collisions_total",
			Help: "Total number of generated ids that were already taken",
		},
	)
	r.idExhausted = prometheus.NewCounter(
		prometheus.CounterOpts{
			Name: "rbin_id_exhausted_total",
			Help: "Total number of creates that gave up after repeated collisions",
		},
	)
	r.pasteReads = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "rbin_paste_reads_total",
			Help: "Total number of paste reads by result",
		},
		[]string{"result"},
	)

	reg.MustRegister(r.pastesCreated)
	reg.MustRegister(r.pasteBytes)
	reg.MustRegister(r.idCollisions)
	reg.MustRegister(r.idExhausted)
	reg.MustRegister(r.pasteReads)

	return r
}

// Handler returns an HTTP handler exposing the registry.
func (r *Registry) Handler() http.Handler {
	return promhttp.HandlerFor(r.Registry, promhttp.HandlerOpts{Registry: r.Registry})
}

// RecordRequest records metrics for an HTTP request.
func (r *Registry) RecordRequest(method, path string, status int, duration float64) {
	if r == nil {
		return
	}
	statusStr := statusToString(status)
	r.httpRequestsTotal.WithLabelValues(method, path, statusStr).Inc()
	r.httpRequestDuration.WithLabelValues(method, path).Observe(duration)
}

// InFlightInc increments in-flight requests.
func (r *Registry) InFlightInc() {
	if r == nil {
		return
	}
	r.httpRequestsInFlight.Inc()
}

// InFlightDec decrements in-flight requests.
func (r *Registry) InFlightDec() {
	if r == nil {
		return
	}
	r.httpRequestsInFlight.Dec()
}

// RecordPasteCreated records a successful create of size bytes.
func (r *Registry) RecordPasteCreated(size int) {
	if r == nil {
		return
	}
	r.pastesCreated.Inc()
	r.pasteBytes.Observe(float64(size))
}

// RecordCollision records a generated id that was already taken.
func (r *Registry) RecordCollision() {
	if r == nil {
		return
	}
	r.idCollisions.Inc()
}

// RecordExhausted records a create that ran out of attempts.
func (r *Registry) RecordExhausted() {
	if r == nil {
		return
	}
	r.idExhausted.Inc()
}

// RecordRead records a paste read with one of the Read* results.
func (r *Registry) RecordRead(result string) {
	if r == nil {
		return
	}
	r.pasteReads.WithLabelValues(result).Inc()
}

func statusToString(status int) string {
	switch {
	case status >= 500:
		return "5xx"
	case status >= 400:
		return "4xx"
	case status >= 300:
		return "3xx"
	case status >= 200:
		return "2xx"
	default:
		return "1xx"
	}
}
