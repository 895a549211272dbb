package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
)

// Registry holds all Prometheus metrics.
type Registry struct {
	*prometheus.Registry

	// HTTP metrics
	httpRequestsTotal    *prometheus.CounterVec
	httpRequestDuration  *prometheus.HistogramVec
	httpRequestsInFlight prometheus.Gauge

	// Business metrics
	llmRequests    *prometheus.CounterVec
	llmDuration    *prometheus.HistogramVec
	uploadsTotal   *prometheus.CounterVec
	emailsSent     *prometheus.CounterVec
	eventsTotal    *prometheus.CounterVec
	sessionsActive prometheus.Gauge
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

	r.llmRequests = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "folio_llm_requests_total",
			Help: "Total number of model requests",
		},
		[]string{"model", "backend", "status"},
	)
	r.llmDuration = prometheus.NewHistogramVec(
		prometheus.HistogramOpts{
			Name:    "folio_llm_request_duration_seconds",
			Help:    "Model request duration in seconds",
			Buckets: []float64{0.25, 0.5, 1, 2.5, 5, 10, 30, 60, 120},
		},
		[]string{"backend"},
	)
	r.uploadsTotal = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "folio_uploads_total",
			Help: "Total number of object uploads",
		},
		[]string{"status"},
	)
	r.emailsSent = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "folio_emails_sent_total",
			Help: "Total number of outbound emails",
		},
		[]string{"kind", "status"},
	)
	r.eventsTotal = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "folio_events_total",
			Help: "Total number of events dispatched",
		},
		[]string{"event", "status"},
	)
	r.sessionsActive = prometheus.NewGauge(
		prometheus.GaugeOpts{
			Name: "folio_sessions_active",
			Help: "Number of live sign-in sessions",
		},
	)

	reg.MustRegister(r.llmRequests)
	reg.MustRegister(r.llmDuration)
	reg.MustRegister(r.uploadsTotal)
	reg.MustRegister(r.emailsSent)
	reg.MustRegister(r.eventsTotal)
	reg.MustRegister(r.sessionsActive)

	return r
}

// RecordRequest records metrics for an HTTP request.
func (r *Registry) RecordRequest(method, path string, status int, duration float64) {
	statusStr := statusToString(status)
	r.httpRequestsTotal.WithLabelValues(method, path, statusStr).Inc()
	r.httpRequestDuration.WithLabelValues(method, path).Observe(duration)
}

// InFlightInc increments in-flight requests.
func (r *Registry) InFlightInc() {
	r.httpRequestsInFlight.Inc()
}

// InFlightDec decrements in-flight requests.
func (r *Registry) InFlightDec() {
	r.httpRequestsInFlight.Dec()
}

// RecordLLMRequest records one model request.
func (r *Registry) RecordLLMRequest(model, backend, status string, duration float64) {
	r.llmRequests.WithLabelValues(model, backend, status).Inc()
	r.llmDuration.WithLabelValues(backend).Observe(duration)
}

// RecordUpload records an object upload.
func (r *Registry) RecordUpload(status string) {
	r.uploadsTotal.WithLabelValues(status).Inc()
}

// RecordEmail records an outbound email.
func (r *Registry) RecordEmail(kind, status string) {
	r.emailsSent.WithLabelValues(kind, status).Inc()
}

// RecordEvent records a dispatched event.
func (r *Registry) RecordEvent(event, status string) {
	r.eventsTotal.WithLabelValues(event, status).Inc()
}

// SetSessionsActive sets the number of live sessions.
func (r *Registry) SetSessionsActive(count int) {
	r.sessionsActive.Set(float64(count))
}

// Status returns the status label for an operation outcome.
func Status(err error) string {
	if err != nil {
		return "error"
	}
	return "ok"
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
