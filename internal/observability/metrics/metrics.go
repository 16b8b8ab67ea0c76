// Package metrics provides Prometheus metrics for observability.
package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

const namespace = "whisper_transcription"

// Metrics holds all Prometheus metrics for the service.
type Metrics struct {
	// HTTP metrics
	RequestsTotal   *prometheus.CounterVec
	RequestDuration *prometheus.HistogramVec
	RequestsActive  prometheus.Gauge

	// Staging metrics
	AudioBytesStaged prometheus.Counter
	StagedFiles      prometheus.Gauge

	// Engine metrics
	EngineInvocations *prometheus.CounterVec
	EngineLatency     *prometheus.HistogramVec
	EngineErrors      *prometheus.CounterVec
	EngineInfo        *prometheus.GaugeVec

	// Event publish metrics
	EventPublishTotal   *prometheus.CounterVec
	EventPublishErrors  *prometheus.CounterVec
	EventPublishLatency *prometheus.HistogramVec

	// Validation metrics
	ValidationFailures *prometheus.CounterVec
}

// DefaultMetrics is the global metrics instance.
var DefaultMetrics = NewMetrics()

// NewMetrics creates and registers all Prometheus metrics.
func NewMetrics() *Metrics {
	return &Metrics{
		RequestsTotal: promauto.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "http_requests_total",
			Help:      "Total number of HTTP requests handled",
		}, []string{"method", "route", "status"}),
		RequestDuration: promauto.NewHistogramVec(prometheus.HistogramOpts{
			Namespace: namespace,
			Name:      "http_request_duration_seconds",
			Help:      "HTTP request handling duration in seconds",
			Buckets:   []float64{0.01, 0.05, 0.1, 0.5, 1, 2, 5, 10, 30, 60, 120},
		}, []string{"method", "route"}),
		RequestsActive: promauto.NewGauge(prometheus.GaugeOpts{
			Namespace: namespace,
			Name:      "http_requests_active",
			Help:      "Number of HTTP requests currently being handled",
		}),

		AudioBytesStaged: promauto.NewCounter(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "audio_bytes_staged_total",
			Help:      "Total audio bytes written to staging",
		}),
		StagedFiles: promauto.NewGauge(prometheus.GaugeOpts{
			Namespace: namespace,
			Name:      "staged_files",
			Help:      "Number of staged files currently on disk",
		}),

		EngineInvocations: promauto.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "engine_invocations_total",
			Help:      "Total number of engine invocations",
		}, []string{"provider"}),
		EngineLatency: promauto.NewHistogramVec(prometheus.HistogramOpts{
			Namespace: namespace,
			Name:      "engine_latency_seconds",
			Help:      "Engine inference latency in seconds",
			Buckets:   []float64{0.5, 1, 2, 5, 10, 30, 60, 120, 300},
		}, []string{"provider"}),
		EngineErrors: promauto.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "engine_errors_total",
			Help:      "Total number of engine invocation failures",
		}, []string{"provider"}),
		EngineInfo: promauto.NewGaugeVec(prometheus.GaugeOpts{
			Namespace: namespace,
			Name:      "engine_info",
			Help:      "Engine provider and execution tier selected at startup (value is always 1)",
		}, []string{"provider", "tier"}),

		EventPublishTotal: promauto.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "event_publish_total",
			Help:      "Total number of transcription events published",
		}, []string{"topic"}),
		EventPublishErrors: promauto.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "event_publish_errors_total",
			Help:      "Total number of event publish errors",
		}, []string{"topic"}),
		EventPublishLatency: promauto.NewHistogramVec(prometheus.HistogramOpts{
			Namespace: namespace,
			Name:      "event_publish_latency_seconds",
			Help:      "Event publish latency in seconds",
			Buckets:   []float64{0.001, 0.005, 0.01, 0.025, 0.05, 0.1, 0.25, 0.5, 1},
		}, []string{"topic"}),

		ValidationFailures: promauto.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "validation_failures_total",
			Help:      "Total number of requests rejected by validation",
		}, []string{"field"}),
	}
}

// RecordHTTPRequest records one completed HTTP request.
func (m *Metrics) RecordHTTPRequest(method, route, status string, durationSeconds float64) {
	m.RequestsTotal.WithLabelValues(method, route, status).Inc()
	m.RequestDuration.WithLabelValues(method, route).Observe(durationSeconds)
}

// RecordAudioStaged records bytes written to a new staged file.
func (m *Metrics) RecordAudioStaged(bytes int64) {
	m.AudioBytesStaged.Add(float64(bytes))
	m.StagedFiles.Inc()
}

// RecordAudioReleased records a staged file being removed.
func (m *Metrics) RecordAudioReleased() {
	m.StagedFiles.Dec()
}

// RecordEngineInvocation records one engine call.
func (m *Metrics) RecordEngineInvocation(provider string, durationSeconds float64, failed bool) {
	m.EngineInvocations.WithLabelValues(provider).Inc()
	m.EngineLatency.WithLabelValues(provider).Observe(durationSeconds)
	if failed {
		m.EngineErrors.WithLabelValues(provider).Inc()
	}
}

// SetEngineInfo exposes the provider and tier chosen at startup.
func (m *Metrics) SetEngineInfo(provider, tier string) {
	m.EngineInfo.WithLabelValues(provider, tier).Set(1)
}

// RecordEventPublish records an event publish attempt.
func (m *Metrics) RecordEventPublish(topic string, err error, latencySeconds float64) {
	m.EventPublishTotal.WithLabelValues(topic).Inc()
	m.EventPublishLatency.WithLabelValues(topic).Observe(latencySeconds)
	if err != nil {
		m.EventPublishErrors.WithLabelValues(topic).Inc()
	}
}

// RecordValidationFailure records a request rejected before staging.
func (m *Metrics) RecordValidationFailure(field string) {
	m.ValidationFailures.WithLabelValues(field).Inc()
}
