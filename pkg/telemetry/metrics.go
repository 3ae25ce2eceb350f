package telemetry

import (
	"fmt"
	"net/http"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

// Metrics provides Prometheus metrics for stackmigrate.
type Metrics struct {
	config MetricsConfig

	// Analysis metrics
	analysesTotal    *prometheus.CounterVec
	analysisDuration *prometheus.HistogramVec
	cyclesDetected   *prometheus.CounterVec

	// Relationship metrics
	relationshipsDetected *prometheus.CounterVec

	// Validation metrics
	validationsTotal   *prometheus.CounterVec
	validationDuration *prometheus.HistogramVec

	// Error metrics
	errorsByClass *prometheus.CounterVec

	registry *prometheus.Registry
}

// NewMetrics creates a new metrics collector with the given configuration.
func NewMetrics(cfg MetricsConfig) (*Metrics, error) {
	if !cfg.Enabled {
		// Return a no-op metrics instance
		return &Metrics{config: cfg}, nil
	}

	namespace := cfg.Namespace
	buckets := cfg.DefaultHistogramBuckets
	if len(buckets) == 0 {
		buckets = prometheus.DefBuckets
	}

	registry := prometheus.NewRegistry()

	m := &Metrics{
		config:   cfg,
		registry: registry,

		analysesTotal: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Namespace: namespace,
				Name:      "analyses_total",
				Help:      "Total number of stack analyses performed",
			},
			[]string{"stack"},
		),
		analysisDuration: prometheus.NewHistogramVec(
			prometheus.HistogramOpts{
				Namespace: namespace,
				Name:      "analysis_duration_seconds",
				Help:      "Duration of stack analysis in seconds",
				Buckets:   buckets,
			},
			[]string{"stack"},
		),
		cyclesDetected: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Namespace: namespace,
				Name:      "dependency_cycles_total",
				Help:      "Total number of dependency cycle edges detected",
			},
			[]string{"stack"},
		),

		relationshipsDetected: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Namespace: namespace,
				Name:      "relationships_detected_total",
				Help:      "Total number of inferred relationships by kind",
			},
			[]string{"kind"},
		),

		validationsTotal: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Namespace: namespace,
				Name:      "validations_total",
				Help:      "Total number of migration validations by outcome",
			},
			[]string{"success", "verdict"},
		),
		validationDuration: prometheus.NewHistogramVec(
			prometheus.HistogramOpts{
				Namespace: namespace,
				Name:      "validation_duration_seconds",
				Help:      "Duration of migration validation in seconds",
				Buckets:   buckets,
			},
			[]string{"verdict"},
		),

		errorsByClass: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Namespace: namespace,
				Name:      "errors_by_class_total",
				Help:      "Total number of errors by error class",
			},
			[]string{"class"},
		),
	}

	registry.MustRegister(
		m.analysesTotal,
		m.analysisDuration,
		m.cyclesDetected,
		m.relationshipsDetected,
		m.validationsTotal,
		m.validationDuration,
		m.errorsByClass,
	)

	return m, nil
}

// RecordAnalysis records a completed stack analysis.
func (m *Metrics) RecordAnalysis(stack string, duration time.Duration) {
	if m.analysesTotal == nil {
		return
	}
	m.analysesTotal.WithLabelValues(stack).Inc()
	m.analysisDuration.WithLabelValues(stack).Observe(duration.Seconds())
}

// RecordCycles records dependency cycle edges found during extraction.
func (m *Metrics) RecordCycles(stack string, count int) {
	if m.cyclesDetected == nil || count == 0 {
		return
	}
	m.cyclesDetected.WithLabelValues(stack).Add(float64(count))
}

// RecordRelationships records inferred relationships of one kind.
func (m *Metrics) RecordRelationships(kind string, count int) {
	if m.relationshipsDetected == nil || count == 0 {
		return
	}
	m.relationshipsDetected.WithLabelValues(kind).Add(float64(count))
}

// RecordValidation records a completed validation run.
func (m *Metrics) RecordValidation(success bool, verdict string, duration time.Duration) {
	if m.validationsTotal == nil {
		return
	}
	m.validationsTotal.WithLabelValues(fmt.Sprintf("%t", success), verdict).Inc()
	m.validationDuration.WithLabelValues(verdict).Observe(duration.Seconds())
}

// RecordError records an error by class.
func (m *Metrics) RecordError(errorClass string) {
	if m.errorsByClass == nil {
		return
	}
	m.errorsByClass.WithLabelValues(errorClass).Inc()
}

// Handler returns an HTTP handler for the metrics endpoint.
func (m *Metrics) Handler() http.Handler {
	if m.registry == nil {
		return http.NotFoundHandler()
	}
	return promhttp.HandlerFor(m.registry, promhttp.HandlerOpts{
		EnableOpenMetrics: true,
	})
}

// StartMetricsServer starts an HTTP server to expose metrics.
func (m *Metrics) StartMetricsServer() error {
	if !m.config.Enabled {
		return nil
	}

	mux := http.NewServeMux()
	mux.Handle(m.config.Path, m.Handler())

	server := &http.Server{
		Addr:              m.config.ListenAddress,
		Handler:           mux,
		ReadHeaderTimeout: 5 * time.Second,
	}

	go func() {
		if err := server.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			// Log error but don't fail the application
			fmt.Printf("metrics server error: %v\n", err)
		}
	}()

	return nil
}
