package telemetry

import (
	"context"
	"errors"
	"net/http"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

// Reload outcomes used as metric labels.
const (
	ReloadStatusSuccess = "success"
	ReloadStatusFailed  = "failed"
)

// Metrics provides Prometheus metrics for configuration reloads and lookups.
type Metrics struct {
	config MetricsConfig

	reloads        *prometheus.CounterVec
	reloadDuration *prometheus.HistogramVec
	sections       prometheus.Gauge
	warnings       prometheus.Gauge
	lastReload     prometheus.Gauge

	errorsByClass    *prometheus.CounterVec
	entryValidations *prometheus.CounterVec

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

		reloads: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Namespace: namespace,
				Name:      "reloads_total",
				Help:      "Total number of configuration reloads",
			},
			[]string{"status"},
		),
		reloadDuration: prometheus.NewHistogramVec(
			prometheus.HistogramOpts{
				Namespace: namespace,
				Name:      "reload_duration_seconds",
				Help:      "Duration of configuration reloads in seconds",
				Buckets:   buckets,
			},
			[]string{"status"},
		),
		sections: prometheus.NewGauge(
			prometheus.GaugeOpts{
				Namespace: namespace,
				Name:      "sections",
				Help:      "Number of sections in the active configuration",
			},
		),
		warnings: prometheus.NewGauge(
			prometheus.GaugeOpts{
				Namespace: namespace,
				Name:      "parse_warnings",
				Help:      "Number of parse warnings in the active configuration",
			},
		),
		lastReload: prometheus.NewGauge(
			prometheus.GaugeOpts{
				Namespace: namespace,
				Name:      "last_reload_timestamp_seconds",
				Help:      "Unix time of the last successful reload",
			},
		),
		errorsByClass: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Namespace: namespace,
				Name:      "errors_by_class_total",
				Help:      "Total number of configuration errors by error class",
			},
			[]string{"class"},
		),
		entryValidations: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Namespace: namespace,
				Name:      "entry_validations_total",
				Help:      "Total number of entry validations by logbook and result",
			},
			[]string{"logbook", "result"},
		),
	}

	registry.MustRegister(
		m.reloads,
		m.reloadDuration,
		m.sections,
		m.warnings,
		m.lastReload,
		m.errorsByClass,
		m.entryValidations,
	)

	return m, nil
}

// RecordReload records a reload attempt with its outcome and duration.
func (m *Metrics) RecordReload(status string, duration time.Duration) {
	if m.reloads == nil {
		return
	}
	m.reloads.WithLabelValues(status).Inc()
	m.reloadDuration.WithLabelValues(status).Observe(duration.Seconds())
	if status == ReloadStatusSuccess {
		m.lastReload.SetToCurrentTime()
	}
}

// SetConfigStats records the size of the active configuration.
func (m *Metrics) SetConfigStats(sections, warnings int) {
	if m.sections == nil {
		return
	}
	m.sections.Set(float64(sections))
	m.warnings.Set(float64(warnings))
}

// RecordError records a configuration error by class.
func (m *Metrics) RecordError(errorClass string) {
	if m.errorsByClass == nil {
		return
	}
	m.errorsByClass.WithLabelValues(errorClass).Inc()
}

// RecordEntryValidation records the result of validating an entry.
func (m *Metrics) RecordEntryValidation(logbook string, valid bool) {
	if m.entryValidations == nil {
		return
	}
	result := "valid"
	if !valid {
		result = "invalid"
	}
	m.entryValidations.WithLabelValues(logbook, result).Inc()
}

// Registry returns the registry metrics are registered with, or nil when
// metrics are disabled.
func (m *Metrics) Registry() *prometheus.Registry {
	return m.registry
}

// Timer provides a convenient way to time operations.
type Timer struct {
	start time.Time
}

// NewTimer creates a new timer.
func NewTimer() *Timer {
	return &Timer{start: time.Now()}
}

// Duration returns the elapsed time since the timer was created.
func (t *Timer) Duration() time.Duration {
	return time.Since(t.start)
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

// StartMetricsServer serves metrics until ctx is cancelled. Serve errors
// are passed to onError.
func (m *Metrics) StartMetricsServer(ctx context.Context, onError func(error)) error {
	if !m.config.Enabled {
		return nil
	}

	path := m.config.Path
	if path == "" {
		path = "/metrics"
	}
	mux := http.NewServeMux()
	mux.Handle(path, m.Handler())

	server := &http.Server{
		Addr:              m.config.ListenAddress,
		Handler:           mux,
		ReadHeaderTimeout: 5 * time.Second,
	}

	go func() {
		if err := server.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) && onError != nil {
			onError(err)
		}
	}()

	go func() {
		<-ctx.Done()
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		_ = server.Shutdown(shutdownCtx)
	}()

	return nil
}
