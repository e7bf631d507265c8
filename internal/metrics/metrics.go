// Package metrics exposes Prometheus collectors for renders, builds and the
// preview server. All recording methods are safe on a nil *Metrics, so
// callers can leave metrics disabled.
package metrics

import (
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
	"github.com/vango-dev/jsonpage/pkg/render"
)

// Config configures the collectors.
type Config struct {
	// Namespace is the metrics namespace (default: "jsonpage").
	Namespace string

	Subsystem string

	ConstLabels prometheus.Labels

	// Buckets are the render duration histogram buckets.
	// Default: prometheus.DefBuckets
	Buckets []float64

	// Registry is the Prometheus registry to use.
	// Default: prometheus.DefaultRegisterer
	Registry prometheus.Registerer
}

// Option configures the collectors.
type Option func(*Config)

// WithNamespace sets the metrics namespace.
func WithNamespace(namespace string) Option {
	return func(c *Config) {
		c.Namespace = namespace
	}
}

// WithConstLabels sets constant labels for all metrics.
func WithConstLabels(labels prometheus.Labels) Option {
	return func(c *Config) {
		c.ConstLabels = labels
	}
}

// WithBuckets sets the histogram buckets.
func WithBuckets(buckets []float64) Option {
	return func(c *Config) {
		c.Buckets = buckets
	}
}

// WithRegistry sets the Prometheus registry.
func WithRegistry(registry prometheus.Registerer) Option {
	return func(c *Config) {
		c.Registry = registry
	}
}

func defaultConfig() Config {
	return Config{
		Namespace: "jsonpage",
		Buckets:   prometheus.DefBuckets,
		Registry:  prometheus.DefaultRegisterer,
	}
}

// Render outcome labels.
const (
	StatusSuccess = "success"
	StatusError   = "error"
	StatusFailed  = "failed"
)

// Metrics holds the collectors.
type Metrics struct {
	rendersTotal   *prometheus.CounterVec
	renderDuration prometheus.Histogram
	renderErrors   *prometheus.CounterVec
	warningsTotal  prometheus.Counter
	components     prometheus.Counter
	outputBytes    prometheus.Histogram
	writesTotal    *prometheus.CounterVec
	reloadsTotal   prometheus.Counter
	reloadClients  prometheus.Gauge
}

// New registers the collectors.
func New(opts ...Option) *Metrics {
	config := defaultConfig()
	for _, opt := range opts {
		opt(&config)
	}
	factory := promauto.With(config.Registry)

	return &Metrics{
		rendersTotal: factory.NewCounterVec(prometheus.CounterOpts{
			Namespace:   config.Namespace,
			Subsystem:   config.Subsystem,
			Name:        "renders_total",
			Help:        "Total number of document renders by outcome",
			ConstLabels: config.ConstLabels,
		}, []string{"status"}),

		renderDuration: factory.NewHistogram(prometheus.HistogramOpts{
			Namespace:   config.Namespace,
			Subsystem:   config.Subsystem,
			Name:        "render_duration_seconds",
			Help:        "Document render duration in seconds",
			ConstLabels: config.ConstLabels,
			Buckets:     config.Buckets,
		}),

		renderErrors: factory.NewCounterVec(prometheus.CounterOpts{
			Namespace:   config.Namespace,
			Subsystem:   config.Subsystem,
			Name:        "render_errors_total",
			Help:        "Total render errors by kind",
			ConstLabels: config.ConstLabels,
		}, []string{"kind"}),

		warningsTotal: factory.NewCounter(prometheus.CounterOpts{
			Namespace:   config.Namespace,
			Subsystem:   config.Subsystem,
			Name:        "render_warnings_total",
			Help:        "Total render warnings",
			ConstLabels: config.ConstLabels,
		}),

		components: factory.NewCounter(prometheus.CounterOpts{
			Namespace:   config.Namespace,
			Subsystem:   config.Subsystem,
			Name:        "components_registered_total",
			Help:        "Total components registered across renders",
			ConstLabels: config.ConstLabels,
		}),

		outputBytes: factory.NewHistogram(prometheus.HistogramOpts{
			Namespace:   config.Namespace,
			Subsystem:   config.Subsystem,
			Name:        "output_bytes",
			Help:        "Size of rendered documents in bytes",
			ConstLabels: config.ConstLabels,
			Buckets:     prometheus.ExponentialBuckets(256, 4, 8), // 256B to 4MB
		}),

		writesTotal: factory.NewCounterVec(prometheus.CounterOpts{
			Namespace:   config.Namespace,
			Subsystem:   config.Subsystem,
			Name:        "writes_total",
			Help:        "Total output writes by target and outcome",
			ConstLabels: config.ConstLabels,
		}, []string{"target", "status"}),

		reloadsTotal: factory.NewCounter(prometheus.CounterOpts{
			Namespace:   config.Namespace,
			Subsystem:   config.Subsystem,
			Name:        "reloads_total",
			Help:        "Total reload notifications sent to preview clients",
			ConstLabels: config.ConstLabels,
		}),

		reloadClients: factory.NewGauge(prometheus.GaugeOpts{
			Namespace:   config.Namespace,
			Subsystem:   config.Subsystem,
			Name:        "reload_clients",
			Help:        "Number of connected reload clients",
			ConstLabels: config.ConstLabels,
		}),
	}
}

// ObserveRender records one render. err is the loader error returned
// alongside result, if any.
func (m *Metrics) ObserveRender(result *render.Result, err error, d time.Duration) {
	if m == nil {
		return
	}
	m.renderDuration.Observe(d.Seconds())

	switch {
	case err != nil:
		m.rendersTotal.WithLabelValues(StatusFailed).Inc()
		return
	case !result.OK():
		m.rendersTotal.WithLabelValues(StatusError).Inc()
		for _, e := range result.Errors {
			m.renderErrors.WithLabelValues(string(e.Kind)).Inc()
		}
	default:
		m.rendersTotal.WithLabelValues(StatusSuccess).Inc()
		m.outputBytes.Observe(float64(len(result.Output)))
	}
	m.warningsTotal.Add(float64(len(result.Warnings)))
	m.components.Add(float64(len(result.Components)))
}

// ObserveWrite records one output write. target is "file" or "s3".
func (m *Metrics) ObserveWrite(target string, err error) {
	if m == nil {
		return
	}
	status := StatusSuccess
	if err != nil {
		status = StatusFailed
	}
	m.writesTotal.WithLabelValues(target, status).Inc()
}

// RecordReload records a reload broadcast.
func (m *Metrics) RecordReload() {
	if m == nil {
		return
	}
	m.reloadsTotal.Inc()
}

// SetReloadClients records the number of connected reload clients.
func (m *Metrics) SetReloadClients(n int) {
	if m == nil {
		return
	}
	m.reloadClients.Set(float64(n))
}
