package telemetry

import (
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"

	"github.com/keyva-ui/keyva/pkg/keyva"
)

// MetricsConfig configures the Prometheus store metrics.
type MetricsConfig struct {
	// Namespace is the metrics namespace (default: "keyva").
	Namespace string

	// Subsystem is the metrics subsystem (default: "store").
	Subsystem string

	// ConstLabels are constant labels added to all metrics.
	ConstLabels prometheus.Labels

	// Buckets are the histogram buckets for notification duration.
	// Default: prometheus.DefBuckets
	Buckets []float64

	// Registry is the Prometheus registry to use.
	// Default: prometheus.DefaultRegisterer
	Registry prometheus.Registerer
}

// MetricsOption configures the Prometheus store metrics.
type MetricsOption func(*MetricsConfig)

// WithNamespace sets the metrics namespace.
func WithNamespace(namespace string) MetricsOption {
	return func(c *MetricsConfig) {
		c.Namespace = namespace
	}
}

// WithSubsystem sets the metrics subsystem.
func WithSubsystem(subsystem string) MetricsOption {
	return func(c *MetricsConfig) {
		c.Subsystem = subsystem
	}
}

// WithConstLabels sets constant labels for all metrics.
func WithConstLabels(labels prometheus.Labels) MetricsOption {
	return func(c *MetricsConfig) {
		c.ConstLabels = labels
	}
}

// WithBuckets sets the notification duration histogram buckets.
func WithBuckets(buckets []float64) MetricsOption {
	return func(c *MetricsConfig) {
		c.Buckets = buckets
	}
}

// WithRegistry sets the Prometheus registry.
func WithRegistry(registry prometheus.Registerer) MetricsOption {
	return func(c *MetricsConfig) {
		c.Registry = registry
	}
}

// defaultMetricsConfig returns the default metrics configuration.
func defaultMetricsConfig() MetricsConfig {
	return MetricsConfig{
		Namespace: "keyva",
		Subsystem: "store",
		Buckets:   prometheus.DefBuckets,
		Registry:  prometheus.DefaultRegisterer,
	}
}

// Metrics is a keyva.Observer that records store activity in Prometheus.
//
// Metrics collected:
//   - keyva_store_ops_total: Counter of mutations by operation
//   - keyva_store_notified_listeners_total: Counter of listener callbacks run
//   - keyva_store_notify_duration_seconds: Histogram of notification fan-out time
//   - keyva_store_keys: Gauge of keys currently present
//   - keyva_store_listeners: Gauge of registered listeners
//
// Operations are labeled by kind (set, update, delete, materialize). Keys are
// caller-chosen and unbounded, so they are deliberately not a label.
type Metrics struct {
	opsTotal          *prometheus.CounterVec
	notifiedListeners *prometheus.CounterVec
	notifyDuration    *prometheus.HistogramVec
}

// Instrument registers store metrics on the configured registry and installs
// them as an observer on st. It must be called before the store is shared.
//
// Example:
//
//	st := keyva.New()
//	telemetry.Instrument(st, telemetry.WithNamespace("myapp"))
func Instrument(st *keyva.Store, opts ...MetricsOption) *Metrics {
	config := defaultMetricsConfig()
	for _, opt := range opts {
		opt(&config)
	}

	factory := promauto.With(config.Registry)

	m := &Metrics{
		opsTotal: factory.NewCounterVec(prometheus.CounterOpts{
			Namespace:   config.Namespace,
			Subsystem:   config.Subsystem,
			Name:        "ops_total",
			Help:        "Total number of store mutations by operation",
			ConstLabels: config.ConstLabels,
		}, []string{"op"}),

		notifiedListeners: factory.NewCounterVec(prometheus.CounterOpts{
			Namespace:   config.Namespace,
			Subsystem:   config.Subsystem,
			Name:        "notified_listeners_total",
			Help:        "Total number of listener callbacks invoked",
			ConstLabels: config.ConstLabels,
		}, []string{"op"}),

		notifyDuration: factory.NewHistogramVec(prometheus.HistogramOpts{
			Namespace:   config.Namespace,
			Subsystem:   config.Subsystem,
			Name:        "notify_duration_seconds",
			Help:        "Time spent running a mutation's synchronous notifications",
			ConstLabels: config.ConstLabels,
			Buckets:     config.Buckets,
		}, []string{"op"}),
	}

	factory.NewGaugeFunc(prometheus.GaugeOpts{
		Namespace:   config.Namespace,
		Subsystem:   config.Subsystem,
		Name:        "keys",
		Help:        "Number of keys currently present in the store",
		ConstLabels: config.ConstLabels,
	}, func() float64 { return float64(st.Len()) })

	factory.NewGaugeFunc(prometheus.GaugeOpts{
		Namespace:   config.Namespace,
		Subsystem:   config.Subsystem,
		Name:        "listeners",
		Help:        "Number of registered listeners, per-key and whole-store",
		ConstLabels: config.ConstLabels,
	}, func() float64 { return float64(st.ListenerCount()) })

	st.Observe(m)
	return m
}

// ObserveOp implements keyva.Observer.
func (m *Metrics) ObserveOp(op keyva.Op, key string) keyva.OpDone {
	label := op.String()
	m.opsTotal.WithLabelValues(label).Inc()

	start := time.Now()
	return func(listeners int) {
		m.notifyDuration.WithLabelValues(label).Observe(time.Since(start).Seconds())
		m.notifiedListeners.WithLabelValues(label).Add(float64(listeners))
	}
}
