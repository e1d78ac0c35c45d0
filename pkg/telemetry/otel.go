package telemetry

import (
	"context"
	"time"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/trace"

	"github.com/keyva-ui/keyva/pkg/keyva"
)

// Default tracer name for keyva stores.
const defaultTracerName = "keyva"

// TracingConfig configures the OpenTelemetry store observer.
type TracingConfig struct {
	// TracerName is the name of the tracer (default: "keyva").
	TracerName string

	// IncludeKey includes the mutated key as a span attribute.
	// Enabled by default; disable for stores whose keys carry
	// sensitive data.
	IncludeKey bool

	// Filter determines which mutations to trace, by key.
	// Return true to trace the mutation, false to skip.
	// If nil, all mutations are traced.
	Filter func(key string) bool

	// tracer is the resolved tracer instance.
	tracer trace.Tracer
}

// TracingOption configures the OpenTelemetry store observer.
type TracingOption func(*TracingConfig)

// WithTracerName sets the tracer name.
func WithTracerName(name string) TracingOption {
	return func(c *TracingConfig) {
		c.TracerName = name
	}
}

// WithIncludeKey enables or disables the key attribute on spans.
func WithIncludeKey(include bool) TracingOption {
	return func(c *TracingConfig) {
		c.IncludeKey = include
	}
}

// WithKeyFilter sets a filter function for traced keys.
func WithKeyFilter(filter func(key string) bool) TracingOption {
	return func(c *TracingConfig) {
		c.Filter = filter
	}
}

// defaultTracingConfig returns the default tracing configuration.
func defaultTracingConfig() TracingConfig {
	return TracingConfig{
		TracerName: defaultTracerName,
		IncludeKey: true,
	}
}

// Tracer is a keyva.Observer that emits one span per store mutation, timed
// over the mutation's synchronous notification fan-out.
//
// The tracer uses the global OpenTelemetry tracer provider. Configure it in
// your main() before wiring the store:
//
//	tp := sdktrace.NewTracerProvider(sdktrace.WithBatcher(exporter))
//	otel.SetTracerProvider(tp)
//	st := keyva.New(keyva.WithObserver(telemetry.Tracing()))
type Tracer struct {
	config TracingConfig
}

// Tracing creates an OpenTelemetry observer for a store.
func Tracing(opts ...TracingOption) *Tracer {
	config := defaultTracingConfig()
	for _, opt := range opts {
		opt(&config)
	}

	// Resolve tracer from global provider
	config.tracer = otel.Tracer(config.TracerName)

	return &Tracer{config: config}
}

// ObserveOp implements keyva.Observer.
func (t *Tracer) ObserveOp(op keyva.Op, key string) keyva.OpDone {
	if t.config.Filter != nil && !t.config.Filter(key) {
		return func(int) {}
	}

	attrs := []attribute.KeyValue{
		attribute.String("keyva.op", op.String()),
	}
	if t.config.IncludeKey {
		attrs = append(attrs, attribute.String("keyva.key", key))
	}

	_, span := t.config.tracer.Start(
		context.Background(),
		"keyva."+op.String(),
		trace.WithSpanKind(trace.SpanKindInternal),
		trace.WithAttributes(attrs...),
		trace.WithTimestamp(time.Now()),
	)

	return func(listeners int) {
		span.SetAttributes(attribute.Int("keyva.notified_listeners", listeners))
		span.End()
	}
}
