// Package telemetry provides observability hooks for a keyva store.
//
// Metrics exports Prometheus collectors for mutation counts, notification
// fan-out, and live key/listener gauges. Tracing emits an OpenTelemetry span
// per mutation. Both implement keyva.Observer and are installed with
// keyva.WithObserver or Store.Observe:
//
//	st := keyva.New()
//	telemetry.Instrument(st)
//	st.Observe(telemetry.Tracing(telemetry.WithTracerName("my-app")))
package telemetry
