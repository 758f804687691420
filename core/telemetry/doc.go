// Package telemetry provides OpenTelemetry metrics for sync runs and the
// bitable request layer.
//
// Instruments live on nil-safe structs: a nil *Metrics records nothing, so
// callers never branch on whether telemetry is configured.
//
// # Meter provider
//
// NewMeterProvider returns a no-op provider unless metrics are enabled, in
// which case measurements are pushed through an OTLP/HTTP exporter on a
// periodic reader.
package telemetry
