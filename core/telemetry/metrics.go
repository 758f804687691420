package telemetry

import (
	"context"
	"time"

	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/metric"
)

// MeterName is the instrumentation scope of every instrument in this package.
const MeterName = "table-sync/sync"

// Row outcomes recorded by RecordRow.
const (
	OutcomeCreated   = "created"
	OutcomeUpdated   = "updated"
	OutcomeUnchanged = "unchanged"
	OutcomeError     = "error"
)

// Metrics holds the OpenTelemetry instruments for sync runs.
type Metrics struct {
	requests    metric.Int64Counter
	retries     metric.Int64Counter
	rows        metric.Int64Counter
	runDuration metric.Float64Histogram
}

// NewMetrics creates Metrics on the given provider.
// If provider is nil, it returns nil (no-op metrics).
func NewMetrics(provider metric.MeterProvider) (*Metrics, error) {
	if provider == nil {
		return nil, nil
	}

	meter := provider.Meter(MeterName)

	requests, err := meter.Int64Counter(
		"table_sync_api_requests_total",
		metric.WithDescription("Bitable API requests by method and result"),
		metric.WithUnit("{request}"),
	)
	if err != nil {
		return nil, err
	}

	retries, err := meter.Int64Counter(
		"table_sync_api_retries_total",
		metric.WithDescription("Bitable API attempts that were retried"),
		metric.WithUnit("{retry}"),
	)
	if err != nil {
		return nil, err
	}

	rows, err := meter.Int64Counter(
		"table_sync_rows_total",
		metric.WithDescription("Source rows processed by outcome"),
		metric.WithUnit("{row}"),
	)
	if err != nil {
		return nil, err
	}

	runDuration, err := meter.Float64Histogram(
		"table_sync_run_duration_seconds",
		metric.WithDescription("Duration of sync runs in seconds"),
		metric.WithUnit("s"),
		metric.WithExplicitBucketBoundaries(0.5, 1, 2.5, 5, 10, 30, 60, 120, 300, 600),
	)
	if err != nil {
		return nil, err
	}

	return &Metrics{
		requests:    requests,
		retries:     retries,
		rows:        rows,
		runDuration: runDuration,
	}, nil
}

// RecordRequest counts one completed API call.
func (m *Metrics) RecordRequest(ctx context.Context, method string, success bool) {
	if m == nil || m.requests == nil {
		return
	}
	m.requests.Add(ctx, 1, metric.WithAttributes(
		attribute.String("method", method),
		attribute.Bool("success", success),
	))
}

// RecordRetry counts one retried attempt.
func (m *Metrics) RecordRetry(ctx context.Context, reason string) {
	if m == nil || m.retries == nil {
		return
	}
	m.retries.Add(ctx, 1, metric.WithAttributes(attribute.String("reason", reason)))
}

// RecordRow adds n rows with the given outcome for table.
func (m *Metrics) RecordRow(ctx context.Context, table, outcome string, n int) {
	if m == nil || m.rows == nil || n <= 0 {
		return
	}
	m.rows.Add(ctx, int64(n), metric.WithAttributes(
		attribute.String("table", table),
		attribute.String("outcome", outcome),
	))
}

// RecordRun records the duration of a sync run.
func (m *Metrics) RecordRun(ctx context.Context, table, mode string, duration time.Duration, success bool) {
	if m == nil || m.runDuration == nil {
		return
	}
	m.runDuration.Record(ctx, duration.Seconds(), metric.WithAttributes(
		attribute.String("table", table),
		attribute.String("mode", mode),
		attribute.Bool("success", success),
	))
}
