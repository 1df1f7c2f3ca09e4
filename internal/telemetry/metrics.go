// Package telemetry provides OpenTelemetry instrumentation for sync runs.
package telemetry

import (
	"context"

	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/metric"

	"github.com/aretw0/murmur/pkg/syncer"
)

// SyncMetricsMeterName is the name used for the sync metrics meter
const SyncMetricsMeterName = "github.com/aretw0/murmur/sync"

// Instrument names.
const (
	RunsMetric     = "murmur_sync_runs_total"
	DurationMetric = "murmur_sync_duration_seconds"
	RecordsMetric  = "murmur_sync_records_total"
)

// SyncMetrics holds the OpenTelemetry instruments for sync runs.
// It implements syncer.Reporter.
type SyncMetrics struct {
	runs     metric.Int64Counter
	duration metric.Float64Histogram
	records  metric.Int64Counter
}

// NewSyncMetrics creates a new SyncMetrics instance with the given meter provider.
// If provider is nil, it returns nil (no-op metrics).
func NewSyncMetrics(provider metric.MeterProvider) (*SyncMetrics, error) {
	if provider == nil {
		return nil, nil
	}

	meter := provider.Meter(SyncMetricsMeterName)

	runs, err := meter.Int64Counter(
		RunsMetric,
		metric.WithDescription("Number of sync runs per kind and status"),
		metric.WithUnit("{run}"),
	)
	if err != nil {
		return nil, err
	}

	duration, err := meter.Float64Histogram(
		DurationMetric,
		metric.WithDescription("Duration of sync runs in seconds"),
		metric.WithUnit("s"),
		metric.WithExplicitBucketBoundaries(0.01, 0.05, 0.1, 0.5, 1, 2.5, 5, 10, 30),
	)
	if err != nil {
		return nil, err
	}

	records, err := meter.Int64Counter(
		RecordsMetric,
		metric.WithDescription("Records moved by sync runs, by direction"),
		metric.WithUnit("{record}"),
	)
	if err != nil {
		return nil, err
	}

	return &SyncMetrics{
		runs:     runs,
		duration: duration,
		records:  records,
	}, nil
}

// Report records one outcome.
func (m *SyncMetrics) Report(ctx context.Context, outcome syncer.Outcome) {
	if m == nil || m.runs == nil {
		return
	}

	kind := attribute.String("kind", string(outcome.Kind))
	status := attribute.String("status", string(outcome.Status))

	m.runs.Add(ctx, 1, metric.WithAttributes(kind, status))
	m.duration.Record(ctx, outcome.Duration.Seconds(), metric.WithAttributes(kind, status))

	for direction, n := range map[string]int{
		"pushed":      outcome.Pushed,
		"pulled":      outcome.Pulled,
		"push_failed": outcome.PushFailed,
		"skipped":     outcome.Skipped,
	} {
		if n == 0 {
			continue
		}
		m.records.Add(ctx, int64(n), metric.WithAttributes(kind, attribute.String("direction", direction)))
	}
}

var _ syncer.Reporter = (*SyncMetrics)(nil)
