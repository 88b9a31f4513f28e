// Package observe provides application-wide observability primitives for
// Lorescribe: OpenTelemetry metrics and HTTP middleware.
//
// Metrics are recorded through the OpenTelemetry Metrics API. A Prometheus
// exporter bridge is available via [InitProvider] so that metrics can be
// scraped via the standard /metrics endpoint. A package-level default
// [Metrics] instance ([DefaultMetrics]) is provided for convenience; tests
// should use [NewMetrics] with a custom [metric.MeterProvider] to avoid
// cross-test pollution.
package observe

import (
	"context"
	"sync"
	"time"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/metric"
)

// meterName is the instrumentation scope name used for all Lorescribe metrics.
const meterName = "github.com/lorescribe/lorescribe"

// Metrics holds all OpenTelemetry metric instruments for the application.
// All fields are safe for concurrent use — the underlying OTel types handle
// their own synchronisation.
type Metrics struct {
	// --- Latency histograms per pipeline stage ---

	// ExtractionDuration tracks candidate extraction latency per transcript.
	ExtractionDuration metric.Float64Histogram

	// StoreDuration tracks remote store round-trip latency. Use with
	// attribute.String("op", ...).
	StoreDuration metric.Float64Histogram

	// --- Counters ---

	// ChunkUploads counts transcript chunk uploads. Use with attribute:
	//   attribute.String("status", "ok"|"error")
	ChunkUploads metric.Int64Counter

	// CandidatesExtracted counts extracted entity candidates. Use with
	// attribute.Bool("low_confidence", ...).
	CandidatesExtracted metric.Int64Counter

	// EntitiesConfirmed counts candidates promoted to confirmed entities.
	EntitiesConfirmed metric.Int64Counter

	// SessionsFinished counts ended recording sessions. Use with attribute:
	//   attribute.String("status", "completed"|"error")
	SessionsFinished metric.Int64Counter

	// --- Gauges ---

	// ActiveRecordings tracks the number of live recording sessions.
	ActiveRecordings metric.Int64UpDownCounter

	// --- HTTP middleware ---

	// HTTPRequestDuration tracks HTTP request processing time. Use with attributes:
	//   attribute.String("method", ...), attribute.String("path", ...)
	HTTPRequestDuration metric.Float64Histogram
}

// latencyBuckets defines histogram bucket boundaries (in seconds) sized for
// extraction and store round-trip latencies.
var latencyBuckets = []float64{
	0.01, 0.025, 0.05, 0.1, 0.25, 0.5, 1, 2.5, 5, 10,
}

// NewMetrics creates a fully initialised [Metrics] struct using the given
// [metric.MeterProvider]. Returns an error if any instrument creation fails.
func NewMetrics(mp metric.MeterProvider) (*Metrics, error) {
	m := mp.Meter(meterName)
	var err error
	met := &Metrics{}

	// Histograms.
	if met.ExtractionDuration, err = m.Float64Histogram("lorescribe.extraction.duration",
		metric.WithDescription("Latency of entity candidate extraction per transcript."),
		metric.WithUnit("s"),
		metric.WithExplicitBucketBoundaries(latencyBuckets...),
	); err != nil {
		return nil, err
	}
	if met.StoreDuration, err = m.Float64Histogram("lorescribe.store.duration",
		metric.WithDescription("Latency of remote store operations by op."),
		metric.WithUnit("s"),
		metric.WithExplicitBucketBoundaries(latencyBuckets...),
	); err != nil {
		return nil, err
	}

	// Counters.
	if met.ChunkUploads, err = m.Int64Counter("lorescribe.chunk.uploads",
		metric.WithDescription("Total transcript chunk uploads by status."),
	); err != nil {
		return nil, err
	}
	if met.CandidatesExtracted, err = m.Int64Counter("lorescribe.candidates.extracted",
		metric.WithDescription("Total extracted entity candidates by confidence band."),
	); err != nil {
		return nil, err
	}
	if met.EntitiesConfirmed, err = m.Int64Counter("lorescribe.entities.confirmed",
		metric.WithDescription("Total candidates promoted to confirmed entities."),
	); err != nil {
		return nil, err
	}
	if met.SessionsFinished, err = m.Int64Counter("lorescribe.sessions.finished",
		metric.WithDescription("Total ended recording sessions by status."),
	); err != nil {
		return nil, err
	}

	// Gauges (UpDownCounters).
	if met.ActiveRecordings, err = m.Int64UpDownCounter("lorescribe.active_recordings",
		metric.WithDescription("Number of live recording sessions."),
	); err != nil {
		return nil, err
	}

	// HTTP middleware histogram.
	if met.HTTPRequestDuration, err = m.Float64Histogram("lorescribe.http.request.duration",
		metric.WithDescription("HTTP request latency by method and path."),
		metric.WithUnit("s"),
	); err != nil {
		return nil, err
	}

	return met, nil
}

// defaultMetrics is the lazily-initialised package-level Metrics instance.
var (
	defaultMetrics     *Metrics
	defaultMetricsOnce sync.Once
)

// DefaultMetrics returns the package-level [Metrics] instance, creating it on
// first call using [otel.GetMeterProvider]. Subsequent calls return the same
// pointer. Panics if instrument creation fails (should not happen with the
// global provider).
func DefaultMetrics() *Metrics {
	defaultMetricsOnce.Do(func() {
		var err error
		defaultMetrics, err = NewMetrics(otel.GetMeterProvider())
		if err != nil {
			panic("observe: failed to create default metrics: " + err.Error())
		}
	})
	return defaultMetrics
}

// RecordChunkUpload records one transcript chunk upload attempt.
func (m *Metrics) RecordChunkUpload(ctx context.Context, ok bool) {
	status := "ok"
	if !ok {
		status = "error"
	}
	m.ChunkUploads.Add(ctx, 1,
		metric.WithAttributes(attribute.String("status", status)),
	)
}

// RecordCandidates records the outcome of one extraction pass.
func (m *Metrics) RecordCandidates(ctx context.Context, total, lowConfidence int) {
	m.CandidatesExtracted.Add(ctx, int64(total-lowConfidence),
		metric.WithAttributes(attribute.Bool("low_confidence", false)),
	)
	m.CandidatesExtracted.Add(ctx, int64(lowConfidence),
		metric.WithAttributes(attribute.Bool("low_confidence", true)),
	)
}

// RecordStoreOp records the latency of one remote store round-trip that
// started at start, labelled with the operation name.
func (m *Metrics) RecordStoreOp(ctx context.Context, op string, start time.Time) {
	m.StoreDuration.Record(ctx, time.Since(start).Seconds(),
		metric.WithAttributes(attribute.String("op", op)),
	)
}

// RecordConfirmation records one candidate promoted to a confirmed entity.
func (m *Metrics) RecordConfirmation(ctx context.Context) {
	m.EntitiesConfirmed.Add(ctx, 1)
}

// RecordSessionFinished records one ended recording session with its final
// status ("completed" or "error").
func (m *Metrics) RecordSessionFinished(ctx context.Context, status string) {
	m.SessionsFinished.Add(ctx, 1,
		metric.WithAttributes(attribute.String("status", status)),
	)
}
