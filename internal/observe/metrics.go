// Package observe provides application-wide observability primitives for
// Awaaz: OpenTelemetry metrics, distributed tracing, structured logging, and
// HTTP middleware that ties them together.
//
// Metrics are recorded through the OpenTelemetry Metrics API. A Prometheus
// exporter bridge is available via [InitProvider] so that metrics can still be
// scraped via the standard /metrics endpoint. A package-level default
// [Metrics] instance ([DefaultMetrics]) is provided for convenience; tests
// should use [NewMetrics] with a custom [metric.MeterProvider] to avoid
// cross-test pollution.
package observe

import (
	"context"
	"sync"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/metric"
)

// meterName is the instrumentation scope name used for all Awaaz metrics.
const meterName = "github.com/awaaz-ai/awaaz"

// Metrics holds all OpenTelemetry metric instruments for the application.
// All fields are safe for concurrent use — the underlying OTel types handle
// their own synchronisation.
type Metrics struct {
	// --- Latency histograms ---

	// GateDuration tracks per-frame speech gate decision latency.
	GateDuration metric.Float64Histogram

	// SessionDuration tracks total lifetime of relay sessions.
	SessionDuration metric.Float64Histogram

	// --- Frame counters ---

	// FramesForwarded counts client audio frames forwarded to the AI
	// service.
	FramesForwarded metric.Int64Counter

	// FramesMuted counts client frames replaced with silence because the
	// gate judged them not-speech.
	FramesMuted metric.Int64Counter

	// FramesDropped counts client frames discarded at admission while the
	// assistant was speaking.
	FramesDropped metric.Int64Counter

	// --- Error counters ---

	// RelayErrors counts relay failures. Use with attribute:
	//   attribute.String("stage", ...)
	RelayErrors metric.Int64Counter

	// --- Gauges ---

	// ActiveSessions tracks the number of live relay sessions.
	ActiveSessions metric.Int64UpDownCounter

	// --- HTTP middleware ---

	// HTTPRequestDuration tracks HTTP request processing time. Use with attributes:
	//   attribute.String("method", ...), attribute.String("path", ...)
	HTTPRequestDuration metric.Float64Histogram
}

// latencyBuckets defines histogram bucket boundaries (in seconds) optimised
// for per-frame gate decisions and short HTTP handlers.
var latencyBuckets = []float64{
	0.0005, 0.001, 0.0025, 0.005, 0.01, 0.025, 0.05, 0.1, 0.25, 0.5, 1,
}

// sessionBuckets defines histogram bucket boundaries (in seconds) for whole
// session lifetimes.
var sessionBuckets = []float64{
	1, 5, 15, 30, 60, 120, 300, 600, 1200, 1800,
}

// NewMetrics creates a fully initialised [Metrics] struct using the given
// [metric.MeterProvider]. Returns an error if any instrument creation fails.
func NewMetrics(mp metric.MeterProvider) (*Metrics, error) {
	m := mp.Meter(meterName)
	var err error
	met := &Metrics{}

	// Histograms.
	if met.GateDuration, err = m.Float64Histogram("awaaz.gate.duration",
		metric.WithDescription("Latency of per-frame speech gate decisions."),
		metric.WithUnit("s"),
		metric.WithExplicitBucketBoundaries(latencyBuckets...),
	); err != nil {
		return nil, err
	}
	if met.SessionDuration, err = m.Float64Histogram("awaaz.session.duration",
		metric.WithDescription("Lifetime of relay sessions."),
		metric.WithUnit("s"),
		metric.WithExplicitBucketBoundaries(sessionBuckets...),
	); err != nil {
		return nil, err
	}

	// Counters.
	if met.FramesForwarded, err = m.Int64Counter("awaaz.frames.forwarded",
		metric.WithDescription("Total client audio frames forwarded to the AI service."),
	); err != nil {
		return nil, err
	}
	if met.FramesMuted, err = m.Int64Counter("awaaz.frames.muted",
		metric.WithDescription("Total client frames muted to silence by the speech gate."),
	); err != nil {
		return nil, err
	}
	if met.FramesDropped, err = m.Int64Counter("awaaz.frames.dropped",
		metric.WithDescription("Total client frames dropped while the assistant was speaking."),
	); err != nil {
		return nil, err
	}

	// Error counters.
	if met.RelayErrors, err = m.Int64Counter("awaaz.relay.errors",
		metric.WithDescription("Total relay errors by pipeline stage."),
	); err != nil {
		return nil, err
	}

	// Gauges (UpDownCounters).
	if met.ActiveSessions, err = m.Int64UpDownCounter("awaaz.active_sessions",
		metric.WithDescription("Number of live relay sessions."),
	); err != nil {
		return nil, err
	}

	// HTTP middleware histogram.
	if met.HTTPRequestDuration, err = m.Float64Histogram("awaaz.http.request.duration",
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

// Attr is a convenience alias for [attribute.String] to reduce verbosity at
// call sites.
func Attr(key, value string) attribute.KeyValue {
	return attribute.String(key, value)
}

// RecordRelayError is a convenience method that records a relay error counter
// increment tagged with the failing pipeline stage.
func (m *Metrics) RecordRelayError(ctx context.Context, stage string) {
	m.RelayErrors.Add(ctx, 1,
		metric.WithAttributes(attribute.String("stage", stage)),
	)
}
