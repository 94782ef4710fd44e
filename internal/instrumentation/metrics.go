package instrumentation

import (
	"context"
	"fmt"
	"time"

	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/metric"
)

const (
	attrStatus     = "status"
	attrCapability = "capability"
	attrBackend    = "backend"
	attrOperation  = "operation"
	attrPurpose    = "purpose"
	attrComponent  = "component"
	attrOutcome    = "outcome"
)

var durationBuckets = []float64{0.01, 0.05, 0.1, 0.25, 0.5, 1.0, 2.5, 5.0, 10.0, 30.0}

// Metrics records mailpilot's counters and histograms. The zero value is a
// valid recorder that drops everything, so callers never need a nil check.
type Metrics struct {
	capabilityTotal    metric.Int64Counter
	capabilityDuration metric.Float64Histogram

	mailboxTotal    metric.Int64Counter
	mailboxDuration metric.Float64Histogram

	modelTotal    metric.Int64Counter
	modelDuration metric.Float64Histogram

	fallbacksTotal   metric.Int64Counter
	resolutionsTotal metric.Int64Counter
}

// NewMetrics creates all instruments on meter.
func NewMetrics(meter metric.Meter) (*Metrics, error) {
	m := &Metrics{}
	var err error

	if m.capabilityTotal, err = meter.Int64Counter("capability_invocations_total",
		metric.WithDescription("Total number of capability invocations"),
		metric.WithUnit("{invocation}")); err != nil {
		return nil, fmt.Errorf("failed to create capability_invocations_total counter: %w", err)
	}
	if m.capabilityDuration, err = meter.Float64Histogram("capability_duration_seconds",
		metric.WithDescription("Capability execution duration in seconds"),
		metric.WithUnit("s"),
		metric.WithExplicitBucketBoundaries(durationBuckets...)); err != nil {
		return nil, fmt.Errorf("failed to create capability_duration_seconds histogram: %w", err)
	}

	if m.mailboxTotal, err = meter.Int64Counter("mailbox_operations_total",
		metric.WithDescription("Total number of mailbox backend operations"),
		metric.WithUnit("{operation}")); err != nil {
		return nil, fmt.Errorf("failed to create mailbox_operations_total counter: %w", err)
	}
	if m.mailboxDuration, err = meter.Float64Histogram("mailbox_operation_duration_seconds",
		metric.WithDescription("Mailbox backend operation duration in seconds"),
		metric.WithUnit("s"),
		metric.WithExplicitBucketBoundaries(durationBuckets...)); err != nil {
		return nil, fmt.Errorf("failed to create mailbox_operation_duration_seconds histogram: %w", err)
	}

	if m.modelTotal, err = meter.Int64Counter("model_calls_total",
		metric.WithDescription("Total number of language model calls"),
		metric.WithUnit("{call}")); err != nil {
		return nil, fmt.Errorf("failed to create model_calls_total counter: %w", err)
	}
	if m.modelDuration, err = meter.Float64Histogram("model_call_duration_seconds",
		metric.WithDescription("Language model call duration in seconds"),
		metric.WithUnit("s"),
		metric.WithExplicitBucketBoundaries(durationBuckets...)); err != nil {
		return nil, fmt.Errorf("failed to create model_call_duration_seconds histogram: %w", err)
	}

	if m.fallbacksTotal, err = meter.Int64Counter("fallbacks_total",
		metric.WithDescription("Times a component used its deterministic fallback"),
		metric.WithUnit("{fallback}")); err != nil {
		return nil, fmt.Errorf("failed to create fallbacks_total counter: %w", err)
	}
	if m.resolutionsTotal, err = meter.Int64Counter("resolutions_total",
		metric.WithDescription("Reply identifier resolutions by outcome"),
		metric.WithUnit("{resolution}")); err != nil {
		return nil, fmt.Errorf("failed to create resolutions_total counter: %w", err)
	}

	return m, nil
}

// RecordCapability records one capability execution.
func (m *Metrics) RecordCapability(ctx context.Context, capability, status string, duration time.Duration) {
	if m == nil || m.capabilityTotal == nil {
		return
	}
	attrs := metric.WithAttributes(
		attribute.String(attrCapability, capability),
		attribute.String(attrStatus, status),
	)
	m.capabilityTotal.Add(ctx, 1, attrs)
	m.capabilityDuration.Record(ctx, duration.Seconds(), attrs)
}

// RecordMailboxOperation records one call into a mailbox backend.
//
// Parameters:
//   - backend: BackendGmail or BackendIMAP
//   - operation: OperationList or OperationSend
//   - status: StatusSuccess or StatusError
func (m *Metrics) RecordMailboxOperation(ctx context.Context, backend, operation, status string, duration time.Duration) {
	if m == nil || m.mailboxTotal == nil {
		return
	}
	attrs := metric.WithAttributes(
		attribute.String(attrBackend, backend),
		attribute.String(attrOperation, operation),
		attribute.String(attrStatus, status),
	)
	m.mailboxTotal.Add(ctx, 1, attrs)
	m.mailboxDuration.Record(ctx, duration.Seconds(), attrs)
}

// RecordModelCall records one generative call, keyed by what it was for.
func (m *Metrics) RecordModelCall(ctx context.Context, purpose, status string, duration time.Duration) {
	if m == nil || m.modelTotal == nil {
		return
	}
	attrs := metric.WithAttributes(
		attribute.String(attrPurpose, purpose),
		attribute.String(attrStatus, status),
	)
	m.modelTotal.Add(ctx, 1, attrs)
	m.modelDuration.Record(ctx, duration.Seconds(), attrs)
}

// RecordFallback counts a component falling back to deterministic output.
func (m *Metrics) RecordFallback(ctx context.Context, component string) {
	if m == nil || m.fallbacksTotal == nil {
		return
	}
	m.fallbacksTotal.Add(ctx, 1, metric.WithAttributes(attribute.String(attrComponent, component)))
}

// RecordResolution counts a resolver outcome (unique, ambiguous, not_found).
func (m *Metrics) RecordResolution(ctx context.Context, outcome string) {
	if m == nil || m.resolutionsTotal == nil {
		return
	}
	m.resolutionsTotal.Add(ctx, 1, metric.WithAttributes(attribute.String(attrOutcome, outcome)))
}

// StatusOf maps an error to a status label value.
func StatusOf(err error) string {
	if err != nil {
		return StatusError
	}
	return StatusSuccess
}
