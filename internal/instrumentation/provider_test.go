package instrumentation

import (
	"context"
	"errors"
	"testing"
	"time"
)

func newTestProvider(t *testing.T) *Provider {
	t.Helper()
	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()

	provider, err := NewProvider(ctx, Config{
		ServiceName:     "test-service",
		ServiceVersion:  "1.0.0",
		Enabled:         true,
		MetricsExporter: ExporterPrometheus,
		TracingExporter: ExporterNone,
	})
	if err != nil {
		t.Fatalf("failed to create provider: %v", err)
	}
	t.Cleanup(func() { _ = provider.Shutdown(context.Background()) })
	return provider
}

func TestNewProvider_Disabled(t *testing.T) {
	provider, err := NewProvider(context.Background(), Config{Enabled: false})
	if err != nil {
		t.Fatalf("expected no error, got %v", err)
	}
	if provider.Enabled() {
		t.Error("expected provider to be disabled")
	}
	if provider.ServesPrometheus() {
		t.Error("disabled provider should not serve prometheus")
	}
	if provider.Metrics() == nil {
		t.Error("expected metrics to be non-nil even when disabled")
	}
	if err := provider.Shutdown(context.Background()); err != nil {
		t.Errorf("expected no error on shutdown, got %v", err)
	}
}

func TestNewProvider_Prometheus(t *testing.T) {
	provider := newTestProvider(t)

	if !provider.Enabled() {
		t.Error("expected provider to be enabled")
	}
	if !provider.ServesPrometheus() {
		t.Error("expected prometheus exporter")
	}
	if provider.Tracer("test") == nil {
		t.Error("expected tracer")
	}
}

func TestNewProvider_InvalidConfig(t *testing.T) {
	_, err := NewProvider(context.Background(), Config{
		Enabled:         true,
		MetricsExporter: "graphite",
	})
	if err == nil {
		t.Fatal("expected error for unsupported exporter")
	}
}

func TestNilProvider(t *testing.T) {
	var p *Provider
	if p.Enabled() {
		t.Error("nil provider should be disabled")
	}
	if p.Metrics() == nil {
		t.Error("nil provider should return a no-op recorder")
	}
	if err := p.Shutdown(context.Background()); err != nil {
		t.Errorf("Shutdown() = %v", err)
	}
}

func TestMetrics_Record(t *testing.T) {
	ctx := context.Background()
	metrics := newTestProvider(t).Metrics()

	// None of these should panic
	metrics.RecordCapability(ctx, "fetchEmails", StatusSuccess, 120*time.Millisecond)
	metrics.RecordMailboxOperation(ctx, BackendGmail, OperationList, StatusSuccess, 80*time.Millisecond)
	metrics.RecordMailboxOperation(ctx, BackendIMAP, OperationSend, StatusError, 40*time.Millisecond)
	metrics.RecordModelCall(ctx, PurposeCompose, StatusError, time.Second)
	metrics.RecordFallback(ctx, ComponentCompose)
	metrics.RecordResolution(ctx, "ambiguous")
}

func TestMetrics_ZeroValueIsNoop(t *testing.T) {
	ctx := context.Background()
	var zero Metrics
	zero.RecordCapability(ctx, "sendEmail", StatusSuccess, time.Millisecond)
	zero.RecordFallback(ctx, ComponentCategorize)

	var nilMetrics *Metrics
	nilMetrics.RecordModelCall(ctx, PurposeDispatch, StatusSuccess, time.Millisecond)
	nilMetrics.RecordResolution(ctx, "unique")
}

func TestStatusOf(t *testing.T) {
	if StatusOf(nil) != StatusSuccess {
		t.Error("nil error should map to success")
	}
	if StatusOf(errors.New("x")) != StatusError {
		t.Error("non-nil error should map to error")
	}
}
