// Package instrumentation provides OpenTelemetry metrics, tracing and audit
// logging for mailpilot.
//
// # Metrics
//
//   - capability_invocations_total, capability_duration_seconds: by capability and status
//   - mailbox_operations_total, mailbox_operation_duration_seconds: by backend, operation and status
//   - model_calls_total, model_call_duration_seconds: by purpose (dispatch, compose, classify) and status
//   - fallbacks_total: compose or categorize falling back to deterministic output
//   - resolutions_total: reply identifier resolution by outcome
//
// # Tracing
//
// Spans are created for each orchestrator turn (agent.turn), capability
// execution (capability.<name>), mailbox call (mailbox.<backend>.<op>) and
// model call (model.<purpose>).
//
// # Configuration
//
// Environment variables:
//   - MAILPILOT_INSTRUMENTATION_ENABLED: enable or disable (default: true)
//   - METRICS_EXPORTER: prometheus, otlp or stdout (default: prometheus)
//   - TRACING_EXPORTER: otlp, stdout or none (default: none)
//   - OTEL_EXPORTER_OTLP_ENDPOINT: OTLP endpoint for traces and metrics
//   - OTEL_TRACES_SAMPLER_ARG: sampling rate (default: 0.1)
//   - AUDIT_LOGGING_ENABLED, AUDIT_LOGGING_INCLUDE_PII
//
// # Example Usage
//
//	provider, err := instrumentation.NewProvider(ctx, instrumentation.DefaultConfig())
//	if err != nil {
//		return err
//	}
//	defer provider.Shutdown(ctx)
//
//	provider.Metrics().RecordMailboxOperation(ctx, instrumentation.BackendGmail,
//		instrumentation.OperationList, instrumentation.StatusSuccess, time.Since(start))
package instrumentation
