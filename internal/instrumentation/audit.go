package instrumentation

import (
	"context"
	"log/slog"
	"time"

	"go.opentelemetry.io/otel/trace"

	"github.com/teemow/mailpilot/internal/logging"
)

// CapabilityInvocation captures one capability execution for the audit log.
//
// Recipient is PII. LogAttrs replaces it with a hash; only an AuditLogger
// configured with IncludePII writes it in clear.
type CapabilityInvocation struct {
	Capability string
	TurnID     string
	Backend    string
	Recipient  string
	Mode       string // "new" or "reply" for sends

	StartTime time.Time
	Duration  time.Duration
	Success   bool
	Error     string

	TraceID string
	SpanID  string
}

// NewCapabilityInvocation creates an invocation with timing started.
// Call Complete when the capability returns.
func NewCapabilityInvocation(capability string) *CapabilityInvocation {
	return &CapabilityInvocation{
		Capability: capability,
		StartTime:  time.Now(),
	}
}

// WithTurn sets the orchestrator turn id.
func (ci *CapabilityInvocation) WithTurn(turnID string) *CapabilityInvocation {
	ci.TurnID = turnID
	return ci
}

// WithBackend sets the mailbox backend name.
func (ci *CapabilityInvocation) WithBackend(backend string) *CapabilityInvocation {
	ci.Backend = backend
	return ci
}

// WithSend records the recipient and send mode.
func (ci *CapabilityInvocation) WithSend(recipient, mode string) *CapabilityInvocation {
	ci.Recipient = recipient
	ci.Mode = mode
	return ci
}

// WithSpanContext copies trace and span ids from the current span.
func (ci *CapabilityInvocation) WithSpanContext(ctx context.Context) *CapabilityInvocation {
	sc := trace.SpanFromContext(ctx).SpanContext()
	if sc.IsValid() {
		ci.TraceID = sc.TraceID().String()
		ci.SpanID = sc.SpanID().String()
	}
	return ci
}

// Complete marks the invocation finished and computes its duration.
// failure is the user-facing failure text, empty on success.
func (ci *CapabilityInvocation) Complete(success bool, failure string) *CapabilityInvocation {
	ci.Duration = time.Since(ci.StartTime)
	ci.Success = success
	ci.Error = failure
	return ci
}

// Status returns StatusSuccess or StatusError.
func (ci *CapabilityInvocation) Status() string {
	if ci.Success {
		return StatusSuccess
	}
	return StatusError
}

// LogAttrs returns attributes with the recipient anonymized.
func (ci *CapabilityInvocation) LogAttrs() []slog.Attr {
	attrs := ci.baseAttrs()
	if ci.Recipient != "" {
		attrs = append(attrs, logging.UserHash(ci.Recipient), logging.Domain(ci.Recipient))
	}
	return attrs
}

// LogAuditAttrs returns attributes including the clear-text recipient.
func (ci *CapabilityInvocation) LogAuditAttrs() []slog.Attr {
	attrs := ci.baseAttrs()
	if ci.Recipient != "" {
		attrs = append(attrs, slog.String("recipient", ci.Recipient))
	}
	if ci.SpanID != "" {
		attrs = append(attrs, slog.String("span_id", ci.SpanID))
	}
	return attrs
}

func (ci *CapabilityInvocation) baseAttrs() []slog.Attr {
	attrs := []slog.Attr{
		slog.String("capability", ci.Capability),
		slog.Duration("duration", ci.Duration),
		slog.Bool("success", ci.Success),
	}
	if ci.TurnID != "" {
		attrs = append(attrs, logging.Turn(ci.TurnID))
	}
	if ci.Backend != "" {
		attrs = append(attrs, logging.Backend(ci.Backend))
	}
	if ci.Mode != "" {
		attrs = append(attrs, slog.String("mode", ci.Mode))
	}
	if ci.TraceID != "" {
		attrs = append(attrs, slog.String("trace_id", ci.TraceID))
	}
	if ci.Error != "" {
		attrs = append(attrs, slog.String("error", ci.Error))
	}
	return attrs
}

// AuditLogger writes one structured entry per capability invocation.
type AuditLogger struct {
	logger     *slog.Logger
	includePII bool
	enabled    bool
}

// NewAuditLogger creates an enabled AuditLogger that anonymizes recipients.
func NewAuditLogger(logger *slog.Logger) *AuditLogger {
	return NewAuditLoggerWithConfig(logger, AuditLoggingConfig{Enabled: true})
}

// NewAuditLoggerWithConfig creates an AuditLogger with the given configuration.
func NewAuditLoggerWithConfig(logger *slog.Logger, config AuditLoggingConfig) *AuditLogger {
	return &AuditLogger{
		logger:     logging.OrDefault(logger),
		includePII: config.IncludePII,
		enabled:    config.Enabled,
	}
}

// LogInvocation writes ci at Info on success and Warn on failure.
// A nil AuditLogger is a no-op.
func (al *AuditLogger) LogInvocation(ci *CapabilityInvocation) {
	if al == nil || !al.enabled || ci == nil {
		return
	}

	var attrs []slog.Attr
	if al.includePII {
		attrs = ci.LogAuditAttrs()
	} else {
		attrs = ci.LogAttrs()
	}

	args := make([]any, len(attrs))
	for i, attr := range attrs {
		args[i] = attr
	}

	if ci.Success {
		al.logger.Info("capability_executed", args...)
	} else {
		al.logger.Warn("capability_failed", args...)
	}
}
