package common

import (
	"context"
	"time"

	"github.com/teemow/mailpilot/internal/instrumentation"
)

type turnKey struct{}

// WithTurnID tags ctx with the agent turn executing a capability.
func WithTurnID(ctx context.Context, id string) context.Context {
	return context.WithValue(ctx, turnKey{}, id)
}

// TurnID returns the turn id set by WithTurnID.
func TurnID(ctx context.Context) string {
	id, _ := ctx.Value(turnKey{}).(string)
	return id
}

// Instrumentation holds the optional observers of capability execution.
type Instrumentation struct {
	Metrics *instrumentation.Metrics
	Audit   *instrumentation.AuditLogger
	// Backend labels audit entries with the mailbox backend in use.
	Backend string
}

type instrumented struct {
	Capability
	inst Instrumentation
}

// Instrumented wraps c with a span, metrics and audit logging. Panics are
// recovered into failed results.
//
// Usage:
//
//	caps := []common.Capability{common.Instrumented(fetch, inst)}
func Instrumented(c Capability, inst Instrumentation) Capability {
	return &instrumented{Capability: c, inst: inst}
}

func (i *instrumented) Execute(ctx context.Context, args map[string]any) Result {
	name := i.Definition().Name
	ctx, span := instrumentation.StartCapabilitySpan(ctx, name)
	defer span.End()

	start := time.Now()
	invocation := instrumentation.NewCapabilityInvocation(name).
		WithTurn(TurnID(ctx)).
		WithBackend(i.inst.Backend).
		WithSpanContext(ctx)

	res := SafeExecute(ctx, i.Capability, args)
	duration := time.Since(start)

	status := instrumentation.StatusSuccess
	failure := ""
	if res.IsError {
		status = instrumentation.StatusError
		failure = res.Text
		instrumentation.SetSpanError(span, capabilityError(res.Text))
	} else {
		instrumentation.SetSpanSuccess(span)
	}
	if res.Sent != nil {
		invocation.WithSend(res.Sent.Recipient, res.Sent.Mode)
	}
	invocation.Complete(!res.IsError, failure)

	i.inst.Metrics.RecordCapability(ctx, name, status, duration)
	i.inst.Audit.LogInvocation(invocation)
	return res
}

type capabilityError string

func (e capabilityError) Error() string { return string(e) }
