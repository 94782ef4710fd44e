package common

import (
	"context"
	"fmt"

	"github.com/teemow/mailpilot/internal/llm"
)

// Delivery describes a sent message for audit logging.
type Delivery struct {
	Recipient string
	// Mode is "new" or "reply".
	Mode string
}

// Result is the textual outcome of a capability. IsError marks failures so
// the MCP surface can flag them; the agent passes Text to the model either
// way.
type Result struct {
	Text    string
	IsError bool
	Sent    *Delivery
}

// TextResult returns a successful result.
func TextResult(text string) Result {
	return Result{Text: text}
}

// ErrorResult returns a failed result.
func ErrorResult(text string) Result {
	return Result{Text: text, IsError: true}
}

// Errorf formats a failed result.
func Errorf(format string, args ...any) Result {
	return ErrorResult(fmt.Sprintf(format, args...))
}

// Capability is a named operation the model may invoke.
type Capability interface {
	Definition() llm.ToolDefinition
	Execute(ctx context.Context, args map[string]any) Result
}

// SafeExecute runs c, turning a panic into a failed result.
func SafeExecute(ctx context.Context, c Capability, args map[string]any) (res Result) {
	defer func() {
		if r := recover(); r != nil {
			res = Errorf("Error: %s failed unexpectedly: %v", c.Definition().Name, r)
		}
	}()
	return c.Execute(ctx, args)
}

// Definitions returns the tool definitions of caps, in order.
func Definitions(caps []Capability) []llm.ToolDefinition {
	defs := make([]llm.ToolDefinition, len(caps))
	for i, c := range caps {
		defs[i] = c.Definition()
	}
	return defs
}
