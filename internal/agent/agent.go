// Package agent runs the conversation loop between the user, the
// dispatcher model and the mail capabilities.
//
// For one user input the agent calls the model, executes every capability
// call of the reply in order, appends the results to the history and calls
// the model again, until a reply carries no calls. Capability failures are
// fed back to the model as text; only model errors end a turn with an error.
package agent

import (
	"context"
	"fmt"
	"log/slog"

	"github.com/google/uuid"

	"github.com/teemow/mailpilot/internal/instrumentation"
	"github.com/teemow/mailpilot/internal/llm"
	"github.com/teemow/mailpilot/internal/logging"
	"github.com/teemow/mailpilot/internal/tools/common"
)

// DefaultMaxRounds bounds the model invocations of one turn.
const DefaultMaxRounds = 8

// RoundLimitMessage is the answer when a turn exceeds its rounds.
const RoundLimitMessage = "I could not complete this request: too many tool calls were needed. Please try again with a more specific request."

// Options configures an Agent.
type Options struct {
	// System overrides SystemPrompt.
	System    string
	MaxRounds int
	Logger    *slog.Logger
}

// Agent is the tool orchestrator. It is not safe for concurrent turns; the
// capabilities share the fetched-record store.
type Agent struct {
	model     llm.ChatModel
	caps      map[string]common.Capability
	tools     []llm.ToolDefinition
	system    string
	maxRounds int
	logger    *slog.Logger
}

// New returns an Agent offering caps to model.
func New(model llm.ChatModel, caps []common.Capability, opts Options) *Agent {
	if opts.System == "" {
		opts.System = SystemPrompt
	}
	if opts.MaxRounds <= 0 {
		opts.MaxRounds = DefaultMaxRounds
	}
	byName := make(map[string]common.Capability, len(caps))
	for _, c := range caps {
		byName[c.Definition().Name] = c
	}
	return &Agent{
		model:     model,
		caps:      byName,
		tools:     common.Definitions(caps),
		system:    opts.System,
		maxRounds: opts.MaxRounds,
		logger:    logging.WithComponent(opts.Logger, "agent"),
	}
}

// Respond runs one turn and returns the model's final answer.
func (a *Agent) Respond(ctx context.Context, input string) (answer string, err error) {
	turnID := uuid.NewString()
	ctx = common.WithTurnID(ctx, turnID)
	ctx, span := instrumentation.StartTurnSpan(ctx, turnID)
	defer func() { instrumentation.EndSpan(span, err) }()

	logger := a.logger.With(logging.Turn(turnID))
	history := []llm.Message{llm.UserMessage(input)}

	for round := 1; round <= a.maxRounds; round++ {
		resp, err := a.model.Chat(ctx, llm.Request{
			System:   a.system,
			Messages: history,
			Tools:    a.tools,
		})
		if err != nil {
			logger.Error("model invocation failed", "round", round, logging.Err(err))
			return "", fmt.Errorf("model invocation failed: %w", err)
		}

		if resp == nil {
			resp = &llm.Response{}
		}
		if len(resp.ToolCalls) == 0 {
			logger.Debug("turn finished", "rounds", round)
			return resp.Text, nil
		}

		if round == a.maxRounds {
			// The results could never be reported back, so nothing runs.
			logger.Warn("turn exceeded round limit", "max_rounds", a.maxRounds, "dropped_calls", len(resp.ToolCalls))
			return RoundLimitMessage, nil
		}

		history = append(history, llm.Message{Role: llm.RoleModel, Text: resp.Text, ToolCalls: resp.ToolCalls})
		for _, call := range resp.ToolCalls {
			result := a.execute(ctx, logger, call)
			history = append(history, llm.ToolMessage(call, result))
		}
	}
	return RoundLimitMessage, nil
}

func (a *Agent) execute(ctx context.Context, logger *slog.Logger, call llm.ToolCall) string {
	c, ok := a.caps[call.Name]
	if !ok {
		logger.Warn("model requested unknown capability", logging.Tool(call.Name))
		return fmt.Sprintf("Error: unknown tool %q. Available tools: fetchEmails, sendEmail.", call.Name)
	}

	logger.Debug("executing capability", logging.Tool(call.Name))
	res := common.SafeExecute(ctx, c, call.Args)
	if res.IsError {
		logger.Info("capability reported failure", logging.Tool(call.Name))
	}
	return res.Text
}
