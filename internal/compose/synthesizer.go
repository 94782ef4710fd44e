// Package compose turns a short instruction into a complete email body.
//
// Generation is retried under a RetryPolicy. When every attempt fails, or
// no generator is configured, the body degrades to a fixed text that
// echoes the instruction so a send can still go out.
package compose

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"strings"

	"github.com/teemow/mailpilot/internal/instrumentation"
	"github.com/teemow/mailpilot/internal/llm"
	"github.com/teemow/mailpilot/internal/logging"
)

var errEmptyBody = errors.New("model returned an empty body")

// FallbackBody is the body used when synthesis is unavailable.
func FallbackBody(instruction string) string {
	return "[Automated Response]: Regarding your request, " + instruction
}

// Prompt builds the composition prompt. signature, when set, is the name
// the email is signed with.
func Prompt(instruction, signature string) string {
	var b strings.Builder
	b.WriteString("You are an AI email composer. Your task is to turn the following brief instruction into a polite, professional, and complete email body.\n")
	b.WriteString("Use appropriate greetings, closings, and formatting (newlines for paragraphs).\n")
	b.WriteString("Return only the body text, without a subject line.\n")
	if signature != "" {
		fmt.Fprintf(&b, "At the end of the email add the name %q.\n", signature)
	}
	fmt.Fprintf(&b, "\nINSTRUCTION: %q\n", instruction)
	return b.String()
}

// Options configures a Synthesizer.
type Options struct {
	Policy    RetryPolicy
	Signature string
	Metrics   *instrumentation.Metrics
	Logger    *slog.Logger
}

// Synthesizer composes message bodies.
type Synthesizer struct {
	gen       llm.TextGenerator
	policy    RetryPolicy
	signature string
	metrics   *instrumentation.Metrics
	logger    *slog.Logger
}

// New returns a Synthesizer. gen may be nil, in which case every body is
// the fallback.
func New(gen llm.TextGenerator, opts Options) *Synthesizer {
	return &Synthesizer{
		gen:       gen,
		policy:    opts.Policy.withDefaults(),
		signature: opts.Signature,
		metrics:   opts.Metrics,
		logger:    logging.WithComponent(opts.Logger, "compose"),
	}
}

// Synthesize returns a body for instruction. It never fails.
func (s *Synthesizer) Synthesize(ctx context.Context, instruction string) string {
	if s.gen == nil {
		s.logger.Debug("no generator configured, using fallback body")
		return s.fallback(ctx, instruction)
	}

	prompt := Prompt(instruction, s.signature)
	var body string
	err := s.policy.Do(ctx, func(ctx context.Context, attempt int) error {
		text, err := s.gen.GenerateText(ctx, prompt)
		if err != nil {
			return err
		}
		if strings.TrimSpace(text) == "" {
			return errEmptyBody
		}
		body = strings.TrimSpace(text)
		return nil
	}, func(attempt int, err error) {
		s.logger.Warn("synthesis attempt failed, retrying", logging.Attempt(attempt), logging.Err(err))
	})
	if err != nil {
		s.logger.Error("synthesis failed, using fallback body", logging.Err(err))
		return s.fallback(ctx, instruction)
	}
	return body
}

func (s *Synthesizer) fallback(ctx context.Context, instruction string) string {
	s.metrics.RecordFallback(ctx, instrumentation.ComponentCompose)
	return FallbackBody(instruction)
}
