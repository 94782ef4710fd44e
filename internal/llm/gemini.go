package llm

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"strings"
	"time"

	"google.golang.org/genai"

	"github.com/teemow/mailpilot/internal/instrumentation"
	"github.com/teemow/mailpilot/internal/logging"
)

// Default model settings.
const (
	DefaultDispatchModel = "gemini-2.5-flash"
	DefaultComposeModel  = "gemini-2.5-flash-lite"
	DefaultClassifyModel = "gemini-2.5-flash-lite"

	DefaultDispatchTemperature = 0.3
	DefaultComposeTemperature  = 0.5
	DefaultClassifyTemperature = 0.0
)

// ErrNoAPIKey is returned by NewClient without a key.
var ErrNoAPIKey = errors.New("gemini API key is required")

// Client owns the genai connection shared by all Gemini models.
type Client struct {
	genai   *genai.Client
	metrics *instrumentation.Metrics
	logger  *slog.Logger
}

// NewClient connects to the Gemini API.
func NewClient(ctx context.Context, apiKey string, metrics *instrumentation.Metrics, logger *slog.Logger) (*Client, error) {
	if apiKey == "" {
		return nil, ErrNoAPIKey
	}
	c, err := genai.NewClient(ctx, &genai.ClientConfig{
		APIKey:  apiKey,
		Backend: genai.BackendGeminiAPI,
	})
	if err != nil {
		return nil, fmt.Errorf("failed to create Gemini client: %w", err)
	}
	return &Client{
		genai:   c,
		metrics: metrics,
		logger:  logging.WithComponent(logger, "llm"),
	}, nil
}

// ModelConfig selects a model and its sampling for one purpose.
type ModelConfig struct {
	Model       string
	Temperature float32
	// Purpose labels metrics and spans, for example "dispatch".
	Purpose string
}

// Gemini is a configured model. It implements ChatModel, TextGenerator and
// JSONGenerator.
type Gemini struct {
	client *Client
	cfg    ModelConfig
}

// Model returns a Gemini bound to cfg.
func (c *Client) Model(cfg ModelConfig) *Gemini {
	return &Gemini{client: c, cfg: cfg}
}

// Chat sends the conversation and the tool declarations.
func (g *Gemini) Chat(ctx context.Context, req Request) (*Response, error) {
	contents, err := ToGenaiContents(req.Messages)
	if err != nil {
		return nil, err
	}
	config := g.baseConfig()
	if req.System != "" {
		config.SystemInstruction = genai.NewContentFromText(req.System, genai.RoleUser)
	}
	if len(req.Tools) > 0 {
		tool, err := ToGenaiTool(req.Tools)
		if err != nil {
			return nil, err
		}
		config.Tools = []*genai.Tool{tool}
	}

	resp, err := g.generate(ctx, contents, config)
	if err != nil {
		return nil, err
	}
	return FromGenaiResponse(resp), nil
}

// GenerateText returns the model's text for prompt.
func (g *Gemini) GenerateText(ctx context.Context, prompt string) (string, error) {
	contents := []*genai.Content{genai.NewContentFromText(prompt, genai.RoleUser)}
	resp, err := g.generate(ctx, contents, g.baseConfig())
	if err != nil {
		return "", err
	}
	return resp.Text(), nil
}

// GenerateJSON asks for application/json output constrained by schema.
func (g *Gemini) GenerateJSON(ctx context.Context, system, user string, schema map[string]any) (string, error) {
	s, err := ToGenaiSchema(schema)
	if err != nil {
		return "", fmt.Errorf("invalid response schema: %w", err)
	}
	config := g.baseConfig()
	config.ResponseMIMEType = "application/json"
	config.ResponseSchema = s
	if system != "" {
		config.SystemInstruction = genai.NewContentFromText(system, genai.RoleUser)
	}

	contents := []*genai.Content{genai.NewContentFromText(user, genai.RoleUser)}
	resp, err := g.generate(ctx, contents, config)
	if err != nil {
		return "", err
	}
	return resp.Text(), nil
}

func (g *Gemini) baseConfig() *genai.GenerateContentConfig {
	return &genai.GenerateContentConfig{
		Temperature: genai.Ptr(g.cfg.Temperature),
	}
}

func (g *Gemini) generate(ctx context.Context, contents []*genai.Content, config *genai.GenerateContentConfig) (*genai.GenerateContentResponse, error) {
	ctx, span := instrumentation.StartModelSpan(ctx, g.cfg.Purpose, g.cfg.Model)
	start := time.Now()

	resp, err := g.client.genai.Models.GenerateContent(ctx, g.cfg.Model, contents, config)
	if err != nil {
		err = fmt.Errorf("gemini %s call failed: %w", g.cfg.Purpose, err)
	}

	g.client.metrics.RecordModelCall(ctx, g.cfg.Purpose, instrumentation.StatusOf(err), time.Since(start))
	instrumentation.EndSpan(span, err)
	if err != nil {
		g.client.logger.Debug("model call failed", "purpose", g.cfg.Purpose, logging.Err(err))
		return nil, err
	}
	return resp, nil
}

// ToGenaiContents converts history into Gemini contents. Consecutive tool
// messages are merged into one user turn so every function call of a model
// turn is answered together.
func ToGenaiContents(messages []Message) ([]*genai.Content, error) {
	var contents []*genai.Content
	var pending []*genai.Part

	flush := func() {
		if len(pending) > 0 {
			contents = append(contents, genai.NewContentFromParts(pending, genai.RoleUser))
			pending = nil
		}
	}

	for _, m := range messages {
		switch m.Role {
		case RoleTool:
			if m.Result == nil {
				return nil, fmt.Errorf("tool message without result")
			}
			pending = append(pending, &genai.Part{FunctionResponse: &genai.FunctionResponse{
				ID:       m.Result.CallID,
				Name:     m.Result.Name,
				Response: map[string]any{"output": m.Result.Content},
			}})
		case RoleModel:
			flush()
			var parts []*genai.Part
			if m.Text != "" {
				parts = append(parts, &genai.Part{Text: m.Text})
			}
			for _, call := range m.ToolCalls {
				parts = append(parts, &genai.Part{FunctionCall: &genai.FunctionCall{
					ID:   call.ID,
					Name: call.Name,
					Args: call.Args,
				}})
			}
			if len(parts) == 0 {
				continue
			}
			contents = append(contents, genai.NewContentFromParts(parts, genai.RoleModel))
		case RoleUser:
			flush()
			contents = append(contents, genai.NewContentFromText(m.Text, genai.RoleUser))
		default:
			return nil, fmt.Errorf("unknown message role %q", m.Role)
		}
	}
	flush()
	return contents, nil
}

// ToGenaiTool converts definitions into one Gemini tool.
func ToGenaiTool(defs []ToolDefinition) (*genai.Tool, error) {
	tool := &genai.Tool{}
	for _, d := range defs {
		params, err := ToGenaiSchema(d.InputSchema)
		if err != nil {
			return nil, fmt.Errorf("tool %s: %w", d.Name, err)
		}
		tool.FunctionDeclarations = append(tool.FunctionDeclarations, &genai.FunctionDeclaration{
			Name:        d.Name,
			Description: d.Description,
			Parameters:  params,
		})
	}
	return tool, nil
}

// FromGenaiResponse extracts text and function calls. Calls without an id
// get a positional one so results can be matched.
func FromGenaiResponse(resp *genai.GenerateContentResponse) *Response {
	out := &Response{}
	if resp == nil {
		return out
	}
	for i, fc := range resp.FunctionCalls() {
		if fc == nil {
			continue
		}
		id := fc.ID
		if id == "" {
			id = fmt.Sprintf("call_%d", i)
		}
		args := fc.Args
		if args == nil {
			args = map[string]any{}
		}
		out.ToolCalls = append(out.ToolCalls, ToolCall{ID: id, Name: fc.Name, Args: args})
	}
	if len(out.ToolCalls) == 0 {
		out.Text = strings.TrimSpace(resp.Text())
	}
	return out
}
