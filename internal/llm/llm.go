package llm

import "context"

// Role identifies the author of a Message.
type Role string

const (
	RoleUser  Role = "user"
	RoleModel Role = "model"
	RoleTool  Role = "tool"
)

// ToolCall is a capability invocation proposed by the model.
type ToolCall struct {
	ID   string
	Name string
	Args map[string]any
}

// ToolResult is the textual outcome of one ToolCall.
type ToolResult struct {
	CallID  string
	Name    string
	Content string
}

// Message is one entry of a conversation history. A model message may carry
// ToolCalls; a tool message carries exactly one Result.
type Message struct {
	Role      Role
	Text      string
	ToolCalls []ToolCall
	Result    *ToolResult
}

// UserMessage returns a user message with text.
func UserMessage(text string) Message {
	return Message{Role: RoleUser, Text: text}
}

// ToolMessage returns the tool message answering call.
func ToolMessage(call ToolCall, content string) Message {
	return Message{
		Role:   RoleTool,
		Result: &ToolResult{CallID: call.ID, Name: call.Name, Content: content},
	}
}

// ToolDefinition describes a capability offered to the model. InputSchema
// is a JSON-schema object.
type ToolDefinition struct {
	Name        string
	Description string
	InputSchema map[string]any
}

// Request is one chat invocation.
type Request struct {
	System   string
	Messages []Message
	Tools    []ToolDefinition
}

// Response is the model's reply. When ToolCalls is empty, Text is the final
// answer.
type Response struct {
	Text      string
	ToolCalls []ToolCall
}

// ChatModel runs a tool-calling conversation step.
type ChatModel interface {
	Chat(ctx context.Context, req Request) (*Response, error)
}

// TextGenerator produces free text from a prompt.
type TextGenerator interface {
	GenerateText(ctx context.Context, prompt string) (string, error)
}

// JSONGenerator produces JSON text matching schema.
type JSONGenerator interface {
	GenerateJSON(ctx context.Context, system, user string, schema map[string]any) (string, error)
}
