package common

import (
	"context"
	"encoding/json"
	"fmt"

	"github.com/mark3labs/mcp-go/mcp"
	mcpserver "github.com/mark3labs/mcp-go/server"
)

// MCPTool converts a capability definition into an MCP tool.
func MCPTool(c Capability) (mcp.Tool, error) {
	def := c.Definition()
	schema, err := json.Marshal(def.InputSchema)
	if err != nil {
		return mcp.Tool{}, fmt.Errorf("failed to encode schema for %s: %w", def.Name, err)
	}
	return mcp.NewToolWithRawSchema(def.Name, def.Description, schema), nil
}

// MCPHandler adapts a capability to an MCP tool handler.
func MCPHandler(c Capability) mcpserver.ToolHandlerFunc {
	return func(ctx context.Context, request mcp.CallToolRequest) (*mcp.CallToolResult, error) {
		res := SafeExecute(ctx, c, request.GetArguments())
		if res.IsError {
			return mcp.NewToolResultError(res.Text), nil
		}
		return mcp.NewToolResultText(res.Text), nil
	}
}

// RegisterMCP adds every capability to s.
func RegisterMCP(s *mcpserver.MCPServer, caps ...Capability) error {
	for _, c := range caps {
		tool, err := MCPTool(c)
		if err != nil {
			return err
		}
		s.AddTool(tool, MCPHandler(c))
	}
	return nil
}
