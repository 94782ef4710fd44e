package mail_tools

import (
	"fmt"
	"log/slog"

	mcpserver "github.com/mark3labs/mcp-go/server"

	"github.com/teemow/mailpilot/internal/instrumentation"
	"github.com/teemow/mailpilot/internal/mailbox"
	"github.com/teemow/mailpilot/internal/tools/common"
)

// Deps are the collaborators of the mail capabilities.
type Deps struct {
	Mailbox     mailbox.Mailbox
	Store       RecordStore
	Categorizer Categorizer
	Resolver    Resolver
	Composer    Synthesizer

	// Backend labels audit entries, for example "gmail".
	Backend string
	Metrics *instrumentation.Metrics
	Audit   *instrumentation.AuditLogger
	Logger  *slog.Logger
}

// Capabilities returns fetchEmails and sendEmail, instrumented.
func Capabilities(d Deps) []common.Capability {
	inst := common.Instrumentation{Metrics: d.Metrics, Audit: d.Audit, Backend: d.Backend}
	return []common.Capability{
		common.Instrumented(NewFetch(d.Mailbox, d.Store, d.Categorizer, d.Logger), inst),
		common.Instrumented(NewSend(d.Mailbox, d.Resolver, d.Composer, d.Metrics, d.Logger), inst),
	}
}

// RegisterMCPTools registers the capabilities with the MCP server.
func RegisterMCPTools(s *mcpserver.MCPServer, caps ...common.Capability) error {
	if err := common.RegisterMCP(s, caps...); err != nil {
		return fmt.Errorf("failed to register mail tools: %w", err)
	}
	return nil
}
