package cmd

import (
	"fmt"

	mcpserver "github.com/mark3labs/mcp-go/server"
	"github.com/spf13/cobra"

	"github.com/teemow/mailpilot/internal/tools/common"
	"github.com/teemow/mailpilot/internal/tools/mail_tools"
)

func newServeCmd() *cobra.Command {
	var readOnly bool

	cmd := &cobra.Command{
		Use:   "serve",
		Short: "Serve fetchEmails and sendEmail over MCP stdio",
		Long: `Start an MCP (Model Context Protocol) server on stdin/stdout that exposes
the mail capabilities to an external assistant.

No language model key is required: without one, categories come from the
rule table and composed emails use the plain fallback body.`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			a, err := newApp(cmd.Context(), false)
			if err != nil {
				return err
			}
			defer a.Close()

			caps := a.caps
			if readOnly {
				caps = withoutCapability(caps, mail_tools.SendToolName)
			}

			mcpSrv := mcpserver.NewMCPServer("mailpilot", version,
				mcpserver.WithToolCapabilities(true),
			)
			if err := mail_tools.RegisterMCPTools(mcpSrv, caps...); err != nil {
				return err
			}
			a.logger.Debug("mcp server ready", "tools", len(caps), "read_only", readOnly)

			return runStdioServer(mcpSrv)
		},
	}

	cmd.Flags().BoolVar(&readOnly, "read-only", false, "Expose fetchEmails only")
	return cmd
}

func withoutCapability(caps []common.Capability, name string) []common.Capability {
	out := make([]common.Capability, 0, len(caps))
	for _, c := range caps {
		if c.Definition().Name != name {
			out = append(out, c)
		}
	}
	return out
}

func runStdioServer(mcpSrv *mcpserver.MCPServer) error {
	serverDone := make(chan error, 1)
	go func() {
		defer close(serverDone)
		if err := mcpserver.ServeStdio(mcpSrv); err != nil {
			serverDone <- err
		}
	}()

	err := <-serverDone
	if err != nil {
		return fmt.Errorf("server stopped with error: %w", err)
	}
	return nil
}
