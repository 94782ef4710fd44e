package mail_tools

import (
	"context"
	"testing"

	"github.com/mark3labs/mcp-go/mcp"
	mcpserver "github.com/mark3labs/mcp-go/server"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/teemow/mailpilot/internal/categorize"
	"github.com/teemow/mailpilot/internal/mailbox"
	"github.com/teemow/mailpilot/internal/memory"
	"github.com/teemow/mailpilot/internal/resolver"
	"github.com/teemow/mailpilot/internal/tools/common"
)

func TestCapabilities(t *testing.T) {
	store := memory.New(nil)
	mb := &fakeMailbox{page: mailbox.Page{Records: inbox}}
	caps := Capabilities(Deps{
		Mailbox:     mb,
		Store:       store,
		Categorizer: categorize.New(nil, categorize.Options{}),
		Resolver:    resolver.New(store),
		Composer:    &fakeComposer{},
		Backend:     "gmail",
	})

	require.Len(t, caps, 2)
	assert.Equal(t, FetchToolName, caps[0].Definition().Name)
	assert.Equal(t, SendToolName, caps[1].Definition().Name)

	// Fetch then reply through the instrumented wrappers.
	res := caps[0].Execute(context.Background(), map[string]any{"userId": "me"})
	require.False(t, res.IsError, res.Text)
	res = caps[1].Execute(context.Background(), map[string]any{"bodyInstruction": "thanks", "replyIdentifier": "alice"})
	require.False(t, res.IsError, res.Text)
	assert.Equal(t, "a@x.com", mb.sent[0].To)
}

func TestRegisterMCPTools(t *testing.T) {
	s := mcpserver.NewMCPServer("test", "0.0.0", mcpserver.WithToolCapabilities(true))
	fetch := NewFetch(&fakeMailbox{}, memory.New(nil), categorize.New(nil, categorize.Options{}), nil)
	require.NoError(t, RegisterMCPTools(s, fetch))

	res, err := common.MCPHandler(fetch)(context.Background(), mcp.CallToolRequest{
		Params: mcp.CallToolParams{Name: FetchToolName, Arguments: map[string]any{"userId": "me"}},
	})
	require.NoError(t, err)
	assert.False(t, res.IsError)
}
