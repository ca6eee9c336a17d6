package calendar_tools

import (
	"errors"
	"fmt"

	"github.com/mark3labs/mcp-go/mcp"
	mcpserver "github.com/mark3labs/mcp-go/server"

	"github.com/teemow/inboxcal/internal/server"
	"github.com/teemow/inboxcal/internal/store"
	"github.com/teemow/inboxcal/internal/suggest"
)

// RegisterCalendarTools registers all calendar candidate tools with the MCP server
func RegisterCalendarTools(s *mcpserver.MCPServer, sc *server.ServerContext) error {
	if err := RegisterSuggestTools(s, sc); err != nil {
		return fmt.Errorf("failed to register suggestion tools: %w", err)
	}

	if err := RegisterCandidateTools(s, sc); err != nil {
		return fmt.Errorf("failed to register candidate tools: %w", err)
	}

	return nil
}

// toolError converts an engine error into a tool error result.
func toolError(action string, err error) *mcp.CallToolResult {
	switch {
	case errors.Is(err, store.ErrNotFound):
		return mcp.NewToolResultError(fmt.Sprintf("Not found: %v", err))
	case errors.Is(err, suggest.ErrValidation):
		return mcp.NewToolResultError(fmt.Sprintf("Invalid request: %v", err))
	case errors.Is(err, suggest.ErrUpstream):
		return mcp.NewToolResultError(fmt.Sprintf("Calendar unavailable, try again later: %v", err))
	default:
		return mcp.NewToolResultError(fmt.Sprintf("Failed to %s: %v", action, err))
	}
}
