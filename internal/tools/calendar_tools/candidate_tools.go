package calendar_tools

import (
	"context"
	"encoding/json"
	"fmt"
	"strings"

	"github.com/mark3labs/mcp-go/mcp"
	mcpserver "github.com/mark3labs/mcp-go/server"

	"github.com/teemow/inboxcal/internal/candidate"
	"github.com/teemow/inboxcal/internal/server"
	"github.com/teemow/inboxcal/internal/store"
	"github.com/teemow/inboxcal/internal/tools/common"
)

// RegisterCandidateTools registers calendar candidate tools with the MCP server
func RegisterCandidateTools(s *mcpserver.MCPServer, sc *server.ServerContext) error {
	listTool := mcp.NewTool("calendar_list_candidates",
		mcp.WithDescription("List the calendar candidates extracted from an email, including stored suggestions"),
		mcp.WithNumber("userId",
			mcp.Required(),
			mcp.Description("ID of the user owning the email"),
		),
		mcp.WithNumber("emailId",
			mcp.Required(),
			mcp.Description("ID of the email"),
		),
	)

	s.AddTool(listTool, common.InstrumentedToolHandler("calendar_list_candidates", sc,
		func(ctx context.Context, request mcp.CallToolRequest) (*mcp.CallToolResult, error) {
			return handleListCandidates(ctx, request, sc)
		}))

	addTool := mcp.NewTool("calendar_add_candidate",
		mcp.WithDescription("Store a calendar candidate for an email. A candidate equal to an existing one "+
			"(same type, title, times and attendees) is not stored twice."),
		mcp.WithNumber("userId",
			mcp.Required(),
			mcp.Description("ID of the user owning the email"),
		),
		mcp.WithNumber("emailId",
			mcp.Required(),
			mcp.Description("ID of the email the candidate was extracted from"),
		),
		mcp.WithString("payload",
			mcp.Required(),
			mcp.Description(`Candidate JSON object, e.g. {"type":"PROPOSED_TIME","title":"Sync","start":"2025-01-06T14:00:00Z","end":"2025-01-06T14:30:00Z"}`),
		),
	)

	s.AddTool(addTool, common.InstrumentedToolHandler("calendar_add_candidate", sc,
		func(ctx context.Context, request mcp.CallToolRequest) (*mcp.CallToolResult, error) {
			return handleAddCandidate(ctx, request, sc)
		}))

	return nil
}

func handleListCandidates(ctx context.Context, request mcp.CallToolRequest, sc *server.ServerContext) (*mcp.CallToolResult, error) {
	args := request.GetArguments()

	userID, err := common.GetIDArg(args, "userId")
	if err != nil {
		return mcp.NewToolResultError(err.Error()), nil
	}
	emailID, err := common.GetIDArg(args, "emailId")
	if err != nil {
		return mcp.NewToolResultError(err.Error()), nil
	}

	candidates, err := sc.Store().ListCandidates(ctx, userID, emailID)
	if err != nil {
		return toolError("list candidates", err), nil
	}
	if candidates == nil {
		candidates = []store.Candidate{}
	}

	data, err := json.MarshalIndent(candidates, "", "  ")
	if err != nil {
		return mcp.NewToolResultError(fmt.Sprintf("Failed to encode candidates: %v", err)), nil
	}
	return mcp.NewToolResultText(string(data)), nil
}

func handleAddCandidate(ctx context.Context, request mcp.CallToolRequest, sc *server.ServerContext) (*mcp.CallToolResult, error) {
	args := request.GetArguments()

	userID, err := common.GetIDArg(args, "userId")
	if err != nil {
		return mcp.NewToolResultError(err.Error()), nil
	}
	emailID, err := common.GetIDArg(args, "emailId")
	if err != nil {
		return mcp.NewToolResultError(err.Error()), nil
	}
	raw := strings.TrimSpace(common.GetStringArg(args, "payload", ""))
	if raw == "" {
		return mcp.NewToolResultError("payload is required"), nil
	}

	p, err := candidate.ParsePayload([]byte(raw))
	if err != nil {
		return mcp.NewToolResultError(fmt.Sprintf("Invalid payload: %v", err)), nil
	}

	c, inserted, err := sc.Store().AddCandidate(ctx, userID, emailID, p)
	if err != nil {
		return toolError("add candidate", err), nil
	}

	if !inserted {
		return mcp.NewToolResultText(fmt.Sprintf("Candidate already stored as %d", c.ID)), nil
	}
	return mcp.NewToolResultText(fmt.Sprintf("Candidate stored as %d", c.ID)), nil
}
