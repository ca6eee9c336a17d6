package calendar_tools

import (
	"context"
	"time"

	"github.com/mark3labs/mcp-go/mcp"
	mcpserver "github.com/mark3labs/mcp-go/server"

	"github.com/teemow/inboxcal/internal/server"
	"github.com/teemow/inboxcal/internal/suggest"
	"github.com/teemow/inboxcal/internal/tools/common"
)

// RegisterSuggestTools registers the meeting time suggestion tool with the MCP server
func RegisterSuggestTools(s *mcpserver.MCPServer, sc *server.ServerContext) error {
	suggestTool := mcp.NewTool("calendar_suggest_meeting_times",
		mcp.WithDescription("Suggest up to five free meeting times for a calendar candidate extracted from an email. "+
			"Slots respect the user's working hours, lunch break and a 10 minute buffer around busy time. "+
			"The suggestions are also stored on the candidate."),
		mcp.WithNumber("userId",
			mcp.Required(),
			mcp.Description("ID of the user owning the candidate"),
		),
		mcp.WithNumber("candidateId",
			mcp.Required(),
			mcp.Description("ID of the calendar candidate"),
		),
		mcp.WithNumber("durationMinutes",
			mcp.Description("Meeting duration in minutes. Overrides the candidate's times and the user's default."),
		),
		mcp.WithString("format",
			mcp.Description("Output format: 'text' (default), 'json' or 'ics'"),
			mcp.Enum(suggest.FormatText, suggest.FormatJSON, suggest.FormatICS),
		),
	)

	s.AddTool(suggestTool, common.InstrumentedToolHandler("calendar_suggest_meeting_times", sc,
		func(ctx context.Context, request mcp.CallToolRequest) (*mcp.CallToolResult, error) {
			return handleSuggestMeetingTimes(ctx, request, sc)
		}))

	return nil
}

func handleSuggestMeetingTimes(ctx context.Context, request mcp.CallToolRequest, sc *server.ServerContext) (*mcp.CallToolResult, error) {
	args := request.GetArguments()

	userID, err := common.GetIDArg(args, "userId")
	if err != nil {
		return mcp.NewToolResultError(err.Error()), nil
	}
	candidateID, err := common.GetIDArg(args, "candidateId")
	if err != nil {
		return mcp.NewToolResultError(err.Error()), nil
	}
	duration, err := common.GetOptionalIntArg(args, "durationMinutes")
	if err != nil {
		return mcp.NewToolResultError(err.Error()), nil
	}
	format, err := suggest.ParseFormat(common.GetStringArg(args, "format", suggest.FormatText))
	if err != nil {
		return mcp.NewToolResultError(err.Error()), nil
	}

	suggestions, err := sc.Suggester().Suggest(ctx, suggest.Request{
		UserID:      userID,
		CandidateID: candidateID,
		DurationMin: duration,
	})
	if err != nil {
		return toolError("suggest meeting times", err), nil
	}

	// The stored payload now carries the suggestions; ICS events need its
	// title and attendees.
	rec, err := sc.Store().GetCandidate(ctx, userID, candidateID)
	if err != nil {
		return toolError("load candidate", err), nil
	}

	out, err := suggest.Render(format, suggest.Response{CandidateID: candidateID, Suggestions: suggestions}, rec.Payload, time.Now())
	if err != nil {
		return mcp.NewToolResultError(err.Error()), nil
	}
	return mcp.NewToolResultText(out), nil
}
