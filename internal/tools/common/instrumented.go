package common

import (
	"context"
	"errors"
	"log/slog"
	"strconv"
	"time"

	"github.com/mark3labs/mcp-go/mcp"
	mcpserver "github.com/mark3labs/mcp-go/server"

	"github.com/teemow/inboxcal/internal/instrumentation"
	"github.com/teemow/inboxcal/internal/logging"
)

// Observer supplies the metrics recorder and logger of the server.
// *server.ServerContext implements it.
type Observer interface {
	Metrics() *instrumentation.Metrics
	Logger() *slog.Logger
}

// InstrumentedToolHandler wraps a tool handler with a trace span, metrics
// and a debug log line per invocation. The userId and candidateId
// arguments, when valid, are attached to the span and the log.
//
// Usage:
//
//	s.AddTool(myTool, common.InstrumentedToolHandler("my_tool", sc, handler))
func InstrumentedToolHandler(toolName string, obs Observer, handler mcpserver.ToolHandlerFunc) mcpserver.ToolHandlerFunc {
	return func(ctx context.Context, request mcp.CallToolRequest) (*mcp.CallToolResult, error) {
		args := request.GetArguments()
		attrs := instrumentation.NewSpanAttributeBuilder()
		var logAttrs []any

		var userLabel string
		if userID, err := GetIDArg(args, "userId"); err == nil {
			attrs.WithUser(userID)
			logAttrs = append(logAttrs, logging.UserID(userID))
			userLabel = strconv.FormatInt(userID, 10)
		}
		if candidateID, err := GetIDArg(args, "candidateId"); err == nil {
			attrs.WithCandidate(candidateID)
			logAttrs = append(logAttrs, logging.CandidateID(candidateID))
		}

		ctx, span := instrumentation.StartToolSpan(ctx, toolName, attrs.Build()...)
		defer span.End()

		start := time.Now()
		result, err := handler(ctx, request)
		duration := time.Since(start)

		status := instrumentation.StatusSuccess
		switch {
		case err != nil:
			status = instrumentation.StatusError
			instrumentation.SetSpanError(span, err)
		case result != nil && result.IsError:
			status = instrumentation.StatusError
			instrumentation.SetSpanError(span, errors.New(resultText(result)))
		default:
			instrumentation.SetSpanSuccess(span)
		}

		obs.Metrics().RecordToolInvocationForUser(ctx, toolName, status, userLabel, duration)

		if traceID, spanID := instrumentation.TraceIdentifiers(ctx); traceID != "" {
			logAttrs = append(logAttrs, slog.String("trace_id", traceID), slog.String("span_id", spanID))
		}

		logger := obs.Logger()
		if logger == nil {
			logger = slog.Default()
		}
		logging.WithTool(logger, toolName).DebugContext(ctx, "tool invocation",
			append(logAttrs, logging.Status(status), logging.Duration(duration), logging.Err(err))...)

		return result, err
	}
}

// resultText returns the first text content of a tool result.
func resultText(result *mcp.CallToolResult) string {
	for _, c := range result.Content {
		if text, ok := c.(mcp.TextContent); ok {
			return text.Text
		}
	}
	return "tool returned an error result"
}
