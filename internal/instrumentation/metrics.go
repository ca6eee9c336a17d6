package instrumentation

import (
	"context"
	"fmt"
	"strconv"
	"time"

	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/metric"
)

// Label values.
const (
	StatusSuccess = "success"
	StatusError   = "error"

	// Suggestion outcomes
	OutcomeSuccess    = "success"
	OutcomeNotFound   = "not_found"
	OutcomeValidation = "validation_error"
	OutcomeUpstream   = "upstream_error"
	OutcomeInternal   = "internal_error"

	// Candidate insert results
	CandidateInserted  = "inserted"
	CandidateDuplicate = "duplicate"

	// Google services
	ServiceCalendar = "calendar"
	ServiceGmail    = "gmail"
)

// Metric attribute keys
const (
	attrMethod    = "method"
	attrPath      = "path"
	attrStatus    = "status"
	attrOperation = "operation"
	attrService   = "service"
	attrResult    = "result"
	attrTool      = "tool"
	attrOutcome   = "outcome"
	attrUser      = "user_id"
)

// Metrics provides methods for recording observability metrics.
// The zero value is a no-op recorder.
type Metrics struct {
	// HTTP metrics
	httpRequestsTotal   metric.Int64Counter
	httpRequestDuration metric.Float64Histogram

	// Google API metrics
	googleAPIOperationsTotal   metric.Int64Counter
	googleAPIOperationDuration metric.Float64Histogram

	// Scheduling metrics
	suggestionsTotal        metric.Int64Counter
	suggestionDuration      metric.Float64Histogram
	suggestionSlots         metric.Int64Histogram
	busyEntriesDroppedTotal metric.Int64Counter
	candidatesStoredTotal   metric.Int64Counter

	// MCP Tool metrics
	toolInvocationsTotal metric.Int64Counter
	toolDuration         metric.Float64Histogram

	// detailedLabels controls whether high-cardinality labels (user IDs) are included
	detailedLabels bool
}

// NewMetrics creates a new Metrics instance with all metrics initialized.
func NewMetrics(meter metric.Meter, detailedLabels bool) (*Metrics, error) {
	m := &Metrics{
		detailedLabels: detailedLabels,
	}

	var err error

	// HTTP Metrics
	m.httpRequestsTotal, err = meter.Int64Counter(
		"http_requests_total",
		metric.WithDescription("Total number of HTTP requests"),
		metric.WithUnit("{request}"),
	)
	if err != nil {
		return nil, fmt.Errorf("failed to create http_requests_total counter: %w", err)
	}

	m.httpRequestDuration, err = meter.Float64Histogram(
		"http_request_duration_seconds",
		metric.WithDescription("HTTP request duration in seconds"),
		metric.WithUnit("s"),
		metric.WithExplicitBucketBoundaries(0.001, 0.01, 0.1, 0.5, 1.0, 2.5, 5.0, 10.0),
	)
	if err != nil {
		return nil, fmt.Errorf("failed to create http_request_duration_seconds histogram: %w", err)
	}

	// Google API Metrics
	m.googleAPIOperationsTotal, err = meter.Int64Counter(
		"google_api_operations_total",
		metric.WithDescription("Total number of Google API operations"),
		metric.WithUnit("{operation}"),
	)
	if err != nil {
		return nil, fmt.Errorf("failed to create google_api_operations_total counter: %w", err)
	}

	m.googleAPIOperationDuration, err = meter.Float64Histogram(
		"google_api_operation_duration_seconds",
		metric.WithDescription("Google API operation duration in seconds"),
		metric.WithUnit("s"),
		metric.WithExplicitBucketBoundaries(0.01, 0.05, 0.1, 0.25, 0.5, 1.0, 2.5, 5.0, 10.0, 30.0),
	)
	if err != nil {
		return nil, fmt.Errorf("failed to create google_api_operation_duration_seconds histogram: %w", err)
	}

	// Scheduling Metrics
	m.suggestionsTotal, err = meter.Int64Counter(
		"meeting_suggestions_total",
		metric.WithDescription("Total number of meeting time suggestion requests by outcome"),
		metric.WithUnit("{request}"),
	)
	if err != nil {
		return nil, fmt.Errorf("failed to create meeting_suggestions_total counter: %w", err)
	}

	m.suggestionDuration, err = meter.Float64Histogram(
		"meeting_suggestion_duration_seconds",
		metric.WithDescription("Meeting time suggestion duration in seconds, including the free/busy call"),
		metric.WithUnit("s"),
		metric.WithExplicitBucketBoundaries(0.01, 0.05, 0.1, 0.25, 0.5, 1.0, 2.5, 5.0, 10.0),
	)
	if err != nil {
		return nil, fmt.Errorf("failed to create meeting_suggestion_duration_seconds histogram: %w", err)
	}

	m.suggestionSlots, err = meter.Int64Histogram(
		"meeting_suggestion_slots",
		metric.WithDescription("Number of slots returned per successful suggestion request"),
		metric.WithUnit("{slot}"),
		metric.WithExplicitBucketBoundaries(0, 1, 2, 3, 4, 5, 10),
	)
	if err != nil {
		return nil, fmt.Errorf("failed to create meeting_suggestion_slots histogram: %w", err)
	}

	m.busyEntriesDroppedTotal, err = meter.Int64Counter(
		"freebusy_entries_dropped_total",
		metric.WithDescription("Total number of malformed free/busy entries skipped"),
		metric.WithUnit("{entry}"),
	)
	if err != nil {
		return nil, fmt.Errorf("failed to create freebusy_entries_dropped_total counter: %w", err)
	}

	m.candidatesStoredTotal, err = meter.Int64Counter(
		"calendar_candidates_stored_total",
		metric.WithDescription("Total number of calendar candidate insert attempts by result"),
		metric.WithUnit("{candidate}"),
	)
	if err != nil {
		return nil, fmt.Errorf("failed to create calendar_candidates_stored_total counter: %w", err)
	}

	// MCP Tool Metrics
	m.toolInvocationsTotal, err = meter.Int64Counter(
		"mcp_tool_invocations_total",
		metric.WithDescription("Total number of MCP tool invocations"),
		metric.WithUnit("{invocation}"),
	)
	if err != nil {
		return nil, fmt.Errorf("failed to create mcp_tool_invocations_total counter: %w", err)
	}

	m.toolDuration, err = meter.Float64Histogram(
		"mcp_tool_duration_seconds",
		metric.WithDescription("MCP tool execution duration in seconds"),
		metric.WithUnit("s"),
		metric.WithExplicitBucketBoundaries(0.01, 0.05, 0.1, 0.25, 0.5, 1.0, 2.5, 5.0, 10.0, 30.0),
	)
	if err != nil {
		return nil, fmt.Errorf("failed to create mcp_tool_duration_seconds histogram: %w", err)
	}

	return m, nil
}

// RecordHTTPRequest records an HTTP request with method, path, status code, and duration.
func (m *Metrics) RecordHTTPRequest(ctx context.Context, method, path string, statusCode int, duration time.Duration) {
	if m == nil || m.httpRequestsTotal == nil || m.httpRequestDuration == nil {
		return // Instrumentation not initialized
	}

	attrs := []attribute.KeyValue{
		attribute.String(attrMethod, method),
		attribute.String(attrPath, path),
		attribute.String(attrStatus, strconv.Itoa(statusCode)),
	}

	m.httpRequestsTotal.Add(ctx, 1, metric.WithAttributes(attrs...))
	m.httpRequestDuration.Record(ctx, duration.Seconds(), metric.WithAttributes(attrs...))
}

// RecordGoogleAPIOperation records a Google API operation with service, operation,
// status, and duration.
//
// Parameters:
//   - service: Google service name (calendar)
//   - operation: Operation type (freebusy, ...)
//   - status: Result status ("success" or "error")
//   - duration: Time taken for the operation
func (m *Metrics) RecordGoogleAPIOperation(ctx context.Context, service, operation, status string, duration time.Duration) {
	if m == nil || m.googleAPIOperationsTotal == nil || m.googleAPIOperationDuration == nil {
		return // Instrumentation not initialized
	}

	attrs := []attribute.KeyValue{
		attribute.String(attrService, service),
		attribute.String(attrOperation, operation),
		attribute.String(attrStatus, status),
	}

	m.googleAPIOperationsTotal.Add(ctx, 1, metric.WithAttributes(attrs...))
	m.googleAPIOperationDuration.Record(ctx, duration.Seconds(), metric.WithAttributes(attrs...))
}

// RecordSuggestion records one suggestion request.
//
// Parameters:
//   - outcome: one of the Outcome* constants
//   - slots: number of slots returned (ignored unless outcome is OutcomeSuccess)
//   - duration: Time taken for the whole request
func (m *Metrics) RecordSuggestion(ctx context.Context, outcome string, slots int, duration time.Duration) {
	if m == nil || m.suggestionsTotal == nil || m.suggestionDuration == nil || m.suggestionSlots == nil {
		return // Instrumentation not initialized
	}

	attrs := metric.WithAttributes(attribute.String(attrOutcome, outcome))
	m.suggestionsTotal.Add(ctx, 1, attrs)
	m.suggestionDuration.Record(ctx, duration.Seconds(), attrs)
	if outcome == OutcomeSuccess {
		m.suggestionSlots.Record(ctx, int64(slots))
	}
}

// RecordBusyEntriesDropped records free/busy entries skipped because they
// could not be parsed.
func (m *Metrics) RecordBusyEntriesDropped(ctx context.Context, count int) {
	if m == nil || m.busyEntriesDroppedTotal == nil || count <= 0 {
		return
	}
	m.busyEntriesDroppedTotal.Add(ctx, int64(count))
}

// RecordCandidateStored records a candidate insert attempt.
// Result should be one of: CandidateInserted, CandidateDuplicate.
func (m *Metrics) RecordCandidateStored(ctx context.Context, result string) {
	if m == nil || m.candidatesStoredTotal == nil {
		return
	}
	m.candidatesStoredTotal.Add(ctx, 1, metric.WithAttributes(attribute.String(attrResult, result)))
}

// RecordToolInvocation records an MCP tool invocation with tool name, status, and duration.
//
// Parameters:
//   - toolName: Name of the MCP tool (e.g., "calendar_suggest_meeting_times")
//   - status: Result status ("success" or "error")
//   - duration: Time taken for the tool execution
func (m *Metrics) RecordToolInvocation(ctx context.Context, toolName, status string, duration time.Duration) {
	m.RecordToolInvocationForUser(ctx, toolName, status, "", duration)
}

// RecordToolInvocationForUser records an MCP tool invocation with the calling user.
// The user label is only added when detailedLabels is enabled.
func (m *Metrics) RecordToolInvocationForUser(ctx context.Context, toolName, status, userID string, duration time.Duration) {
	if m == nil || m.toolInvocationsTotal == nil || m.toolDuration == nil {
		return // Instrumentation not initialized
	}

	attrs := []attribute.KeyValue{
		attribute.String(attrTool, toolName),
		attribute.String(attrStatus, status),
	}

	// Only add high-cardinality labels if explicitly enabled
	if m.detailedLabels && userID != "" {
		attrs = append(attrs, attribute.String(attrUser, userID))
	}

	m.toolInvocationsTotal.Add(ctx, 1, metric.WithAttributes(attrs...))
	m.toolDuration.Record(ctx, duration.Seconds(), metric.WithAttributes(attrs...))
}
