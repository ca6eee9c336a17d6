// Package instrumentation provides OpenTelemetry instrumentation for the
// inboxcal scheduling engine and its MCP server.
//
// # Metrics
//
// Server/HTTP Metrics:
//   - http_requests_total: Counter of HTTP requests by method, path, and status
//   - http_request_duration_seconds: Histogram of HTTP request durations
//
// Google API Metrics:
//   - google_api_operations_total: Counter of Google API operations by service, operation, status
//   - google_api_operation_duration_seconds: Histogram of Google API operation durations
//
// Scheduling Metrics:
//   - meeting_suggestions_total: Counter of suggestion requests by outcome
//   - meeting_suggestion_duration_seconds: Histogram of suggestion latency
//   - meeting_suggestion_slots: Histogram of slots returned per successful request
//   - freebusy_entries_dropped_total: Counter of malformed busy entries skipped
//   - calendar_candidates_stored_total: Counter of candidate inserts by result (inserted, duplicate)
//
// MCP Tool Metrics:
//   - mcp_tool_invocations_total: Counter of MCP tool invocations by tool name and status
//   - mcp_tool_duration_seconds: Histogram of MCP tool execution durations
//
// Each Provider owns its own Prometheus registry. Serve it with PrometheusHandler.
//
// # Tracing
//
// Spans are created for MCP tool invocations (tool.<name>), Google API calls
// (google.<service>.<operation>) and suggestion requests.
//
// # Configuration
//
//   - INSTRUMENTATION_ENABLED: Enable/disable instrumentation (default: true)
//   - METRICS_EXPORTER: prometheus, otlp, stdout (default: prometheus)
//   - TRACING_EXPORTER: otlp, stdout, none (default: none)
//   - OTEL_EXPORTER_OTLP_ENDPOINT: OTLP endpoint for traces/metrics
//   - OTEL_TRACES_SAMPLER_ARG: Sampling rate (0.0 to 1.0, default: 0.1)
//   - OTEL_SERVICE_NAME: Service name (default: inboxcal)
//   - OTEL_RESOURCE_ATTRIBUTES: Extra resource attributes such as k8s.pod.name
//   - METRICS_DETAILED_LABELS: Add user_id to tool metrics (default: false)
//
// # Example Usage
//
//	provider, err := instrumentation.NewProvider(ctx, instrumentation.DefaultConfig())
//	if err != nil {
//		return err
//	}
//	defer provider.Shutdown(ctx)
//
//	provider.Metrics().RecordSuggestion(ctx, instrumentation.OutcomeSuccess, 5, time.Since(start))
package instrumentation
