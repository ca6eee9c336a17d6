package instrumentation

import (
	"context"
	"testing"
	"time"
)

func TestMetrics_Record(t *testing.T) {
	ctx := context.Background()
	metrics := newTestProvider(t).Metrics()

	// Should not panic
	metrics.RecordHTTPRequest(ctx, "POST", "/mcp", 200, 100*time.Millisecond)
	metrics.RecordGoogleAPIOperation(ctx, ServiceCalendar, "freebusy", StatusSuccess, 200*time.Millisecond)
	metrics.RecordGoogleAPIOperation(ctx, ServiceCalendar, "freebusy", StatusError, 10*time.Second)
	metrics.RecordSuggestion(ctx, OutcomeSuccess, 5, 300*time.Millisecond)
	metrics.RecordSuggestion(ctx, OutcomeUpstream, 0, 10*time.Second)
	metrics.RecordBusyEntriesDropped(ctx, 2)
	metrics.RecordBusyEntriesDropped(ctx, 0)
	metrics.RecordCandidateStored(ctx, CandidateInserted)
	metrics.RecordCandidateStored(ctx, CandidateDuplicate)
	metrics.RecordToolInvocation(ctx, "calendar_suggest_meeting_times", StatusSuccess, 50*time.Millisecond)
}

func TestMetrics_DetailedLabels(t *testing.T) {
	ctx := context.Background()
	provider := newTestProvider(t)

	metrics, err := NewMetrics(provider.meterProvider.Meter("detailed"), true)
	if err != nil {
		t.Fatalf("failed to create metrics: %v", err)
	}

	metrics.RecordToolInvocationForUser(ctx, "calendar_list_candidates", StatusSuccess, "42", 10*time.Millisecond)
	metrics.RecordToolInvocationForUser(ctx, "calendar_list_candidates", StatusError, "", 10*time.Millisecond)
}

func TestMetrics_NoopRecorders(t *testing.T) {
	ctx := context.Background()

	for name, m := range map[string]*Metrics{"zero": {}, "nil": nil} {
		t.Run(name, func(t *testing.T) {
			// Uninitialized recorders must be safe to call.
			m.RecordHTTPRequest(ctx, "GET", "/", 200, time.Millisecond)
			m.RecordGoogleAPIOperation(ctx, ServiceCalendar, "freebusy", StatusSuccess, time.Millisecond)
			m.RecordSuggestion(ctx, OutcomeSuccess, 1, time.Millisecond)
			m.RecordBusyEntriesDropped(ctx, 1)
			m.RecordCandidateStored(ctx, CandidateInserted)
			m.RecordToolInvocation(ctx, "tool", StatusSuccess, time.Millisecond)
		})
	}
}
