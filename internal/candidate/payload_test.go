package candidate

import (
	"encoding/json"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/teemow/inboxcal/internal/interval"
)

func TestParsePayload_KnownAndUnknownKeys(t *testing.T) {
	p, err := ParsePayload([]byte(`{
		"type": "proposed_time",
		"title": "Sync",
		"start": "2099-01-05T10:00:00Z",
		"end": "2099-01-05T10:30:00Z",
		"attendees": ["a@example.com", "b@example.com"],
		"confidence": 0.8,
		"source": {"kind": "llm"}
	}`))
	require.NoError(t, err)

	assert.Equal(t, KindProposedTime, p.Kind())
	assert.Equal(t, "Sync", p.Title)
	assert.Equal(t, []string{"a@example.com", "b@example.com"}, p.Attendees)

	confidence, ok := p.Extra("confidence")
	require.True(t, ok)
	assert.JSONEq(t, `0.8`, string(confidence))
}

func TestParsePayload_Empty(t *testing.T) {
	for _, in := range []string{"", "  ", "null", "{}"} {
		p, err := ParsePayload([]byte(in))
		require.NoError(t, err, "input %q", in)
		assert.Equal(t, Kind(""), p.Kind())
	}
}

func TestParsePayload_NotAnObject(t *testing.T) {
	_, err := ParsePayload([]byte(`[1,2]`))
	assert.Error(t, err)
}

func TestPayload_MarshalPreservesUnknownAndOddlyTypedKeys(t *testing.T) {
	in := `{"type":"INVITE","title":42,"attendees":["a@example.com",7],"meta":{"x":[1,2]}}`
	p, err := ParsePayload([]byte(in))
	require.NoError(t, err)

	// Only the string attendee is usable, but the stored value survives.
	assert.Equal(t, []string{"a@example.com"}, p.Attendees)
	assert.Empty(t, p.Title)

	out, err := json.Marshal(p)
	require.NoError(t, err)
	assert.JSONEq(t, in, string(out))
}

func TestPayload_NullValuesAreAbsent(t *testing.T) {
	p, err := ParsePayload([]byte(`{"type":"PROPOSED_TIME","start":null,"end":"2099-01-05T10:00:00Z"}`))
	require.NoError(t, err)

	c, err := p.Candidate()
	require.NoError(t, err)
	assert.Equal(t, Open{Type: KindProposedTime}, c)
}

func TestPayload_WithSuggestions(t *testing.T) {
	p, err := ParsePayload([]byte(`{"type":"PROPOSED_TIME","source":"llm","suggested_times":"stale"}`))
	require.NoError(t, err)

	slot := interval.New(
		time.Date(2099, 1, 5, 11, 10, 0, 0, time.UTC),
		time.Date(2099, 1, 5, 11, 40, 0, 0, time.UTC),
	)
	generated := time.Date(2099, 1, 1, 8, 0, 0, 0, time.FixedZone("CET", 3600))

	updated := p.WithSuggestions([]interval.Interval{slot}, 30, generated)

	out, err := json.Marshal(updated)
	require.NoError(t, err)
	assert.JSONEq(t, `{
		"type": "PROPOSED_TIME",
		"source": "llm",
		"suggested_times": [{"start": "2099-01-05T11:10:00Z", "end": "2099-01-05T11:40:00Z"}],
		"suggested_duration_min": 30,
		"suggested_generated_at": "2099-01-01T07:00:00Z"
	}`, string(out))

	// The receiver is not modified.
	assert.Nil(t, p.SuggestedTimes)
	_, stale := p.Extra("suggested_times")
	assert.True(t, stale)
}

func TestPayload_WithNoSuggestionsWritesEmptyList(t *testing.T) {
	updated := Payload{Type: "DATE_RANGE"}.WithSuggestions(nil, 45, time.Unix(0, 0))

	out, err := json.Marshal(updated)
	require.NoError(t, err)
	assert.JSONEq(t, `{"type":"DATE_RANGE","suggested_times":[],"suggested_duration_min":45,"suggested_generated_at":"1970-01-01T00:00:00Z"}`, string(out))
}

func TestPayload_Candidate(t *testing.T) {
	start := time.Date(2099, 1, 5, 10, 0, 0, 0, time.UTC)
	end := start.Add(30 * time.Minute)
	span := interval.New(start, end)

	tests := []struct {
		name    string
		payload Payload
		want    Candidate
		wantErr bool
	}{
		{
			name:    "invite",
			payload: Payload{Type: "INVITE", Start: "2099-01-05T10:00:00Z", End: "2099-01-05T10:30:00Z", ICalUID: "uid-1"},
			want:    Invite{Slot: span, ICalUID: "uid-1"},
		},
		{
			name:    "proposed time with offset",
			payload: Payload{Type: "proposed_time", Start: "2099-01-05T11:00:00+01:00", End: "2099-01-05T11:30:00+01:00"},
			want:    ProposedTime{Type: KindProposedTime, Slot: span},
		},
		{
			name:    "unknown kind with times",
			payload: Payload{Type: "FOLLOW_UP", Start: "2099-01-05T10:00:00", End: "2099-01-05 10:30:00"},
			want:    ProposedTime{Type: "FOLLOW_UP", Slot: span},
		},
		{
			name:    "date range",
			payload: Payload{Type: "DATE_RANGE", Start: "2099-01-05T10:00:00Z", End: "2099-01-05T10:30:00Z"},
			want:    DateRange{Range: span},
		},
		{
			name:    "date-only range",
			payload: Payload{Type: "DATE_RANGE", Start: "2099-01-05", End: "2099-01-07"},
			want: DateRange{Range: interval.New(
				time.Date(2099, 1, 5, 0, 0, 0, 0, time.UTC),
				time.Date(2099, 1, 7, 0, 0, 0, 0, time.UTC),
			)},
		},
		{
			name:    "missing end",
			payload: Payload{Type: "DATE_RANGE", Start: "2099-01-05T10:00:00Z"},
			want:    Open{Type: KindDateRange},
		},
		{
			name:    "malformed start",
			payload: Payload{Type: "INVITE", Start: "next tuesday", End: "2099-01-05T10:30:00Z"},
			wantErr: true,
		},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := tt.payload.Candidate()
			if tt.wantErr {
				assert.Error(t, err)
				return
			}
			require.NoError(t, err)
			assert.Equal(t, tt.want, got)
		})
	}
}
