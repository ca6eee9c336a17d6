package suggest

import (
	"bytes"
	"context"
	"errors"
	"log/slog"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/teemow/inboxcal/internal/calendar"
	"github.com/teemow/inboxcal/internal/candidate"
	"github.com/teemow/inboxcal/internal/interval"
	"github.com/teemow/inboxcal/internal/preferences"
	"github.com/teemow/inboxcal/internal/store"
	"github.com/teemow/inboxcal/internal/workinghours"
)

const (
	testUser      int64 = 1
	testEmail     int64 = 10
	testCandidate int64 = 100
)

type fakeStore struct {
	candidates map[int64]*store.Candidate
	emails     map[int64]*store.Email
	updates    []candidate.Payload
	updateErr  error
}

func newFakeStore(t *testing.T, payload string) *fakeStore {
	t.Helper()
	p, err := candidate.ParsePayload([]byte(payload))
	require.NoError(t, err)
	return &fakeStore{
		candidates: map[int64]*store.Candidate{
			testCandidate: {ID: testCandidate, UserID: testUser, EmailID: testEmail, Payload: p},
		},
		emails: map[int64]*store.Email{
			testEmail: {ID: testEmail, UserID: testUser, GmailID: "m1"},
		},
	}
}

func (f *fakeStore) GetCandidate(_ context.Context, userID, candidateID int64) (*store.Candidate, error) {
	c, ok := f.candidates[candidateID]
	if !ok || c.UserID != userID {
		return nil, store.ErrNotFound
	}
	return c, nil
}

func (f *fakeStore) GetEmail(_ context.Context, userID, emailID int64) (*store.Email, error) {
	e, ok := f.emails[emailID]
	if !ok || e.UserID != userID {
		return nil, store.ErrNotFound
	}
	return e, nil
}

func (f *fakeStore) UpdateCandidatePayload(_ context.Context, _, candidateID int64, p candidate.Payload) error {
	if f.updateErr != nil {
		return f.updateErr
	}
	f.updates = append(f.updates, p)
	f.candidates[candidateID].Payload = p
	return nil
}

type fakePrefs struct {
	prefs preferences.Preferences
	err   error
}

func (f fakePrefs) ForUser(context.Context, int64) (preferences.Preferences, error) {
	return f.prefs, f.err
}

type fakeCalendar struct {
	result      *calendar.FreeBusyResult
	err         error
	providerErr error

	calls       int
	timeMin     string
	timeMax     string
	calendarIDs []string
	deadline    bool
}

func (f *fakeCalendar) FreeBusyProvider(context.Context, int64) (FreeBusyProvider, error) {
	if f.providerErr != nil {
		return nil, f.providerErr
	}
	return f, nil
}

func (f *fakeCalendar) QueryFreeBusyRaw(ctx context.Context, timeMin, timeMax string, ids []string) (*calendar.FreeBusyResult, error) {
	f.calls++
	f.timeMin, f.timeMax, f.calendarIDs = timeMin, timeMax, ids
	_, f.deadline = ctx.Deadline()
	return f.result, f.err
}

func busy(periods ...calendar.BusyPeriod) *calendar.FreeBusyResult {
	return &calendar.FreeBusyResult{Calendars: map[string]calendar.FreeBusyCalendar{
		calendar.PrimaryCalendarID: {Busy: periods},
	}}
}

func period(start, end string) calendar.BusyPeriod {
	return calendar.BusyPeriod{Start: start, End: end}
}

func at(value string) time.Time {
	t, err := time.Parse(time.RFC3339, value)
	if err != nil {
		panic(err)
	}
	return t
}

func clock(value string) Option {
	return WithClock(func() time.Time { return at(value) })
}

func minutes(n int) *int { return &n }

func starts(out []Suggestion) []string {
	s := make([]string, len(out))
	for i, slot := range out {
		s[i] = candidate.FormatInstant(slot.Start)
	}
	return s
}

// mondayMorning is Mon 09:00-12:00 UTC with lunch 10:30-11:00 carved out.
func mondayMorning() preferences.Preferences {
	p := preferences.Default()
	p.WorkingHours = &workinghours.WorkingHours{
		Days:         []string{"mon"},
		StartTime:    "09:00",
		EndTime:      "12:00",
		LunchEnabled: true,
		LunchStart:   "10:30",
		LunchEnd:     "11:00",
	}
	return p
}

func TestSuggest_LunchAndBufferScenario(t *testing.T) {
	st := newFakeStore(t, `{"type":"DATE_RANGE","start":"2025-01-06T00:00:00Z","end":"2025-01-07T00:00:00Z"}`)
	cal := &fakeCalendar{result: busy(period("2025-01-06T09:00:00Z", "2025-01-06T10:30:00Z"))}
	s := New(st, fakePrefs{prefs: mondayMorning()}, cal, clock("2025-01-05T12:00:00Z"))

	out, err := s.Suggest(context.Background(), Request{UserID: testUser, CandidateID: testCandidate, DurationMin: minutes(30)})
	require.NoError(t, err)

	assert.Equal(t, []string{"2025-01-06T11:10:00Z", "2025-01-06T11:25:00Z"}, starts(out))
	for _, slot := range out {
		assert.Equal(t, 30*time.Minute, slot.End.Sub(slot.Start))
	}

	// The date range is the search window, verbatim.
	assert.Equal(t, "2025-01-06T00:00:00Z", cal.timeMin)
	assert.Equal(t, "2025-01-07T00:00:00Z", cal.timeMax)
	assert.Equal(t, []string{calendar.PrimaryCalendarID}, cal.calendarIDs)
	assert.True(t, cal.deadline, "free/busy must be called with a timeout")
}

func TestSuggest_Properties(t *testing.T) {
	rawBusy := []calendar.BusyPeriod{
		period("2025-01-07T09:30:00Z", "2025-01-07T10:00:00Z"),
		period("2025-01-07T09:45:00Z", "2025-01-07T11:00:00Z"),
		period("2025-01-08T13:00:00Z", "2025-01-08T15:20:00Z"),
	}
	st := newFakeStore(t, `{"type":"DATE_RANGE","start":"2025-01-06T00:00:00Z","end":"2025-01-13T00:00:00Z"}`)
	prefs := preferences.Default()
	prefs.WorkingHours.LunchEnabled = true

	s := New(st, fakePrefs{prefs: prefs}, &fakeCalendar{result: busy(rawBusy...)},
		clock("2025-01-05T12:00:00Z"), WithMaxSuggestions(1000))

	out, err := s.Suggest(context.Background(), Request{UserID: testUser, CandidateID: testCandidate, DurationMin: minutes(45)})
	require.NoError(t, err)
	require.NotEmpty(t, out)

	policy, err := prefs.Policy()
	require.NoError(t, err)

	for i, slot := range out {
		iv := interval.New(slot.Start, slot.End)
		assert.Equal(t, 45*time.Minute, iv.Duration())
		assert.True(t, policy.Admits(iv), "slot %v outside policy", iv)
		for _, b := range rawBusy {
			buffered := interval.New(at(b.Start), at(b.End)).Expand(10 * time.Minute)
			assert.False(t, iv.Overlaps(buffered), "slot %v double-books %v", iv, b)
		}
		if i > 0 {
			assert.True(t, slot.Start.After(out[i-1].Start), "slots must be ordered")
		}
	}
}

func TestSuggest_CapsAtFive(t *testing.T) {
	st := newFakeStore(t, `{"type":"DATE_RANGE","start":"2025-01-06T00:00:00Z","end":"2025-01-13T00:00:00Z"}`)
	s := New(st, fakePrefs{prefs: preferences.Default()}, &fakeCalendar{result: busy()}, clock("2025-01-05T12:00:00Z"))

	out, err := s.Suggest(context.Background(), Request{UserID: testUser, CandidateID: testCandidate, DurationMin: minutes(30)})
	require.NoError(t, err)
	assert.Equal(t, []string{
		"2025-01-06T09:00:00Z",
		"2025-01-06T09:15:00Z",
		"2025-01-06T09:30:00Z",
		"2025-01-06T09:45:00Z",
		"2025-01-06T10:00:00Z",
	}, starts(out))
}

func TestSuggest_ProposedTimeFirst(t *testing.T) {
	// Tuesday 14:00-14:30; everything before 14:00 that day is busy once buffered.
	st := newFakeStore(t, `{"type":"PROPOSED_TIME","start":"2025-01-07T14:00:00Z","end":"2025-01-07T14:30:00Z"}`)
	cal := &fakeCalendar{result: busy(period("2025-01-07T08:00:00Z", "2025-01-07T13:50:00Z"))}
	s := New(st, fakePrefs{prefs: preferences.Default()}, cal, clock("2025-01-07T06:00:00Z"))

	out, err := s.Suggest(context.Background(), Request{UserID: testUser, CandidateID: testCandidate})
	require.NoError(t, err)

	assert.Equal(t, []string{
		"2025-01-07T14:00:00Z",
		"2025-01-07T14:15:00Z",
		"2025-01-07T14:30:00Z",
		"2025-01-07T14:45:00Z",
		"2025-01-07T15:00:00Z",
	}, starts(out), "proposed slot first and not duplicated")

	// Window starts at the start of the working day of the proposed time.
	assert.Equal(t, "2025-01-07T09:00:00Z", cal.timeMin)
	assert.Equal(t, "2025-01-14T09:00:00Z", cal.timeMax)
}

func TestSuggest_ProposedTimeIgnoresBuffer(t *testing.T) {
	// Busy right after the proposed slot: generated slots need the buffer,
	// the proposed one only has to avoid raw overlap.
	st := newFakeStore(t, `{"type":"PROPOSED_TIME","start":"2025-01-07T14:00:00Z","end":"2025-01-07T14:30:00Z"}`)
	cal := &fakeCalendar{result: busy(period("2025-01-07T09:00:00Z", "2025-01-07T13:55:00Z"), period("2025-01-07T14:30:00Z", "2025-01-07T15:00:00Z"))}
	s := New(st, fakePrefs{prefs: preferences.Default()}, cal, clock("2025-01-07T06:00:00Z"))

	out, err := s.Suggest(context.Background(), Request{UserID: testUser, CandidateID: testCandidate})
	require.NoError(t, err)
	require.NotEmpty(t, out)
	assert.Equal(t, "2025-01-07T14:00:00Z", candidate.FormatInstant(out[0].Start))
	assert.Equal(t, "2025-01-07T15:10:00Z", candidate.FormatInstant(out[1].Start))
}

func TestSuggest_ProposedTimeRejected(t *testing.T) {
	tests := []struct {
		name    string
		payload string
		busy    *calendar.FreeBusyResult
	}{
		{
			name:    "overlaps busy",
			payload: `{"type":"PROPOSED_TIME","start":"2025-01-07T14:00:00Z","end":"2025-01-07T14:30:00Z"}`,
			busy:    busy(period("2025-01-07T14:15:00Z", "2025-01-07T14:45:00Z")),
		},
		{
			name:    "weekend",
			payload: `{"type":"PROPOSED_TIME","start":"2025-01-11T14:00:00Z","end":"2025-01-11T14:30:00Z"}`,
			busy:    busy(),
		},
		{
			name:    "after hours",
			payload: `{"type":"INVITE","start":"2025-01-07T16:45:00Z","end":"2025-01-07T17:15:00Z"}`,
			busy:    busy(),
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			st := newFakeStore(t, tt.payload)
			p := preferences.Default()
			s := New(st, fakePrefs{prefs: p}, &fakeCalendar{result: tt.busy}, clock("2025-01-07T06:00:00Z"))

			out, err := s.Suggest(context.Background(), Request{UserID: testUser, CandidateID: testCandidate})
			require.NoError(t, err)
			require.NotEmpty(t, out)

			policy, err := p.Policy()
			require.NoError(t, err)
			for _, slot := range out {
				assert.True(t, policy.Admits(interval.New(slot.Start, slot.End)))
			}
		})
	}
}

func TestSuggest_Idempotent(t *testing.T) {
	st := newFakeStore(t, `{"type":"PROPOSED_TIME","start":"2025-01-07T14:00:00Z","end":"2025-01-07T15:00:00Z"}`)
	cal := &fakeCalendar{result: busy(period("2025-01-07T10:00:00Z", "2025-01-07T11:00:00Z"))}
	s := New(st, fakePrefs{prefs: preferences.Default()}, cal, clock("2025-01-06T12:00:00Z"))
	req := Request{UserID: testUser, CandidateID: testCandidate}

	first, err := s.Suggest(context.Background(), req)
	require.NoError(t, err)
	second, err := s.Suggest(context.Background(), req)
	require.NoError(t, err)

	assert.Equal(t, first, second)
	require.Len(t, st.updates, 2)
	assert.Equal(t, st.updates[0].SuggestedTimes, st.updates[1].SuggestedTimes)
}

func TestSuggest_PersistsPayload(t *testing.T) {
	st := newFakeStore(t, `{"type":"DATE_RANGE","start":"2025-01-06T00:00:00Z","end":"2025-01-07T00:00:00Z","title":"Sync","confidence":0.7}`)
	s := New(st, fakePrefs{prefs: preferences.Default()}, &fakeCalendar{result: busy()},
		clock("2025-01-05T12:00:00Z"), WithMaxSuggestions(2))

	out, err := s.Suggest(context.Background(), Request{UserID: testUser, CandidateID: testCandidate, DurationMin: minutes(60)})
	require.NoError(t, err)
	require.Len(t, out, 2)
	require.Len(t, st.updates, 1)

	p := st.updates[0]
	assert.Equal(t, []candidate.SuggestedTime{
		{Start: "2025-01-06T09:00:00Z", End: "2025-01-06T10:00:00Z"},
		{Start: "2025-01-06T09:15:00Z", End: "2025-01-06T10:15:00Z"},
	}, p.SuggestedTimes)
	require.NotNil(t, p.SuggestedDurationMin)
	assert.Equal(t, 60, *p.SuggestedDurationMin)
	assert.Equal(t, "2025-01-05T12:00:00Z", p.SuggestedGeneratedAt)
	assert.Equal(t, "Sync", p.Title)

	confidence, ok := p.Extra("confidence")
	require.True(t, ok, "unrelated keys are preserved")
	assert.JSONEq(t, `0.7`, string(confidence))
}

func TestSuggest_MalformedBusySkipped(t *testing.T) {
	var logs bytes.Buffer
	logger := slog.New(slog.NewTextHandler(&logs, nil))

	st := newFakeStore(t, `{"type":"DATE_RANGE","start":"2025-01-06T09:00:00Z","end":"2025-01-06T12:00:00Z"}`)
	cal := &fakeCalendar{result: busy(
		period("", "2025-01-06T10:00:00Z"),
		period("not a time", "2025-01-06T10:00:00Z"),
		period("2025-01-06T11:00:00Z", "2025-01-06T10:00:00Z"),
		period("2025-01-06T09:00:00Z", "2025-01-06T10:50:00Z"),
	)}
	s := New(st, fakePrefs{prefs: preferences.Default()}, cal, clock("2025-01-05T12:00:00Z"), WithLogger(logger))

	out, err := s.Suggest(context.Background(), Request{UserID: testUser, CandidateID: testCandidate, DurationMin: minutes(30)})
	require.NoError(t, err)

	require.NotEmpty(t, out)
	assert.Equal(t, "2025-01-06T11:00:00Z", candidate.FormatInstant(out[0].Start), "valid entry still applied")
	assert.Contains(t, logs.String(), "skipping malformed busy entry")
}

func TestSuggest_MissingCalendarInResponse(t *testing.T) {
	st := newFakeStore(t, `{"type":"DATE_RANGE","start":"2025-01-06T00:00:00Z","end":"2025-01-07T00:00:00Z"}`)
	for name, result := range map[string]*calendar.FreeBusyResult{
		"nil result":    nil,
		"no calendars":  {},
		"other account": {Calendars: map[string]calendar.FreeBusyCalendar{"x@y.z": {}}},
	} {
		t.Run(name, func(t *testing.T) {
			s := New(st, fakePrefs{prefs: preferences.Default()}, &fakeCalendar{result: result}, clock("2025-01-05T12:00:00Z"))
			out, err := s.Suggest(context.Background(), Request{UserID: testUser, CandidateID: testCandidate, DurationMin: minutes(30)})
			require.NoError(t, err)
			assert.Len(t, out, DefaultMaxSuggestions)
		})
	}
}

func TestSuggest_Errors(t *testing.T) {
	boom := errors.New("boom")
	validPayload := `{"type":"DATE_RANGE","start":"2025-01-06T00:00:00Z","end":"2025-01-07T00:00:00Z"}`

	tests := []struct {
		name     string
		payload  string
		req      Request
		prefs    fakePrefs
		cal      *fakeCalendar
		mutate   func(*fakeStore)
		wantIs   []error
		wantCall bool
	}{
		{
			name:   "candidate not found",
			req:    Request{UserID: testUser, CandidateID: 999},
			wantIs: []error{ErrNotFound},
		},
		{
			name:   "candidate owned by someone else",
			req:    Request{UserID: 2, CandidateID: testCandidate},
			wantIs: []error{ErrNotFound},
		},
		{
			name:   "email missing",
			mutate: func(f *fakeStore) { delete(f.emails, testEmail) },
			wantIs: []error{ErrNotFound},
		},
		{
			name:   "zero duration override",
			req:    Request{DurationMin: minutes(0)},
			wantIs: []error{ErrValidation, candidate.ErrInvalidDuration},
		},
		{
			name:   "negative duration override",
			req:    Request{DurationMin: minutes(-15)},
			wantIs: []error{ErrValidation, candidate.ErrInvalidDuration},
		},
		{
			name:    "malformed candidate start",
			payload: `{"type":"PROPOSED_TIME","start":"next tuesday","end":"2025-01-07T10:00:00Z"}`,
			wantIs:  []error{ErrValidation},
		},
		{
			name:   "malformed preferences",
			prefs:  fakePrefs{prefs: preferences.Preferences{WorkingHours: &workinghours.WorkingHours{StartTime: "nine"}, MeetingDefaultDurationMin: 30}},
			wantIs: []error{ErrValidation},
		},
		{
			name:   "preferences unavailable",
			prefs:  fakePrefs{err: boom},
			wantIs: []error{boom},
		},
		{
			name:     "free/busy failure",
			cal:      &fakeCalendar{err: boom},
			wantIs:   []error{ErrUpstream, boom},
			wantCall: true,
		},
		{
			name:   "no calendar client",
			cal:    &fakeCalendar{providerErr: boom},
			wantIs: []error{ErrUpstream, boom},
		},
		{
			name:     "persist failure",
			mutate:   func(f *fakeStore) { f.updateErr = boom },
			wantIs:   []error{boom},
			wantCall: true,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			payload := tt.payload
			if payload == "" {
				payload = validPayload
			}
			st := newFakeStore(t, payload)
			if tt.mutate != nil {
				tt.mutate(st)
			}
			prefs := tt.prefs
			if prefs.prefs.WorkingHours == nil && prefs.err == nil {
				prefs.prefs = preferences.Default()
			}
			cal := tt.cal
			if cal == nil {
				cal = &fakeCalendar{result: busy()}
			}
			req := tt.req
			if req.UserID == 0 {
				req.UserID = testUser
			}
			if req.CandidateID == 0 {
				req.CandidateID = testCandidate
			}
			if req.DurationMin == nil && tt.payload == "" {
				req.DurationMin = minutes(30)
			}

			s := New(st, prefs, cal, clock("2025-01-05T12:00:00Z"))
			out, err := s.Suggest(context.Background(), req)

			require.Error(t, err)
			assert.Nil(t, out)
			for _, target := range tt.wantIs {
				assert.ErrorIs(t, err, target)
			}
			assert.Equal(t, tt.wantCall, cal.calls > 0, "free/busy calls")
			if tt.mutate == nil || st.updateErr == nil {
				assert.Empty(t, st.updates, "nothing is persisted on failure")
			}
		})
	}
}

func TestErrorTypes(t *testing.T) {
	cause := errors.New("deadline exceeded")

	var upstream *UpstreamError
	err := error(&UpstreamError{Err: cause})
	require.ErrorAs(t, err, &upstream)
	assert.ErrorIs(t, err, ErrUpstream)
	assert.ErrorIs(t, err, cause)
	assert.NotErrorIs(t, err, ErrValidation)

	var validation *ValidationError
	err = invalid("window", candidate.ErrInvalidWindow)
	require.ErrorAs(t, err, &validation)
	assert.Equal(t, "window", validation.Reason)
	assert.ErrorIs(t, err, ErrValidation)
	assert.ErrorIs(t, err, candidate.ErrInvalidWindow)
	assert.Contains(t, err.Error(), "window")

	assert.Equal(t, "validation_error", outcome(invalid("x", nil)))
	assert.Equal(t, "not_found", outcome(ErrNotFound))
	assert.Equal(t, "upstream_error", outcome(&UpstreamError{Err: cause}))
	assert.Equal(t, "internal_error", outcome(cause))
	assert.Equal(t, "success", outcome(nil))
}
