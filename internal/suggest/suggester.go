package suggest

import (
	"context"
	"fmt"
	"log/slog"
	"slices"
	"time"

	"go.opentelemetry.io/otel/attribute"

	"github.com/teemow/inboxcal/internal/calendar"
	"github.com/teemow/inboxcal/internal/candidate"
	"github.com/teemow/inboxcal/internal/instrumentation"
	"github.com/teemow/inboxcal/internal/interval"
	"github.com/teemow/inboxcal/internal/logging"
	"github.com/teemow/inboxcal/internal/preferences"
	"github.com/teemow/inboxcal/internal/slots"
	"github.com/teemow/inboxcal/internal/store"
)

const (
	// DefaultMaxSuggestions caps the number of returned slots.
	DefaultMaxSuggestions = 5

	// DefaultFreeBusyTimeout bounds the free/busy call.
	DefaultFreeBusyTimeout = 10 * time.Second
)

// Store looks up candidates and their emails and persists suggestions.
type Store interface {
	GetCandidate(ctx context.Context, userID, candidateID int64) (*store.Candidate, error)
	GetEmail(ctx context.Context, userID, emailID int64) (*store.Email, error)
	UpdateCandidatePayload(ctx context.Context, userID, candidateID int64, p candidate.Payload) error
}

// PreferencesSource returns a user's effective preferences with defaults applied.
type PreferencesSource interface {
	ForUser(ctx context.Context, userID int64) (preferences.Preferences, error)
}

// FreeBusyProvider queries busy time of calendars.
type FreeBusyProvider interface {
	QueryFreeBusyRaw(ctx context.Context, timeMin, timeMax string, calendarIDs []string) (*calendar.FreeBusyResult, error)
}

// CalendarSource returns the free/busy provider serving a user's calendar.
type CalendarSource interface {
	FreeBusyProvider(ctx context.Context, userID int64) (FreeBusyProvider, error)
}

// Request asks for meeting times for one candidate.
type Request struct {
	UserID      int64
	CandidateID int64

	// DurationMin overrides every other duration source when set. It must be positive.
	DurationMin *int
}

// Suggestion is one proposed meeting slot, in UTC.
type Suggestion struct {
	Start time.Time `json:"start"`
	End   time.Time `json:"end"`

	// Score is reserved for ranking and is never set yet.
	Score *float64 `json:"score,omitempty"`
}

// Suggester turns calendar candidates into ranked, policy-compliant meeting slots.
type Suggester struct {
	store     Store
	prefs     PreferencesSource
	calendars CalendarSource

	logger          *slog.Logger
	metrics         *instrumentation.Metrics
	now             func() time.Time
	freeBusyTimeout time.Duration
	maxSuggestions  int
	windowDays      int
}

// Option configures a Suggester.
type Option func(*Suggester)

// WithLogger sets the logger (default: slog.Default()).
func WithLogger(logger *slog.Logger) Option {
	return func(s *Suggester) {
		if logger != nil {
			s.logger = logger
		}
	}
}

// WithMetrics sets the metrics recorder.
func WithMetrics(m *instrumentation.Metrics) Option {
	return func(s *Suggester) { s.metrics = m }
}

// WithClock overrides the current time source.
func WithClock(now func() time.Time) Option {
	return func(s *Suggester) {
		if now != nil {
			s.now = now
		}
	}
}

// WithFreeBusyTimeout bounds the free/busy call. Non-positive values are ignored.
func WithFreeBusyTimeout(d time.Duration) Option {
	return func(s *Suggester) {
		if d > 0 {
			s.freeBusyTimeout = d
		}
	}
}

// WithMaxSuggestions caps the number of returned slots. Non-positive values are ignored.
func WithMaxSuggestions(n int) Option {
	return func(s *Suggester) {
		if n > 0 {
			s.maxSuggestions = n
		}
	}
}

// WithWindowDays sets the search horizon for candidates without their own range.
func WithWindowDays(days int) Option {
	return func(s *Suggester) {
		if days > 0 {
			s.windowDays = days
		}
	}
}

// New creates a Suggester over its collaborators.
func New(st Store, prefs PreferencesSource, calendars CalendarSource, opts ...Option) *Suggester {
	s := &Suggester{
		store:           st,
		prefs:           prefs,
		calendars:       calendars,
		logger:          slog.Default(),
		now:             time.Now,
		freeBusyTimeout: DefaultFreeBusyTimeout,
		maxSuggestions:  DefaultMaxSuggestions,
		windowDays:      candidate.DefaultWindowDays,
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// Suggest computes meeting times for the candidate, stores them on the
// candidate's payload and returns them. A proposed time from the candidate
// comes first when it is still free; the rest follow in chronological order.
//
// Errors match ErrNotFound, ErrValidation or ErrUpstream; anything else is an
// internal failure (for example the final write).
func (s *Suggester) Suggest(ctx context.Context, req Request) (out []Suggestion, err error) {
	ctx, span := instrumentation.StartSpan(ctx, "suggest.meeting_times",
		instrumentation.NewSpanAttributeBuilder().WithUser(req.UserID).WithCandidate(req.CandidateID).Build()...)
	defer span.End()

	logger := logging.WithOperation(s.logger, "suggest").With(
		logging.UserID(req.UserID), logging.CandidateID(req.CandidateID))
	began := time.Now()

	defer func() {
		elapsed := time.Since(began)
		s.metrics.RecordSuggestion(ctx, outcome(err), len(out), elapsed)
		if err != nil {
			instrumentation.SetSpanError(span, err)
			logger.InfoContext(ctx, "meeting time suggestion failed",
				logging.Status(outcome(err)), logging.Duration(elapsed), logging.Err(err))
			return
		}
		span.SetAttributes(attribute.Int(instrumentation.SpanAttrSlotCount, len(out)))
		instrumentation.SetSpanSuccess(span)
		logger.InfoContext(ctx, "meeting times suggested",
			slog.Int("count", len(out)), logging.Duration(elapsed))
	}()

	return s.suggest(ctx, logger, req)
}

func (s *Suggester) suggest(ctx context.Context, logger *slog.Logger, req Request) ([]Suggestion, error) {
	rec, err := s.store.GetCandidate(ctx, req.UserID, req.CandidateID)
	if err != nil {
		return nil, err
	}
	if _, err := s.store.GetEmail(ctx, req.UserID, rec.EmailID); err != nil {
		return nil, err
	}

	prefs, err := s.prefs.ForUser(ctx, req.UserID)
	if err != nil {
		return nil, fmt.Errorf("failed to load preferences: %w", err)
	}
	policy, err := prefs.Policy()
	if err != nil {
		return nil, invalid("preferences", err)
	}

	c, err := rec.Payload.Candidate()
	if err != nil {
		return nil, invalid("candidate payload", err)
	}

	now := s.now().UTC()
	resolver := candidate.Resolver{
		Policy:             policy,
		DefaultDurationMin: prefs.MeetingDefaultDurationMin,
		WindowDays:         s.windowDays,
	}
	res, err := resolver.Resolve(c, req.DurationMin, now)
	if err != nil {
		return nil, invalid("cannot resolve duration or window", err)
	}

	busy, err := s.fetchBusy(ctx, logger, req.UserID, res.Window)
	if err != nil {
		return nil, err
	}

	found := slots.NewGenerator(policy).Generate(res.Window, busy, res.Duration)
	if p := res.Proposed; p != nil && policy.Admits(*p) && !overlapsAny(*p, busy) {
		found = slices.DeleteFunc(found, p.Equal)
		found = slices.Insert(found, 0, *p)
	}
	if len(found) > s.maxSuggestions {
		found = found[:s.maxSuggestions]
	}

	updated := rec.Payload.WithSuggestions(found, res.DurationMinutes(), now)
	if err := s.store.UpdateCandidatePayload(ctx, req.UserID, req.CandidateID, updated); err != nil {
		return nil, fmt.Errorf("failed to store suggestions: %w", err)
	}

	out := make([]Suggestion, len(found))
	for i, slot := range found {
		out[i] = Suggestion{Start: slot.Start.UTC(), End: slot.End.UTC()}
	}
	return out, nil
}

// fetchBusy queries the primary calendar for the window under the free/busy
// timeout and returns the well-formed busy intervals.
func (s *Suggester) fetchBusy(ctx context.Context, logger *slog.Logger, userID int64, window interval.Interval) ([]interval.Interval, error) {
	ctx, span := instrumentation.StartSpan(ctx, "suggest.freebusy",
		attribute.String(instrumentation.SpanAttrWindowStart, candidate.FormatInstant(window.Start)),
		attribute.String(instrumentation.SpanAttrWindowEnd, candidate.FormatInstant(window.End)))
	defer span.End()

	provider, err := s.calendars.FreeBusyProvider(ctx, userID)
	if err != nil {
		instrumentation.SetSpanError(span, err)
		return nil, &UpstreamError{Err: err}
	}

	fbCtx, cancel := context.WithTimeout(ctx, s.freeBusyTimeout)
	defer cancel()

	fb, err := provider.QueryFreeBusyRaw(fbCtx,
		candidate.FormatInstant(window.Start), candidate.FormatInstant(window.End),
		[]string{calendar.PrimaryCalendarID})
	if err != nil {
		instrumentation.SetSpanError(span, err)
		return nil, &UpstreamError{Err: err}
	}

	busy, dropped := parseBusy(ctx, logger, fb.Busy(calendar.PrimaryCalendarID))
	s.metrics.RecordBusyEntriesDropped(ctx, dropped)
	if dropped > 0 {
		instrumentation.AddSpanEvent(span, "busy_entries_dropped", attribute.Int("count", dropped))
	}
	instrumentation.SetSpanSuccess(span)
	return busy, nil
}

func overlapsAny(slot interval.Interval, busy []interval.Interval) bool {
	return slices.ContainsFunc(busy, slot.Overlaps)
}
