package candidate

import (
	"errors"
	"fmt"
	"time"

	"github.com/teemow/inboxcal/internal/interval"
	"github.com/teemow/inboxcal/internal/workinghours"
)

// DefaultWindowDays is the length of the search window when the candidate
// does not define one.
const DefaultWindowDays = 7

var (
	// ErrInvalidDuration is returned when the resolved meeting duration is not positive.
	ErrInvalidDuration = errors.New("meeting duration must be positive")

	// ErrInvalidWindow is returned when the resolved search window is empty.
	ErrInvalidWindow = errors.New("search window must end after it starts")
)

// Resolution is the search setup derived from a candidate.
type Resolution struct {
	Window   interval.Interval
	Duration time.Duration

	// Proposed is the candidate's own slot, to be offered first if still free.
	Proposed *interval.Interval
}

// DurationMinutes returns the duration in whole minutes.
func (r Resolution) DurationMinutes() int {
	return int(r.Duration / time.Minute)
}

// Resolver derives search windows and durations from candidates.
type Resolver struct {
	// Policy places the start of the working day for proposed times. Required.
	Policy *workinghours.Policy

	// DefaultDurationMin is used when neither an override nor the candidate
	// gives a duration.
	DefaultDurationMin int

	// WindowDays is the search horizon in days (default: DefaultWindowDays).
	WindowDays int
}

// Resolve computes the search window, the meeting duration and the optional
// proposed slot for c, as seen at now. overrideMin, when set, wins over
// every other duration source.
func (r Resolver) Resolve(c Candidate, overrideMin *int, now time.Time) (Resolution, error) {
	duration, err := r.duration(c, overrideMin)
	if err != nil {
		return Resolution{}, err
	}

	res := Resolution{Duration: duration}
	res.Window, res.Proposed = r.window(c, now.UTC())
	if !res.Window.Valid() {
		return Resolution{}, fmt.Errorf("%w: [%s, %s)", ErrInvalidWindow,
			FormatInstant(res.Window.Start), FormatInstant(res.Window.End))
	}
	return res, nil
}

func (r Resolver) duration(c Candidate, overrideMin *int) (time.Duration, error) {
	if overrideMin != nil {
		if *overrideMin <= 0 {
			return 0, fmt.Errorf("%w: got %d minutes", ErrInvalidDuration, *overrideMin)
		}
		return time.Duration(*overrideMin) * time.Minute, nil
	}
	if span, ok := c.span(); ok {
		if minutes := int(span.End.Sub(span.Start) / time.Minute); minutes > 0 {
			return time.Duration(minutes) * time.Minute, nil
		}
	}
	if r.DefaultDurationMin <= 0 {
		return 0, fmt.Errorf("%w: default is %d minutes", ErrInvalidDuration, r.DefaultDurationMin)
	}
	return time.Duration(r.DefaultDurationMin) * time.Minute, nil
}

func (r Resolver) window(c Candidate, now time.Time) (interval.Interval, *interval.Interval) {
	horizon := time.Duration(r.windowDays()) * 24 * time.Hour

	if dr, ok := c.(DateRange); ok && dr.Range.Valid() {
		return dr.Range, nil
	}

	span, ok := c.span()
	if !ok {
		return interval.New(now, now.Add(horizon)), nil
	}

	start := r.Policy.DayStart(span.Start)
	if now.After(start) {
		start = now
	}
	var proposed *interval.Interval
	if span.Valid() {
		slot := span
		proposed = &slot
	}
	return interval.New(start, start.Add(horizon)), proposed
}

func (r Resolver) windowDays() int {
	if r.WindowDays > 0 {
		return r.WindowDays
	}
	return DefaultWindowDays
}
