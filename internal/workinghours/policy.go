package workinghours

import (
	"fmt"
	"strings"
	"time"

	"github.com/teemow/inboxcal/internal/interval"
)

// Defaults applied to fields left empty in WorkingHours.
const (
	DefaultStartTime  = "09:00"
	DefaultEndTime    = "17:00"
	DefaultLunchStart = "12:00"
	DefaultLunchEnd   = "13:00"
)

// fallbackDayEnd replaces an end time that is not after the start time.
// An inverted window therefore means "until 17:00" instead of "no availability".
var fallbackDayEnd = MustParseTimeOfDay(DefaultEndTime)

var dayCodes = map[string]time.Weekday{
	"mon": time.Monday,
	"tue": time.Tuesday,
	"wed": time.Wednesday,
	"thu": time.Thursday,
	"fri": time.Friday,
	"sat": time.Saturday,
	"sun": time.Sunday,
}

// WorkingHours is the stored weekly availability template of a user.
type WorkingHours struct {
	// Days lists working days as three-letter codes ("mon".."sun"), case-insensitive.
	// An empty list means every day of the week; nil means the key was never set.
	Days []string `json:"days" yaml:"days"`

	StartTime string `json:"start_time,omitempty" yaml:"start_time"`
	EndTime   string `json:"end_time,omitempty" yaml:"end_time"`

	LunchEnabled bool   `json:"lunch_enabled,omitempty" yaml:"lunch_enabled"`
	LunchStart   string `json:"lunch_start,omitempty" yaml:"lunch_start"`
	LunchEnd     string `json:"lunch_end,omitempty" yaml:"lunch_end"`

	// TimeZone is an IANA zone name used to place working hours on local dates (default: UTC)
	TimeZone string `json:"timezone,omitempty" yaml:"timezone"`
}

// IsZero reports whether no field of the template is set. An explicit empty
// Days list is a setting.
func (w WorkingHours) IsZero() bool {
	return w.Days == nil && w.StartTime == "" && w.EndTime == "" && !w.LunchEnabled &&
		w.LunchStart == "" && w.LunchEnd == "" && w.TimeZone == ""
}

// Policy is a compiled, immutable WorkingHours template.
type Policy struct {
	days         [7]bool
	start        TimeOfDay
	end          TimeOfDay
	dayEnd       TimeOfDay
	lunchEnabled bool
	lunchStart   TimeOfDay
	lunchEnd     TimeOfDay
	loc          *time.Location
}

// Compile validates the template and returns its Policy.
func (w WorkingHours) Compile() (*Policy, error) {
	p := &Policy{loc: time.UTC}

	if len(w.Days) == 0 {
		for i := range p.days {
			p.days[i] = true
		}
	} else {
		for _, code := range w.Days {
			if wd, ok := dayCodes[strings.ToLower(strings.TrimSpace(code))]; ok {
				p.days[wd] = true
			}
		}
	}

	var err error
	if p.start, err = parseOrDefault(w.StartTime, DefaultStartTime); err != nil {
		return nil, fmt.Errorf("start_time: %w", err)
	}
	if p.end, err = parseOrDefault(w.EndTime, DefaultEndTime); err != nil {
		return nil, fmt.Errorf("end_time: %w", err)
	}
	if p.lunchStart, err = parseOrDefault(w.LunchStart, DefaultLunchStart); err != nil {
		return nil, fmt.Errorf("lunch_start: %w", err)
	}
	if p.lunchEnd, err = parseOrDefault(w.LunchEnd, DefaultLunchEnd); err != nil {
		return nil, fmt.Errorf("lunch_end: %w", err)
	}

	p.dayEnd = p.end
	if !p.start.Before(p.end) {
		p.dayEnd = fallbackDayEnd
	}
	p.lunchEnabled = w.LunchEnabled && p.lunchStart.Before(p.lunchEnd)

	if w.TimeZone != "" {
		loc, err := time.LoadLocation(w.TimeZone)
		if err != nil {
			return nil, fmt.Errorf("timezone: %w", err)
		}
		p.loc = loc
	}

	return p, nil
}

func parseOrDefault(value, fallback string) (TimeOfDay, error) {
	if strings.TrimSpace(value) == "" {
		value = fallback
	}
	return ParseTimeOfDay(value)
}

// Location returns the timezone working hours are expressed in.
func (p *Policy) Location() *time.Location {
	return p.loc
}

// IsWorkingDay reports whether wd is one of the configured working days.
func (p *Policy) IsWorkingDay(wd time.Weekday) bool {
	return p.days[wd]
}

// WorkingDays returns the working days in Sunday-first order.
func (p *Policy) WorkingDays() []time.Weekday {
	var days []time.Weekday
	for wd, ok := range p.days {
		if ok {
			days = append(days, time.Weekday(wd))
		}
	}
	return days
}

// LunchEnabled reports whether the lunch window is carved out of working hours.
func (p *Policy) LunchEnabled() bool {
	return p.lunchEnabled
}

// DayStart returns the configured start of work on the local date of day.
func (p *Policy) DayStart(day time.Time) time.Time {
	y, m, d := day.In(p.loc).Date()
	return p.start.On(y, m, d, p.loc).UTC()
}

// DayWindow returns the work window on the local date of day.
// When the configured end is not after the start, the window ends at 17:00.
func (p *Policy) DayWindow(day time.Time) interval.Interval {
	y, m, d := day.In(p.loc).Date()
	return interval.New(p.start.On(y, m, d, p.loc), p.dayEnd.On(y, m, d, p.loc))
}

// LunchWindow returns the lunch break on the local date of day, if enabled.
func (p *Policy) LunchWindow(day time.Time) (interval.Interval, bool) {
	if !p.lunchEnabled {
		return interval.Interval{}, false
	}
	y, m, d := day.In(p.loc).Date()
	return interval.New(p.lunchStart.On(y, m, d, p.loc), p.lunchEnd.On(y, m, d, p.loc)), true
}

// IsWithinPolicy reports whether the instant falls on a working day, inside
// the work window and outside the lunch break.
func (p *Policy) IsWithinPolicy(t time.Time) bool {
	if !p.IsWorkingDay(t.In(p.loc).Weekday()) {
		return false
	}
	window := p.DayWindow(t)
	if t.Before(window.Start) || !t.Before(window.End) {
		return false
	}
	if lunch, ok := p.LunchWindow(t); ok {
		if !t.Before(lunch.Start) && t.Before(lunch.End) {
			return false
		}
	}
	return true
}

// Admits reports whether the whole slot fits the policy: its start falls on a
// working day, it lies inside that day's work window and it does not overlap
// the lunch break. Busy time is not considered.
func (p *Policy) Admits(slot interval.Interval) bool {
	if !slot.Valid() || !p.IsWorkingDay(slot.Start.In(p.loc).Weekday()) {
		return false
	}
	window := p.DayWindow(slot.Start)
	if slot.Start.Before(window.Start) || slot.End.After(window.End) {
		return false
	}
	if lunch, ok := p.LunchWindow(slot.Start); ok && slot.Overlaps(lunch) {
		return false
	}
	return true
}
