package calendar

import (
	calendar "google.golang.org/api/calendar/v3"
)

// FreeBusyResult is the raw free/busy response keyed by calendar ID.
// Busy bounds are kept as the strings Google returned; callers parse them.
type FreeBusyResult struct {
	TimeMin   string                      `json:"timeMin,omitempty"`
	TimeMax   string                      `json:"timeMax,omitempty"`
	Calendars map[string]FreeBusyCalendar `json:"calendars"`
}

// FreeBusyCalendar holds the busy periods and per-calendar errors for one calendar
type FreeBusyCalendar struct {
	Busy   []BusyPeriod `json:"busy"`
	Errors []string     `json:"errors,omitempty"`
}

// BusyPeriod is one busy range as returned by the API
type BusyPeriod struct {
	Start string `json:"start"`
	End   string `json:"end"`
}

// Busy returns the busy periods for a calendar, or nil if the calendar is absent.
func (r *FreeBusyResult) Busy(calendarID string) []BusyPeriod {
	if r == nil {
		return nil
	}
	return r.Calendars[calendarID].Busy
}

// toFreeBusyResult converts a Google free/busy response. Nil entries are skipped.
func toFreeBusyResult(resp *calendar.FreeBusyResponse) *FreeBusyResult {
	result := &FreeBusyResult{Calendars: map[string]FreeBusyCalendar{}}
	if resp == nil {
		return result
	}

	result.TimeMin = resp.TimeMin
	result.TimeMax = resp.TimeMax

	for calID, cal := range resp.Calendars {
		var fb FreeBusyCalendar
		for _, busy := range cal.Busy {
			if busy == nil {
				continue
			}
			fb.Busy = append(fb.Busy, BusyPeriod{Start: busy.Start, End: busy.End})
		}
		for _, e := range cal.Errors {
			if e == nil {
				continue
			}
			fb.Errors = append(fb.Errors, e.Reason)
		}
		result.Calendars[calID] = fb
	}

	return result
}
