package ics

import (
	"fmt"
	"strings"
	"time"

	ical "github.com/arran4/golang-ical"
	"github.com/google/uuid"

	"github.com/teemow/inboxcal/internal/candidate"
	"github.com/teemow/inboxcal/internal/interval"
)

// ProductID identifies the generator in exported calendars.
const ProductID = "-//inboxcal//meeting suggestions//EN"

// uidNamespace seeds event UIDs so that regenerating the same suggestions
// yields the same UIDs.
var uidNamespace = uuid.NewSHA1(uuid.NameSpaceURL, []byte("https://github.com/teemow/inboxcal/suggestions"))

// Export renders suggestions for a candidate as a PUBLISH calendar with one
// tentative event per slot. stamp is written as DTSTAMP.
func Export(p candidate.Payload, slots []interval.Interval, stamp time.Time) string {
	cal := ical.NewCalendar()
	cal.SetProductId(ProductID)
	cal.SetMethod(ical.MethodPublish)

	title := strings.TrimSpace(p.Title)
	if title == "" {
		title = "Meeting"
	}
	key := candidate.DedupKey(p)

	for i, slot := range slots {
		event := cal.AddEvent(EventUID(key, slot))
		event.SetDtStampTime(stamp.UTC())
		event.SetStartAt(slot.Start.UTC())
		event.SetEndAt(slot.End.UTC())
		event.SetSummary(fmt.Sprintf("%s (option %d)", title, i+1))
		event.SetStatus(ical.ObjectStatusTentative)
		if p.Location != "" {
			event.SetLocation(p.Location)
		}
		for _, a := range p.Attendees {
			if a = strings.TrimSpace(a); a != "" {
				event.AddAttendee(a)
			}
		}
	}

	return cal.Serialize()
}

// EventUID derives a stable UID for one suggested slot of a candidate.
func EventUID(dedupKey string, slot interval.Interval) string {
	name := dedupKey + "|" + candidate.FormatInstant(slot.Start) + "|" + candidate.FormatInstant(slot.End)
	return uuid.NewSHA1(uidNamespace, []byte(name)).String() + "@inboxcal"
}
