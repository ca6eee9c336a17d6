package candidate

import "github.com/teemow/inboxcal/internal/interval"

// Candidate is the typed form of a calendar candidate payload.
// It is one of Invite, ProposedTime, DateRange or Open.
type Candidate interface {
	// Kind returns the candidate type as stored.
	Kind() Kind

	// span returns the candidate's start and end when both are known.
	span() (interval.Interval, bool)
}

// Invite is a meeting invitation found in an email.
type Invite struct {
	Slot    interval.Interval
	ICalUID string
}

func (Invite) Kind() Kind { return KindInvite }
func (c Invite) span() (interval.Interval, bool) { return c.Slot, true }

// ProposedTime is a single concrete time suggested by the sender.
// Type is PROPOSED_TIME or any other kind that carries both start and end.
type ProposedTime struct {
	Type Kind
	Slot interval.Interval
}

func (c ProposedTime) Kind() Kind { return c.Type }
func (c ProposedTime) span() (interval.Interval, bool) { return c.Slot, true }

// DateRange is a loose period ("sometime next week") to search within.
type DateRange struct {
	Range interval.Interval
}

func (DateRange) Kind() Kind { return KindDateRange }
func (c DateRange) span() (interval.Interval, bool) { return c.Range, true }

// Open is a candidate without a usable start or end.
type Open struct {
	Type Kind
}

func (c Open) Kind() Kind { return c.Type }
func (Open) span() (interval.Interval, bool) { return interval.Interval{}, false }
