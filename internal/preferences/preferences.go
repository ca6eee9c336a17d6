package preferences

import (
	"context"
	"fmt"
	"slices"

	"github.com/teemow/inboxcal/internal/workinghours"
)

// DefaultMeetingDurationMin is the meeting length used when neither the
// request nor the candidate specifies one.
const DefaultMeetingDurationMin = 30

// Preferences is the stored preferences document of a user.
// Scheduling reads WorkingHours and MeetingDefaultDurationMin; the other
// fields belong to the rest of the mail client and are only carried along.
type Preferences struct {
	WorkingHours              *workinghours.WorkingHours `json:"working_hours,omitempty" yaml:"working_hours"`
	MeetingDefaultDurationMin int                        `json:"meeting_default_duration_min,omitempty" yaml:"meeting_default_duration_min"`

	DigestTimeLocal  string `json:"digest_time_local,omitempty" yaml:"digest_time_local"`
	VIPAlertsEnabled *bool  `json:"vip_alerts_enabled,omitempty" yaml:"vip_alerts_enabled"`
	AutomationLevel  string `json:"automation_level,omitempty" yaml:"automation_level"`
}

// Default returns the built-in preferences: Monday to Friday 09:00-17:00,
// lunch 12:00-13:00 configured but not carved out, 30 minute meetings.
func Default() Preferences {
	vip := true
	return Preferences{
		WorkingHours: &workinghours.WorkingHours{
			Days:       []string{"mon", "tue", "wed", "thu", "fri"},
			StartTime:  workinghours.DefaultStartTime,
			EndTime:    workinghours.DefaultEndTime,
			LunchStart: workinghours.DefaultLunchStart,
			LunchEnd:   workinghours.DefaultLunchEnd,
		},
		MeetingDefaultDurationMin: DefaultMeetingDurationMin,
		DigestTimeLocal:           "08:00",
		VIPAlertsEnabled:          &vip,
		AutomationLevel:           "SUGGEST_ONLY",
	}
}

// Clone returns a deep copy.
func (p Preferences) Clone() Preferences {
	out := p
	if p.WorkingHours != nil {
		wh := *p.WorkingHours
		wh.Days = slices.Clone(p.WorkingHours.Days)
		out.WorkingHours = &wh
	}
	if p.VIPAlertsEnabled != nil {
		v := *p.VIPAlertsEnabled
		out.VIPAlertsEnabled = &v
	}
	return out
}

// Merge fills every unset field of p from defaults. An empty working hours
// template counts as unset.
func (p Preferences) Merge(defaults Preferences) Preferences {
	out := p.Clone()
	d := defaults.Clone()
	if out.WorkingHours == nil || out.WorkingHours.IsZero() {
		out.WorkingHours = d.WorkingHours
	}
	if out.MeetingDefaultDurationMin == 0 {
		out.MeetingDefaultDurationMin = d.MeetingDefaultDurationMin
	}
	if out.DigestTimeLocal == "" {
		out.DigestTimeLocal = d.DigestTimeLocal
	}
	if out.VIPAlertsEnabled == nil {
		out.VIPAlertsEnabled = d.VIPAlertsEnabled
	}
	if out.AutomationLevel == "" {
		out.AutomationLevel = d.AutomationLevel
	}
	return out
}

// Policy compiles the working hours. Missing working hours compile to the
// zero template (every day, 09:00-17:00).
func (p Preferences) Policy() (*workinghours.Policy, error) {
	var wh workinghours.WorkingHours
	if p.WorkingHours != nil {
		wh = *p.WorkingHours
	}
	policy, err := wh.Compile()
	if err != nil {
		return nil, fmt.Errorf("invalid working hours: %w", err)
	}
	return policy, nil
}

// Loader reads the stored preferences of a user.
// It returns nil and no error when the user has none.
type Loader interface {
	LoadPreferences(ctx context.Context, userID int64) (*Preferences, error)
}

// Resolver returns effective preferences: stored values merged over defaults.
type Resolver struct {
	loader   Loader
	defaults Preferences
}

// NewResolver creates a Resolver. defaults is copied.
func NewResolver(loader Loader, defaults Preferences) *Resolver {
	return &Resolver{loader: loader, defaults: defaults.Clone()}
}

// Defaults returns a copy of the configured defaults.
func (r *Resolver) Defaults() Preferences {
	return r.defaults.Clone()
}

// ForUser returns the effective preferences of a user.
func (r *Resolver) ForUser(ctx context.Context, userID int64) (Preferences, error) {
	stored, err := r.loader.LoadPreferences(ctx, userID)
	if err != nil {
		return Preferences{}, fmt.Errorf("failed to load preferences for user %d: %w", userID, err)
	}
	if stored == nil {
		return r.defaults.Clone(), nil
	}
	return stored.Merge(r.defaults), nil
}
