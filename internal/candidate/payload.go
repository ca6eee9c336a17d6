package candidate

import (
	"bytes"
	"encoding/json"
	"fmt"
	"maps"
	"slices"
	"strings"
	"time"

	"github.com/teemow/inboxcal/internal/interval"
)

// Kind is the candidate type stored in the payload's "type" key.
type Kind string

// Known candidate kinds. Extractors may emit others; they are handled like
// a proposed time when start and end are present.
const (
	KindInvite       Kind = "INVITE"
	KindProposedTime Kind = "PROPOSED_TIME"
	KindDateRange    Kind = "DATE_RANGE"
)

// SuggestedTime is one entry of the persisted "suggested_times" list.
type SuggestedTime struct {
	Start string `json:"start"`
	End   string `json:"end"`
}

// Payload is the stored JSON object of a calendar candidate.
//
// Keys this package does not know about, or known keys holding a value of an
// unexpected type, are kept as raw JSON and written back unchanged.
type Payload struct {
	Type      string
	Title     string
	Start     string
	End       string
	Attendees []string
	Location  string
	ICalUID   string

	SuggestedTimes       []SuggestedTime
	SuggestedDurationMin *int
	SuggestedGeneratedAt string

	extra map[string]json.RawMessage
}

// ParsePayload decodes a stored payload. Empty input yields an empty payload.
func ParsePayload(data []byte) (Payload, error) {
	var p Payload
	if len(bytes.TrimSpace(data)) == 0 || bytes.Equal(bytes.TrimSpace(data), []byte("null")) {
		return p, nil
	}
	if err := json.Unmarshal(data, &p); err != nil {
		return Payload{}, fmt.Errorf("failed to decode candidate payload: %w", err)
	}
	return p, nil
}

// UnmarshalJSON implements json.Unmarshaler.
func (p *Payload) UnmarshalJSON(data []byte) error {
	raw := map[string]json.RawMessage{}
	if err := json.Unmarshal(data, &raw); err != nil {
		return err
	}

	*p = Payload{}
	take(raw, "type", &p.Type)
	take(raw, "title", &p.Title)
	take(raw, "start", &p.Start)
	take(raw, "end", &p.End)
	take(raw, "location", &p.Location)
	take(raw, "ical_uid", &p.ICalUID)
	take(raw, "suggested_times", &p.SuggestedTimes)
	take(raw, "suggested_duration_min", &p.SuggestedDurationMin)
	take(raw, "suggested_generated_at", &p.SuggestedGeneratedAt)

	if msg, ok := raw["attendees"]; ok {
		var items []any
		if json.Unmarshal(msg, &items) == nil {
			p.Attendees = make([]string, 0, len(items))
			for _, item := range items {
				if s, ok := item.(string); ok && strings.TrimSpace(s) != "" {
					p.Attendees = append(p.Attendees, s)
				}
			}
			// Mixed content also stays raw so nothing is lost on rewrite.
			if len(p.Attendees) == len(items) {
				delete(raw, "attendees")
			}
		}
	}

	if len(raw) > 0 {
		p.extra = raw
	}
	return nil
}

// take decodes raw[key] into dst and removes the key on success.
// JSON null counts as absent.
func take(raw map[string]json.RawMessage, key string, dst any) {
	msg, ok := raw[key]
	if !ok {
		return
	}
	if bytes.Equal(bytes.TrimSpace(msg), []byte("null")) {
		delete(raw, key)
		return
	}
	if err := json.Unmarshal(msg, dst); err == nil {
		delete(raw, key)
	}
}

// MarshalJSON implements json.Marshaler. Keys are emitted in sorted order.
func (p Payload) MarshalJSON() ([]byte, error) {
	out := make(map[string]any, len(p.extra)+10)
	for k, v := range p.extra {
		out[k] = v
	}
	setString(out, "type", p.Type)
	setString(out, "title", p.Title)
	setString(out, "start", p.Start)
	setString(out, "end", p.End)
	setString(out, "location", p.Location)
	setString(out, "ical_uid", p.ICalUID)
	setString(out, "suggested_generated_at", p.SuggestedGeneratedAt)
	if _, kept := p.extra["attendees"]; !kept && p.Attendees != nil {
		out["attendees"] = p.Attendees
	}
	if p.SuggestedTimes != nil {
		out["suggested_times"] = p.SuggestedTimes
	}
	if p.SuggestedDurationMin != nil {
		out["suggested_duration_min"] = *p.SuggestedDurationMin
	}
	return json.Marshal(out)
}

func setString(out map[string]any, key, value string) {
	if value != "" {
		out[key] = value
	}
}

// Extra returns the raw value of a key this package does not interpret.
func (p Payload) Extra(key string) (json.RawMessage, bool) {
	v, ok := p.extra[key]
	return v, ok
}

// Kind returns the normalized candidate type.
func (p Payload) Kind() Kind {
	return Kind(strings.ToUpper(strings.TrimSpace(p.Type)))
}

// WithSuggestions returns a copy of the payload carrying the given
// suggestions, the duration they were generated for and the generation time.
// All timestamps are written as RFC 3339 in UTC.
func (p Payload) WithSuggestions(slots []interval.Interval, durationMin int, generatedAt time.Time) Payload {
	out := p
	out.extra = maps.Clone(p.extra)
	out.Attendees = slices.Clone(p.Attendees)

	out.SuggestedTimes = make([]SuggestedTime, 0, len(slots))
	for _, s := range slots {
		out.SuggestedTimes = append(out.SuggestedTimes, SuggestedTime{
			Start: FormatInstant(s.Start),
			End:   FormatInstant(s.End),
		})
	}
	out.SuggestedDurationMin = &durationMin
	out.SuggestedGeneratedAt = FormatInstant(generatedAt)

	// A previously stored value of an unexpected shape is superseded.
	delete(out.extra, "suggested_times")
	delete(out.extra, "suggested_duration_min")
	delete(out.extra, "suggested_generated_at")
	return out
}

// Candidate converts the payload into its typed form.
// A start or end that is present but not a valid timestamp is an error.
func (p Payload) Candidate() (Candidate, error) {
	start, hasStart, err := parseOptionalInstant(p.Start)
	if err != nil {
		return nil, fmt.Errorf("invalid start: %w", err)
	}
	end, hasEnd, err := parseOptionalInstant(p.End)
	if err != nil {
		return nil, fmt.Errorf("invalid end: %w", err)
	}

	kind := p.Kind()
	if !hasStart || !hasEnd {
		return Open{Type: kind}, nil
	}

	span := interval.New(start, end)
	switch kind {
	case KindDateRange:
		return DateRange{Range: span}, nil
	case KindInvite:
		return Invite{Slot: span, ICalUID: p.ICalUID}, nil
	default:
		return ProposedTime{Type: kind, Slot: span}, nil
	}
}

// Layouts accepted for start and end. Timestamps without an offset are UTC.
var instantLayouts = []string{
	time.RFC3339Nano,
	"2006-01-02T15:04:05.999999999",
	"2006-01-02T15:04",
	"2006-01-02 15:04:05Z07:00",
	"2006-01-02 15:04:05",
	time.DateOnly,
}

// ParseInstant parses an RFC 3339 timestamp, tolerating a missing offset
// (read as UTC), a space instead of "T" and a bare date (UTC midnight).
// The result is in UTC.
func ParseInstant(value string) (time.Time, error) {
	value = strings.TrimSpace(value)
	for _, layout := range instantLayouts {
		if t, err := time.Parse(layout, value); err == nil {
			return t.UTC(), nil
		}
	}
	return time.Time{}, fmt.Errorf("unrecognized timestamp %q", value)
}

func parseOptionalInstant(value string) (time.Time, bool, error) {
	if strings.TrimSpace(value) == "" {
		return time.Time{}, false, nil
	}
	t, err := ParseInstant(value)
	if err != nil {
		return time.Time{}, false, err
	}
	return t, true, nil
}

// FormatInstant renders t as RFC 3339 in UTC.
func FormatInstant(t time.Time) string {
	return t.UTC().Format(time.RFC3339)
}
