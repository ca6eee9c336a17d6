package suggest

import (
	"encoding/json"
	"fmt"
	"strings"
	"time"

	"github.com/teemow/inboxcal/internal/candidate"
	"github.com/teemow/inboxcal/internal/ics"
	"github.com/teemow/inboxcal/internal/interval"
)

// Output formats of a suggestion response.
const (
	FormatText = "text"
	FormatJSON = "json"
	FormatICS  = "ics"
)

// ParseFormat validates an output format name. Empty means FormatText.
func ParseFormat(s string) (string, error) {
	switch f := strings.ToLower(strings.TrimSpace(s)); f {
	case "":
		return FormatText, nil
	case FormatText, FormatJSON, FormatICS:
		return f, nil
	default:
		return "", fmt.Errorf("unsupported format %q (supported: text, json, ics)", s)
	}
}

// Response is the result of a suggestion request as returned to callers.
type Response struct {
	CandidateID int64        `json:"candidate_id"`
	Suggestions []Suggestion `json:"suggestions"`
}

// Slots returns the suggestions as intervals.
func (r Response) Slots() []interval.Interval {
	out := make([]interval.Interval, len(r.Suggestions))
	for i, s := range r.Suggestions {
		out[i] = interval.New(s.Start, s.End)
	}
	return out
}

// Render writes the response in the given format. The payload supplies the
// title, location and attendees of ICS events; now is their DTSTAMP.
func Render(format string, resp Response, p candidate.Payload, now time.Time) (string, error) {
	if resp.Suggestions == nil {
		resp.Suggestions = []Suggestion{}
	}

	switch format {
	case FormatJSON:
		data, err := json.MarshalIndent(resp, "", "  ")
		if err != nil {
			return "", fmt.Errorf("failed to encode suggestions: %w", err)
		}
		return string(data), nil
	case FormatICS:
		return ics.Export(p, resp.Slots(), now), nil
	case FormatText, "":
		return renderText(resp), nil
	default:
		return "", fmt.Errorf("unsupported format %q", format)
	}
}

func renderText(resp Response) string {
	if len(resp.Suggestions) == 0 {
		return fmt.Sprintf("No free time found for candidate %d.", resp.CandidateID)
	}

	var b strings.Builder
	minutes := int(resp.Suggestions[0].End.Sub(resp.Suggestions[0].Start) / time.Minute)
	fmt.Fprintf(&b, "Suggested meeting times for candidate %d (%d min):\n", resp.CandidateID, minutes)
	for i, s := range resp.Suggestions {
		fmt.Fprintf(&b, "%d. %s - %s (%s)\n", i+1,
			candidate.FormatInstant(s.Start), candidate.FormatInstant(s.End),
			s.Start.UTC().Format("Mon 02 Jan 15:04 MST"))
	}
	return strings.TrimRight(b.String(), "\n")
}
