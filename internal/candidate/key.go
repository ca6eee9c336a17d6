package candidate

import (
	"crypto/sha256"
	"encoding/hex"
	"slices"
	"strings"
)

// DedupKey identifies a candidate by content so that extracting the same
// meeting twice from one email does not store it twice. Fields are compared
// trimmed and lower-cased; attendee order and duplicates are ignored.
func DedupKey(p Payload) string {
	attendees := make([]string, 0, len(p.Attendees))
	for _, a := range p.Attendees {
		if n := normalize(a); n != "" {
			attendees = append(attendees, n)
		}
	}
	slices.Sort(attendees)
	attendees = slices.Compact(attendees)

	fields := []string{
		normalize(p.Type),
		normalize(p.Start),
		normalize(p.End),
		normalize(p.Title),
		normalize(p.Location),
		normalize(p.ICalUID),
		strings.Join(attendees, "\x1e"),
	}
	sum := sha256.Sum256([]byte(strings.Join(fields, "\x1f")))
	return hex.EncodeToString(sum[:])
}

func normalize(s string) string {
	return strings.ToLower(strings.TrimSpace(s))
}
