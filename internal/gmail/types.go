package gmail

import (
	"strings"
	"time"

	gmail "google.golang.org/api/gmail/v1"
)

// MessageMetadata is the part of a Gmail message the scheduling engine keeps.
type MessageMetadata struct {
	ID         string
	ThreadID   string
	Subject    string
	Sender     string
	ReceivedAt time.Time
}

// metadataHeaders are the headers requested for each message.
var metadataHeaders = []string{"Subject", "From"}

// HeaderValue extracts a header value from a Gmail message.
// Header names are compared case-insensitively.
func HeaderValue(m *gmail.Message, header string) string {
	if m == nil || m.Payload == nil {
		return ""
	}
	for _, mph := range m.Payload.Headers {
		if strings.EqualFold(mph.Name, header) {
			return mph.Value
		}
	}
	return ""
}

func toMessageMetadata(m *gmail.Message) *MessageMetadata {
	md := &MessageMetadata{
		ID:       m.Id,
		ThreadID: m.ThreadId,
		Subject:  HeaderValue(m, "Subject"),
		Sender:   HeaderValue(m, "From"),
	}
	if m.InternalDate > 0 {
		md.ReceivedAt = time.UnixMilli(m.InternalDate).UTC()
	}
	return md
}
