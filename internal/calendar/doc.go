// Package calendar provides a minimal Google Calendar client for availability
// lookups.
//
// The client only issues free/busy queries (and reads the primary calendar's
// time zone). Busy ranges are returned as raw strings so that the caller can
// treat them as untrusted input.
//
// Example usage:
//
//	client, err := calendar.NewClientForAccount(ctx, "default")
//	if err != nil {
//	    return err
//	}
//	fb, err := client.QueryFreeBusyRaw(ctx, "2025-01-06T00:00:00Z", "2025-01-13T00:00:00Z", []string{"primary"})
package calendar
