// Package suggest proposes meeting times for calendar candidates.
//
// A Suggester loads the candidate, its email and the user's preferences,
// resolves the search window and meeting duration, fetches the user's busy
// time from the primary calendar and generates slots inside working hours.
// A proposed time carried by the candidate is offered first when it is still
// free. At most five slots are returned and written back onto the candidate
// payload as suggested_times.
//
// Free/busy data is untrusted: malformed busy entries are skipped and logged.
// A failing free/busy call is returned as an *UpstreamError and never retried.
package suggest
