// Package candidate models calendar candidates extracted from emails.
//
// A candidate is stored as an open JSON object (Payload). At that boundary it
// is converted into one of the typed forms Invite, ProposedTime, DateRange or
// Open, and the Resolver turns the typed form into a search window, a meeting
// duration and an optional proposed slot.
//
// Window rules:
//   - a DateRange that ends after it starts is searched verbatim
//   - a candidate with start and end searches seven days from the later of
//     now and the start of the working day on its start date, and offers its
//     own slot first when that slot is non-empty
//   - anything else searches the seven days from now
package candidate
