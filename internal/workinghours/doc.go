// Package workinghours turns a user's weekly availability template into a
// Policy that answers per-day questions: is this a working day, where does the
// work window lie on a given date, and where is the lunch break.
//
// Times of day are wall-clock values in the template's timezone (UTC unless
// configured); all instants returned by a Policy are in UTC.
//
// Two fallbacks are part of the contract:
//   - an empty Days list means all seven days are working days
//   - an end time that is not after the start time is replaced by 17:00
package workinghours
