// Package store persists users, emails, calendar candidates and user
// preferences in SQLite.
//
// Every lookup is scoped to a user: a row that exists but belongs to someone
// else is reported as ErrNotFound, the same as a missing row.
package store
