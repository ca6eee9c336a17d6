// Package google provides OAuth2 token management for the Google Calendar API.
//
// Tokens are stored per account as JSON files under the user cache directory
// (inboxcal/google-<account>.token). The TokenProvider interface lets callers
// plug in other token sources.
package google
