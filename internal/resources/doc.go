// Package resources provides MCP resources for exposing per-user scheduling data.
// Resources are read-only data sources that MCP clients can fetch: the
// effective scheduling preferences of a user and their stored calendar
// candidates, including the last suggestions written onto them.
package resources
