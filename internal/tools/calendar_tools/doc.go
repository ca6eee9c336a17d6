// Package calendar_tools provides the MCP (Model Context Protocol) tools of
// the scheduling engine.
//
// calendar_suggest_meeting_times proposes meeting times for a stored
// calendar candidate and returns them as text, JSON or an ICS calendar.
// calendar_list_candidates and calendar_add_candidate read and write the
// candidates extracted from a user's emails.
package calendar_tools
