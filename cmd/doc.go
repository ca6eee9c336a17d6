// Package cmd implements the command-line interface for inboxcal.
//
// This package provides the following commands:
//   - serve: Start the MCP server to provide meeting time tools for AI assistants
//   - suggest: Suggest meeting times for a stored calendar candidate
//   - user, email, candidate: Manage the records suggestions are computed from
//   - auth: Authorize Google Calendar access for an account
//   - version: Display version information
//   - generate-docs: Generate markdown documentation for all MCP tools
//
// All commands share the --db and --config flags.
package cmd
