// Package common provides shared helpers for the MCP tool packages:
// typed argument parsing and the instrumentation wrapper every tool
// handler is registered through.
package common
