// Package server provides the shared MCP server state and the HTTP
// endpoints that run next to it.
//
// # Key Components
//
// ServerContext owns the store, the meeting time suggester and one
// Google Calendar client per account. Clients are created lazily from
// the configured TokenProvider and cached. ServerContext resolves a user
// to their account, which makes it the calendar source of the suggester.
//
// HTTPServer serves the MCP server over the streamable HTTP transport on
// /mcp, together with the health endpoints, and records request metrics.
//
// HealthChecker serves Kubernetes probes: /healthz, /readyz (which also
// pings the database) and /healthz/detailed.
//
// MetricsServer exposes the Prometheus registry of the instrumentation
// provider on a dedicated port.
package server
