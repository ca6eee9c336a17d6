package server

import (
	"context"
	"encoding/json"
	"net/http"
	"sync/atomic"
	"time"
)

const (
	healthStatusOK           = "ok"
	healthStatusNotReady     = "not ready"
	healthStatusShuttingDown = "shutting down"
	healthStatusUnavailable  = "unavailable"
)

// databasePingTimeout bounds the readiness database check.
const databasePingTimeout = 2 * time.Second

// HealthChecker serves the probe endpoints of the HTTP transport.
// Readiness covers the ready flag, server shutdown and the SQLite store.
type HealthChecker struct {
	ready         atomic.Bool
	serverContext *ServerContext
	startTime     time.Time
}

// NewHealthChecker returns a checker that starts out ready. sc may be nil.
func NewHealthChecker(sc *ServerContext) *HealthChecker {
	h := &HealthChecker{serverContext: sc, startTime: time.Now()}
	h.ready.Store(true)
	return h
}

// SetReady flips readiness. The serve command clears it before draining.
func (h *HealthChecker) SetReady(ready bool) {
	h.ready.Store(ready)
}

// HealthResponse is the body of every health endpoint.
type HealthResponse struct {
	Status string            `json:"status"`
	Uptime string            `json:"uptime,omitempty"`
	Checks map[string]string `json:"checks,omitempty"`
}

// readiness runs every check. status is the first failure, or ok.
func (h *HealthChecker) readiness(ctx context.Context) (status string, checks map[string]string) {
	status = healthStatusOK
	checks = map[string]string{"ready": healthStatusOK, "shutdown": healthStatusOK, "database": healthStatusOK}
	fail := func(check, value string) {
		checks[check] = value
		if status == healthStatusOK {
			status = value
		}
	}

	if !h.ready.Load() {
		fail("ready", healthStatusNotReady)
	}
	if h.serverContext != nil && h.serverContext.IsShutdown() {
		fail("shutdown", healthStatusShuttingDown)
	}
	if !h.databaseReachable(ctx) {
		fail("database", healthStatusUnavailable)
	}
	return status, checks
}

func (h *HealthChecker) databaseReachable(ctx context.Context) bool {
	if h.serverContext == nil || h.serverContext.Store() == nil {
		return true
	}
	ctx, cancel := context.WithTimeout(ctx, databasePingTimeout)
	defer cancel()
	return h.serverContext.Store().Ping(ctx) == nil
}

func writeHealth(w http.ResponseWriter, code int, resp HealthResponse) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(code)
	_ = json.NewEncoder(w).Encode(resp)
}

// LivenessHandler answers ok while the process runs.
func (h *HealthChecker) LivenessHandler() http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		writeHealth(w, http.StatusOK, HealthResponse{Status: healthStatusOK})
	})
}

// ReadinessHandler answers 503 with status "not ready" when any check fails.
func (h *HealthChecker) ReadinessHandler() http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		status, checks := h.readiness(r.Context())
		if status != healthStatusOK {
			writeHealth(w, http.StatusServiceUnavailable, HealthResponse{Status: healthStatusNotReady, Checks: checks})
			return
		}
		writeHealth(w, http.StatusOK, HealthResponse{Status: status, Checks: checks})
	})
}

// DetailedHealthHandler reports the first failing check as the status, plus uptime.
func (h *HealthChecker) DetailedHealthHandler() http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		status, checks := h.readiness(r.Context())
		code := http.StatusOK
		if status != healthStatusOK {
			code = http.StatusServiceUnavailable
		}
		writeHealth(w, code, HealthResponse{
			Status: status,
			Uptime: time.Since(h.startTime).Truncate(time.Second).String(),
			Checks: checks,
		})
	})
}

// RegisterHealthEndpoints mounts /healthz, /readyz and /healthz/detailed.
func (h *HealthChecker) RegisterHealthEndpoints(mux *http.ServeMux) {
	mux.Handle("/healthz", h.LivenessHandler())
	mux.Handle("/readyz", h.ReadinessHandler())
	mux.Handle("/healthz/detailed", h.DetailedHealthHandler())
}
