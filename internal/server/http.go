package server

import (
	"context"
	"fmt"
	"log/slog"
	"net"
	"net/http"
	"sync"
	"time"

	mcpserver "github.com/mark3labs/mcp-go/server"

	"github.com/teemow/inboxcal/internal/instrumentation"
)

// MCPEndpointPath is where the streamable HTTP transport is served.
const MCPEndpointPath = "/mcp"

// HTTPServerConfig holds options of the streamable HTTP MCP server.
type HTTPServerConfig struct {
	// DisableStreaming turns off SSE streaming of responses.
	DisableStreaming bool

	// HealthChecker serves /healthz and /readyz when set.
	HealthChecker *HealthChecker

	// Metrics records HTTP requests. May be nil.
	Metrics *instrumentation.Metrics
}

// HTTPServer serves an MCP server over the streamable HTTP transport,
// next to the health endpoints.
type HTTPServer struct {
	mcpServer *mcpserver.MCPServer
	config    HTTPServerConfig

	mu         sync.Mutex
	httpServer *http.Server
	listener   net.Listener
}

// NewHTTPServer creates a streamable HTTP server for mcpServer.
func NewHTTPServer(mcpServer *mcpserver.MCPServer, config HTTPServerConfig) (*HTTPServer, error) {
	if mcpServer == nil {
		return nil, fmt.Errorf("MCP server is required")
	}
	return &HTTPServer{mcpServer: mcpServer, config: config}, nil
}

// Handler returns the routed and instrumented handler.
func (s *HTTPServer) Handler() http.Handler {
	mux := http.NewServeMux()

	opts := []mcpserver.StreamableHTTPOption{mcpserver.WithEndpointPath(MCPEndpointPath)}
	if s.config.DisableStreaming {
		opts = append(opts, mcpserver.WithDisableStreaming(true))
	}
	mux.Handle(MCPEndpointPath, mcpserver.NewStreamableHTTPServer(s.mcpServer, opts...))

	if s.config.HealthChecker != nil {
		s.config.HealthChecker.RegisterHealthEndpoints(mux)
	}

	return s.instrumentationMiddleware(mux)
}

// Start serves on addr until Shutdown. ready, if not nil, is closed once
// the listener is bound.
func (s *HTTPServer) Start(addr string, ready chan<- struct{}) error {
	ln, err := net.Listen("tcp", addr)
	if err != nil {
		return fmt.Errorf("failed to listen on %s: %w", addr, err)
	}

	// No WriteTimeout: streamed responses may stay open.
	srv := &http.Server{
		Handler:           s.Handler(),
		ReadHeaderTimeout: 10 * time.Second,
		IdleTimeout:       120 * time.Second,
	}

	s.mu.Lock()
	s.httpServer = srv
	s.listener = ln
	s.mu.Unlock()

	slog.Info("starting MCP HTTP server", "addr", ln.Addr().String(), "endpoint", MCPEndpointPath)
	if ready != nil {
		close(ready)
	}
	return srv.Serve(ln)
}

// Addr returns the bound address, or "" before Start.
func (s *HTTPServer) Addr() string {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.listener == nil {
		return ""
	}
	return s.listener.Addr().String()
}

// Shutdown gracefully shuts down the server
func (s *HTTPServer) Shutdown(ctx context.Context) error {
	s.mu.Lock()
	srv := s.httpServer
	s.mu.Unlock()

	if srv != nil {
		return srv.Shutdown(ctx)
	}
	return nil
}

// instrumentationMiddleware records request count and latency per route.
func (s *HTTPServer) instrumentationMiddleware(next http.Handler) http.Handler {
	if s.config.Metrics == nil {
		return next
	}
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		start := time.Now()
		rw := newResponseWriter(w)
		next.ServeHTTP(rw, r)
		s.config.Metrics.RecordHTTPRequest(r.Context(), r.Method, routeLabel(r.URL.Path), rw.statusCode, time.Since(start))
	})
}

// routeLabel keeps the path label bounded to the served routes.
func routeLabel(path string) string {
	switch path {
	case MCPEndpointPath, "/healthz", "/readyz", "/healthz/detailed":
		return path
	default:
		return "other"
	}
}

// responseWriter captures the status code written by a handler.
type responseWriter struct {
	http.ResponseWriter
	statusCode int
}

func newResponseWriter(w http.ResponseWriter) *responseWriter {
	return &responseWriter{ResponseWriter: w, statusCode: http.StatusOK}
}

func (rw *responseWriter) WriteHeader(code int) {
	rw.statusCode = code
	rw.ResponseWriter.WriteHeader(code)
}

// Flush lets streamed responses through the wrapper.
func (rw *responseWriter) Flush() {
	if f, ok := rw.ResponseWriter.(http.Flusher); ok {
		f.Flush()
	}
}

// Unwrap exposes the underlying writer to http.ResponseController.
func (rw *responseWriter) Unwrap() http.ResponseWriter {
	return rw.ResponseWriter
}
