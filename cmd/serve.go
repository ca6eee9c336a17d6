package cmd

import (
	"context"
	"fmt"
	"log"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/spf13/cobra"

	mcpserver "github.com/mark3labs/mcp-go/server"

	"github.com/teemow/inboxcal/internal/instrumentation"
	"github.com/teemow/inboxcal/internal/resources"
	"github.com/teemow/inboxcal/internal/server"
	"github.com/teemow/inboxcal/internal/tools/calendar_tools"
)

const (
	transportStdio          = "stdio"
	transportStreamableHTTP = "streamable-http"
)

// MetricsConfig holds configuration for the metrics server
type MetricsConfig struct {
	// Enabled determines whether to start the metrics server (default: true)
	Enabled bool

	// Addr is the address for the metrics server (e.g., ":9090")
	Addr string
}

// serveConfig holds the flags of the serve command.
type serveConfig struct {
	Transport        string
	HTTPAddr         string
	Debug            bool
	DisableStreaming bool
	FreeBusyTimeout  time.Duration
	Metrics          MetricsConfig
}

func newServeCmd() *cobra.Command {
	cfg := serveConfig{}

	cmd := &cobra.Command{
		Use:   "serve",
		Short: "Start the MCP server",
		Long: `Start the Model Context Protocol (MCP) server to provide meeting time
suggestion tools for AI assistants.

Supports multiple transport types:
  - stdio: Standard input/output (default)
  - streamable-http: Streamable HTTP transport

Google Calendar access:
  Free/busy lookups use the OAuth token stored for the user's Google account.
  Run 'inboxcal auth --account <name>' once per account before serving.
  GOOGLE_CLIENT_ID and GOOGLE_CLIENT_SECRET are needed for token refresh.`,
		RunE: func(cmd *cobra.Command, args []string) error {
			loadServeEnvVars(cmd, &cfg)
			return runServe(cfg)
		},
	}

	cmd.Flags().BoolVar(&cfg.Debug, "debug", false, "Enable debug logging")
	cmd.Flags().StringVar(&cfg.Transport, "transport", transportStdio, "Transport type: stdio or streamable-http")
	cmd.Flags().StringVar(&cfg.HTTPAddr, "http-addr", ":8080", "HTTP server address (for streamable-http transport). Can also use MCP_HTTP_ADDR env var.")
	cmd.Flags().BoolVar(&cfg.DisableStreaming, "disable-streaming", false, "Disable streaming for HTTP transport (for compatibility with certain clients)")
	cmd.Flags().DurationVar(&cfg.FreeBusyTimeout, "freebusy-timeout", 0, "Timeout for the Google Calendar free/busy request. Overrides the config file. Can also use INBOXCAL_FREEBUSY_TIMEOUT env var.")

	// Metrics server flags
	cmd.Flags().BoolVar(&cfg.Metrics.Enabled, "metrics-enabled", true, "Enable the metrics server on a dedicated port. Can also use METRICS_ENABLED env var.")
	cmd.Flags().StringVar(&cfg.Metrics.Addr, "metrics-addr", server.DefaultMetricsAddr, "Metrics server address. Can also use METRICS_ADDR env var.")

	return cmd
}

// loadServeEnvVars loads serve configuration from environment variables.
// Environment variables only override flag values when the flag was not explicitly set.
func loadServeEnvVars(cmd *cobra.Command, cfg *serveConfig) {
	if !cmd.Flags().Changed("http-addr") {
		if addr := os.Getenv("MCP_HTTP_ADDR"); addr != "" {
			cfg.HTTPAddr = addr
		}
	}

	if !cmd.Flags().Changed("freebusy-timeout") {
		if v := os.Getenv("INBOXCAL_FREEBUSY_TIMEOUT"); v != "" {
			if d, err := time.ParseDuration(v); err == nil && d > 0 {
				cfg.FreeBusyTimeout = d
			} else {
				log.Printf("Warning: invalid INBOXCAL_FREEBUSY_TIMEOUT value %q, ignoring", v)
			}
		}
	}

	if !cmd.Flags().Changed("metrics-enabled") {
		if v := os.Getenv("METRICS_ENABLED"); v != "" {
			cfg.Metrics.Enabled = v == "true"
		}
	}

	if !cmd.Flags().Changed("metrics-addr") {
		if addr := os.Getenv("METRICS_ADDR"); addr != "" {
			cfg.Metrics.Addr = addr
		}
	}
}

func runServe(cfg serveConfig) error {
	if cfg.Transport != transportStdio && cfg.Transport != transportStreamableHTTP {
		return fmt.Errorf("unsupported transport type: %s (supported: stdio, streamable-http)", cfg.Transport)
	}

	// Setup graceful shutdown
	shutdownCtx, cancel := signal.NotifyContext(context.Background(),
		os.Interrupt, syscall.SIGTERM)
	defer cancel()

	logger := newLogger(cfg.Debug)

	// Initialize instrumentation provider
	instrConfig := instrumentation.DefaultConfig()
	instrConfig.ServiceVersion = version

	provider, err := instrumentation.NewProvider(shutdownCtx, instrConfig)
	if err != nil {
		return fmt.Errorf("failed to create instrumentation provider: %w", err)
	}
	defer func() {
		if err := provider.Shutdown(context.Background()); err != nil {
			logger.Warn("error during instrumentation shutdown", "error", err)
		}
	}()

	// The metrics server needs its own port; stdio has no network surface.
	var metricsServer *server.MetricsServer
	if cfg.Transport != transportStdio && cfg.Metrics.Enabled && provider.Enabled() && provider.PrometheusHandler() != nil {
		metricsServer, err = startMetricsServer(cfg.Metrics, provider)
		if err != nil {
			return err
		}
		logger.Info("metrics server started", "addr", metricsServer.Addr())
		defer func() {
			ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
			defer cancel()
			if err := metricsServer.Shutdown(ctx); err != nil {
				logger.Warn("error shutting down metrics server", "error", err)
			}
		}()
	}

	settings, err := loadSettings()
	if err != nil {
		return err
	}
	if cfg.FreeBusyTimeout > 0 {
		settings.FreeBusyTimeout = cfg.FreeBusyTimeout
	}

	st, err := openStore(logger, provider.Metrics())
	if err != nil {
		return err
	}
	defer func() {
		if err := st.Close(); err != nil {
			logger.Warn("error closing database", "error", err)
		}
	}()

	serverContext, err := server.NewServerContext(shutdownCtx, server.Config{
		Store:    st,
		Settings: settings,
		Metrics:  provider.Metrics(),
		Logger:   logger,
	})
	if err != nil {
		return fmt.Errorf("failed to create server context: %w", err)
	}
	defer func() {
		if err := serverContext.Shutdown(); err != nil {
			logger.Warn("error during server context shutdown", "error", err)
		}
	}()

	mcpSrv := mcpserver.NewMCPServer("inboxcal", version,
		mcpserver.WithToolCapabilities(true),
		mcpserver.WithResourceCapabilities(false, false),
	)

	if err := calendar_tools.RegisterCalendarTools(mcpSrv, serverContext); err != nil {
		return fmt.Errorf("failed to register calendar tools: %w", err)
	}
	if err := resources.RegisterUserResources(mcpSrv, serverContext); err != nil {
		return fmt.Errorf("failed to register resources: %w", err)
	}

	switch cfg.Transport {
	case transportStreamableHTTP:
		return runStreamableHTTPServer(shutdownCtx, mcpSrv, serverContext, cfg, provider.Metrics())
	default:
		return runStdioServer(mcpSrv)
	}
}

// startMetricsServer starts the Prometheus endpoint and waits until it is
// listening.
func startMetricsServer(cfg MetricsConfig, provider *instrumentation.Provider) (*server.MetricsServer, error) {
	metricsServer, err := server.NewMetricsServer(server.MetricsServerConfig{
		Addr:                    cfg.Addr,
		Enabled:                 true,
		InstrumentationProvider: provider,
	})
	if err != nil {
		return nil, fmt.Errorf("failed to create metrics server: %w", err)
	}

	// Use ready channel to confirm metrics server started successfully
	metricsReady := make(chan struct{})
	metricsErr := make(chan error, 1)
	go func() {
		if err := metricsServer.StartWithReadySignal(metricsReady); err != nil && err != http.ErrServerClosed {
			metricsErr <- err
		}
		close(metricsErr)
	}()

	select {
	case <-metricsReady:
		return metricsServer, nil
	case err := <-metricsErr:
		return nil, fmt.Errorf("metrics server failed to start: %w", err)
	case <-time.After(5 * time.Second):
		return nil, fmt.Errorf("metrics server startup timed out")
	}
}

func runStdioServer(mcpSrv *mcpserver.MCPServer) error {
	// stdout carries the protocol; diagnostics go to stderr only.
	if err := mcpserver.ServeStdio(mcpSrv); err != nil {
		return fmt.Errorf("stdio server error: %w", err)
	}
	return nil
}

func runStreamableHTTPServer(ctx context.Context, mcpSrv *mcpserver.MCPServer, sc *server.ServerContext, cfg serveConfig, metrics *instrumentation.Metrics) error {
	health := server.NewHealthChecker(sc)

	httpServer, err := server.NewHTTPServer(mcpSrv, server.HTTPServerConfig{
		DisableStreaming: cfg.DisableStreaming,
		HealthChecker:    health,
		Metrics:          metrics,
	})
	if err != nil {
		return fmt.Errorf("failed to create HTTP server: %w", err)
	}

	ready := make(chan struct{})
	serverDone := make(chan error, 1)
	go func() {
		defer close(serverDone)
		if err := httpServer.Start(cfg.HTTPAddr, ready); err != nil && err != http.ErrServerClosed {
			serverDone <- err
		}
	}()

	select {
	case <-ready:
		fmt.Fprintf(os.Stderr, "Streamable HTTP server listening on %s%s\n", httpServer.Addr(), server.MCPEndpointPath)
	case err := <-serverDone:
		return fmt.Errorf("HTTP server failed to start: %w", err)
	}

	select {
	case <-ctx.Done():
		fmt.Fprintln(os.Stderr, "Shutdown signal received, stopping HTTP server...")
		health.SetReady(false)
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
		defer cancel()
		if err := httpServer.Shutdown(shutdownCtx); err != nil {
			return fmt.Errorf("error shutting down HTTP server: %w", err)
		}
	case err := <-serverDone:
		if err != nil {
			return fmt.Errorf("HTTP server stopped with error: %w", err)
		}
	}

	fmt.Fprintln(os.Stderr, "HTTP server gracefully stopped")
	return nil
}
