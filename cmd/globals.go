package cmd

import (
	"context"
	"fmt"
	"log/slog"
	"os"

	"github.com/spf13/cobra"

	"github.com/teemow/inboxcal/internal/instrumentation"
	"github.com/teemow/inboxcal/internal/preferences"
	"github.com/teemow/inboxcal/internal/server"
	"github.com/teemow/inboxcal/internal/store"
)

const defaultDBPath = "inboxcal.db"

// globals holds the persistent flags shared by all commands.
var globals struct {
	dbPath     string
	configPath string
}

// loadGlobalEnvVars applies environment variables to persistent flags that
// were not set explicitly.
func loadGlobalEnvVars(cmd *cobra.Command) {
	if !cmd.Flags().Changed("db") {
		if path := os.Getenv("INBOXCAL_DB"); path != "" {
			globals.dbPath = path
		}
	}
	if !cmd.Flags().Changed("config") {
		if path := os.Getenv("INBOXCAL_CONFIG"); path != "" {
			globals.configPath = path
		}
	}
}

// openStore opens the database named by --db.
func openStore(logger *slog.Logger, metrics *instrumentation.Metrics) (*store.Store, error) {
	st, err := store.Open(globals.dbPath, store.WithLogger(logger), store.WithMetrics(metrics))
	if err != nil {
		return nil, fmt.Errorf("failed to open database %s: %w", globals.dbPath, err)
	}
	return st, nil
}

// loadSettings reads the configuration named by --config.
func loadSettings() (*preferences.Config, error) {
	return preferences.LoadConfig(globals.configPath)
}

// newServerContext opens the store and loads the configuration, then wires
// both into a server context. The returned cleanup shuts the context down
// and closes the store.
func newServerContext(ctx context.Context, logger *slog.Logger, metrics *instrumentation.Metrics) (*server.ServerContext, func(), error) {
	settings, err := loadSettings()
	if err != nil {
		return nil, nil, err
	}

	st, err := openStore(logger, metrics)
	if err != nil {
		return nil, nil, err
	}

	sc, err := server.NewServerContext(ctx, server.Config{
		Store:    st,
		Settings: settings,
		Metrics:  metrics,
		Logger:   logger,
	})
	if err != nil {
		_ = st.Close()
		return nil, nil, fmt.Errorf("failed to create server context: %w", err)
	}

	cleanup := func() {
		if err := sc.Shutdown(); err != nil {
			logger.Warn("error during server context shutdown", "error", err)
		}
		if err := st.Close(); err != nil {
			logger.Warn("error closing database", "error", err)
		}
	}
	return sc, cleanup, nil
}

// newLogger returns a text logger on stderr. stdout stays free for command
// output and the stdio transport.
func newLogger(debug bool) *slog.Logger {
	level := slog.LevelInfo
	if debug {
		level = slog.LevelDebug
	}
	return slog.New(slog.NewTextHandler(os.Stderr, &slog.HandlerOptions{Level: level}))
}
