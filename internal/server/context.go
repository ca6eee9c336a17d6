package server

import (
	"context"
	"fmt"
	"log/slog"
	"sync"

	"github.com/teemow/inboxcal/internal/calendar"
	"github.com/teemow/inboxcal/internal/google"
	"github.com/teemow/inboxcal/internal/instrumentation"
	"github.com/teemow/inboxcal/internal/logging"
	"github.com/teemow/inboxcal/internal/preferences"
	"github.com/teemow/inboxcal/internal/store"
	"github.com/teemow/inboxcal/internal/suggest"
)

// Config holds the dependencies of a ServerContext.
type Config struct {
	// Store is the database. Required.
	Store *store.Store

	// Settings is the engine configuration (default: preferences.DefaultConfig()).
	Settings *preferences.Config

	// TokenProvider supplies Google tokens (default: file-based tokens).
	TokenProvider google.TokenProvider

	// Metrics records tool, API and suggestion metrics. May be nil.
	Metrics *instrumentation.Metrics

	// Logger is the base logger (default: slog.Default()).
	Logger *slog.Logger
}

// ServerContext holds the shared state of the MCP server
type ServerContext struct {
	ctx             context.Context
	cancel          context.CancelFunc
	store           *store.Store
	settings        *preferences.Config
	suggester       *suggest.Suggester
	tokenProvider   google.TokenProvider
	metrics         *instrumentation.Metrics
	logger          *slog.Logger
	calendarClients map[string]*calendar.Client // Maps account name to Calendar client
	mu              sync.RWMutex
	shutdown        bool
}

// NewServerContext creates a new server context
func NewServerContext(ctx context.Context, cfg Config) (*ServerContext, error) {
	if cfg.Store == nil {
		return nil, fmt.Errorf("store is required")
	}
	if cfg.Settings == nil {
		cfg.Settings = preferences.DefaultConfig()
	}
	if cfg.TokenProvider == nil {
		cfg.TokenProvider = google.NewFileTokenProvider()
	}
	if cfg.Logger == nil {
		cfg.Logger = slog.Default()
	}

	shutdownCtx, cancel := context.WithCancel(ctx)

	sc := &ServerContext{
		ctx:             shutdownCtx,
		cancel:          cancel,
		store:           cfg.Store,
		settings:        cfg.Settings,
		tokenProvider:   cfg.TokenProvider,
		metrics:         cfg.Metrics,
		logger:          cfg.Logger,
		calendarClients: make(map[string]*calendar.Client),
	}

	resolver := preferences.NewResolver(cfg.Store, cfg.Settings.Defaults)
	sc.suggester = suggest.New(cfg.Store, resolver, sc,
		suggest.WithLogger(cfg.Logger),
		suggest.WithMetrics(cfg.Metrics),
		suggest.WithFreeBusyTimeout(cfg.Settings.FreeBusyTimeout),
		suggest.WithMaxSuggestions(cfg.Settings.MaxSuggestions),
		suggest.WithWindowDays(cfg.Settings.WindowDays),
	)

	return sc, nil
}

// Context returns the server context
func (sc *ServerContext) Context() context.Context {
	return sc.ctx
}

// Store returns the database.
func (sc *ServerContext) Store() *store.Store {
	return sc.store
}

// Suggester returns the meeting time suggester.
func (sc *ServerContext) Suggester() *suggest.Suggester {
	return sc.suggester
}

// Settings returns the engine configuration.
func (sc *ServerContext) Settings() *preferences.Config {
	return sc.settings
}

// Metrics returns the metrics recorder, which may be nil.
func (sc *ServerContext) Metrics() *instrumentation.Metrics {
	return sc.metrics
}

// Logger returns the base logger.
func (sc *ServerContext) Logger() *slog.Logger {
	return sc.logger
}

// CalendarClientForAccount returns the Calendar client for a specific account.
// Creates and caches the client if it doesn't exist yet.
func (sc *ServerContext) CalendarClientForAccount(account string) (*calendar.Client, error) {
	sc.mu.RLock()
	client, ok := sc.calendarClients[account]
	sc.mu.RUnlock()
	if ok {
		return client, nil
	}

	sc.mu.Lock()
	defer sc.mu.Unlock()

	// Another caller may have won the race
	if client, ok := sc.calendarClients[account]; ok {
		return client, nil
	}

	if !calendar.HasTokenForAccountWithProvider(account, sc.tokenProvider) {
		return nil, fmt.Errorf("account %s: %w", account, google.ErrNoToken)
	}

	logger := logging.WithService(sc.logger, "calendar")
	client, err := calendar.NewClientForAccountWithProvider(sc.ctx, account, sc.tokenProvider)
	if err != nil {
		logger.Warn("failed to create calendar client",
			logging.Account(account), logging.Err(err))
		return nil, err
	}
	client.SetMetrics(sc.metrics)
	logger.Debug("calendar client created", logging.Account(account))

	sc.calendarClients[account] = client
	return client, nil
}

// SetCalendarClientForAccount sets the Calendar client for a specific account
func (sc *ServerContext) SetCalendarClientForAccount(account string, client *calendar.Client) {
	sc.mu.Lock()
	defer sc.mu.Unlock()
	sc.calendarClients[account] = client
}

// FreeBusyProvider returns the calendar client of the Google account linked
// to the user.
func (sc *ServerContext) FreeBusyProvider(ctx context.Context, userID int64) (suggest.FreeBusyProvider, error) {
	account, err := sc.store.AccountForUser(ctx, userID)
	if err != nil {
		return nil, err
	}
	client, err := sc.CalendarClientForAccount(account)
	if err != nil {
		return nil, err
	}
	return client, nil
}

// IsShutdown returns whether the server has been shutdown
func (sc *ServerContext) IsShutdown() bool {
	sc.mu.RLock()
	defer sc.mu.RUnlock()
	return sc.shutdown
}

// Shutdown shuts down the server context. The store is owned by the caller
// and stays open.
func (sc *ServerContext) Shutdown() error {
	sc.mu.Lock()
	defer sc.mu.Unlock()

	if sc.shutdown {
		return nil
	}

	sc.shutdown = true
	sc.cancel()
	return nil
}
