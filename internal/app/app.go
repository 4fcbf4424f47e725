// Package app wires configuration, logging, storage and editing sessions
// together and manages their lifecycle.
package app

import (
	"context"
	"errors"
	"fmt"
	"sync/atomic"

	"go.uber.org/zap"

	"github.com/dshills/blockedit/internal/config"
	"github.com/dshills/blockedit/internal/editor"
	"github.com/dshills/blockedit/internal/logging"
	"github.com/dshills/blockedit/internal/storage"
)

// Application owns the shared services of a blockedit process.
type Application struct {
	config   config.Config
	logger   *zap.Logger
	store    storage.Store
	sessions *Sessions
	metrics  *Metrics

	stopped atomic.Bool
}

// Options configures the application.
type Options struct {
	// ConfigPath is the path to the TOML configuration file. A missing
	// file leaves the defaults in place.
	ConfigPath string

	// EnvPrefix overrides the environment variable prefix.
	EnvPrefix string

	// LogLevel overrides the configured log level.
	LogLevel string

	// Debug enables development logging.
	Debug bool

	// LogOutput lists zap output paths. Default: stderr.
	LogOutput []string

	// Store replaces the configured storage backend.
	Store storage.Store
}

// New loads configuration and starts logging, storage and the session
// manager in that order.
func New(ctx context.Context, opts Options) (*Application, error) {
	cfgOpts := []config.Option{config.WithFile(opts.ConfigPath)}
	if opts.EnvPrefix != "" {
		cfgOpts = append(cfgOpts, config.WithEnvPrefix(opts.EnvPrefix))
	}
	cfg, err := config.Load(cfgOpts...)
	if err != nil {
		return nil, &InitError{Component: "config", Err: err}
	}
	if opts.LogLevel != "" {
		cfg.Logging.Level = opts.LogLevel
	}
	if opts.Debug {
		cfg.Logging.Development = true
	}

	logger, err := logging.New(cfg.Logging.Level, cfg.Logging.Development, opts.LogOutput...)
	if err != nil {
		return nil, &InitError{Component: "logging", Err: err}
	}

	store := opts.Store
	if store == nil {
		store, err = storage.Open(ctx, cfg.Storage, logger)
		if err != nil {
			_ = logger.Sync()
			return nil, &InitError{Component: "storage", Err: err}
		}
	}

	metrics := NewMetrics()
	app := &Application{
		config:   cfg,
		logger:   logger,
		store:    store,
		metrics:  metrics,
		sessions: NewSessions(store, logger, metrics, editor.FromConfig(cfg)...),
	}
	logger.Info("application started",
		zap.String("storage", cfg.Storage.Backend),
		zap.Duration("autoSaveDelay", cfg.Editor.AutoSaveDelay.Std()))
	return app, nil
}

// Config returns the loaded configuration.
func (app *Application) Config() config.Config {
	return app.config
}

// Logger returns the application logger.
func (app *Application) Logger() *zap.Logger {
	return app.logger
}

// Store returns the document store.
func (app *Application) Store() storage.Store {
	return app.store
}

// Sessions returns the session manager.
func (app *Application) Sessions() *Sessions {
	return app.sessions
}

// Metrics returns the activity counters.
func (app *Application) Metrics() *Metrics {
	return app.metrics
}

// Shutdown closes every session, saving unsaved changes, then closes the
// store. Later calls do nothing.
func (app *Application) Shutdown(ctx context.Context) error {
	if !app.stopped.CompareAndSwap(false, true) {
		return nil
	}

	err := app.sessions.CloseAll(ctx)
	if cerr := app.store.Close(); cerr != nil {
		err = errors.Join(err, fmt.Errorf("closing storage: %w", cerr))
	}
	if err != nil {
		app.logger.Error("shutdown incomplete", zap.Error(err))
		_ = app.logger.Sync()
		return err
	}
	app.logger.Info("application stopped")
	_ = app.logger.Sync()
	return nil
}
