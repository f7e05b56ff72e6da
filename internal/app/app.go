package app

import (
	"context"
	"io"
	"log/slog"
	"sync"

	"github.com/vk/keygrid/internal/ctxlog"
	"github.com/vk/keygrid/internal/profile"
)

// App encapsulates the application's dependencies and configuration.
// Results are written to outW; logs go to the logger's writer.
type App struct {
	outW   io.Writer
	logger *slog.Logger
	config *Config

	catalog func() (*profile.Catalog, error)
}

// NewApp is the constructor for the main application. It returns an App
// with its own isolated logger. Profiles are loaded on first use.
func NewApp(outW, logW io.Writer, cfg *Config) *App {
	logger := newLogger(cfg.LogLevel, cfg.LogFormat, logW)
	logger.Debug("Logger configured successfully.")

	a := &App{outW: outW, logger: logger, config: cfg}
	a.catalog = sync.OnceValues(func() (*profile.Catalog, error) {
		ctx := ctxlog.WithLogger(context.Background(), a.logger)
		return profile.LoadCatalog(ctx, a.config.ProfilePaths...)
	})
	return a
}

// Logger returns the application's logger.
func (a *App) Logger() *slog.Logger {
	return a.logger
}

// context attaches the application's logger to ctx.
func (a *App) context(ctx context.Context) context.Context {
	return ctxlog.WithLogger(ctx, a.logger)
}
