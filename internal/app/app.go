package app

import (
	"errors"
	"io"
	"log/slog"
)

// ErrPipelineFailed reports that the run completed but at least one target
// failed. The report was already printed; the caller only maps this to an
// exit code.
var ErrPipelineFailed = errors.New("build pipeline failed")

// App encapsulates the application's dependencies, configuration, and
// lifecycle.
type App struct {
	outW   io.Writer
	logger *slog.Logger
	cfg    *Config
}

// NewApp is the constructor for the main application. It returns a fully
// initialized App instance with its own isolated logger.
func NewApp(outW io.Writer, cfg *Config) *App {
	logger := newLogger(cfg.LogLevel, cfg.LogFormat, outW)
	logger.Debug("Logger configured successfully.")

	return &App{
		outW:   outW,
		logger: logger,
		cfg:    cfg,
	}
}
