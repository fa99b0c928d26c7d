// Package app provides the application context and dependency management
// for the idmend CLI. It centralizes configuration, logging and engine
// construction so that commands only depend on appcontext.Interface.
package app

import (
	"slices"

	"github.com/rs/zerolog"

	"github.com/agentstation/idmend"
	"github.com/agentstation/idmend/internal/cmd/output"
	"github.com/agentstation/idmend/internal/config"
)

// App represents the idmend application with all its dependencies.
type App struct {
	// Version information
	version string
	commit  string
	date    string
	builtBy string

	// Configuration
	config *Config

	// Logger
	logger *zerolog.Logger
}

// New creates a new App instance with the given version information.
// Configuration is loaded from .env files, IDMEND_ variables and the
// config file; command-line flags are applied when a command runs.
func New(version, commit, date, builtBy string, opts ...Option) (*App, error) {
	app := &App{
		version: version,
		commit:  commit,
		date:    date,
		builtBy: builtBy,
	}

	cfg, err := LoadConfig("")
	if err != nil {
		return nil, err
	}
	app.config = cfg

	logger := NewLogger(cfg)
	app.logger = &logger

	for _, opt := range opts {
		if err := opt(app); err != nil {
			return nil, err
		}
	}

	return app, nil
}

// Version returns the version information.
func (a *App) Version() string {
	return a.version
}

// Commit returns the git commit hash.
func (a *App) Commit() string {
	return a.commit
}

// Date returns the build date.
func (a *App) Date() string {
	return a.date
}

// BuiltBy returns the build system identifier.
func (a *App) BuiltBy() string {
	return a.builtBy
}

// Config returns the application configuration.
func (a *App) Config() *Config {
	return a.config
}

// Logger returns the application logger.
func (a *App) Logger() *zerolog.Logger {
	return a.logger
}

// OutputFormat returns the requested output format, or table on a
// terminal and JSON otherwise.
func (a *App) OutputFormat() string {
	return string(output.DetectFormat(a.config.Output))
}

// NoColor reports whether colored output is disabled.
func (a *App) NoColor() bool {
	return a.config.NoColor
}

// Settings returns a copy of the engine settings.
func (a *App) Settings() *config.Settings {
	if a.config.Settings == nil {
		return &config.Settings{}
	}
	s := *a.config.Settings
	s.RequiredVisits = slices.Clone(s.RequiredVisits)
	s.ExcludedFiles = slices.Clone(s.ExcludedFiles)
	return &s
}

// Engine creates an engine from s.
func (a *App) Engine(s *config.Settings) (idmend.Engine, error) {
	opts, err := s.EngineOptions()
	if err != nil {
		return nil, err
	}
	return idmend.New(opts...)
}

// Option is a functional option for configuring the App.
type Option func(*App) error

// WithConfig sets a custom configuration.
func WithConfig(config *Config) Option {
	return func(a *App) error {
		a.config = config
		return nil
	}
}

// WithLogger sets a custom logger.
func WithLogger(logger *zerolog.Logger) Option {
	return func(a *App) error {
		a.logger = logger
		return nil
	}
}
