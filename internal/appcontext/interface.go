// Package appcontext provides the shared application context interface
// used by all commands. This eliminates interface duplication across
// command packages and provides a single source of truth for app dependencies.
package appcontext

import (
	"github.com/rs/zerolog"

	"github.com/agentstation/idmend"
	"github.com/agentstation/idmend/internal/config"
)

// Interface defines the application context interface that commands need.
// The App struct from cmd/idmend/app implements this interface.
//
// Commands should accept this interface rather than the concrete App type,
// allowing for easier testing with mock implementations.
type Interface interface {
	// Settings returns a copy of the resolved configuration. Commands
	// apply their own flags to the copy before building an engine.
	Settings() *config.Settings

	// Engine creates an engine for the given settings.
	Engine(s *config.Settings) (idmend.Engine, error)

	// Logger returns the configured logger instance.
	Logger() *zerolog.Logger

	// OutputFormat returns the configured output format (json, yaml, table, etc).
	OutputFormat() string

	// NoColor reports whether colored output is disabled.
	NoColor() bool

	// Version returns the application version string.
	Version() string

	// Commit returns the git commit hash.
	Commit() string

	// Date returns the build date.
	Date() string

	// BuiltBy returns the build system identifier.
	BuiltBy() string
}
