package app

import (
	"os"

	"github.com/agentstation/idmend/internal/config"
)

// Config holds the application configuration loaded from various sources
// including config files, environment variables, and .env files.
type Config struct {
	// Global flags
	Verbose bool
	Quiet   bool
	NoColor bool
	Output  string

	// Config file
	ConfigFile string

	// Logging configuration. LogLevel is only set by --log-level; the
	// configured level lives in Settings.
	LogLevel  string
	LogFormat string
	LogOutput string

	// Settings are the engine settings from file and environment
	Settings *config.Settings
}

// LoadConfig loads configuration from all sources in order of precedence:
// 1. Command-line flags (applied later by UpdateFromFlags and each command)
// 2. Environment variables (IDMEND_*)
// 3. .env and .env.local files
// 4. Config file (path, or .idmend.yaml in $HOME or the working directory)
// 5. Defaults
func LoadConfig(path string) (*Config, error) {
	v := config.New()
	if err := config.ReadFile(v, path); err != nil {
		return nil, err
	}
	settings, err := config.Load(v)
	if err != nil {
		return nil, err
	}

	return &Config{
		NoColor:    v.GetBool("no_color") || os.Getenv("NO_COLOR") != "",
		Output:     v.GetString("output"),
		ConfigFile: settings.ConfigFile,
		LogFormat:  settings.LogFormat,
		LogOutput:  settings.LogOutput,
		Settings:   settings,
	}, nil
}

// UpdateFromFlags updates config values from parsed command flags.
// This should be called after cobra parses flags to ensure flag
// values take precedence over config file and env vars.
func (c *Config) UpdateFromFlags(verbose, quiet, noColor bool, output, logLevel string) {
	c.Verbose = verbose
	c.Quiet = quiet
	if noColor {
		c.NoColor = true
	}
	if output != "" {
		c.Output = output
	}
	if logLevel != "" {
		c.LogLevel = logLevel
	}
}
