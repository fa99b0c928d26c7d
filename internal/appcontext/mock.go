package appcontext

import (
	"github.com/rs/zerolog"

	"github.com/agentstation/idmend"
	"github.com/agentstation/idmend/internal/config"
)

// Mock provides a mock implementation of Interface for testing.
// Each method can be customized by setting the corresponding function field.
// If a function field is nil, the method returns a default/zero value.
type Mock struct {
	SettingsFunc     func() *config.Settings
	EngineFunc       func(*config.Settings) (idmend.Engine, error)
	LoggerFunc       func() *zerolog.Logger
	OutputFormatFunc func() string
	VersionFunc      func() string
	CommitFunc       func() string
	DateFunc         func() string
	BuiltByFunc      func() string
}

// Settings returns settings using the mock function or empty settings.
func (m *Mock) Settings() *config.Settings {
	if m.SettingsFunc != nil {
		return m.SettingsFunc()
	}
	return &config.Settings{}
}

// Engine returns an engine using the mock function, or builds a real one
// from the settings.
func (m *Mock) Engine(s *config.Settings) (idmend.Engine, error) {
	if m.EngineFunc != nil {
		return m.EngineFunc(s)
	}
	opts, err := s.EngineOptions()
	if err != nil {
		return nil, err
	}
	return idmend.New(opts...)
}

// Logger returns a logger using the mock function or a no-op logger.
func (m *Mock) Logger() *zerolog.Logger {
	if m.LoggerFunc != nil {
		return m.LoggerFunc()
	}
	logger := zerolog.Nop()
	return &logger
}

// OutputFormat returns the format using the mock function or "table".
func (m *Mock) OutputFormat() string {
	if m.OutputFormatFunc != nil {
		return m.OutputFormatFunc()
	}
	return "table"
}

// NoColor always disables color in tests.
func (m *Mock) NoColor() bool { return true }

// Version returns version using the mock function or "dev".
func (m *Mock) Version() string {
	if m.VersionFunc != nil {
		return m.VersionFunc()
	}
	return "dev"
}

// Commit returns commit using the mock function or "unknown".
func (m *Mock) Commit() string {
	if m.CommitFunc != nil {
		return m.CommitFunc()
	}
	return "unknown"
}

// Date returns date using the mock function or "unknown".
func (m *Mock) Date() string {
	if m.DateFunc != nil {
		return m.DateFunc()
	}
	return "unknown"
}

// BuiltBy returns builtBy using the mock function or "unknown".
func (m *Mock) BuiltBy() string {
	if m.BuiltByFunc != nil {
		return m.BuiltByFunc()
	}
	return "unknown"
}

var _ Interface = (*Mock)(nil)
