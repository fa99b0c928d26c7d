package logging_test

import (
	"bytes"
	"context"
	"strings"
	"testing"

	"github.com/rs/zerolog"

	"github.com/agentstation/idmend/pkg/logging"
)

func TestSetDefault(t *testing.T) {
	original := *logging.Default()
	defer logging.SetDefault(original)

	buf := &bytes.Buffer{}
	logging.SetDefault(zerolog.New(buf).Level(zerolog.DebugLevel))

	logging.FromContext(context.Background()).Info().Msg("info message")

	if !strings.Contains(buf.String(), "info message") {
		t.Errorf("Expected info message in output, got: %s", buf.String())
	}
}

func TestContextLogger(t *testing.T) {
	testLogger := logging.NewTestLogger(t)

	ctx := logging.WithLogger(context.Background(), testLogger.Logger)
	ctx = logging.WithRun(ctx, "run-123")
	ctx = logging.WithTable(ctx, "forms")
	ctx = logging.WithParticipant(ctx, "P001")
	ctx = logging.WithOperation(ctx, "delete")

	logging.FromContext(ctx).Info().Msg("rows removed")

	testLogger.AssertContains(t, `"run_id":"run-123"`)
	testLogger.AssertContains(t, `"table":"forms"`)
	testLogger.AssertContains(t, `"participant_id":"P001"`)
	testLogger.AssertContains(t, `"operation":"delete"`)
	testLogger.AssertContains(t, "rows removed")
}

func TestFromContextFallsBackToDefault(t *testing.T) {
	if logging.FromContext(context.Background()) != logging.Default() {
		t.Error("expected default logger for empty context")
	}
	if logging.FromContext(logging.WithLogger(context.Background(), nil)) != logging.Default() {
		t.Error("expected default logger for nil logger")
	}
}

func TestConfiguration(t *testing.T) {
	configs := []struct {
		name   string
		config *logging.Config
		check  func(t *testing.T, output string)
	}{
		{
			name:   "debug level",
			config: &logging.Config{Level: "debug", Format: "json"},
			check: func(t *testing.T, output string) {
				if !strings.Contains(output, `"level":"debug"`) {
					t.Errorf("Expected debug level in output")
				}
			},
		},
		{
			name:   "error level only",
			config: &logging.Config{Level: "error", Format: "json"},
			check: func(t *testing.T, output string) {
				if strings.Contains(output, `"level":"info"`) {
					t.Errorf("Should not contain info level when set to error")
				}
			},
		},
	}

	for _, tc := range configs {
		t.Run(tc.name, func(t *testing.T) {
			defer zerolog.SetGlobalLevel(zerolog.GlobalLevel())
			buf := &bytes.Buffer{}
			logger := logging.NewLoggerFromConfig(tc.config).Output(buf)

			logger.Debug().Msg("debug")
			logger.Info().Msg("info")
			logger.Error().Msg("error")

			tc.check(t, buf.String())
		})
	}
}
