package app

import (
	"context"
	"os"

	"github.com/spf13/cobra"

	"github.com/agentstation/idmend/internal/cmd/globals"
	"github.com/agentstation/idmend/pkg/logging"
)

// Execute runs the idmend CLI application with the given arguments.
// This is the main entry point called from main.go.
func (a *App) Execute(ctx context.Context, args []string) error {
	rootCmd := a.createRootCommand()
	rootCmd.SetArgs(args)
	return rootCmd.ExecuteContext(ctx)
}

// createRootCommand creates the root cobra command with all subcommands.
func (a *App) createRootCommand() *cobra.Command {
	rootCmd := &cobra.Command{
		Use:     "idmend",
		Short:   "Participant identity reconciliation for clinical study exports",
		Version: a.version,
		Long: `idmend corrects participant identities across the tables of a
longitudinal study export. A disposition ruleset written by study staff
says which identifiers to delete, which visits to relocate to another
identifier, and which identifiers to merge. idmend applies it to every
table and writes the corrected tables with a log of every change.

Configuration is read from .idmend.yaml, .env files and IDMEND_*
environment variables; flags override both.`,
		PersistentPreRunE: a.setupCommand,
		SilenceUsage:      true,
		SilenceErrors:     true,
	}

	rootCmd.AddGroup(&cobra.Group{
		ID:    "core",
		Title: "Core Commands:",
	})
	rootCmd.AddGroup(&cobra.Group{
		ID:    "management",
		Title: "Management Commands:",
	})

	globals.AddFlags(rootCmd)

	rootCmd.SetVersionTemplate("idmend {{.Version}}\n")

	a.registerCommands(rootCmd)

	return rootCmd
}

// setupCommand is called before any command runs.
func (a *App) setupCommand(cmd *cobra.Command, _ []string) error {
	flags, err := globals.Parse(cmd)
	if err != nil {
		return err
	}

	if flags.ConfigFile != "" {
		cfg, err := LoadConfig(flags.ConfigFile)
		if err != nil {
			return err
		}
		a.config = cfg
	}

	a.config.UpdateFromFlags(flags.Verbose, flags.Quiet, flags.NoColor, flags.Output, flags.LogLevel)

	// Reinitialize logger with updated config
	logger := NewLogger(a.config)
	a.logger = &logger
	logging.SetDefault(logger)

	return nil
}

// ExitOnError is a helper that prints an error and exits with status 1.
// This is meant to be used in main.go for top-level error handling.
func ExitOnError(err error) {
	if err != nil {
		//nolint:errcheck // Ignoring write error since we're exiting anyway
		_, _ = os.Stderr.WriteString(err.Error() + "\n")
		os.Exit(1)
	}
}
