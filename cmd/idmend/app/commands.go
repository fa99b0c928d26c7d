package app

import (
	"github.com/spf13/cobra"

	"github.com/agentstation/idmend/cmd/idmend/cmd/annotate"
	"github.com/agentstation/idmend/cmd/idmend/cmd/audit"
	"github.com/agentstation/idmend/cmd/idmend/cmd/run"
	"github.com/agentstation/idmend/cmd/idmend/cmd/validate"
	"github.com/agentstation/idmend/cmd/idmend/cmd/version"
)

// registerCommands registers all subcommands with the root command.
func (a *App) registerCommands(rootCmd *cobra.Command) {
	// Core commands
	rootCmd.AddCommand(run.NewCommand(a))
	rootCmd.AddCommand(annotate.NewCommand(a))

	// Management commands
	rootCmd.AddCommand(validate.NewCommand(a))
	rootCmd.AddCommand(audit.NewCommand(a))
	rootCmd.AddCommand(version.NewCommand(a))
}
