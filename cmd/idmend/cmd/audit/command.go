// Package audit provides the audit command.
package audit

import (
	"fmt"
	"io"

	"github.com/spf13/cobra"

	"github.com/agentstation/idmend/internal/appcontext"
	"github.com/agentstation/idmend/internal/cmd/output"
	"github.com/agentstation/idmend/pkg/errors"
	"github.com/agentstation/idmend/pkg/logging"
)

// NewCommand creates the audit command using app context.
func NewCommand(app appcontext.Interface) *cobra.Command {
	var required []string

	cmd := &cobra.Command{
		Use:     "audit [sheet]",
		GroupID: "management",
		Short:   "Check that merge rules cover every required visit",
		Args:    cobra.MaximumNArgs(1),
		Long: `Audit checks each merge rule of a disposition ruleset against the
visits a merged participant must have. A rule is incomplete when a
required visit is named by none of its merge, cutover and also lists, or
by more than one of them.

The command fails when any rule is incomplete.`,
		Example: `  idmend audit disposition.xlsx --required-visits Screening,T1,T2
  idmend audit --required-visits T1,T2 -o json`,
		RunE: func(cmd *cobra.Command, args []string) error {
			s := app.Settings()
			if len(args) == 1 {
				s.DispositionFile = args[0]
			}
			if cmd.Flags().Changed("required-visits") {
				s.RequiredVisits = required
			}
			if len(s.RequiredVisits) == 0 {
				return errors.NewValidationError("required_visits", nil, "no required visits given")
			}

			eng, err := app.Engine(s)
			if err != nil {
				return err
			}
			report, err := eng.Audit(logging.WithLogger(cmd.Context(), app.Logger()))
			if err != nil {
				return err
			}

			output.SetColor(!app.NoColor())
			if err := output.Write(cmd.OutOrStdout(), app.OutputFormat(), report, func(w io.Writer) {
				output.PrintCoverage(w, report)
			}); err != nil {
				return err
			}
			if n := len(report.Incomplete()); n > 0 {
				return fmt.Errorf("%d of %d merge rules are incomplete", n, len(report.Entries))
			}
			return nil
		},
	}

	cmd.Flags().StringSliceVar(&required, "required-visits", nil,
		"Visits every merge must cover (comma-separated)")
	return cmd
}
