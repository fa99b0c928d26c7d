// Package run provides the run command.
package run

import (
	"io"

	"github.com/spf13/cobra"

	"github.com/agentstation/idmend/internal/appcontext"
	"github.com/agentstation/idmend/internal/cmd/output"
	"github.com/agentstation/idmend/pkg/auditlog"
	"github.com/agentstation/idmend/pkg/logging"
)

// NewCommand creates the run command using app context.
func NewCommand(app appcontext.Interface) *cobra.Command {
	var flags *Flags

	cmd := &cobra.Command{
		Use:     "run",
		GroupID: "core",
		Short:   "Reconcile participant identities across study tables",
		Args:    cobra.NoArgs,
		Long: `Run applies a disposition ruleset to every table of a study export.

For each disposition row, in this order:
1. Delete - drop every row of the identifier
2. Relocate - move (or exchange) visits to another identifier
3. Merge - fold two identifiers into the final identifier

The reconciled tables are written to the output directory together with
delete_log.csv, move_log.csv or exchange_log.csv, merge_log.csv and
run_summary.yaml. Merge conflicts never fail a run; they are logged in
merge_log.csv for manual review.`,
		Example: `  idmend run -i export/ -r disposition.xlsx -d reconciled/
  idmend run --strategy exchange --on-inconsistent skip
  idmend run --required-visits Screening,T1,T2 --dry-run
  idmend run --sqlite reconciled/idmend.db -o json`,
		RunE: func(cmd *cobra.Command, _ []string) error {
			ctx := cmd.Context()
			logger := app.Logger()

			s := app.Settings()
			flags.Apply(cmd, s)

			eng, err := app.Engine(s)
			if err != nil {
				return err
			}
			eng.OnConflict(func(e auditlog.Entry) {
				logger.Debug().
					Str("table", e.Table).
					Str("participant_id", e.ParticipantID).
					Str("target_id", e.TargetID).
					Str("visit", e.Visit).
					Msg("Conflict recorded")
			})
			eng.OnTableSkipped(func(table string, err error) {
				logger.Warn().Str("table", table).Err(err).Msg("Table skipped")
			})

			summary, err := eng.Run(logging.WithLogger(ctx, logger))
			if err != nil {
				return err
			}

			output.SetColor(!app.NoColor())
			return output.Write(cmd.OutOrStdout(), app.OutputFormat(), summary, func(w io.Writer) {
				output.PrintSummary(w, summary)
			})
		},
	}

	flags = addFlags(cmd)
	return cmd
}
