// Package annotate provides the annotate command.
package annotate

import (
	"io"

	"github.com/spf13/cobra"

	"github.com/agentstation/idmend/internal/appcontext"
	"github.com/agentstation/idmend/internal/cmd/globals"
	"github.com/agentstation/idmend/internal/cmd/output"
	"github.com/agentstation/idmend/pkg/logging"
)

// NewCommand creates the annotate command using app context.
func NewCommand(app appcontext.Interface) *cobra.Command {
	var flags *globals.EngineFlags

	cmd := &cobra.Command{
		Use:     "annotate",
		GroupID: "core",
		Short:   "Add SiteCode and VisitCode columns to study tables",
		Args:    cobra.NoArgs,
		Long: `Annotate adds two integer columns right after participant_identifier:

  SiteCode   looked up in the site reference table (Kind-of-participant.csv)
  VisitCode  mapped from visit_name (0 Screening/Baseline, 1 T1, 2 T2, 3 T3)

Running it again replaces the columns. Identifiers and visits without a
code are reported per table.`,
		Example: `  idmend annotate -i export/ -d annotated/
  idmend annotate --visit-codes codes.yaml --site-reference sites.csv`,
		RunE: func(cmd *cobra.Command, _ []string) error {
			s := app.Settings()
			flags.Apply(cmd, s)

			eng, err := app.Engine(s)
			if err != nil {
				return err
			}
			summary, err := eng.Annotate(logging.WithLogger(cmd.Context(), app.Logger()))
			if err != nil {
				return err
			}

			output.SetColor(!app.NoColor())
			return output.Write(cmd.OutOrStdout(), app.OutputFormat(), summary, func(w io.Writer) {
				output.PrintSummary(w, summary)
			})
		},
	}

	flags = globals.AddEngineFlags(cmd)
	return cmd
}
