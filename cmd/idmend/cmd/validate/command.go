// Package validate provides the validate command.
package validate

import (
	"fmt"
	"io"

	"github.com/spf13/cobra"

	"github.com/agentstation/idmend/internal/appcontext"
	"github.com/agentstation/idmend/internal/cmd/output"
	"github.com/agentstation/idmend/pkg/disposition"
	"github.com/agentstation/idmend/pkg/logging"
)

// Result describes a loaded ruleset.
type Result struct {
	File      string `json:"file" yaml:"file"`
	Variant   string `json:"variant" yaml:"variant"`
	Rules     int    `json:"rules" yaml:"rules"`
	Deletes   int    `json:"deletes" yaml:"deletes"`
	Relocates int    `json:"relocates" yaml:"relocates"`
	Merges    int    `json:"merges" yaml:"merges"`
}

// NewResult summarizes rs.
func NewResult(rs *disposition.Ruleset) *Result {
	deletes, relocates, merges := rs.Counts()
	variant := string(rs.Variant)
	if variant == "" {
		variant = "unknown"
	}
	return &Result{
		File:      rs.Source,
		Variant:   variant,
		Rules:     len(rs.Rows),
		Deletes:   deletes,
		Relocates: relocates,
		Merges:    merges,
	}
}

// NewCommand creates the validate command using app context.
func NewCommand(app appcontext.Interface) *cobra.Command {
	cmd := &cobra.Command{
		Use:     "validate [sheet]",
		GroupID: "management",
		Short:   "Check a disposition ruleset without touching any table",
		Args:    cobra.MaximumNArgs(1),
		Long: `Validate loads a disposition ruleset and reports what it asks for.

Malformed rows (a missing current ID, a relocation or merge without a
target) and sheets without any action column are reported with the
offending row and field. Without an argument the configured
disposition_file is checked.`,
		Example: `  idmend validate disposition.xlsx
  idmend validate rules.csv -o yaml`,
		RunE: func(cmd *cobra.Command, args []string) error {
			s := app.Settings()
			if len(args) == 1 {
				s.DispositionFile = args[0]
			}
			eng, err := app.Engine(s)
			if err != nil {
				return err
			}
			rs, err := eng.Validate(logging.WithLogger(cmd.Context(), app.Logger()))
			if err != nil {
				return err
			}

			res := NewResult(rs)
			return output.Write(cmd.OutOrStdout(), app.OutputFormat(), res, func(w io.Writer) {
				fmt.Fprintf(w, "✅ %s is valid (%s variant)\n", res.File, res.Variant)
				fmt.Fprintf(w, "  rules:     %d\n", res.Rules)
				fmt.Fprintf(w, "  deletes:   %d\n", res.Deletes)
				fmt.Fprintf(w, "  relocates: %d\n", res.Relocates)
				fmt.Fprintf(w, "  merges:    %d\n", res.Merges)
			})
		},
	}
	return cmd
}
