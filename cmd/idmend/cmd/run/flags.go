package run

import (
	"github.com/spf13/cobra"

	"github.com/agentstation/idmend/internal/cmd/globals"
	"github.com/agentstation/idmend/internal/config"
)

// Flags holds the run command flags.
type Flags struct {
	*globals.EngineFlags

	Strategy        string
	OnInconsistent  string
	Workers         int
	RequiredVisits  []string
	CompareAnchor   string
	DerivedColumns  int
	TimestampColumn string
	Annotate        bool
	SQLitePath      string
}

func addFlags(cmd *cobra.Command) *Flags {
	flags := &Flags{EngineFlags: globals.AddEngineFlags(cmd)}
	flags.AddDispositionFlag(cmd)

	cmd.Flags().StringVar(&flags.Strategy, "strategy", "",
		"Relocation strategy: auto, move, exchange (default auto)")
	cmd.Flags().StringVar(&flags.OnInconsistent, "on-inconsistent", "",
		"Exchange row count mismatch: abort or skip (default abort)")
	cmd.Flags().IntVarP(&flags.Workers, "workers", "w", 0,
		"Tables processed in parallel (default 1)")
	cmd.Flags().StringSliceVar(&flags.RequiredVisits, "required-visits", nil,
		"Visits every merge must cover, enables the coverage report")
	cmd.Flags().StringVar(&flags.CompareAnchor, "compare-anchor", "",
		"Column after which merge comparison starts (default diary_date)")
	cmd.Flags().IntVar(&flags.DerivedColumns, "derived-columns", 0,
		"Trailing calculated columns ignored by merge comparison (default 5)")
	cmd.Flags().StringVar(&flags.TimestampColumn, "timestamp-column", "",
		"Creation timestamp column (default created_at)")
	cmd.Flags().BoolVar(&flags.Annotate, "annotate", false,
		"Add SiteCode and VisitCode columns before reconciling")
	cmd.Flags().StringVar(&flags.SQLitePath, "sqlite", "",
		"Also export tables and logs to this SQLite database")

	return flags
}

// Apply copies the flags the user set onto s.
func (f *Flags) Apply(cmd *cobra.Command, s *config.Settings) {
	f.EngineFlags.Apply(cmd, s)

	changed := cmd.Flags().Changed
	if changed("strategy") {
		s.Strategy = f.Strategy
	}
	if changed("on-inconsistent") {
		s.OnInconsistent = f.OnInconsistent
	}
	if changed("workers") {
		s.Workers = f.Workers
	}
	if changed("required-visits") {
		s.RequiredVisits = f.RequiredVisits
	}
	if changed("compare-anchor") {
		s.CompareAnchor = f.CompareAnchor
	}
	if changed("derived-columns") {
		s.DerivedColumns = f.DerivedColumns
	}
	if changed("timestamp-column") {
		s.TimestampColumn = f.TimestampColumn
	}
	if changed("annotate") {
		s.Annotate = f.Annotate
	}
	if changed("sqlite") {
		s.SQLitePath = f.SQLitePath
	}
}
