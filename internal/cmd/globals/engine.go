package globals

import (
	"github.com/spf13/cobra"

	"github.com/agentstation/idmend/internal/config"
)

// EngineFlags holds the flags shared by commands that load study tables.
type EngineFlags struct {
	InputDir        string
	OutputDir       string
	DispositionFile string
	Delimiter       string
	SiteReference   string
	VisitCodesFile  string
	DryRun          bool
}

// AddEngineFlags adds table loading and output flags to a command.
func AddEngineFlags(cmd *cobra.Command) *EngineFlags {
	flags := &EngineFlags{}

	cmd.Flags().StringVarP(&flags.InputDir, "input", "i", "",
		"Directory of study tables (*.csv)")
	cmd.Flags().StringVarP(&flags.OutputDir, "output-dir", "d", "",
		"Directory for reconciled tables and logs")
	cmd.Flags().StringVar(&flags.Delimiter, "delimiter", "",
		"Field delimiter of study tables (default ;)")
	cmd.Flags().StringVar(&flags.SiteReference, "site-reference", "",
		"Participant to site reference table (default <input>/Kind-of-participant.csv)")
	cmd.Flags().StringVar(&flags.VisitCodesFile, "visit-codes", "",
		"YAML file mapping visit codes to visit names")
	cmd.Flags().BoolVar(&flags.DryRun, "dry-run", false,
		"Process everything but write nothing")

	return flags
}

// AddDispositionFlag adds the --disposition flag to a command.
func (f *EngineFlags) AddDispositionFlag(cmd *cobra.Command) {
	cmd.Flags().StringVarP(&f.DispositionFile, "disposition", "r", "",
		"Disposition ruleset (.xlsx, .csv or .yaml)")
}

// Apply copies the flags the user set onto s. Flags left at their
// defaults keep the configured values.
func (f *EngineFlags) Apply(cmd *cobra.Command, s *config.Settings) {
	changed := cmd.Flags().Changed
	if changed("input") {
		s.InputDir = f.InputDir
	}
	if changed("output-dir") {
		s.OutputDir = f.OutputDir
	}
	if changed("disposition") {
		s.DispositionFile = f.DispositionFile
	}
	if changed("delimiter") {
		s.Delimiter = f.Delimiter
	}
	if changed("site-reference") {
		s.SiteReference = f.SiteReference
	}
	if changed("visit-codes") {
		s.VisitCodesFile = f.VisitCodesFile
	}
	if changed("dry-run") {
		s.DryRun = f.DryRun
	}
}
