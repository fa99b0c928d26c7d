package idmend

import (
	"fmt"
	"time"

	"github.com/agentstation/idmend/pkg/annotate"
	"github.com/agentstation/idmend/pkg/coverage"
	"github.com/agentstation/idmend/pkg/reconciler"
)

// RunSummary is the outcome of one Engine.Run. It is written to
// run_summary.yaml next to the reconciled tables.
type RunSummary struct {
	RunID     string    `json:"run_id" yaml:"run_id"`
	StartedAt time.Time `json:"started_at" yaml:"started_at"`
	Duration  string    `json:"duration" yaml:"duration"`
	Strategy  string    `json:"strategy" yaml:"strategy"`
	DryRun    bool      `json:"dry_run,omitempty" yaml:"dry_run,omitempty"`
	OutputDir string    `json:"output_dir,omitempty" yaml:"output_dir,omitempty"`

	Rules         int            `json:"rules" yaml:"rules"`
	TablesLoaded  int            `json:"tables_loaded" yaml:"tables_loaded"`
	TablesSkipped int            `json:"tables_skipped" yaml:"tables_skipped"`
	PassedThrough int            `json:"passed_through" yaml:"passed_through"`
	BadLines      map[string]int `json:"bad_lines,omitempty" yaml:"bad_lines,omitempty"`

	Deleted      int `json:"deleted" yaml:"deleted"`
	Moved        int `json:"moved" yaml:"moved"`
	Evicted      int `json:"evicted" yaml:"evicted"`
	Exchanged    int `json:"exchanged" yaml:"exchanged"`
	Merged       int `json:"merged" yaml:"merged"`
	Conflicts    int `json:"conflicts" yaml:"conflicts"`
	SkippedRules int `json:"skipped_rules" yaml:"skipped_rules"`
	Remembered   int `json:"remembered" yaml:"remembered"`

	IncompleteCoverage int                `json:"incomplete_coverage,omitempty" yaml:"incomplete_coverage,omitempty"`
	Annotations        []*annotate.Report `json:"annotations,omitempty" yaml:"annotations,omitempty"`

	Written  []string `json:"written,omitempty" yaml:"written,omitempty"`
	Errors   []string `json:"errors,omitempty" yaml:"errors,omitempty"`
	Warnings []string `json:"warnings,omitempty" yaml:"warnings,omitempty"`
}

func newSummary(runID string, started time.Time) *RunSummary {
	return &RunSummary{
		RunID:     runID,
		StartedAt: started,
		BadLines:  map[string]int{},
	}
}

func (s *RunSummary) addError(err error) {
	s.Errors = append(s.Errors, err.Error())
}

func (s *RunSummary) addResult(r *reconciler.Result) {
	st := r.Metadata.Stats
	s.Strategy = r.Metadata.Strategy.String()
	s.Rules = st.Rules
	s.PassedThrough = st.PassedThrough
	s.Deleted = st.RowsDeleted
	s.Moved = st.RowsMoved
	s.Evicted = st.RowsEvicted
	s.Exchanged = st.RowsExchanged
	s.Merged = st.MergeEntries
	s.Conflicts = st.Conflicts
	s.SkippedRules = st.SkippedRules
	s.Remembered = r.Remembered.Len()
	for _, err := range r.Errors {
		s.addError(err)
	}
	s.Warnings = append(s.Warnings, r.Warnings...)
}

func (s *RunSummary) addCoverage(report *coverage.Report) {
	s.IncompleteCoverage = len(report.Incomplete())
}

func (s *RunSummary) finish() {
	s.Duration = time.Since(s.StartedAt).Round(time.Millisecond).String()
}

// Success reports whether the run finished without recoverable errors.
func (s *RunSummary) Success() bool {
	return len(s.Errors) == 0
}

// String returns a one-line summary.
func (s *RunSummary) String() string {
	msg := fmt.Sprintf("run %s (%s): %d tables, %d deleted, %d moved, %d exchanged, %d merge entries",
		s.RunID, s.Strategy, s.TablesLoaded, s.Deleted, s.Moved, s.Exchanged, s.Merged)
	if s.Conflicts > 0 {
		msg += fmt.Sprintf(", %d conflicts", s.Conflicts)
	}
	if len(s.Errors) > 0 {
		msg += fmt.Sprintf(", %d errors", len(s.Errors))
	}
	return msg
}
