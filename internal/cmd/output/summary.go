package output

import (
	"fmt"
	"io"
	"strings"

	"github.com/fatih/color"

	"github.com/agentstation/idmend"
	"github.com/agentstation/idmend/pkg/coverage"
)

// SetColor turns colored output on or off for every printer in this package.
func SetColor(enabled bool) {
	color.NoColor = !enabled
}

var (
	okColor    = color.New(color.FgHiGreen)
	warnColor  = color.New(color.FgYellow)
	errColor   = color.New(color.FgRed)
	labelColor = color.New(color.FgCyan)
	dimColor   = color.New(color.FgHiBlack)
)

// PrintSummary writes a human-readable run summary.
func PrintSummary(w io.Writer, s *idmend.RunSummary) {
	header := okColor.Sprintf("✓ %s", strings.ToUpper(s.Strategy))
	switch {
	case len(s.Errors) > 0:
		header = errColor.Sprintf("✗ %s", strings.ToUpper(s.Strategy))
	case s.Conflicts > 0 || s.IncompleteCoverage > 0:
		header = warnColor.Sprintf("⚠ %s", strings.ToUpper(s.Strategy))
	}
	fmt.Fprintf(w, "%s %s", header, dimColor.Sprintf("run %s in %s", s.RunID, s.Duration))
	if s.DryRun {
		fmt.Fprint(w, warnColor.Sprint(" [dry run]"))
	}
	fmt.Fprintln(w)

	line := func(label string, value any) {
		fmt.Fprintf(w, "  %s %v\n", labelColor.Sprintf("%-15s", label+":"), value)
	}
	line("rules", s.Rules)
	line("tables", fmt.Sprintf("%d loaded, %d skipped, %d passed through", s.TablesLoaded, s.TablesSkipped, s.PassedThrough))
	if s.Strategy != "annotate" {
		line("deleted", s.Deleted)
		if s.Strategy == "exchange" {
			line("exchanged", s.Exchanged)
		} else {
			line("moved", fmt.Sprintf("%d (%d evicted, %d remembered)", s.Moved, s.Evicted, s.Remembered))
		}
		line("merge entries", s.Merged)
	}
	if s.Conflicts > 0 {
		line("conflicts", warnColor.Sprintf("%d, see merge_log", s.Conflicts))
	}
	if s.SkippedRules > 0 {
		line("skipped rules", warnColor.Sprint(s.SkippedRules))
	}
	if s.IncompleteCoverage > 0 {
		line("coverage", warnColor.Sprintf("%d merge rules incomplete", s.IncompleteCoverage))
	}
	for name, n := range s.BadLines {
		line("bad lines", fmt.Sprintf("%s: %d", name, n))
	}
	for _, r := range s.Annotations {
		for _, l := range r.Lines() {
			fmt.Fprintf(w, "  %s\n", l)
		}
	}
	if s.OutputDir != "" && !s.DryRun {
		line("written", fmt.Sprintf("%d files to %s", len(s.Written), s.OutputDir))
	}
	for _, msg := range s.Warnings {
		fmt.Fprintf(w, "  %s\n", warnColor.Sprintf("⚠ %s", msg))
	}
	for _, msg := range s.Errors {
		fmt.Fprintf(w, "  %s\n", errColor.Sprintf("✗ %s", msg))
	}
}

// PrintCoverage writes a coverage report, highlighting incomplete rules.
func PrintCoverage(w io.Writer, r *coverage.Report) {
	incomplete := r.Incomplete()
	fmt.Fprintf(w, "Audited %d merge rules against %s\n",
		len(r.Entries), labelColor.Sprint(strings.Join(r.Required, ", ")))
	if len(incomplete) == 0 {
		fmt.Fprintln(w, okColor.Sprint("✓ every merge rule covers each required visit once"))
		return
	}
	fmt.Fprintln(w, warnColor.Sprintf("⚠ %d merge rules need attention", len(incomplete)))
	for _, e := range incomplete {
		fmt.Fprintf(w, "  row %d: %s + %s", e.Line, e.CurrentID, e.MergeID)
		if len(e.Missing) > 0 {
			fmt.Fprint(w, errColor.Sprintf(" missing [%s]", strings.Join(e.Missing, ", ")))
		}
		if len(e.Duplicated) > 0 {
			fmt.Fprint(w, warnColor.Sprintf(" duplicated [%s]", strings.Join(e.Duplicated, ", ")))
		}
		if len(e.Unexpected) > 0 {
			fmt.Fprint(w, dimColor.Sprintf(" unexpected [%s]", strings.Join(e.Unexpected, ", ")))
		}
		fmt.Fprintln(w)
	}
}

// Write prints v in format. Table output goes through human when it is
// set and through the table formatter otherwise.
func Write(w io.Writer, format string, v any, human func(io.Writer)) error {
	f, err := ParseFormat(format)
	if err != nil {
		return err
	}
	if (f == "" || f == FormatTable) && human != nil {
		human(w)
		return nil
	}
	return NewFormatter(f).Format(w, v)
}
