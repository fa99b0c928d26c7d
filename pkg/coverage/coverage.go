// Package coverage checks that every merge rule of a disposition ruleset
// accounts for each required visit exactly once.
package coverage

import (
	"fmt"
	"io"
	"strings"

	"github.com/agentstation/idmend/pkg/disposition"
	"github.com/agentstation/idmend/pkg/errors"
	"github.com/agentstation/idmend/pkg/tables"
)

// Entry is the coverage of one merge rule.
type Entry struct {
	Line       int      `json:"line" yaml:"line"`
	CurrentID  string   `json:"current_id" yaml:"current_id"`
	MergeID    string   `json:"merge_id" yaml:"merge_id"`
	Visits     []string `json:"visits" yaml:"visits"`
	Missing    []string `json:"missing_visits" yaml:"missing_visits"`
	Duplicated []string `json:"duplicated_visits" yaml:"duplicated_visits"`
	Unexpected []string `json:"unexpected_visits,omitempty" yaml:"unexpected_visits,omitempty"`
}

// Complete reports whether the rule covers every required visit once.
func (e Entry) Complete() bool {
	return len(e.Missing) == 0 && len(e.Duplicated) == 0
}

// Report contains the audit of every merge rule in ruleset order.
type Report struct {
	Required []string `json:"required_visits" yaml:"required_visits"`
	Entries  []Entry  `json:"entries" yaml:"entries"`
}

// Audit computes, for every rule with a merge flag, the visits named
// across merge_visits, cutover_visits and also_visits and compares them
// with required. It never looks at table data.
func Audit(rs *disposition.Ruleset, required []string) (*Report, error) {
	if rs == nil {
		return nil, &errors.ValidationError{Field: "ruleset", Message: "ruleset is required"}
	}
	req := clean(required)
	if len(req) == 0 {
		return nil, &errors.ValidationError{Field: "required_visits", Value: required, Message: "at least one visit is required"}
	}

	report := &Report{Required: req, Entries: []Entry{}}
	for _, row := range rs.Rows {
		if !row.Merging() {
			continue
		}
		report.Entries = append(report.Entries, audit(row, req))
	}
	return report, nil
}

func audit(row disposition.Row, required []string) Entry {
	var named []string
	for _, list := range [][]string{row.MergeVisits, row.CutoverVisits, row.AlsoVisits} {
		named = append(named, clean(list)...)
	}

	counts := make(map[string]int, len(named))
	e := Entry{
		Line:       row.Line,
		CurrentID:  row.CurrentID,
		MergeID:    row.MergeTargetID,
		Visits:     []string{},
		Missing:    []string{},
		Duplicated: []string{},
	}
	for _, v := range named {
		counts[v]++
		switch counts[v] {
		case 1:
			e.Visits = append(e.Visits, v)
		case 2:
			e.Duplicated = append(e.Duplicated, v)
		}
	}

	want := make(map[string]bool, len(required))
	for _, v := range required {
		want[v] = true
		if counts[v] == 0 {
			e.Missing = append(e.Missing, v)
		}
	}
	for _, v := range e.Visits {
		if !want[v] {
			e.Unexpected = append(e.Unexpected, v)
		}
	}
	return e
}

func clean(in []string) []string {
	out := make([]string, 0, len(in))
	for _, v := range in {
		if v = strings.TrimSpace(v); v != "" {
			out = append(out, v)
		}
	}
	return out
}

// Incomplete returns the entries that miss or repeat a visit.
func (r *Report) Incomplete() []Entry {
	var out []Entry
	for _, e := range r.Entries {
		if !e.Complete() {
			out = append(out, e)
		}
	}
	return out
}

// Table renders the report as a coverage_report table.
func (r *Report) Table() *tables.Table {
	t := tables.New("coverage_report", []string{
		"line", "current_id", "merge_id", "visits",
		"missing_count", "missing_visits", "duplicated_visits", "unexpected_visits",
	})
	for _, e := range r.Entries {
		_ = t.Append(tables.Row{
			tables.IntValue(int64(e.Line)),
			tables.TextValue(e.CurrentID),
			tables.TextValue(e.MergeID),
			tables.TextValue(strings.Join(e.Visits, ",")),
			tables.IntValue(int64(len(e.Missing))),
			tables.TextValue(strings.Join(e.Missing, ",")),
			tables.TextValue(strings.Join(e.Duplicated, ",")),
			tables.TextValue(strings.Join(e.Unexpected, ",")),
		})
	}
	return t
}

// Print writes a short human-readable report.
func (r *Report) Print(w io.Writer) {
	incomplete := r.Incomplete()
	fmt.Fprintf(w, "Audited %d merge rules against %d required visits\n", len(r.Entries), len(r.Required))
	if len(incomplete) == 0 {
		fmt.Fprintln(w, "\n✅ Every merge rule covers each required visit once")
		return
	}
	fmt.Fprintf(w, "\n❌ %d merge rules need attention:\n", len(incomplete))
	for _, e := range incomplete {
		fmt.Fprintf(w, "  - row %d: %s + %s", e.Line, e.CurrentID, e.MergeID)
		if len(e.Missing) > 0 {
			fmt.Fprintf(w, " missing [%s]", strings.Join(e.Missing, ", "))
		}
		if len(e.Duplicated) > 0 {
			fmt.Fprintf(w, " duplicated [%s]", strings.Join(e.Duplicated, ", "))
		}
		fmt.Fprintln(w)
	}
}
