// Package annotate adds the SiteCode and VisitCode base variables to study
// tables. Both columns are placed right after participant_identifier.
package annotate

import (
	"context"
	"fmt"
	"sort"
	"strings"

	"github.com/agentstation/idmend/pkg/constants"
	"github.com/agentstation/idmend/pkg/logging"
	"github.com/agentstation/idmend/pkg/tables"
)

// TableReport is the annotation outcome for one table.
type TableReport struct {
	Table     string   `json:"table" yaml:"table"`
	Added     int      `json:"added" yaml:"added"`
	Missing   int      `json:"missing" yaml:"missing"`
	Unmatched []string `json:"unmatched,omitempty" yaml:"unmatched,omitempty"`
	Skipped   string   `json:"skipped,omitempty" yaml:"skipped,omitempty"`
}

// Report collects per-table outcomes for one annotated column.
type Report struct {
	Column string        `json:"column" yaml:"column"`
	Tables []TableReport `json:"tables" yaml:"tables"`
}

// Missing returns the total number of rows left without a code.
func (r *Report) Missing() int {
	n := 0
	for _, t := range r.Tables {
		n += t.Missing
	}
	return n
}

// Lines renders the report one line per table.
func (r *Report) Lines() []string {
	var out []string
	for _, t := range r.Tables {
		if t.Skipped != "" {
			out = append(out, fmt.Sprintf("%s - skipped: %s", t.Table, t.Skipped))
			continue
		}
		out = append(out, fmt.Sprintf("%s - %s added: %d, Missing: %d", t.Table, r.Column, t.Added, t.Missing))
		if len(t.Unmatched) > 0 {
			out = append(out, fmt.Sprintf("%s - Unmatched: %s", t.Table, strings.Join(t.Unmatched, ", ")))
		}
	}
	return out
}

// AddSiteCode inserts a SiteCode column looked up from ref by
// participant identifier. Tables without identifiers are skipped.
func AddSiteCode(ctx context.Context, set *tables.Set, ref SiteReference) *Report {
	return annotate(ctx, set, constants.ColumnSiteCode, func(t *tables.Table) string {
		if !t.HasIdentity() {
			return "no " + constants.ColumnParticipantID + " column"
		}
		return ""
	}, func(t *tables.Table, i int) (tables.Value, string) {
		id := t.ID(i)
		if v, ok := ref[id]; ok && !v.IsMissing() {
			return v, ""
		}
		return tables.Value{}, id
	})
}

// AddVisitCode inserts a VisitCode column derived from visit_name.
// Visit names without a code are left missing and reported.
func AddVisitCode(ctx context.Context, set *tables.Set, codes VisitCodes) *Report {
	return annotate(ctx, set, constants.ColumnVisitCode, func(t *tables.Table) string {
		if !t.HasVisit() {
			return "no " + constants.ColumnVisit + " column"
		}
		return ""
	}, func(t *tables.Table, i int) (tables.Value, string) {
		name := t.Visit(i)
		if code, ok := codes[name]; ok {
			return tables.IntValue(int64(code)), ""
		}
		return tables.Value{}, name
	})
}

// annotate rebuilds column on every eligible table. check returns a skip
// reason; lookup returns the cell and, when the cell is missing, the key
// that failed to match.
func annotate(
	ctx context.Context,
	set *tables.Set,
	column string,
	check func(*tables.Table) string,
	lookup func(*tables.Table, int) (tables.Value, string),
) *Report {
	logger := logging.FromContext(ctx)
	report := &Report{Column: column, Tables: []TableReport{}}

	for _, t := range set.Tables() {
		tr := TableReport{Table: t.Name}
		if reason := check(t); reason != "" {
			tr.Skipped = reason
			logger.Warn().Str("table", t.Name).Str("column", column).Msg("Skipped: " + reason)
			report.Tables = append(report.Tables, tr)
			continue
		}

		t.RemoveColumn(column)
		values := make([]tables.Value, t.Len())
		unmatched := map[string]bool{}
		for i := range values {
			v, miss := lookup(t, i)
			values[i] = v
			if v.IsMissing() {
				tr.Missing++
				if miss != "" {
					unmatched[miss] = true
				}
			} else {
				tr.Added++
			}
		}
		after := ""
		if t.HasIdentity() {
			after = constants.ColumnParticipantID
		}
		if err := t.InsertColumn(after, column, values); err != nil {
			tr.Skipped = err.Error()
			logger.Error().Err(err).Str("table", t.Name).Msg("Annotation failed")
			report.Tables = append(report.Tables, tr)
			continue
		}
		for k := range unmatched {
			tr.Unmatched = append(tr.Unmatched, k)
		}
		sort.Strings(tr.Unmatched)

		ev := logger.Debug()
		if tr.Missing > 0 {
			ev = logger.Warn().Strs("unmatched", tr.Unmatched)
		}
		ev.Str("table", t.Name).Str("column", column).
			Int("added", tr.Added).Int("missing", tr.Missing).
			Msg("Annotated")
		report.Tables = append(report.Tables, tr)
	}
	return report
}
