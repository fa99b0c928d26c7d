package reconciler

import (
	"slices"

	"github.com/agentstation/idmend/pkg/auditlog"
	"github.com/agentstation/idmend/pkg/constants"
	"github.com/agentstation/idmend/pkg/disposition"
	"github.com/agentstation/idmend/pkg/tables"
)

// Comparison defines which columns the cutover merge compares.
type Comparison struct {
	// Anchor is the column after which comparison starts. When the table
	// lacks it, comparison starts at the first column.
	Anchor string
	// DerivedColumns is the number of trailing calculated columns ignored.
	DerivedColumns int
	// Skip lists columns never compared.
	Skip []string
}

// Columns returns the compared column indexes of t. When the range
// between the anchor and the derived columns holds nothing comparable,
// every column other than the identity, visit, anchor and skipped ones is
// compared instead.
func (c Comparison) Columns(t *tables.Table) []int {
	cols := t.Columns()
	start := 0
	if i, ok := t.ColumnIndex(c.Anchor); ok && c.Anchor != "" {
		start = i + 1
	}
	end := len(cols) - c.DerivedColumns
	skip := map[string]bool{
		constants.ColumnParticipantID: true,
		constants.ColumnVisit:         true,
	}
	for _, s := range c.Skip {
		skip[s] = true
	}
	var out []int
	for i := start; i < end; i++ {
		if !skip[cols[i]] {
			out = append(out, i)
		}
	}
	if len(out) > 0 {
		return out
	}
	for i, name := range cols {
		if !skip[name] && (c.Anchor == "" || name != c.Anchor) {
			out = append(out, i)
		}
	}
	return out
}

// vector returns the compared values of a row, missing cells as "".
func vector(r tables.Row, cols []int) []string {
	out := make([]string, len(cols))
	for i, c := range cols {
		out[i] = r[c].String()
	}
	return out
}

func allEmpty(values []string) bool {
	for _, v := range values {
		if v != "" {
			return false
		}
	}
	return true
}

func sameValues(a, b tables.Row, cols []int) bool {
	for _, c := range cols {
		if !a[c].Equal(b[c]) {
			return false
		}
	}
	return true
}

// Merge consolidates the current and merge target identifiers of t into
// the final identifier.
//
// When any listed merge visit exists in t, the target's rows at those
// visits replace the current identifier's rows there and every remaining
// current row is relabeled. Otherwise each cutover or also visit is
// resolved on its own: a lone side is relabeled, an empty or identical
// target is dropped in favour of the current rows, and differing payloads
// are logged as conflicts and left untouched. The table is re-sorted by
// identifier when any row changed.
func Merge(t *tables.Table, row disposition.Row, cmp Comparison) []auditlog.Entry {
	if !t.HasIdentity() || !t.HasVisit() || row.CurrentID == row.MergeTargetID {
		return nil
	}

	var (
		entries []auditlog.Entry
		changed bool
	)
	if listed := listedVisits(t, row.MergeVisits); len(listed) > 0 {
		entries, changed = mergeVisitList(t, row, listed)
	} else {
		entries, changed = mergeCutover(t, row, cmp)
	}
	if changed {
		t.SortByID()
	}
	return entries
}

func listedVisits(t *tables.Table, visits []string) []string {
	present := t.Visits("")
	var out []string
	for _, v := range visits {
		if slices.Contains(present, v) && !slices.Contains(out, v) {
			out = append(out, v)
		}
	}
	return out
}

func mergeVisitList(t *tables.Table, row disposition.Row, visits []string) ([]auditlog.Entry, bool) {
	cid, mid, fid := row.CurrentID, row.MergeTargetID, row.FinalID
	changed := false
	var entries []auditlog.Entry
	entry := func(visit string, action auditlog.Action, rows, evicted int) auditlog.Entry {
		return auditlog.Entry{
			Line: row.Line, Table: t.Name, Op: auditlog.OpMerge,
			ParticipantID: cid, TargetID: mid, FinalID: fid,
			Visit: visit, Action: action, Rows: rows, Evicted: evicted,
		}
	}

	for _, visit := range visits {
		c := t.Match(cid, visit)
		m := t.Match(mid, visit)
		if len(m) == 0 {
			// Nothing to install; a rerun lands here once the target is gone.
			if len(c) > 0 {
				entries = append(entries, entry(visit, auditlog.ActionVisitListKept, len(c), 0))
			}
			continue
		}
		for _, i := range m {
			t.SetID(i, fid)
		}
		drop := indexSet(c)
		t.Filter(func(i int, _ tables.Row) bool { return !drop[i] })
		entries = append(entries, entry(visit, auditlog.ActionVisitListReplaced, len(m), len(c)))
		changed = true
	}

	if cid != fid {
		for _, i := range t.Match(cid, "") {
			t.SetID(i, fid)
			changed = true
		}
	}
	return entries, changed
}

func mergeCutover(t *tables.Table, row disposition.Row, cmp Comparison) ([]auditlog.Entry, bool) {
	cid, mid, fid := row.CurrentID, row.MergeTargetID, row.FinalID
	cols := cmp.Columns(t)
	changed := false
	var entries []auditlog.Entry

	for _, visit := range row.FallbackVisits() {
		c := t.Match(cid, visit)
		m := t.Match(mid, visit)
		e := auditlog.Entry{
			Line: row.Line, Table: t.Name, Op: auditlog.OpMerge,
			ParticipantID: cid, TargetID: mid, FinalID: fid, Visit: visit,
		}

		switch {
		case len(c) == 0 && len(m) == 0:
			continue
		case len(c) == 0:
			relabel(t, m, fid)
			e.Action, e.Rows = auditlog.ActionMidOnly, len(m)
			changed = true
		case len(m) == 0:
			relabel(t, c, fid)
			e.Action, e.Rows = auditlog.ActionCidOnly, len(c)
			changed = true
		default:
			cv := vector(t.Row(c[0]), cols)
			mv := vector(t.Row(m[0]), cols)
			switch {
			case len(cols) == 0:
				// Nothing to compare, so equality cannot be shown.
				e.Action = auditlog.ActionConflict
				e.Rows = len(c) + len(m)
				e.CurrentValues, e.TargetValues = cv, mv
				entries = append(entries, e)
				continue
			case allEmpty(mv):
				e.Action = auditlog.ActionMidEmpty
			case sameValues(t.Row(c[0]), t.Row(m[0]), cols):
				e.Action = auditlog.ActionBothSame
			default:
				e.Action = auditlog.ActionConflict
				e.Rows = len(c) + len(m)
				e.CurrentValues, e.TargetValues = cv, mv
				entries = append(entries, e)
				continue
			}
			relabel(t, c, fid)
			drop := indexSet(m)
			t.Filter(func(i int, _ tables.Row) bool { return !drop[i] })
			e.Rows, e.Evicted = len(c), len(m)
			changed = true
		}
		entries = append(entries, e)
	}
	return entries, changed
}

func relabel(t *tables.Table, idx []int, id string) {
	for _, i := range idx {
		t.SetID(i, id)
	}
}
