package reconciler

import (
	"github.com/agentstation/idmend/pkg/auditlog"
	"github.com/agentstation/idmend/pkg/disposition"
	"github.com/agentstation/idmend/pkg/tables"
)

// Move relabels the current identifier's rows at each relocation visit to
// the target identifier. Target rows already at that visit are evicted
// first and returned as snapshots; moved rows are appended at the end of
// the table. Only tables with identifier and visit columns are touched.
func Move(t *tables.Table, row disposition.Row) ([]auditlog.Entry, []Snapshot) {
	if !t.HasIdentity() || !t.HasVisit() || row.CurrentID == row.RelocateTargetID {
		return nil, nil
	}

	var (
		entries []auditlog.Entry
		snaps   []Snapshot
	)
	for _, visit := range row.RelocateVisits {
		src := t.Match(row.CurrentID, visit)
		if len(src) == 0 {
			continue
		}
		dst := t.Match(row.RelocateTargetID, visit)
		if len(dst) > 0 {
			snaps = append(snaps, Snapshot{
				Table:    t.Name,
				TargetID: row.RelocateTargetID,
				Visit:    visit,
				Columns:  t.Columns(),
				Rows:     cloneRows(t, dst),
			})
		}

		moved := cloneRows(t, src)
		drop := indexSet(src, dst)
		t.Filter(func(i int, _ tables.Row) bool { return !drop[i] })

		base := t.Len()
		// Clones of t's own rows always match its width.
		_ = t.Append(moved...)
		for i := range moved {
			t.SetID(base+i, row.RelocateTargetID)
		}

		entries = append(entries, auditlog.Entry{
			Line:          row.Line,
			Table:         t.Name,
			Op:            auditlog.OpMove,
			ParticipantID: row.CurrentID,
			TargetID:      row.RelocateTargetID,
			Visit:         visit,
			Rows:          len(moved),
			Evicted:       len(dst),
		})
	}
	return entries, snaps
}

func cloneRows(t *tables.Table, idx []int) []tables.Row {
	out := make([]tables.Row, len(idx))
	for i, j := range idx {
		out[i] = t.Row(j).Clone()
	}
	return out
}

func indexSet(lists ...[]int) map[int]bool {
	m := make(map[int]bool)
	for _, l := range lists {
		for _, i := range l {
			m[i] = true
		}
	}
	return m
}
