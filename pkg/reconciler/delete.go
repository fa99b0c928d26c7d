package reconciler

import (
	"github.com/agentstation/idmend/pkg/auditlog"
	"github.com/agentstation/idmend/pkg/constants"
	"github.com/agentstation/idmend/pkg/disposition"
	"github.com/agentstation/idmend/pkg/tables"
)

// Delete removes every row of the current identifier from t. It logs one
// entry per distinct visit of the removed rows, or a single entry with
// the unknown visit when t has no visit column. Tables without the
// identifier column and identifiers without rows produce no entries.
func Delete(t *tables.Table, row disposition.Row) []auditlog.Entry {
	if !t.HasIdentity() {
		return nil
	}
	matches := t.Match(row.CurrentID, "")
	if len(matches) == 0 {
		return nil
	}

	counts := make(map[string]int)
	var visits []string
	for _, i := range matches {
		v := constants.UnknownVisit
		if t.HasVisit() {
			v = t.Visit(i)
		}
		if _, ok := counts[v]; !ok {
			visits = append(visits, v)
		}
		counts[v]++
	}

	entries := make([]auditlog.Entry, 0, len(visits))
	for _, v := range visits {
		entries = append(entries, auditlog.Entry{
			Line:          row.Line,
			Table:         t.Name,
			Op:            auditlog.OpDelete,
			ParticipantID: row.CurrentID,
			Visit:         v,
			Rows:          counts[v],
		})
	}

	t.Filter(func(i int, _ tables.Row) bool { return t.ID(i) != row.CurrentID })
	return entries
}
