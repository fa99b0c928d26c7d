package reconciler

import (
	"github.com/agentstation/idmend/pkg/auditlog"
	"github.com/agentstation/idmend/pkg/constants"
	"github.com/agentstation/idmend/pkg/disposition"
	"github.com/agentstation/idmend/pkg/errors"
	"github.com/agentstation/idmend/pkg/tables"
)

// CheckExchange verifies that the two identifiers have the same number of
// rows at every relocation visit of t.
func CheckExchange(t *tables.Table, row disposition.Row) error {
	if !t.HasIdentity() || !t.HasVisit() {
		return nil
	}
	for _, visit := range row.RelocateVisits {
		a := len(t.Match(row.CurrentID, visit))
		b := len(t.Match(row.RelocateTargetID, visit))
		if a != b {
			return errors.NewConsistencyError(t.Name, visit, row.CurrentID, row.RelocateTargetID, a, b)
		}
	}
	return nil
}

// Exchange swaps payload values between the current and target
// identifier at each relocation visit. The i-th row of one identifier is
// paired with the i-th row of the other in table order. Columns in fixed
// keep their values; the identifier and visit columns are always fixed.
// Nothing is mutated when the row counts differ at any visit.
func Exchange(t *tables.Table, row disposition.Row, fixed ...string) ([]auditlog.Entry, error) {
	if err := CheckExchange(t, row); err != nil {
		return nil, err
	}
	if !t.HasIdentity() || !t.HasVisit() || row.CurrentID == row.RelocateTargetID {
		return nil, nil
	}

	payload := payloadColumns(t, fixed)
	var entries []auditlog.Entry
	for _, visit := range row.RelocateVisits {
		a := t.Match(row.CurrentID, visit)
		b := t.Match(row.RelocateTargetID, visit)
		if len(a) == 0 {
			continue
		}
		for k := range a {
			ra, rb := t.Row(a[k]), t.Row(b[k])
			for _, c := range payload {
				ra[c], rb[c] = rb[c], ra[c]
			}
		}
		entries = append(entries, auditlog.Entry{
			Line:          row.Line,
			Table:         t.Name,
			Op:            auditlog.OpExchange,
			ParticipantID: row.CurrentID,
			TargetID:      row.RelocateTargetID,
			Visit:         visit,
			Rows:          len(a),
		})
	}
	return entries, nil
}

func payloadColumns(t *tables.Table, fixed []string) []int {
	skip := map[string]bool{
		constants.ColumnParticipantID: true,
		constants.ColumnVisit:         true,
	}
	for _, f := range fixed {
		skip[f] = true
	}
	var out []int
	for i, c := range t.Columns() {
		if !skip[c] {
			out = append(out, i)
		}
	}
	return out
}
