package auditlog_test

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/agentstation/idmend/pkg/auditlog"
)

func sample() *auditlog.Log {
	l := auditlog.New()
	l.Append(
		auditlog.Entry{Table: "forms", Op: auditlog.OpDelete, ParticipantID: "P001", Visit: "Screening", Rows: 1},
		auditlog.Entry{Table: "forms", Op: auditlog.OpMove, ParticipantID: "P002", TargetID: "P003", Visit: "T1", Rows: 2, Evicted: 1},
	)
	l.Append(auditlog.Entry{
		Table: "diary", Op: auditlog.OpMerge, ParticipantID: "P004", TargetID: "P005", FinalID: "P004",
		Visit: "T2", Action: auditlog.ActionConflict,
		CurrentValues: []string{"5", "a"}, TargetValues: []string{"5", "b"},
	})
	return l
}

func TestAppendAssignsSequence(t *testing.T) {
	l := sample()
	require.Equal(t, 3, l.Len())
	for i, e := range l.Entries() {
		assert.Equal(t, i+1, e.Seq)
	}
}

func TestEntriesAreCopies(t *testing.T) {
	l := sample()
	got := l.Entries()
	got[2].CurrentValues[0] = "changed"
	got[0].Rows = 99
	again := l.Entries()
	assert.Equal(t, "5", again[2].CurrentValues[0])
	assert.Equal(t, 1, again[0].Rows)
}

func TestByOpAndConflicts(t *testing.T) {
	l := sample()
	assert.Len(t, l.ByOp(auditlog.OpDelete), 1)
	assert.Len(t, l.ByOp(auditlog.OpExchange), 0)
	conflicts := l.Conflicts()
	require.Len(t, conflicts, 1)
	assert.Equal(t, "P004", conflicts[0].ParticipantID)

	entries, rows := l.Counts()
	assert.Equal(t, 1, entries[auditlog.OpMove])
	assert.Equal(t, 2, rows[auditlog.OpMove])
}

func TestTable(t *testing.T) {
	l := sample()

	del := l.Table(auditlog.OpDelete)
	assert.Equal(t, "delete_log", del.Name)
	assert.Equal(t, [][]string{
		{"filename", "deleted_id", "visit_name", "rows_deleted"},
		{"forms", "P001", "Screening", "1"},
	}, del.Records())

	move := l.Table(auditlog.OpMove)
	assert.Equal(t, []string{"forms", "P002", "P003", "T1", "2", "1"}, move.Records()[1])

	merge := l.Table(auditlog.OpMerge)
	rec := merge.Records()[1]
	assert.Equal(t, "conflict → manual check needed", rec[5])
	assert.Equal(t, `["5","a"]`, rec[7])
	assert.Equal(t, `["5","b"]`, rec[8])

	exchange := l.Table(auditlog.OpExchange)
	assert.Equal(t, 0, exchange.Len())
	assert.Equal(t, auditlog.Columns(auditlog.OpExchange), exchange.Columns())
}
