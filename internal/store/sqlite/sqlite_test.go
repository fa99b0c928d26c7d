package sqlite_test

import (
	"context"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/agentstation/idmend/internal/store/sqlite"
	"github.com/agentstation/idmend/pkg/tables"
)

func openStore(t *testing.T) *sqlite.Store {
	t.Helper()
	s, err := sqlite.Open(context.Background(), filepath.Join(t.TempDir(), "db", "idmend.db"))
	require.NoError(t, err)
	t.Cleanup(func() { _ = s.Close() })
	return s
}

func TestExportTable(t *testing.T) {
	s := openStore(t)
	tbl, err := tables.FromRecords("forms.csv",
		[]string{"participant_identifier", "score", "weight", "note", "note"},
		[][]string{
			{"P001", "4", "1.5", "a", "x"},
			{"P002", "", "2", "", "y"},
		})
	require.NoError(t, err)

	ctx := context.Background()
	require.NoError(t, s.ExportTable(ctx, tbl))
	// Exporting again replaces the table.
	require.NoError(t, s.ExportTable(ctx, tbl))

	var count int
	require.NoError(t, s.DB().QueryRow(`SELECT COUNT(*) FROM "forms"`).Scan(&count))
	assert.Equal(t, 2, count)

	var scoreType, weightType, note2 string
	require.NoError(t, s.DB().QueryRow(
		`SELECT typeof(score), typeof(weight), note_2 FROM "forms" WHERE participant_identifier = 'P001'`,
	).Scan(&scoreType, &weightType, &note2))
	assert.Equal(t, "integer", scoreType)
	assert.Equal(t, "real", weightType)
	assert.Equal(t, "x", note2)

	var missing any
	require.NoError(t, s.DB().QueryRow(`SELECT score FROM "forms" WHERE participant_identifier = 'P002'`).Scan(&missing))
	assert.Nil(t, missing)
}

func TestExportKeepsIdentifierText(t *testing.T) {
	s := openStore(t)
	tbl, err := tables.FromRecords("forms.csv",
		[]string{"participant_identifier", "visit_name", "score"},
		[][]string{
			{"007", "1", "4"},
			{"012", "2", "5"},
		})
	require.NoError(t, err)
	require.NoError(t, s.ExportTable(context.Background(), tbl))

	var id, idType, visitType, scoreType string
	require.NoError(t, s.DB().QueryRow(
		`SELECT participant_identifier, typeof(participant_identifier), typeof(visit_name), typeof(score) FROM "forms" WHERE score = 4`,
	).Scan(&id, &idType, &visitType, &scoreType))
	assert.Equal(t, "007", id)
	assert.Equal(t, "text", idType)
	assert.Equal(t, "text", visitType)
	assert.Equal(t, "integer", scoreType)
}

func TestExportAndRecordRun(t *testing.T) {
	s := openStore(t)
	ctx := context.Background()
	set := tables.NewSet(
		tables.New("delete_log", []string{"filename", "deleted_id"}),
		tables.New("sites.csv", []string{"Site"}),
	)
	require.NoError(t, s.Export(ctx, set))
	require.NoError(t, s.RecordRun(ctx, sqlite.Run{
		ID: "run-1", StartedAt: time.Date(2025, 1, 2, 3, 4, 5, 0, time.UTC), Strategy: "move", Tables: 2,
	}))

	var name string
	require.NoError(t, s.DB().QueryRow(`SELECT name FROM sqlite_master WHERE name = 'sites'`).Scan(&name))
	assert.Equal(t, "sites", name)

	var started string
	require.NoError(t, s.DB().QueryRow(`SELECT started_at FROM idmend_runs WHERE run_id = 'run-1'`).Scan(&started))
	assert.Equal(t, "2025-01-02T03:04:05Z", started)
}

func TestExportCanceled(t *testing.T) {
	s := openStore(t)
	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	err := s.Export(ctx, tables.NewSet(tables.New("a", []string{"x"})))
	assert.Error(t, err)
}

func TestTableName(t *testing.T) {
	assert.Equal(t, "forms", sqlite.TableName("forms.csv"))
	assert.Equal(t, "merge_log", sqlite.TableName("merge_log"))
}
