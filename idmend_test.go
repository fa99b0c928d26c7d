package idmend

import (
	"context"
	"database/sql"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/agentstation/idmend/pkg/auditlog"
	"github.com/agentstation/idmend/pkg/errors"
	"github.com/agentstation/idmend/pkg/reconciler"
)

const forms = "participant_identifier;visit_name;created_at;score\n" +
	"P001;Screening;d1;1\n" +
	"P001;T1;d2;2\n" +
	"P002;T2;d3;22\n" +
	"P003;T2;d4;33\n"

const ruleset = "current_id;delete_flag;merge_flag;merge_target_id;merge_visits;cutover_visits;final_id\n" +
	"P001;1;;;;;\n" +
	"P002;;1;P003;T2;;P999\n"

type fixture struct {
	in, out, sheet string
}

func newFixture(t *testing.T, sheet string, files map[string]string) fixture {
	t.Helper()
	root := t.TempDir()
	f := fixture{
		in:    filepath.Join(root, "in"),
		out:   filepath.Join(root, "out"),
		sheet: filepath.Join(root, "disposition.csv"),
	}
	require.NoError(t, os.MkdirAll(f.in, 0o755))
	require.NoError(t, os.WriteFile(f.sheet, []byte(sheet), 0o644))
	for name, body := range files {
		require.NoError(t, os.WriteFile(filepath.Join(f.in, name), []byte(body), 0o644))
	}
	return f
}

func (f fixture) options(extra ...Option) []Option {
	return append([]Option{
		WithInputDir(f.in),
		WithOutputDir(f.out),
		WithDispositionFile(f.sheet),
	}, extra...)
}

func readOut(t *testing.T, f fixture, name string) string {
	t.Helper()
	data, err := os.ReadFile(filepath.Join(f.out, name))
	require.NoError(t, err)
	return string(data)
}

func TestRun(t *testing.T) {
	f := newFixture(t, ruleset, map[string]string{
		"forms.csv":        forms,
		"sites.csv":        "Site;Name\n1;Berlin\n",
		"participants.csv": "participant_identifier\nP001\n",
		"broken.csv":       "",
	})

	eng, err := New(f.options(WithRequiredVisits("T2"))...)
	require.NoError(t, err)

	var skipped []string
	eng.OnTableSkipped(func(table string, err error) {
		skipped = append(skipped, table)
	})

	summary, err := eng.Run(context.Background())
	require.NoError(t, err)

	assert.NotEmpty(t, summary.RunID)
	assert.Equal(t, "move", summary.Strategy)
	assert.Equal(t, 2, summary.TablesLoaded)
	assert.Equal(t, 1, summary.TablesSkipped)
	assert.Equal(t, 1, summary.PassedThrough)
	assert.Equal(t, 2, summary.Deleted)
	assert.Equal(t, 1, summary.Merged)
	assert.Zero(t, summary.Conflicts)
	assert.Len(t, summary.Errors, 1)
	assert.False(t, summary.Success())
	assert.Equal(t, []string{"broken.csv"}, skipped)

	assert.Equal(t, "participant_identifier;visit_name;created_at;score\nP999;T2;d4;33\n", readOut(t, f, "forms.csv"))
	assert.Equal(t, "Site;Name\n1;Berlin\n", readOut(t, f, "sites.csv"))

	deleteLog := readOut(t, f, "delete_log.csv")
	assert.Contains(t, deleteLog, "forms.csv;P001;Screening;1")
	assert.Contains(t, deleteLog, "forms.csv;P001;T1;1")
	assert.Equal(t, "filename;from_id;to_id;visit_name;rows_moved;rows_evicted\n", readOut(t, f, "move_log.csv"))
	assert.Contains(t, readOut(t, f, "merge_log.csv"), string(auditlog.ActionVisitListReplaced))
	assert.Contains(t, readOut(t, f, "coverage_report.csv"), "P002;P003;T2;0")
	assert.Contains(t, readOut(t, f, "run_summary.yaml"), "run_id: "+summary.RunID)

	_, err = os.Stat(filepath.Join(f.out, "participants.csv"))
	assert.True(t, os.IsNotExist(err), "excluded tables are not copied")
}

func TestRunDryRun(t *testing.T) {
	f := newFixture(t, ruleset, map[string]string{"forms.csv": forms})
	eng, err := New(f.options(WithDryRun(true))...)
	require.NoError(t, err)

	summary, err := eng.Run(context.Background())
	require.NoError(t, err)
	assert.True(t, summary.DryRun)
	assert.Equal(t, 2, summary.Deleted)

	_, err = os.Stat(f.out)
	assert.True(t, os.IsNotExist(err))
}

func TestRunAbortWritesNothing(t *testing.T) {
	sheet := "Current ID;Act3: Exchange data?;Act3: EXCHANGE with which ID;Act3: EXCHANGE at which visit\n" +
		"P001;1;P002;T1\n"
	f := newFixture(t, sheet, map[string]string{
		"forms.csv": "participant_identifier;visit_name;score\nP001;T1;1\nP001;T1;2\nP002;T1;3\n",
	})
	eng, err := New(f.options()...)
	require.NoError(t, err)

	_, err = eng.Run(context.Background())
	require.Error(t, err)
	assert.True(t, errors.IsInconsistent(err))

	_, statErr := os.Stat(f.out)
	assert.True(t, os.IsNotExist(statErr))
}

func TestRunExchangeSkip(t *testing.T) {
	sheet := "Current ID;Act3: Exchange data?;Act3: EXCHANGE with which ID;Act3: EXCHANGE at which visit\n" +
		"P001;1;P002;T1\n"
	f := newFixture(t, sheet, map[string]string{
		"forms.csv": "participant_identifier;visit_name;score\nP001;T1;1\nP001;T1;2\nP002;T1;3\n",
	})
	eng, err := New(f.options(WithInconsistencyPolicy(reconciler.PolicySkip))...)
	require.NoError(t, err)

	summary, err := eng.Run(context.Background())
	require.NoError(t, err)
	assert.Equal(t, "exchange", summary.Strategy)
	assert.Equal(t, 1, summary.SkippedRules)
	assert.Len(t, summary.Errors, 1)
	assert.Equal(t, "filename;id_a;id_b;visit_name;rows_exchanged\n", readOut(t, f, "exchange_log.csv"))
}

func TestRunConflictHook(t *testing.T) {
	sheet := "current_id;merge_flag;merge_target_id;cutover_visits;final_id\n" +
		"C1;2;M1;V5;C1\n"
	f := newFixture(t, sheet, map[string]string{
		"diary.csv": "participant_identifier;visit_name;created_at;diary_date;q1;q2\n" +
			"C1;V5;t;2024-01-01;5;a\n" +
			"M1;V5;t;2024-01-01;5;b\n",
	})
	eng, err := New(f.options(WithDerivedColumns(0))...)
	require.NoError(t, err)

	var conflicts []auditlog.Entry
	eng.OnConflict(func(e auditlog.Entry) { conflicts = append(conflicts, e) })

	summary, err := eng.Run(context.Background())
	require.NoError(t, err)
	assert.Equal(t, 1, summary.Conflicts)
	require.Len(t, conflicts, 1)
	assert.Equal(t, "M1", conflicts[0].TargetID)
	assert.Equal(t, []string{"5", "a"}, conflicts[0].CurrentValues)

	diary := readOut(t, f, "diary.csv")
	assert.Contains(t, diary, "C1;V5")
	assert.Contains(t, diary, "M1;V5")
}

func TestRunRememberedAndSQLite(t *testing.T) {
	sheet := "current_id;relocate_flag;relocate_target_id;relocate_visits\n" +
		"P1;1;P2;T1\n"
	f := newFixture(t, sheet, map[string]string{
		"forms.csv": "participant_identifier;visit_name;score\nP1;T1;1\nP2;T1;2\n",
	})
	dbPath := filepath.Join(f.out, "idmend.db")
	eng, err := New(f.options(WithSQLite(dbPath), WithWorkers(2))...)
	require.NoError(t, err)

	summary, err := eng.Run(context.Background())
	require.NoError(t, err)
	assert.Equal(t, 1, summary.Moved)
	assert.Equal(t, 1, summary.Remembered)
	assert.Empty(t, summary.Errors)

	assert.Equal(t, "participant_identifier;visit_name;score\nP2;T1;2\n",
		readOut(t, f, filepath.Join("remembered", "forms.csv__P2__T1.csv")))

	db, err := sql.Open("sqlite3", dbPath)
	require.NoError(t, err)
	defer func() { _ = db.Close() }()
	var score int
	require.NoError(t, db.QueryRow(`SELECT score FROM forms WHERE participant_identifier = 'P2'`).Scan(&score))
	assert.Equal(t, 1, score)
	var runs int
	require.NoError(t, db.QueryRow(`SELECT COUNT(*) FROM idmend_runs WHERE run_id = ?`, summary.RunID).Scan(&runs))
	assert.Equal(t, 1, runs)
}

func TestAnnotate(t *testing.T) {
	f := newFixture(t, ruleset, map[string]string{
		"forms.csv":               "participant_identifier;visit_name;score\nP001;Screening;1\nP404;ESM T2;2\n",
		"Kind-of-participant.csv": "participant_identifier;Site\nP001;3\n",
	})
	eng, err := New(f.options()...)
	require.NoError(t, err)

	summary, err := eng.Annotate(context.Background())
	require.NoError(t, err)
	require.Len(t, summary.Annotations, 2)
	assert.Equal(t, 1, summary.Annotations[0].Missing())

	out := strings.Split(readOut(t, f, "forms.csv"), "\n")
	assert.Equal(t, "participant_identifier;VisitCode;SiteCode;visit_name;score", out[0])
	assert.Equal(t, "P001;0;3;Screening;1", out[1])
	assert.Equal(t, "P404;2;;ESM T2;2", out[2])
}

func TestRunWithoutSiteReference(t *testing.T) {
	f := newFixture(t, ruleset, map[string]string{"forms.csv": forms})
	eng, err := New(f.options(WithAnnotate(true), WithDryRun(true))...)
	require.NoError(t, err)

	summary, err := eng.Run(context.Background())
	require.NoError(t, err)
	require.Len(t, summary.Warnings, 1)
	assert.Contains(t, summary.Warnings[0], "Kind-of-participant.csv")
}

func TestRunConfigErrors(t *testing.T) {
	eng, err := New()
	require.NoError(t, err)
	_, err = eng.Run(context.Background())
	assert.True(t, errors.IsConfig(err))

	f := newFixture(t, "current_id;keep_flag\nP1;1\n", nil)
	eng, err = New(f.options()...)
	require.NoError(t, err)
	_, err = eng.Run(context.Background())
	assert.True(t, errors.IsConfig(err), "a ruleset without action columns is rejected")

	_, err = New(WithWorkers(0))
	assert.True(t, errors.IsValidationError(err))
	_, err = New(WithStrategy("swap"))
	assert.True(t, errors.IsValidationError(err))
	_, err = New(WithExcludedFiles("[bad"))
	assert.True(t, errors.IsValidationError(err))
}

func TestRunCanceled(t *testing.T) {
	f := newFixture(t, ruleset, map[string]string{"forms.csv": forms})
	eng, err := New(f.options()...)
	require.NoError(t, err)

	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	_, err = eng.Run(ctx)
	assert.True(t, errors.IsCanceled(err))
	_, statErr := os.Stat(f.out)
	assert.True(t, os.IsNotExist(statErr))
}
