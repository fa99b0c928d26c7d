package tableio_test

import (
	"bytes"
	"context"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/goccy/go-yaml"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/agentstation/idmend/pkg/errors"
	"github.com/agentstation/idmend/pkg/tableio"
	"github.com/agentstation/idmend/pkg/tables"
)

func writeFiles(t *testing.T, dir string, files map[string]string) {
	t.Helper()
	for name, body := range files {
		require.NoError(t, os.WriteFile(filepath.Join(dir, name), []byte(body), 0o644))
	}
}

func TestRead(t *testing.T) {
	in := "\ufeffparticipant_identifier;visit_name;score\n" +
		"P001;T1;4\n" +
		"P002;T2;5;extra\n" +
		"P003;T1\n"
	tbl, bad, err := tableio.Read(strings.NewReader(in), "forms.csv")
	require.NoError(t, err)
	assert.Equal(t, 1, bad)
	assert.Equal(t, []string{"participant_identifier", "visit_name", "score"}, tbl.Columns())
	assert.Equal(t, 2, tbl.Len())
	assert.True(t, tbl.Row(1)[2].IsMissing())
	assert.Equal(t, tables.Integer, tbl.Row(0)[2].Kind())
}

func TestReadEmpty(t *testing.T) {
	_, _, err := tableio.Read(strings.NewReader(""), "empty.csv")
	var perr *errors.ParseError
	assert.True(t, errors.As(err, &perr))
}

func TestReadDir(t *testing.T) {
	dir := t.TempDir()
	writeFiles(t, dir, map[string]string{
		"b.csv":            "participant_identifier;v\nP1;1\n",
		"a.csv":            "participant_identifier;v\nP2;2\nP3;3;3\n",
		"participants.csv": "participant_identifier\nP1\n",
		"notes.txt":        "ignored",
		"empty.csv":        "",
	})
	require.NoError(t, os.Mkdir(filepath.Join(dir, "sub.csv"), 0o755))

	set, report, err := tableio.ReadDir(context.Background(), dir)
	require.NoError(t, err)
	assert.Equal(t, []string{"a.csv", "b.csv"}, set.Names())
	assert.Equal(t, []string{"a.csv", "b.csv"}, report.Loaded)
	assert.Equal(t, map[string]int{"a.csv": 1}, report.BadLines)
	require.Len(t, report.Errors, 1)
	assert.True(t, errors.IsIO(report.Errors[0]))
	assert.Contains(t, report.Errors[0].Error(), "empty.csv")
}

func TestReadDirOptions(t *testing.T) {
	dir := t.TempDir()
	writeFiles(t, dir, map[string]string{
		"participants.csv": "participant_identifier,Site\nP1,2\n",
	})
	set, _, err := tableio.ReadDir(context.Background(), dir, tableio.WithExcluded(), tableio.WithDelimiter(','))
	require.NoError(t, err)
	tbl, ok := set.Get("participants.csv")
	require.True(t, ok)
	assert.Equal(t, []string{"participant_identifier", "Site"}, tbl.Columns())
}

func TestReadDirExcludedPatterns(t *testing.T) {
	dir := t.TempDir()
	writeFiles(t, dir, map[string]string{
		"forms.csv":         "participant_identifier\nP1\n",
		"study-queries.csv": "participant_identifier\nP1\n",
		"Backup01.csv":      "participant_identifier\nP1\n",
	})
	set, _, err := tableio.ReadDir(context.Background(), dir, tableio.WithExcluded("study-*.csv", "backup\\d+\\.csv"))
	require.NoError(t, err)
	assert.Equal(t, []string{"forms.csv"}, set.Names())

	_, _, err = tableio.ReadDir(context.Background(), dir, tableio.WithExcluded("[bad"))
	assert.True(t, errors.IsValidationError(err))
}

func TestReadDirMissing(t *testing.T) {
	_, _, err := tableio.ReadDir(context.Background(), filepath.Join(t.TempDir(), "nope"))
	assert.True(t, errors.IsIO(err))
}

func TestReadDirCanceled(t *testing.T) {
	dir := t.TempDir()
	writeFiles(t, dir, map[string]string{"a.csv": "x\n1\n"})
	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	_, _, err := tableio.ReadDir(ctx, dir)
	assert.True(t, errors.IsCanceled(err))
}

func TestWriteRoundTrip(t *testing.T) {
	tbl, err := tables.FromRecords("forms.csv",
		[]string{"participant_identifier", "note"},
		[][]string{{"P1", "a;b"}, {"P2", ""}})
	require.NoError(t, err)

	var buf bytes.Buffer
	require.NoError(t, tableio.Write(&buf, tbl))
	assert.Equal(t, "participant_identifier;note\nP1;\"a;b\"\nP2;\n", buf.String())

	back, bad, err := tableio.Read(&buf, "forms.csv")
	require.NoError(t, err)
	assert.Zero(t, bad)
	assert.Equal(t, tbl.Records(), back.Records())
}

func TestWriteDir(t *testing.T) {
	dir := filepath.Join(t.TempDir(), "out")
	set := tables.NewSet(
		tables.New("forms.csv", []string{"participant_identifier"}),
		tables.New("forms.csv__P2__T1 (2/3)", []string{"participant_identifier"}),
	)
	report, err := tableio.WriteDir(context.Background(), dir, set)
	require.NoError(t, err)
	assert.Equal(t, []string{"forms.csv", "forms.csv__P2__T1 (2_3).csv"}, report.Written)
	assert.Empty(t, report.Errors)

	data, err := os.ReadFile(filepath.Join(dir, "forms.csv"))
	require.NoError(t, err)
	assert.Equal(t, "participant_identifier\n", string(data))
}

func TestWriteYAML(t *testing.T) {
	path := filepath.Join(t.TempDir(), "nested", "summary.yaml")
	require.NoError(t, tableio.WriteYAML(path, map[string]int{"deleted": 2}))

	data, err := os.ReadFile(path)
	require.NoError(t, err)
	var got map[string]int
	require.NoError(t, yaml.Unmarshal(data, &got))
	assert.Equal(t, map[string]int{"deleted": 2}, got)
}
