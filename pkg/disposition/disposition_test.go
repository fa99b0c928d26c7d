package disposition_test

import (
	"errors"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/tealeg/xlsx"

	"github.com/agentstation/idmend/pkg/disposition"
	pkgerrors "github.com/agentstation/idmend/pkg/errors"
)

var legacyHeader = []string{
	"Current ID",
	"Act1: \nDelete complete data?",
	"Act2: \nKeep complete data?",
	"Act3: \nMove data?",
	"Act4: \nMerge data?\n(1: merge v, 2: merge c)",
	"\nAct3: MOVE\ninto which ID",
	"\nAct3: MOVE\ninto which visit",
	"\nAct4: MERGE 0\nKeep data of this ID until..",
	"\nAct4: MERGE 1\nwith which ID",
	"\nAct4: MERGE 1\ndata of other ID from..",
	"ultimate ID",
	"Check",
}

func TestParseLegacyHeaders(t *testing.T) {
	records := [][]string{
		{"P001", "1", "", "", "", "", "", "", "", "", "", "duplicate"},
		{"P002", "", "", "", "1", "", "", "", "P003", "T2", "P999", ""},
		{"", "", "", "", "", "", "", "", "", "", "", ""},
		{"P004", "", "1", "1.0", "", "P005", "T1, ,T2 ", "", "", "", "", ""},
		{"P006", "", "", "", "2", "", "", "Baseline,T1", "P007", "", "", ""},
	}
	rs, err := disposition.Parse("rules.xlsx", legacyHeader, records)
	require.NoError(t, err)
	assert.Equal(t, disposition.VariantMove, rs.Variant)
	require.Len(t, rs.Rows, 4, "blank rows are skipped")

	del := rs.Rows[0]
	assert.Equal(t, 2, del.Line)
	assert.True(t, del.Delete)
	assert.Equal(t, "P001", del.FinalID, "final id defaults to current id")
	assert.Equal(t, "duplicate", del.Check)

	merge := rs.Rows[1]
	assert.Equal(t, disposition.MergeByVisit, merge.Merge)
	assert.Equal(t, "P003", merge.MergeTargetID)
	assert.Equal(t, []string{"T2"}, merge.MergeVisits)
	assert.Equal(t, "P999", merge.FinalID)

	move := rs.Rows[2]
	assert.Equal(t, 5, move.Line)
	assert.True(t, move.Keep)
	assert.True(t, move.Relocate)
	assert.Equal(t, "P005", move.RelocateTargetID)
	assert.Equal(t, []string{"T1", "T2"}, move.RelocateVisits)

	cutover := rs.Rows[3]
	assert.Equal(t, disposition.MergeByCutover, cutover.Merge)
	assert.Equal(t, []string{"Baseline", "T1"}, cutover.CutoverVisits)

	deletes, relocates, merges := rs.Counts()
	assert.Equal(t, 1, deletes)
	assert.Equal(t, 1, relocates)
	assert.Equal(t, 2, merges)

	got, ok := rs.Lookup("P004")
	require.True(t, ok)
	assert.Equal(t, "P005", got.RelocateTargetID)
}

func TestParseExchangeHeaders(t *testing.T) {
	header := []string{"current_id", "Act3: Exchange data?", "Act3: EXCHANGE with which ID", "Act3: EXCHANGE at which visit"}
	rs, err := disposition.Parse("x.csv", header, [][]string{{"P1", "1", "P2", "T1"}})
	require.NoError(t, err)
	assert.Equal(t, disposition.VariantExchange, rs.Variant)
	assert.Equal(t, "P2", rs.Rows[0].RelocateTargetID)
}

func TestParseErrors(t *testing.T) {
	full := []string{"current_id", "delete_flag", "relocate_flag", "relocate_target_id", "relocate_visits",
		"merge_flag", "merge_target_id", "merge_visits"}

	tests := []struct {
		name    string
		header  []string
		records [][]string
		row     int
		field   string
	}{
		{
			name:    "missing current id column",
			header:  []string{"delete_flag"},
			field:   disposition.FieldCurrentID,
		},
		{
			name:   "no action columns",
			header: []string{"current_id", "check"},
		},
		{
			name:   "relocate without target column",
			header: []string{"current_id", "relocate_flag", "relocate_visits"},
			field:  disposition.FieldRelocateTargetID,
		},
		{
			name:    "blank identifier",
			header:  full,
			records: [][]string{{"", "1", "", "", "", "", "", ""}},
			row:     2,
			field:   disposition.FieldCurrentID,
		},
		{
			name:    "duplicate identifier",
			header:  full,
			records: [][]string{{"P1", "1", "", "", "", "", "", ""}, {"P1", "", "", "", "", "", "", ""}},
			row:     3,
			field:   disposition.FieldCurrentID,
		},
		{
			name:    "bad merge marker",
			header:  full,
			records: [][]string{{"P1", "", "", "", "", "3", "P2", ""}},
			row:     2,
			field:   disposition.FieldMerge,
		},
		{
			name:    "merge without target",
			header:  full,
			records: [][]string{{"P1", "", "", "", "", "1", "", "T1"}},
			row:     2,
			field:   disposition.FieldMergeTargetID,
		},
		{
			name:    "relocate without target",
			header:  full,
			records: [][]string{{"P1", "", "1", "", "T1", "", "", ""}},
			row:     2,
			field:   disposition.FieldRelocateTargetID,
		},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := disposition.Parse("rules", tt.header, tt.records)
			require.Error(t, err)
			assert.True(t, pkgerrors.IsConfig(err))
			var ce *pkgerrors.ConfigError
			require.True(t, errors.As(err, &ce))
			assert.Equal(t, tt.row, ce.Row)
			assert.Equal(t, tt.field, ce.Field)
		})
	}

	t.Run("mixed variants", func(t *testing.T) {
		_, err := disposition.Parse("rules", []string{"current_id", "act3_move", "act3_exchange_id"}, nil)
		assert.True(t, pkgerrors.IsConfig(err))
	})

	t.Run("duplicate mapped column", func(t *testing.T) {
		_, err := disposition.Parse("rules", []string{"Current ID", "current_id", "delete_flag"}, nil)
		assert.True(t, pkgerrors.IsConfig(err))
	})
}

func TestSplitVisits(t *testing.T) {
	assert.Equal(t, []string{"A", "B", "C"}, disposition.SplitVisits(" A,B , ,C,"))
	assert.Nil(t, disposition.SplitVisits(""))
	assert.Nil(t, disposition.SplitVisits(" , "))
}

func TestParseFlag(t *testing.T) {
	for _, s := range []string{"1", "1.0", " 1 ", "true", "YES", "x", "11"} {
		assert.True(t, disposition.ParseFlag(s), s)
	}
	for _, s := range []string{"", "0", "nan", "NaN", "no", "false", "2"} {
		assert.False(t, disposition.ParseFlag(s), s)
	}
}

func TestParseMergeMode(t *testing.T) {
	tests := []struct {
		in   string
		mode disposition.MergeMode
		ok   bool
	}{
		{"", disposition.MergeNone, true},
		{"0", disposition.MergeNone, true},
		{"1", disposition.MergeByVisit, true},
		{"1.0", disposition.MergeByVisit, true},
		{"2", disposition.MergeByCutover, true},
		{"yes", disposition.MergeByVisit, true},
		{"3", disposition.MergeNone, false},
		{"maybe", disposition.MergeNone, false},
	}
	for _, tt := range tests {
		mode, ok := disposition.ParseMergeMode(tt.in)
		assert.Equal(t, tt.mode, mode, tt.in)
		assert.Equal(t, tt.ok, ok, tt.in)
	}
}

func TestFallbackVisits(t *testing.T) {
	r := disposition.Row{CutoverVisits: []string{"A", "B"}, AlsoVisits: []string{"B", "C"}}
	assert.Equal(t, []string{"A", "B", "C"}, r.FallbackVisits())
	assert.Equal(t, []string{"A", "B"}, r.CutoverVisits, "inputs are not modified")
}

func TestLoadFileCSV(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "rules.csv")
	content := "\ufeffcurrent_id;delete_flag;merge_flag;merge_target_id;merge_visits;final_id\n" +
		"P001;1;;;;\n" +
		"P002;;1;P003;\"T1,T2\";P999\n"
	require.NoError(t, os.WriteFile(path, []byte(content), 0o644))

	rs, err := disposition.LoadFile(path)
	require.NoError(t, err)
	assert.Equal(t, "rules.csv", rs.Source)
	require.Len(t, rs.Rows, 2)
	assert.True(t, rs.Rows[0].Delete)
	assert.Equal(t, []string{"T1", "T2"}, rs.Rows[1].MergeVisits)
}

func TestLoadFileCommaCSV(t *testing.T) {
	path := filepath.Join(t.TempDir(), "rules.csv")
	require.NoError(t, os.WriteFile(path, []byte("current_id,delete_flag\nP1,1\n"), 0o644))
	rs, err := disposition.LoadFile(path)
	require.NoError(t, err)
	assert.True(t, rs.Rows[0].Delete)
}

func TestLoadFileYAML(t *testing.T) {
	path := filepath.Join(t.TempDir(), "rules.yaml")
	content := `- current_id: P010
  relocate_flag: true
  relocate_target_id: P011
  relocate_visits: [Baseline, T1]
- current_id: P012
  delete_flag: 1
`
	require.NoError(t, os.WriteFile(path, []byte(content), 0o644))

	rs, err := disposition.LoadFile(path)
	require.NoError(t, err)
	require.Len(t, rs.Rows, 2)
	assert.True(t, rs.Rows[0].Relocate)
	assert.Equal(t, []string{"Baseline", "T1"}, rs.Rows[0].RelocateVisits)
	assert.True(t, rs.Rows[1].Delete)
	assert.False(t, rs.Rows[1].Relocate)
}

func TestLoadFileXLSX(t *testing.T) {
	path := filepath.Join(t.TempDir(), "rules.xlsx")
	file := xlsx.NewFile()
	sheet, err := file.AddSheet("Sheet1")
	require.NoError(t, err)
	for _, rec := range [][]string{
		{"Current ID", "Act1: \nDelete complete data?", "ultimate ID"},
		{"P001", "1", ""},
		{"P002", "", "P002"},
	} {
		row := sheet.AddRow()
		for _, v := range rec {
			row.AddCell().Value = v
		}
	}
	require.NoError(t, file.Save(path))

	rs, err := disposition.LoadFile(path)
	require.NoError(t, err)
	require.Len(t, rs.Rows, 2)
	assert.True(t, rs.Rows[0].Delete)
	assert.False(t, rs.Rows[1].Delete)
}

func TestLoadFileErrors(t *testing.T) {
	_, err := disposition.LoadFile("rules.json")
	assert.True(t, pkgerrors.IsConfig(err))

	_, err = disposition.LoadFile(filepath.Join(t.TempDir(), "missing.csv"))
	assert.True(t, pkgerrors.IsIO(err))

	empty := filepath.Join(t.TempDir(), "empty.csv")
	require.NoError(t, os.WriteFile(empty, nil, 0o644))
	_, err = disposition.LoadFile(empty)
	assert.True(t, pkgerrors.IsConfig(err))
}
