package tables_test

import (
	"testing"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/agentstation/idmend/pkg/errors"
	"github.com/agentstation/idmend/pkg/tables"
)

func TestParse(t *testing.T) {
	tests := []struct {
		raw  string
		kind tables.Kind
		text string
	}{
		{"", tables.Missing, ""},
		{"   ", tables.Missing, ""},
		{"42", tables.Integer, "42"},
		{"-7", tables.Integer, "-7"},
		{"007", tables.Integer, "007"},
		{"3.50", tables.Real, "3.50"},
		{"1e3", tables.Real, "1e3"},
		{"P001", tables.Text, "P001"},
		{"2024-01-05", tables.Text, "2024-01-05"},
		{"NaN", tables.Text, "NaN"},
		{"e", tables.Text, "e"},
	}
	for _, tt := range tests {
		t.Run(tt.raw, func(t *testing.T) {
			v := tables.Parse(tt.raw)
			assert.Equal(t, tt.kind, v.Kind())
			assert.Equal(t, tt.text, v.String())
		})
	}
}

func TestValueAccessors(t *testing.T) {
	i, ok := tables.Parse("12").Int()
	assert.True(t, ok)
	assert.Equal(t, int64(12), i)

	d, ok := tables.Parse("2.25").Decimal()
	require.True(t, ok)
	assert.True(t, d.Equal(decimal.RequireFromString("2.25")))

	_, ok = tables.Parse("abc").Decimal()
	assert.False(t, ok)

	assert.Equal(t, "3", tables.IntValue(3).String())
	assert.Equal(t, "1.5", tables.RealValue(decimal.RequireFromString("1.5")).String())
	assert.True(t, tables.TextValue(" ").IsMissing())
}

func TestValueEqual(t *testing.T) {
	assert.True(t, tables.Parse("").Equal(tables.TextValue("")))
	assert.True(t, tables.Parse("5").Equal(tables.Parse(" 5 ")))
	assert.False(t, tables.Parse("5").Equal(tables.Parse("5.0")))
	assert.False(t, tables.Parse("a").Equal(tables.Parse("b")))
}

func newForms(t *testing.T) *tables.Table {
	t.Helper()
	tbl, err := tables.FromRecords("forms",
		[]string{"participant_identifier", "visit_name", "score"},
		[][]string{
			{"P002", "T1", "4"},
			{"P001", "Screening", "1"},
			{"P001", "T1", "2"},
			{"P003", "T1"},
		})
	require.NoError(t, err)
	return tbl
}

func TestFromRecords(t *testing.T) {
	tbl := newForms(t)
	assert.Equal(t, 4, tbl.Len())
	assert.True(t, tbl.HasIdentity())
	assert.True(t, tbl.HasVisit())
	assert.True(t, tbl.Row(3)[2].IsMissing(), "short rows are padded")

	_, err := tables.FromRecords("bad", []string{"a"}, [][]string{{"1", "2"}})
	var pe *errors.ParseError
	require.ErrorAs(t, err, &pe)
	assert.Equal(t, 2, pe.Line)
}

func TestMatchAndVisits(t *testing.T) {
	tbl := newForms(t)
	assert.Equal(t, []int{1, 2}, tbl.Match("P001", ""))
	assert.Equal(t, []int{2}, tbl.Match("P001", "T1"))
	assert.Empty(t, tbl.Match("P404", ""))
	assert.Equal(t, []string{"Screening", "T1"}, tbl.Visits("P001"))
	assert.Equal(t, []string{"T1", "Screening"}, tbl.Visits(""))
}

func TestFilterAndRelabel(t *testing.T) {
	tbl := newForms(t)
	removed := tbl.Filter(func(i int, _ tables.Row) bool { return tbl.ID(i) != "P001" })
	assert.Equal(t, 2, removed)
	assert.Equal(t, 2, tbl.Len())
	assert.Empty(t, tbl.Match("P001", ""))

	tbl.SetID(0, "P999")
	assert.Equal(t, "P999", tbl.ID(0))
}

func TestSortByIDIsStable(t *testing.T) {
	tbl := newForms(t)
	tbl.SortByID()
	ids := make([]string, tbl.Len())
	for i := range ids {
		ids[i] = tbl.ID(i)
	}
	assert.Equal(t, []string{"P001", "P001", "P002", "P003"}, ids)
	assert.Equal(t, "Screening", tbl.Visit(0))
	assert.Equal(t, "T1", tbl.Visit(1))
}

func TestAppend(t *testing.T) {
	tbl := newForms(t)
	require.NoError(t, tbl.Append(tables.Row{tables.TextValue("P9"), tables.TextValue("T2"), tables.IntValue(1)}))
	assert.Equal(t, 5, tbl.Len())
	err := tbl.Append(tables.Row{tables.TextValue("P9")})
	assert.True(t, errors.IsValidationError(err))
}

func TestInsertColumn(t *testing.T) {
	tbl := newForms(t)
	codes := []tables.Value{tables.IntValue(1), tables.IntValue(0), tables.IntValue(1), tables.IntValue(1)}
	require.NoError(t, tbl.InsertColumn("participant_identifier", "VisitCode", codes))
	assert.Equal(t, []string{"participant_identifier", "VisitCode", "visit_name", "score"}, tbl.Columns())
	assert.Equal(t, "T1", tbl.Visit(0), "visit column index follows the insert")
	assert.Equal(t, "0", tbl.Row(1)[1].String())

	assert.True(t, errors.IsNotFound(tbl.InsertColumn("nope", "x", codes)))
	assert.True(t, errors.IsValidationError(tbl.InsertColumn("score", "VisitCode", codes)))
	assert.True(t, errors.IsValidationError(tbl.InsertColumn("score", "y", codes[:1])))

	require.NoError(t, tbl.InsertColumn("", "note", make([]tables.Value, 4)))
	assert.Equal(t, "note", tbl.Columns()[4])

	assert.True(t, tbl.RemoveColumn("VisitCode"))
	assert.False(t, tbl.RemoveColumn("VisitCode"))
	assert.Equal(t, []string{"participant_identifier", "visit_name", "score", "note"}, tbl.Columns())
	assert.Equal(t, "T1", tbl.Visit(0))
}

func TestTableWithoutIdentity(t *testing.T) {
	tbl := tables.New("sites", []string{"Site", "Name"})
	assert.False(t, tbl.HasIdentity())
	assert.False(t, tbl.HasVisit())
	assert.Nil(t, tbl.Match("P001", ""))
	assert.Nil(t, tbl.Visits(""))
}

func TestCloneIsDeep(t *testing.T) {
	tbl := newForms(t)
	c := tbl.Clone()
	c.SetID(0, "CHANGED")
	assert.Equal(t, "P002", tbl.ID(0))
	assert.Equal(t, tbl.Records()[0], c.Records()[0])
}

func TestSet(t *testing.T) {
	a := tables.New("a", []string{"x"})
	b := tables.New("b", []string{"x"})
	s := tables.NewSet(a, b)
	assert.Equal(t, []string{"a", "b"}, s.Names())

	s.Put(tables.New("a", []string{"y"}))
	assert.Equal(t, []string{"a", "b"}, s.Names(), "replace keeps position")
	got, ok := s.Get("a")
	require.True(t, ok)
	assert.Equal(t, []string{"y"}, got.Columns())

	s.Remove("a")
	assert.Equal(t, 1, s.Len())
	_, ok = s.Get("a")
	assert.False(t, ok)

	c := s.Clone()
	c.Remove("b")
	assert.Equal(t, 1, s.Len())
}
