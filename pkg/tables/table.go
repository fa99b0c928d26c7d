// Package tables holds the in-memory study tables that reconciliation
// operates on. A Set is owned by a single run and mutated in place.
package tables

import (
	"fmt"
	"slices"
	"sort"
	"strings"

	"github.com/agentstation/idmend/pkg/constants"
	"github.com/agentstation/idmend/pkg/errors"
)

// Row is one record, aligned with the owning table's columns.
type Row []Value

// Clone returns a copy of the row.
func (r Row) Clone() Row {
	return slices.Clone(r)
}

// Strings returns the row as text cells.
func (r Row) Strings() []string {
	out := make([]string, len(r))
	for i, v := range r {
		out[i] = v.String()
	}
	return out
}

// Table is a named, ordered collection of rows with a fixed schema.
type Table struct {
	Name string

	columns []string
	index   map[string]int
	rows    []Row
	idCol   int
	visCol  int
}

// New creates an empty table with the given columns.
func New(name string, columns []string) *Table {
	t := &Table{Name: name}
	t.setColumns(slices.Clone(columns))
	return t
}

// FromRecords builds a table from a header and text records.
// Records shorter than the header are padded with missing cells and
// longer ones are rejected.
func FromRecords(name string, header []string, records [][]string) (*Table, error) {
	t := New(name, header)
	for i, rec := range records {
		if len(rec) > len(header) {
			return nil, &errors.ParseError{
				Format:  "table",
				File:    name,
				Line:    i + 2,
				Message: fmt.Sprintf("row has %d fields, header has %d", len(rec), len(header)),
			}
		}
		row := make(Row, len(header))
		for j, cell := range rec {
			row[j] = Parse(cell)
		}
		t.rows = append(t.rows, row)
	}
	return t, nil
}

func (t *Table) setColumns(columns []string) {
	t.columns = columns
	t.index = make(map[string]int, len(columns))
	for i, c := range columns {
		if _, dup := t.index[c]; !dup {
			t.index[c] = i
		}
	}
	t.idCol = t.lookup(constants.ColumnParticipantID)
	t.visCol = t.lookup(constants.ColumnVisit)
}

func (t *Table) lookup(name string) int {
	if i, ok := t.index[name]; ok {
		return i
	}
	return -1
}

// Columns returns a copy of the column names.
func (t *Table) Columns() []string { return slices.Clone(t.columns) }

// ColumnIndex returns the position of a column.
func (t *Table) ColumnIndex(name string) (int, bool) {
	i, ok := t.index[name]
	return i, ok
}

// HasColumn reports whether the table has the named column.
func (t *Table) HasColumn(name string) bool {
	_, ok := t.index[name]
	return ok
}

// HasIdentity reports whether the table has a participant identifier column.
func (t *Table) HasIdentity() bool { return t.idCol >= 0 }

// HasVisit reports whether the table has a visit column.
func (t *Table) HasVisit() bool { return t.visCol >= 0 }

// Len returns the number of rows.
func (t *Table) Len() int { return len(t.rows) }

// Row returns the i-th row. The returned row aliases table storage.
func (t *Table) Row(i int) Row { return t.rows[i] }

// Rows returns the rows. Callers must not retain the slice across mutations.
func (t *Table) Rows() []Row { return t.rows }

// ID returns the participant identifier of the i-th row.
func (t *Table) ID(i int) string {
	if t.idCol < 0 {
		return ""
	}
	return strings.TrimSpace(t.rows[i][t.idCol].String())
}

// Visit returns the visit name of the i-th row.
func (t *Table) Visit(i int) string {
	if t.visCol < 0 {
		return ""
	}
	return strings.TrimSpace(t.rows[i][t.visCol].String())
}

// SetID relabels the i-th row.
func (t *Table) SetID(i int, id string) {
	if t.idCol >= 0 {
		t.rows[i][t.idCol] = TextValue(id)
	}
}

// Append adds rows at the end of the table.
func (t *Table) Append(rows ...Row) error {
	for _, r := range rows {
		if len(r) != len(t.columns) {
			return errors.NewValidationError("row", len(r),
				fmt.Sprintf("table %s expects %d cells", t.Name, len(t.columns)))
		}
		t.rows = append(t.rows, r)
	}
	return nil
}

// Filter keeps the rows for which keep returns true and reports how many
// rows were removed. Row order is preserved.
func (t *Table) Filter(keep func(i int, r Row) bool) int {
	kept := t.rows[:0:0]
	for i, r := range t.rows {
		if keep(i, r) {
			kept = append(kept, r)
		}
	}
	removed := len(t.rows) - len(kept)
	t.rows = kept
	return removed
}

// Match returns the indexes of rows for the identifier, optionally
// restricted to one visit. An empty visit matches every visit.
func (t *Table) Match(id, visit string) []int {
	if t.idCol < 0 {
		return nil
	}
	var out []int
	for i := range t.rows {
		if t.ID(i) != id {
			continue
		}
		if visit != "" && t.Visit(i) != visit {
			continue
		}
		out = append(out, i)
	}
	return out
}

// Visits returns the distinct visits of an identifier in first-appearance
// order, or of every row when id is empty.
func (t *Table) Visits(id string) []string {
	if t.visCol < 0 {
		return nil
	}
	seen := make(map[string]bool)
	var out []string
	for i := range t.rows {
		if id != "" && t.ID(i) != id {
			continue
		}
		v := t.Visit(i)
		if !seen[v] {
			seen[v] = true
			out = append(out, v)
		}
	}
	return out
}

// SortByID stably sorts rows by participant identifier.
func (t *Table) SortByID() {
	if t.idCol < 0 {
		return
	}
	sort.SliceStable(t.rows, func(a, b int) bool {
		return strings.TrimSpace(t.rows[a][t.idCol].String()) < strings.TrimSpace(t.rows[b][t.idCol].String())
	})
}

// InsertColumn adds a column right after another one, or at the end
// when after is empty. values must have one entry per row.
func (t *Table) InsertColumn(after, name string, values []Value) error {
	pos := len(t.columns) - 1
	if after != "" {
		p, ok := t.index[after]
		if !ok {
			return errors.NewNotFoundError("column", after)
		}
		pos = p
	}
	if t.HasColumn(name) {
		return errors.NewValidationError("column", name, "already exists in "+t.Name)
	}
	if len(values) != len(t.rows) {
		return errors.NewValidationError("values", len(values),
			fmt.Sprintf("table %s has %d rows", t.Name, len(t.rows)))
	}
	pos++
	cols := slices.Insert(slices.Clone(t.columns), pos, name)
	for i, r := range t.rows {
		t.rows[i] = slices.Insert(r.Clone(), pos, values[i])
	}
	t.setColumns(cols)
	return nil
}

// RemoveColumn drops a column and reports whether it existed.
func (t *Table) RemoveColumn(name string) bool {
	pos, ok := t.index[name]
	if !ok {
		return false
	}
	cols := slices.Delete(slices.Clone(t.columns), pos, pos+1)
	for i, r := range t.rows {
		t.rows[i] = slices.Delete(r.Clone(), pos, pos+1)
	}
	t.setColumns(cols)
	return true
}

// Records returns the header followed by every row as text.
func (t *Table) Records() [][]string {
	out := make([][]string, 0, len(t.rows)+1)
	out = append(out, t.Columns())
	for _, r := range t.rows {
		out = append(out, r.Strings())
	}
	return out
}

// Clone returns a deep copy.
func (t *Table) Clone() *Table {
	c := New(t.Name, t.columns)
	c.rows = make([]Row, len(t.rows))
	for i, r := range t.rows {
		c.rows[i] = r.Clone()
	}
	return c
}
