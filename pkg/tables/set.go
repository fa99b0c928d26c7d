package tables

import "slices"

// Set is the ordered collection of tables for one run.
type Set struct {
	order  []string
	tables map[string]*Table
}

// NewSet creates a set from tables, keeping their order.
func NewSet(tables ...*Table) *Set {
	s := &Set{tables: make(map[string]*Table, len(tables))}
	for _, t := range tables {
		s.Put(t)
	}
	return s
}

// Put adds or replaces a table. Replacing keeps the original position.
func (s *Set) Put(t *Table) {
	if _, ok := s.tables[t.Name]; !ok {
		s.order = append(s.order, t.Name)
	}
	s.tables[t.Name] = t
}

// Get returns a table by name.
func (s *Set) Get(name string) (*Table, bool) {
	t, ok := s.tables[name]
	return t, ok
}

// Remove drops a table from the set.
func (s *Set) Remove(name string) {
	if _, ok := s.tables[name]; !ok {
		return
	}
	delete(s.tables, name)
	s.order = slices.DeleteFunc(s.order, func(n string) bool { return n == name })
}

// Names returns table names in insertion order.
func (s *Set) Names() []string { return slices.Clone(s.order) }

// Tables returns tables in insertion order.
func (s *Set) Tables() []*Table {
	out := make([]*Table, len(s.order))
	for i, n := range s.order {
		out[i] = s.tables[n]
	}
	return out
}

// Len returns the number of tables.
func (s *Set) Len() int { return len(s.order) }

// Clone returns a deep copy of the set.
func (s *Set) Clone() *Set {
	c := &Set{tables: make(map[string]*Table, len(s.tables))}
	for _, t := range s.Tables() {
		c.Put(t.Clone())
	}
	return c
}
