package reconciler

import (
	"fmt"

	"github.com/agentstation/idmend/pkg/tables"
)

// Snapshot is target data evicted by a move, kept so it can be recovered.
type Snapshot struct {
	Table    string
	TargetID string
	Visit    string
	Columns  []string
	Rows     []tables.Row
}

// Name returns a file-safe name for the snapshot.
func (s Snapshot) Name() string {
	return fmt.Sprintf("%s__%s__%s", s.Table, s.TargetID, s.Visit)
}

// AsTable returns the snapshot as a standalone table.
func (s Snapshot) AsTable() *tables.Table {
	t := tables.New(s.Name(), s.Columns)
	// Rows were cloned from a table with these columns.
	for _, r := range s.Rows {
		_ = t.Append(r.Clone())
	}
	return t
}

type rememberKey struct {
	table, target, visit string
}

// Remembered keeps the first eviction per (table, target, visit).
type Remembered struct {
	order []rememberKey
	snaps map[rememberKey]Snapshot
}

// NewRemembered creates an empty store.
func NewRemembered() *Remembered {
	return &Remembered{snaps: make(map[rememberKey]Snapshot)}
}

// Add stores the snapshot unless one exists for its key. It reports
// whether the snapshot was stored.
func (r *Remembered) Add(s Snapshot) bool {
	k := rememberKey{s.Table, s.TargetID, s.Visit}
	if _, ok := r.snaps[k]; ok {
		return false
	}
	r.order = append(r.order, k)
	r.snaps[k] = s
	return true
}

// Get returns the snapshot for a key.
func (r *Remembered) Get(table, target, visit string) (Snapshot, bool) {
	s, ok := r.snaps[rememberKey{table, target, visit}]
	return s, ok
}

// Len returns the number of snapshots.
func (r *Remembered) Len() int { return len(r.order) }

// Snapshots returns snapshots in the order they were taken.
func (r *Remembered) Snapshots() []Snapshot {
	out := make([]Snapshot, len(r.order))
	for i, k := range r.order {
		out[i] = r.snaps[k]
	}
	return out
}
