// Package auditlog records every elementary mutation made during
// reconciliation. Entries are append-only and are the artifact reviewers
// use to check merges that could not be decided automatically.
package auditlog

import (
	"encoding/json"
	"slices"
	"strconv"

	"github.com/agentstation/idmend/pkg/tables"
)

// Op is the operation that produced an entry.
type Op string

// Operations, in the order reconciliation runs them.
const (
	OpDelete   Op = "delete"
	OpMove     Op = "move"
	OpExchange Op = "exchange"
	OpMerge    Op = "merge"
)

// Ops lists every operation.
var Ops = []Op{OpDelete, OpMove, OpExchange, OpMerge}

// Action tags which merge sub-case fired.
type Action string

// Merge actions.
const (
	ActionVisitListReplaced Action = "visit list → mid replaced cid"
	ActionVisitListKept     Action = "visit list → kept cid"
	ActionMidOnly           Action = "mid only → moved"
	ActionCidOnly           Action = "cid only → kept"
	ActionMidEmpty          Action = "mid empty → kept cid"
	ActionBothSame          Action = "both same → kept cid"
	ActionConflict          Action = "conflict → manual check needed"
)

// Entry is one logged mutation.
type Entry struct {
	Seq  int `json:"seq" yaml:"seq"`
	Line int `json:"line" yaml:"line"` // disposition sheet line

	Table         string `json:"table" yaml:"table"`
	Op            Op     `json:"op" yaml:"op"`
	ParticipantID string `json:"participant_id" yaml:"participant_id"`
	TargetID      string `json:"target_id,omitempty" yaml:"target_id,omitempty"`
	FinalID       string `json:"final_id,omitempty" yaml:"final_id,omitempty"`
	Visit         string `json:"visit" yaml:"visit"`
	Rows          int    `json:"rows" yaml:"rows"`
	Evicted       int    `json:"evicted,omitempty" yaml:"evicted,omitempty"`
	Action        Action `json:"action,omitempty" yaml:"action,omitempty"`

	// Compared payloads, kept for conflicts.
	CurrentValues []string `json:"current_values,omitempty" yaml:"current_values,omitempty"`
	TargetValues  []string `json:"target_values,omitempty" yaml:"target_values,omitempty"`
}

// Conflict reports whether the entry needs manual review.
func (e Entry) Conflict() bool { return e.Action == ActionConflict }

// Log is an append-only list of entries.
type Log struct {
	entries []Entry
}

// New creates an empty log.
func New() *Log { return &Log{} }

// Append adds entries, assigning sequence numbers.
func (l *Log) Append(entries ...Entry) {
	for _, e := range entries {
		e.Seq = len(l.entries) + 1
		l.entries = append(l.entries, e)
	}
}

// Len returns the number of entries.
func (l *Log) Len() int { return len(l.entries) }

// Entries returns a copy of all entries.
func (l *Log) Entries() []Entry {
	out := make([]Entry, len(l.entries))
	for i, e := range l.entries {
		e.CurrentValues = slices.Clone(e.CurrentValues)
		e.TargetValues = slices.Clone(e.TargetValues)
		out[i] = e
	}
	return out
}

// ByOp returns the entries of one operation.
func (l *Log) ByOp(op Op) []Entry {
	var out []Entry
	for _, e := range l.Entries() {
		if e.Op == op {
			out = append(out, e)
		}
	}
	return out
}

// Conflicts returns the merge entries that need manual review.
func (l *Log) Conflicts() []Entry {
	var out []Entry
	for _, e := range l.Entries() {
		if e.Conflict() {
			out = append(out, e)
		}
	}
	return out
}

// Counts returns the number of entries and affected rows per operation.
func (l *Log) Counts() (entries map[Op]int, rows map[Op]int) {
	entries = make(map[Op]int)
	rows = make(map[Op]int)
	for _, e := range l.entries {
		entries[e.Op]++
		rows[e.Op] += e.Rows
	}
	return entries, rows
}

// Columns returns the log table columns of an operation.
func Columns(op Op) []string {
	switch op {
	case OpDelete:
		return []string{"filename", "deleted_id", "visit_name", "rows_deleted"}
	case OpMove:
		return []string{"filename", "from_id", "to_id", "visit_name", "rows_moved", "rows_evicted"}
	case OpExchange:
		return []string{"filename", "id_a", "id_b", "visit_name", "rows_exchanged"}
	case OpMerge:
		return []string{"filename", "current_id", "merge_id", "final_id", "visit_name", "action", "rows", "current_values", "merge_values"}
	}
	return nil
}

// Table renders the entries of one operation as a log table named after it.
func (l *Log) Table(op Op) *tables.Table {
	t := tables.New(string(op)+"_log", Columns(op))
	for _, e := range l.ByOp(op) {
		var rec []string
		switch op {
		case OpDelete:
			rec = []string{e.Table, e.ParticipantID, e.Visit, strconv.Itoa(e.Rows)}
		case OpMove:
			rec = []string{e.Table, e.ParticipantID, e.TargetID, e.Visit, strconv.Itoa(e.Rows), strconv.Itoa(e.Evicted)}
		case OpExchange:
			rec = []string{e.Table, e.ParticipantID, e.TargetID, e.Visit, strconv.Itoa(e.Rows)}
		case OpMerge:
			rec = []string{e.Table, e.ParticipantID, e.TargetID, e.FinalID, e.Visit, string(e.Action),
				strconv.Itoa(e.Rows), vector(e.CurrentValues), vector(e.TargetValues)}
		}
		row := make(tables.Row, len(rec))
		for i, s := range rec {
			row[i] = tables.Parse(s)
		}
		_ = t.Append(row)
	}
	return t
}

// vector encodes compared values as a JSON array, empty when absent.
func vector(values []string) string {
	if values == nil {
		return ""
	}
	b, err := json.Marshal(values)
	if err != nil {
		return ""
	}
	return string(b)
}
