package reconciler

import (
	"fmt"
	"time"

	"github.com/agentstation/idmend/pkg/auditlog"
	"github.com/agentstation/idmend/pkg/tables"
)

// Result represents the outcome of a reconciliation run.
type Result struct {
	// Tables is the mutated table set.
	Tables *tables.Set

	// Log holds every mutation in the order it was applied.
	Log *auditlog.Log

	// Remembered holds target rows evicted by moves.
	Remembered *Remembered

	Metadata ResultMetadata

	// Errors are recoverable problems, such as exchanges skipped under
	// PolicySkip. Warnings are informational.
	Errors   []error
	Warnings []string
}

// ResultMetadata contains metadata about the run.
type ResultMetadata struct {
	StartTime time.Time
	EndTime   time.Time
	Duration  time.Duration

	Strategy RelocationStrategy
	Policy   InconsistencyPolicy
	Workers  int

	Stats ResultStatistics
}

// ResultStatistics contains counts about the run.
type ResultStatistics struct {
	Rules         int
	Tables        int
	PassedThrough int // tables without an identifier column
	RowsDeleted   int
	RowsMoved     int
	RowsEvicted   int
	RowsExchanged int
	MergeEntries  int
	Conflicts     int
	SkippedRules  int
	TotalTimeMs   int64
}

// NewResult creates a new result with defaults.
func NewResult(set *tables.Set) *Result {
	return &Result{
		Tables:     set,
		Log:        auditlog.New(),
		Remembered: NewRemembered(),
		Errors:     []error{},
		Warnings:   []string{},
		Metadata: ResultMetadata{
			StartTime: time.Now(),
		},
	}
}

// IsSuccess returns true if no recoverable errors were recorded.
func (r *Result) IsSuccess() bool {
	return len(r.Errors) == 0
}

// HasConflicts returns true if any merge needs manual review.
func (r *Result) HasConflicts() bool {
	return r.Metadata.Stats.Conflicts > 0
}

// Summary returns a human-readable summary of the result.
func (r *Result) Summary() string {
	s := r.Metadata.Stats
	msg := fmt.Sprintf("Reconciled %d tables with %d rules: %d rows deleted, %d moved, %d exchanged, %d merge entries",
		s.Tables, s.Rules, s.RowsDeleted, s.RowsMoved, s.RowsExchanged, s.MergeEntries)
	if s.Conflicts > 0 {
		msg += fmt.Sprintf(", %d conflicts need manual check", s.Conflicts)
	}
	if len(r.Errors) > 0 {
		msg += fmt.Sprintf(", %d errors", len(r.Errors))
	}
	return msg
}

// Finalize calculates duration and statistics.
func (r *Result) Finalize() {
	r.Metadata.EndTime = time.Now()
	r.Metadata.Duration = r.Metadata.EndTime.Sub(r.Metadata.StartTime)
	r.Metadata.Stats.TotalTimeMs = r.Metadata.Duration.Milliseconds()

	_, rows := r.Log.Counts()
	r.Metadata.Stats.RowsDeleted = rows[auditlog.OpDelete]
	r.Metadata.Stats.RowsMoved = rows[auditlog.OpMove]
	r.Metadata.Stats.RowsExchanged = rows[auditlog.OpExchange]
	r.Metadata.Stats.MergeEntries = len(r.Log.ByOp(auditlog.OpMerge))
	r.Metadata.Stats.Conflicts = len(r.Log.Conflicts())
	evicted := 0
	for _, e := range r.Log.ByOp(auditlog.OpMove) {
		evicted += e.Evicted
	}
	r.Metadata.Stats.RowsEvicted = evicted
}
