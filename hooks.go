package idmend

import (
	"sync"

	"github.com/agentstation/idmend/pkg/auditlog"
)

// Hook function types for run events
type (
	// ConflictHook is called for every merge conflict left for manual review
	ConflictHook func(entry auditlog.Entry)

	// TableSkippedHook is called when a table cannot be read or written
	TableSkippedHook func(table string, err error)
)

// hooks manages event callbacks for a run
type hooks struct {
	mu             sync.RWMutex
	onConflict     []ConflictHook
	onTableSkipped []TableSkippedHook
}

func newHooks() *hooks {
	return &hooks{}
}

// OnConflict registers a callback for merge conflicts
func (h *hooks) OnConflict(fn ConflictHook) {
	h.mu.Lock()
	defer h.mu.Unlock()
	h.onConflict = append(h.onConflict, fn)
}

// OnTableSkipped registers a callback for tables lost to I/O errors
func (h *hooks) OnTableSkipped(fn TableSkippedHook) {
	h.mu.Lock()
	defer h.mu.Unlock()
	h.onTableSkipped = append(h.onTableSkipped, fn)
}

func (h *hooks) triggerConflicts(entries []auditlog.Entry) {
	h.mu.RLock()
	defer h.mu.RUnlock()
	for _, e := range entries {
		for _, hook := range h.onConflict {
			hook(e)
		}
	}
}

func (h *hooks) triggerTableSkipped(table string, err error) {
	h.mu.RLock()
	defer h.mu.RUnlock()
	for _, hook := range h.onTableSkipped {
		hook(table, err)
	}
}
