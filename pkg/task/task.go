// Package task generates request task ids and tracks in-flight requests for
// cancellation and status queries, shared by the batch and streaming APIs.
package task

import (
	"strings"
	"sync"

	"github.com/google/uuid"
)

// NewID returns a 32-character lowercase hex task id (a UUIDv4 with dashes
// stripped), echoed back to callers in both the batch response body and the
// WebSocket header.task_id field.
func NewID() string {
	return strings.ReplaceAll(uuid.NewString(), "-", "")
}

// State is the lifecycle stage of a tracked task.
type State int

const (
	StatePending State = iota
	StateRunning
	StateDone
	StateFailed
	StateCanceled
)

// Entry is one ledger record.
type Entry struct {
	ID     string
	State  State
	Cancel func()
}

// Ledger tracks in-flight tasks by id so a client can query status or
// request cancellation mid-flight.
type Ledger struct {
	mu      sync.Mutex
	entries map[string]*Entry
}

// NewLedger returns an empty Ledger.
func NewLedger() *Ledger {
	return &Ledger{entries: make(map[string]*Entry)}
}

// Start registers a new task id with its cancel function and returns the
// Entry tracking it.
func (l *Ledger) Start(id string, cancel func()) *Entry {
	l.mu.Lock()
	defer l.mu.Unlock()
	e := &Entry{ID: id, State: StatePending, Cancel: cancel}
	l.entries[id] = e
	return e
}

// SetState updates a tracked task's state. It is a no-op for unknown ids.
func (l *Ledger) SetState(id string, state State) {
	l.mu.Lock()
	defer l.mu.Unlock()
	if e, ok := l.entries[id]; ok {
		e.State = state
	}
}

// Get returns the Entry for id, if still tracked.
func (l *Ledger) Get(id string) (*Entry, bool) {
	l.mu.Lock()
	defer l.mu.Unlock()
	e, ok := l.entries[id]
	return e, ok
}

// Cancel invokes the tracked task's cancel function and marks it canceled.
// Returns false if id is not tracked.
func (l *Ledger) Cancel(id string) bool {
	l.mu.Lock()
	e, ok := l.entries[id]
	l.mu.Unlock()
	if !ok {
		return false
	}
	if e.Cancel != nil {
		e.Cancel()
	}
	l.SetState(id, StateCanceled)
	return true
}

// Finish removes a task from the ledger once it has completed, whatever its
// outcome.
func (l *Ledger) Finish(id string) {
	l.mu.Lock()
	defer l.mu.Unlock()
	delete(l.entries, id)
}
