// Package request wraps individual network calls with connectivity
// gating, the classify-and-retry policy, and activity tracking for the
// frontend's busy indicator.
package request

import (
	"sync"
	"time"

	"github.com/google/uuid"
)

// Operation describes one in-flight tracked request.
type Operation struct {
	ID          string    `json:"id"`
	Description string    `json:"description"`
	StartedAt   time.Time `json:"started_at"`
}

// Tracker records in-flight operations and notifies subscribers when the
// set changes. Notification is fire-and-forget bookkeeping: listeners are
// called synchronously and the tracker works fine with none registered,
// so it can outlive any UI that subscribed to it.
type Tracker struct {
	mu        sync.Mutex
	ops       map[string]Operation
	nextID    int
	listeners map[int]func(active []Operation)
}

// NewTracker creates an empty tracker.
func NewTracker() *Tracker {
	return &Tracker{
		ops:       make(map[string]Operation),
		listeners: make(map[int]func([]Operation)),
	}
}

// Begin registers a new operation and returns its unique id.
func (t *Tracker) Begin(description string) string {
	id := uuid.NewString()

	t.mu.Lock()
	t.ops[id] = Operation{
		ID:          id,
		Description: description,
		StartedAt:   time.Now(),
	}
	active, fns := t.snapshotLocked()
	t.mu.Unlock()

	notify(fns, active)
	return id
}

// End deregisters the operation. Ending an unknown id is a no-op.
func (t *Tracker) End(id string) {
	t.mu.Lock()
	if _, ok := t.ops[id]; !ok {
		t.mu.Unlock()
		return
	}
	delete(t.ops, id)
	active, fns := t.snapshotLocked()
	t.mu.Unlock()

	notify(fns, active)
}

// Active returns the current in-flight operations.
func (t *Tracker) Active() []Operation {
	t.mu.Lock()
	defer t.mu.Unlock()
	active, _ := t.snapshotLocked()
	return active
}

// Busy reports whether any operation is in flight.
func (t *Tracker) Busy() bool {
	t.mu.Lock()
	defer t.mu.Unlock()
	return len(t.ops) > 0
}

// Subscribe registers fn to be called whenever the active set changes,
// and returns an unsubscribe function.
func (t *Tracker) Subscribe(fn func(active []Operation)) func() {
	t.mu.Lock()
	id := t.nextID
	t.nextID++
	t.listeners[id] = fn
	t.mu.Unlock()

	return func() {
		t.mu.Lock()
		delete(t.listeners, id)
		t.mu.Unlock()
	}
}

// snapshotLocked copies the active set and listener list. Callers must
// hold the lock; notification happens after release so a listener can
// call back into the tracker without deadlocking.
func (t *Tracker) snapshotLocked() ([]Operation, []func([]Operation)) {
	active := make([]Operation, 0, len(t.ops))
	for _, op := range t.ops {
		active = append(active, op)
	}
	fns := make([]func([]Operation), 0, len(t.listeners))
	for _, fn := range t.listeners {
		fns = append(fns, fn)
	}
	return active, fns
}

func notify(fns []func([]Operation), active []Operation) {
	for _, fn := range fns {
		fn(active)
	}
}
