// Package ais implements the Event Queue & Applier and the
// Reconciliation Loop: the Engine struct, plus the HTTP
// transport that feeds it. The package name mirrors the corresponding
// top-level "ais" package, which hosts its equivalent core orchestration
// (target/proxy lifecycle, rebalance wiring).
package ais

import (
	"sync"

	"github.com/hdfgroup/hsds-an/cmn"
)

// Action is the notification kind carried by a queued Event.
type Action int

const (
	ActionPut Action = iota
	ActionDelete
)

func (a Action) String() string {
	if a == ActionDelete {
		return "DELETE"
	}
	return "PUT"
}

// Event is one queued notification: an object id and the action applied
// to it.
type Event struct {
	ObjID  cmn.ObjID
	Action Action
}

// Queue is the unbounded FIFO. Enqueue (from HTTP handlers) and
// Drain (from the reconciliation loop) are both non-suspending, satisfying
// the cross-task safety requirement without further synchronization
// beyond the mutex.
type Queue struct {
	mu    sync.Mutex
	items []Event
}

// NewQueue returns an empty Queue.
func NewQueue() *Queue {
	return &Queue{}
}

// Enqueue appends one event to the tail of the queue.
func (q *Queue) Enqueue(objid cmn.ObjID, action Action) {
	q.mu.Lock()
	q.items = append(q.items, Event{ObjID: objid, Action: action})
	q.mu.Unlock()
}

// Len reports the current queue depth (pending_count in the stats
// payload).
func (q *Queue) Len() int {
	q.mu.Lock()
	defer q.mu.Unlock()
	return len(q.items)
}

// Drain atomically removes and returns every queued event, in arrival
// order. The caller applies them in this same
// order with no reordering across PUT/DELETE for the same objid.
func (q *Queue) Drain() []Event {
	q.mu.Lock()
	defer q.mu.Unlock()
	if len(q.items) == 0 {
		return nil
	}
	items := q.items
	q.items = nil
	return items
}
