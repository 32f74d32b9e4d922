// Package locktrace records the lock events of a concurrentlist.List and
// checks them against the lock coupling discipline.
//
// A Recorder is installed with concurrentlist.WithObserver. Because the list
// reports an acquisition after the mutex is held and a release before it is
// let go, the Recorder's view of who owns which lock is exact, and the
// following are reported as violations:
//
//   - a lock owned by two operations at once;
//   - an operation acquiring a lock it already holds;
//   - an operation whose first lock is not the entrance lock;
//   - an operation holding more than two locks;
//   - an operation acquiring a lock after it released everything it held,
//     which means it let go of its position before securing the next one;
//   - an operation finishing while still holding locks.
package locktrace

import (
	"fmt"
	"sync"

	"github.com/lian99/Operating-Systems/concurrentlist"
	"github.com/pkg/errors"
)

// MaxHeld is the largest number of locks a single operation may hold.
const MaxHeld = 2

// Violation describes one breach of the locking discipline.
type Violation struct {
	Op     concurrentlist.OpID
	Kind   concurrentlist.OpKind
	Lock   concurrentlist.LockID
	Reason string
}

func (v Violation) String() string {
	return fmt.Sprintf("op %d (%s) lock %d: %s", v.Op, v.Kind, v.Lock, v.Reason)
}

type opState struct {
	kind    concurrentlist.OpKind
	held    []concurrentlist.LockID
	started bool // has acquired at least one lock
	drained bool // released every lock after having held some
}

// Recorder is a concurrentlist.Observer that validates lock events.
type Recorder struct {
	mu         sync.Mutex
	owners     map[concurrentlist.LockID]concurrentlist.OpID
	ops        map[concurrentlist.OpID]*opState
	events     int
	finished   int
	violations []Violation
}

var _ concurrentlist.Observer = (*Recorder)(nil)

// NewRecorder returns an empty Recorder.
func NewRecorder() *Recorder {
	return &Recorder{
		owners: make(map[concurrentlist.LockID]concurrentlist.OpID),
		ops:    make(map[concurrentlist.OpID]*opState),
	}
}

func (r *Recorder) OpStarted(op concurrentlist.OpID, kind concurrentlist.OpKind) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.events++
	r.ops[op] = &opState{kind: kind}
}

func (r *Recorder) LockAcquired(op concurrentlist.OpID, lock concurrentlist.LockID) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.events++
	st := r.state(op)

	if owner, ok := r.owners[lock]; ok {
		if owner == op {
			r.violate(op, st, lock, "lock acquired twice by the same operation")
		} else {
			r.violate(op, st, lock, fmt.Sprintf("lock already held by op %d", owner))
		}
	}
	if !st.started && lock != concurrentlist.EntranceLock {
		r.violate(op, st, lock, "first lock is not the entrance lock")
	}
	if st.drained {
		r.violate(op, st, lock, "lock acquired after all held locks were released")
	}
	if len(st.held) >= MaxHeld {
		r.violate(op, st, lock, fmt.Sprintf("more than %d locks held", MaxHeld))
	}

	st.started = true
	st.held = append(st.held, lock)
	r.owners[lock] = op
}

func (r *Recorder) LockReleasing(op concurrentlist.OpID, lock concurrentlist.LockID) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.events++
	st := r.state(op)

	idx := -1
	for i, held := range st.held {
		if held == lock {
			idx = i
			break
		}
	}
	if idx < 0 {
		r.violate(op, st, lock, "released a lock it does not hold")
		return
	}
	st.held = append(st.held[:idx], st.held[idx+1:]...)
	if owner, ok := r.owners[lock]; ok && owner == op {
		delete(r.owners, lock)
	}
	if len(st.held) == 0 {
		st.drained = true
	}
}

func (r *Recorder) OpFinished(op concurrentlist.OpID, kind concurrentlist.OpKind) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.events++
	r.finished++
	st := r.state(op)
	for _, lock := range st.held {
		r.violate(op, st, lock, "operation finished while holding the lock")
		if owner, ok := r.owners[lock]; ok && owner == op {
			delete(r.owners, lock)
		}
	}
	delete(r.ops, op)
}

// Events returns the number of events recorded so far.
func (r *Recorder) Events() int {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.events
}

// Finished returns the number of operations that have completed.
func (r *Recorder) Finished() int {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.finished
}

// Violations returns a copy of every violation recorded so far.
func (r *Recorder) Violations() []Violation {
	r.mu.Lock()
	defer r.mu.Unlock()
	return append([]Violation(nil), r.violations...)
}

// Err summarizes the recorded violations, or returns nil if there are none.
func (r *Recorder) Err() error {
	vs := r.Violations()
	if len(vs) == 0 {
		return nil
	}
	return errors.Errorf("locktrace: %d violation(s), first: %s", len(vs), vs[0])
}

// state returns the bookkeeping for op, creating it for events that arrive
// without a preceding OpStarted.
func (r *Recorder) state(op concurrentlist.OpID) *opState {
	st, ok := r.ops[op]
	if !ok {
		st = &opState{kind: -1}
		r.ops[op] = st
	}
	return st
}

func (r *Recorder) violate(op concurrentlist.OpID, st *opState, lock concurrentlist.LockID, reason string) {
	r.violations = append(r.violations, Violation{
		Op:     op,
		Kind:   st.kind,
		Lock:   lock,
		Reason: reason,
	})
}
