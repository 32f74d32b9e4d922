// Package concurrentlist implements a sorted singly-linked list that is safe
// for concurrent use. Instead of one coarse lock it uses lock coupling: the
// head pointer is guarded by an entrance mutex, every node guards its own next
// link, and a traversal always locks the next node before it unlocks the
// current one. Operations working on far apart regions of the list therefore
// run in parallel once they have passed the shared prefix.
//
// Locks are always taken in list order (entrance first, then nodes from head
// to tail), which rules out deadlock between any mix of operations.
package concurrentlist

import (
	"cmp"
	"context"
	"fmt"
	"io"
	"strings"
	"sync"

	"github.com/pkg/errors"
	"go.uber.org/atomic"
)

// ErrListFull is returned by Insert when the list already holds the maximum
// number of nodes configured with WithMaxNodes.
var ErrListFull = errors.New("concurrentlist: node capacity exhausted")

// Option configures a List.
type Option func(*options)

type options struct {
	observer Observer
	maxNodes int64
}

// WithObserver reports every lock acquisition and release to obs.
func WithObserver(obs Observer) Option {
	return func(o *options) {
		o.observer = obs
	}
}

// WithMaxNodes bounds the number of nodes the list may hold. Zero or a
// negative value means unbounded.
func WithMaxNodes(n int64) Option {
	return func(o *options) {
		o.maxNodes = n
	}
}

// List is a sorted list of values of type T. The zero value is not usable;
// create lists with New. All methods are safe to call on a nil *List: writes
// become no-ops and reads see an empty list.
type List[T cmp.Ordered] struct {
	entrance sync.Mutex // guards head
	head     *node[T]

	observer Observer
	maxNodes int64

	size    atomic.Int64
	nodeIDs atomic.Uint64
	opIDs   atomic.Uint64
}

// New creates an empty list.
func New[T cmp.Ordered](opts ...Option) *List[T] {
	var o options
	for _, opt := range opts {
		opt(&o)
	}
	return &List[T]{
		observer: o.observer,
		maxNodes: o.maxNodes,
	}
}

// Destroy unlinks every node and leaves the list empty.
//
// Destroy must not run concurrently with any other operation on the same
// list. The caller is responsible for quiescing all users first; nothing in
// the list enforces it.
func (l *List[T]) Destroy() {
	if l == nil {
		return
	}
	op := l.begin(OpDestroy)
	defer l.finish(op, OpDestroy)

	l.lockEntrance(op)
	n := l.head
	l.head = nil
	for n != nil {
		next := n.next
		n.next = nil
		n = next
	}
	l.size.Store(0)
	l.unlockEntrance(op)
}

// Insert adds value at its sorted position. A value equal to existing ones is
// placed after all of them.
func (l *List[T]) Insert(value T) error {
	if l == nil {
		return nil
	}
	if l.maxNodes > 0 {
		if l.size.Inc() > l.maxNodes {
			l.size.Dec()
			return errors.Wrapf(ErrListFull, "insert %v", value)
		}
	} else {
		l.size.Inc()
	}

	op := l.begin(OpInsert)
	defer l.finish(op, OpInsert)

	// The node is ready before any lock is taken.
	added := newNode(LockID(l.nodeIDs.Inc()), value)

	l.lockEntrance(op)
	if l.head == nil || value < l.head.value {
		added.next = l.head
		l.head = added
		l.unlockEntrance(op)
		return nil
	}

	prev := l.head
	l.lockNode(op, prev)
	l.unlockEntrance(op)

	curr := prev.next
	if curr != nil {
		l.lockNode(op, curr)
	}
	for curr != nil && curr.value <= value {
		l.unlockNode(op, prev)
		prev = curr
		curr = prev.next
		if curr != nil {
			l.lockNode(op, curr)
		}
	}

	added.next = curr
	prev.next = added
	if curr != nil {
		l.unlockNode(op, curr)
	}
	l.unlockNode(op, prev)
	return nil
}

// Remove deletes the first node holding value and reports whether one was
// found. Removing a value that is not in the list leaves it unchanged.
func (l *List[T]) Remove(value T) bool {
	if l == nil {
		return false
	}
	op := l.begin(OpRemove)
	defer l.finish(op, OpRemove)

	l.lockEntrance(op)
	head := l.head
	if head == nil {
		l.unlockEntrance(op)
		return false
	}
	if head.value == value {
		// A traverser that got past entrance may still be holding the head
		// and writing head.next, so the victim is locked before unlinking.
		l.lockNode(op, head)
		l.head = head.next
		head.next = nil
		l.unlockNode(op, head)
		l.unlockEntrance(op)
		l.size.Dec()
		return true
	}
	if value < head.value {
		l.unlockEntrance(op)
		return false
	}

	prev := head
	l.lockNode(op, prev)
	l.unlockEntrance(op)

	curr := prev.next
	if curr != nil {
		l.lockNode(op, curr)
	}
	for curr != nil && curr.value < value {
		l.unlockNode(op, prev)
		prev = curr
		curr = prev.next
		if curr != nil {
			l.lockNode(op, curr)
		}
	}

	if curr == nil || curr.value != value {
		if curr != nil {
			l.unlockNode(op, curr)
		}
		l.unlockNode(op, prev)
		return false
	}

	prev.next = curr.next
	curr.next = nil
	l.unlockNode(op, curr)
	l.unlockNode(op, prev)
	l.size.Dec()
	return true
}

// Print writes the values in ascending order separated by single spaces and
// followed by a newline. An empty or nil list produces a bare newline.
//
// The values are collected first and written once every lock is released,
// so a slow writer never stalls other users of the list.
func (l *List[T]) Print(w io.Writer) error {
	var b strings.Builder
	if l != nil {
		op := l.begin(OpPrint)
		l.traverse(op, func(v T) bool {
			if b.Len() > 0 {
				b.WriteByte(' ')
			}
			fmt.Fprint(&b, v)
			return true
		})
		l.finish(op, OpPrint)
	}
	b.WriteByte('\n')
	_, err := io.WriteString(w, b.String())
	return errors.WithStack(err)
}

// Count returns how many values satisfy pred. A nil pred matches every value.
//
// pred runs while a node lock is held and must not call back into l.
func (l *List[T]) Count(pred func(T) bool) int {
	if l == nil {
		return 0
	}
	op := l.begin(OpCount)
	defer l.finish(op, OpCount)

	count := 0
	l.traverse(op, func(v T) bool {
		if pred == nil || pred(v) {
			count++
		}
		return true
	})
	return count
}

// CountMatching counts the values satisfying pred and writes
// "<count> items were counted" to w. A nil list writes nothing.
func (l *List[T]) CountMatching(w io.Writer, pred func(T) bool) (int, error) {
	if l == nil {
		return 0, nil
	}
	count := l.Count(pred)
	_, err := fmt.Fprintf(w, "%d items were counted\n", count)
	return count, errors.WithStack(err)
}

// Contains reports whether value is in the list.
func (l *List[T]) Contains(value T) bool {
	if l == nil {
		return false
	}
	op := l.begin(OpContains)
	defer l.finish(op, OpContains)

	found := false
	l.traverse(op, func(v T) bool {
		if v == value {
			found = true
		}
		return v < value
	})
	return found
}

// Values returns a snapshot of the list in ascending order.
func (l *List[T]) Values() []T {
	if l == nil {
		return nil
	}
	op := l.begin(OpValues)
	defer l.finish(op, OpValues)

	var values []T
	l.traverse(op, func(v T) bool {
		values = append(values, v)
		return true
	})
	return values
}

// Query returns all values between start and end inclusive, in order. It
// stops early with ctx.Err() if ctx is done while walking the list.
func (l *List[T]) Query(ctx context.Context, start, end T) ([]T, error) {
	if l == nil {
		return nil, nil
	}
	op := l.begin(OpQuery)
	defer l.finish(op, OpQuery)

	var results []T
	var err error
	l.traverse(op, func(v T) bool {
		select {
		case <-ctx.Done():
			err = ctx.Err()
			return false
		default:
		}
		if v > end {
			return false
		}
		if v >= start {
			results = append(results, v)
		}
		return true
	})
	if err != nil {
		return nil, err
	}
	return results, nil
}

// Len returns the number of nodes in the list. Under concurrent inserts and
// removes it is only a momentary approximation.
func (l *List[T]) Len() int {
	if l == nil {
		return 0
	}
	return int(l.size.Load())
}

// traverse walks the list hand over hand, calling visit with every value
// while that value's node is locked. It stops after the first visit that
// returns false.
func (l *List[T]) traverse(op OpID, visit func(T) bool) {
	l.lockEntrance(op)
	curr := l.head
	if curr == nil {
		l.unlockEntrance(op)
		return
	}
	l.lockNode(op, curr)
	l.unlockEntrance(op)

	for {
		if !visit(curr.value) {
			l.unlockNode(op, curr)
			return
		}
		next := curr.next
		if next != nil {
			l.lockNode(op, next)
		}
		l.unlockNode(op, curr)
		if next == nil {
			return
		}
		curr = next
	}
}

func (l *List[T]) begin(kind OpKind) OpID {
	op := OpID(l.opIDs.Inc())
	if l.observer != nil {
		l.observer.OpStarted(op, kind)
	}
	return op
}

func (l *List[T]) finish(op OpID, kind OpKind) {
	if l.observer != nil {
		l.observer.OpFinished(op, kind)
	}
}

func (l *List[T]) lockEntrance(op OpID) {
	l.entrance.Lock()
	if l.observer != nil {
		l.observer.LockAcquired(op, EntranceLock)
	}
}

func (l *List[T]) unlockEntrance(op OpID) {
	if l.observer != nil {
		l.observer.LockReleasing(op, EntranceLock)
	}
	l.entrance.Unlock()
}

func (l *List[T]) lockNode(op OpID, n *node[T]) {
	n.mu.Lock()
	if l.observer != nil {
		l.observer.LockAcquired(op, n.id)
	}
}

func (l *List[T]) unlockNode(op OpID, n *node[T]) {
	if l.observer != nil {
		l.observer.LockReleasing(op, n.id)
	}
	n.mu.Unlock()
}
