package concurrentlist

import (
	"cmp"
	"sync"
)

// node is an individual element of the list. mu guards next only; value is
// never written after the node is published.
type node[T cmp.Ordered] struct {
	mu    sync.Mutex
	id    LockID
	value T
	next  *node[T]
}

func newNode[T cmp.Ordered](id LockID, value T) *node[T] {
	return &node[T]{
		id:    id,
		value: value,
	}
}
