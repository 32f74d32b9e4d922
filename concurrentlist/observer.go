package concurrentlist

// OpID identifies one call into a List. It is only meaningful to observers.
type OpID uint64

// LockID identifies a mutex inside a List. The entrance lock is always
// EntranceLock; node locks are numbered from 1 in creation order.
type LockID uint64

// EntranceLock is the id of the mutex guarding the head pointer.
const EntranceLock LockID = 0

// OpKind names the list operation an OpID belongs to.
type OpKind int

const (
	OpInsert OpKind = iota
	OpRemove
	OpPrint
	OpCount
	OpContains
	OpQuery
	OpValues
	OpDestroy
)

var opKindNames = [...]string{
	OpInsert:   "insert",
	OpRemove:   "remove",
	OpPrint:    "print",
	OpCount:    "count",
	OpContains: "contains",
	OpQuery:    "query",
	OpValues:   "values",
	OpDestroy:  "destroy",
}

func (k OpKind) String() string {
	if k < 0 || int(k) >= len(opKindNames) {
		return "unknown"
	}
	return opKindNames[k]
}

// Observer receives lock events from a List. LockAcquired is called after the
// mutex is held and LockReleasing before it is released, so an observer sees
// every lock as owned by exactly one operation at a time. Calls for one OpID
// come from a single goroutine; calls for different OpIDs may be concurrent.
type Observer interface {
	OpStarted(op OpID, kind OpKind)
	LockAcquired(op OpID, lock LockID)
	LockReleasing(op OpID, lock LockID)
	OpFinished(op OpID, kind OpKind)
}

type multiObserver []Observer

// Observers fans events out to every non-nil observer, in order.
func Observers(obs ...Observer) Observer {
	var m multiObserver
	for _, o := range obs {
		if o != nil {
			m = append(m, o)
		}
	}
	switch len(m) {
	case 0:
		return nil
	case 1:
		return m[0]
	}
	return m
}

func (m multiObserver) OpStarted(op OpID, kind OpKind) {
	for _, o := range m {
		o.OpStarted(op, kind)
	}
}

func (m multiObserver) LockAcquired(op OpID, lock LockID) {
	for _, o := range m {
		o.LockAcquired(op, lock)
	}
}

func (m multiObserver) LockReleasing(op OpID, lock LockID) {
	for _, o := range m {
		o.LockReleasing(op, lock)
	}
}

func (m multiObserver) OpFinished(op OpID, kind OpKind) {
	for _, o := range m {
		o.OpFinished(op, kind)
	}
}
