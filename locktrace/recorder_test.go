package locktrace

import (
	"testing"

	"github.com/lian99/Operating-Systems/concurrentlist"
	"github.com/stretchr/testify/require"
)

const entrance = concurrentlist.EntranceLock

func TestHandOverHandIsClean(t *testing.T) {
	r := NewRecorder()
	r.OpStarted(1, concurrentlist.OpPrint)
	r.LockAcquired(1, entrance)
	r.LockAcquired(1, 7)
	r.LockReleasing(1, entrance)
	r.LockAcquired(1, 8)
	r.LockReleasing(1, 7)
	r.LockReleasing(1, 8)
	r.OpFinished(1, concurrentlist.OpPrint)

	require.Empty(t, r.Violations())
	require.NoError(t, r.Err())
	require.Equal(t, 8, r.Events())
	require.Equal(t, 1, r.Finished())
}

func TestReleaseBeforeAcquireIsReported(t *testing.T) {
	r := NewRecorder()
	r.OpStarted(1, concurrentlist.OpInsert)
	r.LockAcquired(1, entrance)
	r.LockAcquired(1, 3)
	r.LockReleasing(1, entrance)
	r.LockReleasing(1, 3)
	r.LockAcquired(1, 4)
	r.LockReleasing(1, 4)
	r.OpFinished(1, concurrentlist.OpInsert)

	vs := r.Violations()
	require.Len(t, vs, 1)
	require.Equal(t, concurrentlist.LockID(4), vs[0].Lock)
	require.Equal(t, concurrentlist.OpInsert, vs[0].Kind)
	require.Error(t, r.Err())
}

func TestSharedOwnershipIsReported(t *testing.T) {
	r := NewRecorder()
	r.OpStarted(1, concurrentlist.OpRemove)
	r.OpStarted(2, concurrentlist.OpRemove)
	r.LockAcquired(1, entrance)
	r.LockAcquired(2, entrance)

	vs := r.Violations()
	require.Len(t, vs, 1)
	require.Equal(t, concurrentlist.OpID(2), vs[0].Op)
	require.Contains(t, vs[0].Reason, "already held by op 1")
}

func TestFirstLockMustBeEntrance(t *testing.T) {
	r := NewRecorder()
	r.OpStarted(5, concurrentlist.OpCount)
	r.LockAcquired(5, 9)
	r.LockReleasing(5, 9)
	r.OpFinished(5, concurrentlist.OpCount)

	vs := r.Violations()
	require.Len(t, vs, 1)
	require.Contains(t, vs[0].Reason, "entrance")
}

func TestTooManyLocksAndLeaks(t *testing.T) {
	r := NewRecorder()
	r.OpStarted(1, concurrentlist.OpQuery)
	r.LockAcquired(1, entrance)
	r.LockAcquired(1, 1)
	r.LockAcquired(1, 2)
	r.OpFinished(1, concurrentlist.OpQuery)

	// one for the third lock, three for the locks still held at the end
	require.Len(t, r.Violations(), 4)
}

func TestRecursiveAndForeignRelease(t *testing.T) {
	r := NewRecorder()
	r.OpStarted(1, concurrentlist.OpValues)
	r.LockAcquired(1, entrance)
	r.LockAcquired(1, entrance)
	r.LockReleasing(1, 42)

	vs := r.Violations()
	require.Len(t, vs, 2)
	require.Contains(t, vs[0].Reason, "twice")
	require.Contains(t, vs[1].Reason, "does not hold")
}

func TestRecorderOnRealList(t *testing.T) {
	r := NewRecorder()
	l := concurrentlist.New[int](concurrentlist.WithObserver(r))
	for _, v := range []int{5, 3, 8, 3, 1, 9} {
		require.NoError(t, l.Insert(v))
	}
	require.True(t, l.Remove(3))
	require.True(t, l.Remove(1))
	require.False(t, l.Remove(4))
	require.Equal(t, []int{3, 5, 8, 9}, l.Values())
	require.Equal(t, 2, l.Count(func(v int) bool { return v > 5 }))
	l.Destroy()

	require.NoError(t, r.Err())
	require.Equal(t, 12, r.Finished())
}
