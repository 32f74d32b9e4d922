package workload

import (
	"context"
	"testing"

	"github.com/lian99/Operating-Systems/concurrentlist"
	"github.com/lian99/Operating-Systems/config"
	"github.com/lian99/Operating-Systems/locktrace"
	"github.com/pkg/errors"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap/zaptest"
)

func smallStress() config.Stress {
	return config.Stress{
		Workers:         6,
		ValuesPerWorker: 200,
		RemoveRatio:     0.3,
		ReadEvery:       10,
		Seed:            7,
	}
}

func TestRunVerifies(t *testing.T) {
	rec := locktrace.NewRecorder()
	l := concurrentlist.New[int](concurrentlist.WithObserver(rec))
	cfg := smallStress()

	res, err := Run(context.Background(), cfg, l, zaptest.NewLogger(t))
	require.NoError(t, err)
	require.EqualValues(t, cfg.Workers*cfg.ValuesPerWorker, res.Inserted)
	require.EqualValues(t, res.Inserted-res.Removed, res.Length)
	require.EqualValues(t, cfg.Workers*cfg.ValuesPerWorker/cfg.ReadEvery, res.Reads)
	require.NoError(t, rec.Err())
}

func TestRunWithoutRemovals(t *testing.T) {
	l := concurrentlist.New[int]()
	cfg := smallStress()
	cfg.RemoveRatio = 0
	cfg.ReadEvery = 0

	res, err := Run(context.Background(), cfg, l, nil)
	require.NoError(t, err)
	require.Zero(t, res.Removed)
	require.Zero(t, res.Reads)

	values := l.Values()
	require.Len(t, values, cfg.Workers*cfg.ValuesPerWorker)
	for i, v := range values {
		require.Equal(t, i, v)
	}
}

func TestRunDetectsForeignValues(t *testing.T) {
	l := concurrentlist.New[int]()
	require.NoError(t, l.Insert(-1))

	_, err := Run(context.Background(), smallStress(), l, nil)
	require.Equal(t, ErrMismatch, errors.Cause(err))
}

func TestRunListFull(t *testing.T) {
	l := concurrentlist.New[int](concurrentlist.WithMaxNodes(10))
	_, err := Run(context.Background(), smallStress(), l, nil)
	require.Equal(t, concurrentlist.ErrListFull, errors.Cause(err))
}

func TestRunCancelled(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	_, err := Run(ctx, smallStress(), concurrentlist.New[int](), nil)
	require.Equal(t, context.Canceled, errors.Cause(err))
}

func TestRunRejectsWorkers(t *testing.T) {
	cfg := smallStress()
	cfg.Workers = 0
	_, err := Run(context.Background(), cfg, concurrentlist.New[int](), nil)
	require.Error(t, err)
}
