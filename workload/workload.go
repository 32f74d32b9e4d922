// Package workload hammers a list from many goroutines and verifies that the
// result is exactly what the workers left behind.
//
// Worker i of n owns the values k*n+i. It inserts all of them, issuing a read
// every few inserts, then removes a random subset of its own values. Because
// the value sets are disjoint, the final list must equal the sorted union of
// the values each worker kept, whatever the interleaving was.
package workload

import (
	"context"
	"math/rand"
	"sort"
	"time"

	"github.com/lian99/Operating-Systems/concurrentlist"
	"github.com/lian99/Operating-Systems/config"
	"github.com/pkg/errors"
	"go.uber.org/atomic"
	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"
)

// ErrMismatch is returned when the final list differs from the expected union.
var ErrMismatch = errors.New("workload: list contents do not match")

// Result summarizes a run.
type Result struct {
	Inserted int64
	Removed  int64
	Reads    int64
	Length   int
	Elapsed  time.Duration
}

type counters struct {
	inserted atomic.Int64
	removed  atomic.Int64
	reads    atomic.Int64
}

// Run executes the workload described by cfg against l, which should be empty.
func Run(ctx context.Context, cfg config.Stress, l *concurrentlist.List[int], logger *zap.Logger) (*Result, error) {
	if logger == nil {
		logger = zap.NewNop()
	}
	if cfg.Workers <= 0 {
		return nil, errors.Errorf("workload: invalid worker count %d", cfg.Workers)
	}

	var c counters
	kept := make([][]int, cfg.Workers)
	start := time.Now()

	g, gctx := errgroup.WithContext(ctx)
	for i := 0; i < cfg.Workers; i++ {
		id := i
		g.Go(func() error {
			vals, err := worker(gctx, cfg, id, l, &c)
			if err != nil {
				return errors.Wrapf(err, "worker %d", id)
			}
			kept[id] = vals
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		logger.Error("Run: worker failed", zap.Error(err))
		return nil, err
	}

	res := &Result{
		Inserted: c.inserted.Load(),
		Removed:  c.removed.Load(),
		Reads:    c.reads.Load(),
		Elapsed:  time.Since(start),
	}

	var expected []int
	for _, vals := range kept {
		expected = append(expected, vals...)
	}
	sort.Ints(expected)
	got := l.Values()
	res.Length = len(got)

	logger.Info("Run: workers finished",
		zap.Int("workers", cfg.Workers),
		zap.Int64("inserted", res.Inserted),
		zap.Int64("removed", res.Removed),
		zap.Int64("reads", res.Reads),
		zap.Duration("elapsed", res.Elapsed))

	if err := compare(expected, got); err != nil {
		logger.Error("Run: verification failed", zap.Error(err))
		return res, err
	}
	return res, nil
}

func worker(ctx context.Context, cfg config.Stress, id int, l *concurrentlist.List[int], c *counters) ([]int, error) {
	rng := rand.New(rand.NewSource(cfg.Seed + int64(id)))
	values := make([]int, 0, cfg.ValuesPerWorker)

	for k := 0; k < cfg.ValuesPerWorker; k++ {
		if err := ctx.Err(); err != nil {
			return nil, err
		}
		v := k*cfg.Workers + id
		if err := l.Insert(v); err != nil {
			return nil, err
		}
		c.inserted.Inc()
		values = append(values, v)

		if cfg.ReadEvery > 0 && (k+1)%cfg.ReadEvery == 0 {
			read(rng, l, v)
			c.reads.Inc()
		}
	}

	kept := values[:0]
	for _, v := range values {
		if rng.Float64() >= cfg.RemoveRatio {
			kept = append(kept, v)
			continue
		}
		if !l.Remove(v) {
			return nil, errors.Wrapf(ErrMismatch, "value %d vanished before its owner removed it", v)
		}
		c.removed.Inc()
	}
	return kept, nil
}

// read runs one of the read-only traversals.
func read(rng *rand.Rand, l *concurrentlist.List[int], last int) {
	switch rng.Intn(3) {
	case 0:
		l.Contains(last)
	case 1:
		l.Count(func(v int) bool { return v%2 == 0 })
	default:
		l.Values()
	}
}

func compare(expected, got []int) error {
	if len(expected) != len(got) {
		return errors.Wrapf(ErrMismatch, "expected %d values, got %d", len(expected), len(got))
	}
	for i := range expected {
		if expected[i] != got[i] {
			return errors.Wrapf(ErrMismatch, "position %d: expected %d, got %d", i, expected[i], got[i])
		}
	}
	return nil
}
