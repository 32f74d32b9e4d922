// Package scenario runs scripted sequences of list operations read from JSON
// documents. A document is validated against a JSON schema and decoded with a
// visitor before anything runs.
//
// A scenario looks like:
//
//	{
//	  "name": "basic",
//	  "steps": [
//	    {"op": "insert", "values": [5, 3, 8, 3]},
//	    {"op": "print"},
//	    {"op": "remove", "values": [3]},
//	    {"op": "count", "predicate": "even"},
//	    {"op": "parallel", "groups": [
//	      [{"op": "insert", "values": [1, 2]}],
//	      [{"op": "remove", "values": [8]}]
//	    ]}
//	  ]
//	}
package scenario

import (
	"context"
	"fmt"
	"io"
	"os"
	"sync"

	"github.com/lian99/Operating-Systems/concurrentlist"
	"github.com/lian99/Operating-Systems/predicates"
	"github.com/pkg/errors"
	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"
)

// Op is the kind of a scenario step.
type Op string

const (
	OpInsert   Op = "insert"
	OpRemove   Op = "remove"
	OpPrint    Op = "print"
	OpCount    Op = "count"
	OpContains Op = "contains"
	OpParallel Op = "parallel"
)

// Step is one instruction of a scenario.
type Step struct {
	Op        Op
	Values    []int    // insert, remove, contains
	Predicate string   // count
	Arg       int      // count, for predicates taking an argument
	Groups    [][]Step // parallel; each group runs on its own goroutine
}

// Scenario is a decoded scenario document.
type Scenario struct {
	Name     string
	MaxNodes int64
	Steps    []Step
}

// Parse validates data with sv and decodes it.
func Parse(data []byte, sv *SchemaValidator) (*Scenario, error) {
	doc, err := sv.Validate(data)
	if err != nil {
		return nil, err
	}
	s, err := Accept[*Scenario](doc, scenarioVisitor{unexpected[*Scenario]{"scenario object"}})
	if err != nil {
		return nil, errors.Wrap(err, "decode scenario")
	}
	if err := checkSteps(s.Steps); err != nil {
		return nil, err
	}
	return s, nil
}

// Load reads and parses the scenario file at path.
func Load(path string, sv *SchemaValidator) (*Scenario, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, errors.Wrapf(err, "read scenario %s", path)
	}
	s, err := Parse(data, sv)
	if err != nil {
		return nil, errors.Wrapf(err, "scenario %s", path)
	}
	return s, nil
}

// checkSteps rejects what the schema cannot express, such as an unknown
// predicate name.
func checkSteps(steps []Step) error {
	for i, step := range steps {
		switch step.Op {
		case OpCount:
			if _, err := predicates.Lookup(step.Predicate, step.Arg); err != nil {
				return errors.Wrapf(err, "step %d", i)
			}
		case OpParallel:
			for _, g := range step.Groups {
				if err := checkSteps(g); err != nil {
					return errors.Wrapf(err, "step %d", i)
				}
			}
		}
	}
	return nil
}

// syncWriter serializes writes so that lines emitted by parallel groups are
// never interleaved.
type syncWriter struct {
	mu sync.Mutex
	w  io.Writer
}

func (sw *syncWriter) Write(p []byte) (int, error) {
	sw.mu.Lock()
	defer sw.mu.Unlock()
	return sw.w.Write(p)
}

type runner struct {
	list   *concurrentlist.List[int]
	out    io.Writer
	logger *zap.Logger
}

// Run executes the scenario against a fresh list, writing every print, count
// and contains result to w. opts are applied after the scenario's own node
// budget.
func (s *Scenario) Run(ctx context.Context, w io.Writer, logger *zap.Logger, opts ...concurrentlist.Option) error {
	if logger == nil {
		logger = zap.NewNop()
	}
	opts = append([]concurrentlist.Option{concurrentlist.WithMaxNodes(s.MaxNodes)}, opts...)
	r := &runner{
		list:   concurrentlist.New[int](opts...),
		out:    &syncWriter{w: w},
		logger: logger.With(zap.String("scenario", s.Name)),
	}
	defer r.list.Destroy()

	r.logger.Info("Run: starting", zap.Int("steps", len(s.Steps)))
	if err := r.runSteps(ctx, s.Steps); err != nil {
		r.logger.Error("Run: failed", zap.Error(err))
		return err
	}
	r.logger.Info("Run: finished", zap.Int("length", r.list.Len()))
	return nil
}

func (r *runner) runSteps(ctx context.Context, steps []Step) error {
	for i, step := range steps {
		if err := ctx.Err(); err != nil {
			return errors.WithStack(err)
		}
		if err := r.runStep(ctx, step); err != nil {
			return errors.Wrapf(err, "step %d (%s)", i, step.Op)
		}
	}
	return nil
}

func (r *runner) runStep(ctx context.Context, step Step) error {
	switch step.Op {
	case OpInsert:
		for _, v := range step.Values {
			if err := r.list.Insert(v); err != nil {
				return err
			}
		}
	case OpRemove:
		for _, v := range step.Values {
			if !r.list.Remove(v) {
				r.logger.Debug("runStep: value not present", zap.Int("value", v))
			}
		}
	case OpPrint:
		return r.list.Print(r.out)
	case OpCount:
		pred, err := predicates.Lookup(step.Predicate, step.Arg)
		if err != nil {
			return err
		}
		_, err = r.list.CountMatching(r.out, pred)
		return err
	case OpContains:
		for _, v := range step.Values {
			if _, err := fmt.Fprintf(r.out, "%t\n", r.list.Contains(v)); err != nil {
				return errors.WithStack(err)
			}
		}
	case OpParallel:
		g, gctx := errgroup.WithContext(ctx)
		for _, group := range step.Groups {
			group := group
			g.Go(func() error {
				return r.runSteps(gctx, group)
			})
		}
		return g.Wait()
	default:
		return errors.Errorf("unknown op %q", step.Op)
	}
	return nil
}
