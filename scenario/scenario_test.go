package scenario

import (
	"bytes"
	"context"
	"os"
	"path/filepath"
	"testing"

	"github.com/lian99/Operating-Systems/concurrentlist"
	"github.com/lian99/Operating-Systems/locktrace"
	"github.com/lian99/Operating-Systems/predicates"
	"github.com/pkg/errors"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap/zaptest"
)

func newValidator(t *testing.T) *SchemaValidator {
	t.Helper()
	sv, err := NewSchemaValidator("", zaptest.NewLogger(t))
	require.NoError(t, err)
	return sv
}

func runFile(t *testing.T, name string) (string, error) {
	t.Helper()
	s, err := Load(filepath.Join("testdata", name), newValidator(t))
	require.NoError(t, err)
	var out bytes.Buffer
	err = s.Run(context.Background(), &out, zaptest.NewLogger(t))
	return out.String(), err
}

func TestRunBasic(t *testing.T) {
	out, err := runFile(t, "basic.json")
	require.NoError(t, err)
	require.Equal(t, "3 3 5 8\n3 5 8\n1 items were counted\n", out)
}

func TestRunEmpty(t *testing.T) {
	out, err := runFile(t, "empty.json")
	require.NoError(t, err)
	require.Equal(t, "\n0 items were counted\n", out)
}

func TestRunParallel(t *testing.T) {
	out, err := runFile(t, "parallel.json")
	require.NoError(t, err)
	require.Equal(t, "0 1 2 3 4 5 6 7 8 9 10 11 12 13 14 15\n4 items were counted\ntrue\nfalse\n", out)
}

func TestRunListFull(t *testing.T) {
	_, err := runFile(t, "full.json")
	require.Error(t, err)
	require.Equal(t, concurrentlist.ErrListFull, errors.Cause(err))
}

func TestRunWithObserver(t *testing.T) {
	s, err := Load(filepath.Join("testdata", "parallel.json"), newValidator(t))
	require.NoError(t, err)

	rec := locktrace.NewRecorder()
	var out bytes.Buffer
	require.NoError(t, s.Run(context.Background(), &out, nil, concurrentlist.WithObserver(rec)))
	require.NoError(t, rec.Err())
	require.NotZero(t, rec.Events())
}

func TestRunCancelled(t *testing.T) {
	s, err := Load(filepath.Join("testdata", "basic.json"), newValidator(t))
	require.NoError(t, err)

	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	var out bytes.Buffer
	err = s.Run(ctx, &out, nil)
	require.Equal(t, context.Canceled, errors.Cause(err))
	require.Empty(t, out.String())
}

func TestParseRejects(t *testing.T) {
	sv := newValidator(t)
	cases := map[string]string{
		"not json":          `{"steps": [`,
		"missing steps":     `{"name": "x"}`,
		"unknown op":        `{"steps": [{"op": "sort"}]}`,
		"insert no values":  `{"steps": [{"op": "insert"}]}`,
		"fractional value":  `{"steps": [{"op": "insert", "values": [1.5]}]}`,
		"count no pred":     `{"steps": [{"op": "count"}]}`,
		"parallel no group": `{"steps": [{"op": "parallel"}]}`,
		"extra field":       `{"steps": [{"op": "print", "colour": "red"}]}`,
		"negative budget":   `{"max-nodes": -1, "steps": []}`,
	}
	for name, doc := range cases {
		_, err := Parse([]byte(doc), sv)
		require.Error(t, err, name)
	}
}

func TestParseUnknownPredicate(t *testing.T) {
	doc := `{"steps": [{"op": "parallel", "groups": [[{"op": "count", "predicate": "prime"}]]}]}`
	_, err := Parse([]byte(doc), newValidator(t))
	require.Error(t, err)
	require.Equal(t, predicates.ErrUnknown, errors.Cause(err))
}

func TestParseDecodesEverything(t *testing.T) {
	doc := `{"name": "n", "max-nodes": 9, "steps": [
		{"op": "count", "predicate": "le", "arg": -4},
		{"op": "parallel", "groups": [[{"op": "print"}], [{"op": "contains", "values": [2]}]]}
	]}`
	s, err := Parse([]byte(doc), newValidator(t))
	require.NoError(t, err)
	require.Equal(t, &Scenario{
		Name:     "n",
		MaxNodes: 9,
		Steps: []Step{
			{Op: OpCount, Predicate: "le", Arg: -4},
			{Op: OpParallel, Groups: [][]Step{
				{{Op: OpPrint}},
				{{Op: OpContains, Values: []int{2}}},
			}},
		},
	}, s)
}

func TestCustomSchemaFile(t *testing.T) {
	path := filepath.Join(t.TempDir(), "strict.json")
	require.NoError(t, os.WriteFile(path, []byte(`{"type": "object", "required": ["name", "steps"]}`), 0o644))
	sv, err := NewSchemaValidator(path, nil)
	require.NoError(t, err)

	_, err = Parse([]byte(`{"steps": []}`), sv)
	require.Error(t, err)
	_, err = Parse([]byte(`{"name": "ok", "steps": []}`), sv)
	require.NoError(t, err)
}

func TestAcceptRejectsTypes(t *testing.T) {
	_, err := Accept[int](true, intVisitor{unexpected[int]{"integer"}})
	require.EqualError(t, err, "expected integer, got boolean")
	_, err = Accept[int](struct{}{}, intVisitor{unexpected[int]{"integer"}})
	require.Error(t, err)
	v, err := Accept[int](float64(-12), intVisitor{unexpected[int]{"integer"}})
	require.NoError(t, err)
	require.Equal(t, -12, v)
}
