package scenario

import (
	"fmt"
	"math"

	"github.com/pkg/errors"
)

// A Visitor is used by Accept to process a value that only contains data of
// valid JSON types, as produced by unmarshaling into an "any".
type Visitor[T any] interface {
	Map(map[string]any) (T, error)
	Slice([]any) (T, error)
	Bool(bool) (T, error)
	Float64(float64) (T, error)
	String(string) (T, error)
	Null() (T, error)
}

// Accept calls the visitor method matching the dynamic type of value.
func Accept[T any](value any, visitor Visitor[T]) (T, error) {
	switch val := value.(type) {
	case map[string]any:
		return visitor.Map(val)
	case []any:
		return visitor.Slice(val)
	case float64:
		return visitor.Float64(val)
	case bool:
		return visitor.Bool(val)
	case string:
		return visitor.String(val)
	case nil:
		return visitor.Null()
	default:
		var zero T
		return zero, fmt.Errorf("invalid JSON value: %v", value)
	}
}

// unexpected rejects every JSON type. Visitors embed it and override the
// methods for the types they accept.
type unexpected[T any] struct {
	want string
}

func (u unexpected[T]) fail(got string) (T, error) {
	var zero T
	return zero, errors.Errorf("expected %s, got %s", u.want, got)
}

func (u unexpected[T]) Map(map[string]any) (T, error) { return u.fail("object") }
func (u unexpected[T]) Slice([]any) (T, error)        { return u.fail("array") }
func (u unexpected[T]) Bool(bool) (T, error)          { return u.fail("boolean") }
func (u unexpected[T]) Float64(float64) (T, error)    { return u.fail("number") }
func (u unexpected[T]) String(string) (T, error)      { return u.fail("string") }
func (u unexpected[T]) Null() (T, error)              { return u.fail("null") }

type intVisitor struct{ unexpected[int] }

func (intVisitor) Float64(f float64) (int, error) {
	if f != math.Trunc(f) || f > math.MaxInt32 || f < math.MinInt32 {
		return 0, errors.Errorf("%v is not a 32-bit integer", f)
	}
	return int(f), nil
}

type stringVisitor struct{ unexpected[string] }

func (stringVisitor) String(s string) (string, error) { return s, nil }

type valuesVisitor struct{ unexpected[[]int] }

func (valuesVisitor) Slice(items []any) ([]int, error) {
	values := make([]int, 0, len(items))
	for i, item := range items {
		v, err := Accept[int](item, intVisitor{unexpected[int]{"integer"}})
		if err != nil {
			return nil, errors.Wrapf(err, "values[%d]", i)
		}
		values = append(values, v)
	}
	return values, nil
}

type stepsVisitor struct{ unexpected[[]Step] }

func (stepsVisitor) Slice(items []any) ([]Step, error) {
	steps := make([]Step, 0, len(items))
	for i, item := range items {
		step, err := Accept[Step](item, stepVisitor{unexpected[Step]{"step object"}})
		if err != nil {
			return nil, errors.Wrapf(err, "steps[%d]", i)
		}
		steps = append(steps, step)
	}
	return steps, nil
}

type stepVisitor struct{ unexpected[Step] }

func (stepVisitor) Map(m map[string]any) (Step, error) {
	var step Step
	op, err := Accept[string](m["op"], stringVisitor{unexpected[string]{"string"}})
	if err != nil {
		return step, errors.Wrap(err, "op")
	}
	step.Op = Op(op)

	if raw, ok := m["values"]; ok {
		if step.Values, err = Accept[[]int](raw, valuesVisitor{unexpected[[]int]{"array"}}); err != nil {
			return step, err
		}
	}
	if raw, ok := m["predicate"]; ok {
		if step.Predicate, err = Accept[string](raw, stringVisitor{unexpected[string]{"string"}}); err != nil {
			return step, errors.Wrap(err, "predicate")
		}
	}
	if raw, ok := m["arg"]; ok {
		if step.Arg, err = Accept[int](raw, intVisitor{unexpected[int]{"integer"}}); err != nil {
			return step, errors.Wrap(err, "arg")
		}
	}
	if raw, ok := m["groups"]; ok {
		groups, ok := raw.([]any)
		if !ok {
			return step, errors.New("groups: expected array")
		}
		for i, g := range groups {
			steps, err := Accept[[]Step](g, stepsVisitor{unexpected[[]Step]{"array"}})
			if err != nil {
				return step, errors.Wrapf(err, "groups[%d]", i)
			}
			step.Groups = append(step.Groups, steps)
		}
	}
	return step, nil
}

type scenarioVisitor struct{ unexpected[*Scenario] }

func (scenarioVisitor) Map(m map[string]any) (*Scenario, error) {
	s := &Scenario{}
	var err error
	if raw, ok := m["name"]; ok {
		if s.Name, err = Accept[string](raw, stringVisitor{unexpected[string]{"string"}}); err != nil {
			return nil, errors.Wrap(err, "name")
		}
	}
	if raw, ok := m["max-nodes"]; ok {
		n, err := Accept[int](raw, intVisitor{unexpected[int]{"integer"}})
		if err != nil {
			return nil, errors.Wrap(err, "max-nodes")
		}
		s.MaxNodes = int64(n)
	}
	if s.Steps, err = Accept[[]Step](m["steps"], stepsVisitor{unexpected[[]Step]{"array"}}); err != nil {
		return nil, err
	}
	return s, nil
}
