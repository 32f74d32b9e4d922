// Package predicates provides the named integer predicates that scenarios and
// the HTTP handler pass to List.Count.
package predicates

import (
	"sort"

	"github.com/pkg/errors"
)

// Predicate reports whether a value should be counted.
type Predicate func(int) bool

// ErrUnknown is returned by Lookup for a name it does not know.
var ErrUnknown = errors.New("unknown predicate")

var fixed = map[string]Predicate{
	"all":      func(int) bool { return true },
	"even":     func(v int) bool { return v%2 == 0 },
	"odd":      func(v int) bool { return v%2 != 0 },
	"positive": func(v int) bool { return v > 0 },
	"negative": func(v int) bool { return v < 0 },
	"nonzero":  func(v int) bool { return v != 0 },
}

var withArg = map[string]func(arg int) Predicate{
	"gt": func(arg int) Predicate { return func(v int) bool { return v > arg } },
	"ge": func(arg int) Predicate { return func(v int) bool { return v >= arg } },
	"lt": func(arg int) Predicate { return func(v int) bool { return v < arg } },
	"le": func(arg int) Predicate { return func(v int) bool { return v <= arg } },
	"eq": func(arg int) Predicate { return func(v int) bool { return v == arg } },
}

// Lookup returns the predicate called name. arg is used by the comparison
// predicates (gt, ge, lt, le, eq) and ignored by the rest.
func Lookup(name string, arg int) (Predicate, error) {
	if p, ok := fixed[name]; ok {
		return p, nil
	}
	if mk, ok := withArg[name]; ok {
		return mk(arg), nil
	}
	return nil, errors.Wrapf(ErrUnknown, "%q", name)
}

// TakesArg reports whether the named predicate uses its argument.
func TakesArg(name string) bool {
	_, ok := withArg[name]
	return ok
}

// Names lists every known predicate in sorted order.
func Names() []string {
	names := make([]string, 0, len(fixed)+len(withArg))
	for name := range fixed {
		names = append(names, name)
	}
	for name := range withArg {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}
