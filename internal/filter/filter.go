package filter

import (
	"iter"
	"strings"

	"github.com/ppiankov/fundus/internal/model"
)

// Filter is a named, pure predicate over a record. Apply returns true to keep the record.
type Filter interface {
	Name() string
	Apply(r model.Record) bool
}

type funcFilter struct {
	name string
	fn   func(model.Record) bool
}

func (f funcFilter) Name() string              { return f.name }
func (f funcFilter) Apply(r model.Record) bool { return f.fn(r) }

// New wraps fn as a named filter
func New(name string, fn func(model.Record) bool) Filter {
	return funcFilter{name: name, fn: fn}
}

// AllOf keeps records accepted by every filter. With no filters it accepts everything.
func AllOf(filters ...Filter) Filter {
	fs := append([]Filter(nil), filters...)
	return funcFilter{
		name: compositeName("all", fs),
		fn: func(r model.Record) bool {
			for _, f := range fs {
				if !f.Apply(r) {
					return false
				}
			}
			return true
		},
	}
}

// AnyOf keeps records accepted by at least one filter. With no filters it rejects everything.
func AnyOf(filters ...Filter) Filter {
	fs := append([]Filter(nil), filters...)
	return funcFilter{
		name: compositeName("any", fs),
		fn: func(r model.Record) bool {
			for _, f := range fs {
				if f.Apply(r) {
					return true
				}
			}
			return false
		},
	}
}

// Negate inverts a filter
func Negate(f Filter) Filter {
	return funcFilter{
		name: "not(" + f.Name() + ")",
		fn:   func(r model.Record) bool { return !f.Apply(r) },
	}
}

// ApplyTo yields, in order, the records of seq accepted by f.
// It holds no state, so the result can be ranged over again whenever seq can.
func ApplyTo(f Filter, seq iter.Seq[model.Record]) iter.Seq[model.Record] {
	return func(yield func(model.Record) bool) {
		for r := range seq {
			if f.Apply(r) && !yield(r) {
				return
			}
		}
	}
}

func compositeName(op string, fs []Filter) string {
	names := make([]string, len(fs))
	for i, f := range fs {
		names[i] = f.Name()
	}
	return op + "(" + strings.Join(names, ",") + ")"
}
