package transform

import (
	"iter"

	"github.com/ppiankov/fundus/internal/model"
)

// Transform is a named, pure mapping from one record to another.
// keep=false drops the record on purpose; a non-nil error (usually a
// *model.SchemaViolation) means the record could not be normalized.
type Transform interface {
	Name() string
	Apply(r model.Record) (out model.Record, keep bool, err error)
}

// Func adapts a function to a Transform
type Func func(r model.Record) (model.Record, bool, error)

// Chain is a Transform built from a function; it can be extended with Then
type Chain struct {
	name string
	fn   Func
}

// New wraps fn as a named transform
func New(name string, fn Func) Chain {
	return Chain{name: name, fn: fn}
}

// Map wraps a transform that never drops or fails
func Map(name string, fn func(model.Record) model.Record) Chain {
	return New(name, func(r model.Record) (model.Record, bool, error) {
		return fn(r), true, nil
	})
}

func (c Chain) Name() string { return c.name }

func (c Chain) Apply(r model.Record) (model.Record, bool, error) {
	return c.fn(r)
}

// Then returns a transform applying c and then next, stopping at the first drop or error
func (c Chain) Then(next Transform) Chain {
	return Then(c, next)
}

// Then returns a transform applying first and then second, stopping at the first drop or error
func Then(first, second Transform) Chain {
	return Chain{
		name: first.Name() + "|" + second.Name(),
		fn: func(r model.Record) (model.Record, bool, error) {
			mid, keep, err := first.Apply(r)
			if err != nil || !keep {
				return model.Record{}, false, err
			}
			return second.Apply(mid)
		},
	}
}

// Sequence chains transforms in order. With none it is the identity.
func Sequence(ts ...Transform) Chain {
	out := Map("identity", func(r model.Record) model.Record { return r })
	for i, t := range ts {
		if i == 0 {
			out = New(t.Name(), t.Apply)
			continue
		}
		out = out.Then(t)
	}
	return out
}

// ApplyTo lazily applies t to every record of seq, in order. Dropped records
// are removed; a failing record is yielded together with its error.
func ApplyTo(t Transform, seq iter.Seq[model.Record]) iter.Seq2[model.Record, error] {
	return func(yield func(model.Record, error) bool) {
		for r := range seq {
			out, keep, err := t.Apply(r)
			if err != nil {
				if !yield(r, err) {
					return
				}
				continue
			}
			if keep && !yield(out, nil) {
				return
			}
		}
	}
}
