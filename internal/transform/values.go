package transform

import (
	"fmt"
	"slices"
	"strings"

	"github.com/ppiankov/fundus/internal/model"
)

// Remap drops and renames string values of field. A scalar listed in drop
// removes the field; sequences lose dropped items, and remapped items that
// collapse onto the same value are kept once, in first-seen order.
func Remap(field string, drop []string, remap map[string]string) Chain {
	dropped := make(map[string]struct{}, len(drop))
	for _, d := range drop {
		dropped[d] = struct{}{}
	}
	table := make(map[string]string, len(remap))
	for k, v := range remap {
		table[k] = v
	}

	fix := func(v model.Value) model.Value {
		s, ok := v.Str()
		if !ok {
			return v
		}
		if _, drop := dropped[s]; drop {
			return model.Missing
		}
		if to, found := table[s]; found {
			return model.String(to)
		}
		return v
	}

	return Map("remap("+field+")", func(r model.Record) model.Record {
		v := r.Get(field)
		switch v.Kind() {
		case model.KindMissing:
			return r
		case model.KindSequence:
			var out []model.Value
			for _, item := range v.Items() {
				fixed := fix(item)
				if fixed.IsMissing() {
					continue
				}
				if slices.ContainsFunc(out, fixed.Equal) {
					continue
				}
				out = append(out, fixed)
			}
			return r.With(field, model.Seq(out...))
		default:
			return r.With(field, fix(v))
		}
	})
}

// Require drops records lacking any of the fields
func Require(fields ...string) Chain {
	fs := slices.Clone(fields)
	return New("require("+strings.Join(fs, ",")+")", func(r model.Record) (model.Record, bool, error) {
		for _, f := range fs {
			if !r.Has(f) {
				return model.Record{}, false, nil
			}
		}
		return r, true, nil
	})
}

// Expect fails with a schema violation when a present field is not of kind.
// model.KindScalar accepts any scalar.
func Expect(field string, kind model.Kind) Chain {
	return New(fmt.Sprintf("expect(%s:%s)", field, kind), func(r model.Record) (model.Record, bool, error) {
		v := r.Get(field)
		if v.IsMissing() {
			return r, true, nil
		}
		if v.Kind() == kind || (kind == model.KindScalar && v.Kind().IsScalar()) {
			return r, true, nil
		}
		return model.Record{}, false, &model.SchemaViolation{Field: field, Expected: kind, Got: v.Kind()}
	})
}

// First replaces a sequence with its first item; an empty sequence removes the field
func First(field string) Chain {
	return Map("first("+field+")", func(r model.Record) model.Record {
		v := r.Get(field)
		if v.Kind() != model.KindSequence {
			return r
		}
		items := v.Items()
		if len(items) == 0 {
			return r.Without(field)
		}
		return r.With(field, items[0])
	})
}

// Concat joins the text of fields into target, skipping absent and empty parts.
// Sequence items are joined with ", ".
func Concat(target, sep string, fields ...string) Chain {
	fs := slices.Clone(fields)
	return Map("concat("+target+")", func(r model.Record) model.Record {
		parts := make([]string, 0, len(fs))
		for _, f := range fs {
			if text := textOf(r.Get(f)); text != "" {
				parts = append(parts, text)
			}
		}
		return r.With(target, model.String(strings.Join(parts, sep)))
	})
}

// Lowercase lowercases string values of field
func Lowercase(field string) Chain {
	return Map("lowercase("+field+")", func(r model.Record) model.Record {
		v := r.Get(field)
		switch v.Kind() {
		case model.KindString:
			s, _ := v.Str()
			return r.With(field, model.String(strings.ToLower(s)))
		case model.KindSequence:
			items := v.Items()
			for i, item := range items {
				if s, ok := item.Str(); ok {
					items[i] = model.String(strings.ToLower(s))
				}
			}
			return r.With(field, model.Seq(items...))
		default:
			return r
		}
	})
}

func textOf(v model.Value) string {
	if v.Kind() != model.KindSequence {
		return v.Text()
	}
	items := v.Items()
	texts := make([]string, 0, len(items))
	for _, item := range items {
		if t := item.Text(); t != "" {
			texts = append(texts, t)
		}
	}
	return strings.Join(texts, ", ")
}
