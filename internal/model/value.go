package model

import (
	"encoding/json"
	"fmt"
	"strconv"
	"strings"
)

// Kind classifies a field value
type Kind uint8

const (
	KindMissing  Kind = iota // Field is absent
	KindString               // Scalar string
	KindNumber               // Scalar number (stored as float64)
	KindBool                 // Scalar boolean
	KindSequence             // Ordered sequence of scalars
	KindScalar               // Schema-only: any of string, number, bool
)

func (k Kind) String() string {
	switch k {
	case KindMissing:
		return "missing"
	case KindString:
		return "string"
	case KindNumber:
		return "number"
	case KindBool:
		return "bool"
	case KindSequence:
		return "sequence"
	case KindScalar:
		return "scalar"
	default:
		return "unknown"
	}
}

// ParseKind parses a schema kind name. The empty string and "any" leave a field unconstrained.
func ParseKind(s string) (Kind, error) {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "", "any":
		return KindMissing, nil
	case "string":
		return KindString, nil
	case "number":
		return KindNumber, nil
	case "bool":
		return KindBool, nil
	case "sequence", "list":
		return KindSequence, nil
	case "scalar":
		return KindScalar, nil
	default:
		return KindMissing, fmt.Errorf("unknown field kind %q", s)
	}
}

// IsScalar reports whether k is one of the concrete scalar kinds
func (k Kind) IsScalar() bool {
	return k == KindString || k == KindNumber || k == KindBool
}

// Value is an immutable field value. The zero Value is Missing.
type Value struct {
	kind Kind
	str  string
	num  float64
	b    bool
	seq  []Value
}

// Missing is the sentinel returned for absent fields
var Missing = Value{}

// String returns a string scalar
func String(s string) Value { return Value{kind: KindString, str: s} }

// Number returns a numeric scalar
func Number(n float64) Value { return Value{kind: KindNumber, num: n} }

// Bool returns a boolean scalar
func Bool(b bool) Value { return Value{kind: KindBool, b: b} }

// Seq returns a sequence. Missing items are skipped; nested sequences are flattened.
func Seq(items ...Value) Value {
	out := make([]Value, 0, len(items))
	for _, it := range items {
		switch it.kind {
		case KindMissing:
			continue
		case KindSequence:
			out = append(out, it.seq...)
		default:
			out = append(out, it)
		}
	}
	return Value{kind: KindSequence, seq: out}
}

// Strings returns a sequence of string scalars
func Strings(items ...string) Value {
	vals := make([]Value, len(items))
	for i, s := range items {
		vals[i] = String(s)
	}
	return Value{kind: KindSequence, seq: vals}
}

// Kind returns the kind of the value
func (v Value) Kind() Kind { return v.kind }

// IsMissing reports whether the value is the Missing sentinel
func (v Value) IsMissing() bool { return v.kind == KindMissing }

// Str returns the string and whether the value is a string scalar
func (v Value) Str() (string, bool) { return v.str, v.kind == KindString }

// Num returns the number and whether the value is a numeric scalar
func (v Value) Num() (float64, bool) { return v.num, v.kind == KindNumber }

// Truth returns the boolean and whether the value is a boolean scalar
func (v Value) Truth() (bool, bool) { return v.b, v.kind == KindBool }

// Items returns a copy of the sequence items. Scalars yield a one-element slice,
// Missing yields nil.
func (v Value) Items() []Value {
	switch v.kind {
	case KindMissing:
		return nil
	case KindSequence:
		out := make([]Value, len(v.seq))
		copy(out, v.seq)
		return out
	default:
		return []Value{v}
	}
}

// Len returns the length of a string or sequence value, 0 otherwise
func (v Value) Len() int {
	switch v.kind {
	case KindString:
		return len([]rune(v.str))
	case KindSequence:
		return len(v.seq)
	default:
		return 0
	}
}

// Empty reports whether the value carries no content: Missing, "", or an empty sequence
func (v Value) Empty() bool {
	switch v.kind {
	case KindMissing:
		return true
	case KindString:
		return v.str == ""
	case KindSequence:
		return len(v.seq) == 0
	default:
		return false
	}
}

// Text renders a scalar as text. Sequences and Missing render as "".
func (v Value) Text() string {
	switch v.kind {
	case KindString:
		return v.str
	case KindNumber:
		return strconv.FormatFloat(v.num, 'f', -1, 64)
	case KindBool:
		return strconv.FormatBool(v.b)
	default:
		return ""
	}
}

// Equal reports deep equality
func (v Value) Equal(o Value) bool {
	if v.kind != o.kind {
		return false
	}
	switch v.kind {
	case KindString:
		return v.str == o.str
	case KindNumber:
		return v.num == o.num
	case KindBool:
		return v.b == o.b
	case KindSequence:
		if len(v.seq) != len(o.seq) {
			return false
		}
		for i := range v.seq {
			if !v.seq[i].Equal(o.seq[i]) {
				return false
			}
		}
	}
	return true
}

// Native converts the value into plain Go types (string, float64, bool, []any, nil)
func (v Value) Native() any {
	switch v.kind {
	case KindString:
		return v.str
	case KindNumber:
		return v.num
	case KindBool:
		return v.b
	case KindSequence:
		out := make([]any, len(v.seq))
		for i, it := range v.seq {
			out[i] = it.Native()
		}
		return out
	default:
		return nil
	}
}

func (v Value) String() string {
	switch v.kind {
	case KindMissing:
		return "<missing>"
	case KindString:
		return strconv.Quote(v.str)
	case KindSequence:
		return fmt.Sprint(v.Native())
	default:
		return v.Text()
	}
}

// MarshalJSON encodes the value as its native JSON form
func (v Value) MarshalJSON() ([]byte, error) {
	return json.Marshal(v.Native())
}

// ValueOf converts a decoded JSON value into a Value. Nested objects cannot be
// represented and are reported as a SchemaViolation for field.
func ValueOf(field string, raw any) (Value, error) {
	switch x := raw.(type) {
	case nil:
		return Missing, nil
	case Value:
		return x, nil
	case string:
		return String(x), nil
	case bool:
		return Bool(x), nil
	case float64:
		return Number(x), nil
	case float32:
		return Number(float64(x)), nil
	case int:
		return Number(float64(x)), nil
	case int64:
		return Number(float64(x)), nil
	case json.Number:
		f, err := x.Float64()
		if err != nil {
			return Missing, &SchemaViolation{Field: field, Expected: KindNumber, Got: KindString, Reason: err.Error()}
		}
		return Number(f), nil
	case []string:
		return Strings(x...), nil
	case []any:
		items := make([]Value, 0, len(x))
		for _, it := range x {
			if it == nil {
				continue
			}
			val, err := ValueOf(field, it)
			if err != nil {
				return Missing, err
			}
			items = append(items, val)
		}
		return Seq(items...), nil
	case map[string]any:
		return Missing, &SchemaViolation{Field: field, Expected: KindScalar, Reason: "nested object is not a field value"}
	default:
		return Missing, &SchemaViolation{Field: field, Expected: KindScalar, Reason: fmt.Sprintf("unsupported value type %T", raw)}
	}
}
