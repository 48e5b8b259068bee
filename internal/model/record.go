package model

import (
	"crypto/sha256"
	"encoding/hex"
	"encoding/json"
	"fmt"
	"sort"
	"strings"
)

// Payload is one raw fetched item, as decoded from JSON
type Payload = map[string]any

// FieldSpec declares one field of the record schema.
// Path is a dotted path into the payload and defaults to Name.
// A Kind of KindMissing leaves the field unconstrained.
type FieldSpec struct {
	Name string
	Path string
	Kind Kind
}

// Schema is the ordered list of fields extracted from each payload
type Schema struct {
	Fields    []FieldSpec
	Separator string
}

// Record is an immutable mapping from field name to value
type Record struct {
	fields map[string]Value
}

// NewRecord normalizes a payload into a Record according to schema.
// Construction fails with a *SchemaViolation when a field's value does not fit its declared kind.
func NewRecord(payload Payload, schema Schema) (Record, error) {
	sep := schema.Separator
	if sep == "" {
		sep = "."
	}

	fields := make(map[string]Value, len(schema.Fields))
	for _, spec := range schema.Fields {
		path := spec.Path
		if path == "" {
			path = spec.Name
		}

		raw := resolve(payload, strings.Split(path, sep))
		val, err := terminal(spec.Name, raw)
		if err != nil {
			return Record{}, err
		}

		val, err = conform(spec, val)
		if err != nil {
			return Record{}, err
		}
		if !val.IsMissing() {
			fields[spec.Name] = val
		}
	}

	return Record{fields: fields}, nil
}

// RecordFromFields builds a Record from an already flat mapping
func RecordFromFields(m map[string]any) (Record, error) {
	fields := make(map[string]Value, len(m))
	for name, raw := range m {
		val, err := ValueOf(name, raw)
		if err != nil {
			return Record{}, err
		}
		if !val.IsMissing() {
			fields[name] = val
		}
	}
	return Record{fields: fields}, nil
}

// MustRecord is RecordFromFields that panics on error. Intended for tests and literals.
func MustRecord(m map[string]any) Record {
	r, err := RecordFromFields(m)
	if err != nil {
		panic(err)
	}
	return r
}

// Get returns the field value, or Missing if absent
func (r Record) Get(field string) Value {
	if v, ok := r.fields[field]; ok {
		return v
	}
	return Missing
}

// Has reports whether the field is present
func (r Record) Has(field string) bool {
	_, ok := r.fields[field]
	return ok
}

// With returns a new Record with field set to value. Setting Missing removes the field.
func (r Record) With(field string, value Value) Record {
	next := make(map[string]Value, len(r.fields)+1)
	for k, v := range r.fields {
		next[k] = v
	}
	if value.IsMissing() {
		delete(next, field)
	} else {
		next[field] = value
	}
	return Record{fields: next}
}

// Without returns a new Record lacking field
func (r Record) Without(field string) Record {
	return r.With(field, Missing)
}

// Fields returns the sorted names of present fields
func (r Record) Fields() []string {
	names := make([]string, 0, len(r.fields))
	for k := range r.fields {
		names = append(names, k)
	}
	sort.Strings(names)
	return names
}

// Len returns the number of present fields
func (r Record) Len() int { return len(r.fields) }

// Equal reports whether both records hold the same fields and values
func (r Record) Equal(o Record) bool {
	if len(r.fields) != len(o.fields) {
		return false
	}
	for k, v := range r.fields {
		ov, ok := o.fields[k]
		if !ok || !v.Equal(ov) {
			return false
		}
	}
	return true
}

// ToMap returns the record as plain Go values
func (r Record) ToMap() map[string]any {
	out := make(map[string]any, len(r.fields))
	for k, v := range r.fields {
		out[k] = v.Native()
	}
	return out
}

// MarshalJSON encodes the present fields as a flat object
func (r Record) MarshalJSON() ([]byte, error) {
	return json.Marshal(r.fields)
}

// Fingerprint returns a stable hash of the record's content
func (r Record) Fingerprint() string {
	// map keys are sorted by encoding/json
	data, err := json.Marshal(r.fields)
	if err != nil {
		data = []byte(fmt.Sprint(r.ToMap()))
	}
	sum := sha256.Sum256(data)
	return hex.EncodeToString(sum[:])
}

// resolve walks a dotted path through nested objects, mapping over lists
func resolve(node any, keys []string) any {
	if len(keys) == 0 {
		return node
	}

	obj, ok := node.(map[string]any)
	if !ok {
		return nil
	}
	val, ok := obj[keys[0]]
	if !ok {
		return nil
	}

	if list, ok := val.([]any); ok {
		out := make([]any, len(list))
		for i, sub := range list {
			out[i] = resolve(sub, keys[1:])
		}
		return out
	}
	return resolve(val, keys[1:])
}

// terminal flattens a resolved value; objects become Missing
func terminal(field string, raw any) (Value, error) {
	switch x := raw.(type) {
	case map[string]any:
		return Missing, nil
	case []any:
		items := make([]Value, 0, len(x))
		for _, sub := range x {
			val, err := terminal(field, sub)
			if err != nil {
				return Missing, err
			}
			items = append(items, val)
		}
		return Seq(items...), nil
	default:
		return ValueOf(field, raw)
	}
}

// conform coerces val to the declared kind or reports a violation
func conform(spec FieldSpec, val Value) (Value, error) {
	if val.IsMissing() || spec.Kind == KindMissing {
		return val, nil
	}

	if spec.Kind == KindSequence {
		if val.Kind() == KindSequence {
			return val, nil
		}
		return Seq(val), nil
	}

	if val.Kind() == KindSequence {
		items := val.Items()
		switch len(items) {
		case 0:
			return Missing, nil
		case 1:
			val = items[0]
		default:
			return Missing, &SchemaViolation{
				Field:    spec.Name,
				Expected: spec.Kind,
				Got:      KindSequence,
				Reason:   fmt.Sprintf("%d values for single-valued field", len(items)),
			}
		}
	}

	if spec.Kind == KindScalar || spec.Kind == val.Kind() {
		return val, nil
	}
	return Missing, &SchemaViolation{Field: spec.Name, Expected: spec.Kind, Got: val.Kind()}
}
