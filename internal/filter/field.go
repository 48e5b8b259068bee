package filter

import (
	"fmt"
	"slices"
	"strings"

	"github.com/ppiankov/fundus/internal/model"
)

// Predicate judges a single scalar value. It also receives Missing for absent fields.
type Predicate func(v model.Value) bool

// Semantics summarizes the per-item verdicts of a multi-valued field
type Semantics int

const (
	// Any accepts when at least one item is accepted; an empty sequence is rejected
	Any Semantics = iota
	// All accepts when every item is accepted; an empty sequence is accepted
	All
)

func (s Semantics) String() string {
	if s == All {
		return "all"
	}
	return "any"
}

// summarize folds verdicts lazily
func (s Semantics) summarize(n int, verdict func(i int) bool) bool {
	for i := 0; i < n; i++ {
		ok := verdict(i)
		if s == Any && ok {
			return true
		}
		if s == All && !ok {
			return false
		}
	}
	return s == All
}

// OnTerminal lifts p over sequence values using the given semantics
func OnTerminal(p Predicate, s Semantics) Predicate {
	return func(v model.Value) bool {
		if v.Kind() != model.KindSequence {
			return p(v)
		}
		items := v.Items()
		return s.summarize(len(items), func(i int) bool { return p(items[i]) })
	}
}

// Field builds a filter that evaluates p on one record field
func Field(name, field string, p Predicate) Filter {
	return New(name, func(r model.Record) bool {
		return p(r.Get(field))
	})
}

// Equals keeps records where any value of field equals want
func Equals(field string, want model.Value) Filter {
	return Field(fmt.Sprintf("%s==%s", field, want), field,
		OnTerminal(func(v model.Value) bool { return v.Equal(want) }, Any))
}

// NotEquals keeps records where no value of field equals unwanted
func NotEquals(field string, unwanted model.Value) Filter {
	return Field(fmt.Sprintf("%s!=%s", field, unwanted), field,
		OnTerminal(func(v model.Value) bool { return !v.Equal(unwanted) }, All))
}

// OneOf keeps records where any value of field is in the set
func OneOf(field string, set ...string) Filter {
	accepted := make(map[string]struct{}, len(set))
	for _, s := range set {
		accepted[s] = struct{}{}
	}
	return Field(fmt.Sprintf("%s in [%s]", field, strings.Join(set, ",")), field,
		OnTerminal(func(v model.Value) bool {
			s, ok := v.Str()
			if !ok {
				return false
			}
			_, found := accepted[s]
			return found
		}, Any))
}

// Language rejects records carrying any language outside accepted.
// Records without a language pass; with no accepted languages everything passes.
func Language(accepted ...string) Filter {
	name := "language(" + strings.Join(accepted, ",") + ")"
	if len(accepted) == 0 {
		return New(name, func(model.Record) bool { return true })
	}
	return Field(name, model.FieldLanguage, func(v model.Value) bool {
		if v.IsMissing() {
			return true
		}
		for _, item := range v.Items() {
			if !slices.Contains(accepted, item.Text()) {
				return false
			}
		}
		return true
	})
}

// Labeled keeps records whose fields hold a label. Missing, "", empty
// sequences, 0 and false all count as unlabeled.
func Labeled(fields []string, s Semantics) Filter {
	fs := slices.Clone(fields)
	return New(fmt.Sprintf("labeled(%s:%s)", s, strings.Join(fs, ",")), func(r model.Record) bool {
		return s.summarize(len(fs), func(i int) bool { return labeled(r.Get(fs[i])) })
	})
}

func labeled(v model.Value) bool {
	if n, ok := v.Num(); ok {
		return n != 0
	}
	if b, ok := v.Truth(); ok {
		return b
	}
	return !v.Empty()
}

// MinLength keeps records whose field values are at least minLen long.
// Strings count runes and sequences count items; other values have length 0.
func MinLength(fields []string, minLen int, s Semantics) Filter {
	fs := slices.Clone(fields)
	name := fmt.Sprintf("min_length(%s:%d:%s)", s, minLen, strings.Join(fs, ","))
	if len(fs) == 0 {
		return New(name, func(model.Record) bool { return true })
	}
	return New(name, func(r model.Record) bool {
		return s.summarize(len(fs), func(i int) bool { return r.Get(fs[i]).Len() >= minLen })
	})
}

// TestData keeps records that belong to a test data set with one of the given labels
func TestData(labels ...string) Filter {
	return OneOf(model.FieldTestData, labels...)
}

// Basic rejects items outside the workspace material dataset and collection references
func Basic() Filter {
	return AllOf(
		Equals(model.FieldProtocol, model.String("workspace")),
		Equals(model.FieldType, model.String("ccm:io")),
		Equals(model.FieldMetadataset, model.String("mds_oeh")),
		NotEquals(model.FieldAspects, model.String("ccm:collection_io_reference")),
	)
}

// PubliclyVisible keeps items readable by everyone, directly or through a collection
func PubliclyVisible() Filter {
	everyone := model.String("GROUP_EVERYONE")
	return AnyOf(
		Equals(model.FieldPermissions, everyone),
		Equals(model.FieldCollectionPermissions, everyone),
	)
}

// Editorial keeps items confirmed by editors
func Editorial() Filter {
	return Equals(model.FieldCollections, model.String("Redaktionsbuffet"))
}

// ExistingText keeps items that have both a title and a description
func ExistingText() Filter {
	return MinLength([]string{model.FieldTitle, model.FieldDescription}, 1, All)
}
