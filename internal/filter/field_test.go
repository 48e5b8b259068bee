package filter

import (
	"testing"

	"github.com/ppiankov/fundus/internal/model"
)

func TestOnTerminal(t *testing.T) {
	isA := func(v model.Value) bool {
		s, _ := v.Str()
		return s == "a"
	}

	tests := []struct {
		name string
		v    model.Value
		s    Semantics
		want bool
	}{
		{"scalar match", model.String("a"), Any, true},
		{"scalar miss", model.String("b"), All, false},
		{"any of sequence", model.Strings("b", "a"), Any, true},
		{"all of sequence", model.Strings("b", "a"), All, false},
		{"all match", model.Strings("a", "a"), All, true},
		{"empty any", model.Seq(), Any, false},
		{"empty all", model.Seq(), All, true},
		{"missing", model.Missing, Any, false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := OnTerminal(isA, tt.s)(tt.v); got != tt.want {
				t.Errorf("got %v, want %v", got, tt.want)
			}
		})
	}
}

func TestEqualsAndNotEquals(t *testing.T) {
	r := model.MustRecord(map[string]any{
		"type":    "ccm:io",
		"aspects": []any{"a", "b"},
	})

	if !Equals("type", model.String("ccm:io")).Apply(r) {
		t.Error("expected type to equal ccm:io")
	}
	if Equals("missing", model.String("x")).Apply(r) {
		t.Error("missing field must not equal a value")
	}
	if !Equals("aspects", model.String("b")).Apply(r) {
		t.Error("expected any aspect to equal b")
	}
	if NotEquals("aspects", model.String("b")).Apply(r) {
		t.Error("expected NotEquals to reject when any aspect equals b")
	}
	if !NotEquals("missing", model.String("b")).Apply(r) {
		t.Error("missing field is not equal to anything")
	}
}

func TestOneOfAndTestData(t *testing.T) {
	r := model.MustRecord(map[string]any{model.FieldTestData: []any{"gold", "2023"}})

	if !TestData("gold").Apply(r) {
		t.Error("expected record in gold test set")
	}
	if TestData("silver").Apply(r) {
		t.Error("record is not in silver test set")
	}
	if TestData("gold").Apply(model.MustRecord(map[string]any{})) {
		t.Error("record without test data must be rejected")
	}
}

func TestLanguage(t *testing.T) {
	de := Language("de")

	tests := []struct {
		name  string
		langs any
		want  bool
	}{
		{"only accepted", []any{"de"}, true},
		{"scalar accepted", "de", true},
		{"mixed", []any{"de", "en"}, false},
		{"other", "en", false},
		{"missing", nil, true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			r := model.MustRecord(map[string]any{model.FieldLanguage: tt.langs})
			if got := de.Apply(r); got != tt.want {
				t.Errorf("got %v, want %v", got, tt.want)
			}
		})
	}

	if !Language().Apply(model.MustRecord(map[string]any{model.FieldLanguage: "xx"})) {
		t.Error("language filter without accepted languages must accept everything")
	}
}

func TestLabeled(t *testing.T) {
	r := model.MustRecord(map[string]any{
		"discipline": []any{"math"},
		"keywords":   []any{},
		"title":      "",
	})

	if !Labeled([]string{"discipline", "keywords"}, Any).Apply(r) {
		t.Error("expected any-labeled to accept")
	}
	if Labeled([]string{"discipline", "keywords"}, All).Apply(r) {
		t.Error("expected all-labeled to reject an empty sequence")
	}
	if Labeled([]string{"title"}, Any).Apply(r) {
		t.Error("empty string is not a label")
	}

	falsy := model.MustRecord(map[string]any{"n": 0.0, "b": false, "m": 2.0, "t": true, "zeros": []any{0.0}})
	tests := []struct {
		field string
		want  bool
	}{
		{"n", false},
		{"b", false},
		{"m", true},
		{"t", true},
		{"zeros", true},
	}
	for _, tt := range tests {
		if got := Labeled([]string{tt.field}, Any).Apply(falsy); got != tt.want {
			t.Errorf("labeled %s: got %v, want %v", tt.field, got, tt.want)
		}
	}
}

func TestMinLength(t *testing.T) {
	r := model.MustRecord(map[string]any{
		"title":       "Äpfel",
		"description": "",
		"keywords":    []any{"a", "b", "c"},
		"n":           42.0,
	})

	tests := []struct {
		name   string
		fields []string
		min    int
		s      Semantics
		want   bool
	}{
		{"runes counted", []string{"title"}, 5, Any, true},
		{"too short", []string{"title"}, 6, Any, false},
		{"sequence length", []string{"keywords"}, 3, Any, true},
		{"number has no length", []string{"n"}, 1, Any, false},
		{"missing has no length", []string{"absent"}, 1, Any, false},
		{"any of fields", []string{"title", "description"}, 1, Any, true},
		{"all of fields", []string{"title", "description"}, 1, All, false},
		{"no fields", nil, 100, All, true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := MinLength(tt.fields, tt.min, tt.s).Apply(r); got != tt.want {
				t.Errorf("got %v, want %v", got, tt.want)
			}
		})
	}
}

func TestBasic(t *testing.T) {
	base := map[string]any{
		model.FieldProtocol:    "workspace",
		model.FieldType:        "ccm:io",
		model.FieldMetadataset: "mds_oeh",
	}

	with := func(field string, v any) model.Record {
		m := map[string]any{}
		for k, val := range base {
			m[k] = val
		}
		m[field] = v
		return model.MustRecord(m)
	}

	if !Basic().Apply(model.MustRecord(base)) {
		t.Error("minimal material must pass")
	}
	if !Basic().Apply(with(model.FieldAspects, []any{"cm:titled"})) {
		t.Error("unrelated aspect must pass")
	}
	if Basic().Apply(with(model.FieldAspects, []any{"cm:titled", "ccm:collection_io_reference"})) {
		t.Error("collection reference must be rejected")
	}
	if Basic().Apply(with(model.FieldType, "ccm:map")) {
		t.Error("non-io type must be rejected")
	}
	if Basic().Apply(with(model.FieldProtocol, nil)) {
		t.Error("missing protocol must be rejected")
	}
}

func TestPubliclyVisibleAndEditorial(t *testing.T) {
	public := model.MustRecord(map[string]any{
		model.FieldCollectionPermissions: []any{"GROUP_X", "GROUP_EVERYONE"},
	})
	private := model.MustRecord(map[string]any{
		model.FieldPermissions: []any{"GROUP_X"},
	})

	if !PubliclyVisible().Apply(public) {
		t.Error("public collection must make the item visible")
	}
	if PubliclyVisible().Apply(private) {
		t.Error("private item must be rejected")
	}

	edited := model.MustRecord(map[string]any{model.FieldCollections: []any{"Mathe", "Redaktionsbuffet"}})
	if !Editorial().Apply(edited) {
		t.Error("item in Redaktionsbuffet must pass")
	}
	if Editorial().Apply(private) {
		t.Error("item outside Redaktionsbuffet must be rejected")
	}
}

func TestExistingText(t *testing.T) {
	both := model.MustRecord(map[string]any{model.FieldTitle: "t", model.FieldDescription: "d"})
	titleOnly := model.MustRecord(map[string]any{model.FieldTitle: "t"})

	if !ExistingText().Apply(both) {
		t.Error("title and description present must pass")
	}
	if ExistingText().Apply(titleOnly) {
		t.Error("missing description must be rejected")
	}
}
