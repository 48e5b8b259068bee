package transform

import (
	"errors"
	"testing"

	"github.com/google/go-cmp/cmp"

	"github.com/ppiankov/fundus/internal/model"
)

func TestRemap(t *testing.T) {
	tr := Remap("lang", []string{"xx"}, map[string]string{"de_DE": "de", "DE": "de"})

	tests := []struct {
		name string
		in   any
		want model.Value
	}{
		{"scalar remapped", "de_DE", model.String("de")},
		{"scalar kept", "en", model.String("en")},
		{"scalar dropped", "xx", model.Missing},
		{"sequence", []any{"de_DE", "xx", "en", "DE", "de"}, model.Strings("de", "en")},
		{"absent", nil, model.Missing},
		{"number untouched", 3.0, model.Number(3)},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			out, keep, err := tr.Apply(rec(map[string]any{"lang": tt.in}))
			if err != nil || !keep {
				t.Fatalf("unexpected drop or error: keep=%v err=%v", keep, err)
			}
			if got := out.Get("lang"); !got.Equal(tt.want) {
				t.Errorf("got %v, want %v", got, tt.want)
			}
		})
	}
}

func TestRequire(t *testing.T) {
	tr := Require("a", "b")

	if _, keep, _ := tr.Apply(rec(map[string]any{"a": 1.0, "b": ""})); !keep {
		t.Error("record with both fields must be kept")
	}
	if _, keep, err := tr.Apply(rec(map[string]any{"a": 1.0})); keep || err != nil {
		t.Errorf("record lacking b must be dropped without error: keep=%v err=%v", keep, err)
	}
}

func TestExpect(t *testing.T) {
	r := rec(map[string]any{"title": "x", "tags": []any{"a"}})

	if _, keep, err := Expect("title", model.KindString).Apply(r); err != nil || !keep {
		t.Errorf("matching kind must pass: %v", err)
	}
	if _, _, err := Expect("title", model.KindScalar).Apply(r); err != nil {
		t.Errorf("scalar must accept string: %v", err)
	}
	if _, _, err := Expect("absent", model.KindNumber).Apply(r); err != nil {
		t.Errorf("absent field must pass: %v", err)
	}

	_, keep, err := Expect("tags", model.KindString).Apply(r)
	if keep || !errors.Is(err, model.ErrSchemaViolation) {
		t.Fatalf("expected schema violation, got keep=%v err=%v", keep, err)
	}
	var sv *model.SchemaViolation
	if !errors.As(err, &sv) || sv.Got != model.KindSequence {
		t.Errorf("expected violation on sequence, got %v", err)
	}
}

func TestFirst(t *testing.T) {
	out, _, _ := First("d").Apply(rec(map[string]any{"d": []any{"math", "physics"}}))
	if !out.Get("d").Equal(model.String("math")) {
		t.Errorf("expected first item, got %v", out.Get("d"))
	}

	out, _, _ = First("d").Apply(rec(map[string]any{"d": []any{}}))
	if out.Has("d") {
		t.Error("empty sequence must remove the field")
	}
}

func TestConcat(t *testing.T) {
	tr := Concat("text", "\n", "title", "description", "keywords")

	out, _, _ := tr.Apply(rec(map[string]any{
		"title":    "Bruchrechnung",
		"keywords": []any{"Mathe", "Brüche"},
	}))

	if got, _ := out.Get("text").Str(); got != "Bruchrechnung\nMathe, Brüche" {
		t.Errorf("unexpected text %q", got)
	}

	out, _, _ = tr.Apply(rec(map[string]any{}))
	if got, ok := out.Get("text").Str(); !ok || got != "" {
		t.Errorf("expected empty text, got %v", out.Get("text"))
	}
}

func TestLowercase(t *testing.T) {
	out, _, _ := Lowercase("k").Apply(rec(map[string]any{"k": []any{"Mathe", 1.0}}))
	want := model.Seq(model.String("mathe"), model.Number(1))
	if !out.Get("k").Equal(want) {
		t.Errorf("got %v, want %v", out.Get("k"), want)
	}
}

func TestStripHTML(t *testing.T) {
	tests := []struct {
		in   string
		want string
	}{
		{"<p>Hello <b>world</b></p>", "Hello world"},
		{"plain   text\n here", "plain text here"},
		{"<div>a<script>alert(1)</script> b</div>", "a b"},
		{"Br&uuml;che &amp; Dezimalzahlen", "Brüche & Dezimalzahlen"},
	}

	for _, tt := range tests {
		t.Run(tt.in, func(t *testing.T) {
			out, keep, err := StripHTML("d").Apply(rec(map[string]any{"d": tt.in}))
			if err != nil || !keep {
				t.Fatalf("unexpected drop or error: %v", err)
			}
			if got, _ := out.Get("d").Str(); got != tt.want {
				t.Errorf("got %q, want %q", got, tt.want)
			}
		})
	}

	if _, _, err := StripHTML("d").Apply(rec(map[string]any{"d": []any{"<p>x</p>"}})); !errors.Is(err, model.ErrSchemaViolation) {
		t.Errorf("expected schema violation for sequence, got %v", err)
	}
}

func TestMultiHot(t *testing.T) {
	values := []model.Value{
		model.Strings("math", "physics"),
		model.Missing,
		model.String("biology"),
		model.Strings("math", "math"),
	}

	matrix, vocab := MultiHot(values)

	if diff := cmp.Diff([]string{"biology", "math", "physics"}, vocab); diff != "" {
		t.Errorf("unexpected vocabulary (-want +got):\n%s", diff)
	}

	want := [][]bool{
		{false, true, true},
		{false, false, false},
		{true, false, false},
		{false, true, false},
	}
	if diff := cmp.Diff(want, matrix); diff != "" {
		t.Errorf("unexpected matrix (-want +got):\n%s", diff)
	}
}
