package transform

import (
	"errors"
	"slices"
	"testing"

	"github.com/google/go-cmp/cmp"

	"github.com/ppiankov/fundus/internal/model"
)

func rec(m map[string]any) model.Record { return model.MustRecord(m) }

var (
	double = Map("double", func(r model.Record) model.Record {
		n, _ := r.Get("n").Num()
		return r.With("n", model.Number(n*2))
	})
	dropOdd = New("drop_odd", func(r model.Record) (model.Record, bool, error) {
		n, _ := r.Get("n").Num()
		if int(n)%2 == 1 {
			return model.Record{}, false, nil
		}
		return r, true, nil
	})
	failNeg = New("fail_neg", func(r model.Record) (model.Record, bool, error) {
		n, _ := r.Get("n").Num()
		if n < 0 {
			return model.Record{}, false, &model.SchemaViolation{Field: "n", Reason: "negative"}
		}
		return r, true, nil
	})
)

type outcome struct {
	rec  model.Record
	keep bool
	err  error
}

func apply(t Transform, r model.Record) outcome {
	out, keep, err := t.Apply(r)
	return outcome{out, keep, err}
}

func equalOutcome(a, b outcome) bool {
	if (a.err == nil) != (b.err == nil) || a.keep != b.keep {
		return false
	}
	return !a.keep || a.rec.Equal(b.rec)
}

func TestThen_Law(t *testing.T) {
	pairs := [][2]Transform{
		{double, dropOdd},
		{dropOdd, double},
		{failNeg, double},
		{double, failNeg},
		{dropOdd, failNeg},
	}
	inputs := []float64{-3, -2, 0, 1, 2, 5}

	for _, p := range pairs {
		t1, t2 := p[0], p[1]
		chained := Then(t1, t2)
		for _, n := range inputs {
			r := rec(map[string]any{"n": n})

			var want outcome
			first := apply(t1, r)
			switch {
			case first.err != nil:
				want = outcome{err: first.err}
			case !first.keep:
				want = outcome{}
			default:
				want = apply(t2, first.rec)
			}

			if got := apply(chained, r); !equalOutcome(got, want) {
				t.Errorf("%s on n=%v: got %+v, want %+v", chained.Name(), n, got, want)
			}
		}
	}
}

func TestThen_MethodForm(t *testing.T) {
	chain := double.Then(double).Then(dropOdd)
	out, keep, err := chain.Apply(rec(map[string]any{"n": 3.0}))
	if err != nil || !keep {
		t.Fatalf("unexpected drop or error: keep=%v err=%v", keep, err)
	}
	if n, _ := out.Get("n").Num(); n != 12 {
		t.Errorf("expected 12, got %v", n)
	}
	if chain.Name() != "double|double|drop_odd" {
		t.Errorf("unexpected name %q", chain.Name())
	}
}

func TestThen_ShortCircuits(t *testing.T) {
	calls := 0
	counter := Map("count", func(r model.Record) model.Record {
		calls++
		return r
	})

	_, keep, _ := dropOdd.Then(counter).Apply(rec(map[string]any{"n": 1.0}))
	if keep || calls != 0 {
		t.Errorf("expected drop before second transform: keep=%v calls=%d", keep, calls)
	}

	_, _, err := failNeg.Then(counter).Apply(rec(map[string]any{"n": -1.0}))
	if err == nil || calls != 0 {
		t.Errorf("expected error before second transform: err=%v calls=%d", err, calls)
	}
}

func TestApply_DoesNotMutateInput(t *testing.T) {
	in := rec(map[string]any{"n": 2.0})
	_, _, _ = double.Apply(in)
	if n, _ := in.Get("n").Num(); n != 2 {
		t.Errorf("input record mutated: n=%v", n)
	}
}

func TestSequence(t *testing.T) {
	r := rec(map[string]any{"n": 1.0})

	out, keep, err := Sequence().Apply(r)
	if err != nil || !keep || !out.Equal(r) {
		t.Errorf("empty sequence must be identity")
	}

	out, keep, _ = Sequence(double, dropOdd, double).Apply(r)
	if !keep {
		t.Fatal("unexpected drop")
	}
	if n, _ := out.Get("n").Num(); n != 4 {
		t.Errorf("expected 4, got %v", n)
	}
}

func TestApplyTo(t *testing.T) {
	var input []model.Record
	for i, n := range []float64{1, 2, -4, 3, 6} {
		input = append(input, rec(map[string]any{"i": float64(i), "n": n}))
	}

	type item struct {
		I   float64
		Err bool
	}
	var got []item
	for r, err := range ApplyTo(dropOdd.Then(failNeg), slices.Values(input)) {
		i, _ := r.Get("i").Num()
		got = append(got, item{I: i, Err: err != nil})
	}

	want := []item{{1, false}, {2, true}, {4, false}}
	if diff := cmp.Diff(want, got); diff != "" {
		t.Errorf("unexpected sequence (-want +got):\n%s", diff)
	}
}

func TestApplyTo_ErrorKeepsInput(t *testing.T) {
	in := rec(map[string]any{"id": "x", "n": -2.0})
	for r, err := range ApplyTo(failNeg, slices.Values([]model.Record{in})) {
		if !errors.Is(err, model.ErrSchemaViolation) {
			t.Errorf("expected schema violation, got %v", err)
		}
		if !r.Equal(in) {
			t.Errorf("expected offending input to be yielded with the error")
		}
	}
}
