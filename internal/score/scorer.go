package score

import (
	"context"
	"fmt"
	"math"
	"strings"

	"github.com/ppiankov/fundus/internal/model"
)

// Tolerance bounds how far a joint distribution may sum away from 1
const Tolerance = 1e-6

// Scorer maps a record to label scores. Implementations must be safe for concurrent use.
type Scorer interface {
	Name() string
	Score(ctx context.Context, r model.Record) (map[string]float64, error)
}

type funcScorer struct {
	name string
	fn   func(context.Context, model.Record) (map[string]float64, error)
}

func (s funcScorer) Name() string { return s.name }

func (s funcScorer) Score(ctx context.Context, r model.Record) (map[string]float64, error) {
	return s.fn(ctx, r)
}

// Func adapts a function into a named Scorer
func Func(name string, fn func(context.Context, model.Record) (map[string]float64, error)) Scorer {
	return funcScorer{name: name, fn: fn}
}

// Variant tags a scorer as flat or joint
type Variant struct {
	kind   model.ScorerKind
	scorer Scorer
}

// Flat wraps s as an independent-score classifier
func Flat(s Scorer) Variant { return Variant{kind: model.ScorerFlat, scorer: s} }

// Joint wraps s as a topic-probability scorer whose output must form a distribution
func Joint(s Scorer) Variant { return Variant{kind: model.ScorerJoint, scorer: s} }

// Kind returns the variant tag
func (v Variant) Kind() model.ScorerKind { return v.kind }

// Scorer returns the wrapped scorer
func (v Variant) Scorer() Scorer { return v.scorer }

// Name returns the wrapped scorer's name
func (v Variant) Name() string {
	if v.scorer == nil {
		return ""
	}
	return v.scorer.Name()
}

// Valid reports whether the variant carries a scorer and a known kind
func (v Variant) Valid() error {
	if v.scorer == nil {
		return &model.ConfigurationError{Option: "scorer", Reason: "no scorer configured"}
	}
	switch v.kind {
	case model.ScorerFlat, model.ScorerJoint:
		return nil
	default:
		return &model.ConfigurationError{Option: "scorer.kind", Reason: fmt.Sprintf("unknown kind %q", v.kind)}
	}
}

// Evaluate scores r and derives its assignment. Flat results carry OutcomeNone.
// Scorer errors and invalid distributions are returned as *model.ScorerFailure.
func (v Variant) Evaluate(ctx context.Context, r model.Record, t model.Thresholds) (map[string]float64, model.Assignment, error) {
	scores, err := v.scorer.Score(ctx, r)
	if err != nil {
		return nil, model.Assignment{}, &model.ScorerFailure{Scorer: v.Name(), Err: err}
	}

	if v.kind == model.ScorerFlat {
		if err := validateFinite(scores); err != nil {
			return nil, model.Assignment{}, &model.ScorerFailure{Scorer: v.Name(), Err: err}
		}
		return scores, model.Assignment{Outcome: model.OutcomeNone}, nil
	}

	if err := ValidateDistribution(scores); err != nil {
		return nil, model.Assignment{}, &model.ScorerFailure{Scorer: v.Name(), Err: err}
	}
	return scores, Assign(scores, t), nil
}

// ValidateDistribution checks that scores are non-empty, non-negative and sum to 1 within Tolerance
func ValidateDistribution(scores map[string]float64) error {
	if len(scores) == 0 {
		return fmt.Errorf("empty topic distribution")
	}

	var sum float64
	var negative []string
	for topic, p := range scores {
		if math.IsNaN(p) || math.IsInf(p, 0) {
			return fmt.Errorf("topic %q has non-finite probability %g", topic, p)
		}
		if p < 0 {
			negative = append(negative, topic)
		}
		sum += p
	}

	if len(negative) > 0 {
		return fmt.Errorf("negative probability for topics %s", strings.Join(negative, ", "))
	}
	if math.Abs(sum-1) > Tolerance {
		return fmt.Errorf("probabilities sum to %g, want 1", sum)
	}
	return nil
}

func validateFinite(scores map[string]float64) error {
	for label, s := range scores {
		if math.IsNaN(s) || math.IsInf(s, 0) {
			return fmt.Errorf("label %q has non-finite score %g", label, s)
		}
	}
	return nil
}

// recordText joins the textual content of fields, flattening sequences
func recordText(r model.Record, fields []string) string {
	var parts []string
	for _, f := range fields {
		for _, item := range r.Get(f).Items() {
			if s := item.Text(); s != "" {
				parts = append(parts, s)
			}
		}
	}
	return strings.Join(parts, "\n")
}
