package score

import (
	"context"
	"fmt"
	"math"

	"github.com/ppiankov/fundus/internal/model"
)

// Method turns arbitrary non-empty scores into a probability distribution
type Method struct {
	name string
	fn   func(map[string]float64) map[string]float64
}

// Name identifies the method in scorer names
func (m Method) Name() string { return m.name }

// Softmax normalizes exp(score/temperature). Lower temperatures sharpen the distribution.
func Softmax(temperature float64) Method {
	return Method{
		name: fmt.Sprintf("softmax(%g)", temperature),
		fn: func(scores map[string]float64) map[string]float64 {
			maxScore := math.Inf(-1)
			for _, s := range scores {
				maxScore = math.Max(maxScore, s)
			}

			out := make(map[string]float64, len(scores))
			var sum float64
			for label, s := range scores {
				e := math.Exp((s - maxScore) / temperature)
				out[label] = e
				sum += e
			}
			for label := range out {
				out[label] /= sum
			}
			return out
		},
	}
}

// Proportional divides each score by the total. Negative scores count as zero, and an
// all-zero input becomes uniform.
func Proportional() Method {
	return Method{
		name: "proportional",
		fn: func(scores map[string]float64) map[string]float64 {
			out := make(map[string]float64, len(scores))
			var sum float64
			for label, s := range scores {
				s = math.Max(s, 0)
				out[label] = s
				sum += s
			}

			for label := range out {
				if sum == 0 {
					out[label] = 1 / float64(len(out))
				} else {
					out[label] /= sum
				}
			}
			return out
		},
	}
}

// ParseMethod resolves a configured normalization method
func ParseMethod(name string, temperature float64) (Method, error) {
	switch name {
	case "softmax", "":
		if temperature <= 0 || math.IsNaN(temperature) {
			return Method{}, &model.ConfigurationError{Option: "scorer.temperature", Reason: fmt.Sprintf("must be > 0, got %g", temperature)}
		}
		return Softmax(temperature), nil
	case "proportional":
		return Proportional(), nil
	default:
		return Method{}, &model.ConfigurationError{Option: "scorer.normalize", Reason: fmt.Sprintf("unknown method %q (supported: softmax, proportional)", name)}
	}
}

type normalized struct {
	inner  Scorer
	method Method
}

// Normalized turns a flat scorer into a joint one. Empty inner output stays empty and
// is rejected by joint validation.
func Normalized(flat Scorer, m Method) Scorer {
	return normalized{inner: flat, method: m}
}

func (n normalized) Name() string {
	return n.inner.Name() + "|" + n.method.Name()
}

func (n normalized) Score(ctx context.Context, r model.Record) (map[string]float64, error) {
	scores, err := n.inner.Score(ctx, r)
	if err != nil {
		return nil, err
	}
	if len(scores) == 0 {
		return map[string]float64{}, nil
	}
	if err := validateFinite(scores); err != nil {
		return nil, err
	}
	return n.method.fn(scores), nil
}
