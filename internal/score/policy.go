package score

import (
	"github.com/ppiankov/fundus/internal/model"
)

// coverageSlack absorbs float rounding in cumulative sums
const coverageSlack = 1e-9

// Assign applies the threshold policy to a validated distribution.
//
// A top topic at or above HighConfidence is confident. If no topic reaches Min the
// record is unclassified. Otherwise topics are taken in descending probability, ties
// by ascending id, until their cumulative probability reaches Coverage.
func Assign(scores map[string]float64, t model.Thresholds) model.Assignment {
	ranked := model.Rank(scores)
	if len(ranked) == 0 {
		return model.Assignment{Outcome: model.OutcomeUnclassified}
	}

	top := ranked[0]
	if top.Score >= t.HighConfidence {
		return model.Assignment{
			Outcome:  model.OutcomeConfident,
			Labels:   []string{top.Label},
			Coverage: top.Score,
		}
	}

	if top.Score < t.Min {
		return model.Assignment{Outcome: model.OutcomeUnclassified}
	}

	var labels []string
	var cumulative float64
	for _, ls := range ranked {
		labels = append(labels, ls.Label)
		cumulative += ls.Score
		if cumulative >= t.Coverage-coverageSlack {
			break
		}
	}

	return model.Assignment{
		Outcome:  model.OutcomePlausible,
		Labels:   labels,
		Coverage: cumulative,
	}
}
