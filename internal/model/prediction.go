package model

import (
	"sort"
)

// ScorerKind tags which scorer variant produced a prediction
type ScorerKind string

const (
	ScorerFlat  ScorerKind = "flat"
	ScorerJoint ScorerKind = "joint"
)

// Outcome is the threshold-policy classification of a joint-probability result
type Outcome string

const (
	OutcomeNone         Outcome = "none"         // Flat results carry no policy outcome
	OutcomeConfident    Outcome = "confident"    // One topic at or above the high-confidence threshold
	OutcomePlausible    Outcome = "plausible"    // Smallest top set reaching the coverage threshold
	OutcomeUnclassified Outcome = "unclassified" // No topic reaches the minimum threshold
)

// LabelScore pairs a label or topic identifier with its score
type LabelScore struct {
	Label string  `json:"label"`
	Score float64 `json:"score"`
}

// Assignment is the derived label assignment of a prediction
type Assignment struct {
	Outcome  Outcome  `json:"outcome"`
	Labels   []string `json:"labels,omitempty"`
	Coverage float64  `json:"coverage,omitempty"` // Cumulative probability of Labels
}

// Prediction is the immutable result for one surviving record
type Prediction struct {
	Index      int        // Position of the record in the run input
	ID         string     // Record identifier, empty if the id field is absent
	Record     Record     // Record after all transforms
	Kind       ScorerKind // Scorer variant
	Assignment Assignment // Threshold-policy outcome (OutcomeNone for flat)

	scores map[string]float64
	ranked []LabelScore
	top    []LabelScore
}

// NewPrediction assembles a prediction, ranking scores by descending score then ascending label.
// topK bounds the default summary returned by Top.
func NewPrediction(index int, id string, rec Record, kind ScorerKind, scores map[string]float64, assignment Assignment, topK int) *Prediction {
	own := make(map[string]float64, len(scores))
	for k, v := range scores {
		own[k] = v
	}

	p := &Prediction{
		Index:      index,
		ID:         id,
		Record:     rec,
		Kind:       kind,
		Assignment: assignment,
		scores:     own,
		ranked:     Rank(own),
	}
	p.top = p.TopK(topK)
	return p
}

// Rank orders scores by descending score, ties broken by ascending label
func Rank(scores map[string]float64) []LabelScore {
	ranked := make([]LabelScore, 0, len(scores))
	for label, score := range scores {
		ranked = append(ranked, LabelScore{Label: label, Score: score})
	}
	sort.Slice(ranked, func(i, j int) bool {
		if ranked[i].Score != ranked[j].Score {
			return ranked[i].Score > ranked[j].Score
		}
		return ranked[i].Label < ranked[j].Label
	})
	return ranked
}

// Scores returns a copy of the raw score mapping
func (p *Prediction) Scores() map[string]float64 {
	out := make(map[string]float64, len(p.scores))
	for k, v := range p.scores {
		out[k] = v
	}
	return out
}

// Score returns the score of a single label
func (p *Prediction) Score(label string) (float64, bool) {
	s, ok := p.scores[label]
	return s, ok
}

// Ranked returns all scores in rank order
func (p *Prediction) Ranked() []LabelScore {
	out := make([]LabelScore, len(p.ranked))
	copy(out, p.ranked)
	return out
}

// TopLabel returns the argmax label; false when there are no scores
func (p *Prediction) TopLabel() (string, bool) {
	if len(p.ranked) == 0 {
		return "", false
	}
	return p.ranked[0].Label, true
}

// LabelsAboveThreshold returns all labels with score >= t, in rank order
func (p *Prediction) LabelsAboveThreshold(t float64) []string {
	labels := []string{}
	for _, ls := range p.ranked {
		if ls.Score < t {
			break
		}
		labels = append(labels, ls.Label)
	}
	return labels
}

// TopK returns the k best-ranked scores. k < 1 returns none.
func (p *Prediction) TopK(k int) []LabelScore {
	if k < 1 {
		return []LabelScore{}
	}
	if k > len(p.ranked) {
		k = len(p.ranked)
	}
	out := make([]LabelScore, k)
	copy(out, p.ranked[:k])
	return out
}

// Top returns the configured top-k summary
func (p *Prediction) Top() []LabelScore {
	out := make([]LabelScore, len(p.top))
	copy(out, p.top)
	return out
}

// Export is the JSON shape handed to export collaborators
type Export struct {
	Index      int                `json:"index"`
	ID         string             `json:"id,omitempty"`
	Kind       ScorerKind         `json:"kind"`
	TopLabel   *string            `json:"top_label"`
	Top        []LabelScore       `json:"top"`
	Scores     map[string]float64 `json:"scores"`
	Assignment Assignment         `json:"assignment"`
	Record     *Record            `json:"record,omitempty"`
}

// Export builds the export view of the prediction
func (p *Prediction) Export(includeRecord bool) Export {
	e := Export{
		Index:      p.Index,
		ID:         p.ID,
		Kind:       p.Kind,
		Top:        p.Top(),
		Scores:     p.Scores(),
		Assignment: p.Assignment,
	}
	if label, ok := p.TopLabel(); ok {
		e.TopLabel = &label
	}
	if includeRecord {
		rec := p.Record
		e.Record = &rec
	}
	return e
}
