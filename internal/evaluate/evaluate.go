// Package evaluate compares assigned labels against gold labels stored in the records.
package evaluate

import (
	"github.com/ppiankov/fundus/internal/model"
	"github.com/ppiankov/fundus/internal/transform"
)

// Metrics holds precision, recall and F1 for one label or an average
type Metrics struct {
	Precision float64 `json:"precision"`
	Recall    float64 `json:"recall"`
	F1        float64 `json:"f1"`
	Support   int     `json:"support"` // Records carrying the label in the gold field
}

// LabelMetrics are the metrics of a single label
type LabelMetrics struct {
	Label string `json:"label"`
	Metrics
}

// Report is the multi-label classification report
type Report struct {
	GoldField string         `json:"gold_field"`
	Samples   int            `json:"samples"`
	Labels    []LabelMetrics `json:"labels"`
	Micro     Metrics        `json:"micro"`
	Macro     Metrics        `json:"macro"`
}

// Assigned returns the labels a prediction commits to.
// Flat results use the labels at or above threshold, joint results their assignment.
func Assigned(p *model.Prediction, threshold float64) []string {
	if p.Kind == model.ScorerFlat {
		return p.LabelsAboveThreshold(threshold)
	}
	switch p.Assignment.Outcome {
	case model.OutcomeConfident, model.OutcomePlausible:
		return append([]string(nil), p.Assignment.Labels...)
	default:
		return nil
	}
}

// Evaluate scores predictions against the gold labels in goldField.
// Labels never seen in gold or prediction do not appear; undefined ratios are 0.
func Evaluate(predictions []*model.Prediction, goldField string, threshold float64) Report {
	n := len(predictions)
	values := make([]model.Value, 0, 2*n)
	for _, p := range predictions {
		values = append(values, p.Record.Get(goldField))
	}
	for _, p := range predictions {
		values = append(values, model.Strings(Assigned(p, threshold)...))
	}

	matrix, vocabulary := transform.MultiHot(values)
	gold, predicted := matrix[:n], matrix[n:]

	report := Report{GoldField: goldField, Samples: n}

	var tpAll, fpAll, fnAll int
	var macro Metrics
	for j, label := range vocabulary {
		var tp, fp, fn int
		for i := range n {
			switch {
			case gold[i][j] && predicted[i][j]:
				tp++
			case predicted[i][j]:
				fp++
			case gold[i][j]:
				fn++
			}
		}
		m := metrics(tp, fp, fn)
		report.Labels = append(report.Labels, LabelMetrics{Label: label, Metrics: m})

		tpAll += tp
		fpAll += fp
		fnAll += fn
		macro.Precision += m.Precision
		macro.Recall += m.Recall
		macro.F1 += m.F1
		macro.Support += m.Support
	}

	report.Micro = metrics(tpAll, fpAll, fnAll)
	if k := float64(len(vocabulary)); k > 0 {
		macro.Precision /= k
		macro.Recall /= k
		macro.F1 /= k
	}
	report.Macro = macro

	return report
}

func metrics(tp, fp, fn int) Metrics {
	m := Metrics{
		Precision: ratio(tp, tp+fp),
		Recall:    ratio(tp, tp+fn),
		Support:   tp + fn,
	}
	if m.Precision+m.Recall > 0 {
		m.F1 = 2 * m.Precision * m.Recall / (m.Precision + m.Recall)
	}
	return m
}

func ratio(a, b int) float64 {
	if b == 0 {
		return 0
	}
	return float64(a) / float64(b)
}
