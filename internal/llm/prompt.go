package llm

import (
	"encoding/json"
	"fmt"
	"math"
	"slices"
	"strings"
)

// LabelSystemPrompt instructs the model to answer with a label-score object only
const LabelSystemPrompt = `You classify educational metadata records.
Answer with a single JSON object mapping each candidate label to a relevance score between 0 and 1.
Use only the candidate labels given. Do not add commentary.`

// maxPromptChars bounds the record text sent to the provider
const maxPromptChars = 4000

// BuildLabelPrompt constructs the user prompt for scoring text against labels
func BuildLabelPrompt(text string, labels []string) string {
	var b strings.Builder

	b.WriteString("Candidate labels:\n")
	for _, label := range labels {
		fmt.Fprintf(&b, "- %s\n", label)
	}

	if runes := []rune(text); len(runes) > maxPromptChars {
		text = string(runes[:maxPromptChars]) + " ..."
	}

	b.WriteString("\nRecord:\n")
	b.WriteString(text)
	b.WriteString("\n\nReturn a JSON object like {\"label\": 0.5} covering the candidate labels.")

	return b.String()
}

// ParseLabelScores extracts a label-to-score object from a model reply.
// Labels outside the candidate list and scores outside [0,1] are rejected.
func ParseLabelScores(content string, labels []string) (map[string]float64, error) {
	start := strings.Index(content, "{")
	end := strings.LastIndex(content, "}")
	if start < 0 || end < start {
		return nil, fmt.Errorf("no JSON object in reply: %q", truncate(content, 80))
	}

	var raw map[string]float64
	if err := json.Unmarshal([]byte(content[start:end+1]), &raw); err != nil {
		return nil, fmt.Errorf("parse label scores: %w", err)
	}

	scores := make(map[string]float64, len(raw))
	for label, score := range raw {
		if len(labels) > 0 && !slices.Contains(labels, label) {
			return nil, fmt.Errorf("reply names unknown label %q", label)
		}
		if math.IsNaN(score) || score < 0 || score > 1 {
			return nil, fmt.Errorf("score for %q out of range: %g", label, score)
		}
		scores[label] = score
	}

	return scores, nil
}

func truncate(s string, n int) string {
	if len(s) <= n {
		return s
	}
	return s[:n] + "..."
}
