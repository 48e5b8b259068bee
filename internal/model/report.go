package model

import "time"

// Skip records a record that failed to process
type Skip struct {
	Index  int       `json:"index"`        // Position of the record in the run input
	ID     string    `json:"id,omitempty"` // Record identifier, if known
	Kind   ErrorKind `json:"kind"`
	Reason string    `json:"reason"`
	Err    error     `json:"-"`
}

// RunReport is the outcome of one pipeline run
type RunReport struct {
	RunID     string        `json:"run_id"`
	StartedAt time.Time     `json:"started_at"`
	Duration  time.Duration `json:"duration"`
	Total     int           `json:"total"`     // Records consumed from the input
	Excluded  int           `json:"excluded"`  // Vetoed by a filter or dropped by a transform
	Cancelled bool          `json:"cancelled"` // Run stopped early; Results are partial

	Results []*Prediction `json:"-"`
	Skipped []Skip        `json:"skipped"`
}

// Exports returns the export view of all results
func (r *RunReport) Exports(includeRecord bool) []Export {
	out := make([]Export, len(r.Results))
	for i, p := range r.Results {
		out[i] = p.Export(includeRecord)
	}
	return out
}

// CountOutcomes tallies results by assignment outcome
func (r *RunReport) CountOutcomes() map[Outcome]int {
	counts := make(map[Outcome]int)
	for _, p := range r.Results {
		counts[p.Assignment.Outcome]++
	}
	return counts
}
