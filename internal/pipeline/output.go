package pipeline

import (
	"bufio"
	"encoding/json"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"sort"

	"github.com/ppiankov/fundus/internal/model"
)

// document is the single-object JSON export of a run
type document struct {
	*model.RunReport
	Results []model.Export `json:"results"`
}

// WriteResults encodes the report to w as one JSON document or as JSON lines.
// JSON lines carry one prediction per line and omit skips.
func WriteResults(w io.Writer, report *model.RunReport, format string, includeRecord bool) error {
	switch format {
	case "json":
		enc := json.NewEncoder(w)
		enc.SetIndent("", "  ")
		if err := enc.Encode(document{RunReport: report, Results: report.Exports(includeRecord)}); err != nil {
			return fmt.Errorf("encode report: %w", err)
		}
		return nil

	case "jsonl":
		bw := bufio.NewWriter(w)
		enc := json.NewEncoder(bw)
		for _, p := range report.Results {
			if err := enc.Encode(p.Export(includeRecord)); err != nil {
				return fmt.Errorf("encode prediction %d: %w", p.Index, err)
			}
		}
		return bw.Flush()

	default:
		return &model.ConfigurationError{Option: "output.format", Reason: fmt.Sprintf("unknown format %q", format)}
	}
}

// WriteFile writes the report to path, creating parent directories
func WriteFile(path string, report *model.RunReport, format string, includeRecord bool) error {
	if dir := filepath.Dir(path); dir != "." {
		if err := os.MkdirAll(dir, 0755); err != nil {
			return fmt.Errorf("create output directory: %w", err)
		}
	}

	f, err := os.Create(path)
	if err != nil {
		return fmt.Errorf("create output file: %w", err)
	}

	if err := WriteResults(f, report, format, includeRecord); err != nil {
		_ = f.Close()
		return err
	}
	return f.Close()
}

// RenderSummary prints a human-readable run summary
func RenderSummary(w io.Writer, report *model.RunReport) {
	fmt.Fprintf(w, "\n")
	fmt.Fprintf(w, "  Run:        %s\n", report.RunID)
	fmt.Fprintf(w, "  Records:    %d\n", report.Total)
	fmt.Fprintf(w, "  Scored:     %d\n", len(report.Results))
	fmt.Fprintf(w, "  Excluded:   %d\n", report.Excluded)
	fmt.Fprintf(w, "  Skipped:    %d\n", len(report.Skipped))
	fmt.Fprintf(w, "  Duration:   %v\n", report.Duration.Round(1e6))

	counts := report.CountOutcomes()
	outcomes := make([]string, 0, len(counts))
	for o := range counts {
		outcomes = append(outcomes, string(o))
	}
	sort.Strings(outcomes)
	for _, o := range outcomes {
		fmt.Fprintf(w, "    %-14s %d\n", o+":", counts[model.Outcome(o)])
	}

	if report.Cancelled {
		fmt.Fprintf(w, "\n  ⚠️  Run cancelled, results are partial\n")
	}
	fmt.Fprintf(w, "\n")
}
