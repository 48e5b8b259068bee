package cli

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"time"

	"github.com/spf13/cobra"

	"github.com/ppiankov/fundus/internal/evaluate"
	"github.com/ppiankov/fundus/internal/ingest"
	"github.com/ppiankov/fundus/internal/model"
	"github.com/ppiankov/fundus/internal/pipeline"
)

var (
	runTimeout time.Duration
	markdown   bool
	noCache    bool
)

// runCmd represents the run command
var runCmd = &cobra.Command{
	Use:   "run <file>...",
	Short: "Filter, normalize and score metadata dumps",
	Long: `Run reads line-separated JSON dumps (optionally gzip-compressed):
- Unwrap each entry at the input prefix and extract the configured fields
- Apply the configured filters and value transforms
- Score every surviving record with the lexicon or LLM backend
- Assign joint results by threshold policy
- Write predictions as JSON or JSON lines

Example:
  fundus run dump.jsonl.gz
  fundus run part-*.jsonl --workers 8 -o predictions.jsonl
  fundus run dump.jsonl --scorer-kind flat --evaluate properties.ccm:taxonid`,
	Args: cobra.MinimumNArgs(1),
	RunE: runRun,
}

func init() {
	rootCmd.AddCommand(runCmd)

	f := runCmd.Flags()
	f.StringP("output", "o", "", "output path, - for stdout")
	f.String("format", "", "output format (json, jsonl)")
	f.Bool("include-record", false, "include the transformed record in each prediction")
	f.Int("workers", 0, "records scored concurrently")
	f.Int("max-records", 0, "maximum entries read from the input")
	f.String("scorer-kind", "", "scorer variant (flat, joint)")
	f.String("backend", "", "scorer backend (lexicon, llm)")
	f.String("lexicon", "", "lexicon YAML file for the lexicon backend")
	f.StringSlice("labels", nil, "candidate labels for the llm backend")
	f.String("llm-provider", "", "LLM provider (openai, anthropic, ollama)")
	f.String("llm-model", "", "LLM model name")
	f.String("evaluate", "", "record field holding gold labels; prints an evaluation table")
	f.BoolVar(&markdown, "markdown", false, "render the evaluation table as Markdown")
	f.BoolVar(&noCache, "no-cache", false, "disable score caching")
	f.DurationVar(&runTimeout, "timeout", 0, "overall run timeout (0 for none)")

	for key, flag := range map[string]string{
		"output.path":           "output",
		"output.format":         "format",
		"output.include_record": "include-record",
		"pipeline.workers":      "workers",
		"input.max_records":     "max-records",
		"scorer.kind":           "scorer-kind",
		"scorer.backend":        "backend",
		"scorer.lexicon_path":   "lexicon",
		"llm.labels":            "labels",
		"llm.provider":          "llm-provider",
		"llm.model":             "llm-model",
		"output.evaluate_field": "evaluate",
	} {
		_ = v.BindPFlag(key, f.Lookup(flag))
	}
}

func runRun(cmd *cobra.Command, args []string) error {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt)
	defer stop()
	if runTimeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, runTimeout)
		defer cancel()
	}

	if noCache {
		cfg.Cache.Enabled = false
	}

	fmt.Fprintf(os.Stderr, "\n")
	fmt.Fprintf(os.Stderr, "═══════════════════════════════════════════════════════════\n")
	fmt.Fprintf(os.Stderr, "  Fundus Run\n")
	fmt.Fprintf(os.Stderr, "═══════════════════════════════════════════════════════════\n")
	fmt.Fprintf(os.Stderr, "\n")
	fmt.Fprintf(os.Stderr, "  Input files:  %d\n", len(args))
	fmt.Fprintf(os.Stderr, "  Scorer:       %s/%s\n", cfg.Scorer.Kind, cfg.Scorer.Backend)
	fmt.Fprintf(os.Stderr, "  Workers:      %d\n", cfg.Pipeline.Workers)
	fmt.Fprintf(os.Stderr, "  Output:       %s (%s)\n", cfg.Output.Path, cfg.Output.Format)
	fmt.Fprintf(os.Stderr, "\n")

	report, err := execute(ctx, cfg, args)
	if report != nil {
		if werr := writeReport(cmd, report); werr != nil {
			return werr
		}
		pipeline.RenderSummary(os.Stderr, report)

		if cfg.Output.EvaluateField != "" {
			ev := evaluate.Evaluate(report.Results, cfg.Output.EvaluateField, cfg.Scorer.Threshold)
			if rerr := evaluate.Render(os.Stderr, ev, markdown); rerr != nil {
				return rerr
			}
		}
	}
	return err
}

// execute reads the inputs and runs the configured pipeline.
// A cancelled run returns its partial report together with the error.
func execute(ctx context.Context, cfg *model.Config, paths []string) (*model.RunReport, error) {
	logger := rootLogger

	schema, err := cfg.Schema()
	if err != nil {
		return nil, err
	}

	stages, err := buildStages(cfg)
	if err != nil {
		return nil, err
	}

	variant, err := buildScorer(ctx, cfg, logger)
	if err != nil {
		return nil, err
	}

	p, err := pipeline.New(cfg.PipelineOptions(), variant, stages...)
	if err != nil {
		return nil, err
	}
	p.WithLogger(logger)
	logger.Debug("Pipeline built", "stages", p.Stages(), "scorer", variant.Name())

	fmt.Fprintf(os.Stderr, "⚙️  Reading records...\n")
	payloads, err := ingest.ReadFiles(ctx, paths, ingest.OptionsFromConfig(cfg.Input))
	if err != nil {
		return nil, fmt.Errorf("read input: %w", err)
	}
	fmt.Fprintf(os.Stderr, "✓ Loaded %d records\n", len(payloads))

	return p.RunPayloadsParallel(ctx, payloads, schema, cfg.Pipeline.Workers)
}

func writeReport(cmd *cobra.Command, report *model.RunReport) error {
	path := cfg.Output.Path
	if path == "" || path == "-" {
		return pipeline.WriteResults(cmd.OutOrStdout(), report, cfg.Output.Format, cfg.Output.IncludeRecord)
	}
	if err := pipeline.WriteFile(path, report, cfg.Output.Format, cfg.Output.IncludeRecord); err != nil {
		return err
	}
	fmt.Fprintf(os.Stderr, "✓ Wrote %d predictions: %s\n", len(report.Results), path)
	return nil
}
