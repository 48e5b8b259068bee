package cli

import (
	"context"
	"log/slog"
	"sort"

	"github.com/ppiankov/fundus/internal/cache"
	"github.com/ppiankov/fundus/internal/filter"
	"github.com/ppiankov/fundus/internal/llm"
	"github.com/ppiankov/fundus/internal/model"
	"github.com/ppiankov/fundus/internal/pipeline"
	"github.com/ppiankov/fundus/internal/score"
	"github.com/ppiankov/fundus/internal/transform"
	"github.com/ppiankov/fundus/internal/worker"
)

// buildStages assembles the filter and transform chain described by cfg.
// Presets run on raw values, value fixes precede language and text checks, and the
// combined text field is built last.
func buildStages(cfg *model.Config) ([]pipeline.Stage, error) {
	var stages []pipeline.Stage
	addFilter := func(f filter.Filter) { stages = append(stages, pipeline.FilterStage(f)) }
	addTransform := func(t transform.Transform) { stages = append(stages, pipeline.TransformStage(t)) }

	f := cfg.Filters
	if f.Basic {
		addFilter(filter.Basic())
	}
	if f.PublicOnly {
		addFilter(filter.PubliclyVisible())
	}
	if f.EditorialOnly {
		addFilter(filter.Editorial())
	}
	if len(f.TestDataLabels) > 0 {
		addFilter(filter.TestData(f.TestDataLabels...))
	}

	t := cfg.Transforms
	for _, field := range remapFields(t) {
		addTransform(transform.Remap(field, t.Dropped[field], t.Remapped[field]))
	}

	if len(f.Languages) > 0 {
		addFilter(filter.Language(f.Languages...))
	}
	for _, field := range t.StripHTML {
		addTransform(transform.StripHTML(field))
	}
	if len(f.LabeledFields) > 0 {
		addFilter(filter.Labeled(f.LabeledFields, filter.All))
	}
	if f.MinTextLength > 0 {
		addFilter(filter.MinLength(f.TextFields, f.MinTextLength, filter.Any))
	}

	for _, expr := range f.Expressions {
		ef, err := filter.Expression("", expr)
		if err != nil {
			return nil, err
		}
		addFilter(ef)
	}

	if t.TextTarget != "" && len(f.TextFields) > 0 {
		addTransform(transform.Concat(t.TextTarget, "\n", f.TextFields...))
	}

	return stages, nil
}

// remapFields returns the fields with drop or remap tables, sorted
func remapFields(t model.TransformConfig) []string {
	seen := make(map[string]struct{})
	for field := range t.Dropped {
		seen[field] = struct{}{}
	}
	for field := range t.Remapped {
		seen[field] = struct{}{}
	}
	fields := make([]string, 0, len(seen))
	for field := range seen {
		fields = append(fields, field)
	}
	sort.Strings(fields)
	return fields
}

// buildScorer creates the configured scorer, memoized and normalized as needed
func buildScorer(ctx context.Context, cfg *model.Config, logger *slog.Logger) (score.Variant, error) {
	var base score.Scorer

	switch cfg.Scorer.Backend {
	case "lexicon":
		if cfg.Scorer.LexiconPath == "" {
			return score.Variant{}, &model.ConfigurationError{Option: "scorer.lexicon_path", Reason: "required for the lexicon backend"}
		}
		lex, err := score.LoadLexicon(cfg.Scorer.LexiconPath, cfg.Scorer.TextFields)
		if err != nil {
			return score.Variant{}, err
		}
		logger.Debug("Lexicon loaded", "path", cfg.Scorer.LexiconPath, "labels", len(lex.Labels()))
		base = lex

	case "llm":
		provider, err := llm.NewProvider(llm.ConfigFromModel(cfg.LLM))
		if err != nil {
			return score.Variant{}, err
		}
		if !provider.IsAvailable(ctx) {
			logger.Warn("LLM provider not reachable, records will fail as scorer errors", "provider", provider.Name(), "endpoint", provider.Endpoint())
		}

		limiter := worker.NewLimiter(cfg.RateLimiting.RequestsPerSecond, cfg.RateLimiting.BurstSize)
		for host, r := range cfg.RateLimiting.Hosts {
			limiter.SetHostRate(host, r.RequestsPerSecond, r.BurstSize)
		}
		s, err := score.NewLLM(provider, limiter, score.LLMOptions{
			Labels:      cfg.LLM.Labels,
			TextFields:  cfg.Scorer.TextFields,
			Model:       cfg.LLM.Model,
			MaxTokens:   cfg.LLM.MaxTokens,
			Temperature: float32(cfg.LLM.Temperature),
		})
		if err != nil {
			return score.Variant{}, err
		}
		base = s

	default:
		return score.Variant{}, &model.ConfigurationError{Option: "scorer.backend", Reason: "unknown backend " + cfg.Scorer.Backend + " (supported: lexicon, llm)"}
	}

	base = score.Cached(base, cache.FromConfig(cfg.Cache), 0)

	if cfg.Scorer.Kind == string(model.ScorerFlat) {
		return score.Flat(base), nil
	}

	method, err := score.ParseMethod(cfg.Scorer.Normalize, cfg.Scorer.Temperature)
	if err != nil {
		return score.Variant{}, err
	}
	return score.Joint(score.Normalized(base, method)), nil
}
