package pipeline

import (
	"context"
	"errors"
	"fmt"
	"iter"
	"log/slog"
	"slices"
	"time"

	"github.com/oklog/ulid/v2"

	"github.com/ppiankov/fundus/internal/model"
	"github.com/ppiankov/fundus/internal/score"
	"github.com/ppiankov/fundus/internal/worker"
)

// Pipeline threads records through filter and transform stages and scores the survivors
type Pipeline struct {
	cfg    model.PipelineConfig
	scorer score.Variant
	stages []Stage
	logger *slog.Logger
}

// New validates the configuration and builds a pipeline.
// Invalid thresholds, options or stages are reported as *model.ConfigurationError.
func New(cfg model.PipelineConfig, scorer score.Variant, stages ...Stage) (*Pipeline, error) {
	if err := cfg.Thresholds.Validate(); err != nil {
		return nil, err
	}
	if err := scorer.Valid(); err != nil {
		return nil, err
	}
	if cfg.TopK < 1 {
		return nil, &model.ConfigurationError{Option: "pipeline.top_k", Reason: fmt.Sprintf("must be >= 1, got %d", cfg.TopK)}
	}
	for i, s := range stages {
		if !s.valid() {
			return nil, &model.ConfigurationError{Option: "pipeline.stages", Reason: fmt.Sprintf("stage %d is empty", i)}
		}
	}

	return &Pipeline{
		cfg:    cfg,
		scorer: scorer,
		stages: slices.Clone(stages),
		logger: slog.Default(),
	}, nil
}

// WithLogger sets the run logger
func (p *Pipeline) WithLogger(l *slog.Logger) *Pipeline {
	if l != nil {
		p.logger = l
	}
	return p
}

// Stages returns the stage names in execution order
func (p *Pipeline) Stages() []string {
	names := make([]string, len(p.stages))
	for i, s := range p.stages {
		names[i] = string(s.kind) + ":" + s.Name()
	}
	return names
}

// outcome is the fate of one input record
type outcome struct {
	pred     *model.Prediction
	skip     *model.Skip
	excluded bool
}

// input is a record or the error raised while constructing it
type input struct {
	rec model.Record
	id  string
	err error
}

// Run consumes records exactly once, in order. On cancellation the partial report is
// returned together with the context error.
func (p *Pipeline) Run(ctx context.Context, records iter.Seq[model.Record]) (*model.RunReport, error) {
	return p.run(ctx, func(yield func(input) bool) {
		for r := range records {
			if !yield(input{rec: r}) {
				return
			}
		}
	})
}

// RunPayloads builds records from raw payloads before running them.
// A payload that violates the schema is skipped, never aborting the batch.
func (p *Pipeline) RunPayloads(ctx context.Context, payloads []model.Payload, schema model.Schema) (*model.RunReport, error) {
	return p.run(ctx, func(yield func(input) bool) {
		for _, payload := range payloads {
			r, err := model.NewRecord(payload, schema)
			in := input{rec: r, err: err}
			if err != nil {
				in.id = payloadID(payload, schema, p.cfg.IDField)
			}
			if !yield(in) {
				return
			}
		}
	})
}

func (p *Pipeline) run(ctx context.Context, inputs iter.Seq[input]) (*model.RunReport, error) {
	report := p.newReport()

	index := 0
	var runErr error
	for in := range inputs {
		if err := ctx.Err(); err != nil {
			runErr = err
			break
		}
		out, err := p.processInput(ctx, index, in)
		if err != nil {
			runErr = err
			break
		}
		report.Total++
		p.collect(report, out)
		index++
	}

	return p.finish(report, runErr)
}

// RunParallel processes records on a worker pool and reassembles results in input order.
// Without cancellation the report matches Run on the same records.
func (p *Pipeline) RunParallel(ctx context.Context, records []model.Record, workers int) (*model.RunReport, error) {
	if workers <= 1 {
		return p.Run(ctx, slices.Values(records))
	}
	return runParallel(ctx, p, records, workers, func(r model.Record) input {
		return input{rec: r}
	})
}

// RunPayloadsParallel is RunPayloads on a worker pool. Record construction happens on the workers.
func (p *Pipeline) RunPayloadsParallel(ctx context.Context, payloads []model.Payload, schema model.Schema, workers int) (*model.RunReport, error) {
	if workers <= 1 {
		return p.RunPayloads(ctx, payloads, schema)
	}
	return runParallel(ctx, p, payloads, workers, func(payload model.Payload) input {
		r, err := model.NewRecord(payload, schema)
		in := input{rec: r, err: err}
		if err != nil {
			in.id = payloadID(payload, schema, p.cfg.IDField)
		}
		return in
	})
}

func runParallel[T any](ctx context.Context, p *Pipeline, items []T, workers int, toInput func(T) input) (*model.RunReport, error) {
	report := p.newReport()

	processor := worker.NewBatchProcessor(func(ctx context.Context, index int, item T) (outcome, error) {
		return p.processInput(ctx, index, toInput(item))
	}, workers)

	for _, res := range processor.Process(ctx, items) {
		if res == nil || res.Error != nil {
			continue
		}
		report.Total++
		p.collect(report, res.Value)
	}

	return p.finish(report, ctx.Err())
}

func (p *Pipeline) processInput(ctx context.Context, index int, in input) (outcome, error) {
	if in.err != nil {
		return outcome{skip: p.skip(index, in.id, model.KindSchemaViolation, in.err)}, nil
	}
	return p.process(ctx, index, in.rec)
}

// process threads one record through the stages and the scorer.
// Only a cancelled context is returned as an error; everything else is an outcome.
func (p *Pipeline) process(ctx context.Context, index int, r model.Record) (outcome, error) {
	id := r.Get(p.cfg.IDField).Text()

	for _, s := range p.stages {
		out, keep, err := s.apply(r)
		if err != nil {
			return outcome{skip: p.skip(index, id, model.KindSchemaViolation, fmt.Errorf("%s: %w", s.Name(), err))}, nil
		}
		if !keep {
			p.logger.Debug("Record excluded", "index", index, "id", id, "stage", s.Name())
			return outcome{excluded: true}, nil
		}
		r = out
	}

	if id == "" {
		id = r.Get(p.cfg.IDField).Text()
	}

	scores, assignment, err := p.scorer.Evaluate(ctx, r, p.cfg.Thresholds)
	if err != nil {
		if ctxErr := ctx.Err(); ctxErr != nil && errors.Is(err, ctxErr) {
			return outcome{}, ctxErr
		}
		return outcome{skip: p.skip(index, id, model.KindScorerFailure, err)}, nil
	}

	return outcome{pred: model.NewPrediction(index, id, r, p.scorer.Kind(), scores, assignment, p.cfg.TopK)}, nil
}

// skip records a failed record. Stage and construction errors are schema
// violations whatever their type; scorer errors are scorer failures.
func (p *Pipeline) skip(index int, id string, kind model.ErrorKind, err error) *model.Skip {
	s := &model.Skip{
		Index:  index,
		ID:     id,
		Kind:   kind,
		Reason: err.Error(),
		Err:    err,
	}
	p.logger.Debug("Record skipped", "index", index, "id", id, "kind", s.Kind, "error", err)
	return s
}

func (p *Pipeline) newReport() *model.RunReport {
	return &model.RunReport{
		RunID:     ulid.Make().String(),
		StartedAt: time.Now().UTC(),
	}
}

func (p *Pipeline) collect(report *model.RunReport, out outcome) {
	switch {
	case out.pred != nil:
		report.Results = append(report.Results, out.pred)
	case out.skip != nil:
		report.Skipped = append(report.Skipped, *out.skip)
	case out.excluded:
		report.Excluded++
	}
}

func (p *Pipeline) finish(report *model.RunReport, err error) (*model.RunReport, error) {
	report.Duration = time.Since(report.StartedAt)
	report.Cancelled = err != nil

	attrs := []any{
		"run_id", report.RunID,
		"scorer", p.scorer.Name(),
		"total", report.Total,
		"results", len(report.Results),
		"excluded", report.Excluded,
		"skipped", len(report.Skipped),
		"duration", report.Duration,
	}
	if err != nil {
		p.logger.Warn("Run cancelled", append(attrs, "error", err)...)
		return report, err
	}
	p.logger.Info("Run complete", attrs...)
	return report, nil
}

// payloadID extracts the id field from a payload that failed full construction
func payloadID(payload model.Payload, schema model.Schema, idField string) string {
	spec := model.FieldSpec{Name: idField}
	for _, f := range schema.Fields {
		if f.Name == idField {
			spec = model.FieldSpec{Name: f.Name, Path: f.Path}
			break
		}
	}

	r, err := model.NewRecord(payload, model.Schema{Fields: []model.FieldSpec{spec}, Separator: schema.Separator})
	if err != nil {
		return ""
	}
	return r.Get(idField).Text()
}
