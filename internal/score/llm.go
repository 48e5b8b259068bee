package score

import (
	"context"
	"fmt"
	"slices"
	"strings"

	"github.com/ppiankov/fundus/internal/llm"
	"github.com/ppiankov/fundus/internal/model"
	"github.com/ppiankov/fundus/internal/worker"
)

// LLMOptions configures the chat-completion scorer
type LLMOptions struct {
	Labels      []string
	TextFields  []string
	Model       string
	MaxTokens   int
	Temperature float32
}

// LLM asks a completion provider to score record text against candidate labels
type LLM struct {
	provider llm.Provider
	limiter  *worker.Limiter
	opts     LLMOptions
}

// NewLLM creates an LLM scorer. A nil limiter disables rate limiting.
func NewLLM(provider llm.Provider, limiter *worker.Limiter, opts LLMOptions) (*LLM, error) {
	if provider == nil {
		return nil, &model.ConfigurationError{Option: "llm.provider", Reason: "no provider configured"}
	}
	if len(opts.Labels) == 0 {
		return nil, &model.ConfigurationError{Option: "llm.labels", Reason: "at least one candidate label is required"}
	}
	if len(opts.TextFields) == 0 {
		return nil, &model.ConfigurationError{Option: "scorer.text_fields", Reason: "at least one text field is required"}
	}

	opts.Labels = slices.Clone(opts.Labels)
	slices.Sort(opts.Labels)
	opts.TextFields = slices.Clone(opts.TextFields)

	return &LLM{provider: provider, limiter: limiter, opts: opts}, nil
}

// Name identifies provider, model and label set
func (s *LLM) Name() string {
	return fmt.Sprintf("llm(%s/%s)[%s]", s.provider.Name(), s.opts.Model, strings.Join(s.opts.Labels, ","))
}

// Score sends the record text to the provider. Records without text get no scores.
func (s *LLM) Score(ctx context.Context, r model.Record) (map[string]float64, error) {
	text := recordText(r, s.opts.TextFields)
	if strings.TrimSpace(text) == "" {
		return map[string]float64{}, nil
	}

	if s.limiter != nil {
		if err := s.limiter.Wait(ctx, s.provider.Endpoint()); err != nil {
			return nil, fmt.Errorf("rate limit: %w", err)
		}
	}

	resp, err := s.provider.Complete(ctx, llm.CompletionRequest{
		System:      llm.LabelSystemPrompt,
		Prompt:      llm.BuildLabelPrompt(text, s.opts.Labels),
		Model:       s.opts.Model,
		MaxTokens:   s.opts.MaxTokens,
		Temperature: s.opts.Temperature,
	})
	if err != nil {
		return nil, err
	}

	return llm.ParseLabelScores(resp.Content, s.opts.Labels)
}
