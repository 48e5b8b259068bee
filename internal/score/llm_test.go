package score

import (
	"context"
	"errors"
	"strings"
	"sync"
	"testing"

	"github.com/ppiankov/fundus/internal/llm"
	"github.com/ppiankov/fundus/internal/model"
	"github.com/ppiankov/fundus/internal/worker"
)

// mockProvider records prompts and replies with a fixed body
type mockProvider struct {
	mu      sync.Mutex
	reply   string
	err     error
	prompts []string
}

func (m *mockProvider) Name() string                         { return "mock" }
func (m *mockProvider) Endpoint() string                     { return "http://llm.local" }
func (m *mockProvider) IsAvailable(ctx context.Context) bool { return true }

func (m *mockProvider) Complete(ctx context.Context, req llm.CompletionRequest) (*llm.CompletionResponse, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.prompts = append(m.prompts, req.Prompt)
	if m.err != nil {
		return nil, m.err
	}
	return &llm.CompletionResponse{Content: m.reply}, nil
}

func (m *mockProvider) calls() int {
	m.mu.Lock()
	defer m.mu.Unlock()
	return len(m.prompts)
}

func TestLLM_Score(t *testing.T) {
	p := &mockProvider{reply: `{"math": 0.9, "physics": 0.1}`}
	s, err := NewLLM(p, worker.NewLimiter(0, 0), LLMOptions{Labels: []string{"physics", "math"}, TextFields: []string{"text"}})
	if err != nil {
		t.Fatalf("NewLLM failed: %v", err)
	}

	got, err := s.Score(context.Background(), model.MustRecord(map[string]any{"text": "Bruchrechnung"}))
	if err != nil {
		t.Fatalf("Score failed: %v", err)
	}
	if got["math"] != 0.9 || got["physics"] != 0.1 {
		t.Errorf("unexpected scores %v", got)
	}
	if !strings.Contains(p.prompts[0], "Bruchrechnung") {
		t.Errorf("prompt must carry the record text: %q", p.prompts[0])
	}
	if s.Name() != "llm(mock/)[math,physics]" {
		t.Errorf("unexpected name %q", s.Name())
	}
}

func TestLLM_EmptyTextSkipsProvider(t *testing.T) {
	p := &mockProvider{reply: `{}`}
	s, _ := NewLLM(p, nil, LLMOptions{Labels: []string{"math"}, TextFields: []string{"text"}})

	got, err := s.Score(context.Background(), model.MustRecord(map[string]any{"text": "  "}))
	if err != nil || len(got) != 0 {
		t.Errorf("expected empty scores, got %v %v", got, err)
	}
	if p.calls() != 0 {
		t.Error("provider must not be called without text")
	}
}

func TestLLM_Errors(t *testing.T) {
	r := model.MustRecord(map[string]any{"text": "x"})

	failing := &mockProvider{err: errors.New("API error (500)")}
	s, _ := NewLLM(failing, nil, LLMOptions{Labels: []string{"math"}, TextFields: []string{"text"}})
	if _, err := Flat(s).Scorer().Score(context.Background(), r); err == nil {
		t.Error("expected provider error")
	}

	unknown := &mockProvider{reply: `{"chemistry": 0.4}`}
	s, _ = NewLLM(unknown, nil, LLMOptions{Labels: []string{"math"}, TextFields: []string{"text"}})
	if _, _, err := Flat(s).Evaluate(context.Background(), r, thresholds); !errors.Is(err, model.ErrScorerFailure) {
		t.Errorf("unknown label must be a scorer failure, got %v", err)
	}
}

func TestLLM_RateLimitCancelled(t *testing.T) {
	p := &mockProvider{reply: `{"math": 1}`}
	lim := worker.NewLimiter(0.001, 1)
	s, _ := NewLLM(p, lim, LLMOptions{Labels: []string{"math"}, TextFields: []string{"text"}})
	r := model.MustRecord(map[string]any{"text": "x"})

	if _, err := s.Score(context.Background(), r); err != nil {
		t.Fatalf("first call must use the burst: %v", err)
	}

	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	if _, err := s.Score(ctx, r); err == nil {
		t.Error("expected rate limit wait to fail on cancelled context")
	}
	if p.calls() != 1 {
		t.Errorf("expected one provider call, got %d", p.calls())
	}
}

func TestNewLLM_Invalid(t *testing.T) {
	p := &mockProvider{}
	cases := []LLMOptions{
		{TextFields: []string{"text"}},
		{Labels: []string{"math"}},
	}
	for _, opts := range cases {
		if _, err := NewLLM(p, nil, opts); !errors.Is(err, model.ErrConfiguration) {
			t.Errorf("%+v: expected configuration error, got %v", opts, err)
		}
	}
	if _, err := NewLLM(nil, nil, LLMOptions{Labels: []string{"a"}, TextFields: []string{"t"}}); !errors.Is(err, model.ErrConfiguration) {
		t.Errorf("nil provider: expected configuration error, got %v", err)
	}
}
