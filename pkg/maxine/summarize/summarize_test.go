package summarize

import (
	"context"
	"errors"
	"strings"
	"testing"
)

// scriptedGenerator returns canned responses in order and records prompts.
type scriptedGenerator struct {
	responses []string
	prompts   []string
	err       error
}

func (g *scriptedGenerator) Generate(_ context.Context, system, prompt string) (string, error) {
	if system != Instruction {
		return "", errors.New("unexpected system prompt")
	}
	g.prompts = append(g.prompts, prompt)
	if g.err != nil {
		return "", g.err
	}
	i := len(g.prompts) - 1
	if i >= len(g.responses) {
		i = len(g.responses) - 1
	}
	return g.responses[i], nil
}

func TestStripReasoning(t *testing.T) {
	tests := []struct {
		in, want string
	}{
		{"plain answer", "plain answer"},
		{"  padded \n", "padded"},
		{"<think>hmm</think>\n\nanswer", "answer"},
		{"<think>a</think>x<think>b</think>  final ", "final"},
		{"</think>", ""},
		{"", ""},
	}
	for _, tt := range tests {
		if got := StripReasoning(tt.in); got != tt.want {
			t.Errorf("StripReasoning(%q) = %q, want %q", tt.in, got, tt.want)
		}
	}
}

func TestSummarize_ShortInputSingleCall(t *testing.T) {
	for _, input := range []string{"", "short text", strings.Repeat("a", 20)} {
		gen := &scriptedGenerator{responses: []string{"<think>thinking</think> tiny"}}
		s := &Summarizer{Generator: gen, MaxLen: 20, MaxAttempts: 3}

		got, err := s.Summarize(context.Background(), input)
		if err != nil {
			t.Fatalf("Summarize(%q): %v", input, err)
		}
		if got != "tiny" {
			t.Errorf("got %q, want %q", got, "tiny")
		}
		if len(gen.prompts) != 1 {
			t.Errorf("expected exactly one generation call, got %d", len(gen.prompts))
		}
		if gen.prompts[0] != "Create a TLDR version of this text: "+input {
			t.Errorf("unexpected prompt %q", gen.prompts[0])
		}
	}
}

func TestSummarize_ConvergesAfterRetries(t *testing.T) {
	long := strings.Repeat("x", 50)
	gen := &scriptedGenerator{responses: []string{long, "<think>...</think>" + long[:30], "done"}}
	s := &Summarizer{Generator: gen, MaxLen: 10, MaxAttempts: 5}

	got, err := s.Summarize(context.Background(), "input")
	if err != nil {
		t.Fatalf("Summarize: %v", err)
	}
	if got != "done" {
		t.Errorf("got %q", got)
	}
	if len(gen.prompts) != 3 {
		t.Fatalf("expected 3 calls, got %d", len(gen.prompts))
	}
	// Each retry feeds the previous (stripped) result back in.
	if !strings.HasSuffix(gen.prompts[1], long) || !strings.HasSuffix(gen.prompts[2], long[:30]) {
		t.Errorf("retries did not use previous output: %q", gen.prompts)
	}
}

func TestSummarize_NotConvergent(t *testing.T) {
	gen := &scriptedGenerator{responses: []string{strings.Repeat("y", 100)}}
	s := &Summarizer{Generator: gen, MaxLen: 10, MaxAttempts: 4}

	_, err := s.Summarize(context.Background(), "input")
	if !errors.Is(err, ErrNotConvergent) {
		t.Fatalf("expected ErrNotConvergent, got %v", err)
	}
	var nce *NotConvergentError
	if !errors.As(err, &nce) || nce.Attempts != 4 || nce.LastLen != 100 {
		t.Errorf("unexpected error detail: %#v", err)
	}
	if len(gen.prompts) != 4 {
		t.Errorf("expected exactly 4 calls, got %d", len(gen.prompts))
	}
}

func TestSummarize_CountsRunes(t *testing.T) {
	gen := &scriptedGenerator{responses: []string{"héllo wörld"}}
	s := &Summarizer{Generator: gen, MaxLen: 11, MaxAttempts: 1}

	if _, err := s.Summarize(context.Background(), "x"); err != nil {
		t.Fatalf("11 runes should fit a limit of 11: %v", err)
	}
}

func TestSummarize_GeneratorError(t *testing.T) {
	boom := errors.New("model offline")
	gen := &scriptedGenerator{err: boom}
	s := New(gen, nil)

	_, err := s.Summarize(context.Background(), "input")
	if !errors.Is(err, boom) {
		t.Fatalf("expected generator error, got %v", err)
	}
	if len(gen.prompts) != 1 {
		t.Errorf("expected no retry after a generator error, got %d calls", len(gen.prompts))
	}
}

func TestSummarize_ContextCancelled(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	calls := 0
	gen := GeneratorFunc(func(context.Context, string, string) (string, error) {
		calls++
		cancel()
		return strings.Repeat("z", 100), nil
	})
	s := &Summarizer{Generator: gen, MaxLen: 10, MaxAttempts: 5}

	_, err := s.Summarize(ctx, "input")
	if !errors.Is(err, context.Canceled) {
		t.Fatalf("expected context.Canceled, got %v", err)
	}
	if calls != 1 {
		t.Errorf("expected 1 call before cancellation, got %d", calls)
	}
}
