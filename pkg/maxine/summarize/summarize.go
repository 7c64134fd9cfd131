// Package summarize shrinks text to fit a hard length ceiling by repeatedly
// asking a language model for a TLDR of its own previous output.
//
// Models do not reliably honour length instructions, so Summarizer runs a
// bounded fixed-point loop: generate, strip any reasoning preamble, check the
// length, and feed the result back in until it fits or the attempt budget
// runs out.
package summarize

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"strings"
	"unicode/utf8"
)

// ReasoningDelimiter closes the "thinking" segment some models emit before
// their answer.
const ReasoningDelimiter = "</think>"

// Instruction is the system prompt sent on every attempt.
const Instruction = "You are excellent at creating concise summaries of text. " +
	"Your goal is to create a TLDR (Too Long; Didn't Read) version that captures " +
	"the main points while being significantly shorter. " +
	"You must keep your response under 1024 characters."

// Defaults match Discord's embed field limit.
const (
	DefaultMaxLen      = 1024
	DefaultMaxAttempts = 5
)

// ErrNotConvergent is returned when every attempt exceeded the budget.
var ErrNotConvergent = errors.New("summarize: summary did not fit within the length limit")

// NotConvergentError reports the failed loop. It matches ErrNotConvergent.
type NotConvergentError struct {
	Attempts int
	MaxLen   int
	LastLen  int
}

func (e *NotConvergentError) Error() string {
	return fmt.Sprintf("summarize: still %d characters (limit %d) after %d attempts", e.LastLen, e.MaxLen, e.Attempts)
}

func (e *NotConvergentError) Is(target error) bool { return target == ErrNotConvergent }

// Generator produces text from a system instruction and a user prompt.
type Generator interface {
	Generate(ctx context.Context, system, prompt string) (string, error)
}

// GeneratorFunc adapts a function to Generator.
type GeneratorFunc func(ctx context.Context, system, prompt string) (string, error)

// Generate calls f.
func (f GeneratorFunc) Generate(ctx context.Context, system, prompt string) (string, error) {
	return f(ctx, system, prompt)
}

// Summarizer runs the bounded summarization loop.
type Summarizer struct {
	Generator   Generator
	MaxLen      int
	MaxAttempts int
	Logger      *slog.Logger
}

// New returns a Summarizer with default limits.
func New(gen Generator, logger *slog.Logger) *Summarizer {
	return &Summarizer{
		Generator:   gen,
		MaxLen:      DefaultMaxLen,
		MaxAttempts: DefaultMaxAttempts,
		Logger:      logger,
	}
}

// Summarize returns a summary of text no longer than MaxLen characters.
// At least one generation call is always made, even for short or empty
// input. After MaxAttempts oversized results it fails with ErrNotConvergent
// and makes no further calls.
func (s *Summarizer) Summarize(ctx context.Context, text string) (string, error) {
	maxLen := s.MaxLen
	if maxLen <= 0 {
		maxLen = DefaultMaxLen
	}
	maxAttempts := s.MaxAttempts
	if maxAttempts <= 0 {
		maxAttempts = DefaultMaxAttempts
	}
	logger := s.Logger
	if logger == nil {
		logger = slog.Default()
	}

	current := text
	lastLen := 0
	for attempt := 1; attempt <= maxAttempts; attempt++ {
		if err := ctx.Err(); err != nil {
			return "", err
		}

		raw, err := s.Generator.Generate(ctx, Instruction, "Create a TLDR version of this text: "+current)
		if err != nil {
			return "", fmt.Errorf("summarize: attempt %d: %w", attempt, err)
		}

		result := StripReasoning(raw)
		lastLen = utf8.RuneCountInString(result)
		if lastLen <= maxLen {
			return result, nil
		}

		logger.Debug("summarize: result too long, summarizing again",
			"attempt", attempt, "length", lastLen, "max_len", maxLen)
		current = result
	}

	return "", &NotConvergentError{Attempts: maxAttempts, MaxLen: maxLen, LastLen: lastLen}
}

// StripReasoning keeps only the text after the last ReasoningDelimiter and
// trims surrounding whitespace. Without a delimiter the whole response is
// used.
func StripReasoning(response string) string {
	if i := strings.LastIndex(response, ReasoningDelimiter); i >= 0 {
		response = response[i+len(ReasoningDelimiter):]
	}
	return strings.TrimSpace(response)
}

// Fits reports whether text is within maxLen characters.
func Fits(text string, maxLen int) bool {
	return utf8.RuneCountInString(text) <= maxLen
}
