// FILE: pkg/scoring/scorer.go
package scoring

import (
	"context"
	"encoding/json"
	"fmt"
	"strings"
	"time"

	"ai-interview-be/internal/entity"
	"ai-interview-be/pkg/faults"
	"ai-interview-be/pkg/llm"
)

// Scorer turns a finished interview transcript into a structured score
// document. Implementations own the retry policy: transient provider errors
// are retried with backoff up to a fixed budget, everything else surfaces
// immediately.
type Scorer interface {
	Score(ctx context.Context, transcript string, questions []entity.Question) (*entity.ScoreDocument, error)
}

const (
	defaultMaxAttempts    = 5
	defaultAttemptTimeout = 60 * time.Second
	defaultInitialBackoff = 1 * time.Second
)

type LLMScorer struct {
	provider llm.LLMProvider

	maxAttempts    int
	attemptTimeout time.Duration
	initialBackoff time.Duration
}

var _ Scorer = &LLMScorer{}

type LLMScorerOption func(*LLMScorer)

// WithRetryPolicy overrides the attempt budget and backoff base. Tests use
// this to avoid real sleeps.
func WithRetryPolicy(maxAttempts int, attemptTimeout, initialBackoff time.Duration) LLMScorerOption {
	return func(s *LLMScorer) {
		s.maxAttempts = maxAttempts
		s.attemptTimeout = attemptTimeout
		s.initialBackoff = initialBackoff
	}
}

func NewLLMScorer(provider llm.LLMProvider, opts ...LLMScorerOption) *LLMScorer {
	s := &LLMScorer{
		provider:       provider,
		maxAttempts:    defaultMaxAttempts,
		attemptTimeout: defaultAttemptTimeout,
		initialBackoff: defaultInitialBackoff,
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

func (s *LLMScorer) Score(ctx context.Context, transcript string, questions []entity.Question) (*entity.ScoreDocument, error) {
	if strings.TrimSpace(transcript) == "" {
		return nil, faults.Permanent("NoTranscript", fmt.Errorf("transcript is empty"))
	}
	if len(questions) == 0 {
		return nil, faults.Permanent("NoQuestions", fmt.Errorf("no questions configured"))
	}

	history := []llm.Message{
		{Role: "system", Content: systemPrompt},
		{Role: "user", Content: buildUserPrompt(transcript, questions)},
	}

	raw, err := s.callWithRetry(ctx, history)
	if err != nil {
		return nil, err
	}

	var doc entity.ScoreDocument
	if err := json.Unmarshal([]byte(stripCodeFences(raw)), &doc); err != nil {
		// Retrying the same prompt on a parse failure is not safe to
		// assume productive; surface for operator inspection instead.
		return nil, faults.Permanent("MalformedScoreDocument", err)
	}
	if err := doc.Validate(); err != nil {
		return nil, faults.Permanent("MalformedScoreDocument", err)
	}
	return &doc, nil
}

func (s *LLMScorer) callWithRetry(ctx context.Context, history []llm.Message) (string, error) {
	backoff := s.initialBackoff
	var lastErr error

	for attempt := 1; attempt <= s.maxAttempts; attempt++ {
		attemptCtx, cancel := context.WithTimeout(ctx, s.attemptTimeout)
		raw, err := s.provider.Chat(attemptCtx, history, llm.WithJSONMode(), llm.WithTemperature(0.2))
		cancel()

		if err == nil {
			return raw, nil
		}
		if !faults.IsKind(err, faults.KindTransient) {
			return "", err
		}
		lastErr = err

		if attempt == s.maxAttempts {
			break
		}
		select {
		case <-ctx.Done():
			return "", faults.Transient("ScoringCancelled", ctx.Err())
		case <-time.After(backoff):
		}
		backoff *= 2
	}
	return "", faults.Transient("ScoringRetriesExhausted",
		fmt.Errorf("gave up after %d attempts: %w", s.maxAttempts, lastErr))
}

// stripCodeFences tolerates models that wrap JSON in a markdown block even
// when asked not to.
func stripCodeFences(raw string) string {
	trimmed := strings.TrimSpace(raw)
	if !strings.HasPrefix(trimmed, "```") {
		return trimmed
	}
	trimmed = strings.TrimPrefix(trimmed, "```json")
	trimmed = strings.TrimPrefix(trimmed, "```")
	trimmed = strings.TrimSuffix(strings.TrimSpace(trimmed), "```")
	return strings.TrimSpace(trimmed)
}
