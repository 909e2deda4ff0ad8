package scoring

import (
	"context"
	"testing"
	"time"

	"ai-interview-be/internal/entity"
	"ai-interview-be/pkg/faults"
	"ai-interview-be/pkg/llm"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const validDoc = `{
	"overall_score": 82,
	"overall_feedback": "Strong practical answers.",
	"question_summaries": [
		{"question_id": "q1", "summary": "Described a payments project in depth.", "score": 85}
	],
	"soft_skill_summary": "Clear and structured communicator."
}`

// scriptedProvider replays a fixed sequence of responses.
type scriptedProvider struct {
	responses []string
	errs      []error
	calls     int
}

func (p *scriptedProvider) Chat(ctx context.Context, history []llm.Message, options ...llm.Option) (string, error) {
	i := p.calls
	p.calls++
	if i >= len(p.responses) {
		i = len(p.responses) - 1
	}
	return p.responses[i], p.errs[i]
}

func (p *scriptedProvider) Generate(ctx context.Context, prompt string, options ...llm.Option) (string, error) {
	return p.Chat(ctx, nil)
}

func fastRetry() LLMScorerOption {
	return WithRetryPolicy(5, time.Second, time.Millisecond)
}

var questions = []entity.Question{{Id: "q1", Question: "Tell me about a project."}}

func TestScoreHappyPath(t *testing.T) {
	provider := &scriptedProvider{responses: []string{validDoc}, errs: []error{nil}}
	scorer := NewLLMScorer(provider, fastRetry())

	doc, err := scorer.Score(context.Background(), "Agent: hi\nUser: hello", questions)
	require.NoError(t, err)
	assert.Equal(t, 82, doc.OverallScore)
	assert.Len(t, doc.QuestionSummaries, 1)
	assert.Equal(t, 1, provider.calls)
}

func TestScoreStripsCodeFences(t *testing.T) {
	fenced := "```json\n" + validDoc + "\n```"
	provider := &scriptedProvider{responses: []string{fenced}, errs: []error{nil}}
	scorer := NewLLMScorer(provider, fastRetry())

	doc, err := scorer.Score(context.Background(), "transcript", questions)
	require.NoError(t, err)
	assert.Equal(t, 82, doc.OverallScore)
}

func TestScoreRetriesTransientThenSucceeds(t *testing.T) {
	provider := &scriptedProvider{
		responses: []string{"", "", validDoc},
		errs:      []error{faults.Transient("RateLimited", nil), faults.Transient("RateLimited", nil), nil},
	}
	scorer := NewLLMScorer(provider, fastRetry())

	doc, err := scorer.Score(context.Background(), "transcript", questions)
	require.NoError(t, err)
	assert.Equal(t, 82, doc.OverallScore)
	assert.Equal(t, 3, provider.calls)
}

func TestScoreExhaustsRetryBudget(t *testing.T) {
	provider := &scriptedProvider{
		responses: []string{""},
		errs:      []error{faults.Transient("RateLimited", nil)},
	}
	scorer := NewLLMScorer(provider, fastRetry())

	_, err := scorer.Score(context.Background(), "transcript", questions)
	require.Error(t, err)
	assert.Equal(t, faults.KindTransient, faults.KindOf(err))
	assert.Equal(t, 5, provider.calls)
}

func TestScoreDoesNotRetryUnauthorized(t *testing.T) {
	provider := &scriptedProvider{
		responses: []string{""},
		errs:      []error{faults.Unauthorized("BadKey", nil)},
	}
	scorer := NewLLMScorer(provider, fastRetry())

	_, err := scorer.Score(context.Background(), "transcript", questions)
	require.Error(t, err)
	assert.Equal(t, faults.KindUnauthorized, faults.KindOf(err))
	assert.Equal(t, 1, provider.calls, "auth errors must surface immediately")
}

func TestScoreMalformedDocumentIsPermanent(t *testing.T) {
	cases := map[string]string{
		"not json":          "sorry, I can't do that",
		"missing summaries": `{"overall_score": 50, "question_summaries": []}`,
		"score out of bounds": `{"overall_score": 150,
			"question_summaries": [{"question_id": "q1", "summary": "ok"}]}`,
	}

	for name, raw := range cases {
		t.Run(name, func(t *testing.T) {
			provider := &scriptedProvider{responses: []string{raw}, errs: []error{nil}}
			scorer := NewLLMScorer(provider, fastRetry())

			_, err := scorer.Score(context.Background(), "transcript", questions)
			require.Error(t, err)
			assert.Equal(t, faults.KindPermanent, faults.KindOf(err))
			assert.Equal(t, "MalformedScoreDocument", faults.CodeOf(err))
			assert.Equal(t, 1, provider.calls, "parse failures are never retried")
		})
	}
}

func TestScoreRejectsEmptyInputs(t *testing.T) {
	provider := &scriptedProvider{responses: []string{validDoc}, errs: []error{nil}}
	scorer := NewLLMScorer(provider, fastRetry())

	_, err := scorer.Score(context.Background(), "   ", questions)
	require.Error(t, err)
	assert.Equal(t, "NoTranscript", faults.CodeOf(err))

	_, err = scorer.Score(context.Background(), "transcript", nil)
	require.Error(t, err)
	assert.Equal(t, "NoQuestions", faults.CodeOf(err))

	assert.Equal(t, 0, provider.calls)
}
