// FILE: pkg/scoring/prompt.go
package scoring

import (
	"fmt"
	"strings"

	"ai-interview-be/internal/entity"
)

const systemPrompt = `You are an interview analyst. You are given the transcript of a voice interview between an AI interviewer (Agent) and a candidate (User), together with the list of main questions the interviewer was asked to cover.

Evaluate the candidate's answers and respond with a single JSON object, no markdown, matching this schema:
{
  "overall_score": <integer 0-100>,
  "overall_feedback": "<2-3 sentence assessment>",
  "question_summaries": [
    {"question_id": "<id>", "question": "<question text>", "summary": "<how the candidate handled it>", "score": <integer 0-100>}
  ],
  "soft_skill_summary": "<1-2 sentences on communication and demeanor>",
  "communication": {"score": <number 0-10>, "feedback": "<1 sentence>"}
}

Include one entry in question_summaries per listed question, in order. If a question was never reached, say so in its summary and score it 0.`

func buildUserPrompt(transcript string, questions []entity.Question) string {
	var b strings.Builder

	b.WriteString("Main interview questions:\n")
	for i, q := range questions {
		fmt.Fprintf(&b, "%d. [%s] %s\n", i+1, q.Id, q.Question)
	}

	b.WriteString("\nTranscript:\n")
	b.WriteString(transcript)

	return b.String()
}
