// FILE: internal/entity/analytics_entity.go
package entity

import "fmt"

// ScoreDocument is the structured output of the scoring provider.
// The adapter validates it immediately after parsing; everything past the
// adapter boundary can rely on the required fields being present.
type ScoreDocument struct {
	OverallScore     int               `json:"overall_score"`
	OverallFeedback  string            `json:"overall_feedback,omitempty"`
	QuestionSummaries []QuestionSummary `json:"question_summaries"`
	SoftSkillSummary string            `json:"soft_skill_summary,omitempty"`
	Communication    *CommunicationScore `json:"communication,omitempty"`
}

type QuestionSummary struct {
	QuestionId string `json:"question_id"`
	Question   string `json:"question,omitempty"`
	Summary    string `json:"summary"`
	Score      int    `json:"score,omitempty"`
}

type CommunicationScore struct {
	Score    float64 `json:"score"`
	Feedback string  `json:"feedback,omitempty"`
}

// Validate enforces the required shape of a parsed score document.
func (d *ScoreDocument) Validate() error {
	if d == nil {
		return fmt.Errorf("score document is nil")
	}
	if d.OverallScore < 0 || d.OverallScore > 100 {
		return fmt.Errorf("overall_score %d out of range [0,100]", d.OverallScore)
	}
	if len(d.QuestionSummaries) == 0 {
		return fmt.Errorf("question_summaries is empty")
	}
	for i, q := range d.QuestionSummaries {
		if q.Summary == "" {
			return fmt.Errorf("question_summaries[%d].summary is empty", i)
		}
	}
	return nil
}
