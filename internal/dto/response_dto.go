// FILE: internal/dto/response_dto.go
package dto

import (
	"time"

	"ai-interview-be/internal/entity"

	"github.com/google/uuid"
)

// RegisterResponseRequest starts a new interview attempt. Email is required
// unless the interview is anonymous; the gateway enforces that server-side.
type RegisterResponseRequest struct {
	InterviewId    uuid.UUID         `json:"interview_id" validate:"required"`
	InterviewerId  string            `json:"interviewer_id,omitempty"`
	Email          string            `json:"email,omitempty" validate:"omitempty,email"`
	Name           string            `json:"name,omitempty"`
	DynamicContext map[string]string `json:"dynamic_context,omitempty"`
}

// RegisterResponseResponse carries the credential needed to join the call.
type RegisterResponseResponse struct {
	CallId      string `json:"call_id"`
	AccessToken string `json:"access_token"`
}

// ResponseSnapshot is the poll/refresh view of one attempt.
type ResponseSnapshot struct {
	CallId          string                `json:"call_id"`
	InterviewId     uuid.UUID             `json:"interview_id"`
	State           string                `json:"lifecycle_state"`
	DurationSeconds int                   `json:"duration_seconds"`
	TabSwitchCount  int                   `json:"tab_switch_count"`
	Disposition     string                `json:"candidate_disposition"`
	Analytics       *entity.ScoreDocument `json:"analytics,omitempty"`
	RecordingURL    string                `json:"recording_url,omitempty"`
	FailureReason   *string               `json:"failure_reason,omitempty"`
	CreatedAt       time.Time             `json:"created_at"`
	UpdatedAt       time.Time             `json:"updated_at"`
}

type TabSwitchRequest struct {
	Count int `json:"count" validate:"min=0"`
}

type DispositionRequest struct {
	Disposition string `json:"disposition" validate:"required,oneof=no_status selected potential not_selected"`
}

type FailRequest struct {
	Reason string `json:"reason" validate:"required"`
}
