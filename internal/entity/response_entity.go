// FILE: internal/entity/response_entity.go
package entity

import (
	"time"

	"github.com/google/uuid"
)

type LifecycleState string
type CandidateDisposition string

const (
	LifecycleCreated  LifecycleState = "created"
	LifecycleStarted  LifecycleState = "started"
	LifecycleEnded    LifecycleState = "ended"
	LifecycleAnalysed LifecycleState = "analysed"
	LifecycleFailed   LifecycleState = "failed"

	DispositionNoStatus    CandidateDisposition = "no_status"
	DispositionSelected    CandidateDisposition = "selected"
	DispositionPotential   CandidateDisposition = "potential"
	DispositionNotSelected CandidateDisposition = "not_selected"
)

// rank orders the forward-only lifecycle. Failed sits outside the ordering:
// it is only reachable from started/ended and only left by manual reset.
var lifecycleRank = map[LifecycleState]int{
	LifecycleCreated:  0,
	LifecycleStarted:  1,
	LifecycleEnded:    2,
	LifecycleAnalysed: 3,
}

// AtLeast reports whether s has already reached target in the forward order.
func (s LifecycleState) AtLeast(target LifecycleState) bool {
	sr, ok1 := lifecycleRank[s]
	tr, ok2 := lifecycleRank[target]
	if !ok1 || !ok2 {
		return false
	}
	return sr >= tr
}

// Response is one candidate's single pass through one interview.
// CallId is the provider-assigned correlation key and exists before the row does.
type Response struct {
	Id                 uuid.UUID
	CallId             string
	InterviewId        uuid.UUID
	RespondentIdentity *string
	DisplayName        *string
	State              LifecycleState
	DurationSeconds    int
	TabSwitchCount     int
	CallDetail         *CallDetail
	Analytics          *ScoreDocument
	Disposition        CandidateDisposition
	FailureReason      *string
	CreatedAt          time.Time
	UpdatedAt          time.Time
}

// CallDetail is the provider's call record, stored write-once on the response.
type CallDetail struct {
	Transcript     string  `json:"transcript"`
	StartTimestamp int64   `json:"start_timestamp"` // epoch millis
	EndTimestamp   int64   `json:"end_timestamp"`   // epoch millis
	RecordingURL   string  `json:"recording_url,omitempty"`
	Sentiment      string  `json:"sentiment,omitempty"`
	Summary        string  `json:"summary,omitempty"`
}

// IsEmpty reports whether the detail carries nothing worth persisting.
// Bare call_ended webhooks with a failed provider fetch produce these;
// writing one would occupy the write-once call_detail slot forever.
func (d *CallDetail) IsEmpty() bool {
	return d == nil || (d.Transcript == "" && d.StartTimestamp == 0 &&
		d.EndTimestamp == 0 && d.RecordingURL == "")
}

// DurationSeconds derives the call length from provider timestamps,
// rounded down to whole seconds. Never negative.
func (d *CallDetail) DurationSeconds() int {
	if d == nil || d.EndTimestamp <= d.StartTimestamp {
		return 0
	}
	return int((d.EndTimestamp - d.StartTimestamp) / 1000)
}
