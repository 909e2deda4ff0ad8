// FILE: internal/repository/contract/response_repository.go
package contract

import (
	"context"
	"errors"

	"ai-interview-be/internal/entity"
	"ai-interview-be/internal/repository/specification"

	"github.com/google/uuid"
)

// ErrDuplicateCallId is returned by Create when the unique index on call_id
// rejects the row. The storage layer, not the service, is the authority on
// call_id uniqueness.
var ErrDuplicateCallId = errors.New("call_id already registered")

// ResponseRepository is the single write path to the response record. Every
// state mutation is expressed as a guarded update so concurrent triggers
// cannot regress the lifecycle or double-apply an event.
type ResponseRepository interface {
	Create(ctx context.Context, response *entity.Response) error
	FindByCallId(ctx context.Context, callId string) (*entity.Response, error)
	FindAll(ctx context.Context, specs ...specification.Specification) ([]*entity.Response, error)
	Count(ctx context.Context) (int64, error)

	// HasRespondedBeyondCreated reports whether the identity already has an
	// attempt past the created state for this interview.
	HasRespondedBeyondCreated(ctx context.Context, interviewId uuid.UUID, identity string) (bool, error)

	// TransitionState advances the lifecycle when the current state is in
	// `from`. Returns false without error when the guard did not match,
	// which callers treat as an idempotent no-op.
	TransitionState(ctx context.Context, callId string, from []entity.LifecycleState, to entity.LifecycleState) (bool, error)

	// CompleteCall performs the ended transition in one guarded update:
	// state, duration (set once), write-once call detail and the monotonic
	// tab switch merge.
	CompleteCall(ctx context.Context, callId string, detail *entity.CallDetail, durationSeconds, tabSwitchCount int) (bool, error)

	// StoreCallDetail persists provider call detail only if none is stored yet.
	StoreCallDetail(ctx context.Context, callId string, detail *entity.CallDetail) error

	// SetAnalytics is the compare-and-set that makes analysis exactly-once:
	// the write only lands while analytics is still null.
	SetAnalytics(ctx context.Context, callId string, doc *entity.ScoreDocument, durationSeconds int) (bool, error)

	// BumpTabSwitch merges a heartbeat count with GREATEST semantics.
	BumpTabSwitch(ctx context.Context, callId string, count int) error

	SetDisposition(ctx context.Context, callId string, disposition entity.CandidateDisposition) error
	MarkFailed(ctx context.Context, callId string, reason string) (bool, error)
	ResetFailure(ctx context.Context, callId string) (bool, error)
	Delete(ctx context.Context, callId string) error
}
