// FILE: internal/repository/memory/response_repository.go
package memory

import (
	"context"
	"sync"
	"time"

	"ai-interview-be/internal/entity"
	"ai-interview-be/internal/repository/contract"
	"ai-interview-be/internal/repository/specification"

	"github.com/google/uuid"
)

// ResponseRepository is an in-memory contract.ResponseRepository with the
// same guarded-update semantics as the Postgres implementation. Used by unit
// tests and local development without a database.
type ResponseRepository struct {
	mu        sync.Mutex
	responses map[string]*entity.Response // keyed by call_id

	// Err, when set, is returned by read operations. Lets tests exercise
	// storage-failure paths (eligibility fail-open).
	Err error
}

func NewResponseRepository() *ResponseRepository {
	return &ResponseRepository{
		responses: make(map[string]*entity.Response),
	}
}

func cloneResponse(r *entity.Response) *entity.Response {
	if r == nil {
		return nil
	}
	c := *r
	if r.CallDetail != nil {
		d := *r.CallDetail
		c.CallDetail = &d
	}
	if r.Analytics != nil {
		a := *r.Analytics
		c.Analytics = &a
	}
	return &c
}

func (m *ResponseRepository) Create(ctx context.Context, response *entity.Response) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if _, exists := m.responses[response.CallId]; exists {
		return contract.ErrDuplicateCallId
	}
	if response.Id == uuid.Nil {
		response.Id = uuid.New()
	}
	now := time.Now()
	response.CreatedAt = now
	response.UpdatedAt = now
	m.responses[response.CallId] = cloneResponse(response)
	return nil
}

func (m *ResponseRepository) FindByCallId(ctx context.Context, callId string) (*entity.Response, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.Err != nil {
		return nil, m.Err
	}
	return cloneResponse(m.responses[callId]), nil
}

func (m *ResponseRepository) FindAll(ctx context.Context, specs ...specification.Specification) ([]*entity.Response, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.Err != nil {
		return nil, m.Err
	}
	var out []*entity.Response
	for _, r := range m.responses {
		if matches(r, specs) {
			out = append(out, cloneResponse(r))
		}
	}
	return out, nil
}

func matches(r *entity.Response, specs []specification.Specification) bool {
	for _, spec := range specs {
		switch s := spec.(type) {
		case specification.ByCallId:
			if r.CallId != s.CallId {
				return false
			}
		case specification.ByInterview:
			if r.InterviewId != s.InterviewId {
				return false
			}
		case specification.ByRespondentIdentity:
			if r.RespondentIdentity == nil || *r.RespondentIdentity != s.Identity {
				return false
			}
		case specification.StateIn:
			found := false
			for _, st := range s.States {
				if string(r.State) == st {
					found = true
					break
				}
			}
			if !found {
				return false
			}
		}
	}
	return true
}

func (m *ResponseRepository) Count(ctx context.Context) (int64, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.Err != nil {
		return 0, m.Err
	}
	return int64(len(m.responses)), nil
}

func (m *ResponseRepository) HasRespondedBeyondCreated(ctx context.Context, interviewId uuid.UUID, identity string) (bool, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.Err != nil {
		return false, m.Err
	}
	for _, r := range m.responses {
		if r.InterviewId == interviewId &&
			r.RespondentIdentity != nil && *r.RespondentIdentity == identity &&
			r.State != entity.LifecycleCreated {
			return true, nil
		}
	}
	return false, nil
}

func stateIn(state entity.LifecycleState, from []entity.LifecycleState) bool {
	for _, f := range from {
		if state == f {
			return true
		}
	}
	return false
}

func (m *ResponseRepository) TransitionState(ctx context.Context, callId string, from []entity.LifecycleState, to entity.LifecycleState) (bool, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	r, ok := m.responses[callId]
	if !ok || !stateIn(r.State, from) {
		return false, nil
	}
	r.State = to
	r.UpdatedAt = time.Now()
	return true, nil
}

func (m *ResponseRepository) CompleteCall(ctx context.Context, callId string, detail *entity.CallDetail, durationSeconds, tabSwitchCount int) (bool, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	r, ok := m.responses[callId]
	if !ok || !stateIn(r.State, []entity.LifecycleState{entity.LifecycleCreated, entity.LifecycleStarted}) {
		return false, nil
	}
	r.State = entity.LifecycleEnded
	r.DurationSeconds = durationSeconds
	if r.CallDetail == nil && !detail.IsEmpty() {
		d := *detail
		r.CallDetail = &d
	}
	if tabSwitchCount > r.TabSwitchCount {
		r.TabSwitchCount = tabSwitchCount
	}
	r.UpdatedAt = time.Now()
	return true, nil
}

func (m *ResponseRepository) StoreCallDetail(ctx context.Context, callId string, detail *entity.CallDetail) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	r, ok := m.responses[callId]
	if !ok || r.CallDetail != nil || detail.IsEmpty() {
		return nil
	}
	d := *detail
	r.CallDetail = &d
	r.UpdatedAt = time.Now()
	return nil
}

func (m *ResponseRepository) SetAnalytics(ctx context.Context, callId string, doc *entity.ScoreDocument, durationSeconds int) (bool, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	r, ok := m.responses[callId]
	if !ok || r.Analytics != nil || r.State == entity.LifecycleFailed {
		return false, nil
	}
	d := *doc
	r.Analytics = &d
	r.State = entity.LifecycleAnalysed
	if r.DurationSeconds == 0 {
		r.DurationSeconds = durationSeconds
	}
	r.UpdatedAt = time.Now()
	return true, nil
}

func (m *ResponseRepository) BumpTabSwitch(ctx context.Context, callId string, count int) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	r, ok := m.responses[callId]
	if !ok || r.State == entity.LifecycleAnalysed {
		return nil
	}
	if count > r.TabSwitchCount {
		r.TabSwitchCount = count
	}
	r.UpdatedAt = time.Now()
	return nil
}

func (m *ResponseRepository) SetDisposition(ctx context.Context, callId string, disposition entity.CandidateDisposition) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if r, ok := m.responses[callId]; ok {
		r.Disposition = disposition
		r.UpdatedAt = time.Now()
	}
	return nil
}

func (m *ResponseRepository) MarkFailed(ctx context.Context, callId string, reason string) (bool, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	r, ok := m.responses[callId]
	if !ok || !stateIn(r.State, []entity.LifecycleState{entity.LifecycleStarted, entity.LifecycleEnded}) {
		return false, nil
	}
	r.State = entity.LifecycleFailed
	r.FailureReason = &reason
	r.UpdatedAt = time.Now()
	return true, nil
}

func (m *ResponseRepository) ResetFailure(ctx context.Context, callId string) (bool, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	r, ok := m.responses[callId]
	if !ok || r.State != entity.LifecycleFailed {
		return false, nil
	}
	r.State = entity.LifecycleEnded
	r.FailureReason = nil
	r.UpdatedAt = time.Now()
	return true, nil
}

func (m *ResponseRepository) Delete(ctx context.Context, callId string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	delete(m.responses, callId)
	return nil
}
