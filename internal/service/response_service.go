// FILE: internal/service/response_service.go
package service

import (
	"context"
	"errors"
	"time"

	"ai-interview-be/internal/dto"
	"ai-interview-be/internal/entity"
	"ai-interview-be/internal/pkg/logger"
	"ai-interview-be/internal/pkg/mailer"
	"ai-interview-be/internal/repository/contract"
	"ai-interview-be/internal/repository/specification"
	"ai-interview-be/internal/repository/unitofwork"
	"ai-interview-be/pkg/callprovider"
	"ai-interview-be/pkg/events"
	"ai-interview-be/pkg/faults"
	pktNats "ai-interview-be/pkg/nats"

	"github.com/google/uuid"
)

type IResponseService interface {
	RegisterAttempt(ctx context.Context, req *dto.RegisterResponseRequest) (*dto.RegisterResponseResponse, error)
	CallStarted(ctx context.Context, callId string) error
	CallEnded(ctx context.Context, call *dto.WebhookCall) error
	RecordTabSwitch(ctx context.Context, callId string, count int) error
	SetDisposition(ctx context.Context, callId string, disposition entity.CandidateDisposition) error
	MarkFailed(ctx context.Context, callId string, reason string) error
	ResetFailure(ctx context.Context, callId string) error
	Snapshot(ctx context.Context, callId string) (*dto.ResponseSnapshot, error)
	ListByInterview(ctx context.Context, interviewId uuid.UUID) ([]*dto.ResponseSnapshot, error)
	Delete(ctx context.Context, callId string) error
}

type responseService struct {
	uowFactory         unitofwork.RepositoryFactory
	eligibilityService IEligibilityService
	interviewService   IInterviewService
	callProvider       callprovider.Provider
	eventPublisher     *pktNats.Publisher
	emailService       mailer.IEmailService
	alertEmail         string
	defaultAgentId     string
	logger             logger.ILogger
}

func NewResponseService(
	uowFactory unitofwork.RepositoryFactory,
	eligibilityService IEligibilityService,
	interviewService IInterviewService,
	callProvider callprovider.Provider,
	eventPublisher *pktNats.Publisher,
	emailService mailer.IEmailService,
	alertEmail string,
	defaultAgentId string,
	log logger.ILogger,
) IResponseService {
	return &responseService{
		uowFactory:         uowFactory,
		eligibilityService: eligibilityService,
		interviewService:   interviewService,
		callProvider:       callProvider,
		eventPublisher:     eventPublisher,
		emailService:       emailService,
		alertEmail:         alertEmail,
		defaultAgentId:     defaultAgentId,
		logger:             log,
	}
}

// RegisterAttempt runs the eligibility guard, registers the call with the
// provider and creates the Response in the created state. The storage unique
// index on call_id is the authority on duplicates: a duplicate create is
// reported as success with the already-stored call, never as an error the
// candidate sees.
func (s *responseService) RegisterAttempt(ctx context.Context, req *dto.RegisterResponseRequest) (*dto.RegisterResponseResponse, error) {
	decision, err := s.eligibilityService.MayStart(ctx, req.InterviewId, req.Email)
	if err != nil {
		return nil, err
	}
	if !decision.Allowed {
		return nil, faults.Permanent(decision.ReasonCode, nil)
	}
	interview := decision.Interview

	agentId := req.InterviewerId
	if agentId == "" {
		agentId = s.defaultAgentId
	}

	dynamicContext := make(map[string]string, len(req.DynamicContext)+2)
	for k, v := range req.DynamicContext {
		dynamicContext[k] = v
	}
	dynamicContext["interview_name"] = interview.Name
	if req.Name != "" {
		dynamicContext["candidate_name"] = req.Name
	}

	registered, err := s.callProvider.RegisterCall(ctx, callprovider.RegisterCallRequest{
		AgentId:        agentId,
		DynamicContext: dynamicContext,
	})
	if err != nil {
		return nil, err
	}

	response := entity.Response{
		Id:          uuid.New(),
		CallId:      registered.CallId,
		InterviewId: interview.Id,
		State:       entity.LifecycleCreated,
		Disposition: entity.DispositionNoStatus,
		CreatedAt:   time.Now(),
	}
	if !interview.IsAnonymous {
		if req.Email != "" {
			email := req.Email
			response.RespondentIdentity = &email
		}
		if req.Name != "" {
			name := req.Name
			response.DisplayName = &name
		}
	}

	uow := s.uowFactory.NewUnitOfWork(ctx)
	if err := uow.ResponseRepository().Create(ctx, &response); err != nil {
		if errors.Is(err, contract.ErrDuplicateCallId) {
			// A concurrent trigger already stored this call. Same outcome.
			s.logger.Warn("ResponseService", "duplicate call_id on register, treating as success", map[string]interface{}{
				"call_id": registered.CallId,
			})
			return &dto.RegisterResponseResponse{
				CallId:      registered.CallId,
				AccessToken: registered.AccessToken,
			}, nil
		}
		return nil, err
	}

	newCount, err := uow.InterviewRepository().IncrementResponseCount(ctx, interview.Id)
	if err != nil {
		s.logger.Error("ResponseService", "failed to bump interview response count", map[string]interface{}{
			"interview_id": interview.Id.String(),
			"error":        err.Error(),
		})
	} else if interview.ResponseCap > 0 && newCount >= interview.ResponseCap {
		if err := uow.InterviewRepository().Deactivate(ctx, interview.Id); err != nil {
			s.logger.Error("ResponseService", "failed to deactivate capped interview", map[string]interface{}{
				"interview_id": interview.Id.String(),
				"error":        err.Error(),
			})
		}
		s.interviewService.Invalidate(interview.Id)
	}

	s.emitEvent(ctx, events.TypeResponseRegistered, map[string]interface{}{
		"call_id":      response.CallId,
		"interview_id": interview.Id.String(),
	})

	return &dto.RegisterResponseResponse{
		CallId:      registered.CallId,
		AccessToken: registered.AccessToken,
	}, nil
}

// CallStarted moves created → started. A record already at started or
// beyond leaves the guard unmatched and the event is a no-op.
func (s *responseService) CallStarted(ctx context.Context, callId string) error {
	uow := s.uowFactory.NewUnitOfWork(ctx)
	moved, err := uow.ResponseRepository().TransitionState(ctx, callId,
		[]entity.LifecycleState{entity.LifecycleCreated}, entity.LifecycleStarted)
	if err != nil {
		return err
	}
	if !moved {
		s.logger.Debug("ResponseService", "call_started ignored, state already advanced", map[string]interface{}{
			"call_id": callId,
		})
	}
	return nil
}

// CallEnded moves the record to ended and stores the call detail write-once.
// Duration comes from provider timestamps, computed exactly once. A
// call_ended arriving before call_started still advances the record; the
// furthest-forward event wins.
func (s *responseService) CallEnded(ctx context.Context, call *dto.WebhookCall) error {
	detail := &entity.CallDetail{
		Transcript:     call.Transcript,
		StartTimestamp: call.StartTimestamp,
		EndTimestamp:   call.EndTimestamp,
		RecordingURL:   call.RecordingURL,
	}

	// Some providers send a bare call_ended and expose the transcript only
	// through the detail API. Best effort here: the analysis path fetches
	// again if this copy stays empty.
	if detail.Transcript == "" && detail.StartTimestamp == 0 {
		if fetched, err := s.callProvider.GetCall(ctx, call.CallId); err == nil {
			detail = providerDetailToEntity(fetched)
		} else {
			s.logger.Warn("ResponseService", "call detail fetch failed on call_ended", map[string]interface{}{
				"call_id": call.CallId,
				"error":   err.Error(),
			})
		}
	}

	uow := s.uowFactory.NewUnitOfWork(ctx)
	moved, err := uow.ResponseRepository().CompleteCall(ctx, call.CallId, detail, detail.DurationSeconds(), call.TabSwitchCount)
	if err != nil {
		return err
	}
	if !moved {
		// Already ended or beyond. The detail write-once and the monotonic
		// tab-switch merge still apply for late duplicates.
		if detail.Transcript != "" {
			if err := uow.ResponseRepository().StoreCallDetail(ctx, call.CallId, detail); err != nil {
				return err
			}
		}
		if call.TabSwitchCount > 0 {
			if err := uow.ResponseRepository().BumpTabSwitch(ctx, call.CallId, call.TabSwitchCount); err != nil {
				return err
			}
		}
	}
	return nil
}

// RecordTabSwitch merges the client heartbeat with monotonic-max semantics:
// out-of-order heartbeats never lower the stored count.
func (s *responseService) RecordTabSwitch(ctx context.Context, callId string, count int) error {
	uow := s.uowFactory.NewUnitOfWork(ctx)
	return uow.ResponseRepository().BumpTabSwitch(ctx, callId, count)
}

func (s *responseService) SetDisposition(ctx context.Context, callId string, disposition entity.CandidateDisposition) error {
	uow := s.uowFactory.NewUnitOfWork(ctx)
	return uow.ResponseRepository().SetDisposition(ctx, callId, disposition)
}

// MarkFailed is the hard-failure transition: started/ended → failed,
// terminal for the automatic pipeline. Fires the operator alert mail and a
// domain event when the transition actually lands.
func (s *responseService) MarkFailed(ctx context.Context, callId string, reason string) error {
	uow := s.uowFactory.NewUnitOfWork(ctx)
	moved, err := uow.ResponseRepository().MarkFailed(ctx, callId, reason)
	if err != nil {
		return err
	}
	if !moved {
		return nil
	}

	if s.emailService != nil && s.alertEmail != "" {
		if err := s.emailService.SendPipelineFailureAlert(s.alertEmail, callId, reason); err != nil {
			s.logger.Error("ResponseService", "failure alert mail not sent", map[string]interface{}{
				"call_id": callId,
				"error":   err.Error(),
			})
		}
	}

	s.emitEvent(ctx, events.TypeResponseFailed, map[string]interface{}{
		"call_id": callId,
		"reason":  reason,
	})
	return nil
}

// ResetFailure is the manual escape hatch: failed → ended, clearing the
// failure reason so the analysis pipeline may be retried.
func (s *responseService) ResetFailure(ctx context.Context, callId string) error {
	uow := s.uowFactory.NewUnitOfWork(ctx)
	moved, err := uow.ResponseRepository().ResetFailure(ctx, callId)
	if err != nil {
		return err
	}
	if !moved {
		return faults.Conflict("NotFailed", nil)
	}
	return nil
}

func (s *responseService) Snapshot(ctx context.Context, callId string) (*dto.ResponseSnapshot, error) {
	uow := s.uowFactory.NewUnitOfWork(ctx)
	response, err := uow.ResponseRepository().FindByCallId(ctx, callId)
	if err != nil {
		return nil, err
	}
	if response == nil {
		return nil, faults.NotFound("ResponseNotFound", nil)
	}
	return snapshotOf(response), nil
}

func (s *responseService) ListByInterview(ctx context.Context, interviewId uuid.UUID) ([]*dto.ResponseSnapshot, error) {
	uow := s.uowFactory.NewUnitOfWork(ctx)
	responses, err := uow.ResponseRepository().FindAll(ctx, specification.ByInterview{InterviewId: interviewId})
	if err != nil {
		return nil, err
	}

	snapshots := make([]*dto.ResponseSnapshot, 0, len(responses))
	for _, r := range responses {
		snapshots = append(snapshots, snapshotOf(r))
	}
	return snapshots, nil
}

func (s *responseService) Delete(ctx context.Context, callId string) error {
	uow := s.uowFactory.NewUnitOfWork(ctx)
	return uow.ResponseRepository().Delete(ctx, callId)
}

func (s *responseService) emitEvent(ctx context.Context, eventType string, data map[string]interface{}) {
	if s.eventPublisher == nil {
		return
	}
	evt := events.BaseEvent{
		Type:       eventType,
		Data:       data,
		OccurredAt: time.Now(),
	}
	// Events feed dashboards; losing one never fails the request.
	if err := s.eventPublisher.Publish(ctx, evt); err != nil {
		s.logger.Warn("ResponseService", "event publish failed", map[string]interface{}{
			"type":  eventType,
			"error": err.Error(),
		})
	}
}

func snapshotOf(r *entity.Response) *dto.ResponseSnapshot {
	snap := &dto.ResponseSnapshot{
		CallId:          r.CallId,
		InterviewId:     r.InterviewId,
		State:           string(r.State),
		DurationSeconds: r.DurationSeconds,
		TabSwitchCount:  r.TabSwitchCount,
		Disposition:     string(r.Disposition),
		Analytics:       r.Analytics,
		FailureReason:   r.FailureReason,
		CreatedAt:       r.CreatedAt,
		UpdatedAt:       r.UpdatedAt,
	}
	if r.CallDetail != nil {
		snap.RecordingURL = r.CallDetail.RecordingURL
	}
	return snap
}

func providerDetailToEntity(d *callprovider.CallDetail) *entity.CallDetail {
	detail := &entity.CallDetail{
		Transcript:     d.Transcript,
		StartTimestamp: d.StartTimestamp,
		EndTimestamp:   d.EndTimestamp,
		RecordingURL:   d.RecordingURL,
	}
	if d.CallAnalysis != nil {
		detail.Sentiment = d.CallAnalysis.UserSentiment
		detail.Summary = d.CallAnalysis.CallSummary
	}
	return detail
}
