// FILE: internal/service/analytics_service.go
package service

import (
	"context"
	"time"

	"ai-interview-be/internal/entity"
	"ai-interview-be/internal/pkg/logger"
	"ai-interview-be/internal/repository/unitofwork"
	"ai-interview-be/pkg/callprovider"
	"ai-interview-be/pkg/events"
	"ai-interview-be/pkg/faults"
	pktNats "ai-interview-be/pkg/nats"
	"ai-interview-be/pkg/scoring"
)

// LifecycleNotifier pushes real-time lifecycle updates to connected
// operators. Typically implemented by the WebSocket hub.
type LifecycleNotifier interface {
	NotifyLifecycle(callId string, interviewId string, state entity.LifecycleState)
}

type IAnalyticsService interface {
	Analyse(ctx context.Context, callId string) (*entity.ScoreDocument, error)
}

type analyticsService struct {
	uowFactory       unitofwork.RepositoryFactory
	interviewService IInterviewService
	callProvider     callprovider.Provider
	scorer           scoring.Scorer
	eventPublisher   *pktNats.Publisher
	notifier         LifecycleNotifier
	logger           logger.ILogger
}

func NewAnalyticsService(
	uowFactory unitofwork.RepositoryFactory,
	interviewService IInterviewService,
	callProvider callprovider.Provider,
	scorer scoring.Scorer,
	eventPublisher *pktNats.Publisher,
	notifier LifecycleNotifier,
	log logger.ILogger,
) IAnalyticsService {
	return &analyticsService{
		uowFactory:       uowFactory,
		interviewService: interviewService,
		callProvider:     callProvider,
		scorer:           scorer,
		eventPublisher:   eventPublisher,
		notifier:         notifier,
		logger:           log,
	}
}

// Analyse scores one finished call. Safe under concurrent invocation from
// all three triggers (webhook, poll, operator retry): the short-circuit on
// stored analytics plus the compare-and-set persist guarantee at most one
// provider call is billed per call_id and exactly one document lands.
// No row lock is held across the LLM call.
func (s *analyticsService) Analyse(ctx context.Context, callId string) (*entity.ScoreDocument, error) {
	uow := s.uowFactory.NewUnitOfWork(ctx)
	repo := uow.ResponseRepository()

	response, err := repo.FindByCallId(ctx, callId)
	if err != nil {
		return nil, err
	}
	if response == nil {
		return nil, faults.NotFound("ResponseNotFound", nil)
	}
	if response.Analytics != nil {
		return response.Analytics, nil
	}
	if response.State == entity.LifecycleFailed {
		// Failed is terminal for the automatic pipeline; an operator reset
		// returns the record to ended before it can be scored again.
		return nil, faults.Conflict("ResponseFailed", nil)
	}

	detail := response.CallDetail
	if detail == nil || detail.Transcript == "" {
		fetched, err := s.callProvider.GetCall(ctx, callId)
		if err != nil {
			return nil, err
		}
		detail = providerDetailToEntity(fetched)
		if detail.Transcript != "" {
			if err := repo.StoreCallDetail(ctx, callId, detail); err != nil {
				s.logger.Warn("AnalyticsService", "fetched call detail not stored", map[string]interface{}{
					"call_id": callId,
					"error":   err.Error(),
				})
			}
		}
	}
	if detail == nil || detail.Transcript == "" {
		return nil, faults.Permanent("NoTranscript", nil)
	}

	interview, err := s.interviewService.GetById(ctx, response.InterviewId)
	if err != nil {
		return nil, err
	}
	if len(interview.Questions) == 0 {
		return nil, faults.Permanent("NoQuestions", nil)
	}

	doc, err := s.scorer.Score(ctx, detail.Transcript, interview.Questions)
	if err != nil {
		s.emitEvent(ctx, events.TypeAnalysisFailed, map[string]interface{}{
			"call_id": callId,
			"code":    faults.CodeOf(err),
		})
		return nil, err
	}

	duration := response.DurationSeconds
	if duration == 0 {
		duration = detail.DurationSeconds()
	}

	won, err := repo.SetAnalytics(ctx, callId, doc, duration)
	if err != nil {
		return nil, err
	}
	if !won {
		// A concurrent Analyse persisted first. Its document is the record
		// of truth; ours is discarded.
		current, err := repo.FindByCallId(ctx, callId)
		if err != nil {
			return nil, err
		}
		if current != nil && current.Analytics != nil {
			return current.Analytics, nil
		}
		if current != nil && current.State == entity.LifecycleFailed {
			// MarkFailed landed between our read and the persist; the
			// failure wins and the document is discarded.
			return nil, faults.Conflict("ResponseFailed", nil)
		}
		return nil, faults.Transient("AnalyticsRaceUnresolved", nil)
	}

	s.emitEvent(ctx, events.TypeResponseAnalysed, map[string]interface{}{
		"call_id":      callId,
		"interview_id": response.InterviewId.String(),
		"score":        doc.OverallScore,
	})
	if s.notifier != nil {
		s.notifier.NotifyLifecycle(callId, response.InterviewId.String(), entity.LifecycleAnalysed)
	}

	return doc, nil
}

func (s *analyticsService) emitEvent(ctx context.Context, eventType string, data map[string]interface{}) {
	if s.eventPublisher == nil {
		return
	}
	evt := events.BaseEvent{
		Type:       eventType,
		Data:       data,
		OccurredAt: time.Now(),
	}
	if err := s.eventPublisher.Publish(ctx, evt); err != nil {
		s.logger.Warn("AnalyticsService", "event publish failed", map[string]interface{}{
			"type":  eventType,
			"error": err.Error(),
		})
	}
}
