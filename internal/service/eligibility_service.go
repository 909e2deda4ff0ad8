// FILE: internal/service/eligibility_service.go
package service

import (
	"context"

	"ai-interview-be/internal/entity"
	"ai-interview-be/internal/pkg/logger"
	"ai-interview-be/internal/repository/unitofwork"

	"github.com/google/uuid"
)

// Denial reason codes surfaced to the registration endpoint.
const (
	ReasonNotInvited        = "NotInvited"
	ReasonAlreadyResponded  = "AlreadyResponded"
	ReasonInterviewInactive = "InterviewInactive"
)

// EligibilityDecision is the guard's verdict. When Allowed is false,
// ReasonCode carries the machine-readable denial reason.
type EligibilityDecision struct {
	Allowed    bool
	ReasonCode string
	Interview  *entity.Interview
}

type IEligibilityService interface {
	MayStart(ctx context.Context, interviewId uuid.UUID, identity string) (*EligibilityDecision, error)
}

type eligibilityService struct {
	uowFactory       unitofwork.RepositoryFactory
	interviewService IInterviewService
	logger           logger.ILogger
}

func NewEligibilityService(
	uowFactory unitofwork.RepositoryFactory,
	interviewService IInterviewService,
	log logger.ILogger,
) IEligibilityService {
	return &eligibilityService{
		uowFactory:       uowFactory,
		interviewService: interviewService,
		logger:           log,
	}
}

// MayStart decides whether an identity may begin an attempt. The interview
// definition itself must resolve; everything past that point fails OPEN on
// storage errors. Blocking a live candidate mid-flow because the duplicate
// check timed out is worse than letting a rare duplicate through, but every
// bypass is logged for audit.
func (s *eligibilityService) MayStart(ctx context.Context, interviewId uuid.UUID, identity string) (*EligibilityDecision, error) {
	interview, err := s.interviewService.GetById(ctx, interviewId)
	if err != nil {
		return nil, err
	}

	if !interview.IsActive {
		return &EligibilityDecision{ReasonCode: ReasonInterviewInactive, Interview: interview}, nil
	}

	if interview.IsAnonymous {
		return &EligibilityDecision{Allowed: true, Interview: interview}, nil
	}

	if identity == "" || !interview.AllowsRespondent(identity) {
		return &EligibilityDecision{ReasonCode: ReasonNotInvited, Interview: interview}, nil
	}

	uow := s.uowFactory.NewUnitOfWork(ctx)
	responded, err := uow.ResponseRepository().HasRespondedBeyondCreated(ctx, interviewId, identity)
	if err != nil {
		s.logger.Warn("EligibilityService", "policy_bypass: duplicate-response check failed, allowing registration", map[string]interface{}{
			"interview_id": interviewId.String(),
			"identity":     identity,
			"error":        err.Error(),
		})
		return &EligibilityDecision{Allowed: true, Interview: interview}, nil
	}
	if responded {
		return &EligibilityDecision{ReasonCode: ReasonAlreadyResponded, Interview: interview}, nil
	}

	return &EligibilityDecision{Allowed: true, Interview: interview}, nil
}
