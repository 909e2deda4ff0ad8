// FILE: internal/service/interview_service.go
package service

import (
	"context"
	"time"

	"ai-interview-be/internal/entity"
	"ai-interview-be/internal/repository/unitofwork"
	"ai-interview-be/pkg/faults"

	"github.com/google/uuid"
	gocache "github.com/patrickmn/go-cache"
)

type IInterviewService interface {
	GetById(ctx context.Context, id uuid.UUID) (*entity.Interview, error)
	Create(ctx context.Context, interview *entity.Interview) error
	Invalidate(id uuid.UUID)
}

// interviewService reads interview definitions through a short-TTL in-memory
// cache. Registration bursts hit the same interview row over and over; the
// definition itself changes rarely.
type interviewService struct {
	uowFactory unitofwork.RepositoryFactory
	cache      *gocache.Cache
}

func NewInterviewService(uowFactory unitofwork.RepositoryFactory) IInterviewService {
	return &interviewService{
		uowFactory: uowFactory,
		cache:      gocache.New(30*time.Second, 2*time.Minute),
	}
}

func (s *interviewService) GetById(ctx context.Context, id uuid.UUID) (*entity.Interview, error) {
	key := id.String()
	if cached, found := s.cache.Get(key); found {
		return cached.(*entity.Interview), nil
	}

	uow := s.uowFactory.NewUnitOfWork(ctx)
	interview, err := uow.InterviewRepository().FindById(ctx, id)
	if err != nil {
		return nil, err
	}
	if interview == nil {
		return nil, faults.NotFound("InterviewNotFound", nil)
	}

	s.cache.Set(key, interview, gocache.DefaultExpiration)
	return interview, nil
}

func (s *interviewService) Create(ctx context.Context, interview *entity.Interview) error {
	if interview.Id == uuid.Nil {
		interview.Id = uuid.New()
	}
	interview.CreatedAt = time.Now()

	uow := s.uowFactory.NewUnitOfWork(ctx)
	return uow.InterviewRepository().Create(ctx, interview)
}

// Invalidate drops the cached definition, used after the response cap
// deactivates an interview so the guard sees the flip immediately.
func (s *interviewService) Invalidate(id uuid.UUID) {
	s.cache.Delete(id.String())
}
