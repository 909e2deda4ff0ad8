// FILE: internal/repository/memory/interview_repository.go
package memory

import (
	"context"
	"sync"
	"time"

	"ai-interview-be/internal/entity"
	"ai-interview-be/internal/repository/specification"

	"github.com/google/uuid"
	"gorm.io/gorm"
)

// InterviewRepository is the in-memory counterpart of the Postgres
// interview repository.
type InterviewRepository struct {
	mu         sync.Mutex
	interviews map[uuid.UUID]*entity.Interview

	// Err, when set, is returned by read operations.
	Err error
}

func NewInterviewRepository() *InterviewRepository {
	return &InterviewRepository{
		interviews: make(map[uuid.UUID]*entity.Interview),
	}
}

func cloneInterview(i *entity.Interview) *entity.Interview {
	if i == nil {
		return nil
	}
	c := *i
	c.Questions = append([]entity.Question(nil), i.Questions...)
	c.RespondentEmails = append([]string(nil), i.RespondentEmails...)
	return &c
}

func (m *InterviewRepository) Create(ctx context.Context, interview *entity.Interview) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if interview.Id == uuid.Nil {
		interview.Id = uuid.New()
	}
	now := time.Now()
	interview.CreatedAt = now
	interview.UpdatedAt = now
	m.interviews[interview.Id] = cloneInterview(interview)
	return nil
}

func (m *InterviewRepository) Update(ctx context.Context, interview *entity.Interview) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	interview.UpdatedAt = time.Now()
	m.interviews[interview.Id] = cloneInterview(interview)
	return nil
}

func (m *InterviewRepository) FindById(ctx context.Context, id uuid.UUID) (*entity.Interview, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.Err != nil {
		return nil, m.Err
	}
	return cloneInterview(m.interviews[id]), nil
}

func (m *InterviewRepository) FindAll(ctx context.Context, specs ...specification.Specification) ([]*entity.Interview, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.Err != nil {
		return nil, m.Err
	}
	var out []*entity.Interview
	for _, i := range m.interviews {
		out = append(out, cloneInterview(i))
	}
	return out, nil
}

func (m *InterviewRepository) IncrementResponseCount(ctx context.Context, id uuid.UUID) (int, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	i, ok := m.interviews[id]
	if !ok {
		return 0, gorm.ErrRecordNotFound
	}
	i.ResponseCount++
	i.UpdatedAt = time.Now()
	return i.ResponseCount, nil
}

func (m *InterviewRepository) Deactivate(ctx context.Context, id uuid.UUID) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if i, ok := m.interviews[id]; ok {
		i.IsActive = false
		i.UpdatedAt = time.Now()
	}
	return nil
}
