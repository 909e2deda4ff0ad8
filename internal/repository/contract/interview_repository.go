// FILE: internal/repository/contract/interview_repository.go
package contract

import (
	"context"

	"ai-interview-be/internal/entity"
	"ai-interview-be/internal/repository/specification"

	"github.com/google/uuid"
)

type InterviewRepository interface {
	Create(ctx context.Context, interview *entity.Interview) error
	Update(ctx context.Context, interview *entity.Interview) error
	FindById(ctx context.Context, id uuid.UUID) (*entity.Interview, error)
	FindAll(ctx context.Context, specs ...specification.Specification) ([]*entity.Interview, error)

	// IncrementResponseCount bumps the usage counter atomically and returns
	// the new count so the caller can apply the response-cap boundary effect.
	IncrementResponseCount(ctx context.Context, id uuid.UUID) (int, error)

	// Deactivate flips is_active off; used when the response cap is reached.
	Deactivate(ctx context.Context, id uuid.UUID) error
}
