// FILE: internal/repository/implementation/interview_repository_impl.go
package implementation

import (
	"context"
	"errors"

	"ai-interview-be/internal/entity"
	"ai-interview-be/internal/mapper"
	"ai-interview-be/internal/model"
	"ai-interview-be/internal/repository/contract"
	"ai-interview-be/internal/repository/specification"

	"github.com/google/uuid"
	"gorm.io/gorm"
)

type InterviewRepositoryImpl struct {
	db     *gorm.DB
	mapper *mapper.InterviewMapper
}

func NewInterviewRepository(db *gorm.DB) contract.InterviewRepository {
	return &InterviewRepositoryImpl{
		db:     db,
		mapper: mapper.NewInterviewMapper(),
	}
}

func (r *InterviewRepositoryImpl) applySpecifications(db *gorm.DB, specs ...specification.Specification) *gorm.DB {
	for _, spec := range specs {
		db = spec.Apply(db)
	}
	return db
}

func (r *InterviewRepositoryImpl) Create(ctx context.Context, interview *entity.Interview) error {
	m := r.mapper.ToModel(interview)
	if err := r.db.WithContext(ctx).Create(m).Error; err != nil {
		return err
	}
	*interview = *r.mapper.ToEntity(m)
	return nil
}

func (r *InterviewRepositoryImpl) Update(ctx context.Context, interview *entity.Interview) error {
	m := r.mapper.ToModel(interview)
	if err := r.db.WithContext(ctx).Save(m).Error; err != nil {
		return err
	}
	*interview = *r.mapper.ToEntity(m)
	return nil
}

func (r *InterviewRepositoryImpl) FindById(ctx context.Context, id uuid.UUID) (*entity.Interview, error) {
	var m model.Interview
	err := r.db.WithContext(ctx).Where("id = ?", id).First(&m).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, nil
		}
		return nil, err
	}
	return r.mapper.ToEntity(&m), nil
}

func (r *InterviewRepositoryImpl) FindAll(ctx context.Context, specs ...specification.Specification) ([]*entity.Interview, error) {
	var models []*model.Interview
	query := r.applySpecifications(r.db.WithContext(ctx).Model(&model.Interview{}), specs...)
	if err := query.Find(&models).Error; err != nil {
		return nil, err
	}
	interviews := make([]*entity.Interview, len(models))
	for i, m := range models {
		interviews[i] = r.mapper.ToEntity(m)
	}
	return interviews, nil
}

func (r *InterviewRepositoryImpl) IncrementResponseCount(ctx context.Context, id uuid.UUID) (int, error) {
	result := r.db.WithContext(ctx).Model(&model.Interview{}).
		Where("id = ?", id).
		Update("response_count", gorm.Expr("response_count + 1"))
	if result.Error != nil {
		return 0, result.Error
	}
	if result.RowsAffected == 0 {
		return 0, gorm.ErrRecordNotFound
	}
	var m model.Interview
	if err := r.db.WithContext(ctx).Select("response_count").Where("id = ?", id).First(&m).Error; err != nil {
		return 0, err
	}
	return m.ResponseCount, nil
}

func (r *InterviewRepositoryImpl) Deactivate(ctx context.Context, id uuid.UUID) error {
	return r.db.WithContext(ctx).Model(&model.Interview{}).
		Where("id = ?", id).
		Update("is_active", false).Error
}
