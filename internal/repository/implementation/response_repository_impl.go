// FILE: internal/repository/implementation/response_repository_impl.go
package implementation

import (
	"context"
	"encoding/json"
	"errors"

	"ai-interview-be/internal/entity"
	"ai-interview-be/internal/mapper"
	"ai-interview-be/internal/model"
	"ai-interview-be/internal/repository/contract"
	"ai-interview-be/internal/repository/specification"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5/pgconn"
	"gorm.io/datatypes"
	"gorm.io/gorm"
)

type ResponseRepositoryImpl struct {
	db     *gorm.DB
	mapper *mapper.ResponseMapper
}

func NewResponseRepository(db *gorm.DB) contract.ResponseRepository {
	return &ResponseRepositoryImpl{
		db:     db,
		mapper: mapper.NewResponseMapper(),
	}
}

func (r *ResponseRepositoryImpl) applySpecifications(db *gorm.DB, specs ...specification.Specification) *gorm.DB {
	for _, spec := range specs {
		db = spec.Apply(db)
	}
	return db
}

func statesToStrings(states []entity.LifecycleState) []string {
	out := make([]string, len(states))
	for i, s := range states {
		out[i] = string(s)
	}
	return out
}

func (r *ResponseRepositoryImpl) Create(ctx context.Context, response *entity.Response) error {
	m := r.mapper.ToModel(response)
	if err := r.db.WithContext(ctx).Create(m).Error; err != nil {
		// 23505 = unique_violation; the call_id unique index is the
		// correctness anchor, so surface it as a typed error.
		var pgErr *pgconn.PgError
		if errors.As(err, &pgErr) && pgErr.Code == "23505" {
			return contract.ErrDuplicateCallId
		}
		if errors.Is(err, gorm.ErrDuplicatedKey) {
			return contract.ErrDuplicateCallId
		}
		return err
	}
	*response = *r.mapper.ToEntity(m)
	return nil
}

func (r *ResponseRepositoryImpl) FindByCallId(ctx context.Context, callId string) (*entity.Response, error) {
	var m model.Response
	err := r.db.WithContext(ctx).Where("call_id = ?", callId).First(&m).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, nil
		}
		return nil, err
	}
	return r.mapper.ToEntity(&m), nil
}

func (r *ResponseRepositoryImpl) FindAll(ctx context.Context, specs ...specification.Specification) ([]*entity.Response, error) {
	var models []*model.Response
	query := r.applySpecifications(r.db.WithContext(ctx).Model(&model.Response{}), specs...)
	if err := query.Find(&models).Error; err != nil {
		return nil, err
	}
	responses := make([]*entity.Response, len(models))
	for i, m := range models {
		responses[i] = r.mapper.ToEntity(m)
	}
	return responses, nil
}

func (r *ResponseRepositoryImpl) Count(ctx context.Context) (int64, error) {
	var count int64
	err := r.db.WithContext(ctx).Model(&model.Response{}).Count(&count).Error
	return count, err
}

func (r *ResponseRepositoryImpl) HasRespondedBeyondCreated(ctx context.Context, interviewId uuid.UUID, identity string) (bool, error) {
	var count int64
	err := r.db.WithContext(ctx).Model(&model.Response{}).
		Where("interview_id = ? AND respondent_identity = ? AND state <> ?",
			interviewId, identity, string(entity.LifecycleCreated)).
		Count(&count).Error
	if err != nil {
		return false, err
	}
	return count > 0, nil
}

func (r *ResponseRepositoryImpl) TransitionState(ctx context.Context, callId string, from []entity.LifecycleState, to entity.LifecycleState) (bool, error) {
	result := r.db.WithContext(ctx).Model(&model.Response{}).
		Where("call_id = ? AND state IN ?", callId, statesToStrings(from)).
		Update("state", string(to))
	if result.Error != nil {
		return false, result.Error
	}
	return result.RowsAffected > 0, nil
}

func (r *ResponseRepositoryImpl) CompleteCall(ctx context.Context, callId string, detail *entity.CallDetail, durationSeconds, tabSwitchCount int) (bool, error) {
	updates := map[string]interface{}{
		"state":            string(entity.LifecycleEnded),
		"duration_seconds": durationSeconds,
		"tab_switch_count": gorm.Expr("GREATEST(tab_switch_count, ?)", tabSwitchCount),
	}
	if !detail.IsEmpty() {
		b, err := json.Marshal(detail)
		if err != nil {
			return false, err
		}
		updates["call_detail"] = gorm.Expr("COALESCE(call_detail, ?)", datatypes.JSON(b))
	}
	result := r.db.WithContext(ctx).Model(&model.Response{}).
		Where("call_id = ? AND state IN ?", callId,
			statesToStrings([]entity.LifecycleState{entity.LifecycleCreated, entity.LifecycleStarted})).
		Updates(updates)
	if result.Error != nil {
		return false, result.Error
	}
	return result.RowsAffected > 0, nil
}

func (r *ResponseRepositoryImpl) StoreCallDetail(ctx context.Context, callId string, detail *entity.CallDetail) error {
	if detail.IsEmpty() {
		return nil
	}
	b, err := json.Marshal(detail)
	if err != nil {
		return err
	}
	return r.db.WithContext(ctx).Model(&model.Response{}).
		Where("call_id = ?", callId).
		Update("call_detail", gorm.Expr("COALESCE(call_detail, ?)", datatypes.JSON(b))).Error
}

func (r *ResponseRepositoryImpl) SetAnalytics(ctx context.Context, callId string, doc *entity.ScoreDocument, durationSeconds int) (bool, error) {
	b, err := json.Marshal(doc)
	if err != nil {
		return false, err
	}
	// The analytics IS NULL guard is the exactly-once anchor: of N
	// concurrent analysers only one UPDATE matches. The state guard keeps
	// the automatic pipeline out of failed records; only a manual reset
	// returns those to ended.
	result := r.db.WithContext(ctx).Model(&model.Response{}).
		Where("call_id = ? AND analytics IS NULL AND state IN ?", callId,
			statesToStrings([]entity.LifecycleState{entity.LifecycleCreated, entity.LifecycleStarted, entity.LifecycleEnded})).
		Updates(map[string]interface{}{
			"analytics":        datatypes.JSON(b),
			"state":            string(entity.LifecycleAnalysed),
			"duration_seconds": gorm.Expr("CASE WHEN duration_seconds > 0 THEN duration_seconds ELSE ? END", durationSeconds),
		})
	if result.Error != nil {
		return false, result.Error
	}
	return result.RowsAffected > 0, nil
}

func (r *ResponseRepositoryImpl) BumpTabSwitch(ctx context.Context, callId string, count int) error {
	return r.db.WithContext(ctx).Model(&model.Response{}).
		Where("call_id = ? AND state <> ?", callId, string(entity.LifecycleAnalysed)).
		Update("tab_switch_count", gorm.Expr("GREATEST(tab_switch_count, ?)", count)).Error
}

func (r *ResponseRepositoryImpl) SetDisposition(ctx context.Context, callId string, disposition entity.CandidateDisposition) error {
	return r.db.WithContext(ctx).Model(&model.Response{}).
		Where("call_id = ?", callId).
		Update("disposition", string(disposition)).Error
}

func (r *ResponseRepositoryImpl) MarkFailed(ctx context.Context, callId string, reason string) (bool, error) {
	result := r.db.WithContext(ctx).Model(&model.Response{}).
		Where("call_id = ? AND state IN ?", callId,
			statesToStrings([]entity.LifecycleState{entity.LifecycleStarted, entity.LifecycleEnded})).
		Updates(map[string]interface{}{
			"state":          string(entity.LifecycleFailed),
			"failure_reason": reason,
		})
	if result.Error != nil {
		return false, result.Error
	}
	return result.RowsAffected > 0, nil
}

func (r *ResponseRepositoryImpl) ResetFailure(ctx context.Context, callId string) (bool, error) {
	result := r.db.WithContext(ctx).Model(&model.Response{}).
		Where("call_id = ? AND state = ?", callId, string(entity.LifecycleFailed)).
		Updates(map[string]interface{}{
			"state":          string(entity.LifecycleEnded),
			"failure_reason": nil,
		})
	if result.Error != nil {
		return false, result.Error
	}
	return result.RowsAffected > 0, nil
}

func (r *ResponseRepositoryImpl) Delete(ctx context.Context, callId string) error {
	return r.db.WithContext(ctx).Where("call_id = ?", callId).Delete(&model.Response{}).Error
}
