// FILE: internal/mapper/response_mapper.go
package mapper

import (
	"encoding/json"

	"ai-interview-be/internal/entity"
	"ai-interview-be/internal/model"

	"gorm.io/datatypes"
)

type ResponseMapper struct{}

func NewResponseMapper() *ResponseMapper {
	return &ResponseMapper{}
}

func (m *ResponseMapper) ToEntity(r *model.Response) *entity.Response {
	if r == nil {
		return nil
	}
	e := &entity.Response{
		Id:                 r.Id,
		CallId:             r.CallId,
		InterviewId:        r.InterviewId,
		RespondentIdentity: r.RespondentIdentity,
		DisplayName:        r.DisplayName,
		State:              entity.LifecycleState(r.State),
		DurationSeconds:    r.DurationSeconds,
		TabSwitchCount:     r.TabSwitchCount,
		Disposition:        entity.CandidateDisposition(r.Disposition),
		FailureReason:      r.FailureReason,
		CreatedAt:          r.CreatedAt,
		UpdatedAt:          r.UpdatedAt,
	}
	if len(r.CallDetail) > 0 {
		var detail entity.CallDetail
		if err := json.Unmarshal(r.CallDetail, &detail); err == nil {
			e.CallDetail = &detail
		}
	}
	if len(r.Analytics) > 0 {
		var doc entity.ScoreDocument
		if err := json.Unmarshal(r.Analytics, &doc); err == nil {
			e.Analytics = &doc
		}
	}
	return e
}

func (m *ResponseMapper) ToModel(e *entity.Response) *model.Response {
	if e == nil {
		return nil
	}
	r := &model.Response{
		Id:                 e.Id,
		CallId:             e.CallId,
		InterviewId:        e.InterviewId,
		RespondentIdentity: e.RespondentIdentity,
		DisplayName:        e.DisplayName,
		State:              string(e.State),
		DurationSeconds:    e.DurationSeconds,
		TabSwitchCount:     e.TabSwitchCount,
		Disposition:        string(e.Disposition),
		FailureReason:      e.FailureReason,
		CreatedAt:          e.CreatedAt,
		UpdatedAt:          e.UpdatedAt,
	}
	if e.CallDetail != nil {
		if b, err := json.Marshal(e.CallDetail); err == nil {
			r.CallDetail = datatypes.JSON(b)
		}
	}
	if e.Analytics != nil {
		if b, err := json.Marshal(e.Analytics); err == nil {
			r.Analytics = datatypes.JSON(b)
		}
	}
	return r
}
