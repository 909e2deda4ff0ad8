// FILE: internal/mapper/interview_mapper.go
package mapper

import (
	"encoding/json"

	"ai-interview-be/internal/entity"
	"ai-interview-be/internal/model"

	"gorm.io/datatypes"
)

type InterviewMapper struct{}

func NewInterviewMapper() *InterviewMapper {
	return &InterviewMapper{}
}

func (m *InterviewMapper) ToEntity(i *model.Interview) *entity.Interview {
	if i == nil {
		return nil
	}
	e := &entity.Interview{
		Id:            i.Id,
		Name:          i.Name,
		Objective:     i.Objective,
		IsAnonymous:   i.IsAnonymous,
		IsActive:      i.IsActive,
		ResponseCount: i.ResponseCount,
		ResponseCap:   i.ResponseCap,
		CreatedAt:     i.CreatedAt,
		UpdatedAt:     i.UpdatedAt,
	}
	if len(i.Questions) > 0 {
		_ = json.Unmarshal(i.Questions, &e.Questions)
	}
	if len(i.RespondentEmails) > 0 {
		_ = json.Unmarshal(i.RespondentEmails, &e.RespondentEmails)
	}
	return e
}

func (m *InterviewMapper) ToModel(e *entity.Interview) *model.Interview {
	if e == nil {
		return nil
	}
	i := &model.Interview{
		Id:            e.Id,
		Name:          e.Name,
		Objective:     e.Objective,
		IsAnonymous:   e.IsAnonymous,
		IsActive:      e.IsActive,
		ResponseCount: e.ResponseCount,
		ResponseCap:   e.ResponseCap,
		CreatedAt:     e.CreatedAt,
		UpdatedAt:     e.UpdatedAt,
	}
	if e.Questions != nil {
		if b, err := json.Marshal(e.Questions); err == nil {
			i.Questions = datatypes.JSON(b)
		}
	}
	if e.RespondentEmails != nil {
		if b, err := json.Marshal(e.RespondentEmails); err == nil {
			i.RespondentEmails = datatypes.JSON(b)
		}
	}
	return i
}
