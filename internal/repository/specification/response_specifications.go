package specification

import (
	"github.com/google/uuid"
	"gorm.io/gorm"
)

// ByCallId filters by the provider-assigned call identifier.
type ByCallId struct {
	CallId string
}

func (s ByCallId) Apply(db *gorm.DB) *gorm.DB {
	return db.Where("call_id = ?", s.CallId)
}

// ByInterview filters responses belonging to one interview definition.
type ByInterview struct {
	InterviewId uuid.UUID
}

func (s ByInterview) Apply(db *gorm.DB) *gorm.DB {
	return db.Where("interview_id = ?", s.InterviewId)
}

// ByRespondentIdentity filters by the candidate identity (email).
type ByRespondentIdentity struct {
	Identity string
}

func (s ByRespondentIdentity) Apply(db *gorm.DB) *gorm.DB {
	return db.Where("respondent_identity = ?", s.Identity)
}

// StateIn filters responses whose lifecycle state is one of the given set.
type StateIn struct {
	States []string
}

func (s StateIn) Apply(db *gorm.DB) *gorm.DB {
	return db.Where("state IN ?", s.States)
}
