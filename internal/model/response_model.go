// FILE: internal/model/response_model.go
package model

import (
	"time"

	"github.com/google/uuid"
	"gorm.io/datatypes"
)

type Response struct {
	Id                 uuid.UUID      `gorm:"type:uuid;primaryKey;default:gen_random_uuid()"`
	CallId             string         `gorm:"type:varchar(255);uniqueIndex;not null"`
	InterviewId        uuid.UUID      `gorm:"type:uuid;not null;index"`
	RespondentIdentity *string        `gorm:"type:varchar(255);index"`
	DisplayName        *string        `gorm:"type:varchar(255)"`
	State              string         `gorm:"type:varchar(50);not null;default:'created';index"`
	DurationSeconds    int            `gorm:"default:0"`
	TabSwitchCount     int            `gorm:"default:0"`
	CallDetail         datatypes.JSON `gorm:"type:jsonb"`
	Analytics          datatypes.JSON `gorm:"type:jsonb"`
	Disposition        string         `gorm:"type:varchar(50);not null;default:'no_status'"`
	FailureReason      *string        `gorm:"type:text"`
	CreatedAt          time.Time      `gorm:"autoCreateTime"`
	UpdatedAt          time.Time      `gorm:"autoUpdateTime"`
}

func (Response) TableName() string {
	return "responses"
}
