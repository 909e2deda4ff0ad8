// FILE: internal/model/interview_model.go
package model

import (
	"time"

	"github.com/google/uuid"
	"gorm.io/datatypes"
)

type Interview struct {
	Id               uuid.UUID      `gorm:"type:uuid;primaryKey;default:gen_random_uuid()"`
	Name             string         `gorm:"type:varchar(255);not null"`
	Objective        string         `gorm:"type:text"`
	Questions        datatypes.JSON `gorm:"type:jsonb"`
	IsAnonymous      bool           `gorm:"default:false"`
	RespondentEmails datatypes.JSON `gorm:"type:jsonb"`
	IsActive         bool           `gorm:"default:true"`
	ResponseCount    int            `gorm:"default:0"`
	ResponseCap      int            `gorm:"default:0"` // 0 = unlimited
	CreatedAt        time.Time      `gorm:"autoCreateTime"`
	UpdatedAt        time.Time      `gorm:"autoUpdateTime"`
}

func (Interview) TableName() string {
	return "interviews"
}
