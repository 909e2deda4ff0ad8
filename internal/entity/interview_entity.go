// FILE: internal/entity/interview_entity.go
package entity

import (
	"strings"
	"time"

	"github.com/google/uuid"
)

// Interview is the definition a candidate responds to. This core only reads
// it, except for the response counter and the cap-triggered deactivation.
type Interview struct {
	Id               uuid.UUID
	Name             string
	Objective        string
	Questions        []Question
	IsAnonymous      bool
	RespondentEmails []string
	IsActive         bool
	ResponseCount    int
	ResponseCap      int // 0 = unlimited
	CreatedAt        time.Time
	UpdatedAt        time.Time
}

type Question struct {
	Id            string `json:"id"`
	Question      string `json:"question"`
	FollowUpCount int    `json:"follow_up_count,omitempty"`
}

// AllowsRespondent checks the allow-list. An empty list means the interview
// is open to anyone who has the link.
func (i *Interview) AllowsRespondent(identity string) bool {
	if len(i.RespondentEmails) == 0 {
		return true
	}
	for _, e := range i.RespondentEmails {
		if strings.EqualFold(strings.TrimSpace(e), strings.TrimSpace(identity)) {
			return true
		}
	}
	return false
}

// CapReached reports whether the interview has used up its response budget.
func (i *Interview) CapReached() bool {
	return i.ResponseCap > 0 && i.ResponseCount >= i.ResponseCap
}
