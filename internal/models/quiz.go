package models

import (
	"time"

	"github.com/google/uuid"
	"gorm.io/datatypes"
	"gorm.io/gorm"
)

// Quiz holds the structured question list returned by the completion API.
// Questions is the parsed {title, questions[...]} document stored verbatim;
// BestScore only ever moves upward.
type Quiz struct {
	ID             uuid.UUID      `gorm:"type:uuid;primaryKey" json:"id"`
	UserID         uuid.UUID      `gorm:"type:uuid;not null;index" json:"user_id"`
	ClassName      string         `gorm:"size:250;not null;index" json:"class_name"`
	Title          string         `gorm:"size:250" json:"title"`
	Questions      datatypes.JSON `json:"questions"`
	TotalQuestions int            `gorm:"not null" json:"total_questions"`
	BestScore      int            `gorm:"not null;default:0" json:"best_score"`
	CreatedAt      time.Time      `json:"created_at"`
	UpdatedAt      time.Time      `json:"updated_at"`
}

func (q *Quiz) BeforeCreate(tx *gorm.DB) error {
	if q.ID == uuid.Nil {
		q.ID = uuid.New()
	}
	return nil
}
