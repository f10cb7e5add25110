package models

import (
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"
)

// ClassTag is a free-form label grouping a user's notes and quizzes.
// Duplicate names per user are allowed; deleting a tag cascades to the
// quizzes sharing that (user, name) pair.
type ClassTag struct {
	ID        uuid.UUID `gorm:"type:uuid;primaryKey" json:"id"`
	UserID    uuid.UUID `gorm:"type:uuid;not null;index" json:"user_id"`
	Name      string    `gorm:"size:250;not null" json:"name"`
	CreatedAt time.Time `json:"created_at"`
}

func (c *ClassTag) BeforeCreate(tx *gorm.DB) error {
	if c.ID == uuid.Nil {
		c.ID = uuid.New()
	}
	return nil
}
