package models

import (
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"
)

// Note is raw study material, the input to quiz generation. Notes have an
// independent lifecycle: deleting a note never deletes quizzes generated
// from it, and a failed generation leaves the note in place for retry.
type Note struct {
	ID        uuid.UUID `gorm:"type:uuid;primaryKey" json:"id"`
	UserID    uuid.UUID `gorm:"type:uuid;not null;index" json:"user_id"`
	ClassName string    `gorm:"size:250;not null" json:"class_name"`
	Title     string    `gorm:"size:250" json:"title"`
	Content   string    `gorm:"type:text" json:"content"`
	CreatedAt time.Time `json:"created_at"`
	UpdatedAt time.Time `json:"updated_at"`
}

func (n *Note) BeforeCreate(tx *gorm.DB) error {
	if n.ID == uuid.Nil {
		n.ID = uuid.New()
	}
	return nil
}
