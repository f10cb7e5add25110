package models

import (
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"
)

// Feedback is a board suggestion. UpvoteCount is a denormalized mirror of
// the FeedbackUpvote rows and is only ever changed inside the same
// transaction that inserts or deletes an upvote row.
type Feedback struct {
	ID          uuid.UUID `gorm:"type:uuid;primaryKey" json:"id"`
	UserID      uuid.UUID `gorm:"type:uuid;not null;index" json:"user_id"`
	Title       string    `gorm:"size:50;not null" json:"title"`
	Body        string    `gorm:"type:text;not null" json:"body"`
	UpvoteCount int       `gorm:"not null;default:0" json:"upvote_count"`
	CreatedAt   time.Time `json:"created_at"`
	UpdatedAt   time.Time `json:"updated_at"`
}

func (f *Feedback) BeforeCreate(tx *gorm.DB) error {
	if f.ID == uuid.Nil {
		f.ID = uuid.New()
	}
	return nil
}

// FeedbackUpvote records one user's vote on one feedback entry. The unique
// index makes the toggle race-safe: concurrent duplicate inserts cannot both
// succeed.
type FeedbackUpvote struct {
	ID         uuid.UUID `gorm:"type:uuid;primaryKey" json:"id"`
	UserID     uuid.UUID `gorm:"type:uuid;not null;uniqueIndex:idx_upvotes_user_feedback" json:"user_id"`
	FeedbackID uuid.UUID `gorm:"type:uuid;not null;uniqueIndex:idx_upvotes_user_feedback" json:"feedback_id"`
	CreatedAt  time.Time `json:"created_at"`
}

func (u *FeedbackUpvote) BeforeCreate(tx *gorm.DB) error {
	if u.ID == uuid.Nil {
		u.ID = uuid.New()
	}
	return nil
}
