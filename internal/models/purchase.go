package models

import (
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"
)

// Purchase is the audit record of a completed Stripe checkout. SessionID is
// unique so a replayed webhook delivery cannot credit the same payment twice.
type Purchase struct {
	ID          uuid.UUID `gorm:"type:uuid;primaryKey" json:"id"`
	UserID      uuid.UUID `gorm:"type:uuid;not null;index" json:"user_id"`
	SessionID   string    `gorm:"size:255;not null;uniqueIndex" json:"session_id"`
	Plan        string    `gorm:"size:20;not null" json:"plan"`
	Credits     int       `gorm:"not null" json:"credits"`
	AmountCents int64     `gorm:"not null" json:"amount_cents"`
	Currency    string    `gorm:"size:10" json:"currency"`
	CreatedAt   time.Time `json:"created_at"`
}

func (p *Purchase) BeforeCreate(tx *gorm.DB) error {
	if p.ID == uuid.Nil {
		p.ID = uuid.New()
	}
	return nil
}
