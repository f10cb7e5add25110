package models

import (
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"
)

// User owns every other per-user record by foreign key. Credits is the
// number of quiz generations left; it is decremented and refunded through
// conditional updates only, never plain writes.
type User struct {
	ID                uuid.UUID      `gorm:"type:uuid;primaryKey" json:"id"`
	Email             string         `gorm:"size:255;not null;uniqueIndex" json:"email"`
	Password          string         `gorm:"not null" json:"-"`
	Name              string         `gorm:"size:100" json:"name"`
	Role              string         `gorm:"size:20;default:'user'" json:"role"`
	PremiumLevel      int            `gorm:"default:0" json:"premium_level"`
	PremiumEndsAt     time.Time      `json:"premium_ends_at"`
	SignedUpAt        time.Time      `json:"signed_up_at"`
	Points            int            `gorm:"default:0" json:"points"`
	Credits           int            `gorm:"not null" json:"credits"`
	Verified          bool           `gorm:"default:false" json:"verified"`
	VerificationToken *string        `gorm:"size:100;index" json:"-"`
	CreatedAt         time.Time      `json:"created_at"`
	UpdatedAt         time.Time      `json:"updated_at"`
	DeletedAt         gorm.DeletedAt `gorm:"index" json:"-"`
}

func (u *User) BeforeCreate(tx *gorm.DB) error {
	if u.ID == uuid.Nil {
		u.ID = uuid.New()
	}
	return nil
}
