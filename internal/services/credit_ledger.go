package services

import (
	"errors"
	"fmt"

	"github.com/google/uuid"
	"github.com/mwdynamics/studyvant/internal/models"
	"gorm.io/gorm"
)

var ErrInsufficientCredits = errors.New("no quiz credits remaining")

// CreditLedger manages the per-user credit balance. All mutations are single
// conditional UPDATEs so two concurrent requests cannot double-spend.
type CreditLedger struct {
	db *gorm.DB
}

func NewCreditLedger(db *gorm.DB) *CreditLedger {
	return &CreditLedger{db: db}
}

// Reserve atomically takes one credit. At zero balance nothing changes and
// ErrInsufficientCredits is returned.
func (l *CreditLedger) Reserve(userID uuid.UUID) error {
	result := l.db.Model(&models.User{}).
		Where("id = ? AND credits > 0", userID).
		UpdateColumn("credits", gorm.Expr("credits - 1"))
	if result.Error != nil {
		return fmt.Errorf("failed to reserve credit: %w", result.Error)
	}
	if result.RowsAffected == 0 {
		return ErrInsufficientCredits
	}
	return nil
}

// Refund returns a reserved credit after a failed generation.
func (l *CreditLedger) Refund(userID uuid.UUID) error {
	result := l.db.Model(&models.User{}).
		Where("id = ?", userID).
		UpdateColumn("credits", gorm.Expr("credits + 1"))
	if result.Error != nil {
		return fmt.Errorf("failed to refund credit: %w", result.Error)
	}
	return nil
}

// Grant adds purchased credits to the balance.
func (l *CreditLedger) Grant(userID uuid.UUID, n int) error {
	if n <= 0 {
		return errors.New("credit grant must be positive")
	}
	result := l.db.Model(&models.User{}).
		Where("id = ?", userID).
		UpdateColumn("credits", gorm.Expr("credits + ?", n))
	if result.Error != nil {
		return fmt.Errorf("failed to grant credits: %w", result.Error)
	}
	if result.RowsAffected == 0 {
		return ErrUserNotFound
	}
	return nil
}

// Balance reads the current credit count.
func (l *CreditLedger) Balance(userID uuid.UUID) (int, error) {
	var user models.User
	if err := l.db.Select("credits").First(&user, "id = ?", userID).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return 0, ErrUserNotFound
		}
		return 0, err
	}
	return user.Credits, nil
}
