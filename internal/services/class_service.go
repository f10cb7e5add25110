package services

import (
	"errors"
	"fmt"
	"strings"

	"github.com/google/uuid"
	"gorm.io/gorm"

	"github.com/mwdynamics/studyvant/internal/models"
	"github.com/mwdynamics/studyvant/internal/storage"
)

// ClassService manages the free-form class tags grouping notes and quizzes.
type ClassService struct {
	db *gorm.DB
}

func NewClassService(db *gorm.DB) *ClassService {
	return &ClassService{db: db}
}

// Add appends a tag. Duplicate names for the same user are permitted.
func (s *ClassService) Add(userID uuid.UUID, name string) (*models.ClassTag, error) {
	name = strings.TrimSpace(name)
	if name == "" {
		return nil, errors.New("class name is required")
	}

	tag := models.ClassTag{
		ID:     uuid.New(),
		UserID: userID,
		Name:   name,
	}
	if err := s.db.Create(&tag).Error; err != nil {
		return nil, fmt.Errorf("failed to add class: %w", err)
	}
	return &tag, nil
}

func (s *ClassService) List(userID uuid.UUID) ([]models.ClassTag, error) {
	var tags []models.ClassTag
	if err := s.db.Scopes(storage.OwnedBy(userID)).Order("created_at ASC").Find(&tags).Error; err != nil {
		return nil, fmt.Errorf("failed to fetch classes: %w", err)
	}
	return tags, nil
}

// Delete removes all quizzes for (user, name) and then the tag rows, in one
// transaction. Unknown names are a no-op.
func (s *ClassService) Delete(userID uuid.UUID, name string) error {
	var tag models.ClassTag
	if err := s.db.Scopes(storage.OwnedBy(userID)).Where("name = ?", name).First(&tag).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil
		}
		return fmt.Errorf("failed to fetch class: %w", err)
	}

	return s.db.Transaction(func(tx *gorm.DB) error {
		if err := tx.Where("user_id = ? AND class_name = ?", userID, name).Delete(&models.Quiz{}).Error; err != nil {
			return err
		}
		return tx.Where("user_id = ? AND name = ?", userID, name).Delete(&models.ClassTag{}).Error
	})
}
