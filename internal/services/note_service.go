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

// NoteService stores study material independently of quiz generation.
type NoteService struct {
	db *gorm.DB
}

func NewNoteService(db *gorm.DB) *NoteService {
	return &NoteService{db: db}
}

func (s *NoteService) Create(userID uuid.UUID, className, title, content string) (*models.Note, error) {
	className = strings.TrimSpace(className)
	title = strings.TrimSpace(title)
	if className == "" || title == "" || strings.TrimSpace(content) == "" {
		return nil, errors.New("class name, title and content are required")
	}
	if len(content) > maxNoteLen {
		return nil, fmt.Errorf("notes must be at most %d characters", maxNoteLen)
	}

	note := models.Note{
		ID:        uuid.New(),
		UserID:    userID,
		ClassName: className,
		Title:     title,
		Content:   content,
	}
	if err := s.db.Create(&note).Error; err != nil {
		return nil, fmt.Errorf("failed to save note: %w", err)
	}
	return &note, nil
}

func (s *NoteService) List(userID uuid.UUID) ([]models.Note, error) {
	var notes []models.Note
	if err := s.db.Scopes(storage.OwnedBy(userID)).Order("created_at DESC").Find(&notes).Error; err != nil {
		return nil, fmt.Errorf("failed to fetch notes: %w", err)
	}
	return notes, nil
}
