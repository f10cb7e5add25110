package services

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"strings"

	"github.com/google/uuid"
	"gorm.io/datatypes"
	"gorm.io/gorm"

	"github.com/mwdynamics/studyvant/internal/ai"
	"github.com/mwdynamics/studyvant/internal/models"
	"github.com/mwdynamics/studyvant/internal/storage"
)

var ErrQuizNotFound = errors.New("quiz not found")

const (
	maxQuizTitleLen = 20
	maxNoteLen      = 15000
)

// QuizService runs the generation workflow and owns quiz reads and scoring.
type QuizService struct {
	db        *gorm.DB
	ledger    *CreditLedger
	generator ai.QuizGenerator
}

func NewQuizService(db *gorm.DB, ledger *CreditLedger, generator ai.QuizGenerator) *QuizService {
	return &QuizService{db: db, ledger: ledger, generator: generator}
}

// Generate persists the note, reserves a credit, calls the completion
// service and stores the parsed quiz. The note survives every failure mode;
// the reserved credit is refunded on any failure after the reservation.
func (s *QuizService) Generate(ctx context.Context, userID uuid.UUID, className, title, content string) (*models.Quiz, error) {
	className = strings.TrimSpace(className)
	title = strings.TrimSpace(title)
	if className == "" || title == "" || strings.TrimSpace(content) == "" {
		return nil, errors.New("class name, title and notes are required")
	}
	if len(title) > maxQuizTitleLen {
		return nil, fmt.Errorf("title must be at most %d characters", maxQuizTitleLen)
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

	if err := s.ledger.Reserve(userID); err != nil {
		return nil, err
	}

	generated, err := s.generator.GenerateQuiz(ctx, content)
	if err != nil {
		if refundErr := s.ledger.Refund(userID); refundErr != nil {
			slog.Error("credit refund failed after generation error", "user_id", userID.String(), "error", refundErr)
		}
		return nil, err
	}

	questions, err := json.Marshal(generated)
	if err != nil {
		if refundErr := s.ledger.Refund(userID); refundErr != nil {
			slog.Error("credit refund failed after encode error", "user_id", userID.String(), "error", refundErr)
		}
		return nil, fmt.Errorf("failed to encode quiz: %w", err)
	}

	quiz := models.Quiz{
		ID:             uuid.New(),
		UserID:         userID,
		ClassName:      className,
		Title:          title,
		Questions:      datatypes.JSON(questions),
		TotalQuestions: len(generated.Questions),
		BestScore:      0,
	}
	if err := s.db.Create(&quiz).Error; err != nil {
		if refundErr := s.ledger.Refund(userID); refundErr != nil {
			slog.Error("credit refund failed after persist error", "user_id", userID.String(), "error", refundErr)
		}
		return nil, fmt.Errorf("failed to save quiz: %w", err)
	}

	return &quiz, nil
}

// List returns the user's quizzes, newest first, optionally filtered by class.
func (s *QuizService) List(userID uuid.UUID, className string) ([]models.Quiz, error) {
	var quizzes []models.Quiz
	query := s.db.Scopes(storage.OwnedBy(userID))
	if className != "" {
		query = query.Where("class_name = ?", className)
	}
	if err := query.Order("created_at DESC").Find(&quizzes).Error; err != nil {
		return nil, fmt.Errorf("failed to fetch quizzes: %w", err)
	}
	return quizzes, nil
}

// Get returns a quiz only when owned by the requesting user; anything else
// is a not-found so existence is not leaked.
func (s *QuizService) Get(userID, quizID uuid.UUID) (*models.Quiz, error) {
	var quiz models.Quiz
	if err := s.db.Scopes(storage.OwnedBy(userID)).First(&quiz, "id = ?", quizID).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrQuizNotFound
		}
		return nil, fmt.Errorf("failed to fetch quiz: %w", err)
	}
	return &quiz, nil
}

// Latest returns the most recently created quiz for a user.
func (s *QuizService) Latest(userID uuid.UUID) (*models.Quiz, error) {
	var quiz models.Quiz
	if err := s.db.Scopes(storage.OwnedBy(userID)).Order("created_at DESC").First(&quiz).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrQuizNotFound
		}
		return nil, fmt.Errorf("failed to fetch quiz: %w", err)
	}
	return &quiz, nil
}

// UpdateBestScore records a new best only when it beats the stored one. A
// stored best of 0 counts as unset, so the first nonzero score always lands.
// The comparison happens inside the UPDATE, so concurrent submissions keep
// the maximum.
func (s *QuizService) UpdateBestScore(userID, quizID uuid.UUID, score int) (*models.Quiz, error) {
	if score < 0 {
		return nil, errors.New("score must be non-negative")
	}

	result := s.db.Model(&models.Quiz{}).
		Where("id = ? AND user_id = ? AND (best_score = 0 OR best_score < ?)", quizID, userID, score).
		UpdateColumn("best_score", score)
	if result.Error != nil {
		return nil, fmt.Errorf("failed to update best score: %w", result.Error)
	}

	// RowsAffected == 0 is either not-found or a score that didn't beat the
	// best; the follow-up read distinguishes the two.
	return s.Get(userID, quizID)
}

// Delete removes a quiz and reports its title. Unknown or foreign ids are a
// silent no-op.
func (s *QuizService) Delete(userID, quizID uuid.UUID) (string, error) {
	var quiz models.Quiz
	if err := s.db.Scopes(storage.OwnedBy(userID)).First(&quiz, "id = ?", quizID).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return "", nil
		}
		return "", fmt.Errorf("failed to fetch quiz: %w", err)
	}

	if err := s.db.Delete(&quiz).Error; err != nil {
		return "", fmt.Errorf("failed to delete quiz: %w", err)
	}
	return quiz.Title, nil
}
