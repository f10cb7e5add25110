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

var (
	ErrFeedbackNotFound = errors.New("feedback not found")
	ErrNotFeedbackOwner = errors.New("feedback can only be deleted by its author or an admin")
)

const maxFeedbackTitleLen = 50

// FeedbackService owns the suggestion board and its upvote toggling.
type FeedbackService struct {
	db *gorm.DB
}

func NewFeedbackService(db *gorm.DB) *FeedbackService {
	return &FeedbackService{db: db}
}

func (s *FeedbackService) Submit(userID uuid.UUID, title, body string) (*models.Feedback, error) {
	title = strings.TrimSpace(title)
	if title == "" || strings.TrimSpace(body) == "" {
		return nil, errors.New("title and feedback are required")
	}
	if len(title) > maxFeedbackTitleLen {
		return nil, fmt.Errorf("title must be at most %d characters", maxFeedbackTitleLen)
	}

	entry := models.Feedback{
		ID:          uuid.New(),
		UserID:      userID,
		Title:       title,
		Body:        body,
		UpvoteCount: 0,
	}
	if err := s.db.Create(&entry).Error; err != nil {
		return nil, fmt.Errorf("failed to save feedback: %w", err)
	}
	return &entry, nil
}

// List returns the whole board plus the ids the requesting user has upvoted.
func (s *FeedbackService) List(userID uuid.UUID) ([]models.Feedback, []uuid.UUID, error) {
	var entries []models.Feedback
	if err := s.db.Order("upvote_count DESC, created_at DESC").Find(&entries).Error; err != nil {
		return nil, nil, fmt.Errorf("failed to fetch feedback: %w", err)
	}

	var upvotes []models.FeedbackUpvote
	if err := s.db.Scopes(storage.OwnedBy(userID)).Find(&upvotes).Error; err != nil {
		return nil, nil, fmt.Errorf("failed to fetch upvotes: %w", err)
	}

	upvotedIDs := make([]uuid.UUID, 0, len(upvotes))
	for _, u := range upvotes {
		upvotedIDs = append(upvotedIDs, u.FeedbackID)
	}
	return entries, upvotedIDs, nil
}

// Delete removes a board entry. Only the author or an admin may delete.
func (s *FeedbackService) Delete(userID uuid.UUID, isAdmin bool, feedbackID uuid.UUID) error {
	var entry models.Feedback
	if err := s.db.First(&entry, "id = ?", feedbackID).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return ErrFeedbackNotFound
		}
		return fmt.Errorf("failed to fetch feedback: %w", err)
	}

	if entry.UserID != userID && !isAdmin {
		return ErrNotFeedbackOwner
	}

	return s.db.Transaction(func(tx *gorm.DB) error {
		if err := tx.Where("feedback_id = ?", feedbackID).Delete(&models.FeedbackUpvote{}).Error; err != nil {
			return err
		}
		return tx.Delete(&entry).Error
	})
}

// ToggleUpvote inserts or removes the (user, feedback) vote row and adjusts
// the denormalized count in the same transaction. The unique index on the
// vote row keeps concurrent duplicate toggles from both inserting.
func (s *FeedbackService) ToggleUpvote(userID, feedbackID uuid.UUID) (int, bool, error) {
	var entry models.Feedback
	if err := s.db.First(&entry, "id = ?", feedbackID).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return 0, false, ErrFeedbackNotFound
		}
		return 0, false, fmt.Errorf("failed to fetch feedback: %w", err)
	}

	var upvoted bool
	err := s.db.Transaction(func(tx *gorm.DB) error {
		var existing models.FeedbackUpvote
		findErr := tx.Where("user_id = ? AND feedback_id = ?", userID, feedbackID).First(&existing).Error

		if findErr == nil {
			upvoted = false
			_, err := s.removeVote(tx, &existing)
			return err
		}
		if !errors.Is(findErr, gorm.ErrRecordNotFound) {
			return findErr
		}

		vote := models.FeedbackUpvote{
			ID:         uuid.New(),
			UserID:     userID,
			FeedbackID: feedbackID,
		}
		if err := tx.Create(&vote).Error; err != nil {
			return err
		}
		upvoted = true
		return tx.Model(&models.Feedback{}).Where("id = ?", feedbackID).
			UpdateColumn("upvote_count", gorm.Expr("upvote_count + 1")).Error
	})
	if err != nil {
		return 0, false, fmt.Errorf("failed to toggle upvote: %w", err)
	}

	if err := s.db.First(&entry, "id = ?", feedbackID).Error; err != nil {
		return 0, upvoted, fmt.Errorf("failed to reload feedback: %w", err)
	}
	return entry.UpvoteCount, upvoted, nil
}

// removeVote deletes one vote row and decrements the count only when the
// delete removed a row. Two requests toggling the same vote off can both
// read it before either deletes; the count must move once, not twice.
func (s *FeedbackService) removeVote(tx *gorm.DB, vote *models.FeedbackUpvote) (bool, error) {
	result := tx.Where("id = ?", vote.ID).Delete(&models.FeedbackUpvote{})
	if result.Error != nil {
		return false, result.Error
	}
	if result.RowsAffected == 0 {
		return false, nil
	}
	return true, tx.Model(&models.Feedback{}).Where("id = ?", vote.FeedbackID).
		UpdateColumn("upvote_count", gorm.Expr("upvote_count - 1")).Error
}
