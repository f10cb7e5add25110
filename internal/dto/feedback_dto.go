package dto

import (
	"github.com/google/uuid"

	"github.com/mwdynamics/studyvant/internal/models"
)

type SubmitFeedbackRequest struct {
	Title string `json:"title"`
	Body  string `json:"body"`
}

type UpvoteResponse struct {
	UpvoteCount int  `json:"upvote_count"`
	Upvoted     bool `json:"upvoted"`
}

// FeedbackListResponse pairs the board with the ids the requesting user has
// already upvoted so the client can render toggle state.
type FeedbackListResponse struct {
	Feedback   []models.Feedback `json:"feedback"`
	UpvotedIDs []uuid.UUID       `json:"upvoted_ids"`
}
