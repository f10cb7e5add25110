package handlers

import (
	"errors"

	"github.com/gofiber/fiber/v2"
	"github.com/google/uuid"
	"gorm.io/gorm"

	"github.com/mwdynamics/studyvant/internal/config"
	"github.com/mwdynamics/studyvant/internal/dto"
	"github.com/mwdynamics/studyvant/internal/middleware"
	"github.com/mwdynamics/studyvant/internal/services"
)

type FeedbackHandler struct {
	feedbackService *services.FeedbackService
	db              *gorm.DB
	cfg             *config.Config
}

func NewFeedbackHandler(feedbackService *services.FeedbackService, db *gorm.DB, cfg *config.Config) *FeedbackHandler {
	return &FeedbackHandler{feedbackService: feedbackService, db: db, cfg: cfg}
}

func (h *FeedbackHandler) Submit(c *fiber.Ctx) error {
	userID, err := middleware.UserID(c)
	if err != nil {
		return c.Status(fiber.StatusUnauthorized).JSON(dto.ErrorResponse{
			Error: true, Message: "Unauthorized",
		})
	}

	var req dto.SubmitFeedbackRequest
	if err := c.BodyParser(&req); err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(dto.ErrorResponse{
			Error: true, Message: "Invalid request body",
		})
	}

	fb, err := h.feedbackService.Submit(userID, req.Title, req.Body)
	if err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(dto.ErrorResponse{
			Error: true, Message: err.Error(),
		})
	}

	return c.Status(fiber.StatusCreated).JSON(fb)
}

func (h *FeedbackHandler) List(c *fiber.Ctx) error {
	userID, err := middleware.UserID(c)
	if err != nil {
		return c.Status(fiber.StatusUnauthorized).JSON(dto.ErrorResponse{
			Error: true, Message: "Unauthorized",
		})
	}

	entries, upvotedIDs, err := h.feedbackService.List(userID)
	if err != nil {
		return c.Status(fiber.StatusInternalServerError).JSON(dto.ErrorResponse{
			Error: true, Message: "Failed to fetch feedback",
		})
	}

	return c.JSON(dto.FeedbackListResponse{Feedback: entries, UpvotedIDs: upvotedIDs})
}

func (h *FeedbackHandler) Delete(c *fiber.Ctx) error {
	userID, err := middleware.UserID(c)
	if err != nil {
		return c.Status(fiber.StatusUnauthorized).JSON(dto.ErrorResponse{
			Error: true, Message: "Unauthorized",
		})
	}

	feedbackID, err := uuid.Parse(c.Params("id"))
	if err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(dto.ErrorResponse{
			Error: true, Message: "Invalid feedback ID",
		})
	}

	isAdmin := middleware.IsAdmin(c, h.db, h.cfg)
	if err := h.feedbackService.Delete(userID, isAdmin, feedbackID); err != nil {
		switch {
		case errors.Is(err, services.ErrFeedbackNotFound):
			return c.Status(fiber.StatusNotFound).JSON(dto.ErrorResponse{
				Error: true, Message: "Feedback not found",
			})
		case errors.Is(err, services.ErrNotFeedbackOwner):
			return c.Status(fiber.StatusForbidden).JSON(dto.ErrorResponse{
				Error: true, Message: "You can only delete your own feedback",
			})
		}
		return c.Status(fiber.StatusInternalServerError).JSON(dto.ErrorResponse{
			Error: true, Message: "Failed to delete feedback",
		})
	}

	return c.JSON(fiber.Map{"message": "Feedback deleted"})
}

func (h *FeedbackHandler) ToggleUpvote(c *fiber.Ctx) error {
	userID, err := middleware.UserID(c)
	if err != nil {
		return c.Status(fiber.StatusUnauthorized).JSON(dto.ErrorResponse{
			Error: true, Message: "Unauthorized",
		})
	}

	feedbackID, err := uuid.Parse(c.Params("id"))
	if err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(dto.ErrorResponse{
			Error: true, Message: "Invalid feedback ID",
		})
	}

	count, upvoted, err := h.feedbackService.ToggleUpvote(userID, feedbackID)
	if err != nil {
		if errors.Is(err, services.ErrFeedbackNotFound) {
			return c.Status(fiber.StatusNotFound).JSON(dto.ErrorResponse{
				Error: true, Message: "Feedback not found",
			})
		}
		return c.Status(fiber.StatusInternalServerError).JSON(dto.ErrorResponse{
			Error: true, Message: "Failed to toggle upvote",
		})
	}

	return c.JSON(dto.UpvoteResponse{UpvoteCount: count, Upvoted: upvoted})
}
