package handlers

import (
	"errors"
	"log/slog"

	"github.com/gofiber/fiber/v2"
	"github.com/google/uuid"

	"github.com/mwdynamics/studyvant/internal/ai"
	"github.com/mwdynamics/studyvant/internal/dto"
	"github.com/mwdynamics/studyvant/internal/middleware"
	"github.com/mwdynamics/studyvant/internal/services"
)

type QuizHandler struct {
	quizService *services.QuizService
	ledger      *services.CreditLedger
}

func NewQuizHandler(quizService *services.QuizService, ledger *services.CreditLedger) *QuizHandler {
	return &QuizHandler{quizService: quizService, ledger: ledger}
}

func (h *QuizHandler) Generate(c *fiber.Ctx) error {
	userID, err := middleware.UserID(c)
	if err != nil {
		return c.Status(fiber.StatusUnauthorized).JSON(dto.ErrorResponse{
			Error: true, Message: "Unauthorized",
		})
	}

	var req dto.GenerateQuizRequest
	if err := c.BodyParser(&req); err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(dto.ErrorResponse{
			Error: true, Message: "Invalid request body",
		})
	}

	quiz, err := h.quizService.Generate(c.UserContext(), userID, req.ClassName, req.Title, req.Content)
	if err != nil {
		switch {
		case errors.Is(err, services.ErrInsufficientCredits):
			return c.Status(fiber.StatusPaymentRequired).JSON(dto.ErrorResponse{
				Error: true, Message: "You're out of quiz credits. Purchase more to keep studying!",
			})
		case errors.Is(err, ai.ErrTimeout):
			return c.Status(fiber.StatusGatewayTimeout).JSON(dto.ErrorResponse{
				Error: true, Message: "Quiz generation took too long. Your credit was not used, please try again.",
			})
		case errors.Is(err, ai.ErrUnavailable), errors.Is(err, ai.ErrBadResponse):
			slog.Error("quiz generation failed", "user_id", userID, "error", err)
			return c.Status(fiber.StatusBadGateway).JSON(dto.ErrorResponse{
				Error: true, Message: "Quiz generation failed. Your credit was not used, please try again.",
			})
		}
		return c.Status(fiber.StatusBadRequest).JSON(dto.ErrorResponse{
			Error: true, Message: err.Error(),
		})
	}

	return c.Status(fiber.StatusCreated).JSON(quiz)
}

func (h *QuizHandler) List(c *fiber.Ctx) error {
	userID, err := middleware.UserID(c)
	if err != nil {
		return c.Status(fiber.StatusUnauthorized).JSON(dto.ErrorResponse{
			Error: true, Message: "Unauthorized",
		})
	}

	quizzes, err := h.quizService.List(userID, c.Query("class"))
	if err != nil {
		return c.Status(fiber.StatusInternalServerError).JSON(dto.ErrorResponse{
			Error: true, Message: "Failed to fetch quizzes",
		})
	}

	return c.JSON(fiber.Map{"quizzes": quizzes, "count": len(quizzes)})
}

func (h *QuizHandler) Get(c *fiber.Ctx) error {
	userID, err := middleware.UserID(c)
	if err != nil {
		return c.Status(fiber.StatusUnauthorized).JSON(dto.ErrorResponse{
			Error: true, Message: "Unauthorized",
		})
	}

	quizID, err := uuid.Parse(c.Params("id"))
	if err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(dto.ErrorResponse{
			Error: true, Message: "Invalid quiz ID",
		})
	}

	quiz, err := h.quizService.Get(userID, quizID)
	if err != nil {
		if errors.Is(err, services.ErrQuizNotFound) {
			return c.Status(fiber.StatusNotFound).JSON(dto.ErrorResponse{
				Error: true, Message: "Quiz not found",
			})
		}
		return c.Status(fiber.StatusInternalServerError).JSON(dto.ErrorResponse{
			Error: true, Message: "Failed to fetch quiz",
		})
	}

	return c.JSON(quiz)
}

func (h *QuizHandler) Latest(c *fiber.Ctx) error {
	userID, err := middleware.UserID(c)
	if err != nil {
		return c.Status(fiber.StatusUnauthorized).JSON(dto.ErrorResponse{
			Error: true, Message: "Unauthorized",
		})
	}

	quiz, err := h.quizService.Latest(userID)
	if err != nil {
		if errors.Is(err, services.ErrQuizNotFound) {
			return c.Status(fiber.StatusNotFound).JSON(dto.ErrorResponse{
				Error: true, Message: "You haven't generated any quizzes yet",
			})
		}
		return c.Status(fiber.StatusInternalServerError).JSON(dto.ErrorResponse{
			Error: true, Message: "Failed to fetch quiz",
		})
	}

	return c.JSON(quiz)
}

func (h *QuizHandler) UpdateBestScore(c *fiber.Ctx) error {
	userID, err := middleware.UserID(c)
	if err != nil {
		return c.Status(fiber.StatusUnauthorized).JSON(dto.ErrorResponse{
			Error: true, Message: "Unauthorized",
		})
	}

	quizID, err := uuid.Parse(c.Params("id"))
	if err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(dto.ErrorResponse{
			Error: true, Message: "Invalid quiz ID",
		})
	}

	var req dto.UpdateBestScoreRequest
	if err := c.BodyParser(&req); err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(dto.ErrorResponse{
			Error: true, Message: "Invalid request body",
		})
	}

	quiz, err := h.quizService.UpdateBestScore(userID, quizID, req.BestScore)
	if err != nil {
		if errors.Is(err, services.ErrQuizNotFound) {
			return c.Status(fiber.StatusNotFound).JSON(dto.ErrorResponse{
				Error: true, Message: "Quiz not found",
			})
		}
		return c.Status(fiber.StatusBadRequest).JSON(dto.ErrorResponse{
			Error: true, Message: err.Error(),
		})
	}

	return c.JSON(quiz)
}

func (h *QuizHandler) Delete(c *fiber.Ctx) error {
	userID, err := middleware.UserID(c)
	if err != nil {
		return c.Status(fiber.StatusUnauthorized).JSON(dto.ErrorResponse{
			Error: true, Message: "Unauthorized",
		})
	}

	quizID, err := uuid.Parse(c.Params("id"))
	if err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(dto.ErrorResponse{
			Error: true, Message: "Invalid quiz ID",
		})
	}

	title, err := h.quizService.Delete(userID, quizID)
	if err != nil {
		return c.Status(fiber.StatusInternalServerError).JSON(dto.ErrorResponse{
			Error: true, Message: "Failed to delete quiz",
		})
	}

	return c.JSON(fiber.Map{"message": "Quiz deleted", "title": title})
}

func (h *QuizHandler) Credits(c *fiber.Ctx) error {
	userID, err := middleware.UserID(c)
	if err != nil {
		return c.Status(fiber.StatusUnauthorized).JSON(dto.ErrorResponse{
			Error: true, Message: "Unauthorized",
		})
	}

	balance, err := h.ledger.Balance(userID)
	if err != nil {
		return c.Status(fiber.StatusInternalServerError).JSON(dto.ErrorResponse{
			Error: true, Message: "Failed to fetch credits",
		})
	}

	return c.JSON(fiber.Map{"credits": balance})
}
