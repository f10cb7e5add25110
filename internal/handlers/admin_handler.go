package handlers

import (
	"github.com/gofiber/fiber/v2"

	"github.com/mwdynamics/studyvant/internal/dto"
	"github.com/mwdynamics/studyvant/internal/services"
)

type AdminHandler struct {
	authService *services.AuthService
}

func NewAdminHandler(authService *services.AuthService) *AdminHandler {
	return &AdminHandler{authService: authService}
}

// RecentSignups lists accounts created in the last N days (default 3).
func (h *AdminHandler) RecentSignups(c *fiber.Ctx) error {
	days := c.QueryInt("days", 3)

	users, err := h.authService.RecentSignups(days)
	if err != nil {
		return c.Status(fiber.StatusInternalServerError).JSON(dto.ErrorResponse{
			Error: true, Message: "Failed to fetch recent signups",
		})
	}

	resp := make([]dto.UserResponse, 0, len(users))
	for _, u := range users {
		resp = append(resp, dto.UserResponse{
			ID:       u.ID,
			Email:    u.Email,
			Name:     u.Name,
			Credits:  u.Credits,
			Verified: u.Verified,
		})
	}

	return c.JSON(fiber.Map{"users": resp, "count": len(resp)})
}
