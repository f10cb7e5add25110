package handlers

import (
	"encoding/json"
	"errors"
	"log/slog"

	"github.com/gofiber/fiber/v2"
	"github.com/stripe/stripe-go/v76"
	"github.com/stripe/stripe-go/v76/webhook"

	"github.com/mwdynamics/studyvant/internal/config"
	"github.com/mwdynamics/studyvant/internal/dto"
	"github.com/mwdynamics/studyvant/internal/middleware"
	"github.com/mwdynamics/studyvant/internal/services"
)

type BillingHandler struct {
	billingService *services.BillingService
	cfg            *config.Config
}

func NewBillingHandler(billingService *services.BillingService, cfg *config.Config) *BillingHandler {
	return &BillingHandler{billingService: billingService, cfg: cfg}
}

func (h *BillingHandler) Plans(c *fiber.Ctx) error {
	plans := make([]dto.PlanResponse, 0, len(services.Plans))
	for _, p := range services.SortedPlans() {
		plans = append(plans, dto.PlanResponse{
			ID:         p.ID,
			Label:      p.Label,
			Credits:    p.Credits,
			PriceCents: p.PriceCents,
		})
	}
	return c.JSON(fiber.Map{"plans": plans})
}

func (h *BillingHandler) CreateCheckout(c *fiber.Ctx) error {
	userID, err := middleware.UserID(c)
	if err != nil {
		return c.Status(fiber.StatusUnauthorized).JSON(dto.ErrorResponse{
			Error: true, Message: "Unauthorized",
		})
	}

	planID := c.Params("plan")
	url, err := h.billingService.CreateCheckout(userID, planID)
	if err != nil {
		if errors.Is(err, services.ErrInvalidPlan) {
			return c.Status(fiber.StatusBadRequest).JSON(dto.ErrorResponse{
				Error: true, Message: "Invalid plan selected",
			})
		}
		slog.Error("checkout session creation failed", "user_id", userID, "plan", planID, "error", err)
		return c.Status(fiber.StatusBadGateway).JSON(dto.ErrorResponse{
			Error: true, Message: "Could not start checkout. Please try again.",
		})
	}

	return c.JSON(dto.CheckoutResponse{URL: url})
}

// Webhook receives provider events. Credits are granted here and only here;
// the success redirect is informational.
func (h *BillingHandler) Webhook(c *fiber.Ctx) error {
	event, err := webhook.ConstructEvent(c.Body(), c.Get("Stripe-Signature"), h.cfg.StripeWebhookSecret)
	if err != nil {
		slog.Warn("webhook signature verification failed", "error", err)
		return c.Status(fiber.StatusBadRequest).JSON(dto.ErrorResponse{
			Error: true, Message: "Invalid webhook signature",
		})
	}

	switch event.Type {
	case "checkout.session.completed":
		var sess stripe.CheckoutSession
		if err := json.Unmarshal(event.Data.Raw, &sess); err != nil {
			return c.Status(fiber.StatusBadRequest).JSON(dto.ErrorResponse{
				Error: true, Message: "Malformed event payload",
			})
		}
		if err := h.billingService.HandleCheckoutCompleted(&sess); err != nil {
			slog.Error("checkout fulfillment failed", "session_id", sess.ID, "error", err)
			// Non-2xx makes the provider retry the delivery later.
			return c.Status(fiber.StatusInternalServerError).JSON(dto.ErrorResponse{
				Error: true, Message: "Fulfillment failed",
			})
		}
	default:
		slog.Debug("ignoring webhook event", "type", event.Type)
	}

	return c.JSON(fiber.Map{"received": true})
}

// Success is the browser return URL after payment. It reports progress only;
// it never grants credits.
func (h *BillingHandler) Success(c *fiber.Ctx) error {
	return c.JSON(fiber.Map{
		"message": "Payment received! Your credits will appear within a few seconds.",
		"plan":    c.Query("plan"),
	})
}

func (h *BillingHandler) Cancel(c *fiber.Ctx) error {
	return c.JSON(fiber.Map{"message": "Checkout cancelled. No charge was made."})
}
