package services

import (
	"errors"
	"fmt"
	"log/slog"
	"sort"

	"github.com/google/uuid"
	"github.com/stripe/stripe-go/v76"
	"github.com/stripe/stripe-go/v76/checkout/session"
	"gorm.io/gorm"

	"github.com/mwdynamics/studyvant/internal/config"
	"github.com/mwdynamics/studyvant/internal/models"
)

var ErrInvalidPlan = errors.New("invalid plan selected")

// Plan is one entry in the fixed credit-bundle price table.
type Plan struct {
	ID         string
	Label      string
	Credits    int
	PriceCents int64
}

// Plans is the fixed price table; it is defined in code, not persisted.
var Plans = map[string]Plan{
	"10":  {ID: "10", Label: "10 quizzes", Credits: 10, PriceCents: 499},
	"25":  {ID: "25", Label: "25 quizzes", Credits: 25, PriceCents: 999},
	"100": {ID: "100", Label: "100 quizzes", Credits: 100, PriceCents: 2499},
}

// SortedPlans returns the price table smallest bundle first.
func SortedPlans() []Plan {
	plans := make([]Plan, 0, len(Plans))
	for _, p := range Plans {
		plans = append(plans, p)
	}
	sort.Slice(plans, func(i, j int) bool { return plans[i].Credits < plans[j].Credits })
	return plans
}

// BillingService creates Stripe checkout sessions and credits the ledger
// when a signature-verified webhook confirms payment.
type BillingService struct {
	db  *gorm.DB
	cfg *config.Config
}

func NewBillingService(db *gorm.DB, cfg *config.Config) *BillingService {
	return &BillingService{db: db, cfg: cfg}
}

// CheckoutParams builds the Stripe session parameters for a plan. The user
// id travels in session metadata so the webhook can attribute the payment.
func (s *BillingService) CheckoutParams(userID uuid.UUID, planID string) (*stripe.CheckoutSessionParams, error) {
	plan, ok := Plans[planID]
	if !ok {
		return nil, ErrInvalidPlan
	}

	params := &stripe.CheckoutSessionParams{
		Mode:                stripe.String(string(stripe.CheckoutSessionModePayment)),
		AllowPromotionCodes: stripe.Bool(true),
		LineItems: []*stripe.CheckoutSessionLineItemParams{
			{
				PriceData: &stripe.CheckoutSessionLineItemPriceDataParams{
					Currency: stripe.String("usd"),
					ProductData: &stripe.CheckoutSessionLineItemPriceDataProductDataParams{
						Name: stripe.String(plan.Label),
					},
					UnitAmount: stripe.Int64(plan.PriceCents),
				},
				Quantity: stripe.Int64(1),
			},
		},
		SuccessURL: stripe.String(s.cfg.BaseURL + "/success?plan=" + plan.ID),
		CancelURL:  stripe.String(s.cfg.BaseURL + "/cancel"),
	}
	params.AddMetadata("user_id", userID.String())
	params.AddMetadata("plan", plan.ID)
	return params, nil
}

// CreateCheckout opens a hosted checkout session and returns its URL.
func (s *BillingService) CreateCheckout(userID uuid.UUID, planID string) (string, error) {
	params, err := s.CheckoutParams(userID, planID)
	if err != nil {
		return "", err
	}

	sess, err := session.New(params)
	if err != nil {
		return "", fmt.Errorf("failed to create checkout session: %w", err)
	}
	return sess.URL, nil
}

// HandleCheckoutCompleted credits the ledger for a provider-confirmed
// payment. The unique session id makes redelivered webhooks a no-op.
func (s *BillingService) HandleCheckoutCompleted(sess *stripe.CheckoutSession) error {
	userID, err := uuid.Parse(sess.Metadata["user_id"])
	if err != nil {
		return fmt.Errorf("checkout session missing user metadata: %w", err)
	}

	plan, ok := Plans[sess.Metadata["plan"]]
	if !ok {
		return fmt.Errorf("%w: %q", ErrInvalidPlan, sess.Metadata["plan"])
	}

	purchase := models.Purchase{
		ID:          uuid.New(),
		UserID:      userID,
		SessionID:   sess.ID,
		Plan:        plan.ID,
		Credits:     plan.Credits,
		AmountCents: sess.AmountTotal,
		Currency:    string(sess.Currency),
	}

	return s.db.Transaction(func(tx *gorm.DB) error {
		if err := tx.Create(&purchase).Error; err != nil {
			if errors.Is(err, gorm.ErrDuplicatedKey) {
				slog.Info("duplicate checkout webhook ignored", "session_id", sess.ID)
				return nil
			}
			return fmt.Errorf("failed to record purchase: %w", err)
		}

		result := tx.Model(&models.User{}).
			Where("id = ?", userID).
			UpdateColumn("credits", gorm.Expr("credits + ?", plan.Credits))
		if result.Error != nil {
			return fmt.Errorf("failed to grant credits: %w", result.Error)
		}
		if result.RowsAffected == 0 {
			return ErrUserNotFound
		}
		return nil
	})
}
