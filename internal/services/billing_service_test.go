package services

import (
	"errors"
	"testing"

	"github.com/stripe/stripe-go/v76"

	"github.com/mwdynamics/studyvant/internal/models"
)

func TestCheckoutParamsMatchPriceTable(t *testing.T) {
	db := openTestDB(t)
	svc := NewBillingService(db, testConfig())
	user := createTestUser(t, db, 1)

	params, err := svc.CheckoutParams(user.ID, "10")
	if err != nil {
		t.Fatalf("checkout params failed: %v", err)
	}

	item := params.LineItems[0]
	if *item.PriceData.UnitAmount != 499 {
		t.Fatalf("expected 499 cents for the 10-pack, got %d", *item.PriceData.UnitAmount)
	}
	if *item.PriceData.ProductData.Name != "10 quizzes" {
		t.Fatalf("expected product name %q, got %q", "10 quizzes", *item.PriceData.ProductData.Name)
	}
	if *item.PriceData.Currency != "usd" {
		t.Fatalf("expected usd, got %q", *item.PriceData.Currency)
	}
	if params.Metadata["user_id"] != user.ID.String() {
		t.Fatal("session metadata must carry the purchasing user id")
	}
	if *params.SuccessURL != "http://localhost:3000/success?plan=10" {
		t.Fatalf("unexpected success url %q", *params.SuccessURL)
	}

	if _, err := svc.CheckoutParams(user.ID, "7"); !errors.Is(err, ErrInvalidPlan) {
		t.Fatalf("expected ErrInvalidPlan for unknown plan, got %v", err)
	}
}

func TestSortedPlansAscendingBySize(t *testing.T) {
	plans := SortedPlans()
	if len(plans) != 3 {
		t.Fatalf("expected 3 plans, got %d", len(plans))
	}
	for i := 1; i < len(plans); i++ {
		if plans[i].Credits <= plans[i-1].Credits {
			t.Fatalf("plans out of order at %d", i)
		}
	}
	if plans[2].PriceCents != 2499 {
		t.Fatalf("expected the 100-pack at 2499 cents, got %d", plans[2].PriceCents)
	}
}

func TestHandleCheckoutCompletedGrantsOnce(t *testing.T) {
	db := openTestDB(t)
	svc := NewBillingService(db, testConfig())
	ledger := NewCreditLedger(db)
	user := createTestUser(t, db, 1)

	sess := &stripe.CheckoutSession{
		ID:          "cs_test_123",
		AmountTotal: 999,
		Currency:    stripe.CurrencyUSD,
		Metadata: map[string]string{
			"user_id": user.ID.String(),
			"plan":    "25",
		},
	}

	if err := svc.HandleCheckoutCompleted(sess); err != nil {
		t.Fatalf("fulfillment failed: %v", err)
	}

	balance, _ := ledger.Balance(user.ID)
	if balance != 26 {
		t.Fatalf("expected 26 credits after the 25-pack, got %d", balance)
	}

	// A redelivered webhook for the same session must be a no-op.
	if err := svc.HandleCheckoutCompleted(sess); err != nil {
		t.Fatalf("replayed fulfillment errored: %v", err)
	}
	balance, _ = ledger.Balance(user.ID)
	if balance != 26 {
		t.Fatalf("replayed webhook must not grant again, got %d", balance)
	}

	var purchases int64
	db.Model(&models.Purchase{}).Where("session_id = ?", sess.ID).Count(&purchases)
	if purchases != 1 {
		t.Fatalf("expected a single purchase row, got %d", purchases)
	}
}

func TestHandleCheckoutCompletedRejectsBadMetadata(t *testing.T) {
	db := openTestDB(t)
	svc := NewBillingService(db, testConfig())
	user := createTestUser(t, db, 1)

	noUser := &stripe.CheckoutSession{ID: "cs_test_nouser", Metadata: map[string]string{"plan": "10"}}
	if err := svc.HandleCheckoutCompleted(noUser); err == nil {
		t.Fatal("expected error for missing user metadata")
	}

	badPlan := &stripe.CheckoutSession{
		ID:       "cs_test_badplan",
		Metadata: map[string]string{"user_id": user.ID.String(), "plan": "9000"},
	}
	if err := svc.HandleCheckoutCompleted(badPlan); !errors.Is(err, ErrInvalidPlan) {
		t.Fatalf("expected ErrInvalidPlan, got %v", err)
	}
}
