package services

import (
	"errors"
	"strings"
	"testing"

	"github.com/mwdynamics/studyvant/internal/dto"
	"github.com/mwdynamics/studyvant/internal/mail"
	"github.com/mwdynamics/studyvant/internal/models"
)

func TestRegisterCreatesUnverifiedAccountWithStartingCredits(t *testing.T) {
	db := openTestDB(t)
	mailer := &recordingMailer{}
	svc := NewAuthService(db, testConfig(), mailer)

	user, err := svc.Register(&dto.RegisterRequest{
		Email:    "Alice@Example.COM",
		Password: "supersecret",
		Name:     "Alice",
	})
	if err != nil {
		t.Fatalf("register failed: %v", err)
	}

	if user.Email != "alice@example.com" {
		t.Fatalf("expected lowercased email, got %q", user.Email)
	}
	if user.Verified {
		t.Fatal("new accounts must start unverified")
	}
	if user.Credits != 1 {
		t.Fatalf("expected 1 starting credit, got %d", user.Credits)
	}
	if len(mailer.sent) != 1 {
		t.Fatalf("expected 1 verification email, got %d", len(mailer.sent))
	}
	if user.VerificationToken == nil || !strings.Contains(mailer.sent[0].body, *user.VerificationToken) {
		t.Fatal("verification email must carry the account's token")
	}
}

func TestRegisterRejectsDuplicateEmail(t *testing.T) {
	db := openTestDB(t)
	svc := NewAuthService(db, testConfig(), &recordingMailer{})

	req := &dto.RegisterRequest{Email: "bob@example.com", Password: "supersecret", Name: "Bob"}
	if _, err := svc.Register(req); err != nil {
		t.Fatalf("first register failed: %v", err)
	}
	if _, err := svc.Register(req); !errors.Is(err, ErrEmailTaken) {
		t.Fatalf("expected ErrEmailTaken, got %v", err)
	}
}

func TestRegisterDeliveryFailureLeavesNoAccount(t *testing.T) {
	db := openTestDB(t)
	mailer := &recordingMailer{fail: mail.ErrDelivery}
	svc := NewAuthService(db, testConfig(), mailer)

	_, err := svc.Register(&dto.RegisterRequest{Email: "carol@example.com", Password: "supersecret"})
	if !errors.Is(err, mail.ErrDelivery) {
		t.Fatalf("expected delivery error, got %v", err)
	}

	var count int64
	db.Model(&models.User{}).Where("email = ?", "carol@example.com").Count(&count)
	if count != 0 {
		t.Fatal("a failed verification email must not strand an account")
	}
}

func TestLoginRequiresVerifiedEmail(t *testing.T) {
	db := openTestDB(t)
	svc := NewAuthService(db, testConfig(), &recordingMailer{})

	if _, err := svc.Register(&dto.RegisterRequest{Email: "dave@example.com", Password: "supersecret"}); err != nil {
		t.Fatalf("register failed: %v", err)
	}

	_, err := svc.Login(&dto.LoginRequest{Email: "dave@example.com", Password: "supersecret"})
	if !errors.Is(err, ErrNotVerified) {
		t.Fatalf("expected ErrNotVerified, got %v", err)
	}

	_, err = svc.Login(&dto.LoginRequest{Email: "nobody@example.com", Password: "supersecret"})
	if !errors.Is(err, ErrUserNotFound) {
		t.Fatalf("expected ErrUserNotFound, got %v", err)
	}

	var user models.User
	db.Where("email = ?", "dave@example.com").First(&user)
	if err := svc.VerifyEmail(*user.VerificationToken); err != nil {
		t.Fatalf("verify failed: %v", err)
	}

	resp, err := svc.Login(&dto.LoginRequest{Email: "dave@example.com", Password: "supersecret"})
	if err != nil {
		t.Fatalf("login after verification failed: %v", err)
	}
	if resp.AccessToken == "" || resp.RefreshToken == "" {
		t.Fatal("expected a token pair")
	}

	_, err = svc.Login(&dto.LoginRequest{Email: "dave@example.com", Password: "wrongpassword"})
	if !errors.Is(err, ErrInvalidCredentials) {
		t.Fatalf("expected ErrInvalidCredentials, got %v", err)
	}
}

func TestVerificationTokenIsSingleUse(t *testing.T) {
	db := openTestDB(t)
	svc := NewAuthService(db, testConfig(), &recordingMailer{})

	if _, err := svc.Register(&dto.RegisterRequest{Email: "erin@example.com", Password: "supersecret"}); err != nil {
		t.Fatalf("register failed: %v", err)
	}

	var user models.User
	db.Where("email = ?", "erin@example.com").First(&user)
	token := *user.VerificationToken

	if err := svc.VerifyEmail(token); err != nil {
		t.Fatalf("first verify failed: %v", err)
	}
	if err := svc.VerifyEmail(token); !errors.Is(err, ErrInvalidVerifyToken) {
		t.Fatalf("consumed token must not verify again, got %v", err)
	}
	if err := svc.VerifyEmail(""); !errors.Is(err, ErrInvalidVerifyToken) {
		t.Fatalf("empty token must be rejected, got %v", err)
	}
}

func TestResendVerificationRotatesToken(t *testing.T) {
	db := openTestDB(t)
	mailer := &recordingMailer{}
	svc := NewAuthService(db, testConfig(), mailer)

	if _, err := svc.Register(&dto.RegisterRequest{Email: "frank@example.com", Password: "supersecret"}); err != nil {
		t.Fatalf("register failed: %v", err)
	}

	var user models.User
	db.Where("email = ?", "frank@example.com").First(&user)
	oldToken := *user.VerificationToken

	if err := svc.ResendVerification("frank@example.com"); err != nil {
		t.Fatalf("resend failed: %v", err)
	}

	if err := svc.VerifyEmail(oldToken); !errors.Is(err, ErrInvalidVerifyToken) {
		t.Fatalf("rotated-out token must be rejected, got %v", err)
	}

	db.Where("email = ?", "frank@example.com").First(&user)
	if err := svc.VerifyEmail(*user.VerificationToken); err != nil {
		t.Fatalf("verify with rotated token failed: %v", err)
	}

	if err := svc.ResendVerification("frank@example.com"); !errors.Is(err, ErrAlreadyVerified) {
		t.Fatalf("expected ErrAlreadyVerified, got %v", err)
	}
}

func TestChangePasswordBindsToSessionAccount(t *testing.T) {
	db := openTestDB(t)
	svc := NewAuthService(db, testConfig(), &recordingMailer{})
	alice := createTestUser(t, db, 1)
	mallory := createTestUser(t, db, 1)

	// Validating against one account while authenticated as another must fail.
	err := svc.ChangePassword(mallory.ID, &dto.ChangePasswordRequest{
		Email:       alice.Email,
		Password:    "hunter2hunter2",
		NewPassword: "newpassword1",
	})
	if !errors.Is(err, ErrInvalidCredentials) {
		t.Fatalf("expected ErrInvalidCredentials for mismatched account, got %v", err)
	}

	err = svc.ChangePassword(alice.ID, &dto.ChangePasswordRequest{
		Email:       alice.Email,
		Password:    "hunter2hunter2",
		NewPassword: "newpassword1",
	})
	if err != nil {
		t.Fatalf("change password failed: %v", err)
	}

	if _, err := svc.Login(&dto.LoginRequest{Email: alice.Email, Password: "newpassword1"}); err != nil {
		t.Fatalf("login with new password failed: %v", err)
	}
}

func TestRefreshRotatesAndRevokes(t *testing.T) {
	db := openTestDB(t)
	svc := NewAuthService(db, testConfig(), &recordingMailer{})
	user := createTestUser(t, db, 1)

	pair, err := svc.generateTokenPair(user)
	if err != nil {
		t.Fatalf("token pair failed: %v", err)
	}

	refreshed, err := svc.Refresh(&dto.RefreshRequest{RefreshToken: pair.RefreshToken})
	if err != nil {
		t.Fatalf("refresh failed: %v", err)
	}
	if refreshed.RefreshToken == pair.RefreshToken {
		t.Fatal("refresh must rotate the token")
	}

	if _, err := svc.Refresh(&dto.RefreshRequest{RefreshToken: pair.RefreshToken}); !errors.Is(err, ErrInvalidToken) {
		t.Fatalf("used refresh token must be revoked, got %v", err)
	}

	if err := svc.Logout(&dto.LogoutRequest{RefreshToken: refreshed.RefreshToken}); err != nil {
		t.Fatalf("logout failed: %v", err)
	}
	if _, err := svc.Refresh(&dto.RefreshRequest{RefreshToken: refreshed.RefreshToken}); !errors.Is(err, ErrInvalidToken) {
		t.Fatalf("logged-out refresh token must be revoked, got %v", err)
	}
}

func TestDeleteAccountRemovesOwnedRows(t *testing.T) {
	db := openTestDB(t)
	svc := NewAuthService(db, testConfig(), &recordingMailer{})
	user := createTestUser(t, db, 1)

	db.Create(&models.Note{UserID: user.ID, ClassName: "Bio101", Title: "Cells", Content: "notes"})
	db.Create(&models.ClassTag{UserID: user.ID, Name: "Bio101"})

	if err := svc.DeleteAccount(user.ID, "wrong"); !errors.Is(err, ErrInvalidCredentials) {
		t.Fatalf("expected ErrInvalidCredentials, got %v", err)
	}

	if err := svc.DeleteAccount(user.ID, "hunter2hunter2"); err != nil {
		t.Fatalf("delete account failed: %v", err)
	}

	var notes, tags int64
	db.Model(&models.Note{}).Where("user_id = ?", user.ID).Count(&notes)
	db.Model(&models.ClassTag{}).Where("user_id = ?", user.ID).Count(&tags)
	if notes != 0 || tags != 0 {
		t.Fatalf("expected owned rows removed, got %d notes and %d tags", notes, tags)
	}
}

func TestDeleteAccountAdjustsUpvoteCounts(t *testing.T) {
	db := openTestDB(t)
	svc := NewAuthService(db, testConfig(), &recordingMailer{})
	feedback := NewFeedbackService(db)
	author := createTestUser(t, db, 1)
	voter := createTestUser(t, db, 1)

	entry, err := feedback.Submit(author.ID, "Dark mode", "Please add a dark theme")
	if err != nil {
		t.Fatalf("submit failed: %v", err)
	}
	if _, _, err := feedback.ToggleUpvote(voter.ID, entry.ID); err != nil {
		t.Fatalf("toggle failed: %v", err)
	}

	if err := svc.DeleteAccount(voter.ID, "hunter2hunter2"); err != nil {
		t.Fatalf("delete account failed: %v", err)
	}

	var stored models.Feedback
	if err := db.First(&stored, "id = ?", entry.ID).Error; err != nil {
		t.Fatalf("reload failed: %v", err)
	}
	var rows int64
	db.Model(&models.FeedbackUpvote{}).Where("feedback_id = ?", entry.ID).Count(&rows)
	if stored.UpvoteCount != 0 || rows != 0 {
		t.Fatalf("count must track the vote rows, got count=%d rows=%d", stored.UpvoteCount, rows)
	}
}

func TestDeleteAccountFreesEmailForReRegistration(t *testing.T) {
	db := openTestDB(t)
	svc := NewAuthService(db, testConfig(), &recordingMailer{})

	user, err := svc.Register(&dto.RegisterRequest{Email: "grace@example.com", Password: "supersecret"})
	if err != nil {
		t.Fatalf("register failed: %v", err)
	}
	if err := svc.VerifyEmail(*user.VerificationToken); err != nil {
		t.Fatalf("verify failed: %v", err)
	}
	if err := svc.DeleteAccount(user.ID, "supersecret"); err != nil {
		t.Fatalf("delete account failed: %v", err)
	}

	if _, err := svc.Register(&dto.RegisterRequest{Email: "grace@example.com", Password: "supersecret"}); err != nil {
		t.Fatalf("deleted email must be registrable again, got %v", err)
	}
}

func TestRegisterConcurrentDuplicateMapsToEmailTaken(t *testing.T) {
	db := openTestDB(t)
	mailer := &recordingMailer{}
	svc := NewAuthService(db, testConfig(), mailer)

	// A second registration for the same email lands between the duplicate
	// lookup and the insert. The unique index catches it; the caller still
	// sees ErrEmailTaken, not a wrapped driver error.
	mailer.onSend = func() {
		createTestUserWithEmail(t, db, "heidi@example.com")
	}

	_, err := svc.Register(&dto.RegisterRequest{Email: "heidi@example.com", Password: "supersecret"})
	if !errors.Is(err, ErrEmailTaken) {
		t.Fatalf("expected ErrEmailTaken, got %v", err)
	}
}
