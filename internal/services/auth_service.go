package services

import (
	"crypto/rand"
	"crypto/sha256"
	"encoding/base64"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"github.com/google/uuid"
	"golang.org/x/crypto/bcrypt"
	"gorm.io/gorm"

	"github.com/mwdynamics/studyvant/internal/config"
	"github.com/mwdynamics/studyvant/internal/dto"
	"github.com/mwdynamics/studyvant/internal/mail"
	"github.com/mwdynamics/studyvant/internal/models"
)

var (
	ErrEmailTaken         = errors.New("email already registered")
	ErrInvalidCredentials = errors.New("invalid email or password")
	ErrInvalidToken       = errors.New("invalid or expired refresh token")
	ErrUserNotFound       = errors.New("user not found")
	ErrNotVerified        = errors.New("email address not verified")
	ErrAlreadyVerified    = errors.New("email address already verified")
	ErrInvalidVerifyToken = errors.New("invalid verification token")
)

type AuthService struct {
	db     *gorm.DB
	cfg    *config.Config
	mailer mail.Mailer
}

func NewAuthService(db *gorm.DB, cfg *config.Config, mailer mail.Mailer) *AuthService {
	return &AuthService{db: db, cfg: cfg, mailer: mailer}
}

// Register creates an unverified account and emails a verification link.
// The account is persisted only after the email is accepted by the relay,
// so a delivery failure never strands an unverifiable account.
func (s *AuthService) Register(req *dto.RegisterRequest) (*models.User, error) {
	email := strings.ToLower(strings.TrimSpace(req.Email))
	if email == "" || len(req.Password) < 8 {
		return nil, errors.New("email required and password must be at least 8 characters")
	}

	var existing models.User
	if err := s.db.Where("email = ?", email).First(&existing).Error; err == nil {
		return nil, ErrEmailTaken
	}

	hash, err := bcrypt.GenerateFromPassword([]byte(req.Password), bcrypt.DefaultCost)
	if err != nil {
		return nil, fmt.Errorf("failed to hash password: %w", err)
	}

	token, err := randomToken()
	if err != nil {
		return nil, err
	}

	now := time.Now()
	user := models.User{
		ID:                uuid.New(),
		Email:             email,
		Password:          string(hash),
		Name:              req.Name,
		PremiumLevel:      0,
		PremiumEndsAt:     now,
		SignedUpAt:        now,
		Points:            0,
		Credits:           s.cfg.StartingCredits,
		Verified:          false,
		VerificationToken: &token,
	}

	subject, body := mail.VerificationEmail(s.cfg.BaseURL, token)
	if err := s.mailer.Send(email, subject, body); err != nil {
		return nil, err
	}

	if err := s.db.Create(&user).Error; err != nil {
		// The lookup above is only a fast path; a concurrent registration for
		// the same email lands here via the unique index.
		if errors.Is(err, gorm.ErrDuplicatedKey) {
			return nil, ErrEmailTaken
		}
		return nil, fmt.Errorf("failed to create user: %w", err)
	}

	return &user, nil
}

func (s *AuthService) Login(req *dto.LoginRequest) (*dto.AuthResponse, error) {
	email := strings.ToLower(strings.TrimSpace(req.Email))

	var user models.User
	if err := s.db.Where("email = ?", email).First(&user).Error; err != nil {
		return nil, ErrUserNotFound
	}

	if err := bcrypt.CompareHashAndPassword([]byte(user.Password), []byte(req.Password)); err != nil {
		return nil, ErrInvalidCredentials
	}

	if !user.Verified {
		return nil, ErrNotVerified
	}

	return s.generateTokenPair(&user)
}

// VerifyEmail consumes a single-use verification token. A token that was
// already consumed no longer matches any row, so the second call fails
// without touching state.
func (s *AuthService) VerifyEmail(token string) error {
	if token == "" {
		return ErrInvalidVerifyToken
	}

	var user models.User
	if err := s.db.Where("verification_token = ?", token).First(&user).Error; err != nil {
		return ErrInvalidVerifyToken
	}

	return s.db.Model(&user).Updates(map[string]interface{}{
		"verified":           true,
		"verification_token": nil,
	}).Error
}

// ResendVerification rotates the token, invalidating the previous link.
func (s *AuthService) ResendVerification(email string) error {
	email = strings.ToLower(strings.TrimSpace(email))

	var user models.User
	if err := s.db.Where("email = ?", email).First(&user).Error; err != nil {
		return ErrUserNotFound
	}
	if user.Verified {
		return ErrAlreadyVerified
	}

	token, err := randomToken()
	if err != nil {
		return err
	}
	if err := s.db.Model(&user).Update("verification_token", token).Error; err != nil {
		return fmt.Errorf("failed to rotate verification token: %w", err)
	}

	subject, body := mail.VerificationEmail(s.cfg.BaseURL, token)
	return s.mailer.Send(email, subject, body)
}

// ChangePassword re-validates the old password against the account found by
// email, then re-hashes for the authenticated session's account. The two
// must match; accepting a different email than the session user would let a
// caller validate against one account and mutate another.
func (s *AuthService) ChangePassword(sessionUserID uuid.UUID, req *dto.ChangePasswordRequest) error {
	if len(req.NewPassword) < 8 {
		return errors.New("new password must be at least 8 characters")
	}

	var user models.User
	if err := s.db.Where("email = ?", strings.ToLower(strings.TrimSpace(req.Email))).First(&user).Error; err != nil {
		return ErrUserNotFound
	}
	if user.ID != sessionUserID {
		return ErrInvalidCredentials
	}

	if err := bcrypt.CompareHashAndPassword([]byte(user.Password), []byte(req.Password)); err != nil {
		return ErrInvalidCredentials
	}

	hash, err := bcrypt.GenerateFromPassword([]byte(req.NewPassword), bcrypt.DefaultCost)
	if err != nil {
		return fmt.Errorf("failed to hash password: %w", err)
	}

	return s.db.Model(&user).Update("password", string(hash)).Error
}

func (s *AuthService) Refresh(req *dto.RefreshRequest) (*dto.AuthResponse, error) {
	tokenHash := hashToken(req.RefreshToken)

	var stored models.RefreshToken
	if err := s.db.Where("token_hash = ? AND revoked = false", tokenHash).First(&stored).Error; err != nil {
		return nil, ErrInvalidToken
	}

	if time.Now().After(stored.ExpiresAt) {
		s.db.Model(&stored).Update("revoked", true)
		return nil, ErrInvalidToken
	}

	s.db.Model(&stored).Update("revoked", true)

	var user models.User
	if err := s.db.First(&user, "id = ?", stored.UserID).Error; err != nil {
		return nil, fmt.Errorf("user not found: %w", err)
	}

	return s.generateTokenPair(&user)
}

func (s *AuthService) Logout(req *dto.LogoutRequest) error {
	tokenHash := hashToken(req.RefreshToken)
	return s.db.Model(&models.RefreshToken{}).
		Where("token_hash = ?", tokenHash).
		Update("revoked", true).Error
}

func (s *AuthService) DeleteAccount(userID uuid.UUID, password string) error {
	var user models.User
	if err := s.db.First(&user, "id = ?", userID).Error; err != nil {
		return ErrUserNotFound
	}

	if password == "" {
		return errors.New("password is required")
	}
	if err := bcrypt.CompareHashAndPassword([]byte(user.Password), []byte(password)); err != nil {
		return ErrInvalidCredentials
	}

	return s.db.Transaction(func(tx *gorm.DB) error {
		tx.Where("user_id = ?", userID).Delete(&models.RefreshToken{})
		tx.Where("user_id = ?", userID).Delete(&models.Note{})
		tx.Where("user_id = ?", userID).Delete(&models.Quiz{})
		tx.Where("user_id = ?", userID).Delete(&models.ClassTag{})

		// The departing user's votes take their count adjustments with them,
		// keeping upvote_count equal to the remaining vote rows.
		if err := tx.Exec(
			"UPDATE feedbacks SET upvote_count = upvote_count - 1 WHERE id IN (SELECT feedback_id FROM feedback_upvotes WHERE user_id = ?)",
			userID,
		).Error; err != nil {
			return err
		}
		if err := tx.Where("user_id = ?", userID).Delete(&models.FeedbackUpvote{}).Error; err != nil {
			return err
		}

		// Hard delete so the unique email can be registered again.
		return tx.Unscoped().Delete(&user).Error
	})
}

// RecentSignups lists accounts created within the last n days, newest first.
func (s *AuthService) RecentSignups(days int) ([]models.User, error) {
	if days <= 0 {
		days = 3
	}
	cutoff := time.Now().AddDate(0, 0, -days)

	var users []models.User
	if err := s.db.Where("signed_up_at >= ?", cutoff).Order("signed_up_at DESC").Find(&users).Error; err != nil {
		return nil, fmt.Errorf("failed to fetch recent signups: %w", err)
	}
	return users, nil
}

func (s *AuthService) generateTokenPair(user *models.User) (*dto.AuthResponse, error) {
	accessToken, err := s.generateAccessToken(user)
	if err != nil {
		return nil, err
	}

	refreshToken, err := s.generateRefreshToken(user)
	if err != nil {
		return nil, err
	}

	return &dto.AuthResponse{
		AccessToken:  accessToken,
		RefreshToken: refreshToken,
		User: dto.UserResponse{
			ID:       user.ID,
			Email:    user.Email,
			Name:     user.Name,
			Credits:  user.Credits,
			Verified: user.Verified,
		},
	}, nil
}

func (s *AuthService) generateAccessToken(user *models.User) (string, error) {
	claims := jwt.MapClaims{
		"sub":   user.ID.String(),
		"email": user.Email,
		"iat":   time.Now().Unix(),
		"exp":   time.Now().Add(s.cfg.JWTAccessExpiry).Unix(),
	}

	token := jwt.NewWithClaims(jwt.SigningMethodHS256, claims)
	return token.SignedString([]byte(s.cfg.JWTSecret))
}

func (s *AuthService) generateRefreshToken(user *models.User) (string, error) {
	rawToken, err := randomToken()
	if err != nil {
		return "", err
	}

	record := models.RefreshToken{
		ID:        uuid.New(),
		UserID:    user.ID,
		TokenHash: hashToken(rawToken),
		ExpiresAt: time.Now().Add(s.cfg.JWTRefreshExpiry),
	}

	if err := s.db.Create(&record).Error; err != nil {
		return "", fmt.Errorf("failed to store refresh token: %w", err)
	}

	return rawToken, nil
}

func randomToken() (string, error) {
	rawBytes := make([]byte, 32)
	if _, err := rand.Read(rawBytes); err != nil {
		return "", fmt.Errorf("failed to generate random bytes: %w", err)
	}
	return base64.RawURLEncoding.EncodeToString(rawBytes), nil
}

func hashToken(token string) string {
	h := sha256.Sum256([]byte(token))
	return fmt.Sprintf("%x", h)
}
