package services

import (
	"path/filepath"
	"testing"
	"time"

	sqlite "github.com/glebarez/sqlite"
	"github.com/google/uuid"
	"golang.org/x/crypto/bcrypt"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"

	"github.com/mwdynamics/studyvant/internal/config"
	"github.com/mwdynamics/studyvant/internal/models"
)

func openTestDB(t *testing.T) *gorm.DB {
	t.Helper()

	path := filepath.Join(t.TempDir(), "test.db")
	db, err := gorm.Open(sqlite.Open(path), &gorm.Config{
		TranslateError: true,
		Logger:         logger.Default.LogMode(logger.Silent),
	})
	if err != nil {
		t.Fatalf("failed to open sqlite: %v", err)
	}

	if err := db.AutoMigrate(
		&models.User{},
		&models.RefreshToken{},
		&models.Note{},
		&models.Quiz{},
		&models.ClassTag{},
		&models.Feedback{},
		&models.FeedbackUpvote{},
		&models.Purchase{},
	); err != nil {
		t.Fatalf("failed to migrate schema: %v", err)
	}
	return db
}

func testConfig() *config.Config {
	return &config.Config{
		JWTSecret:        "test-secret",
		JWTAccessExpiry:  time.Hour,
		JWTRefreshExpiry: 24 * time.Hour,
		BaseURL:          "http://localhost:3000",
		StartingCredits:  1,
	}
}

func createTestUser(t *testing.T, db *gorm.DB, credits int) *models.User {
	t.Helper()
	return createTestUserAt(t, db, uuid.New().String()+"@example.com", credits)
}

func createTestUserWithEmail(t *testing.T, db *gorm.DB, email string) *models.User {
	t.Helper()
	return createTestUserAt(t, db, email, 1)
}

func createTestUserAt(t *testing.T, db *gorm.DB, email string, credits int) *models.User {
	t.Helper()

	hash, err := bcrypt.GenerateFromPassword([]byte("hunter2hunter2"), bcrypt.MinCost)
	if err != nil {
		t.Fatalf("failed to hash password: %v", err)
	}

	user := models.User{
		ID:         uuid.New(),
		Email:      email,
		Password:   string(hash),
		Name:       "Test User",
		SignedUpAt: time.Now(),
		Credits:    credits,
		Verified:   true,
	}
	if err := db.Create(&user).Error; err != nil {
		t.Fatalf("failed to create user: %v", err)
	}
	return &user
}

// recordingMailer captures sent mail for assertions. onSend, when set, runs
// before the mail is recorded; tests use it to interleave work inside the
// registration flow.
type recordingMailer struct {
	sent   []sentMail
	fail   error
	onSend func()
}

type sentMail struct {
	to      string
	subject string
	body    string
}

func (m *recordingMailer) Send(to, subject, htmlBody string) error {
	if m.fail != nil {
		return m.fail
	}
	if m.onSend != nil {
		m.onSend()
	}
	m.sent = append(m.sent, sentMail{to: to, subject: subject, body: htmlBody})
	return nil
}
