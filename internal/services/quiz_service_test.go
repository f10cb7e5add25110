package services

import (
	"context"
	"errors"
	"strings"
	"testing"

	"github.com/google/uuid"

	"github.com/mwdynamics/studyvant/internal/ai"
	"github.com/mwdynamics/studyvant/internal/models"
)

// fakeGenerator satisfies ai.QuizGenerator without network calls.
type fakeGenerator struct {
	result *ai.GeneratedQuiz
	err    error
	calls  int
}

func (g *fakeGenerator) GenerateQuiz(_ context.Context, _ string) (*ai.GeneratedQuiz, error) {
	g.calls++
	if g.err != nil {
		return nil, g.err
	}
	return g.result, nil
}

func sampleGenerated() *ai.GeneratedQuiz {
	return &ai.GeneratedQuiz{
		Title: "Photosynthesis",
		Questions: []ai.Question{
			{
				Question:      "What gas do plants absorb?",
				Options:       []string{"Oxygen", "Carbon dioxide", "Nitrogen", "Helium"},
				CorrectAnswer: "Carbon dioxide",
				Explanation:   "Plants fix CO2 during photosynthesis.",
			},
			{
				Question:      "Where does photosynthesis occur?",
				Options:       []string{"Mitochondria", "Nucleus", "Chloroplast", "Ribosome"},
				CorrectAnswer: "Chloroplast",
				Explanation:   "Chloroplasts contain chlorophyll.",
			},
		},
	}
}

func TestGenerateConsumesExactlyOneCredit(t *testing.T) {
	db := openTestDB(t)
	ledger := NewCreditLedger(db)
	svc := NewQuizService(db, ledger, &fakeGenerator{result: sampleGenerated()})
	user := createTestUser(t, db, 2)

	quiz, err := svc.Generate(context.Background(), user.ID, "Bio101", "Cells", "some notes about cells")
	if err != nil {
		t.Fatalf("generate failed: %v", err)
	}
	if quiz.TotalQuestions != 2 {
		t.Fatalf("expected 2 questions, got %d", quiz.TotalQuestions)
	}
	if quiz.BestScore != 0 {
		t.Fatalf("expected best score 0 on a fresh quiz, got %d", quiz.BestScore)
	}

	balance, _ := ledger.Balance(user.ID)
	if balance != 1 {
		t.Fatalf("expected balance 1 after one generation, got %d", balance)
	}
}

func TestGenerateWithZeroCreditsNeverCallsGenerator(t *testing.T) {
	db := openTestDB(t)
	gen := &fakeGenerator{result: sampleGenerated()}
	svc := NewQuizService(db, NewCreditLedger(db), gen)
	user := createTestUser(t, db, 0)

	_, err := svc.Generate(context.Background(), user.ID, "Bio101", "Cells", "notes")
	if !errors.Is(err, ErrInsufficientCredits) {
		t.Fatalf("expected ErrInsufficientCredits, got %v", err)
	}
	if gen.calls != 0 {
		t.Fatalf("generator should not be called with zero credits, got %d calls", gen.calls)
	}
}

func TestGenerateFailureRefundsCreditAndKeepsNote(t *testing.T) {
	db := openTestDB(t)
	ledger := NewCreditLedger(db)
	svc := NewQuizService(db, ledger, &fakeGenerator{err: ai.ErrBadResponse})
	user := createTestUser(t, db, 1)

	_, err := svc.Generate(context.Background(), user.ID, "Bio101", "Cells", "notes about cells")
	if !errors.Is(err, ai.ErrBadResponse) {
		t.Fatalf("expected ErrBadResponse, got %v", err)
	}

	balance, _ := ledger.Balance(user.ID)
	if balance != 1 {
		t.Fatalf("expected full refund, got balance %d", balance)
	}

	var noteCount, quizCount int64
	db.Model(&models.Note{}).Where("user_id = ?", user.ID).Count(&noteCount)
	db.Model(&models.Quiz{}).Where("user_id = ?", user.ID).Count(&quizCount)
	if noteCount != 1 {
		t.Fatalf("expected note to survive failed generation, got %d notes", noteCount)
	}
	if quizCount != 0 {
		t.Fatalf("expected no quiz rows, got %d", quizCount)
	}
}

func TestGenerateRejectsOversizedInput(t *testing.T) {
	db := openTestDB(t)
	svc := NewQuizService(db, NewCreditLedger(db), &fakeGenerator{result: sampleGenerated()})
	user := createTestUser(t, db, 1)

	if _, err := svc.Generate(context.Background(), user.ID, "Bio101", "a title well over twenty characters", "notes"); err == nil {
		t.Fatal("expected error for oversized title")
	}
	if _, err := svc.Generate(context.Background(), user.ID, "Bio101", "Cells", strings.Repeat("x", maxNoteLen+1)); err == nil {
		t.Fatal("expected error for oversized notes")
	}
	if _, err := svc.Generate(context.Background(), user.ID, "", "Cells", "notes"); err == nil {
		t.Fatal("expected error for missing class name")
	}
}

func TestUpdateBestScoreKeepsMaximum(t *testing.T) {
	db := openTestDB(t)
	svc := NewQuizService(db, NewCreditLedger(db), &fakeGenerator{result: sampleGenerated()})
	user := createTestUser(t, db, 1)

	quiz, err := svc.Generate(context.Background(), user.ID, "Bio101", "Cells", "notes")
	if err != nil {
		t.Fatalf("generate failed: %v", err)
	}

	got, err := svc.UpdateBestScore(user.ID, quiz.ID, 60)
	if err != nil {
		t.Fatalf("update failed: %v", err)
	}
	if got.BestScore != 60 {
		t.Fatalf("expected first score to land, got %d", got.BestScore)
	}

	got, err = svc.UpdateBestScore(user.ID, quiz.ID, 40)
	if err != nil {
		t.Fatalf("update failed: %v", err)
	}
	if got.BestScore != 60 {
		t.Fatalf("lower score must not overwrite the best, got %d", got.BestScore)
	}

	got, err = svc.UpdateBestScore(user.ID, quiz.ID, 90)
	if err != nil {
		t.Fatalf("update failed: %v", err)
	}
	if got.BestScore != 90 {
		t.Fatalf("higher score must overwrite the best, got %d", got.BestScore)
	}

	if _, err := svc.UpdateBestScore(user.ID, uuid.New(), 50); !errors.Is(err, ErrQuizNotFound) {
		t.Fatalf("expected ErrQuizNotFound, got %v", err)
	}
}

func TestGetHidesForeignQuizzes(t *testing.T) {
	db := openTestDB(t)
	svc := NewQuizService(db, NewCreditLedger(db), &fakeGenerator{result: sampleGenerated()})
	owner := createTestUser(t, db, 1)
	other := createTestUser(t, db, 1)

	quiz, err := svc.Generate(context.Background(), owner.ID, "Bio101", "Cells", "notes")
	if err != nil {
		t.Fatalf("generate failed: %v", err)
	}

	if _, err := svc.Get(other.ID, quiz.ID); !errors.Is(err, ErrQuizNotFound) {
		t.Fatalf("expected foreign quiz to read as not found, got %v", err)
	}
}

func TestDeleteQuizIsIdempotent(t *testing.T) {
	db := openTestDB(t)
	svc := NewQuizService(db, NewCreditLedger(db), &fakeGenerator{result: sampleGenerated()})
	user := createTestUser(t, db, 1)

	quiz, err := svc.Generate(context.Background(), user.ID, "Bio101", "Cells", "notes")
	if err != nil {
		t.Fatalf("generate failed: %v", err)
	}

	title, err := svc.Delete(user.ID, quiz.ID)
	if err != nil {
		t.Fatalf("delete failed: %v", err)
	}
	if title != "Cells" {
		t.Fatalf("expected deleted title, got %q", title)
	}

	title, err = svc.Delete(user.ID, quiz.ID)
	if err != nil {
		t.Fatalf("second delete should be a no-op: %v", err)
	}
	if title != "" {
		t.Fatalf("expected empty title on no-op delete, got %q", title)
	}
}
