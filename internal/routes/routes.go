package routes

import (
	"time"

	"github.com/gofiber/fiber/v2"
	"github.com/gofiber/fiber/v2/middleware/limiter"
	"gorm.io/gorm"

	"github.com/mwdynamics/studyvant/internal/config"
	"github.com/mwdynamics/studyvant/internal/handlers"
	"github.com/mwdynamics/studyvant/internal/middleware"
)

func Setup(
	app *fiber.App,
	cfg *config.Config,
	db *gorm.DB,
	authHandler *handlers.AuthHandler,
	healthHandler *handlers.HealthHandler,
	quizHandler *handlers.QuizHandler,
	noteHandler *handlers.NoteHandler,
	classHandler *handlers.ClassHandler,
	feedbackHandler *handlers.FeedbackHandler,
	billingHandler *handlers.BillingHandler,
	uploadHandler *handlers.UploadHandler,
	adminHandler *handlers.AdminHandler,
) {
	api := app.Group("/api")

	// General API rate limiter: 60 req/min per IP
	api.Use(limiter.New(limiter.Config{
		Max:               60,
		Expiration:        1 * time.Minute,
		LimiterMiddleware: limiter.SlidingWindow{},
		KeyGenerator:      func(c *fiber.Ctx) string { return c.IP() },
	}))

	api.Get("/health", healthHandler.Check)

	// Auth — public, with a stricter rate limit: 10 req/min per IP
	auth := api.Group("/auth")
	auth.Use(limiter.New(limiter.Config{
		Max:               10,
		Expiration:        1 * time.Minute,
		LimiterMiddleware: limiter.SlidingWindow{},
		KeyGenerator:      func(c *fiber.Ctx) string { return c.IP() },
	}))
	auth.Post("/register", authHandler.Register)
	auth.Post("/login", authHandler.Login)
	auth.Post("/refresh", authHandler.Refresh)
	auth.Get("/verify/:token", authHandler.VerifyEmail)
	auth.Post("/resend-verification", authHandler.ResendVerification)

	// Protected auth routes - apply middleware to individual routes so the
	// public ones above stay public
	api.Post("/auth/logout", middleware.JWTProtected(cfg), authHandler.Logout)
	api.Post("/auth/change-password", middleware.JWTProtected(cfg), authHandler.ChangePassword)
	api.Delete("/auth/account", middleware.JWTProtected(cfg), authHandler.DeleteAccount)

	// Quizzes (protected)
	quizzes := api.Group("/quizzes", middleware.JWTProtected(cfg))
	quizzes.Post("/", quizHandler.Generate)
	quizzes.Get("/", quizHandler.List)
	quizzes.Get("/latest", quizHandler.Latest)
	quizzes.Get("/:id", quizHandler.Get)
	quizzes.Put("/:id/best-score", quizHandler.UpdateBestScore)
	quizzes.Delete("/:id", quizHandler.Delete)

	api.Get("/credits", middleware.JWTProtected(cfg), quizHandler.Credits)

	// Notes (protected)
	notes := api.Group("/notes", middleware.JWTProtected(cfg))
	notes.Post("/", noteHandler.Create)
	notes.Get("/", noteHandler.List)

	// Classes (protected)
	classes := api.Group("/classes", middleware.JWTProtected(cfg))
	classes.Post("/", classHandler.Add)
	classes.Get("/", classHandler.List)
	classes.Delete("/:name", classHandler.Delete)

	// Feedback board (protected)
	feedback := api.Group("/feedback", middleware.JWTProtected(cfg))
	feedback.Post("/", feedbackHandler.Submit)
	feedback.Get("/", feedbackHandler.List)
	feedback.Delete("/:id", feedbackHandler.Delete)
	feedback.Post("/:id/upvote", feedbackHandler.ToggleUpvote)

	// Billing
	api.Get("/plans", billingHandler.Plans)
	api.Post("/checkout/:plan", middleware.JWTProtected(cfg), billingHandler.CreateCheckout)
	app.Get("/success", billingHandler.Success)
	app.Get("/cancel", billingHandler.Cancel)

	// Webhooks — signature-verified, no JWT, outside the API limiter
	app.Post("/webhooks/stripe", billingHandler.Webhook)

	// Uploads (protected)
	uploads := api.Group("/uploads", middleware.JWTProtected(cfg))
	uploads.Post("/image", uploadHandler.UploadImage)
	uploads.Post("/save", uploadHandler.SaveCropped)

	// Admin (protected + admin required)
	admin := api.Group("/admin", middleware.JWTProtected(cfg), middleware.AdminRequired(db, cfg))
	admin.Get("/recent-signups", adminHandler.RecentSignups)
}
