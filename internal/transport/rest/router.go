package rest

import (
	"database/sql"
	"log/slog"
	"net/http"
	"time"

	"github.com/go-chi/chi"
	chiMiddleware "github.com/go-chi/chi/middleware"
	"github.com/redis/go-redis/v9"

	"github.com/visithran/loan-management/internal/audit"
	"github.com/visithran/loan-management/internal/auth"
	"github.com/visithran/loan-management/internal/bank"
	"github.com/visithran/loan-management/internal/loan"
	"github.com/visithran/loan-management/internal/transport/middleware"
	"github.com/visithran/loan-management/internal/transport/swagger"
	"github.com/visithran/loan-management/internal/user"
)

// Handlers collects every handler the router mounts.
type Handlers struct {
	Auth  *auth.Handler
	User  *user.Handler
	Loan  *loan.Handler
	Bank  *bank.Handler
	Audit *audit.Handler
}

// RouterConfig carries the cross-cutting pieces the middleware stack needs.
type RouterConfig struct {
	DB             *sql.DB
	Redis          *redis.Client
	IdempotencyTTL time.Duration
	AllowedOrigins []string
	Logger         *slog.Logger
}

// RegisterAllRoutes wires the whole HTTP surface under /api. Admin-only
// routes sit behind RequireAdmin; the services re-check the actor so a
// misplaced route can't silently widen access.
func RegisterAllRoutes(router *chi.Mux, cfg RouterConfig, h Handlers) {
	healthHandler := NewHealthHandler(cfg.DB, cfg.Redis)

	router.Use(middleware.CORS(cfg.AllowedOrigins))
	router.Use(chiMiddleware.RequestID)
	router.Use(middleware.RequestID)
	router.Use(middleware.Recovery(cfg.Logger))
	router.Use(middleware.Logging(cfg.Logger))

	// OpenAPI document and Swagger UI live outside the API prefix.
	router.Get("/openapi.yml", func(w http.ResponseWriter, r *http.Request) {
		http.ServeFile(w, r, "./api/openapi.yml")
	})
	router.Handle("/swagger/*", swagger.Handler())

	router.Route("/api", func(r chi.Router) {
		r.Get("/health", healthHandler.healthCheckHandler)
		r.Get("/ping", healthHandler.pingHandler)

		r.Route("/auth", func(sr chi.Router) {
			sr.Post("/register", h.Auth.Register)
			sr.Post("/login", h.Auth.Login)
			sr.Post("/refresh", h.Auth.RefreshToken)
			// Development helper; remove before exposing publicly.
			sr.Get("/test-users", h.User.ListTestUsers)
		})

		// Find-or-create login used by the lightweight frontend flow.
		r.Post("/users/login", h.User.Login)

		// Branch picker for the submission form needs no auth.
		r.Get("/banks", h.Bank.ListActive)

		r.Group(func(pr chi.Router) {
			pr.Use(h.Auth.AuthMiddleware)

			pr.Get("/users/me", h.User.GetCurrentUser)

			pr.Route("/loans", func(lr chi.Router) {
				lr.Group(func(wr chi.Router) {
					wr.Use(middleware.Idempotency(cfg.Redis, cfg.IdempotencyTTL, cfg.Logger))
					wr.Post("/", h.Loan.Submit)
				})
				lr.Get("/my", h.Loan.MyApplications)
				lr.Get("/{id}", h.Loan.GetByID)
				lr.Get("/{id}/documents", h.Loan.ListDocuments)
				lr.Post("/{id}/documents", h.Loan.AttachDocument)

				lr.Group(func(ar chi.Router) {
					ar.Use(h.Auth.RequireAdmin)
					ar.Get("/", h.Loan.ListAll)
					ar.Get("/bin", h.Loan.RejectedBin)
					ar.Get("/status/{status}", h.Loan.ListByStatus)
					ar.Put("/{id}", h.Loan.UpdateStatus)
					ar.Put("/{id}/approve", h.Loan.Approve)
					ar.Put("/{id}/reject", h.Loan.Reject)
					ar.Put("/{id}/view", h.Loan.MarkViewed)
					ar.Post("/archive", h.Loan.Archive)
				})
			})

			pr.Group(func(ar chi.Router) {
				ar.Use(h.Auth.RequireAdmin)

				ar.Get("/users/{id}", h.User.GetByID)
				ar.Get("/users/email/{email}", h.User.GetByEmail)
				ar.Put("/users/{email}/promote-admin", h.User.PromoteAdmin)

				ar.Get("/banks/{id}", h.Bank.GetByID)
				ar.Post("/banks", h.Bank.Create)
				ar.Put("/banks/{id}", h.Bank.Update)
				ar.Delete("/banks/{id}", h.Bank.Delete)

				ar.Route("/audit", func(aur chi.Router) {
					aur.Get("/application/{id}", h.Audit.ListByApplication)
					aur.Get("/user/{id}", h.Audit.ListByUser)
					aur.Get("/action/{action}", h.Audit.ListByAction)
					aur.Get("/range", h.Audit.ListByTimeRange)
				})
			})
		})
	})
}
