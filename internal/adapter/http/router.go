package http

import (
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	chimiddleware "github.com/go-chi/chi/v5/middleware"
	"github.com/rs/zerolog"

	"github.com/iho/cashbook/internal/adapter/http/handler"
	"github.com/iho/cashbook/internal/adapter/http/middleware"
	"github.com/iho/cashbook/internal/infrastructure/auth"
	"github.com/iho/cashbook/internal/infrastructure/metrics"
	"github.com/iho/cashbook/internal/usecase"
)

// RouterConfig holds dependencies for the router. Optional parts are
// skipped when nil.
type RouterConfig struct {
	BankHandler        *handler.BankHandler
	BranchHandler      *handler.BranchHandler
	AccountHandler     *handler.AccountHandler
	TransactionHandler *handler.TransactionHandler
	LedgerHandler      *handler.LedgerHandler
	HealthHandler      *handler.HealthHandler

	Logger zerolog.Logger

	// JWTManager enables bearer authentication on /api routes.
	JWTManager       *auth.JWTManager
	IdempotencyStore usecase.IdempotencyStore
	IdempotencyTTL   time.Duration
	RateLimiter      *middleware.RateLimiter
	Metrics          *metrics.Metrics
}

// NewRouter creates a new HTTP router.
func NewRouter(cfg RouterConfig) http.Handler {
	r := chi.NewRouter()

	// Global middleware
	r.Use(chimiddleware.RequestID)
	r.Use(chimiddleware.RealIP)
	r.Use(middleware.NewLoggingMiddleware(cfg.Logger).Wrap)
	r.Use(middleware.Recovery)
	if cfg.Metrics != nil {
		r.Use(middleware.Metrics(cfg.Metrics))
	}
	if cfg.RateLimiter != nil {
		r.Use(cfg.RateLimiter.Limit)
	}

	// Health endpoints
	r.Get("/health", cfg.HealthHandler.Liveness)
	r.Get("/ready", cfg.HealthHandler.Readiness)
	if cfg.Metrics != nil {
		r.Handle("/metrics", cfg.Metrics.Handler())
	}

	r.Route("/api", func(r chi.Router) {
		r.Get("/ping", cfg.HealthHandler.Ping)
		r.Get("/version", cfg.HealthHandler.Version)

		r.Group(func(r chi.Router) {
			requireUser := func(next http.Handler) http.Handler { return next }
			if cfg.JWTManager != nil {
				r.Use(middleware.AuthMiddleware(cfg.JWTManager))
				requireUser = middleware.RequireUserCode
			}

			// Idempotency runs after authentication so keys are scoped per user.
			if cfg.IdempotencyStore != nil {
				r.Use(middleware.NewIdempotencyMiddleware(cfg.IdempotencyStore, cfg.IdempotencyTTL).Wrap)
			}

			// Banks
			r.Route("/banks", func(r chi.Router) {
				r.Get("/", cfg.BankHandler.List)
				r.Post("/", cfg.BankHandler.Create)
				r.Route("/{bankCode}", func(r chi.Router) {
					r.Get("/", cfg.BankHandler.Get)
					r.Put("/", cfg.BankHandler.Rename)
					r.Delete("/", cfg.BankHandler.Delete)

					r.Get("/accounts", cfg.AccountHandler.ListByBank)
					r.Post("/accounts", cfg.AccountHandler.Create)
					r.Put("/accounts/{accountCode}", cfg.AccountHandler.Update)
				})
			})

			// Branches
			r.Route("/branches", func(r chi.Router) {
				r.Get("/", cfg.BranchHandler.List)
				r.Post("/", cfg.BranchHandler.Create)
				r.Get("/{branchCode}", cfg.BranchHandler.Get)
				r.Put("/{branchCode}", cfg.BranchHandler.Update)
				r.Delete("/{branchCode}", cfg.BranchHandler.Delete)
			})

			// Accounts
			r.Route("/accounts", func(r chi.Router) {
				r.Get("/", cfg.AccountHandler.List)
				r.Get("/{accountCode}", cfg.AccountHandler.Get)
				r.Put("/{accountCode}", cfg.AccountHandler.Update)
				r.Delete("/{accountCode}", cfg.AccountHandler.Delete)
			})

			// Ledger
			r.Route("/transactions", func(r chi.Router) {
				r.Get("/", cfg.TransactionHandler.List)
				r.With(requireUser).Post("/", cfg.TransactionHandler.Post)
				r.Get("/years", cfg.TransactionHandler.Years)
			})
			r.Get("/transaction-types", cfg.TransactionHandler.Particulars)
			r.Get("/particulars", cfg.TransactionHandler.Particulars)
			r.Get("/expenses", cfg.TransactionHandler.Expenses)
			r.Get("/ledger/consistency", cfg.LedgerHandler.CheckConsistency)
		})
	})

	return r
}
