package api

import (
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/cors"

	"github.com/ecotrade/ecotrade-backend/internal/api/handlers"
	"github.com/ecotrade/ecotrade-backend/internal/auth"
	"github.com/ecotrade/ecotrade-backend/internal/config"
	"github.com/ecotrade/ecotrade-backend/internal/metrics"
	"github.com/ecotrade/ecotrade-backend/internal/middleware"
	"github.com/ecotrade/ecotrade-backend/internal/models"
)

func NewRouter(cfg config.Config, tm *auth.TokenManager, h *handlers.Handlers) http.Handler {
	r := chi.NewRouter()
	r.Use(middleware.RequestID, middleware.Recover, middleware.HTTPMetrics, middleware.RateLimit(cfg.RateRPS))
	r.Use(cors.Handler(cors.Options{
		AllowedOrigins: []string{"*"},
		AllowedMethods: []string{"GET", "POST", "PUT", "DELETE", "OPTIONS"},
		AllowedHeaders: []string{"*"},
	}))

	authmw := middleware.NewAuthMiddleware(tm)

	// health & metrics
	r.Get("/health", func(w http.ResponseWriter, r *http.Request) { _, _ = w.Write([]byte("ok")) })
	r.Handle("/metrics", metrics.Handler())

	// public read-only projection
	r.Get("/api/credits", h.PublicCredits)
	r.Get("/api/credits/{id}", h.PublicCredit)

	r.Route("/api/v1", func(r chi.Router) {
		// ---------- auth ----------
		r.Post("/auth/register", h.Register)
		r.Post("/auth/login", h.Login)
		r.Post("/auth/refresh", h.Refresh)

		// ---------- public marketplace ----------
		r.Get("/marketplace", h.Marketplace)
		r.Get("/credits/{id}", h.GetCredit)
		r.Get("/credits/{id}/history", h.CreditHistory)

		// ---------- authenticated ----------
		r.Group(func(r chi.Router) {
			r.Use(authmw.Auth)

			r.Get("/me/credits", h.MyCredits)
			r.Get("/me/wallet", h.MyWallet)
			r.Get("/me/transactions", h.MyTransactions)

			r.With(middleware.RequireRole(string(models.RoleProducer))).
				Post("/credits", h.CreateCredit)
			r.With(middleware.RequireRole(string(models.RoleProducer))).
				Post("/credits/{id}/list", h.ListForSale)
			r.Delete("/credits/{id}", h.DeleteCredit)

			r.With(middleware.RequireRole(string(models.RoleCompany))).
				Post("/credits/{id}/buy", h.BuyCredit)

			r.With(middleware.RequireRole(string(models.RoleAuditor))).
				Get("/auditor/credits", h.AuditorQueue)
			r.With(middleware.RequireRole(string(models.RoleAuditor))).
				Post("/credits/{id}/review", h.ReviewCredit)

			r.With(middleware.RequireRole(string(models.RoleAdmin))).
				Post("/wallet/topup", h.TopUp)
		})
	})

	return r
}
