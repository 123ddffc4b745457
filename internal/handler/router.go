package handler

import (
	"net/http"

	"github.com/boddenberg/corebank-ledger-go/internal/config"
	"github.com/boddenberg/corebank-ledger-go/internal/infra/observability"
	"github.com/boddenberg/corebank-ledger-go/internal/service"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"go.uber.org/zap"
)

// NewRouter creates the HTTP router with all routes and middleware.
func NewRouter(svc *service.BankService, splits *service.SplitCoordinator, cfg *config.Config, metrics *observability.Metrics, logger *zap.Logger) http.Handler {
	r := chi.NewRouter()

	// --- Middleware ---
	r.Use(middleware.RequestID)
	r.Use(middleware.RealIP)
	r.Use(observability.ZapLoggerMiddleware(logger))
	r.Use(observability.TracingMiddleware)
	r.Use(middleware.Recoverer)
	r.Use(middleware.Heartbeat("/ping"))

	// --- Operational endpoints ---
	r.Get("/healthz", func(w http.ResponseWriter, _ *http.Request) {
		writeJSON(w, http.StatusOK, map[string]string{"status": "ok"})
	})
	r.Get("/readyz", func(w http.ResponseWriter, _ *http.Request) {
		writeJSON(w, http.StatusOK, map[string]string{"status": "ready"})
	})
	r.Handle("/metrics", promhttp.HandlerFor(metrics.Registry, promhttp.HandlerOpts{}))

	// --- API v1 ---
	r.Route("/v1", func(r chi.Router) {
		r.Post("/auth/token", tokenHandler(cfg.JWTSecret, cfg.JWTAccessTTL, logger))

		r.Group(func(r chi.Router) {
			r.Use(JWTAuthMiddleware(cfg.JWTSecret, cfg.RequireAuth, logger))

			// Users
			r.Post("/users", createUserHandler(svc, logger))
			r.Get("/users/{email}/accounts", listAccountsHandler(svc, logger))
			r.Get("/users/{email}/transactions", userTransactionsHandler(svc, logger))

			// Accounts
			r.Post("/accounts", createAccountHandler(svc, logger))
			r.Get("/accounts/{iban}", getAccountHandler(svc, logger))
			r.Delete("/accounts/{iban}", deleteAccountHandler(svc, logger))
			r.Post("/accounts/{iban}/funds", addFundsHandler(svc, logger))
			r.Put("/accounts/{iban}/min-balance", setMinBalanceHandler(svc, logger))
			r.Put("/accounts/{iban}/alias", setAliasHandler(svc, logger))
			r.Post("/accounts/{iban}/interest", addInterestHandler(svc, logger))
			r.Put("/accounts/{iban}/interest-rate", changeInterestRateHandler(svc, logger))
			r.Post("/accounts/{iban}/withdraw-savings", withdrawSavingsHandler(svc, logger))
			r.Get("/accounts/{iban}/transactions", accountTransactionsHandler(svc, logger))
			r.Get("/accounts/{iban}/spendings", spendingsReportHandler(svc, logger))

			// Plans
			r.Post("/accounts/{iban}/plan", upgradePlanHandler(svc, logger))

			// Business accounts
			r.Post("/accounts/{iban}/associates", addAssociateHandler(svc, logger))
			r.Put("/accounts/{iban}/limits/spending", changeSpendingLimitHandler(svc, logger))
			r.Put("/accounts/{iban}/limits/deposit", changeDepositLimitHandler(svc, logger))
			r.Get("/accounts/{iban}/business-report", businessReportHandler(svc, logger))

			// Cards
			r.Post("/cards", createCardHandler(svc, logger))
			r.Delete("/cards/{number}", deleteCardHandler(svc, logger))
			r.Post("/cards/{number}/status", checkCardStatusHandler(svc, logger))

			// Payments
			r.Post("/payments/card", cardPaymentHandler(svc, logger))
			r.Post("/payments/cash-withdrawal", cashWithdrawalHandler(svc, logger))
			r.Post("/transfers", transferHandler(svc, logger))

			// Split payments
			r.Post("/splits", initiateSplitHandler(splits, logger))
			r.Post("/splits/{id}/accept", acceptSplitHandler(splits, logger))
			r.Post("/splits/{id}/reject", rejectSplitHandler(splits, logger))
			r.Get("/splits/pending", pendingSplitsHandler(splits, logger))

			// Exchange & stats
			r.Get("/convert", convertHandler(svc, logger))
			r.Get("/stats", statsHandler(metrics))
		})
	})

	return r
}

// NewServer wraps the router in an http.Server with the configured
// timeouts.
func NewServer(addr string, router http.Handler, cfg *config.Config) *http.Server {
	return &http.Server{
		Addr:         addr,
		Handler:      router,
		ReadTimeout:  cfg.ReadTimeout,
		WriteTimeout: cfg.WriteTimeout,
		IdleTimeout:  cfg.IdleTimeout,
	}
}
