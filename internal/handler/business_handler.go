package handler

import (
	"net/http"

	"github.com/boddenberg/corebank-ledger-go/internal/service"

	"github.com/go-chi/chi/v5"
	"go.uber.org/zap"
)

func addAssociateHandler(svc *service.BankService, logger *zap.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		var req struct {
			Email string `json:"email"`
			Role  string `json:"role"`
		}
		if err := decodeJSON(r, &req); err != nil {
			handleServiceError(w, err, logger)
			return
		}

		if err := svc.AddBusinessAssociate(r.Context(), chi.URLParam(r, "iban"), req.Role, req.Email); err != nil {
			handleServiceError(w, err, logger)
			return
		}
		writeJSON(w, http.StatusOK, map[string]string{"status": "ok"})
	}
}

func changeSpendingLimitHandler(svc *service.BankService, logger *zap.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		var req struct {
			Email  string  `json:"email"`
			Amount float64 `json:"amount"`
		}
		if err := decodeJSON(r, &req); err != nil {
			handleServiceError(w, err, logger)
			return
		}

		if err := svc.ChangeSpendingLimit(r.Context(), requestEmail(r, req.Email), chi.URLParam(r, "iban"), req.Amount); err != nil {
			handleServiceError(w, err, logger)
			return
		}
		writeJSON(w, http.StatusOK, map[string]string{"status": "ok"})
	}
}

func changeDepositLimitHandler(svc *service.BankService, logger *zap.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		var req struct {
			Email  string  `json:"email"`
			Amount float64 `json:"amount"`
		}
		if err := decodeJSON(r, &req); err != nil {
			handleServiceError(w, err, logger)
			return
		}

		if err := svc.ChangeDepositLimit(r.Context(), requestEmail(r, req.Email), chi.URLParam(r, "iban"), req.Amount); err != nil {
			handleServiceError(w, err, logger)
			return
		}
		writeJSON(w, http.StatusOK, map[string]string{"status": "ok"})
	}
}

func businessReportHandler(svc *service.BankService, logger *zap.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		email := r.URL.Query().Get("email")
		if email == "" {
			email = EmailFromContext(r.Context())
		}

		commerciants, err := svc.BusinessCommerciants(r.Context(), email, chi.URLParam(r, "iban"))
		if err != nil {
			handleServiceError(w, err, logger)
			return
		}
		writeJSON(w, http.StatusOK, commerciants)
	}
}
