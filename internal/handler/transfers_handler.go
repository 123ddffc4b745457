package handler

import (
	"net/http"

	"github.com/boddenberg/corebank-ledger-go/internal/service"

	"github.com/go-chi/chi/v5"
	"go.uber.org/zap"
)

func transferHandler(svc *service.BankService, logger *zap.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		var req struct {
			Email       string  `json:"email"`
			Sender      string  `json:"sender"`
			Receiver    string  `json:"receiver"`
			Amount      float64 `json:"amount"`
			Description string  `json:"description"`
			Timestamp   int64   `json:"timestamp"`
		}
		if err := decodeJSON(r, &req); err != nil {
			handleServiceError(w, err, logger)
			return
		}

		err := svc.Transfer(r.Context(), requestEmail(r, req.Email), req.Sender, req.Receiver, req.Amount, req.Description, req.Timestamp)
		if err != nil {
			handleServiceError(w, err, logger)
			return
		}
		writeJSON(w, http.StatusOK, map[string]string{"status": "ok"})
	}
}

func upgradePlanHandler(svc *service.BankService, logger *zap.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		var req struct {
			Plan      string `json:"plan"`
			Timestamp int64  `json:"timestamp"`
		}
		if err := decodeJSON(r, &req); err != nil {
			handleServiceError(w, err, logger)
			return
		}

		if err := svc.UpgradePlan(r.Context(), chi.URLParam(r, "iban"), req.Plan, req.Timestamp); err != nil {
			handleServiceError(w, err, logger)
			return
		}
		writeJSON(w, http.StatusOK, map[string]string{"status": "ok"})
	}
}
