package handler

import (
	"net/http"

	"github.com/boddenberg/corebank-ledger-go/internal/domain"
	"github.com/boddenberg/corebank-ledger-go/internal/service"

	"github.com/go-chi/chi/v5"
	"go.uber.org/zap"
)

func initiateSplitHandler(coord *service.SplitCoordinator, logger *zap.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		var req struct {
			Kind      string    `json:"kind"`
			Accounts  []string  `json:"accounts"`
			Total     float64   `json:"total"`
			Amounts   []float64 `json:"amounts"`
			Currency  string    `json:"currency"`
			Timestamp int64     `json:"timestamp"`
		}
		if err := decodeJSON(r, &req); err != nil {
			handleServiceError(w, err, logger)
			return
		}

		kind := domain.SplitKind(req.Kind)
		switch kind {
		case domain.SplitEqual, domain.SplitCustom:
		case "":
			kind = domain.SplitEqual
		default:
			writeError(w, http.StatusBadRequest, "kind must be equal or custom")
			return
		}

		sp, err := coord.Initiate(r.Context(), kind, req.Accounts, req.Total, req.Amounts, req.Currency, req.Timestamp)
		if err != nil {
			handleServiceError(w, err, logger)
			return
		}
		writeJSON(w, http.StatusCreated, sp)
	}
}

func acceptSplitHandler(coord *service.SplitCoordinator, logger *zap.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		var req struct {
			Email string `json:"email"`
		}
		if err := decodeJSON(r, &req); err != nil {
			handleServiceError(w, err, logger)
			return
		}

		if err := coord.Accept(r.Context(), chi.URLParam(r, "id"), requestEmail(r, req.Email)); err != nil {
			handleServiceError(w, err, logger)
			return
		}
		writeJSON(w, http.StatusOK, map[string]string{"status": "accepted"})
	}
}

func rejectSplitHandler(coord *service.SplitCoordinator, logger *zap.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		var req struct {
			Email string `json:"email"`
		}
		if err := decodeJSON(r, &req); err != nil {
			handleServiceError(w, err, logger)
			return
		}

		if err := coord.Reject(r.Context(), chi.URLParam(r, "id"), requestEmail(r, req.Email)); err != nil {
			handleServiceError(w, err, logger)
			return
		}
		writeJSON(w, http.StatusOK, map[string]string{"status": "rejected"})
	}
}

func pendingSplitsHandler(coord *service.SplitCoordinator, logger *zap.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		email := r.URL.Query().Get("email")
		if email == "" {
			email = EmailFromContext(r.Context())
		}
		if email == "" {
			writeError(w, http.StatusBadRequest, "email is required")
			return
		}

		pending := coord.Pending(r.Context(), email)
		if pending == nil {
			pending = []*domain.SplitPayment{}
		}
		writeJSON(w, http.StatusOK, pending)
	}
}
