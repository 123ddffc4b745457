package handler

import (
	"net/http"

	"github.com/boddenberg/corebank-ledger-go/internal/service"

	"github.com/go-chi/chi/v5"
	"go.uber.org/zap"
)

func createCardHandler(svc *service.BankService, logger *zap.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		var req struct {
			Email     string `json:"email"`
			IBAN      string `json:"iban"`
			OneTime   bool   `json:"one_time"`
			Timestamp int64  `json:"timestamp"`
		}
		if err := decodeJSON(r, &req); err != nil {
			handleServiceError(w, err, logger)
			return
		}

		card, err := svc.CreateCard(r.Context(), requestEmail(r, req.Email), req.IBAN, req.OneTime, req.Timestamp)
		if err != nil {
			handleServiceError(w, err, logger)
			return
		}
		writeJSON(w, http.StatusCreated, card)
	}
}

func deleteCardHandler(svc *service.BankService, logger *zap.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		var req struct {
			Email     string `json:"email"`
			Timestamp int64  `json:"timestamp"`
		}
		if err := decodeJSON(r, &req); err != nil {
			handleServiceError(w, err, logger)
			return
		}

		number := chi.URLParam(r, "number")
		if err := svc.DeleteCard(r.Context(), requestEmail(r, req.Email), number, req.Timestamp); err != nil {
			handleServiceError(w, err, logger)
			return
		}
		writeJSON(w, http.StatusOK, map[string]string{"status": "destroyed"})
	}
}

func checkCardStatusHandler(svc *service.BankService, logger *zap.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		var req struct {
			Timestamp int64 `json:"timestamp"`
		}
		if err := decodeJSON(r, &req); err != nil {
			handleServiceError(w, err, logger)
			return
		}

		if err := svc.CheckCardStatus(r.Context(), chi.URLParam(r, "number"), req.Timestamp); err != nil {
			handleServiceError(w, err, logger)
			return
		}
		writeJSON(w, http.StatusOK, map[string]string{"status": "checked"})
	}
}

func cardPaymentHandler(svc *service.BankService, logger *zap.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		var req struct {
			Email       string  `json:"email"`
			CardNumber  string  `json:"card_number"`
			Amount      float64 `json:"amount"`
			Currency    string  `json:"currency"`
			Commerciant string  `json:"commerciant"`
			Timestamp   int64   `json:"timestamp"`
		}
		if err := decodeJSON(r, &req); err != nil {
			handleServiceError(w, err, logger)
			return
		}

		err := svc.CardPayment(r.Context(), requestEmail(r, req.Email), req.CardNumber, req.Amount, req.Currency, req.Commerciant, req.Timestamp)
		if err != nil {
			handleServiceError(w, err, logger)
			return
		}
		writeJSON(w, http.StatusOK, map[string]string{"status": "ok"})
	}
}

func cashWithdrawalHandler(svc *service.BankService, logger *zap.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		var req struct {
			Email      string  `json:"email"`
			CardNumber string  `json:"card_number"`
			Amount     float64 `json:"amount"`
			Timestamp  int64   `json:"timestamp"`
		}
		if err := decodeJSON(r, &req); err != nil {
			handleServiceError(w, err, logger)
			return
		}

		err := svc.CashWithdrawal(r.Context(), requestEmail(r, req.Email), req.CardNumber, req.Amount, req.Timestamp)
		if err != nil {
			handleServiceError(w, err, logger)
			return
		}
		writeJSON(w, http.StatusOK, map[string]string{"status": "ok"})
	}
}
