package handler

import (
	"net/http"

	"github.com/boddenberg/corebank-ledger-go/internal/domain"
	"github.com/boddenberg/corebank-ledger-go/internal/service"

	"github.com/go-chi/chi/v5"
	"go.uber.org/zap"
)

// requestEmail prefers the body-supplied email, falling back to the
// authenticated token subject.
func requestEmail(r *http.Request, bodyEmail string) string {
	if bodyEmail != "" {
		return bodyEmail
	}
	return EmailFromContext(r.Context())
}

func createUserHandler(svc *service.BankService, logger *zap.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		var req struct {
			FirstName  string `json:"first_name"`
			LastName   string `json:"last_name"`
			Email      string `json:"email"`
			BirthDate  string `json:"birth_date"`
			Occupation string `json:"occupation"`
		}
		if err := decodeJSON(r, &req); err != nil {
			handleServiceError(w, err, logger)
			return
		}

		user, err := svc.CreateUser(r.Context(), req.FirstName, req.LastName, req.Email, req.BirthDate, req.Occupation)
		if err != nil {
			handleServiceError(w, err, logger)
			return
		}
		writeJSON(w, http.StatusCreated, user)
	}
}

func createAccountHandler(svc *service.BankService, logger *zap.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		var req struct {
			Email        string  `json:"email"`
			Currency     string  `json:"currency"`
			Kind         string  `json:"kind"`
			InterestRate float64 `json:"interest_rate"`
			Timestamp    int64   `json:"timestamp"`
		}
		if err := decodeJSON(r, &req); err != nil {
			handleServiceError(w, err, logger)
			return
		}

		kind := domain.AccountKind(req.Kind)
		switch kind {
		case domain.KindClassic, domain.KindSavings, domain.KindBusiness:
		case "":
			kind = domain.KindClassic
		default:
			writeError(w, http.StatusBadRequest, "kind must be classic, savings or business")
			return
		}

		acc, err := svc.CreateAccount(r.Context(), requestEmail(r, req.Email), req.Currency, kind, req.InterestRate, req.Timestamp)
		if err != nil {
			handleServiceError(w, err, logger)
			return
		}
		writeJSON(w, http.StatusCreated, acc)
	}
}

func deleteAccountHandler(svc *service.BankService, logger *zap.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		var req struct {
			Email     string `json:"email"`
			Timestamp int64  `json:"timestamp"`
		}
		if err := decodeJSON(r, &req); err != nil {
			handleServiceError(w, err, logger)
			return
		}

		iban := chi.URLParam(r, "iban")
		if err := svc.DeleteAccount(r.Context(), requestEmail(r, req.Email), iban, req.Timestamp); err != nil {
			handleServiceError(w, err, logger)
			return
		}
		writeJSON(w, http.StatusOK, map[string]string{"status": "deleted"})
	}
}

func getAccountHandler(svc *service.BankService, logger *zap.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		acc, err := svc.Account(r.Context(), chi.URLParam(r, "iban"))
		if err != nil {
			handleServiceError(w, err, logger)
			return
		}
		writeJSON(w, http.StatusOK, acc)
	}
}

func listAccountsHandler(svc *service.BankService, logger *zap.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		accounts, err := svc.AccountsOf(r.Context(), chi.URLParam(r, "email"))
		if err != nil {
			handleServiceError(w, err, logger)
			return
		}
		writeJSON(w, http.StatusOK, accounts)
	}
}

func addFundsHandler(svc *service.BankService, logger *zap.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		var req struct {
			Amount    float64 `json:"amount"`
			Email     string  `json:"email"`
			Timestamp int64   `json:"timestamp"`
		}
		if err := decodeJSON(r, &req); err != nil {
			handleServiceError(w, err, logger)
			return
		}

		iban := chi.URLParam(r, "iban")
		if err := svc.AddFunds(r.Context(), iban, req.Amount, requestEmail(r, req.Email), req.Timestamp); err != nil {
			handleServiceError(w, err, logger)
			return
		}
		writeJSON(w, http.StatusOK, map[string]string{"status": "credited"})
	}
}

func setMinBalanceHandler(svc *service.BankService, logger *zap.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		var req struct {
			Amount float64 `json:"amount"`
		}
		if err := decodeJSON(r, &req); err != nil {
			handleServiceError(w, err, logger)
			return
		}

		if err := svc.SetMinBalance(r.Context(), chi.URLParam(r, "iban"), req.Amount); err != nil {
			handleServiceError(w, err, logger)
			return
		}
		writeJSON(w, http.StatusOK, map[string]string{"status": "ok"})
	}
}

func setAliasHandler(svc *service.BankService, logger *zap.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		var req struct {
			Email string `json:"email"`
			Alias string `json:"alias"`
		}
		if err := decodeJSON(r, &req); err != nil {
			handleServiceError(w, err, logger)
			return
		}

		if err := svc.SetAlias(r.Context(), requestEmail(r, req.Email), req.Alias, chi.URLParam(r, "iban")); err != nil {
			handleServiceError(w, err, logger)
			return
		}
		writeJSON(w, http.StatusOK, map[string]string{"status": "ok"})
	}
}

func addInterestHandler(svc *service.BankService, logger *zap.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		var req struct {
			Timestamp int64 `json:"timestamp"`
		}
		if err := decodeJSON(r, &req); err != nil {
			handleServiceError(w, err, logger)
			return
		}

		if err := svc.AddInterest(r.Context(), chi.URLParam(r, "iban"), req.Timestamp); err != nil {
			handleServiceError(w, err, logger)
			return
		}
		writeJSON(w, http.StatusOK, map[string]string{"status": "ok"})
	}
}

func changeInterestRateHandler(svc *service.BankService, logger *zap.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		var req struct {
			Rate      float64 `json:"rate"`
			Timestamp int64   `json:"timestamp"`
		}
		if err := decodeJSON(r, &req); err != nil {
			handleServiceError(w, err, logger)
			return
		}

		if err := svc.ChangeInterestRate(r.Context(), chi.URLParam(r, "iban"), req.Rate, req.Timestamp); err != nil {
			handleServiceError(w, err, logger)
			return
		}
		writeJSON(w, http.StatusOK, map[string]string{"status": "ok"})
	}
}

func withdrawSavingsHandler(svc *service.BankService, logger *zap.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		var req struct {
			Amount    float64 `json:"amount"`
			Currency  string  `json:"currency"`
			Timestamp int64   `json:"timestamp"`
		}
		if err := decodeJSON(r, &req); err != nil {
			handleServiceError(w, err, logger)
			return
		}

		if err := svc.WithdrawSavings(r.Context(), chi.URLParam(r, "iban"), req.Amount, req.Currency, req.Timestamp); err != nil {
			handleServiceError(w, err, logger)
			return
		}
		writeJSON(w, http.StatusOK, map[string]string{"status": "ok"})
	}
}
