package handler

import (
	"math"
	"net/http"

	"github.com/boddenberg/corebank-ledger-go/internal/domain"
	"github.com/boddenberg/corebank-ledger-go/internal/infra/observability"
	"github.com/boddenberg/corebank-ledger-go/internal/service"

	"github.com/go-chi/chi/v5"
	"go.uber.org/zap"
)

func convertHandler(svc *service.BankService, logger *zap.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		amount, ok := queryFloat(r, "amount")
		if !ok {
			amount = 1
		}
		from := r.URL.Query().Get("from")
		to := r.URL.Query().Get("to")
		if from == "" || to == "" {
			writeError(w, http.StatusBadRequest, "from and to are required")
			return
		}

		result, err := svc.Convert(r.Context(), amount, from, to)
		if err != nil {
			handleServiceError(w, err, logger)
			return
		}
		writeJSON(w, http.StatusOK, map[string]any{
			"amount": amount,
			"from":   from,
			"to":     to,
			"result": result,
		})
	}
}

func accountTransactionsHandler(svc *service.BankService, logger *zap.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		txs, err := svc.AccountTransactions(r.Context(), chi.URLParam(r, "iban"))
		if err != nil {
			handleServiceError(w, err, logger)
			return
		}
		if txs == nil {
			txs = []domain.Transaction{}
		}
		writeJSON(w, http.StatusOK, txs)
	}
}

func userTransactionsHandler(svc *service.BankService, logger *zap.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		txs, err := svc.UserTransactions(r.Context(), chi.URLParam(r, "email"))
		if err != nil {
			handleServiceError(w, err, logger)
			return
		}
		if txs == nil {
			txs = []domain.Transaction{}
		}
		writeJSON(w, http.StatusOK, txs)
	}
}

func spendingsReportHandler(svc *service.BankService, logger *zap.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		from := queryInt64(r, "from", 0)
		to := queryInt64(r, "to", math.MaxInt64)

		payments, totals, err := svc.SpendingsReport(r.Context(), chi.URLParam(r, "iban"), from, to)
		if err != nil {
			handleServiceError(w, err, logger)
			return
		}
		if payments == nil {
			payments = []domain.Transaction{}
		}
		writeJSON(w, http.StatusOK, map[string]any{
			"transactions": payments,
			"totals":       totals,
		})
	}
}

func statsHandler(metrics *observability.Metrics) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		writeJSON(w, http.StatusOK, metrics.Snapshot())
	}
}
