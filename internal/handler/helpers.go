package handler

import (
	"encoding/json"
	"errors"
	"net/http"
	"strconv"

	"github.com/boddenberg/corebank-ledger-go/internal/domain"

	"go.uber.org/zap"
)

// ============================================================
// Shared helper functions
// ============================================================

type errorResponse struct {
	Error string `json:"error"`
}

func writeError(w http.ResponseWriter, status int, msg string) {
	writeJSON(w, status, errorResponse{Error: msg})
}

func writeJSON(w http.ResponseWriter, status int, data any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	json.NewEncoder(w).Encode(data)
}

func decodeJSON(r *http.Request, dst any) error {
	if err := json.NewDecoder(r.Body).Decode(dst); err != nil {
		return &domain.ErrValidation{Field: "body", Message: "invalid JSON body"}
	}
	return nil
}

func queryInt64(r *http.Request, key string, fallback int64) int64 {
	if v := r.URL.Query().Get(key); v != "" {
		if n, err := strconv.ParseInt(v, 10, 64); err == nil {
			return n
		}
	}
	return fallback
}

func queryFloat(r *http.Request, key string) (float64, bool) {
	v := r.URL.Query().Get(key)
	if v == "" {
		return 0, false
	}
	f, err := strconv.ParseFloat(v, 64)
	if err != nil {
		return 0, false
	}
	return f, true
}

// handleServiceError maps domain errors to HTTP responses.
func handleServiceError(w http.ResponseWriter, err error, logger *zap.Logger) {
	var validation *domain.ErrValidation
	var unknownCurrency *domain.ErrUnknownCurrency
	var noPath *domain.ErrNoConversionPath
	var accountNotFound *domain.ErrAccountNotFound
	var userNotFound *domain.ErrUserNotFound
	var cardNotFound *domain.ErrCardNotFound
	var forbidden *domain.ErrForbidden
	var splitAborted *domain.ErrSplitAborted
	var splitNotFound *domain.ErrSplitNotFound
	var unauthorized *domain.ErrUnauthorized

	switch {
	case errors.As(err, &validation):
		logger.Debug("validation error", zap.String("error", err.Error()))
		writeError(w, http.StatusBadRequest, err.Error())
	case errors.As(err, &unknownCurrency):
		logger.Debug("unknown currency", zap.String("error", err.Error()))
		writeError(w, http.StatusBadRequest, err.Error())
	case errors.As(err, &noPath):
		logger.Warn("no conversion path", zap.String("error", err.Error()))
		writeError(w, http.StatusUnprocessableEntity, err.Error())
	case errors.As(err, &accountNotFound):
		logger.Debug("account not found", zap.String("iban", accountNotFound.IBAN))
		writeError(w, http.StatusNotFound, err.Error())
	case errors.As(err, &userNotFound):
		logger.Debug("user not found", zap.String("email", userNotFound.Email))
		writeError(w, http.StatusNotFound, err.Error())
	case errors.As(err, &cardNotFound):
		logger.Debug("card not found", zap.String("error", err.Error()))
		writeError(w, http.StatusNotFound, err.Error())
	case errors.As(err, &forbidden):
		logger.Warn("forbidden", zap.String("error", err.Error()))
		writeError(w, http.StatusForbidden, err.Error())
	case errors.As(err, &splitAborted):
		logger.Info("split payment aborted", zap.String("split_id", splitAborted.SplitID))
		writeError(w, http.StatusUnprocessableEntity, err.Error())
	case errors.As(err, &splitNotFound):
		logger.Debug("split not found", zap.String("error", err.Error()))
		writeError(w, http.StatusNotFound, err.Error())
	case errors.As(err, &unauthorized):
		logger.Warn("unauthorized", zap.String("error", err.Error()))
		writeError(w, http.StatusUnauthorized, err.Error())
	default:
		logger.Error("unhandled error", zap.Error(err))
		writeError(w, http.StatusInternalServerError, "internal server error")
	}
}
