package service

import (
	"context"

	"github.com/boddenberg/corebank-ledger-go/internal/domain"

	"go.opentelemetry.io/otel/attribute"
)

// ============================================================
// Lookups & reports
// ============================================================

// Convert resolves an amount between currencies through the rate graph.
func (s *BankService) Convert(ctx context.Context, amount float64, from, to string) (float64, error) {
	_, span := bankTracer.Start(ctx, "BankService.Convert")
	defer span.End()
	span.SetAttributes(
		attribute.String("currency.from", from),
		attribute.String("currency.to", to),
	)

	result, err := s.conv.Convert(amount, from, to)
	if err != nil {
		return 0, err
	}
	s.metrics.IncrConversion()
	return result, nil
}

// Account returns the account with the given IBAN.
func (s *BankService) Account(ctx context.Context, iban string) (*domain.Account, error) {
	_, span := bankTracer.Start(ctx, "BankService.Account")
	defer span.End()

	s.mu.Lock()
	defer s.mu.Unlock()

	acc := s.store.Account(iban)
	if acc == nil {
		return nil, &domain.ErrAccountNotFound{IBAN: iban}
	}
	return acc, nil
}

// AccountsOf returns all accounts owned by the user.
func (s *BankService) AccountsOf(ctx context.Context, email string) ([]*domain.Account, error) {
	_, span := bankTracer.Start(ctx, "BankService.AccountsOf")
	defer span.End()

	s.mu.Lock()
	defer s.mu.Unlock()

	if s.store.UserByEmail(email) == nil {
		return nil, &domain.ErrUserNotFound{Email: email}
	}
	return s.store.AccountsOf(email), nil
}

// AccountTransactions returns the account's transaction history in
// append order.
func (s *BankService) AccountTransactions(ctx context.Context, iban string) ([]domain.Transaction, error) {
	_, span := bankTracer.Start(ctx, "BankService.AccountTransactions")
	defer span.End()

	s.mu.Lock()
	defer s.mu.Unlock()

	acc := s.store.Account(iban)
	if acc == nil {
		return nil, &domain.ErrAccountNotFound{IBAN: iban}
	}
	return append([]domain.Transaction(nil), acc.Log...), nil
}

// UserTransactions returns the user's mirrored transaction history in
// append order.
func (s *BankService) UserTransactions(ctx context.Context, email string) ([]domain.Transaction, error) {
	_, span := bankTracer.Start(ctx, "BankService.UserTransactions")
	defer span.End()

	s.mu.Lock()
	defer s.mu.Unlock()

	user := s.store.UserByEmail(email)
	if user == nil {
		return nil, &domain.ErrUserNotFound{Email: email}
	}
	return append([]domain.Transaction(nil), user.Log...), nil
}

// SpendingsReport filters an account's card payments within the
// timestamp window and totals them per commerciant.
func (s *BankService) SpendingsReport(ctx context.Context, iban string, from, to int64) ([]domain.Transaction, map[string]float64, error) {
	_, span := bankTracer.Start(ctx, "BankService.SpendingsReport")
	defer span.End()

	s.mu.Lock()
	defer s.mu.Unlock()

	acc := s.store.Account(iban)
	if acc == nil {
		return nil, nil, &domain.ErrAccountNotFound{IBAN: iban}
	}
	if acc.Kind == domain.KindSavings {
		return nil, nil, &domain.ErrValidation{Field: "account", Message: "This kind of report is not supported for a saving account"}
	}

	var payments []domain.Transaction
	totals := make(map[string]float64)
	for _, tx := range acc.Log {
		if tx.Commerciant == "" || tx.IsError() {
			continue
		}
		if tx.Timestamp < from || tx.Timestamp > to {
			continue
		}
		payments = append(payments, tx)
		totals[tx.Commerciant] += tx.Amount
	}
	return payments, totals, nil
}
