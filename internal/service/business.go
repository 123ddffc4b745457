package service

import (
	"context"

	"github.com/boddenberg/corebank-ledger-go/internal/domain"
)

// ============================================================
// Business accounts
// ============================================================

// AddBusinessAssociate attaches a user to a business account as
// manager or employee. Existing associations are left untouched.
func (s *BankService) AddBusinessAssociate(ctx context.Context, iban, role, email string) error {
	_, span := bankTracer.Start(ctx, "BankService.AddBusinessAssociate")
	defer span.End()

	s.mu.Lock()
	defer s.mu.Unlock()

	acc := s.store.Account(iban)
	if acc == nil {
		return &domain.ErrAccountNotFound{IBAN: iban}
	}
	if acc.Kind != domain.KindBusiness {
		return &domain.ErrValidation{Field: "account", Message: "not a business account"}
	}
	if s.store.UserByEmail(email) == nil {
		return &domain.ErrUserNotFound{Email: email}
	}
	if acc.Role(email) != "" {
		return nil
	}

	switch domain.BusinessRole(role) {
	case domain.RoleManager, domain.RoleEmployee:
		acc.Roles[email] = domain.BusinessRole(role)
	default:
		return &domain.ErrValidation{Field: "role", Message: "role must be manager or employee"}
	}
	return nil
}

// ChangeSpendingLimit sets the per-payment cap for employees. Owner only.
func (s *BankService) ChangeSpendingLimit(ctx context.Context, email, iban string, amount float64) error {
	_, span := bankTracer.Start(ctx, "BankService.ChangeSpendingLimit")
	defer span.End()

	s.mu.Lock()
	defer s.mu.Unlock()

	acc := s.store.Account(iban)
	if acc == nil {
		return &domain.ErrAccountNotFound{IBAN: iban}
	}
	if acc.Kind != domain.KindBusiness {
		return &domain.ErrValidation{Field: "account", Message: "not a business account"}
	}
	if acc.Role(email) != domain.RoleOwner {
		return &domain.ErrForbidden{Action: "You must be owner in order to change spending limit."}
	}
	acc.SpendingLimit = amount
	return nil
}

// ChangeDepositLimit sets the per-deposit cap for employees. Owner only.
func (s *BankService) ChangeDepositLimit(ctx context.Context, email, iban string, amount float64) error {
	_, span := bankTracer.Start(ctx, "BankService.ChangeDepositLimit")
	defer span.End()

	s.mu.Lock()
	defer s.mu.Unlock()

	acc := s.store.Account(iban)
	if acc == nil {
		return &domain.ErrAccountNotFound{IBAN: iban}
	}
	if acc.Kind != domain.KindBusiness {
		return &domain.ErrValidation{Field: "account", Message: "not a business account"}
	}
	if acc.Role(email) != domain.RoleOwner {
		return &domain.ErrForbidden{Action: "You must be owner in order to change deposit limit."}
	}
	acc.DepositLimit = amount
	return nil
}

// BusinessCommerciants returns the account's commerciant aggregates
// (amount spent and participating associates, owner excluded) for
// business reporting.
func (s *BankService) BusinessCommerciants(ctx context.Context, email, iban string) ([]domain.Commerciant, error) {
	_, span := bankTracer.Start(ctx, "BankService.BusinessCommerciants")
	defer span.End()

	s.mu.Lock()
	defer s.mu.Unlock()

	acc := s.store.Account(iban)
	if acc == nil {
		return nil, &domain.ErrAccountNotFound{IBAN: iban}
	}
	if acc.Kind != domain.KindBusiness {
		return nil, &domain.ErrValidation{Field: "account", Message: "not a business account"}
	}
	if acc.Role(email) == "" {
		return nil, &domain.ErrForbidden{Action: "view business report"}
	}

	out := make([]domain.Commerciant, 0, len(acc.Commerciants))
	for _, c := range s.store.Commerciants() {
		if agg := acc.Commerciants[c.Name]; agg != nil && (agg.AmountSpent > 0 || agg.Transactions > 0) {
			out = append(out, *agg)
		}
	}
	return out, nil
}
