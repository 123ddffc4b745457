package service

import (
	"context"
	"fmt"

	"github.com/boddenberg/corebank-ledger-go/internal/domain"

	"go.opentelemetry.io/otel/attribute"
	"go.uber.org/zap"
)

// ============================================================
// Users
// ============================================================

// CreateUser registers a user. The starting plan follows the
// occupation: students begin on the student plan, everyone else on
// standard.
func (s *BankService) CreateUser(ctx context.Context, firstName, lastName, email, birthDate, occupation string) (*domain.User, error) {
	_, span := bankTracer.Start(ctx, "BankService.CreateUser")
	defer span.End()
	defer s.track("create_user")()

	if email == "" {
		return nil, &domain.ErrValidation{Field: "email", Message: "email is required"}
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	if s.store.UserByEmail(email) != nil {
		return nil, &domain.ErrValidation{Field: "email", Message: "user already exists"}
	}

	user := &domain.User{
		FirstName:  firstName,
		LastName:   lastName,
		Email:      email,
		Age:        domain.AgeFromBirthDate(birthDate),
		Occupation: occupation,
		Plan:       domain.PlanForOccupation(occupation),
	}
	s.store.AddUser(user)

	s.logger.Info("user created",
		zap.String("email", email),
		zap.String("plan", string(user.Plan)),
	)
	return user, nil
}

// ============================================================
// Accounts
// ============================================================

// CreateAccount opens a new account for the user. Business accounts
// start with owner role for the creator and spending/deposit limits of
// 500 RON converted to the account currency.
func (s *BankService) CreateAccount(ctx context.Context, email, currency string, kind domain.AccountKind, interestRate float64, timestamp int64) (*domain.Account, error) {
	_, span := bankTracer.Start(ctx, "BankService.CreateAccount")
	defer span.End()
	defer s.track("create_account")()
	span.SetAttributes(attribute.String("account.currency", currency))

	s.mu.Lock()
	defer s.mu.Unlock()

	user := s.store.UserByEmail(email)
	if user == nil {
		return nil, &domain.ErrUserNotFound{Email: email}
	}
	if !s.conv.Knows(currency) {
		return nil, &domain.ErrUnknownCurrency{Currency: currency}
	}

	acc := &domain.Account{
		IBAN:         newIBAN(),
		OwnerEmail:   email,
		Currency:     currency,
		Kind:         kind,
		Observers:    []domain.CashbackObserver{domain.ObserverCountBased, domain.ObserverThresholdBased},
		Commerciants: make(map[string]*domain.Commerciant),
	}
	// Each account tracks reward counters in its own commerciant copies.
	for _, c := range s.store.Commerciants() {
		copied := c
		acc.Commerciants[c.Name] = &copied
	}

	switch kind {
	case domain.KindSavings:
		acc.InterestRate = interestRate
	case domain.KindBusiness:
		limit, err := s.conv.Convert(domain.InitialSpendingLimit, domain.PivotCurrency, currency)
		if err != nil {
			return nil, err
		}
		acc.Roles = map[string]domain.BusinessRole{email: domain.RoleOwner}
		acc.SpendingLimit = limit
		acc.DepositLimit = limit
	}

	s.store.AddAccount(acc)
	s.record(acc, user, domain.Transaction{
		Timestamp:   at(timestamp),
		Description: "New account created",
		AccountIBAN: acc.IBAN,
	})

	s.logger.Info("account created",
		zap.String("iban", acc.IBAN),
		zap.String("currency", currency),
		zap.String("kind", string(kind)),
	)
	return acc, nil
}

// DeleteAccount closes an account. Only the owner may close it, and
// only when the balance is exactly zero; otherwise the failure is
// logged to the user's history.
func (s *BankService) DeleteAccount(ctx context.Context, email, iban string, timestamp int64) error {
	_, span := bankTracer.Start(ctx, "BankService.DeleteAccount")
	defer span.End()
	defer s.track("delete_account")()

	s.mu.Lock()
	defer s.mu.Unlock()

	acc := s.store.Account(iban)
	if acc == nil {
		return &domain.ErrAccountNotFound{IBAN: iban}
	}
	if acc.OwnerEmail != email {
		return &domain.ErrForbidden{Action: "delete account"}
	}
	user := s.store.UserByEmail(email)

	if acc.Balance != 0 {
		tx := domain.Transaction{
			Timestamp:   at(timestamp),
			Description: "Account couldn't be deleted - there are funds remaining",
			AccountIBAN: iban,
			Error:       "Account couldn't be deleted - there are funds remaining",
		}
		if user != nil {
			user.Record(tx)
		}
		s.metrics.IncrTransaction("failed")
		return &domain.ErrValidation{Field: "balance", Message: "account has funds remaining"}
	}

	s.store.RemoveAccount(iban)
	s.logger.Info("account deleted", zap.String("iban", iban))
	return nil
}

// AddFunds credits an account. On business accounts, employees cannot
// deposit above the deposit limit.
func (s *BankService) AddFunds(ctx context.Context, iban string, amount float64, email string, timestamp int64) error {
	_, span := bankTracer.Start(ctx, "BankService.AddFunds")
	defer span.End()
	defer s.track("add_funds")()

	if amount <= 0 {
		return &domain.ErrValidation{Field: "amount", Message: "amount must be positive"}
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	acc := s.store.Account(iban)
	if acc == nil {
		return &domain.ErrAccountNotFound{IBAN: iban}
	}
	if acc.Kind == domain.KindBusiness {
		role := acc.Role(email)
		if role == "" {
			return &domain.ErrForbidden{Action: "deposit to business account"}
		}
		if role == domain.RoleEmployee && amount > acc.DepositLimit {
			return &domain.ErrForbidden{Action: "deposit above the deposit limit"}
		}
	}

	acc.Credit(amount)
	return nil
}

// SetMinBalance sets the freeze threshold for the account's cards.
func (s *BankService) SetMinBalance(ctx context.Context, iban string, amount float64) error {
	_, span := bankTracer.Start(ctx, "BankService.SetMinBalance")
	defer span.End()

	s.mu.Lock()
	defer s.mu.Unlock()

	acc := s.store.Account(iban)
	if acc == nil {
		return &domain.ErrAccountNotFound{IBAN: iban}
	}
	acc.MinBalance = amount
	return nil
}

// SetAlias binds a human-readable alias to one of the user's accounts.
func (s *BankService) SetAlias(ctx context.Context, email, alias, iban string) error {
	_, span := bankTracer.Start(ctx, "BankService.SetAlias")
	defer span.End()

	s.mu.Lock()
	defer s.mu.Unlock()

	acc := s.store.Account(iban)
	if acc == nil {
		return &domain.ErrAccountNotFound{IBAN: iban}
	}
	if acc.OwnerEmail != email {
		return &domain.ErrForbidden{Action: "alias another user's account"}
	}
	s.store.SetAlias(alias, iban)
	return nil
}

// ============================================================
// Savings
// ============================================================

// AddInterest credits a savings account with balance times rate.
func (s *BankService) AddInterest(ctx context.Context, iban string, timestamp int64) error {
	_, span := bankTracer.Start(ctx, "BankService.AddInterest")
	defer span.End()
	defer s.track("add_interest")()

	s.mu.Lock()
	defer s.mu.Unlock()

	acc := s.store.Account(iban)
	if acc == nil {
		return &domain.ErrAccountNotFound{IBAN: iban}
	}
	if acc.Kind != domain.KindSavings {
		return &domain.ErrValidation{Field: "account", Message: "This is not a savings account"}
	}

	income := acc.Balance * acc.InterestRate
	acc.Credit(income)
	s.record(acc, s.store.UserByEmail(acc.OwnerEmail), domain.Transaction{
		Timestamp:   at(timestamp),
		Description: "Interest rate income",
		Amount:      income,
		Currency:    acc.Currency,
		AccountIBAN: iban,
	})
	return nil
}

// ChangeInterestRate updates the rate on a savings account.
func (s *BankService) ChangeInterestRate(ctx context.Context, iban string, rate float64, timestamp int64) error {
	_, span := bankTracer.Start(ctx, "BankService.ChangeInterestRate")
	defer span.End()
	defer s.track("change_interest_rate")()

	s.mu.Lock()
	defer s.mu.Unlock()

	acc := s.store.Account(iban)
	if acc == nil {
		return &domain.ErrAccountNotFound{IBAN: iban}
	}
	if acc.Kind != domain.KindSavings {
		return &domain.ErrValidation{Field: "account", Message: "This is not a savings account"}
	}

	acc.InterestRate = rate
	s.record(acc, s.store.UserByEmail(acc.OwnerEmail), domain.Transaction{
		Timestamp:   at(timestamp),
		Description: fmt.Sprintf("Interest rate of the account changed to %v", rate),
		AccountIBAN: iban,
	})
	return nil
}

// WithdrawSavings moves funds commission-free from a savings account
// into one of the owner's classic accounts held in the target
// currency. The owner must be at least 21.
func (s *BankService) WithdrawSavings(ctx context.Context, iban string, amount float64, currency string, timestamp int64) error {
	_, span := bankTracer.Start(ctx, "BankService.WithdrawSavings")
	defer span.End()
	defer s.track("withdraw_savings")()

	s.mu.Lock()
	defer s.mu.Unlock()

	acc := s.store.Account(iban)
	if acc == nil {
		return &domain.ErrAccountNotFound{IBAN: iban}
	}
	user := s.store.UserByEmail(acc.OwnerEmail)
	ts := at(timestamp)

	if user.Age < 21 {
		s.record(acc, user, domain.Transaction{
			Timestamp:   ts,
			Description: "You don't have the minimum age required.",
			AccountIBAN: iban,
			Error:       "You don't have the minimum age required.",
		})
		return nil
	}

	var classic *domain.Account
	for _, candidate := range s.store.AccountsOf(user.Email) {
		if candidate.Kind == domain.KindClassic && candidate.Currency == currency {
			classic = candidate
			break
		}
	}
	if classic == nil {
		s.record(acc, user, domain.Transaction{
			Timestamp:   ts,
			Description: "You do not have a classic account.",
			AccountIBAN: iban,
			Error:       "You do not have a classic account.",
		})
		return nil
	}

	ok, err := acc.PayWithoutCommission(s.conv, amount, currency)
	if err != nil {
		return err
	}
	if !ok {
		s.record(acc, user, domain.Transaction{
			Timestamp:   ts,
			Description: "Insufficient funds",
			AccountIBAN: iban,
			Error:       "Insufficient funds",
		})
		return nil
	}
	classic.Credit(amount)

	tx := domain.Transaction{
		Timestamp:   ts,
		Description: "Savings withdrawal",
		Amount:      amount,
		Currency:    currency,
		SavingsIBAN: iban,
		ClassicIBAN: classic.IBAN,
	}
	s.record(acc, user, tx)
	classic.Record(tx)

	s.logger.Info("savings withdrawal",
		zap.String("savings_iban", iban),
		zap.String("classic_iban", classic.IBAN),
		zap.Float64("amount", amount),
	)
	return nil
}
