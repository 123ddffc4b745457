package service

import (
	"context"
	"fmt"

	"github.com/boddenberg/corebank-ledger-go/internal/domain"

	"go.opentelemetry.io/otel/attribute"
	"go.uber.org/zap"
)

// ============================================================
// Card lifecycle
// ============================================================

// CreateCard attaches a new card to the account. Business associates
// may create cards on the shared account.
func (s *BankService) CreateCard(ctx context.Context, email, iban string, oneTime bool, timestamp int64) (*domain.Card, error) {
	_, span := bankTracer.Start(ctx, "BankService.CreateCard")
	defer span.End()
	defer s.track("create_card")()

	s.mu.Lock()
	defer s.mu.Unlock()

	acc := s.store.Account(iban)
	if acc == nil {
		return nil, &domain.ErrAccountNotFound{IBAN: iban}
	}
	user := s.store.UserByEmail(email)
	if user == nil {
		return nil, &domain.ErrUserNotFound{Email: email}
	}
	if acc.OwnerEmail != email && acc.Role(email) == "" {
		return nil, &domain.ErrForbidden{Action: "create card on another user's account"}
	}

	card := &domain.Card{Number: newCardNumber(), OneTime: oneTime}
	acc.Cards = append(acc.Cards, card)
	s.record(acc, user, domain.Transaction{
		Timestamp:   at(timestamp),
		Description: "New card created",
		AccountIBAN: iban,
		Card:        card.Number,
		CardHolder:  email,
	})
	return card, nil
}

// DeleteCard detaches a card from its account.
func (s *BankService) DeleteCard(ctx context.Context, email, number string, timestamp int64) error {
	_, span := bankTracer.Start(ctx, "BankService.DeleteCard")
	defer span.End()
	defer s.track("delete_card")()

	s.mu.Lock()
	defer s.mu.Unlock()

	acc, card := s.store.AccountByCard(number)
	if card == nil {
		return &domain.ErrCardNotFound{Number: number}
	}

	acc.RemoveCard(number)
	s.record(acc, s.store.UserByEmail(email), domain.Transaction{
		Timestamp:   at(timestamp),
		Description: "The card has been destroyed",
		AccountIBAN: acc.IBAN,
		Card:        number,
		CardHolder:  email,
	})
	return nil
}

// CheckCardStatus freezes the card when the account balance has
// reached the minimum, recording a warning transaction.
func (s *BankService) CheckCardStatus(ctx context.Context, number string, timestamp int64) error {
	_, span := bankTracer.Start(ctx, "BankService.CheckCardStatus")
	defer span.End()
	defer s.track("check_card_status")()

	s.mu.Lock()
	defer s.mu.Unlock()

	acc, card := s.store.AccountByCard(number)
	if card == nil {
		return &domain.ErrCardNotFound{Number: number}
	}

	if acc.Balance <= acc.MinBalance && !card.Frozen {
		card.Frozen = true
		s.record(acc, s.store.UserByEmail(acc.OwnerEmail), domain.Transaction{
			Timestamp:   at(timestamp),
			Description: "You have reached the minimum amount of funds, the card will be frozen",
			AccountIBAN: acc.IBAN,
			Card:        number,
			Error:       "You have reached the minimum amount of funds, the card will be frozen",
		})
	}
	return nil
}

// ============================================================
// Card payment
// ============================================================

// CardPayment pays a commerciant with a card. The amount is converted
// to the account currency, charged with the owner's plan commission,
// and on success the cashback observers run. A one-time card is
// destroyed and replaced after the payment.
func (s *BankService) CardPayment(ctx context.Context, email, cardNumber string, amount float64, currency, commerciantName string, timestamp int64) error {
	_, span := bankTracer.Start(ctx, "BankService.CardPayment")
	defer span.End()
	defer s.track("card_payment")()
	span.SetAttributes(attribute.Float64("payment.amount", amount))

	if amount <= 0 {
		return nil
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	acc, card := s.store.AccountByCard(cardNumber)
	if card == nil {
		return &domain.ErrCardNotFound{Number: cardNumber}
	}
	user := s.store.UserByEmail(email)
	if user == nil {
		return &domain.ErrUserNotFound{Email: email}
	}
	if acc.OwnerEmail != email && acc.Role(email) == "" {
		return &domain.ErrForbidden{Action: "pay with another user's card"}
	}
	owner := s.store.UserByEmail(acc.OwnerEmail)
	ts := at(timestamp)

	if card.Frozen {
		s.record(acc, user, domain.Transaction{
			Timestamp:   ts,
			Description: "The card is frozen",
			AccountIBAN: acc.IBAN,
			Card:        cardNumber,
			Error:       "The card is frozen",
		})
		return nil
	}

	converted, err := s.conv.Convert(amount, currency, acc.Currency)
	if err != nil {
		return err
	}

	if acc.Kind == domain.KindBusiness && acc.Role(email) == domain.RoleEmployee && converted > acc.SpendingLimit {
		return &domain.ErrForbidden{Action: "pay above the spending limit"}
	}

	ok, err := acc.PayWithCommission(s.conv, owner.Plan, amount, currency)
	if err != nil {
		return err
	}
	if !ok {
		s.record(acc, user, domain.Transaction{
			Timestamp:   ts,
			Description: "Insufficient funds",
			AccountIBAN: acc.IBAN,
			Error:       "Insufficient funds",
		})
		return nil
	}

	s.record(acc, user, domain.Transaction{
		Timestamp:   ts,
		Description: "Card payment",
		Amount:      converted,
		Currency:    acc.Currency,
		AccountIBAN: acc.IBAN,
		Card:        cardNumber,
		CardHolder:  email,
		Commerciant: commerciantName,
	})

	if commerciant := acc.Commerciants[commerciantName]; commerciant != nil {
		// Business reporting aggregates are RON-denominated and
		// exclude the owner.
		if acc.Kind == domain.KindBusiness && email != acc.OwnerEmail {
			if spentRON, err := s.conv.Convert(amount, currency, domain.PivotCurrency); err == nil {
				commerciant.AmountSpent += spentRON
				commerciant.AddUser(user.Name())
			}
		}
		s.cashback.Notify(acc, owner, domain.PaymentDetails{
			Amount:      converted,
			Currency:    acc.Currency,
			Commerciant: commerciant,
			User:        owner,
		})
	}

	if card.OneTime {
		s.rotateOneTimeCard(acc, user, card, ts)
	}

	s.logger.Info("card payment",
		zap.String("iban", acc.IBAN),
		zap.String("commerciant", commerciantName),
		zap.Float64("amount", converted),
	)
	return nil
}

// rotateOneTimeCard destroys a spent one-time card and issues a fresh
// one on the same account.
func (s *BankService) rotateOneTimeCard(acc *domain.Account, user *domain.User, card *domain.Card, timestamp int64) {
	old := card.Number
	acc.RemoveCard(old)
	s.record(acc, user, domain.Transaction{
		Timestamp:   timestamp,
		Description: "The card has been destroyed",
		AccountIBAN: acc.IBAN,
		Card:        old,
		CardHolder:  user.Email,
	})

	fresh := &domain.Card{Number: newCardNumber(), OneTime: true}
	acc.Cards = append(acc.Cards, fresh)
	s.record(acc, user, domain.Transaction{
		Timestamp:   timestamp,
		Description: "New card created",
		AccountIBAN: acc.IBAN,
		Card:        fresh.Number,
		CardHolder:  user.Email,
	})
}

// ============================================================
// Cash withdrawal
// ============================================================

// CashWithdrawal debits a RON-denominated ATM withdrawal, charged with
// the card holder's plan commission.
func (s *BankService) CashWithdrawal(ctx context.Context, email, cardNumber string, amountRON float64, timestamp int64) error {
	_, span := bankTracer.Start(ctx, "BankService.CashWithdrawal")
	defer span.End()
	defer s.track("cash_withdrawal")()

	s.mu.Lock()
	defer s.mu.Unlock()

	user := s.store.UserByEmail(email)
	if user == nil {
		return &domain.ErrUserNotFound{Email: email}
	}
	acc, card := s.store.AccountByCard(cardNumber)
	if card == nil {
		return &domain.ErrCardNotFound{Number: cardNumber}
	}
	ts := at(timestamp)

	ok, err := acc.PayWithCommission(s.conv, user.Plan, amountRON, domain.PivotCurrency)
	if err != nil {
		return err
	}
	if !ok {
		s.record(acc, user, domain.Transaction{
			Timestamp:   ts,
			Description: "Insufficient funds",
			AccountIBAN: acc.IBAN,
			Error:       "Insufficient funds",
		})
		return nil
	}

	s.record(acc, user, domain.Transaction{
		Timestamp:   ts,
		Description: fmt.Sprintf("Cash withdrawal of %v", amountRON),
		Amount:      amountRON,
		Currency:    domain.PivotCurrency,
		AccountIBAN: acc.IBAN,
	})
	return nil
}
