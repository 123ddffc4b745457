package service

import (
	"context"

	"github.com/boddenberg/corebank-ledger-go/internal/domain"

	"go.opentelemetry.io/otel/attribute"
	"go.uber.org/zap"
)

// Transfer moves funds from the sender account to a receiver resolved
// by alias, IBAN or commerciant account. Commerciant receivers are
// paid like a card payment (commission plus cashback); account
// receivers get a converted credit and both sides log the transfer.
func (s *BankService) Transfer(ctx context.Context, email, senderIBAN, receiver string, amount float64, description string, timestamp int64) error {
	_, span := bankTracer.Start(ctx, "BankService.Transfer")
	defer span.End()
	defer s.track("transfer")()
	span.SetAttributes(
		attribute.String("sender.iban", senderIBAN),
		attribute.Float64("transfer.amount", amount),
	)

	if amount <= 0 {
		return &domain.ErrValidation{Field: "amount", Message: "amount must be positive"}
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	sender := s.store.Account(senderIBAN)
	if sender == nil {
		return &domain.ErrAccountNotFound{IBAN: senderIBAN}
	}
	user := s.store.UserByEmail(email)
	if user == nil {
		return &domain.ErrUserNotFound{Email: email}
	}
	if sender.OwnerEmail != email && sender.Role(email) == "" {
		return &domain.ErrForbidden{Action: "transfer from another user's account"}
	}
	owner := s.store.UserByEmail(sender.OwnerEmail)
	ts := at(timestamp)

	// Alias first, then IBAN, then commerciant account.
	dest := s.store.AccountByAlias(receiver)
	if dest == nil {
		dest = s.store.Account(receiver)
	}
	if dest == nil {
		if commerciant, ok := s.store.CommerciantByIBAN(receiver); ok {
			return s.transferToCommerciant(sender, owner, user, commerciant.Name, amount, description, ts)
		}
		return &domain.ErrAccountNotFound{IBAN: receiver}
	}

	ok, err := sender.Transfer(s.conv, owner.Plan, dest, amount)
	if err != nil {
		return err
	}
	if !ok {
		s.record(sender, user, domain.Transaction{
			Timestamp:   ts,
			Description: "Insufficient funds",
			AccountIBAN: sender.IBAN,
			Error:       "Insufficient funds",
		})
		return nil
	}

	s.record(sender, user, domain.Transaction{
		Timestamp:    ts,
		Description:  description,
		Amount:       amount,
		Currency:     sender.Currency,
		SenderIBAN:   sender.IBAN,
		ReceiverIBAN: dest.IBAN,
		TransferType: "sent",
	})
	received, err := s.conv.Convert(amount, sender.Currency, dest.Currency)
	if err != nil {
		return err
	}
	s.record(dest, s.store.UserByEmail(dest.OwnerEmail), domain.Transaction{
		Timestamp:    ts,
		Description:  description,
		Amount:       received,
		Currency:     dest.Currency,
		SenderIBAN:   sender.IBAN,
		ReceiverIBAN: dest.IBAN,
		TransferType: "received",
	})

	if err := s.maybeAutoUpgrade(owner, sender, amount, ts); err != nil {
		return err
	}

	s.logger.Info("transfer committed",
		zap.String("sender", sender.IBAN),
		zap.String("receiver", dest.IBAN),
		zap.Float64("amount", amount),
	)
	return nil
}

// transferToCommerciant settles a transfer whose receiver is a
// commerciant settlement account.
func (s *BankService) transferToCommerciant(sender *domain.Account, owner, user *domain.User, commerciantName string, amount float64, description string, timestamp int64) error {
	ok, err := sender.PayWithCommission(s.conv, owner.Plan, amount, sender.Currency)
	if err != nil {
		return err
	}
	if !ok {
		s.record(sender, user, domain.Transaction{
			Timestamp:   timestamp,
			Description: "Insufficient funds",
			AccountIBAN: sender.IBAN,
			Error:       "Insufficient funds",
		})
		return nil
	}

	s.record(sender, user, domain.Transaction{
		Timestamp:   timestamp,
		Description: description,
		Amount:      amount,
		Currency:    sender.Currency,
		SenderIBAN:  sender.IBAN,
		Commerciant: commerciantName,
	})

	if commerciant := sender.Commerciants[commerciantName]; commerciant != nil {
		// Transfers to a commerciant feed the same RON-denominated,
		// owner-excluded business aggregates as card payments.
		if sender.Kind == domain.KindBusiness && user.Email != sender.OwnerEmail {
			if spentRON, err := s.conv.Convert(amount, sender.Currency, domain.PivotCurrency); err == nil {
				commerciant.AmountSpent += spentRON
				commerciant.AddUser(user.Name())
			}
		}
		s.cashback.Notify(sender, owner, domain.PaymentDetails{
			Amount:      amount,
			Currency:    sender.Currency,
			Commerciant: commerciant,
			User:        owner,
		})
	}
	return s.maybeAutoUpgrade(owner, sender, amount, timestamp)
}
