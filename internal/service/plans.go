package service

import (
	"context"
	"fmt"

	"github.com/boddenberg/corebank-ledger-go/internal/domain"

	"go.uber.org/zap"
)

// autoUpgradeTransfers is the number of qualifying transfers after
// which a silver plan is promoted to gold.
const autoUpgradeTransfers = 5

// qualifyingTransferRON is the RON value from which a transfer counts
// toward the silver auto-upgrade.
const qualifyingTransferRON = 300

// UpgradePlan moves the account owner to a higher service plan,
// charging the upgrade fee in the account currency. Same-plan and
// downgrade requests are recorded as failed transactions.
func (s *BankService) UpgradePlan(ctx context.Context, iban string, newPlan string, timestamp int64) error {
	_, span := bankTracer.Start(ctx, "BankService.UpgradePlan")
	defer span.End()
	defer s.track("upgrade_plan")()

	s.mu.Lock()
	defer s.mu.Unlock()

	acc := s.store.Account(iban)
	if acc == nil {
		return &domain.ErrAccountNotFound{IBAN: iban}
	}
	user := s.store.UserByEmail(acc.OwnerEmail)
	target := domain.ParsePlan(newPlan)
	ts := at(timestamp)

	if user.Plan == target {
		msg := fmt.Sprintf("The user already has the %s plan.", target)
		s.record(acc, user, domain.Transaction{
			Timestamp:   ts,
			Description: msg,
			AccountIBAN: iban,
			Error:       msg,
		})
		return nil
	}
	if !user.Plan.CanUpgradeTo(target) {
		s.record(acc, user, domain.Transaction{
			Timestamp:   ts,
			Description: "You cannot downgrade your plan.",
			AccountIBAN: iban,
			Error:       "You cannot downgrade your plan.",
		})
		return nil
	}

	feeRON, _ := user.Plan.UpgradeFee(target)
	fee, err := s.conv.Convert(feeRON, domain.PivotCurrency, acc.Currency)
	if err != nil {
		return err
	}
	if !acc.Debit(fee) {
		s.record(acc, user, domain.Transaction{
			Timestamp:   ts,
			Description: "Insufficient funds",
			AccountIBAN: iban,
			Error:       "Insufficient funds",
		})
		return nil
	}

	user.Plan = target
	s.record(acc, user, domain.Transaction{
		Timestamp:   ts,
		Description: "Upgrade plan",
		AccountIBAN: iban,
		NewPlan:     target,
	})
	s.metrics.IncrPlanUpgrade(string(target))

	s.logger.Info("plan upgraded",
		zap.String("email", user.Email),
		zap.String("plan", string(target)),
	)
	return nil
}

// maybeAutoUpgrade counts qualifying transfers for silver users and
// promotes them to gold for free at the threshold.
func (s *BankService) maybeAutoUpgrade(user *domain.User, acc *domain.Account, amount float64, timestamp int64) error {
	if user == nil || user.Plan != domain.PlanSilver {
		return nil
	}
	amountRON, err := s.conv.Convert(amount, acc.Currency, domain.PivotCurrency)
	if err != nil {
		return err
	}
	if amountRON < qualifyingTransferRON {
		return nil
	}

	user.UpgradeCounter++
	if user.UpgradeCounter < autoUpgradeTransfers {
		return nil
	}

	user.Plan = domain.PlanGold
	s.record(acc, user, domain.Transaction{
		Timestamp:   timestamp,
		Description: "Upgrade plan",
		AccountIBAN: acc.IBAN,
		NewPlan:     domain.PlanGold,
	})
	s.metrics.IncrPlanUpgrade(string(domain.PlanGold))
	return nil
}
