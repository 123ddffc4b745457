package service

import (
	"github.com/boddenberg/corebank-ledger-go/internal/domain"
	"github.com/boddenberg/corebank-ledger-go/internal/infra/observability"
	"github.com/boddenberg/corebank-ledger-go/internal/port"

	"go.uber.org/zap"
)

// Voucher rewards issued by the count-based strategy, keyed to the
// transaction-count thresholds.
var countRewards = []struct {
	Threshold  int
	Percentage float64
	Category   domain.Category
}{
	{2, 0.02, domain.CategoryFood},
	{5, 0.05, domain.CategoryClothes},
	{10, 0.10, domain.CategoryTech},
}

// CashbackEngine credits rewards after qualifying commerciant
// payments. It runs inside the engine lock held by the caller, so the
// credit lands in the same atomic step as the payment itself.
type CashbackEngine struct {
	conv    port.RateSource
	metrics *observability.Metrics
	logger  *zap.Logger
}

// NewCashbackEngine creates the reward engine.
func NewCashbackEngine(conv port.RateSource, metrics *observability.Metrics, logger *zap.Logger) *CashbackEngine {
	return &CashbackEngine{conv: conv, metrics: metrics, logger: logger}
}

// Notify runs the reward pipeline for one committed payment: first any
// matching voucher is redeemed, then the account's observers process
// the payment in registration order.
func (e *CashbackEngine) Notify(acc *domain.Account, owner *domain.User, details domain.PaymentDetails) {
	if details.Commerciant == nil {
		return
	}

	e.redeemVoucher(acc, details)

	for _, observer := range acc.Observers {
		switch observer {
		case domain.ObserverCountBased:
			e.applyCountBased(acc, details)
		case domain.ObserverThresholdBased:
			e.applyThresholdBased(acc, owner, details)
		}
	}
}

// redeemVoucher spends every voucher matching the commerciant's
// category, each crediting its own percentage of the payment. Vouchers
// are single-use; non-matching ones stay in the inventory.
func (e *CashbackEngine) redeemVoucher(acc *domain.Account, details domain.PaymentDetails) {
	if len(acc.Vouchers) == 0 {
		return
	}
	kept := acc.Vouchers[:0]
	for _, v := range acc.Vouchers {
		if v.Category != details.Commerciant.Category {
			kept = append(kept, v)
			continue
		}
		credit := details.Amount * v.Percentage
		acc.Credit(credit)

		e.metrics.AddCashback("count_based", credit)
		e.logger.Debug("voucher redeemed",
			zap.String("iban", acc.IBAN),
			zap.String("category", string(v.Category)),
			zap.Float64("credit", credit),
		)
	}
	acc.Vouchers = kept
}

// applyCountBased counts payments to count-strategy commerciants and
// issues a voucher when the per-account counter crosses a threshold.
// Each threshold fires at most once per commerciant per account.
func (e *CashbackEngine) applyCountBased(acc *domain.Account, details domain.PaymentDetails) {
	commerciant := details.Commerciant
	if commerciant.Strategy != domain.StrategyCountBased {
		return
	}

	commerciant.Transactions++
	for _, reward := range countRewards {
		if commerciant.Transactions == reward.Threshold {
			acc.AddVoucher(domain.Voucher{Percentage: reward.Percentage, Category: reward.Category})
			e.metrics.IncrVoucher()
			e.logger.Debug("voucher issued",
				zap.String("iban", acc.IBAN),
				zap.String("commerciant", commerciant.Name),
				zap.String("category", string(reward.Category)),
			)
			return
		}
	}
}

// applyThresholdBased accumulates RON spending at threshold-strategy
// commerciants and credits plan-rated cashback on the payment.
func (e *CashbackEngine) applyThresholdBased(acc *domain.Account, owner *domain.User, details domain.PaymentDetails) {
	commerciant := details.Commerciant
	if commerciant.Strategy != domain.StrategyThresholdBased {
		return
	}

	amountRON, err := e.conv.Convert(details.Amount, details.Currency, domain.PivotCurrency)
	if err != nil {
		e.logger.Warn("cashback conversion failed",
			zap.String("currency", details.Currency),
			zap.Error(err),
		)
		return
	}
	acc.SpendingThreshold += amountRON

	rate := owner.Plan.CashbackRate(acc.SpendingThreshold)
	if rate == 0 {
		return
	}
	creditRON := amountRON * rate
	credit, err := e.conv.Convert(creditRON, domain.PivotCurrency, acc.Currency)
	if err != nil {
		return
	}
	acc.Credit(credit)

	e.metrics.AddCashback("threshold", credit)
	e.logger.Debug("threshold cashback credited",
		zap.String("iban", acc.IBAN),
		zap.Float64("cumulative_ron", acc.SpendingThreshold),
		zap.Float64("credit", credit),
	)
}
