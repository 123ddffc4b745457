package service

import (
	"context"
	"fmt"
	"sync"

	"github.com/boddenberg/corebank-ledger-go/internal/domain"
	"github.com/boddenberg/corebank-ledger-go/internal/infra/observability"
	"github.com/boddenberg/corebank-ledger-go/internal/port"

	"github.com/google/uuid"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.uber.org/zap"
)

var splitTracer = otel.Tracer("service/splitpay")

// SplitCoordinator runs the split-payment voting protocol: a payment
// is proposed across several accounts, every participant votes, and
// the debit commits only on unanimous acceptance. A single rejection
// or any insufficient account aborts the whole payment.
type SplitCoordinator struct {
	mu      *sync.Mutex
	store   port.Store
	conv    port.RateSource
	metrics *observability.Metrics
	logger  *zap.Logger
}

// NewSplitCoordinator creates the coordinator. The mutex must be the
// engine mutex shared with BankService.
func NewSplitCoordinator(mu *sync.Mutex, store port.Store, conv port.RateSource, metrics *observability.Metrics, logger *zap.Logger) *SplitCoordinator {
	return &SplitCoordinator{mu: mu, store: store, conv: conv, metrics: metrics, logger: logger}
}

// Initiate registers a pending split payment across the given
// accounts. An equal split divides the total evenly; a custom split
// takes explicit per-account amounts.
func (c *SplitCoordinator) Initiate(ctx context.Context, kind domain.SplitKind, ibans []string, total float64, amounts []float64, currency string, timestamp int64) (*domain.SplitPayment, error) {
	_, span := splitTracer.Start(ctx, "SplitCoordinator.Initiate")
	defer span.End()
	span.SetAttributes(
		attribute.Float64("split.total", total),
		attribute.Int("split.participants", len(ibans)),
	)

	if len(ibans) == 0 {
		return nil, &domain.ErrValidation{Field: "accounts", Message: "at least one account is required"}
	}
	if total <= 0 {
		return nil, &domain.ErrValidation{Field: "amount", Message: "amount must be positive"}
	}
	if kind == domain.SplitCustom && len(amounts) != len(ibans) {
		return nil, &domain.ErrValidation{Field: "amounts", Message: "one amount per account is required"}
	}
	if !c.conv.Knows(currency) {
		return nil, &domain.ErrUnknownCurrency{Currency: currency}
	}

	c.mu.Lock()
	defer c.mu.Unlock()

	participants := make([]domain.Participant, len(ibans))
	for i, iban := range ibans {
		acc := c.store.Account(iban)
		if acc == nil {
			return nil, &domain.ErrAccountNotFound{IBAN: iban}
		}
		share := total / float64(len(ibans))
		if kind == domain.SplitCustom {
			share = amounts[i]
		}
		participants[i] = domain.Participant{
			Email:  acc.OwnerEmail,
			IBAN:   iban,
			Amount: share,
			Status: domain.ParticipantPending,
		}
	}

	sp := &domain.SplitPayment{
		ID:           uuid.New().String(),
		Kind:         kind,
		Total:        total,
		Currency:     currency,
		Timestamp:    at(timestamp),
		Participants: participants,
	}
	c.store.AddSplit(sp)

	c.logger.Info("split payment initiated",
		zap.String("split_id", sp.ID),
		zap.Float64("total", total),
		zap.Int("participants", len(participants)),
	)
	return sp, nil
}

// Accept records one participant's acceptance. When the last pending
// participant accepts, the payment commits atomically across all
// accounts, or aborts naming the first account that cannot cover its
// share. A vote from someone who is not a participant is a no-op.
func (c *SplitCoordinator) Accept(ctx context.Context, splitID, email string) error {
	_, span := splitTracer.Start(ctx, "SplitCoordinator.Accept")
	defer span.End()

	c.mu.Lock()
	defer c.mu.Unlock()

	sp := c.store.Split(splitID)
	if sp == nil {
		return &domain.ErrSplitNotFound{ID: splitID}
	}
	participant := sp.Participant(email)
	if participant == nil || participant.Status == domain.ParticipantAccepted {
		return nil
	}
	participant.Status = domain.ParticipantAccepted

	if !sp.AllAccepted() {
		return nil
	}
	return c.commit(sp)
}

// Reject aborts the payment immediately. A vote from someone who is
// not a participant is a no-op.
func (c *SplitCoordinator) Reject(ctx context.Context, splitID, email string) error {
	_, span := splitTracer.Start(ctx, "SplitCoordinator.Reject")
	defer span.End()

	c.mu.Lock()
	defer c.mu.Unlock()

	sp := c.store.Split(splitID)
	if sp == nil {
		return &domain.ErrSplitNotFound{ID: splitID}
	}
	participant := sp.Participant(email)
	if participant == nil {
		return nil
	}
	participant.Status = domain.ParticipantRejected

	c.abort(sp, "One user rejected the payment.")
	c.logger.Info("split payment rejected",
		zap.String("split_id", sp.ID),
		zap.String("email", email),
	)
	return nil
}

// Pending returns the split payments still awaiting a vote from the
// given user, in creation order.
func (c *SplitCoordinator) Pending(ctx context.Context, email string) []*domain.SplitPayment {
	_, span := splitTracer.Start(ctx, "SplitCoordinator.Pending")
	defer span.End()

	c.mu.Lock()
	defer c.mu.Unlock()

	var out []*domain.SplitPayment
	for _, sp := range c.store.PendingSplits() {
		if p := sp.Participant(email); p != nil && p.Status == domain.ParticipantPending {
			out = append(out, sp)
		}
	}
	return out
}

// commit debits every participant or aborts on the first account that
// cannot cover its converted share. The sufficiency scan completes
// before any debit, so an abort leaves every balance untouched.
func (c *SplitCoordinator) commit(sp *domain.SplitPayment) error {
	for i := range sp.Participants {
		p := &sp.Participants[i]
		acc := c.store.Account(p.IBAN)
		if acc == nil {
			c.abort(sp, fmt.Sprintf("Account %s has insufficient funds for a split payment.", p.IBAN))
			return &domain.ErrSplitAborted{SplitID: sp.ID, IBAN: p.IBAN}
		}
		ok, err := acc.HasSufficientFunds(c.conv, p.Amount, sp.Currency)
		if err != nil {
			return err
		}
		if !ok {
			c.abort(sp, fmt.Sprintf("Account %s has insufficient funds for a split payment.", p.IBAN))
			return &domain.ErrSplitAborted{SplitID: sp.ID, IBAN: p.IBAN}
		}
	}

	for i := range sp.Participants {
		p := &sp.Participants[i]
		acc := c.store.Account(p.IBAN)
		if _, err := acc.PayWithoutCommission(c.conv, p.Amount, sp.Currency); err != nil {
			return err
		}
	}

	c.recordOutcome(sp, "")
	c.store.RemoveSplit(sp.ID)
	c.metrics.IncrSplit("committed")

	c.logger.Info("split payment committed",
		zap.String("split_id", sp.ID),
		zap.Float64("total", sp.Total),
	)
	return nil
}

// abort records the failure on every participant and drops the payment
// from the registry.
func (c *SplitCoordinator) abort(sp *domain.SplitPayment, reason string) {
	c.recordOutcome(sp, reason)
	c.store.RemoveSplit(sp.ID)
	c.metrics.IncrSplit("aborted")
}

// recordOutcome appends the terminal transaction to every
// participant's account and user log. An empty errText marks a commit.
func (c *SplitCoordinator) recordOutcome(sp *domain.SplitPayment, errText string) {
	tx := domain.Transaction{
		ID:            uuid.NewString(),
		Timestamp:     sp.Timestamp,
		Description:   fmt.Sprintf("Split payment of %.2f %s", sp.Total, sp.Currency),
		Currency:      sp.Currency,
		SplitKind:     sp.Kind,
		InvolvedIBANs: sp.IBANs(),
		Error:         errText,
	}
	if sp.Kind == domain.SplitCustom {
		tx.AmountPerUser = sp.Shares()
	} else {
		tx.Amount = sp.Total / float64(len(sp.Participants))
	}

	for i := range sp.Participants {
		p := sp.Participants[i]
		acc := c.store.Account(p.IBAN)
		if acc == nil {
			continue
		}
		acc.Record(tx)
		if user := c.store.UserByEmail(p.Email); user != nil {
			user.Record(tx)
		}
		if tx.IsError() {
			c.metrics.IncrTransaction("failed")
		} else {
			c.metrics.IncrTransaction("committed")
		}
	}
}
