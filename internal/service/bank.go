// Package service provides the business logic layer (use cases).
// BankService handles the ledger operations: accounts, cards, funds
// movement, service plans and reporting. CashbackEngine and
// SplitCoordinator cover the reward and split-payment protocols.
package service

import (
	"fmt"
	"math/rand"
	"sync"
	"time"

	"github.com/boddenberg/corebank-ledger-go/internal/domain"
	"github.com/boddenberg/corebank-ledger-go/internal/infra/observability"
	"github.com/boddenberg/corebank-ledger-go/internal/port"

	"github.com/google/uuid"
	"go.opentelemetry.io/otel"
	"go.uber.org/zap"
)

var bankTracer = otel.Tracer("service/bank")

// BankService orchestrates the ledger operations over the registry.
//
// Every public method takes the engine mutex for its full duration,
// so multi-account operations commit atomically with respect to each
// other. The mutex is shared with the SplitCoordinator.
type BankService struct {
	mu       *sync.Mutex
	store    port.Store
	conv     port.RateSource
	cashback *CashbackEngine
	metrics  *observability.Metrics
	logger   *zap.Logger
}

// NewBankService creates the ledger service. The mutex must be the
// same instance passed to the SplitCoordinator.
func NewBankService(mu *sync.Mutex, store port.Store, conv port.RateSource, cashback *CashbackEngine, metrics *observability.Metrics, logger *zap.Logger) *BankService {
	return &BankService{
		mu:       mu,
		store:    store,
		conv:     conv,
		cashback: cashback,
		metrics:  metrics,
		logger:   logger,
	}
}

// track times an operation for the duration histogram.
func (s *BankService) track(operation string) func() {
	start := time.Now()
	return func() {
		s.metrics.RecordOpDuration(operation, time.Since(start))
	}
}

// at normalizes a caller-supplied timestamp, defaulting to now.
func at(timestamp int64) int64 {
	if timestamp == 0 {
		return time.Now().Unix()
	}
	return timestamp
}

// record appends a committed transaction to the account log and
// mirrors it to the initiating user's log.
func (s *BankService) record(acc *domain.Account, user *domain.User, tx domain.Transaction) {
	if tx.ID == "" {
		tx.ID = uuid.NewString()
	}
	acc.Record(tx)
	if user != nil {
		user.Record(tx)
	}
	if tx.IsError() {
		s.metrics.IncrTransaction("failed")
	} else {
		s.metrics.IncrTransaction("committed")
	}
}

// newIBAN generates a RO-prefixed account number.
func newIBAN() string {
	return fmt.Sprintf("RO%02dCORE%016d", rand.Intn(100), rand.Int63n(1e16))
}

// newCardNumber generates a 16-digit card number.
func newCardNumber() string {
	return fmt.Sprintf("%016d", rand.Int63n(1e16))
}
