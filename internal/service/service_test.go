package service

import (
	"context"
	"sync"
	"testing"
	"time"

	"github.com/boddenberg/corebank-ledger-go/internal/domain"
	"github.com/boddenberg/corebank-ledger-go/internal/exchange"
	"github.com/boddenberg/corebank-ledger-go/internal/infra/memstore"
	"github.com/boddenberg/corebank-ledger-go/internal/infra/observability"

	"go.uber.org/zap"
)

// testEngine wires a full in-memory engine for service tests.
type testEngine struct {
	bank   *BankService
	splits *SplitCoordinator
	store  *memstore.Store
}

func newTestEngine(t *testing.T) *testEngine {
	t.Helper()

	graph := exchange.NewGraph([]exchange.Edge{
		{From: "EUR", To: "RON", Rate: 5},
		{From: "USD", To: "RON", Rate: 4.5},
	})
	converter := exchange.NewCachedConverter(graph, time.Minute)

	store := memstore.New([]domain.Commerciant{
		{Name: "Pizza Planet", IBAN: "RO10COMM0000000001", Category: domain.CategoryFood, Strategy: domain.StrategyCountBased},
		{Name: "Threadworks", IBAN: "RO10COMM0000000002", Category: domain.CategoryClothes, Strategy: domain.StrategyThresholdBased},
		{Name: "Bitbox", IBAN: "RO10COMM0000000003", Category: domain.CategoryTech, Strategy: domain.StrategyCountBased},
	})

	metrics := observability.NewMetrics()
	logger := zap.NewNop()
	mu := &sync.Mutex{}
	cashback := NewCashbackEngine(converter, metrics, logger)

	return &testEngine{
		bank:   NewBankService(mu, store, converter, cashback, metrics, logger),
		splits: NewSplitCoordinator(mu, store, converter, metrics, logger),
		store:  store,
	}
}

// newUserWithAccount registers a user and opens a funded account.
func (e *testEngine) newUserWithAccount(t *testing.T, email, currency string, balance float64) (*domain.User, *domain.Account) {
	t.Helper()
	ctx := context.Background()

	user, err := e.bank.CreateUser(ctx, "Ana", "Pop", email, "1990-04-12", "engineer")
	if err != nil {
		t.Fatalf("create user %s: %v", email, err)
	}
	acc, err := e.bank.CreateAccount(ctx, email, currency, domain.KindClassic, 0, 1)
	if err != nil {
		t.Fatalf("create account for %s: %v", email, err)
	}
	if balance > 0 {
		if err := e.bank.AddFunds(ctx, acc.IBAN, balance, email, 1); err != nil {
			t.Fatalf("fund account %s: %v", acc.IBAN, err)
		}
	}
	return user, acc
}

// lastTransaction returns the newest entry in the account log.
func lastTransaction(t *testing.T, acc *domain.Account) domain.Transaction {
	t.Helper()
	if len(acc.Log) == 0 {
		t.Fatal("expected at least one transaction in the account log")
	}
	return acc.Log[len(acc.Log)-1]
}
