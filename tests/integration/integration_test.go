package integration_test

import (
	"bytes"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"sync"
	"testing"
	"time"

	"github.com/boddenberg/corebank-ledger-go/internal/config"
	"github.com/boddenberg/corebank-ledger-go/internal/domain"
	"github.com/boddenberg/corebank-ledger-go/internal/exchange"
	"github.com/boddenberg/corebank-ledger-go/internal/handler"
	"github.com/boddenberg/corebank-ledger-go/internal/infra/memstore"
	"github.com/boddenberg/corebank-ledger-go/internal/infra/observability"
	"github.com/boddenberg/corebank-ledger-go/internal/service"

	"go.uber.org/zap"
)

// newServer wires the full engine behind a live HTTP listener, the way
// cmd/corebank does minus seeding from files.
func newServer(t *testing.T) *httptest.Server {
	t.Helper()

	cfg := &config.Config{
		JWTSecret:    "integration-secret",
		JWTAccessTTL: time.Minute,
		RequireAuth:  false,
	}

	graph := exchange.NewGraph([]exchange.Edge{
		{From: "EUR", To: "RON", Rate: 5},
		{From: "USD", To: "RON", Rate: 4.5},
	})
	converter := exchange.NewCachedConverter(graph, time.Minute)
	store := memstore.New([]domain.Commerciant{
		{Name: "Pizza Planet", IBAN: "RO10COMM0000000001", Category: domain.CategoryFood, Strategy: domain.StrategyCountBased},
		{Name: "Threadworks", IBAN: "RO10COMM0000000002", Category: domain.CategoryClothes, Strategy: domain.StrategyThresholdBased},
	})

	metrics := observability.NewMetrics()
	logger := zap.NewNop()
	mu := &sync.Mutex{}
	cashback := service.NewCashbackEngine(converter, metrics, logger)
	bankSvc := service.NewBankService(mu, store, converter, cashback, metrics, logger)
	splitSvc := service.NewSplitCoordinator(mu, store, converter, metrics, logger)

	router := handler.NewRouter(bankSvc, splitSvc, cfg, metrics, logger)
	srv := httptest.NewServer(router)
	t.Cleanup(srv.Close)
	return srv
}

func post(t *testing.T, base, path string, body any) (*http.Response, []byte) {
	t.Helper()

	var buf bytes.Buffer
	if err := json.NewEncoder(&buf).Encode(body); err != nil {
		t.Fatalf("encode body: %v", err)
	}
	resp, err := http.Post(base+path, "application/json", &buf)
	if err != nil {
		t.Fatalf("POST %s: %v", path, err)
	}
	defer resp.Body.Close()
	var out bytes.Buffer
	if _, err := out.ReadFrom(resp.Body); err != nil {
		t.Fatalf("read body: %v", err)
	}
	return resp, out.Bytes()
}

func get(t *testing.T, base, path string) (*http.Response, []byte) {
	t.Helper()

	resp, err := http.Get(base + path)
	if err != nil {
		t.Fatalf("GET %s: %v", path, err)
	}
	defer resp.Body.Close()
	var out bytes.Buffer
	if _, err := out.ReadFrom(resp.Body); err != nil {
		t.Fatalf("read body: %v", err)
	}
	return resp, out.Bytes()
}

func mustUser(t *testing.T, base, email string) {
	t.Helper()

	resp, body := post(t, base, "/v1/users", map[string]string{
		"first_name": "Ana", "last_name": "Pop", "email": email,
		"birth_date": "1990-04-12", "occupation": "engineer",
	})
	if resp.StatusCode != http.StatusCreated {
		t.Fatalf("create user %s: %d. Body: %s", email, resp.StatusCode, body)
	}
}

func mustAccount(t *testing.T, base, email, currency string, funds float64) string {
	t.Helper()

	resp, body := post(t, base, "/v1/accounts", map[string]any{
		"email": email, "currency": currency,
	})
	if resp.StatusCode != http.StatusCreated {
		t.Fatalf("create account for %s: %d. Body: %s", email, resp.StatusCode, body)
	}
	var acc struct {
		IBAN string `json:"iban"`
	}
	if err := json.Unmarshal(body, &acc); err != nil {
		t.Fatalf("decode account: %v", err)
	}
	if funds > 0 {
		resp, body = post(t, base, "/v1/accounts/"+acc.IBAN+"/funds", map[string]any{
			"amount": funds, "email": email,
		})
		if resp.StatusCode != http.StatusOK {
			t.Fatalf("add funds: %d. Body: %s", resp.StatusCode, body)
		}
	}
	return acc.IBAN
}

func accountBalance(t *testing.T, base, iban string) float64 {
	t.Helper()

	resp, body := get(t, base, "/v1/accounts/"+iban)
	if resp.StatusCode != http.StatusOK {
		t.Fatalf("get account %s: %d", iban, resp.StatusCode)
	}
	var acc struct {
		Balance float64 `json:"balance"`
	}
	if err := json.Unmarshal(body, &acc); err != nil {
		t.Fatalf("decode account: %v", err)
	}
	return acc.Balance
}

// TestIntegration_FullFlow exercises the complete engine over live HTTP:
// users, accounts, cards, a card payment with commission, a transfer and
// the transaction log.
func TestIntegration_FullFlow(t *testing.T) {
	srv := newServer(t)
	base := srv.URL

	mustUser(t, base, "ana@corebank.dev")
	mustUser(t, base, "bob@corebank.dev")
	anaIBAN := mustAccount(t, base, "ana@corebank.dev", "RON", 1000)
	bobIBAN := mustAccount(t, base, "bob@corebank.dev", "RON", 0)

	// Card payment to a seeded commerciant. engineer maps to the
	// standard plan, so 200 costs 200.4 with the 0.2% commission.
	resp, body := post(t, base, "/v1/cards", map[string]any{
		"email": "ana@corebank.dev", "iban": anaIBAN,
	})
	if resp.StatusCode != http.StatusCreated {
		t.Fatalf("create card: %d. Body: %s", resp.StatusCode, body)
	}
	var card struct {
		Number string `json:"number"`
	}
	if err := json.Unmarshal(body, &card); err != nil {
		t.Fatalf("decode card: %v", err)
	}

	resp, body = post(t, base, "/v1/payments/card", map[string]any{
		"email":       "ana@corebank.dev",
		"card_number": card.Number,
		"amount":      200.0,
		"currency":    "RON",
		"commerciant": "Pizza Planet",
	})
	if resp.StatusCode != http.StatusOK {
		t.Fatalf("card payment: %d. Body: %s", resp.StatusCode, body)
	}
	if got := accountBalance(t, base, anaIBAN); got != 799.6 {
		t.Errorf("expected balance 799.6 after commissioned payment, got %f", got)
	}

	// Transfer the remainder partially to bob.
	resp, body = post(t, base, "/v1/transfers", map[string]any{
		"email":       "ana@corebank.dev",
		"sender":      anaIBAN,
		"receiver":    bobIBAN,
		"amount":      100.0,
		"description": "rent share",
	})
	if resp.StatusCode != http.StatusOK {
		t.Fatalf("transfer: %d. Body: %s", resp.StatusCode, body)
	}
	if got := accountBalance(t, base, bobIBAN); got != 100 {
		t.Errorf("expected bob to receive 100, got %f", got)
	}

	resp, body = get(t, base, "/v1/users/ana@corebank.dev/transactions")
	if resp.StatusCode != http.StatusOK {
		t.Fatalf("user transactions: %d", resp.StatusCode)
	}
	var txs []domain.Transaction
	if err := json.Unmarshal(body, &txs); err != nil {
		t.Fatalf("decode transactions: %v", err)
	}
	var descriptions []string
	for _, tx := range txs {
		descriptions = append(descriptions, tx.Description)
	}
	for _, want := range []string{"New account created", "New card created", "Card payment", "rent share"} {
		found := false
		for _, d := range descriptions {
			if d == want {
				found = true
				break
			}
		}
		if !found {
			t.Errorf("expected a %q transaction, log was %v", want, descriptions)
		}
	}
}

// TestIntegration_SplitPayment drives the voting protocol end to end.
func TestIntegration_SplitPayment(t *testing.T) {
	srv := newServer(t)
	base := srv.URL

	emails := []string{"ana@corebank.dev", "bob@corebank.dev", "cora@corebank.dev"}
	ibans := make([]string, len(emails))
	for i, email := range emails {
		mustUser(t, base, email)
		ibans[i] = mustAccount(t, base, email, "RON", 100)
	}

	resp, body := post(t, base, "/v1/splits", map[string]any{
		"kind": "equal", "accounts": ibans, "total": 90.0, "currency": "RON",
	})
	if resp.StatusCode != http.StatusCreated {
		t.Fatalf("initiate split: %d. Body: %s", resp.StatusCode, body)
	}
	var sp struct {
		ID string `json:"id"`
	}
	if err := json.Unmarshal(body, &sp); err != nil {
		t.Fatalf("decode split: %v", err)
	}

	// Nothing moves until the vote is unanimous.
	for _, email := range emails[:2] {
		resp, body = post(t, base, "/v1/splits/"+sp.ID+"/accept", map[string]string{"email": email})
		if resp.StatusCode != http.StatusOK {
			t.Fatalf("accept %s: %d. Body: %s", email, resp.StatusCode, body)
		}
	}
	if got := accountBalance(t, base, ibans[0]); got != 100 {
		t.Fatalf("expected no debit before unanimity, got %f", got)
	}

	resp, body = post(t, base, "/v1/splits/"+sp.ID+"/accept", map[string]string{"email": emails[2]})
	if resp.StatusCode != http.StatusOK {
		t.Fatalf("final accept: %d. Body: %s", resp.StatusCode, body)
	}
	for _, iban := range ibans {
		if got := accountBalance(t, base, iban); got != 70 {
			t.Errorf("expected 70 on %s after split, got %f", iban, got)
		}
	}

	// The registry entry is gone once committed.
	resp, _ = post(t, base, "/v1/splits/"+sp.ID+"/accept", map[string]string{"email": emails[0]})
	if resp.StatusCode != http.StatusNotFound {
		t.Errorf("expected 404 for settled split, got %d", resp.StatusCode)
	}
}

// TestIntegration_StatsAndMetrics checks the counters surface after traffic.
func TestIntegration_StatsAndMetrics(t *testing.T) {
	srv := newServer(t)
	base := srv.URL

	mustUser(t, base, "ana@corebank.dev")
	iban := mustAccount(t, base, "ana@corebank.dev", "EUR", 100)

	resp, body := get(t, base, "/v1/convert?amount=10&from=EUR&to=RON")
	if resp.StatusCode != http.StatusOK {
		t.Fatalf("convert: %d. Body: %s", resp.StatusCode, body)
	}

	resp, body = get(t, base, "/v1/stats")
	if resp.StatusCode != http.StatusOK {
		t.Fatalf("stats: %d", resp.StatusCode)
	}
	var stats observability.EngineStats
	if err := json.Unmarshal(body, &stats); err != nil {
		t.Fatalf("decode stats: %v", err)
	}
	if stats.Conversions < 1 {
		t.Errorf("expected at least one recorded conversion, got %.0f", stats.Conversions)
	}

	resp, _ = get(t, base, "/metrics")
	if resp.StatusCode != http.StatusOK {
		t.Fatalf("metrics: %d", resp.StatusCode)
	}

	if got := accountBalance(t, base, iban); got != 100 {
		t.Errorf("expected untouched balance 100, got %f", got)
	}
}
