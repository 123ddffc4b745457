package service

import (
	"context"
	"math"
	"testing"

	"github.com/boddenberg/corebank-ledger-go/internal/domain"
)

const epsilon = 1e-9

func TestTransfer_CrossCurrency(t *testing.T) {
	e := newTestEngine(t)
	ctx := context.Background()

	_, sender := e.newUserWithAccount(t, "ana@corebank.dev", "RON", 200)
	_, receiver := e.newUserWithAccount(t, "bob@corebank.dev", "EUR", 0)

	err := e.bank.Transfer(ctx, "ana@corebank.dev", sender.IBAN, receiver.IBAN, 100, "rent", 10)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	// 100 RON + 0.2% standard commission.
	if math.Abs(sender.Balance-99.8) > epsilon {
		t.Errorf("expected sender balance 99.8, got %f", sender.Balance)
	}
	if math.Abs(receiver.Balance-20) > epsilon {
		t.Errorf("expected receiver balance 20 EUR, got %f", receiver.Balance)
	}

	sent := lastTransaction(t, sender)
	if sent.TransferType != "sent" || sent.Currency != "RON" || sent.Amount != 100 {
		t.Errorf("unexpected sender log entry: %+v", sent)
	}
	received := lastTransaction(t, receiver)
	if received.TransferType != "received" || received.Currency != "EUR" || math.Abs(received.Amount-20) > epsilon {
		t.Errorf("unexpected receiver log entry: %+v", received)
	}
}

func TestTransfer_InsufficientFundsRecordsError(t *testing.T) {
	e := newTestEngine(t)
	ctx := context.Background()

	user, sender := e.newUserWithAccount(t, "ana@corebank.dev", "RON", 50)
	_, receiver := e.newUserWithAccount(t, "bob@corebank.dev", "RON", 0)

	err := e.bank.Transfer(ctx, "ana@corebank.dev", sender.IBAN, receiver.IBAN, 100, "too much", 10)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	if sender.Balance != 50 || receiver.Balance != 0 {
		t.Errorf("failed transfer mutated balances: sender=%f receiver=%f", sender.Balance, receiver.Balance)
	}
	tx := lastTransaction(t, sender)
	if !tx.IsError() || tx.Error != "Insufficient funds" {
		t.Errorf("expected Insufficient funds error entry, got %+v", tx)
	}
	userTx := user.Log[len(user.Log)-1]
	if userTx.Error != "Insufficient funds" {
		t.Errorf("expected error mirrored to user log, got %+v", userTx)
	}
}

func TestTransfer_ByAlias(t *testing.T) {
	e := newTestEngine(t)
	ctx := context.Background()

	_, sender := e.newUserWithAccount(t, "ana@corebank.dev", "RON", 500)
	_, receiver := e.newUserWithAccount(t, "bob@corebank.dev", "RON", 0)

	if err := e.bank.SetAlias(ctx, "bob@corebank.dev", "bobs-rent", receiver.IBAN); err != nil {
		t.Fatalf("set alias: %v", err)
	}
	if err := e.bank.Transfer(ctx, "ana@corebank.dev", sender.IBAN, "bobs-rent", 100, "rent", 10); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if math.Abs(receiver.Balance-100) > epsilon {
		t.Errorf("expected receiver credited via alias, balance %f", receiver.Balance)
	}
}

func TestTransfer_SilverAutoUpgradeAtFive(t *testing.T) {
	e := newTestEngine(t)
	ctx := context.Background()

	user, sender := e.newUserWithAccount(t, "ana@corebank.dev", "RON", 10000)
	_, receiver := e.newUserWithAccount(t, "bob@corebank.dev", "RON", 0)
	user.Plan = domain.PlanSilver

	// Five qualifying transfers of 300 RON each. Silver charges no
	// commission below 500 RON.
	for i := 0; i < 5; i++ {
		if err := e.bank.Transfer(ctx, "ana@corebank.dev", sender.IBAN, receiver.IBAN, 300, "qualifying", int64(10+i)); err != nil {
			t.Fatalf("transfer %d: %v", i, err)
		}
	}

	if user.Plan != domain.PlanGold {
		t.Fatalf("expected gold plan after five qualifying transfers, got %s", user.Plan)
	}
	tx := lastTransaction(t, sender)
	if tx.Description != "Upgrade plan" || tx.NewPlan != domain.PlanGold {
		t.Errorf("expected Upgrade plan entry, got %+v", tx)
	}
}

func TestTransfer_SmallTransfersDoNotCount(t *testing.T) {
	e := newTestEngine(t)
	ctx := context.Background()

	user, sender := e.newUserWithAccount(t, "ana@corebank.dev", "RON", 10000)
	_, receiver := e.newUserWithAccount(t, "bob@corebank.dev", "RON", 0)
	user.Plan = domain.PlanSilver

	for i := 0; i < 6; i++ {
		if err := e.bank.Transfer(ctx, "ana@corebank.dev", sender.IBAN, receiver.IBAN, 299, "small", int64(10+i)); err != nil {
			t.Fatalf("transfer %d: %v", i, err)
		}
	}
	if user.Plan != domain.PlanSilver {
		t.Errorf("expected plan to stay silver, got %s", user.Plan)
	}
}

func TestCardPayment_DebitsAndLogs(t *testing.T) {
	e := newTestEngine(t)
	ctx := context.Background()

	user, acc := e.newUserWithAccount(t, "ana@corebank.dev", "RON", 500)
	user.Plan = domain.PlanGold // no commission, no threshold cashback noise below 100 RON
	card, err := e.bank.CreateCard(ctx, "ana@corebank.dev", acc.IBAN, false, 2)
	if err != nil {
		t.Fatalf("create card: %v", err)
	}

	if err := e.bank.CardPayment(ctx, "ana@corebank.dev", card.Number, 50, "RON", "Pizza Planet", 10); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if math.Abs(acc.Balance-450) > epsilon {
		t.Errorf("expected balance 450, got %f", acc.Balance)
	}
	tx := lastTransaction(t, acc)
	if tx.Description != "Card payment" || tx.Commerciant != "Pizza Planet" || tx.Amount != 50 {
		t.Errorf("unexpected log entry: %+v", tx)
	}
}

func TestCardPayment_FrozenCard(t *testing.T) {
	e := newTestEngine(t)
	ctx := context.Background()

	_, acc := e.newUserWithAccount(t, "ana@corebank.dev", "RON", 500)
	card, _ := e.bank.CreateCard(ctx, "ana@corebank.dev", acc.IBAN, false, 2)
	card.Frozen = true

	if err := e.bank.CardPayment(ctx, "ana@corebank.dev", card.Number, 50, "RON", "Pizza Planet", 10); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if acc.Balance != 500 {
		t.Errorf("frozen card payment mutated balance: %f", acc.Balance)
	}
	tx := lastTransaction(t, acc)
	if tx.Error != "The card is frozen" {
		t.Errorf("expected frozen card entry, got %+v", tx)
	}
}

func TestCardPayment_OneTimeCardRotates(t *testing.T) {
	e := newTestEngine(t)
	ctx := context.Background()

	_, acc := e.newUserWithAccount(t, "ana@corebank.dev", "RON", 500)
	card, _ := e.bank.CreateCard(ctx, "ana@corebank.dev", acc.IBAN, true, 2)
	oldNumber := card.Number

	if err := e.bank.CardPayment(ctx, "ana@corebank.dev", oldNumber, 50, "RON", "Pizza Planet", 10); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	if acc.CardByNumber(oldNumber) != nil {
		t.Error("expected spent one-time card to be destroyed")
	}
	if len(acc.Cards) != 1 || !acc.Cards[0].OneTime {
		t.Fatalf("expected a fresh one-time card, got %+v", acc.Cards)
	}
	if acc.Cards[0].Number == oldNumber {
		t.Error("expected replacement card to carry a new number")
	}

	// Last two entries: destroyed, then created.
	n := len(acc.Log)
	if n < 3 {
		t.Fatalf("expected payment + rotation entries, got %d", n)
	}
	if acc.Log[n-2].Description != "The card has been destroyed" {
		t.Errorf("expected destroy entry, got %+v", acc.Log[n-2])
	}
	if acc.Log[n-1].Description != "New card created" {
		t.Errorf("expected create entry, got %+v", acc.Log[n-1])
	}
}

func TestCheckCardStatus_FreezesAtMinBalance(t *testing.T) {
	e := newTestEngine(t)
	ctx := context.Background()

	_, acc := e.newUserWithAccount(t, "ana@corebank.dev", "RON", 50)
	card, _ := e.bank.CreateCard(ctx, "ana@corebank.dev", acc.IBAN, false, 2)
	if err := e.bank.SetMinBalance(ctx, acc.IBAN, 100); err != nil {
		t.Fatalf("set min balance: %v", err)
	}

	if err := e.bank.CheckCardStatus(ctx, card.Number, 10); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if !card.Frozen {
		t.Fatal("expected card frozen at minimum balance")
	}
	tx := lastTransaction(t, acc)
	if tx.Error != "You have reached the minimum amount of funds, the card will be frozen" {
		t.Errorf("expected freeze warning entry, got %+v", tx)
	}
}

func TestUpgradePlan_FeeAndRecord(t *testing.T) {
	e := newTestEngine(t)
	ctx := context.Background()

	user, acc := e.newUserWithAccount(t, "ana@corebank.dev", "RON", 500)

	if err := e.bank.UpgradePlan(ctx, acc.IBAN, "silver", 10); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if user.Plan != domain.PlanSilver {
		t.Fatalf("expected silver plan, got %s", user.Plan)
	}
	if math.Abs(acc.Balance-400) > epsilon {
		t.Errorf("expected 100 RON fee charged, balance %f", acc.Balance)
	}
	tx := lastTransaction(t, acc)
	if tx.Description != "Upgrade plan" || tx.NewPlan != domain.PlanSilver {
		t.Errorf("expected upgrade entry, got %+v", tx)
	}
}

func TestUpgradePlan_DowngradeRejected(t *testing.T) {
	e := newTestEngine(t)
	ctx := context.Background()

	user, acc := e.newUserWithAccount(t, "ana@corebank.dev", "RON", 500)
	user.Plan = domain.PlanGold

	if err := e.bank.UpgradePlan(ctx, acc.IBAN, "silver", 10); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if user.Plan != domain.PlanGold {
		t.Errorf("expected plan unchanged, got %s", user.Plan)
	}
	tx := lastTransaction(t, acc)
	if tx.Error != "You cannot downgrade your plan." {
		t.Errorf("expected downgrade rejection entry, got %+v", tx)
	}
}

func TestUpgradePlan_SamePlanRejected(t *testing.T) {
	e := newTestEngine(t)
	ctx := context.Background()

	_, acc := e.newUserWithAccount(t, "ana@corebank.dev", "RON", 500)

	if err := e.bank.UpgradePlan(ctx, acc.IBAN, "standard", 10); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	tx := lastTransaction(t, acc)
	if tx.Error != "The user already has the standard plan." {
		t.Errorf("expected same-plan rejection entry, got %+v", tx)
	}
}

func TestDeleteAccount_FundsRemaining(t *testing.T) {
	e := newTestEngine(t)
	ctx := context.Background()

	user, acc := e.newUserWithAccount(t, "ana@corebank.dev", "RON", 50)

	err := e.bank.DeleteAccount(ctx, "ana@corebank.dev", acc.IBAN, 10)
	if err == nil {
		t.Fatal("expected error for non-zero balance")
	}
	if e.store.Account(acc.IBAN) == nil {
		t.Error("expected account to survive failed deletion")
	}
	userTx := user.Log[len(user.Log)-1]
	if userTx.Error != "Account couldn't be deleted - there are funds remaining" {
		t.Errorf("expected deletion failure entry, got %+v", userTx)
	}
}

func TestAddInterest_NonSavingsRejected(t *testing.T) {
	e := newTestEngine(t)
	ctx := context.Background()

	_, acc := e.newUserWithAccount(t, "ana@corebank.dev", "RON", 100)

	err := e.bank.AddInterest(ctx, acc.IBAN, 10)
	if err == nil {
		t.Fatal("expected error on classic account")
	}
}

func TestAddInterest_CreditsSavings(t *testing.T) {
	e := newTestEngine(t)
	ctx := context.Background()

	if _, err := e.bank.CreateUser(ctx, "Ana", "Pop", "ana@corebank.dev", "1990-04-12", "engineer"); err != nil {
		t.Fatalf("create user: %v", err)
	}
	acc, err := e.bank.CreateAccount(ctx, "ana@corebank.dev", "RON", domain.KindSavings, 0.05, 1)
	if err != nil {
		t.Fatalf("create savings account: %v", err)
	}
	if err := e.bank.AddFunds(ctx, acc.IBAN, 1000, "ana@corebank.dev", 1); err != nil {
		t.Fatalf("fund account: %v", err)
	}

	if err := e.bank.AddInterest(ctx, acc.IBAN, 10); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if math.Abs(acc.Balance-1050) > epsilon {
		t.Errorf("expected 5%% interest credited, balance %f", acc.Balance)
	}
	tx := lastTransaction(t, acc)
	if tx.Description != "Interest rate income" || math.Abs(tx.Amount-50) > epsilon {
		t.Errorf("expected interest income entry, got %+v", tx)
	}
}

func TestWithdrawSavings_AgeRestriction(t *testing.T) {
	e := newTestEngine(t)
	ctx := context.Background()

	if _, err := e.bank.CreateUser(ctx, "Ion", "Tanar", "ion@corebank.dev", "2010-01-01", "student"); err != nil {
		t.Fatalf("create user: %v", err)
	}
	savings, err := e.bank.CreateAccount(ctx, "ion@corebank.dev", "RON", domain.KindSavings, 0.02, 1)
	if err != nil {
		t.Fatalf("create savings: %v", err)
	}
	if err := e.bank.AddFunds(ctx, savings.IBAN, 500, "ion@corebank.dev", 1); err != nil {
		t.Fatalf("fund savings: %v", err)
	}

	if err := e.bank.WithdrawSavings(ctx, savings.IBAN, 100, "RON", 10); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if savings.Balance != 500 {
		t.Errorf("underage withdrawal mutated balance: %f", savings.Balance)
	}
	tx := lastTransaction(t, savings)
	if tx.Error != "You don't have the minimum age required." {
		t.Errorf("expected age restriction entry, got %+v", tx)
	}
}

func TestWithdrawSavings_RequiresClassicAccount(t *testing.T) {
	e := newTestEngine(t)
	ctx := context.Background()

	if _, err := e.bank.CreateUser(ctx, "Ana", "Pop", "ana@corebank.dev", "1990-04-12", "engineer"); err != nil {
		t.Fatalf("create user: %v", err)
	}
	savings, err := e.bank.CreateAccount(ctx, "ana@corebank.dev", "RON", domain.KindSavings, 0.02, 1)
	if err != nil {
		t.Fatalf("create savings: %v", err)
	}
	if err := e.bank.AddFunds(ctx, savings.IBAN, 500, "ana@corebank.dev", 1); err != nil {
		t.Fatalf("fund savings: %v", err)
	}

	if err := e.bank.WithdrawSavings(ctx, savings.IBAN, 100, "EUR", 10); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	tx := lastTransaction(t, savings)
	if tx.Error != "You do not have a classic account." {
		t.Errorf("expected missing classic account entry, got %+v", tx)
	}
}

func TestWithdrawSavings_MovesFunds(t *testing.T) {
	e := newTestEngine(t)
	ctx := context.Background()

	_, classic := e.newUserWithAccount(t, "ana@corebank.dev", "RON", 0)
	savings, err := e.bank.CreateAccount(ctx, "ana@corebank.dev", "RON", domain.KindSavings, 0.02, 1)
	if err != nil {
		t.Fatalf("create savings: %v", err)
	}
	if err := e.bank.AddFunds(ctx, savings.IBAN, 500, "ana@corebank.dev", 1); err != nil {
		t.Fatalf("fund savings: %v", err)
	}

	if err := e.bank.WithdrawSavings(ctx, savings.IBAN, 200, "RON", 10); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if math.Abs(savings.Balance-300) > epsilon {
		t.Errorf("expected savings balance 300, got %f", savings.Balance)
	}
	if math.Abs(classic.Balance-200) > epsilon {
		t.Errorf("expected classic balance 200, got %f", classic.Balance)
	}
}

func TestCashWithdrawal_CommissionApplied(t *testing.T) {
	e := newTestEngine(t)
	ctx := context.Background()

	_, acc := e.newUserWithAccount(t, "ana@corebank.dev", "RON", 500)
	card, _ := e.bank.CreateCard(ctx, "ana@corebank.dev", acc.IBAN, false, 2)

	if err := e.bank.CashWithdrawal(ctx, "ana@corebank.dev", card.Number, 100, 10); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	// Standard plan: 100 RON + 0.2% commission.
	if math.Abs(acc.Balance-399.8) > epsilon {
		t.Errorf("expected balance 399.8, got %f", acc.Balance)
	}
}

func TestBusiness_EmployeeLimits(t *testing.T) {
	e := newTestEngine(t)
	ctx := context.Background()

	if _, err := e.bank.CreateUser(ctx, "Oana", "Radu", "owner@corebank.dev", "1985-02-02", "engineer"); err != nil {
		t.Fatalf("create owner: %v", err)
	}
	if _, err := e.bank.CreateUser(ctx, "Emil", "Popa", "emil@corebank.dev", "1995-03-03", "engineer"); err != nil {
		t.Fatalf("create employee: %v", err)
	}

	biz, err := e.bank.CreateAccount(ctx, "owner@corebank.dev", "RON", domain.KindBusiness, 0, 1)
	if err != nil {
		t.Fatalf("create business account: %v", err)
	}
	if biz.SpendingLimit != 500 || biz.DepositLimit != 500 {
		t.Fatalf("expected 500 RON initial limits, got %f / %f", biz.SpendingLimit, biz.DepositLimit)
	}
	if err := e.bank.AddBusinessAssociate(ctx, biz.IBAN, "employee", "emil@corebank.dev"); err != nil {
		t.Fatalf("add associate: %v", err)
	}

	// Employee deposit above the limit is refused.
	if err := e.bank.AddFunds(ctx, biz.IBAN, 600, "emil@corebank.dev", 2); err == nil {
		t.Error("expected employee deposit above limit to be refused")
	}
	if err := e.bank.AddFunds(ctx, biz.IBAN, 400, "emil@corebank.dev", 2); err != nil {
		t.Errorf("expected employee deposit within limit to pass: %v", err)
	}

	// Only the owner may change limits.
	if err := e.bank.ChangeSpendingLimit(ctx, "emil@corebank.dev", biz.IBAN, 1000); err == nil {
		t.Error("expected employee limit change to be forbidden")
	}
	if err := e.bank.ChangeSpendingLimit(ctx, "owner@corebank.dev", biz.IBAN, 1000); err != nil {
		t.Errorf("expected owner limit change to pass: %v", err)
	}
	if biz.SpendingLimit != 1000 {
		t.Errorf("expected spending limit 1000, got %f", biz.SpendingLimit)
	}
}
