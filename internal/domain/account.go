package domain

// PivotCurrency is the currency commission and cashback tiers are
// computed in.
const PivotCurrency = "RON"

// Default business-account limits, RON, converted to the account
// currency at creation.
const (
	InitialSpendingLimit = 500
	InitialDepositLimit  = 500
)

// Converter resolves amounts between currencies. Implemented by the
// exchange graph; taken as a parameter so accounts hold no reference
// back into the registry.
type Converter interface {
	Convert(amount float64, from, to string) (float64, error)
}

// AccountKind discriminates classic, savings and business accounts.
type AccountKind string

const (
	KindClassic  AccountKind = "classic"
	KindSavings  AccountKind = "savings"
	KindBusiness AccountKind = "business"
)

// Account is a single-currency ledger account. All mutation goes
// through the methods below; the balance never goes negative after a
// committed operation.
type Account struct {
	IBAN       string      `json:"iban"`
	OwnerEmail string      `json:"owner_email"`
	Currency   string      `json:"currency"`
	Kind       AccountKind `json:"kind"`
	Balance    float64     `json:"balance"`
	MinBalance float64     `json:"min_balance"`

	// InterestRate applies to savings accounts only.
	InterestRate float64 `json:"interest_rate,omitempty"`

	Cards    []*Card   `json:"cards"`
	Vouchers []Voucher `json:"-"`

	// Observers are the cashback strategies attached at creation,
	// invoked in registration order.
	Observers []CashbackObserver `json:"-"`

	// Commerciants holds this account's private reward counters,
	// keyed by commerciant name.
	Commerciants map[string]*Commerciant `json:"-"`

	// SpendingThreshold accumulates RON-converted spending for the
	// threshold-based cashback tiers.
	SpendingThreshold float64 `json:"-"`

	// Log is the account's append-only transaction history.
	Log []Transaction `json:"-"`

	// Business-account state. Roles maps user email to role; the
	// limits are denominated in the account currency.
	Roles         map[string]BusinessRole `json:"-"`
	SpendingLimit float64                 `json:"spending_limit,omitempty"`
	DepositLimit  float64                 `json:"deposit_limit,omitempty"`
}

// Role returns the business role of the given user email, or "" when
// the user is not associated with the account.
func (a *Account) Role(email string) BusinessRole {
	if a.Roles == nil {
		return ""
	}
	return a.Roles[email]
}

// Credit unconditionally increases the balance.
func (a *Account) Credit(amount float64) {
	a.Balance += amount
}

// Debit decreases the balance, failing without mutation when the
// amount exceeds the balance.
func (a *Account) Debit(amount float64) bool {
	if amount > a.Balance {
		return false
	}
	a.Balance -= amount
	return true
}

// amountWithCommission converts the payment to RON, applies the plan's
// commission and converts the total back to the account currency. The
// round trip through RON happens even when the currencies match.
func (a *Account) amountWithCommission(conv Converter, plan Plan, amount float64, currency string) (float64, error) {
	amountRON, err := conv.Convert(amount, currency, PivotCurrency)
	if err != nil {
		return 0, err
	}
	withFee := amountRON + plan.Commission(amountRON)
	return conv.Convert(withFee, PivotCurrency, a.Currency)
}

// PayWithCommission debits the commission-inclusive equivalent of a
// payment denominated in paymentCurrency. No mutation happens when the
// debit would overdraw the account.
func (a *Account) PayWithCommission(conv Converter, plan Plan, amount float64, paymentCurrency string) (bool, error) {
	total, err := a.amountWithCommission(conv, plan, amount, paymentCurrency)
	if err != nil {
		return false, err
	}
	return a.Debit(total), nil
}

// PayWithoutCommission debits the converted payment with no fee step.
// Used for savings withdrawals and accepted split payments.
func (a *Account) PayWithoutCommission(conv Converter, amount float64, paymentCurrency string) (bool, error) {
	total, err := conv.Convert(amount, paymentCurrency, a.Currency)
	if err != nil {
		return false, err
	}
	return a.Debit(total), nil
}

// Transfer moves amount (in this account's currency) to the receiver,
// charging the sender's plan commission. The sufficiency check happens
// strictly before any mutation, so a failed transfer leaves both
// accounts untouched.
func (a *Account) Transfer(conv Converter, plan Plan, to *Account, amount float64) (bool, error) {
	total, err := a.amountWithCommission(conv, plan, amount, a.Currency)
	if err != nil {
		return false, err
	}
	if total > a.Balance {
		return false, nil
	}
	received := amount
	if to.Currency != a.Currency {
		received, err = conv.Convert(amount, a.Currency, to.Currency)
		if err != nil {
			return false, err
		}
	}
	a.Debit(total)
	to.Credit(received)
	return true, nil
}

// HasSufficientFunds is a side-effect-free check that amount (in
// paymentCurrency) is covered by the balance.
func (a *Account) HasSufficientFunds(conv Converter, amount float64, paymentCurrency string) (bool, error) {
	if a.Currency == paymentCurrency {
		return amount <= a.Balance, nil
	}
	converted, err := conv.Convert(amount, paymentCurrency, a.Currency)
	if err != nil {
		return false, err
	}
	return converted <= a.Balance, nil
}

// Record appends a transaction to the account log. The caller mirrors
// the same entry to the initiating user's log; both writes belong to
// the same operation.
func (a *Account) Record(tx Transaction) {
	a.Log = append(a.Log, tx)
}

// AddVoucher adds a one-shot cashback voucher to the inventory.
func (a *Account) AddVoucher(v Voucher) {
	a.Vouchers = append(a.Vouchers, v)
}

// CardByNumber returns the card with the given number, or nil.
func (a *Account) CardByNumber(number string) *Card {
	for _, c := range a.Cards {
		if c.Number == number {
			return c
		}
	}
	return nil
}

// RemoveCard detaches a card from the account.
func (a *Account) RemoveCard(number string) {
	for i, c := range a.Cards {
		if c.Number == number {
			a.Cards = append(a.Cards[:i], a.Cards[i+1:]...)
			return
		}
	}
}
