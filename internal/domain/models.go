// Package domain defines the core business entities for the corebank
// ledger engine. These models are independent of the transport and
// storage layers and represent the canonical data structures used
// throughout the engine.
package domain

import "time"

// ============================================================
// Users
// ============================================================

// User owns one or more accounts and carries the service plan that
// drives commission and cashback rates.
type User struct {
	FirstName  string `json:"first_name"`
	LastName   string `json:"last_name"`
	Email      string `json:"email"`
	Age        int    `json:"age"`
	Occupation string `json:"occupation"`
	Plan       Plan   `json:"plan"`

	// UpgradeCounter counts qualifying transfers (>= 300 RON) made on
	// the silver plan; at five the plan is promoted to gold.
	UpgradeCounter int `json:"-"`

	// Log is the user's own append-only transaction history. Entries
	// are mirrored here whenever an account-level transaction names
	// this user as the initiator.
	Log []Transaction `json:"-"`
}

// AgeFromBirthDate computes full years elapsed since a YYYY-MM-DD date.
// Unparseable dates yield zero.
func AgeFromBirthDate(birthDate string) int {
	t, err := time.Parse("2006-01-02", birthDate)
	if err != nil {
		return 0
	}
	now := time.Now()
	age := now.Year() - t.Year()
	if now.YearDay() < t.YearDay() {
		age--
	}
	return age
}

// Name returns the "Last First" display name used for business role maps.
func (u *User) Name() string {
	return u.LastName + " " + u.FirstName
}

// Record appends a transaction to the user's history. Entries are
// immutable once appended.
func (u *User) Record(tx Transaction) {
	u.Log = append(u.Log, tx)
}

// ============================================================
// Business roles
// ============================================================

// BusinessRole is the role a user holds on a business account.
// Permission checks happen at the call site against this value.
type BusinessRole string

const (
	RoleOwner    BusinessRole = "owner"
	RoleManager  BusinessRole = "manager"
	RoleEmployee BusinessRole = "employee"
)

// ============================================================
// Commerciants & cashback
// ============================================================

// Category classifies a commerciant for voucher matching.
type Category string

const (
	CategoryFood    Category = "Food"
	CategoryClothes Category = "Clothes"
	CategoryTech    Category = "Tech"
	CategoryOther   Category = "Other"
)

// ParseCategory maps seed-file category names onto Category, defaulting
// to Other for anything unrecognised.
func ParseCategory(s string) Category {
	switch s {
	case "Food":
		return CategoryFood
	case "Clothes":
		return CategoryClothes
	case "Tech":
		return CategoryTech
	default:
		return CategoryOther
	}
}

// CashbackStrategy selects which reward rule a commerciant participates in.
type CashbackStrategy string

const (
	StrategyCountBased     CashbackStrategy = "nrOfTransactions"
	StrategyThresholdBased CashbackStrategy = "spendingThreshold"
	StrategyNone           CashbackStrategy = "none"
)

// ParseCashbackStrategy maps seed-file strategy names onto CashbackStrategy.
func ParseCashbackStrategy(s string) CashbackStrategy {
	switch s {
	case "nrOfTransactions":
		return StrategyCountBased
	case "spendingThreshold":
		return StrategyThresholdBased
	default:
		return StrategyNone
	}
}

// Commerciant is a merchant with a cashback strategy. Each account holds
// its own copy so transaction counters and business spending aggregates
// are scoped per account.
type Commerciant struct {
	Name     string           `json:"name"`
	IBAN     string           `json:"iban"`
	Category Category         `json:"category"`
	Strategy CashbackStrategy `json:"strategy"`

	// Per-account aggregates. For business accounts, AmountSpent and
	// Users exclude payments made by the owner.
	Transactions int      `json:"transactions"`
	AmountSpent  float64  `json:"amount_spent"`
	Users        []string `json:"users,omitempty"`
}

// AddUser records a non-owner participant once.
func (c *Commerciant) AddUser(name string) {
	for _, u := range c.Users {
		if u == name {
			return
		}
	}
	c.Users = append(c.Users, name)
}

// Voucher is a single-use cashback credit tied to a commerciant category.
type Voucher struct {
	Percentage float64  `json:"percentage"`
	Category   Category `json:"category"`
}

// CashbackObserver tags one of the reward strategies attached to an
// account. Observers are invoked in registration order after each
// qualifying payment; dispatch is a switch over the tag.
type CashbackObserver int

const (
	ObserverCountBased CashbackObserver = iota
	ObserverThresholdBased
)

// PaymentDetails carries the facts of a qualifying payment to the
// cashback observers.
type PaymentDetails struct {
	Amount      float64
	Currency    string
	Commerciant *Commerciant
	User        *User
}

// ============================================================
// Cards
// ============================================================

// Card belongs to exactly one account. A one-time card is destroyed and
// regenerated after each successful payment.
type Card struct {
	Number  string `json:"number"`
	OneTime bool   `json:"one_time"`
	Frozen  bool   `json:"frozen"`
}
