// Package port defines the interfaces (ports) between the engine's
// service layer and its collaborators. Following hexagonal
// architecture, these ports decouple the domain/service layer from
// concrete implementations.
package port

import "github.com/boddenberg/corebank-ledger-go/internal/domain"

// RateSource resolves currency conversions for the engine. Implemented
// by the exchange graph and its caching wrapper.
type RateSource interface {
	Convert(amount float64, from, to string) (float64, error)
	Knows(currency string) bool
}

// Store is the registry of all users, accounts, commerciants and
// pending split payments. The engine holds exactly one Store and
// passes it by reference into every operation; implementations are
// free to be in-memory.
type Store interface {
	// Users
	AddUser(user *domain.User)
	UserByEmail(email string) *domain.User
	UserByAccount(iban string) *domain.User
	Users() []*domain.User

	// Accounts
	AddAccount(acc *domain.Account)
	RemoveAccount(iban string)
	Account(iban string) *domain.Account
	AccountByAlias(alias string) *domain.Account
	AccountByCard(number string) (*domain.Account, *domain.Card)
	AccountsOf(email string) []*domain.Account
	SetAlias(alias, iban string)

	// Commerciants (seed entries; accounts copy them at creation)
	Commerciants() []domain.Commerciant
	CommerciantByIBAN(iban string) (domain.Commerciant, bool)

	// Split payments
	AddSplit(sp *domain.SplitPayment)
	Split(id string) *domain.SplitPayment
	RemoveSplit(id string)
	PendingSplits() []*domain.SplitPayment
}
