// Package memstore is the in-memory registry adapter. It implements
// port.Store with plain maps plus ordered slices where iteration order
// is observable (users, pending split payments).
package memstore

import "github.com/boddenberg/corebank-ledger-go/internal/domain"

// Store holds the whole engine state. It is not internally locked; the
// service layer serializes every operation behind the engine mutex.
type Store struct {
	users       []*domain.User
	userByEmail map[string]*domain.User

	accountByIBAN  map[string]*domain.Account
	accountByAlias map[string]*domain.Account
	ownerAccounts  map[string][]*domain.Account

	commerciants      []domain.Commerciant
	commerciantByIBAN map[string]domain.Commerciant

	splits    []*domain.SplitPayment
	splitByID map[string]*domain.SplitPayment
}

// New creates an empty registry seeded with the commerciant list.
func New(commerciants []domain.Commerciant) *Store {
	s := &Store{
		userByEmail:       make(map[string]*domain.User),
		accountByIBAN:     make(map[string]*domain.Account),
		accountByAlias:    make(map[string]*domain.Account),
		ownerAccounts:     make(map[string][]*domain.Account),
		commerciants:      commerciants,
		commerciantByIBAN: make(map[string]domain.Commerciant),
		splitByID:         make(map[string]*domain.SplitPayment),
	}
	for _, c := range commerciants {
		if c.IBAN != "" {
			s.commerciantByIBAN[c.IBAN] = c
		}
	}
	return s
}

// ============================================================
// Users
// ============================================================

func (s *Store) AddUser(user *domain.User) {
	s.users = append(s.users, user)
	s.userByEmail[user.Email] = user
}

func (s *Store) UserByEmail(email string) *domain.User {
	return s.userByEmail[email]
}

// UserByAccount resolves the owner of the account with the given IBAN.
func (s *Store) UserByAccount(iban string) *domain.User {
	acc := s.accountByIBAN[iban]
	if acc == nil {
		return nil
	}
	return s.userByEmail[acc.OwnerEmail]
}

func (s *Store) Users() []*domain.User {
	return s.users
}

// ============================================================
// Accounts
// ============================================================

func (s *Store) AddAccount(acc *domain.Account) {
	s.accountByIBAN[acc.IBAN] = acc
	s.ownerAccounts[acc.OwnerEmail] = append(s.ownerAccounts[acc.OwnerEmail], acc)
}

func (s *Store) RemoveAccount(iban string) {
	acc := s.accountByIBAN[iban]
	if acc == nil {
		return
	}
	delete(s.accountByIBAN, iban)
	owned := s.ownerAccounts[acc.OwnerEmail]
	for i, a := range owned {
		if a.IBAN == iban {
			s.ownerAccounts[acc.OwnerEmail] = append(owned[:i], owned[i+1:]...)
			break
		}
	}
	for alias, a := range s.accountByAlias {
		if a.IBAN == iban {
			delete(s.accountByAlias, alias)
		}
	}
}

func (s *Store) Account(iban string) *domain.Account {
	return s.accountByIBAN[iban]
}

func (s *Store) AccountByAlias(alias string) *domain.Account {
	return s.accountByAlias[alias]
}

// AccountByCard returns the account holding the card with the given
// number, along with the card itself.
func (s *Store) AccountByCard(number string) (*domain.Account, *domain.Card) {
	for _, acc := range s.accountByIBAN {
		if card := acc.CardByNumber(number); card != nil {
			return acc, card
		}
	}
	return nil, nil
}

func (s *Store) AccountsOf(email string) []*domain.Account {
	return s.ownerAccounts[email]
}

func (s *Store) SetAlias(alias, iban string) {
	if acc := s.accountByIBAN[iban]; acc != nil {
		s.accountByAlias[alias] = acc
	}
}

// ============================================================
// Commerciants
// ============================================================

func (s *Store) Commerciants() []domain.Commerciant {
	return s.commerciants
}

func (s *Store) CommerciantByIBAN(iban string) (domain.Commerciant, bool) {
	c, ok := s.commerciantByIBAN[iban]
	return c, ok
}

// ============================================================
// Split payments
// ============================================================

func (s *Store) AddSplit(sp *domain.SplitPayment) {
	s.splits = append(s.splits, sp)
	s.splitByID[sp.ID] = sp
}

func (s *Store) Split(id string) *domain.SplitPayment {
	return s.splitByID[id]
}

func (s *Store) RemoveSplit(id string) {
	if _, ok := s.splitByID[id]; !ok {
		return
	}
	delete(s.splitByID, id)
	for i, sp := range s.splits {
		if sp.ID == id {
			s.splits = append(s.splits[:i], s.splits[i+1:]...)
			return
		}
	}
}

// PendingSplits returns the pending payments in creation order.
func (s *Store) PendingSplits() []*domain.SplitPayment {
	return s.splits
}
