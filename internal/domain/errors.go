package domain

import "fmt"

// Error types for consistent error handling across the engine.
//
// Business-rule failures (insufficient funds, role denial, plan errors)
// are normally captured as error-tagged Transactions and never travel
// up the call stack; the types below cover structural failures and the
// HTTP surface.

// ErrValidation indicates a validation error (bad input).
type ErrValidation struct {
	Field   string
	Message string
}

func (e *ErrValidation) Error() string {
	return fmt.Sprintf("validation error on '%s': %s", e.Field, e.Message)
}

// ErrUnknownCurrency indicates a currency that never appeared in any
// exchange-rate edge.
type ErrUnknownCurrency struct {
	Currency string
}

func (e *ErrUnknownCurrency) Error() string {
	return fmt.Sprintf("unknown currency: %s", e.Currency)
}

// ErrNoConversionPath indicates the rate graph has no path between two
// known currencies.
type ErrNoConversionPath struct {
	From string
	To   string
}

func (e *ErrNoConversionPath) Error() string {
	return fmt.Sprintf("no conversion path from %s to %s", e.From, e.To)
}

// ErrAccountNotFound indicates no account matches the given IBAN or alias.
type ErrAccountNotFound struct {
	IBAN string
}

func (e *ErrAccountNotFound) Error() string {
	return fmt.Sprintf("account not found: %s", e.IBAN)
}

// ErrUserNotFound indicates no user matches the given email.
type ErrUserNotFound struct {
	Email string
}

func (e *ErrUserNotFound) Error() string {
	return fmt.Sprintf("user not found: %s", e.Email)
}

// ErrCardNotFound indicates no account holds the given card number.
type ErrCardNotFound struct {
	Number string
}

func (e *ErrCardNotFound) Error() string {
	return fmt.Sprintf("card not found: %s", e.Number)
}

// ErrForbidden indicates the user lacks the business role required for
// the operation.
type ErrForbidden struct {
	Action string
}

func (e *ErrForbidden) Error() string {
	return fmt.Sprintf("forbidden: %s", e.Action)
}

// ErrSplitAborted indicates a split payment reached a terminal abort,
// either because a participant's account lacked funds or because a
// participant rejected the payment.
type ErrSplitAborted struct {
	SplitID string
	IBAN    string // set when the abort reason is insufficient funds
	Reason  string
}

func (e *ErrSplitAborted) Error() string {
	if e.IBAN != "" {
		return fmt.Sprintf("split payment %s aborted: account %s has insufficient funds", e.SplitID, e.IBAN)
	}
	return fmt.Sprintf("split payment %s aborted: %s", e.SplitID, e.Reason)
}

// ErrSplitNotFound indicates no pending split payment matches the id.
type ErrSplitNotFound struct {
	ID string
}

func (e *ErrSplitNotFound) Error() string {
	return fmt.Sprintf("split payment not found: %s", e.ID)
}

// ErrUnauthorized indicates invalid credentials or token.
type ErrUnauthorized struct {
	Message string
}

func (e *ErrUnauthorized) Error() string {
	if e.Message != "" {
		return e.Message
	}
	return "unauthorized"
}
