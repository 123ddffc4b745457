package domain

// Transaction is an immutable ledger entry. A value is appended to the
// account log and mirrored to the initiating user's log; it is never
// mutated after creation. Serialization of entries is the report
// layer's concern, hence the permissive field set with omitempty tags.
type Transaction struct {
	ID          string  `json:"id"`
	Timestamp   int64   `json:"timestamp"`
	Description string  `json:"description"`
	Amount      float64 `json:"amount,omitempty"`
	Currency    string  `json:"currency,omitempty"`

	SenderIBAN   string `json:"sender_iban,omitempty"`
	ReceiverIBAN string `json:"receiver_iban,omitempty"`
	TransferType string `json:"transfer_type,omitempty"`

	AccountIBAN string `json:"account_iban,omitempty"`
	Card        string `json:"card,omitempty"`
	CardHolder  string `json:"card_holder,omitempty"`
	Commerciant string `json:"commerciant,omitempty"`

	NewPlan Plan `json:"new_plan,omitempty"`

	SavingsIBAN string `json:"savings_iban,omitempty"`
	ClassicIBAN string `json:"classic_iban,omitempty"`

	SplitKind      SplitKind `json:"split_kind,omitempty"`
	InvolvedIBANs  []string  `json:"involved_ibans,omitempty"`
	AmountPerUser  []float64 `json:"amount_per_user,omitempty"`

	// Error holds the business-rule failure text when the entry is a
	// diagnostic record rather than a committed operation.
	Error string `json:"error,omitempty"`
}

// IsError reports whether the entry records a failed operation.
func (t Transaction) IsError() bool {
	return t.Error != ""
}
