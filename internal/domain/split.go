package domain

// SplitKind selects how a split payment divides its total.
type SplitKind string

const (
	SplitEqual  SplitKind = "equal"
	SplitCustom SplitKind = "custom"
)

// ParticipantStatus tracks each participant's vote.
type ParticipantStatus string

const (
	ParticipantPending  ParticipantStatus = "pending"
	ParticipantAccepted ParticipantStatus = "accepted"
	ParticipantRejected ParticipantStatus = "rejected"
)

// Participant is one party to a split payment, identified by user email
// and account IBAN rather than owning pointers.
type Participant struct {
	Email  string            `json:"email"`
	IBAN   string            `json:"iban"`
	Amount float64           `json:"amount"`
	Status ParticipantStatus `json:"status"`
}

// SplitPayment is a pending multi-party debit awaiting unanimous
// acceptance. It lives in the registry until every participant accepts
// (commit) or any participant rejects (abort).
type SplitPayment struct {
	ID           string        `json:"id"`
	Kind         SplitKind     `json:"kind"`
	Total        float64       `json:"total"`
	Currency     string        `json:"currency"`
	Timestamp    int64         `json:"timestamp"`
	Participants []Participant `json:"participants"`
}

// Participant returns a pointer to the participant with the given
// email, or nil when the user is not part of the payment.
func (s *SplitPayment) Participant(email string) *Participant {
	for i := range s.Participants {
		if s.Participants[i].Email == email {
			return &s.Participants[i]
		}
	}
	return nil
}

// AllAccepted reports whether every participant has accepted.
func (s *SplitPayment) AllAccepted() bool {
	for i := range s.Participants {
		if s.Participants[i].Status != ParticipantAccepted {
			return false
		}
	}
	return true
}

// IBANs returns the participant account IBANs in order.
func (s *SplitPayment) IBANs() []string {
	ibans := make([]string, len(s.Participants))
	for i := range s.Participants {
		ibans[i] = s.Participants[i].IBAN
	}
	return ibans
}

// Shares returns the per-participant owed amounts in order.
func (s *SplitPayment) Shares() []float64 {
	shares := make([]float64, len(s.Participants))
	for i := range s.Participants {
		shares[i] = s.Participants[i].Amount
	}
	return shares
}
