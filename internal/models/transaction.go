package models

import (
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

// Kind of balance change applied by a settlement
type Kind string

const (
	KindDebit  Kind = "debit"
	KindCredit Kind = "credit"
)

// Card readers send "debit" explicitly, in any case; anything else has always meant a top-up
func ParseKind(s string) Kind {
	if strings.EqualFold(strings.TrimSpace(s), string(KindDebit)) {
		return KindDebit
	}
	return KindCredit
}

// Transaction status as seen by polling clients
type Status string

const (
	StatusUnknown Status = "unknown"
	StatusPending Status = "pending"
	StatusSettled Status = "settled"
)

// PendingTransaction is created by the kiosk and settled at most once by a card reader
type PendingTransaction struct {
	ID        int64
	Amount    decimal.Decimal
	Settled   bool
	CreatedAt time.Time
	SettledAt *time.Time // nil while pending
}

func (t PendingTransaction) Status() Status {
	if t.Settled {
		return StatusSettled
	}
	return StatusPending
}

// AuditEntry is an immutable record of one balance mutation
type AuditEntry struct {
	ID              uuid.UUID
	CardNumber      string
	TransactionID   int64
	Kind            Kind
	Amount          decimal.Decimal
	PreviousBalance decimal.Decimal
	NewBalance      decimal.Decimal
	CreatedAt       time.Time
}

// SettlementResult is returned by the settlement engine
// On insufficient funds NewBalance equals PreviousBalance
type SettlementResult struct {
	CardNumber      string
	TransactionID   int64
	Kind            Kind
	Amount          decimal.Decimal
	PreviousBalance decimal.Decimal
	NewBalance      decimal.Decimal
	Message         string
}
