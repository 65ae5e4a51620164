package store

import (
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"

	"github.com/caffeine-club/biller/internal/catalog"
)

// Bill is a finalized or pending sales record. Immutable once created except
// for the Pending -> Paid settlement path.
type Bill struct {
	ID     uuid.UUID          `json:"id"`
	Items  []catalog.CartLine `json:"items"`
	Total  decimal.Decimal    `json:"total"`
	Status string             `json:"status"`
	Cash   decimal.Decimal    `json:"cash"`
	Upi    decimal.Decimal    `json:"upi"`
	Mobile string             `json:"mobile,omitempty"`
	Time   time.Time          `json:"time"`
}

// CreateBillParams carries the fields the billing engine persists.
type CreateBillParams struct {
	Items  []catalog.CartLine
	Total  decimal.Decimal
	Status string
	Cash   decimal.Decimal
	Upi    decimal.Decimal
	Mobile string
	Time   time.Time
}

// Transaction is one signed monetary movement in a payment channel, either a
// settlement leg (reason = bill id) or a manual register adjustment.
type Transaction struct {
	ID     uuid.UUID       `json:"id"`
	Amount decimal.Decimal `json:"amount"`
	Reason string          `json:"reason"`
	Time   time.Time       `json:"time"`
}

// OnlineOrder is a record in the online-order queue, a sibling subsystem that
// shares the store but never enters the settlement state machine.
type OnlineOrder struct {
	ID        uuid.UUID          `json:"id"`
	Items     []catalog.CartLine `json:"items"`
	Total     decimal.Decimal    `json:"total"`
	Slot      time.Time          `json:"slot"`
	Status    string             `json:"status"`
	CreatedAt time.Time          `json:"created_at"`
}

// User is an API operator account.
type User struct {
	ID             uuid.UUID
	FullName       string
	Email          string
	HashedPassword string
	Role           string
	CreatedAt      time.Time
}
