// Package ledger owns the bill, transaction, and register records once
// persisted. Bill, transaction, and register writes are three independent
// store calls in fixed order with no cross-write atomicity: the bill record
// is the durable source of truth, and register totals are best-effort caches
// that can transiently drift when a later step fails.
package ledger

import (
	"context"
	"errors"
	"fmt"
	"log"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"

	"github.com/caffeine-club/biller/internal/catalog"
	"github.com/caffeine-club/biller/internal/enum"
	"github.com/caffeine-club/biller/internal/store"
)

// Errors returned by the ledger service.
var (
	ErrInvalidChannel    = errors.New("invalid payment channel")
	ErrEmptyReason       = errors.New("reason is required")
	ErrNotPending        = errors.New("bill is not pending")
	ErrSettleMismatch    = errors.New("cash and upi portions must equal the bill total")
	ErrNegativePortion   = errors.New("settlement portions must be non-negative")
	ErrNegativeComponent = errors.New("bill payment components must be non-negative")
)

// Store defines the document-store methods the ledger needs.
// Satisfied by *store.Postgres; narrow interface for testability.
type Store interface {
	CreateBill(ctx context.Context, arg store.CreateBillParams) (store.Bill, error)
	GetBill(ctx context.Context, id uuid.UUID) (store.Bill, error)
	SettleBill(ctx context.Context, id uuid.UUID, cash, upi decimal.Decimal) (store.Bill, error)
	ListBills(ctx context.Context, start, end time.Time) ([]store.Bill, error)
	ListPendingBills(ctx context.Context, start, end time.Time) ([]store.Bill, error)
	CreateTransaction(ctx context.Context, channel string, amount decimal.Decimal, reason string, at time.Time) (store.Transaction, error)
	ListTransactions(ctx context.Context, channel string, start, end time.Time) ([]store.Transaction, error)
	IncrementRegister(ctx context.Context, channel string, delta decimal.Decimal) error
	GetRegisterTotal(ctx context.Context, channel string) (decimal.Decimal, error)
}

// Service drives ledger writes and range reads.
type Service struct {
	store Store
	now   func() time.Time
}

func NewService(st Store) *Service {
	return &Service{store: st, now: time.Now}
}

// BillInput is a finalized bill ready to persist.
type BillInput struct {
	Items  []catalog.CartLine
	Total  decimal.Decimal
	Status string
	Cash   decimal.Decimal
	Upi    decimal.Decimal
	Mobile string
}

// RecordBill persists the bill, then appends the per-channel settlement legs
// and applies the register increments for each component above zero. Side
// effects failing after the bill write are logged and swallowed: the bill is
// durable, the registers drift until someone reconciles them by hand.
func (s *Service) RecordBill(ctx context.Context, in BillInput) (store.Bill, error) {
	if in.Cash.IsNegative() || in.Upi.IsNegative() {
		return store.Bill{}, ErrNegativeComponent
	}
	bill, err := s.store.CreateBill(ctx, store.CreateBillParams{
		Items:  in.Items,
		Total:  in.Total,
		Status: in.Status,
		Cash:   in.Cash,
		Upi:    in.Upi,
		Mobile: in.Mobile,
		Time:   s.now(),
	})
	if err != nil {
		return store.Bill{}, fmt.Errorf("create bill: %w", err)
	}

	// Pending bills carry no payment yet; legs are written at settlement.
	if bill.Status == enum.BillStatusPaid {
		s.applySettlementLegs(ctx, bill.ID, in.Cash, in.Upi)
	}
	return bill, nil
}

// applySettlementLegs writes the transaction + register pair for each
// non-zero component. Ordering is fixed: transaction, then register.
func (s *Service) applySettlementLegs(ctx context.Context, billID uuid.UUID, cash, upi decimal.Decimal) {
	reason := billID.String()
	if cash.GreaterThan(decimal.Zero) {
		s.appendLeg(ctx, enum.ChannelCash, cash, reason)
	}
	if upi.GreaterThan(decimal.Zero) {
		s.appendLeg(ctx, enum.ChannelUpi, upi, reason)
	}
}

func (s *Service) appendLeg(ctx context.Context, channel string, amount decimal.Decimal, reason string) {
	if _, err := s.store.CreateTransaction(ctx, channel, amount, reason, s.now()); err != nil {
		log.Printf("ERROR: append %s transaction for bill %s: %v (register will drift)", channel, reason, err)
		return
	}
	if err := s.store.IncrementRegister(ctx, channel, amount); err != nil {
		log.Printf("ERROR: increment %s register for bill %s: %v (register will drift)", channel, reason, err)
	}
}

// RecordManualTransaction appends a signed adjustment outside of bill
// settlement and applies the matching register increment. The two writes are
// independent: a register failure after the transaction write is logged and
// leaves the register behind the log.
func (s *Service) RecordManualTransaction(ctx context.Context, channel string, amount decimal.Decimal, reason string) (store.Transaction, error) {
	if !enum.ValidChannel(channel) {
		return store.Transaction{}, ErrInvalidChannel
	}
	if reason == "" {
		return store.Transaction{}, ErrEmptyReason
	}
	tx, err := s.store.CreateTransaction(ctx, channel, amount, reason, s.now())
	if err != nil {
		return store.Transaction{}, fmt.Errorf("create transaction: %w", err)
	}
	if err := s.store.IncrementRegister(ctx, channel, amount); err != nil {
		log.Printf("ERROR: increment %s register for manual transaction %s: %v (register will drift)", channel, tx.ID, err)
	}
	return tx, nil
}

// SettlePendingBill is the only mutation permitted on a persisted bill.
// The portions must sum to the bill total exactly; anything else is rejected
// with no state change.
func (s *Service) SettlePendingBill(ctx context.Context, id uuid.UUID, cash, upi decimal.Decimal) (store.Bill, error) {
	if cash.IsNegative() || upi.IsNegative() {
		return store.Bill{}, ErrNegativePortion
	}
	bill, err := s.store.GetBill(ctx, id)
	if err != nil {
		return store.Bill{}, fmt.Errorf("get bill: %w", err)
	}
	if bill.Status != enum.BillStatusPending {
		return store.Bill{}, ErrNotPending
	}
	if !cash.Add(upi).Equal(bill.Total) {
		return store.Bill{}, ErrSettleMismatch
	}
	settled, err := s.store.SettleBill(ctx, id, cash, upi)
	if err != nil {
		return store.Bill{}, fmt.Errorf("settle bill: %w", err)
	}
	s.applySettlementLegs(ctx, settled.ID, cash, upi)
	return settled, nil
}

// --- Range reads (inclusive bounds on the record timestamp) ---

func (s *Service) Bills(ctx context.Context, start, end time.Time) ([]store.Bill, error) {
	return s.store.ListBills(ctx, start, end)
}

func (s *Service) PendingBills(ctx context.Context, start, end time.Time) ([]store.Bill, error) {
	return s.store.ListPendingBills(ctx, start, end)
}

func (s *Service) Transactions(ctx context.Context, channel string, start, end time.Time) ([]store.Transaction, error) {
	if !enum.ValidChannel(channel) {
		return nil, ErrInvalidChannel
	}
	return s.store.ListTransactions(ctx, channel, start, end)
}

func (s *Service) RegisterTotal(ctx context.Context, channel string) (decimal.Decimal, error) {
	if !enum.ValidChannel(channel) {
		return decimal.Zero, ErrInvalidChannel
	}
	return s.store.GetRegisterTotal(ctx, channel)
}
