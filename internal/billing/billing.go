// Package billing drives the payment state machine that takes an occupied
// table from bill generation through method selection to a persisted bill.
package billing

import (
	"context"
	"errors"
	"fmt"
	"sync"

	"github.com/shopspring/decimal"

	"github.com/caffeine-club/biller/internal/catalog"
	"github.com/caffeine-club/biller/internal/enum"
	"github.com/caffeine-club/biller/internal/ledger"
	"github.com/caffeine-club/biller/internal/session"
	"github.com/caffeine-club/biller/internal/store"
)

// Flow states. A settlement flow is transient: nothing is persisted until a
// terminal submit, and cancel before that point is side-effect free.
const (
	StateAwaitingMethod         = "AWAITING_METHOD"
	StateAwaitingUpiScan        = "AWAITING_UPI_SCAN"
	StateAwaitingCashSplit      = "AWAITING_CASH_SPLIT"
	StateAwaitingPendingContact = "AWAITING_PENDING_CONTACT"
)

// Errors returned by the billing engine.
var (
	ErrNoActiveFlow   = errors.New("no billing flow in progress")
	ErrFlowInProgress = errors.New("another billing flow is in progress")
	ErrWrongState     = errors.New("action not valid in current billing state")
	ErrInvalidMethod  = errors.New("invalid payment method")
	ErrInvalidSplit   = errors.New("cash amount must be between 0 and the bill total")
	ErrEmptyContact   = errors.New("contact is required for pending bills")
)

// BillRecorder is the slice of the ledger the engine persists through.
type BillRecorder interface {
	RecordBill(ctx context.Context, in ledger.BillInput) (store.Bill, error)
}

// Tables is the slice of the session store the engine reads and clears.
type Tables interface {
	Get(id int) (session.Table, error)
	Clear(id int) error
}

// Flow is a read-only snapshot of the active settlement flow.
type Flow struct {
	TableID     int                `json:"table_id"`
	State       string             `json:"state"`
	Amount      decimal.Decimal    `json:"amount"`
	CashPortion decimal.Decimal    `json:"cash_portion"`
	UpiAmount   decimal.Decimal    `json:"upi_amount"`
	UpiLink     string             `json:"upi_link,omitempty"`
	Items       []catalog.CartLine `json:"items"`
}

type flowState struct {
	tableID     int
	state       string
	amount      decimal.Decimal
	cashPortion decimal.Decimal
	items       []catalog.CartLine
}

// Engine owns the transient payment-method selection state for the table
// being settled. One flow at a time: a single till, a single operator.
type Engine struct {
	tables   Tables
	recorder BillRecorder
	payee    Payee

	mu     sync.Mutex
	active *flowState
}

func NewEngine(tables Tables, recorder BillRecorder, payee Payee) *Engine {
	return &Engine{tables: tables, recorder: recorder, payee: payee}
}

// GenerateBill starts a settlement flow for the table. A zero total is the
// escape hatch for accidental empty sessions: the table is closed on the spot
// and no bill record is ever created.
func (e *Engine) GenerateBill(ctx context.Context, tableID int) (Flow, bool, error) {
	e.mu.Lock()
	defer e.mu.Unlock()
	if e.active != nil {
		return Flow{}, false, ErrFlowInProgress
	}
	table, err := e.tables.Get(tableID)
	if err != nil {
		return Flow{}, false, fmt.Errorf("get table: %w", err)
	}
	if table.Total.IsZero() {
		if err := e.tables.Clear(tableID); err != nil {
			return Flow{}, false, fmt.Errorf("close empty table: %w", err)
		}
		return Flow{}, true, nil
	}
	e.active = &flowState{
		tableID:     tableID,
		state:       StateAwaitingMethod,
		amount:      table.Total,
		cashPortion: decimal.Zero,
		items:       table.Items,
	}
	return e.snapshot(), false, nil
}

// Current returns the active flow, if any.
func (e *Engine) Current() (Flow, bool) {
	e.mu.Lock()
	defer e.mu.Unlock()
	if e.active == nil {
		return Flow{}, false
	}
	return e.snapshot(), true
}

// ChooseMethod branches the flow on the operator's payment-method pick.
// Cash settles immediately; the other methods move to their input state.
func (e *Engine) ChooseMethod(ctx context.Context, method string) (Flow, error) {
	e.mu.Lock()
	defer e.mu.Unlock()
	if e.active == nil {
		return Flow{}, ErrNoActiveFlow
	}
	if e.active.state != StateAwaitingMethod {
		return Flow{}, ErrWrongState
	}
	switch method {
	case enum.PaymentMethodCash:
		return e.settlePaid(ctx, e.active.amount, decimal.Zero)
	case enum.PaymentMethodUpi:
		e.active.cashPortion = decimal.Zero
		e.active.state = StateAwaitingUpiScan
	case enum.PaymentMethodBoth:
		e.active.state = StateAwaitingCashSplit
	case enum.PaymentMethodPending:
		e.active.state = StateAwaitingPendingContact
	default:
		return Flow{}, ErrInvalidMethod
	}
	return e.snapshot(), nil
}

// SubmitCashSplit records the cash leg of a split payment. The full amount
// in cash collapses to a pure-cash settlement; anything less routes the
// remainder to the UPI scan.
func (e *Engine) SubmitCashSplit(ctx context.Context, cash decimal.Decimal) (Flow, error) {
	e.mu.Lock()
	defer e.mu.Unlock()
	if e.active == nil {
		return Flow{}, ErrNoActiveFlow
	}
	if e.active.state != StateAwaitingCashSplit {
		return Flow{}, ErrWrongState
	}
	if cash.IsNegative() || cash.GreaterThan(e.active.amount) {
		return Flow{}, ErrInvalidSplit
	}
	if cash.Equal(e.active.amount) {
		return e.settlePaid(ctx, cash, decimal.Zero)
	}
	e.active.cashPortion = cash
	e.active.state = StateAwaitingUpiScan
	return e.snapshot(), nil
}

// ConfirmUpiPaid finalizes the flow after the customer scans and pays.
func (e *Engine) ConfirmUpiPaid(ctx context.Context) (Flow, error) {
	e.mu.Lock()
	defer e.mu.Unlock()
	if e.active == nil {
		return Flow{}, ErrNoActiveFlow
	}
	if e.active.state != StateAwaitingUpiScan {
		return Flow{}, ErrWrongState
	}
	return e.settlePaid(ctx, e.active.cashPortion, e.active.amount.Sub(e.active.cashPortion))
}

// SubmitPendingContact persists a Pending bill tracked by the contact string.
// No transactions or register changes happen until the bill is settled later.
func (e *Engine) SubmitPendingContact(ctx context.Context, contact string) (Flow, error) {
	e.mu.Lock()
	defer e.mu.Unlock()
	if e.active == nil {
		return Flow{}, ErrNoActiveFlow
	}
	if e.active.state != StateAwaitingPendingContact {
		return Flow{}, ErrWrongState
	}
	if contact == "" {
		return Flow{}, ErrEmptyContact
	}
	_, err := e.recorder.RecordBill(ctx, ledger.BillInput{
		Items:  e.active.items,
		Total:  e.active.amount,
		Status: enum.BillStatusPending,
		Cash:   decimal.Zero,
		Upi:    decimal.Zero,
		Mobile: contact,
	})
	if err != nil {
		return Flow{}, fmt.Errorf("record pending bill: %w", err)
	}
	return e.finish(ctx)
}

// Cancel abandons the flow. Legal in every pre-persistence state; the table
// keeps its items, total, and occupancy exactly as they were.
func (e *Engine) Cancel() error {
	e.mu.Lock()
	defer e.mu.Unlock()
	if e.active == nil {
		return ErrNoActiveFlow
	}
	e.active = nil
	return nil
}

// settlePaid persists a Paid bill and closes out the flow. Caller holds the
// lock and has validated cash+upi == amount by construction.
func (e *Engine) settlePaid(ctx context.Context, cash, upi decimal.Decimal) (Flow, error) {
	_, err := e.recorder.RecordBill(ctx, ledger.BillInput{
		Items:  e.active.items,
		Total:  e.active.amount,
		Status: enum.BillStatusPaid,
		Cash:   cash,
		Upi:    upi,
	})
	if err != nil {
		return Flow{}, fmt.Errorf("record bill: %w", err)
	}
	return e.finish(ctx)
}

// finish clears the table as the final effect of every terminal outcome.
func (e *Engine) finish(_ context.Context) (Flow, error) {
	tableID := e.active.tableID
	e.active = nil
	if err := e.tables.Clear(tableID); err != nil {
		return Flow{}, fmt.Errorf("clear table %d: %w", tableID, err)
	}
	return Flow{}, nil
}

// snapshot builds the read-only view. Caller holds the lock.
func (e *Engine) snapshot() Flow {
	f := Flow{
		TableID:     e.active.tableID,
		State:       e.active.state,
		Amount:      e.active.amount,
		CashPortion: e.active.cashPortion,
		UpiAmount:   e.active.amount.Sub(e.active.cashPortion),
		Items:       append([]catalog.CartLine(nil), e.active.items...),
	}
	if f.State == StateAwaitingUpiScan {
		f.UpiLink = e.payee.Link(f.UpiAmount)
	}
	return f
}
