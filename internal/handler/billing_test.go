package handler_test

import (
	"context"
	"net/http"
	"testing"

	"github.com/go-chi/chi/v5"
	"github.com/shopspring/decimal"

	"github.com/caffeine-club/biller/internal/billing"
	"github.com/caffeine-club/biller/internal/catalog"
	"github.com/caffeine-club/biller/internal/enum"
	"github.com/caffeine-club/biller/internal/handler"
	"github.com/caffeine-club/biller/internal/ledger"
	"github.com/caffeine-club/biller/internal/middleware"
	"github.com/caffeine-club/biller/internal/session"
	"github.com/caffeine-club/biller/internal/store"
)

type mockBillRecorder struct {
	recorded []ledger.BillInput
}

func (m *mockBillRecorder) RecordBill(_ context.Context, in ledger.BillInput) (store.Bill, error) {
	m.recorded = append(m.recorded, in)
	return store.Bill{Total: in.Total, Status: in.Status, Cash: in.Cash, Upi: in.Upi, Mobile: in.Mobile}, nil
}

func setupBillingRouter(t *testing.T) (*chi.Mux, *session.Store, *mockBillRecorder) {
	t.Helper()
	cat, err := catalog.Load()
	if err != nil {
		t.Fatalf("load catalog: %v", err)
	}
	tables := session.NewStore(6, nil, nil)
	rec := &mockBillRecorder{}
	engine := billing.NewEngine(tables, rec, billing.Payee{VPA: "test@upi", Name: "Test"})

	r := chi.NewRouter()
	r.Use(middleware.Authenticate(testJWTSecret))
	handler.NewTablesHandler(tables, cat).RegisterRoutes(r)
	handler.NewBillingHandler(engine).RegisterRoutes(r)
	return r, tables, rec
}

func TestBilling_CashFlowEndToEnd(t *testing.T) {
	router, tables, rec := setupBillingRouter(t)
	claims := cashierClaims()

	// Espresso (90) x2 on table 1
	doAuthRequest(t, router, "POST", "/tables/1/items", map[string]int{"item_id": 1}, claims)
	doAuthRequest(t, router, "POST", "/tables/1/items", map[string]int{"item_id": 1}, claims)

	rr := doAuthRequest(t, router, "POST", "/billing/generate", map[string]int{"table_id": 1}, claims)
	if rr.Code != http.StatusOK {
		t.Fatalf("generate status: got %d; body: %s", rr.Code, rr.Body.String())
	}
	resp := decodeResponse(t, rr)
	if resp["closed"] == true {
		t.Fatal("table closed instead of starting a flow")
	}

	rr = doAuthRequest(t, router, "POST", "/billing/method", map[string]string{"method": enum.PaymentMethodCash}, claims)
	if rr.Code != http.StatusOK {
		t.Fatalf("method status: got %d; body: %s", rr.Code, rr.Body.String())
	}

	if len(rec.recorded) != 1 {
		t.Fatalf("recorded bills: got %d, want 1", len(rec.recorded))
	}
	in := rec.recorded[0]
	if in.Status != enum.BillStatusPaid || !in.Cash.Equal(decimal.NewFromInt(180)) {
		t.Errorf("bill: got status=%s cash=%s, want Paid/180", in.Status, in.Cash)
	}

	tab, _ := tables.Get(1)
	if tab.IsOccupied || !tab.Total.IsZero() {
		t.Errorf("table after settlement: got %+v", tab)
	}
}

func TestBilling_SplitFlowEndToEnd(t *testing.T) {
	router, _, rec := setupBillingRouter(t)
	claims := cashierClaims()

	// Cafe Latte (150) x2 = 300 on table 2
	doAuthRequest(t, router, "POST", "/tables/2/items", map[string]int{"item_id": 3}, claims)
	doAuthRequest(t, router, "POST", "/tables/2/items", map[string]int{"item_id": 3}, claims)

	doAuthRequest(t, router, "POST", "/billing/generate", map[string]int{"table_id": 2}, claims)
	doAuthRequest(t, router, "POST", "/billing/method", map[string]string{"method": enum.PaymentMethodBoth}, claims)

	rr := doAuthRequest(t, router, "POST", "/billing/cash-split", map[string]string{"cash": "120"}, claims)
	if rr.Code != http.StatusOK {
		t.Fatalf("cash-split status: got %d; body: %s", rr.Code, rr.Body.String())
	}
	flow := decodeResponse(t, rr)
	if flow["state"] != billing.StateAwaitingUpiScan {
		t.Errorf("state: got %v, want %s", flow["state"], billing.StateAwaitingUpiScan)
	}
	if flow["upi_link"] == nil {
		t.Error("missing upi link in split flow")
	}

	rr = doAuthRequest(t, router, "POST", "/billing/upi-confirm", nil, claims)
	if rr.Code != http.StatusOK {
		t.Fatalf("upi-confirm status: got %d; body: %s", rr.Code, rr.Body.String())
	}

	in := rec.recorded[0]
	if !in.Cash.Equal(decimal.NewFromInt(120)) || !in.Upi.Equal(decimal.NewFromInt(180)) {
		t.Errorf("bill: got cash=%s upi=%s, want 120/180", in.Cash, in.Upi)
	}
}

func TestBilling_PendingFlow(t *testing.T) {
	router, _, rec := setupBillingRouter(t)
	claims := cashierClaims()

	doAuthRequest(t, router, "POST", "/tables/3/items", map[string]int{"item_id": 10}, claims)
	doAuthRequest(t, router, "POST", "/billing/generate", map[string]int{"table_id": 3}, claims)
	doAuthRequest(t, router, "POST", "/billing/method", map[string]string{"method": enum.PaymentMethodPending}, claims)

	rr := doAuthRequest(t, router, "POST", "/billing/pending-contact", map[string]string{"contact": "9999999999"}, claims)
	if rr.Code != http.StatusOK {
		t.Fatalf("pending-contact status: got %d; body: %s", rr.Code, rr.Body.String())
	}

	in := rec.recorded[0]
	if in.Status != enum.BillStatusPending || in.Mobile != "9999999999" {
		t.Errorf("bill: got status=%s mobile=%s, want Pending/9999999999", in.Status, in.Mobile)
	}
}

func TestBilling_EmptyTableCloses(t *testing.T) {
	router, _, rec := setupBillingRouter(t)
	claims := cashierClaims()

	doAuthRequest(t, router, "POST", "/tables/4/select", nil, claims)
	rr := doAuthRequest(t, router, "POST", "/billing/generate", map[string]int{"table_id": 4}, claims)
	if rr.Code != http.StatusOK {
		t.Fatalf("generate status: got %d; body: %s", rr.Code, rr.Body.String())
	}
	resp := decodeResponse(t, rr)
	if resp["closed"] != true {
		t.Error("expected empty table to close")
	}
	if len(rec.recorded) != 0 {
		t.Error("bill recorded for empty table")
	}
}

func TestBilling_CancelKeepsTable(t *testing.T) {
	router, tables, rec := setupBillingRouter(t)
	claims := cashierClaims()

	doAuthRequest(t, router, "POST", "/tables/5/items", map[string]int{"item_id": 2}, claims)
	doAuthRequest(t, router, "POST", "/billing/generate", map[string]int{"table_id": 5}, claims)

	rr := doAuthRequest(t, router, "POST", "/billing/cancel", nil, claims)
	if rr.Code != http.StatusOK {
		t.Fatalf("cancel status: got %d; body: %s", rr.Code, rr.Body.String())
	}

	tab, _ := tables.Get(5)
	if len(tab.Items) != 1 {
		t.Error("table lost items after cancel")
	}
	if len(rec.recorded) != 0 {
		t.Error("bill recorded despite cancel")
	}
}

func TestBilling_InvalidSplitRejected(t *testing.T) {
	router, _, _ := setupBillingRouter(t)
	claims := cashierClaims()

	doAuthRequest(t, router, "POST", "/tables/1/items", map[string]int{"item_id": 2}, claims)
	doAuthRequest(t, router, "POST", "/billing/generate", map[string]int{"table_id": 1}, claims)
	doAuthRequest(t, router, "POST", "/billing/method", map[string]string{"method": enum.PaymentMethodBoth}, claims)

	rr := doAuthRequest(t, router, "POST", "/billing/cash-split", map[string]string{"cash": "100000"}, claims)
	if rr.Code != http.StatusBadRequest {
		t.Fatalf("status: got %d, want %d", rr.Code, http.StatusBadRequest)
	}
}

func TestBilling_NoFlowConflicts(t *testing.T) {
	router, _, _ := setupBillingRouter(t)

	rr := doAuthRequest(t, router, "POST", "/billing/upi-confirm", nil, cashierClaims())
	if rr.Code != http.StatusConflict {
		t.Fatalf("status: got %d, want %d", rr.Code, http.StatusConflict)
	}
}
