package onlineorder_test

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/shopspring/decimal"

	"github.com/caffeine-club/biller/internal/catalog"
	"github.com/caffeine-club/biller/internal/enum"
	"github.com/caffeine-club/biller/internal/onlineorder"
	"github.com/caffeine-club/biller/internal/store"
)

type mockOrderStore struct {
	orders map[uuid.UUID]store.OnlineOrder
}

func newMockOrderStore() *mockOrderStore {
	return &mockOrderStore{orders: make(map[uuid.UUID]store.OnlineOrder)}
}

func (m *mockOrderStore) CreateOnlineOrder(_ context.Context, items []catalog.CartLine, total decimal.Decimal, slot time.Time, status string) (store.OnlineOrder, error) {
	o := store.OnlineOrder{
		ID: uuid.New(), Items: items, Total: total,
		Slot: slot, Status: status, CreatedAt: time.Now(),
	}
	m.orders[o.ID] = o
	return o, nil
}

func (m *mockOrderStore) ListOnlineOrders(_ context.Context, start, end time.Time) ([]store.OnlineOrder, error) {
	var out []store.OnlineOrder
	for _, o := range m.orders {
		if !o.Slot.Before(start) && !o.Slot.After(end) {
			out = append(out, o)
		}
	}
	return out, nil
}

func (m *mockOrderStore) UpdateOnlineOrderStatus(_ context.Context, id uuid.UUID, status string) (store.OnlineOrder, error) {
	o, ok := m.orders[id]
	if !ok {
		return store.OnlineOrder{}, pgx.ErrNoRows
	}
	o.Status = status
	m.orders[id] = o
	return o, nil
}

func lines(prices ...int64) []catalog.CartLine {
	var out []catalog.CartLine
	for i, p := range prices {
		out = append(out, catalog.CartLine{
			ItemID: i + 1, Name: "Item", Category: "Coffee",
			Price: decimal.NewFromInt(p), Quantity: 1,
		})
	}
	return out
}

func TestCreate_EntersQueueAsPlaced(t *testing.T) {
	st := newMockOrderStore()
	svc := onlineorder.NewService(st)
	slot := time.Now().Add(time.Hour)

	order, err := svc.Create(context.Background(), lines(150, 100), slot)
	if err != nil {
		t.Fatalf("Create: %v", err)
	}
	if order.Status != enum.OnlineOrderPlaced {
		t.Errorf("status: got %s, want %s", order.Status, enum.OnlineOrderPlaced)
	}
	if !order.Total.Equal(decimal.NewFromInt(250)) {
		t.Errorf("total: got %s, want 250", order.Total)
	}
	if !order.Slot.Equal(slot) {
		t.Errorf("slot: got %v, want %v", order.Slot, slot)
	}
}

func TestCreate_Validation(t *testing.T) {
	svc := onlineorder.NewService(newMockOrderStore())
	slot := time.Now()

	if _, err := svc.Create(context.Background(), nil, slot); !errors.Is(err, onlineorder.ErrEmptyOrder) {
		t.Errorf("empty order: got %v, want ErrEmptyOrder", err)
	}

	bad := lines(100)
	bad[0].Quantity = 0
	if _, err := svc.Create(context.Background(), bad, slot); !errors.Is(err, onlineorder.ErrInvalidLine) {
		t.Errorf("zero quantity: got %v, want ErrInvalidLine", err)
	}
}

func TestBySlotRange(t *testing.T) {
	st := newMockOrderStore()
	svc := onlineorder.NewService(st)
	base := time.Now()

	svc.Create(context.Background(), lines(100), base.Add(30*time.Minute))
	svc.Create(context.Background(), lines(200), base.Add(48*time.Hour))

	got, err := svc.BySlotRange(context.Background(), base, base.Add(time.Hour))
	if err != nil {
		t.Fatalf("BySlotRange: %v", err)
	}
	if len(got) != 1 {
		t.Fatalf("orders in range: got %d, want 1", len(got))
	}
	if !got[0].Total.Equal(decimal.NewFromInt(100)) {
		t.Errorf("order total: got %s, want 100", got[0].Total)
	}
}

func TestUpdateStatus(t *testing.T) {
	st := newMockOrderStore()
	svc := onlineorder.NewService(st)

	order, err := svc.Create(context.Background(), lines(100), time.Now())
	if err != nil {
		t.Fatalf("Create: %v", err)
	}

	updated, err := svc.UpdateStatus(context.Background(), order.ID, enum.OnlineOrderConfirmed)
	if err != nil {
		t.Fatalf("UpdateStatus: %v", err)
	}
	if updated.Status != enum.OnlineOrderConfirmed {
		t.Errorf("status: got %s, want %s", updated.Status, enum.OnlineOrderConfirmed)
	}
}

func TestUpdateStatus_InvalidRejected(t *testing.T) {
	svc := onlineorder.NewService(newMockOrderStore())

	if _, err := svc.UpdateStatus(context.Background(), uuid.New(), "shipped"); !errors.Is(err, onlineorder.ErrInvalidStatus) {
		t.Fatalf("error: got %v, want ErrInvalidStatus", err)
	}
}

func TestUpdateStatus_NotFound(t *testing.T) {
	svc := onlineorder.NewService(newMockOrderStore())

	if _, err := svc.UpdateStatus(context.Background(), uuid.New(), enum.OnlineOrderDelivered); !errors.Is(err, pgx.ErrNoRows) {
		t.Fatalf("error: got %v, want pgx.ErrNoRows", err)
	}
}
