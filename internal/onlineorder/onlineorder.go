// Package onlineorder manages the pickup-slot order queue.
package onlineorder

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"

	"github.com/caffeine-club/biller/internal/catalog"
	"github.com/caffeine-club/biller/internal/enum"
	"github.com/caffeine-club/biller/internal/store"
)

var (
	ErrEmptyOrder    = errors.New("online order must have at least one item")
	ErrInvalidLine   = errors.New("order line must have a positive quantity and price")
	ErrInvalidStatus = errors.New("invalid online order status")
)

// Store is the persistence slice the service needs.
// Satisfied by *store.Postgres.
type Store interface {
	CreateOnlineOrder(ctx context.Context, items []catalog.CartLine, total decimal.Decimal, slot time.Time, status string) (store.OnlineOrder, error)
	ListOnlineOrders(ctx context.Context, start, end time.Time) ([]store.OnlineOrder, error)
	UpdateOnlineOrderStatus(ctx context.Context, id uuid.UUID, status string) (store.OnlineOrder, error)
}

type Service struct {
	store Store
}

func NewService(s Store) *Service {
	return &Service{store: s}
}

// Create places a new order. Orders always enter the queue as placed; the
// total is recomputed from the lines rather than trusted from the caller.
func (s *Service) Create(ctx context.Context, items []catalog.CartLine, slot time.Time) (store.OnlineOrder, error) {
	if len(items) == 0 {
		return store.OnlineOrder{}, ErrEmptyOrder
	}
	total := decimal.Zero
	for _, line := range items {
		if line.Quantity <= 0 || line.Price.IsNegative() {
			return store.OnlineOrder{}, fmt.Errorf("%w: item %d", ErrInvalidLine, line.ItemID)
		}
		total = total.Add(line.LineTotal())
	}
	return s.store.CreateOnlineOrder(ctx, items, total, slot, enum.OnlineOrderPlaced)
}

// BySlotRange lists orders whose pickup slot falls in [start, end].
func (s *Service) BySlotRange(ctx context.Context, start, end time.Time) ([]store.OnlineOrder, error) {
	return s.store.ListOnlineOrders(ctx, start, end)
}

// UpdateStatus moves an order through its lifecycle.
func (s *Service) UpdateStatus(ctx context.Context, id uuid.UUID, status string) (store.OnlineOrder, error) {
	if !enum.ValidOnlineOrderStatus(status) {
		return store.OnlineOrder{}, fmt.Errorf("%w: %q", ErrInvalidStatus, status)
	}
	return s.store.UpdateOnlineOrderStatus(ctx, id, status)
}
