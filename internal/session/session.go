package session

import (
	"errors"
	"log"
	"sync"

	"github.com/shopspring/decimal"

	"github.com/caffeine-club/biller/internal/catalog"
)

// Errors returned by the table session store.
var (
	ErrTableNotFound = errors.New("table not found")
	ErrTableNotEmpty = errors.New("table has an outstanding total")
)

// Table is a physical seating unit with its open cart and running total.
type Table struct {
	ID         int                `json:"id"`
	IsOccupied bool               `json:"isOccupied"`
	Items      []catalog.CartLine `json:"items"`
	Total      decimal.Decimal    `json:"total"`
}

// recalc re-derives the running total from the cart lines. Called inside
// every mutating operation so the total is never stale.
func (t *Table) recalc() {
	total := decimal.Zero
	for _, line := range t.Items {
		total = total.Add(line.LineTotal())
	}
	t.Total = total
}

func (t Table) clone() Table {
	items := make([]catalog.CartLine, len(t.Items))
	copy(items, t.Items)
	t.Items = items
	return t
}

// Snapshotter persists the full table list to a local slot. The write is
// best-effort: the in-memory state is authoritative for the active session.
type Snapshotter interface {
	Save(tables []Table) error
	Load() ([]Table, error)
}

// Publisher receives a table snapshot after every mutation. Satisfied by the
// websocket hub; readers subscribe instead of touching store internals.
type Publisher interface {
	PublishTables(tables []Table)
}

// Store owns the fixed table fleet. It is the single writer: every mutation
// goes through it, recomputes the affected total synchronously, persists the
// snapshot, and notifies subscribers.
type Store struct {
	mu        sync.Mutex
	tables    []Table
	snapshots Snapshotter
	publisher Publisher
}

// NewStore creates a store with tables 1..count, rehydrating from the
// snapshotter when it holds a valid previous session.
func NewStore(count int, snapshots Snapshotter, publisher Publisher) *Store {
	s := &Store{
		tables:    emptyFleet(count),
		snapshots: snapshots,
		publisher: publisher,
	}
	if snapshots == nil {
		return s
	}
	saved, err := snapshots.Load()
	if err != nil {
		log.Printf("ERROR: load table snapshot: %v (starting with empty fleet)", err)
		return s
	}
	if len(saved) == len(s.tables) {
		s.tables = saved
	}
	return s
}

func emptyFleet(count int) []Table {
	tables := make([]Table, count)
	for i := range tables {
		tables[i] = Table{ID: i + 1, Items: []catalog.CartLine{}, Total: decimal.Zero}
	}
	return tables
}

// Tables returns a snapshot of the full fleet.
func (s *Store) Tables() []Table {
	s.mu.Lock()
	defer s.mu.Unlock()
	out := make([]Table, len(s.tables))
	for i, t := range s.tables {
		out[i] = t.clone()
	}
	return out
}

// Get returns a snapshot of one table.
func (s *Store) Get(id int) (Table, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	t, err := s.find(id)
	if err != nil {
		return Table{}, err
	}
	return t.clone(), nil
}

// Select marks the table occupied if it was free and returns its snapshot.
func (s *Store) Select(id int) (Table, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	idx, err := s.index(id)
	if err != nil {
		return Table{}, err
	}
	if !s.tables[idx].IsOccupied {
		s.tables[idx].IsOccupied = true
		s.persist()
	}
	return s.tables[idx].clone(), nil
}

// AddItem puts one unit of item on the table: an existing line gets its
// quantity incremented, otherwise a new line is appended at quantity 1.
func (s *Store) AddItem(id int, item catalog.Item) (Table, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	idx, err := s.index(id)
	if err != nil {
		return Table{}, err
	}
	t := &s.tables[idx]
	found := false
	for i := range t.Items {
		if t.Items[i].ItemID == item.ID {
			t.Items[i].Quantity++
			found = true
			break
		}
	}
	if !found {
		t.Items = append(t.Items, catalog.NewCartLine(item))
	}
	t.IsOccupied = true
	t.recalc()
	s.persist()
	return t.clone(), nil
}

// SetItemQuantity sets the line quantity, clamping negatives to 0. A line at
// quantity 0 is removed rather than kept.
func (s *Store) SetItemQuantity(id, itemID, qty int) (Table, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	idx, err := s.index(id)
	if err != nil {
		return Table{}, err
	}
	if qty < 0 {
		qty = 0
	}
	t := &s.tables[idx]
	lines := t.Items[:0]
	for _, line := range t.Items {
		if line.ItemID == itemID {
			line.Quantity = qty
		}
		if line.Quantity > 0 {
			lines = append(lines, line)
		}
	}
	t.Items = lines
	t.recalc()
	s.persist()
	return t.clone(), nil
}

// Close frees a table an operator abandons. It refuses tables with an
// outstanding total: those must go through the billing engine, which clears
// the table via Clear after settlement.
func (s *Store) Close(id int) (Table, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	idx, err := s.index(id)
	if err != nil {
		return Table{}, err
	}
	if !s.tables[idx].Total.IsZero() {
		return Table{}, ErrTableNotEmpty
	}
	s.reset(idx)
	s.persist()
	return s.tables[idx].clone(), nil
}

// Clear resets the table unconditionally. Callers use it as the final effect
// of a terminal billing outcome.
func (s *Store) Clear(id int) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	idx, err := s.index(id)
	if err != nil {
		return err
	}
	s.reset(idx)
	s.persist()
	return nil
}

func (s *Store) reset(idx int) {
	s.tables[idx] = Table{
		ID:    s.tables[idx].ID,
		Items: []catalog.CartLine{},
		Total: decimal.Zero,
	}
}

func (s *Store) find(id int) (Table, error) {
	idx, err := s.index(id)
	if err != nil {
		return Table{}, err
	}
	return s.tables[idx], nil
}

func (s *Store) index(id int) (int, error) {
	for i := range s.tables {
		if s.tables[i].ID == id {
			return i, nil
		}
	}
	return 0, ErrTableNotFound
}

// persist writes the snapshot and notifies subscribers. Caller holds the lock.
func (s *Store) persist() {
	if s.snapshots != nil {
		if err := s.snapshots.Save(s.tables); err != nil {
			log.Printf("ERROR: save table snapshot: %v", err)
		}
	}
	if s.publisher != nil {
		out := make([]Table, len(s.tables))
		for i, t := range s.tables {
			out[i] = t.clone()
		}
		s.publisher.PublishTables(out)
	}
}
