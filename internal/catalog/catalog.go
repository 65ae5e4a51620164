package catalog

import (
	"embed"
	"encoding/json"
	"errors"
	"fmt"
	"sort"

	"github.com/shopspring/decimal"
)

//go:embed menu.json
var menuFS embed.FS

var ErrItemNotFound = errors.New("menu item not found")

// Item is an immutable catalog entry.
type Item struct {
	ID       int             `json:"id"`
	Name     string          `json:"name"`
	Category string          `json:"category"`
	Price    decimal.Decimal `json:"price"`
}

// CartLine is a menu item with a positive quantity on a table's cart.
// A line never exists at quantity 0.
type CartLine struct {
	ItemID   int             `json:"id"`
	Name     string          `json:"name"`
	Category string          `json:"category"`
	Price    decimal.Decimal `json:"price"`
	Quantity int             `json:"quantity"`
}

// LineTotal returns price * quantity for the line.
func (l CartLine) LineTotal() decimal.Decimal {
	return l.Price.Mul(decimal.NewFromInt(int64(l.Quantity)))
}

// NewCartLine starts a line for item with quantity 1.
func NewCartLine(item Item) CartLine {
	return CartLine{
		ItemID:   item.ID,
		Name:     item.Name,
		Category: item.Category,
		Price:    item.Price,
		Quantity: 1,
	}
}

// Catalog holds the static purchasable-item list.
type Catalog struct {
	items []Item
	byID  map[int]Item
}

// Load parses the embedded menu data.
func Load() (*Catalog, error) {
	data, err := menuFS.ReadFile("menu.json")
	if err != nil {
		return nil, fmt.Errorf("read menu data: %w", err)
	}
	var items []Item
	if err := json.Unmarshal(data, &items); err != nil {
		return nil, fmt.Errorf("parse menu data: %w", err)
	}
	c := &Catalog{items: items, byID: make(map[int]Item, len(items))}
	for _, it := range items {
		if _, dup := c.byID[it.ID]; dup {
			return nil, fmt.Errorf("duplicate menu item id %d", it.ID)
		}
		if it.Price.IsNegative() {
			return nil, fmt.Errorf("menu item %d has negative price", it.ID)
		}
		c.byID[it.ID] = it
	}
	return c, nil
}

// Items returns every catalog entry.
func (c *Catalog) Items() []Item {
	out := make([]Item, len(c.items))
	copy(out, c.items)
	return out
}

// ItemsByCategory returns the entries in the given category.
func (c *Catalog) ItemsByCategory(category string) []Item {
	var out []Item
	for _, it := range c.items {
		if it.Category == category {
			out = append(out, it)
		}
	}
	return out
}

// Get looks an item up by id.
func (c *Catalog) Get(id int) (Item, error) {
	it, ok := c.byID[id]
	if !ok {
		return Item{}, ErrItemNotFound
	}
	return it, nil
}

// Categories returns the distinct category names, sorted.
func (c *Catalog) Categories() []string {
	seen := make(map[string]bool)
	var out []string
	for _, it := range c.items {
		if !seen[it.Category] {
			seen[it.Category] = true
			out = append(out, it.Category)
		}
	}
	sort.Strings(out)
	return out
}
