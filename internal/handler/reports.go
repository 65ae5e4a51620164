package handler

import (
	"net/http"
	"sort"

	"github.com/go-chi/chi/v5"
	"github.com/shopspring/decimal"

	"github.com/caffeine-club/biller/internal/ledger"
)

// ReportsHandler aggregates bill history into per-item sales reports.
type ReportsHandler struct {
	ledger *ledger.Service
}

func NewReportsHandler(l *ledger.Service) *ReportsHandler {
	return &ReportsHandler{ledger: l}
}

func (h *ReportsHandler) RegisterRoutes(r chi.Router) {
	r.Get("/reports/items", h.ItemSales)
}

type itemSales struct {
	ItemID   int             `json:"item_id"`
	Name     string          `json:"name"`
	Category string          `json:"category"`
	Quantity int             `json:"quantity"`
	Revenue  decimal.Decimal `json:"revenue"`
}

type itemSalesResponse struct {
	Items        []itemSales     `json:"items"`
	BillCount    int             `json:"bill_count"`
	TotalRevenue decimal.Decimal `json:"total_revenue"`
}

// ItemSales returns per-item quantity and revenue over a date range.
// ?sort=revenue orders by revenue; the default is quantity.
func (h *ReportsHandler) ItemSales(w http.ResponseWriter, r *http.Request) {
	start, end, err := parseDateRange(r)
	if err != nil {
		writeJSON(w, http.StatusBadRequest, map[string]string{"error": err.Error()})
		return
	}

	bills, err := h.ledger.Bills(r.Context(), start, end)
	if err != nil {
		writeJSON(w, http.StatusInternalServerError, map[string]string{"error": "internal server error"})
		return
	}

	byItem := make(map[int]*itemSales)
	totalRevenue := decimal.Zero
	for _, bill := range bills {
		for _, line := range bill.Items {
			agg, ok := byItem[line.ItemID]
			if !ok {
				agg = &itemSales{
					ItemID:   line.ItemID,
					Name:     line.Name,
					Category: line.Category,
					Revenue:  decimal.Zero,
				}
				byItem[line.ItemID] = agg
			}
			agg.Quantity += line.Quantity
			agg.Revenue = agg.Revenue.Add(line.LineTotal())
		}
		totalRevenue = totalRevenue.Add(bill.Total)
	}

	items := make([]itemSales, 0, len(byItem))
	for _, agg := range byItem {
		items = append(items, *agg)
	}

	switch r.URL.Query().Get("sort") {
	case "revenue":
		sort.Slice(items, func(i, j int) bool { return items[i].Revenue.GreaterThan(items[j].Revenue) })
	default:
		sort.Slice(items, func(i, j int) bool { return items[i].Quantity > items[j].Quantity })
	}

	writeJSON(w, http.StatusOK, itemSalesResponse{
		Items:        items,
		BillCount:    len(bills),
		TotalRevenue: totalRevenue,
	})
}
