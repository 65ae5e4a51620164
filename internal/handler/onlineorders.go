package handler

import (
	"encoding/json"
	"errors"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"

	"github.com/caffeine-club/biller/internal/catalog"
	"github.com/caffeine-club/biller/internal/onlineorder"
)

// OnlineOrdersHandler manages the pickup-slot order queue.
type OnlineOrdersHandler struct {
	orders  *onlineorder.Service
	catalog *catalog.Catalog
}

func NewOnlineOrdersHandler(orders *onlineorder.Service, c *catalog.Catalog) *OnlineOrdersHandler {
	return &OnlineOrdersHandler{orders: orders, catalog: c}
}

func (h *OnlineOrdersHandler) RegisterRoutes(r chi.Router) {
	r.Post("/online-orders", h.Create)
	r.Get("/online-orders", h.List)
	r.Patch("/online-orders/{id}/status", h.UpdateStatus)
}

type orderLineRequest struct {
	ItemID   int `json:"item_id"`
	Quantity int `json:"quantity"`
}

type createOrderRequest struct {
	Items []orderLineRequest `json:"items"`
	Slot  time.Time          `json:"slot"`
}

type updateStatusRequest struct {
	Status string `json:"status"`
}

func (h *OnlineOrdersHandler) Create(w http.ResponseWriter, r *http.Request) {
	var req createOrderRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeJSON(w, http.StatusBadRequest, map[string]string{"error": "invalid request body"})
		return
	}
	if req.Slot.IsZero() {
		writeJSON(w, http.StatusBadRequest, map[string]string{"error": "slot is required"})
		return
	}

	lines := make([]catalog.CartLine, 0, len(req.Items))
	for _, l := range req.Items {
		item, err := h.catalog.Get(l.ItemID)
		if err != nil {
			writeJSON(w, http.StatusBadRequest, map[string]string{"error": "unknown menu item"})
			return
		}
		line := catalog.NewCartLine(item)
		line.Quantity = l.Quantity
		lines = append(lines, line)
	}

	order, err := h.orders.Create(r.Context(), lines, req.Slot)
	if err != nil {
		if errors.Is(err, onlineorder.ErrEmptyOrder) || errors.Is(err, onlineorder.ErrInvalidLine) {
			writeJSON(w, http.StatusBadRequest, map[string]string{"error": err.Error()})
			return
		}
		writeJSON(w, http.StatusInternalServerError, map[string]string{"error": "internal server error"})
		return
	}

	writeJSON(w, http.StatusCreated, order)
}

// List returns orders whose pickup slot falls in the requested date range.
func (h *OnlineOrdersHandler) List(w http.ResponseWriter, r *http.Request) {
	start, end, err := parseDateRange(r)
	if err != nil {
		writeJSON(w, http.StatusBadRequest, map[string]string{"error": err.Error()})
		return
	}

	orders, err := h.orders.BySlotRange(r.Context(), start, end)
	if err != nil {
		writeJSON(w, http.StatusInternalServerError, map[string]string{"error": "internal server error"})
		return
	}

	writeJSON(w, http.StatusOK, orders)
}

func (h *OnlineOrdersHandler) UpdateStatus(w http.ResponseWriter, r *http.Request) {
	id, err := uuid.Parse(chi.URLParam(r, "id"))
	if err != nil {
		writeJSON(w, http.StatusBadRequest, map[string]string{"error": "invalid order id"})
		return
	}

	var req updateStatusRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeJSON(w, http.StatusBadRequest, map[string]string{"error": "invalid request body"})
		return
	}

	order, err := h.orders.UpdateStatus(r.Context(), id, req.Status)
	if err != nil {
		switch {
		case errors.Is(err, onlineorder.ErrInvalidStatus):
			writeJSON(w, http.StatusBadRequest, map[string]string{"error": err.Error()})
		case errors.Is(err, pgx.ErrNoRows):
			writeJSON(w, http.StatusNotFound, map[string]string{"error": "order not found"})
		default:
			writeJSON(w, http.StatusInternalServerError, map[string]string{"error": "internal server error"})
		}
		return
	}

	writeJSON(w, http.StatusOK, order)
}
