package handler

import (
	"encoding/json"
	"errors"
	"net/http"
	"strconv"

	"github.com/go-chi/chi/v5"

	"github.com/caffeine-club/biller/internal/catalog"
	"github.com/caffeine-club/biller/internal/session"
)

// TablesHandler exposes the live table fleet to the till UI.
type TablesHandler struct {
	tables  *session.Store
	catalog *catalog.Catalog
}

func NewTablesHandler(tables *session.Store, c *catalog.Catalog) *TablesHandler {
	return &TablesHandler{tables: tables, catalog: c}
}

func (h *TablesHandler) RegisterRoutes(r chi.Router) {
	r.Get("/tables", h.List)
	r.Get("/tables/{id}", h.Get)
	r.Post("/tables/{id}/select", h.Select)
	r.Post("/tables/{id}/items", h.AddItem)
	r.Put("/tables/{id}/items/{itemID}", h.SetQuantity)
	r.Post("/tables/{id}/close", h.Close)
}

type addItemRequest struct {
	ItemID int `json:"item_id"`
}

type setQuantityRequest struct {
	Quantity int `json:"quantity"`
}

func (h *TablesHandler) List(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, h.tables.Tables())
}

func (h *TablesHandler) Get(w http.ResponseWriter, r *http.Request) {
	id, ok := tableID(w, r)
	if !ok {
		return
	}
	table, err := h.tables.Get(id)
	if err != nil {
		writeJSON(w, http.StatusNotFound, map[string]string{"error": "table not found"})
		return
	}
	writeJSON(w, http.StatusOK, table)
}

func (h *TablesHandler) Select(w http.ResponseWriter, r *http.Request) {
	id, ok := tableID(w, r)
	if !ok {
		return
	}
	table, err := h.tables.Select(id)
	if err != nil {
		writeJSON(w, http.StatusNotFound, map[string]string{"error": "table not found"})
		return
	}
	writeJSON(w, http.StatusOK, table)
}

func (h *TablesHandler) AddItem(w http.ResponseWriter, r *http.Request) {
	id, ok := tableID(w, r)
	if !ok {
		return
	}

	var req addItemRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeJSON(w, http.StatusBadRequest, map[string]string{"error": "invalid request body"})
		return
	}

	item, err := h.catalog.Get(req.ItemID)
	if err != nil {
		writeJSON(w, http.StatusBadRequest, map[string]string{"error": "unknown menu item"})
		return
	}

	table, err := h.tables.AddItem(id, item)
	if err != nil {
		writeJSON(w, http.StatusNotFound, map[string]string{"error": "table not found"})
		return
	}
	writeJSON(w, http.StatusOK, table)
}

func (h *TablesHandler) SetQuantity(w http.ResponseWriter, r *http.Request) {
	id, ok := tableID(w, r)
	if !ok {
		return
	}
	itemID, err := strconv.Atoi(chi.URLParam(r, "itemID"))
	if err != nil {
		writeJSON(w, http.StatusBadRequest, map[string]string{"error": "invalid item id"})
		return
	}

	var req setQuantityRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeJSON(w, http.StatusBadRequest, map[string]string{"error": "invalid request body"})
		return
	}

	table, err := h.tables.SetItemQuantity(id, itemID, req.Quantity)
	if err != nil {
		writeJSON(w, http.StatusNotFound, map[string]string{"error": "table not found"})
		return
	}
	writeJSON(w, http.StatusOK, table)
}

// Close frees a table the operator opened by mistake. Tables with items must
// go through billing instead.
func (h *TablesHandler) Close(w http.ResponseWriter, r *http.Request) {
	id, ok := tableID(w, r)
	if !ok {
		return
	}
	table, err := h.tables.Close(id)
	if err != nil {
		if errors.Is(err, session.ErrTableNotEmpty) {
			writeJSON(w, http.StatusConflict, map[string]string{"error": "table has unsettled items"})
			return
		}
		writeJSON(w, http.StatusNotFound, map[string]string{"error": "table not found"})
		return
	}
	writeJSON(w, http.StatusOK, table)
}

func tableID(w http.ResponseWriter, r *http.Request) (int, bool) {
	id, err := strconv.Atoi(chi.URLParam(r, "id"))
	if err != nil {
		writeJSON(w, http.StatusBadRequest, map[string]string{"error": "invalid table id"})
		return 0, false
	}
	return id, true
}
