package handler

import (
	"net/http"

	"github.com/go-chi/chi/v5"

	"github.com/caffeine-club/biller/internal/catalog"
)

// MenuHandler serves the embedded menu catalog.
type MenuHandler struct {
	catalog *catalog.Catalog
}

func NewMenuHandler(c *catalog.Catalog) *MenuHandler {
	return &MenuHandler{catalog: c}
}

func (h *MenuHandler) RegisterRoutes(r chi.Router) {
	r.Get("/menu", h.List)
	r.Get("/menu/categories", h.Categories)
}

// List returns all menu items, optionally filtered by ?category=.
func (h *MenuHandler) List(w http.ResponseWriter, r *http.Request) {
	category := r.URL.Query().Get("category")
	if category != "" {
		writeJSON(w, http.StatusOK, h.catalog.ItemsByCategory(category))
		return
	}
	writeJSON(w, http.StatusOK, h.catalog.Items())
}

func (h *MenuHandler) Categories(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, h.catalog.Categories())
}
