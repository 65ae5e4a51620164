package handler

import (
	"encoding/json"
	"errors"
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/shopspring/decimal"

	"github.com/caffeine-club/biller/internal/enum"
	"github.com/caffeine-club/biller/internal/ledger"
	"github.com/caffeine-club/biller/internal/store"
)

// BillsHandler serves bill history and pending-bill settlement.
type BillsHandler struct {
	ledger *ledger.Service
}

func NewBillsHandler(l *ledger.Service) *BillsHandler {
	return &BillsHandler{ledger: l}
}

func (h *BillsHandler) RegisterRoutes(r chi.Router) {
	r.Get("/bills", h.List)
	r.Get("/bills/pending", h.ListPending)
	r.Post("/bills/{id}/settle", h.Settle)
}

type billListResponse struct {
	Bills   []store.Bill    `json:"bills"`
	Count   int             `json:"count"`
	Total   decimal.Decimal `json:"total"`
	Cash    decimal.Decimal `json:"cash"`
	Upi     decimal.Decimal `json:"upi"`
	Pending decimal.Decimal `json:"pending"`
}

type settleRequest struct {
	Cash decimal.Decimal `json:"cash"`
	Upi  decimal.Decimal `json:"upi"`
}

// List returns bills in the requested date range with summary totals.
func (h *BillsHandler) List(w http.ResponseWriter, r *http.Request) {
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

	writeJSON(w, http.StatusOK, summarize(bills))
}

func (h *BillsHandler) ListPending(w http.ResponseWriter, r *http.Request) {
	start, end, err := parseDateRange(r)
	if err != nil {
		writeJSON(w, http.StatusBadRequest, map[string]string{"error": err.Error()})
		return
	}

	bills, err := h.ledger.PendingBills(r.Context(), start, end)
	if err != nil {
		writeJSON(w, http.StatusInternalServerError, map[string]string{"error": "internal server error"})
		return
	}

	writeJSON(w, http.StatusOK, summarize(bills))
}

// Settle marks a pending bill paid. The cash and upi amounts must add up to
// the bill total exactly.
func (h *BillsHandler) Settle(w http.ResponseWriter, r *http.Request) {
	id, err := uuid.Parse(chi.URLParam(r, "id"))
	if err != nil {
		writeJSON(w, http.StatusBadRequest, map[string]string{"error": "invalid bill id"})
		return
	}

	var req settleRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeJSON(w, http.StatusBadRequest, map[string]string{"error": "invalid request body"})
		return
	}

	bill, err := h.ledger.SettlePendingBill(r.Context(), id, req.Cash, req.Upi)
	if err != nil {
		switch {
		case errors.Is(err, pgx.ErrNoRows):
			writeJSON(w, http.StatusNotFound, map[string]string{"error": "bill not found"})
		case errors.Is(err, ledger.ErrNotPending):
			writeJSON(w, http.StatusConflict, map[string]string{"error": "bill is not pending"})
		case errors.Is(err, ledger.ErrSettleMismatch),
			errors.Is(err, ledger.ErrNegativePortion),
			errors.Is(err, ledger.ErrNegativeComponent):
			writeJSON(w, http.StatusBadRequest, map[string]string{"error": err.Error()})
		default:
			writeJSON(w, http.StatusInternalServerError, map[string]string{"error": "internal server error"})
		}
		return
	}

	writeJSON(w, http.StatusOK, bill)
}

func summarize(bills []store.Bill) billListResponse {
	resp := billListResponse{
		Bills:   bills,
		Count:   len(bills),
		Total:   decimal.Zero,
		Cash:    decimal.Zero,
		Upi:     decimal.Zero,
		Pending: decimal.Zero,
	}
	for _, b := range bills {
		resp.Total = resp.Total.Add(b.Total)
		resp.Cash = resp.Cash.Add(b.Cash)
		resp.Upi = resp.Upi.Add(b.Upi)
		if b.Status == enum.BillStatusPending {
			resp.Pending = resp.Pending.Add(b.Total)
		}
	}
	return resp
}
