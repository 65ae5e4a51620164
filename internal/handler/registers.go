package handler

import (
	"encoding/json"
	"errors"
	"net/http"
	"strings"

	"github.com/go-chi/chi/v5"
	"github.com/shopspring/decimal"

	"github.com/caffeine-club/biller/internal/ledger"
)

// RegistersHandler exposes running register totals and the manual
// transaction log behind them.
type RegistersHandler struct {
	ledger *ledger.Service
}

func NewRegistersHandler(l *ledger.Service) *RegistersHandler {
	return &RegistersHandler{ledger: l}
}

func (h *RegistersHandler) RegisterRoutes(r chi.Router) {
	r.Get("/registers/{channel}", h.Total)
	r.Get("/transactions/{channel}", h.Transactions)
	r.Post("/transactions/{channel}", h.Record)
}

type manualTransactionRequest struct {
	Amount decimal.Decimal `json:"amount"`
	Reason string          `json:"reason"`
}

type registerResponse struct {
	Channel string          `json:"channel"`
	Total   decimal.Decimal `json:"total"`
}

func (h *RegistersHandler) Total(w http.ResponseWriter, r *http.Request) {
	channel := strings.ToUpper(chi.URLParam(r, "channel"))

	total, err := h.ledger.RegisterTotal(r.Context(), channel)
	if err != nil {
		if errors.Is(err, ledger.ErrInvalidChannel) {
			writeJSON(w, http.StatusBadRequest, map[string]string{"error": "invalid channel"})
			return
		}
		writeJSON(w, http.StatusInternalServerError, map[string]string{"error": "internal server error"})
		return
	}

	writeJSON(w, http.StatusOK, registerResponse{Channel: channel, Total: total})
}

func (h *RegistersHandler) Transactions(w http.ResponseWriter, r *http.Request) {
	channel := strings.ToUpper(chi.URLParam(r, "channel"))

	start, end, err := parseDateRange(r)
	if err != nil {
		writeJSON(w, http.StatusBadRequest, map[string]string{"error": err.Error()})
		return
	}

	txns, err := h.ledger.Transactions(r.Context(), channel, start, end)
	if err != nil {
		if errors.Is(err, ledger.ErrInvalidChannel) {
			writeJSON(w, http.StatusBadRequest, map[string]string{"error": "invalid channel"})
			return
		}
		writeJSON(w, http.StatusInternalServerError, map[string]string{"error": "internal server error"})
		return
	}

	writeJSON(w, http.StatusOK, txns)
}

// Record logs a manual register adjustment. Negative amounts withdraw.
func (h *RegistersHandler) Record(w http.ResponseWriter, r *http.Request) {
	channel := strings.ToUpper(chi.URLParam(r, "channel"))

	var req manualTransactionRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeJSON(w, http.StatusBadRequest, map[string]string{"error": "invalid request body"})
		return
	}

	txn, err := h.ledger.RecordManualTransaction(r.Context(), channel, req.Amount, req.Reason)
	if err != nil {
		switch {
		case errors.Is(err, ledger.ErrInvalidChannel):
			writeJSON(w, http.StatusBadRequest, map[string]string{"error": "invalid channel"})
		case errors.Is(err, ledger.ErrEmptyReason):
			writeJSON(w, http.StatusBadRequest, map[string]string{"error": "reason is required"})
		default:
			writeJSON(w, http.StatusInternalServerError, map[string]string{"error": "internal server error"})
		}
		return
	}

	writeJSON(w, http.StatusCreated, txn)
}
