package handler

import (
	"encoding/json"
	"errors"
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/shopspring/decimal"

	"github.com/caffeine-club/biller/internal/billing"
	"github.com/caffeine-club/biller/internal/session"
)

// BillingHandler drives the settlement flow for the till.
type BillingHandler struct {
	engine *billing.Engine
}

func NewBillingHandler(engine *billing.Engine) *BillingHandler {
	return &BillingHandler{engine: engine}
}

func (h *BillingHandler) RegisterRoutes(r chi.Router) {
	r.Post("/billing/generate", h.Generate)
	r.Get("/billing/current", h.Current)
	r.Post("/billing/method", h.ChooseMethod)
	r.Post("/billing/cash-split", h.CashSplit)
	r.Post("/billing/upi-confirm", h.ConfirmUpi)
	r.Post("/billing/pending-contact", h.PendingContact)
	r.Post("/billing/cancel", h.Cancel)
}

type generateRequest struct {
	TableID int `json:"table_id"`
}

type methodRequest struct {
	Method string `json:"method"`
}

type cashSplitRequest struct {
	Cash decimal.Decimal `json:"cash"`
}

type contactRequest struct {
	Contact string `json:"contact"`
}

type generateResponse struct {
	Closed bool          `json:"closed"`
	Flow   *billing.Flow `json:"flow,omitempty"`
}

// Generate starts a settlement flow for the table. Empty tables close on the
// spot with no bill created.
func (h *BillingHandler) Generate(w http.ResponseWriter, r *http.Request) {
	var req generateRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeJSON(w, http.StatusBadRequest, map[string]string{"error": "invalid request body"})
		return
	}

	flow, closed, err := h.engine.GenerateBill(r.Context(), req.TableID)
	if err != nil {
		h.writeEngineError(w, err)
		return
	}
	if closed {
		writeJSON(w, http.StatusOK, generateResponse{Closed: true})
		return
	}
	writeJSON(w, http.StatusOK, generateResponse{Flow: &flow})
}

func (h *BillingHandler) Current(w http.ResponseWriter, r *http.Request) {
	flow, ok := h.engine.Current()
	if !ok {
		writeJSON(w, http.StatusNotFound, map[string]string{"error": "no billing flow in progress"})
		return
	}
	writeJSON(w, http.StatusOK, flow)
}

func (h *BillingHandler) ChooseMethod(w http.ResponseWriter, r *http.Request) {
	var req methodRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeJSON(w, http.StatusBadRequest, map[string]string{"error": "invalid request body"})
		return
	}

	flow, err := h.engine.ChooseMethod(r.Context(), req.Method)
	if err != nil {
		h.writeEngineError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, flow)
}

func (h *BillingHandler) CashSplit(w http.ResponseWriter, r *http.Request) {
	var req cashSplitRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeJSON(w, http.StatusBadRequest, map[string]string{"error": "invalid request body"})
		return
	}

	flow, err := h.engine.SubmitCashSplit(r.Context(), req.Cash)
	if err != nil {
		h.writeEngineError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, flow)
}

func (h *BillingHandler) ConfirmUpi(w http.ResponseWriter, r *http.Request) {
	flow, err := h.engine.ConfirmUpiPaid(r.Context())
	if err != nil {
		h.writeEngineError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, flow)
}

func (h *BillingHandler) PendingContact(w http.ResponseWriter, r *http.Request) {
	var req contactRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeJSON(w, http.StatusBadRequest, map[string]string{"error": "invalid request body"})
		return
	}

	flow, err := h.engine.SubmitPendingContact(r.Context(), req.Contact)
	if err != nil {
		h.writeEngineError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, flow)
}

func (h *BillingHandler) Cancel(w http.ResponseWriter, r *http.Request) {
	if err := h.engine.Cancel(); err != nil {
		h.writeEngineError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]string{"status": "canceled"})
}

func (h *BillingHandler) writeEngineError(w http.ResponseWriter, err error) {
	switch {
	case errors.Is(err, billing.ErrNoActiveFlow):
		writeJSON(w, http.StatusConflict, map[string]string{"error": err.Error()})
	case errors.Is(err, billing.ErrFlowInProgress), errors.Is(err, billing.ErrWrongState):
		writeJSON(w, http.StatusConflict, map[string]string{"error": err.Error()})
	case errors.Is(err, billing.ErrInvalidMethod),
		errors.Is(err, billing.ErrInvalidSplit),
		errors.Is(err, billing.ErrEmptyContact):
		writeJSON(w, http.StatusBadRequest, map[string]string{"error": err.Error()})
	case errors.Is(err, session.ErrTableNotFound):
		writeJSON(w, http.StatusNotFound, map[string]string{"error": "table not found"})
	default:
		writeJSON(w, http.StatusInternalServerError, map[string]string{"error": "internal server error"})
	}
}
