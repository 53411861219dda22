package handlers

import (
	"encoding/json"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/shopspring/decimal"

	"github.com/ecotrade/ecotrade-backend/internal/api/httpx"
	"github.com/ecotrade/ecotrade-backend/internal/api/validate"
	"github.com/ecotrade/ecotrade-backend/internal/services"
)

type createCreditReq struct {
	Amount         decimal.Decimal `json:"amount"`
	Origin         string          `json:"origin"`
	GenerationDate string          `json:"generation_date"` // YYYY-MM-DD
	Unit           string          `json:"unit"`
}

func (h *Handlers) CreateCredit(w http.ResponseWriter, r *http.Request) {
	u, ok := actor(r)
	if !ok {
		httpx.WriteError(w, http.StatusUnauthorized, "unauthorized", "authentication required", nil)
		return
	}
	var req createCreditReq
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		httpx.WriteError(w, http.StatusBadRequest, "bad_request", "bad request", nil)
		return
	}
	var verrs validate.Errs
	if e := validate.Required("origin", req.Origin); e != nil {
		verrs = append(verrs, *e)
	}
	if e := validate.Required("generation_date", req.GenerationDate); e != nil {
		verrs = append(verrs, *e)
	}
	if e := validate.Positive("amount", req.Amount); e != nil {
		verrs = append(verrs, *e)
	}
	if len(verrs) > 0 {
		httpx.WriteError(w, http.StatusBadRequest, "validation_error", verrs.Error(), verrs)
		return
	}
	genDate, err := time.ParseInLocation("2006-01-02", req.GenerationDate, time.Local)
	if err != nil {
		httpx.WriteError(w, http.StatusBadRequest, "bad_request", "invalid generation_date", nil)
		return
	}
	credit, err := h.Credits.Create(r.Context(), services.CreateCreditInput{
		OwnerID:        u.ID,
		Amount:         req.Amount,
		Origin:         req.Origin,
		GenerationDate: genDate,
		Unit:           req.Unit,
	})
	if err != nil {
		writeErr(w, err)
		return
	}
	httpx.WriteJSON(w, http.StatusCreated, credit)
}

func (h *Handlers) GetCredit(w http.ResponseWriter, r *http.Request) {
	credit, err := h.Credits.Get(r.Context(), chi.URLParam(r, "id"))
	if err != nil {
		writeErr(w, err)
		return
	}
	httpx.WriteJSON(w, http.StatusOK, credit)
}

func (h *Handlers) MyCredits(w http.ResponseWriter, r *http.Request) {
	u, ok := actor(r)
	if !ok {
		httpx.WriteError(w, http.StatusUnauthorized, "unauthorized", "authentication required", nil)
		return
	}
	credits, err := h.Credits.ListByOwner(r.Context(), u.ID)
	if err != nil {
		writeErr(w, err)
		return
	}
	httpx.WriteJSON(w, http.StatusOK, credits)
}

// CreditHistory serves the public ownership timeline of a credit.
func (h *Handlers) CreditHistory(w http.ResponseWriter, r *http.Request) {
	entries, err := h.Credits.History(r.Context(), chi.URLParam(r, "id"))
	if err != nil {
		writeErr(w, err)
		return
	}
	httpx.WriteJSON(w, http.StatusOK, map[string]any{
		"history":         entries,
		"total_transfers": len(entries),
	})
}

func (h *Handlers) DeleteCredit(w http.ResponseWriter, r *http.Request) {
	u, ok := actor(r)
	if !ok {
		httpx.WriteError(w, http.StatusUnauthorized, "unauthorized", "authentication required", nil)
		return
	}
	if err := h.Credits.SoftDelete(r.Context(), chi.URLParam(r, "id"), u); err != nil {
		writeErr(w, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

// ---------------- auditor ----------------

func (h *Handlers) AuditorQueue(w http.ResponseWriter, r *http.Request) {
	u, ok := actor(r)
	if !ok {
		httpx.WriteError(w, http.StatusUnauthorized, "unauthorized", "authentication required", nil)
		return
	}
	credits, err := h.Credits.AuditorQueue(r.Context(), u, r.URL.Query().Get("tab"))
	if err != nil {
		writeErr(w, err)
		return
	}
	httpx.WriteJSON(w, http.StatusOK, credits)
}

type reviewReq struct {
	Action string `json:"action"` // start_review | approve | reject
	Notes  string `json:"notes"`
}

func (h *Handlers) ReviewCredit(w http.ResponseWriter, r *http.Request) {
	u, ok := actor(r)
	if !ok {
		httpx.WriteError(w, http.StatusUnauthorized, "unauthorized", "authentication required", nil)
		return
	}
	var req reviewReq
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		httpx.WriteError(w, http.StatusBadRequest, "bad_request", "bad request", nil)
		return
	}
	id := chi.URLParam(r, "id")

	var err error
	switch req.Action {
	case "start_review":
		err = h.Credits.StartReview(r.Context(), id, u)
	case "approve":
		err = h.Credits.Approve(r.Context(), id, u, req.Notes)
	case "reject":
		err = h.Credits.Reject(r.Context(), id, u, req.Notes)
	default:
		httpx.WriteError(w, http.StatusBadRequest, "bad_request", "unknown action", nil)
		return
	}
	if err != nil {
		writeErr(w, err)
		return
	}
	credit, err := h.Credits.Get(r.Context(), id)
	if err != nil {
		writeErr(w, err)
		return
	}
	httpx.WriteJSON(w, http.StatusOK, credit)
}
