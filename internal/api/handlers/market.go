package handlers

import (
	"encoding/json"
	"net/http"
	"strconv"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/shopspring/decimal"

	"github.com/ecotrade/ecotrade-backend/internal/api/httpx"
	"github.com/ecotrade/ecotrade-backend/internal/api/validate"
)

type listForSaleReq struct {
	PricePerUnit decimal.Decimal `json:"price_per_unit"`
	ExpiresAt    *time.Time      `json:"expires_at,omitempty"`
}

func (h *Handlers) ListForSale(w http.ResponseWriter, r *http.Request) {
	u, ok := actor(r)
	if !ok {
		httpx.WriteError(w, http.StatusUnauthorized, "unauthorized", "authentication required", nil)
		return
	}
	var req listForSaleReq
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		httpx.WriteError(w, http.StatusBadRequest, "bad_request", "bad request", nil)
		return
	}
	if e := validate.Positive("price_per_unit", req.PricePerUnit); e != nil {
		verrs := validate.Errs{*e}
		httpx.WriteError(w, http.StatusBadRequest, "validation_error", verrs.Error(), verrs)
		return
	}
	listing, err := h.Market.ListForSale(r.Context(), chi.URLParam(r, "id"), req.PricePerUnit, req.ExpiresAt, u)
	if err != nil {
		writeErr(w, err)
		return
	}
	httpx.WriteJSON(w, http.StatusCreated, listing)
}

func (h *Handlers) BuyCredit(w http.ResponseWriter, r *http.Request) {
	u, ok := actor(r)
	if !ok {
		httpx.WriteError(w, http.StatusUnauthorized, "unauthorized", "authentication required", nil)
		return
	}
	// Fetch the full user so the post-purchase notification has an address.
	buyer, err := h.Users.GetByID(r.Context(), u.ID)
	if err != nil {
		writeErr(w, err)
		return
	}
	txn, err := h.Market.Purchase(r.Context(), chi.URLParam(r, "id"), buyer)
	if err != nil {
		writeErr(w, err)
		return
	}
	httpx.WriteJSON(w, http.StatusCreated, txn)
}

func (h *Handlers) Marketplace(w http.ResponseWriter, r *http.Request) {
	limit, offset := paging(r, 10)
	items, err := h.Market.Marketplace(r.Context(), limit, offset)
	if err != nil {
		writeErr(w, err)
		return
	}
	httpx.WriteJSON(w, http.StatusOK, items)
}

func (h *Handlers) MyTransactions(w http.ResponseWriter, r *http.Request) {
	u, ok := actor(r)
	if !ok {
		httpx.WriteError(w, http.StatusUnauthorized, "unauthorized", "authentication required", nil)
		return
	}
	limit, offset := paging(r, 50)
	txns, err := h.Market.TransactionsFor(r.Context(), u.ID, limit, offset)
	if err != nil {
		writeErr(w, err)
		return
	}
	httpx.WriteJSON(w, http.StatusOK, txns)
}

func paging(r *http.Request, defLimit int) (limit, offset int) {
	limit = defLimit
	if v := r.URL.Query().Get("limit"); v != "" {
		if n, err := strconv.Atoi(v); err == nil && n > 0 {
			limit = n
		}
	}
	if v := r.URL.Query().Get("offset"); v != "" {
		if n, err := strconv.Atoi(v); err == nil && n >= 0 {
			offset = n
		}
	}
	return limit, offset
}
