package handlers

import (
	"encoding/json"
	"net/http"

	"github.com/shopspring/decimal"

	"github.com/ecotrade/ecotrade-backend/internal/api/httpx"
)

func (h *Handlers) MyWallet(w http.ResponseWriter, r *http.Request) {
	u, ok := actor(r)
	if !ok {
		httpx.WriteError(w, http.StatusUnauthorized, "unauthorized", "authentication required", nil)
		return
	}
	wallet, err := h.Wallets.Current(r.Context(), u.ID)
	if err != nil {
		writeErr(w, err)
		return
	}
	httpx.WriteJSON(w, http.StatusOK, wallet)
}

type topUpReq struct {
	UserID string          `json:"user_id"`
	Amount decimal.Decimal `json:"amount"`
}

func (h *Handlers) TopUp(w http.ResponseWriter, r *http.Request) {
	u, ok := actor(r)
	if !ok {
		httpx.WriteError(w, http.StatusUnauthorized, "unauthorized", "authentication required", nil)
		return
	}
	var req topUpReq
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil || req.UserID == "" {
		httpx.WriteError(w, http.StatusBadRequest, "bad_request", "bad request", nil)
		return
	}
	wallet, err := h.Wallets.TopUp(r.Context(), req.UserID, req.Amount, u)
	if err != nil {
		writeErr(w, err)
		return
	}
	httpx.WriteJSON(w, http.StatusOK, wallet)
}
