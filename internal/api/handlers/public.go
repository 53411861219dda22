package handlers

import (
	"net/http"

	"github.com/go-chi/chi/v5"

	"github.com/ecotrade/ecotrade-backend/internal/api/httpx"
	"github.com/ecotrade/ecotrade-backend/internal/models"
	repo "github.com/ecotrade/ecotrade-backend/internal/repository"
)

// PublicCredits is the unauthenticated read-only projection of approved,
// non-deleted credits.
func (h *Handlers) PublicCredits(w http.ResponseWriter, r *http.Request) {
	limit, offset := paging(r, 100)
	f := repo.CreditFilter{Limit: limit, Offset: offset}
	if v := r.URL.Query().Get("status"); v != "" {
		st := models.TradingStatus(v)
		switch st {
		case models.TradingAvailable, models.TradingListed, models.TradingSold:
			f.Status = &st
		}
	}
	credits, total, err := h.Credits.PublicList(r.Context(), f)
	if err != nil {
		writeErr(w, err)
		return
	}
	var nextOffset *int
	if offset+len(credits) < total {
		n := offset + len(credits)
		nextOffset = &n
	}
	httpx.WriteJSON(w, http.StatusOK, map[string]any{
		"success":     true,
		"count":       len(credits),
		"total":       total,
		"limit":       limit,
		"offset":      offset,
		"next_offset": nextOffset,
		"data":        credits,
	})
}

func (h *Handlers) PublicCredit(w http.ResponseWriter, r *http.Request) {
	credit, err := h.Credits.Get(r.Context(), chi.URLParam(r, "id"))
	if err != nil || credit.ValidationStatus != models.ValidationApproved {
		httpx.WriteError(w, http.StatusNotFound, "not_found", "credit not found or not publicly available", nil)
		return
	}
	httpx.WriteJSON(w, http.StatusOK, map[string]any{"success": true, "data": credit})
}
