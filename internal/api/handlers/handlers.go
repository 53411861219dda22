package handlers

import (
	"errors"
	"net/http"

	"github.com/ecotrade/ecotrade-backend/internal/api/httpx"
	"github.com/ecotrade/ecotrade-backend/internal/middleware"
	"github.com/ecotrade/ecotrade-backend/internal/models"
	repo "github.com/ecotrade/ecotrade-backend/internal/repository"
	"github.com/ecotrade/ecotrade-backend/internal/services"
)

type Handlers struct {
	Users   *services.UserService
	Credits *services.CreditService
	Market  *services.MarketService
	Wallets *services.WalletService
}

func New(us *services.UserService, cs *services.CreditService, ms *services.MarketService, ws *services.WalletService) *Handlers {
	return &Handlers{Users: us, Credits: cs, Market: ms, Wallets: ws}
}

// actor builds the acting user from the request's token claims. The services
// re-validate role and ownership invariants themselves.
func actor(r *http.Request) (models.User, bool) {
	claims, ok := middleware.GetClaims(r.Context())
	if !ok {
		return models.User{}, false
	}
	return models.User{ID: claims.UserID, Role: models.Role(claims.Role)}, true
}

// writeErr maps domain errors onto HTTP statuses and the JSON error envelope.
func writeErr(w http.ResponseWriter, err error) {
	switch {
	case errors.Is(err, repo.ErrNotFound):
		httpx.WriteError(w, http.StatusNotFound, "not_found", "not found", nil)
	case errors.Is(err, models.ErrForbidden):
		httpx.WriteError(w, http.StatusForbidden, "forbidden", err.Error(), nil)
	case errors.Is(err, models.ErrInsufficientFunds):
		httpx.WriteError(w, http.StatusPaymentRequired, "insufficient_funds", err.Error(), nil)
	case errors.Is(err, models.ErrInvalidAmount),
		errors.Is(err, models.ErrFutureGenerationDate),
		errors.Is(err, models.ErrInvalidPrice),
		errors.Is(err, models.ErrMissingNotes):
		httpx.WriteError(w, http.StatusBadRequest, "validation_error", err.Error(), nil)
	case errors.Is(err, models.ErrInvalidState),
		errors.Is(err, models.ErrDuplicateListing),
		errors.Is(err, models.ErrNotAvailable),
		errors.Is(err, models.ErrNotValidated),
		errors.Is(err, models.ErrNoActiveListing),
		errors.Is(err, models.ErrSelfPurchase):
		httpx.WriteError(w, http.StatusConflict, "conflict", err.Error(), nil)
	default:
		httpx.WriteError(w, http.StatusInternalServerError, "internal_error", "internal error", nil)
	}
}
