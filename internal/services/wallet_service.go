package services

import (
	"context"

	"github.com/shopspring/decimal"

	"github.com/ecotrade/ecotrade-backend/internal/models"
	repo "github.com/ecotrade/ecotrade-backend/internal/repository"
)

type WalletService struct {
	store repo.Store
}

func NewWalletService(store repo.Store) *WalletService {
	return &WalletService{store: store}
}

func (s *WalletService) Current(ctx context.Context, userID string) (models.Wallet, error) {
	return s.store.Wallets().GetOrCreate(ctx, userID)
}

// TopUp adds funds to a user's wallet. Administrative path, outside the
// purchase flow; the adjustment is a single atomic update so it cannot race
// a concurrent purchase debit into a lost write.
func (s *WalletService) TopUp(ctx context.Context, userID string, amount decimal.Decimal, actor models.User) (models.Wallet, error) {
	if actor.Role != models.RoleAdmin {
		return models.Wallet{}, models.ErrForbidden
	}
	if !amount.IsPositive() {
		return models.Wallet{}, models.ErrInvalidAmount
	}

	var out models.Wallet
	err := s.store.WithTx(ctx, func(st repo.Store) error {
		if _, err := st.Users().GetByID(ctx, userID); err != nil {
			return err
		}
		if _, err := st.Wallets().GetOrCreate(ctx, userID); err != nil {
			return err
		}
		w, err := st.Wallets().Add(ctx, userID, amount)
		if err != nil {
			return err
		}
		out = w
		return st.AuditLogs().Create(ctx, models.AuditLog{
			EntityType: "wallet",
			EntityID:   &userID,
			Action:     "top_up",
			Details:    map[string]any{"amount": amount.String(), "actor": actor.ID},
		})
	})
	return out, err
}
