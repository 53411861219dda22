package services

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/ecotrade/ecotrade-backend/internal/models"
	repo "github.com/ecotrade/ecotrade-backend/internal/repository"
)

func TestWalletTopUp(t *testing.T) {
	ctx := context.Background()

	t.Run("admin funds a wallet", func(t *testing.T) {
		f := newFixture(t)
		w, err := f.wallets.TopUp(ctx, f.buyer.ID, dec("100.50"), f.admin)
		require.NoError(t, err)
		assert.True(t, w.Balance.Equal(dec("100.50")))

		w, err = f.wallets.TopUp(ctx, f.buyer.ID, dec("49.50"), f.admin)
		require.NoError(t, err)
		assert.True(t, w.Balance.Equal(dec("150")))
	})

	t.Run("only admins may top up", func(t *testing.T) {
		f := newFixture(t)
		_, err := f.wallets.TopUp(ctx, f.buyer.ID, dec("10"), f.producer)
		assert.ErrorIs(t, err, models.ErrForbidden)
		_, err = f.wallets.TopUp(ctx, f.buyer.ID, dec("10"), f.buyer)
		assert.ErrorIs(t, err, models.ErrForbidden)
	})

	t.Run("amount must be positive", func(t *testing.T) {
		f := newFixture(t)
		_, err := f.wallets.TopUp(ctx, f.buyer.ID, dec("0"), f.admin)
		assert.ErrorIs(t, err, models.ErrInvalidAmount)
		_, err = f.wallets.TopUp(ctx, f.buyer.ID, dec("-5"), f.admin)
		assert.ErrorIs(t, err, models.ErrInvalidAmount)
	})

	t.Run("unknown user is rejected", func(t *testing.T) {
		f := newFixture(t)
		_, err := f.wallets.TopUp(ctx, "no-such-user", dec("10"), f.admin)
		assert.ErrorIs(t, err, repo.ErrNotFound)
	})
}

func TestWalletCurrent(t *testing.T) {
	ctx := context.Background()
	f := newFixture(t)

	w, err := f.wallets.Current(ctx, f.buyer.ID)
	require.NoError(t, err)
	assert.True(t, w.Balance.IsZero(), "wallet is created lazily with a zero balance")
}
