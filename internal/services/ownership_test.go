package services

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/ecotrade/ecotrade-backend/internal/models"
)

func TestRecordOwnership(t *testing.T) {
	ctx := context.Background()

	t.Run("first record is a genesis entry", func(t *testing.T) {
		f := newFixture(t)
		c := f.newCredit(t, "10")

		history, err := f.store.Ownership().ListByCredit(ctx, c.ID)
		require.NoError(t, err)
		require.Len(t, history, 1)
		assert.Equal(t, models.TransferCreation, history[0].TransferType)
		assert.Nil(t, history[0].FromOwnerID)
		assert.Nil(t, history[0].TransactionID)
		assert.Nil(t, history[0].Price)
	})

	t.Run("re-recording an unchanged owner is a no-op", func(t *testing.T) {
		f := newFixture(t)
		c := f.newCredit(t, "10")

		require.NoError(t, RecordOwnership(ctx, f.store, c))
		require.NoError(t, RecordOwnership(ctx, f.store, c))

		history, err := f.store.Ownership().ListByCredit(ctx, c.ID)
		require.NoError(t, err)
		assert.Len(t, history, 1)
	})

	t.Run("backfills a genesis entry for credits predating the ledger", func(t *testing.T) {
		f := newFixture(t)
		c, err := f.store.Credits().Create(ctx, models.CarbonCredit{
			OwnerID: f.producer.ID,
			Amount:  dec("10"),
			Unit:    models.DefaultUnit,
			Origin:  "legacy import",
			Status:  models.TradingAvailable,
		})
		require.NoError(t, err)

		require.NoError(t, RecordOwnership(ctx, f.store, c))
		history, err := f.store.Ownership().ListByCredit(ctx, c.ID)
		require.NoError(t, err)
		require.Len(t, history, 1)
		assert.Equal(t, models.TransferCreation, history[0].TransferType)
		assert.Equal(t, f.producer.ID, history[0].ToOwnerID)
	})

	t.Run("owner change without a sale is a plain transfer", func(t *testing.T) {
		f := newFixture(t)
		c := f.newCredit(t, "10")
		c.OwnerID = f.buyer.ID
		require.NoError(t, f.store.Credits().Update(ctx, c))

		require.NoError(t, RecordOwnership(ctx, f.store, c))
		history, err := f.store.Ownership().ListByCredit(ctx, c.ID)
		require.NoError(t, err)
		require.Len(t, history, 2)
		entry := history[1]
		assert.Equal(t, models.TransferManual, entry.TransferType)
		require.NotNil(t, entry.FromOwnerID)
		assert.Equal(t, f.producer.ID, *entry.FromOwnerID)
		assert.Equal(t, f.buyer.ID, entry.ToOwnerID)
		assert.Nil(t, entry.TransactionID)
	})

	t.Run("sold credit links the completed transaction", func(t *testing.T) {
		f := newFixture(t)
		c := f.newCredit(t, "10")
		txn, err := f.store.Transactions().Create(ctx, models.Transaction{
			BuyerID:    f.buyer.ID,
			SellerID:   f.producer.ID,
			CreditID:   c.ID,
			Amount:     c.Amount,
			TotalPrice: dec("50"),
			Status:     models.TxnCompleted,
		})
		require.NoError(t, err)

		c.OwnerID = f.buyer.ID
		c.Status = models.TradingSold
		require.NoError(t, f.store.Credits().Update(ctx, c))
		require.NoError(t, RecordOwnership(ctx, f.store, c))

		history, err := f.store.Ownership().ListByCredit(ctx, c.ID)
		require.NoError(t, err)
		require.Len(t, history, 2)
		entry := history[1]
		assert.Equal(t, models.TransferSale, entry.TransferType)
		require.NotNil(t, entry.TransactionID)
		assert.Equal(t, txn.ID, *entry.TransactionID)
		require.NotNil(t, entry.Price)
		assert.True(t, entry.Price.Equal(dec("50")))
	})

	t.Run("chain links are contiguous", func(t *testing.T) {
		f := newFixture(t)
		third := f.seedUser(t, "third-owner", "third@example.com", models.RoleCompany)
		c := f.newCredit(t, "10")

		for _, next := range []string{f.buyer.ID, third.ID} {
			c.OwnerID = next
			require.NoError(t, f.store.Credits().Update(ctx, c))
			require.NoError(t, RecordOwnership(ctx, f.store, c))
		}

		history, err := f.store.Ownership().ListByCredit(ctx, c.ID)
		require.NoError(t, err)
		require.Len(t, history, 3)
		for i := 1; i < len(history); i++ {
			require.NotNil(t, history[i].FromOwnerID)
			assert.Equal(t, history[i-1].ToOwnerID, *history[i].FromOwnerID)
		}
	})
}
