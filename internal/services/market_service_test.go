package services

import (
	"context"
	"sync"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/ecotrade/ecotrade-backend/internal/models"
	repo "github.com/ecotrade/ecotrade-backend/internal/repository"
)

func TestPurchase(t *testing.T) {
	ctx := context.Background()

	t.Run("happy path moves money, ownership and state together", func(t *testing.T) {
		f := newFixture(t)
		f.fund(t, f.buyer.ID, "10000.00")
		credit, listing := f.approvedListing(t, "100.00", "50.00")
		require.True(t, listing.IsActive)

		txn, err := f.market.Purchase(ctx, credit.ID, f.buyer)
		require.NoError(t, err)

		assert.Equal(t, models.TxnCompleted, txn.Status)
		assert.True(t, txn.TotalPrice.Equal(dec("5000.00")), "total price %s", txn.TotalPrice)
		assert.Equal(t, f.buyer.ID, txn.BuyerID)
		assert.Equal(t, f.producer.ID, txn.SellerID)

		assert.True(t, f.balance(t, f.buyer.ID).Equal(dec("5000.00")))
		assert.True(t, f.balance(t, f.producer.ID).Equal(dec("5000.00")))

		got, err := f.credits.Get(ctx, credit.ID)
		require.NoError(t, err)
		assert.Equal(t, f.buyer.ID, got.OwnerID)
		assert.Equal(t, models.TradingSold, got.Status)

		_, err = f.store.Listings().GetActiveByCredit(ctx, credit.ID)
		assert.ErrorIs(t, err, repo.ErrNotFound, "listing must be deactivated")

		history, err := f.credits.History(ctx, credit.ID)
		require.NoError(t, err)
		require.Len(t, history, 2)
		sale := history[1]
		assert.Equal(t, models.TransferSale, sale.TransferType)
		require.NotNil(t, sale.FromOwnerID)
		assert.Equal(t, f.producer.ID, *sale.FromOwnerID)
		assert.Equal(t, f.buyer.ID, sale.ToOwnerID)
		require.NotNil(t, sale.TransactionID)
		assert.Equal(t, txn.ID, *sale.TransactionID)
		require.NotNil(t, sale.Price)
		assert.True(t, sale.Price.Equal(dec("5000.00")))
	})

	t.Run("unknown credit reads as not available", func(t *testing.T) {
		f := newFixture(t)
		_, err := f.market.Purchase(ctx, "no-such-credit", f.buyer)
		assert.ErrorIs(t, err, models.ErrNotAvailable)
	})

	t.Run("unlisted credit is not available", func(t *testing.T) {
		f := newFixture(t)
		c := f.newCredit(t, "10")
		require.NoError(t, f.credits.Approve(ctx, c.ID, f.auditor, "ok"))
		_, err := f.market.Purchase(ctx, c.ID, f.buyer)
		assert.ErrorIs(t, err, models.ErrNotAvailable)
	})

	t.Run("listed but unapproved credit cannot be bought", func(t *testing.T) {
		f := newFixture(t)
		f.fund(t, f.buyer.ID, "10000.00")
		c := f.newCredit(t, "10")
		_, err := f.market.ListForSale(ctx, c.ID, dec("5"), nil, f.producer)
		require.NoError(t, err)

		_, err = f.market.Purchase(ctx, c.ID, f.buyer)
		assert.ErrorIs(t, err, models.ErrNotValidated)
	})

	t.Run("listed status without active listing", func(t *testing.T) {
		f := newFixture(t)
		c := f.newCredit(t, "10")
		require.NoError(t, f.credits.Approve(ctx, c.ID, f.auditor, "ok"))
		c, err := f.credits.Get(ctx, c.ID)
		require.NoError(t, err)
		c.Status = models.TradingListed
		require.NoError(t, f.store.Credits().Update(ctx, c))

		_, err = f.market.Purchase(ctx, c.ID, f.buyer)
		assert.ErrorIs(t, err, models.ErrNoActiveListing)
	})

	t.Run("owner cannot buy own credit", func(t *testing.T) {
		f := newFixture(t)
		credit, _ := f.approvedListing(t, "10", "5")
		_, err := f.market.Purchase(ctx, credit.ID, f.producer)
		assert.ErrorIs(t, err, models.ErrSelfPurchase)
	})

	t.Run("insufficient funds rolls back everything", func(t *testing.T) {
		f := newFixture(t)
		f.fund(t, f.buyer.ID, "100.00")
		credit, _ := f.approvedListing(t, "100.00", "50.00")

		_, err := f.market.Purchase(ctx, credit.ID, f.buyer)
		assert.ErrorIs(t, err, models.ErrInsufficientFunds)

		got, err := f.credits.Get(ctx, credit.ID)
		require.NoError(t, err)
		assert.Equal(t, f.producer.ID, got.OwnerID)
		assert.Equal(t, models.TradingListed, got.Status)

		_, err = f.store.Listings().GetActiveByCredit(ctx, credit.ID)
		assert.NoError(t, err, "listing stays active")

		assert.True(t, f.balance(t, f.buyer.ID).Equal(dec("100.00")))

		txns, err := f.market.TransactionsFor(ctx, f.buyer.ID, 10, 0)
		require.NoError(t, err)
		assert.Empty(t, txns)

		history, err := f.credits.History(ctx, credit.ID)
		require.NoError(t, err)
		assert.Len(t, history, 1, "only the genesis entry")
	})

	t.Run("concurrent purchases of one credit produce one sale", func(t *testing.T) {
		f := newFixture(t)
		other := f.seedUser(t, "rival-corp", "rival@example.com", models.RoleCompany)
		f.fund(t, f.buyer.ID, "10000.00")
		f.fund(t, other.ID, "10000.00")
		credit, _ := f.approvedListing(t, "100.00", "50.00")

		errs := make([]error, 2)
		var wg sync.WaitGroup
		for i, buyer := range []models.User{f.buyer, other} {
			wg.Add(1)
			go func(i int, b models.User) {
				defer wg.Done()
				_, errs[i] = f.market.Purchase(ctx, credit.ID, b)
			}(i, buyer)
		}
		wg.Wait()

		var won, lost int
		for _, err := range errs {
			switch {
			case err == nil:
				won++
			case assert.ErrorIs(t, err, models.ErrNotAvailable):
				lost++
			}
		}
		assert.Equal(t, 1, won)
		assert.Equal(t, 1, lost)

		got, err := f.credits.Get(ctx, credit.ID)
		require.NoError(t, err)
		assert.Equal(t, models.TradingSold, got.Status)

		// Exactly one payment landed with the seller.
		assert.True(t, f.balance(t, f.producer.ID).Equal(dec("5000.00")))
	})

	t.Run("sold credit cannot be bought again", func(t *testing.T) {
		f := newFixture(t)
		other := f.seedUser(t, "late-corp", "late@example.com", models.RoleCompany)
		f.fund(t, f.buyer.ID, "10000.00")
		f.fund(t, other.ID, "10000.00")
		credit, _ := f.approvedListing(t, "100.00", "50.00")

		_, err := f.market.Purchase(ctx, credit.ID, f.buyer)
		require.NoError(t, err)

		_, err = f.market.Purchase(ctx, credit.ID, other)
		assert.ErrorIs(t, err, models.ErrNotAvailable)
	})
}

func TestListForSale(t *testing.T) {
	ctx := context.Background()

	t.Run("lists an available credit", func(t *testing.T) {
		f := newFixture(t)
		c := f.newCredit(t, "10")
		l, err := f.market.ListForSale(ctx, c.ID, dec("7.50"), nil, f.producer)
		require.NoError(t, err)
		assert.True(t, l.IsActive)
		assert.True(t, l.PricePerUnit.Equal(dec("7.50")))

		got, err := f.credits.Get(ctx, c.ID)
		require.NoError(t, err)
		assert.Equal(t, models.TradingListed, got.Status)
	})

	t.Run("price must be positive", func(t *testing.T) {
		f := newFixture(t)
		c := f.newCredit(t, "10")
		_, err := f.market.ListForSale(ctx, c.ID, dec("0"), nil, f.producer)
		assert.ErrorIs(t, err, models.ErrInvalidPrice)
	})

	t.Run("only the owning producer may list", func(t *testing.T) {
		f := newFixture(t)
		c := f.newCredit(t, "10")

		_, err := f.market.ListForSale(ctx, c.ID, dec("5"), nil, f.buyer)
		assert.ErrorIs(t, err, models.ErrForbidden)

		otherProducer := f.seedUser(t, "other-farm", "other@example.com", models.RoleProducer)
		_, err = f.market.ListForSale(ctx, c.ID, dec("5"), nil, otherProducer)
		assert.ErrorIs(t, err, models.ErrForbidden)
	})

	t.Run("already listed credit is rejected", func(t *testing.T) {
		f := newFixture(t)
		c := f.newCredit(t, "10")
		_, err := f.market.ListForSale(ctx, c.ID, dec("5"), nil, f.producer)
		require.NoError(t, err)

		_, err = f.market.ListForSale(ctx, c.ID, dec("6"), nil, f.producer)
		assert.ErrorIs(t, err, models.ErrInvalidState)
	})

	t.Run("stale active listing blocks relisting", func(t *testing.T) {
		f := newFixture(t)
		c := f.newCredit(t, "10")
		_, err := f.store.Listings().Create(ctx, models.CreditListing{
			CreditID:     c.ID,
			PricePerUnit: dec("5"),
			IsActive:     true,
		})
		require.NoError(t, err)

		_, err = f.market.ListForSale(ctx, c.ID, dec("6"), nil, f.producer)
		assert.ErrorIs(t, err, models.ErrDuplicateListing)
	})
}

func TestMarketplace(t *testing.T) {
	ctx := context.Background()
	f := newFixture(t)
	f.approvedListing(t, "10", "5")
	f.approvedListing(t, "20", "3")

	items, err := f.market.Marketplace(ctx, 10, 0)
	require.NoError(t, err)
	require.Len(t, items, 2)
	for _, it := range items {
		assert.True(t, it.Listing.IsActive)
		assert.Equal(t, models.TradingListed, it.Credit.Status)
		assert.Equal(t, it.Credit.ID, it.Listing.CreditID)
	}
}
