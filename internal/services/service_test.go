package services

import (
	"context"
	"testing"
	"time"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/require"

	"github.com/ecotrade/ecotrade-backend/internal/models"
	"github.com/ecotrade/ecotrade-backend/internal/notify"
	"github.com/ecotrade/ecotrade-backend/internal/repository/memory"
	"github.com/ecotrade/ecotrade-backend/internal/worker"
)

type fixture struct {
	store   *memory.Store
	credits *CreditService
	market  *MarketService
	wallets *WalletService

	producer models.User
	buyer    models.User
	auditor  models.User
	admin    models.User
}

func newFixture(t *testing.T) *fixture {
	t.Helper()
	store := memory.NewStore()
	wp := worker.NewPool(1)
	t.Cleanup(wp.Stop)

	f := &fixture{
		store:   store,
		credits: NewCreditService(store, wp, notify.LogNotifier{}),
		market:  NewMarketService(store, wp, notify.LogNotifier{}),
		wallets: NewWalletService(store),
	}
	f.producer = f.seedUser(t, "greenfields", "producer@example.com", models.RoleProducer)
	f.buyer = f.seedUser(t, "acme-corp", "buyer@example.com", models.RoleCompany)
	f.auditor = f.seedUser(t, "verify-co", "auditor@example.com", models.RoleAuditor)
	f.admin = f.seedUser(t, "root", "admin@example.com", models.RoleAdmin)
	return f
}

func (f *fixture) seedUser(t *testing.T, username, email string, role models.Role) models.User {
	t.Helper()
	u, err := f.store.Users().Create(context.Background(), models.User{
		Username: username,
		Email:    email,
		Role:     role,
	})
	require.NoError(t, err)
	return u
}

func (f *fixture) fund(t *testing.T, userID, amount string) {
	t.Helper()
	_, err := f.wallets.TopUp(context.Background(), userID, dec(amount), f.admin)
	require.NoError(t, err)
}

// newCredit creates a PENDING credit owned by the fixture producer.
func (f *fixture) newCredit(t *testing.T, amount string) models.CarbonCredit {
	t.Helper()
	c, err := f.credits.Create(context.Background(), CreateCreditInput{
		OwnerID:        f.producer.ID,
		Amount:         dec(amount),
		Origin:         "Wind farm, Izmir",
		GenerationDate: time.Now().AddDate(0, -2, 0),
	})
	require.NoError(t, err)
	return c
}

// approvedListing creates a credit, approves it and puts it on the market.
func (f *fixture) approvedListing(t *testing.T, amount, price string) (models.CarbonCredit, models.CreditListing) {
	t.Helper()
	ctx := context.Background()
	c := f.newCredit(t, amount)
	require.NoError(t, f.credits.Approve(ctx, c.ID, f.auditor, "verified"))
	l, err := f.market.ListForSale(ctx, c.ID, dec(price), nil, f.producer)
	require.NoError(t, err)
	c, err = f.credits.Get(ctx, c.ID)
	require.NoError(t, err)
	return c, l
}

func (f *fixture) balance(t *testing.T, userID string) decimal.Decimal {
	t.Helper()
	w, err := f.store.Wallets().Get(context.Background(), userID)
	require.NoError(t, err)
	return w.Balance
}

func dec(s string) decimal.Decimal { return decimal.RequireFromString(s) }
