package services

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/ecotrade/ecotrade-backend/internal/auth"
	"github.com/ecotrade/ecotrade-backend/internal/models"
)

func newUserService(f *fixture) *UserService {
	tm := auth.NewTokenManager("ecotrade-test", "access-secret", "refresh-secret", 15*time.Minute, 7*24*time.Hour)
	return NewUserService(f.store, tm)
}

func TestRegister(t *testing.T) {
	ctx := context.Background()

	t.Run("creates the user with an empty wallet", func(t *testing.T) {
		f := newFixture(t)
		svc := newUserService(f)

		u, err := svc.Register(ctx, "solarco", "solar@example.com", "s3cretpass", models.RoleProducer)
		require.NoError(t, err)
		assert.Equal(t, models.RoleProducer, u.Role)
		assert.NotEmpty(t, u.ID)
		assert.NotEmpty(t, u.PasswordHash)

		w, err := f.store.Wallets().Get(ctx, u.ID)
		require.NoError(t, err)
		assert.True(t, w.Balance.IsZero())
	})

	t.Run("defaults to the company role", func(t *testing.T) {
		f := newFixture(t)
		svc := newUserService(f)
		u, err := svc.Register(ctx, "someone", "someone@example.com", "s3cretpass", "")
		require.NoError(t, err)
		assert.Equal(t, models.RoleCompany, u.Role)
	})

	t.Run("rejects short passwords and duplicate emails", func(t *testing.T) {
		f := newFixture(t)
		svc := newUserService(f)

		_, err := svc.Register(ctx, "shorty", "short@example.com", "tiny", models.RoleCompany)
		assert.Error(t, err)

		_, err = svc.Register(ctx, "dupe", f.buyer.Email, "s3cretpass", models.RoleCompany)
		assert.Error(t, err)
	})
}

func TestLoginRefresh(t *testing.T) {
	ctx := context.Background()
	f := newFixture(t)
	svc := newUserService(f)

	u, err := svc.Register(ctx, "solarco", "solar@example.com", "s3cretpass", models.RoleProducer)
	require.NoError(t, err)

	t.Run("valid credentials yield a token pair", func(t *testing.T) {
		got, pair, err := svc.Login(ctx, "solar@example.com", "s3cretpass")
		require.NoError(t, err)
		assert.Equal(t, u.ID, got.ID)
		assert.NotEmpty(t, pair.AccessToken)
		assert.NotEmpty(t, pair.RefreshToken)
		assert.Greater(t, pair.ExpiresIn, time.Duration(0))

		next, err := svc.Refresh(ctx, pair.RefreshToken)
		require.NoError(t, err)
		assert.NotEmpty(t, next.AccessToken)
	})

	t.Run("wrong password is rejected", func(t *testing.T) {
		_, _, err := svc.Login(ctx, "solar@example.com", "wrongpass")
		assert.Error(t, err)
	})

	t.Run("access token is not a refresh token", func(t *testing.T) {
		_, pair, err := svc.Login(ctx, "solar@example.com", "s3cretpass")
		require.NoError(t, err)
		_, err = svc.Refresh(ctx, pair.AccessToken)
		assert.Error(t, err)
	})
}
