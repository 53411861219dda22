package postgres

import (
	"context"
	"errors"

	"github.com/jackc/pgx/v5"
	"github.com/shopspring/decimal"

	"github.com/ecotrade/ecotrade-backend/internal/models"
	repo "github.com/ecotrade/ecotrade-backend/internal/repository"
)

type walletsRepo struct{ q querier }

func scanWallet(row pgx.Row) (models.Wallet, error) {
	var w models.Wallet
	err := row.Scan(&w.UserID, &w.Balance, &w.LastUpdatedAt)
	if errors.Is(err, pgx.ErrNoRows) {
		return models.Wallet{}, repo.ErrNotFound
	}
	return w, err
}

func (r *walletsRepo) GetOrCreate(ctx context.Context, userID string) (models.Wallet, error) {
	if w, err := r.Get(ctx, userID); err == nil {
		return w, nil
	}
	_, err := r.q.Exec(ctx,
		`INSERT INTO wallets(user_id, balance, last_updated_at)
		 VALUES($1, 0, now())
		 ON CONFLICT (user_id) DO NOTHING`,
		userID,
	)
	if err != nil {
		return models.Wallet{}, err
	}
	return r.Get(ctx, userID)
}

func (r *walletsRepo) Get(ctx context.Context, userID string) (models.Wallet, error) {
	return scanWallet(r.q.QueryRow(ctx,
		`SELECT user_id, balance, last_updated_at FROM wallets WHERE user_id=$1`, userID))
}

// GetForUpdate locks the wallet row until the enclosing transaction ends.
func (r *walletsRepo) GetForUpdate(ctx context.Context, userID string) (models.Wallet, error) {
	_, err := r.q.Exec(ctx,
		`INSERT INTO wallets(user_id, balance, last_updated_at)
		 VALUES($1, 0, now())
		 ON CONFLICT (user_id) DO NOTHING`,
		userID,
	)
	if err != nil {
		return models.Wallet{}, err
	}
	return scanWallet(r.q.QueryRow(ctx,
		`SELECT user_id, balance, last_updated_at FROM wallets WHERE user_id=$1 FOR UPDATE`, userID))
}

func (r *walletsRepo) Add(ctx context.Context, userID string, amount decimal.Decimal) (models.Wallet, error) {
	return scanWallet(r.q.QueryRow(ctx,
		`UPDATE wallets
		    SET balance = balance + $2,
		        last_updated_at = now()
		  WHERE user_id = $1
		  RETURNING user_id, balance, last_updated_at`,
		userID, amount,
	))
}

// Deduct applies the insufficient-funds guard inside the UPDATE itself, so a
// balance shrunk by a concurrent writer cannot slip past the earlier check.
func (r *walletsRepo) Deduct(ctx context.Context, userID string, amount decimal.Decimal) (models.Wallet, error) {
	w, err := scanWallet(r.q.QueryRow(ctx,
		`UPDATE wallets
		    SET balance = balance - $2,
		        last_updated_at = now()
		  WHERE user_id = $1 AND balance >= $2
		  RETURNING user_id, balance, last_updated_at`,
		userID, amount,
	))
	if errors.Is(err, repo.ErrNotFound) {
		return models.Wallet{}, models.ErrInsufficientFunds
	}
	return w, err
}
