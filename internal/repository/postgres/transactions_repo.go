package postgres

import (
	"context"
	"errors"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"

	"github.com/ecotrade/ecotrade-backend/internal/models"
	repo "github.com/ecotrade/ecotrade-backend/internal/repository"
)

type transactionsRepo struct{ q querier }

const txnCols = `id, buyer_id, seller_id, credit_id, amount, total_price, status, created_at`

func scanTxn(row pgx.Row) (models.Transaction, error) {
	var t models.Transaction
	err := row.Scan(&t.ID, &t.BuyerID, &t.SellerID, &t.CreditID, &t.Amount, &t.TotalPrice, &t.Status, &t.CreatedAt)
	if errors.Is(err, pgx.ErrNoRows) {
		return models.Transaction{}, repo.ErrNotFound
	}
	return t, err
}

func (r *transactionsRepo) Create(ctx context.Context, t models.Transaction) (models.Transaction, error) {
	if t.ID == "" {
		t.ID = uuid.NewString()
	}
	return scanTxn(r.q.QueryRow(ctx,
		`INSERT INTO transactions(id, buyer_id, seller_id, credit_id, amount, total_price, status)
		 VALUES($1,$2,$3,$4,$5,$6,$7)
		 RETURNING `+txnCols,
		t.ID, t.BuyerID, t.SellerID, t.CreditID, t.Amount, t.TotalPrice, t.Status,
	))
}

func (r *transactionsRepo) GetByID(ctx context.Context, id string) (models.Transaction, error) {
	return scanTxn(r.q.QueryRow(ctx, `SELECT `+txnCols+` FROM transactions WHERE id=$1`, id))
}

func (r *transactionsRepo) ListByUser(ctx context.Context, userID string, limit, offset int) ([]models.Transaction, error) {
	rows, err := r.q.Query(ctx,
		`SELECT `+txnCols+` FROM transactions
		  WHERE buyer_id=$1 OR seller_id=$1
		  ORDER BY created_at DESC
		  LIMIT $2 OFFSET $3`,
		userID, limit, offset)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var out []models.Transaction
	for rows.Next() {
		var t models.Transaction
		if err := rows.Scan(&t.ID, &t.BuyerID, &t.SellerID, &t.CreditID, &t.Amount, &t.TotalPrice, &t.Status, &t.CreatedAt); err != nil {
			return nil, err
		}
		out = append(out, t)
	}
	return out, rows.Err()
}

func (r *transactionsRepo) LatestCompleted(ctx context.Context, creditID, buyerID string) (models.Transaction, error) {
	return scanTxn(r.q.QueryRow(ctx,
		`SELECT `+txnCols+` FROM transactions
		  WHERE credit_id=$1 AND buyer_id=$2 AND status='COMPLETED'
		  ORDER BY created_at DESC
		  LIMIT 1`,
		creditID, buyerID))
}
