package postgres

import (
	"context"
	"errors"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"

	"github.com/ecotrade/ecotrade-backend/internal/models"
	repo "github.com/ecotrade/ecotrade-backend/internal/repository"
)

type ownershipRepo struct{ q querier }

const ownershipCols = `id, credit_id, from_owner_id, to_owner_id, transfer_type, transaction_id, price, notes, created_at`

func scanEntry(row pgx.Row) (models.OwnershipEntry, error) {
	var e models.OwnershipEntry
	err := row.Scan(&e.ID, &e.CreditID, &e.FromOwnerID, &e.ToOwnerID, &e.TransferType,
		&e.TransactionID, &e.Price, &e.Notes, &e.CreatedAt)
	if errors.Is(err, pgx.ErrNoRows) {
		return models.OwnershipEntry{}, repo.ErrNotFound
	}
	return e, err
}

func (r *ownershipRepo) Append(ctx context.Context, e models.OwnershipEntry) (models.OwnershipEntry, error) {
	if e.ID == "" {
		e.ID = uuid.NewString()
	}
	return scanEntry(r.q.QueryRow(ctx,
		`INSERT INTO credit_ownership_history(id, credit_id, from_owner_id, to_owner_id, transfer_type, transaction_id, price, notes)
		 VALUES($1,$2,$3,$4,$5,$6,$7,$8)
		 RETURNING `+ownershipCols,
		e.ID, e.CreditID, e.FromOwnerID, e.ToOwnerID, e.TransferType, e.TransactionID, e.Price, e.Notes,
	))
}

func (r *ownershipRepo) Last(ctx context.Context, creditID string) (models.OwnershipEntry, error) {
	return scanEntry(r.q.QueryRow(ctx,
		`SELECT `+ownershipCols+` FROM credit_ownership_history
		  WHERE credit_id=$1
		  ORDER BY created_at DESC, id DESC
		  LIMIT 1`, creditID))
}

func (r *ownershipRepo) ListByCredit(ctx context.Context, creditID string) ([]models.OwnershipEntry, error) {
	rows, err := r.q.Query(ctx,
		`SELECT `+ownershipCols+` FROM credit_ownership_history
		  WHERE credit_id=$1
		  ORDER BY created_at ASC, id ASC`, creditID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var out []models.OwnershipEntry
	for rows.Next() {
		var e models.OwnershipEntry
		if err := rows.Scan(&e.ID, &e.CreditID, &e.FromOwnerID, &e.ToOwnerID, &e.TransferType,
			&e.TransactionID, &e.Price, &e.Notes, &e.CreatedAt); err != nil {
			return nil, err
		}
		out = append(out, e)
	}
	return out, rows.Err()
}
