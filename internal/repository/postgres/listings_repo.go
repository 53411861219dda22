package postgres

import (
	"context"
	"errors"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"

	"github.com/ecotrade/ecotrade-backend/internal/models"
	repo "github.com/ecotrade/ecotrade-backend/internal/repository"
)

type listingsRepo struct{ q querier }

const listingCols = `id, credit_id, price_per_unit, listed_at, expires_at, is_active`

func scanListing(row pgx.Row) (models.CreditListing, error) {
	var l models.CreditListing
	err := row.Scan(&l.ID, &l.CreditID, &l.PricePerUnit, &l.ListedAt, &l.ExpiresAt, &l.IsActive)
	if errors.Is(err, pgx.ErrNoRows) {
		return models.CreditListing{}, repo.ErrNotFound
	}
	return l, err
}

func (r *listingsRepo) Create(ctx context.Context, l models.CreditListing) (models.CreditListing, error) {
	if l.ID == "" {
		l.ID = uuid.NewString()
	}
	// A partial unique index on (credit_id) WHERE is_active backs the
	// one-active-listing rule; concurrent inserts lose here, not later.
	created, err := scanListing(r.q.QueryRow(ctx,
		`INSERT INTO listings(id, credit_id, price_per_unit, expires_at, is_active)
		 VALUES($1,$2,$3,$4,$5)
		 RETURNING `+listingCols,
		l.ID, l.CreditID, l.PricePerUnit, l.ExpiresAt, l.IsActive,
	))
	var pgErr interface{ SQLState() string }
	if errors.As(err, &pgErr) && pgErr.SQLState() == "23505" {
		return models.CreditListing{}, models.ErrDuplicateListing
	}
	return created, err
}

func (r *listingsRepo) GetActiveByCredit(ctx context.Context, creditID string) (models.CreditListing, error) {
	return scanListing(r.q.QueryRow(ctx,
		`SELECT `+listingCols+` FROM listings WHERE credit_id=$1 AND is_active=TRUE`, creditID))
}

func (r *listingsRepo) Deactivate(ctx context.Context, id string) error {
	_, err := r.q.Exec(ctx, `UPDATE listings SET is_active=FALSE WHERE id=$1`, id)
	return err
}

func (r *listingsRepo) ListActive(ctx context.Context, limit, offset int) ([]models.MarketItem, error) {
	rows, err := r.q.Query(ctx,
		`SELECT l.id, l.credit_id, l.price_per_unit, l.listed_at, l.expires_at, l.is_active,
		        c.id, c.owner_id, c.amount, c.origin, c.generation_date, c.unit, c.status,
		        c.validation_status, c.validated_by, c.validated_at, c.auditor_notes,
		        c.is_verified, c.is_deleted, c.created_at
		   FROM listings l
		   JOIN credits c ON c.id = l.credit_id
		  WHERE l.is_active=TRUE AND c.status='LISTED' AND c.is_deleted=FALSE
		  ORDER BY l.listed_at DESC
		  LIMIT $1 OFFSET $2`, limit, offset)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var out []models.MarketItem
	for rows.Next() {
		var it models.MarketItem
		l, c := &it.Listing, &it.Credit
		if err := rows.Scan(&l.ID, &l.CreditID, &l.PricePerUnit, &l.ListedAt, &l.ExpiresAt, &l.IsActive,
			&c.ID, &c.OwnerID, &c.Amount, &c.Origin, &c.GenerationDate, &c.Unit, &c.Status,
			&c.ValidationStatus, &c.ValidatedByID, &c.ValidatedAt, &c.AuditorNotes,
			&c.IsVerified, &c.IsDeleted, &c.CreatedAt); err != nil {
			return nil, err
		}
		out = append(out, it)
	}
	return out, rows.Err()
}
