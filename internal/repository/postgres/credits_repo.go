package postgres

import (
	"context"
	"errors"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"

	"github.com/ecotrade/ecotrade-backend/internal/models"
	repo "github.com/ecotrade/ecotrade-backend/internal/repository"
)

type creditsRepo struct{ q querier }

const creditCols = `id, owner_id, amount, origin, generation_date, unit, status,
	validation_status, validated_by, validated_at, auditor_notes, is_verified, is_deleted, created_at`

func scanCredit(row pgx.Row) (models.CarbonCredit, error) {
	var c models.CarbonCredit
	err := row.Scan(&c.ID, &c.OwnerID, &c.Amount, &c.Origin, &c.GenerationDate, &c.Unit,
		&c.Status, &c.ValidationStatus, &c.ValidatedByID, &c.ValidatedAt,
		&c.AuditorNotes, &c.IsVerified, &c.IsDeleted, &c.CreatedAt)
	if errors.Is(err, pgx.ErrNoRows) {
		return models.CarbonCredit{}, repo.ErrNotFound
	}
	return c, err
}

func scanCredits(rows pgx.Rows) ([]models.CarbonCredit, error) {
	defer rows.Close()
	var out []models.CarbonCredit
	for rows.Next() {
		var c models.CarbonCredit
		if err := rows.Scan(&c.ID, &c.OwnerID, &c.Amount, &c.Origin, &c.GenerationDate, &c.Unit,
			&c.Status, &c.ValidationStatus, &c.ValidatedByID, &c.ValidatedAt,
			&c.AuditorNotes, &c.IsVerified, &c.IsDeleted, &c.CreatedAt); err != nil {
			return nil, err
		}
		out = append(out, c)
	}
	return out, rows.Err()
}

func (r *creditsRepo) Create(ctx context.Context, c models.CarbonCredit) (models.CarbonCredit, error) {
	if c.ID == "" {
		c.ID = uuid.NewString()
	}
	return scanCredit(r.q.QueryRow(ctx,
		`INSERT INTO credits(id, owner_id, amount, origin, generation_date, unit, status, validation_status)
		 VALUES($1,$2,$3,$4,$5,$6,$7,$8)
		 RETURNING `+creditCols,
		c.ID, c.OwnerID, c.Amount, c.Origin, c.GenerationDate, c.Unit, c.Status, c.ValidationStatus,
	))
}

func (r *creditsRepo) GetByID(ctx context.Context, id string) (models.CarbonCredit, error) {
	return scanCredit(r.q.QueryRow(ctx,
		`SELECT `+creditCols+` FROM credits WHERE id=$1 AND is_deleted=FALSE`, id))
}

// GetByIDForUpdate takes the row lock that serializes concurrent purchases of
// the same credit.
func (r *creditsRepo) GetByIDForUpdate(ctx context.Context, id string) (models.CarbonCredit, error) {
	return scanCredit(r.q.QueryRow(ctx,
		`SELECT `+creditCols+` FROM credits WHERE id=$1 AND is_deleted=FALSE FOR UPDATE`, id))
}

func (r *creditsRepo) GetByIDAny(ctx context.Context, id string) (models.CarbonCredit, error) {
	return scanCredit(r.q.QueryRow(ctx,
		`SELECT `+creditCols+` FROM credits WHERE id=$1`, id))
}

func (r *creditsRepo) Update(ctx context.Context, c models.CarbonCredit) error {
	_, err := r.q.Exec(ctx,
		`UPDATE credits
		    SET owner_id=$2, status=$3, validation_status=$4, validated_by=$5,
		        validated_at=$6, auditor_notes=$7, is_verified=$8
		  WHERE id=$1`,
		c.ID, c.OwnerID, c.Status, c.ValidationStatus, c.ValidatedByID,
		c.ValidatedAt, c.AuditorNotes, c.IsVerified,
	)
	return err
}

func (r *creditsRepo) SoftDelete(ctx context.Context, id string) error {
	_, err := r.q.Exec(ctx, `UPDATE credits SET is_deleted=TRUE WHERE id=$1`, id)
	return err
}

func (r *creditsRepo) ListByOwner(ctx context.Context, ownerID string) ([]models.CarbonCredit, error) {
	rows, err := r.q.Query(ctx,
		`SELECT `+creditCols+` FROM credits
		  WHERE owner_id=$1 AND is_deleted=FALSE
		  ORDER BY created_at DESC`, ownerID)
	if err != nil {
		return nil, err
	}
	return scanCredits(rows)
}

// ListByValidationStatus lists non-deleted credits in the given validation
// state. When validatedBy is non-empty the result is narrowed to credits
// claimed by that auditor (the under-review tab).
func (r *creditsRepo) ListByValidationStatus(ctx context.Context, vs models.ValidationStatus, validatedBy string) ([]models.CarbonCredit, error) {
	rows, err := r.q.Query(ctx,
		`SELECT `+creditCols+` FROM credits
		  WHERE validation_status=$1 AND is_deleted=FALSE
		    AND ($2 = '' OR validated_by::text = $2)
		  ORDER BY created_at DESC`, vs, validatedBy)
	if err != nil {
		return nil, err
	}
	return scanCredits(rows)
}

func (r *creditsRepo) ListValidatedBy(ctx context.Context, auditorID string) ([]models.CarbonCredit, error) {
	rows, err := r.q.Query(ctx,
		`SELECT `+creditCols+` FROM credits
		  WHERE validated_by=$1 AND validation_status IN ('APPROVED','REJECTED') AND is_deleted=FALSE
		  ORDER BY validated_at DESC`, auditorID)
	if err != nil {
		return nil, err
	}
	return scanCredits(rows)
}

func (r *creditsRepo) ListApproved(ctx context.Context, f repo.CreditFilter) ([]models.CarbonCredit, int, error) {
	status := ""
	if f.Status != nil {
		status = string(*f.Status)
	}
	var total int
	if err := r.q.QueryRow(ctx,
		`SELECT count(*) FROM credits
		  WHERE validation_status='APPROVED' AND is_deleted=FALSE
		    AND ($1 = '' OR status::text = $1)`, status).Scan(&total); err != nil {
		return nil, 0, err
	}
	rows, err := r.q.Query(ctx,
		`SELECT `+creditCols+` FROM credits
		  WHERE validation_status='APPROVED' AND is_deleted=FALSE
		    AND ($1 = '' OR status::text = $1)
		  ORDER BY created_at DESC
		  LIMIT $2 OFFSET $3`, status, f.Limit, f.Offset)
	if err != nil {
		return nil, 0, err
	}
	out, err := scanCredits(rows)
	return out, total, err
}
