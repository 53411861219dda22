package repository

import (
	"context"
	"errors"

	"github.com/shopspring/decimal"

	"github.com/ecotrade/ecotrade-backend/internal/models"
)

// ErrNotFound is returned by lookups for rows that do not exist (or are
// soft-deleted, for queries that exclude deleted rows).
var ErrNotFound = errors.New("not found")

type Users interface {
	Create(ctx context.Context, u models.User) (models.User, error)
	GetByID(ctx context.Context, id string) (models.User, error)
	GetByEmail(ctx context.Context, email string) (models.User, error)
	GetByUsername(ctx context.Context, username string) (models.User, error)
	List(ctx context.Context) ([]models.User, error)
}

type Wallets interface {
	GetOrCreate(ctx context.Context, userID string) (models.Wallet, error)
	Get(ctx context.Context, userID string) (models.Wallet, error)
	// GetForUpdate locks the wallet row for the duration of the enclosing
	// transaction, creating it first if missing.
	GetForUpdate(ctx context.Context, userID string) (models.Wallet, error)
	// Add adjusts the balance by a positive amount.
	Add(ctx context.Context, userID string, amount decimal.Decimal) (models.Wallet, error)
	// Deduct subtracts amount, failing with models.ErrInsufficientFunds when
	// the balance does not cover it. The guard is part of the update itself.
	Deduct(ctx context.Context, userID string, amount decimal.Decimal) (models.Wallet, error)
}

// CreditFilter narrows credit list queries. Nil fields match everything.
type CreditFilter struct {
	Status           *models.TradingStatus
	ValidationStatus *models.ValidationStatus
	Limit            int
	Offset           int
}

type Credits interface {
	Create(ctx context.Context, c models.CarbonCredit) (models.CarbonCredit, error)
	// GetByID excludes soft-deleted credits.
	GetByID(ctx context.Context, id string) (models.CarbonCredit, error)
	// GetByIDForUpdate locks the credit row for the enclosing transaction.
	GetByIDForUpdate(ctx context.Context, id string) (models.CarbonCredit, error)
	// GetByIDAny returns the credit even when soft-deleted (admin/audit use).
	GetByIDAny(ctx context.Context, id string) (models.CarbonCredit, error)
	Update(ctx context.Context, c models.CarbonCredit) error
	SoftDelete(ctx context.Context, id string) error
	ListByOwner(ctx context.Context, ownerID string) ([]models.CarbonCredit, error)
	ListByValidationStatus(ctx context.Context, vs models.ValidationStatus, validatedBy string) ([]models.CarbonCredit, error)
	ListValidatedBy(ctx context.Context, auditorID string) ([]models.CarbonCredit, error)
	// ListApproved serves the public projection: approved, non-deleted credits.
	ListApproved(ctx context.Context, f CreditFilter) ([]models.CarbonCredit, int, error)
}

type Listings interface {
	Create(ctx context.Context, l models.CreditListing) (models.CreditListing, error)
	GetActiveByCredit(ctx context.Context, creditID string) (models.CreditListing, error)
	Deactivate(ctx context.Context, id string) error
	// ListActive returns active listings of LISTED, non-deleted credits.
	ListActive(ctx context.Context, limit, offset int) ([]models.MarketItem, error)
}

type Transactions interface {
	Create(ctx context.Context, t models.Transaction) (models.Transaction, error)
	GetByID(ctx context.Context, id string) (models.Transaction, error)
	ListByUser(ctx context.Context, userID string, limit, offset int) ([]models.Transaction, error)
	// LatestCompleted returns the newest COMPLETED transaction for the given
	// buyer and credit, used to link ledger entries to their sale.
	LatestCompleted(ctx context.Context, creditID, buyerID string) (models.Transaction, error)
}

type Ownership interface {
	Append(ctx context.Context, e models.OwnershipEntry) (models.OwnershipEntry, error)
	Last(ctx context.Context, creditID string) (models.OwnershipEntry, error)
	ListByCredit(ctx context.Context, creditID string) ([]models.OwnershipEntry, error)
}

type AuditLogs interface {
	Create(ctx context.Context, l models.AuditLog) error
}

// Store aggregates the repositories behind one handle. WithTx runs fn against
// a Store bound to a single database transaction: every repository call made
// through that Store commits or rolls back as one unit. Calls on the outer
// Store execute with auto-commit semantics.
type Store interface {
	Users() Users
	Wallets() Wallets
	Credits() Credits
	Listings() Listings
	Transactions() Transactions
	Ownership() Ownership
	AuditLogs() AuditLogs
	WithTx(ctx context.Context, fn func(Store) error) error
}
