package postgres

import (
	"context"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/jackc/pgx/v5/pgxpool"

	repo "github.com/ecotrade/ecotrade-backend/internal/repository"
)

// querier is the subset of pgx satisfied by both *pgxpool.Pool and pgx.Tx,
// so the same repository code runs inside and outside a transaction.
type querier interface {
	Exec(ctx context.Context, sql string, args ...any) (pgconn.CommandTag, error)
	Query(ctx context.Context, sql string, args ...any) (pgx.Rows, error)
	QueryRow(ctx context.Context, sql string, args ...any) pgx.Row
}

type Store struct {
	pool *pgxpool.Pool
	q    querier
}

func NewStore(pool *pgxpool.Pool) *Store {
	return &Store{pool: pool, q: pool}
}

func (s *Store) Users() repo.Users               { return &usersRepo{s.q} }
func (s *Store) Wallets() repo.Wallets           { return &walletsRepo{s.q} }
func (s *Store) Credits() repo.Credits           { return &creditsRepo{s.q} }
func (s *Store) Listings() repo.Listings         { return &listingsRepo{s.q} }
func (s *Store) Transactions() repo.Transactions { return &transactionsRepo{s.q} }
func (s *Store) Ownership() repo.Ownership       { return &ownershipRepo{s.q} }
func (s *Store) AuditLogs() repo.AuditLogs       { return &auditLogsRepo{s.q} }

// WithTx runs fn against a Store bound to a single pgx transaction. Nested
// calls join the transaction already in progress.
func (s *Store) WithTx(ctx context.Context, fn func(repo.Store) error) error {
	if _, ok := s.q.(pgx.Tx); ok {
		return fn(s)
	}
	tx, err := s.pool.BeginTx(ctx, pgx.TxOptions{AccessMode: pgx.ReadWrite})
	if err != nil {
		return err
	}
	if err := fn(&Store{pool: s.pool, q: tx}); err != nil {
		_ = tx.Rollback(ctx)
		return err
	}
	return tx.Commit(ctx)
}
