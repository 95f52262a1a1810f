package store

import (
	"context"
	"errors"
	"fmt"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/jackc/pgx/v5/pgxpool"
)

// DBTX abstracts over a pool or an open transaction.
type DBTX interface {
	Exec(ctx context.Context, sql string, args ...any) (pgconn.CommandTag, error)
	Query(ctx context.Context, sql string, args ...any) (pgx.Rows, error)
	QueryRow(ctx context.Context, sql string, args ...any) pgx.Row
}

// Store provides access to the persistence layer.
type Store struct {
	db   DBTX
	pool *pgxpool.Pool
}

// New constructs a store backed by a pgx pool.
func New(pool *pgxpool.Pool) *Store {
	return &Store{db: pool, pool: pool}
}

// withConn returns a store bound to the given connection or transaction.
func (s *Store) withConn(db DBTX) *Store {
	return &Store{db: db, pool: s.pool}
}

// WithTx runs fn inside a transaction, committing on success and rolling back on error.
func (s *Store) WithTx(ctx context.Context, fn func(q *Store) error) error {
	if s.pool == nil {
		return errors.New("store: transactions require a pool-backed store")
	}
	tx, err := s.pool.Begin(ctx)
	if err != nil {
		return fmt.Errorf("begin tx: %w", err)
	}
	defer func() { _ = tx.Rollback(ctx) }()

	if err := fn(s.withConn(tx)); err != nil {
		return err
	}
	if err := tx.Commit(ctx); err != nil {
		return fmt.Errorf("commit tx: %w", err)
	}
	return nil
}
