package store

import (
	"context"
	"errors"
	"fmt"

	"github.com/google/uuid"
	"github.com/jackc/pgerrcode"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
)

const createCustomerSQL = `
INSERT INTO customers (id, email, password_hash, name)
VALUES ($1, $2, $3, $4)
RETURNING id, email, password_hash, name, balance, created_at, updated_at`

// CreateCustomer registers a new account. Returns ErrDuplicateEmail when the
// email is already taken.
func (s *Store) CreateCustomer(ctx context.Context, email, passwordHash, name string) (Customer, error) {
	var c Customer
	row := s.db.QueryRow(ctx, createCustomerSQL, uuid.New(), email, passwordHash, name)
	if err := row.Scan(&c.ID, &c.Email, &c.PasswordHash, &c.Name, &c.Balance, &c.CreatedAt, &c.UpdatedAt); err != nil {
		var pgErr *pgconn.PgError
		if errors.As(err, &pgErr) && pgErr.Code == pgerrcode.UniqueViolation {
			return Customer{}, ErrDuplicateEmail
		}
		return Customer{}, fmt.Errorf("create customer: %w", err)
	}
	return c, nil
}

const getCustomerByEmailSQL = `
SELECT id, email, password_hash, name, balance, created_at, updated_at
FROM customers WHERE email = $1`

// GetCustomerByEmail fetches a customer for login.
func (s *Store) GetCustomerByEmail(ctx context.Context, email string) (Customer, error) {
	var c Customer
	row := s.db.QueryRow(ctx, getCustomerByEmailSQL, email)
	if err := row.Scan(&c.ID, &c.Email, &c.PasswordHash, &c.Name, &c.Balance, &c.CreatedAt, &c.UpdatedAt); err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return Customer{}, ErrNotFound
		}
		return Customer{}, fmt.Errorf("get customer by email: %w", err)
	}
	return c, nil
}

const getCustomerSQL = `
SELECT id, email, password_hash, name, balance, created_at, updated_at
FROM customers WHERE id = $1`

// GetCustomer fetches a customer by id.
func (s *Store) GetCustomer(ctx context.Context, id uuid.UUID) (Customer, error) {
	var c Customer
	row := s.db.QueryRow(ctx, getCustomerSQL, id)
	if err := row.Scan(&c.ID, &c.Email, &c.PasswordHash, &c.Name, &c.Balance, &c.CreatedAt, &c.UpdatedAt); err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return Customer{}, ErrNotFound
		}
		return Customer{}, fmt.Errorf("get customer: %w", err)
	}
	return c, nil
}

// GetBalance returns the current account balance for a customer.
func (s *Store) GetBalance(ctx context.Context, customerID uuid.UUID) (int64, error) {
	var balance int64
	row := s.db.QueryRow(ctx, `SELECT balance FROM customers WHERE id = $1`, customerID)
	if err := row.Scan(&balance); err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return 0, ErrNotFound
		}
		return 0, fmt.Errorf("get balance: %w", err)
	}
	return balance, nil
}

// lockCustomerBalance reads the balance under FOR UPDATE inside a transaction.
func (s *Store) lockCustomerBalance(ctx context.Context, customerID uuid.UUID) (int64, error) {
	var balance int64
	row := s.db.QueryRow(ctx, `SELECT balance FROM customers WHERE id = $1 FOR UPDATE`, customerID)
	if err := row.Scan(&balance); err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return 0, ErrNotFound
		}
		return 0, fmt.Errorf("lock customer balance: %w", err)
	}
	return balance, nil
}
