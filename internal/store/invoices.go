package store

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
)

// GetInvoice fetches an invoice scoped to its owner.
func (s *Store) GetInvoice(ctx context.Context, customerID, invoiceID uuid.UUID) (Invoice, error) {
	row := s.db.QueryRow(ctx, `
SELECT `+invoiceColumns+` FROM invoices WHERE id = $1 AND customer_id = $2`, invoiceID, customerID)
	inv, err := scanInvoice(row)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return Invoice{}, ErrNotFound
		}
		return Invoice{}, fmt.Errorf("get invoice: %w", err)
	}
	return inv, nil
}

// GetInvoiceByNumber fetches an invoice by its public number.
func (s *Store) GetInvoiceByNumber(ctx context.Context, number string) (Invoice, error) {
	row := s.db.QueryRow(ctx, `SELECT `+invoiceColumns+` FROM invoices WHERE number = $1`, number)
	inv, err := scanInvoice(row)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return Invoice{}, ErrNotFound
		}
		return Invoice{}, fmt.Errorf("get invoice by number: %w", err)
	}
	return inv, nil
}

// ListInvoices returns a customer's invoices, newest first.
func (s *Store) ListInvoices(ctx context.Context, customerID uuid.UUID, limit, offset int32) ([]Invoice, error) {
	rows, err := s.db.Query(ctx, `
SELECT `+invoiceColumns+` FROM invoices
WHERE customer_id = $1 ORDER BY created_at DESC LIMIT $2 OFFSET $3`,
		customerID, limit, offset)
	if err != nil {
		return nil, fmt.Errorf("list invoices: %w", err)
	}
	defer rows.Close()

	var out []Invoice
	for rows.Next() {
		inv, err := scanInvoice(rows)
		if err != nil {
			return nil, fmt.Errorf("scan invoice: %w", err)
		}
		out = append(out, inv)
	}
	return out, rows.Err()
}

// ListOverdueInvoices returns unpaid invoices past their due date.
func (s *Store) ListOverdueInvoices(ctx context.Context, now time.Time, limit int32) ([]Invoice, error) {
	rows, err := s.db.Query(ctx, `
SELECT `+invoiceColumns+` FROM invoices
WHERE status = $1 AND due_at < $2 ORDER BY due_at ASC LIMIT $3`,
		InvoiceStatusUnpaid, now, limit)
	if err != nil {
		return nil, fmt.Errorf("list overdue invoices: %w", err)
	}
	defer rows.Close()

	var out []Invoice
	for rows.Next() {
		inv, err := scanInvoice(rows)
		if err != nil {
			return nil, fmt.Errorf("scan invoice: %w", err)
		}
		out = append(out, inv)
	}
	return out, rows.Err()
}

// lockInvoice reads an invoice under FOR UPDATE inside a transaction.
func (s *Store) lockInvoice(ctx context.Context, invoiceID uuid.UUID) (Invoice, error) {
	row := s.db.QueryRow(ctx, `
SELECT `+invoiceColumns+` FROM invoices WHERE id = $1 FOR UPDATE`, invoiceID)
	inv, err := scanInvoice(row)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return Invoice{}, ErrNotFound
		}
		return Invoice{}, fmt.Errorf("lock invoice: %w", err)
	}
	return inv, nil
}

// markInvoicePaid settles an unpaid invoice inside a transaction. Returns
// ErrAlreadySettled when the invoice was paid before.
func (s *Store) markInvoicePaid(ctx context.Context, invoiceID uuid.UUID, method string) error {
	tag, err := s.db.Exec(ctx, `
UPDATE invoices SET status = $2, paid_at = now(), payment_method = $3
WHERE id = $1 AND status = $4`,
		invoiceID, InvoiceStatusPaid, method, InvoiceStatusUnpaid)
	if err != nil {
		return fmt.Errorf("mark invoice paid: %w", err)
	}
	if tag.RowsAffected() == 0 {
		return ErrAlreadySettled
	}
	return nil
}
