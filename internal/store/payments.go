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

const paymentColumns = `id, invoice_id, provider, method, reference, status, amount, created_at, updated_at`

func scanPayment(row pgx.Row) (Payment, error) {
	var p Payment
	err := row.Scan(&p.ID, &p.InvoiceID, &p.Provider, &p.Method, &p.Reference, &p.Status,
		&p.Amount, &p.CreatedAt, &p.UpdatedAt)
	return p, err
}

// CreatePayment records a pending payment attempt against an invoice.
func (s *Store) CreatePayment(ctx context.Context, invoiceID uuid.UUID, provider, method, reference string, amount int64) (Payment, error) {
	row := s.db.QueryRow(ctx, `
INSERT INTO payments (id, invoice_id, provider, method, reference, status, amount)
VALUES ($1, $2, $3, $4, $5, $6, $7)
RETURNING `+paymentColumns,
		uuid.New(), invoiceID, provider, method, reference, PaymentStatusPending, amount)
	p, err := scanPayment(row)
	if err != nil {
		var pgErr *pgconn.PgError
		if errors.As(err, &pgErr) && pgErr.Code == pgerrcode.UniqueViolation {
			return Payment{}, ErrAlreadySettled
		}
		return Payment{}, fmt.Errorf("create payment: %w", err)
	}
	return p, nil
}

// CreateGatewayPayment records a pending gateway attempt and moves the
// invoice's order from PENDING to PROCESSING in the same transaction. An
// order already in PROCESSING keeps its status, so retried intents are fine.
func (s *Store) CreateGatewayPayment(ctx context.Context, invoiceID uuid.UUID, provider, reference string, amount int64) (Payment, error) {
	var payment Payment
	err := s.WithTx(ctx, func(q *Store) error {
		var err error
		payment, err = q.CreatePayment(ctx, invoiceID, provider, MethodGateway, reference, amount)
		if err != nil {
			return err
		}
		if _, err := q.db.Exec(ctx, `
UPDATE orders SET status = $2, updated_at = now()
WHERE id = (SELECT order_id FROM invoices WHERE id = $1) AND status = $3`,
			invoiceID, OrderStatusProcessing, OrderStatusPending); err != nil {
			return fmt.Errorf("mark order processing: %w", err)
		}
		return nil
	})
	if err != nil {
		return Payment{}, err
	}
	return payment, nil
}

// GetPaymentByReference fetches a payment by its provider reference.
func (s *Store) GetPaymentByReference(ctx context.Context, reference string) (Payment, error) {
	row := s.db.QueryRow(ctx, `SELECT `+paymentColumns+` FROM payments WHERE reference = $1`, reference)
	p, err := scanPayment(row)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return Payment{}, ErrNotFound
		}
		return Payment{}, fmt.Errorf("get payment by reference: %w", err)
	}
	return p, nil
}

// SettlementResult reports the rows touched by a gateway settlement.
type SettlementResult struct {
	Payment Payment
	Invoice Invoice
}

// SettleGatewayPayment confirms a pending payment and settles its invoice and
// order in one transaction. The payment row is locked first so a replayed
// webhook observes the confirmed state and returns ErrAlreadySettled.
func (s *Store) SettleGatewayPayment(ctx context.Context, reference string) (SettlementResult, error) {
	var result SettlementResult
	err := s.WithTx(ctx, func(q *Store) error {
		row := q.db.QueryRow(ctx, `
SELECT `+paymentColumns+` FROM payments WHERE reference = $1 FOR UPDATE`, reference)
		payment, err := scanPayment(row)
		if err != nil {
			if errors.Is(err, pgx.ErrNoRows) {
				return ErrNotFound
			}
			return fmt.Errorf("lock payment: %w", err)
		}
		if payment.Status == PaymentStatusConfirmed {
			return ErrAlreadySettled
		}

		invoice, err := q.lockInvoice(ctx, payment.InvoiceID)
		if err != nil {
			return err
		}
		if invoice.Status == InvoiceStatusVoid {
			return ErrOrderCanceled
		}
		if invoice.Status != InvoiceStatusUnpaid {
			return ErrAlreadySettled
		}

		if _, err := q.db.Exec(ctx, `
UPDATE payments SET status = $2, updated_at = now() WHERE id = $1`,
			payment.ID, PaymentStatusConfirmed); err != nil {
			return fmt.Errorf("confirm payment: %w", err)
		}
		if err := q.markInvoicePaid(ctx, invoice.ID, payment.Method); err != nil {
			return err
		}
		if err := q.markOrderPaid(ctx, invoice.OrderID); err != nil {
			return err
		}

		payment, err = q.GetPaymentByReference(ctx, reference)
		if err != nil {
			return err
		}
		invoice, err = q.GetInvoice(ctx, invoice.CustomerID, invoice.ID)
		if err != nil {
			return err
		}
		result = SettlementResult{Payment: payment, Invoice: invoice}
		return nil
	})
	if err != nil {
		return SettlementResult{}, err
	}
	return result, nil
}

// FailPayment marks a pending payment attempt as failed.
func (s *Store) FailPayment(ctx context.Context, reference string) error {
	tag, err := s.db.Exec(ctx, `
UPDATE payments SET status = $2, updated_at = now()
WHERE reference = $1 AND status = $3`,
		reference, PaymentStatusFailed, PaymentStatusPending)
	if err != nil {
		return fmt.Errorf("fail payment: %w", err)
	}
	if tag.RowsAffected() == 0 {
		return ErrNotFound
	}
	return nil
}
