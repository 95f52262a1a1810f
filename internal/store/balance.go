package store

import (
	"context"
	"fmt"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5/pgtype"
)

const accountTxColumns = `id, customer_id, invoice_id, kind, amount, previous_balance, current_balance, description, created_at`

// CreditBalance adds funds to a customer account and records the audit row.
func (s *Store) CreditBalance(ctx context.Context, customerID uuid.UUID, amount int64, description string) (AccountTransaction, error) {
	if amount <= 0 {
		return AccountTransaction{}, fmt.Errorf("credit balance: amount must be positive")
	}
	var tx AccountTransaction
	err := s.WithTx(ctx, func(q *Store) error {
		previous, err := q.lockCustomerBalance(ctx, customerID)
		if err != nil {
			return err
		}
		current := previous + amount
		if _, err := q.db.Exec(ctx, `
UPDATE customers SET balance = $2, updated_at = now() WHERE id = $1`, customerID, current); err != nil {
			return fmt.Errorf("apply credit: %w", err)
		}
		tx, err = q.insertAccountTx(ctx, accountTxParams{
			CustomerID:      customerID,
			Kind:            TxKindCredit,
			Amount:          amount,
			PreviousBalance: previous,
			CurrentBalance:  current,
			Description:     description,
		})
		return err
	})
	if err != nil {
		return AccountTransaction{}, err
	}
	return tx, nil
}

// DebitForInvoice pays an unpaid invoice from the account balance. The
// customer row is locked for the duration of the transaction so concurrent
// debits serialize. A balance smaller than the invoice amount fails the whole
// transaction and leaves the invoice unpaid.
func (s *Store) DebitForInvoice(ctx context.Context, customerID, invoiceID uuid.UUID) (AccountTransaction, Invoice, error) {
	var (
		tx  AccountTransaction
		inv Invoice
	)
	err := s.WithTx(ctx, func(q *Store) error {
		previous, err := q.lockCustomerBalance(ctx, customerID)
		if err != nil {
			return err
		}
		inv, err = q.lockInvoice(ctx, invoiceID)
		if err != nil {
			return err
		}
		if inv.CustomerID != customerID {
			return ErrNotFound
		}
		if inv.Status == InvoiceStatusVoid {
			return ErrOrderCanceled
		}
		if inv.Status != InvoiceStatusUnpaid {
			return ErrAlreadySettled
		}
		if previous < inv.Amount {
			return ErrInsufficientBalance
		}
		current := previous - inv.Amount
		if _, err := q.db.Exec(ctx, `
UPDATE customers SET balance = $2, updated_at = now() WHERE id = $1`, customerID, current); err != nil {
			return fmt.Errorf("apply debit: %w", err)
		}
		if err := q.markInvoicePaid(ctx, inv.ID, MethodBalance); err != nil {
			return err
		}
		if err := q.markOrderPaid(ctx, inv.OrderID); err != nil {
			return err
		}
		tx, err = q.insertAccountTx(ctx, accountTxParams{
			CustomerID:      customerID,
			InvoiceID:       NullUUID(inv.ID),
			Kind:            TxKindDebit,
			Amount:          inv.Amount,
			PreviousBalance: previous,
			CurrentBalance:  current,
			Description:     "payment of invoice " + inv.Number,
		})
		if err != nil {
			return err
		}
		inv, err = q.GetInvoice(ctx, customerID, inv.ID)
		return err
	})
	if err != nil {
		return AccountTransaction{}, Invoice{}, err
	}
	return tx, inv, nil
}

// ListAccountTransactions returns the balance audit trail, newest first.
func (s *Store) ListAccountTransactions(ctx context.Context, customerID uuid.UUID, limit, offset int32) ([]AccountTransaction, error) {
	rows, err := s.db.Query(ctx, `
SELECT `+accountTxColumns+` FROM account_transactions
WHERE customer_id = $1 ORDER BY created_at DESC LIMIT $2 OFFSET $3`,
		customerID, limit, offset)
	if err != nil {
		return nil, fmt.Errorf("list account transactions: %w", err)
	}
	defer rows.Close()

	var out []AccountTransaction
	for rows.Next() {
		var tx AccountTransaction
		if err := rows.Scan(&tx.ID, &tx.CustomerID, &tx.InvoiceID, &tx.Kind, &tx.Amount,
			&tx.PreviousBalance, &tx.CurrentBalance, &tx.Description, &tx.CreatedAt); err != nil {
			return nil, fmt.Errorf("scan account transaction: %w", err)
		}
		out = append(out, tx)
	}
	return out, rows.Err()
}

type accountTxParams struct {
	CustomerID      uuid.UUID
	InvoiceID       pgtype.UUID
	Kind            string
	Amount          int64
	PreviousBalance int64
	CurrentBalance  int64
	Description     string
}

func (s *Store) insertAccountTx(ctx context.Context, params accountTxParams) (AccountTransaction, error) {
	var tx AccountTransaction
	row := s.db.QueryRow(ctx, `
INSERT INTO account_transactions (id, customer_id, invoice_id, kind, amount, previous_balance, current_balance, description)
VALUES ($1, $2, $3, $4, $5, $6, $7, $8)
RETURNING `+accountTxColumns,
		uuid.New(), params.CustomerID, params.InvoiceID, params.Kind, params.Amount,
		params.PreviousBalance, params.CurrentBalance, params.Description)
	if err := row.Scan(&tx.ID, &tx.CustomerID, &tx.InvoiceID, &tx.Kind, &tx.Amount,
		&tx.PreviousBalance, &tx.CurrentBalance, &tx.Description, &tx.CreatedAt); err != nil {
		return AccountTransaction{}, fmt.Errorf("insert account transaction: %w", err)
	}
	return tx, nil
}
