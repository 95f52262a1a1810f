package store

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/jackc/pgerrcode"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/jackc/pgx/v5/pgtype"
)

// CheckoutParams drives the cart-to-order conversion.
type CheckoutParams struct {
	Key        string
	CustomerID uuid.UUID
	CartID     uuid.UUID
	Currency   string
	InvoiceDue time.Time
}

// CheckoutResult carries the order and invoice produced by a checkout. Replayed
// holds true when the idempotency key matched a previous request.
type CheckoutResult struct {
	Order    Order
	Invoice  Invoice
	Replayed bool
}

const orderColumns = `id, customer_id, cart_id, contact_profile_id, status, total, currency, created_at, updated_at`

func scanOrder(row pgx.Row) (Order, error) {
	var o Order
	err := row.Scan(&o.ID, &o.CustomerID, &o.CartID, &o.ContactProfileID, &o.Status, &o.Total,
		&o.Currency, &o.CreatedAt, &o.UpdatedAt)
	return o, err
}

const invoiceColumns = `id, order_id, customer_id, number, status, amount, currency, due_at, paid_at, payment_method, created_at`

func scanInvoice(row pgx.Row) (Invoice, error) {
	var inv Invoice
	err := row.Scan(&inv.ID, &inv.OrderID, &inv.CustomerID, &inv.Number, &inv.Status, &inv.Amount,
		&inv.Currency, &inv.DueAt, &inv.PaidAt, &inv.PaymentMethod, &inv.CreatedAt)
	return inv, err
}

// CreateOrderFromCart converts an open cart into an order plus its unpaid
// invoice in a single transaction. A repeated idempotency key returns the
// result of the first request without creating anything.
func (s *Store) CreateOrderFromCart(ctx context.Context, params CheckoutParams) (CheckoutResult, error) {
	var result CheckoutResult
	err := s.WithTx(ctx, func(q *Store) error {
		if existing, found, err := q.findCheckoutByKey(ctx, params.Key); err != nil {
			return err
		} else if found {
			result = existing
			result.Replayed = true
			return nil
		}

		cart, err := q.lockCart(ctx, params.CartID, params.CustomerID)
		if err != nil {
			return err
		}
		if cart.Status != CartStatusOpen {
			return ErrCartNotOpen
		}

		items, err := q.ListCartItems(ctx, cart.ID)
		if err != nil {
			return err
		}
		if len(items) == 0 {
			return fmt.Errorf("checkout: %w", ErrNotFound)
		}

		var total int64
		for _, it := range items {
			total += it.UnitPrice * int64(it.Qty)
		}

		orderID := uuid.New()
		row := q.db.QueryRow(ctx, `
INSERT INTO orders (id, customer_id, cart_id, contact_profile_id, status, total, currency)
VALUES ($1, $2, $3, $4, $5, $6, $7)
RETURNING `+orderColumns,
			orderID, params.CustomerID, cart.ID, cart.ContactProfileID, OrderStatusPending, total, params.Currency)
		order, err := scanOrder(row)
		if err != nil {
			return fmt.Errorf("create order: %w", err)
		}

		for _, it := range items {
			details := it.Details
			if len(details) == 0 {
				details = []byte(`{}`)
			}
			_, err := q.db.Exec(ctx, `
INSERT INTO order_items (id, order_id, product_type, label, years, unit_price, qty, line_total, renewal_price, details)
VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10)`,
				uuid.New(), orderID, it.ProductType, it.Label, it.Years, it.UnitPrice, it.Qty,
				it.UnitPrice*int64(it.Qty), it.RenewalPrice, details)
			if err != nil {
				return fmt.Errorf("create order item: %w", err)
			}
		}

		invRow := q.db.QueryRow(ctx, `
INSERT INTO invoices (id, order_id, customer_id, number, status, amount, currency, due_at)
VALUES ($1, $2, $3, $4, $5, $6, $7, $8)
RETURNING `+invoiceColumns,
			uuid.New(), orderID, params.CustomerID, newInvoiceNumber(), InvoiceStatusUnpaid, total,
			params.Currency, params.InvoiceDue)
		invoice, err := scanInvoice(invRow)
		if err != nil {
			return fmt.Errorf("create invoice: %w", err)
		}

		if _, err := q.db.Exec(ctx, `
UPDATE carts SET status = $2, updated_at = now() WHERE id = $1`, cart.ID, CartStatusCheckedOut); err != nil {
			return fmt.Errorf("close cart: %w", err)
		}

		if _, err := q.db.Exec(ctx, `
INSERT INTO checkout_requests (key, cart_id, order_id) VALUES ($1, $2, $3)`,
			params.Key, cart.ID, orderID); err != nil {
			var pgErr *pgconn.PgError
			if errors.As(err, &pgErr) && pgErr.Code == pgerrcode.UniqueViolation {
				return errCheckoutKeyClaimed
			}
			return fmt.Errorf("record checkout key: %w", err)
		}

		result = CheckoutResult{Order: order, Invoice: invoice}
		return nil
	})
	if err != nil {
		// A concurrent submission claimed the key after our replay lookup.
		// The insert aborted this transaction, so re-read the winner's order
		// and report it as a replay.
		if errors.Is(err, errCheckoutKeyClaimed) {
			existing, found, lookupErr := s.findCheckoutByKey(ctx, params.Key)
			if lookupErr != nil {
				return CheckoutResult{}, lookupErr
			}
			if found {
				existing.Replayed = true
				return existing, nil
			}
		}
		return CheckoutResult{}, err
	}
	return result, nil
}

// errCheckoutKeyClaimed marks a lost race on the checkout_requests key.
var errCheckoutKeyClaimed = errors.New("store: checkout key claimed concurrently")

func (s *Store) findCheckoutByKey(ctx context.Context, key string) (CheckoutResult, bool, error) {
	var orderID uuid.UUID
	err := s.db.QueryRow(ctx, `SELECT order_id FROM checkout_requests WHERE key = $1`, key).Scan(&orderID)
	if errors.Is(err, pgx.ErrNoRows) {
		return CheckoutResult{}, false, nil
	}
	if err != nil {
		return CheckoutResult{}, false, fmt.Errorf("lookup checkout key: %w", err)
	}
	order, err := scanOrder(s.db.QueryRow(ctx, `SELECT `+orderColumns+` FROM orders WHERE id = $1`, orderID))
	if err != nil {
		return CheckoutResult{}, false, fmt.Errorf("load replayed order: %w", err)
	}
	invoice, err := scanInvoice(s.db.QueryRow(ctx, `SELECT `+invoiceColumns+` FROM invoices WHERE order_id = $1`, orderID))
	if err != nil {
		return CheckoutResult{}, false, fmt.Errorf("load replayed invoice: %w", err)
	}
	return CheckoutResult{Order: order, Invoice: invoice}, true, nil
}

func (s *Store) lockCart(ctx context.Context, cartID, customerID uuid.UUID) (Cart, error) {
	row := s.db.QueryRow(ctx, `
SELECT `+cartColumns+` FROM carts WHERE id = $1 AND customer_id = $2 FOR UPDATE`, cartID, customerID)
	c, err := scanCart(row)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return Cart{}, ErrNotFound
		}
		return Cart{}, fmt.Errorf("lock cart: %w", err)
	}
	return c, nil
}

// GetOrder fetches an order scoped to its owner.
func (s *Store) GetOrder(ctx context.Context, customerID, orderID uuid.UUID) (Order, error) {
	row := s.db.QueryRow(ctx, `
SELECT `+orderColumns+` FROM orders WHERE id = $1 AND customer_id = $2`, orderID, customerID)
	o, err := scanOrder(row)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return Order{}, ErrNotFound
		}
		return Order{}, fmt.Errorf("get order: %w", err)
	}
	return o, nil
}

// ListOrders returns a customer's orders, newest first.
func (s *Store) ListOrders(ctx context.Context, customerID uuid.UUID, limit, offset int32) ([]Order, error) {
	rows, err := s.db.Query(ctx, `
SELECT `+orderColumns+` FROM orders
WHERE customer_id = $1 ORDER BY created_at DESC LIMIT $2 OFFSET $3`,
		customerID, limit, offset)
	if err != nil {
		return nil, fmt.Errorf("list orders: %w", err)
	}
	defer rows.Close()

	var out []Order
	for rows.Next() {
		o, err := scanOrder(rows)
		if err != nil {
			return nil, fmt.Errorf("scan order: %w", err)
		}
		out = append(out, o)
	}
	return out, rows.Err()
}

// ListOrderItems returns the lines of an order.
func (s *Store) ListOrderItems(ctx context.Context, orderID uuid.UUID) ([]OrderItem, error) {
	rows, err := s.db.Query(ctx, `
SELECT id, order_id, product_type, label, years, unit_price, qty, line_total, renewal_price, details
FROM order_items WHERE order_id = $1`, orderID)
	if err != nil {
		return nil, fmt.Errorf("list order items: %w", err)
	}
	defer rows.Close()

	var out []OrderItem
	for rows.Next() {
		var it OrderItem
		if err := rows.Scan(&it.ID, &it.OrderID, &it.ProductType, &it.Label, &it.Years,
			&it.UnitPrice, &it.Qty, &it.LineTotal, &it.RenewalPrice, &it.Details); err != nil {
			return nil, fmt.Errorf("scan order item: %w", err)
		}
		out = append(out, it)
	}
	return out, rows.Err()
}

// CancelOrder moves a pending or processing order to CANCELED and voids its
// unpaid invoice in the same transaction, so the invoice can never be settled
// after the cancellation.
func (s *Store) CancelOrder(ctx context.Context, customerID, orderID uuid.UUID) error {
	return s.WithTx(ctx, func(q *Store) error {
		tag, err := q.db.Exec(ctx, `
UPDATE orders SET status = $3, updated_at = now()
WHERE id = $1 AND customer_id = $2 AND status IN ($4, $5)`,
			orderID, customerID, OrderStatusCanceled, OrderStatusPending, OrderStatusProcessing)
		if err != nil {
			return fmt.Errorf("cancel order: %w", err)
		}
		if tag.RowsAffected() == 0 {
			return ErrNotFound
		}
		if _, err := q.db.Exec(ctx, `
UPDATE invoices SET status = $2 WHERE order_id = $1 AND status = $3`,
			orderID, InvoiceStatusVoid, InvoiceStatusUnpaid); err != nil {
			return fmt.Errorf("void invoice: %w", err)
		}
		return nil
	})
}

// markOrderPaid transitions an order to PAID inside a settlement transaction.
// Only pending and processing orders are payable; anything else aborts the
// settlement.
func (s *Store) markOrderPaid(ctx context.Context, orderID uuid.UUID) error {
	tag, err := s.db.Exec(ctx, `
UPDATE orders SET status = $2, updated_at = now()
WHERE id = $1 AND status IN ($3, $4)`,
		orderID, OrderStatusPaid, OrderStatusPending, OrderStatusProcessing)
	if err != nil {
		return fmt.Errorf("mark order paid: %w", err)
	}
	if tag.RowsAffected() == 0 {
		return ErrOrderCanceled
	}
	return nil
}

func newInvoiceNumber() string {
	raw := strings.ReplaceAll(uuid.NewString(), "-", "")
	return fmt.Sprintf("FT-%d-%s", time.Now().Year(), strings.ToUpper(raw[:10]))
}

// NullUUID converts a uuid into its pgtype representation.
func NullUUID(id uuid.UUID) pgtype.UUID {
	return pgtype.UUID{Bytes: id, Valid: true}
}
