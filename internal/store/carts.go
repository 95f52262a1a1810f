package store

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgtype"
)

const cartColumns = `id, customer_id, status, contact_profile_id, expires_at, created_at, updated_at`

func scanCart(row pgx.Row) (Cart, error) {
	var c Cart
	err := row.Scan(&c.ID, &c.CustomerID, &c.Status, &c.ContactProfileID, &c.ExpiresAt, &c.CreatedAt, &c.UpdatedAt)
	return c, err
}

// CreateCart opens a new cart for a customer with the given lifetime.
func (s *Store) CreateCart(ctx context.Context, customerID uuid.UUID, ttl time.Duration) (Cart, error) {
	row := s.db.QueryRow(ctx, `
INSERT INTO carts (id, customer_id, status, expires_at)
VALUES ($1, $2, $3, $4)
RETURNING `+cartColumns,
		uuid.New(), customerID, CartStatusOpen, time.Now().Add(ttl))
	c, err := scanCart(row)
	if err != nil {
		return Cart{}, fmt.Errorf("create cart: %w", err)
	}
	return c, nil
}

// GetOpenCart returns the customer's current open cart.
func (s *Store) GetOpenCart(ctx context.Context, customerID uuid.UUID) (Cart, error) {
	row := s.db.QueryRow(ctx, `
SELECT `+cartColumns+` FROM carts
WHERE customer_id = $1 AND status = $2
ORDER BY created_at DESC LIMIT 1`, customerID, CartStatusOpen)
	c, err := scanCart(row)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return Cart{}, ErrNotFound
		}
		return Cart{}, fmt.Errorf("get open cart: %w", err)
	}
	return c, nil
}

// GetCart fetches a cart scoped to its owner.
func (s *Store) GetCart(ctx context.Context, customerID, cartID uuid.UUID) (Cart, error) {
	row := s.db.QueryRow(ctx, `
SELECT `+cartColumns+` FROM carts WHERE id = $1 AND customer_id = $2`, cartID, customerID)
	c, err := scanCart(row)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return Cart{}, ErrNotFound
		}
		return Cart{}, fmt.Errorf("get cart: %w", err)
	}
	return c, nil
}

// CartItemParams describes a new cart line with its term-resolved price.
type CartItemParams struct {
	PlanID       pgtype.UUID
	ProductType  string
	Label        string
	Family       string
	BasePrice    int64
	Years        int32
	UnitPrice    int64
	Qty          int32
	RenewalPrice int64
	Details      []byte
}

const cartItemColumns = `id, cart_id, plan_id, product_type, label, family, base_price, years, unit_price, qty, renewal_price, details, created_at`

func scanCartItem(row pgx.Row) (CartItem, error) {
	var it CartItem
	err := row.Scan(&it.ID, &it.CartID, &it.PlanID, &it.ProductType, &it.Label, &it.Family,
		&it.BasePrice, &it.Years, &it.UnitPrice, &it.Qty, &it.RenewalPrice, &it.Details, &it.CreatedAt)
	return it, err
}

// AddCartItem appends a line to an open cart.
func (s *Store) AddCartItem(ctx context.Context, cartID uuid.UUID, params CartItemParams) (CartItem, error) {
	var status string
	if err := s.db.QueryRow(ctx, `SELECT status FROM carts WHERE id = $1`, cartID).Scan(&status); err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return CartItem{}, ErrNotFound
		}
		return CartItem{}, fmt.Errorf("check cart status: %w", err)
	}
	if status != CartStatusOpen {
		return CartItem{}, ErrCartNotOpen
	}
	if len(params.Details) == 0 {
		params.Details = []byte(`{}`)
	}
	row := s.db.QueryRow(ctx, `
INSERT INTO cart_items (id, cart_id, plan_id, product_type, label, family, base_price, years, unit_price, qty, renewal_price, details)
VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12)
RETURNING `+cartItemColumns,
		uuid.New(), cartID, params.PlanID, params.ProductType, params.Label, params.Family,
		params.BasePrice, params.Years, params.UnitPrice, params.Qty, params.RenewalPrice, params.Details)
	it, err := scanCartItem(row)
	if err != nil {
		return CartItem{}, fmt.Errorf("add cart item: %w", err)
	}
	if _, err := s.db.Exec(ctx, `UPDATE carts SET updated_at = now() WHERE id = $1`, cartID); err != nil {
		return CartItem{}, fmt.Errorf("touch cart: %w", err)
	}
	return it, nil
}

// RemoveCartItem deletes a line from a cart.
func (s *Store) RemoveCartItem(ctx context.Context, cartID, itemID uuid.UUID) error {
	tag, err := s.db.Exec(ctx, `DELETE FROM cart_items WHERE id = $1 AND cart_id = $2`, itemID, cartID)
	if err != nil {
		return fmt.Errorf("remove cart item: %w", err)
	}
	if tag.RowsAffected() == 0 {
		return ErrNotFound
	}
	return nil
}

// ListCartItems returns all lines of a cart in insertion order.
func (s *Store) ListCartItems(ctx context.Context, cartID uuid.UUID) ([]CartItem, error) {
	rows, err := s.db.Query(ctx, `
SELECT `+cartItemColumns+` FROM cart_items WHERE cart_id = $1 ORDER BY created_at ASC`, cartID)
	if err != nil {
		return nil, fmt.Errorf("list cart items: %w", err)
	}
	defer rows.Close()

	var out []CartItem
	for rows.Next() {
		it, err := scanCartItem(rows)
		if err != nil {
			return nil, fmt.Errorf("scan cart item: %w", err)
		}
		out = append(out, it)
	}
	return out, rows.Err()
}

// AttachContactProfile binds a registrant profile to a cart before checkout.
func (s *Store) AttachContactProfile(ctx context.Context, customerID, cartID, profileID uuid.UUID) error {
	tag, err := s.db.Exec(ctx, `
UPDATE carts SET contact_profile_id = $3, updated_at = now()
WHERE id = $1 AND customer_id = $2 AND status = $4`,
		cartID, customerID, profileID, CartStatusOpen)
	if err != nil {
		return fmt.Errorf("attach contact profile: %w", err)
	}
	if tag.RowsAffected() == 0 {
		return ErrNotFound
	}
	return nil
}

// ExpireStaleCarts marks open carts past their deadline as expired and
// returns how many were touched.
func (s *Store) ExpireStaleCarts(ctx context.Context, now time.Time) (int64, error) {
	tag, err := s.db.Exec(ctx, `
UPDATE carts SET status = $1, updated_at = now()
WHERE status = $2 AND expires_at < $3`,
		CartStatusExpired, CartStatusOpen, now)
	if err != nil {
		return 0, fmt.Errorf("expire carts: %w", err)
	}
	return tag.RowsAffected(), nil
}
