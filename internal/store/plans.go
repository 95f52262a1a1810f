package store

import (
	"context"
	"errors"
	"fmt"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgtype"
)

const planColumns = `id, code, name, product_type, family, base_price, description, active, created_at`

func scanPlan(row pgx.Row) (Plan, error) {
	var p Plan
	err := row.Scan(&p.ID, &p.Code, &p.Name, &p.ProductType, &p.Family, &p.BasePrice, &p.Description, &p.Active, &p.CreatedAt)
	return p, err
}

// ListActivePlans returns the sellable catalog ordered by family and price.
func (s *Store) ListActivePlans(ctx context.Context) ([]Plan, error) {
	rows, err := s.db.Query(ctx, `
SELECT `+planColumns+` FROM plans WHERE active ORDER BY family, base_price`)
	if err != nil {
		return nil, fmt.Errorf("list plans: %w", err)
	}
	defer rows.Close()

	var out []Plan
	for rows.Next() {
		p, err := scanPlan(rows)
		if err != nil {
			return nil, fmt.Errorf("scan plan: %w", err)
		}
		out = append(out, p)
	}
	return out, rows.Err()
}

// GetPlanByCode fetches a catalog entry by its stable code.
func (s *Store) GetPlanByCode(ctx context.Context, code string) (Plan, error) {
	row := s.db.QueryRow(ctx, `SELECT `+planColumns+` FROM plans WHERE code = $1`, code)
	p, err := scanPlan(row)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return Plan{}, ErrNotFound
		}
		return Plan{}, fmt.Errorf("get plan: %w", err)
	}
	return p, nil
}

// PlanParams describes a catalog entry for UpsertPlan.
type PlanParams struct {
	Code        string
	Name        string
	ProductType string
	Family      string
	BasePrice   int64
	Description pgtype.Text
}

// UpsertPlan inserts or refreshes a catalog entry keyed by code.
func (s *Store) UpsertPlan(ctx context.Context, params PlanParams) (Plan, error) {
	row := s.db.QueryRow(ctx, `
INSERT INTO plans (id, code, name, product_type, family, base_price, description)
VALUES ($1, $2, $3, $4, $5, $6, $7)
ON CONFLICT (code) DO UPDATE
SET name = EXCLUDED.name, product_type = EXCLUDED.product_type, family = EXCLUDED.family,
    base_price = EXCLUDED.base_price, description = EXCLUDED.description, active = TRUE
RETURNING `+planColumns,
		uuid.New(), params.Code, params.Name, params.ProductType, params.Family,
		params.BasePrice, params.Description)
	p, err := scanPlan(row)
	if err != nil {
		return Plan{}, fmt.Errorf("upsert plan: %w", err)
	}
	return p, nil
}
