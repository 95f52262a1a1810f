package store

import (
	"context"
	"errors"
	"fmt"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgtype"
)

// ContactProfileParams carries the writable fields of a contact profile.
type ContactProfileParams struct {
	LegalName string
	Email     string
	Phone     string
	TaxID     pgtype.Text
	Street    string
	City      string
	Country   string
	IsDefault bool
}

const contactProfileColumns = `id, customer_id, legal_name, email, phone, tax_id, street, city, country, is_default, created_at, updated_at`

func scanContactProfile(row pgx.Row) (ContactProfile, error) {
	var p ContactProfile
	err := row.Scan(&p.ID, &p.CustomerID, &p.LegalName, &p.Email, &p.Phone, &p.TaxID,
		&p.Street, &p.City, &p.Country, &p.IsDefault, &p.CreatedAt, &p.UpdatedAt)
	return p, err
}

// CreateContactProfile inserts a registrant profile for a customer.
func (s *Store) CreateContactProfile(ctx context.Context, customerID uuid.UUID, params ContactProfileParams) (ContactProfile, error) {
	if params.IsDefault {
		if err := s.clearDefaultProfile(ctx, customerID); err != nil {
			return ContactProfile{}, err
		}
	}
	row := s.db.QueryRow(ctx, `
INSERT INTO contact_profiles (id, customer_id, legal_name, email, phone, tax_id, street, city, country, is_default)
VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10)
RETURNING `+contactProfileColumns,
		uuid.New(), customerID, params.LegalName, params.Email, params.Phone, params.TaxID,
		params.Street, params.City, params.Country, params.IsDefault)
	p, err := scanContactProfile(row)
	if err != nil {
		return ContactProfile{}, fmt.Errorf("create contact profile: %w", err)
	}
	return p, nil
}

// UpdateContactProfile updates a profile owned by the customer.
func (s *Store) UpdateContactProfile(ctx context.Context, customerID, id uuid.UUID, params ContactProfileParams) (ContactProfile, error) {
	if params.IsDefault {
		if err := s.clearDefaultProfile(ctx, customerID); err != nil {
			return ContactProfile{}, err
		}
	}
	row := s.db.QueryRow(ctx, `
UPDATE contact_profiles
SET legal_name = $3, email = $4, phone = $5, tax_id = $6, street = $7, city = $8, country = $9, is_default = $10, updated_at = now()
WHERE id = $1 AND customer_id = $2
RETURNING `+contactProfileColumns,
		id, customerID, params.LegalName, params.Email, params.Phone, params.TaxID,
		params.Street, params.City, params.Country, params.IsDefault)
	p, err := scanContactProfile(row)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return ContactProfile{}, ErrNotFound
		}
		return ContactProfile{}, fmt.Errorf("update contact profile: %w", err)
	}
	return p, nil
}

// GetContactProfile fetches a profile scoped to its owner.
func (s *Store) GetContactProfile(ctx context.Context, customerID, id uuid.UUID) (ContactProfile, error) {
	row := s.db.QueryRow(ctx, `
SELECT `+contactProfileColumns+` FROM contact_profiles WHERE id = $1 AND customer_id = $2`, id, customerID)
	p, err := scanContactProfile(row)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return ContactProfile{}, ErrNotFound
		}
		return ContactProfile{}, fmt.Errorf("get contact profile: %w", err)
	}
	return p, nil
}

// ListContactProfiles returns all profiles for a customer, default first.
func (s *Store) ListContactProfiles(ctx context.Context, customerID uuid.UUID) ([]ContactProfile, error) {
	rows, err := s.db.Query(ctx, `
SELECT `+contactProfileColumns+` FROM contact_profiles
WHERE customer_id = $1
ORDER BY is_default DESC, created_at ASC`, customerID)
	if err != nil {
		return nil, fmt.Errorf("list contact profiles: %w", err)
	}
	defer rows.Close()

	var out []ContactProfile
	for rows.Next() {
		p, err := scanContactProfile(rows)
		if err != nil {
			return nil, fmt.Errorf("scan contact profile: %w", err)
		}
		out = append(out, p)
	}
	return out, rows.Err()
}

// DeleteContactProfile removes a profile owned by the customer.
func (s *Store) DeleteContactProfile(ctx context.Context, customerID, id uuid.UUID) error {
	tag, err := s.db.Exec(ctx, `DELETE FROM contact_profiles WHERE id = $1 AND customer_id = $2`, id, customerID)
	if err != nil {
		return fmt.Errorf("delete contact profile: %w", err)
	}
	if tag.RowsAffected() == 0 {
		return ErrNotFound
	}
	return nil
}

func (s *Store) clearDefaultProfile(ctx context.Context, customerID uuid.UUID) error {
	_, err := s.db.Exec(ctx, `UPDATE contact_profiles SET is_default = FALSE WHERE customer_id = $1 AND is_default`, customerID)
	if err != nil {
		return fmt.Errorf("clear default profile: %w", err)
	}
	return nil
}
