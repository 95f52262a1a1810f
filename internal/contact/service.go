package contact

import (
	"context"
	"errors"
	"net/http"
	"strings"

	validator "github.com/go-playground/validator/v10"
	"github.com/google/uuid"
	"github.com/jackc/pgx/v5/pgtype"

	"github.com/zaida-dev/backend-hospeda/internal/common"
	"github.com/zaida-dev/backend-hospeda/internal/store"
)

// ProfileStore defines the persistence operations for registrant profiles.
type ProfileStore interface {
	CreateContactProfile(ctx context.Context, customerID uuid.UUID, params store.ContactProfileParams) (store.ContactProfile, error)
	UpdateContactProfile(ctx context.Context, customerID, id uuid.UUID, params store.ContactProfileParams) (store.ContactProfile, error)
	GetContactProfile(ctx context.Context, customerID, id uuid.UUID) (store.ContactProfile, error)
	ListContactProfiles(ctx context.Context, customerID uuid.UUID) ([]store.ContactProfile, error)
	DeleteContactProfile(ctx context.Context, customerID, id uuid.UUID) error
}

// Service manages registrant contact profiles.
type Service struct {
	profiles ProfileStore
	validate *validator.Validate
}

// NewService constructs a Service instance.
func NewService(profiles ProfileStore, validate *validator.Validate) (*Service, error) {
	if profiles == nil {
		return nil, errors.New("contact: profile store is required")
	}
	if validate == nil {
		validate = validator.New()
	}
	return &Service{profiles: profiles, validate: validate}, nil
}

// ProfileInput carries the writable fields of a registrant profile.
type ProfileInput struct {
	LegalName string `json:"legal_name" validate:"required,min=2,max=200"`
	Email     string `json:"email" validate:"required,email"`
	Phone     string `json:"phone" validate:"required,min=6,max=20"`
	TaxID     string `json:"tax_id" validate:"omitempty,max=30"`
	Street    string `json:"street" validate:"required,max=200"`
	City      string `json:"city" validate:"required,max=100"`
	Country   string `json:"country" validate:"omitempty,iso3166_1_alpha2"`
	IsDefault bool   `json:"is_default"`
}

// Profile is the public payload of a registrant profile.
type Profile struct {
	ID        string  `json:"id"`
	LegalName string  `json:"legal_name"`
	Email     string  `json:"email"`
	Phone     string  `json:"phone"`
	TaxID     *string `json:"tax_id,omitempty"`
	Street    string  `json:"street"`
	City      string  `json:"city"`
	Country   string  `json:"country"`
	IsDefault bool    `json:"is_default"`
}

// Create validates and stores a new profile.
func (s *Service) Create(ctx context.Context, customerID uuid.UUID, input ProfileInput) (Profile, error) {
	params, err := s.toParams(input)
	if err != nil {
		return Profile{}, err
	}
	row, err := s.profiles.CreateContactProfile(ctx, customerID, params)
	if err != nil {
		return Profile{}, err
	}
	return toProfile(row), nil
}

// Update validates and persists changes to an existing profile.
func (s *Service) Update(ctx context.Context, customerID, id uuid.UUID, input ProfileInput) (Profile, error) {
	params, err := s.toParams(input)
	if err != nil {
		return Profile{}, err
	}
	row, err := s.profiles.UpdateContactProfile(ctx, customerID, id, params)
	if err != nil {
		if errors.Is(err, store.ErrNotFound) {
			return Profile{}, common.NewAppError("NOT_FOUND", "contact profile not found", http.StatusNotFound, err)
		}
		return Profile{}, err
	}
	return toProfile(row), nil
}

// Get fetches a profile scoped to its owner.
func (s *Service) Get(ctx context.Context, customerID, id uuid.UUID) (Profile, error) {
	row, err := s.profiles.GetContactProfile(ctx, customerID, id)
	if err != nil {
		if errors.Is(err, store.ErrNotFound) {
			return Profile{}, common.NewAppError("NOT_FOUND", "contact profile not found", http.StatusNotFound, err)
		}
		return Profile{}, err
	}
	return toProfile(row), nil
}

// List returns all profiles of a customer, default first.
func (s *Service) List(ctx context.Context, customerID uuid.UUID) ([]Profile, error) {
	rows, err := s.profiles.ListContactProfiles(ctx, customerID)
	if err != nil {
		return nil, err
	}
	out := make([]Profile, 0, len(rows))
	for _, row := range rows {
		out = append(out, toProfile(row))
	}
	return out, nil
}

// Delete removes a profile scoped to its owner.
func (s *Service) Delete(ctx context.Context, customerID, id uuid.UUID) error {
	if err := s.profiles.DeleteContactProfile(ctx, customerID, id); err != nil {
		if errors.Is(err, store.ErrNotFound) {
			return common.NewAppError("NOT_FOUND", "contact profile not found", http.StatusNotFound, err)
		}
		return err
	}
	return nil
}

func (s *Service) toParams(input ProfileInput) (store.ContactProfileParams, error) {
	input.LegalName = strings.TrimSpace(input.LegalName)
	input.Email = strings.TrimSpace(strings.ToLower(input.Email))
	input.Phone = strings.TrimSpace(input.Phone)
	input.Country = strings.ToUpper(strings.TrimSpace(input.Country))
	if input.Country == "" {
		input.Country = "AO"
	}
	if err := s.validate.Struct(input); err != nil {
		return store.ContactProfileParams{}, common.NewAppError("VALIDATION_ERROR", "invalid contact profile", http.StatusBadRequest, err)
	}
	params := store.ContactProfileParams{
		LegalName: input.LegalName,
		Email:     input.Email,
		Phone:     input.Phone,
		Street:    strings.TrimSpace(input.Street),
		City:      strings.TrimSpace(input.City),
		Country:   input.Country,
		IsDefault: input.IsDefault,
	}
	if taxID := strings.TrimSpace(input.TaxID); taxID != "" {
		params.TaxID = pgtype.Text{String: taxID, Valid: true}
	}
	return params, nil
}

func toProfile(row store.ContactProfile) Profile {
	p := Profile{
		ID:        row.ID.String(),
		LegalName: row.LegalName,
		Email:     row.Email,
		Phone:     row.Phone,
		Street:    row.Street,
		City:      row.City,
		Country:   row.Country,
		IsDefault: row.IsDefault,
	}
	if row.TaxID.Valid {
		taxID := row.TaxID.String
		p.TaxID = &taxID
	}
	return p
}
