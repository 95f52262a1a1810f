package contact

import (
	"context"
	"testing"

	"github.com/google/uuid"
	"github.com/stretchr/testify/require"

	"github.com/zaida-dev/backend-hospeda/internal/store"
)

type fakeProfileStore struct {
	profiles map[uuid.UUID]store.ContactProfile
}

func newFakeProfileStore() *fakeProfileStore {
	return &fakeProfileStore{profiles: map[uuid.UUID]store.ContactProfile{}}
}

func (f *fakeProfileStore) CreateContactProfile(_ context.Context, customerID uuid.UUID, params store.ContactProfileParams) (store.ContactProfile, error) {
	p := store.ContactProfile{
		ID: uuid.New(), CustomerID: customerID,
		LegalName: params.LegalName, Email: params.Email, Phone: params.Phone, TaxID: params.TaxID,
		Street: params.Street, City: params.City, Country: params.Country, IsDefault: params.IsDefault,
	}
	f.profiles[p.ID] = p
	return p, nil
}

func (f *fakeProfileStore) UpdateContactProfile(_ context.Context, customerID, id uuid.UUID, params store.ContactProfileParams) (store.ContactProfile, error) {
	p, ok := f.profiles[id]
	if !ok || p.CustomerID != customerID {
		return store.ContactProfile{}, store.ErrNotFound
	}
	p.LegalName = params.LegalName
	p.Email = params.Email
	p.Phone = params.Phone
	p.IsDefault = params.IsDefault
	f.profiles[id] = p
	return p, nil
}

func (f *fakeProfileStore) GetContactProfile(_ context.Context, customerID, id uuid.UUID) (store.ContactProfile, error) {
	p, ok := f.profiles[id]
	if !ok || p.CustomerID != customerID {
		return store.ContactProfile{}, store.ErrNotFound
	}
	return p, nil
}

func (f *fakeProfileStore) ListContactProfiles(_ context.Context, customerID uuid.UUID) ([]store.ContactProfile, error) {
	var out []store.ContactProfile
	for _, p := range f.profiles {
		if p.CustomerID == customerID {
			out = append(out, p)
		}
	}
	return out, nil
}

func (f *fakeProfileStore) DeleteContactProfile(_ context.Context, customerID, id uuid.UUID) error {
	p, ok := f.profiles[id]
	if !ok || p.CustomerID != customerID {
		return store.ErrNotFound
	}
	delete(f.profiles, id)
	return nil
}

func validInput() ProfileInput {
	return ProfileInput{
		LegalName: "Kiluange Domingos",
		Email:     "kiluange@example.ao",
		Phone:     "+244923000000",
		Street:    "Rua da Missão 12",
		City:      "Luanda",
	}
}

func TestCreateDefaultsCountry(t *testing.T) {
	svc, err := NewService(newFakeProfileStore(), nil)
	require.NoError(t, err)

	profile, err := svc.Create(context.Background(), uuid.New(), validInput())
	require.NoError(t, err)
	require.Equal(t, "AO", profile.Country)
}

func TestCreateRejectsBadEmail(t *testing.T) {
	svc, err := NewService(newFakeProfileStore(), nil)
	require.NoError(t, err)

	input := validInput()
	input.Email = "not-an-email"
	_, err = svc.Create(context.Background(), uuid.New(), input)
	require.Error(t, err)
}

func TestUpdateScopedToOwner(t *testing.T) {
	profiles := newFakeProfileStore()
	svc, err := NewService(profiles, nil)
	require.NoError(t, err)

	owner := uuid.New()
	created, err := svc.Create(context.Background(), owner, validInput())
	require.NoError(t, err)

	id := uuid.MustParse(created.ID)
	_, err = svc.Update(context.Background(), uuid.New(), id, validInput())
	require.Error(t, err)

	updated, err := svc.Update(context.Background(), owner, id, validInput())
	require.NoError(t, err)
	require.Equal(t, created.ID, updated.ID)
}

func TestDeleteMissingProfile(t *testing.T) {
	svc, err := NewService(newFakeProfileStore(), nil)
	require.NoError(t, err)
	require.Error(t, svc.Delete(context.Background(), uuid.New(), uuid.New()))
}
