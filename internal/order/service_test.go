package order

import (
	"context"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/require"

	"github.com/zaida-dev/backend-hospeda/internal/store"
)

type fakeOrderStore struct {
	orders   map[uuid.UUID]store.Order
	items    map[uuid.UUID][]store.OrderItem
	invoices map[uuid.UUID]store.Invoice
}

func newFakeOrderStore() *fakeOrderStore {
	return &fakeOrderStore{
		orders:   map[uuid.UUID]store.Order{},
		items:    map[uuid.UUID][]store.OrderItem{},
		invoices: map[uuid.UUID]store.Invoice{},
	}
}

func (f *fakeOrderStore) GetOrder(_ context.Context, customerID, orderID uuid.UUID) (store.Order, error) {
	o, ok := f.orders[orderID]
	if !ok || o.CustomerID != customerID {
		return store.Order{}, store.ErrNotFound
	}
	return o, nil
}

func (f *fakeOrderStore) ListOrders(_ context.Context, customerID uuid.UUID, limit, offset int32) ([]store.Order, error) {
	var out []store.Order
	for _, o := range f.orders {
		if o.CustomerID == customerID {
			out = append(out, o)
		}
	}
	return out, nil
}

func (f *fakeOrderStore) ListOrderItems(_ context.Context, orderID uuid.UUID) ([]store.OrderItem, error) {
	return f.items[orderID], nil
}

func (f *fakeOrderStore) CancelOrder(_ context.Context, customerID, orderID uuid.UUID) error {
	o, ok := f.orders[orderID]
	if !ok || o.CustomerID != customerID {
		return store.ErrNotFound
	}
	if o.Status != store.OrderStatusPending && o.Status != store.OrderStatusProcessing {
		return store.ErrNotFound
	}
	o.Status = store.OrderStatusCanceled
	f.orders[orderID] = o
	// Voids the unpaid invoice alongside the cancellation, like the real store.
	for id, inv := range f.invoices {
		if inv.OrderID == orderID && inv.Status == store.InvoiceStatusUnpaid {
			inv.Status = store.InvoiceStatusVoid
			f.invoices[id] = inv
		}
	}
	return nil
}

func (f *fakeOrderStore) GetInvoice(_ context.Context, customerID, invoiceID uuid.UUID) (store.Invoice, error) {
	inv, ok := f.invoices[invoiceID]
	if !ok || inv.CustomerID != customerID {
		return store.Invoice{}, store.ErrNotFound
	}
	return inv, nil
}

func (f *fakeOrderStore) ListInvoices(_ context.Context, customerID uuid.UUID, limit, offset int32) ([]store.Invoice, error) {
	var out []store.Invoice
	for _, inv := range f.invoices {
		if inv.CustomerID == customerID {
			out = append(out, inv)
		}
	}
	return out, nil
}

func seedOrder(st *fakeOrderStore, customerID uuid.UUID, status string) store.Order {
	o := store.Order{
		ID: uuid.New(), CustomerID: customerID, CartID: uuid.New(),
		Status: status, Total: 91800, Currency: "AOA", CreatedAt: time.Now(),
	}
	st.orders[o.ID] = o
	st.items[o.ID] = []store.OrderItem{
		{ID: uuid.New(), OrderID: o.ID, ProductType: "domain", Label: "empresa.ao", Years: 2, UnitPrice: 63000, Qty: 1, LineTotal: 63000},
		{ID: uuid.New(), OrderID: o.ID, ProductType: "hosting", Label: "hospedagem-base", Years: 3, UnitPrice: 28800, Qty: 1, LineTotal: 28800},
	}
	return o
}

func newOrderService(t *testing.T) (*Service, *fakeOrderStore) {
	t.Helper()
	st := newFakeOrderStore()
	svc, err := NewService(st)
	require.NoError(t, err)
	return svc, st
}

func TestGetReturnsOrderWithItems(t *testing.T) {
	svc, st := newOrderService(t)
	customer := uuid.New()
	seeded := seedOrder(st, customer, store.OrderStatusPending)

	view, err := svc.Get(context.Background(), customer, seeded.ID)
	require.NoError(t, err)
	require.Equal(t, int64(91800), view.Total)
	require.Len(t, view.Items, 2)
	require.Equal(t, "empresa.ao", view.Items[0].Label)
	require.Equal(t, int64(63000), view.Items[0].LineTotal)
}

func TestGetScopedToOwner(t *testing.T) {
	svc, st := newOrderService(t)
	seeded := seedOrder(st, uuid.New(), store.OrderStatusPending)

	_, err := svc.Get(context.Background(), uuid.New(), seeded.ID)
	require.Error(t, err)
}

func TestCancelPendingOrder(t *testing.T) {
	svc, st := newOrderService(t)
	customer := uuid.New()
	seeded := seedOrder(st, customer, store.OrderStatusPending)

	require.NoError(t, svc.Cancel(context.Background(), customer, seeded.ID))
	require.Equal(t, store.OrderStatusCanceled, st.orders[seeded.ID].Status)
}

func TestCancelVoidsUnpaidInvoice(t *testing.T) {
	svc, st := newOrderService(t)
	customer := uuid.New()
	seeded := seedOrder(st, customer, store.OrderStatusPending)
	inv := store.Invoice{
		ID: uuid.New(), OrderID: seeded.ID, CustomerID: customer,
		Number: "FT-2026-CANCEL", Status: store.InvoiceStatusUnpaid,
		Amount: 91800, Currency: "AOA", DueAt: time.Now().AddDate(0, 0, 3),
	}
	st.invoices[inv.ID] = inv

	require.NoError(t, svc.Cancel(context.Background(), customer, seeded.ID))
	require.Equal(t, store.OrderStatusCanceled, st.orders[seeded.ID].Status)
	require.Equal(t, store.InvoiceStatusVoid, st.invoices[inv.ID].Status)
}

func TestCancelPaidOrderRejected(t *testing.T) {
	svc, st := newOrderService(t)
	customer := uuid.New()
	seeded := seedOrder(st, customer, store.OrderStatusPaid)

	err := svc.Cancel(context.Background(), customer, seeded.ID)
	require.Error(t, err)
	require.Equal(t, store.OrderStatusPaid, st.orders[seeded.ID].Status)
}

func TestInvoiceViewIncludesSettlementFields(t *testing.T) {
	svc, st := newOrderService(t)
	customer := uuid.New()
	paidAt := time.Now()
	inv := store.Invoice{
		ID: uuid.New(), OrderID: uuid.New(), CustomerID: customer,
		Number: "FT-2026-ABCDEF1234", Status: store.InvoiceStatusPaid,
		Amount: 91800, Currency: "AOA", DueAt: time.Now().AddDate(0, 0, 3),
	}
	inv.PaidAt.Time = paidAt
	inv.PaidAt.Valid = true
	inv.PaymentMethod.String = store.MethodBalance
	inv.PaymentMethod.Valid = true
	st.invoices[inv.ID] = inv

	view, err := svc.Invoice(context.Background(), customer, inv.ID)
	require.NoError(t, err)
	require.Equal(t, "FT-2026-ABCDEF1234", view.Number)
	require.NotNil(t, view.PaidAt)
	require.NotNil(t, view.PaymentMethod)
	require.Equal(t, store.MethodBalance, *view.PaymentMethod)
}
