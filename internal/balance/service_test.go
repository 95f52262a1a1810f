package balance

import (
	"context"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/rs/zerolog"
	"github.com/stretchr/testify/require"

	"github.com/zaida-dev/backend-hospeda/internal/common"
	"github.com/zaida-dev/backend-hospeda/internal/store"
)

// fakeBalanceStore mirrors the all-or-nothing debit semantics of the real
// store: a failed debit leaves both the balance and the invoice untouched.
type fakeBalanceStore struct {
	balances map[uuid.UUID]int64
	invoices map[uuid.UUID]store.Invoice
	txs      []store.AccountTransaction
}

func newFakeBalanceStore() *fakeBalanceStore {
	return &fakeBalanceStore{
		balances: map[uuid.UUID]int64{},
		invoices: map[uuid.UUID]store.Invoice{},
	}
}

func (f *fakeBalanceStore) GetBalance(_ context.Context, customerID uuid.UUID) (int64, error) {
	b, ok := f.balances[customerID]
	if !ok {
		return 0, store.ErrNotFound
	}
	return b, nil
}

func (f *fakeBalanceStore) CreditBalance(_ context.Context, customerID uuid.UUID, amount int64, description string) (store.AccountTransaction, error) {
	previous := f.balances[customerID]
	current := previous + amount
	f.balances[customerID] = current
	tx := store.AccountTransaction{
		ID: uuid.New(), CustomerID: customerID, Kind: store.TxKindCredit, Amount: amount,
		PreviousBalance: previous, CurrentBalance: current, Description: description, CreatedAt: time.Now(),
	}
	f.txs = append(f.txs, tx)
	return tx, nil
}

func (f *fakeBalanceStore) DebitForInvoice(_ context.Context, customerID, invoiceID uuid.UUID) (store.AccountTransaction, store.Invoice, error) {
	inv, ok := f.invoices[invoiceID]
	if !ok || inv.CustomerID != customerID {
		return store.AccountTransaction{}, store.Invoice{}, store.ErrNotFound
	}
	if inv.Status == store.InvoiceStatusVoid {
		return store.AccountTransaction{}, store.Invoice{}, store.ErrOrderCanceled
	}
	if inv.Status != store.InvoiceStatusUnpaid {
		return store.AccountTransaction{}, store.Invoice{}, store.ErrAlreadySettled
	}
	previous := f.balances[customerID]
	if previous < inv.Amount {
		return store.AccountTransaction{}, store.Invoice{}, store.ErrInsufficientBalance
	}
	current := previous - inv.Amount
	f.balances[customerID] = current
	inv.Status = store.InvoiceStatusPaid
	f.invoices[invoiceID] = inv
	tx := store.AccountTransaction{
		ID: uuid.New(), CustomerID: customerID, InvoiceID: store.NullUUID(invoiceID),
		Kind: store.TxKindDebit, Amount: inv.Amount,
		PreviousBalance: previous, CurrentBalance: current,
		Description: "payment of invoice " + inv.Number, CreatedAt: time.Now(),
	}
	f.txs = append(f.txs, tx)
	return tx, inv, nil
}

func (f *fakeBalanceStore) ListAccountTransactions(_ context.Context, customerID uuid.UUID, limit, offset int32) ([]store.AccountTransaction, error) {
	var out []store.AccountTransaction
	for _, tx := range f.txs {
		if tx.CustomerID == customerID {
			out = append(out, tx)
		}
	}
	return out, nil
}

func newBalanceService(t *testing.T) (*Service, *fakeBalanceStore) {
	t.Helper()
	st := newFakeBalanceStore()
	svc, err := NewService(st, nil, zerolog.Nop())
	require.NoError(t, err)
	return svc, st
}

func unpaidInvoice(customerID uuid.UUID, amount int64) store.Invoice {
	return store.Invoice{ID: uuid.New(), OrderID: uuid.New(), CustomerID: customerID,
		Number: "FT-2026-T", Status: store.InvoiceStatusUnpaid, Amount: amount, Currency: "AOA"}
}

func TestPayInvoiceFailsWhenBalanceShort(t *testing.T) {
	svc, st := newBalanceService(t)
	customer := uuid.New()
	st.balances[customer] = 10000
	inv := unpaidInvoice(customer, 15000)
	st.invoices[inv.ID] = inv

	_, err := svc.PayInvoice(context.Background(), customer, inv.ID)
	require.Error(t, err)

	require.Equal(t, int64(10000), st.balances[customer])
	require.Equal(t, store.InvoiceStatusUnpaid, st.invoices[inv.ID].Status)
	require.Empty(t, st.txs)
}

func TestPayInvoiceDebitsAndAudits(t *testing.T) {
	svc, st := newBalanceService(t)
	customer := uuid.New()
	st.balances[customer] = 20000
	inv := unpaidInvoice(customer, 15000)
	st.invoices[inv.ID] = inv

	result, err := svc.PayInvoice(context.Background(), customer, inv.ID)
	require.NoError(t, err)

	require.Equal(t, int64(5000), st.balances[customer])
	require.Equal(t, store.InvoiceStatusPaid, result.InvoiceStatus)
	require.Len(t, st.txs, 1)
	require.Equal(t, int64(20000), result.Transaction.PreviousBalance)
	require.Equal(t, int64(5000), result.Transaction.CurrentBalance)
	require.Equal(t, store.TxKindDebit, result.Transaction.Kind)
}

func TestPayInvoiceTwiceReportsAlreadyPaid(t *testing.T) {
	svc, st := newBalanceService(t)
	customer := uuid.New()
	st.balances[customer] = 50000
	inv := unpaidInvoice(customer, 15000)
	st.invoices[inv.ID] = inv

	_, err := svc.PayInvoice(context.Background(), customer, inv.ID)
	require.NoError(t, err)
	_, err = svc.PayInvoice(context.Background(), customer, inv.ID)
	require.Error(t, err)
	require.Equal(t, int64(35000), st.balances[customer])
	require.Len(t, st.txs, 1)
}

func TestCreditRecordsTransaction(t *testing.T) {
	svc, st := newBalanceService(t)
	customer := uuid.New()
	st.balances[customer] = 0

	tx, err := svc.Credit(context.Background(), customer, 20000, "transferência confirmada")
	require.NoError(t, err)
	require.Equal(t, int64(0), tx.PreviousBalance)
	require.Equal(t, int64(20000), tx.CurrentBalance)
	require.Equal(t, store.TxKindCredit, tx.Kind)
}

func TestCreditRejectsNonPositiveAmount(t *testing.T) {
	svc, _ := newBalanceService(t)
	_, err := svc.Credit(context.Background(), uuid.New(), 0, "")
	require.Error(t, err)
	_, err = svc.Credit(context.Background(), uuid.New(), -100, "")
	require.Error(t, err)
}

func TestPayInvoiceRejectsVoidInvoice(t *testing.T) {
	svc, st := newBalanceService(t)
	customer := uuid.New()
	st.balances[customer] = 50000
	inv := unpaidInvoice(customer, 15000)
	inv.Status = store.InvoiceStatusVoid
	st.invoices[inv.ID] = inv

	_, err := svc.PayInvoice(context.Background(), customer, inv.ID)
	var appErr *common.AppError
	require.ErrorAs(t, err, &appErr)
	require.Equal(t, "ORDER_CANCELED", appErr.Code)

	require.Equal(t, int64(50000), st.balances[customer])
	require.Equal(t, store.InvoiceStatusVoid, st.invoices[inv.ID].Status)
	require.Empty(t, st.txs)
}

func TestPayInvoiceScopedToOwner(t *testing.T) {
	svc, st := newBalanceService(t)
	owner := uuid.New()
	other := uuid.New()
	st.balances[owner] = 50000
	st.balances[other] = 50000
	inv := unpaidInvoice(owner, 15000)
	st.invoices[inv.ID] = inv

	_, err := svc.PayInvoice(context.Background(), other, inv.ID)
	require.Error(t, err)
	require.Equal(t, int64(50000), st.balances[other])
}
