package payment

import (
	"context"
	"errors"
	"net/http"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/rs/zerolog"
	"github.com/stretchr/testify/require"

	"github.com/zaida-dev/backend-hospeda/internal/common"
	"github.com/zaida-dev/backend-hospeda/internal/store"
)

type fakePaymentStore struct {
	invoice     store.Invoice
	invErr      error
	payments    []store.Payment
	orderStatus string
}

func (f *fakePaymentStore) GetInvoice(context.Context, uuid.UUID, uuid.UUID) (store.Invoice, error) {
	if f.invErr != nil {
		return store.Invoice{}, f.invErr
	}
	return f.invoice, nil
}

func (f *fakePaymentStore) CreatePayment(_ context.Context, invoiceID uuid.UUID, provider, method, reference string, amount int64) (store.Payment, error) {
	p := store.Payment{ID: uuid.New(), InvoiceID: invoiceID, Provider: provider, Method: method,
		Reference: reference, Status: store.PaymentStatusPending, Amount: amount}
	f.payments = append(f.payments, p)
	return p, nil
}

// CreateGatewayPayment mirrors the store contract: the attempt is recorded and
// a pending order moves to PROCESSING.
func (f *fakePaymentStore) CreateGatewayPayment(ctx context.Context, invoiceID uuid.UUID, provider, reference string, amount int64) (store.Payment, error) {
	p, err := f.CreatePayment(ctx, invoiceID, provider, store.MethodGateway, reference, amount)
	if err != nil {
		return store.Payment{}, err
	}
	if f.orderStatus == store.OrderStatusPending {
		f.orderStatus = store.OrderStatusProcessing
	}
	return p, nil
}

func (f *fakePaymentStore) GetPaymentByReference(context.Context, string) (store.Payment, error) {
	if len(f.payments) == 0 {
		return store.Payment{}, store.ErrNotFound
	}
	return f.payments[len(f.payments)-1], nil
}

func unpaidInvoice() store.Invoice {
	return store.Invoice{ID: uuid.New(), OrderID: uuid.New(), CustomerID: uuid.New(),
		Number: "FT-2026-ABC", Status: store.InvoiceStatusUnpaid, Amount: 63000, Currency: "AOA",
		DueAt: time.Now().AddDate(0, 0, 3)}
}

func newPaymentService(t *testing.T, st *fakePaymentStore) *Service {
	t.Helper()
	svc, err := NewService(Config{
		Store:    st,
		Provider: ProxyPay{APIKey: "k", Sandbox: true},
		Logger:   zerolog.Nop(),
		Bank:     BankDetails{BankName: "Banco BAI", IBAN: "AO06.0040.0000.1234.5678.1011.2", AccountHolder: "Hospeda LDA"},
	})
	require.NoError(t, err)
	return svc
}

func TestInitiateGatewayRecordsPendingPayment(t *testing.T) {
	st := &fakePaymentStore{invoice: unpaidInvoice()}
	svc := newPaymentService(t, st)

	intent, err := svc.InitiateGateway(context.Background(), st.invoice.CustomerID, st.invoice.ID)
	require.NoError(t, err)
	require.Equal(t, "proxypay", intent.Provider)
	require.Equal(t, int64(63000), intent.Amount)
	require.NotEmpty(t, intent.RedirectURL)

	require.Len(t, st.payments, 1)
	require.Equal(t, store.MethodGateway, st.payments[0].Method)
	require.Equal(t, intent.Reference, st.payments[0].Reference)
}

func TestInitiateGatewayRejectsPaidInvoice(t *testing.T) {
	inv := unpaidInvoice()
	inv.Status = store.InvoiceStatusPaid
	st := &fakePaymentStore{invoice: inv}
	svc := newPaymentService(t, st)

	_, err := svc.InitiateGateway(context.Background(), inv.CustomerID, inv.ID)
	require.Error(t, err)
	require.Empty(t, st.payments)
}

func TestBankTransferInstructionsIncludeReference(t *testing.T) {
	st := &fakePaymentStore{invoice: unpaidInvoice()}
	svc := newPaymentService(t, st)

	instructions, err := svc.BankTransferInstructions(context.Background(), st.invoice.CustomerID, st.invoice.ID)
	require.NoError(t, err)
	require.Equal(t, "Banco BAI", instructions.Bank.BankName)
	require.Equal(t, st.invoice.Number, instructions.InvoiceNumber)
	require.NotEmpty(t, instructions.Reference)
	require.Len(t, st.payments, 1)
	require.Equal(t, store.MethodBankTransfer, st.payments[0].Method)
}

func TestInitiateGatewayMissingInvoice(t *testing.T) {
	st := &fakePaymentStore{invErr: store.ErrNotFound}
	svc := newPaymentService(t, st)

	_, err := svc.InitiateGateway(context.Background(), uuid.New(), uuid.New())
	require.Error(t, err)
}

func TestInitiateGatewayMovesOrderToProcessing(t *testing.T) {
	st := &fakePaymentStore{invoice: unpaidInvoice(), orderStatus: store.OrderStatusPending}
	svc := newPaymentService(t, st)

	_, err := svc.InitiateGateway(context.Background(), st.invoice.CustomerID, st.invoice.ID)
	require.NoError(t, err)
	require.Equal(t, store.OrderStatusProcessing, st.orderStatus)

	// A second intent against the same invoice keeps the order in PROCESSING.
	_, err = svc.InitiateGateway(context.Background(), st.invoice.CustomerID, st.invoice.ID)
	require.NoError(t, err)
	require.Equal(t, store.OrderStatusProcessing, st.orderStatus)
}

// unreachableProvider stands in for a gateway that is down.
type unreachableProvider struct{}

func (unreachableProvider) Name() string { return "proxypay" }

func (unreachableProvider) CreateIntent(context.Context, IntentRequest) (IntentResponse, error) {
	return IntentResponse{}, errors.New("connect: connection refused")
}

func (unreachableProvider) VerifyWebhook(*http.Request, []byte) (WebhookVerifyResult, error) {
	return WebhookVerifyResult{}, nil
}

func TestInitiateGatewayErrorLeavesNoPaymentRow(t *testing.T) {
	st := &fakePaymentStore{invoice: unpaidInvoice(), orderStatus: store.OrderStatusPending}
	svc, err := NewService(Config{Store: st, Provider: unreachableProvider{}, Logger: zerolog.Nop()})
	require.NoError(t, err)

	_, err = svc.InitiateGateway(context.Background(), st.invoice.CustomerID, st.invoice.ID)
	var appErr *common.AppError
	require.ErrorAs(t, err, &appErr)
	require.Equal(t, "GATEWAY_ERROR", appErr.Code)

	require.Empty(t, st.payments)
	require.Equal(t, store.OrderStatusPending, st.orderStatus)
}

func TestInitiateGatewayRejectsVoidInvoice(t *testing.T) {
	inv := unpaidInvoice()
	inv.Status = store.InvoiceStatusVoid
	st := &fakePaymentStore{invoice: inv}
	svc := newPaymentService(t, st)

	_, err := svc.InitiateGateway(context.Background(), inv.CustomerID, inv.ID)
	var appErr *common.AppError
	require.ErrorAs(t, err, &appErr)
	require.Equal(t, "ORDER_CANCELED", appErr.Code)
	require.Empty(t, st.payments)
}
