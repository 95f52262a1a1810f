package payment

import (
	"bytes"
	"context"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/alicebob/miniredis/v2"
	"github.com/go-chi/chi/v5"
	"github.com/google/uuid"
	redis "github.com/redis/go-redis/v9"
	"github.com/rs/zerolog"
	"github.com/stretchr/testify/require"

	"github.com/zaida-dev/backend-hospeda/internal/store"
)

type fakeSettlementStore struct {
	payment     store.Payment
	settled     int
	failed      int
	settleErr   error
	settlements store.SettlementResult
}

func (f *fakeSettlementStore) GetPaymentByReference(context.Context, string) (store.Payment, error) {
	if f.payment.Reference == "" {
		return store.Payment{}, store.ErrNotFound
	}
	return f.payment, nil
}

func (f *fakeSettlementStore) SettleGatewayPayment(context.Context, string) (store.SettlementResult, error) {
	if f.settleErr != nil {
		return store.SettlementResult{}, f.settleErr
	}
	f.settled++
	return f.settlements, nil
}

func (f *fakeSettlementStore) FailPayment(context.Context, string) error {
	f.failed++
	return nil
}

func newWebhook(t *testing.T, st *fakeSettlementStore) Webhook {
	t.Helper()
	mr := miniredis.RunT(t)
	client := redis.NewClient(&redis.Options{Addr: mr.Addr()})
	t.Cleanup(func() { _ = client.Close() })
	return Webhook{
		Store:     st,
		Providers: map[string]Provider{"proxypay": ProxyPay{APIKey: "secret"}},
		Replay:    client,
		ReplayTTL: time.Hour,
		Logger:    zerolog.Nop(),
	}
}

func postWebhook(h Webhook, body []byte) *httptest.ResponseRecorder {
	r := chi.NewRouter()
	r.Post("/api/v1/payments/webhook/{provider}", h.Handle)
	rr := httptest.NewRecorder()
	req := httptest.NewRequest(http.MethodPost, "/api/v1/payments/webhook/proxypay", bytes.NewReader(body))
	r.ServeHTTP(rr, req)
	return rr
}

func TestWebhookSettlesPaidNotification(t *testing.T) {
	st := &fakeSettlementStore{
		payment: store.Payment{ID: uuid.New(), InvoiceID: uuid.New(), Reference: "PP-REF1",
			Method: store.MethodGateway, Status: store.PaymentStatusPending, Amount: 63000},
		settlements: store.SettlementResult{
			Payment: store.Payment{Reference: "PP-REF1", Method: store.MethodGateway, Status: store.PaymentStatusConfirmed},
			Invoice: store.Invoice{ID: uuid.New(), Number: "FT-2026-X", Status: store.InvoiceStatusPaid, Amount: 63000},
		},
	}
	h := newWebhook(t, st)

	rr := postWebhook(h, signedPayload(t, "secret", "PP-REF1", "63000", "accepted"))
	require.Equal(t, http.StatusOK, rr.Code)
	require.Equal(t, 1, st.settled)
}

func TestWebhookRejectsBadSignature(t *testing.T) {
	st := &fakeSettlementStore{}
	h := newWebhook(t, st)

	rr := postWebhook(h, signedPayload(t, "wrong-key", "PP-REF1", "63000", "accepted"))
	require.Equal(t, http.StatusUnauthorized, rr.Code)
	require.Zero(t, st.settled)
}

func TestWebhookDuplicateBodyIsReplay(t *testing.T) {
	st := &fakeSettlementStore{
		payment: store.Payment{Reference: "PP-REF1", Amount: 63000, Status: store.PaymentStatusPending},
	}
	h := newWebhook(t, st)
	body := signedPayload(t, "secret", "PP-REF1", "63000", "accepted")

	first := postWebhook(h, body)
	require.Equal(t, http.StatusOK, first.Code)
	second := postWebhook(h, body)
	require.Equal(t, http.StatusConflict, second.Code)
	require.Equal(t, 1, st.settled)
}

func TestWebhookAlreadySettledIsIdempotent(t *testing.T) {
	st := &fakeSettlementStore{
		payment:   store.Payment{Reference: "PP-REF1", Amount: 63000, Status: store.PaymentStatusConfirmed},
		settleErr: store.ErrAlreadySettled,
	}
	h := newWebhook(t, st)

	rr := postWebhook(h, signedPayload(t, "secret", "PP-REF1", "63000", "accepted"))
	require.Equal(t, http.StatusOK, rr.Code)
}

func TestWebhookRejectsSettlementOfCanceledOrder(t *testing.T) {
	st := &fakeSettlementStore{
		payment:   store.Payment{Reference: "PP-REF1", Amount: 63000, Status: store.PaymentStatusPending},
		settleErr: store.ErrOrderCanceled,
	}
	h := newWebhook(t, st)

	rr := postWebhook(h, signedPayload(t, "secret", "PP-REF1", "63000", "accepted"))
	require.Equal(t, http.StatusConflict, rr.Code)
	require.Zero(t, st.settled)
}

func TestWebhookAmountMismatch(t *testing.T) {
	st := &fakeSettlementStore{
		payment: store.Payment{Reference: "PP-REF1", Amount: 1000, Status: store.PaymentStatusPending},
	}
	h := newWebhook(t, st)

	rr := postWebhook(h, signedPayload(t, "secret", "PP-REF1", "63000", "accepted"))
	require.Equal(t, http.StatusBadRequest, rr.Code)
}

func TestWebhookFailedNotificationMarksPayment(t *testing.T) {
	st := &fakeSettlementStore{
		payment: store.Payment{Reference: "PP-REF1", InvoiceID: uuid.New(), Amount: 63000, Status: store.PaymentStatusPending},
	}
	h := newWebhook(t, st)

	rr := postWebhook(h, signedPayload(t, "secret", "PP-REF1", "63000", "rejected"))
	require.Equal(t, http.StatusOK, rr.Code)
	require.Equal(t, 1, st.failed)
	require.Zero(t, st.settled)
}
