package payment

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"

	"github.com/go-chi/chi/v5"
	redis "github.com/redis/go-redis/v9"
	"github.com/rs/zerolog"

	"github.com/zaida-dev/backend-hospeda/internal/common"
	"github.com/zaida-dev/backend-hospeda/internal/events"
	"github.com/zaida-dev/backend-hospeda/internal/obs"
	"github.com/zaida-dev/backend-hospeda/internal/store"
)

// SettlementStore defines the transactional operations the webhook depends on.
type SettlementStore interface {
	GetPaymentByReference(ctx context.Context, reference string) (store.Payment, error)
	SettleGatewayPayment(ctx context.Context, reference string) (store.SettlementResult, error)
	FailPayment(ctx context.Context, reference string) error
}

// Webhook handles payment provider callbacks, including signature verification and settlement.
type Webhook struct {
	Store     SettlementStore
	Providers map[string]Provider
	Replay    *redis.Client
	ReplayTTL time.Duration
	Events    *events.Bus
	Logger    zerolog.Logger
}

// Handle processes webhook callbacks for the configured payment provider(s).
func (h Webhook) Handle(w http.ResponseWriter, r *http.Request) {
	if h.Store == nil || h.Providers == nil {
		common.JSONError(w, http.StatusInternalServerError, "PAYMENT_NOT_CONFIGURED", "webhook unavailable", nil)
		return
	}
	providerKey := strings.ToLower(strings.TrimSpace(chi.URLParam(r, "provider")))
	provider, ok := h.Providers[providerKey]
	if !ok {
		common.JSONError(w, http.StatusNotFound, "PROVIDER_NOT_SUPPORTED", "unknown provider", nil)
		return
	}
	body, err := io.ReadAll(r.Body)
	if err != nil {
		common.JSONError(w, http.StatusBadRequest, "INVALID_BODY", "unable to read payload", nil)
		return
	}
	r.Body = io.NopCloser(bytes.NewReader(body))
	result, err := provider.VerifyWebhook(r, body)
	if err != nil {
		common.JSONError(w, http.StatusBadRequest, "WEBHOOK_INVALID", err.Error(), nil)
		return
	}
	if !result.Valid {
		h.countWebhook(providerKey, "invalid_signature")
		common.JSONError(w, http.StatusUnauthorized, "INVALID_SIGNATURE", "signature verification failed", nil)
		return
	}
	if h.Replay != nil && h.ReplayTTL > 0 {
		key := fmt.Sprintf("wh:%s:%s", providerKey, common.Sha256Hex(string(body)))
		ok, err := h.Replay.SetNX(r.Context(), key, "1", h.ReplayTTL).Result()
		if err != nil {
			common.JSONError(w, http.StatusInternalServerError, "REPLAY_STORE_ERROR", err.Error(), nil)
			return
		}
		if !ok {
			h.countWebhook(providerKey, "replay")
			common.JSONError(w, http.StatusConflict, "REPLAY", "duplicate webhook", nil)
			return
		}
	}

	ctx := r.Context()
	payment, err := h.Store.GetPaymentByReference(ctx, result.Reference)
	if err != nil {
		if errors.Is(err, store.ErrNotFound) {
			common.JSONError(w, http.StatusNotFound, "PAYMENT_NOT_FOUND", "payment not found", nil)
			return
		}
		common.JSONError(w, http.StatusInternalServerError, "PAYMENT_FETCH_ERROR", err.Error(), nil)
		return
	}
	if result.Amount > 0 && payment.Amount != result.Amount {
		h.countWebhook(providerKey, "amount_mismatch")
		common.JSONError(w, http.StatusBadRequest, "AMOUNT_MISMATCH", "provider amount mismatch", nil)
		return
	}

	switch result.Status {
	case "PAID":
		settlement, err := h.Store.SettleGatewayPayment(ctx, result.Reference)
		if err != nil {
			if errors.Is(err, store.ErrAlreadySettled) {
				h.countWebhook(providerKey, "already_settled")
				common.JSON(w, http.StatusOK, map[string]any{"data": map[string]string{"status": "already_settled"}})
				return
			}
			if errors.Is(err, store.ErrOrderCanceled) {
				h.countWebhook(providerKey, "order_canceled")
				common.JSONError(w, http.StatusConflict, "ORDER_CANCELED", "order was canceled", nil)
				return
			}
			common.JSONError(w, http.StatusInternalServerError, "SETTLEMENT_ERROR", err.Error(), nil)
			return
		}
		h.countWebhook(providerKey, "settled")
		h.countSettlement(store.MethodGateway, "paid")
		h.emit(ctx, events.TopicInvoicePaid, settlement)
		common.JSON(w, http.StatusOK, map[string]any{"data": map[string]string{"status": "settled"}})
	case "FAILED", "EXPIRED":
		if err := h.Store.FailPayment(ctx, result.Reference); err != nil && !errors.Is(err, store.ErrNotFound) {
			common.JSONError(w, http.StatusInternalServerError, "PAYMENT_UPDATE_ERROR", err.Error(), nil)
			return
		}
		h.countWebhook(providerKey, "failed")
		h.emitFailed(ctx, payment)
		common.JSON(w, http.StatusOK, map[string]any{"data": map[string]string{"status": "failed"}})
	default:
		h.countWebhook(providerKey, "pending")
		common.JSON(w, http.StatusOK, map[string]any{"data": map[string]string{"status": "pending"}})
	}
}

func (h Webhook) emit(ctx context.Context, topic string, settlement store.SettlementResult) {
	if h.Events == nil {
		return
	}
	if _, err := h.Events.Emit(ctx, topic, store.NullUUID(settlement.Invoice.ID), map[string]any{
		"invoice_number": settlement.Invoice.Number,
		"amount":         settlement.Invoice.Amount,
		"method":         settlement.Payment.Method,
	}); err != nil {
		h.Logger.Warn().Err(err).Str("invoice", settlement.Invoice.Number).Msg("emit settlement event")
	}
}

func (h Webhook) emitFailed(ctx context.Context, payment store.Payment) {
	if h.Events == nil {
		return
	}
	if _, err := h.Events.Emit(ctx, events.TopicPaymentFailed, store.NullUUID(payment.InvoiceID), map[string]any{
		"reference": payment.Reference,
		"amount":    payment.Amount,
	}); err != nil {
		h.Logger.Warn().Err(err).Str("reference", payment.Reference).Msg("emit payment.failed")
	}
}

func (h Webhook) countWebhook(provider, result string) {
	if obs.PaymentWebhookTotal != nil {
		obs.PaymentWebhookTotal.WithLabelValues(provider, result).Inc()
	}
}

func (h Webhook) countSettlement(method, result string) {
	if obs.SettlementTotal != nil {
		obs.SettlementTotal.WithLabelValues(method, result).Inc()
	}
}
