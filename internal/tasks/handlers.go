package tasks

import (
	"context"
	"time"

	"github.com/hibiken/asynq"
	"github.com/rs/zerolog"

	"github.com/zaida-dev/backend-hospeda/internal/events"
	"github.com/zaida-dev/backend-hospeda/internal/store"
)

// Store defines the persistence operations the background tasks depend on.
type Store interface {
	ExpireStaleCarts(ctx context.Context, now time.Time) (int64, error)
	ListOverdueInvoices(ctx context.Context, now time.Time, limit int32) ([]store.Invoice, error)
}

// Handlers bundles the task processors with their dependencies.
type Handlers struct {
	Store        Store
	Bus          *events.Bus
	Logger       zerolog.Logger
	OverdueBatch int32
}

// Mux routes task types to their handlers.
func (h *Handlers) Mux() *asynq.ServeMux {
	mux := asynq.NewServeMux()
	mux.HandleFunc(TypeCartExpiry, h.HandleCartExpiry)
	mux.HandleFunc(TypeInvoiceOverdue, h.HandleInvoiceOverdue)
	return mux
}

// HandleCartExpiry marks open carts past their TTL as EXPIRED.
func (h *Handlers) HandleCartExpiry(ctx context.Context, _ *asynq.Task) error {
	expired, err := h.Store.ExpireStaleCarts(ctx, time.Now())
	if err != nil {
		h.Logger.Error().Err(err).Msg("expire stale carts")
		return err
	}
	if expired > 0 {
		h.Logger.Info().Int64("expired", expired).Msg("carts expired")
	}
	return nil
}

// HandleInvoiceOverdue emits a reminder event per unpaid invoice past its due
// date. The scan is idempotent; a reminder per run is acceptable downstream.
func (h *Handlers) HandleInvoiceOverdue(ctx context.Context, _ *asynq.Task) error {
	batch := h.OverdueBatch
	if batch <= 0 {
		batch = 100
	}
	invoices, err := h.Store.ListOverdueInvoices(ctx, time.Now(), batch)
	if err != nil {
		h.Logger.Error().Err(err).Msg("list overdue invoices")
		return err
	}
	for _, inv := range invoices {
		if h.Bus == nil {
			continue
		}
		if _, err := h.Bus.Emit(ctx, events.TopicInvoiceOverdue, store.NullUUID(inv.ID), map[string]any{
			"invoice_number": inv.Number,
			"amount":         inv.Amount,
			"due_at":         inv.DueAt,
		}); err != nil {
			h.Logger.Warn().Err(err).Str("invoice", inv.Number).Msg("emit invoice.overdue")
		}
	}
	if len(invoices) > 0 {
		h.Logger.Info().Int("overdue", len(invoices)).Msg("overdue invoices flagged")
	}
	return nil
}
