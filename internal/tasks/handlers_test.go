package tasks

import (
	"context"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5/pgtype"
	"github.com/rs/zerolog"
	"github.com/stretchr/testify/require"

	"github.com/zaida-dev/backend-hospeda/internal/events"
	"github.com/zaida-dev/backend-hospeda/internal/store"
)

type fakeTaskStore struct {
	expired    int64
	expireErr  error
	overdue    []store.Invoice
	sweepCalls int
}

func (f *fakeTaskStore) ExpireStaleCarts(_ context.Context, _ time.Time) (int64, error) {
	f.sweepCalls++
	return f.expired, f.expireErr
}

func (f *fakeTaskStore) ListOverdueInvoices(_ context.Context, _ time.Time, _ int32) ([]store.Invoice, error) {
	return f.overdue, nil
}

type memoryEventStore struct {
	events []store.DomainEvent
}

func (m *memoryEventStore) InsertDomainEvent(_ context.Context, topic string, aggregateID pgtype.UUID, payload []byte) (store.DomainEvent, error) {
	ev := store.DomainEvent{ID: uuid.New(), Topic: topic, AggregateID: aggregateID, Payload: payload}
	m.events = append(m.events, ev)
	return ev, nil
}

func TestHandleCartExpirySweeps(t *testing.T) {
	st := &fakeTaskStore{expired: 3}
	h := &Handlers{Store: st, Logger: zerolog.Nop()}

	require.NoError(t, h.HandleCartExpiry(context.Background(), NewCartExpiryTask()))
	require.Equal(t, 1, st.sweepCalls)
}

func TestHandleInvoiceOverdueEmitsEvents(t *testing.T) {
	st := &fakeTaskStore{overdue: []store.Invoice{
		{ID: uuid.New(), Number: "FT-2026-AAAA", Amount: 63000, DueAt: time.Now().AddDate(0, 0, -2)},
		{ID: uuid.New(), Number: "FT-2026-BBBB", Amount: 28800, DueAt: time.Now().AddDate(0, 0, -5)},
	}}
	es := &memoryEventStore{}
	h := &Handlers{Store: st, Bus: &events.Bus{Store: es}, Logger: zerolog.Nop()}

	require.NoError(t, h.HandleInvoiceOverdue(context.Background(), NewInvoiceOverdueTask()))
	require.Len(t, es.events, 2)
	for _, ev := range es.events {
		require.Equal(t, events.TopicInvoiceOverdue, ev.Topic)
	}
}

func TestHandleInvoiceOverdueNoBus(t *testing.T) {
	st := &fakeTaskStore{overdue: []store.Invoice{{ID: uuid.New(), Number: "FT-2026-CCCC"}}}
	h := &Handlers{Store: st, Logger: zerolog.Nop()}

	require.NoError(t, h.HandleInvoiceOverdue(context.Background(), NewInvoiceOverdueTask()))
}
