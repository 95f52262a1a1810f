package events_test

import (
	"context"
	"errors"
	"testing"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5/pgtype"
	"github.com/stretchr/testify/require"

	"github.com/zaida-dev/backend-hospeda/internal/events"
	"github.com/zaida-dev/backend-hospeda/internal/store"
)

type stubEventStore struct {
	events []store.DomainEvent
	err    error
}

func (s *stubEventStore) InsertDomainEvent(_ context.Context, topic string, aggregateID pgtype.UUID, payload []byte) (store.DomainEvent, error) {
	if s.err != nil {
		return store.DomainEvent{}, s.err
	}
	ev := store.DomainEvent{ID: uuid.New(), Topic: topic, AggregateID: aggregateID, Payload: payload}
	s.events = append(s.events, ev)
	return ev, nil
}

type recordingNotifier struct {
	seen []store.DomainEvent
	err  error
}

func (n *recordingNotifier) Notify(_ context.Context, ev store.DomainEvent) error {
	n.seen = append(n.seen, ev)
	return n.err
}

func aggregate() pgtype.UUID {
	return pgtype.UUID{Bytes: uuid.New(), Valid: true}
}

func TestBusEmitPersistsAndNotifies(t *testing.T) {
	st := &stubEventStore{}
	notifier := &recordingNotifier{}
	bus := &events.Bus{Store: st, Notifiers: []events.Notifier{notifier}}

	ev, err := bus.Emit(context.Background(), events.TopicOrderCreated, aggregate(), map[string]string{"order": "x"})
	require.NoError(t, err)
	require.Equal(t, events.TopicOrderCreated, ev.Topic)
	require.JSONEq(t, `{"order":"x"}`, string(ev.Payload))
	require.Len(t, st.events, 1)
	require.Len(t, notifier.seen, 1)
}

func TestBusEmitRejectsEmptyTopic(t *testing.T) {
	bus := &events.Bus{Store: &stubEventStore{}}
	_, err := bus.Emit(context.Background(), "  ", aggregate(), nil)
	require.Error(t, err)
}

func TestBusEmitRejectsInvalidAggregate(t *testing.T) {
	bus := &events.Bus{Store: &stubEventStore{}}
	_, err := bus.Emit(context.Background(), events.TopicOrderPaid, pgtype.UUID{}, nil)
	require.Error(t, err)
}

func TestBusEmitCollectsNotifierErrors(t *testing.T) {
	st := &stubEventStore{}
	failing := &recordingNotifier{err: errors.New("smtp down")}
	bus := &events.Bus{Store: st, Notifiers: []events.Notifier{failing}}

	ev, err := bus.Emit(context.Background(), events.TopicInvoicePaid, aggregate(), nil)
	require.Error(t, err)
	require.Equal(t, events.TopicInvoicePaid, ev.Topic)
	require.Len(t, st.events, 1)
}

func TestBusEmitRejectsMalformedJSONString(t *testing.T) {
	bus := &events.Bus{Store: &stubEventStore{}}
	_, err := bus.Emit(context.Background(), events.TopicOrderPaid, aggregate(), "{not json")
	require.Error(t, err)
}
