package events

import (
	"context"

	"github.com/rs/zerolog"

	"github.com/zaida-dev/backend-hospeda/internal/store"
)

// LogNotifier writes every emitted event to the structured log.
type LogNotifier struct {
	Logger zerolog.Logger
}

// Notify implements the Notifier interface.
func (n LogNotifier) Notify(_ context.Context, event store.DomainEvent) error {
	n.Logger.Info().
		Str("topic", event.Topic).
		Str("event_id", event.ID.String()).
		RawJSON("payload", event.Payload).
		Msg("domain event")
	return nil
}
