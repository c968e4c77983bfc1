package ports

import (
	"context"

	"dispatch/internal/core/domain/model/kernel"
	"dispatch/internal/core/domain/model/lifecycle"
)

// OutboxMessage is a lifecycle event staged in the transactional outbox.
// The row id orders and identifies the message for the relay job.
type OutboxMessage struct {
	// ID is the outbox row identifier.
	ID kernel.UUID

	// Event is the staged lifecycle event.
	Event lifecycle.Event
}

// OutboxRepository defines the persistence contract for the transactional
// outbox. Lifecycle events are inserted in the same transaction as the state
// change they describe; a relay job publishes pending rows to the event log
// and marks them sent, so an event reaches the log iff its transaction
// committed.
type OutboxRepository interface {
	// Add stages a lifecycle event within the current transaction.
	Add(ctx context.Context, event lifecycle.Event) error

	// GetPending retrieves up to limit unsent messages in insertion order.
	GetPending(ctx context.Context, limit int) ([]OutboxMessage, error)

	// MarkSent marks the given messages as published to the event log.
	MarkSent(ctx context.Context, ids []kernel.UUID) error
}
