package order

import (
	"time"

	"dispatch/internal/core/domain/model/kernel"
)

// LedgerEntry is an immutable record of a single order status transition.
// Entries are appended to the order status log and never updated or deleted;
// the materialized status column on the order row is updated in the same
// transaction that inserts the entry.
type LedgerEntry struct {
	// OrderID identifies the order this entry belongs to.
	OrderID kernel.UUID

	// Status is the status the order transitioned into.
	Status Status

	// ChangedAt is when the transition happened.
	ChangedAt time.Time

	// ActorID identifies who caused the transition: the driver for
	// accept/progress/completion entries, the administrator for manual
	// actions, nil for system-initiated transitions.
	ActorID *kernel.UUID

	// Location is an optional snapshot of where the actor was when the
	// transition happened, reported by driver milestone calls.
	Location *kernel.Location

	// Metadata carries free-form context, e.g. the cancellation reason.
	Metadata map[string]string
}

// newLedgerEntry builds an entry for the given transition. Used internally by
// the Order aggregate; entries surface to persistence via PopLedgerEntries.
func newLedgerEntry(
	orderID kernel.UUID,
	status Status,
	changedAt time.Time,
	actorID *kernel.UUID,
	location *kernel.Location,
	metadata map[string]string,
) LedgerEntry {
	return LedgerEntry{
		OrderID:   orderID,
		Status:    status,
		ChangedAt: changedAt,
		ActorID:   actorID,
		Location:  location,
		Metadata:  metadata,
	}
}
