package driver

import (
	"time"

	"dispatch/internal/core/domain/model/kernel"
)

// LedgerEntry is an immutable record of a single driver availability
// transition. Entries are appended to the driver status log and never
// updated or deleted, mirroring the order status ledger.
type LedgerEntry struct {
	// DriverID identifies the driver this entry belongs to.
	DriverID kernel.UUID

	// Status is the status the driver transitioned into.
	Status Status

	// ChangedAt is when the transition happened.
	ChangedAt time.Time

	// AssignmentsInProgress is how many concurrently accepted missions the
	// driver held after this transition.
	AssignmentsInProgress int

	// Metadata carries free-form context for the transition.
	Metadata map[string]string
}
