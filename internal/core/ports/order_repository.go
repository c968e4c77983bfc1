package ports

import (
	"context"
	"time"

	"dispatch/internal/core/domain/model/kernel"
	"dispatch/internal/core/domain/model/order"
)

// OrderRepository defines the persistence contract for order aggregates.
// Implementations persist the aggregate's ledger entries in the same
// transaction as the order row, keeping the materialized status column and
// the append-only status log consistent.
type OrderRepository interface {
	// Add persists a new order aggregate to storage.
	// The order must be valid and not already exist in the repository.
	Add(ctx context.Context, aggregate *order.Order) error

	// Update persists changes to an existing order aggregate.
	// The order must exist in the repository and be valid.
	Update(ctx context.Context, aggregate *order.Order) error

	// Get retrieves an order aggregate by its unique identifier.
	// Returns the complete order with its offer state and assignment.
	Get(ctx context.Context, id kernel.UUID) (*order.Order, error)

	// GetWithExpiredOffers retrieves all orders holding an open offer whose
	// deadline lies at or before now. Used by the expiration reconciliation
	// scan; the state transition itself happens on the consumer path.
	GetWithExpiredOffers(ctx context.Context, now time.Time) ([]*order.Order, error)
}
