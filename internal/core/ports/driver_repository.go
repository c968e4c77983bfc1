// Package ports defines the repository and collaborator interfaces of the
// dispatch core. These interfaces establish contracts between the domain
// layer and infrastructure, enabling dependency inversion and testability.
package ports

import (
	"context"

	"dispatch/internal/core/domain/model/driver"
	"dispatch/internal/core/domain/model/kernel"
)

// DriverRepository defines the persistence contract for driver aggregates.
// Implementations persist the aggregate's availability ledger entries in the
// same transaction as the driver row, mirroring the order repository.
type DriverRepository interface {
	// Add persists a new driver aggregate to storage.
	// The driver must be valid and not already exist in the repository.
	Add(ctx context.Context, aggregate *driver.Driver) error

	// Update persists changes to an existing driver aggregate.
	// The driver must exist in the repository and be valid.
	Update(ctx context.Context, aggregate *driver.Driver) error

	// Get retrieves a driver aggregate by its unique identifier.
	// Returns the complete driver with all vehicles and the current
	// availability state.
	Get(ctx context.Context, id kernel.UUID) (*driver.Driver, error)

	// GetAllActive retrieves all drivers whose materialized status is
	// active. This is the candidate pool for one search round; the finer
	// filters (location freshness, proximity, capacity, exclusions) are
	// applied by the DriverMatcher domain service.
	GetAllActive(ctx context.Context) ([]*driver.Driver, error)
}
