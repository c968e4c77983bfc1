package queries

import (
	"errors"
	"time"

	"dispatch/internal/core/domain/model/kernel"
	"dispatch/internal/pkg/guard"
)

var ErrGetEscalatedOrdersQueryIsNotConstructed = errors.New(
	"GetEscalatedOrdersQuery must be created via NewGetEscalatedOrdersQuery constructor",
)

// GetEscalatedOrdersQuery retrieves orders the system gave up on: cancelled
// without an operator after the assignment attempt budget ran out. These
// need a human to follow up with the client.
type GetEscalatedOrdersQuery struct {
	guard guard.ConstructorGuard
}

// NewGetEscalatedOrdersQuery creates a query to retrieve escalated orders.
func NewGetEscalatedOrdersQuery() GetEscalatedOrdersQuery {
	return GetEscalatedOrdersQuery{guard: guard.NewConstructorGuard()}
}

// Validate ensures the query was created through the constructor.
func (q GetEscalatedOrdersQuery) Validate() error {
	return q.guard.Validate(ErrGetEscalatedOrdersQueryIsNotConstructed)
}

// GetEscalatedOrdersQueryResponse represents one escalated order.
type GetEscalatedOrdersQueryResponse struct {
	ID                     kernel.UUID
	Pickup                 kernel.Location
	AssignmentAttemptCount int
	Reason                 string
	CancelledAt            time.Time
}
