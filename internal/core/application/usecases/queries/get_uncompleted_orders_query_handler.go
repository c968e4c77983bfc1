package queries

import (
	"context"

	"dispatch/internal/core/domain/model/kernel"
	"dispatch/internal/core/domain/model/order"

	"github.com/google/uuid"
	"gorm.io/gorm"
)

// GetUncompletedOrdersQueryHandler retrieves in-flight orders from the
// database. Reads the materialized status column, so no ledger scan is
// needed on the hot path.
type GetUncompletedOrdersQueryHandler struct {
	db *gorm.DB
}

// NewGetUncompletedOrdersQueryHandler creates a handler for in-flight order
// queries. Requires a GORM database connection for query execution.
func NewGetUncompletedOrdersQueryHandler(db *gorm.DB) GetUncompletedOrdersQueryHandler {
	return GetUncompletedOrdersQueryHandler{db: db}
}

// Handle executes the query to retrieve all non-terminal orders.
// Results are sorted by order ID for consistent output.
func (h GetUncompletedOrdersQueryHandler) Handle(
	ctx context.Context,
	query GetUncompletedOrdersQuery,
) ([]GetUncompletedOrdersQueryResponse, error) {
	if err := query.Validate(); err != nil {
		return nil, err
	}

	orders := make([]GetUncompletedOrdersQueryResponse, 0)

	rows, err := h.db.WithContext(ctx).Raw(`
		SELECT
			id,
			status,
			offered_driver_id,
			offer_expires_at,
			assigned_driver_id,
			assignment_attempt_count
		FROM orders
		WHERE status NOT IN (?, ?, ?)
		ORDER BY id
	`, order.Success.String(), order.Failed.String(), order.Cancelled.String()).Rows()
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	for rows.Next() {
		var orderResp GetUncompletedOrdersQueryResponse
		var id uuid.UUID
		var status string
		var offeredDriverID, assignedDriverID *uuid.UUID

		err = rows.Scan(
			&id,
			&status,
			&offeredDriverID,
			&orderResp.OfferExpiresAt,
			&assignedDriverID,
			&orderResp.AssignmentAttemptCount,
		)
		if err != nil {
			return nil, err
		}

		orderID, idErr := kernel.UUIDFromBytes(id[:])
		if idErr != nil {
			return nil, idErr
		}
		orderResp.ID = orderID

		orderStatus, statusErr := order.StatusFromString(status)
		if statusErr != nil {
			return nil, statusErr
		}
		orderResp.Status = orderStatus

		if offeredDriverID != nil {
			driverID, driverErr := kernel.UUIDFromBytes(offeredDriverID[:])
			if driverErr != nil {
				return nil, driverErr
			}
			orderResp.OfferedDriverID = &driverID
		}

		if assignedDriverID != nil {
			driverID, driverErr := kernel.UUIDFromBytes(assignedDriverID[:])
			if driverErr != nil {
				return nil, driverErr
			}
			orderResp.AssignedDriverID = &driverID
		}

		orders = append(orders, orderResp)
	}

	if err = rows.Err(); err != nil {
		return nil, err
	}

	return orders, nil
}
