package queries

import (
	"context"
	"encoding/json"
	"time"

	"dispatch/internal/core/domain/model/kernel"
	"dispatch/internal/core/domain/model/order"

	"github.com/google/uuid"
	"gorm.io/gorm"
)

// GetEscalatedOrdersQueryHandler retrieves system-cancelled orders by
// joining the status ledger: a cancelled entry with no acting operator is
// an escalation, and its metadata carries the reason.
type GetEscalatedOrdersQueryHandler struct {
	db *gorm.DB
}

// NewGetEscalatedOrdersQueryHandler creates a handler for escalated order
// queries. Requires a GORM database connection for query execution.
func NewGetEscalatedOrdersQueryHandler(db *gorm.DB) GetEscalatedOrdersQueryHandler {
	return GetEscalatedOrdersQueryHandler{db: db}
}

// Handle executes the query. Results are sorted newest first.
func (h GetEscalatedOrdersQueryHandler) Handle(
	ctx context.Context,
	query GetEscalatedOrdersQuery,
) ([]GetEscalatedOrdersQueryResponse, error) {
	if err := query.Validate(); err != nil {
		return nil, err
	}

	orders := make([]GetEscalatedOrdersQueryResponse, 0)

	rows, err := h.db.WithContext(ctx).Raw(`
		SELECT
			o.id,
			o.pickup_lat,
			o.pickup_lng,
			o.assignment_attempt_count,
			l.metadata,
			l.changed_at
		FROM orders o
		JOIN order_status_log l ON l.order_id = o.id AND l.status = ?
		WHERE o.status = ? AND l.actor_id IS NULL
		ORDER BY l.changed_at DESC
	`, order.Cancelled.String(), order.Cancelled.String()).Rows()
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	for rows.Next() {
		var orderResp GetEscalatedOrdersQueryResponse
		var id uuid.UUID
		var pickupLat, pickupLng float64
		var metadata []byte
		var changedAt time.Time

		err = rows.Scan(
			&id,
			&pickupLat,
			&pickupLng,
			&orderResp.AssignmentAttemptCount,
			&metadata,
			&changedAt,
		)
		if err != nil {
			return nil, err
		}

		orderID, idErr := kernel.UUIDFromBytes(id[:])
		if idErr != nil {
			return nil, idErr
		}
		orderResp.ID = orderID

		pickup, locErr := kernel.NewLocation(pickupLat, pickupLng)
		if locErr != nil {
			return nil, locErr
		}
		orderResp.Pickup = pickup
		orderResp.CancelledAt = changedAt

		if len(metadata) > 0 {
			fields := map[string]string{}
			if jsonErr := json.Unmarshal(metadata, &fields); jsonErr != nil {
				return nil, jsonErr
			}
			orderResp.Reason = fields["reason"]
		}

		orders = append(orders, orderResp)
	}

	if err = rows.Err(); err != nil {
		return nil, err
	}

	return orders, nil
}
