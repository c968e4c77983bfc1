// Package orderrepo provides data transfer objects and mapping functions for
// order persistence. This package implements the repository pattern for the
// order domain aggregate, handling the conversion between domain entities and
// database representations. The aggregate's ledger entries are appended to the
// order status log in the same transaction as the order row.
package orderrepo

import (
	"encoding/json"
	"time"

	"dispatch/internal/core/domain/model/kernel"
	"dispatch/internal/core/domain/model/order"

	"github.com/google/uuid"
	"github.com/lib/pq"
	"gorm.io/datatypes"
)

// OrderDTO represents the database structure for persisting order aggregates.
// The offer columns (offered_driver_id, offer_expires_at) are indexed to make
// the expiration reconciliation scan cheap, and the status column is a
// materialized copy of the latest status log entry.
type OrderDTO struct {
	ID                     uuid.UUID `gorm:"type:uuid;primaryKey"`
	PickupLat              float64   `gorm:"column:pickup_lat"`
	PickupLng              float64   `gorm:"column:pickup_lng"`
	DeliveryLat            float64   `gorm:"column:delivery_lat"`
	DeliveryLng            float64   `gorm:"column:delivery_lng"`
	WeightGrams            int       `gorm:"column:weight_grams"`
	ClientFee              float64
	DriverRemuneration     float64
	Status                 string         `gorm:"index"`
	OfferedDriverID        *uuid.UUID     `gorm:"type:uuid;column:offered_driver_id;index"`
	OfferExpiresAt         *time.Time     `gorm:"index"`
	AssignmentAttemptCount int            `gorm:"column:assignment_attempt_count"`
	TriedDriverIDs         pq.StringArray `gorm:"type:text[];column:tried_driver_ids"`
	AssignedDriverID       *uuid.UUID     `gorm:"type:uuid;column:assigned_driver_id;index"`
}

// TableName specifies the database table name for order entities.
// Overrides GORM's default naming convention to use "orders".
func (OrderDTO) TableName() string {
	return "orders"
}

// StatusLogDTO represents one row of the append-only order status log.
// Rows are inserted together with the order row update and never touched
// again.
type StatusLogDTO struct {
	ID        uint64    `gorm:"primaryKey;autoIncrement"`
	OrderID   uuid.UUID `gorm:"type:uuid;column:order_id;index"`
	Status    string
	ChangedAt time.Time
	ActorID   *uuid.UUID     `gorm:"type:uuid;column:actor_id"`
	Lat       *float64       `gorm:"column:lat"`
	Lng       *float64       `gorm:"column:lng"`
	Metadata  datatypes.JSON `gorm:"type:jsonb"`
}

// TableName specifies the database table name for order status log entries.
func (StatusLogDTO) TableName() string {
	return "order_status_log"
}

// fromDomain converts an order domain aggregate to its database representation.
func fromDomain(aggregate *order.Order) OrderDTO {
	var offeredDriverID *uuid.UUID
	if id := aggregate.OfferedDriver(); id != nil {
		raw := id.Bytes()
		offeredDriverID = &raw
	}

	var assignedDriverID *uuid.UUID
	if id := aggregate.AssignedDriver(); id != nil {
		raw := id.Bytes()
		assignedDriverID = &raw
	}

	tried := aggregate.TriedDriverIDs()
	triedIDs := make(pq.StringArray, 0, len(tried))
	for _, id := range tried {
		triedIDs = append(triedIDs, id.String())
	}

	return OrderDTO{
		ID:                     aggregate.ID().Bytes(),
		PickupLat:              aggregate.Pickup().Latitude(),
		PickupLng:              aggregate.Pickup().Longitude(),
		DeliveryLat:            aggregate.Delivery().Latitude(),
		DeliveryLng:            aggregate.Delivery().Longitude(),
		WeightGrams:            aggregate.WeightGrams(),
		ClientFee:              aggregate.ClientFee(),
		DriverRemuneration:     aggregate.DriverRemuneration(),
		Status:                 aggregate.Status().String(),
		OfferedDriverID:        offeredDriverID,
		OfferExpiresAt:         aggregate.OfferExpiresAt(),
		AssignmentAttemptCount: aggregate.AssignmentAttemptCount(),
		TriedDriverIDs:         triedIDs,
		AssignedDriverID:       assignedDriverID,
	}
}

// toDomain converts a database DTO to an order domain aggregate.
// Reconstructs the complete aggregate including the offer state using RestoreOrder.
func toDomain(dto OrderDTO) (*order.Order, error) {
	id, err := kernel.UUIDFromBytes(dto.ID[:])
	if err != nil {
		return nil, err
	}

	pickup, err := kernel.NewLocation(dto.PickupLat, dto.PickupLng)
	if err != nil {
		return nil, err
	}

	delivery, err := kernel.NewLocation(dto.DeliveryLat, dto.DeliveryLng)
	if err != nil {
		return nil, err
	}

	status, err := order.StatusFromString(dto.Status)
	if err != nil {
		return nil, err
	}

	var offeredDriverID *kernel.UUID
	if dto.OfferedDriverID != nil {
		offeredID, offeredErr := kernel.UUIDFromBytes((*dto.OfferedDriverID)[:])
		if offeredErr != nil {
			return nil, offeredErr
		}

		offeredDriverID = &offeredID
	}

	var assignedDriverID *kernel.UUID
	if dto.AssignedDriverID != nil {
		assignedID, assignedErr := kernel.UUIDFromBytes((*dto.AssignedDriverID)[:])
		if assignedErr != nil {
			return nil, assignedErr
		}

		assignedDriverID = &assignedID
	}

	triedIDs := make([]kernel.UUID, 0, len(dto.TriedDriverIDs))
	for _, raw := range dto.TriedDriverIDs {
		triedID, triedErr := kernel.UUIDFromString(raw)
		if triedErr != nil {
			return nil, triedErr
		}
		triedIDs = append(triedIDs, triedID)
	}

	return order.RestoreOrder(
		id,
		pickup,
		delivery,
		dto.WeightGrams,
		dto.ClientFee,
		dto.DriverRemuneration,
		offeredDriverID,
		dto.OfferExpiresAt,
		dto.AssignmentAttemptCount,
		triedIDs,
		assignedDriverID,
		status,
	)
}

// ledgerToDTO converts a status transition record to its database representation.
func ledgerToDTO(entry order.LedgerEntry) (StatusLogDTO, error) {
	var actorID *uuid.UUID
	if entry.ActorID != nil {
		raw := entry.ActorID.Bytes()
		actorID = &raw
	}

	var lat, lng *float64
	if entry.Location != nil {
		latValue := entry.Location.Latitude()
		lngValue := entry.Location.Longitude()
		lat = &latValue
		lng = &lngValue
	}

	var metadata datatypes.JSON
	if len(entry.Metadata) > 0 {
		raw, err := json.Marshal(entry.Metadata)
		if err != nil {
			return StatusLogDTO{}, err
		}
		metadata = raw
	}

	return StatusLogDTO{
		OrderID:   entry.OrderID.Bytes(),
		Status:    entry.Status.String(),
		ChangedAt: entry.ChangedAt,
		ActorID:   actorID,
		Lat:       lat,
		Lng:       lng,
		Metadata:  metadata,
	}, nil
}
