// Package outboxrepo persists the transactional outbox. Lifecycle events are
// staged as rows in the same transaction as the state change they describe;
// the relay job reads pending rows in insertion order, publishes them to the
// event log and marks them sent.
package outboxrepo

import (
	"time"

	"dispatch/internal/core/domain/model/kernel"
	"dispatch/internal/core/domain/model/lifecycle"
	"dispatch/internal/core/ports"

	"github.com/google/uuid"
	"gorm.io/datatypes"
)

// OutboxDTO represents the database structure for one staged lifecycle event.
// Payload holds the full wire envelope so the relay publishes exactly the
// bytes the domain produced.
type OutboxDTO struct {
	ID         uuid.UUID  `gorm:"type:uuid;primaryKey"`
	Kind       string     `gorm:"index"`
	OrderID    uuid.UUID  `gorm:"type:uuid;column:order_id;index"`
	DriverID   *uuid.UUID `gorm:"type:uuid;column:driver_id"`
	OccurredAt time.Time
	Payload    datatypes.JSON `gorm:"type:jsonb"`
	CreatedAt  time.Time      `gorm:"autoCreateTime;index"`
	SentAt     *time.Time     `gorm:"index"`
}

// TableName specifies the database table name for outbox rows.
func (OutboxDTO) TableName() string {
	return "outbox"
}

// fromDomain converts a lifecycle event to its outbox row, assigning a fresh
// row id and encoding the wire envelope.
func fromDomain(event lifecycle.Event) (OutboxDTO, error) {
	raw, err := event.Marshal()
	if err != nil {
		return OutboxDTO{}, err
	}

	var driverID *uuid.UUID
	if event.DriverID != nil {
		rawID := event.DriverID.Bytes()
		driverID = &rawID
	}

	return OutboxDTO{
		ID:         kernel.NewUUID().Bytes(),
		Kind:       string(event.Kind),
		OrderID:    event.OrderID.Bytes(),
		DriverID:   driverID,
		OccurredAt: event.OccurredAt,
		Payload:    datatypes.JSON(raw),
	}, nil
}

// toDomain converts an outbox row back into an outbox message by decoding the
// stored wire envelope.
func toDomain(dto OutboxDTO) (ports.OutboxMessage, error) {
	id, err := kernel.UUIDFromBytes(dto.ID[:])
	if err != nil {
		return ports.OutboxMessage{}, err
	}

	event, err := lifecycle.Unmarshal(dto.Payload)
	if err != nil {
		return ports.OutboxMessage{}, err
	}

	return ports.OutboxMessage{ID: id, Event: event}, nil
}
