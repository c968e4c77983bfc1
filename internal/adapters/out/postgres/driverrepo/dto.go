// Package driverrepo provides data transfer objects and mapping functions for
// driver persistence. This package implements the repository pattern for the
// driver domain aggregate, handling the conversion between domain entities and
// database representations. Availability transitions are appended to the
// driver status log in the same transaction as the driver row.
package driverrepo

import (
	"encoding/json"
	"time"

	"dispatch/internal/core/domain/model/driver"
	"dispatch/internal/core/domain/model/kernel"

	"github.com/google/uuid"
	"gorm.io/datatypes"
)

// DriverDTO represents the database structure for persisting driver aggregates.
// The status column is a materialized copy of the latest status log entry so
// the active candidate pool can be selected without joining the log.
type DriverDTO struct {
	ID                    uuid.UUID `gorm:"type:uuid;primaryKey"`
	Name                  string    `gorm:"type:varchar(255);not null"`
	Rating                float64
	PushToken             string       `gorm:"column:push_token"`
	Lat                   *float64     `gorm:"column:lat"`
	Lng                   *float64     `gorm:"column:lng"`
	LocationReportedAt    *time.Time   `gorm:"column:location_reported_at"`
	Status                string       `gorm:"index"`
	AssignmentsInProgress int          `gorm:"column:assignments_in_progress"`
	Vehicles              []VehicleDTO `gorm:"foreignKey:DriverID;constraint:OnDelete:CASCADE"`
}

// TableName specifies the database table name for driver entities.
// Overrides GORM's default naming convention to use "drivers".
func (DriverDTO) TableName() string {
	return "drivers"
}

// VehicleDTO represents the database structure for persisting vehicle entities.
// Links to driver via foreign key.
type VehicleDTO struct {
	ID            uuid.UUID `gorm:"type:uuid;primaryKey"`
	DriverID      uuid.UUID `gorm:"type:uuid;not null;index;column:driver_id"`
	Name          string    `gorm:"type:varchar(255);not null"`
	CapacityGrams int       `gorm:"column:capacity_grams"`
	IsActive      bool      `gorm:"column:is_active"`
}

// TableName specifies the database table name for vehicle entities.
func (VehicleDTO) TableName() string {
	return "vehicles"
}

// StatusLogDTO represents one row of the append-only driver status log.
type StatusLogDTO struct {
	ID                    uint64    `gorm:"primaryKey;autoIncrement"`
	DriverID              uuid.UUID `gorm:"type:uuid;column:driver_id;index"`
	Status                string
	ChangedAt             time.Time
	AssignmentsInProgress int            `gorm:"column:assignments_in_progress"`
	Metadata              datatypes.JSON `gorm:"type:jsonb"`
}

// TableName specifies the database table name for driver status log entries.
func (StatusLogDTO) TableName() string {
	return "driver_status_log"
}

// fromDomain converts a driver domain aggregate to its database representation.
// Maps all aggregate entities including vehicles and the current availability state.
func fromDomain(aggregate *driver.Driver) DriverDTO {
	driverID := aggregate.ID().Bytes()
	vehicles := make([]VehicleDTO, 0, len(aggregate.Vehicles()))

	for _, v := range aggregate.Vehicles() {
		vehicles = append(vehicles, VehicleDTO{
			ID:            v.ID().Bytes(),
			DriverID:      driverID,
			Name:          v.Name(),
			CapacityGrams: v.CapacityGrams(),
			IsActive:      v.IsActive(),
		})
	}

	var lat, lng *float64
	if loc := aggregate.Location(); loc != nil {
		latValue := loc.Latitude()
		lngValue := loc.Longitude()
		lat = &latValue
		lng = &lngValue
	}

	return DriverDTO{
		ID:                    driverID,
		Name:                  aggregate.Name(),
		Rating:                aggregate.Rating(),
		PushToken:             aggregate.PushToken(),
		Lat:                   lat,
		Lng:                   lng,
		LocationReportedAt:    aggregate.LocationReportedAt(),
		Status:                aggregate.Status().String(),
		AssignmentsInProgress: aggregate.AssignmentsInProgress(),
		Vehicles:              vehicles,
	}
}

// toDomain converts a database DTO to a driver domain aggregate.
// Reconstructs the complete aggregate including all vehicles using RestoreDriver.
func toDomain(dto DriverDTO) (*driver.Driver, error) {
	id, err := kernel.UUIDFromBytes(dto.ID[:])
	if err != nil {
		return nil, err
	}

	status, err := driver.StatusFromString(dto.Status)
	if err != nil {
		return nil, err
	}

	var location *kernel.Location
	if dto.Lat != nil && dto.Lng != nil {
		loc, locErr := kernel.NewLocation(*dto.Lat, *dto.Lng)
		if locErr != nil {
			return nil, locErr
		}
		location = &loc
	}

	vehicles := make([]*driver.Vehicle, 0, len(dto.Vehicles))
	for _, vDto := range dto.Vehicles {
		v, vErr := vehicleToDomain(vDto)
		if vErr != nil {
			return nil, vErr
		}
		vehicles = append(vehicles, v)
	}

	return driver.RestoreDriver(
		id,
		dto.Name,
		dto.Rating,
		dto.PushToken,
		location,
		dto.LocationReportedAt,
		vehicles,
		status,
		dto.AssignmentsInProgress,
	)
}

// vehicleToDomain converts a vehicle DTO to a domain entity.
func vehicleToDomain(dto VehicleDTO) (*driver.Vehicle, error) {
	id, err := kernel.UUIDFromBytes(dto.ID[:])
	if err != nil {
		return nil, err
	}

	return driver.RestoreVehicle(id, dto.Name, dto.CapacityGrams, dto.IsActive)
}

// ledgerToDTO converts an availability transition record to its database representation.
func ledgerToDTO(entry driver.LedgerEntry) (StatusLogDTO, error) {
	var metadata datatypes.JSON
	if len(entry.Metadata) > 0 {
		raw, err := json.Marshal(entry.Metadata)
		if err != nil {
			return StatusLogDTO{}, err
		}
		metadata = raw
	}

	return StatusLogDTO{
		DriverID:              entry.DriverID.Bytes(),
		Status:                entry.Status.String(),
		ChangedAt:             entry.ChangedAt,
		AssignmentsInProgress: entry.AssignmentsInProgress,
		Metadata:              metadata,
	}, nil
}
