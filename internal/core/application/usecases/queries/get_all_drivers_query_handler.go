package queries

import (
	"context"

	"dispatch/internal/core/domain/model/driver"
	"dispatch/internal/core/domain/model/kernel"

	"github.com/google/uuid"
	"gorm.io/gorm"
)

// GetAllDriversQueryHandler retrieves the driver roster from the database.
//
// Example:
//
//	handler := NewGetAllDriversQueryHandler(db)
//	query := NewGetAllDriversQuery()
//
//	drivers, err := handler.Handle(ctx, query)
//	if err != nil {
//	    log.Printf("Failed to get drivers: %v", err)
//	    return err
//	}
type GetAllDriversQueryHandler struct {
	db *gorm.DB
}

// NewGetAllDriversQueryHandler creates a handler for driver roster queries.
// Requires a GORM database connection for query execution.
func NewGetAllDriversQueryHandler(db *gorm.DB) GetAllDriversQueryHandler {
	return GetAllDriversQueryHandler{db: db}
}

// Handle executes the query to retrieve all drivers.
// Results are sorted by name for consistent output.
func (h GetAllDriversQueryHandler) Handle(
	ctx context.Context,
	query GetAllDriversQuery,
) ([]GetAllDriversQueryResponse, error) {
	if err := query.Validate(); err != nil {
		return nil, err
	}

	drivers := make([]GetAllDriversQueryResponse, 0)

	rows, err := h.db.WithContext(ctx).Raw(`
		SELECT
			id,
			name,
			rating,
			status,
			lat,
			lng,
			location_reported_at,
			assignments_in_progress
		FROM drivers
		ORDER BY name
	`).Rows()
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	for rows.Next() {
		var driverResp GetAllDriversQueryResponse
		var id uuid.UUID
		var status string
		var lat, lng *float64

		err = rows.Scan(
			&id,
			&driverResp.Name,
			&driverResp.Rating,
			&status,
			&lat,
			&lng,
			&driverResp.LocationReportedAt,
			&driverResp.AssignmentsInProgress,
		)
		if err != nil {
			return nil, err
		}

		driverID, idErr := kernel.UUIDFromBytes(id[:])
		if idErr != nil {
			return nil, idErr
		}
		driverResp.ID = driverID

		driverStatus, statusErr := driver.StatusFromString(status)
		if statusErr != nil {
			return nil, statusErr
		}
		driverResp.Status = driverStatus

		if lat != nil && lng != nil {
			location, locErr := kernel.NewLocation(*lat, *lng)
			if locErr != nil {
				return nil, locErr
			}
			driverResp.Location = &location
		}

		drivers = append(drivers, driverResp)
	}

	if err = rows.Err(); err != nil {
		return nil, err
	}

	return drivers, nil
}
