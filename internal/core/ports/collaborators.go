package ports

import (
	"context"
	"time"

	"dispatch/internal/core/domain/model/kernel"
	"dispatch/internal/core/domain/model/lifecycle"
)

// RouteInfo is the routing collaborator's answer for a set of waypoints.
type RouteInfo struct {
	DistanceMeters  int
	DurationSeconds int
}

// RoutingClient is the geospatial routing collaborator. Consumed, never
// implemented, by the core.
type RoutingClient interface {
	// Geocode resolves free-form address text to coordinates.
	Geocode(ctx context.Context, addressText string) (kernel.Location, error)

	// Route computes distance and duration along the given waypoints.
	Route(ctx context.Context, waypoints []kernel.Location) (RouteInfo, error)
}

// Fees is the pricing collaborator's verdict for a mission.
type Fees struct {
	ClientFee          float64
	DriverRemuneration float64
}

// PricingClient is the pricing collaborator computing mission fees at intake.
type PricingClient interface {
	CalculateFees(ctx context.Context, route RouteInfo, weightGrams int) (Fees, error)
}

// Notification is one push message for a driver.
type Notification struct {
	Token string
	Title string
	Body  string
	Data  map[string]string
}

// PushGateway is the push-notification collaborator informing a driver of a
// new offer. Delivery reliability is the gateway's concern; the offer
// protocol does not depend on it.
type PushGateway interface {
	Enqueue(ctx context.Context, notification Notification) error
}

// AvailabilityChecker is the recurring-availability schedule collaborator,
// consulted when a driver's in-progress count reaches zero to decide whether
// they fall back to active or inactive.
type AvailabilityChecker interface {
	IsAvailableNow(ctx context.Context, driverID kernel.UUID, at time.Time) (bool, error)
}

// EventPublisher publishes lifecycle events to the ordered event log.
// Implementations key messages by order id so a given order's events stay
// ordered within a partition.
type EventPublisher interface {
	Publish(ctx context.Context, events ...lifecycle.Event) error
}
