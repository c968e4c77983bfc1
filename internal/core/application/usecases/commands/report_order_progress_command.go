package commands

import (
	"errors"

	"dispatch/internal/core/domain/model/kernel"
	"dispatch/internal/core/domain/model/order"
	"dispatch/internal/pkg/guard"
)

var (
	ErrReportOrderProgressCommandIsNotConstructed = errors.New(
		"ReportOrderProgressCommand must be created via NewReportOrderProgressCommand constructor",
	)
	ErrMilestoneIsInvalid = errors.New("milestone must be at_pickup, en_route or at_delivery")
)

// ReportOrderProgressCommand represents the assigned driver reporting a
// delivery milestone: arriving at pickup, departing with the package, or
// arriving at the delivery point.
type ReportOrderProgressCommand struct { //nolint:recvcheck //using for validation
	orderID   kernel.UUID
	driverID  kernel.UUID
	milestone order.Status
	location  kernel.Location

	guard guard.ConstructorGuard
}

// NewReportOrderProgressCommand creates a command to report order progress.
// The milestone must be one of the in-progress statuses.
func NewReportOrderProgressCommand(
	orderID, driverID kernel.UUID, milestone order.Status, location kernel.Location,
) (ReportOrderProgressCommand, error) {
	progressCommand := ReportOrderProgressCommand{
		guard: guard.NewConstructorGuard(),
	}

	if err := errors.Join(
		progressCommand.setOrderID(orderID),
		progressCommand.setDriverID(driverID),
		progressCommand.setMilestone(milestone),
		progressCommand.setLocation(location),
	); err != nil {
		return ReportOrderProgressCommand{}, err
	}

	return progressCommand, nil
}

// Validate ensures the command was created through the constructor.
func (c ReportOrderProgressCommand) Validate() error {
	return c.guard.Validate(ErrReportOrderProgressCommandIsNotConstructed)
}

// OrderID returns the order being progressed.
func (c ReportOrderProgressCommand) OrderID() kernel.UUID {
	return c.orderID
}

// DriverID returns the driver reporting progress.
func (c ReportOrderProgressCommand) DriverID() kernel.UUID {
	return c.driverID
}

// Milestone returns the reported status milestone.
func (c ReportOrderProgressCommand) Milestone() order.Status {
	return c.milestone
}

// Location returns where the milestone was reported from.
func (c ReportOrderProgressCommand) Location() kernel.Location {
	return c.location
}

func (c *ReportOrderProgressCommand) setOrderID(orderID kernel.UUID) error {
	if err := orderID.Validate(); err != nil {
		return err
	}

	c.orderID = orderID
	return nil
}

func (c *ReportOrderProgressCommand) setDriverID(driverID kernel.UUID) error {
	if err := driverID.Validate(); err != nil {
		return err
	}

	c.driverID = driverID
	return nil
}

func (c *ReportOrderProgressCommand) setMilestone(milestone order.Status) error {
	switch milestone {
	case order.AtPickup, order.EnRoute, order.AtDelivery:
		c.milestone = milestone
		return nil
	default:
		return ErrMilestoneIsInvalid
	}
}

func (c *ReportOrderProgressCommand) setLocation(location kernel.Location) error {
	if err := location.Validate(); err != nil {
		return err
	}

	c.location = location
	return nil
}
