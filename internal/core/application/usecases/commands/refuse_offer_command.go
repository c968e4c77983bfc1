package commands

import (
	"errors"

	"dispatch/internal/core/domain/model/kernel"
	"dispatch/internal/pkg/guard"
)

var ErrRefuseOfferCommandIsNotConstructed = errors.New(
	"RefuseOfferCommand must be created via NewRefuseOfferCommand constructor",
)

// RefuseOfferCommand represents a driver declining the offer currently open
// on an order.
type RefuseOfferCommand struct { //nolint:recvcheck //using for validation
	orderID  kernel.UUID
	driverID kernel.UUID

	guard guard.ConstructorGuard
}

// NewRefuseOfferCommand creates a command for a driver to refuse an offer.
// Validates that both identifiers are valid.
func NewRefuseOfferCommand(orderID, driverID kernel.UUID) (RefuseOfferCommand, error) {
	refuseCommand := RefuseOfferCommand{
		guard: guard.NewConstructorGuard(),
	}

	if err := errors.Join(
		refuseCommand.setOrderID(orderID),
		refuseCommand.setDriverID(driverID),
	); err != nil {
		return RefuseOfferCommand{}, err
	}

	return refuseCommand, nil
}

// Validate ensures the command was created through the constructor.
func (c RefuseOfferCommand) Validate() error {
	return c.guard.Validate(ErrRefuseOfferCommandIsNotConstructed)
}

// OrderID returns the order carrying the offer.
func (c RefuseOfferCommand) OrderID() kernel.UUID {
	return c.orderID
}

// DriverID returns the driver responding to the offer.
func (c RefuseOfferCommand) DriverID() kernel.UUID {
	return c.driverID
}

func (c *RefuseOfferCommand) setOrderID(orderID kernel.UUID) error {
	if err := orderID.Validate(); err != nil {
		return err
	}

	c.orderID = orderID
	return nil
}

func (c *RefuseOfferCommand) setDriverID(driverID kernel.UUID) error {
	if err := driverID.Validate(); err != nil {
		return err
	}

	c.driverID = driverID
	return nil
}
