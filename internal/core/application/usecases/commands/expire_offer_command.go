package commands

import (
	"errors"

	"dispatch/internal/core/domain/model/kernel"
	"dispatch/internal/pkg/guard"
)

var ErrExpireOfferCommandIsNotConstructed = errors.New(
	"ExpireOfferCommand must be created via NewExpireOfferCommand constructor",
)

// ExpireOfferCommand represents a request to clear a timed-out offer held by
// a specific driver. Idempotent: if that driver no longer holds the offer
// the command is a no-op.
type ExpireOfferCommand struct { //nolint:recvcheck //using for validation
	orderID  kernel.UUID
	driverID kernel.UUID

	guard guard.ConstructorGuard
}

// NewExpireOfferCommand creates a command to expire an offer.
// Validates that both identifiers are valid.
func NewExpireOfferCommand(orderID, driverID kernel.UUID) (ExpireOfferCommand, error) {
	expireCommand := ExpireOfferCommand{
		guard: guard.NewConstructorGuard(),
	}

	if err := errors.Join(
		expireCommand.setOrderID(orderID),
		expireCommand.setDriverID(driverID),
	); err != nil {
		return ExpireOfferCommand{}, err
	}

	return expireCommand, nil
}

// Validate ensures the command was created through the constructor.
func (c ExpireOfferCommand) Validate() error {
	return c.guard.Validate(ErrExpireOfferCommandIsNotConstructed)
}

// OrderID returns the order carrying the offer.
func (c ExpireOfferCommand) OrderID() kernel.UUID {
	return c.orderID
}

// DriverID returns the driver whose offer timed out.
func (c ExpireOfferCommand) DriverID() kernel.UUID {
	return c.driverID
}

func (c *ExpireOfferCommand) setOrderID(orderID kernel.UUID) error {
	if err := orderID.Validate(); err != nil {
		return err
	}

	c.orderID = orderID
	return nil
}

func (c *ExpireOfferCommand) setDriverID(driverID kernel.UUID) error {
	if err := driverID.Validate(); err != nil {
		return err
	}

	c.driverID = driverID
	return nil
}
