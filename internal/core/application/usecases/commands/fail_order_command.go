package commands

import (
	"errors"

	"dispatch/internal/core/domain/model/kernel"
	"dispatch/internal/pkg/guard"
)

var (
	ErrFailOrderCommandIsNotConstructed = errors.New(
		"FailOrderCommand must be created via NewFailOrderCommand constructor",
	)
	ErrFailureReasonIsRequired = errors.New("failure reason is required")
)

// FailOrderCommand represents the assigned driver reporting that the
// delivery cannot be completed.
type FailOrderCommand struct { //nolint:recvcheck //using for validation
	orderID  kernel.UUID
	driverID kernel.UUID
	reason   string

	guard guard.ConstructorGuard
}

// NewFailOrderCommand creates a command to fail an order.
// Validates that both identifiers are valid and a reason is given.
func NewFailOrderCommand(orderID, driverID kernel.UUID, reason string) (FailOrderCommand, error) {
	failCommand := FailOrderCommand{
		guard: guard.NewConstructorGuard(),
	}

	if err := errors.Join(
		failCommand.setOrderID(orderID),
		failCommand.setDriverID(driverID),
		failCommand.setReason(reason),
	); err != nil {
		return FailOrderCommand{}, err
	}

	return failCommand, nil
}

// Validate ensures the command was created through the constructor.
func (c FailOrderCommand) Validate() error {
	return c.guard.Validate(ErrFailOrderCommandIsNotConstructed)
}

// OrderID returns the order being failed.
func (c FailOrderCommand) OrderID() kernel.UUID {
	return c.orderID
}

// DriverID returns the driver reporting the failure.
func (c FailOrderCommand) DriverID() kernel.UUID {
	return c.driverID
}

// Reason returns the driver-provided failure reason.
func (c FailOrderCommand) Reason() string {
	return c.reason
}

func (c *FailOrderCommand) setOrderID(orderID kernel.UUID) error {
	if err := orderID.Validate(); err != nil {
		return err
	}

	c.orderID = orderID
	return nil
}

func (c *FailOrderCommand) setDriverID(driverID kernel.UUID) error {
	if err := driverID.Validate(); err != nil {
		return err
	}

	c.driverID = driverID
	return nil
}

func (c *FailOrderCommand) setReason(reason string) error {
	if reason == "" {
		return ErrFailureReasonIsRequired
	}

	c.reason = reason
	return nil
}
