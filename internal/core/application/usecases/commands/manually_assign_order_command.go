package commands

import (
	"errors"

	"dispatch/internal/core/domain/model/kernel"
	"dispatch/internal/pkg/guard"
)

var ErrManuallyAssignOrderCommandIsNotConstructed = errors.New(
	"ManuallyAssignOrderCommand must be created via NewManuallyAssignOrderCommand constructor",
)

// ManuallyAssignOrderCommand represents an operator directing a pending order
// to a chosen driver, bypassing the automatic candidate search.
type ManuallyAssignOrderCommand struct { //nolint:recvcheck //using for validation
	orderID  kernel.UUID
	driverID kernel.UUID
	actorID  kernel.UUID

	guard guard.ConstructorGuard
}

// NewManuallyAssignOrderCommand creates a command for manual assignment.
// Validates that all identifiers are valid.
func NewManuallyAssignOrderCommand(
	orderID, driverID, actorID kernel.UUID,
) (ManuallyAssignOrderCommand, error) {
	assignCommand := ManuallyAssignOrderCommand{
		guard: guard.NewConstructorGuard(),
	}

	if err := errors.Join(
		assignCommand.setOrderID(orderID),
		assignCommand.setDriverID(driverID),
		assignCommand.setActorID(actorID),
	); err != nil {
		return ManuallyAssignOrderCommand{}, err
	}

	return assignCommand, nil
}

// Validate ensures the command was created through the constructor.
func (c ManuallyAssignOrderCommand) Validate() error {
	return c.guard.Validate(ErrManuallyAssignOrderCommandIsNotConstructed)
}

// OrderID returns the order to assign.
func (c ManuallyAssignOrderCommand) OrderID() kernel.UUID {
	return c.orderID
}

// DriverID returns the driver chosen by the operator.
func (c ManuallyAssignOrderCommand) DriverID() kernel.UUID {
	return c.driverID
}

// ActorID returns the operator performing the assignment.
func (c ManuallyAssignOrderCommand) ActorID() kernel.UUID {
	return c.actorID
}

func (c *ManuallyAssignOrderCommand) setOrderID(orderID kernel.UUID) error {
	if err := orderID.Validate(); err != nil {
		return err
	}

	c.orderID = orderID
	return nil
}

func (c *ManuallyAssignOrderCommand) setDriverID(driverID kernel.UUID) error {
	if err := driverID.Validate(); err != nil {
		return err
	}

	c.driverID = driverID
	return nil
}

func (c *ManuallyAssignOrderCommand) setActorID(actorID kernel.UUID) error {
	if err := actorID.Validate(); err != nil {
		return err
	}

	c.actorID = actorID
	return nil
}
