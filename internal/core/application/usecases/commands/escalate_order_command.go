package commands

import (
	"errors"

	"dispatch/internal/core/domain/model/kernel"
	"dispatch/internal/pkg/guard"
)

var ErrEscalateOrderCommandIsNotConstructed = errors.New(
	"EscalateOrderCommand must be created via NewEscalateOrderCommand constructor",
)

// EscalateOrderCommand represents a request to give up on automatic
// assignment for a pending order that exhausted its attempt budget.
type EscalateOrderCommand struct { //nolint:recvcheck //using for validation
	orderID kernel.UUID

	guard guard.ConstructorGuard
}

// NewEscalateOrderCommand creates a command to escalate an order.
// Validates that order ID is valid.
func NewEscalateOrderCommand(orderID kernel.UUID) (EscalateOrderCommand, error) {
	escalateCommand := EscalateOrderCommand{
		guard: guard.NewConstructorGuard(),
	}

	if err := escalateCommand.setOrderID(orderID); err != nil {
		return EscalateOrderCommand{}, err
	}

	return escalateCommand, nil
}

// Validate ensures the command was created through the constructor.
func (c EscalateOrderCommand) Validate() error {
	return c.guard.Validate(ErrEscalateOrderCommandIsNotConstructed)
}

// OrderID returns the order to escalate.
func (c EscalateOrderCommand) OrderID() kernel.UUID {
	return c.orderID
}

func (c *EscalateOrderCommand) setOrderID(orderID kernel.UUID) error {
	if err := orderID.Validate(); err != nil {
		return err
	}

	c.orderID = orderID
	return nil
}
