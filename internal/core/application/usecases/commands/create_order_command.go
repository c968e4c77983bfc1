package commands

import (
	"errors"

	"dispatch/internal/core/domain/model/kernel"
	"dispatch/internal/pkg/guard"
)

var (
	ErrCreateOrderCommandIsNotConstructed = errors.New(
		"CreateOrderCommand must be created via NewCreateOrderCommand constructor",
	)
	ErrPickupAddressIsRequired   = errors.New("pickup address is required")
	ErrDeliveryAddressIsRequired = errors.New("delivery address is required")
	ErrWeightIsInvalid           = errors.New("weight must be greater than 0")
)

// CreateOrderCommand represents a request to register a new delivery order.
// Encapsulates the pickup and delivery addresses and the package weight.
//
// Example:
//
//	orderID := kernel.NewUUID()
//	cmd, err := NewCreateOrderCommand(orderID, "1 Main St", "9 Oak Ave", 2500)
//	if err != nil {
//	    return fmt.Errorf("invalid order data: %w", err)
//	}
//
//	handler := NewCreateOrderCommandHandler(uowFactory, routing, pricing)
//	if err := handler.Handle(ctx, cmd); err != nil {
//	    return fmt.Errorf("failed to create order: %w", err)
//	}
//	fmt.Printf("Order %s created and awaiting driver assignment", orderID)
type CreateOrderCommand struct { //nolint:recvcheck //using for validation
	orderID         kernel.UUID
	pickupAddress   string
	deliveryAddress string
	weightGrams     int

	guard guard.ConstructorGuard
}

// NewCreateOrderCommand creates a command to register a new delivery order.
// Validates that order ID is valid, both addresses are not empty, and
// weight is positive. Returns an error if any validation fails.
func NewCreateOrderCommand(
	orderID kernel.UUID, pickupAddress, deliveryAddress string, weightGrams int,
) (CreateOrderCommand, error) {
	orderCommand := CreateOrderCommand{
		guard: guard.NewConstructorGuard(),
	}

	if err := errors.Join(
		orderCommand.setOrderID(orderID),
		orderCommand.setPickupAddress(pickupAddress),
		orderCommand.setDeliveryAddress(deliveryAddress),
		orderCommand.setWeightGrams(weightGrams),
	); err != nil {
		return CreateOrderCommand{}, err
	}

	return orderCommand, nil
}

// Validate ensures the command was created through the constructor.
// Returns ErrCreateOrderCommandIsNotConstructed if validation fails.
func (c CreateOrderCommand) Validate() error {
	return c.guard.Validate(ErrCreateOrderCommandIsNotConstructed)
}

// OrderID returns the unique identifier for the order.
func (c CreateOrderCommand) OrderID() kernel.UUID {
	return c.orderID
}

// PickupAddress returns the free-form pickup address text.
func (c CreateOrderCommand) PickupAddress() string {
	return c.pickupAddress
}

// DeliveryAddress returns the free-form delivery address text.
func (c CreateOrderCommand) DeliveryAddress() string {
	return c.deliveryAddress
}

// WeightGrams returns the package weight in grams.
func (c CreateOrderCommand) WeightGrams() int {
	return c.weightGrams
}

func (c *CreateOrderCommand) setOrderID(orderID kernel.UUID) error {
	if err := orderID.Validate(); err != nil {
		return err
	}

	c.orderID = orderID
	return nil
}

func (c *CreateOrderCommand) setPickupAddress(address string) error {
	if address == "" {
		return ErrPickupAddressIsRequired
	}

	c.pickupAddress = address
	return nil
}

func (c *CreateOrderCommand) setDeliveryAddress(address string) error {
	if address == "" {
		return ErrDeliveryAddressIsRequired
	}

	c.deliveryAddress = address
	return nil
}

func (c *CreateOrderCommand) setWeightGrams(weightGrams int) error {
	if weightGrams <= 0 {
		return ErrWeightIsInvalid
	}

	c.weightGrams = weightGrams
	return nil
}
