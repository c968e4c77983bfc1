package commands

import (
	"context"
	"time"

	"dispatch/internal/core/domain/model/kernel"
	"dispatch/internal/core/domain/model/lifecycle"
	"dispatch/internal/core/domain/model/order"
	"dispatch/internal/core/ports"
)

// CreateOrderCommandHandler handles the business logic for order creation.
// Geocodes both addresses, prices the trip and registers the order in
// "pending" status, staging a new_order_ready event for the dispatch worker.
//
// Example:
//
//	handler := NewCreateOrderCommandHandler(uowFactory, routing, pricing)
//	orderID := kernel.NewUUID()
//	cmd, _ := NewCreateOrderCommand(orderID, "1 Main St", "9 Oak Ave", 2500)
//
//	if err := handler.Handle(ctx, cmd); err != nil {
//	    return fmt.Errorf("order creation failed: %w", err)
//	}
//	// Order is now pending and ready for driver assignment
type CreateOrderCommandHandler struct {
	uowFactory OrderUoWFactory
	routing    ports.RoutingClient
	pricing    ports.PricingClient
}

// NewCreateOrderCommandHandler creates a handler for order creation operations.
// Requires an OrderUoWFactory for transactional persistence plus routing and
// pricing clients for trip estimation.
func NewCreateOrderCommandHandler(
	uowFactory OrderUoWFactory, routing ports.RoutingClient, pricing ports.PricingClient,
) CreateOrderCommandHandler {
	return CreateOrderCommandHandler{
		uowFactory: uowFactory,
		routing:    routing,
		pricing:    pricing,
	}
}

// Handle processes the order creation command.
// Resolves both addresses to coordinates, estimates the route, calculates
// fees and persists the order atomically with its new_order_ready event.
func (h *CreateOrderCommandHandler) Handle(ctx context.Context, cmd CreateOrderCommand) error {
	if err := cmd.Validate(); err != nil {
		return err
	}

	pickup, err := h.routing.Geocode(ctx, cmd.PickupAddress())
	if err != nil {
		return err
	}

	delivery, err := h.routing.Geocode(ctx, cmd.DeliveryAddress())
	if err != nil {
		return err
	}

	route, err := h.routing.Route(ctx, []kernel.Location{pickup, delivery})
	if err != nil {
		return err
	}

	fees, err := h.pricing.CalculateFees(ctx, route, cmd.WeightGrams())
	if err != nil {
		return err
	}

	now := time.Now().UTC()
	newOrder, err := order.NewOrder(
		cmd.OrderID(), pickup, delivery, cmd.WeightGrams(),
		fees.ClientFee, fees.DriverRemuneration, now,
	)
	if err != nil {
		return err
	}

	uow := h.uowFactory.Create()
	if err = uow.Begin(ctx); err != nil {
		return err
	}

	defer func() {
		_ = uow.Rollback(ctx)
	}()

	if err = uow.OrderRepository().Add(ctx, newOrder); err != nil {
		return err
	}

	event := lifecycle.NewOrderReady(newOrder.ID(), newOrder.Pickup(), newOrder.WeightGrams(), now)
	if err = uow.OutboxRepository().Add(ctx, event); err != nil {
		return err
	}

	if err = uow.Commit(ctx); err != nil {
		return err
	}

	return nil
}
