package commands

import (
	"context"
	"time"

	"dispatch/internal/core/domain/model/lifecycle"
	"dispatch/internal/core/ports"
)

// CompleteOrderCommandHandler finalizes a successful delivery. The order
// reaches its terminal "success" status and the driver's open assignment
// count drops; when it hits zero the driver's next availability comes from
// the schedule service.
type CompleteOrderCommandHandler struct {
	uowFactory   UoWFactory
	availability ports.AvailabilityChecker
}

// NewCompleteOrderCommandHandler creates a handler for order completion.
// Requires a UoWFactory and the schedule availability checker.
func NewCompleteOrderCommandHandler(
	uowFactory UoWFactory, availability ports.AvailabilityChecker,
) CompleteOrderCommandHandler {
	return CompleteOrderCommandHandler{
		uowFactory:   uowFactory,
		availability: availability,
	}
}

// Handle processes the completion command.
// Only the assigned driver may complete. Milestone reports are optional, so
// completion is accepted from any in-progress status, including straight
// from "accepted".
func (h *CompleteOrderCommandHandler) Handle(ctx context.Context, cmd CompleteOrderCommand) error {
	if err := cmd.Validate(); err != nil {
		return err
	}

	uow := h.uowFactory.Create()
	if err := uow.Begin(ctx); err != nil {
		return err
	}

	defer func() {
		_ = uow.Rollback(ctx)
	}()

	orderRepo := uow.OrderRepository()
	assignedOrder, err := orderRepo.Get(ctx, cmd.OrderID())
	if err != nil {
		return err
	}

	now := time.Now().UTC()
	if err = assignedOrder.Complete(cmd.DriverID(), now); err != nil {
		return err
	}

	driverRepo := uow.DriverRepository()
	assignedDriver, err := driverRepo.Get(ctx, cmd.DriverID())
	if err != nil {
		return err
	}

	availableNow, err := h.availability.IsAvailableNow(ctx, cmd.DriverID(), now)
	if err != nil {
		return err
	}

	if err = assignedDriver.FinishAssignment(availableNow, now); err != nil {
		return err
	}

	if err = orderRepo.Update(ctx, assignedOrder); err != nil {
		return err
	}

	if err = driverRepo.Update(ctx, assignedDriver); err != nil {
		return err
	}

	event := lifecycle.Completed(assignedOrder.ID(), cmd.DriverID(), now)
	if err = uow.OutboxRepository().Add(ctx, event); err != nil {
		return err
	}

	if err = uow.Commit(ctx); err != nil {
		return err
	}

	return nil
}
