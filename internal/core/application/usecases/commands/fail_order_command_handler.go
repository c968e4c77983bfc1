package commands

import (
	"context"
	"time"

	"dispatch/internal/core/domain/model/lifecycle"
	"dispatch/internal/core/ports"
)

// FailOrderCommandHandler records an unrecoverable delivery failure reported
// by the assigned driver. The order reaches its terminal "failed" status and
// the driver is released the same way a completion releases them.
type FailOrderCommandHandler struct {
	uowFactory   UoWFactory
	availability ports.AvailabilityChecker
}

// NewFailOrderCommandHandler creates a handler for order failure reports.
func NewFailOrderCommandHandler(
	uowFactory UoWFactory, availability ports.AvailabilityChecker,
) FailOrderCommandHandler {
	return FailOrderCommandHandler{
		uowFactory:   uowFactory,
		availability: availability,
	}
}

// Handle processes the failure report.
// Only the assigned driver may fail an order, and only while it is in
// progress. The reason is recorded in the order's ledger.
func (h *FailOrderCommandHandler) Handle(ctx context.Context, cmd FailOrderCommand) error {
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
	if err = assignedOrder.Fail(cmd.DriverID(), now, cmd.Reason()); err != nil {
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

	event := lifecycle.Failed(assignedOrder.ID(), cmd.DriverID(), cmd.Reason(), now)
	if err = uow.OutboxRepository().Add(ctx, event); err != nil {
		return err
	}

	if err = uow.Commit(ctx); err != nil {
		return err
	}

	return nil
}
