package commands

import (
	"context"
	"time"

	"dispatch/internal/core/domain/model/lifecycle"
	"dispatch/internal/core/ports"
)

// CancelOrderCommandHandler cancels an order on behalf of an operator.
// Whatever the order was doing stops: an open offer is withdrawn and its
// holder released, and an assigned driver in the middle of the delivery has
// the assignment taken off their plate.
type CancelOrderCommandHandler struct {
	uowFactory   UoWFactory
	availability ports.AvailabilityChecker
}

// NewCancelOrderCommandHandler creates a handler for operator cancellation.
func NewCancelOrderCommandHandler(
	uowFactory UoWFactory, availability ports.AvailabilityChecker,
) CancelOrderCommandHandler {
	return CancelOrderCommandHandler{
		uowFactory:   uowFactory,
		availability: availability,
	}
}

// Handle processes the cancellation.
// Fails if the order already reached a terminal status. Stages a
// cancelled_by_admin event on success.
func (h *CancelOrderCommandHandler) Handle(ctx context.Context, cmd CancelOrderCommand) error {
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
	cancelledOrder, err := orderRepo.Get(ctx, cmd.OrderID())
	if err != nil {
		return err
	}

	offeredDriverID := cancelledOrder.OfferedDriver()
	assignedDriverID := cancelledOrder.AssignedDriver()
	wasInProgress := cancelledOrder.Status().IsInProgress()

	now := time.Now().UTC()
	actorID := cmd.ActorID()
	if err = cancelledOrder.Cancel(&actorID, now, nil); err != nil {
		return err
	}

	driverRepo := uow.DriverRepository()

	if offeredDriverID != nil {
		offeredDriver, getErr := driverRepo.Get(ctx, *offeredDriverID)
		if getErr != nil {
			return getErr
		}

		offeredDriver.ClearOffering(now)
		if updateErr := driverRepo.Update(ctx, offeredDriver); updateErr != nil {
			return updateErr
		}
	}

	if wasInProgress && assignedDriverID != nil {
		assignedDriver, getErr := driverRepo.Get(ctx, *assignedDriverID)
		if getErr != nil {
			return getErr
		}

		availableNow, availErr := h.availability.IsAvailableNow(ctx, *assignedDriverID, now)
		if availErr != nil {
			return availErr
		}

		if finishErr := assignedDriver.FinishAssignment(availableNow, now); finishErr != nil {
			return finishErr
		}

		if updateErr := driverRepo.Update(ctx, assignedDriver); updateErr != nil {
			return updateErr
		}
	}

	if err = orderRepo.Update(ctx, cancelledOrder); err != nil {
		return err
	}

	event := lifecycle.CancelledByAdmin(cancelledOrder.ID(), cmd.ActorID(), now)
	if err = uow.OutboxRepository().Add(ctx, event); err != nil {
		return err
	}

	if err = uow.Commit(ctx); err != nil {
		return err
	}

	return nil
}
