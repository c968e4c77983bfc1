package commands

import (
	"context"
	"time"

	"dispatch/internal/core/domain/model/lifecycle"
	"dispatch/internal/core/domain/model/order"
)

// EscalationReasonNoDriverFound is written to the order ledger and the
// cancelled_by_system event when the attempt budget runs out.
const EscalationReasonNoDriverFound = "no_driver_found"

// EscalateOrderCommandHandler cancels a pending order on behalf of the
// system after automatic assignment gave up. An escalation that arrives
// after the order got a driver anyway is stale and ignored.
type EscalateOrderCommandHandler struct {
	uowFactory UoWFactory
}

// NewEscalateOrderCommandHandler creates a handler for system escalation.
func NewEscalateOrderCommandHandler(uowFactory UoWFactory) EscalateOrderCommandHandler {
	return EscalateOrderCommandHandler{
		uowFactory: uowFactory,
	}
}

// Handle processes the escalation.
// Cancels the order with reason no_driver_found, releases any driver still
// holding an open offer, and stages a cancelled_by_system event.
func (h *EscalateOrderCommandHandler) Handle(ctx context.Context, cmd EscalateOrderCommand) error {
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
	pendingOrder, err := orderRepo.Get(ctx, cmd.OrderID())
	if err != nil {
		return err
	}

	if pendingOrder.Status() != order.Pending || pendingOrder.AssignedDriver() != nil {
		return nil
	}

	offeredDriverID := pendingOrder.OfferedDriver()

	now := time.Now().UTC()
	metadata := map[string]string{"reason": EscalationReasonNoDriverFound}
	if err = pendingOrder.Cancel(nil, now, metadata); err != nil {
		return err
	}

	if offeredDriverID != nil {
		driverRepo := uow.DriverRepository()
		offeredDriver, getErr := driverRepo.Get(ctx, *offeredDriverID)
		if getErr != nil {
			return getErr
		}

		offeredDriver.ClearOffering(now)
		if updateErr := driverRepo.Update(ctx, offeredDriver); updateErr != nil {
			return updateErr
		}
	}

	if err = orderRepo.Update(ctx, pendingOrder); err != nil {
		return err
	}

	event := lifecycle.CancelledBySystem(pendingOrder.ID(), EscalationReasonNoDriverFound, now)
	if err = uow.OutboxRepository().Add(ctx, event); err != nil {
		return err
	}

	if err = uow.Commit(ctx); err != nil {
		return err
	}

	return nil
}
