package commands

import (
	"context"
	"time"

	"dispatch/internal/core/domain/model/lifecycle"
	"dispatch/internal/core/domain/model/order"
	"dispatch/internal/core/ports"
)

// ManuallyAssignOrderCommandHandler directs a pending order to an
// operator-chosen driver. Any offer open to a different driver is withdrawn
// first and that driver released; the chosen driver then receives a regular
// offer and responds through the normal accept flow.
type ManuallyAssignOrderCommandHandler struct {
	uowFactory UoWFactory
	push       ports.PushGateway
	settings   DispatchSettings
}

// NewManuallyAssignOrderCommandHandler creates a handler for manual
// assignment. Requires a UoWFactory, a push gateway and validated dispatch
// settings.
func NewManuallyAssignOrderCommandHandler(
	uowFactory UoWFactory, push ports.PushGateway, settings DispatchSettings,
) (ManuallyAssignOrderCommandHandler, error) {
	if err := settings.Validate(); err != nil {
		return ManuallyAssignOrderCommandHandler{}, err
	}

	return ManuallyAssignOrderCommandHandler{
		uowFactory: uowFactory,
		push:       push,
		settings:   settings,
	}, nil
}

// Handle processes the manual assignment command.
// Fails if the order left pending status or the chosen driver is not active.
// If the chosen driver already holds the open offer, nothing changes.
func (h *ManuallyAssignOrderCommandHandler) Handle(
	ctx context.Context, cmd ManuallyAssignOrderCommand,
) error {
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
		return order.ErrOrderIsNotPending
	}

	if offered := pendingOrder.OfferedDriver(); offered != nil && offered.IsEqual(cmd.DriverID()) {
		return nil
	}

	now := time.Now().UTC()
	driverRepo := uow.DriverRepository()

	if previous := pendingOrder.ClearOffer(); previous != nil {
		previousDriver, getErr := driverRepo.Get(ctx, *previous)
		if getErr != nil {
			return getErr
		}

		previousDriver.ClearOffering(now)
		if updateErr := driverRepo.Update(ctx, previousDriver); updateErr != nil {
			return updateErr
		}
	}

	chosenDriver, err := driverRepo.Get(ctx, cmd.DriverID())
	if err != nil {
		return err
	}

	expiresAt := now.Add(h.settings.OfferTTL)
	if err = pendingOrder.ProposeTo(chosenDriver.ID(), expiresAt); err != nil {
		return err
	}

	if err = chosenDriver.MarkOffering(now); err != nil {
		return err
	}

	if err = orderRepo.Update(ctx, pendingOrder); err != nil {
		return err
	}

	if err = driverRepo.Update(ctx, chosenDriver); err != nil {
		return err
	}

	event := lifecycle.ManuallyAssigned(pendingOrder.ID(), chosenDriver.ID(), cmd.ActorID(), now)
	if err = uow.OutboxRepository().Add(ctx, event); err != nil {
		return err
	}

	if err = uow.Commit(ctx); err != nil {
		return err
	}

	notification := ports.Notification{
		Token: chosenDriver.PushToken(),
		Title: "New delivery offer",
		Body:  "An operator assigned you a delivery, open the app to respond.",
		Data: map[string]string{
			"orderId":        pendingOrder.ID().String(),
			"offerExpiresAt": expiresAt.Format(time.RFC3339),
		},
	}
	if err = h.push.Enqueue(ctx, notification); err != nil {
		return err
	}

	return nil
}
