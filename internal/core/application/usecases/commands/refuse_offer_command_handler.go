package commands

import (
	"context"
	"errors"
	"time"

	"dispatch/internal/core/domain/model/lifecycle"
	"dispatch/internal/core/domain/model/order"
)

// RefuseOfferCommandHandler handles a driver declining an open offer.
// A refusal that arrives after the offer already moved on (expired, taken
// over, or the order left pending) is moot and treated as success.
type RefuseOfferCommandHandler struct {
	uowFactory UoWFactory
}

// NewRefuseOfferCommandHandler creates a handler for offer refusal.
func NewRefuseOfferCommandHandler(uowFactory UoWFactory) RefuseOfferCommandHandler {
	return RefuseOfferCommandHandler{
		uowFactory: uowFactory,
	}
}

// Handle processes the refuse command.
// On success the offer is cleared, the driver returns to "active", and an
// offer_refused event is staged for the dispatch worker to retry.
func (h *RefuseOfferCommandHandler) Handle(ctx context.Context, cmd RefuseOfferCommand) error {
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
	offeredOrder, err := orderRepo.Get(ctx, cmd.OrderID())
	if err != nil {
		return err
	}

	now := time.Now().UTC()
	if err = offeredOrder.Refuse(cmd.DriverID(), now); err != nil {
		if errors.Is(err, order.ErrOfferDoesNotMatch) ||
			errors.Is(err, order.ErrOfferExpired) ||
			errors.Is(err, order.ErrOrderIsNotPending) {
			return nil
		}

		return err
	}

	driverRepo := uow.DriverRepository()
	refusingDriver, err := driverRepo.Get(ctx, cmd.DriverID())
	if err != nil {
		return err
	}

	refusingDriver.ClearOffering(now)

	if err = orderRepo.Update(ctx, offeredOrder); err != nil {
		return err
	}

	if err = driverRepo.Update(ctx, refusingDriver); err != nil {
		return err
	}

	event := lifecycle.OfferRefused(offeredOrder.ID(), cmd.DriverID(), now)
	if err = uow.OutboxRepository().Add(ctx, event); err != nil {
		return err
	}

	if err = uow.Commit(ctx); err != nil {
		return err
	}

	return nil
}
