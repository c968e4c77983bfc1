package commands

import (
	"context"
	"time"

	"dispatch/internal/core/domain/model/lifecycle"
)

// AcceptOfferCommandHandler handles a driver accepting an open offer.
// The accept races against expiration and concurrent responses: the aggregate
// is re-read inside the transaction and the offer protocol errors
// (order.ErrOfferDoesNotMatch, order.ErrOfferExpired, order.ErrOrderIsNotPending)
// surface to the caller as precondition failures.
type AcceptOfferCommandHandler struct {
	uowFactory UoWFactory
}

// NewAcceptOfferCommandHandler creates a handler for offer acceptance.
func NewAcceptOfferCommandHandler(uowFactory UoWFactory) AcceptOfferCommandHandler {
	return AcceptOfferCommandHandler{
		uowFactory: uowFactory,
	}
}

// Handle processes the accept command.
// On success the order moves to "accepted" with the driver assigned, the
// driver moves to "in_work", and an offer_accepted event is staged.
func (h *AcceptOfferCommandHandler) Handle(ctx context.Context, cmd AcceptOfferCommand) error {
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
	if err = offeredOrder.Accept(cmd.DriverID(), now); err != nil {
		return err
	}

	driverRepo := uow.DriverRepository()
	acceptingDriver, err := driverRepo.Get(ctx, cmd.DriverID())
	if err != nil {
		return err
	}

	acceptingDriver.AcceptAssignment(now)

	if err = orderRepo.Update(ctx, offeredOrder); err != nil {
		return err
	}

	if err = driverRepo.Update(ctx, acceptingDriver); err != nil {
		return err
	}

	event := lifecycle.OfferAccepted(offeredOrder.ID(), cmd.DriverID(), now)
	if err = uow.OutboxRepository().Add(ctx, event); err != nil {
		return err
	}

	if err = uow.Commit(ctx); err != nil {
		return err
	}

	return nil
}
