package commands

import (
	"context"
	"time"
)

// ExpireOfferCommandHandler clears a timed-out offer and releases the driver
// who held it. Designed to be replayed safely: expiration events can be
// delivered more than once and can race a synchronous accept or refuse, so
// a stale expiration is silently dropped.
type ExpireOfferCommandHandler struct {
	uowFactory UoWFactory
}

// NewExpireOfferCommandHandler creates a handler for offer expiration.
func NewExpireOfferCommandHandler(uowFactory UoWFactory) ExpireOfferCommandHandler {
	return ExpireOfferCommandHandler{
		uowFactory: uowFactory,
	}
}

// Handle processes the expire command.
// If the named driver still holds the offer, it is cleared and the driver
// returns to "active". Otherwise nothing changes.
func (h *ExpireOfferCommandHandler) Handle(ctx context.Context, cmd ExpireOfferCommand) error {
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

	if !offeredOrder.Expire(cmd.DriverID()) {
		return nil
	}

	now := time.Now().UTC()

	driverRepo := uow.DriverRepository()
	expiredDriver, err := driverRepo.Get(ctx, cmd.DriverID())
	if err != nil {
		return err
	}

	expiredDriver.ClearOffering(now)

	if err = orderRepo.Update(ctx, offeredOrder); err != nil {
		return err
	}

	if err = driverRepo.Update(ctx, expiredDriver); err != nil {
		return err
	}

	if err = uow.Commit(ctx); err != nil {
		return err
	}

	return nil
}
