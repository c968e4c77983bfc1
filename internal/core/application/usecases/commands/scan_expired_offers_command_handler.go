package commands

import (
	"context"
	"time"

	"dispatch/internal/core/domain/model/lifecycle"
)

// ScanExpiredOffersCommandHandler sweeps orders with timed-out offers and
// stages an offer_expired event for each. The events drive the actual state
// change through the expiration handler, so replaying a sweep is harmless.
type ScanExpiredOffersCommandHandler struct {
	uowFactory OrderUoWFactory
}

// NewScanExpiredOffersCommandHandler creates a handler for the expiration sweep.
func NewScanExpiredOffersCommandHandler(uowFactory OrderUoWFactory) ScanExpiredOffersCommandHandler {
	return ScanExpiredOffersCommandHandler{
		uowFactory: uowFactory,
	}
}

// Handle processes the sweep command.
// Returns the number of expired offers found.
func (h *ScanExpiredOffersCommandHandler) Handle(
	ctx context.Context, cmd ScanExpiredOffersCommand,
) (int, error) {
	if err := cmd.Validate(); err != nil {
		return 0, err
	}

	uow := h.uowFactory.Create()
	if err := uow.Begin(ctx); err != nil {
		return 0, err
	}

	defer func() {
		_ = uow.Rollback(ctx)
	}()

	now := time.Now().UTC()
	expiredOrders, err := uow.OrderRepository().GetWithExpiredOffers(ctx, now)
	if err != nil {
		return 0, err
	}

	outboxRepo := uow.OutboxRepository()
	for _, expiredOrder := range expiredOrders {
		offeredDriverID := expiredOrder.OfferedDriver()
		if offeredDriverID == nil {
			continue
		}

		event := lifecycle.OfferExpired(expiredOrder.ID(), *offeredDriverID, now)
		if err = outboxRepo.Add(ctx, event); err != nil {
			return 0, err
		}
	}

	if err = uow.Commit(ctx); err != nil {
		return 0, err
	}

	return len(expiredOrders), nil
}
