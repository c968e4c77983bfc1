package commands

import (
	"context"
	"time"
)

// ChangeDriverStatusCommandHandler applies a driver's availability toggle.
// Rejected with driver.ErrDriverIsInWork while the driver holds accepted
// missions; a toggle while an offer is pending is permitted and the offer
// protocol's matching checks still guard the offer itself.
type ChangeDriverStatusCommandHandler struct {
	uowFactory DriverUoWFactory
}

// NewChangeDriverStatusCommandHandler creates a handler for status toggles.
func NewChangeDriverStatusCommandHandler(uowFactory DriverUoWFactory) ChangeDriverStatusCommandHandler {
	return ChangeDriverStatusCommandHandler{
		uowFactory: uowFactory,
	}
}

// Handle processes the status change.
func (h *ChangeDriverStatusCommandHandler) Handle(
	ctx context.Context, cmd ChangeDriverStatusCommand,
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

	driverRepo := uow.DriverRepository()
	togglingDriver, err := driverRepo.Get(ctx, cmd.DriverID())
	if err != nil {
		return err
	}

	if err = togglingDriver.ChangeStatus(cmd.Status(), time.Now().UTC()); err != nil {
		return err
	}

	if err = driverRepo.Update(ctx, togglingDriver); err != nil {
		return err
	}

	if err = uow.Commit(ctx); err != nil {
		return err
	}

	return nil
}
