package commands

import (
	"context"
	"time"
)

// ReportDriverLocationCommandHandler stores a driver's position ping with
// the current server time as the report timestamp.
type ReportDriverLocationCommandHandler struct {
	uowFactory DriverUoWFactory
}

// NewReportDriverLocationCommandHandler creates a handler for location pings.
func NewReportDriverLocationCommandHandler(
	uowFactory DriverUoWFactory,
) ReportDriverLocationCommandHandler {
	return ReportDriverLocationCommandHandler{
		uowFactory: uowFactory,
	}
}

// Handle processes the location ping.
func (h *ReportDriverLocationCommandHandler) Handle(
	ctx context.Context, cmd ReportDriverLocationCommand,
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
	reportingDriver, err := driverRepo.Get(ctx, cmd.DriverID())
	if err != nil {
		return err
	}

	if err = reportingDriver.ReportLocation(cmd.Location(), time.Now().UTC()); err != nil {
		return err
	}

	if err = driverRepo.Update(ctx, reportingDriver); err != nil {
		return err
	}

	if err = uow.Commit(ctx); err != nil {
		return err
	}

	return nil
}
