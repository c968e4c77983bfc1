package commands

import (
	"context"
	"time"

	"dispatch/internal/core/domain/model/order"
)

// ReportOrderProgressCommandHandler advances an assigned order through its
// delivery milestones. Only the assigned driver may report progress, and the
// milestones must arrive in order; violations surface as precondition errors.
type ReportOrderProgressCommandHandler struct {
	uowFactory OrderUoWFactory
}

// NewReportOrderProgressCommandHandler creates a handler for progress reports.
func NewReportOrderProgressCommandHandler(uowFactory OrderUoWFactory) ReportOrderProgressCommandHandler {
	return ReportOrderProgressCommandHandler{
		uowFactory: uowFactory,
	}
}

// Handle processes the progress report.
// Records the milestone with the reporting location in the order's ledger.
func (h *ReportOrderProgressCommandHandler) Handle(
	ctx context.Context, cmd ReportOrderProgressCommand,
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
	assignedOrder, err := orderRepo.Get(ctx, cmd.OrderID())
	if err != nil {
		return err
	}

	now := time.Now().UTC()

	switch cmd.Milestone() {
	case order.AtPickup:
		err = assignedOrder.MarkAtPickup(cmd.DriverID(), cmd.Location(), now)
	case order.EnRoute:
		err = assignedOrder.MarkEnRoute(cmd.DriverID(), cmd.Location(), now)
	case order.AtDelivery:
		err = assignedOrder.MarkAtDelivery(cmd.DriverID(), cmd.Location(), now)
	default:
		err = ErrMilestoneIsInvalid
	}
	if err != nil {
		return err
	}

	if err = orderRepo.Update(ctx, assignedOrder); err != nil {
		return err
	}

	if err = uow.Commit(ctx); err != nil {
		return err
	}

	return nil
}
