package commands

import (
	"context"
	"errors"
	"strconv"
	"time"

	"dispatch/internal/core/domain/model/order"
	"dispatch/internal/core/domain/services"
	"dispatch/internal/core/ports"
)

var (
	// ErrOrderNotAwaitingDispatch signals that the order is no longer a
	// candidate for assignment: it left pending status, already carries an
	// open offer, or already has an assigned driver. Safe to ignore for
	// event-driven retries.
	ErrOrderNotAwaitingDispatch = errors.New("order is not awaiting dispatch")

	// ErrAssignmentAttemptsExhausted signals that the order has used up its
	// assignment attempts and must be escalated instead of re-dispatched.
	ErrAssignmentAttemptsExhausted = errors.New("assignment attempts exhausted")
)

// DispatchOrderCommandHandler runs a single assignment attempt for a pending
// order. Loads all selectable drivers, ranks them against the order, proposes
// the order to the winner and enqueues a push notification for them.
//
// A round that finds nobody still counts against the order's attempt budget;
// once the budget is spent the handler reports ErrAssignmentAttemptsExhausted
// so the caller can escalate.
type DispatchOrderCommandHandler struct {
	uowFactory UoWFactory
	matcher    services.DriverMatcher
	push       ports.PushGateway
	settings   DispatchSettings
}

// NewDispatchOrderCommandHandler creates a handler for order dispatching.
// Requires a UoWFactory spanning orders and drivers, the matching service,
// a push gateway and validated dispatch settings.
func NewDispatchOrderCommandHandler(
	uowFactory UoWFactory,
	matcher services.DriverMatcher,
	push ports.PushGateway,
	settings DispatchSettings,
) (DispatchOrderCommandHandler, error) {
	if err := settings.Validate(); err != nil {
		return DispatchOrderCommandHandler{}, err
	}

	return DispatchOrderCommandHandler{
		uowFactory: uowFactory,
		matcher:    matcher,
		push:       push,
		settings:   settings,
	}, nil
}

// Handle processes the dispatch command.
// Returns ErrOrderNotAwaitingDispatch when the order no longer needs a
// driver, services.ErrNoCandidateFound when the round came up empty, and
// ErrAssignmentAttemptsExhausted when the order is out of attempts.
func (h *DispatchOrderCommandHandler) Handle(ctx context.Context, cmd DispatchOrderCommand) error {
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

	if pendingOrder.Status() != order.Pending ||
		pendingOrder.OfferedDriver() != nil ||
		pendingOrder.AssignedDriver() != nil {
		return ErrOrderNotAwaitingDispatch
	}

	if pendingOrder.AttemptsExhausted(h.settings.MaxAssignmentAttempts) {
		return ErrAssignmentAttemptsExhausted
	}

	pendingOrder.RegisterAttempt()

	driverRepo := uow.DriverRepository()
	candidates, err := driverRepo.GetAllActive(ctx)
	if err != nil {
		return err
	}

	now := time.Now().UTC()
	criteria := services.MatchCriteria{
		Pickup:            pendingOrder.Pickup(),
		WeightGrams:       pendingOrder.WeightGrams(),
		RadiusKm:          h.settings.SearchRadiusKm,
		LocationFreshness: h.settings.LocationFreshness,
		ExcludedDriverIDs: pendingOrder.TriedDriverIDs(),
	}

	matched, err := h.matcher.Match(candidates, criteria, now)
	if err != nil {
		if !errors.Is(err, services.ErrNoCandidateFound) {
			return err
		}

		// The empty round still consumed an attempt, persist it.
		if updateErr := orderRepo.Update(ctx, pendingOrder); updateErr != nil {
			return updateErr
		}

		if commitErr := uow.Commit(ctx); commitErr != nil {
			return commitErr
		}

		if pendingOrder.AttemptsExhausted(h.settings.MaxAssignmentAttempts) {
			return ErrAssignmentAttemptsExhausted
		}

		return err
	}

	expiresAt := now.Add(h.settings.OfferTTL)
	if err = pendingOrder.ProposeTo(matched.ID(), expiresAt); err != nil {
		return err
	}

	if err = matched.MarkOffering(now); err != nil {
		return err
	}

	if err = orderRepo.Update(ctx, pendingOrder); err != nil {
		return err
	}

	if err = driverRepo.Update(ctx, matched); err != nil {
		return err
	}

	if err = uow.Commit(ctx); err != nil {
		return err
	}

	// The offer is placed either way; a missed push is recovered by the
	// expiration path and the next dispatch round.
	notification := ports.Notification{
		Token: matched.PushToken(),
		Title: "New delivery offer",
		Body:  "You have a new delivery offer, open the app to respond.",
		Data: map[string]string{
			"orderId":            pendingOrder.ID().String(),
			"offerExpiresAt":     expiresAt.Format(time.RFC3339),
			"driverRemuneration": strconv.FormatFloat(pendingOrder.DriverRemuneration(), 'f', 2, 64),
		},
	}
	if err = h.push.Enqueue(ctx, notification); err != nil {
		return err
	}

	return nil
}
