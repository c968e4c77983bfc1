package order

import (
	"fmt"

	"dispatch/internal/pkg/errs"
)

// Status represents the lifecycle state of an order.
// It implements a state machine with defined transitions to ensure
// orders follow the correct business workflow.
//
// State transitions:
//
//	Pending ──> Accepted ──> AtPickup ──> EnRoute ──> AtDelivery
//
// Any in-progress status (Accepted through AtDelivery) may finish as
// Success or Failed. Any non-terminal status may become Cancelled.
//
// Status is a value object that validates state transitions and provides
// string representations for persistence and display. The string forms
// are the snake_case values written to the status ledger.
type Status int

const (
	// Unknown represents an invalid or undefined status.
	// This value (0) helps catch uninitialized Status values.
	Unknown Status = iota

	// Pending is the initial status when an order is first created.
	// Orders in this status are waiting for a driver to accept an offer.
	Pending

	// Accepted indicates a driver has accepted the offer and now holds
	// the assignment. From here the driver reports progress milestones.
	Accepted

	// AtPickup indicates the driver has arrived at the pickup point.
	AtPickup

	// EnRoute indicates the driver is moving toward the delivery point.
	EnRoute

	// AtDelivery indicates the driver has arrived at the delivery point.
	AtDelivery

	// Success indicates the order was delivered. Terminal.
	Success

	// Failed indicates the assignment was accepted but the mission
	// could not be finished. Terminal.
	Failed

	// Cancelled indicates the order was withdrawn by an administrator
	// or by the system after assignment attempts were exhausted. Terminal.
	Cancelled
)

// getStatusStrings returns a map of Status values to their string representations.
// All statuses are included for string conversion.
func getStatusStrings() map[Status]string {
	return map[Status]string{
		Unknown:    "unknown",
		Pending:    "pending",
		Accepted:   "accepted",
		AtPickup:   "at_pickup",
		EnRoute:    "en_route",
		AtDelivery: "at_delivery",
		Success:    "success",
		Failed:     "failed",
		Cancelled:  "cancelled",
	}
}

// getValidStatusStrings returns a map of only valid Status values.
// Only valid statuses are included to support validation and parsing.
func getValidStatusStrings() map[Status]string {
	//nolint:exhaustive // Unknown is intentionally excluded as it's invalid
	return map[Status]string{
		Pending:    "pending",
		Accepted:   "accepted",
		AtPickup:   "at_pickup",
		EnRoute:    "en_route",
		AtDelivery: "at_delivery",
		Success:    "success",
		Failed:     "failed",
		Cancelled:  "cancelled",
	}
}

// StatusFromString parses the snake_case ledger representation of a status.
//
// Returns:
//   - (Status, nil) for a recognized status string
//   - (Unknown, error) for anything else
//
// This function is used when reconstructing orders and ledger entries
// from persistence.
func StatusFromString(s string) (Status, error) {
	for status, str := range getValidStatusStrings() {
		if str == s {
			return status, nil
		}
	}
	return Unknown, errs.NewValueIsInvalidErrorWithCause("status is invalid", fmt.Errorf("%q is not a valid status", s))
}

// Validate checks if the Status value is valid.
//
// Valid statuses are: Pending, Accepted, AtPickup, EnRoute, AtDelivery,
// Success, Failed, Cancelled. Unknown (0) and any other values are invalid.
//
// Returns:
//   - nil if the status is valid
//   - error with details if the status is invalid
func (s Status) Validate() error {
	if _, ok := getValidStatusStrings()[s]; !ok {
		return errs.NewValueIsInvalidErrorWithCause("status is invalid", fmt.Errorf("%d is not a valid status", s))
	}
	return nil
}

// String returns the snake_case name of the status as written to the ledger.
//
// Returns:
//   - the ledger representation for valid statuses
//   - "unknown" for invalid status values
//
// This method implements the fmt.Stringer interface and is safe
// to call on any Status value, including invalid ones.
func (s Status) String() string {
	if str, ok := getStatusStrings()[s]; ok {
		return str
	}
	return "unknown"
}

// IsTerminal reports whether the status is one of the final states
// (Success, Failed, Cancelled) from which no further transition exists.
func (s Status) IsTerminal() bool {
	return s == Success || s == Failed || s == Cancelled
}

// IsInProgress reports whether a driver currently holds the assignment,
// that is the status lies between Accepted and AtDelivery inclusive.
func (s Status) IsInProgress() bool {
	return s == Accepted || s == AtPickup || s == EnRoute || s == AtDelivery
}

// ValidateCanHaveDriver validates the consistency between order status and
// driver assignment. Enforces business rules about which statuses require
// an assigned driver.
//
// Business Rules:
//   - Pending orders must not have an assigned driver
//   - Accepted and later in-progress orders must have an assigned driver
//   - Success and Failed orders must have an assigned driver
//   - Cancelled orders may or may not have one (a pending order cancelled
//     by escalation never gained a driver; an in-progress order cancelled
//     by an administrator keeps its driver for the audit trail)
//
// Parameters:
//   - hasDriver: whether the order has an assigned driver
//
// Returns:
//   - error: validation error if status and driver assignment are inconsistent
func (s Status) ValidateCanHaveDriver(hasDriver bool) error {
	if hasDriver && s == Pending {
		return errs.NewValueIsInvalidErrorWithCause(
			"status is invalid",
			fmt.Errorf("%s is not a valid status to have an assigned driver", s.String()),
		)
	}

	if !hasDriver && (s.IsInProgress() || s == Success || s == Failed) {
		return errs.NewValueIsInvalidErrorWithCause(
			"status is invalid",
			fmt.Errorf("%s is not a valid status to have no assigned driver", s.String()),
		)
	}

	return nil
}

// Accept transitions the status to Accepted.
//
// Valid transitions:
//   - Pending -> Accepted (driver accepted the open offer)
//
// Returns:
//   - (Accepted, nil) on valid transition
//   - (0, error) if transition is not allowed from current status
func (s Status) Accept() (Status, error) {
	if s != Pending {
		return 0, errs.NewValueIsInvalidErrorWithCause(
			"status is invalid",
			fmt.Errorf("%s is not a valid status to accept", s.String()),
		)
	}

	return Accepted, nil
}

// MarkAtPickup transitions the status to AtPickup.
//
// Valid transitions:
//   - Accepted -> AtPickup (driver arrived at the pickup point)
//
// Returns:
//   - (AtPickup, nil) on valid transition
//   - (0, error) if transition is not allowed from current status
func (s Status) MarkAtPickup() (Status, error) {
	if s != Accepted {
		return 0, errs.NewValueIsInvalidErrorWithCause(
			"status is invalid",
			fmt.Errorf("%s is not a valid status to mark at pickup", s.String()),
		)
	}

	return AtPickup, nil
}

// MarkEnRoute transitions the status to EnRoute.
//
// Valid transitions:
//   - AtPickup -> EnRoute (driver left the pickup point with the cargo)
//
// Returns:
//   - (EnRoute, nil) on valid transition
//   - (0, error) if transition is not allowed from current status
func (s Status) MarkEnRoute() (Status, error) {
	if s != AtPickup {
		return 0, errs.NewValueIsInvalidErrorWithCause(
			"status is invalid",
			fmt.Errorf("%s is not a valid status to mark en route", s.String()),
		)
	}

	return EnRoute, nil
}

// MarkAtDelivery transitions the status to AtDelivery.
//
// Valid transitions:
//   - EnRoute -> AtDelivery (driver arrived at the delivery point)
//
// Returns:
//   - (AtDelivery, nil) on valid transition
//   - (0, error) if transition is not allowed from current status
func (s Status) MarkAtDelivery() (Status, error) {
	if s != EnRoute {
		return 0, errs.NewValueIsInvalidErrorWithCause(
			"status is invalid",
			fmt.Errorf("%s is not a valid status to mark at delivery", s.String()),
		)
	}

	return AtDelivery, nil
}

// Complete transitions the status to Success.
//
// Valid transitions:
//   - any in-progress status -> Success (milestone reports are optional,
//     so completion is allowed straight from Accepted)
//
// Returns:
//   - (Success, nil) on valid transition
//   - (0, error) if transition is not allowed from current status
func (s Status) Complete() (Status, error) {
	if !s.IsInProgress() {
		return 0, errs.NewValueIsInvalidErrorWithCause(
			"status is invalid",
			fmt.Errorf("%s is not a valid status to complete", s.String()),
		)
	}

	return Success, nil
}

// Fail transitions the status to Failed.
//
// Valid transitions:
//   - any in-progress status -> Failed
//
// Returns:
//   - (Failed, nil) on valid transition
//   - (0, error) if transition is not allowed from current status
func (s Status) Fail() (Status, error) {
	if !s.IsInProgress() {
		return 0, errs.NewValueIsInvalidErrorWithCause(
			"status is invalid",
			fmt.Errorf("%s is not a valid status to fail", s.String()),
		)
	}

	return Failed, nil
}

// Cancel transitions the status to Cancelled.
//
// Valid transitions:
//   - any non-terminal status -> Cancelled
//
// Returns:
//   - (Cancelled, nil) on valid transition
//   - (0, error) if the status is already terminal or invalid
func (s Status) Cancel() (Status, error) {
	if err := s.Validate(); err != nil {
		return 0, err
	}

	if s.IsTerminal() {
		return 0, errs.NewValueIsInvalidErrorWithCause(
			"status is invalid",
			fmt.Errorf("%s is not a valid status to cancel", s.String()),
		)
	}

	return Cancelled, nil
}
