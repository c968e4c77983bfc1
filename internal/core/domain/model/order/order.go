package order

import (
	"errors"
	"fmt"
	"time"

	"dispatch/internal/core/domain/model/kernel"
	"dispatch/internal/pkg/errs"
)

var (
	// ErrOrderIsNotConstructed is returned when an Order instance was not created through
	// the NewOrder factory method. This ensures all orders are properly validated.
	ErrOrderIsNotConstructed = errors.New("Order must be created via NewOrder constructor")

	// ErrOrderIsNotPending is returned when an offer operation targets an order
	// whose status is no longer pending. A losing concurrent actor observes this
	// and exits without side effects.
	ErrOrderIsNotPending = errors.New("order is not pending")

	// ErrOfferAlreadyOpen is returned by ProposeTo when another driver already
	// holds the open offer for the order.
	ErrOfferAlreadyOpen = errors.New("order already has an open offer")

	// ErrOrderAlreadyAssigned is returned by ProposeTo when the order has
	// already been assigned to a driver.
	ErrOrderAlreadyAssigned = errors.New("order is already assigned to a driver")

	// ErrOfferDoesNotMatch is returned when a driver acts on an offer they do
	// not hold: either no offer is open or it belongs to another driver.
	// Callers treat this as a benign outcome of a race already resolved elsewhere.
	ErrOfferDoesNotMatch = errors.New("offer does not match the acting driver")

	// ErrOfferExpired is returned when a driver acts on an offer whose deadline
	// has passed. Like ErrOfferDoesNotMatch, this is a benign stale-action outcome.
	ErrOfferExpired = errors.New("offer has expired")

	// ErrDriverDoesNotMatch is returned when a progress or completion call comes
	// from a driver other than the one the order is assigned to.
	ErrDriverDoesNotMatch = errors.New("order is not assigned to the acting driver")
)

// Order represents a delivery mission in the system. It is the aggregate root
// that owns the offer lifecycle: the time-boxed, exclusive proposal of the
// order to a single driver, its resolution (accept, refuse, expiry), and the
// progress of the accepted mission to a terminal status.
//
// Order maintains these invariants:
//   - an open offer exists iff both the offered driver and the offer deadline
//     are set, and only while the order is pending
//   - at most one driver holds the open offer at any instant
//   - the assignment attempt counter never decreases
//   - every status transition appends an immutable ledger entry
//
// All mutation methods re-check their preconditions against the current
// state and return a typed error without mutating anything on violation.
// Persistence re-reads the aggregate inside the transaction performing the
// mutation, which gives the offer protocol compare-and-swap semantics.
type Order struct {
	// id is the unique identifier for the order
	id kernel.UUID

	// pickup is where the cargo is collected
	pickup kernel.Location

	// delivery is where the cargo is dropped off
	delivery kernel.Location

	// weightGrams is the total cargo weight derived from the line items
	weightGrams int

	// clientFee is what the client pays for the mission
	clientFee float64

	// driverRemuneration is what the driver earns for the mission
	driverRemuneration float64

	// offeredDriverID is the driver currently holding the open offer (nil if none)
	offeredDriverID *kernel.UUID

	// offerExpiresAt is the open offer's deadline (nil iff no open offer)
	offerExpiresAt *time.Time

	// assignmentAttemptCount counts dispatch attempts; monotonic, capped by config
	assignmentAttemptCount int

	// triedDriverIDs accumulates every driver the order was ever offered to,
	// so re-dispatch excludes them
	triedDriverIDs []kernel.UUID

	// assignedDriverID is the driver who accepted the offer (nil until then)
	assignedDriverID *kernel.UUID

	// status is the materialized current lifecycle status; the ledger is the
	// source of truth for history
	status Status

	// ledger holds entries appended since the last persistence flush
	ledger []LedgerEntry

	// isConstructed ensures the order was created via NewOrder or RestoreOrder
	isConstructed bool
}

// NewOrder creates a pending Order with no offer and no assigned driver,
// appending the initial pending ledger entry.
//
// Parameters:
//   - id: unique order identifier
//   - pickup, delivery: validated geographic points
//   - weightGrams: total cargo weight, must be positive
//   - clientFee, driverRemuneration: fees computed at intake, must not be negative
//   - now: creation timestamp recorded in the ledger
func NewOrder(
	id kernel.UUID,
	pickup kernel.Location,
	delivery kernel.Location,
	weightGrams int,
	clientFee float64,
	driverRemuneration float64,
	now time.Time,
) (*Order, error) {
	o := &Order{
		status:        Pending,
		isConstructed: true,
	}

	if err := errors.Join(
		o.setID(id),
		o.setLocations(pickup, delivery),
		o.setWeight(weightGrams),
		o.setFees(clientFee, driverRemuneration),
	); err != nil {
		return nil, err
	}

	pickupSnapshot := pickup
	o.appendLedger(Pending, now, nil, &pickupSnapshot, nil)
	return o, nil
}

// RestoreOrder reconstructs an Order from persistence without appending
// ledger entries. It validates the cross-field consistency the database
// cannot express: the offer fields are set together and only while pending,
// and the status agrees with the presence of an assigned driver.
func RestoreOrder(
	id kernel.UUID,
	pickup kernel.Location,
	delivery kernel.Location,
	weightGrams int,
	clientFee float64,
	driverRemuneration float64,
	offeredDriverID *kernel.UUID,
	offerExpiresAt *time.Time,
	assignmentAttemptCount int,
	triedDriverIDs []kernel.UUID,
	assignedDriverID *kernel.UUID,
	status Status,
) (*Order, error) {
	o := &Order{
		isConstructed: true,
	}

	if err := errors.Join(
		o.setID(id),
		o.setLocations(pickup, delivery),
		o.setWeight(weightGrams),
		o.setFees(clientFee, driverRemuneration),
		status.Validate(),
		status.ValidateCanHaveDriver(assignedDriverID != nil),
	); err != nil {
		return nil, err
	}

	if (offeredDriverID != nil) != (offerExpiresAt != nil) {
		return nil, errs.NewValueIsInvalidErrorWithCause("offer fields are invalid",
			fmt.Errorf("offered driver and offer deadline must be set together"))
	}
	if offeredDriverID != nil && status != Pending {
		return nil, errs.NewValueIsInvalidErrorWithCause("offer fields are invalid",
			fmt.Errorf("an open offer is only allowed while the order is pending, got %s", status))
	}
	if assignmentAttemptCount < 0 {
		return nil, errs.NewValueIsInvalidErrorWithCause("assignment attempt count is invalid",
			fmt.Errorf("%d is negative", assignmentAttemptCount))
	}

	o.status = status
	o.offeredDriverID = offeredDriverID
	o.offerExpiresAt = offerExpiresAt
	o.assignmentAttemptCount = assignmentAttemptCount
	o.triedDriverIDs = triedDriverIDs
	o.assignedDriverID = assignedDriverID
	return o, nil
}

// Validate ensures the Order instance was properly constructed through
// NewOrder or RestoreOrder.
func (o *Order) Validate() error {
	if o == nil || !o.isConstructed {
		return ErrOrderIsNotConstructed
	}
	return nil
}

// IsEqual compares two orders by their unique identifiers.
func (o *Order) IsEqual(other *Order) bool {
	return other != nil && o.id.IsEqual(other.id)
}

// ID returns the order's unique identifier.
func (o *Order) ID() kernel.UUID {
	return o.id
}

// Pickup returns the pickup location.
func (o *Order) Pickup() kernel.Location {
	return o.pickup
}

// Delivery returns the delivery location.
func (o *Order) Delivery() kernel.Location {
	return o.delivery
}

// WeightGrams returns the total cargo weight in grams.
func (o *Order) WeightGrams() int {
	return o.weightGrams
}

// ClientFee returns the fee the client pays for the mission.
func (o *Order) ClientFee() float64 {
	return o.clientFee
}

// DriverRemuneration returns what the driver earns for the mission.
func (o *Order) DriverRemuneration() float64 {
	return o.driverRemuneration
}

// Status returns the current lifecycle status of the order.
func (o *Order) Status() Status {
	return o.status
}

// OfferedDriver returns the driver currently holding the open offer,
// or nil when no offer is open.
func (o *Order) OfferedDriver() *kernel.UUID {
	return o.offeredDriverID
}

// OfferExpiresAt returns the open offer's deadline, or nil when no offer is open.
func (o *Order) OfferExpiresAt() *time.Time {
	return o.offerExpiresAt
}

// AssignmentAttemptCount returns how many dispatch attempts were made for the order.
func (o *Order) AssignmentAttemptCount() int {
	return o.assignmentAttemptCount
}

// TriedDriverIDs returns every driver the order was ever offered to.
func (o *Order) TriedDriverIDs() []kernel.UUID {
	return o.triedDriverIDs
}

// AssignedDriver returns the driver who accepted the offer, or nil if the
// order is not assigned yet.
func (o *Order) AssignedDriver() *kernel.UUID {
	return o.assignedDriverID
}

// ProposeTo opens a time-boxed offer of the order to the given driver.
//
// Preconditions: the order is pending, no offer is open, and no driver is
// assigned. On violation the order is unchanged and a typed error identifies
// the losing race: ErrOrderIsNotPending, ErrOfferAlreadyOpen, or
// ErrOrderAlreadyAssigned.
//
// The driver is recorded in the tried set so re-dispatch excludes them.
// The order's status does not change; an open offer is a property of a
// pending order, not a status of its own.
func (o *Order) ProposeTo(driverID kernel.UUID, expiresAt time.Time) error {
	if err := driverID.Validate(); err != nil {
		return err
	}

	if o.status != Pending {
		return ErrOrderIsNotPending
	}
	if o.assignedDriverID != nil {
		return ErrOrderAlreadyAssigned
	}
	if o.offeredDriverID != nil {
		return ErrOfferAlreadyOpen
	}

	o.offeredDriverID = &driverID
	o.offerExpiresAt = &expiresAt
	if !o.WasTried(driverID) {
		o.triedDriverIDs = append(o.triedDriverIDs, driverID)
	}
	return nil
}

// Accept finalizes the assignment for the driver holding the open offer.
//
// Preconditions: the order is still pending, the open offer belongs to
// driverID, and now is before the offer deadline. Violations return
// ErrOrderIsNotPending, ErrOfferDoesNotMatch, or ErrOfferExpired without
// mutation, so a stale or foreign accept is a safe no-op.
//
// Effect: the offer fields are cleared, the driver becomes the assigned
// driver, and an accepted ledger entry is recorded.
func (o *Order) Accept(driverID kernel.UUID, now time.Time) error {
	if err := o.matchOffer(driverID, now); err != nil {
		return err
	}

	newStatus, err := o.status.Accept()
	if err != nil {
		return err
	}

	o.clearOfferFields()
	o.assignedDriverID = &driverID
	o.status = newStatus
	o.appendLedger(newStatus, now, &driverID, nil, nil)
	return nil
}

// Refuse withdraws the open offer at the holding driver's request.
//
// The matching check mirrors Accept: ErrOfferDoesNotMatch or ErrOfferExpired
// mean the driver's action is stale and callers treat it as a benign no-op.
// On success the offer fields are cleared; the order stays pending and no
// ledger entry is written, since the status did not change.
func (o *Order) Refuse(driverID kernel.UUID, now time.Time) error {
	if err := o.matchOffer(driverID, now); err != nil {
		return err
	}

	o.clearOfferFields()
	return nil
}

// Expire clears the open offer held by driverID after its deadline lapsed.
// Unlike Refuse it is time-triggered and idempotent: clearing an already
// cleared or superseded offer reports false and changes nothing.
func (o *Order) Expire(driverID kernel.UUID) bool {
	if o.offeredDriverID == nil || !o.offeredDriverID.IsEqual(driverID) {
		return false
	}

	o.clearOfferFields()
	return true
}

// ClearOffer unconditionally clears any open offer and returns the driver
// who held it, or nil when no offer was open. Used by terminal transitions
// and defensive cleanup paths.
func (o *Order) ClearOffer() *kernel.UUID {
	holder := o.offeredDriverID
	o.clearOfferFields()
	return holder
}

// RegisterAttempt increments the assignment attempt counter. The counter is
// monotonic; whether it is exhausted is the caller's policy, see AttemptsExhausted.
func (o *Order) RegisterAttempt() {
	o.assignmentAttemptCount++
}

// AttemptsExhausted reports whether the order has used up its dispatch
// attempts against the configured maximum.
func (o *Order) AttemptsExhausted(maxAttempts int) bool {
	return o.assignmentAttemptCount >= maxAttempts
}

// WasTried reports whether the order was ever offered to the given driver.
func (o *Order) WasTried(driverID kernel.UUID) bool {
	for _, id := range o.triedDriverIDs {
		if id.IsEqual(driverID) {
			return true
		}
	}
	return false
}

// MarkAtPickup records the assigned driver's arrival at the pickup point.
// Returns ErrDriverDoesNotMatch when the caller is not the assigned driver.
func (o *Order) MarkAtPickup(driverID kernel.UUID, location kernel.Location, now time.Time) error {
	if err := o.matchAssignedDriver(driverID); err != nil {
		return err
	}

	newStatus, err := o.status.MarkAtPickup()
	if err != nil {
		return err
	}

	o.status = newStatus
	o.appendLedger(newStatus, now, &driverID, &location, nil)
	return nil
}

// MarkEnRoute records the assigned driver leaving the pickup point with the cargo.
func (o *Order) MarkEnRoute(driverID kernel.UUID, location kernel.Location, now time.Time) error {
	if err := o.matchAssignedDriver(driverID); err != nil {
		return err
	}

	newStatus, err := o.status.MarkEnRoute()
	if err != nil {
		return err
	}

	o.status = newStatus
	o.appendLedger(newStatus, now, &driverID, &location, nil)
	return nil
}

// MarkAtDelivery records the assigned driver's arrival at the delivery point.
func (o *Order) MarkAtDelivery(driverID kernel.UUID, location kernel.Location, now time.Time) error {
	if err := o.matchAssignedDriver(driverID); err != nil {
		return err
	}

	newStatus, err := o.status.MarkAtDelivery()
	if err != nil {
		return err
	}

	o.status = newStatus
	o.appendLedger(newStatus, now, &driverID, &location, nil)
	return nil
}

// Complete marks the mission delivered. Terminal.
func (o *Order) Complete(driverID kernel.UUID, now time.Time) error {
	if err := o.matchAssignedDriver(driverID); err != nil {
		return err
	}

	newStatus, err := o.status.Complete()
	if err != nil {
		return err
	}

	o.status = newStatus
	o.appendLedger(newStatus, now, &driverID, nil, nil)
	return nil
}

// Fail marks the accepted mission as unfinishable. Terminal.
func (o *Order) Fail(driverID kernel.UUID, now time.Time, reason string) error {
	if err := o.matchAssignedDriver(driverID); err != nil {
		return err
	}

	newStatus, err := o.status.Fail()
	if err != nil {
		return err
	}

	var metadata map[string]string
	if reason != "" {
		metadata = map[string]string{"reason": reason}
	}

	o.status = newStatus
	o.appendLedger(newStatus, now, &driverID, nil, metadata)
	return nil
}

// Cancel withdraws a non-terminal order. Terminal.
//
// actorID identifies the administrator for manual cancellations and is nil
// for system cancellations (escalation). Any open offer is cleared to keep
// the offer-only-while-pending invariant; the caller is responsible for
// releasing the holding driver's offering status, see ClearOffer.
func (o *Order) Cancel(actorID *kernel.UUID, now time.Time, metadata map[string]string) error {
	newStatus, err := o.status.Cancel()
	if err != nil {
		return err
	}

	o.clearOfferFields()
	o.status = newStatus
	o.appendLedger(newStatus, now, actorID, nil, metadata)
	return nil
}

// PopLedgerEntries returns the ledger entries appended since the last call
// and resets the buffer. Repositories call this inside the transaction that
// persists the aggregate, inserting the entries alongside the status column
// update.
func (o *Order) PopLedgerEntries() []LedgerEntry {
	entries := o.ledger
	o.ledger = nil
	return entries
}

// matchOffer verifies that driverID currently holds a live open offer.
func (o *Order) matchOffer(driverID kernel.UUID, now time.Time) error {
	if err := driverID.Validate(); err != nil {
		return err
	}

	if o.status != Pending {
		return ErrOrderIsNotPending
	}
	if o.offeredDriverID == nil || !o.offeredDriverID.IsEqual(driverID) {
		return ErrOfferDoesNotMatch
	}
	if o.offerExpiresAt == nil || !now.Before(*o.offerExpiresAt) {
		return ErrOfferExpired
	}
	return nil
}

// matchAssignedDriver verifies that driverID is the assigned driver.
func (o *Order) matchAssignedDriver(driverID kernel.UUID) error {
	if err := driverID.Validate(); err != nil {
		return err
	}

	if o.assignedDriverID == nil || !o.assignedDriverID.IsEqual(driverID) {
		return ErrDriverDoesNotMatch
	}
	return nil
}

func (o *Order) clearOfferFields() {
	o.offeredDriverID = nil
	o.offerExpiresAt = nil
}

func (o *Order) appendLedger(
	status Status, at time.Time, actorID *kernel.UUID, location *kernel.Location, metadata map[string]string,
) {
	o.ledger = append(o.ledger, newLedgerEntry(o.id, status, at, actorID, location, metadata))
}

// setID validates and sets the order's unique identifier.
// This is a private method used only during construction.
func (o *Order) setID(id kernel.UUID) error {
	if err := id.Validate(); err != nil {
		return err
	}
	o.id = id
	return nil
}

// setLocations validates and sets the pickup and delivery locations.
// This is a private method used only during construction.
func (o *Order) setLocations(pickup kernel.Location, delivery kernel.Location) error {
	if err := errors.Join(pickup.Validate(), delivery.Validate()); err != nil {
		return err
	}
	o.pickup = pickup
	o.delivery = delivery
	return nil
}

// setWeight validates and sets the total cargo weight.
// Weight must be positive. This is a private method used only during construction.
func (o *Order) setWeight(weightGrams int) error {
	if weightGrams <= 0 {
		return errs.NewValueIsInvalidErrorWithCause("weight is invalid",
			fmt.Errorf("%d is not greater than 0", weightGrams))
	}
	o.weightGrams = weightGrams
	return nil
}

// setFees validates and sets the mission fees.
// This is a private method used only during construction.
func (o *Order) setFees(clientFee float64, driverRemuneration float64) error {
	if clientFee < 0 || driverRemuneration < 0 {
		return errs.NewValueIsInvalidErrorWithCause("fees are invalid",
			fmt.Errorf("fees must not be negative, got %v and %v", clientFee, driverRemuneration))
	}
	o.clientFee = clientFee
	o.driverRemuneration = driverRemuneration
	return nil
}
