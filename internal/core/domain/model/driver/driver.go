package driver

import (
	"errors"
	"fmt"
	"time"

	"dispatch/internal/core/domain/model/kernel"
	"dispatch/internal/pkg/errs"
)

const (
	// MinRating is the lowest possible driver rating.
	MinRating float64 = 0
	// MaxRating is the highest possible driver rating.
	MaxRating float64 = 5
)

// Domain errors for driver operations.
var (
	// ErrDriverIsNotConstructed is returned when using an improperly initialized Driver.
	ErrDriverIsNotConstructed = errors.New("Driver must be created via NewDriver constructor")
	// ErrDriverIsInWork is returned when a driver tries to toggle their
	// availability while holding at least one accepted mission.
	ErrDriverIsInWork = errors.New("driver holds accepted missions and cannot change availability")
	// ErrDriverIsNotActive is returned when an offer is proposed to a driver
	// whose latest status is not active.
	ErrDriverIsNotActive = errors.New("driver is not active")
	// ErrStatusIsNotSelectable is returned when a driver tries to toggle into
	// a protocol-owned status (offering, in_work).
	ErrStatusIsNotSelectable = errors.New("status cannot be selected by the driver")
	// ErrNoAssignmentsInProgress is returned when finishing a mission for a
	// driver that holds none.
	ErrNoAssignmentsInProgress = errors.New("driver has no assignments in progress")
	// ErrVehicleAlreadyAdded is returned when registering a vehicle id twice.
	ErrVehicleAlreadyAdded = errors.New("vehicle with this id is already registered")
)

// Driver represents a courier in the system. It is an aggregate root that
// manages the driver's identity, reported location, registered vehicles, and
// the availability state machine coupled to the offer protocol.
//
// Driver maintains these invariants:
//   - assignmentsInProgress equals the number of concurrently accepted,
//     not yet finished missions, and is positive iff the status is InWork
//   - driver-initiated availability toggles are rejected while InWork
//   - every availability transition appends an immutable ledger entry
type Driver struct {
	// id is the unique identifier for the driver
	id kernel.UUID

	// name is the driver's display name
	name string

	// rating is the driver's average rating, used to rank candidates
	rating float64

	// pushToken is the notification endpoint offers are delivered to
	pushToken string

	// location is the last driver-reported position (nil until first report)
	location *kernel.Location

	// locationReportedAt is when the location was last reported
	locationReportedAt *time.Time

	// vehicles are the driver's registered vehicles
	vehicles []*Vehicle

	// status is the materialized current availability status
	status Status

	// assignmentsInProgress counts concurrently accepted missions
	assignmentsInProgress int

	// ledger holds entries appended since the last persistence flush
	ledger []LedgerEntry

	// isConstructed ensures the driver was created via NewDriver or RestoreDriver
	isConstructed bool
}

// NewDriver creates a Driver in the Inactive status with no vehicles and no
// reported location, appending the initial ledger entry. Drivers go online
// with ChangeStatus once they are ready to receive offers.
func NewDriver(id kernel.UUID, name string, rating float64, pushToken string, now time.Time) (*Driver, error) {
	d := &Driver{
		status:        Inactive,
		isConstructed: true,
	}

	if err := errors.Join(
		d.setID(id),
		d.setName(name),
		d.setRating(rating),
		d.setPushToken(pushToken),
	); err != nil {
		return nil, err
	}

	d.appendLedger(Inactive, now, nil)
	return d, nil
}

// RestoreDriver reconstructs a Driver from persistence without appending
// ledger entries. It validates the coupling between the status and the
// in-progress counter: the counter is positive iff the status is InWork.
func RestoreDriver(
	id kernel.UUID,
	name string,
	rating float64,
	pushToken string,
	location *kernel.Location,
	locationReportedAt *time.Time,
	vehicles []*Vehicle,
	status Status,
	assignmentsInProgress int,
) (*Driver, error) {
	d := &Driver{
		isConstructed: true,
	}

	if err := errors.Join(
		d.setID(id),
		d.setName(name),
		d.setRating(rating),
		d.setPushToken(pushToken),
		status.Validate(),
	); err != nil {
		return nil, err
	}

	if assignmentsInProgress < 0 {
		return nil, errs.NewValueIsInvalidErrorWithCause("assignments in progress is invalid",
			fmt.Errorf("%d is negative", assignmentsInProgress))
	}
	if (assignmentsInProgress > 0) != (status == InWork) {
		return nil, errs.NewValueIsInvalidErrorWithCause("assignments in progress is invalid",
			fmt.Errorf("count %d does not agree with status %s", assignmentsInProgress, status))
	}
	if location != nil {
		if err := location.Validate(); err != nil {
			return nil, err
		}
	}

	for _, v := range vehicles {
		if err := v.Validate(); err != nil {
			return nil, err
		}
	}

	d.location = location
	d.locationReportedAt = locationReportedAt
	d.vehicles = vehicles
	d.status = status
	d.assignmentsInProgress = assignmentsInProgress
	return d, nil
}

// Validate ensures the Driver instance was properly constructed.
func (d *Driver) Validate() error {
	if d == nil || !d.isConstructed {
		return ErrDriverIsNotConstructed
	}
	return nil
}

// IsEqual compares two drivers by their unique identifiers.
func (d *Driver) IsEqual(other *Driver) bool {
	return other != nil && d.id.IsEqual(other.id)
}

// ID returns the driver's unique identifier.
func (d *Driver) ID() kernel.UUID {
	return d.id
}

// Name returns the driver's display name.
func (d *Driver) Name() string {
	return d.name
}

// Rating returns the driver's average rating.
func (d *Driver) Rating() float64 {
	return d.rating
}

// PushToken returns the driver's notification endpoint.
func (d *Driver) PushToken() string {
	return d.pushToken
}

// Location returns the last reported position, or nil if never reported.
func (d *Driver) Location() *kernel.Location {
	return d.location
}

// LocationReportedAt returns when the location was last reported, or nil.
func (d *Driver) LocationReportedAt() *time.Time {
	return d.locationReportedAt
}

// Status returns the driver's current availability status.
func (d *Driver) Status() Status {
	return d.status
}

// AssignmentsInProgress returns how many accepted missions the driver holds.
func (d *Driver) AssignmentsInProgress() int {
	return d.assignmentsInProgress
}

// Vehicles returns the driver's registered vehicles.
func (d *Driver) Vehicles() []*Vehicle {
	return d.vehicles
}

// AddVehicle registers a vehicle with the driver.
func (d *Driver) AddVehicle(v *Vehicle) error {
	if err := v.Validate(); err != nil {
		return err
	}

	for _, existing := range d.vehicles {
		if existing.ID().IsEqual(v.ID()) {
			return ErrVehicleAlreadyAdded
		}
	}

	d.vehicles = append(d.vehicles, v)
	return nil
}

// ReportLocation records a driver-reported position and its freshness timestamp.
func (d *Driver) ReportLocation(location kernel.Location, now time.Time) error {
	if err := location.Validate(); err != nil {
		return err
	}

	d.location = &location
	d.locationReportedAt = &now
	return nil
}

// HasFreshLocation reports whether the driver reported a position within the
// freshness window ending at now. Drivers without a fresh location are not
// eligible candidates.
func (d *Driver) HasFreshLocation(now time.Time, window time.Duration) bool {
	if d.location == nil || d.locationReportedAt == nil {
		return false
	}
	return now.Sub(*d.locationReportedAt) <= window
}

// MaxVehicleCapacity returns the largest payload capacity among the driver's
// active vehicles, or 0 when none is active.
func (d *Driver) MaxVehicleCapacity() int {
	capacity := 0
	for _, v := range d.vehicles {
		if v.IsActive() && v.CapacityGrams() > capacity {
			capacity = v.CapacityGrams()
		}
	}
	return capacity
}

// HasCapacityFor reports whether at least one active vehicle can carry the
// given cargo weight.
func (d *Driver) HasCapacityFor(weightGrams int) bool {
	for _, v := range d.vehicles {
		if v.CanCarry(weightGrams) {
			return true
		}
	}
	return false
}

// ChangeStatus toggles the driver among the self-selectable statuses
// (Active, OnBreak, Inactive).
//
// Returns ErrStatusIsNotSelectable for protocol-owned targets and
// ErrDriverIsInWork while the driver holds accepted missions. A driver who
// toggles while Offering keeps the open offer; its resolution is still
// governed by the offer matching checks on the order.
func (d *Driver) ChangeStatus(target Status, now time.Time) error {
	if !target.IsDriverSelectable() {
		return ErrStatusIsNotSelectable
	}
	if d.status == InWork {
		return ErrDriverIsInWork
	}
	if d.status == target {
		return nil
	}

	d.status = target
	d.appendLedger(target, now, nil)
	return nil
}

// MarkOffering records that the driver holds a pending offer awaiting their
// response. Only active drivers receive offers, so any other current status
// is rejected with ErrDriverIsNotActive.
func (d *Driver) MarkOffering(now time.Time) error {
	if d.status != Active {
		return ErrDriverIsNotActive
	}

	d.status = Offering
	d.appendLedger(Offering, now, nil)
	return nil
}

// ClearOffering returns an Offering driver to Active after their offer
// resolved without acceptance (refusal, expiry, or defensive cleanup).
// Idempotent: reports false and changes nothing when the driver is not
// Offering.
func (d *Driver) ClearOffering(now time.Time) bool {
	if d.status != Offering {
		return false
	}

	d.status = Active
	d.appendLedger(Active, now, nil)
	return true
}

// AcceptAssignment moves the driver into (or keeps them in) InWork and
// increments the in-progress counter. The offer matching checks on the order
// are the gate for acceptance; the driver side accepts from any status so a
// driver who toggled away while Offering still receives the mission they
// accepted.
func (d *Driver) AcceptAssignment(now time.Time) {
	d.assignmentsInProgress++
	d.status = InWork
	d.appendLedger(InWork, now, nil)
}

// FinishAssignment decrements the in-progress counter after a mission
// reached a terminal status. When the counter reaches zero the driver falls
// back to Active or Inactive depending on availableNow, the verdict of the
// recurring-availability schedule.
func (d *Driver) FinishAssignment(availableNow bool, now time.Time) error {
	if d.assignmentsInProgress == 0 {
		return ErrNoAssignmentsInProgress
	}

	d.assignmentsInProgress--
	if d.assignmentsInProgress > 0 {
		d.appendLedger(InWork, now, nil)
		return nil
	}

	next := Inactive
	if availableNow {
		next = Active
	}
	d.status = next
	d.appendLedger(next, now, nil)
	return nil
}

// PopLedgerEntries returns the ledger entries appended since the last call
// and resets the buffer, mirroring the order aggregate.
func (d *Driver) PopLedgerEntries() []LedgerEntry {
	entries := d.ledger
	d.ledger = nil
	return entries
}

func (d *Driver) appendLedger(status Status, at time.Time, metadata map[string]string) {
	d.ledger = append(d.ledger, LedgerEntry{
		DriverID:              d.id,
		Status:                status,
		ChangedAt:             at,
		AssignmentsInProgress: d.assignmentsInProgress,
		Metadata:              metadata,
	})
}

func (d *Driver) setID(id kernel.UUID) error {
	if err := id.Validate(); err != nil {
		return err
	}
	d.id = id
	return nil
}

func (d *Driver) setName(name string) error {
	if name == "" {
		return errs.NewValueIsRequiredError("name")
	}
	d.name = name
	return nil
}

func (d *Driver) setRating(rating float64) error {
	if rating < MinRating || rating > MaxRating {
		return errs.NewValueIsOutOfRangeError("rating", rating, MinRating, MaxRating)
	}
	d.rating = rating
	return nil
}

func (d *Driver) setPushToken(pushToken string) error {
	if pushToken == "" {
		return errs.NewValueIsRequiredError("push token")
	}
	d.pushToken = pushToken
	return nil
}
