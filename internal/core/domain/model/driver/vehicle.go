package driver

import (
	"errors"
	"fmt"

	"dispatch/internal/core/domain/model/kernel"
	"dispatch/internal/pkg/errs"
)

// ErrVehicleIsNotConstructed is returned when using an improperly initialized Vehicle.
var ErrVehicleIsNotConstructed = errors.New("Vehicle must be created via NewVehicle constructor")

// Vehicle is an entity owned by the Driver aggregate. A driver may register
// several vehicles; only active vehicles count toward capacity checks during
// candidate search.
type Vehicle struct {
	// id is the unique identifier for the vehicle
	id kernel.UUID

	// name is a human-readable label, e.g. "Ford Transit"
	name string

	// capacityGrams is the maximum payload the vehicle can carry
	capacityGrams int

	// isActive marks whether the vehicle is currently usable for missions
	isActive bool

	// isConstructed ensures the vehicle was created via NewVehicle
	isConstructed bool
}

// NewVehicle creates an active Vehicle with the given payload capacity.
// Capacity must be positive and the name must not be empty.
func NewVehicle(id kernel.UUID, name string, capacityGrams int) (*Vehicle, error) {
	v := &Vehicle{
		isActive:      true,
		isConstructed: true,
	}

	if err := errors.Join(
		v.setID(id),
		v.setName(name),
		v.setCapacity(capacityGrams),
	); err != nil {
		return nil, err
	}

	return v, nil
}

// RestoreVehicle reconstructs a Vehicle from persistence, including its
// active flag.
func RestoreVehicle(id kernel.UUID, name string, capacityGrams int, isActive bool) (*Vehicle, error) {
	v, err := NewVehicle(id, name, capacityGrams)
	if err != nil {
		return nil, err
	}

	v.isActive = isActive
	return v, nil
}

// Validate ensures the Vehicle instance was properly constructed.
func (v *Vehicle) Validate() error {
	if v == nil || !v.isConstructed {
		return ErrVehicleIsNotConstructed
	}
	return nil
}

// ID returns the vehicle's unique identifier.
func (v *Vehicle) ID() kernel.UUID {
	return v.id
}

// Name returns the vehicle's label.
func (v *Vehicle) Name() string {
	return v.name
}

// CapacityGrams returns the maximum payload the vehicle can carry.
func (v *Vehicle) CapacityGrams() int {
	return v.capacityGrams
}

// IsActive reports whether the vehicle is currently usable for missions.
func (v *Vehicle) IsActive() bool {
	return v.isActive
}

// Activate marks the vehicle usable for missions.
func (v *Vehicle) Activate() {
	v.isActive = true
}

// Deactivate withdraws the vehicle from capacity checks.
func (v *Vehicle) Deactivate() {
	v.isActive = false
}

// CanCarry reports whether an active vehicle can take the given cargo weight.
// Inactive vehicles can carry nothing.
func (v *Vehicle) CanCarry(weightGrams int) bool {
	return v.isActive && v.capacityGrams >= weightGrams
}

func (v *Vehicle) setID(id kernel.UUID) error {
	if err := id.Validate(); err != nil {
		return err
	}
	v.id = id
	return nil
}

func (v *Vehicle) setName(name string) error {
	if name == "" {
		return errs.NewValueIsRequiredError("vehicle name")
	}
	v.name = name
	return nil
}

func (v *Vehicle) setCapacity(capacityGrams int) error {
	if capacityGrams <= 0 {
		return errs.NewValueIsInvalidErrorWithCause("capacity is invalid",
			fmt.Errorf("%d is not greater than 0", capacityGrams))
	}
	v.capacityGrams = capacityGrams
	return nil
}
