package commands

import (
	"errors"

	"dispatch/internal/core/domain/model/driver"
	"dispatch/internal/core/domain/model/kernel"
	"dispatch/internal/pkg/errs"
	"dispatch/internal/pkg/guard"
)

var (
	ErrCreateDriverCommandIsNotConstructed = errors.New(
		"CreateDriverCommand must be created via NewCreateDriverCommand constructor",
	)
	ErrVehicleNameIsRequired     = errors.New("vehicle name is required")
	ErrVehicleCapacityIsInvalid  = errors.New("vehicle capacity must be greater than 0")
	ErrAtLeastOneVehicleRequired = errors.New("at least one vehicle is required")
)

// VehicleSpec describes a vehicle to register together with a new driver.
type VehicleSpec struct {
	Name          string
	CapacityGrams int
}

// CreateDriverCommand represents a request to register a new driver with
// their vehicles. Drivers start in "inactive" status until they toggle
// themselves active.
type CreateDriverCommand struct { //nolint:recvcheck //using for validation
	driverID  kernel.UUID
	name      string
	rating    float64
	pushToken string
	vehicles  []VehicleSpec

	guard guard.ConstructorGuard
}

// NewCreateDriverCommand creates a command to register a driver.
// Validates identifier, name, rating bounds, push token and vehicle specs.
func NewCreateDriverCommand(
	driverID kernel.UUID, name string, rating float64, pushToken string, vehicles []VehicleSpec,
) (CreateDriverCommand, error) {
	driverCommand := CreateDriverCommand{
		guard: guard.NewConstructorGuard(),
	}

	if err := errors.Join(
		driverCommand.setDriverID(driverID),
		driverCommand.setName(name),
		driverCommand.setRating(rating),
		driverCommand.setPushToken(pushToken),
		driverCommand.setVehicles(vehicles),
	); err != nil {
		return CreateDriverCommand{}, err
	}

	return driverCommand, nil
}

// Validate ensures the command was created through the constructor.
func (c CreateDriverCommand) Validate() error {
	return c.guard.Validate(ErrCreateDriverCommandIsNotConstructed)
}

// DriverID returns the unique identifier for the driver.
func (c CreateDriverCommand) DriverID() kernel.UUID {
	return c.driverID
}

// Name returns the driver's display name.
func (c CreateDriverCommand) Name() string {
	return c.name
}

// Rating returns the driver's initial rating.
func (c CreateDriverCommand) Rating() float64 {
	return c.rating
}

// PushToken returns the device token for offer notifications.
func (c CreateDriverCommand) PushToken() string {
	return c.pushToken
}

// Vehicles returns the vehicles to register with the driver.
func (c CreateDriverCommand) Vehicles() []VehicleSpec {
	return c.vehicles
}

func (c *CreateDriverCommand) setDriverID(driverID kernel.UUID) error {
	if err := driverID.Validate(); err != nil {
		return err
	}

	c.driverID = driverID
	return nil
}

func (c *CreateDriverCommand) setName(name string) error {
	if name == "" {
		return errs.NewValueIsRequiredError("name")
	}

	c.name = name
	return nil
}

func (c *CreateDriverCommand) setRating(rating float64) error {
	if rating < driver.MinRating || rating > driver.MaxRating {
		return errs.NewValueIsOutOfRangeError("rating", rating, driver.MinRating, driver.MaxRating)
	}

	c.rating = rating
	return nil
}

func (c *CreateDriverCommand) setPushToken(pushToken string) error {
	if pushToken == "" {
		return errs.NewValueIsRequiredError("push token")
	}

	c.pushToken = pushToken
	return nil
}

func (c *CreateDriverCommand) setVehicles(vehicles []VehicleSpec) error {
	if len(vehicles) == 0 {
		return ErrAtLeastOneVehicleRequired
	}

	for _, spec := range vehicles {
		if spec.Name == "" {
			return ErrVehicleNameIsRequired
		}

		if spec.CapacityGrams <= 0 {
			return ErrVehicleCapacityIsInvalid
		}
	}

	c.vehicles = vehicles
	return nil
}
