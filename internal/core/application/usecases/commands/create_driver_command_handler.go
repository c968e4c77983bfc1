package commands

import (
	"context"
	"time"

	"dispatch/internal/core/domain/model/driver"
	"dispatch/internal/core/domain/model/kernel"
)

// CreateDriverCommandHandler registers a new driver together with their
// vehicles. The driver starts inactive; availability is driver-controlled.
type CreateDriverCommandHandler struct {
	uowFactory DriverUoWFactory
}

// NewCreateDriverCommandHandler creates a handler for driver registration.
func NewCreateDriverCommandHandler(uowFactory DriverUoWFactory) CreateDriverCommandHandler {
	return CreateDriverCommandHandler{
		uowFactory: uowFactory,
	}
}

// Handle processes the driver registration command.
func (h *CreateDriverCommandHandler) Handle(ctx context.Context, cmd CreateDriverCommand) error {
	if err := cmd.Validate(); err != nil {
		return err
	}

	now := time.Now().UTC()
	newDriver, err := driver.NewDriver(cmd.DriverID(), cmd.Name(), cmd.Rating(), cmd.PushToken(), now)
	if err != nil {
		return err
	}

	for _, spec := range cmd.Vehicles() {
		vehicle, vehicleErr := driver.NewVehicle(kernel.NewUUID(), spec.Name, spec.CapacityGrams)
		if vehicleErr != nil {
			return vehicleErr
		}

		if addErr := newDriver.AddVehicle(vehicle); addErr != nil {
			return addErr
		}
	}

	uow := h.uowFactory.Create()
	if err = uow.Begin(ctx); err != nil {
		return err
	}

	defer func() {
		_ = uow.Rollback(ctx)
	}()

	if err = uow.DriverRepository().Add(ctx, newDriver); err != nil {
		return err
	}

	if err = uow.Commit(ctx); err != nil {
		return err
	}

	return nil
}
