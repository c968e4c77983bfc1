package commands_test

import (
	"testing"
	"time"

	"dispatch/internal/core/domain/model/driver"
	"dispatch/internal/core/domain/model/kernel"
	"dispatch/internal/core/domain/model/order"

	"github.com/stretchr/testify/require"
)

func testLocation(t *testing.T, lat, lng float64) kernel.Location {
	t.Helper()

	location, err := kernel.NewLocation(lat, lng)
	require.NoError(t, err)
	return location
}

func pendingTestOrder(t *testing.T) *order.Order {
	t.Helper()

	pickup := testLocation(t, 55.75, 37.62)
	delivery := testLocation(t, 55.76, 37.64)
	testOrder, err := order.NewOrder(
		kernel.NewUUID(), pickup, delivery, 2500, 12.50, 9.00, time.Now().UTC(),
	)
	require.NoError(t, err)

	// Creation already happened from the handler's point of view.
	testOrder.PopLedgerEntries()
	return testOrder
}

func offeredTestOrder(t *testing.T, driverID kernel.UUID, expiresAt time.Time) *order.Order {
	t.Helper()

	testOrder := pendingTestOrder(t)
	require.NoError(t, testOrder.ProposeTo(driverID, expiresAt))
	return testOrder
}

func activeTestDriver(t *testing.T, location kernel.Location) *driver.Driver {
	t.Helper()

	now := time.Now().UTC()
	testDriver, err := driver.NewDriver(kernel.NewUUID(), "Jane Smith", 4.5, "push-token", now)
	require.NoError(t, err)

	vehicle, err := driver.NewVehicle(kernel.NewUUID(), "van", 50_000)
	require.NoError(t, err)
	require.NoError(t, testDriver.AddVehicle(vehicle))

	require.NoError(t, testDriver.ChangeStatus(driver.Active, now))
	require.NoError(t, testDriver.ReportLocation(location, now))

	testDriver.PopLedgerEntries()
	return testDriver
}

func offeringTestDriver(t *testing.T, location kernel.Location) *driver.Driver {
	t.Helper()

	testDriver := activeTestDriver(t, location)
	require.NoError(t, testDriver.MarkOffering(time.Now().UTC()))
	testDriver.PopLedgerEntries()
	return testDriver
}
