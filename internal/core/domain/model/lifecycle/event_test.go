package lifecycle_test

import (
	"encoding/json"
	"testing"
	"time"

	"dispatch/internal/core/domain/model/kernel"
	"dispatch/internal/core/domain/model/lifecycle"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestEvent_Roundtrip(t *testing.T) {
	now := time.Now().UTC().Truncate(time.Millisecond)
	orderID := kernel.NewUUID()
	driverID := kernel.NewUUID()
	actorID := kernel.NewUUID()
	pickup, err := kernel.NewLocation(41.2995, 69.2401)
	require.NoError(t, err)

	t.Run("new_order_ready carries dispatch inputs", func(t *testing.T) {
		e := lifecycle.NewOrderReady(orderID, pickup, 2000, now)

		data, err := e.Marshal()
		require.NoError(t, err)

		decoded, err := lifecycle.Unmarshal(data)
		require.NoError(t, err)

		assert.Equal(t, lifecycle.KindNewOrderReady, decoded.Kind)
		assert.True(t, decoded.OrderID.IsEqual(orderID))
		assert.Nil(t, decoded.DriverID)
		assert.Equal(t, now, decoded.OccurredAt)

		payload, ok := decoded.Payload.(lifecycle.NewOrderReadyPayload)
		require.True(t, ok)
		assert.InDelta(t, 41.2995, payload.PickupLat, 1e-9)
		assert.InDelta(t, 69.2401, payload.PickupLng, 1e-9)
		assert.Equal(t, 2000, payload.WeightGrams)
	})

	t.Run("driver-bearing kinds keep the driver id", func(t *testing.T) {
		for _, e := range []lifecycle.Event{
			lifecycle.OfferAccepted(orderID, driverID, now),
			lifecycle.OfferRefused(orderID, driverID, now),
			lifecycle.OfferExpired(orderID, driverID, now),
			lifecycle.Completed(orderID, driverID, now),
		} {
			data, err := e.Marshal()
			require.NoError(t, err)

			decoded, err := lifecycle.Unmarshal(data)
			require.NoError(t, err)
			assert.Equal(t, e.Kind, decoded.Kind)
			require.NotNil(t, decoded.DriverID)
			assert.True(t, decoded.DriverID.IsEqual(driverID))
		}
	})

	t.Run("manually_assigned names the administrator", func(t *testing.T) {
		e := lifecycle.ManuallyAssigned(orderID, driverID, actorID, now)

		data, err := e.Marshal()
		require.NoError(t, err)
		decoded, err := lifecycle.Unmarshal(data)
		require.NoError(t, err)

		payload, ok := decoded.Payload.(lifecycle.ManuallyAssignedPayload)
		require.True(t, ok)
		assert.Equal(t, actorID.String(), payload.ActorID)
	})

	t.Run("cancelled_by_system names the reason", func(t *testing.T) {
		e := lifecycle.CancelledBySystem(orderID, "no_driver_found", now)

		data, err := e.Marshal()
		require.NoError(t, err)
		decoded, err := lifecycle.Unmarshal(data)
		require.NoError(t, err)

		payload, ok := decoded.Payload.(lifecycle.CancelledBySystemPayload)
		require.True(t, ok)
		assert.Equal(t, "no_driver_found", payload.Reason)
	})

	t.Run("failed names the reason", func(t *testing.T) {
		e := lifecycle.Failed(orderID, driverID, "recipient unreachable", now)

		data, err := e.Marshal()
		require.NoError(t, err)
		decoded, err := lifecycle.Unmarshal(data)
		require.NoError(t, err)

		payload, ok := decoded.Payload.(lifecycle.FailedPayload)
		require.True(t, ok)
		assert.Equal(t, "recipient unreachable", payload.Reason)
	})
}

func TestEvent_WireShape(t *testing.T) {
	now := time.Now().UTC()
	orderID := kernel.NewUUID()
	driverID := kernel.NewUUID()

	t.Run("envelope uses the agreed field names", func(t *testing.T) {
		data, err := lifecycle.OfferExpired(orderID, driverID, now).Marshal()
		require.NoError(t, err)

		var raw map[string]json.RawMessage
		require.NoError(t, json.Unmarshal(data, &raw))
		assert.Contains(t, raw, "type")
		assert.Contains(t, raw, "orderId")
		assert.Contains(t, raw, "driverId")
		assert.Contains(t, raw, "timestamp")
	})

	t.Run("kinds without driver omit the field", func(t *testing.T) {
		pickup, err := kernel.NewLocation(1, 2)
		require.NoError(t, err)

		data, err := lifecycle.NewOrderReady(orderID, pickup, 100, now).Marshal()
		require.NoError(t, err)

		var raw map[string]json.RawMessage
		require.NoError(t, json.Unmarshal(data, &raw))
		assert.NotContains(t, raw, "driverId")
	})
}

func TestUnmarshal_Malformed(t *testing.T) {
	t.Run("rejects unknown kind", func(t *testing.T) {
		_, err := lifecycle.Unmarshal([]byte(`{"type":"basket_confirmed","orderId":"x"}`))
		require.Error(t, err)
	})

	t.Run("rejects malformed order id", func(t *testing.T) {
		_, err := lifecycle.Unmarshal([]byte(`{"type":"completed","orderId":"not-a-uuid"}`))
		require.Error(t, err)
	})

	t.Run("rejects non-json input", func(t *testing.T) {
		_, err := lifecycle.Unmarshal([]byte(`{{`))
		require.Error(t, err)
	})
}

func TestEvent_Validate(t *testing.T) {
	now := time.Now()
	orderID := kernel.NewUUID()

	t.Run("driver-bearing kind without driver id is invalid", func(t *testing.T) {
		e := lifecycle.Event{Kind: lifecycle.KindOfferAccepted, OrderID: orderID, OccurredAt: now}
		require.Error(t, e.Validate())
		_, err := e.Marshal()
		require.Error(t, err)
	})

	t.Run("zero order id is invalid", func(t *testing.T) {
		e := lifecycle.Event{Kind: lifecycle.KindCompleted, OrderID: kernel.UUID{}, OccurredAt: now}
		require.Error(t, e.Validate())
	})
}
