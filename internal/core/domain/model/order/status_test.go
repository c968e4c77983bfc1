package order_test

import (
	"testing"

	"dispatch/internal/core/domain/model/order"
	"dispatch/internal/pkg/errs"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestStatus_String(t *testing.T) {
	cases := map[order.Status]string{
		order.Unknown:    "unknown",
		order.Pending:    "pending",
		order.Accepted:   "accepted",
		order.AtPickup:   "at_pickup",
		order.EnRoute:    "en_route",
		order.AtDelivery: "at_delivery",
		order.Success:    "success",
		order.Failed:     "failed",
		order.Cancelled:  "cancelled",
	}

	for status, expected := range cases {
		assert.Equal(t, expected, status.String())
	}

	assert.Equal(t, "unknown", order.Status(42).String())
}

func TestStatusFromString(t *testing.T) {
	t.Run("should parse every ledger representation", func(t *testing.T) {
		for _, s := range []order.Status{
			order.Pending, order.Accepted, order.AtPickup, order.EnRoute,
			order.AtDelivery, order.Success, order.Failed, order.Cancelled,
		} {
			parsed, err := order.StatusFromString(s.String())
			require.NoError(t, err)
			assert.Equal(t, s, parsed)
		}
	})

	t.Run("should reject unknown strings", func(t *testing.T) {
		for _, s := range []string{"", "unknown", "created", "PENDING"} {
			parsed, err := order.StatusFromString(s)
			require.Error(t, err)
			assert.ErrorIs(t, err, errs.ErrValueIsInvalid)
			assert.Equal(t, order.Unknown, parsed)
		}
	})
}

func TestStatus_Validate(t *testing.T) {
	for _, s := range []order.Status{
		order.Pending, order.Accepted, order.AtPickup, order.EnRoute,
		order.AtDelivery, order.Success, order.Failed, order.Cancelled,
	} {
		assert.NoError(t, s.Validate())
	}

	assert.Error(t, order.Unknown.Validate())
	assert.Error(t, order.Status(42).Validate())
}

func TestStatus_Classification(t *testing.T) {
	t.Run("terminal statuses", func(t *testing.T) {
		assert.True(t, order.Success.IsTerminal())
		assert.True(t, order.Failed.IsTerminal())
		assert.True(t, order.Cancelled.IsTerminal())

		assert.False(t, order.Pending.IsTerminal())
		assert.False(t, order.Accepted.IsTerminal())
		assert.False(t, order.AtDelivery.IsTerminal())
	})

	t.Run("in-progress statuses", func(t *testing.T) {
		assert.True(t, order.Accepted.IsInProgress())
		assert.True(t, order.AtPickup.IsInProgress())
		assert.True(t, order.EnRoute.IsInProgress())
		assert.True(t, order.AtDelivery.IsInProgress())

		assert.False(t, order.Pending.IsInProgress())
		assert.False(t, order.Success.IsInProgress())
		assert.False(t, order.Cancelled.IsInProgress())
	})
}

func TestStatus_Transitions(t *testing.T) {
	t.Run("happy path walks the full lifecycle", func(t *testing.T) {
		s := order.Pending

		s, err := s.Accept()
		require.NoError(t, err)
		require.Equal(t, order.Accepted, s)

		s, err = s.MarkAtPickup()
		require.NoError(t, err)
		require.Equal(t, order.AtPickup, s)

		s, err = s.MarkEnRoute()
		require.NoError(t, err)
		require.Equal(t, order.EnRoute, s)

		s, err = s.MarkAtDelivery()
		require.NoError(t, err)
		require.Equal(t, order.AtDelivery, s)

		s, err = s.Complete()
		require.NoError(t, err)
		require.Equal(t, order.Success, s)
	})

	t.Run("accept is only allowed from pending", func(t *testing.T) {
		for _, s := range []order.Status{order.Accepted, order.EnRoute, order.Success, order.Cancelled} {
			_, err := s.Accept()
			require.Error(t, err)
		}
	})

	t.Run("complete and fail require an in-progress status", func(t *testing.T) {
		for _, s := range []order.Status{order.Pending, order.Success, order.Failed, order.Cancelled} {
			_, err := s.Complete()
			require.Error(t, err)
			_, err = s.Fail()
			require.Error(t, err)
		}

		got, err := order.Accepted.Fail()
		require.NoError(t, err)
		assert.Equal(t, order.Failed, got)
	})

	t.Run("cancel is allowed from any non-terminal status", func(t *testing.T) {
		for _, s := range []order.Status{order.Pending, order.Accepted, order.AtPickup, order.EnRoute, order.AtDelivery} {
			got, err := s.Cancel()
			require.NoError(t, err)
			assert.Equal(t, order.Cancelled, got)
		}

		for _, s := range []order.Status{order.Success, order.Failed, order.Cancelled} {
			_, err := s.Cancel()
			require.Error(t, err)
		}
	})

	t.Run("milestones cannot be skipped", func(t *testing.T) {
		_, err := order.Accepted.MarkEnRoute()
		require.Error(t, err)
		_, err = order.Accepted.MarkAtDelivery()
		require.Error(t, err)
		_, err = order.AtPickup.MarkAtDelivery()
		require.Error(t, err)
	})
}

func TestStatus_ValidateCanHaveDriver(t *testing.T) {
	t.Run("pending order must not have a driver", func(t *testing.T) {
		require.Error(t, order.Pending.ValidateCanHaveDriver(true))
		require.NoError(t, order.Pending.ValidateCanHaveDriver(false))
	})

	t.Run("in-progress and finished orders require a driver", func(t *testing.T) {
		for _, s := range []order.Status{order.Accepted, order.AtPickup, order.EnRoute, order.AtDelivery, order.Success, order.Failed} {
			require.NoError(t, s.ValidateCanHaveDriver(true))
			require.Error(t, s.ValidateCanHaveDriver(false))
		}
	})

	t.Run("cancelled order may have either", func(t *testing.T) {
		require.NoError(t, order.Cancelled.ValidateCanHaveDriver(true))
		require.NoError(t, order.Cancelled.ValidateCanHaveDriver(false))
	})
}
