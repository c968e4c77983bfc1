package commands_test

import (
	"testing"

	"dispatch/internal/core/application/usecases/commands"
	"dispatch/internal/core/domain/model/driver"
	"dispatch/internal/core/domain/model/kernel"
	"dispatch/internal/core/domain/model/lifecycle"
	"dispatch/internal/core/domain/model/order"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"
)

func TestNewFailOrderCommand(t *testing.T) {
	t.Run("should require a reason", func(t *testing.T) {
		_, err := commands.NewFailOrderCommand(kernel.NewUUID(), kernel.NewUUID(), "")

		require.Error(t, err)
		assert.ErrorIs(t, err, commands.ErrFailureReasonIsRequired)
	})
}

func TestFailOrderCommandHandler_Handle_Success(t *testing.T) {
	ctx := t.Context()
	workingDriver := inWorkTestDriver(t)
	testOrder := acceptedTestOrder(t, workingDriver.ID())

	cmd, err := commands.NewFailOrderCommand(testOrder.ID(), workingDriver.ID(), "recipient unreachable")
	require.NoError(t, err)

	orderRepo := new(MockOrderRepository)
	driverRepo := new(MockDriverRepository)
	outboxRepo := new(MockOutboxRepository)
	availability := new(MockAvailabilityChecker)
	uow := new(MockUoW)

	mock.InOrder(
		uow.On("Begin", ctx).Return(nil).Once(),
		uow.On("OrderRepository").Return(orderRepo).Once(),
		orderRepo.On("Get", ctx, testOrder.ID()).Return(testOrder, nil).Once(),
		uow.On("DriverRepository").Return(driverRepo).Once(),
		driverRepo.On("Get", ctx, workingDriver.ID()).Return(workingDriver, nil).Once(),
		availability.On("IsAvailableNow", ctx, workingDriver.ID(), mock.AnythingOfType("time.Time")).
			Return(true, nil).
			Once(),
		orderRepo.On("Update", ctx, mock.AnythingOfType("*order.Order")).Return(nil).Once(),
		driverRepo.On("Update", ctx, mock.AnythingOfType("*driver.Driver")).Return(nil).Once(),
		uow.On("OutboxRepository").Return(outboxRepo).Once(),
		outboxRepo.On("Add", ctx, mock.AnythingOfType("lifecycle.Event")).Return(nil).Once(),
		uow.On("Commit", ctx).Return(nil).Once(),
		uow.On("Rollback", ctx).Return(nil).Once(),
	)

	factory := new(MockUoWFactory)
	factory.On("Create").Return(uow).Once()

	handler := commands.NewFailOrderCommandHandler(factory, availability)
	err = handler.Handle(ctx, cmd)

	require.NoError(t, err)
	assert.Equal(t, order.Failed, testOrder.Status())
	assert.Equal(t, driver.Active, workingDriver.Status())

	stagedEvent := outboxRepo.Calls[0].Arguments[1].(lifecycle.Event)
	assert.Equal(t, lifecycle.KindFailed, stagedEvent.Kind)
	payload := stagedEvent.Payload.(lifecycle.FailedPayload)
	assert.Equal(t, "recipient unreachable", payload.Reason)

	uow.AssertExpectations(t)
}

func TestFailOrderCommandHandler_Handle_WrongDriver(t *testing.T) {
	ctx := t.Context()
	testOrder := acceptedTestOrder(t, kernel.NewUUID())

	cmd, err := commands.NewFailOrderCommand(testOrder.ID(), kernel.NewUUID(), "recipient unreachable")
	require.NoError(t, err)

	orderRepo := new(MockOrderRepository)
	uow := new(MockUoW)

	mock.InOrder(
		uow.On("Begin", ctx).Return(nil).Once(),
		uow.On("OrderRepository").Return(orderRepo).Once(),
		orderRepo.On("Get", ctx, testOrder.ID()).Return(testOrder, nil).Once(),
		uow.On("Rollback", ctx).Return(nil).Once(),
	)

	factory := new(MockUoWFactory)
	factory.On("Create").Return(uow).Once()

	handler := commands.NewFailOrderCommandHandler(factory, new(MockAvailabilityChecker))
	err = handler.Handle(ctx, cmd)

	require.Error(t, err)
	require.ErrorIs(t, err, order.ErrDriverDoesNotMatch)
	assert.Equal(t, order.Accepted, testOrder.Status())
}
