package commands_test

import (
	"testing"
	"time"

	"dispatch/internal/core/application/usecases/commands"
	"dispatch/internal/core/domain/model/driver"
	"dispatch/internal/core/domain/model/kernel"
	"dispatch/internal/core/domain/model/lifecycle"
	"dispatch/internal/core/domain/model/order"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"
)

func TestAcceptOfferCommandHandler_Handle_Success(t *testing.T) {
	ctx := t.Context()
	offeredDriver := offeringTestDriver(t, testLocation(t, 55.751, 37.621))
	testOrder := offeredTestOrder(t, offeredDriver.ID(), time.Now().UTC().Add(time.Minute))

	cmd, err := commands.NewAcceptOfferCommand(testOrder.ID(), offeredDriver.ID())
	require.NoError(t, err)

	orderRepo := new(MockOrderRepository)
	driverRepo := new(MockDriverRepository)
	outboxRepo := new(MockOutboxRepository)
	uow := new(MockUoW)

	mock.InOrder(
		uow.On("Begin", ctx).Return(nil).Once(),
		uow.On("OrderRepository").Return(orderRepo).Once(),
		orderRepo.On("Get", ctx, testOrder.ID()).Return(testOrder, nil).Once(),
		uow.On("DriverRepository").Return(driverRepo).Once(),
		driverRepo.On("Get", ctx, offeredDriver.ID()).Return(offeredDriver, nil).Once(),
		orderRepo.On("Update", ctx, mock.AnythingOfType("*order.Order")).Return(nil).Once(),
		driverRepo.On("Update", ctx, mock.AnythingOfType("*driver.Driver")).Return(nil).Once(),
		uow.On("OutboxRepository").Return(outboxRepo).Once(),
		outboxRepo.On("Add", ctx, mock.AnythingOfType("lifecycle.Event")).Return(nil).Once(),
		uow.On("Commit", ctx).Return(nil).Once(),
		uow.On("Rollback", ctx).Return(nil).Once(),
	)

	factory := new(MockUoWFactory)
	factory.On("Create").Return(uow).Once()

	handler := commands.NewAcceptOfferCommandHandler(factory)
	err = handler.Handle(ctx, cmd)

	require.NoError(t, err)
	assert.Equal(t, order.Accepted, testOrder.Status())
	assert.Nil(t, testOrder.OfferedDriver())
	require.NotNil(t, testOrder.AssignedDriver())
	assert.True(t, testOrder.AssignedDriver().IsEqual(offeredDriver.ID()))
	assert.Equal(t, driver.InWork, offeredDriver.Status())
	assert.Equal(t, 1, offeredDriver.AssignmentsInProgress())

	stagedEvent := outboxRepo.Calls[0].Arguments[1].(lifecycle.Event)
	assert.Equal(t, lifecycle.KindOfferAccepted, stagedEvent.Kind)

	orderRepo.AssertExpectations(t)
	driverRepo.AssertExpectations(t)
	uow.AssertExpectations(t)
}

func TestAcceptOfferCommandHandler_Handle_ExpiredOffer(t *testing.T) {
	ctx := t.Context()
	driverID := kernel.NewUUID()
	testOrder := offeredTestOrder(t, driverID, time.Now().UTC().Add(-time.Second))

	cmd, err := commands.NewAcceptOfferCommand(testOrder.ID(), driverID)
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

	handler := commands.NewAcceptOfferCommandHandler(factory)
	err = handler.Handle(ctx, cmd)

	require.Error(t, err)
	require.ErrorIs(t, err, order.ErrOfferExpired)
	assert.Equal(t, order.Pending, testOrder.Status())
	uow.AssertNotCalled(t, "Commit", ctx)
}

func TestAcceptOfferCommandHandler_Handle_OfferHeldByAnotherDriver(t *testing.T) {
	ctx := t.Context()
	testOrder := offeredTestOrder(t, kernel.NewUUID(), time.Now().UTC().Add(time.Minute))
	intruderID := kernel.NewUUID()

	cmd, err := commands.NewAcceptOfferCommand(testOrder.ID(), intruderID)
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

	handler := commands.NewAcceptOfferCommandHandler(factory)
	err = handler.Handle(ctx, cmd)

	require.Error(t, err)
	require.ErrorIs(t, err, order.ErrOfferDoesNotMatch)
	assert.NotNil(t, testOrder.OfferedDriver())
	uow.AssertNotCalled(t, "Commit", ctx)
}
