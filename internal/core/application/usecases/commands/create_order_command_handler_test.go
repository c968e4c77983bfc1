package commands_test

import (
	"errors"
	"testing"

	"dispatch/internal/core/application/usecases/commands"
	"dispatch/internal/core/domain/model/kernel"
	"dispatch/internal/core/domain/model/lifecycle"
	"dispatch/internal/core/domain/model/order"
	"dispatch/internal/core/ports"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"
)

func TestCreateOrderCommandHandler_Handle_Success(t *testing.T) {
	ctx := t.Context()
	orderID := kernel.NewUUID()
	cmd, err := commands.NewCreateOrderCommand(orderID, "1 Main St", "9 Oak Ave", 2500)
	require.NoError(t, err)

	pickup := testLocation(t, 55.75, 37.62)
	delivery := testLocation(t, 55.76, 37.64)
	route := ports.RouteInfo{DistanceMeters: 3200, DurationSeconds: 540}
	fees := ports.Fees{ClientFee: 12.50, DriverRemuneration: 9.00}

	routing := new(MockRoutingClient)
	pricing := new(MockPricingClient)
	orderRepo := new(MockOrderRepository)
	outboxRepo := new(MockOutboxRepository)
	uow := new(MockUoW)

	mock.InOrder(
		routing.On("Geocode", ctx, "1 Main St").Return(pickup, nil).Once(),
		routing.On("Geocode", ctx, "9 Oak Ave").Return(delivery, nil).Once(),
		routing.On("Route", ctx, []kernel.Location{pickup, delivery}).Return(route, nil).Once(),
		pricing.On("CalculateFees", ctx, route, 2500).Return(fees, nil).Once(),
		uow.On("Begin", ctx).Return(nil).Once(),
		uow.On("OrderRepository").Return(orderRepo).Once(),
		orderRepo.On("Add", ctx, mock.AnythingOfType("*order.Order")).Return(nil).Once(),
		uow.On("OutboxRepository").Return(outboxRepo).Once(),
		outboxRepo.On("Add", ctx, mock.AnythingOfType("lifecycle.Event")).Return(nil).Once(),
		uow.On("Commit", ctx).Return(nil).Once(),
		uow.On("Rollback", ctx).Return(nil).Once(),
	)

	factory := new(MockOrderUoWFactory)
	factory.On("Create").Return(uow).Once()

	handler := commands.NewCreateOrderCommandHandler(factory, routing, pricing)
	err = handler.Handle(ctx, cmd)

	require.NoError(t, err)

	addedOrder := orderRepo.Calls[0].Arguments[1].(*order.Order)
	assert.Equal(t, orderID, addedOrder.ID())
	assert.Equal(t, order.Pending, addedOrder.Status())
	assert.Equal(t, pickup, addedOrder.Pickup())
	assert.Equal(t, delivery, addedOrder.Delivery())
	assert.InDelta(t, 12.50, addedOrder.ClientFee(), 0.001)
	assert.InDelta(t, 9.00, addedOrder.DriverRemuneration(), 0.001)

	stagedEvent := outboxRepo.Calls[0].Arguments[1].(lifecycle.Event)
	assert.Equal(t, lifecycle.KindNewOrderReady, stagedEvent.Kind)
	assert.Equal(t, orderID, stagedEvent.OrderID)

	routing.AssertExpectations(t)
	pricing.AssertExpectations(t)
	orderRepo.AssertExpectations(t)
	outboxRepo.AssertExpectations(t)
	uow.AssertExpectations(t)
	factory.AssertExpectations(t)
}

func TestCreateOrderCommandHandler_Handle_ValidationError(t *testing.T) {
	ctx := t.Context()
	cmd := commands.CreateOrderCommand{} // not constructed properly

	factory := new(MockOrderUoWFactory)
	handler := commands.NewCreateOrderCommandHandler(factory, new(MockRoutingClient), new(MockPricingClient))
	err := handler.Handle(ctx, cmd)

	require.Error(t, err)
	require.ErrorIs(t, err, commands.ErrCreateOrderCommandIsNotConstructed)
	factory.AssertNotCalled(t, "Create")
}

func TestCreateOrderCommandHandler_Handle_GeocodeError(t *testing.T) {
	ctx := t.Context()
	cmd, err := commands.NewCreateOrderCommand(kernel.NewUUID(), "nowhere", "9 Oak Ave", 2500)
	require.NoError(t, err)

	routing := new(MockRoutingClient)
	routing.On("Geocode", ctx, "nowhere").
		Return(kernel.Location{}, errors.New("geocoding failed")).
		Once()

	factory := new(MockOrderUoWFactory)
	handler := commands.NewCreateOrderCommandHandler(factory, routing, new(MockPricingClient))
	err = handler.Handle(ctx, cmd)

	require.Error(t, err)
	require.EqualError(t, err, "geocoding failed")
	factory.AssertNotCalled(t, "Create")
}

func TestCreateOrderCommandHandler_Handle_PricingError(t *testing.T) {
	ctx := t.Context()
	cmd, err := commands.NewCreateOrderCommand(kernel.NewUUID(), "1 Main St", "9 Oak Ave", 2500)
	require.NoError(t, err)

	pickup := testLocation(t, 55.75, 37.62)
	delivery := testLocation(t, 55.76, 37.64)
	route := ports.RouteInfo{DistanceMeters: 3200, DurationSeconds: 540}

	routing := new(MockRoutingClient)
	pricing := new(MockPricingClient)

	mock.InOrder(
		routing.On("Geocode", ctx, "1 Main St").Return(pickup, nil).Once(),
		routing.On("Geocode", ctx, "9 Oak Ave").Return(delivery, nil).Once(),
		routing.On("Route", ctx, []kernel.Location{pickup, delivery}).Return(route, nil).Once(),
		pricing.On("CalculateFees", ctx, route, 2500).
			Return(ports.Fees{}, errors.New("pricing unavailable")).
			Once(),
	)

	factory := new(MockOrderUoWFactory)
	handler := commands.NewCreateOrderCommandHandler(factory, routing, pricing)
	err = handler.Handle(ctx, cmd)

	require.Error(t, err)
	require.EqualError(t, err, "pricing unavailable")
	factory.AssertNotCalled(t, "Create")
}

func TestCreateOrderCommandHandler_Handle_OutboxAddError(t *testing.T) {
	ctx := t.Context()
	cmd, err := commands.NewCreateOrderCommand(kernel.NewUUID(), "1 Main St", "9 Oak Ave", 2500)
	require.NoError(t, err)

	pickup := testLocation(t, 55.75, 37.62)
	delivery := testLocation(t, 55.76, 37.64)
	route := ports.RouteInfo{DistanceMeters: 3200, DurationSeconds: 540}
	fees := ports.Fees{ClientFee: 12.50, DriverRemuneration: 9.00}

	routing := new(MockRoutingClient)
	pricing := new(MockPricingClient)
	orderRepo := new(MockOrderRepository)
	outboxRepo := new(MockOutboxRepository)
	uow := new(MockUoW)

	mock.InOrder(
		routing.On("Geocode", ctx, "1 Main St").Return(pickup, nil).Once(),
		routing.On("Geocode", ctx, "9 Oak Ave").Return(delivery, nil).Once(),
		routing.On("Route", ctx, []kernel.Location{pickup, delivery}).Return(route, nil).Once(),
		pricing.On("CalculateFees", ctx, route, 2500).Return(fees, nil).Once(),
		uow.On("Begin", ctx).Return(nil).Once(),
		uow.On("OrderRepository").Return(orderRepo).Once(),
		orderRepo.On("Add", ctx, mock.AnythingOfType("*order.Order")).Return(nil).Once(),
		uow.On("OutboxRepository").Return(outboxRepo).Once(),
		outboxRepo.On("Add", ctx, mock.AnythingOfType("lifecycle.Event")).
			Return(errors.New("outbox insert failed")).
			Once(),
		uow.On("Rollback", ctx).Return(nil).Once(),
	)

	factory := new(MockOrderUoWFactory)
	factory.On("Create").Return(uow).Once()

	handler := commands.NewCreateOrderCommandHandler(factory, routing, pricing)
	err = handler.Handle(ctx, cmd)

	require.Error(t, err)
	require.EqualError(t, err, "outbox insert failed")
	uow.AssertNotCalled(t, "Commit", ctx)
}
