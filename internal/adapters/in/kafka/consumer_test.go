package kafka_test

import (
	"context"
	"errors"
	"testing"
	"time"

	inkafka "dispatch/internal/adapters/in/kafka"
	"dispatch/internal/core/application/usecases/commands"
	"dispatch/internal/core/domain/model/kernel"
	"dispatch/internal/core/domain/model/lifecycle"
	"dispatch/internal/core/domain/services"

	"github.com/segmentio/kafka-go"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
)

// errDrained signals the stub reader ran out of scripted messages.
var errDrained = errors.New("drained")

// stubReader replays a scripted message sequence and records commits.
type stubReader struct {
	msgs      []kafka.Message
	next      int
	committed []kafka.Message
}

func (r *stubReader) FetchMessage(_ context.Context) (kafka.Message, error) {
	if r.next >= len(r.msgs) {
		return kafka.Message{}, errDrained
	}

	msg := r.msgs[r.next]
	r.next++
	return msg, nil
}

func (r *stubReader) CommitMessages(_ context.Context, msgs ...kafka.Message) error {
	r.committed = append(r.committed, msgs...)
	return nil
}

func (r *stubReader) Close() error {
	return nil
}

type MockDispatchHandler struct {
	mock.Mock
}

func (m *MockDispatchHandler) Handle(ctx context.Context, cmd commands.DispatchOrderCommand) error {
	args := m.Called(ctx, cmd)
	return args.Error(0)
}

type MockExpireHandler struct {
	mock.Mock
}

func (m *MockExpireHandler) Handle(ctx context.Context, cmd commands.ExpireOfferCommand) error {
	args := m.Called(ctx, cmd)
	return args.Error(0)
}

type MockEscalateHandler struct {
	mock.Mock
}

func (m *MockEscalateHandler) Handle(ctx context.Context, cmd commands.EscalateOrderCommand) error {
	args := m.Called(ctx, cmd)
	return args.Error(0)
}

type consumerFixture struct {
	reader   *stubReader
	dispatch *MockDispatchHandler
	expire   *MockExpireHandler
	escalate *MockEscalateHandler
	consumer *inkafka.LifecycleConsumer
}

func newConsumerFixture(t *testing.T, msgs ...kafka.Message) consumerFixture {
	t.Helper()

	f := consumerFixture{
		reader:   &stubReader{msgs: msgs},
		dispatch: new(MockDispatchHandler),
		expire:   new(MockExpireHandler),
		escalate: new(MockEscalateHandler),
	}

	consumer, err := inkafka.NewLifecycleConsumer(f.reader, f.dispatch, f.expire, f.escalate, zap.NewNop())
	require.NoError(t, err)
	f.consumer = consumer
	return f
}

func eventMessage(t *testing.T, event lifecycle.Event) kafka.Message {
	t.Helper()

	raw, err := event.Marshal()
	require.NoError(t, err)
	return kafka.Message{Key: []byte(event.OrderID.String()), Value: raw}
}

func TestNewLifecycleConsumer_ValidationError(t *testing.T) {
	_, err := inkafka.NewLifecycleConsumer(nil, new(MockDispatchHandler), new(MockExpireHandler),
		new(MockEscalateHandler), zap.NewNop())
	assert.Error(t, err)

	_, err = inkafka.NewLifecycleConsumer(&stubReader{}, new(MockDispatchHandler), new(MockExpireHandler),
		new(MockEscalateHandler), nil)
	assert.Error(t, err)
}

func TestLifecycleConsumer_NewOrderReadyTriggersDispatch(t *testing.T) {
	ctx := t.Context()
	orderID := kernel.NewUUID()
	pickup, err := kernel.NewLocation(48.8566, 2.3522)
	require.NoError(t, err)

	f := newConsumerFixture(t,
		eventMessage(t, lifecycle.NewOrderReady(orderID, pickup, 4_500, time.Now().UTC())))

	dispatchCmd, err := commands.NewDispatchOrderCommand(orderID)
	require.NoError(t, err)
	f.dispatch.On("Handle", ctx, dispatchCmd).Once().Return(nil)

	err = f.consumer.Run(ctx)
	assert.ErrorIs(t, err, errDrained)

	f.dispatch.AssertExpectations(t)
	f.expire.AssertNotCalled(t, "Handle", mock.Anything, mock.Anything)
	f.escalate.AssertNotCalled(t, "Handle", mock.Anything, mock.Anything)
	assert.Len(t, f.reader.committed, 1)
}

func TestLifecycleConsumer_RefusalExpiresOfferThenRedispatches(t *testing.T) {
	ctx := t.Context()
	orderID := kernel.NewUUID()
	driverID := kernel.NewUUID()

	f := newConsumerFixture(t,
		eventMessage(t, lifecycle.OfferRefused(orderID, driverID, time.Now().UTC())))

	expireCmd, err := commands.NewExpireOfferCommand(orderID, driverID)
	require.NoError(t, err)
	dispatchCmd, err := commands.NewDispatchOrderCommand(orderID)
	require.NoError(t, err)

	mock.InOrder(
		f.expire.On("Handle", ctx, expireCmd).Once().Return(nil),
		f.dispatch.On("Handle", ctx, dispatchCmd).Once().Return(nil),
	)

	err = f.consumer.Run(ctx)
	assert.ErrorIs(t, err, errDrained)

	f.expire.AssertExpectations(t)
	f.dispatch.AssertExpectations(t)
	f.escalate.AssertNotCalled(t, "Handle", mock.Anything, mock.Anything)
}

func TestLifecycleConsumer_ExpirationEventDrivesSameFlow(t *testing.T) {
	ctx := t.Context()
	orderID := kernel.NewUUID()
	driverID := kernel.NewUUID()

	f := newConsumerFixture(t,
		eventMessage(t, lifecycle.OfferExpired(orderID, driverID, time.Now().UTC())))

	expireCmd, err := commands.NewExpireOfferCommand(orderID, driverID)
	require.NoError(t, err)
	dispatchCmd, err := commands.NewDispatchOrderCommand(orderID)
	require.NoError(t, err)

	f.expire.On("Handle", ctx, expireCmd).Once().Return(nil)
	f.dispatch.On("Handle", ctx, dispatchCmd).Once().Return(nil)

	err = f.consumer.Run(ctx)
	assert.ErrorIs(t, err, errDrained)

	f.expire.AssertExpectations(t)
	f.dispatch.AssertExpectations(t)
}

func TestLifecycleConsumer_ExhaustedAttemptsEscalate(t *testing.T) {
	ctx := t.Context()
	orderID := kernel.NewUUID()
	pickup, err := kernel.NewLocation(48.8566, 2.3522)
	require.NoError(t, err)

	f := newConsumerFixture(t,
		eventMessage(t, lifecycle.NewOrderReady(orderID, pickup, 4_500, time.Now().UTC())))

	dispatchCmd, err := commands.NewDispatchOrderCommand(orderID)
	require.NoError(t, err)
	escalateCmd, err := commands.NewEscalateOrderCommand(orderID)
	require.NoError(t, err)

	mock.InOrder(
		f.dispatch.On("Handle", ctx, dispatchCmd).Once().Return(commands.ErrAssignmentAttemptsExhausted),
		f.escalate.On("Handle", ctx, escalateCmd).Once().Return(nil),
	)

	err = f.consumer.Run(ctx)
	assert.ErrorIs(t, err, errDrained)

	f.dispatch.AssertExpectations(t)
	f.escalate.AssertExpectations(t)
}

func TestLifecycleConsumer_BenignDispatchOutcomesCommitAndContinue(t *testing.T) {
	testCases := []struct {
		name       string
		handlerErr error
	}{
		{name: "no candidate found", handlerErr: services.ErrNoCandidateFound},
		{name: "order not awaiting dispatch", handlerErr: commands.ErrOrderNotAwaitingDispatch},
	}

	for _, tc := range testCases {
		t.Run(tc.name, func(t *testing.T) {
			ctx := t.Context()
			orderID := kernel.NewUUID()
			pickup, err := kernel.NewLocation(48.8566, 2.3522)
			require.NoError(t, err)

			f := newConsumerFixture(t,
				eventMessage(t, lifecycle.NewOrderReady(orderID, pickup, 4_500, time.Now().UTC())))

			dispatchCmd, err := commands.NewDispatchOrderCommand(orderID)
			require.NoError(t, err)
			f.dispatch.On("Handle", ctx, dispatchCmd).Once().Return(tc.handlerErr)

			err = f.consumer.Run(ctx)
			assert.ErrorIs(t, err, errDrained)

			f.dispatch.AssertExpectations(t)
			f.escalate.AssertNotCalled(t, "Handle", mock.Anything, mock.Anything)
			assert.Len(t, f.reader.committed, 1)
		})
	}
}

func TestLifecycleConsumer_SynchronousKindsAreIgnored(t *testing.T) {
	ctx := t.Context()
	orderID := kernel.NewUUID()
	driverID := kernel.NewUUID()
	actorID := kernel.NewUUID()
	now := time.Now().UTC()

	f := newConsumerFixture(t,
		eventMessage(t, lifecycle.OfferAccepted(orderID, driverID, now)),
		eventMessage(t, lifecycle.ManuallyAssigned(orderID, driverID, actorID, now)),
		eventMessage(t, lifecycle.Completed(orderID, driverID, now)),
		eventMessage(t, lifecycle.CancelledByAdmin(orderID, actorID, now)),
	)

	err := f.consumer.Run(ctx)
	assert.ErrorIs(t, err, errDrained)

	f.dispatch.AssertNotCalled(t, "Handle", mock.Anything, mock.Anything)
	f.expire.AssertNotCalled(t, "Handle", mock.Anything, mock.Anything)
	f.escalate.AssertNotCalled(t, "Handle", mock.Anything, mock.Anything)
	assert.Len(t, f.reader.committed, 4)
}

func TestLifecycleConsumer_MalformedMessageIsSkippedButCommitted(t *testing.T) {
	ctx := t.Context()

	f := newConsumerFixture(t, kafka.Message{Value: []byte(`{"type":"warp_drive_engaged"}`)})

	err := f.consumer.Run(ctx)
	assert.ErrorIs(t, err, errDrained)

	f.dispatch.AssertNotCalled(t, "Handle", mock.Anything, mock.Anything)
	assert.Len(t, f.reader.committed, 1)
}

func TestLifecycleConsumer_HandlerErrorDoesNotStopTheLoop(t *testing.T) {
	ctx := t.Context()
	firstOrderID := kernel.NewUUID()
	secondOrderID := kernel.NewUUID()
	pickup, err := kernel.NewLocation(48.8566, 2.3522)
	require.NoError(t, err)
	now := time.Now().UTC()

	f := newConsumerFixture(t,
		eventMessage(t, lifecycle.NewOrderReady(firstOrderID, pickup, 4_500, now)),
		eventMessage(t, lifecycle.NewOrderReady(secondOrderID, pickup, 2_000, now)),
	)

	firstCmd, err := commands.NewDispatchOrderCommand(firstOrderID)
	require.NoError(t, err)
	secondCmd, err := commands.NewDispatchOrderCommand(secondOrderID)
	require.NoError(t, err)

	f.dispatch.On("Handle", ctx, firstCmd).Once().Return(errors.New("storage unavailable"))
	f.dispatch.On("Handle", ctx, secondCmd).Once().Return(nil)

	err = f.consumer.Run(ctx)
	assert.ErrorIs(t, err, errDrained)

	f.dispatch.AssertExpectations(t)
	assert.Len(t, f.reader.committed, 2)
}
