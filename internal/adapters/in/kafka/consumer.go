// Package kafka implements the inbound event log adapter: a consumer group
// reader that turns assignment lifecycle events into dispatch commands.
//
// The consumer is the engine of the offer loop: a new order triggers the first
// search round, every refusal or expiration clears the offer and triggers the
// next round, and an exhausted attempt budget triggers escalation. Offsets
// are committed only after a message was handled, so a crash replays the
// message rather than losing it; all command handlers tolerate such replays.
package kafka

import (
	"context"
	"errors"

	"dispatch/internal/core/application/usecases/commands"
	"dispatch/internal/core/domain/model/kernel"
	"dispatch/internal/core/domain/model/lifecycle"
	"dispatch/internal/core/domain/services"
	"dispatch/internal/pkg/errs"

	"github.com/segmentio/kafka-go"
	"go.uber.org/zap"
)

// messageReader is the slice of kafka.Reader the consumer depends on.
type messageReader interface {
	FetchMessage(ctx context.Context) (kafka.Message, error)
	CommitMessages(ctx context.Context, msgs ...kafka.Message) error
	Close() error
}

// DispatchOrderHandler runs one assignment attempt for a pending order.
type DispatchOrderHandler interface {
	Handle(ctx context.Context, cmd commands.DispatchOrderCommand) error
}

// ExpireOfferHandler clears a lapsed offer and releases its holder.
type ExpireOfferHandler interface {
	Handle(ctx context.Context, cmd commands.ExpireOfferCommand) error
}

// EscalateOrderHandler withdraws an order whose attempt budget is spent.
type EscalateOrderHandler interface {
	Handle(ctx context.Context, cmd commands.EscalateOrderCommand) error
}

// NewReader builds a consumer-group reader for the lifecycle topic. The
// group's committed offsets are the worker's durable checkpoint.
func NewReader(brokers []string, topic, groupID string) *kafka.Reader {
	return kafka.NewReader(kafka.ReaderConfig{
		Brokers: brokers,
		Topic:   topic,
		GroupID: groupID,
	})
}

// LifecycleConsumer consumes the ordered lifecycle event log and drives the
// dispatch worker: candidate search on fresh orders, offer cleanup plus
// re-dispatch on refusals and expirations, escalation when the attempt
// budget is spent.
type LifecycleConsumer struct {
	reader   messageReader
	dispatch DispatchOrderHandler
	expire   ExpireOfferHandler
	escalate EscalateOrderHandler
	logger   *zap.Logger
}

// NewLifecycleConsumer creates the consumer over an already configured reader.
func NewLifecycleConsumer(
	reader messageReader,
	dispatch DispatchOrderHandler,
	expire ExpireOfferHandler,
	escalate EscalateOrderHandler,
	logger *zap.Logger,
) (*LifecycleConsumer, error) {
	if reader == nil {
		return nil, errs.NewValueIsRequiredError("reader")
	}
	if dispatch == nil {
		return nil, errs.NewValueIsRequiredError("dispatch handler")
	}
	if expire == nil {
		return nil, errs.NewValueIsRequiredError("expire handler")
	}
	if escalate == nil {
		return nil, errs.NewValueIsRequiredError("escalate handler")
	}
	if logger == nil {
		return nil, errs.NewValueIsRequiredError("logger")
	}

	return &LifecycleConsumer{
		reader:   reader,
		dispatch: dispatch,
		expire:   expire,
		escalate: escalate,
		logger:   logger,
	}, nil
}

// Run consumes messages until ctx is cancelled. Handler failures are logged
// and the offset is committed anyway: the expiration scan and subsequent
// events recover the order, and a poisoned message must not wedge the
// partition.
func (c *LifecycleConsumer) Run(ctx context.Context) error {
	for {
		msg, err := c.reader.FetchMessage(ctx)
		if err != nil {
			if ctx.Err() != nil {
				return nil
			}
			return err
		}

		c.handleMessage(ctx, msg)

		if err = c.reader.CommitMessages(ctx, msg); err != nil {
			if ctx.Err() != nil {
				return nil
			}
			return err
		}
	}
}

// Close releases the underlying reader and its group membership.
func (c *LifecycleConsumer) Close() error {
	return c.reader.Close()
}

func (c *LifecycleConsumer) handleMessage(ctx context.Context, msg kafka.Message) {
	event, err := lifecycle.Unmarshal(msg.Value)
	if err != nil {
		c.logger.Warn("skipping malformed lifecycle message",
			zap.String("topic", msg.Topic),
			zap.Int("partition", msg.Partition),
			zap.Int64("offset", msg.Offset),
			zap.Error(err))
		return
	}

	if err = c.handleEvent(ctx, event); err != nil {
		c.logger.Error("lifecycle event handling failed",
			zap.String("kind", string(event.Kind)),
			zap.String("orderId", event.OrderID.String()),
			zap.Error(err))
	}
}

// handleEvent routes one event to its commands. Kinds whose state change
// already happened synchronously on the API path (acceptance, manual
// assignment, terminal outcomes) need no reaction here.
func (c *LifecycleConsumer) handleEvent(ctx context.Context, event lifecycle.Event) error {
	switch event.Kind {
	case lifecycle.KindNewOrderReady:
		return c.dispatchOrder(ctx, event.OrderID)

	case lifecycle.KindOfferRefused, lifecycle.KindOfferExpired:
		if event.DriverID != nil {
			if err := c.expireOffer(ctx, event.OrderID, *event.DriverID); err != nil {
				return err
			}
		}
		return c.dispatchOrder(ctx, event.OrderID)

	default:
		return nil
	}
}

// dispatchOrder runs one assignment attempt and escalates when the order has
// spent its budget. An empty round is expected while no driver qualifies;
// the order stays pending until a later event or the budget runs out.
func (c *LifecycleConsumer) dispatchOrder(ctx context.Context, orderID kernel.UUID) error {
	cmd, err := commands.NewDispatchOrderCommand(orderID)
	if err != nil {
		return err
	}

	err = c.dispatch.Handle(ctx, cmd)
	switch {
	case err == nil:
		return nil

	case errors.Is(err, commands.ErrAssignmentAttemptsExhausted):
		return c.escalateOrder(ctx, orderID)

	case errors.Is(err, commands.ErrOrderNotAwaitingDispatch):
		// Superseded by an accept or a manual assignment, nothing to do.
		return nil

	case errors.Is(err, services.ErrNoCandidateFound):
		c.logger.Info("no candidate found for order",
			zap.String("orderId", orderID.String()))
		return nil

	default:
		return err
	}
}

func (c *LifecycleConsumer) expireOffer(ctx context.Context, orderID, driverID kernel.UUID) error {
	cmd, err := commands.NewExpireOfferCommand(orderID, driverID)
	if err != nil {
		return err
	}

	return c.expire.Handle(ctx, cmd)
}

func (c *LifecycleConsumer) escalateOrder(ctx context.Context, orderID kernel.UUID) error {
	cmd, err := commands.NewEscalateOrderCommand(orderID)
	if err != nil {
		return err
	}

	c.logger.Info("escalating order, assignment attempts exhausted",
		zap.String("orderId", orderID.String()))
	return c.escalate.Handle(ctx, cmd)
}
