package jobs

import (
	"context"

	"dispatch/internal/core/domain/model/kernel"
	"dispatch/internal/core/domain/model/lifecycle"
	"dispatch/internal/core/ports"

	"github.com/robfig/cron/v3"
	"go.uber.org/zap"
)

// relayBatchSize bounds how many outbox rows one relay tick publishes.
const relayBatchSize = 100

// OutboxRelayJob periodically publishes pending outbox rows to the event
// log and marks them sent. Rows stay pending when publishing fails, so
// delivery is at-least-once and consumers must tolerate replays.
type OutboxRelayJob struct {
	outbox    ports.OutboxRepository
	publisher ports.EventPublisher
	cron      *cron.Cron
	cronSpec  string
	logger    *zap.Logger
}

// NewOutboxRelayJob creates the relay job. The cron spec uses second
// granularity.
func NewOutboxRelayJob(
	outbox ports.OutboxRepository,
	publisher ports.EventPublisher,
	cronSpec string,
	logger *zap.Logger,
) *OutboxRelayJob {
	return &OutboxRelayJob{
		outbox:    outbox,
		publisher: publisher,
		cron:      cron.New(cron.WithSeconds()),
		cronSpec:  cronSpec,
		logger:    logger.With(zap.String("component", "outbox_relay_job")),
	}
}

// Start schedules the relay.
func (j *OutboxRelayJob) Start() error {
	_, err := j.cron.AddFunc(j.cronSpec, func() {
		if relayErr := j.relay(context.Background()); relayErr != nil {
			j.logger.Error("outbox relay failed", zap.Error(relayErr))
		}
	})
	if err != nil {
		return err
	}

	j.cron.Start()
	j.logger.Info("outbox relay job started", zap.String("cron", j.cronSpec))
	return nil
}

// Stop stops the relay.
func (j *OutboxRelayJob) Stop() {
	j.cron.Stop()
	j.logger.Info("outbox relay job stopped")
}

func (j *OutboxRelayJob) relay(ctx context.Context) error {
	messages, err := j.outbox.GetPending(ctx, relayBatchSize)
	if err != nil {
		return err
	}
	if len(messages) == 0 {
		return nil
	}

	events := make([]lifecycle.Event, len(messages))
	ids := make([]kernel.UUID, len(messages))
	for i, message := range messages {
		events[i] = message.Event
		ids[i] = message.ID
	}

	if err := j.publisher.Publish(ctx, events...); err != nil {
		return err
	}

	if err := j.outbox.MarkSent(ctx, ids); err != nil {
		return err
	}

	j.logger.Debug("outbox messages relayed", zap.Int("count", len(messages)))
	return nil
}
