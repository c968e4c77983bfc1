package jobs

import (
	"fmt"
)

// JobManager coordinates all scheduled jobs in the application.
// Provides a unified interface to start and stop all background jobs.
type JobManager struct {
	offerExpirationJob *OfferExpirationJob
	outboxRelayJob     *OutboxRelayJob
}

// NewJobManager creates a job manager over the given jobs.
func NewJobManager(
	offerExpirationJob *OfferExpirationJob,
	outboxRelayJob *OutboxRelayJob,
) *JobManager {
	return &JobManager{
		offerExpirationJob: offerExpirationJob,
		outboxRelayJob:     outboxRelayJob,
	}
}

// StartAll starts all scheduled jobs.
// Returns an error if any job fails to start.
func (jm *JobManager) StartAll() error {
	if err := jm.offerExpirationJob.Start(); err != nil {
		return fmt.Errorf("failed to start offer expiration job: %w", err)
	}

	if err := jm.outboxRelayJob.Start(); err != nil {
		// Stop already started jobs if this one fails
		jm.offerExpirationJob.Stop()
		return fmt.Errorf("failed to start outbox relay job: %w", err)
	}

	return nil
}

// StopAll stops all scheduled jobs gracefully.
func (jm *JobManager) StopAll() {
	jm.offerExpirationJob.Stop()
	jm.outboxRelayJob.Stop()
}
