package jobs

import (
	"context"

	"dispatch/internal/core/application/usecases/commands"

	"github.com/robfig/cron/v3"
	"go.uber.org/zap"
)

// OfferExpirationJob periodically flags offers whose deadline has lapsed.
// Pushes and refusals drive the offer loop in the common case; this scan is
// the backstop that bounds how long a dead offer can block an order.
type OfferExpirationJob struct {
	handler  *commands.ScanExpiredOffersCommandHandler
	cron     *cron.Cron
	cronSpec string
	logger   *zap.Logger
}

// NewOfferExpirationJob creates the expiration scan job. The cron spec uses
// second granularity, e.g. "* * * * * *" to scan every second.
func NewOfferExpirationJob(
	handler *commands.ScanExpiredOffersCommandHandler, cronSpec string, logger *zap.Logger,
) *OfferExpirationJob {
	return &OfferExpirationJob{
		handler:  handler,
		cron:     cron.New(cron.WithSeconds()),
		cronSpec: cronSpec,
		logger:   logger.With(zap.String("component", "offer_expiration_job")),
	}
}

// Start schedules the scan.
func (j *OfferExpirationJob) Start() error {
	_, err := j.cron.AddFunc(j.cronSpec, func() {
		ctx := context.Background()
		cmd := commands.NewScanExpiredOffersCommand()

		count, handleErr := j.handler.Handle(ctx, cmd)
		if handleErr != nil {
			j.logger.Error("offer expiration scan failed", zap.Error(handleErr))
			return
		}

		if count > 0 {
			j.logger.Info("expired offers flagged", zap.Int("count", count))
		}
	})
	if err != nil {
		return err
	}

	j.cron.Start()
	j.logger.Info("offer expiration job started", zap.String("cron", j.cronSpec))
	return nil
}

// Stop stops the scan.
func (j *OfferExpirationJob) Stop() {
	j.cron.Stop()
	j.logger.Info("offer expiration job stopped")
}
