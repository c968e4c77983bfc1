package commands

import (
	"errors"

	"dispatch/internal/pkg/guard"
)

var ErrScanExpiredOffersCommandIsNotConstructed = errors.New(
	"ScanExpiredOffersCommand must be created via NewScanExpiredOffersCommand constructor",
)

// ScanExpiredOffersCommand represents a request to sweep all orders whose
// open offer deadline has passed and enqueue an expiration event for each.
// The sweep backs up the event-driven expiration path: it catches offers
// whose timeout event was lost or delayed.
type ScanExpiredOffersCommand struct { //nolint:recvcheck //using for validation
	guard guard.ConstructorGuard
}

// NewScanExpiredOffersCommand creates a command to scan for expired offers.
func NewScanExpiredOffersCommand() ScanExpiredOffersCommand {
	return ScanExpiredOffersCommand{
		guard: guard.NewConstructorGuard(),
	}
}

// Validate ensures the command was created through the constructor.
func (c ScanExpiredOffersCommand) Validate() error {
	return c.guard.Validate(ErrScanExpiredOffersCommandIsNotConstructed)
}
