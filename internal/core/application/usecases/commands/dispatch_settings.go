package commands

import (
	"errors"
	"time"
)

var (
	ErrOfferTTLIsInvalid              = errors.New("offer TTL must be greater than 0")
	ErrMaxAssignmentAttemptsIsInvalid = errors.New("max assignment attempts must be greater than 0")
	ErrSearchRadiusIsInvalid          = errors.New("search radius must be greater than 0")
	ErrLocationFreshnessIsInvalid     = errors.New("location freshness window must be greater than 0")
)

// DispatchSettings carries the tunable parameters of the assignment workflow:
// how long an offer stays open, how many attempts an order gets before
// escalation, and the candidate search constraints.
type DispatchSettings struct {
	OfferTTL              time.Duration
	MaxAssignmentAttempts int
	SearchRadiusKm        float64
	LocationFreshness     time.Duration
}

// Validate checks that all settings are positive.
func (s DispatchSettings) Validate() error {
	if s.OfferTTL <= 0 {
		return ErrOfferTTLIsInvalid
	}

	if s.MaxAssignmentAttempts <= 0 {
		return ErrMaxAssignmentAttemptsIsInvalid
	}

	if s.SearchRadiusKm <= 0 {
		return ErrSearchRadiusIsInvalid
	}

	if s.LocationFreshness <= 0 {
		return ErrLocationFreshnessIsInvalid
	}

	return nil
}
