package services

import (
	"errors"
	"time"

	"dispatch/internal/core/domain/model/driver"
	"dispatch/internal/core/domain/model/kernel"
	"dispatch/internal/pkg/errs"
)

// ErrNoCandidateFound is returned when no driver passes the availability,
// freshness, proximity, capacity, and exclusion filters. This is a benign
// outcome, not a failure: the order stays pending and is retried later.
var ErrNoCandidateFound = errors.New("no candidate driver found")

// MatchCriteria are the inputs of one candidate search round.
type MatchCriteria struct {
	// Pickup is the point the distance filter and tie-break are measured against.
	Pickup kernel.Location

	// WeightGrams is the cargo weight a candidate's active vehicle must carry.
	WeightGrams int

	// RadiusKm bounds the great-circle distance between a candidate's
	// reported location and the pickup point.
	RadiusKm float64

	// LocationFreshness bounds how old a candidate's reported location may be.
	LocationFreshness time.Duration

	// ExcludedDriverIDs are drivers already tried for this order.
	ExcludedDriverIDs []kernel.UUID
}

// Validate checks the criteria before a search round.
func (c MatchCriteria) Validate() error {
	if err := c.Pickup.Validate(); err != nil {
		return err
	}
	if c.WeightGrams <= 0 {
		return errs.NewValueIsInvalidError("weight must be positive")
	}
	if c.RadiusKm <= 0 {
		return errs.NewValueIsInvalidError("radius must be positive")
	}
	if c.LocationFreshness <= 0 {
		return errs.NewValueIsInvalidError("location freshness window must be positive")
	}
	return nil
}

// DriverMatcher is the domain service implementing candidate search: given
// the active drivers and one order's dispatch inputs, it picks the single
// driver the offer goes to.
//
// The choice is deliberately a greedy per-order heuristic, not a global
// optimizer: offers must go out within seconds of order creation, so the
// matcher trades assignment quality for simplicity and latency.
//
// Selection rules:
//  1. keep drivers whose status is active, whose location was reported
//     within the freshness window, and who are within the radius of pickup
//  2. keep drivers with at least one active vehicle fitting the cargo weight
//  3. drop drivers already tried for this order
//  4. rank by rating descending, tie-broken by distance to pickup ascending
//  5. return the top candidate, or ErrNoCandidateFound
type DriverMatcher struct{}

// NewDriverMatcher creates a DriverMatcher domain service instance.
func NewDriverMatcher() DriverMatcher {
	return DriverMatcher{}
}

// Match runs one candidate search round over the given drivers.
// Returns the chosen driver or ErrNoCandidateFound.
func (m DriverMatcher) Match(
	candidates []*driver.Driver, criteria MatchCriteria, now time.Time,
) (*driver.Driver, error) {
	if err := criteria.Validate(); err != nil {
		return nil, err
	}

	var (
		best         *driver.Driver
		bestDistance float64
	)

	for _, d := range candidates {
		if err := d.Validate(); err != nil {
			return nil, err
		}

		if d.Status() != driver.Active {
			continue
		}
		if !d.HasFreshLocation(now, criteria.LocationFreshness) {
			continue
		}
		if !d.HasCapacityFor(criteria.WeightGrams) {
			continue
		}
		if isExcluded(d.ID(), criteria.ExcludedDriverIDs) {
			continue
		}

		distance, err := d.Location().DistanceTo(criteria.Pickup)
		if err != nil {
			return nil, err
		}
		if distance > criteria.RadiusKm {
			continue
		}

		if best == nil || ranksHigher(d, distance, best, bestDistance) {
			best = d
			bestDistance = distance
		}
	}

	if best == nil {
		return nil, ErrNoCandidateFound
	}
	return best, nil
}

// ranksHigher reports whether candidate a beats the current best: higher
// rating wins, equal ratings fall back to the shorter distance to pickup.
func ranksHigher(a *driver.Driver, aDistance float64, best *driver.Driver, bestDistance float64) bool {
	if a.Rating() != best.Rating() {
		return a.Rating() > best.Rating()
	}
	return aDistance < bestDistance
}

func isExcluded(id kernel.UUID, excluded []kernel.UUID) bool {
	for _, e := range excluded {
		if e.IsEqual(id) {
			return true
		}
	}
	return false
}
