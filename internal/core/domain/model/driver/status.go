package driver

import (
	"fmt"

	"dispatch/internal/pkg/errs"
)

// Status represents the availability state of a driver. The current status is
// the latest entry in the driver status ledger; a materialized copy lives on
// the driver row and is updated in the same transaction as each ledger insert.
//
// State transitions:
//
//	Active <-> OnBreak <-> Inactive   (driver-initiated toggles)
//	Active -> Offering -> Active      (offer proposed / resolved)
//	Offering | Active -> InWork       (offer accepted)
//	InWork -> Active | Inactive       (last mission finished, availability schedule decides)
//
// Driver-initiated toggles are rejected while the driver is InWork.
type Status int

const (
	// StatusUnknown represents an invalid or undefined status.
	StatusUnknown Status = iota

	// Active means the driver is online and eligible for offers.
	Active

	// OnBreak means the driver paused themselves; no offers are made.
	OnBreak

	// Inactive means the driver is offline.
	Inactive

	// Offering means the driver holds a pending offer awaiting their response.
	Offering

	// InWork means the driver holds at least one accepted mission.
	InWork
)

// getStatusStrings returns a map of Status values to their string representations.
func getStatusStrings() map[Status]string {
	return map[Status]string{
		StatusUnknown: "unknown",
		Active:        "active",
		OnBreak:       "on_break",
		Inactive:      "inactive",
		Offering:      "offering",
		InWork:        "in_work",
	}
}

// getValidStatusStrings returns a map of only valid Status values.
func getValidStatusStrings() map[Status]string {
	//nolint:exhaustive // StatusUnknown is intentionally excluded as it's invalid
	return map[Status]string{
		Active:   "active",
		OnBreak:  "on_break",
		Inactive: "inactive",
		Offering: "offering",
		InWork:   "in_work",
	}
}

// StatusFromString parses the snake_case ledger representation of a status.
func StatusFromString(s string) (Status, error) {
	for status, str := range getValidStatusStrings() {
		if str == s {
			return status, nil
		}
	}
	return StatusUnknown, errs.NewValueIsInvalidErrorWithCause("status is invalid",
		fmt.Errorf("%q is not a valid driver status", s))
}

// Validate checks if the Status value is valid.
func (s Status) Validate() error {
	if _, ok := getValidStatusStrings()[s]; !ok {
		return errs.NewValueIsInvalidErrorWithCause("status is invalid",
			fmt.Errorf("%d is not a valid driver status", s))
	}
	return nil
}

// String returns the snake_case name of the status as written to the ledger.
// Implements the fmt.Stringer interface, safe to call on any value.
func (s Status) String() string {
	if str, ok := getStatusStrings()[s]; ok {
		return str
	}
	return "unknown"
}

// IsDriverSelectable reports whether a driver may toggle themselves into this
// status. Offering and InWork are protocol-owned and never chosen directly.
func (s Status) IsDriverSelectable() bool {
	return s == Active || s == OnBreak || s == Inactive
}
