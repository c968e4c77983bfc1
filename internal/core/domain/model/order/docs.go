// Package order provides domain entities and business logic for delivery
// missions in the dispatch system. It implements the Order aggregate root
// with the offer lifecycle and status state machine.
//
// The package includes:
//   - Order: the aggregate root owning identity, offer protocol, and lifecycle
//   - Status: a state machine enforcing valid order status transitions
//   - LedgerEntry: the immutable status-transition record appended to the order status log
//
// Key business rules:
//   - orders hold at most one open offer, and only while pending
//   - an offer is accepted only by its holder before its deadline; stale and
//     foreign actions are rejected without mutation
//   - assignment attempts are counted monotonically and capped by configuration
//   - the status flow is pending -> accepted -> at_pickup -> en_route ->
//     at_delivery, finishing as success, failed, or cancelled
//
// The package follows Domain-Driven Design principles, providing rich domain
// behavior, encapsulation, and validation to ensure business rules are enforced.
package order
