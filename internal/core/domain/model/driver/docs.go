// Package driver provides domain entities and business logic for couriers in
// the dispatch system. It implements the Driver aggregate root with the
// availability state machine coupled to the offer protocol.
//
// The package includes:
//   - Driver: the aggregate root owning identity, reported location, vehicles,
//     and availability transitions
//   - Vehicle: an owned entity with payload capacity and an active flag
//   - Status: the availability state machine (active, on_break, inactive,
//     offering, in_work)
//   - LedgerEntry: the immutable availability record appended to the driver status log
//
// Key business rules:
//   - only active drivers with a fresh reported location are offer candidates
//   - drivers cannot toggle their availability while holding accepted missions
//   - the in-progress counter equals the number of concurrently accepted,
//     unfinished missions; reaching zero hands the decision between active and
//     inactive to the recurring-availability schedule
package driver
