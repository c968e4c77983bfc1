// Package jobs provides scheduled background tasks for the dispatch system.
//
// This package implements cron-based jobs using github.com/robfig/cron/v3
// to handle the periodic operations the offer lifecycle requires.
//
// # Available Jobs
//
// 1. OfferExpirationJob - Flags offers whose deadline has lapsed so their
// orders re-enter dispatch.
// 2. OutboxRelayJob - Publishes pending outbox rows to the event log and
// marks them sent.
//
// # Usage
//
// Jobs are managed through JobManager which provides a unified interface:
//
//	jobManager := jobs.NewJobManager(expirationJob, relayJob)
//
//	if err := jobManager.StartAll(); err != nil {
//		log.Fatal("Failed to start jobs:", err)
//	}
//
//	defer jobManager.StopAll()
//
// # Scheduling
//
// Both jobs take a second-granularity cron spec; the default "* * * * * *"
// runs every second, which bounds how far past its deadline an offer can
// linger when the offered driver simply goes silent.
//
// # Error Handling
//
// - The expiration scan logs failures and retries on the next tick.
// - The relay leaves rows pending when publishing fails, so delivery is
// at-least-once and downstream consumers tolerate replays.
// - A failed job start stops any already running jobs.
package jobs
