// Package jobs provides scheduled background tasks for the fulfillment service.
//
// This package implements cron-based jobs using github.com/robfig/cron/v3.
// Schedules are six-field expressions (seconds first).
//
// # Available Jobs
//
// 1. NotificationRelayJob - publishes pending outbox notifications to the broker
// 2. HoldReportJob - refreshes the fulfillment_orders_on_hold gauge
//
// # Usage
//
//	jobManager := jobs.NewJobManager(relayHandler, onHoldHandler, jobs.Schedules{}, commands.DefaultRelayBatchSize, logger)
//	if err := jobManager.StartAll(); err != nil {
//		log.Fatal("Failed to start jobs:", err)
//	}
//	defer jobManager.StopAll()
//
// # Error Handling
//
// Job failures are logged and retried on the next tick. A tick that fires while the
// previous run is still busy is skipped, so relay batches never overlap.
package jobs
