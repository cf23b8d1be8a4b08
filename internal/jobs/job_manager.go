package jobs

import (
	"fmt"
	"log/slog"
)

// Schedules holds the cron expressions (with seconds) of the jobs. Empty values use
// the job defaults.
type Schedules struct {
	NotificationRelay string
	HoldReport        string
}

// JobManager coordinates all scheduled jobs in the application.
// Provides a unified interface to start and stop all background jobs.
type JobManager struct {
	notificationRelayJob *NotificationRelayJob
	holdReportJob        *HoldReportJob
}

// NewJobManager creates a new job manager with all required jobs.
func NewJobManager(
	relayHandler RelayNotificationsHandler,
	onHoldHandler OnHoldOrdersHandler,
	schedules Schedules,
	relayBatchSize int,
	logger *slog.Logger,
) *JobManager {
	return &JobManager{
		notificationRelayJob: NewNotificationRelayJob(relayHandler, schedules.NotificationRelay, relayBatchSize, logger),
		holdReportJob:        NewHoldReportJob(onHoldHandler, schedules.HoldReport, logger),
	}
}

// StartAll starts all scheduled jobs.
// Returns an error if any job fails to start.
func (jm *JobManager) StartAll() error {
	if err := jm.notificationRelayJob.Start(); err != nil {
		return fmt.Errorf("failed to start notification relay job: %w", err)
	}

	if err := jm.holdReportJob.Start(); err != nil {
		// Stop already started jobs if this one fails
		jm.notificationRelayJob.Stop()
		return fmt.Errorf("failed to start hold report job: %w", err)
	}

	return nil
}

// StopAll stops all scheduled jobs and waits for running ones to finish.
func (jm *JobManager) StopAll() {
	jm.holdReportJob.Stop()
	jm.notificationRelayJob.Stop()
}
