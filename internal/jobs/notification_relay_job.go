package jobs

import (
	"context"
	"log/slog"

	"fulfillment/internal/core/application/usecases/commands"

	"github.com/robfig/cron/v3"
)

// DefaultNotificationRelaySchedule runs the relay every five seconds.
const DefaultNotificationRelaySchedule = "*/5 * * * * *"

type RelayNotificationsHandler interface {
	Handle(ctx context.Context, cmd commands.RelayNotificationsCommand) (commands.RelayResult, error)
}

// NotificationRelayJob publishes pending outbox notifications on a schedule.
// A run that is still publishing when the next tick fires makes that tick a no-op.
type NotificationRelayJob struct {
	handler   RelayNotificationsHandler
	schedule  string
	batchSize int
	cron      *cron.Cron
	logger    *slog.Logger
}

// NewNotificationRelayJob creates the relay job. An empty schedule falls back to
// DefaultNotificationRelaySchedule.
func NewNotificationRelayJob(
	handler RelayNotificationsHandler,
	schedule string,
	batchSize int,
	logger *slog.Logger,
) *NotificationRelayJob {
	if schedule == "" {
		schedule = DefaultNotificationRelaySchedule
	}
	return &NotificationRelayJob{
		handler:   handler,
		schedule:  schedule,
		batchSize: batchSize,
		cron:      cron.New(cron.WithSeconds(), cron.WithChain(cron.SkipIfStillRunning(cron.DiscardLogger))),
		logger:    logger.With("component", "notification_relay_job"),
	}
}

// RunOnce relays a single batch.
func (j *NotificationRelayJob) RunOnce(ctx context.Context) error {
	cmd, err := commands.NewRelayNotificationsCommand(j.batchSize)
	if err != nil {
		return err
	}

	result, err := j.handler.Handle(ctx, cmd)
	if err != nil {
		j.logger.ErrorContext(ctx, "Notification relay job failed",
			"published", result.Published, "pending", result.Pending, "error", err)
		return err
	}
	if result.Published > 0 {
		j.logger.InfoContext(ctx, "Notifications relayed", "published", result.Published)
	}
	return nil
}

// Start registers the relay on its schedule and starts the scheduler.
func (j *NotificationRelayJob) Start() error {
	_, err := j.cron.AddFunc(j.schedule, func() {
		_ = j.RunOnce(context.Background())
	})
	if err != nil {
		return err
	}

	j.cron.Start()
	j.logger.InfoContext(context.Background(), "Notification relay job started", "schedule", j.schedule)
	return nil
}

// Stop stops the scheduler and waits for a running batch to finish.
func (j *NotificationRelayJob) Stop() {
	<-j.cron.Stop().Done()
	j.logger.InfoContext(context.Background(), "Notification relay job stopped")
}
