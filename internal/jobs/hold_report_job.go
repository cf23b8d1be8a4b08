package jobs

import (
	"context"
	"log/slog"

	"fulfillment/internal/core/application/usecases/queries"
	"fulfillment/internal/core/domain/model/order"
	"fulfillment/internal/pkg/metrics"

	"github.com/robfig/cron/v3"
)

// DefaultHoldReportSchedule refreshes the hold gauge once a minute.
const DefaultHoldReportSchedule = "0 * * * * *"

type OnHoldOrdersHandler interface {
	Handle(ctx context.Context, query queries.GetOnHoldOrdersQuery) ([]queries.OrderStatusResponse, error)
}

// HoldReportJob publishes the number of orders per hold status as a gauge.
type HoldReportJob struct {
	handler  OnHoldOrdersHandler
	schedule string
	cron     *cron.Cron
	logger   *slog.Logger
}

func NewHoldReportJob(handler OnHoldOrdersHandler, schedule string, logger *slog.Logger) *HoldReportJob {
	if schedule == "" {
		schedule = DefaultHoldReportSchedule
	}
	return &HoldReportJob{
		handler:  handler,
		schedule: schedule,
		cron:     cron.New(cron.WithSeconds(), cron.WithChain(cron.SkipIfStillRunning(cron.DiscardLogger))),
		logger:   logger.With("component", "hold_report_job"),
	}
}

// RunOnce counts on-hold orders and updates the gauge. The gauge keeps its
// previous values when the query fails.
func (j *HoldReportJob) RunOnce(ctx context.Context) (map[string]int, error) {
	orders, err := j.handler.Handle(ctx, queries.NewGetOnHoldOrdersQuery())
	if err != nil {
		j.logger.ErrorContext(ctx, "Hold report job failed", "error", err)
		return nil, err
	}

	statuses := make([]string, 0, len(order.HoldStatuses()))
	for _, status := range order.HoldStatuses() {
		statuses = append(statuses, status.String())
	}

	counts := make(map[string]int, len(statuses))
	for _, o := range orders {
		counts[o.Status]++
	}
	metrics.SetOrdersOnHold(statuses, counts)

	if len(orders) > 0 {
		j.logger.InfoContext(ctx, "Orders on hold", "total", len(orders), "byStatus", counts)
	}
	return counts, nil
}

func (j *HoldReportJob) Start() error {
	_, err := j.cron.AddFunc(j.schedule, func() {
		_, _ = j.RunOnce(context.Background())
	})
	if err != nil {
		return err
	}

	j.cron.Start()
	j.logger.InfoContext(context.Background(), "Hold report job started", "schedule", j.schedule)
	return nil
}

func (j *HoldReportJob) Stop() {
	<-j.cron.Stop().Done()
	j.logger.InfoContext(context.Background(), "Hold report job stopped")
}
