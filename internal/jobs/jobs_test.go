package jobs_test

import (
	"context"
	"errors"
	"testing"
	"time"

	"fulfillment/internal/core/application/usecases/commands"
	"fulfillment/internal/core/application/usecases/queries"
	"fulfillment/internal/core/domain/model/kernel"
	"fulfillment/internal/jobs"
	"fulfillment/internal/pkg/errs"

	"github.com/neilotoole/slogt"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"
)

type MockRelayHandler struct{ mock.Mock }

func (m *MockRelayHandler) Handle(ctx context.Context, cmd commands.RelayNotificationsCommand) (commands.RelayResult, error) {
	args := m.Called(ctx, cmd)
	return args.Get(0).(commands.RelayResult), args.Error(1)
}

type MockOnHoldHandler struct{ mock.Mock }

func (m *MockOnHoldHandler) Handle(ctx context.Context, query queries.GetOnHoldOrdersQuery) ([]queries.OrderStatusResponse, error) {
	args := m.Called(ctx, query)
	orders, _ := args.Get(0).([]queries.OrderStatusResponse)
	return orders, args.Error(1)
}

func batchOf(size int) any {
	return mock.MatchedBy(func(cmd commands.RelayNotificationsCommand) bool {
		return cmd.BatchSize() == size
	})
}

func TestNotificationRelayJob_RunOnce(t *testing.T) {
	handler := new(MockRelayHandler)
	handler.On("Handle", mock.Anything, batchOf(25)).
		Return(commands.RelayResult{Pending: 3, Published: 3}, nil).Once()

	job := jobs.NewNotificationRelayJob(handler, "", 25, slogt.New(t))

	require.NoError(t, job.RunOnce(t.Context()))
	handler.AssertExpectations(t)
}

func TestNotificationRelayJob_RunOnceReturnsHandlerError(t *testing.T) {
	handler := new(MockRelayHandler)
	handler.On("Handle", mock.Anything, mock.Anything).
		Return(commands.RelayResult{Pending: 2, Published: 1}, errors.New("broker down")).Once()

	job := jobs.NewNotificationRelayJob(handler, "", commands.DefaultRelayBatchSize, slogt.New(t))

	require.ErrorContains(t, job.RunOnce(t.Context()), "broker down")
}

func TestNotificationRelayJob_InvalidBatchSize(t *testing.T) {
	handler := new(MockRelayHandler)
	job := jobs.NewNotificationRelayJob(handler, "", 0, slogt.New(t))

	require.ErrorIs(t, job.RunOnce(t.Context()), errs.ErrValueIsOutOfRange)
	handler.AssertNotCalled(t, "Handle", mock.Anything, mock.Anything)
}

func TestNotificationRelayJob_RunsOnSchedule(t *testing.T) {
	ran := make(chan struct{}, 1)
	handler := new(MockRelayHandler)
	handler.On("Handle", mock.Anything, mock.Anything).
		Return(commands.RelayResult{}, nil).
		Run(func(mock.Arguments) {
			select {
			case ran <- struct{}{}:
			default:
			}
		})

	job := jobs.NewNotificationRelayJob(handler, "* * * * * *", commands.DefaultRelayBatchSize, slogt.New(t))
	require.NoError(t, job.Start())
	defer job.Stop()

	select {
	case <-ran:
	case <-time.After(3 * time.Second):
		t.Fatal("relay did not run within its schedule")
	}
}

func TestNotificationRelayJob_InvalidSchedule(t *testing.T) {
	job := jobs.NewNotificationRelayJob(new(MockRelayHandler), "every minute", commands.DefaultRelayBatchSize, slogt.New(t))
	require.Error(t, job.Start())
}

func gaugeValue(t *testing.T, status string) float64 {
	t.Helper()
	families, err := prometheus.DefaultGatherer.Gather()
	require.NoError(t, err)
	for _, family := range families {
		if family.GetName() != "fulfillment_orders_on_hold" {
			continue
		}
		for _, m := range family.GetMetric() {
			for _, pair := range m.GetLabel() {
				if pair.GetName() == "status" && pair.GetValue() == status {
					return m.GetGauge().GetValue()
				}
			}
		}
	}
	t.Fatalf("no gauge for status %s", status)
	return 0
}

func onHold(status string) queries.OrderStatusResponse {
	return queries.OrderStatusResponse{ID: kernel.NewUUID(), VendorID: "acme", Status: status, IsOnHold: true}
}

func TestHoldReportJob_RunOnce(t *testing.T) {
	handler := new(MockOnHoldHandler)
	handler.On("Handle", mock.Anything, mock.Anything).Return([]queries.OrderStatusResponse{
		onHold("OnHold_BadFiles"),
		onHold("OnHold_BadFiles"),
		onHold("OnHold_MissingFile"),
	}, nil).Once()

	job := jobs.NewHoldReportJob(handler, "", slogt.New(t))
	counts, err := job.RunOnce(t.Context())

	require.NoError(t, err)
	assert.Equal(t, map[string]int{"OnHold_BadFiles": 2, "OnHold_MissingFile": 1}, counts)
	assert.InDelta(t, 2.0, gaugeValue(t, "OnHold_BadFiles"), 0)
	assert.InDelta(t, 1.0, gaugeValue(t, "OnHold_MissingFile"), 0)
	assert.InDelta(t, 0.0, gaugeValue(t, "OnHold_TextNearEdge"), 0)
}

func TestHoldReportJob_ResetsClearedStatuses(t *testing.T) {
	handler := new(MockOnHoldHandler)
	handler.On("Handle", mock.Anything, mock.Anything).
		Return([]queries.OrderStatusResponse{onHold("OnHold_BadImages")}, nil).Once()
	handler.On("Handle", mock.Anything, mock.Anything).
		Return([]queries.OrderStatusResponse{}, nil).Once()

	job := jobs.NewHoldReportJob(handler, "", slogt.New(t))

	_, err := job.RunOnce(t.Context())
	require.NoError(t, err)
	assert.InDelta(t, 1.0, gaugeValue(t, "OnHold_BadImages"), 0)

	_, err = job.RunOnce(t.Context())
	require.NoError(t, err)
	assert.InDelta(t, 0.0, gaugeValue(t, "OnHold_BadImages"), 0)
}

func TestHoldReportJob_QueryError(t *testing.T) {
	handler := new(MockOnHoldHandler)
	handler.On("Handle", mock.Anything, mock.Anything).Return(nil, errors.New("db down")).Once()

	job := jobs.NewHoldReportJob(handler, "", slogt.New(t))
	_, err := job.RunOnce(t.Context())

	require.ErrorContains(t, err, "db down")
}

func TestJobManager_StartAllFailsOnInvalidSchedule(t *testing.T) {
	manager := jobs.NewJobManager(
		new(MockRelayHandler),
		new(MockOnHoldHandler),
		jobs.Schedules{HoldReport: "not a schedule"},
		commands.DefaultRelayBatchSize,
		slogt.New(t),
	)

	require.ErrorContains(t, manager.StartAll(), "hold report job")
}

func TestJobManager_StartAndStop(t *testing.T) {
	manager := jobs.NewJobManager(
		new(MockRelayHandler),
		new(MockOnHoldHandler),
		jobs.Schedules{NotificationRelay: "0 0 0 1 1 *", HoldReport: "0 0 0 1 1 *"},
		commands.DefaultRelayBatchSize,
		slogt.New(t),
	)

	require.NoError(t, manager.StartAll())
	manager.StopAll()
}
