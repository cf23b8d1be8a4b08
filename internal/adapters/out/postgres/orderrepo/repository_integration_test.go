package orderrepo_test

import (
	"context"
	"errors"
	"sync"
	"testing"
	"time"

	"fulfillment/internal/adapters/out/postgres/orderrepo"
	"fulfillment/internal/adapters/out/postgres/pgtest"
	"fulfillment/internal/core/domain/model/kernel"
	"fulfillment/internal/core/domain/model/order"
	"fulfillment/internal/pkg/errs"

	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/suite"
	"github.com/testcontainers/testcontainers-go/modules/postgres"
	"gorm.io/gorm"
)

type MockAggregateTracker struct {
	mock.Mock
}

func (m *MockAggregateTracker) TrackAggregate(id kernel.UUID, aggregate any) {
	m.Called(id, aggregate)
}

// OrderRepositoryIntegrationTestSuite verifies order persistence against PostgreSQL.
type OrderRepositoryIntegrationTestSuite struct {
	suite.Suite
	container  *postgres.PostgresContainer
	db         *gorm.DB
	repository *orderrepo.GormOrderRepository
	tracker    *MockAggregateTracker
}

func (suite *OrderRepositoryIntegrationTestSuite) SetupSuite() {
	container, db, err := pgtest.Start(context.Background())
	suite.Require().NoError(err)
	suite.container = container
	suite.db = db
}

func (suite *OrderRepositoryIntegrationTestSuite) SetupTest() {
	suite.Require().NoError(pgtest.Truncate(suite.db))

	suite.tracker = new(MockAggregateTracker)
	suite.tracker.On("TrackAggregate", mock.Anything, mock.Anything).Maybe()
	suite.repository = orderrepo.NewGormOrderRepository(suite.db, suite.tracker)
}

func (suite *OrderRepositoryIntegrationTestSuite) TearDownSuite() {
	if suite.container != nil {
		suite.Require().NoError(suite.container.Terminate(context.Background()))
	}
}

func (suite *OrderRepositoryIntegrationTestSuite) TestAdd_StoresPendingOrderAtVersionOne() {
	ctx := context.Background()
	tracker := new(MockAggregateTracker)
	repository := orderrepo.NewGormOrderRepository(suite.db, tracker)
	o := suite.newOrder("acme")
	tracker.On("TrackAggregate", o.ID(), o).Once()

	suite.Require().NoError(repository.Add(ctx, o))

	stored, err := repository.Get(ctx, o.ID())
	suite.Require().NoError(err)
	suite.Equal(order.Pending, stored.Status())
	suite.Equal(int64(1), stored.Version())
	suite.Equal("acme", stored.VendorID().String())
	tracker.AssertExpectations(suite.T())
}

func (suite *OrderRepositoryIntegrationTestSuite) TestAdd_DuplicateID_AlreadyExists() {
	ctx := context.Background()
	o := suite.newOrder("acme")
	suite.Require().NoError(suite.repository.Add(ctx, o))

	err := suite.repository.Add(ctx, o)
	suite.Require().ErrorIs(err, errs.ErrObjectAlreadyExists)
}

func (suite *OrderRepositoryIntegrationTestSuite) TestAdd_NotConstructedOrder_Rejected() {
	err := suite.repository.Add(context.Background(), &order.Order{})
	suite.Require().ErrorIs(err, order.ErrOrderIsNotConstructed)
}

func (suite *OrderRepositoryIntegrationTestSuite) TestGet_Missing_NotFound() {
	_, err := suite.repository.Get(context.Background(), kernel.NewUUID())
	suite.Require().ErrorIs(err, errs.ErrObjectNotFound)
}

func (suite *OrderRepositoryIntegrationTestSuite) TestCompareAndSwap_MatchingVersion_WritesAndBumps() {
	ctx := context.Background()
	o := suite.addOrder("acme")
	suite.advance(o, order.EventVendorAccepted, order.ShipmentDetails{})
	suite.advance(o, order.EventFilesApproved, order.ShipmentDetails{})

	eta := time.Date(2026, 3, 14, 0, 0, 0, 0, time.UTC)
	loaded := suite.get(o.ID())
	_, err := loaded.Apply(order.DefaultTable(), order.EventOrderShipped, order.ShipmentDetails{
		TrackingNumber:    "1Z999",
		EstimatedDelivery: &eta,
	})
	suite.Require().NoError(err)
	suite.Require().NoError(suite.repository.CompareAndSwap(ctx, loaded, loaded.Version()))

	stored := suite.get(o.ID())
	suite.Equal(order.Shipped, stored.Status())
	suite.Equal(int64(4), stored.Version())
	suite.Equal("1Z999", stored.TrackingNumber())
	suite.Require().NotNil(stored.EstimatedDelivery())
	suite.True(eta.Equal(*stored.EstimatedDelivery()))
}

func (suite *OrderRepositoryIntegrationTestSuite) TestCompareAndSwap_StaleVersion_Conflict() {
	ctx := context.Background()
	o := suite.addOrder("acme")

	first := suite.get(o.ID())
	second := suite.get(o.ID())

	_, err := first.Apply(order.DefaultTable(), order.EventVendorAccepted, order.ShipmentDetails{})
	suite.Require().NoError(err)
	suite.Require().NoError(suite.repository.CompareAndSwap(ctx, first, first.Version()))

	_, err = second.Apply(order.DefaultTable(), order.EventOrderCancelled, order.ShipmentDetails{})
	suite.Require().NoError(err)
	err = suite.repository.CompareAndSwap(ctx, second, second.Version())
	suite.Require().ErrorIs(err, errs.ErrVersionIsInvalid)

	stored := suite.get(o.ID())
	suite.Equal(order.Prepress, stored.Status(), "Losing writer must not overwrite the winner")
	suite.Equal(int64(2), stored.Version())
}

func (suite *OrderRepositoryIntegrationTestSuite) TestCompareAndSwap_MissingOrder_NotFound() {
	o := suite.newOrder("acme")
	err := suite.repository.CompareAndSwap(context.Background(), o, 1)
	suite.Require().ErrorIs(err, errs.ErrObjectNotFound)
}

// TestCompareAndSwap_ConcurrentWriters_OneWins races writers holding the same version.
func (suite *OrderRepositoryIntegrationTestSuite) TestCompareAndSwap_ConcurrentWriters_OneWins() {
	ctx := context.Background()
	o := suite.addOrder("acme")

	const writers = 8
	loaded := make([]*order.Order, writers)
	for i := range loaded {
		loaded[i] = suite.get(o.ID())
		_, err := loaded[i].Apply(order.DefaultTable(), order.EventVendorAccepted, order.ShipmentDetails{})
		suite.Require().NoError(err)
	}

	var (
		wg        sync.WaitGroup
		mu        sync.Mutex
		wins      int
		conflicts int
	)
	for _, candidate := range loaded {
		wg.Add(1)
		go func(candidate *order.Order) {
			defer wg.Done()
			err := suite.repository.CompareAndSwap(ctx, candidate, candidate.Version())
			mu.Lock()
			defer mu.Unlock()
			switch {
			case err == nil:
				wins++
			case errors.Is(err, errs.ErrVersionIsInvalid):
				conflicts++
			}
		}(candidate)
	}
	wg.Wait()

	suite.Equal(1, wins)
	suite.Equal(writers-1, conflicts)
	suite.Equal(int64(2), suite.get(o.ID()).Version())
}

func (suite *OrderRepositoryIntegrationTestSuite) TestGetAllOnHold_ReturnsOnlyHeldOrders() {
	held := suite.addOrder("acme")
	suite.advance(held, order.EventVendorAccepted, order.ShipmentDetails{})
	suite.advance(held, order.EventBadFilesDetected, order.ShipmentDetails{})

	other := suite.addOrder("globex")
	suite.advance(other, order.EventVendorAccepted, order.ShipmentDetails{})
	suite.advance(other, order.EventFileMissing, order.ShipmentDetails{})

	active := suite.addOrder("acme")
	suite.advance(active, order.EventVendorAccepted, order.ShipmentDetails{})

	orders, err := suite.repository.GetAllOnHold(context.Background())
	suite.Require().NoError(err)
	suite.Require().Len(orders, 2)
	suite.Equal(held.ID(), orders[0].ID())
	suite.Equal(order.OnHoldBadFiles, orders[0].Status())
	suite.Equal(other.ID(), orders[1].ID())
	suite.Equal(order.OnHoldMissingFile, orders[1].Status())
}

func (suite *OrderRepositoryIntegrationTestSuite) TestGetAllOnHold_Empty() {
	orders, err := suite.repository.GetAllOnHold(context.Background())
	suite.Require().NoError(err)
	suite.Empty(orders)
}

func (suite *OrderRepositoryIntegrationTestSuite) newOrder(vendor string) *order.Order {
	o, err := order.NewOrder(kernel.NewUUID(), kernel.MustVendorID(vendor))
	suite.Require().NoError(err)
	return o
}

func (suite *OrderRepositoryIntegrationTestSuite) addOrder(vendor string) *order.Order {
	o := suite.newOrder(vendor)
	suite.Require().NoError(suite.repository.Add(context.Background(), o))
	return o
}

func (suite *OrderRepositoryIntegrationTestSuite) get(id kernel.UUID) *order.Order {
	o, err := suite.repository.Get(context.Background(), id)
	suite.Require().NoError(err)
	return o
}

// advance loads the order, applies event and writes it back.
func (suite *OrderRepositoryIntegrationTestSuite) advance(o *order.Order, event order.Event, details order.ShipmentDetails) {
	loaded := suite.get(o.ID())
	result, err := loaded.Apply(order.DefaultTable(), event, details)
	suite.Require().NoError(err)
	suite.Require().True(result.Changed(), "%s from %s", event, loaded.Status())
	suite.Require().NoError(suite.repository.CompareAndSwap(context.Background(), loaded, loaded.Version()))
}

func TestOrderRepositoryIntegrationTestSuite(t *testing.T) {
	suite.Run(t, new(OrderRepositoryIntegrationTestSuite))
}
