package postgres_test

import (
	"context"
	"testing"
	"time"

	postgres_adapter "fulfillment/internal/adapters/out/postgres"
	"fulfillment/internal/adapters/out/postgres/pgtest"
	"fulfillment/internal/core/domain/model/kernel"
	"fulfillment/internal/core/domain/model/notification"
	"fulfillment/internal/core/domain/model/order"
	"fulfillment/internal/core/ports"

	"github.com/stretchr/testify/suite"
	"github.com/testcontainers/testcontainers-go/modules/postgres"
	"gorm.io/gorm"
)

// UnitOfWorkIntegrationTestSuite runs the GORM unit of work against a real PostgreSQL.
type UnitOfWorkIntegrationTestSuite struct {
	suite.Suite
	container *postgres.PostgresContainer
	db        *gorm.DB
	factory   ports.UnitOfWorkFactory
}

func (suite *UnitOfWorkIntegrationTestSuite) SetupSuite() {
	container, db, err := pgtest.Start(context.Background())
	suite.Require().NoError(err)
	suite.container = container
	suite.db = db
	suite.factory = postgres_adapter.NewGormUnitOfWorkFactory(db)
}

func (suite *UnitOfWorkIntegrationTestSuite) SetupTest() {
	suite.Require().NoError(pgtest.Truncate(suite.db))
}

func (suite *UnitOfWorkIntegrationTestSuite) TearDownSuite() {
	if suite.container != nil {
		suite.Require().NoError(suite.container.Terminate(context.Background()))
	}
}

func (suite *UnitOfWorkIntegrationTestSuite) TestUnitOfWorkFactory_Create() {
	uow1 := suite.factory.Create()
	uow2 := suite.factory.Create()

	suite.NotSame(uow1, uow2, "Factory should create separate instances")
	suite.NotNil(uow1.OrderRepository())
	suite.NotNil(uow1.NotificationOutbox())
}

func (suite *UnitOfWorkIntegrationTestSuite) TestUnitOfWork_TransactionLifecycle() {
	ctx := context.Background()
	uow := suite.factory.Create()

	suite.Require().NoError(uow.Begin(ctx))
	suite.Require().NoError(uow.Begin(ctx), "Multiple begin calls should be safe")
	suite.Require().NoError(uow.Commit(ctx))

	suite.Require().NoError(uow.Begin(ctx))
	suite.Require().NoError(uow.Rollback(ctx))
}

func (suite *UnitOfWorkIntegrationTestSuite) TestUnitOfWork_TransactionErrors() {
	ctx := context.Background()
	uow := suite.factory.Create()

	suite.Require().ErrorIs(uow.Commit(ctx), gorm.ErrInvalidTransaction)
	suite.Require().ErrorIs(uow.Rollback(ctx), gorm.ErrInvalidTransaction)

	suite.Require().NoError(uow.Begin(ctx))
	suite.Require().NoError(uow.Commit(ctx))
	suite.Require().ErrorIs(uow.Rollback(ctx), gorm.ErrInvalidTransaction, "Rollback after commit has nothing to undo")
}

// TestUnitOfWork_StatusAndNotificationCommitTogether writes the CAS and the outbox row
// in one transaction, the way reconciliation does.
func (suite *UnitOfWorkIntegrationTestSuite) TestUnitOfWork_StatusAndNotificationCommitTogether() {
	ctx := context.Background()
	o := suite.addOrder()

	uow := suite.factory.Create()
	suite.Require().NoError(uow.Begin(ctx))

	loaded, err := uow.OrderRepository().Get(ctx, o.ID())
	suite.Require().NoError(err)
	result, err := loaded.Apply(order.DefaultTable(), order.EventVendorAccepted, order.ShipmentDetails{})
	suite.Require().NoError(err)
	suite.Require().True(result.Changed())

	suite.Require().NoError(uow.OrderRepository().CompareAndSwap(ctx, loaded, loaded.Version()))
	n, err := notification.NewNotification(loaded, "Your order is in prepress.", time.Now())
	suite.Require().NoError(err)
	suite.Require().NoError(uow.NotificationOutbox().Add(ctx, n))
	suite.Require().NoError(uow.Commit(ctx))

	reader := suite.factory.Create()
	stored, err := reader.OrderRepository().Get(ctx, o.ID())
	suite.Require().NoError(err)
	suite.Equal(order.Prepress, stored.Status())
	suite.Equal(int64(2), stored.Version())

	pending, err := reader.NotificationOutbox().ListPending(ctx, 10)
	suite.Require().NoError(err)
	suite.Require().Len(pending, 1)
	suite.Equal(n.ID(), pending[0].ID())
}

func (suite *UnitOfWorkIntegrationTestSuite) TestUnitOfWork_RollbackDiscardsBothWrites() {
	ctx := context.Background()
	o := suite.addOrder()

	uow := suite.factory.Create()
	suite.Require().NoError(uow.Begin(ctx))

	loaded, err := uow.OrderRepository().Get(ctx, o.ID())
	suite.Require().NoError(err)
	_, err = loaded.Apply(order.DefaultTable(), order.EventVendorAccepted, order.ShipmentDetails{})
	suite.Require().NoError(err)
	suite.Require().NoError(uow.OrderRepository().CompareAndSwap(ctx, loaded, loaded.Version()))
	n, err := notification.NewNotification(loaded, "Your order is in prepress.", time.Now())
	suite.Require().NoError(err)
	suite.Require().NoError(uow.NotificationOutbox().Add(ctx, n))

	suite.Require().NoError(uow.Rollback(ctx))

	reader := suite.factory.Create()
	stored, err := reader.OrderRepository().Get(ctx, o.ID())
	suite.Require().NoError(err)
	suite.Equal(order.Pending, stored.Status())
	suite.Equal(int64(1), stored.Version())

	pending, err := reader.NotificationOutbox().ListPending(ctx, 10)
	suite.Require().NoError(err)
	suite.Empty(pending)
}

func (suite *UnitOfWorkIntegrationTestSuite) TestUnitOfWork_TracksWritesUntilCommit() {
	ctx := context.Background()
	uow := suite.factory.Create().(*postgres_adapter.GormUnitOfWork)

	suite.Require().NoError(uow.Begin(ctx))
	o, err := order.NewOrder(kernel.NewUUID(), kernel.MustVendorID("acme"))
	suite.Require().NoError(err)
	suite.Require().NoError(uow.OrderRepository().Add(ctx, o))
	suite.Equal(1, uow.TrackedCount())

	suite.Require().NoError(uow.Commit(ctx))
	suite.Equal(0, uow.TrackedCount())
}

func (suite *UnitOfWorkIntegrationTestSuite) TestUnitOfWork_RepositoryIsolation() {
	ctx := context.Background()
	uow1 := suite.factory.Create()
	uow2 := suite.factory.Create()

	order1, _ := order.NewOrder(kernel.NewUUID(), kernel.MustVendorID("acme"))
	order2, _ := order.NewOrder(kernel.NewUUID(), kernel.MustVendorID("acme"))

	suite.Require().NoError(uow1.Begin(ctx))
	suite.Require().NoError(uow2.Begin(ctx))
	suite.Require().NoError(uow1.OrderRepository().Add(ctx, order1))
	suite.Require().NoError(uow2.OrderRepository().Add(ctx, order2))

	_, err := uow1.OrderRepository().Get(ctx, order2.ID())
	suite.Require().Error(err, "UOW1 should not see order2")
	_, err = uow2.OrderRepository().Get(ctx, order1.ID())
	suite.Require().Error(err, "UOW2 should not see order1")

	suite.Require().NoError(uow1.Commit(ctx))
	suite.Require().NoError(uow2.Rollback(ctx))

	reader := suite.factory.Create()
	_, err = reader.OrderRepository().Get(ctx, order1.ID())
	suite.Require().NoError(err)
	_, err = reader.OrderRepository().Get(ctx, order2.ID())
	suite.Require().Error(err)
}

func (suite *UnitOfWorkIntegrationTestSuite) addOrder() *order.Order {
	o, err := order.NewOrder(kernel.NewUUID(), kernel.MustVendorID("acme"))
	suite.Require().NoError(err)
	suite.Require().NoError(suite.factory.Create().OrderRepository().Add(context.Background(), o))
	return o
}

func TestUnitOfWorkIntegrationSuite(t *testing.T) {
	suite.Run(t, new(UnitOfWorkIntegrationTestSuite))
}
