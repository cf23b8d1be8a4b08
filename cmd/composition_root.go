package cmd

import (
	"context"
	"errors"
	"fmt"
	"log/slog"

	httpadapter "fulfillment/internal/adapters/in/http"
	"fulfillment/internal/adapters/in/http/api"
	"fulfillment/internal/adapters/out/kafka"
	"fulfillment/internal/adapters/out/mappingfile"
	"fulfillment/internal/adapters/out/postgres"
	"fulfillment/internal/adapters/out/secrets"
	"fulfillment/internal/core/application/usecases/commands"
	"fulfillment/internal/core/application/usecases/queries"
	"fulfillment/internal/core/domain/model/order"
	"fulfillment/internal/core/domain/model/vendor"
	"fulfillment/internal/core/domain/services"
	"fulfillment/internal/core/ports"
	"fulfillment/internal/jobs"

	"github.com/labstack/echo/v4"
	"github.com/twmb/franz-go/pkg/kgo"
	"gorm.io/gorm"
)

const kafkaClientID = "fulfillment"

type CompositionRoot struct {
	configs    Config
	gormDB     *gorm.DB
	uowFactory *postgres.GormUnitOfWorkFactory
	logger     *slog.Logger

	table     order.Table
	registry  *vendor.Registry
	secrets   ports.VendorSecretStore
	kafka     *kgo.Client
	publisher *kafka.NotificationPublisher

	closers []func() error
}

// NewCompositionRoot builds the long-lived dependencies. The mapping registry is
// validated against the transition table here, so the process refuses to start
// with a mapping that points at an impossible transition.
func NewCompositionRoot(ctx context.Context, configs Config, gormDB *gorm.DB, logger *slog.Logger) (*CompositionRoot, error) {
	c := &CompositionRoot{
		configs:    configs,
		gormDB:     gormDB,
		uowFactory: postgres.NewGormUnitOfWorkFactory(gormDB),
		logger:     logger,
		table:      order.DefaultTable(),
	}

	var err error
	if c.registry, err = c.createRegistry(); err != nil {
		return nil, err
	}
	if c.secrets, err = c.createSecretStore(ctx); err != nil {
		_ = c.Close()
		return nil, err
	}

	if c.kafka, err = kafka.NewClient(configs.KafkaBrokers(), kafkaClientID); err != nil {
		_ = c.Close()
		return nil, fmt.Errorf("create kafka client: %w", err)
	}
	c.closers = append(c.closers, func() error {
		c.kafka.Close()
		return nil
	})

	if c.publisher, err = kafka.NewNotificationPublisher(c.kafka, configs.KafkaOrderStatusTopic); err != nil {
		_ = c.Close()
		return nil, err
	}

	return c, nil
}

// Close releases external clients in reverse order of creation.
func (c *CompositionRoot) Close() error {
	var problems []error
	for i := len(c.closers) - 1; i >= 0; i-- {
		problems = append(problems, c.closers[i]())
	}
	c.closers = nil
	return errors.Join(problems...)
}

func (c *CompositionRoot) createRegistry() (*vendor.Registry, error) {
	overrides := map[string][]vendor.Mapping{}
	if c.configs.VendorMappingsFile != "" {
		loaded, err := mappingfile.LoadFile(c.configs.VendorMappingsFile, c.table)
		if err != nil {
			return nil, err
		}
		overrides = loaded
	}

	registry, err := vendor.NewRegistry(vendor.DefaultMappings(), overrides)
	if err != nil {
		return nil, fmt.Errorf("build vendor mapping registry: %w", err)
	}
	if err = registry.Validate(c.table); err != nil {
		return nil, fmt.Errorf("validate vendor mapping registry: %w", err)
	}

	c.logger.Info("Vendor mapping registry loaded", "overrides", registry.Vendors())
	return registry, nil
}

func (c *CompositionRoot) createSecretStore(ctx context.Context) (ports.VendorSecretStore, error) {
	static, err := secrets.ParseStaticStore(c.configs.VendorSecrets)
	if err != nil {
		return nil, err
	}
	stores := []ports.VendorSecretStore{static}

	if c.configs.SecretManagerProject != "" {
		manager, err := secrets.NewSecretManagerStore(ctx, c.configs.SecretManagerProject)
		if err != nil {
			return nil, err
		}
		c.closers = append(c.closers, manager.Close)
		stores = append(stores, manager)
	}

	c.logger.Info("Vendor secret stores configured",
		"staticVendors", static.Len(), "secretManager", c.configs.SecretManagerProject != "")
	return secrets.NewChainStore(stores...), nil
}

func (c *CompositionRoot) unitOfWork() commands.UoWFactory {
	return FuncUoWFactory(func() commands.UoW {
		return c.uowFactory.Create()
	})
}

func (c *CompositionRoot) CreateReconcileVendorSignalCommandHandler() commands.ReconcileVendorSignalCommandHandler {
	return commands.NewReconcileVendorSignalCommandHandler(
		c.unitOfWork(),
		c.table,
		c.secrets,
		services.NewSignatureVerifier(),
		c.registry,
		c.logger,
	)
}

func (c *CompositionRoot) CreateApplyCustomerActionCommandHandler() commands.ApplyCustomerActionCommandHandler {
	return commands.NewApplyCustomerActionCommandHandler(c.unitOfWork(), c.table, c.logger)
}

func (c *CompositionRoot) CreateCreateOrderCommandHandler() commands.CreateOrderCommandHandler {
	var f commands.OrderUoWFactory = FuncOrderUoWFactory(func() commands.OrderUoW {
		return c.uowFactory.Create()
	})
	return commands.NewCreateOrderCommandHandler(f)
}

func (c *CompositionRoot) CreateRelayNotificationsCommandHandler() commands.RelayNotificationsCommandHandler {
	var f commands.OutboxUoWFactory = FuncOutboxUoWFactory(func() commands.OutboxUoW {
		return c.uowFactory.Create()
	})
	return commands.NewRelayNotificationsCommandHandler(f, c.publisher, c.logger)
}

func (c *CompositionRoot) CreateGetOrderStatusQueryHandler() queries.GetOrderStatusQueryHandler {
	return queries.NewGetOrderStatusQueryHandler(c.gormDB)
}

func (c *CompositionRoot) CreateGetOnHoldOrdersQueryHandler() queries.GetOnHoldOrdersQueryHandler {
	return queries.NewGetOnHoldOrdersQueryHandler(c.gormDB)
}

// CreateRouter wires the HTTP server onto an echo instance.
func (c *CompositionRoot) CreateRouter(ctx context.Context) (*echo.Echo, error) {
	doc, err := api.Load(ctx)
	if err != nil {
		return nil, err
	}
	validator, err := httpadapter.NewBodyValidator(doc)
	if err != nil {
		return nil, err
	}

	server := httpadapter.NewServer(
		c.CreateReconcileVendorSignalCommandHandler(),
		c.CreateApplyCustomerActionCommandHandler(),
		c.CreateCreateOrderCommandHandler(),
		c.CreateGetOrderStatusQueryHandler(),
		c.CreateGetOnHoldOrdersQueryHandler(),
		validator,
		c.logger,
	)
	return httpadapter.NewRouter(server, api.Document(), c.logger), nil
}

func (c *CompositionRoot) CreateJobManager() *jobs.JobManager {
	return jobs.NewJobManager(
		c.CreateRelayNotificationsCommandHandler(),
		c.CreateGetOnHoldOrdersQueryHandler(),
		jobs.Schedules{
			NotificationRelay: c.configs.OutboxRelaySchedule,
			HoldReport:        c.configs.HoldReportSchedule,
		},
		commands.DefaultRelayBatchSize,
		c.logger,
	)
}

type FuncOrderUoWFactory func() commands.OrderUoW

func (f FuncOrderUoWFactory) Create() commands.OrderUoW {
	return f()
}

type FuncOutboxUoWFactory func() commands.OutboxUoW

func (f FuncOutboxUoWFactory) Create() commands.OutboxUoW {
	return f()
}

type FuncUoWFactory func() commands.UoW

func (f FuncUoWFactory) Create() commands.UoW {
	return f()
}
