package cmd

import (
	"fmt"

	httpin "dispatch/internal/adapters/in/http"
	kafkain "dispatch/internal/adapters/in/kafka"
	kafkaout "dispatch/internal/adapters/out/kafka"
	"dispatch/internal/adapters/out/postgres"
	"dispatch/internal/adapters/out/postgres/outboxrepo"
	"dispatch/internal/adapters/out/pricing"
	"dispatch/internal/adapters/out/push"
	"dispatch/internal/adapters/out/routing"
	"dispatch/internal/adapters/out/schedule"
	"dispatch/internal/core/application/usecases/commands"
	"dispatch/internal/core/application/usecases/queries"
	"dispatch/internal/core/domain/services"
	"dispatch/internal/jobs"

	"go.uber.org/zap"
	"gorm.io/gorm"
)

// CompositionRoot wires adapters, use cases, jobs and the consumer from
// configuration. Everything is constructed once at startup; construction
// errors abort the boot.
type CompositionRoot struct {
	gormDB     *gorm.DB
	uowFactory *postgres.GormUnitOfWorkFactory
	logger     *zap.Logger

	server    *httpin.Server
	consumer  *kafkain.LifecycleConsumer
	publisher *kafkaout.Publisher
	jobs      *jobs.JobManager
}

// NewCompositionRoot builds the full object graph for the service.
func NewCompositionRoot(config Config, gormDB *gorm.DB, logger *zap.Logger) (*CompositionRoot, error) {
	uowFactory := postgres.NewGormUnitOfWorkFactory(gormDB)

	var fullFactory commands.UoWFactory = FuncUoWFactory(func() commands.UoW {
		return uowFactory.Create()
	})
	var orderFactory commands.OrderUoWFactory = FuncOrderUoWFactory(func() commands.OrderUoW {
		return uowFactory.Create()
	})
	var driverFactory commands.DriverUoWFactory = FuncDriverUoWFactory(func() commands.DriverUoW {
		return uowFactory.Create()
	})

	routingClient, err := routing.NewClient(config.RoutingBaseURL)
	if err != nil {
		return nil, fmt.Errorf("routing client: %w", err)
	}

	pricingClient, err := pricing.NewClient(config.PricingBaseURL)
	if err != nil {
		return nil, fmt.Errorf("pricing client: %w", err)
	}

	pushClient, err := push.NewClient(config.PushBaseURL)
	if err != nil {
		return nil, fmt.Errorf("push client: %w", err)
	}

	scheduleClient, err := schedule.NewClient(config.ScheduleBaseURL)
	if err != nil {
		return nil, fmt.Errorf("schedule client: %w", err)
	}

	settings := commands.DispatchSettings{
		OfferTTL:              config.OfferTTL,
		MaxAssignmentAttempts: config.MaxAssignmentAttempts,
		SearchRadiusKm:        config.SearchRadiusKm,
		LocationFreshness:     config.LocationFreshness,
	}
	if err := settings.Validate(); err != nil {
		return nil, fmt.Errorf("dispatch settings: %w", err)
	}

	matcher := services.NewDriverMatcher()

	createOrder := commands.NewCreateOrderCommandHandler(orderFactory, routingClient, pricingClient)
	acceptOffer := commands.NewAcceptOfferCommandHandler(fullFactory)
	refuseOffer := commands.NewRefuseOfferCommandHandler(fullFactory)
	reportProgress := commands.NewReportOrderProgressCommandHandler(orderFactory)
	completeOrder := commands.NewCompleteOrderCommandHandler(fullFactory, scheduleClient)
	failOrder := commands.NewFailOrderCommandHandler(fullFactory, scheduleClient)
	cancelOrder := commands.NewCancelOrderCommandHandler(fullFactory, scheduleClient)
	createDriver := commands.NewCreateDriverCommandHandler(driverFactory)
	changeStatus := commands.NewChangeDriverStatusCommandHandler(driverFactory)
	reportLocation := commands.NewReportDriverLocationCommandHandler(driverFactory)
	escalateOrder := commands.NewEscalateOrderCommandHandler(fullFactory)
	expireOffer := commands.NewExpireOfferCommandHandler(fullFactory)
	scanExpiredOffers := commands.NewScanExpiredOffersCommandHandler(orderFactory)

	dispatchOrder, err := commands.NewDispatchOrderCommandHandler(fullFactory, matcher, pushClient, settings)
	if err != nil {
		return nil, fmt.Errorf("dispatch order handler: %w", err)
	}

	manuallyAssign, err := commands.NewManuallyAssignOrderCommandHandler(fullFactory, pushClient, settings)
	if err != nil {
		return nil, fmt.Errorf("manually assign handler: %w", err)
	}

	server, err := httpin.NewServer(httpin.ServerHandlers{
		CreateOrder:    &createOrder,
		AcceptOffer:    &acceptOffer,
		RefuseOffer:    &refuseOffer,
		ReportProgress: &reportProgress,
		CompleteOrder:  &completeOrder,
		FailOrder:      &failOrder,
		ManuallyAssign: &manuallyAssign,
		CancelOrder:    &cancelOrder,
		CreateDriver:   &createDriver,
		ChangeStatus:   &changeStatus,
		ReportLocation: &reportLocation,

		GetUncompletedOrders: queries.NewGetUncompletedOrdersQueryHandler(gormDB),
		GetEscalatedOrders:   queries.NewGetEscalatedOrdersQueryHandler(gormDB),
		GetAllDrivers:        queries.NewGetAllDriversQueryHandler(gormDB),
	})
	if err != nil {
		return nil, fmt.Errorf("http server: %w", err)
	}

	writer := kafkaout.NewWriter(config.KafkaBrokers, config.KafkaLifecycleTopic)

	publisher, err := kafkaout.NewPublisher(writer)
	if err != nil {
		return nil, fmt.Errorf("kafka publisher: %w", err)
	}

	reader := kafkain.NewReader(config.KafkaBrokers, config.KafkaLifecycleTopic, config.KafkaConsumerGroup)

	consumer, err := kafkain.NewLifecycleConsumer(reader, &dispatchOrder, &expireOffer, &escalateOrder, logger)
	if err != nil {
		return nil, fmt.Errorf("lifecycle consumer: %w", err)
	}

	jobManager := jobs.NewJobManager(
		jobs.NewOfferExpirationJob(&scanExpiredOffers, config.ScanCronSpec, logger),
		jobs.NewOutboxRelayJob(outboxrepo.NewGormOutboxRepository(gormDB), publisher, config.ScanCronSpec, logger),
	)

	return &CompositionRoot{
		gormDB:     gormDB,
		uowFactory: uowFactory,
		logger:     logger,
		server:     server,
		consumer:   consumer,
		publisher:  publisher,
		jobs:       jobManager,
	}, nil
}

// Server returns the HTTP server.
func (c *CompositionRoot) Server() *httpin.Server {
	return c.server
}

// Consumer returns the lifecycle event consumer.
func (c *CompositionRoot) Consumer() *kafkain.LifecycleConsumer {
	return c.consumer
}

// Jobs returns the background job manager.
func (c *CompositionRoot) Jobs() *jobs.JobManager {
	return c.jobs
}

// Close releases the Kafka resources held by the graph.
func (c *CompositionRoot) Close() error {
	consumerErr := c.consumer.Close()
	publisherErr := c.publisher.Close()

	if consumerErr != nil {
		return consumerErr
	}
	return publisherErr
}

type FuncUoWFactory func() commands.UoW

func (f FuncUoWFactory) Create() commands.UoW {
	return f()
}

type FuncOrderUoWFactory func() commands.OrderUoW

func (f FuncOrderUoWFactory) Create() commands.OrderUoW {
	return f()
}

type FuncDriverUoWFactory func() commands.DriverUoW

func (f FuncDriverUoWFactory) Create() commands.DriverUoW {
	return f()
}
