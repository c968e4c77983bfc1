package orderrepo_test

import (
	"context"
	"strings"
	"testing"
	"time"

	"dispatch/internal/adapters/out/postgres/orderrepo"
	"dispatch/internal/core/domain/model/kernel"
	"dispatch/internal/core/domain/model/order"
	"dispatch/internal/pkg/errs"

	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/suite"
	"github.com/testcontainers/testcontainers-go"
	"github.com/testcontainers/testcontainers-go/modules/postgres"
	"github.com/testcontainers/testcontainers-go/wait"
	postgresdriver "gorm.io/driver/postgres"
	"gorm.io/gorm"
)

// MockAggregateTracker is a mock implementation of aggregateTracker interface.
type MockAggregateTracker struct {
	mock.Mock
}

func (m *MockAggregateTracker) TrackAggregate(id kernel.UUID, aggregate interface{}) {
	m.Called(id, aggregate)
}

// OrderRepositoryIntegrationTestSuite provides integration tests for OrderRepository
// using PostgreSQL containers to verify database persistence behavior.
type OrderRepositoryIntegrationTestSuite struct {
	suite.Suite
	container  *postgres.PostgresContainer
	db         *gorm.DB
	repository *orderrepo.GormOrderRepository
	tracker    *MockAggregateTracker
}

func (suite *OrderRepositoryIntegrationTestSuite) SetupSuite() {
	ctx := context.Background()

	// Start PostgreSQL container
	container, err := postgres.Run(ctx,
		"postgres:15-alpine",
		postgres.WithDatabase("testdb"),
		postgres.WithUsername("testuser"),
		postgres.WithPassword("testpass"),
		testcontainers.WithWaitStrategy(
			wait.ForLog("database system is ready to accept connections").
				WithOccurrence(2).
				WithStartupTimeout(30*time.Second),
		),
	)
	suite.Require().NoError(err)
	suite.container = container

	// Get connection string and connect to database
	connStr, err := container.ConnectionString(ctx, "sslmode=disable")
	suite.Require().NoError(err)

	db, err := gorm.Open(postgresdriver.Open(connStr), &gorm.Config{})
	suite.Require().NoError(err)
	suite.db = db

	// Auto-migrate the schema
	suite.Require().NoError(db.AutoMigrate(&orderrepo.OrderDTO{}, &orderrepo.StatusLogDTO{}))
}

func (suite *OrderRepositoryIntegrationTestSuite) SetupTest() {
	// Clean the database before each test
	suite.Require().NoError(suite.db.Exec("TRUNCATE TABLE orders, order_status_log").Error)

	// Create fresh repository and tracker for each test
	suite.tracker = new(MockAggregateTracker)
	suite.repository = orderrepo.NewGormOrderRepository(suite.db, suite.tracker)
}

func (suite *OrderRepositoryIntegrationTestSuite) TearDownSuite() {
	if suite.container != nil {
		suite.Require().NoError(suite.container.Terminate(context.Background()))
	}
}

func (suite *OrderRepositoryIntegrationTestSuite) TestAdd_ValidOrder_Success() {
	ctx := context.Background()

	// Create valid order
	testOrder := suite.createTestOrder()

	// Set expectations on mock
	suite.tracker.On("TrackAggregate", testOrder.ID(), testOrder).Once()

	// Add order to repository
	err := suite.repository.Add(ctx, testOrder)
	suite.Require().NoError(err)

	// Verify order and its initial ledger entry were persisted
	suite.assertOrderCount(1)
	suite.assertLedgerCount(testOrder.ID(), 1)

	// Assert that all expectations were met
	suite.tracker.AssertExpectations(suite.T())
}

func (suite *OrderRepositoryIntegrationTestSuite) TestGet_ExistingOrder_ReturnsOrder() {
	ctx := context.Background()

	// Create and add order
	testOrder := suite.createTestOrder()
	suite.tracker.On("TrackAggregate", testOrder.ID(), testOrder).Once()

	err := suite.repository.Add(ctx, testOrder)
	suite.Require().NoError(err)

	// Retrieve order
	retrievedOrder, err := suite.repository.Get(ctx, testOrder.ID())
	suite.Require().NoError(err)

	// Verify order details
	suite.Equal(testOrder.ID(), retrievedOrder.ID())
	suite.InDelta(testOrder.Pickup().Latitude(), retrievedOrder.Pickup().Latitude(), 1e-9)
	suite.InDelta(testOrder.Pickup().Longitude(), retrievedOrder.Pickup().Longitude(), 1e-9)
	suite.InDelta(testOrder.Delivery().Latitude(), retrievedOrder.Delivery().Latitude(), 1e-9)
	suite.Equal(testOrder.WeightGrams(), retrievedOrder.WeightGrams())
	suite.InDelta(testOrder.ClientFee(), retrievedOrder.ClientFee(), 1e-9)
	suite.InDelta(testOrder.DriverRemuneration(), retrievedOrder.DriverRemuneration(), 1e-9)
	suite.Equal(order.Pending, retrievedOrder.Status())
	suite.Nil(retrievedOrder.OfferedDriver())
	suite.Nil(retrievedOrder.AssignedDriver())
	suite.Zero(retrievedOrder.AssignmentAttemptCount())

	// Assert that all expectations were met
	suite.tracker.AssertExpectations(suite.T())
}

func (suite *OrderRepositoryIntegrationTestSuite) TestGet_NonExistentOrder_ReturnsNotFoundError() {
	ctx := context.Background()

	// Try to get non-existent order
	nonExistentID := kernel.NewUUID()
	retrievedOrder, err := suite.repository.Get(ctx, nonExistentID)

	// Verify error and result
	suite.Nil(retrievedOrder)
	suite.Require().Error(err)

	var notFoundErr *errs.ObjectNotFoundError
	suite.Require().ErrorAs(err, &notFoundErr)

	// Assert no unexpected calls
	suite.tracker.AssertExpectations(suite.T())
}

func (suite *OrderRepositoryIntegrationTestSuite) TestUpdate_OfferRoundTrip() {
	ctx := context.Background()
	now := time.Now().UTC().Truncate(time.Microsecond)

	// Create and add pending order
	testOrder := suite.createTestOrder()
	suite.tracker.On("TrackAggregate", testOrder.ID(), testOrder).Times(3)
	suite.Require().NoError(suite.repository.Add(ctx, testOrder))

	// Place an offer and register the search round
	driverID := kernel.NewUUID()
	expiresAt := now.Add(time.Minute)
	testOrder.RegisterAttempt()
	suite.Require().NoError(testOrder.ProposeTo(driverID, expiresAt))
	suite.Require().NoError(suite.repository.Update(ctx, testOrder))

	// Verify the offer state survived the round trip
	retrievedOrder, err := suite.repository.Get(ctx, testOrder.ID())
	suite.Require().NoError(err)
	suite.Require().NotNil(retrievedOrder.OfferedDriver())
	suite.True(driverID.IsEqual(*retrievedOrder.OfferedDriver()))
	suite.Require().NotNil(retrievedOrder.OfferExpiresAt())
	suite.True(expiresAt.Equal(*retrievedOrder.OfferExpiresAt()))
	suite.Equal(1, retrievedOrder.AssignmentAttemptCount())
	suite.Require().Len(retrievedOrder.TriedDriverIDs(), 1)
	suite.True(driverID.IsEqual(retrievedOrder.TriedDriverIDs()[0]))

	// Accept the offer and update again
	suite.Require().NoError(testOrder.Accept(driverID, now))
	suite.Require().NoError(suite.repository.Update(ctx, testOrder))

	// The offer columns must be cleared and the assignment recorded
	retrievedOrder, err = suite.repository.Get(ctx, testOrder.ID())
	suite.Require().NoError(err)
	suite.Equal(order.Accepted, retrievedOrder.Status())
	suite.Nil(retrievedOrder.OfferedDriver())
	suite.Nil(retrievedOrder.OfferExpiresAt())
	suite.Require().NotNil(retrievedOrder.AssignedDriver())
	suite.True(driverID.IsEqual(*retrievedOrder.AssignedDriver()))

	// Pending creation plus acceptance, two ledger entries
	suite.assertLedgerCount(testOrder.ID(), 2)

	suite.tracker.AssertExpectations(suite.T())
}

func (suite *OrderRepositoryIntegrationTestSuite) TestUpdate_NonExistentOrder_ReturnsError() {
	ctx := context.Background()

	// Create order that doesn't exist in database
	nonExistentOrder := suite.createTestOrder()

	// No expectations on tracker since operation should fail

	// Try to update non-existent order
	err := suite.repository.Update(ctx, nonExistentOrder)
	suite.Require().Error(err)

	// Assert no unexpected calls
	suite.tracker.AssertExpectations(suite.T())
}

func (suite *OrderRepositoryIntegrationTestSuite) TestGetWithExpiredOffers_ReturnsOnlyLapsedOffers() {
	ctx := context.Background()
	now := time.Now().UTC().Truncate(time.Microsecond)

	suite.tracker.On("TrackAggregate", mock.AnythingOfType("kernel.UUID"), mock.Anything).Times(3)

	// Order with a lapsed offer
	lapsedOrder := suite.createTestOrder()
	lapsedOrder.RegisterAttempt()
	suite.Require().NoError(lapsedOrder.ProposeTo(kernel.NewUUID(), now.Add(-time.Minute)))
	suite.Require().NoError(suite.repository.Add(ctx, lapsedOrder))

	// Order with a live offer
	liveOrder := suite.createTestOrder()
	liveOrder.RegisterAttempt()
	suite.Require().NoError(liveOrder.ProposeTo(kernel.NewUUID(), now.Add(time.Minute)))
	suite.Require().NoError(suite.repository.Add(ctx, liveOrder))

	// Order without an offer
	idleOrder := suite.createTestOrder()
	suite.Require().NoError(suite.repository.Add(ctx, idleOrder))

	// Only the lapsed offer is due
	expiredOrders, err := suite.repository.GetWithExpiredOffers(ctx, now)
	suite.Require().NoError(err)
	suite.Require().Len(expiredOrders, 1)
	suite.True(lapsedOrder.ID().IsEqual(expiredOrders[0].ID()))

	suite.tracker.AssertExpectations(suite.T())
}

func (suite *OrderRepositoryIntegrationTestSuite) TestGetWithExpiredOffers_NoOffersDue_ReturnsEmptySlice() {
	ctx := context.Background()
	now := time.Now().UTC()

	suite.tracker.On("TrackAggregate", mock.AnythingOfType("kernel.UUID"), mock.Anything).Once()

	liveOrder := suite.createTestOrder()
	liveOrder.RegisterAttempt()
	suite.Require().NoError(liveOrder.ProposeTo(kernel.NewUUID(), now.Add(time.Minute)))
	suite.Require().NoError(suite.repository.Add(ctx, liveOrder))

	expiredOrders, err := suite.repository.GetWithExpiredOffers(ctx, now)
	suite.Require().NoError(err)
	suite.Empty(expiredOrders)

	suite.tracker.AssertExpectations(suite.T())
}

// TestOrderRepository_ErrorScenarios verifies error handling for various failure cases.
func (suite *OrderRepositoryIntegrationTestSuite) TestOrderRepository_ErrorScenarios() {
	testCases := []struct {
		name      string
		operation func() error
		expected  string
	}{
		{
			name: "get with invalid UUID",
			operation: func() error {
				invalidID := kernel.UUID{}
				_, err := suite.repository.Get(context.Background(), invalidID)
				return err
			},
			expected: "required",
		},
		{
			name: "get non-existent order",
			operation: func() error {
				nonExistentID := kernel.NewUUID()
				_, err := suite.repository.Get(context.Background(), nonExistentID)
				return err
			},
			expected: "not found",
		},
		{
			name: "update non-existent order",
			operation: func() error {
				nonExistentOrder := suite.createTestOrder()
				return suite.repository.Update(context.Background(), nonExistentOrder)
			},
			expected: "record not found",
		},
	}

	for _, tc := range testCases {
		suite.Run(tc.name, func() {
			err := tc.operation()
			suite.Require().Error(err)
			suite.Contains(strings.ToLower(err.Error()), strings.ToLower(tc.expected))
			suite.tracker.AssertExpectations(suite.T())
		})
	}
}

// TestOrderRepository_CancellationLedger verifies that cancellation metadata
// lands in the status log.
func (suite *OrderRepositoryIntegrationTestSuite) TestOrderRepository_CancellationLedger() {
	ctx := context.Background()
	now := time.Now().UTC().Truncate(time.Microsecond)

	testOrder := suite.createTestOrder()
	suite.tracker.On("TrackAggregate", testOrder.ID(), testOrder).Times(2)
	suite.Require().NoError(suite.repository.Add(ctx, testOrder))

	suite.Require().NoError(testOrder.Cancel(nil, now, map[string]string{"reason": "no_driver_found"}))
	suite.Require().NoError(suite.repository.Update(ctx, testOrder))

	var logRow struct {
		Status   string
		Metadata []byte
	}
	err := suite.db.Table("order_status_log").
		Select("status, metadata").
		Where("order_id = ? AND status = ?", testOrder.ID().Bytes(), order.Cancelled.String()).
		Take(&logRow).Error
	suite.Require().NoError(err)
	suite.Equal(order.Cancelled.String(), logRow.Status)
	suite.Contains(string(logRow.Metadata), "no_driver_found")

	suite.tracker.AssertExpectations(suite.T())
}

// TestOrderRepository_Concurrency verifies repository behavior under concurrent access.
func (suite *OrderRepositoryIntegrationTestSuite) TestOrderRepository_Concurrency() {
	ctx := context.Background()

	// Create initial order
	initialOrder := suite.createTestOrder()
	suite.tracker.On("TrackAggregate", initialOrder.ID(), initialOrder).Once()
	err := suite.repository.Add(ctx, initialOrder)
	suite.Require().NoError(err)

	// Simulate concurrent reads
	results := make(chan *order.Order, 3)
	errors := make(chan error, 3)

	for range 3 {
		go func() {
			retrievedOrder, readErr := suite.repository.Get(ctx, initialOrder.ID())
			if readErr != nil {
				errors <- readErr
			} else {
				results <- retrievedOrder
			}
		}()
	}

	// Collect results
	for range 3 {
		select {
		case result := <-results:
			suite.Equal(initialOrder.ID(), result.ID())
		case readErr := <-errors:
			suite.Failf("Unexpected error in concurrent read", "%v", readErr)
		}
	}

	suite.tracker.AssertExpectations(suite.T())
}

// createTestOrder creates a basic pending order with default values.
func (suite *OrderRepositoryIntegrationTestSuite) createTestOrder() *order.Order {
	id := kernel.NewUUID()
	pickup, err := kernel.NewLocation(48.8566, 2.3522)
	suite.Require().NoError(err)
	delivery, err := kernel.NewLocation(48.8606, 2.3376)
	suite.Require().NoError(err)

	testOrder, err := order.NewOrder(id, pickup, delivery, 4_500, 12.50, 8.75, time.Now().UTC())
	suite.Require().NoError(err)
	return testOrder
}

// assertOrderCount verifies the number of orders in the database.
func (suite *OrderRepositoryIntegrationTestSuite) assertOrderCount(expected int) {
	var count int64
	err := suite.db.Model(&orderrepo.OrderDTO{}).Count(&count).Error
	suite.Require().NoError(err)
	suite.Equal(int64(expected), count)
}

// assertLedgerCount verifies the number of status log rows for an order.
func (suite *OrderRepositoryIntegrationTestSuite) assertLedgerCount(orderID kernel.UUID, expected int) {
	var count int64
	err := suite.db.Model(&orderrepo.StatusLogDTO{}).Where("order_id = ?", orderID.Bytes()).Count(&count).Error
	suite.Require().NoError(err)
	suite.Equal(int64(expected), count)
}

func TestOrderRepositoryIntegrationTestSuite(t *testing.T) {
	suite.Run(t, new(OrderRepositoryIntegrationTestSuite))
}
