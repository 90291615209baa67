package orderrepo_test

import (
	"context"
	"testing"
	"time"

	"backoffice/internal/adapters/out/postgres/agentrepo"
	"backoffice/internal/adapters/out/postgres/orderrepo"
	"backoffice/internal/adapters/out/postgres/pgtest"
	"backoffice/internal/adapters/out/postgres/shippingaccountrepo"
	"backoffice/internal/core/domain/model/agent"
	"backoffice/internal/core/domain/model/kernel"
	"backoffice/internal/core/domain/model/order"
	"backoffice/internal/core/domain/model/shipping"
	"backoffice/internal/core/ports"
	"backoffice/internal/pkg/errs"

	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/suite"
)

// MockAggregateTracker is a mock implementation of aggregateTracker interface.
type MockAggregateTracker struct {
	mock.Mock
}

func (m *MockAggregateTracker) TrackAggregate(id kernel.UUID, aggregate any) {
	m.Called(id, aggregate)
}

// OrderRepositoryIntegrationTestSuite verifies order persistence, including
// the conditional writes that guard concurrent assignment and tracking sync.
type OrderRepositoryIntegrationTestSuite struct {
	suite.Suite
	database   *pgtest.Database
	repository *orderrepo.GormOrderRepository
	tracker    *MockAggregateTracker
	now        time.Time
}

func (suite *OrderRepositoryIntegrationTestSuite) SetupSuite() {
	database, err := pgtest.Start(context.Background())
	suite.Require().NoError(err)
	suite.database = database
}

func (suite *OrderRepositoryIntegrationTestSuite) SetupTest() {
	suite.Require().NoError(suite.database.Truncate())

	suite.tracker = new(MockAggregateTracker)
	suite.tracker.On("TrackAggregate", mock.Anything, mock.Anything).Maybe()
	suite.repository = orderrepo.NewGormOrderRepository(suite.database.DB, suite.tracker)
	suite.now = time.Date(2025, 3, 10, 9, 0, 0, 0, time.UTC)
}

func (suite *OrderRepositoryIntegrationTestSuite) TearDownSuite() {
	suite.Require().NoError(suite.database.Terminate(context.Background()))
}

func (suite *OrderRepositoryIntegrationTestSuite) TestAdd_TracksAggregate() {
	ctx := context.Background()
	tracker := new(MockAggregateTracker)
	repository := orderrepo.NewGormOrderRepository(suite.database.DB, tracker)
	o := suite.newOrder("ref-1", 0)
	tracker.On("TrackAggregate", o.ID(), o).Once()

	suite.Require().NoError(repository.Add(ctx, o))

	tracker.AssertExpectations(suite.T())
}

func (suite *OrderRepositoryIntegrationTestSuite) TestAdd_DuplicateReference_ReturnsErrDuplicate() {
	ctx := context.Background()
	suite.Require().NoError(suite.repository.Add(ctx, suite.newOrder("ref-1", 0)))

	err := suite.repository.Add(ctx, suite.newOrder("ref-1", time.Minute))

	suite.Require().ErrorIs(err, ports.ErrDuplicate)
}

func (suite *OrderRepositoryIntegrationTestSuite) TestGet_RoundTrip() {
	ctx := context.Background()
	o := suite.newOrder("ref-1", 0)
	suite.Require().NoError(suite.repository.Add(ctx, o))

	got, err := suite.repository.Get(ctx, o.ID())

	suite.Require().NoError(err)
	suite.Equal(o.ID(), got.ID())
	suite.Equal("store-1", got.StoreID())
	suite.Equal("ref-1", got.ExternalReference())
	suite.Equal(order.Pending, got.Status())
	suite.Nil(got.AssignedAgentID())
	suite.True(o.CreatedAt().Equal(got.CreatedAt()))
}

func (suite *OrderRepositoryIntegrationTestSuite) TestGet_NonExistentOrder_ReturnsNotFoundError() {
	_, err := suite.repository.Get(context.Background(), kernel.NewUUID())

	suite.Require().ErrorIs(err, errs.ErrObjectNotFound)
}

func (suite *OrderRepositoryIntegrationTestSuite) TestGetByExternalReference() {
	ctx := context.Background()
	o := suite.newOrder("ref-1", 0)
	suite.Require().NoError(suite.repository.Add(ctx, o))

	got, err := suite.repository.GetByExternalReference(ctx, "store-1", "ref-1")
	suite.Require().NoError(err)
	suite.Equal(o.ID(), got.ID())

	_, err = suite.repository.GetByExternalReference(ctx, "store-2", "ref-1")
	suite.Require().ErrorIs(err, errs.ErrObjectNotFound)
}

func (suite *OrderRepositoryIntegrationTestSuite) TestKnownReferences() {
	ctx := context.Background()
	suite.Require().NoError(suite.repository.Add(ctx, suite.newOrder("ref-1", 0)))
	suite.Require().NoError(suite.repository.Add(ctx, suite.newOrder("ref-3", time.Minute)))

	known, err := suite.repository.KnownReferences(ctx, "store-1", []string{"ref-1", "ref-2", "ref-3"})

	suite.Require().NoError(err)
	suite.ElementsMatch([]string{"ref-1", "ref-3"}, known)
}

func (suite *OrderRepositoryIntegrationTestSuite) TestListUnassigned_MostRecentOldestFirst() {
	ctx := context.Background()
	a := suite.addAgent("A1")
	for i, ref := range []string{"r1", "r2", "r3", "r4"} {
		suite.Require().NoError(suite.repository.Add(ctx, suite.newOrder(ref, time.Duration(i)*time.Minute)))
	}
	assigned := suite.newOrder("r5", 10*time.Minute)
	suite.Require().NoError(suite.repository.Add(ctx, assigned))
	suite.assign(assigned, a)

	orders, err := suite.repository.ListUnassigned(ctx, 3)

	suite.Require().NoError(err)
	suite.Equal([]string{"r2", "r3", "r4"}, refs(orders))
}

func (suite *OrderRepositoryIntegrationTestSuite) TestAssignIfUnassigned_SecondWriterLoses() {
	ctx := context.Background()
	first := suite.addAgent("A1")
	second := suite.addAgent("A2")
	o := suite.newOrder("ref-1", 0)
	suite.Require().NoError(suite.repository.Add(ctx, o))

	stale, err := suite.repository.Get(ctx, o.ID())
	suite.Require().NoError(err)

	suite.Require().NoError(o.Assign(first.ID(), suite.now))
	written, err := suite.repository.AssignIfUnassigned(ctx, o)
	suite.Require().NoError(err)
	suite.True(written)

	suite.Require().NoError(stale.Assign(second.ID(), suite.now))
	written, err = suite.repository.AssignIfUnassigned(ctx, stale)
	suite.Require().NoError(err)
	suite.False(written)

	got, err := suite.repository.Get(ctx, o.ID())
	suite.Require().NoError(err)
	suite.Equal(first.ID(), *got.AssignedAgentID())
}

func (suite *OrderRepositoryIntegrationTestSuite) TestCountWorkloads_ExcludesResolvedOrders() {
	ctx := context.Background()
	a := suite.addAgent("A1")
	b := suite.addAgent("A2")
	account := suite.addAccount()

	open := suite.newOrder("r1", 0)
	delivered := suite.newOrder("r2", time.Minute)
	other := suite.newOrder("r3", 2*time.Minute)
	for _, o := range []*order.Order{open, delivered, other} {
		suite.Require().NoError(suite.repository.Add(ctx, o))
	}
	suite.assign(open, a)
	suite.assign(delivered, a)
	suite.assign(other, b)
	suite.bind(delivered, account)
	deliveredStatus := order.Delivered
	delivered.ApplyShippingUpdate(order.ShippingUpdate{ShippingStatus: "Delivered", Status: &deliveredStatus})
	suite.Require().NoError(suite.repository.UpdateShipping(ctx, delivered, account.ID()))

	loads, err := suite.repository.CountWorkloads(ctx)
	suite.Require().NoError(err)
	suite.Equal(1, loads[a.ID()].Assigned)
	suite.Equal(1, loads[b.ID()].Assigned)
	suite.NotNil(loads[a.ID()].LastAssignedAt)

	load, err := suite.repository.CountWorkload(ctx, a.ID())
	suite.Require().NoError(err)
	suite.Equal(1, load.Assigned)

	empty, err := suite.repository.CountWorkload(ctx, kernel.NewUUID())
	suite.Require().NoError(err)
	suite.Zero(empty.Assigned)
	suite.Nil(empty.LastAssignedAt)
}

func (suite *OrderRepositoryIntegrationTestSuite) TestListForTrackingSync_ScopedToAccount() {
	ctx := context.Background()
	mine := suite.addAccount()
	theirs := suite.addAccount()

	o1 := suite.newOrder("r1", 0)
	o2 := suite.newOrder("r2", time.Minute)
	o3 := suite.newOrder("r3", 2*time.Minute)
	for _, o := range []*order.Order{o1, o2, o3} {
		suite.Require().NoError(suite.repository.Add(ctx, o))
	}
	suite.bind(o1, mine)
	suite.bind(o2, theirs)

	orders, err := suite.repository.ListForTrackingSync(ctx, ports.TrackingSyncFilter{AccountID: mine.ID(), Limit: 10})

	suite.Require().NoError(err)
	suite.Equal([]string{"r1"}, refs(orders))
}

func (suite *OrderRepositoryIntegrationTestSuite) TestListForTrackingSync_TrackingNumberFilterIncludesResolved() {
	ctx := context.Background()
	account := suite.addAccount()
	o := suite.newOrder("r1", 0)
	suite.Require().NoError(suite.repository.Add(ctx, o))
	suite.bind(o, account)
	suite.Require().NoError(suite.database.DB.Exec(
		"UPDATE orders SET tracking_number = ?, status = 'delivered' WHERE id = ?",
		order.CorruptedTrackingNumber, o.ID().Bytes(),
	).Error)

	tn := order.CorruptedTrackingNumber
	orders, err := suite.repository.ListForTrackingSync(ctx, ports.TrackingSyncFilter{AccountID: account.ID(), TrackingNumber: &tn})
	suite.Require().NoError(err)
	suite.Len(orders, 1)

	byNumber, err := suite.repository.ListByTrackingNumber(ctx, tn)
	suite.Require().NoError(err)
	suite.Len(byNumber, 1)

	open, err := suite.repository.ListForTrackingSync(ctx, ports.TrackingSyncFilter{AccountID: account.ID()})
	suite.Require().NoError(err)
	suite.Empty(open)
}

func (suite *OrderRepositoryIntegrationTestSuite) TestUpdateShipping_ForeignAccountIsRejected() {
	ctx := context.Background()
	mine := suite.addAccount()
	theirs := suite.addAccount()
	o := suite.newOrder("r1", 0)
	suite.Require().NoError(suite.repository.Add(ctx, o))
	suite.bind(o, theirs)

	o.ApplyShippingUpdate(order.ShippingUpdate{TrackingNumber: "TRK-1"})
	err := suite.repository.UpdateShipping(ctx, o, mine.ID())
	suite.Require().ErrorIs(err, ports.ErrShippingAccountMismatch)

	got, err := suite.repository.Get(ctx, o.ID())
	suite.Require().NoError(err)
	suite.Empty(got.TrackingNumber())
}

func (suite *OrderRepositoryIntegrationTestSuite) TestForeignAccountOrders() {
	ctx := context.Background()
	mine := suite.addAccount()
	theirs := suite.addAccount()
	o1 := suite.newOrder("r1", 0)
	o2 := suite.newOrder("r2", time.Minute)
	o3 := suite.newOrder("r3", 2*time.Minute)
	for _, o := range []*order.Order{o1, o2, o3} {
		suite.Require().NoError(suite.repository.Add(ctx, o))
	}
	suite.bind(o1, mine)
	suite.bind(o2, theirs)

	foreign, err := suite.repository.ForeignAccountOrders(ctx, []kernel.UUID{o1.ID(), o2.ID(), o3.ID()}, mine.ID())

	suite.Require().NoError(err)
	suite.ElementsMatch([]kernel.UUID{o2.ID(), o3.ID()}, foreign)
}

func (suite *OrderRepositoryIntegrationTestSuite) TestBindShippingAccount_IsWriteOnce() {
	ctx := context.Background()
	first := suite.addAccount()
	second := suite.addAccount()
	o := suite.newOrder("r1", 0)
	suite.Require().NoError(suite.repository.Add(ctx, o))
	suite.bind(o, first)

	stale, err := order.RestoreOrder(o.ID(), o.StoreID(), o.ExternalReference(), o.CreatedAt(), order.RestoreState{Status: order.Pending})
	suite.Require().NoError(err)
	suite.Require().NoError(stale.BindShippingAccount(second.ID()))

	err = suite.repository.BindShippingAccount(ctx, stale)
	suite.Require().ErrorIs(err, ports.ErrShippingAccountMismatch)

	suite.Require().NoError(suite.repository.BindShippingAccount(ctx, o), "rebinding the same account is a no-op")
}

func (suite *OrderRepositoryIntegrationTestSuite) newOrder(ref string, offset time.Duration) *order.Order {
	o, err := order.NewOrder(kernel.NewUUID(), "store-1", ref, suite.now.Add(offset))
	suite.Require().NoError(err)
	return o
}

func (suite *OrderRepositoryIntegrationTestSuite) addAgent(code string) *agent.Agent {
	a, err := agent.NewAgent(kernel.NewUUID(), code, "Agent "+code, agent.FollowUp, 10, suite.now)
	suite.Require().NoError(err)
	suite.Require().NoError(agentrepo.NewGormAgentRepository(suite.database.DB, suite.tracker).Add(context.Background(), a))
	return a
}

func (suite *OrderRepositoryIntegrationTestSuite) addAccount() *shipping.Account {
	a, err := shipping.NewAccount(kernel.NewUUID(), "Maystro main", shipping.Maystro, "token", "https://api.maystro.test", suite.now)
	suite.Require().NoError(err)
	suite.Require().NoError(shippingaccountrepo.NewGormShippingAccountRepository(suite.database.DB, suite.tracker).Add(context.Background(), a))
	return a
}

func (suite *OrderRepositoryIntegrationTestSuite) assign(o *order.Order, a *agent.Agent) {
	suite.Require().NoError(o.Assign(a.ID(), suite.now))
	written, err := suite.repository.AssignIfUnassigned(context.Background(), o)
	suite.Require().NoError(err)
	suite.Require().True(written)
}

func (suite *OrderRepositoryIntegrationTestSuite) bind(o *order.Order, account *shipping.Account) {
	suite.Require().NoError(o.BindShippingAccount(account.ID()))
	suite.Require().NoError(suite.repository.BindShippingAccount(context.Background(), o))
}

func refs(orders []*order.Order) []string {
	result := make([]string, 0, len(orders))
	for _, o := range orders {
		result = append(result, o.ExternalReference())
	}
	return result
}

func TestOrderRepositoryIntegrationTestSuite(t *testing.T) {
	suite.Run(t, new(OrderRepositoryIntegrationTestSuite))
}
