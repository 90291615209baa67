package postgres_test

import (
	"context"
	"testing"
	"time"

	postgres_adapter "backoffice/internal/adapters/out/postgres"
	"backoffice/internal/adapters/out/postgres/pgtest"
	"backoffice/internal/core/domain/model/agent"
	"backoffice/internal/core/domain/model/kernel"
	"backoffice/internal/core/domain/model/order"
	"backoffice/internal/core/domain/model/settings"
	"backoffice/internal/core/ports"
	"backoffice/internal/pkg/errs"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/suite"
)

// UnitOfWorkIntegrationTestSuite exercises transactions across repositories
// against a real PostgreSQL instance.
type UnitOfWorkIntegrationTestSuite struct {
	suite.Suite
	database *pgtest.Database
	factory  ports.UnitOfWorkFactory
}

func (suite *UnitOfWorkIntegrationTestSuite) SetupSuite() {
	database, err := pgtest.Start(context.Background())
	suite.Require().NoError(err)
	suite.database = database
	suite.factory = postgres_adapter.NewGormUnitOfWorkFactory(database.DB)
}

func (suite *UnitOfWorkIntegrationTestSuite) SetupTest() {
	suite.Require().NoError(suite.database.Truncate())
}

func (suite *UnitOfWorkIntegrationTestSuite) TearDownSuite() {
	suite.Require().NoError(suite.database.Terminate(context.Background()))
}

func (suite *UnitOfWorkIntegrationTestSuite) TestUnitOfWorkFactory_Create() {
	uow1 := suite.factory.Create()
	uow2 := suite.factory.Create()

	suite.NotSame(uow1, uow2, "Factory should create separate instances")
	suite.NotNil(uow1.AgentRepository())
	suite.NotNil(uow1.OrderRepository())
	suite.NotNil(uow1.ShippingAccountRepository())
	suite.NotNil(uow1.SettingsRepository())
	suite.NotNil(uow1.WebhookEventRepository())
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

	suite.Require().Error(uow.Commit(ctx), "Should error when committing without active transaction")
	suite.Require().Error(uow.Rollback(ctx), "Should error when rolling back without active transaction")
}

func (suite *UnitOfWorkIntegrationTestSuite) TestUnitOfWork_MultiRepositoryTransaction() {
	ctx := context.Background()
	uow := suite.factory.Create()
	testAgent := createTestAgent("A1")
	testOrder := createTestOrder("ref-1")

	suite.Require().NoError(uow.Begin(ctx))
	suite.Require().NoError(uow.AgentRepository().Add(ctx, testAgent))
	suite.Require().NoError(uow.OrderRepository().Add(ctx, testOrder))

	suite.Require().NoError(testOrder.Assign(testAgent.ID(), time.Now()))
	written, err := uow.OrderRepository().AssignIfUnassigned(ctx, testOrder)
	suite.Require().NoError(err)
	suite.True(written)
	suite.Require().NoError(uow.Commit(ctx))

	retrieved, err := suite.factory.Create().OrderRepository().Get(ctx, testOrder.ID())
	suite.Require().NoError(err)
	suite.Require().NotNil(retrieved.AssignedAgentID())
	suite.Equal(testAgent.ID(), *retrieved.AssignedAgentID())
}

func (suite *UnitOfWorkIntegrationTestSuite) TestUnitOfWork_TransactionRollback() {
	ctx := context.Background()
	uow := suite.factory.Create()
	testAgent := createTestAgent("A1")
	testOrder := createTestOrder("ref-1")
	commission, err := settings.NewCommission(decimal.NewFromInt(100), decimal.NewFromInt(200), "DZD", time.Now())
	suite.Require().NoError(err)

	suite.Require().NoError(uow.Begin(ctx))
	suite.Require().NoError(uow.AgentRepository().Add(ctx, testAgent))
	suite.Require().NoError(uow.OrderRepository().Add(ctx, testOrder))
	suite.Require().NoError(uow.SettingsRepository().SaveCommission(ctx, commission))
	suite.Require().NoError(uow.Rollback(ctx))

	newUow := suite.factory.Create()
	_, err = newUow.AgentRepository().Get(ctx, testAgent.ID())
	suite.Require().ErrorIs(err, errs.ErrObjectNotFound)
	_, err = newUow.OrderRepository().Get(ctx, testOrder.ID())
	suite.Require().ErrorIs(err, errs.ErrObjectNotFound)
	_, err = newUow.SettingsRepository().GetCommission(ctx)
	suite.Require().ErrorIs(err, errs.ErrObjectNotFound)
}

func (suite *UnitOfWorkIntegrationTestSuite) TestUnitOfWork_RepositoryIsolation() {
	ctx := context.Background()
	uow1 := suite.factory.Create()
	uow2 := suite.factory.Create()
	order1 := createTestOrder("ref-1")
	order2 := createTestOrder("ref-2")

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

	newUow := suite.factory.Create()
	_, err = newUow.OrderRepository().Get(ctx, order1.ID())
	suite.Require().NoError(err)
	_, err = newUow.OrderRepository().Get(ctx, order2.ID())
	suite.Require().Error(err)
}

func (suite *UnitOfWorkIntegrationTestSuite) TestUnitOfWork_WithoutTransaction() {
	ctx := context.Background()
	uow := suite.factory.Create()
	testOrder := createTestOrder("ref-1")

	suite.Require().NoError(uow.OrderRepository().Add(ctx, testOrder))

	retrieved, err := suite.factory.Create().OrderRepository().Get(ctx, testOrder.ID())
	suite.Require().NoError(err)
	suite.Equal(testOrder.ID(), retrieved.ID())
}

func (suite *UnitOfWorkIntegrationTestSuite) TestUnitOfWork_AggregateTracking() {
	ctx := context.Background()
	uow := suite.factory.Create().(*postgres_adapter.GormUnitOfWork)

	suite.Require().NoError(uow.Begin(ctx))
	suite.Require().NoError(uow.AgentRepository().Add(ctx, createTestAgent("A1")))
	suite.Require().NoError(uow.OrderRepository().Add(ctx, createTestOrder("ref-1")))
	suite.Equal(2, uow.TrackedCount())

	suite.Require().NoError(uow.Commit(ctx))
	suite.Zero(uow.TrackedCount())
}

// TestUnitOfWork_AgentLockSerializesAssignments holds the agent row lock in
// one transaction and checks that a second locker waits for the commit and
// then sees the committed workload.
func (suite *UnitOfWorkIntegrationTestSuite) TestUnitOfWork_AgentLockSerializesAssignments() {
	ctx := context.Background()
	testAgent := createTestAgent("A1")
	testOrder := createTestOrder("ref-1")
	setup := suite.factory.Create()
	suite.Require().NoError(setup.AgentRepository().Add(ctx, testAgent))
	suite.Require().NoError(setup.OrderRepository().Add(ctx, testOrder))

	first := suite.factory.Create()
	suite.Require().NoError(first.Begin(ctx))
	_, err := first.AgentRepository().Lock(ctx, testAgent.ID())
	suite.Require().NoError(err)

	type lockResult struct {
		load agent.Load
		err  error
	}
	done := make(chan lockResult, 1)
	go func() {
		second := suite.factory.Create()
		if err := second.Begin(ctx); err != nil {
			done <- lockResult{err: err}
			return
		}
		defer func() { _ = second.Rollback(ctx) }()

		if _, err := second.AgentRepository().Lock(ctx, testAgent.ID()); err != nil {
			done <- lockResult{err: err}
			return
		}
		load, err := second.OrderRepository().CountWorkload(ctx, testAgent.ID())
		done <- lockResult{load: load, err: err}
	}()

	select {
	case <-done:
		suite.Fail("second transaction acquired the agent lock while the first held it")
	case <-time.After(300 * time.Millisecond):
	}

	suite.Require().NoError(testOrder.Assign(testAgent.ID(), time.Now()))
	written, err := first.OrderRepository().AssignIfUnassigned(ctx, testOrder)
	suite.Require().NoError(err)
	suite.True(written)
	suite.Require().NoError(first.Commit(ctx))

	select {
	case res := <-done:
		suite.Require().NoError(res.err)
		suite.Equal(1, res.load.Assigned)
	case <-time.After(5 * time.Second):
		suite.Fail("second transaction never acquired the agent lock")
	}
}

func createTestAgent(code string) *agent.Agent {
	a, err := agent.NewAgent(kernel.NewUUID(), code, "Agent "+code, agent.FollowUp, 10, time.Now())
	if err != nil {
		panic(err)
	}
	return a
}

func createTestOrder(ref string) *order.Order {
	o, err := order.NewOrder(kernel.NewUUID(), "store-1", ref, time.Now())
	if err != nil {
		panic(err)
	}
	return o
}

func TestUnitOfWorkIntegrationTestSuite(t *testing.T) {
	suite.Run(t, new(UnitOfWorkIntegrationTestSuite))
}
