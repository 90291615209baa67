package queries_test

import (
	"context"
	"testing"
	"time"

	"backoffice/internal/adapters/out/postgres/agentrepo"
	"backoffice/internal/adapters/out/postgres/orderrepo"
	"backoffice/internal/adapters/out/postgres/pgtest"
	"backoffice/internal/adapters/out/postgres/settingsrepo"
	"backoffice/internal/adapters/out/postgres/shippingaccountrepo"
	"backoffice/internal/adapters/out/postgres/webhookrepo"
	"backoffice/internal/core/application/usecases/queries"
	"backoffice/internal/core/domain/model/agent"
	"backoffice/internal/core/domain/model/kernel"
	"backoffice/internal/core/domain/model/order"
	"backoffice/internal/core/domain/model/settings"
	"backoffice/internal/core/domain/model/shipping"
	"backoffice/internal/core/domain/model/webhook"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/suite"
)

var now = time.Date(2025, 3, 10, 12, 0, 0, 0, time.UTC)

const threshold = 5 * time.Minute

func fixedNow() time.Time { return now }

type noopTracker struct{}

func (noopTracker) TrackAggregate(kernel.UUID, any) {}

type QueriesIntegrationTestSuite struct {
	suite.Suite
	database *pgtest.Database
}

func (suite *QueriesIntegrationTestSuite) SetupSuite() {
	database, err := pgtest.Start(context.Background())
	suite.Require().NoError(err)
	suite.database = database
}

func (suite *QueriesIntegrationTestSuite) SetupTest() {
	suite.Require().NoError(suite.database.Truncate())
}

func (suite *QueriesIntegrationTestSuite) TearDownSuite() {
	suite.Require().NoError(suite.database.Terminate(context.Background()))
}

func (suite *QueriesIntegrationTestSuite) addAgent(code string, maxOrders int, lastSeen *time.Time, active bool) *agent.Agent {
	a, err := agent.RestoreAgent(kernel.NewUUID(), code, "Agent "+code, agent.FollowUp, maxOrders, lastSeen, active, now.Add(-48*time.Hour))
	suite.Require().NoError(err)
	suite.Require().NoError(agentrepo.NewGormAgentRepository(suite.database.DB, noopTracker{}).Add(context.Background(), a))
	return a
}

func (suite *QueriesIntegrationTestSuite) addAccount(name string, p shipping.Provider) *shipping.Account {
	a, err := shipping.NewAccount(kernel.NewUUID(), name, p, "secret-token", "https://provider.test", now)
	suite.Require().NoError(err)
	suite.Require().NoError(shippingaccountrepo.NewGormShippingAccountRepository(suite.database.DB, noopTracker{}).Add(context.Background(), a))
	return a
}

func (suite *QueriesIntegrationTestSuite) addOrder(ref string, state order.RestoreState) *order.Order {
	if state.Status == order.Unknown {
		state.Status = order.Pending
	}
	if state.AssignedAgentID != nil && state.AssignedAt == nil {
		at := now.Add(-time.Hour)
		state.AssignedAt = &at
	}
	o, err := order.RestoreOrder(kernel.NewUUID(), "store-1", ref, now.Add(-2*time.Hour), state)
	suite.Require().NoError(err)
	suite.Require().NoError(orderrepo.NewGormOrderRepository(suite.database.DB, noopTracker{}).Add(context.Background(), o))
	return o
}

func ptr[T any](v T) *T { return &v }

func (suite *QueriesIntegrationTestSuite) TestGetAssignmentStats() {
	ctx := context.Background()
	online := suite.addAgent("A1", 4, ptr(now.Add(-time.Minute)), true)
	offline := suite.addAgent("A2", 10, ptr(now.Add(-time.Hour)), true)
	retired := suite.addAgent("A3", 10, ptr(now), false)

	suite.addOrder("R1", order.RestoreState{AssignedAgentID: ptr(online.ID())})
	suite.addOrder("R2", order.RestoreState{AssignedAgentID: ptr(online.ID()), Status: order.Shipped})
	suite.addOrder("R3", order.RestoreState{AssignedAgentID: ptr(online.ID()), Status: order.Delivered})
	suite.addOrder("R4", order.RestoreState{AssignedAgentID: ptr(retired.ID())})
	suite.addOrder("R5", order.RestoreState{})
	suite.addOrder("R6", order.RestoreState{})
	suite.addOrder("R7", order.RestoreState{Status: order.Cancelled})

	stats, err := queries.NewGetAssignmentStatsQueryHandler(suite.database.DB, threshold).
		WithClock(fixedNow).
		Handle(ctx, queries.NewGetAssignmentStatsQuery())

	suite.Require().NoError(err)
	suite.Equal(2, stats.TotalAgents)
	suite.Equal(1, stats.OnlineAgents)
	suite.Equal(2, stats.UnassignedOrders)
	suite.Equal(3, stats.AssignedOrders)
	suite.Require().Len(stats.Agents, 2)

	suite.Equal(online.ID(), stats.Agents[0].ID)
	suite.Equal(2, stats.Agents[0].Assigned)
	suite.InDelta(50.0, stats.Agents[0].UtilizationPercent, 0.001)
	suite.True(stats.Agents[0].Online)

	suite.Equal(offline.ID(), stats.Agents[1].ID)
	suite.Zero(stats.Agents[1].Assigned)
	suite.False(stats.Agents[1].Online)
}

func (suite *QueriesIntegrationTestSuite) TestGetAssignmentStats_InvalidQuery() {
	_, err := queries.NewGetAssignmentStatsQueryHandler(suite.database.DB, threshold).
		Handle(context.Background(), queries.GetAssignmentStatsQuery{})

	suite.Require().ErrorIs(err, queries.ErrGetAssignmentStatsQueryIsNotConstructed)
}

func (suite *QueriesIntegrationTestSuite) TestListAgents() {
	ctx := context.Background()
	suite.addAgent("B2", 5, ptr(now.Add(-2*time.Minute)), true)
	suite.addAgent("B1", 5, nil, true)
	suite.addAgent("B3", 5, ptr(now), false)
	handler := queries.NewListAgentsQueryHandler(suite.database.DB, threshold).WithClock(fixedNow)

	active, err := handler.Handle(ctx, queries.NewListAgentsQuery(false))
	suite.Require().NoError(err)
	suite.Require().Len(active, 2)
	suite.Equal("B1", active[0].Code)
	suite.False(active[0].Online)
	suite.Equal("B2", active[1].Code)
	suite.True(active[1].Online)
	suite.Equal("follow_up", active[1].Role)

	all, err := handler.Handle(ctx, queries.NewListAgentsQuery(true))
	suite.Require().NoError(err)
	suite.Require().Len(all, 3)
	suite.False(all[2].Online, "inactive agents are never online")
}

func (suite *QueriesIntegrationTestSuite) TestGetCommissionSettings() {
	ctx := context.Background()
	handler := queries.NewGetCommissionSettingsQueryHandler(suite.database.DB)

	def, err := handler.Handle(ctx, queries.NewGetCommissionSettingsQuery())
	suite.Require().NoError(err)
	suite.True(def.IsDefault)
	suite.Equal(settings.DefaultCurrency, def.Currency)
	suite.Nil(def.UpdatedAt)

	c, err := settings.NewCommission(decimal.RequireFromString("120.50"), decimal.NewFromInt(80), "DZD", now)
	suite.Require().NoError(err)
	suite.Require().NoError(settingsrepo.NewGormSettingsRepository(suite.database.DB).SaveCommission(ctx, c))

	saved, err := handler.Handle(ctx, queries.NewGetCommissionSettingsQuery())
	suite.Require().NoError(err)
	suite.False(saved.IsDefault)
	suite.True(saved.PerDeliveredOrder.Equal(decimal.RequireFromString("200.50")))
	suite.Require().NotNil(saved.UpdatedAt)
	suite.True(now.Equal(*saved.UpdatedAt))
}

func (suite *QueriesIntegrationTestSuite) TestListWilayaSettings() {
	ctx := context.Background()
	repo := settingsrepo.NewGormSettingsRepository(suite.database.DB)
	for _, w := range []struct {
		code   int
		name   string
		active bool
	}{{31, "Oran", true}, {16, "Alger", true}, {1, "Adrar", false}} {
		wilaya, err := settings.NewWilaya(w.code, w.name, 3, w.active)
		suite.Require().NoError(err)
		suite.Require().NoError(repo.SaveWilaya(ctx, wilaya))
	}
	handler := queries.NewListWilayaSettingsQueryHandler(suite.database.DB)

	all, err := handler.Handle(ctx, queries.NewListWilayaSettingsQuery(false))
	suite.Require().NoError(err)
	suite.Require().Len(all, 3)
	suite.Equal([]int{1, 16, 31}, []int{all[0].Code, all[1].Code, all[2].Code})
	suite.Equal(3, all[0].DeliveryDays)

	active, err := handler.Handle(ctx, queries.NewListWilayaSettingsQuery(true))
	suite.Require().NoError(err)
	suite.Len(active, 2)
}

func (suite *QueriesIntegrationTestSuite) TestListShippingAccounts() {
	ctx := context.Background()
	maystro := suite.addAccount("Maystro main", shipping.Maystro)
	yalidine := suite.addAccount("Yalidine", shipping.Yalidine)

	suite.addOrder("S1", order.RestoreState{ShippingAccountID: ptr(maystro.ID()), TrackingNumber: order.CorruptedTrackingNumber})
	suite.addOrder("S2", order.RestoreState{ShippingAccountID: ptr(maystro.ID()), TrackingNumber: "MS-2", Status: order.Delivered})
	suite.addOrder("S3", order.RestoreState{})

	accounts, err := queries.NewListShippingAccountsQueryHandler(suite.database.DB).Handle(ctx, queries.NewListShippingAccountsQuery())

	suite.Require().NoError(err)
	suite.Require().Len(accounts, 2)
	suite.Equal(maystro.ID(), accounts[0].ID)
	suite.Equal("maystro", accounts[0].Provider)
	suite.Equal(2, accounts[0].Orders)
	suite.Equal(1, accounts[0].CorruptedOrders)
	suite.Equal(1, accounts[0].UnresolvedOrders)
	suite.Equal(yalidine.ID(), accounts[1].ID)
	suite.Zero(accounts[1].Orders)
}

func (suite *QueriesIntegrationTestSuite) addEvent(source webhook.Source, status webhook.Status, receivedAt time.Time) *webhook.Event {
	e, err := webhook.RestoreEvent(kernel.NewUUID(), source, "", "order.updated", []byte(`{"id":1}`),
		status, 1, "", receivedAt, nil)
	suite.Require().NoError(err)
	suite.Require().NoError(webhookrepo.NewGormWebhookEventRepository(suite.database.DB, noopTracker{}).Add(context.Background(), e))
	return e
}

func (suite *QueriesIntegrationTestSuite) TestListWebhookEvents() {
	ctx := context.Background()
	oldest := suite.addEvent(webhook.SourceMaystro, webhook.StatusProcessed, now.Add(-3*time.Hour))
	middle := suite.addEvent(webhook.SourceMaystro, webhook.StatusFailed, now.Add(-2*time.Hour))
	newest := suite.addEvent(webhook.SourceMaystro, webhook.StatusProcessed, now.Add(-time.Hour))
	suite.addEvent(webhook.SourceEcoManager, webhook.StatusProcessed, now)
	handler := queries.NewListWebhookEventsQueryHandler(suite.database.DB)

	query, err := queries.NewListWebhookEventsQuery("maystro", "", 1, 2)
	suite.Require().NoError(err)
	first, err := handler.Handle(ctx, query)
	suite.Require().NoError(err)
	suite.Equal(3, first.Total)
	suite.Require().Len(first.Items, 2)
	suite.Equal(newest.ID(), first.Items[0].ID)
	suite.Equal(middle.ID(), first.Items[1].ID)
	suite.JSONEq(`{"id":1}`, string(first.Items[0].Payload))

	query, err = queries.NewListWebhookEventsQuery("maystro", "", 2, 2)
	suite.Require().NoError(err)
	second, err := handler.Handle(ctx, query)
	suite.Require().NoError(err)
	suite.Require().Len(second.Items, 1)
	suite.Equal(oldest.ID(), second.Items[0].ID)

	query, err = queries.NewListWebhookEventsQuery("", "failed", 0, 0)
	suite.Require().NoError(err)
	failed, err := handler.Handle(ctx, query)
	suite.Require().NoError(err)
	suite.Equal(1, failed.Total)
	suite.Equal(queries.DefaultWebhookPageSize, failed.PageSize)
}

func (suite *QueriesIntegrationTestSuite) TestGetWebhookStats() {
	ctx := context.Background()
	suite.addEvent(webhook.SourceMaystro, webhook.StatusProcessed, now.Add(-time.Hour))
	suite.addEvent(webhook.SourceMaystro, webhook.StatusProcessed, now.Add(-2*time.Hour))
	suite.addEvent(webhook.SourceMaystro, webhook.StatusFailed, now.Add(-3*time.Hour))
	suite.addEvent(webhook.SourceEcoManager, webhook.StatusIgnored, now)

	stats, err := queries.NewGetWebhookStatsQueryHandler(suite.database.DB).Handle(ctx, queries.NewGetWebhookStatsQuery())

	suite.Require().NoError(err)
	suite.Equal(4, stats.Total)
	suite.Equal(2, stats.BySource["maystro"]["processed"])
	suite.Equal(1, stats.BySource["maystro"]["failed"])
	suite.Equal(1, stats.ByStatus["ignored"])
	suite.Require().NotNil(stats.LastReceivedAt)
	suite.True(now.Equal(*stats.LastReceivedAt))
}

func TestQueriesIntegrationTestSuite(t *testing.T) {
	suite.Run(t, new(QueriesIntegrationTestSuite))
}
