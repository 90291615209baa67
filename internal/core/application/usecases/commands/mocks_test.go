package commands_test

import (
	"context"
	"time"

	"backoffice/internal/core/application/usecases/commands"
	"backoffice/internal/core/domain/model/agent"
	"backoffice/internal/core/domain/model/kernel"
	"backoffice/internal/core/domain/model/order"
	"backoffice/internal/core/domain/model/settings"
	"backoffice/internal/core/domain/model/shipping"
	"backoffice/internal/core/domain/model/webhook"
	"backoffice/internal/core/ports"

	"github.com/stretchr/testify/mock"
)

type MockAgentRepository struct{ mock.Mock }

func (m *MockAgentRepository) Add(ctx context.Context, a *agent.Agent) error {
	return m.Called(ctx, a).Error(0)
}

func (m *MockAgentRepository) Update(ctx context.Context, a *agent.Agent) error {
	return m.Called(ctx, a).Error(0)
}

func (m *MockAgentRepository) Get(ctx context.Context, id kernel.UUID) (*agent.Agent, error) {
	args := m.Called(ctx, id)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*agent.Agent), args.Error(1)
}

func (m *MockAgentRepository) GetAllActive(ctx context.Context) ([]*agent.Agent, error) {
	args := m.Called(ctx)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]*agent.Agent), args.Error(1)
}

func (m *MockAgentRepository) Lock(ctx context.Context, id kernel.UUID) (*agent.Agent, error) {
	args := m.Called(ctx, id)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*agent.Agent), args.Error(1)
}

type MockOrderRepository struct{ mock.Mock }

func (m *MockOrderRepository) Add(ctx context.Context, o *order.Order) error {
	return m.Called(ctx, o).Error(0)
}

func (m *MockOrderRepository) Get(ctx context.Context, id kernel.UUID) (*order.Order, error) {
	args := m.Called(ctx, id)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*order.Order), args.Error(1)
}

func (m *MockOrderRepository) GetByExternalReference(ctx context.Context, storeID, ref string) (*order.Order, error) {
	args := m.Called(ctx, storeID, ref)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*order.Order), args.Error(1)
}

func (m *MockOrderRepository) FindByExternalReference(ctx context.Context, ref string) ([]*order.Order, error) {
	args := m.Called(ctx, ref)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]*order.Order), args.Error(1)
}

func (m *MockOrderRepository) KnownReferences(ctx context.Context, storeID string, refs []string) ([]string, error) {
	args := m.Called(ctx, storeID, refs)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]string), args.Error(1)
}

func (m *MockOrderRepository) ListUnassigned(ctx context.Context, limit int) ([]*order.Order, error) {
	args := m.Called(ctx, limit)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]*order.Order), args.Error(1)
}

func (m *MockOrderRepository) AssignIfUnassigned(ctx context.Context, o *order.Order) (bool, error) {
	args := m.Called(ctx, o)
	return args.Bool(0), args.Error(1)
}

func (m *MockOrderRepository) CountWorkloads(ctx context.Context) (map[kernel.UUID]agent.Load, error) {
	args := m.Called(ctx)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(map[kernel.UUID]agent.Load), args.Error(1)
}

func (m *MockOrderRepository) CountWorkload(ctx context.Context, agentID kernel.UUID) (agent.Load, error) {
	args := m.Called(ctx, agentID)
	return args.Get(0).(agent.Load), args.Error(1)
}

func (m *MockOrderRepository) ListForTrackingSync(ctx context.Context, filter ports.TrackingSyncFilter) ([]*order.Order, error) {
	args := m.Called(ctx, filter)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]*order.Order), args.Error(1)
}

func (m *MockOrderRepository) ListByTrackingNumber(ctx context.Context, tn string) ([]*order.Order, error) {
	args := m.Called(ctx, tn)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]*order.Order), args.Error(1)
}

func (m *MockOrderRepository) UpdateShipping(ctx context.Context, o *order.Order, accountID kernel.UUID) error {
	return m.Called(ctx, o, accountID).Error(0)
}

func (m *MockOrderRepository) ForeignAccountOrders(ctx context.Context, ids []kernel.UUID, accountID kernel.UUID) ([]kernel.UUID, error) {
	args := m.Called(ctx, ids, accountID)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]kernel.UUID), args.Error(1)
}

func (m *MockOrderRepository) BindShippingAccount(ctx context.Context, o *order.Order) error {
	return m.Called(ctx, o).Error(0)
}

type MockShippingAccountRepository struct{ mock.Mock }

func (m *MockShippingAccountRepository) Add(ctx context.Context, a *shipping.Account) error {
	return m.Called(ctx, a).Error(0)
}

func (m *MockShippingAccountRepository) Get(ctx context.Context, id kernel.UUID) (*shipping.Account, error) {
	args := m.Called(ctx, id)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*shipping.Account), args.Error(1)
}

func (m *MockShippingAccountRepository) ListActive(ctx context.Context, p *shipping.Provider) ([]*shipping.Account, error) {
	args := m.Called(ctx, p)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]*shipping.Account), args.Error(1)
}

type MockSettingsRepository struct{ mock.Mock }

func (m *MockSettingsRepository) GetCommission(ctx context.Context) (settings.Commission, error) {
	args := m.Called(ctx)
	return args.Get(0).(settings.Commission), args.Error(1)
}

func (m *MockSettingsRepository) SaveCommission(ctx context.Context, c settings.Commission) error {
	return m.Called(ctx, c).Error(0)
}

func (m *MockSettingsRepository) GetWilaya(ctx context.Context, code int) (settings.Wilaya, error) {
	args := m.Called(ctx, code)
	return args.Get(0).(settings.Wilaya), args.Error(1)
}

func (m *MockSettingsRepository) SaveWilaya(ctx context.Context, w settings.Wilaya) error {
	return m.Called(ctx, w).Error(0)
}

func (m *MockSettingsRepository) DeleteWilaya(ctx context.Context, code int) error {
	return m.Called(ctx, code).Error(0)
}

type MockWebhookEventRepository struct{ mock.Mock }

func (m *MockWebhookEventRepository) Add(ctx context.Context, e *webhook.Event) error {
	return m.Called(ctx, e).Error(0)
}

func (m *MockWebhookEventRepository) Update(ctx context.Context, e *webhook.Event) error {
	return m.Called(ctx, e).Error(0)
}

func (m *MockWebhookEventRepository) Get(ctx context.Context, id kernel.UUID) (*webhook.Event, error) {
	args := m.Called(ctx, id)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*webhook.Event), args.Error(1)
}

func (m *MockWebhookEventRepository) Delete(ctx context.Context, id kernel.UUID) error {
	return m.Called(ctx, id).Error(0)
}

// MockUoW satisfies every narrowed unit of work interface.
type MockUoW struct{ mock.Mock }

func (m *MockUoW) Begin(ctx context.Context) error {
	return m.Called(ctx).Error(0)
}

func (m *MockUoW) Commit(ctx context.Context) error {
	return m.Called(ctx).Error(0)
}

func (m *MockUoW) Rollback(ctx context.Context) error {
	return m.Called(ctx).Error(0)
}

func (m *MockUoW) AgentRepository() ports.AgentRepository {
	return m.Called().Get(0).(ports.AgentRepository)
}

func (m *MockUoW) OrderRepository() ports.OrderRepository {
	return m.Called().Get(0).(ports.OrderRepository)
}

func (m *MockUoW) ShippingAccountRepository() ports.ShippingAccountRepository {
	return m.Called().Get(0).(ports.ShippingAccountRepository)
}

func (m *MockUoW) SettingsRepository() ports.SettingsRepository {
	return m.Called().Get(0).(ports.SettingsRepository)
}

func (m *MockUoW) WebhookEventRepository() ports.WebhookEventRepository {
	return m.Called().Get(0).(ports.WebhookEventRepository)
}

type MockAssignmentUoWFactory struct{ mock.Mock }

func (m *MockAssignmentUoWFactory) Create() commands.AssignmentUoW {
	return m.Called().Get(0).(commands.AssignmentUoW)
}

type MockAgentUoWFactory struct{ mock.Mock }

func (m *MockAgentUoWFactory) Create() commands.AgentUoW {
	return m.Called().Get(0).(commands.AgentUoW)
}

type MockOrderUoWFactory struct{ mock.Mock }

func (m *MockOrderUoWFactory) Create() commands.OrderUoW {
	return m.Called().Get(0).(commands.OrderUoW)
}

type MockShippingUoWFactory struct{ mock.Mock }

func (m *MockShippingUoWFactory) Create() commands.ShippingUoW {
	return m.Called().Get(0).(commands.ShippingUoW)
}

type MockSettingsUoWFactory struct{ mock.Mock }

func (m *MockSettingsUoWFactory) Create() commands.SettingsUoW {
	return m.Called().Get(0).(commands.SettingsUoW)
}

type MockWebhookUoWFactory struct{ mock.Mock }

func (m *MockWebhookUoWFactory) Create() commands.WebhookUoW {
	return m.Called().Get(0).(commands.WebhookUoW)
}

type MockActivityCache struct{ mock.Mock }

func (m *MockActivityCache) Touch(ctx context.Context, id kernel.UUID, token string, at time.Time, ttl time.Duration) error {
	return m.Called(ctx, id, token, at, ttl).Error(0)
}

func (m *MockActivityCache) LastSeen(ctx context.Context, ids []kernel.UUID) (map[kernel.UUID]time.Time, error) {
	args := m.Called(ctx, ids)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(map[kernel.UUID]time.Time), args.Error(1)
}

type MockDeliveryProvider struct{ mock.Mock }

func (m *MockDeliveryProvider) LookupOrders(ctx context.Context, refs []string) ([]shipping.ProviderRecord, error) {
	args := m.Called(ctx, refs)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]shipping.ProviderRecord), args.Error(1)
}

type MockDeliveryProviderFactory struct{ mock.Mock }

func (m *MockDeliveryProviderFactory) ForAccount(a *shipping.Account) (ports.DeliveryProvider, error) {
	args := m.Called(a)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(ports.DeliveryProvider), args.Error(1)
}

type MockOrderSource struct{ mock.Mock }

func (m *MockOrderSource) FetchOrders(ctx context.Context, page int) (ports.SourceOrderPage, error) {
	args := m.Called(ctx, page)
	return args.Get(0).(ports.SourceOrderPage), args.Error(1)
}

type MockWebhookDeduplicator struct{ mock.Mock }

func (m *MockWebhookDeduplicator) FirstSeen(ctx context.Context, scope, key string) (bool, error) {
	args := m.Called(ctx, scope, key)
	return args.Bool(0), args.Error(1)
}

func (m *MockWebhookDeduplicator) Forget(ctx context.Context, scope, key string) error {
	return m.Called(ctx, scope, key).Error(0)
}

// fixture helpers

var testNow = time.Date(2025, 3, 10, 12, 0, 0, 0, time.UTC)

func fixedClock() time.Time { return testNow }

func newTestAgent(code string, maxOrders int, lastActivity *time.Time) *agent.Agent {
	a, err := agent.RestoreAgent(kernel.NewUUID(), code, "Agent "+code, agent.FollowUp, maxOrders, lastActivity, true, testNow.Add(-24*time.Hour))
	if err != nil {
		panic(err)
	}
	return a
}

func newTestOrder(ref string) *order.Order {
	o, err := order.NewOrder(kernel.NewUUID(), "store-1", ref, testNow.Add(-time.Hour))
	if err != nil {
		panic(err)
	}
	return o
}

func newBoundOrder(ref string, accountID kernel.UUID, tracking string, status order.Status) *order.Order {
	o, err := order.RestoreOrder(kernel.NewUUID(), "store-1", ref, testNow.Add(-time.Hour), order.RestoreState{
		ShippingAccountID: &accountID,
		TrackingNumber:    tracking,
		Status:            status,
	})
	if err != nil {
		panic(err)
	}
	return o
}

func newTestAccount(p shipping.Provider) *shipping.Account {
	a, err := shipping.NewAccount(kernel.NewUUID(), "Account "+p.String(), p, "token", "https://provider.test", testNow)
	if err != nil {
		panic(err)
	}
	return a
}

func ago(d time.Duration) *time.Time {
	t := testNow.Add(-d)
	return &t
}
