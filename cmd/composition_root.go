package cmd

import (
	"errors"
	"log/slog"
	"time"

	api "backoffice/internal/adapters/in/http"
	"backoffice/internal/adapters/out/ecomanager"
	"backoffice/internal/adapters/out/httpclient"
	"backoffice/internal/adapters/out/maystro"
	"backoffice/internal/adapters/out/postgres"
	"backoffice/internal/adapters/out/redis"
	"backoffice/internal/core/application/usecases/commands"
	"backoffice/internal/core/application/usecases/queries"
	"backoffice/internal/core/domain/services"
	"backoffice/internal/jobs"
	"backoffice/internal/pkg/metrics"

	"github.com/prometheus/client_golang/prometheus"
	"gorm.io/gorm"
)

const (
	webhookDedupRetention = 72 * time.Hour
	jobLockTTL            = 15 * time.Minute
)

var ErrEcoManagerNotConfigured = errors.New("ECOMANAGER_BASE_URL and ECOMANAGER_TOKEN are required to import orders")

// CompositionRoot builds every handler from the shared infrastructure.
type CompositionRoot struct {
	cfg        Config
	logger     *slog.Logger
	gormDB     *gorm.DB
	uowFactory *postgres.GormUnitOfWorkFactory
	redis      *redis.Client
	registry   *prometheus.Registry
	metrics    metrics.Registry
}

func NewCompositionRoot(cfg Config, gormDB *gorm.DB, redisClient *redis.Client, logger *slog.Logger) *CompositionRoot {
	if logger == nil {
		logger = slog.Default()
	}
	registry := prometheus.NewRegistry()
	return &CompositionRoot{
		cfg:        cfg,
		logger:     logger,
		gormDB:     gormDB,
		uowFactory: postgres.NewGormUnitOfWorkFactory(gormDB),
		redis:      redisClient,
		registry:   registry,
		metrics:    metrics.NewRegistry(registry),
	}
}

func (c *CompositionRoot) Gatherer() prometheus.Gatherer { return c.registry }

func (c *CompositionRoot) agentUoWFactory() commands.AgentUoWFactory {
	return FuncAgentUoWFactory(func() commands.AgentUoW { return c.uowFactory.Create() })
}

func (c *CompositionRoot) orderUoWFactory() commands.OrderUoWFactory {
	return FuncOrderUoWFactory(func() commands.OrderUoW { return c.uowFactory.Create() })
}

func (c *CompositionRoot) assignmentUoWFactory() commands.AssignmentUoWFactory {
	return FuncAssignmentUoWFactory(func() commands.AssignmentUoW { return c.uowFactory.Create() })
}

func (c *CompositionRoot) shippingUoWFactory() commands.ShippingUoWFactory {
	return FuncShippingUoWFactory(func() commands.ShippingUoW { return c.uowFactory.Create() })
}

func (c *CompositionRoot) settingsUoWFactory() commands.SettingsUoWFactory {
	return FuncSettingsUoWFactory(func() commands.SettingsUoW { return c.uowFactory.Create() })
}

func (c *CompositionRoot) webhookUoWFactory() commands.WebhookUoWFactory {
	return FuncWebhookUoWFactory(func() commands.WebhookUoW { return c.uowFactory.Create() })
}


func (c *CompositionRoot) providerHTTP(provider string) *httpclient.Client {
	return httpclient.New(provider, httpclient.Config{
		Timeout:    c.cfg.ProviderTimeout,
		MaxRetries: c.cfg.ProviderMaxRetries,
	}, c.metrics.Provider, c.logger)
}

func (c *CompositionRoot) jobLock(name string) jobs.Locker {
	lock, err := redis.NewLock(c.redis, name, jobLockTTL)
	if err != nil {
		c.logger.Warn("job lock disabled", slog.String("job", name), slog.Any("error", err))
		return nil
	}
	return lock
}

// Commands

func (c *CompositionRoot) CreateAssignOrderCommandHandler() commands.AssignOrderCommandHandler {
	return commands.NewAssignOrderCommandHandler(
		c.assignmentUoWFactory(),
		redis.NewActivityCache(c.redis),
		services.NewAgentSelector(c.cfg.OnlineThreshold),
		c.metrics.Assignment,
		c.logger,
	)
}

func (c *CompositionRoot) CreateAutoAssignOrdersCommandHandler() commands.AutoAssignOrdersCommandHandler {
	return commands.NewAutoAssignOrdersCommandHandler(c.orderUoWFactory(), c.CreateAssignOrderCommandHandler(), c.logger)
}

func (c *CompositionRoot) CreateRecordAgentActivityCommandHandler() commands.RecordAgentActivityCommandHandler {
	return commands.NewRecordAgentActivityCommandHandler(
		c.agentUoWFactory(), redis.NewActivityCache(c.redis), c.cfg.OnlineThreshold, c.logger,
	)
}

func (c *CompositionRoot) CreateCreateAgentCommandHandler() commands.CreateAgentCommandHandler {
	return commands.NewCreateAgentCommandHandler(c.agentUoWFactory())
}

func (c *CompositionRoot) CreateDeactivateAgentCommandHandler() commands.DeactivateAgentCommandHandler {
	return commands.NewDeactivateAgentCommandHandler(c.agentUoWFactory())
}

func (c *CompositionRoot) CreateSyncTrackingNumbersCommandHandler() commands.SyncTrackingNumbersCommandHandler {
	return commands.NewSyncTrackingNumbersCommandHandler(
		c.shippingUoWFactory(), maystro.NewFactory(c.providerHTTP("maystro")), c.cfg.SyncBatchSize, c.metrics.Sync, c.logger,
	)
}

func (c *CompositionRoot) CreateSyncActiveAccountsCommandHandler() commands.SyncActiveAccountsCommandHandler {
	return commands.NewSyncActiveAccountsCommandHandler(c.shippingUoWFactory(), c.CreateSyncTrackingNumbersCommandHandler(), c.logger)
}

func (c *CompositionRoot) CreateReconcileCorruptedTrackingCommandHandler() commands.ReconcileCorruptedTrackingCommandHandler {
	return commands.NewReconcileCorruptedTrackingCommandHandler(
		c.shippingUoWFactory(), c.CreateSyncTrackingNumbersCommandHandler(), c.logger,
	)
}

func (c *CompositionRoot) CreateRegisterShippingAccountCommandHandler() commands.RegisterShippingAccountCommandHandler {
	return commands.NewRegisterShippingAccountCommandHandler(c.shippingUoWFactory())
}

func (c *CompositionRoot) CreateAttachShippingAccountCommandHandler() commands.AttachShippingAccountCommandHandler {
	return commands.NewAttachShippingAccountCommandHandler(c.shippingUoWFactory())
}

func (c *CompositionRoot) CreateIngestOrderCommandHandler() commands.IngestOrderCommandHandler {
	return commands.NewIngestOrderCommandHandler(c.orderUoWFactory())
}

func (c *CompositionRoot) CreateImportOrdersCommandHandler() (commands.ImportOrdersCommandHandler, error) {
	if c.cfg.EcoManagerBaseURL == "" || c.cfg.EcoManagerToken == "" {
		return commands.ImportOrdersCommandHandler{}, ErrEcoManagerNotConfigured
	}
	source, err := ecomanager.NewClient(
		c.providerHTTP("ecomanager"), c.cfg.EcoManagerBaseURL, c.cfg.EcoManagerToken, c.cfg.EcoManagerStoreID,
	)
	if err != nil {
		return commands.ImportOrdersCommandHandler{}, err
	}
	return commands.NewImportOrdersCommandHandler(source, c.orderUoWFactory(), c.CreateIngestOrderCommandHandler(), c.logger), nil
}

func (c *CompositionRoot) CreateReceiveWebhookCommandHandler() commands.ReceiveWebhookCommandHandler {
	return commands.NewReceiveWebhookCommandHandler(
		c.webhookUoWFactory(),
		redis.NewWebhookDeduplicator(c.redis, webhookDedupRetention),
		c.CreateIngestOrderCommandHandler(),
		c.metrics.Webhook,
		c.logger,
	)
}

func (c *CompositionRoot) CreateRetryWebhookEventCommandHandler() commands.RetryWebhookEventCommandHandler {
	return commands.NewRetryWebhookEventCommandHandler(c.webhookUoWFactory(), c.CreateIngestOrderCommandHandler(), c.logger)
}

func (c *CompositionRoot) CreateDeleteWebhookEventCommandHandler() commands.DeleteWebhookEventCommandHandler {
	return commands.NewDeleteWebhookEventCommandHandler(c.webhookUoWFactory())
}

func (c *CompositionRoot) CreateUpdateCommissionSettingsCommandHandler() commands.UpdateCommissionSettingsCommandHandler {
	return commands.NewUpdateCommissionSettingsCommandHandler(c.settingsUoWFactory())
}

func (c *CompositionRoot) CreateSaveWilayaSettingCommandHandler() commands.SaveWilayaSettingCommandHandler {
	return commands.NewSaveWilayaSettingCommandHandler(c.settingsUoWFactory())
}

func (c *CompositionRoot) CreateDeleteWilayaSettingCommandHandler() commands.DeleteWilayaSettingCommandHandler {
	return commands.NewDeleteWilayaSettingCommandHandler(c.settingsUoWFactory())
}

// Queries

func (c *CompositionRoot) CreateGetAssignmentStatsQueryHandler() queries.GetAssignmentStatsQueryHandler {
	return queries.NewGetAssignmentStatsQueryHandler(c.gormDB, c.cfg.OnlineThreshold)
}

func (c *CompositionRoot) CreateListAgentsQueryHandler() queries.ListAgentsQueryHandler {
	return queries.NewListAgentsQueryHandler(c.gormDB, c.cfg.OnlineThreshold)
}

func (c *CompositionRoot) CreateListShippingAccountsQueryHandler() queries.ListShippingAccountsQueryHandler {
	return queries.NewListShippingAccountsQueryHandler(c.gormDB)
}

func (c *CompositionRoot) CreateGetCommissionSettingsQueryHandler() queries.GetCommissionSettingsQueryHandler {
	return queries.NewGetCommissionSettingsQueryHandler(c.gormDB)
}

func (c *CompositionRoot) CreateListWilayaSettingsQueryHandler() queries.ListWilayaSettingsQueryHandler {
	return queries.NewListWilayaSettingsQueryHandler(c.gormDB)
}

func (c *CompositionRoot) CreateListWebhookEventsQueryHandler() queries.ListWebhookEventsQueryHandler {
	return queries.NewListWebhookEventsQueryHandler(c.gormDB)
}

func (c *CompositionRoot) CreateGetWebhookStatsQueryHandler() queries.GetWebhookStatsQueryHandler {
	return queries.NewGetWebhookStatsQueryHandler(c.gormDB)
}

// Inbound adapters

func (c *CompositionRoot) CreateHTTPHandlers() api.Handlers {
	return api.Handlers{
		GetCommission:    c.CreateGetCommissionSettingsQueryHandler(),
		UpdateCommission: c.CreateUpdateCommissionSettingsCommandHandler(),
		ListWilayas:      c.CreateListWilayaSettingsQueryHandler(),
		SaveWilaya:       c.CreateSaveWilayaSettingCommandHandler(),
		DeleteWilaya:     c.CreateDeleteWilayaSettingCommandHandler(),

		ListAgents:      c.CreateListAgentsQueryHandler(),
		CreateAgent:     c.CreateCreateAgentCommandHandler(),
		DeactivateAgent: c.CreateDeactivateAgentCommandHandler(),
		RecordActivity:  c.CreateRecordAgentActivityCommandHandler(),

		AssignOrder:     c.CreateAssignOrderCommandHandler(),
		AttachAccount:   c.CreateAttachShippingAccountCommandHandler(),
		AutoAssign:      c.CreateAutoAssignOrdersCommandHandler(),
		AssignmentStats: c.CreateGetAssignmentStatsQueryHandler(),

		ListShippingAccounts:    c.CreateListShippingAccountsQueryHandler(),
		RegisterShippingAccount: c.CreateRegisterShippingAccountCommandHandler(),
		SyncTracking:            c.CreateSyncTrackingNumbersCommandHandler(),
		ReconcileCorrupted:      c.CreateReconcileCorruptedTrackingCommandHandler(),

		ReceiveWebhook:     c.CreateReceiveWebhookCommandHandler(),
		ListWebhookEvents:  c.CreateListWebhookEventsQueryHandler(),
		WebhookStats:       c.CreateGetWebhookStatsQueryHandler(),
		RetryWebhookEvent:  c.CreateRetryWebhookEventCommandHandler(),
		DeleteWebhookEvent: c.CreateDeleteWebhookEventCommandHandler(),
	}
}

func (c *CompositionRoot) CreateHTTPServer() *api.Server {
	opts := api.Options{
		JWTSecret:              c.cfg.JWTSecret,
		MaystroWebhookSecret:   c.cfg.MaystroWebhookSecret,
		EcoManagerSecret:       c.cfg.EcoManagerWebhookSecret,
		EcoManagerWebhookToken: c.cfg.webhookToken(),
		AutoAssignLimit:        c.cfg.AutoAssignLimit,
		SyncMaxOrders:          c.cfg.SyncMaxOrders,
		RateLimiter:            redis.NewFixedWindowLimiter(c.redis, c.cfg.RateLimitMax, c.cfg.RateLimitWindow),
	}
	return api.NewServer(c.CreateHTTPHandlers(), opts, c.logger)
}

// Jobs

func (c *CompositionRoot) CreateAutoAssignmentJob() *jobs.AutoAssignmentJob {
	return jobs.NewAutoAssignmentJob(
		c.CreateAutoAssignOrdersCommandHandler(), c.cfg.AutoAssignCron, c.cfg.AutoAssignLimit,
		c.jobLock(jobs.AutoAssignmentJobName), c.metrics.Job, c.logger,
	)
}

func (c *CompositionRoot) CreateTrackingSyncJob() *jobs.TrackingSyncJob {
	return jobs.NewTrackingSyncJob(
		c.CreateSyncActiveAccountsCommandHandler(), c.cfg.TrackingSyncCron, c.cfg.SyncMaxOrders,
		c.jobLock(jobs.TrackingSyncJobName), c.metrics.Job, c.logger,
	)
}

func (c *CompositionRoot) CreateJobManager() *jobs.JobManager {
	return jobs.NewJobManager(c.CreateAutoAssignmentJob(), c.CreateTrackingSyncJob())
}

type FuncAgentUoWFactory func() commands.AgentUoW

func (f FuncAgentUoWFactory) Create() commands.AgentUoW {
	return f()
}

type FuncOrderUoWFactory func() commands.OrderUoW

func (f FuncOrderUoWFactory) Create() commands.OrderUoW {
	return f()
}

type FuncAssignmentUoWFactory func() commands.AssignmentUoW

func (f FuncAssignmentUoWFactory) Create() commands.AssignmentUoW {
	return f()
}

type FuncShippingUoWFactory func() commands.ShippingUoW

func (f FuncShippingUoWFactory) Create() commands.ShippingUoW {
	return f()
}

type FuncSettingsUoWFactory func() commands.SettingsUoW

func (f FuncSettingsUoWFactory) Create() commands.SettingsUoW {
	return f()
}

type FuncWebhookUoWFactory func() commands.WebhookUoW

func (f FuncWebhookUoWFactory) Create() commands.WebhookUoW {
	return f()
}
