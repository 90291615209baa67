package http

import (
	"context"
	"fmt"
	"log/slog"
	"net/http"
	"strings"

	"backoffice/internal/core/application/usecases/commands"
	"backoffice/internal/core/application/usecases/queries"
	"backoffice/internal/core/domain/model/agent"
	"backoffice/internal/core/domain/model/kernel"
	"backoffice/internal/core/domain/model/settings"
	"backoffice/internal/core/domain/model/shipping"
	"backoffice/internal/core/domain/model/webhook"

	"github.com/labstack/echo/v4"
	"github.com/oapi-codegen/runtime"
	openapi_types "github.com/oapi-codegen/runtime/types"
)

// Handler is any command or query handler returning a result.
type Handler[In, Out any] interface {
	Handle(ctx context.Context, in In) (Out, error)
}

// VoidHandler is a command handler without a result.
type VoidHandler[In any] interface {
	Handle(ctx context.Context, in In) error
}

// Handlers groups the use cases served over HTTP.
type Handlers struct {
	GetCommission    Handler[queries.GetCommissionSettingsQuery, queries.CommissionView]
	UpdateCommission Handler[commands.UpdateCommissionSettingsCommand, settings.Commission]
	ListWilayas      Handler[queries.ListWilayaSettingsQuery, []queries.WilayaView]
	SaveWilaya       Handler[commands.SaveWilayaSettingCommand, settings.Wilaya]
	DeleteWilaya     VoidHandler[commands.DeleteWilayaSettingCommand]

	ListAgents      Handler[queries.ListAgentsQuery, []queries.AgentView]
	CreateAgent     Handler[commands.CreateAgentCommand, *agent.Agent]
	DeactivateAgent VoidHandler[commands.DeactivateAgentCommand]
	RecordActivity  VoidHandler[commands.RecordAgentActivityCommand]

	AssignOrder     Handler[commands.AssignOrderCommand, commands.AssignmentResult]
	AttachAccount   VoidHandler[commands.AttachShippingAccountCommand]
	AutoAssign      Handler[commands.AutoAssignOrdersCommand, commands.AutoAssignResult]
	AssignmentStats Handler[queries.GetAssignmentStatsQuery, queries.AssignmentStats]

	ListShippingAccounts    Handler[queries.ListShippingAccountsQuery, []queries.ShippingAccountView]
	RegisterShippingAccount Handler[commands.RegisterShippingAccountCommand, *shipping.Account]
	SyncTracking            Handler[commands.SyncTrackingNumbersCommand, commands.SyncResult]
	ReconcileCorrupted      Handler[commands.ReconcileCorruptedTrackingCommand, commands.ReconcileResult]

	ReceiveWebhook     Handler[commands.ReceiveWebhookCommand, commands.WebhookOutcome]
	ListWebhookEvents  Handler[queries.ListWebhookEventsQuery, queries.WebhookEventPage]
	WebhookStats       Handler[queries.GetWebhookStatsQuery, queries.WebhookStats]
	RetryWebhookEvent  Handler[commands.RetryWebhookEventCommand, commands.WebhookOutcome]
	DeleteWebhookEvent VoidHandler[commands.DeleteWebhookEventCommand]
}

// Options carries the request-independent settings of the API.
type Options struct {
	JWTSecret              string
	MaystroWebhookSecret   string
	EcoManagerWebhookToken string
	EcoManagerSecret       string
	AutoAssignLimit        int
	SyncMaxOrders          int
	RateLimiter            RateLimiter
}

// Server translates HTTP requests into commands and queries.
type Server struct {
	h      Handlers
	opts   Options
	logger *slog.Logger
}

func NewServer(h Handlers, opts Options, logger *slog.Logger) *Server {
	if logger == nil {
		logger = slog.Default()
	}
	if opts.AutoAssignLimit < 1 {
		opts.AutoAssignLimit = 50
	}
	if opts.SyncMaxOrders < 1 {
		opts.SyncMaxOrders = 500
	}
	if opts.EcoManagerWebhookToken == "" {
		opts.EcoManagerWebhookToken = opts.EcoManagerSecret
	}
	return &Server{h: h, opts: opts, logger: logger.With("component", "http_server")}
}

// Register mounts the API and webhook routes on e.
func (s *Server) Register(e *echo.Echo) {
	hooks := e.Group("/webhooks")
	hooks.POST("/maystro", s.MaystroWebhook, VerifySignature(s.opts.MaystroWebhookSecret))
	hooks.GET("/ecomanager", s.EcoManagerHandshake)
	hooks.POST("/ecomanager", s.EcoManagerWebhook, VerifySignature(s.opts.EcoManagerSecret))

	api := e.Group("/api/v1")
	if s.opts.RateLimiter != nil {
		api.Use(RateLimit(s.opts.RateLimiter, s.logger))
	}
	api.Use(Authenticate(s.opts.JWTSecret))

	admin := RequireRoles(RoleAdmin)
	dispatch := RequireRoles(RoleCoordinator)
	anyRole := RequireRoles(RoleCoordinator, RoleAgent)

	api.GET("/settings/commission", s.GetCommission, anyRole)
	api.PUT("/settings/commission", s.UpdateCommission, admin)
	api.GET("/settings/wilayas", s.ListWilayas, anyRole)
	api.POST("/settings/wilayas", s.CreateWilaya, admin)
	api.PUT("/settings/wilayas/:code", s.UpdateWilaya, admin)
	api.DELETE("/settings/wilayas/:code", s.DeleteWilaya, admin)

	api.GET("/agents", s.ListAgents, anyRole)
	api.POST("/agents", s.CreateAgent, admin)
	api.DELETE("/agents/:agentId", s.DeactivateAgent, admin)
	api.POST("/agents/:agentId/heartbeat", s.Heartbeat, anyRole)

	api.POST("/orders/:orderId/assign", s.AssignOrder, dispatch)
	api.PUT("/orders/:orderId/shipping-account", s.AttachShippingAccount, dispatch)
	api.POST("/assignments/auto", s.AutoAssign, dispatch)
	api.GET("/assignments/stats", s.GetAssignmentStats, anyRole)
	api.GET("/assignments/stats/export", s.ExportAssignmentStats, anyRole)

	api.GET("/shipping/accounts", s.ListShippingAccounts, admin)
	api.POST("/shipping/accounts", s.RegisterShippingAccount, admin)
	api.POST("/shipping/accounts/:accountId/sync", s.SyncTracking, admin)
	api.POST("/shipping/reconcile-corrupted", s.ReconcileCorrupted, admin)

	api.GET("/webhooks/events", s.ListWebhookEvents, admin)
	api.GET("/webhooks/stats", s.GetWebhookStats, admin)
	api.POST("/webhooks/events/:eventId/retry", s.RetryWebhookEvent, admin)
	api.DELETE("/webhooks/events/:eventId", s.DeleteWebhookEvent, admin)
}

// pathUUID binds a uuid path parameter the way generated servers do.
func pathUUID(c echo.Context, name string) (kernel.UUID, error) {
	var id openapi_types.UUID
	err := runtime.BindStyledParameterWithOptions("simple", name, c.Param(name), &id, runtime.BindStyledParameterOptions{
		ParamLocation: runtime.ParamLocationPath,
		Explode:       false,
		Required:      true,
	})
	if err != nil {
		return kernel.UUID{}, echo.NewHTTPError(http.StatusBadRequest, fmt.Sprintf("invalid %s", name))
	}
	return kernel.UUIDFromBytes(id[:])
}

func pathInt(c echo.Context, name string) (int, error) {
	var v int
	err := runtime.BindStyledParameterWithOptions("simple", name, c.Param(name), &v, runtime.BindStyledParameterOptions{
		ParamLocation: runtime.ParamLocationPath,
		Explode:       false,
		Required:      true,
	})
	if err != nil {
		return 0, echo.NewHTTPError(http.StatusBadRequest, fmt.Sprintf("invalid %s", name))
	}
	return v, nil
}

func queryInt(c echo.Context, name string) (int, error) {
	var v *int
	if err := runtime.BindQueryParameter("form", true, false, name, c.QueryParams(), &v); err != nil {
		return 0, echo.NewHTTPError(http.StatusBadRequest, fmt.Sprintf("invalid %s", name))
	}
	if v == nil {
		return 0, nil
	}
	return *v, nil
}

func queryBool(c echo.Context, name string) (bool, error) {
	var v *bool
	if err := runtime.BindQueryParameter("form", true, false, name, c.QueryParams(), &v); err != nil {
		return false, echo.NewHTTPError(http.StatusBadRequest, fmt.Sprintf("invalid %s", name))
	}
	return v != nil && *v, nil
}

// Settings

func (s *Server) GetCommission(c echo.Context) error {
	view, err := s.h.GetCommission.Handle(c.Request().Context(), queries.NewGetCommissionSettingsQuery())
	if err != nil {
		return err
	}
	return ok(c, http.StatusOK, commissionFromView(view))
}

func (s *Server) UpdateCommission(c echo.Context) error {
	var req commissionRequest
	if err := bindAndValidate(c, &req); err != nil {
		return err
	}

	cmd, err := commands.NewUpdateCommissionSettingsCommand(req.ConfirmationFee, req.DeliveryFee, req.Currency)
	if err != nil {
		return err
	}
	saved, err := s.h.UpdateCommission.Handle(c.Request().Context(), cmd)
	if err != nil {
		return err
	}
	return ok(c, http.StatusOK, commissionFromModel(saved))
}

func (s *Server) ListWilayas(c echo.Context) error {
	activeOnly, err := queryBool(c, "activeOnly")
	if err != nil {
		return err
	}

	views, err := s.h.ListWilayas.Handle(c.Request().Context(), queries.NewListWilayaSettingsQuery(activeOnly))
	if err != nil {
		return err
	}
	resp := make([]wilayaResponse, len(views))
	for i, v := range views {
		resp[i] = wilayaResponse(v)
	}
	return ok(c, http.StatusOK, resp)
}

func (s *Server) CreateWilaya(c echo.Context) error {
	var req wilayaRequest
	if err := bindAndValidate(c, &req); err != nil {
		return err
	}
	if req.Code == 0 {
		return echo.NewHTTPError(http.StatusBadRequest, "code is required")
	}
	return s.saveWilaya(c, req.Code, req, false, http.StatusCreated)
}

func (s *Server) UpdateWilaya(c echo.Context) error {
	code, err := pathInt(c, "code")
	if err != nil {
		return err
	}
	var req wilayaRequest
	if err = bindAndValidate(c, &req); err != nil {
		return err
	}
	return s.saveWilaya(c, code, req, true, http.StatusOK)
}

func (s *Server) saveWilaya(c echo.Context, code int, req wilayaRequest, mustExist bool, status int) error {
	active := req.Active == nil || *req.Active
	cmd, err := commands.NewSaveWilayaSettingCommand(code, req.Name, *req.DeliveryDays, active, mustExist)
	if err != nil {
		return err
	}
	saved, err := s.h.SaveWilaya.Handle(c.Request().Context(), cmd)
	if err != nil {
		return err
	}
	return ok(c, status, wilayaFromModel(saved))
}

func (s *Server) DeleteWilaya(c echo.Context) error {
	code, err := pathInt(c, "code")
	if err != nil {
		return err
	}
	cmd, err := commands.NewDeleteWilayaSettingCommand(code)
	if err != nil {
		return err
	}
	if err = s.h.DeleteWilaya.Handle(c.Request().Context(), cmd); err != nil {
		return err
	}
	return ok(c, http.StatusOK, map[string]int{"code": code})
}

// Agents

func (s *Server) ListAgents(c echo.Context) error {
	includeInactive, err := queryBool(c, "includeInactive")
	if err != nil {
		return err
	}

	views, err := s.h.ListAgents.Handle(c.Request().Context(), queries.NewListAgentsQuery(includeInactive))
	if err != nil {
		return err
	}
	resp := make([]agentResponse, len(views))
	for i, v := range views {
		resp[i] = agentFromView(v)
	}
	return ok(c, http.StatusOK, resp)
}

func (s *Server) CreateAgent(c echo.Context) error {
	var req createAgentRequest
	if err := bindAndValidate(c, &req); err != nil {
		return err
	}

	role, err := agent.ParseRole(req.Role)
	if err != nil {
		return err
	}
	cmd, err := commands.NewCreateAgentCommand(req.Code, req.Name, role, req.MaxOrders)
	if err != nil {
		return err
	}
	created, err := s.h.CreateAgent.Handle(c.Request().Context(), cmd)
	if err != nil {
		return err
	}
	return ok(c, http.StatusCreated, agentFromModel(created))
}

func (s *Server) DeactivateAgent(c echo.Context) error {
	id, err := pathUUID(c, "agentId")
	if err != nil {
		return err
	}
	cmd, err := commands.NewDeactivateAgentCommand(id)
	if err != nil {
		return err
	}
	if err = s.h.DeactivateAgent.Handle(c.Request().Context(), cmd); err != nil {
		return err
	}
	return ok(c, http.StatusOK, map[string]string{"id": id.String()})
}

// AttachShippingAccount binds an order to its shipping account. Rebinding to
// another account is a conflict.
func (s *Server) AttachShippingAccount(c echo.Context) error {
	orderID, err := pathUUID(c, "orderId")
	if err != nil {
		return err
	}
	var req attachAccountRequest
	if err = bindAndValidate(c, &req); err != nil {
		return err
	}
	accountID, err := kernel.UUIDFromString(req.ShippingAccountID)
	if err != nil {
		return err
	}

	cmd, err := commands.NewAttachShippingAccountCommand(orderID, accountID)
	if err != nil {
		return err
	}
	if err = s.h.AttachAccount.Handle(c.Request().Context(), cmd); err != nil {
		return err
	}
	return ok(c, http.StatusOK, map[string]string{
		"orderId":           orderID.String(),
		"shippingAccountId": accountID.String(),
	})
}

func (s *Server) Heartbeat(c echo.Context) error {
	id, err := pathUUID(c, "agentId")
	if err != nil {
		return err
	}
	cmd, err := commands.NewRecordAgentActivityCommand(id, c.Request().Header.Get("X-Session-Token"))
	if err != nil {
		return err
	}
	if err = s.h.RecordActivity.Handle(c.Request().Context(), cmd); err != nil {
		return err
	}
	return ok(c, http.StatusOK, map[string]string{"id": id.String()})
}

// Assignment

// AssignOrder answers 409 with the structured result when the order could
// not be assigned, and 404 when it does not exist.
func (s *Server) AssignOrder(c echo.Context) error {
	id, err := pathUUID(c, "orderId")
	if err != nil {
		return err
	}
	var req assignOrderRequest
	if err = bindAndValidate(c, &req); err != nil {
		return err
	}

	cmd, err := commands.NewAssignOrderCommand(id, req.AllowOffline)
	if err != nil {
		return err
	}
	result, err := s.h.AssignOrder.Handle(c.Request().Context(), cmd)
	if err != nil {
		return err
	}

	resp := assignmentFromResult(result)
	switch {
	case result.Success:
		return ok(c, http.StatusOK, resp)
	case result.Reason == commands.ReasonOrderNotFound:
		return c.JSON(http.StatusNotFound, Envelope{
			Data:  resp,
			Error: &ErrorBody{Message: "order not found", Code: CodeNotFound},
		})
	default:
		return c.JSON(http.StatusConflict, Envelope{
			Data:  resp,
			Error: &ErrorBody{Message: string(result.Reason), Code: CodeConflict},
		})
	}
}

func (s *Server) AutoAssign(c echo.Context) error {
	var req autoAssignRequest
	if err := bindAndValidate(c, &req); err != nil {
		return err
	}
	limit := s.opts.AutoAssignLimit
	if req.Limit != nil {
		limit = *req.Limit
	}

	cmd, err := commands.NewAutoAssignOrdersCommand(limit, req.AllowOffline)
	if err != nil {
		return err
	}
	result, err := s.h.AutoAssign.Handle(c.Request().Context(), cmd)
	if err != nil {
		return err
	}
	return ok(c, http.StatusOK, autoAssignFromResult(result))
}

func (s *Server) GetAssignmentStats(c echo.Context) error {
	stats, err := s.h.AssignmentStats.Handle(c.Request().Context(), queries.NewGetAssignmentStatsQuery())
	if err != nil {
		return err
	}
	return ok(c, http.StatusOK, statsFromView(stats))
}

// Shipping

func (s *Server) ListShippingAccounts(c echo.Context) error {
	views, err := s.h.ListShippingAccounts.Handle(c.Request().Context(), queries.NewListShippingAccountsQuery())
	if err != nil {
		return err
	}
	resp := make([]shippingAccountResponse, len(views))
	for i, v := range views {
		resp[i] = accountFromView(v)
	}
	return ok(c, http.StatusOK, resp)
}

func (s *Server) RegisterShippingAccount(c echo.Context) error {
	var req registerAccountRequest
	if err := bindAndValidate(c, &req); err != nil {
		return err
	}

	provider, err := shipping.ParseProvider(req.Provider)
	if err != nil {
		return err
	}
	cmd, err := commands.NewRegisterShippingAccountCommand(req.Name, provider, req.Token, req.BaseURL)
	if err != nil {
		return err
	}
	account, err := s.h.RegisterShippingAccount.Handle(c.Request().Context(), cmd)
	if err != nil {
		return err
	}
	return ok(c, http.StatusCreated, accountFromModel(account))
}

func (s *Server) SyncTracking(c echo.Context) error {
	accountID, err := pathUUID(c, "accountId")
	if err != nil {
		return err
	}
	var req syncRequest
	if err = bindAndValidate(c, &req); err != nil {
		return err
	}
	maxOrders := s.opts.SyncMaxOrders
	if req.MaxOrders != nil {
		maxOrders = *req.MaxOrders
	}

	cmd, err := commands.NewSyncTrackingNumbersCommand(accountID, maxOrders)
	if err != nil {
		return err
	}
	result, err := s.h.SyncTracking.Handle(c.Request().Context(), cmd.WithStore(strings.TrimSpace(req.StoreID)))
	if err != nil {
		return err
	}
	return ok(c, http.StatusOK, syncFromResult(result))
}

func (s *Server) ReconcileCorrupted(c echo.Context) error {
	result, err := s.h.ReconcileCorrupted.Handle(c.Request().Context(), commands.NewReconcileCorruptedTrackingCommand())
	if err != nil {
		return err
	}
	return ok(c, http.StatusOK, reconcileFromResult(result))
}

// Webhooks

func (s *Server) MaystroWebhook(c echo.Context) error {
	return s.receive(c, webhook.SourceMaystro)
}

func (s *Server) EcoManagerWebhook(c echo.Context) error {
	return s.receive(c, webhook.SourceEcoManager)
}

// receive acknowledges every stored delivery with 200, including ignored and
// failed ones: providers must not redeliver them, an admin retries instead.
func (s *Server) receive(c echo.Context, source webhook.Source) error {
	cmd, err := commands.NewReceiveWebhookCommand(source, rawBody(c))
	if err != nil {
		return err
	}
	outcome, err := s.h.ReceiveWebhook.Handle(c.Request().Context(), cmd)
	if err != nil {
		return err
	}
	return ok(c, http.StatusOK, outcomeFromResult(outcome))
}

// EcoManagerHandshake confirms the endpoint when EcoManager registers it.
func (s *Server) EcoManagerHandshake(c echo.Context) error {
	token := c.Request().Header.Get(WebhookTokenHeader)
	if token == "" {
		token = c.QueryParam("token")
	}
	if !validToken(s.opts.EcoManagerWebhookToken, token) {
		return echo.NewHTTPError(http.StatusUnauthorized, "invalid webhook token")
	}

	data := map[string]string{"status": "ok"}
	if challenge := c.QueryParam("challenge"); challenge != "" {
		data["challenge"] = challenge
	}
	return ok(c, http.StatusOK, data)
}

func (s *Server) ListWebhookEvents(c echo.Context) error {
	page, err := queryInt(c, "page")
	if err != nil {
		return err
	}
	pageSize, err := queryInt(c, "pageSize")
	if err != nil {
		return err
	}

	query, err := queries.NewListWebhookEventsQuery(c.QueryParam("source"), c.QueryParam("status"), page, pageSize)
	if err != nil {
		return err
	}
	result, err := s.h.ListWebhookEvents.Handle(c.Request().Context(), query)
	if err != nil {
		return err
	}
	return ok(c, http.StatusOK, eventPageFromView(result))
}

func (s *Server) GetWebhookStats(c echo.Context) error {
	stats, err := s.h.WebhookStats.Handle(c.Request().Context(), queries.NewGetWebhookStatsQuery())
	if err != nil {
		return err
	}
	return ok(c, http.StatusOK, webhookStatsResponse(stats))
}

func (s *Server) RetryWebhookEvent(c echo.Context) error {
	id, err := pathUUID(c, "eventId")
	if err != nil {
		return err
	}
	cmd, err := commands.NewRetryWebhookEventCommand(id)
	if err != nil {
		return err
	}
	outcome, err := s.h.RetryWebhookEvent.Handle(c.Request().Context(), cmd)
	if err != nil {
		return err
	}
	return ok(c, http.StatusOK, outcomeFromResult(outcome))
}

func (s *Server) DeleteWebhookEvent(c echo.Context) error {
	id, err := pathUUID(c, "eventId")
	if err != nil {
		return err
	}
	cmd, err := commands.NewDeleteWebhookEventCommand(id)
	if err != nil {
		return err
	}
	if err = s.h.DeleteWebhookEvent.Handle(c.Request().Context(), cmd); err != nil {
		return err
	}
	return ok(c, http.StatusOK, map[string]string{"id": id.String()})
}
