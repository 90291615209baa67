package http

import (
	"encoding/json"
	"time"

	"backoffice/internal/core/application/usecases/commands"
	"backoffice/internal/core/application/usecases/queries"
	"backoffice/internal/core/domain/model/agent"
	"backoffice/internal/core/domain/model/settings"
	"backoffice/internal/core/domain/model/shipping"

	"github.com/shopspring/decimal"
)

type commissionRequest struct {
	ConfirmationFee decimal.Decimal `json:"confirmationFee"`
	DeliveryFee     decimal.Decimal `json:"deliveryFee"`
	Currency        string          `json:"currency"        validate:"omitempty,len=3,alpha"`
}

type wilayaRequest struct {
	Code         int    `json:"code"         validate:"omitempty,min=1,max=58"`
	Name         string `json:"name"         validate:"required,max=100"`
	DeliveryDays *int   `json:"deliveryDays" validate:"required,min=0,max=60"`
	Active       *bool  `json:"active"`
}

type createAgentRequest struct {
	Code      string `json:"code"      validate:"required,max=32"`
	Name      string `json:"name"      validate:"required,max=100"`
	Role      string `json:"role"      validate:"required,oneof=follow_up call_center coordinator"`
	MaxOrders int    `json:"maxOrders" validate:"required,min=1,max=1000"`
}

type assignOrderRequest struct {
	AllowOffline bool `json:"allowOffline"`
}

type attachAccountRequest struct {
	ShippingAccountID string `json:"shippingAccountId" validate:"required,uuid"`
}

type autoAssignRequest struct {
	Limit        *int `json:"limit"        validate:"omitempty,min=1,max=1000"`
	AllowOffline bool `json:"allowOffline"`
}

type registerAccountRequest struct {
	Name     string `json:"name"     validate:"required,max=100"`
	Provider string `json:"provider" validate:"required,oneof=maystro yalidine zr_express"`
	Token    string `json:"token"    validate:"required"`
	BaseURL  string `json:"baseUrl"  validate:"required,http_url"`
}

type syncRequest struct {
	StoreID   string `json:"storeId"   validate:"omitempty,max=64"`
	MaxOrders *int   `json:"maxOrders" validate:"omitempty,min=1"`
}

type commissionResponse struct {
	ConfirmationFee   decimal.Decimal `json:"confirmationFee"`
	DeliveryFee       decimal.Decimal `json:"deliveryFee"`
	PerDeliveredOrder decimal.Decimal `json:"perDeliveredOrder"`
	Currency          string          `json:"currency"`
	UpdatedAt         *time.Time      `json:"updatedAt,omitempty"`
	IsDefault         bool            `json:"isDefault"`
}

func commissionFromView(v queries.CommissionView) commissionResponse {
	return commissionResponse{
		ConfirmationFee:   v.ConfirmationFee,
		DeliveryFee:       v.DeliveryFee,
		PerDeliveredOrder: v.PerDeliveredOrder,
		Currency:          v.Currency,
		UpdatedAt:         v.UpdatedAt,
		IsDefault:         v.IsDefault,
	}
}

func commissionFromModel(c settings.Commission) commissionResponse {
	updated := c.UpdatedAt()
	return commissionResponse{
		ConfirmationFee:   c.ConfirmationFee(),
		DeliveryFee:       c.DeliveryFee(),
		PerDeliveredOrder: c.PerDeliveredOrder(),
		Currency:          c.Currency(),
		UpdatedAt:         &updated,
	}
}

type wilayaResponse struct {
	Code         int    `json:"code"`
	Name         string `json:"name"`
	DeliveryDays int    `json:"deliveryDays"`
	Active       bool   `json:"active"`
}

func wilayaFromModel(w settings.Wilaya) wilayaResponse {
	return wilayaResponse{Code: w.Code(), Name: w.Name(), DeliveryDays: w.DeliveryDays(), Active: w.IsActive()}
}

type agentResponse struct {
	ID             string     `json:"id"`
	Code           string     `json:"code"`
	Name           string     `json:"name"`
	Role           string     `json:"role"`
	MaxOrders      int        `json:"maxOrders"`
	Active         bool       `json:"active"`
	Online         bool       `json:"online"`
	LastActivityAt *time.Time `json:"lastActivityAt,omitempty"`
	CreatedAt      time.Time  `json:"createdAt"`
}

func agentFromView(v queries.AgentView) agentResponse {
	return agentResponse{
		ID:             v.ID.String(),
		Code:           v.Code,
		Name:           v.Name,
		Role:           v.Role,
		MaxOrders:      v.MaxOrders,
		Active:         v.Active,
		Online:         v.Online,
		LastActivityAt: v.LastActivityAt,
		CreatedAt:      v.CreatedAt,
	}
}

func agentFromModel(a *agent.Agent) agentResponse {
	return agentResponse{
		ID:             a.ID().String(),
		Code:           a.Code(),
		Name:           a.Name(),
		Role:           a.Role().String(),
		MaxOrders:      a.MaxOrders(),
		Active:         a.IsActive(),
		LastActivityAt: a.LastActivityAt(),
		CreatedAt:      a.CreatedAt(),
	}
}

type assignmentResponse struct {
	OrderID   string `json:"orderId"`
	Success   bool   `json:"success"`
	AgentID   string `json:"agentId,omitempty"`
	AgentName string `json:"agentName,omitempty"`
	Reason    string `json:"reason,omitempty"`
}

func assignmentFromResult(r commands.AssignmentResult) assignmentResponse {
	resp := assignmentResponse{
		OrderID:   r.OrderID.String(),
		Success:   r.Success,
		AgentName: r.AgentName,
		Reason:    string(r.Reason),
	}
	if r.AgentID != nil {
		resp.AgentID = r.AgentID.String()
	}
	return resp
}

type autoAssignResponse struct {
	TotalProcessed        int                  `json:"totalProcessed"`
	SuccessfulAssignments int                  `json:"successfulAssignments"`
	FailedAssignments     int                  `json:"failedAssignments"`
	Interrupted           bool                 `json:"interrupted"`
	Details               []assignmentResponse `json:"details"`
}

func autoAssignFromResult(r commands.AutoAssignResult) autoAssignResponse {
	details := make([]assignmentResponse, len(r.Details))
	for i, d := range r.Details {
		details[i] = assignmentFromResult(d)
	}
	return autoAssignResponse{
		TotalProcessed:        r.TotalProcessed,
		SuccessfulAssignments: r.SuccessfulAssignments,
		FailedAssignments:     r.FailedAssignments,
		Interrupted:           r.Interrupted,
		Details:               details,
	}
}

type agentWorkloadResponse struct {
	ID                 string     `json:"id"`
	Code               string     `json:"code"`
	Name               string     `json:"name"`
	Assigned           int        `json:"assigned"`
	MaxOrders          int        `json:"maxOrders"`
	UtilizationPercent float64    `json:"utilizationPercent"`
	Online             bool       `json:"online"`
	LastActivityAt     *time.Time `json:"lastActivityAt,omitempty"`
}

type assignmentStatsResponse struct {
	TotalAgents      int                     `json:"totalAgents"`
	OnlineAgents     int                     `json:"onlineAgents"`
	UnassignedOrders int                     `json:"unassignedOrders"`
	AssignedOrders   int                     `json:"assignedOrders"`
	Agents           []agentWorkloadResponse `json:"agents"`
	GeneratedAt      time.Time               `json:"generatedAt"`
}

func statsFromView(s queries.AssignmentStats) assignmentStatsResponse {
	agents := make([]agentWorkloadResponse, len(s.Agents))
	for i, a := range s.Agents {
		agents[i] = agentWorkloadResponse{
			ID:                 a.ID.String(),
			Code:               a.Code,
			Name:               a.Name,
			Assigned:           a.Assigned,
			MaxOrders:          a.MaxOrders,
			UtilizationPercent: a.UtilizationPercent,
			Online:             a.Online,
			LastActivityAt:     a.LastActivityAt,
		}
	}
	return assignmentStatsResponse{
		TotalAgents:      s.TotalAgents,
		OnlineAgents:     s.OnlineAgents,
		UnassignedOrders: s.UnassignedOrders,
		AssignedOrders:   s.AssignedOrders,
		Agents:           agents,
		GeneratedAt:      s.GeneratedAt,
	}
}

type shippingAccountResponse struct {
	ID               string    `json:"id"`
	Name             string    `json:"name"`
	Provider         string    `json:"provider"`
	BaseURL          string    `json:"baseUrl"`
	Active           bool      `json:"active"`
	CreatedAt        time.Time `json:"createdAt"`
	Orders           int       `json:"orders"`
	CorruptedOrders  int       `json:"corruptedOrders"`
	UnresolvedOrders int       `json:"unresolvedOrders"`
}

func accountFromView(v queries.ShippingAccountView) shippingAccountResponse {
	return shippingAccountResponse{
		ID:               v.ID.String(),
		Name:             v.Name,
		Provider:         v.Provider,
		BaseURL:          v.BaseURL,
		Active:           v.Active,
		CreatedAt:        v.CreatedAt,
		Orders:           v.Orders,
		CorruptedOrders:  v.CorruptedOrders,
		UnresolvedOrders: v.UnresolvedOrders,
	}
}

func accountFromModel(a *shipping.Account) shippingAccountResponse {
	return shippingAccountResponse{
		ID:        a.ID().String(),
		Name:      a.Name(),
		Provider:  a.Provider().String(),
		BaseURL:   a.BaseURL(),
		Active:    a.IsActive(),
		CreatedAt: a.CreatedAt(),
	}
}

type syncDetailResponse struct {
	Reference      string `json:"reference"`
	Status         string `json:"status"`
	TrackingNumber string `json:"trackingNumber"`
}

type syncResponse struct {
	AccountID             string               `json:"shippingAccountId"`
	Candidates            int                  `json:"candidates"`
	Updated               int                  `json:"updated"`
	Unchanged             int                  `json:"unchanged"`
	NotFound              int                  `json:"notFound"`
	Errors                int                  `json:"errors"`
	SkippedForeignAccount int                  `json:"skippedForeignAccount"`
	ForeignAfterBatch     int                  `json:"foreignAfterBatch"`
	Interrupted           bool                 `json:"interrupted"`
	Details               []syncDetailResponse `json:"details"`
}

func syncFromResult(r commands.SyncResult) syncResponse {
	details := make([]syncDetailResponse, len(r.Details))
	for i, d := range r.Details {
		details[i] = syncDetailResponse{Reference: d.Reference, Status: d.Status, TrackingNumber: d.TrackingNumber}
	}
	return syncResponse{
		AccountID:             r.AccountID.String(),
		Candidates:            r.Candidates,
		Updated:               r.Updated,
		Unchanged:             r.Unchanged,
		NotFound:              r.NotFound,
		Errors:                r.Errors,
		SkippedForeignAccount: r.SkippedForeignAccount,
		ForeignAfterBatch:     r.ForeignAfterBatch,
		Interrupted:           r.Interrupted,
		Details:               details,
	}
}

type skippedAccountResponse struct {
	AccountID string `json:"shippingAccountId"`
	Name      string `json:"name"`
	Provider  string `json:"provider"`
	Orders    int    `json:"orders"`
	Reason    string `json:"reason"`
}

type accountFailureResponse struct {
	AccountID string `json:"shippingAccountId"`
	Orders    int    `json:"orders"`
	Error     string `json:"error"`
}

type reconcileResponse struct {
	TotalCorrupted       int                      `json:"totalCorrupted"`
	OrdersWithoutAccount int                      `json:"ordersWithoutAccount"`
	Synced               []syncResponse           `json:"synced"`
	Skipped              []skippedAccountResponse `json:"skipped"`
	Failures             []accountFailureResponse `json:"failures"`
	Interrupted          bool                     `json:"interrupted"`
}

func reconcileFromResult(r commands.ReconcileResult) reconcileResponse {
	resp := reconcileResponse{
		TotalCorrupted:       r.TotalCorrupted,
		OrdersWithoutAccount: r.OrdersWithoutAccount,
		Synced:               make([]syncResponse, len(r.Synced)),
		Skipped:              make([]skippedAccountResponse, len(r.Skipped)),
		Failures:             make([]accountFailureResponse, len(r.Failures)),
		Interrupted:          r.Interrupted,
	}
	for i, s := range r.Synced {
		resp.Synced[i] = syncFromResult(s)
	}
	for i, s := range r.Skipped {
		resp.Skipped[i] = skippedAccountResponse{
			AccountID: s.AccountID.String(), Name: s.Name, Provider: s.Provider, Orders: s.Orders, Reason: s.Reason,
		}
	}
	for i, f := range r.Failures {
		resp.Failures[i] = accountFailureResponse{AccountID: f.AccountID.String(), Orders: f.Orders, Error: f.Error}
	}
	return resp
}

type webhookOutcomeResponse struct {
	EventID   string `json:"eventId,omitempty"`
	Status    string `json:"status"`
	Duplicate bool   `json:"duplicate"`
	Reason    string `json:"reason,omitempty"`
}

func outcomeFromResult(o commands.WebhookOutcome) webhookOutcomeResponse {
	resp := webhookOutcomeResponse{Status: string(o.Status), Duplicate: o.Duplicate, Reason: o.Reason}
	if o.EventID != nil {
		resp.EventID = o.EventID.String()
	}
	return resp
}

type webhookEventResponse struct {
	ID          string          `json:"id"`
	Source      string          `json:"source"`
	ExternalID  string          `json:"externalId,omitempty"`
	EventType   string          `json:"eventType"`
	Payload     json.RawMessage `json:"payload"`
	Status      string          `json:"status"`
	Attempts    int             `json:"attempts"`
	LastError   string          `json:"lastError,omitempty"`
	ReceivedAt  time.Time       `json:"receivedAt"`
	ProcessedAt *time.Time      `json:"processedAt,omitempty"`
}

type webhookEventPageResponse struct {
	Items    []webhookEventResponse `json:"items"`
	Total    int                    `json:"total"`
	Page     int                    `json:"page"`
	PageSize int                    `json:"pageSize"`
}

func eventPageFromView(p queries.WebhookEventPage) webhookEventPageResponse {
	items := make([]webhookEventResponse, len(p.Items))
	for i, e := range p.Items {
		items[i] = webhookEventResponse{
			ID:          e.ID.String(),
			Source:      e.Source,
			ExternalID:  e.ExternalID,
			EventType:   e.EventType,
			Payload:     e.Payload,
			Status:      e.Status,
			Attempts:    e.Attempts,
			LastError:   e.LastError,
			ReceivedAt:  e.ReceivedAt,
			ProcessedAt: e.ProcessedAt,
		}
	}
	return webhookEventPageResponse{Items: items, Total: p.Total, Page: p.Page, PageSize: p.PageSize}
}

type webhookStatsResponse struct {
	Total          int                       `json:"total"`
	ByStatus       map[string]int            `json:"byStatus"`
	BySource       map[string]map[string]int `json:"bySource"`
	LastReceivedAt *time.Time                `json:"lastReceivedAt,omitempty"`
}
