package queries

import (
	"context"
	"encoding/json"
	"errors"
	"math"
	"time"

	"backoffice/internal/core/domain/model/kernel"
	"backoffice/internal/core/domain/model/webhook"
	"backoffice/internal/pkg/errs"
	"backoffice/internal/pkg/guard"

	sq "github.com/Masterminds/squirrel"
	"github.com/google/uuid"
	"gorm.io/gorm"
)

const (
	DefaultWebhookPageSize = 50
	MaxWebhookPageSize     = 200
)

var (
	ErrListWebhookEventsQueryIsNotConstructed = errors.New(
		"ListWebhookEventsQuery must be created via NewListWebhookEventsQuery constructor",
	)
	ErrGetWebhookStatsQueryIsNotConstructed = errors.New(
		"GetWebhookStatsQuery must be created via NewGetWebhookStatsQuery constructor",
	)
)

// ListWebhookEventsQuery pages through events, newest first. Empty filters
// match everything.
type ListWebhookEventsQuery struct {
	source   *webhook.Source
	status   *webhook.Status
	page     int
	pageSize int

	guard guard.ConstructorGuard
}

// NewListWebhookEventsQuery defaults page to 1 and pageSize to
// DefaultWebhookPageSize when they are zero.
func NewListWebhookEventsQuery(source, status string, page, pageSize int) (ListWebhookEventsQuery, error) {
	q := ListWebhookEventsQuery{page: page, pageSize: pageSize}
	if q.page == 0 {
		q.page = 1
	}
	if q.pageSize == 0 {
		q.pageSize = DefaultWebhookPageSize
	}

	var errList []error
	if source != "" {
		src, err := webhook.ParseSource(source)
		errList = append(errList, err)
		q.source = &src
	}
	if status != "" {
		st, err := webhook.ParseStatus(status)
		errList = append(errList, err)
		q.status = &st
	}
	if q.page < 1 {
		errList = append(errList, errs.NewValueIsOutOfRangeError("page", page, 1, math.MaxInt32))
	}
	if q.pageSize < 1 || q.pageSize > MaxWebhookPageSize {
		errList = append(errList, errs.NewValueIsOutOfRangeError("pageSize", pageSize, 1, MaxWebhookPageSize))
	}
	if err := errors.Join(errList...); err != nil {
		return ListWebhookEventsQuery{}, err
	}

	q.guard = guard.NewConstructorGuard()
	return q, nil
}

func (q ListWebhookEventsQuery) Source() *webhook.Source { return q.source }
func (q ListWebhookEventsQuery) Status() *webhook.Status { return q.status }
func (q ListWebhookEventsQuery) Page() int               { return q.page }
func (q ListWebhookEventsQuery) PageSize() int           { return q.pageSize }

func (q ListWebhookEventsQuery) Validate() error {
	return q.guard.Validate(ErrListWebhookEventsQueryIsNotConstructed)
}

type WebhookEventView struct {
	ID          kernel.UUID
	Source      string
	ExternalID  string
	EventType   string
	Payload     json.RawMessage
	Status      string
	Attempts    int
	LastError   string
	ReceivedAt  time.Time
	ProcessedAt *time.Time
}

type WebhookEventPage struct {
	Items    []WebhookEventView
	Total    int
	Page     int
	PageSize int
}

type ListWebhookEventsQueryHandler struct {
	db *gorm.DB
}

func NewListWebhookEventsQueryHandler(db *gorm.DB) ListWebhookEventsQueryHandler {
	return ListWebhookEventsQueryHandler{db: db}
}

func (h ListWebhookEventsQueryHandler) Handle(ctx context.Context, query ListWebhookEventsQuery) (WebhookEventPage, error) {
	if err := query.Validate(); err != nil {
		return WebhookEventPage{}, err
	}

	filter := sq.Eq{}
	if query.Source() != nil {
		filter["source"] = string(*query.Source())
	}
	if query.Status() != nil {
		filter["status"] = string(*query.Status())
	}

	page := WebhookEventPage{Items: make([]WebhookEventView, 0), Page: query.Page(), PageSize: query.PageSize()}
	db := h.db.WithContext(ctx)

	countSQL, countArgs, err := psql.Select("COUNT(*)").From("webhook_events").Where(filter).ToSql()
	if err != nil {
		return WebhookEventPage{}, err
	}
	if err = db.Raw(countSQL, countArgs...).Row().Scan(&page.Total); err != nil {
		return WebhookEventPage{}, err
	}

	listSQL, listArgs, err := psql.
		Select("id", "source", "external_id", "event_type", "payload", "status",
			"attempts", "last_error", "received_at", "processed_at").
		From("webhook_events").
		Where(filter).
		OrderBy("received_at DESC", "id DESC").
		Limit(uint64(query.PageSize())).
		Offset(uint64((query.Page() - 1) * query.PageSize())).
		ToSql()
	if err != nil {
		return WebhookEventPage{}, err
	}

	rows, err := db.Raw(listSQL, listArgs...).Rows()
	if err != nil {
		return WebhookEventPage{}, err
	}
	defer rows.Close()

	for rows.Next() {
		var view WebhookEventView
		var id uuid.UUID
		var payload []byte
		if err = rows.Scan(&id, &view.Source, &view.ExternalID, &view.EventType, &payload, &view.Status,
			&view.Attempts, &view.LastError, &view.ReceivedAt, &view.ProcessedAt); err != nil {
			return WebhookEventPage{}, err
		}
		if view.ID, err = toKernelUUID(id); err != nil {
			return WebhookEventPage{}, err
		}
		view.Payload = json.RawMessage(payload)
		page.Items = append(page.Items, view)
	}

	if err = rows.Err(); err != nil {
		return WebhookEventPage{}, err
	}
	return page, nil
}

type GetWebhookStatsQuery struct {
	guard guard.ConstructorGuard
}

func NewGetWebhookStatsQuery() GetWebhookStatsQuery {
	return GetWebhookStatsQuery{guard: guard.NewConstructorGuard()}
}

func (q GetWebhookStatsQuery) Validate() error {
	return q.guard.Validate(ErrGetWebhookStatsQueryIsNotConstructed)
}

// WebhookStats counts events per source and status. Sources without events
// are absent from BySource.
type WebhookStats struct {
	Total          int
	ByStatus       map[string]int
	BySource       map[string]map[string]int
	LastReceivedAt *time.Time
}

type GetWebhookStatsQueryHandler struct {
	db *gorm.DB
}

func NewGetWebhookStatsQueryHandler(db *gorm.DB) GetWebhookStatsQueryHandler {
	return GetWebhookStatsQueryHandler{db: db}
}

func (h GetWebhookStatsQueryHandler) Handle(ctx context.Context, query GetWebhookStatsQuery) (WebhookStats, error) {
	if err := query.Validate(); err != nil {
		return WebhookStats{}, err
	}

	sqlText, args, err := psql.
		Select("source", "status", "COUNT(*)", "MAX(received_at)").
		From("webhook_events").
		GroupBy("source", "status").
		OrderBy("source", "status").
		ToSql()
	if err != nil {
		return WebhookStats{}, err
	}

	rows, err := h.db.WithContext(ctx).Raw(sqlText, args...).Rows()
	if err != nil {
		return WebhookStats{}, err
	}
	defer rows.Close()

	stats := WebhookStats{ByStatus: make(map[string]int), BySource: make(map[string]map[string]int)}
	for rows.Next() {
		var source, status string
		var count int
		var last time.Time
		if err = rows.Scan(&source, &status, &count, &last); err != nil {
			return WebhookStats{}, err
		}

		if stats.BySource[source] == nil {
			stats.BySource[source] = make(map[string]int)
		}
		stats.BySource[source][status] = count
		stats.ByStatus[status] += count
		stats.Total += count
		if stats.LastReceivedAt == nil || last.After(*stats.LastReceivedAt) {
			l := last
			stats.LastReceivedAt = &l
		}
	}

	return stats, rows.Err()
}
