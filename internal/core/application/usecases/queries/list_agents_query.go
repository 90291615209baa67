package queries

import (
	"context"
	"errors"
	"time"

	"backoffice/internal/core/domain/model/agent"
	"backoffice/internal/core/domain/model/kernel"
	"backoffice/internal/pkg/guard"

	"github.com/google/uuid"
	"gorm.io/gorm"
)

var ErrListAgentsQueryIsNotConstructed = errors.New(
	"ListAgentsQuery must be created via NewListAgentsQuery constructor",
)

type ListAgentsQuery struct {
	includeInactive bool

	guard guard.ConstructorGuard
}

func NewListAgentsQuery(includeInactive bool) ListAgentsQuery {
	return ListAgentsQuery{includeInactive: includeInactive, guard: guard.NewConstructorGuard()}
}

func (q ListAgentsQuery) IncludeInactive() bool { return q.includeInactive }

func (q ListAgentsQuery) Validate() error {
	return q.guard.Validate(ErrListAgentsQueryIsNotConstructed)
}

// AgentView is an agent as shown to administrators. Online is computed at
// read time from LastActivityAt.
type AgentView struct {
	ID             kernel.UUID
	Code           string
	Name           string
	Role           string
	MaxOrders      int
	Active         bool
	Online         bool
	LastActivityAt *time.Time
	CreatedAt      time.Time
}

type ListAgentsQueryHandler struct {
	db              *gorm.DB
	onlineThreshold time.Duration
	now             func() time.Time
}

func NewListAgentsQueryHandler(db *gorm.DB, onlineThreshold time.Duration) ListAgentsQueryHandler {
	return ListAgentsQueryHandler{db: db, onlineThreshold: onlineThreshold, now: time.Now}
}

func (h ListAgentsQueryHandler) WithClock(now func() time.Time) ListAgentsQueryHandler {
	h.now = now
	return h
}

func (h ListAgentsQueryHandler) Handle(ctx context.Context, query ListAgentsQuery) ([]AgentView, error) {
	if err := query.Validate(); err != nil {
		return nil, err
	}

	builder := psql.
		Select("id", "code", "name", "role", "max_orders", "active", "last_activity_at", "created_at").
		From("agents").
		OrderBy("code")
	if !query.IncludeInactive() {
		builder = builder.Where("active")
	}
	sqlText, args, err := builder.ToSql()
	if err != nil {
		return nil, err
	}

	rows, err := h.db.WithContext(ctx).Raw(sqlText, args...).Rows()
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	now := h.now()
	agents := make([]AgentView, 0)
	for rows.Next() {
		var view AgentView
		var id uuid.UUID
		if err = rows.Scan(&id, &view.Code, &view.Name, &view.Role, &view.MaxOrders,
			&view.Active, &view.LastActivityAt, &view.CreatedAt); err != nil {
			return nil, err
		}
		if view.ID, err = toKernelUUID(id); err != nil {
			return nil, err
		}
		view.Online = view.Active && agent.IsOnlineAt(view.LastActivityAt, now, h.onlineThreshold)
		agents = append(agents, view)
	}

	if err = rows.Err(); err != nil {
		return nil, err
	}
	return agents, nil
}
