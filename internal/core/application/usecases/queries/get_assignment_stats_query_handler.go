package queries

import (
	"context"
	"database/sql"
	"time"

	"backoffice/internal/core/domain/model/agent"

	sq "github.com/Masterminds/squirrel"
	"github.com/google/uuid"
	"gorm.io/gorm"
)

// GetAssignmentStatsQueryHandler computes the statistics inside one read-only
// REPEATABLE READ transaction so totals and per-agent rows never contradict
// each other.
type GetAssignmentStatsQueryHandler struct {
	db              *gorm.DB
	onlineThreshold time.Duration
	now             func() time.Time
}

func NewGetAssignmentStatsQueryHandler(db *gorm.DB, onlineThreshold time.Duration) GetAssignmentStatsQueryHandler {
	return GetAssignmentStatsQueryHandler{db: db, onlineThreshold: onlineThreshold, now: time.Now}
}

func (h GetAssignmentStatsQueryHandler) WithClock(now func() time.Time) GetAssignmentStatsQueryHandler {
	h.now = now
	return h
}

func (h GetAssignmentStatsQueryHandler) Handle(ctx context.Context, query GetAssignmentStatsQuery) (AssignmentStats, error) {
	if err := query.Validate(); err != nil {
		return AssignmentStats{}, err
	}

	now := h.now()
	stats := AssignmentStats{Agents: make([]AgentWorkloadView, 0), GeneratedAt: now.UTC()}

	err := h.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		if err := h.readBacklog(tx, &stats); err != nil {
			return err
		}
		return h.readAgents(tx, now, &stats)
	}, &sql.TxOptions{Isolation: sql.LevelRepeatableRead, ReadOnly: true})
	if err != nil {
		return AssignmentStats{}, err
	}

	return stats, nil
}

func (h GetAssignmentStatsQueryHandler) readBacklog(tx *gorm.DB, stats *AssignmentStats) error {
	query, args, err := psql.
		Select(
			"COUNT(*) FILTER (WHERE assigned_agent_id IS NULL)",
			"COUNT(*) FILTER (WHERE assigned_agent_id IS NOT NULL)",
		).
		From("orders").
		Where(sq.NotEq{"status": resolvedStatusNames()}).
		ToSql()
	if err != nil {
		return err
	}

	return tx.Raw(query, args...).Row().Scan(&stats.UnassignedOrders, &stats.AssignedOrders)
}

func (h GetAssignmentStatsQueryHandler) readAgents(tx *gorm.DB, now time.Time, stats *AssignmentStats) error {
	workloads, args, err := psql.
		Select("assigned_agent_id", "COUNT(*) AS assigned").
		From("orders").
		Where(sq.And{
			sq.NotEq{"assigned_agent_id": nil},
			sq.NotEq{"status": resolvedStatusNames()},
		}).
		GroupBy("assigned_agent_id").
		ToSql()
	if err != nil {
		return err
	}

	query, _, err := psql.
		Select("a.id", "a.code", "a.name", "a.max_orders", "a.last_activity_at", "COALESCE(w.assigned, 0)").
		From("agents a").
		LeftJoin("(" + workloads + ") w ON w.assigned_agent_id = a.id").
		Where("a.active").
		OrderBy("a.code").
		ToSql()
	if err != nil {
		return err
	}

	rows, err := tx.Raw(query, args...).Rows()
	if err != nil {
		return err
	}
	defer rows.Close()

	for rows.Next() {
		var view AgentWorkloadView
		var id uuid.UUID
		if err = rows.Scan(&id, &view.Code, &view.Name, &view.MaxOrders, &view.LastActivityAt, &view.Assigned); err != nil {
			return err
		}
		if view.ID, err = toKernelUUID(id); err != nil {
			return err
		}

		view.UtilizationPercent = agent.NewWorkload(agent.Load{Assigned: view.Assigned}, view.MaxOrders).UtilizationPercent()
		view.Online = agent.IsOnlineAt(view.LastActivityAt, now, h.onlineThreshold)

		stats.TotalAgents++
		if view.Online {
			stats.OnlineAgents++
		}
		stats.Agents = append(stats.Agents, view)
	}

	return rows.Err()
}
