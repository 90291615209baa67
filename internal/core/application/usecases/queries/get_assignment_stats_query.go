package queries

import (
	"errors"
	"time"

	"backoffice/internal/core/domain/model/kernel"
	"backoffice/internal/pkg/guard"
)

var ErrGetAssignmentStatsQueryIsNotConstructed = errors.New(
	"GetAssignmentStatsQuery must be created via NewGetAssignmentStatsQuery constructor",
)

// GetAssignmentStatsQuery reads the workload of every active agent together
// with the order backlog.
//
// Example:
//
//	handler := NewGetAssignmentStatsQueryHandler(db, 5*time.Minute)
//	stats, err := handler.Handle(ctx, NewGetAssignmentStatsQuery())
//	if err != nil {
//	    return fmt.Errorf("failed to read assignment stats: %w", err)
//	}
//	fmt.Printf("%d/%d agents online, %d orders waiting\n",
//	    stats.OnlineAgents, stats.TotalAgents, stats.UnassignedOrders)
type GetAssignmentStatsQuery struct {
	guard guard.ConstructorGuard
}

func NewGetAssignmentStatsQuery() GetAssignmentStatsQuery {
	return GetAssignmentStatsQuery{guard: guard.NewConstructorGuard()}
}

func (q GetAssignmentStatsQuery) Validate() error {
	return q.guard.Validate(ErrGetAssignmentStatsQueryIsNotConstructed)
}

// AgentWorkloadView is the load of one active agent.
type AgentWorkloadView struct {
	ID                 kernel.UUID
	Code               string
	Name               string
	Assigned           int
	MaxOrders          int
	UtilizationPercent float64
	Online             bool
	LastActivityAt     *time.Time
}

// AssignmentStats is one consistent snapshot. AssignedOrders only counts
// unresolved orders, the same ones that make up agent workloads.
type AssignmentStats struct {
	TotalAgents      int
	OnlineAgents     int
	UnassignedOrders int
	AssignedOrders   int
	Agents           []AgentWorkloadView
	GeneratedAt      time.Time
}
