package ports

import (
	"context"

	"backoffice/internal/core/domain/model/agent"
	"backoffice/internal/core/domain/model/kernel"
)

// AgentRepository defines the persistence contract for agent aggregates.
type AgentRepository interface {
	// Add persists a new agent. Duplicate codes wrap ErrDuplicate.
	Add(ctx context.Context, aggregate *agent.Agent) error

	// Update persists changes to an existing agent.
	Update(ctx context.Context, aggregate *agent.Agent) error

	// Get retrieves an agent by id. Returns errs.ErrObjectNotFound if absent.
	Get(ctx context.Context, id kernel.UUID) (*agent.Agent, error)

	// GetAllActive returns every active agent ordered by id.
	GetAllActive(ctx context.Context) ([]*agent.Agent, error)

	// Lock takes a row lock on the agent for the rest of the current
	// transaction and returns its fresh state. Concurrent assignments to the
	// same agent serialize on this lock; assignments to different agents do not.
	Lock(ctx context.Context, id kernel.UUID) (*agent.Agent, error)
}
