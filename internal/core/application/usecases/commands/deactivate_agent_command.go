package commands

import (
	"errors"

	"backoffice/internal/core/domain/model/kernel"
	"backoffice/internal/pkg/guard"
)

var ErrDeactivateAgentCommandIsNotConstructed = errors.New(
	"DeactivateAgentCommand must be created via NewDeactivateAgentCommand constructor",
)

// DeactivateAgentCommand removes an agent from the assignment pool.
type DeactivateAgentCommand struct {
	agentID kernel.UUID

	guard guard.ConstructorGuard
}

func NewDeactivateAgentCommand(agentID kernel.UUID) (DeactivateAgentCommand, error) {
	if err := agentID.Validate(); err != nil {
		return DeactivateAgentCommand{}, err
	}
	return DeactivateAgentCommand{agentID: agentID, guard: guard.NewConstructorGuard()}, nil
}

func (c *DeactivateAgentCommand) AgentID() kernel.UUID { return c.agentID }

func (c *DeactivateAgentCommand) Validate() error {
	return c.guard.Validate(ErrDeactivateAgentCommandIsNotConstructed)
}
