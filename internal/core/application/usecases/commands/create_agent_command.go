package commands

import (
	"errors"

	"backoffice/internal/core/domain/model/agent"
	"backoffice/internal/core/domain/model/kernel"
	"backoffice/internal/pkg/errs"
	"backoffice/internal/pkg/guard"
)

var ErrCreateAgentCommandIsNotConstructed = errors.New(
	"CreateAgentCommand must be created via NewCreateAgentCommand constructor",
)

// CreateAgentCommand registers a new agent. Field rules are the aggregate's;
// the constructor only rejects values no agent could ever have.
type CreateAgentCommand struct {
	agentID   kernel.UUID
	code      string
	name      string
	role      agent.Role
	maxOrders int

	guard guard.ConstructorGuard
}

func NewCreateAgentCommand(code, name string, role agent.Role, maxOrders int) (CreateAgentCommand, error) {
	if err := role.Validate(); err != nil {
		return CreateAgentCommand{}, err
	}
	if maxOrders < 1 {
		return CreateAgentCommand{}, errs.NewValueIsOutOfRangeError("maxOrders", maxOrders, 1, agent.MaxOrdersLimit)
	}

	return CreateAgentCommand{
		agentID:   kernel.NewUUID(),
		code:      code,
		name:      name,
		role:      role,
		maxOrders: maxOrders,
		guard:     guard.NewConstructorGuard(),
	}, nil
}

func (c *CreateAgentCommand) AgentID() kernel.UUID { return c.agentID }
func (c *CreateAgentCommand) Code() string         { return c.code }
func (c *CreateAgentCommand) Name() string         { return c.name }
func (c *CreateAgentCommand) Role() agent.Role     { return c.role }
func (c *CreateAgentCommand) MaxOrders() int       { return c.maxOrders }

func (c *CreateAgentCommand) Validate() error {
	return c.guard.Validate(ErrCreateAgentCommandIsNotConstructed)
}
