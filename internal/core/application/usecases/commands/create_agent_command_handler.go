package commands

import (
	"context"
	"time"

	"backoffice/internal/core/domain/model/agent"
)

// CreateAgentCommandHandler persists a new, active agent. A duplicate code
// surfaces as ports.ErrDuplicate from the repository.
type CreateAgentCommandHandler struct {
	uowFactory AgentUoWFactory
}

func NewCreateAgentCommandHandler(uowFactory AgentUoWFactory) CreateAgentCommandHandler {
	return CreateAgentCommandHandler{uowFactory: uowFactory}
}

func (h CreateAgentCommandHandler) Handle(ctx context.Context, command CreateAgentCommand) (*agent.Agent, error) {
	if err := command.Validate(); err != nil {
		return nil, err
	}

	a, err := agent.NewAgent(command.AgentID(), command.Code(), command.Name(), command.Role(), command.MaxOrders(), time.Now())
	if err != nil {
		return nil, err
	}

	uow := h.uowFactory.Create()
	if err = uow.Begin(ctx); err != nil {
		return nil, err
	}

	defer func() {
		_ = uow.Rollback(ctx)
	}()

	if err = uow.AgentRepository().Add(ctx, a); err != nil {
		return nil, err
	}
	if err = uow.Commit(ctx); err != nil {
		return nil, err
	}

	return a, nil
}
