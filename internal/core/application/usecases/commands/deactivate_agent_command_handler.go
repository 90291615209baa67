package commands

import (
	"context"
)

// DeactivateAgentCommandHandler flips the active flag. Orders the agent
// already holds stay assigned.
type DeactivateAgentCommandHandler struct {
	uowFactory AgentUoWFactory
}

func NewDeactivateAgentCommandHandler(uowFactory AgentUoWFactory) DeactivateAgentCommandHandler {
	return DeactivateAgentCommandHandler{uowFactory: uowFactory}
}

func (h DeactivateAgentCommandHandler) Handle(ctx context.Context, command DeactivateAgentCommand) error {
	if err := command.Validate(); err != nil {
		return err
	}

	uow := h.uowFactory.Create()
	if err := uow.Begin(ctx); err != nil {
		return err
	}

	defer func() {
		_ = uow.Rollback(ctx)
	}()

	agentRepo := uow.AgentRepository()
	a, err := agentRepo.Lock(ctx, command.AgentID())
	if err != nil {
		return err
	}

	a.Deactivate()
	if err = agentRepo.Update(ctx, a); err != nil {
		return err
	}

	return uow.Commit(ctx)
}
