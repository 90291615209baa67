package commands_test

import (
	"fmt"
	"testing"

	"backoffice/internal/core/application/usecases/commands"
	"backoffice/internal/core/domain/model/agent"
	"backoffice/internal/core/domain/model/kernel"
	"backoffice/internal/core/ports"
	"backoffice/internal/pkg/errs"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"
)

func TestCreateAgentCommandHandler_Handle(t *testing.T) {
	ctx := t.Context()
	cmd, err := commands.NewCreateAgentCommand("ag-001", "Amina", agent.FollowUp, 20)
	require.NoError(t, err)

	agentRepo := new(MockAgentRepository)
	uow := new(MockUoW)
	factory := new(MockAgentUoWFactory)
	factory.On("Create").Return(uow).Once()

	mock.InOrder(
		uow.On("Begin", ctx).Return(nil).Once(),
		uow.On("AgentRepository").Return(agentRepo).Once(),
		agentRepo.On("Add", ctx, mock.AnythingOfType("*agent.Agent")).Return(nil).Once(),
		uow.On("Commit", ctx).Return(nil).Once(),
		uow.On("Rollback", ctx).Return(nil).Once(),
	)

	created, err := commands.NewCreateAgentCommandHandler(factory).Handle(ctx, cmd)

	require.NoError(t, err)
	assert.Equal(t, cmd.AgentID(), created.ID())
	assert.Equal(t, "AG-001", created.Code())
	assert.True(t, created.IsActive())
	assert.Nil(t, created.LastActivityAt())
	mock.AssertExpectationsForObjects(t, factory, uow, agentRepo)
}

func TestCreateAgentCommandHandler_Handle_DuplicateCode(t *testing.T) {
	ctx := t.Context()
	cmd, _ := commands.NewCreateAgentCommand("AG-001", "Amina", agent.CallCenter, 5)

	agentRepo := new(MockAgentRepository)
	uow := new(MockUoW)
	factory := new(MockAgentUoWFactory)
	factory.On("Create").Return(uow).Once()
	uow.On("Begin", ctx).Return(nil).Once()
	uow.On("AgentRepository").Return(agentRepo).Once()
	uow.On("Rollback", ctx).Return(nil).Once()
	agentRepo.On("Add", ctx, mock.Anything).Return(fmt.Errorf("%w: ux_agents_code", ports.ErrDuplicate)).Once()

	_, err := commands.NewCreateAgentCommandHandler(factory).Handle(ctx, cmd)

	require.ErrorIs(t, err, ports.ErrDuplicate)
	uow.AssertNotCalled(t, "Commit", mock.Anything)
}

func TestCreateAgentCommandHandler_Handle_InvalidAggregateNeverReachesStore(t *testing.T) {
	cmd, err := commands.NewCreateAgentCommand("  ", "Amina", agent.FollowUp, 5)
	require.NoError(t, err)
	factory := new(MockAgentUoWFactory)

	_, err = commands.NewCreateAgentCommandHandler(factory).Handle(t.Context(), cmd)

	require.ErrorIs(t, err, errs.ErrValueIsRequired)
	factory.AssertNotCalled(t, "Create")
}

func TestNewCreateAgentCommand_Validation(t *testing.T) {
	_, err := commands.NewCreateAgentCommand("AG", "N", agent.UnknownRole, 5)
	require.ErrorIs(t, err, errs.ErrValueIsInvalid)

	_, err = commands.NewCreateAgentCommand("AG", "N", agent.FollowUp, 0)
	require.ErrorIs(t, err, errs.ErrValueIsOutOfRange)
}

func TestDeactivateAgentCommandHandler_Handle(t *testing.T) {
	ctx := t.Context()
	a := newTestAgent("A1", 5, nil)
	cmd, err := commands.NewDeactivateAgentCommand(a.ID())
	require.NoError(t, err)

	agentRepo := new(MockAgentRepository)
	uow := new(MockUoW)
	factory := new(MockAgentUoWFactory)
	factory.On("Create").Return(uow).Once()

	mock.InOrder(
		uow.On("Begin", ctx).Return(nil).Once(),
		uow.On("AgentRepository").Return(agentRepo).Once(),
		agentRepo.On("Lock", ctx, a.ID()).Return(a, nil).Once(),
		agentRepo.On("Update", ctx, a).Return(nil).Once(),
		uow.On("Commit", ctx).Return(nil).Once(),
		uow.On("Rollback", ctx).Return(nil).Once(),
	)

	err = commands.NewDeactivateAgentCommandHandler(factory).Handle(ctx, cmd)

	require.NoError(t, err)
	assert.False(t, a.IsActive())
}

func TestDeactivateAgentCommandHandler_Handle_NotFound(t *testing.T) {
	ctx := t.Context()
	id := kernel.NewUUID()
	cmd, _ := commands.NewDeactivateAgentCommand(id)

	agentRepo := new(MockAgentRepository)
	uow := new(MockUoW)
	factory := new(MockAgentUoWFactory)
	factory.On("Create").Return(uow).Once()
	uow.On("Begin", ctx).Return(nil).Once()
	uow.On("AgentRepository").Return(agentRepo).Once()
	uow.On("Rollback", ctx).Return(nil).Once()
	agentRepo.On("Lock", ctx, id).Return(nil, errs.NewObjectNotFoundError("agent", id)).Once()

	err := commands.NewDeactivateAgentCommandHandler(factory).Handle(ctx, cmd)

	require.ErrorIs(t, err, errs.ErrObjectNotFound)
}
