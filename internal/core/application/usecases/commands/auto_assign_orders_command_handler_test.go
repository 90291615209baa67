package commands_test

import (
	"context"
	"errors"
	"testing"

	"backoffice/internal/core/application/usecases/commands"
	"backoffice/internal/core/domain/model/kernel"
	"backoffice/internal/core/domain/model/order"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"
)

type MockOrderAssigner struct{ mock.Mock }

func (m *MockOrderAssigner) Handle(ctx context.Context, cmd commands.AssignOrderCommand) (commands.AssignmentResult, error) {
	args := m.Called(ctx, cmd.OrderID(), cmd.AllowOffline())
	return args.Get(0).(commands.AssignmentResult), args.Error(1)
}

func setupBacklog(t *testing.T, orders []*order.Order, limit int) (*MockOrderUoWFactory, *MockOrderRepository) {
	t.Helper()
	orderRepo := new(MockOrderRepository)
	uow := new(MockUoW)
	factory := new(MockOrderUoWFactory)
	factory.On("Create").Return(uow).Once()
	uow.On("OrderRepository").Return(orderRepo).Once()
	orderRepo.On("ListUnassigned", mock.Anything, limit).Return(orders, nil).Once()
	return factory, orderRepo
}

func TestAutoAssignOrdersCommandHandler_Handle_ProcessesBacklogInOrder(t *testing.T) {
	ctx := t.Context()
	o1, o2, o3 := newTestOrder("r1"), newTestOrder("r2"), newTestOrder("r3")
	factory, _ := setupBacklog(t, []*order.Order{o1, o2, o3}, 10)
	agentID := kernel.NewUUID()

	assigner := new(MockOrderAssigner)
	mock.InOrder(
		assigner.On("Handle", ctx, o1.ID(), true).
			Return(commands.AssignmentResult{OrderID: o1.ID(), Success: true, AgentID: &agentID}, nil).Once(),
		assigner.On("Handle", ctx, o2.ID(), true).
			Return(commands.AssignmentResult{OrderID: o2.ID(), Reason: commands.ReasonNoEligibleAgent}, nil).Once(),
		assigner.On("Handle", ctx, o3.ID(), true).
			Return(commands.AssignmentResult{}, errors.New("connection reset")).Once(),
	)

	cmd, err := commands.NewAutoAssignOrdersCommand(10, true)
	require.NoError(t, err)

	result, err := commands.NewAutoAssignOrdersCommandHandler(factory, assigner, nil).Handle(ctx, cmd)

	require.NoError(t, err)
	assert.Equal(t, 3, result.TotalProcessed)
	assert.Equal(t, 1, result.SuccessfulAssignments)
	assert.Equal(t, 2, result.FailedAssignments)
	assert.False(t, result.Interrupted)
	require.Len(t, result.Details, 3)
	assert.Equal(t, commands.ReasonNoEligibleAgent, result.Details[1].Reason)
	assert.Equal(t, o3.ID(), result.Details[2].OrderID)
	assert.Equal(t, commands.ReasonAssignmentError, result.Details[2].Reason)
	assigner.AssertExpectations(t)
}

func TestAutoAssignOrdersCommandHandler_Handle_EmptyBacklog(t *testing.T) {
	factory, _ := setupBacklog(t, []*order.Order{}, 5)
	assigner := new(MockOrderAssigner)
	cmd, _ := commands.NewAutoAssignOrdersCommand(5, false)

	result, err := commands.NewAutoAssignOrdersCommandHandler(factory, assigner, nil).Handle(t.Context(), cmd)

	require.NoError(t, err)
	assert.Zero(t, result.TotalProcessed)
	assert.NotNil(t, result.Details)
	assigner.AssertNotCalled(t, "Handle", mock.Anything, mock.Anything, mock.Anything)
}

func TestAutoAssignOrdersCommandHandler_Handle_StopsWhenCancelled(t *testing.T) {
	ctx, cancel := context.WithCancel(t.Context())
	o1, o2 := newTestOrder("r1"), newTestOrder("r2")
	factory, _ := setupBacklog(t, []*order.Order{o1, o2}, 5)

	assigner := new(MockOrderAssigner)
	assigner.On("Handle", ctx, o1.ID(), false).
		Run(func(mock.Arguments) { cancel() }).
		Return(commands.AssignmentResult{OrderID: o1.ID(), Success: true}, nil).Once()

	cmd, _ := commands.NewAutoAssignOrdersCommand(5, false)
	result, err := commands.NewAutoAssignOrdersCommandHandler(factory, assigner, nil).Handle(ctx, cmd)

	require.NoError(t, err)
	assert.True(t, result.Interrupted)
	assert.Equal(t, 1, result.TotalProcessed)
	assigner.AssertNotCalled(t, "Handle", mock.Anything, o2.ID(), mock.Anything)
}

func TestAutoAssignOrdersCommandHandler_Handle_ListErrorPropagates(t *testing.T) {
	orderRepo := new(MockOrderRepository)
	uow := new(MockUoW)
	factory := new(MockOrderUoWFactory)
	factory.On("Create").Return(uow).Once()
	uow.On("OrderRepository").Return(orderRepo).Once()
	orderRepo.On("ListUnassigned", mock.Anything, 5).Return(nil, errors.New("db down")).Once()

	cmd, _ := commands.NewAutoAssignOrdersCommand(5, false)
	_, err := commands.NewAutoAssignOrdersCommandHandler(factory, new(MockOrderAssigner), nil).Handle(t.Context(), cmd)

	require.EqualError(t, err, "db down")
}

func TestNewAutoAssignOrdersCommand_RejectsLimitOutOfRange(t *testing.T) {
	_, err := commands.NewAutoAssignOrdersCommand(0, false)
	require.Error(t, err)

	_, err = commands.NewAutoAssignOrdersCommand(commands.MaxAutoAssignLimit+1, false)
	require.Error(t, err)

	var zero commands.AutoAssignOrdersCommand
	require.ErrorIs(t, zero.Validate(), commands.ErrAutoAssignOrdersCommandIsNotConstructed)
}
