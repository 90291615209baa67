package commands_test

import (
	"context"
	"errors"
	"fmt"
	"testing"
	"time"

	"backoffice/internal/core/application/usecases/commands"
	"backoffice/internal/core/domain/model/order"
	"backoffice/internal/core/ports"
	"backoffice/internal/pkg/errs"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"
)

func TestIngestOrderCommandHandler_Handle_CreatesPendingOrder(t *testing.T) {
	ctx := t.Context()
	cmd, err := commands.NewIngestOrderCommand("store-1", " ECO-1 ", testNow)
	require.NoError(t, err)

	orderRepo := new(MockOrderRepository)
	uow := new(MockUoW)
	factory := new(MockOrderUoWFactory)
	factory.On("Create").Return(uow).Once()

	var added *order.Order
	mock.InOrder(
		uow.On("Begin", ctx).Return(nil).Once(),
		uow.On("OrderRepository").Return(orderRepo).Once(),
		orderRepo.On("GetByExternalReference", ctx, "store-1", "ECO-1").
			Return(nil, errs.NewObjectNotFoundError("storeID/ref", "store-1/ECO-1")).Once(),
		orderRepo.On("Add", ctx, mock.AnythingOfType("*order.Order")).
			Run(func(args mock.Arguments) { added = args.Get(1).(*order.Order) }).
			Return(nil).Once(),
		uow.On("Commit", ctx).Return(nil).Once(),
		uow.On("Rollback", ctx).Return(nil).Once(),
	)

	result, err := commands.NewIngestOrderCommandHandler(factory).Handle(ctx, cmd)

	require.NoError(t, err)
	assert.True(t, result.Created)
	require.NotNil(t, added)
	assert.Equal(t, added.ID(), result.OrderID)
	assert.Equal(t, order.Pending, added.Status())
	assert.False(t, added.IsAssigned())
	assert.Equal(t, testNow, added.CreatedAt())
}

func TestIngestOrderCommandHandler_Handle_ExistingReferenceIsNoop(t *testing.T) {
	ctx := t.Context()
	stored := newTestOrder("ECO-1")
	cmd, _ := commands.NewIngestOrderCommand("store-1", "ECO-1", testNow)

	orderRepo := new(MockOrderRepository)
	uow := new(MockUoW)
	factory := new(MockOrderUoWFactory)
	factory.On("Create").Return(uow).Once()
	uow.On("Begin", ctx).Return(nil).Once()
	uow.On("OrderRepository").Return(orderRepo).Once()
	uow.On("Rollback", ctx).Return(nil).Once()
	orderRepo.On("GetByExternalReference", ctx, "store-1", "ECO-1").Return(stored, nil).Once()

	result, err := commands.NewIngestOrderCommandHandler(factory).Handle(ctx, cmd)

	require.NoError(t, err)
	assert.False(t, result.Created)
	assert.Equal(t, stored.ID(), result.OrderID)
	orderRepo.AssertNotCalled(t, "Add", mock.Anything, mock.Anything)
	uow.AssertNotCalled(t, "Commit", mock.Anything)
}

func TestIngestOrderCommandHandler_Handle_ConcurrentDuplicateReturnsWinner(t *testing.T) {
	ctx := t.Context()
	winner := newTestOrder("ECO-1")
	cmd, _ := commands.NewIngestOrderCommand("store-1", "ECO-1", testNow)

	orderRepo := new(MockOrderRepository)
	uow := new(MockUoW)
	readUoW := new(MockUoW)
	factory := new(MockOrderUoWFactory)
	factory.On("Create").Return(uow).Once()
	factory.On("Create").Return(readUoW).Once()
	uow.On("Begin", ctx).Return(nil).Once()
	uow.On("OrderRepository").Return(orderRepo).Once()
	uow.On("Rollback", ctx).Return(nil).Once()
	readUoW.On("OrderRepository").Return(orderRepo).Once()
	orderRepo.On("GetByExternalReference", ctx, "store-1", "ECO-1").
		Return(nil, errs.NewObjectNotFoundError("storeID/ref", "store-1/ECO-1")).Once()
	orderRepo.On("Add", ctx, mock.Anything).Return(fmt.Errorf("%w: ux_orders_store_reference", ports.ErrDuplicate)).Once()
	orderRepo.On("GetByExternalReference", ctx, "store-1", "ECO-1").Return(winner, nil).Once()

	result, err := commands.NewIngestOrderCommandHandler(factory).Handle(ctx, cmd)

	require.NoError(t, err)
	assert.False(t, result.Created)
	assert.Equal(t, winner.ID(), result.OrderID)
}

func TestNewIngestOrderCommand_RequiresStoreAndReference(t *testing.T) {
	_, err := commands.NewIngestOrderCommand("", " ", time.Time{})

	require.ErrorIs(t, err, errs.ErrValueIsRequired)
	assert.Contains(t, err.Error(), "storeId")
	assert.Contains(t, err.Error(), "reference")
}

type MockOrderIngester struct{ mock.Mock }

func (m *MockOrderIngester) Handle(ctx context.Context, cmd commands.IngestOrderCommand) (commands.IngestResult, error) {
	args := m.Called(ctx, cmd.Reference())
	return args.Get(0).(commands.IngestResult), args.Error(1)
}

func TestImportOrdersCommandHandler_Handle_StopsAtFirstKnownReference(t *testing.T) {
	ctx := t.Context()
	source := new(MockOrderSource)
	source.On("FetchOrders", ctx, 1).Return(ports.SourceOrderPage{
		Orders:  []ports.SourceOrder{{StoreID: "s1", Reference: "R5"}, {StoreID: "s1", Reference: "R4"}},
		HasNext: true,
	}, nil).Once()
	source.On("FetchOrders", ctx, 2).Return(ports.SourceOrderPage{
		Orders:  []ports.SourceOrder{{StoreID: "s1", Reference: "R3"}, {StoreID: "s1", Reference: "R2"}},
		HasNext: true,
	}, nil).Once()

	orderRepo := new(MockOrderRepository)
	uow := new(MockUoW)
	factory := new(MockOrderUoWFactory)
	factory.On("Create").Return(uow)
	uow.On("OrderRepository").Return(orderRepo)
	orderRepo.On("KnownReferences", ctx, "s1", []string{"R5", "R4"}).Return([]string{}, nil).Once()
	orderRepo.On("KnownReferences", ctx, "s1", []string{"R3", "R2"}).Return([]string{"R2"}, nil).Once()

	ingester := new(MockOrderIngester)
	ingester.On("Handle", ctx, "R5").Return(commands.IngestResult{Created: true}, nil).Once()
	ingester.On("Handle", ctx, "R4").Return(commands.IngestResult{Created: false}, nil).Once()
	ingester.On("Handle", ctx, "R3").Return(commands.IngestResult{}, errors.New("db timeout")).Once()

	cmd, err := commands.NewImportOrdersCommand(10)
	require.NoError(t, err)

	result, err := commands.NewImportOrdersCommandHandler(source, factory, ingester, nil).Handle(ctx, cmd)

	require.NoError(t, err)
	assert.Equal(t, commands.ImportResult{Pages: 2, Imported: 1, Existing: 1, Failed: 1, StoppedAtKnown: true}, result)
	source.AssertNotCalled(t, "FetchOrders", ctx, 3)
	ingester.AssertNotCalled(t, "Handle", ctx, "R2")
}

func TestImportOrdersCommandHandler_Handle_RespectsMaxPages(t *testing.T) {
	ctx := t.Context()
	source := new(MockOrderSource)
	source.On("FetchOrders", ctx, 1).Return(ports.SourceOrderPage{
		Orders: []ports.SourceOrder{{StoreID: "s1", Reference: "R1"}}, HasNext: true,
	}, nil).Once()

	orderRepo := new(MockOrderRepository)
	uow := new(MockUoW)
	factory := new(MockOrderUoWFactory)
	factory.On("Create").Return(uow)
	uow.On("OrderRepository").Return(orderRepo)
	orderRepo.On("KnownReferences", ctx, "s1", []string{"R1"}).Return([]string{}, nil).Once()

	ingester := new(MockOrderIngester)
	ingester.On("Handle", ctx, "R1").Return(commands.IngestResult{Created: true}, nil).Once()

	cmd, _ := commands.NewImportOrdersCommand(1)
	result, err := commands.NewImportOrdersCommandHandler(source, factory, ingester, nil).Handle(ctx, cmd)

	require.NoError(t, err)
	assert.Equal(t, 1, result.Pages)
	assert.False(t, result.StoppedAtKnown)
	source.AssertNumberOfCalls(t, "FetchOrders", 1)
}

func TestImportOrdersCommandHandler_Handle_SourceErrorAborts(t *testing.T) {
	ctx := t.Context()
	source := new(MockOrderSource)
	source.On("FetchOrders", ctx, 1).Return(ports.SourceOrderPage{}, errors.New("502 bad gateway")).Once()

	cmd, _ := commands.NewImportOrdersCommand(3)
	_, err := commands.NewImportOrdersCommandHandler(source, new(MockOrderUoWFactory), new(MockOrderIngester), nil).Handle(ctx, cmd)

	require.ErrorContains(t, err, "fetch page 1")
}
