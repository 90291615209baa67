package commands

import (
	"context"
	"errors"

	"backoffice/internal/core/domain/model/kernel"
	"backoffice/internal/core/domain/model/order"
	"backoffice/internal/core/ports"
	"backoffice/internal/pkg/errs"
)

// IngestResult identifies the stored order and tells whether this call created it.
type IngestResult struct {
	OrderID kernel.UUID
	Created bool
}

// IngestOrderCommandHandler creates a pending, unassigned order. Delivering
// the same (store, reference) twice returns the stored order unchanged, so
// webhook redeliveries and overlapping imports are harmless.
type IngestOrderCommandHandler struct {
	uowFactory OrderUoWFactory
}

func NewIngestOrderCommandHandler(uowFactory OrderUoWFactory) IngestOrderCommandHandler {
	return IngestOrderCommandHandler{uowFactory: uowFactory}
}

func (h IngestOrderCommandHandler) Handle(ctx context.Context, command IngestOrderCommand) (IngestResult, error) {
	if err := command.Validate(); err != nil {
		return IngestResult{}, err
	}

	result, err := h.create(ctx, command)
	if errors.Is(err, ports.ErrDuplicate) {
		// Lost a race with a concurrent ingestion of the same reference.
		return h.existing(ctx, command)
	}
	return result, err
}

func (h IngestOrderCommandHandler) create(ctx context.Context, command IngestOrderCommand) (IngestResult, error) {
	uow := h.uowFactory.Create()
	if err := uow.Begin(ctx); err != nil {
		return IngestResult{}, err
	}

	defer func() {
		_ = uow.Rollback(ctx)
	}()

	orderRepo := uow.OrderRepository()
	stored, err := orderRepo.GetByExternalReference(ctx, command.StoreID(), command.Reference())
	switch {
	case err == nil:
		return IngestResult{OrderID: stored.ID()}, nil
	case !errors.Is(err, errs.ErrObjectNotFound):
		return IngestResult{}, err
	}

	o, err := order.NewOrder(kernel.NewUUID(), command.StoreID(), command.Reference(), command.CreatedAt())
	if err != nil {
		return IngestResult{}, err
	}
	if err = orderRepo.Add(ctx, o); err != nil {
		return IngestResult{}, err
	}
	if err = uow.Commit(ctx); err != nil {
		return IngestResult{}, err
	}

	return IngestResult{OrderID: o.ID(), Created: true}, nil
}

func (h IngestOrderCommandHandler) existing(ctx context.Context, command IngestOrderCommand) (IngestResult, error) {
	stored, err := h.uowFactory.Create().OrderRepository().GetByExternalReference(ctx, command.StoreID(), command.Reference())
	if err != nil {
		return IngestResult{}, err
	}
	return IngestResult{OrderID: stored.ID()}, nil
}
