package commands

import (
	"context"
)

// AttachShippingAccountCommandHandler binds an order to a shipping account.
// Binding again to the same account succeeds; binding to another one fails
// with order.ErrShippingAccountIsImmutable, or ports.ErrShippingAccountMismatch
// when a concurrent writer won.
type AttachShippingAccountCommandHandler struct {
	uowFactory ShippingUoWFactory
}

func NewAttachShippingAccountCommandHandler(uowFactory ShippingUoWFactory) AttachShippingAccountCommandHandler {
	return AttachShippingAccountCommandHandler{uowFactory: uowFactory}
}

func (h AttachShippingAccountCommandHandler) Handle(ctx context.Context, command AttachShippingAccountCommand) error {
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

	if _, err := uow.ShippingAccountRepository().Get(ctx, command.AccountID()); err != nil {
		return err
	}

	orderRepo := uow.OrderRepository()
	o, err := orderRepo.Get(ctx, command.OrderID())
	if err != nil {
		return err
	}
	if err = o.BindShippingAccount(command.AccountID()); err != nil {
		return err
	}
	if err = orderRepo.BindShippingAccount(ctx, o); err != nil {
		return err
	}

	return uow.Commit(ctx)
}
