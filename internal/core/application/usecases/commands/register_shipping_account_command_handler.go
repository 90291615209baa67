package commands

import (
	"context"
	"time"

	"backoffice/internal/core/domain/model/shipping"
)

type RegisterShippingAccountCommandHandler struct {
	uowFactory ShippingUoWFactory
}

func NewRegisterShippingAccountCommandHandler(uowFactory ShippingUoWFactory) RegisterShippingAccountCommandHandler {
	return RegisterShippingAccountCommandHandler{uowFactory: uowFactory}
}

func (h RegisterShippingAccountCommandHandler) Handle(
	ctx context.Context, command RegisterShippingAccountCommand,
) (*shipping.Account, error) {
	if err := command.Validate(); err != nil {
		return nil, err
	}

	account, err := shipping.NewAccount(
		command.AccountID(), command.Name(), command.Provider(), command.Token(), command.BaseURL(), time.Now(),
	)
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

	if err = uow.ShippingAccountRepository().Add(ctx, account); err != nil {
		return nil, err
	}
	if err = uow.Commit(ctx); err != nil {
		return nil, err
	}

	return account, nil
}
