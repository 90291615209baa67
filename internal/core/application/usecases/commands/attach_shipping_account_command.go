package commands

import (
	"errors"

	"backoffice/internal/core/domain/model/kernel"
	"backoffice/internal/pkg/guard"
)

var ErrAttachShippingAccountCommandIsNotConstructed = errors.New(
	"AttachShippingAccountCommand must be created via NewAttachShippingAccountCommand constructor",
)

// AttachShippingAccountCommand records the first provider interaction of an
// order. Once attached, the account of an order never changes.
type AttachShippingAccountCommand struct {
	orderID   kernel.UUID
	accountID kernel.UUID

	guard guard.ConstructorGuard
}

func NewAttachShippingAccountCommand(orderID, accountID kernel.UUID) (AttachShippingAccountCommand, error) {
	if err := errors.Join(orderID.Validate(), accountID.Validate()); err != nil {
		return AttachShippingAccountCommand{}, err
	}
	return AttachShippingAccountCommand{
		orderID:   orderID,
		accountID: accountID,
		guard:     guard.NewConstructorGuard(),
	}, nil
}

func (c *AttachShippingAccountCommand) OrderID() kernel.UUID   { return c.orderID }
func (c *AttachShippingAccountCommand) AccountID() kernel.UUID { return c.accountID }

func (c *AttachShippingAccountCommand) Validate() error {
	return c.guard.Validate(ErrAttachShippingAccountCommandIsNotConstructed)
}
