package commands

import (
	"errors"

	"backoffice/internal/core/domain/model/kernel"
	"backoffice/internal/pkg/guard"
)

var ErrAssignOrderCommandIsNotConstructed = errors.New(
	"AssignOrderCommand must be created via NewAssignOrderCommand constructor",
)

// AssignOrderCommand asks for one order to be handed to the best eligible agent.
//
// Example:
//
//	cmd, err := NewAssignOrderCommand(orderID, false)
//	if err != nil {
//	    return err
//	}
//	result, err := handler.Handle(ctx, cmd)
type AssignOrderCommand struct {
	orderID      kernel.UUID
	allowOffline bool

	guard guard.ConstructorGuard
}

// NewAssignOrderCommand validates the order id. allowOffline lets the engine
// pick agents without a recent heartbeat.
func NewAssignOrderCommand(orderID kernel.UUID, allowOffline bool) (AssignOrderCommand, error) {
	if err := orderID.Validate(); err != nil {
		return AssignOrderCommand{}, err
	}

	return AssignOrderCommand{
		orderID:      orderID,
		allowOffline: allowOffline,
		guard:        guard.NewConstructorGuard(),
	}, nil
}

func (c *AssignOrderCommand) OrderID() kernel.UUID {
	return c.orderID
}

func (c *AssignOrderCommand) AllowOffline() bool {
	return c.allowOffline
}

func (c *AssignOrderCommand) Validate() error {
	return c.guard.Validate(ErrAssignOrderCommandIsNotConstructed)
}
