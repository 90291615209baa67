package commands

import (
	"errors"

	"backoffice/internal/core/domain/model/kernel"
	"backoffice/internal/pkg/guard"
)

var (
	ErrRetryWebhookEventCommandIsNotConstructed = errors.New(
		"RetryWebhookEventCommand must be created via NewRetryWebhookEventCommand constructor",
	)
	ErrDeleteWebhookEventCommandIsNotConstructed = errors.New(
		"DeleteWebhookEventCommand must be created via NewDeleteWebhookEventCommand constructor",
	)
)

type RetryWebhookEventCommand struct {
	eventID kernel.UUID

	guard guard.ConstructorGuard
}

func NewRetryWebhookEventCommand(eventID kernel.UUID) (RetryWebhookEventCommand, error) {
	if err := eventID.Validate(); err != nil {
		return RetryWebhookEventCommand{}, err
	}
	return RetryWebhookEventCommand{eventID: eventID, guard: guard.NewConstructorGuard()}, nil
}

func (c *RetryWebhookEventCommand) EventID() kernel.UUID { return c.eventID }

func (c *RetryWebhookEventCommand) Validate() error {
	return c.guard.Validate(ErrRetryWebhookEventCommandIsNotConstructed)
}

type DeleteWebhookEventCommand struct {
	eventID kernel.UUID

	guard guard.ConstructorGuard
}

func NewDeleteWebhookEventCommand(eventID kernel.UUID) (DeleteWebhookEventCommand, error) {
	if err := eventID.Validate(); err != nil {
		return DeleteWebhookEventCommand{}, err
	}
	return DeleteWebhookEventCommand{eventID: eventID, guard: guard.NewConstructorGuard()}, nil
}

func (c *DeleteWebhookEventCommand) EventID() kernel.UUID { return c.eventID }

func (c *DeleteWebhookEventCommand) Validate() error {
	return c.guard.Validate(ErrDeleteWebhookEventCommandIsNotConstructed)
}
