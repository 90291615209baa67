package commands

import (
	"context"
	"log/slog"
	"time"

	"backoffice/internal/core/domain/model/webhook"
)

// RetryWebhookEventCommandHandler reprocesses a stored event that failed or
// never finished. Returns webhook.ErrEventNotRetryable otherwise.
type RetryWebhookEventCommandHandler struct {
	processor webhookProcessor
}

func NewRetryWebhookEventCommandHandler(
	uowFactory WebhookUoWFactory, ingester OrderIngester, logger *slog.Logger,
) RetryWebhookEventCommandHandler {
	if logger == nil {
		logger = slog.Default()
	}
	return RetryWebhookEventCommandHandler{
		processor: webhookProcessor{
			uowFactory: uowFactory,
			ingester:   ingester,
			now:        time.Now,
			logger:     logger.With("component", "webhooks"),
		},
	}
}

func (h RetryWebhookEventCommandHandler) WithClock(now func() time.Time) RetryWebhookEventCommandHandler {
	h.processor.now = now
	return h
}

func (h RetryWebhookEventCommandHandler) Handle(ctx context.Context, command RetryWebhookEventCommand) (WebhookOutcome, error) {
	if err := command.Validate(); err != nil {
		return WebhookOutcome{}, err
	}

	e, err := h.processor.uowFactory.Create().WebhookEventRepository().Get(ctx, command.EventID())
	if err != nil {
		return WebhookOutcome{}, err
	}
	if !e.CanRetry() {
		return WebhookOutcome{}, webhook.ErrEventNotRetryable
	}

	return h.processor.run(ctx, e)
}

type DeleteWebhookEventCommandHandler struct {
	uowFactory WebhookUoWFactory
}

func NewDeleteWebhookEventCommandHandler(uowFactory WebhookUoWFactory) DeleteWebhookEventCommandHandler {
	return DeleteWebhookEventCommandHandler{uowFactory: uowFactory}
}

func (h DeleteWebhookEventCommandHandler) Handle(ctx context.Context, command DeleteWebhookEventCommand) error {
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

	if err := uow.WebhookEventRepository().Delete(ctx, command.EventID()); err != nil {
		return err
	}

	return uow.Commit(ctx)
}
