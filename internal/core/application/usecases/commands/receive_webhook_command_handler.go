package commands

import (
	"context"
	"log/slog"
	"time"

	"backoffice/internal/core/domain/model/kernel"
	"backoffice/internal/core/domain/model/webhook"
	"backoffice/internal/core/ports"
	"backoffice/internal/pkg/metrics"
)

// ReceiveWebhookCommandHandler stores and applies one provider delivery.
// Redeliveries of an id seen within the deduplicator's retention are dropped
// before anything is written.
type ReceiveWebhookCommandHandler struct {
	processor webhookProcessor
	dedup     ports.WebhookDeduplicator
	metrics   *metrics.WebhookMetrics
	logger    *slog.Logger
}

func NewReceiveWebhookCommandHandler(
	uowFactory WebhookUoWFactory,
	dedup ports.WebhookDeduplicator,
	ingester OrderIngester,
	m *metrics.WebhookMetrics,
	logger *slog.Logger,
) ReceiveWebhookCommandHandler {
	if logger == nil {
		logger = slog.Default()
	}
	logger = logger.With("component", "webhooks")

	return ReceiveWebhookCommandHandler{
		processor: webhookProcessor{uowFactory: uowFactory, ingester: ingester, now: time.Now, logger: logger},
		dedup:     dedup,
		metrics:   m,
		logger:    logger,
	}
}

func (h ReceiveWebhookCommandHandler) WithClock(now func() time.Time) ReceiveWebhookCommandHandler {
	h.processor.now = now
	return h
}

func (h ReceiveWebhookCommandHandler) Handle(ctx context.Context, command ReceiveWebhookCommand) (WebhookOutcome, error) {
	if err := command.Validate(); err != nil {
		return WebhookOutcome{}, err
	}

	scope := string(command.Source())
	key := command.DeliveryKey()

	if key != "" {
		first, err := h.dedup.FirstSeen(ctx, scope, key)
		if err != nil {
			// Processing twice is safer than dropping a delivery.
			h.logger.WarnContext(ctx, "webhook deduplication unavailable", "source", scope, "error", err)
			first = true
		}
		if !first {
			h.logger.InfoContext(ctx, "duplicate webhook dropped", "source", scope, "delivery", key)
			h.metrics.Inc(scope, "duplicate")
			return WebhookOutcome{Status: webhook.StatusIgnored, Duplicate: true, Reason: ReasonDuplicateDelivery}, nil
		}
	}

	e, err := webhook.NewEvent(kernel.NewUUID(), command.Source(), key, command.EventType(), command.Payload(), h.processor.now())
	if err == nil {
		err = h.processor.record(ctx, e)
	}
	if err != nil {
		h.forget(ctx, scope, key)
		return WebhookOutcome{}, err
	}

	outcome, err := h.processor.run(ctx, e)
	if err != nil {
		return WebhookOutcome{}, err
	}
	h.metrics.Inc(scope, string(outcome.Status))
	return outcome, nil
}

// forget lets the provider's redelivery through after the delivery could not be stored.
func (h ReceiveWebhookCommandHandler) forget(ctx context.Context, scope, key string) {
	if key == "" {
		return
	}
	if err := h.dedup.Forget(ctx, scope, key); err != nil {
		h.logger.WarnContext(ctx, "failed to release webhook delivery key", "source", scope, "delivery", key, "error", err)
	}
}
