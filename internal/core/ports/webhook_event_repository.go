package ports

import (
	"context"

	"backoffice/internal/core/domain/model/kernel"
	"backoffice/internal/core/domain/model/webhook"
)

// WebhookEventRepository persists inbound webhook deliveries.
type WebhookEventRepository interface {
	Add(ctx context.Context, aggregate *webhook.Event) error
	Update(ctx context.Context, aggregate *webhook.Event) error
	Get(ctx context.Context, id kernel.UUID) (*webhook.Event, error)
	Delete(ctx context.Context, id kernel.UUID) error
}
