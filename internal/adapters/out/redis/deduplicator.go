package redis

import (
	"context"
	"time"
)

const (
	webhookPrefix = "webhook"

	DefaultDeliveryRetention = 24 * time.Hour
)

// WebhookDeduplicator implements ports.WebhookDeduplicator with SETNX.
type WebhookDeduplicator struct {
	client    *Client
	retention time.Duration
}

func NewWebhookDeduplicator(client *Client, retention time.Duration) *WebhookDeduplicator {
	if retention <= 0 {
		retention = DefaultDeliveryRetention
	}
	return &WebhookDeduplicator{client: client, retention: retention}
}

func (d *WebhookDeduplicator) FirstSeen(ctx context.Context, scope, key string) (bool, error) {
	return d.client.SetNX(ctx, d.client.Key(webhookPrefix, scope, key), time.Now().UTC().Format(time.RFC3339), d.retention)
}

func (d *WebhookDeduplicator) Forget(ctx context.Context, scope, key string) error {
	return d.client.Del(ctx, d.client.Key(webhookPrefix, scope, key))
}
