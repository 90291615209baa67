package ports

import "context"

// WebhookDeduplicator remembers delivery keys of inbound webhooks for a while.
type WebhookDeduplicator interface {
	// FirstSeen returns true exactly once per (scope, key) within its retention.
	FirstSeen(ctx context.Context, scope, key string) (bool, error)
	// Forget drops a key so a failed delivery can be accepted again.
	Forget(ctx context.Context, scope, key string) error
}
