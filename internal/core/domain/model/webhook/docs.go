// Package webhook models inbound push notifications from the order source and
// the delivery provider. Every delivery is persisted as an Event so it can be
// inspected, retried or deleted from the admin API.
package webhook
