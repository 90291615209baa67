package ports

import (
	"context"
)

// UnitOfWorkFactory creates new UnitOfWork instances for each request/command.
type UnitOfWorkFactory interface {
	Create() UnitOfWork
}

// UnitOfWork represents a business transaction boundary.
// Repositories obtained before Begin, or after Commit/Rollback, run without a
// transaction; repositories obtained between Begin and Commit share it.
type UnitOfWork interface {
	// Begin starts a new database transaction. Calling it twice is a no-op.
	Begin(ctx context.Context) error

	// Commit commits the current transaction.
	// Returns error if no active transaction or commit fails.
	Commit(ctx context.Context) error

	// Rollback rolls back the current transaction.
	// Returns error if no active transaction or rollback fails.
	Rollback(ctx context.Context) error

	AgentRepository() AgentRepository
	OrderRepository() OrderRepository
	ShippingAccountRepository() ShippingAccountRepository
	SettingsRepository() SettingsRepository
	WebhookEventRepository() WebhookEventRepository
}
