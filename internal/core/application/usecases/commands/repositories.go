// Package commands contains business operations that modify system state.
// Every command follows the same shape: a constructor-guarded Command value,
// and a Handler that validates it, opens a unit of work and persists through
// repositories obtained from that unit of work.
package commands

import (
	"context"

	"backoffice/internal/core/ports"
)

// Unit of Work interfaces narrowed to what each handler touches.
type (
	// TxManager handles database transaction lifecycle.
	TxManager interface {
		Begin(ctx context.Context) error
		Commit(ctx context.Context) error
		Rollback(ctx context.Context) error
	}

	AgentRepoFactory interface {
		AgentRepository() ports.AgentRepository
	}

	OrderRepoFactory interface {
		OrderRepository() ports.OrderRepository
	}

	ShippingAccountRepoFactory interface {
		ShippingAccountRepository() ports.ShippingAccountRepository
	}

	SettingsRepoFactory interface {
		SettingsRepository() ports.SettingsRepository
	}

	WebhookEventRepoFactory interface {
		WebhookEventRepository() ports.WebhookEventRepository
	}

	// AgentUoW serves agent administration and heartbeats.
	AgentUoW interface {
		TxManager
		AgentRepoFactory
	}

	AgentUoWFactory interface {
		Create() AgentUoW
	}

	// OrderUoW serves order ingestion.
	OrderUoW interface {
		TxManager
		OrderRepoFactory
	}

	OrderUoWFactory interface {
		Create() OrderUoW
	}

	// AssignmentUoW spans agents and orders. The agent row lock and the
	// conditional order write share one transaction.
	//
	// Example:
	//   uow := factory.Create()
	//   err := uow.Begin(ctx)
	//   defer uow.Rollback(ctx)
	//
	//   locked, err := uow.AgentRepository().Lock(ctx, agentID)
	//   written, err := uow.OrderRepository().AssignIfUnassigned(ctx, o)
	//
	//   err = uow.Commit(ctx)
	AssignmentUoW interface {
		TxManager
		AgentRepoFactory
		OrderRepoFactory
	}

	AssignmentUoWFactory interface {
		Create() AssignmentUoW
	}

	// ShippingUoW spans shipping accounts and the orders they own.
	ShippingUoW interface {
		TxManager
		ShippingAccountRepoFactory
		OrderRepoFactory
	}

	ShippingUoWFactory interface {
		Create() ShippingUoW
	}

	SettingsUoW interface {
		TxManager
		SettingsRepoFactory
	}

	SettingsUoWFactory interface {
		Create() SettingsUoW
	}

	// WebhookUoW records webhook events and applies them to orders.
	WebhookUoW interface {
		TxManager
		WebhookEventRepoFactory
		OrderRepoFactory
		ShippingAccountRepoFactory
	}

	WebhookUoWFactory interface {
		Create() WebhookUoW
	}
)
