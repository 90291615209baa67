package ports

import (
	"context"

	"backoffice/internal/core/domain/model/agent"
	"backoffice/internal/core/domain/model/kernel"
	"backoffice/internal/core/domain/model/order"
)

// TrackingSyncFilter selects the orders one sync run may touch. AccountID is
// always applied; the other fields narrow the selection further.
type TrackingSyncFilter struct {
	AccountID      kernel.UUID
	StoreID        *string
	TrackingNumber *string
	Limit          int
}

// OrderRepository defines the persistence contract for order aggregates.
type OrderRepository interface {
	// Add persists a new order. A duplicate (storeID, externalReference) wraps ErrDuplicate.
	Add(ctx context.Context, aggregate *order.Order) error

	// Get retrieves an order by id. Returns errs.ErrObjectNotFound if absent.
	Get(ctx context.Context, id kernel.UUID) (*order.Order, error)

	// GetByExternalReference retrieves the order a store knows as ref.
	GetByExternalReference(ctx context.Context, storeID, ref string) (*order.Order, error)

	// FindByExternalReference returns every order carrying ref, across stores.
	FindByExternalReference(ctx context.Context, ref string) ([]*order.Order, error)

	// KnownReferences returns the subset of refs already stored for storeID.
	KnownReferences(ctx context.Context, storeID string, refs []string) ([]string, error)

	// ListUnassigned returns the most recent limit unassigned, unresolved
	// orders, oldest first.
	ListUnassigned(ctx context.Context, limit int) ([]*order.Order, error)

	// AssignIfUnassigned writes the assignment held by aggregate only if the
	// stored order is still unassigned. It reports whether the row was written.
	AssignIfUnassigned(ctx context.Context, aggregate *order.Order) (bool, error)

	// CountWorkloads returns the load of every agent holding unresolved orders.
	// Agents without orders are absent from the map.
	CountWorkloads(ctx context.Context) (map[kernel.UUID]agent.Load, error)

	// CountWorkload returns the load of one agent.
	CountWorkload(ctx context.Context, agentID kernel.UUID) (agent.Load, error)

	// ListForTrackingSync returns unresolved orders matching filter, oldest first.
	ListForTrackingSync(ctx context.Context, filter TrackingSyncFilter) ([]*order.Order, error)

	// ListByTrackingNumber returns every order whose tracking number equals tn.
	ListByTrackingNumber(ctx context.Context, tn string) ([]*order.Order, error)

	// UpdateShipping writes the shipping fields of aggregate, conditioned on
	// the stored row still belonging to accountID. A zero-row write returns
	// ErrShippingAccountMismatch.
	UpdateShipping(ctx context.Context, aggregate *order.Order, accountID kernel.UUID) error

	// ForeignAccountOrders returns the ids among orderIDs that are not bound to accountID.
	ForeignAccountOrders(ctx context.Context, orderIDs []kernel.UUID, accountID kernel.UUID) ([]kernel.UUID, error)

	// BindShippingAccount persists the account held by aggregate, only if the
	// stored order has no account or already the same one. A conflicting stored
	// account returns ErrShippingAccountMismatch.
	BindShippingAccount(ctx context.Context, aggregate *order.Order) error
}
