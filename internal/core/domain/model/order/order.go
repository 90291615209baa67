package order

import (
	"errors"
	"fmt"
	"strings"
	"time"

	"backoffice/internal/core/domain/model/kernel"
	"backoffice/internal/pkg/errs"
)

var (
	// ErrOrderIsNotConstructed is returned when an Order was not created via
	// NewOrder or RestoreOrder.
	ErrOrderIsNotConstructed = errors.New("Order must be created via NewOrder constructor")

	// ErrOrderAlreadyAssigned is returned by Assign when the order already has an agent.
	ErrOrderAlreadyAssigned = errors.New("order is already assigned")

	// ErrOrderIsResolved is returned by Assign for delivered, cancelled or returned orders.
	ErrOrderIsResolved = errors.New("order is resolved")

	// ErrShippingAccountIsImmutable is returned when binding an order to a
	// second shipping account.
	ErrShippingAccountIsImmutable = errors.New("shipping account of an order cannot change")
)

// Order is the aggregate root for an e-commerce order.
//
// Order follows these invariants:
//   - id is a valid UUID, storeID and externalReference are non-empty
//   - assignedAgentID and assignedAt are both nil or both set, and never change once set
//   - shippingAccountID never changes once set
//   - trackingNumber is never the corrupted sentinel after ApplyShippingUpdate
type Order struct {
	id                kernel.UUID
	storeID           string
	externalReference string

	assignedAgentID *kernel.UUID
	assignedAt      *time.Time

	shippingAccountID *kernel.UUID
	trackingNumber    string
	shippingStatus    string
	status            Status

	createdAt time.Time

	isConstructed bool
}

// NewOrder creates a pending, unassigned order as ingested from the order source.
//
// Example:
//
//	o, err := order.NewOrder(kernel.NewUUID(), "store-1", "ECO-10293", time.Now())
//	if err != nil {
//	    return err
//	}
func NewOrder(id kernel.UUID, storeID, externalReference string, createdAt time.Time) (*Order, error) {
	o := &Order{
		status:        Pending,
		createdAt:     createdAt.UTC(),
		isConstructed: true,
	}

	if err := errors.Join(
		o.setID(id),
		o.setStoreID(storeID),
		o.setExternalReference(externalReference),
	); err != nil {
		return nil, err
	}

	return o, nil
}

// RestoreState carries the mutable part of an order loaded from persistence.
type RestoreState struct {
	AssignedAgentID   *kernel.UUID
	AssignedAt        *time.Time
	ShippingAccountID *kernel.UUID
	TrackingNumber    string
	ShippingStatus    string
	Status            Status
}

// RestoreOrder rebuilds an order from persistence and re-checks its invariants.
func RestoreOrder(id kernel.UUID, storeID, externalReference string, createdAt time.Time, state RestoreState) (*Order, error) {
	o, err := NewOrder(id, storeID, externalReference, createdAt)
	if err != nil {
		return nil, err
	}

	if err = state.Status.Validate(); err != nil {
		return nil, err
	}
	if (state.AssignedAgentID == nil) != (state.AssignedAt == nil) {
		return nil, errs.NewValueIsInvalidErrorWithCause("assignment",
			fmt.Errorf("assigned agent and assignment time must be set together"))
	}

	o.assignedAgentID = state.AssignedAgentID
	if state.AssignedAt != nil {
		at := state.AssignedAt.UTC()
		o.assignedAt = &at
	}
	o.shippingAccountID = state.ShippingAccountID
	o.trackingNumber = strings.TrimSpace(state.TrackingNumber)
	o.shippingStatus = state.ShippingStatus
	o.status = state.Status
	return o, nil
}

func (o *Order) Validate() error {
	if o == nil || !o.isConstructed {
		return ErrOrderIsNotConstructed
	}
	return nil
}

func (o *Order) ID() kernel.UUID                  { return o.id }
func (o *Order) StoreID() string                  { return o.storeID }
func (o *Order) ExternalReference() string        { return o.externalReference }
func (o *Order) AssignedAgentID() *kernel.UUID    { return o.assignedAgentID }
func (o *Order) AssignedAt() *time.Time           { return o.assignedAt }
func (o *Order) ShippingAccountID() *kernel.UUID  { return o.shippingAccountID }
func (o *Order) TrackingNumber() string           { return o.trackingNumber }
func (o *Order) ShippingStatus() string           { return o.shippingStatus }
func (o *Order) Status() Status                   { return o.status }
func (o *Order) CreatedAt() time.Time             { return o.createdAt }
func (o *Order) IsAssigned() bool                 { return o.assignedAgentID != nil }
func (o *Order) HasCorruptedTrackingNumber() bool { return IsCorruptedTrackingNumber(o.trackingNumber) }

// BelongsToShippingAccount reports whether the order is bound to accountID.
// Unbound orders belong to no account.
func (o *Order) BelongsToShippingAccount(accountID kernel.UUID) bool {
	return o.shippingAccountID != nil && o.shippingAccountID.IsEqual(accountID)
}

// Assign binds the order to an agent at the given time.
//
// Returns:
//   - ErrOrderAlreadyAssigned if an agent is already set (even the same one)
//   - ErrOrderIsResolved if the order no longer needs an agent
func (o *Order) Assign(agentID kernel.UUID, at time.Time) error {
	if err := agentID.Validate(); err != nil {
		return err
	}
	if o.assignedAgentID != nil {
		return ErrOrderAlreadyAssigned
	}
	if o.status.IsResolved() {
		return ErrOrderIsResolved
	}

	at = at.UTC()
	o.assignedAgentID = &agentID
	o.assignedAt = &at
	return nil
}

// BindShippingAccount records the first delivery-provider interaction of the
// order. Binding to the account it already has is a no-op.
func (o *Order) BindShippingAccount(accountID kernel.UUID) error {
	if err := accountID.Validate(); err != nil {
		return err
	}
	if o.shippingAccountID != nil {
		if o.shippingAccountID.IsEqual(accountID) {
			return nil
		}
		return ErrShippingAccountIsImmutable
	}
	o.shippingAccountID = &accountID
	return nil
}

// ShippingUpdate is the provider's view of one order.
type ShippingUpdate struct {
	TrackingNumber string
	ShippingStatus string
	// Status is the internal status implied by the provider status, nil when
	// the provider status does not move the lifecycle.
	Status *Status
}

// ApplyShippingUpdate merges a provider update and reports whether anything
// changed. An empty or sentinel tracking number from the provider never
// overwrites a real one, and a stored sentinel is always cleared.
func (o *Order) ApplyShippingUpdate(update ShippingUpdate) bool {
	changed := false

	tracking := strings.TrimSpace(update.TrackingNumber)
	if IsCorruptedTrackingNumber(tracking) {
		tracking = ""
	}
	switch {
	case tracking != "" && tracking != o.trackingNumber:
		o.trackingNumber = tracking
		changed = true
	case tracking == "" && o.HasCorruptedTrackingNumber():
		o.trackingNumber = ""
		changed = true
	}

	label := strings.TrimSpace(update.ShippingStatus)
	if label != "" && label != o.shippingStatus {
		o.shippingStatus = label
		changed = true
	}

	if update.Status != nil && o.status.CanTransitionTo(*update.Status) {
		o.status = *update.Status
		changed = true
	}

	return changed
}

func (o *Order) setID(id kernel.UUID) error {
	if err := id.Validate(); err != nil {
		return err
	}
	o.id = id
	return nil
}

func (o *Order) setStoreID(storeID string) error {
	storeID = strings.TrimSpace(storeID)
	if storeID == "" {
		return errs.NewValueIsRequiredError("storeId")
	}
	o.storeID = storeID
	return nil
}

func (o *Order) setExternalReference(ref string) error {
	ref = strings.TrimSpace(ref)
	if ref == "" {
		return errs.NewValueIsRequiredError("externalReference")
	}
	o.externalReference = ref
	return nil
}
