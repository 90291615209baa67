package orderrepo

import (
	"time"

	"backoffice/internal/core/domain/model/kernel"
	"backoffice/internal/core/domain/model/order"

	"github.com/google/uuid"
)

// OrderDTO is the row layout of the orders table. Status is stored by name
// so reporting SQL stays readable.
type OrderDTO struct {
	ID                uuid.UUID  `gorm:"type:uuid;primaryKey"`
	StoreID           string     `gorm:"size:64;not null;uniqueIndex:ux_orders_store_reference"`
	ExternalReference string     `gorm:"size:128;not null;uniqueIndex:ux_orders_store_reference;index"`
	AssignedAgentID   *uuid.UUID `gorm:"type:uuid;index"`
	AssignedAt        *time.Time
	ShippingAccountID *uuid.UUID `gorm:"type:uuid;index"`
	TrackingNumber    string     `gorm:"size:64;not null;default:'';index"`
	ShippingStatus    string     `gorm:"size:128;not null;default:''"`
	Status            string     `gorm:"size:16;not null;index"`
	CreatedAt         time.Time  `gorm:"not null;index"`
}

func (OrderDTO) TableName() string {
	return "orders"
}

func fromDomain(o *order.Order) OrderDTO {
	return OrderDTO{
		ID:                o.ID().Bytes(),
		StoreID:           o.StoreID(),
		ExternalReference: o.ExternalReference(),
		AssignedAgentID:   optionalUUID(o.AssignedAgentID()),
		AssignedAt:        o.AssignedAt(),
		ShippingAccountID: optionalUUID(o.ShippingAccountID()),
		TrackingNumber:    o.TrackingNumber(),
		ShippingStatus:    o.ShippingStatus(),
		Status:            o.Status().String(),
		CreatedAt:         o.CreatedAt(),
	}
}

func toDomain(dto OrderDTO) (*order.Order, error) {
	id, err := kernel.UUIDFromBytes(dto.ID[:])
	if err != nil {
		return nil, err
	}

	status, err := order.ParseStatus(dto.Status)
	if err != nil {
		return nil, err
	}

	agentID, err := optionalKernelUUID(dto.AssignedAgentID)
	if err != nil {
		return nil, err
	}
	accountID, err := optionalKernelUUID(dto.ShippingAccountID)
	if err != nil {
		return nil, err
	}

	return order.RestoreOrder(id, dto.StoreID, dto.ExternalReference, dto.CreatedAt, order.RestoreState{
		AssignedAgentID:   agentID,
		AssignedAt:        dto.AssignedAt,
		ShippingAccountID: accountID,
		TrackingNumber:    dto.TrackingNumber,
		ShippingStatus:    dto.ShippingStatus,
		Status:            status,
	})
}

func toDomainList(dtos []OrderDTO) ([]*order.Order, error) {
	orders := make([]*order.Order, 0, len(dtos))
	for _, dto := range dtos {
		o, err := toDomain(dto)
		if err != nil {
			return nil, err
		}
		orders = append(orders, o)
	}
	return orders, nil
}

func optionalUUID(id *kernel.UUID) *uuid.UUID {
	if id == nil {
		return nil
	}
	v := id.Bytes()
	return &v
}

func optionalKernelUUID(id *uuid.UUID) (*kernel.UUID, error) {
	if id == nil {
		return nil, nil
	}
	v, err := kernel.UUIDFromBytes(id[:])
	if err != nil {
		return nil, err
	}
	return &v, nil
}

func resolvedStatusNames() []string {
	statuses := order.ResolvedStatuses()
	names := make([]string, 0, len(statuses))
	for _, s := range statuses {
		names = append(names, s.String())
	}
	return names
}
