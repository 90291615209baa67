package ports

import (
	"context"
	"time"
)

// SourceOrder is an order as published by the order-source API.
type SourceOrder struct {
	StoreID   string
	Reference string
	CreatedAt time.Time
}

// SourceOrderPage is one page of orders, newest first.
type SourceOrderPage struct {
	Orders  []SourceOrder
	HasNext bool
}

// OrderSource pages through the external order-management API.
type OrderSource interface {
	FetchOrders(ctx context.Context, page int) (SourceOrderPage, error)
}
