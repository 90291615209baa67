package ports

import (
	"context"

	"backoffice/internal/core/domain/model/kernel"
	"backoffice/internal/core/domain/model/shipping"
)

// ShippingAccountRepository defines the persistence contract for shipping accounts.
type ShippingAccountRepository interface {
	Add(ctx context.Context, aggregate *shipping.Account) error
	Get(ctx context.Context, id kernel.UUID) (*shipping.Account, error)
	// ListActive returns active accounts, optionally restricted to one provider.
	ListActive(ctx context.Context, provider *shipping.Provider) ([]*shipping.Account, error)
}
