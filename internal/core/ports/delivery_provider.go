package ports

import (
	"context"
	"errors"

	"backoffice/internal/core/domain/model/shipping"
)

// ErrRateLimited is wrapped by provider clients when retries were exhausted
// while the provider kept answering 429.
var ErrRateLimited = errors.New("delivery provider rate limit exceeded")

// DeliveryProvider resolves provider records for a batch of external references.
type DeliveryProvider interface {
	// LookupOrders performs one bulk lookup. Records for references the
	// caller did not ask for may be returned and must be ignored.
	LookupOrders(ctx context.Context, refs []string) ([]shipping.ProviderRecord, error)
}

// DeliveryProviderFactory builds a provider client bound to one account's credentials.
type DeliveryProviderFactory interface {
	ForAccount(account *shipping.Account) (DeliveryProvider, error)
}
