package maystro

import (
	"crypto/sha256"
	"encoding/hex"
	"fmt"
	"time"

	"backoffice/internal/adapters/out/httpclient"
	"backoffice/internal/core/domain/model/shipping"
	"backoffice/internal/core/ports"

	"github.com/hashicorp/golang-lru/v2/expirable"
)

const (
	clientCacheSize = 64
	clientCacheTTL  = 30 * time.Minute
)

// Factory builds and caches one client per account credentials. A token or
// base URL change yields a new cache key, so rotated credentials take effect
// on the next sync.
type Factory struct {
	http    *httpclient.Client
	clients *expirable.LRU[string, *Client]
}

func NewFactory(http *httpclient.Client) *Factory {
	return &Factory{
		http:    http,
		clients: expirable.NewLRU[string, *Client](clientCacheSize, nil, clientCacheTTL),
	}
}

func (f *Factory) ForAccount(account *shipping.Account) (ports.DeliveryProvider, error) {
	if account.Provider() != shipping.Maystro {
		return nil, fmt.Errorf("no delivery client for provider %s", account.Provider())
	}

	key := cacheKey(account)
	if client, ok := f.clients.Get(key); ok {
		return client, nil
	}

	client, err := NewClient(f.http, account.BaseURL(), account.Token())
	if err != nil {
		return nil, err
	}
	f.clients.Add(key, client)
	return client, nil
}

// cacheKey keeps raw tokens out of the cache keys.
func cacheKey(account *shipping.Account) string {
	sum := sha256.Sum256([]byte(account.BaseURL() + "\x00" + account.Token()))
	return account.ID().String() + ":" + hex.EncodeToString(sum[:8])
}
