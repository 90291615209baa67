package ports

import (
	"context"
	"time"

	"backoffice/internal/core/domain/model/kernel"
)

// ActivityCache keeps the last heartbeat of each agent close at hand so
// online checks do not hit the store. It is never used for capacity.
type ActivityCache interface {
	// Touch records a heartbeat that expires after ttl.
	Touch(ctx context.Context, agentID kernel.UUID, sessionToken string, at time.Time, ttl time.Duration) error

	// LastSeen returns the cached heartbeat of each known agent. Agents
	// without a live entry are absent from the map.
	LastSeen(ctx context.Context, agentIDs []kernel.UUID) (map[kernel.UUID]time.Time, error)
}
