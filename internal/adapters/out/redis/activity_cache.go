package redis

import (
	"context"
	"fmt"
	"strconv"
	"strings"
	"time"

	"backoffice/internal/core/domain/model/kernel"
)

const activityPrefix = "activity"

// ActivityCache implements ports.ActivityCache. Entries hold
// "<unix millis>:<session token>" and expire with the online threshold, so a
// missing entry simply means "ask the store".
type ActivityCache struct {
	client *Client
}

func NewActivityCache(client *Client) *ActivityCache {
	return &ActivityCache{client: client}
}

func (c *ActivityCache) Touch(ctx context.Context, agentID kernel.UUID, sessionToken string, at time.Time, ttl time.Duration) error {
	value := strconv.FormatInt(at.UTC().UnixMilli(), 10) + ":" + sessionToken
	return c.client.Set(ctx, c.client.Key(activityPrefix, agentID.String()), value, ttl)
}

func (c *ActivityCache) LastSeen(ctx context.Context, agentIDs []kernel.UUID) (map[kernel.UUID]time.Time, error) {
	seen := make(map[kernel.UUID]time.Time, len(agentIDs))
	if len(agentIDs) == 0 {
		return seen, nil
	}

	keys := make([]string, len(agentIDs))
	for i, id := range agentIDs {
		keys[i] = c.client.Key(activityPrefix, id.String())
	}

	values, err := c.client.MGet(ctx, keys...)
	if err != nil {
		return nil, err
	}

	for i, raw := range values {
		s, ok := raw.(string)
		if !ok || i >= len(agentIDs) {
			continue
		}
		at, err := parseActivity(s)
		if err != nil {
			return nil, fmt.Errorf("activity entry of agent %s: %w", agentIDs[i], err)
		}
		seen[agentIDs[i]] = at
	}

	return seen, nil
}

func parseActivity(value string) (time.Time, error) {
	millis, _, _ := strings.Cut(value, ":")
	ms, err := strconv.ParseInt(millis, 10, 64)
	if err != nil {
		return time.Time{}, err
	}
	return time.UnixMilli(ms).UTC(), nil
}
