package redis

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
)

const lockPrefix = "lock"

// Lock is a best-effort exclusive lease shared by every instance. The TTL
// bounds how long a crashed holder blocks the others.
type Lock struct {
	client *Client
	key    string
	ttl    time.Duration
	owner  string
}

func NewLock(client *Client, name string, ttl time.Duration) (*Lock, error) {
	if client == nil {
		return nil, errors.New("redis client required for lock")
	}
	if name == "" {
		return nil, errors.New("lock name is required")
	}
	if ttl <= 0 {
		return nil, errors.New("lock ttl must be positive")
	}
	return &Lock{client: client, key: client.Key(lockPrefix, name), ttl: ttl}, nil
}

// Acquire reports whether this instance now holds the lock.
func (l *Lock) Acquire(ctx context.Context) (bool, error) {
	owner := uuid.NewString()
	ok, err := l.client.SetNX(ctx, l.key, owner, l.ttl)
	if err != nil {
		return false, fmt.Errorf("setnx %s: %w", l.key, err)
	}
	if ok {
		l.owner = owner
	}
	return ok, nil
}

// Release frees the lock only while this instance still owns it. The owner
// check and the delete run as one script, so a lease that expired and was
// taken by another instance is left alone.
func (l *Lock) Release(ctx context.Context) error {
	if l.owner == "" {
		return nil
	}
	defer func() { l.owner = "" }()

	if _, err := l.client.DelIfEqual(ctx, l.key, l.owner); err != nil {
		return fmt.Errorf("release lock %s: %w", l.key, err)
	}
	return nil
}
