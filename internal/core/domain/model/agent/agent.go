package agent

import (
	"errors"
	"fmt"
	"strings"
	"time"

	"backoffice/internal/core/domain/model/kernel"
	"backoffice/internal/pkg/errs"
)

// MaxOrdersLimit caps the capacity an administrator can configure for one agent.
const MaxOrdersLimit = 500

// ErrAgentIsNotConstructed is returned when an Agent was not created through
// NewAgent or RestoreAgent.
var ErrAgentIsNotConstructed = errors.New("Agent must be created via NewAgent constructor")

// Agent is a human operator able to hold up to maxOrders unresolved orders.
//
// Agent follows these invariants:
//   - id is a valid UUID, code and name are non-empty
//   - role is one of FollowUp, CallCenter, Coordinator
//   - maxOrders is in [1, MaxOrdersLimit]
//   - online status is derived via IsOnline, never stored
type Agent struct {
	id             kernel.UUID
	code           string
	name           string
	role           Role
	maxOrders      int
	lastActivityAt *time.Time
	active         bool
	createdAt      time.Time

	isConstructed bool
}

// NewAgent creates an active agent that has never been seen online.
//
// Example:
//
//	a, err := agent.NewAgent(kernel.NewUUID(), "AG-001", "Amina", agent.FollowUp, 20, time.Now())
//	if err != nil {
//	    return err
//	}
func NewAgent(id kernel.UUID, code, name string, role Role, maxOrders int, createdAt time.Time) (*Agent, error) {
	a := &Agent{
		active:        true,
		createdAt:     createdAt.UTC(),
		isConstructed: true,
	}

	if err := errors.Join(
		a.setID(id),
		a.setCode(code),
		a.setName(name),
		a.setRole(role),
		a.setMaxOrders(maxOrders),
	); err != nil {
		return nil, err
	}

	return a, nil
}

// RestoreAgent rebuilds an agent from persistence. It applies the same
// validation as NewAgent so corrupted rows surface as errors.
func RestoreAgent(
	id kernel.UUID,
	code, name string,
	role Role,
	maxOrders int,
	lastActivityAt *time.Time,
	active bool,
	createdAt time.Time,
) (*Agent, error) {
	a, err := NewAgent(id, code, name, role, maxOrders, createdAt)
	if err != nil {
		return nil, err
	}
	if lastActivityAt != nil {
		at := lastActivityAt.UTC()
		a.lastActivityAt = &at
	}
	a.active = active
	return a, nil
}

func (a *Agent) Validate() error {
	if a == nil || !a.isConstructed {
		return ErrAgentIsNotConstructed
	}
	return nil
}

func (a *Agent) ID() kernel.UUID            { return a.id }
func (a *Agent) Code() string               { return a.code }
func (a *Agent) Name() string               { return a.name }
func (a *Agent) Role() Role                 { return a.role }
func (a *Agent) MaxOrders() int             { return a.maxOrders }
func (a *Agent) IsActive() bool             { return a.active }
func (a *Agent) CreatedAt() time.Time       { return a.createdAt }
func (a *Agent) LastActivityAt() *time.Time { return a.lastActivityAt }

// IsOnline reports whether the agent was active within threshold of now.
// An agent that never sent a heartbeat is offline.
func (a *Agent) IsOnline(now time.Time, threshold time.Duration) bool {
	return IsOnlineAt(a.lastActivityAt, now, threshold)
}

// IsOnlineAt applies the liveness rule to a raw last-seen timestamp. Read
// models that never load the aggregate use it directly.
func IsOnlineAt(lastSeen *time.Time, now time.Time, threshold time.Duration) bool {
	if lastSeen == nil {
		return false
	}
	return now.Sub(*lastSeen) < threshold
}

// RecordActivity moves lastActivityAt forward. Heartbeats delivered out of
// order never move it back. Inactive agents keep their liveness too, it just
// never makes them eligible.
func (a *Agent) RecordActivity(at time.Time) {
	at = at.UTC()
	if a.lastActivityAt != nil && !at.After(*a.lastActivityAt) {
		return
	}
	a.lastActivityAt = &at
}

// Deactivate removes the agent from the assignment pool. Orders already held
// by the agent stay assigned. Deactivating twice is a no-op.
func (a *Agent) Deactivate() {
	a.active = false
}

func (a *Agent) setID(id kernel.UUID) error {
	if err := id.Validate(); err != nil {
		return err
	}
	a.id = id
	return nil
}

func (a *Agent) setCode(code string) error {
	code = strings.TrimSpace(code)
	if code == "" {
		return errs.NewValueIsRequiredError("code")
	}
	a.code = strings.ToUpper(code)
	return nil
}

func (a *Agent) setName(name string) error {
	name = strings.TrimSpace(name)
	if name == "" {
		return errs.NewValueIsRequiredError("name")
	}
	a.name = name
	return nil
}

func (a *Agent) setRole(role Role) error {
	if err := role.Validate(); err != nil {
		return err
	}
	a.role = role
	return nil
}

func (a *Agent) setMaxOrders(maxOrders int) error {
	if maxOrders < 1 || maxOrders > MaxOrdersLimit {
		return errs.NewValueIsOutOfRangeErrorWithCause("maxOrders", maxOrders, 1, MaxOrdersLimit,
			fmt.Errorf("capacity must be positive"))
	}
	a.maxOrders = maxOrders
	return nil
}
