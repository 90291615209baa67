package services

import (
	"errors"
	"sort"
	"time"

	"backoffice/internal/core/domain/model/agent"
)

// ErrNoEligibleAgent is returned when every candidate is inactive, offline or full.
var ErrNoEligibleAgent = errors.New("no eligible agent")

// Candidate is one agent considered for an assignment together with its
// current workload and the freshest liveness timestamp known for it.
type Candidate struct {
	Agent    *agent.Agent
	Workload agent.Workload
	// LastSeen overrides Agent.LastActivityAt when the liveness cache knows a
	// more recent heartbeat.
	LastSeen *time.Time
}

// IsOnline applies the liveness rule to the freshest known heartbeat.
func (c Candidate) IsOnline(now time.Time, threshold time.Duration) bool {
	lastSeen := c.Agent.LastActivityAt()
	if c.LastSeen != nil && (lastSeen == nil || c.LastSeen.After(*lastSeen)) {
		lastSeen = c.LastSeen
	}
	return agent.IsOnlineAt(lastSeen, now, threshold)
}

// AgentSelector is a domain service that orders agents for load-aware
// round-robin distribution.
//
// Business rules:
//   - inactive agents and agents at or above maxOrders are never eligible
//   - offline agents are eligible only when the caller allows it
//   - lowest utilization (assigned / maxOrders) wins
//   - ties go to the least recently assigned agent; never-assigned agents first
//   - remaining ties are broken by agent id so the ranking is deterministic
//
// Example usage:
//
//	selector := services.NewAgentSelector(5 * time.Minute)
//	ranked := selector.Rank(candidates, time.Now(), false)
//	if len(ranked) == 0 {
//	    return services.ErrNoEligibleAgent
//	}
//	best := ranked[0]
type AgentSelector struct {
	onlineThreshold time.Duration
}

// NewAgentSelector creates a selector using onlineThreshold as the liveness window.
func NewAgentSelector(onlineThreshold time.Duration) AgentSelector {
	return AgentSelector{onlineThreshold: onlineThreshold}
}

// OnlineThreshold returns the liveness window the selector applies.
func (s AgentSelector) OnlineThreshold() time.Duration {
	return s.onlineThreshold
}

// Rank filters candidates down to the eligible ones and sorts them best first.
// The input slice is not modified.
func (s AgentSelector) Rank(candidates []Candidate, now time.Time, allowOffline bool) []Candidate {
	eligible := make([]Candidate, 0, len(candidates))
	for _, c := range candidates {
		if c.Agent == nil || c.Agent.Validate() != nil || !c.Agent.IsActive() {
			continue
		}
		if !c.Workload.HasCapacity() {
			continue
		}
		if !allowOffline && !c.IsOnline(now, s.onlineThreshold) {
			continue
		}
		eligible = append(eligible, c)
	}

	sort.SliceStable(eligible, func(i, j int) bool {
		return less(eligible[i], eligible[j])
	})
	return eligible
}

// Select returns the best eligible candidate.
//
// Returns:
//   - Candidate: the agent that should receive the order
//   - error: ErrNoEligibleAgent if nobody can take it
func (s AgentSelector) Select(candidates []Candidate, now time.Time, allowOffline bool) (Candidate, error) {
	ranked := s.Rank(candidates, now, allowOffline)
	if len(ranked) == 0 {
		return Candidate{}, ErrNoEligibleAgent
	}
	return ranked[0], nil
}

func less(a, b Candidate) bool {
	if cmp := a.Workload.CompareUtilization(b.Workload); cmp != 0 {
		return cmp < 0
	}

	aLast, bLast := a.Workload.LastAssignedAt(), b.Workload.LastAssignedAt()
	switch {
	case aLast == nil && bLast != nil:
		return true
	case aLast != nil && bLast == nil:
		return false
	case aLast != nil && bLast != nil && !aLast.Equal(*bLast):
		return aLast.Before(*bLast)
	}

	return a.Agent.ID().Compare(b.Agent.ID()) < 0
}
