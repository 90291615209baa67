package commands

import (
	"context"
	"errors"
	"log/slog"
	"time"

	"backoffice/internal/core/domain/model/agent"
	"backoffice/internal/core/domain/model/kernel"
	"backoffice/internal/core/domain/model/order"
	"backoffice/internal/core/domain/services"
	"backoffice/internal/core/ports"
	"backoffice/internal/pkg/errs"
	"backoffice/internal/pkg/metrics"
)

// AssignmentReason explains why an assignment did not happen.
type AssignmentReason string

const (
	ReasonNoEligibleAgent      AssignmentReason = "NoEligibleAgent"
	ReasonOrderAlreadyAssigned AssignmentReason = "OrderAlreadyAssigned"
	ReasonOrderNotFound        AssignmentReason = "OrderNotFound"
	ReasonOrderResolved        AssignmentReason = "OrderResolved"
	// ReasonAssignmentError marks an order whose assignment failed on a store
	// error inside a batch run.
	ReasonAssignmentError AssignmentReason = "AssignmentError"
)

// AssignmentResult is the outcome of one assignment. Expected failures are
// reported here rather than as errors.
type AssignmentResult struct {
	OrderID   kernel.UUID
	Success   bool
	AgentID   *kernel.UUID
	AgentName string
	Reason    AssignmentReason
}

// maxAssignAttempts bounds retries after deadlocks or serialization failures.
const maxAssignAttempts = 3

// AssignOrderCommandHandler hands one order to the least loaded eligible agent.
//
// Each attempt runs in one transaction: candidates are ranked from a fresh
// workload count, then the chosen agent's row is locked and its workload
// recounted before the conditional order write. Concurrent assignments of
// different orders to the same agent therefore serialize on that agent only,
// and concurrent assignments of the same order are settled by the conditional
// write.
type AssignOrderCommandHandler struct {
	uowFactory AssignmentUoWFactory
	activity   ports.ActivityCache
	selector   services.AgentSelector
	metrics    *metrics.AssignmentMetrics
	logger     *slog.Logger
	now        func() time.Time
}

func NewAssignOrderCommandHandler(
	uowFactory AssignmentUoWFactory,
	activity ports.ActivityCache,
	selector services.AgentSelector,
	m *metrics.AssignmentMetrics,
	logger *slog.Logger,
) AssignOrderCommandHandler {
	if logger == nil {
		logger = slog.Default()
	}
	return AssignOrderCommandHandler{
		uowFactory: uowFactory,
		activity:   activity,
		selector:   selector,
		metrics:    m,
		logger:     logger.With("component", "assign-order"),
		now:        time.Now,
	}
}

// WithClock returns a copy of the handler reading time from now.
func (h AssignOrderCommandHandler) WithClock(now func() time.Time) AssignOrderCommandHandler {
	h.now = now
	return h
}

// Handle returns an AssignmentResult for the three expected outcomes and an
// error only when the store or the command itself fails.
func (h AssignOrderCommandHandler) Handle(ctx context.Context, command AssignOrderCommand) (AssignmentResult, error) {
	if err := command.Validate(); err != nil {
		return AssignmentResult{}, err
	}

	started := time.Now()
	for attempt := 1; ; attempt++ {
		result, err := h.attempt(ctx, command)
		if errors.Is(err, ports.ErrConcurrentUpdate) && attempt < maxAssignAttempts {
			h.metrics.IncRetry()
			h.logger.WarnContext(ctx, "assignment transaction aborted, retrying",
				slog.String("order_id", command.OrderID().String()),
				slog.Int("attempt", attempt),
				slog.Any("error", err),
			)
			continue
		}

		h.metrics.Observe(outcomeOf(result, err), time.Since(started))
		return result, err
	}
}

func (h AssignOrderCommandHandler) attempt(ctx context.Context, command AssignOrderCommand) (AssignmentResult, error) {
	result := AssignmentResult{OrderID: command.OrderID()}

	uow := h.uowFactory.Create()
	if err := uow.Begin(ctx); err != nil {
		return result, err
	}

	defer func() {
		_ = uow.Rollback(ctx)
	}()

	agentRepo := uow.AgentRepository()
	orderRepo := uow.OrderRepository()

	o, err := orderRepo.Get(ctx, command.OrderID())
	if errors.Is(err, errs.ErrObjectNotFound) {
		result.Reason = ReasonOrderNotFound
		return result, nil
	}
	if err != nil {
		return result, err
	}
	if o.IsAssigned() {
		result.Reason = ReasonOrderAlreadyAssigned
		return result, nil
	}
	if o.Status().IsResolved() {
		result.Reason = ReasonOrderResolved
		return result, nil
	}

	agents, err := agentRepo.GetAllActive(ctx)
	if err != nil {
		return result, err
	}
	loads, err := orderRepo.CountWorkloads(ctx)
	if err != nil {
		return result, err
	}

	now := h.now()
	candidates := BuildCandidates(agents, loads, h.lastSeen(ctx, agents))
	ranked := h.selector.Rank(candidates, now, command.AllowOffline())

	for _, candidate := range ranked {
		locked, err := agentRepo.Lock(ctx, candidate.Agent.ID())
		if errors.Is(err, errs.ErrObjectNotFound) {
			continue
		}
		if err != nil {
			return result, err
		}
		if !locked.IsActive() {
			continue
		}

		load, err := orderRepo.CountWorkload(ctx, locked.ID())
		if err != nil {
			return result, err
		}
		if !agent.NewWorkload(load, locked.MaxOrders()).HasCapacity() {
			continue
		}

		return h.assign(ctx, uow, orderRepo, o, locked, now)
	}

	result.Reason = ReasonNoEligibleAgent
	return result, nil
}

func (h AssignOrderCommandHandler) assign(
	ctx context.Context, tx TxManager, orderRepo ports.OrderRepository, o *order.Order, chosen *agent.Agent, now time.Time,
) (AssignmentResult, error) {
	result := AssignmentResult{OrderID: o.ID()}

	if err := o.Assign(chosen.ID(), now); err != nil {
		return result, err
	}

	written, err := orderRepo.AssignIfUnassigned(ctx, o)
	if err != nil {
		return result, err
	}
	if !written {
		result.Reason = ReasonOrderAlreadyAssigned
		return result, nil
	}

	if err = tx.Commit(ctx); err != nil {
		return result, err
	}

	agentID := chosen.ID()
	result.Success = true
	result.AgentID = &agentID
	result.AgentName = chosen.Name()
	return result, nil
}

// lastSeen reads heartbeats from the liveness cache. A cache outage only
// costs freshness, so it is logged and the stored timestamps are used.
func (h AssignOrderCommandHandler) lastSeen(ctx context.Context, agents []*agent.Agent) map[kernel.UUID]time.Time {
	if h.activity == nil || len(agents) == 0 {
		return nil
	}

	ids := make([]kernel.UUID, 0, len(agents))
	for _, a := range agents {
		ids = append(ids, a.ID())
	}

	seen, err := h.activity.LastSeen(ctx, ids)
	if err != nil {
		h.logger.WarnContext(ctx, "activity cache unavailable, using stored activity", slog.Any("error", err))
		return nil
	}
	return seen
}

// BuildCandidates joins agents with their workload and cached heartbeat.
func BuildCandidates(
	agents []*agent.Agent, loads map[kernel.UUID]agent.Load, lastSeen map[kernel.UUID]time.Time,
) []services.Candidate {
	candidates := make([]services.Candidate, 0, len(agents))
	for _, a := range agents {
		c := services.Candidate{
			Agent:    a,
			Workload: agent.NewWorkload(loads[a.ID()], a.MaxOrders()),
		}
		if seen, ok := lastSeen[a.ID()]; ok {
			c.LastSeen = &seen
		}
		candidates = append(candidates, c)
	}
	return candidates
}

func outcomeOf(result AssignmentResult, err error) string {
	switch {
	case err != nil:
		return metrics.OutcomeError
	case result.Success:
		return metrics.OutcomeAssigned
	}

	switch result.Reason {
	case ReasonNoEligibleAgent:
		return metrics.OutcomeNoEligibleAgent
	case ReasonOrderAlreadyAssigned:
		return metrics.OutcomeAlreadyAssigned
	case ReasonOrderNotFound:
		return metrics.OutcomeOrderNotFound
	case ReasonOrderResolved:
		return metrics.OutcomeOrderResolved
	default:
		return metrics.OutcomeError
	}
}
