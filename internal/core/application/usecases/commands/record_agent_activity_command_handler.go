package commands

import (
	"context"
	"log/slog"
	"time"

	"backoffice/internal/core/ports"
)

// RecordAgentActivityCommandHandler moves an agent's lastActivityAt forward
// and refreshes the liveness cache entry, which expires after the online
// threshold so a silent agent drops offline without any cleanup.
type RecordAgentActivityCommandHandler struct {
	uowFactory AgentUoWFactory
	activity   ports.ActivityCache
	threshold  time.Duration
	logger     *slog.Logger
	now        func() time.Time
}

func NewRecordAgentActivityCommandHandler(
	uowFactory AgentUoWFactory, activity ports.ActivityCache, onlineThreshold time.Duration, logger *slog.Logger,
) RecordAgentActivityCommandHandler {
	if logger == nil {
		logger = slog.Default()
	}
	return RecordAgentActivityCommandHandler{
		uowFactory: uowFactory,
		activity:   activity,
		threshold:  onlineThreshold,
		logger:     logger.With("component", "agent-activity"),
		now:        time.Now,
	}
}

func (h RecordAgentActivityCommandHandler) WithClock(now func() time.Time) RecordAgentActivityCommandHandler {
	h.now = now
	return h
}

// Handle fails only when the agent does not exist or the store is down.
func (h RecordAgentActivityCommandHandler) Handle(ctx context.Context, command RecordAgentActivityCommand) error {
	if err := command.Validate(); err != nil {
		return err
	}

	uow := h.uowFactory.Create()
	if err := uow.Begin(ctx); err != nil {
		return err
	}

	defer func() {
		_ = uow.Rollback(ctx)
	}()

	agentRepo := uow.AgentRepository()
	a, err := agentRepo.Get(ctx, command.AgentID())
	if err != nil {
		return err
	}

	now := h.now()
	a.RecordActivity(now)
	if err = agentRepo.Update(ctx, a); err != nil {
		return err
	}
	if err = uow.Commit(ctx); err != nil {
		return err
	}

	if h.activity == nil {
		return nil
	}
	if err = h.activity.Touch(ctx, a.ID(), command.SessionToken(), now, h.threshold); err != nil {
		h.logger.WarnContext(ctx, "liveness cache not refreshed",
			slog.String("agent_id", a.ID().String()), slog.Any("error", err))
	}
	return nil
}
