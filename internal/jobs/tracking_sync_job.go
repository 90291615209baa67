package jobs

import (
	"context"
	"log/slog"
	"time"

	"backoffice/internal/core/application/usecases/commands"
	"backoffice/internal/pkg/metrics"
)

const TrackingSyncJobName = "tracking_sync"

// AccountsSyncer syncs every active bulk-capable account.
// SyncActiveAccountsCommandHandler implements it.
type AccountsSyncer interface {
	Handle(ctx context.Context, command commands.SyncActiveAccountsCommand) (commands.SyncActiveAccountsResult, error)
}

// TrackingSyncJob pulls provider statuses for every active Maystro account.
type TrackingSyncJob struct {
	handler   AccountsSyncer
	maxOrders int
	run       *scheduledRun
	logger    *slog.Logger
}

func NewTrackingSyncJob(
	handler AccountsSyncer, schedule string, maxOrders int, lock Locker, m *metrics.JobMetrics, logger *slog.Logger,
) *TrackingSyncJob {
	if logger == nil {
		logger = slog.Default()
	}
	j := &TrackingSyncJob{handler: handler, maxOrders: maxOrders, logger: logger.With("component", TrackingSyncJobName)}
	j.run = newScheduledRun(TrackingSyncJobName, schedule, 10*time.Minute, lock, m, logger, j.sync)
	return j
}

func (j *TrackingSyncJob) Start() error { return j.run.start() }

func (j *TrackingSyncJob) Stop() { j.run.stop() }

func (j *TrackingSyncJob) RunOnce(ctx context.Context) (bool, error) {
	return j.run.execute(ctx)
}

func (j *TrackingSyncJob) Running() bool { return j.run.isRunning() }

func (j *TrackingSyncJob) sync(ctx context.Context) error {
	cmd, err := commands.NewSyncActiveAccountsCommand(j.maxOrders)
	if err != nil {
		return err
	}

	result, err := j.handler.Handle(ctx, cmd)
	updated := 0
	for _, r := range result.Accounts {
		updated += r.Updated
	}
	j.logger.InfoContext(ctx, "tracking sync finished",
		slog.Int("accounts", len(result.Accounts)),
		slog.Int("failed_accounts", len(result.Failures)),
		slog.Int("updated", updated),
	)
	return err
}
