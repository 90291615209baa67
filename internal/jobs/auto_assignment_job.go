package jobs

import (
	"context"
	"log/slog"
	"time"

	"backoffice/internal/core/application/usecases/commands"
	"backoffice/internal/pkg/metrics"
)

const AutoAssignmentJobName = "auto_assignment"

// AutoAssigner distributes the backlog. AutoAssignOrdersCommandHandler implements it.
type AutoAssigner interface {
	Handle(ctx context.Context, command commands.AutoAssignOrdersCommand) (commands.AutoAssignResult, error)
}

// AutoAssignmentJob hands unassigned orders to online agents on a schedule.
// Offline agents are never picked by the job.
type AutoAssignmentJob struct {
	handler AutoAssigner
	limit   int
	run     *scheduledRun
	logger  *slog.Logger
}

func NewAutoAssignmentJob(
	handler AutoAssigner, schedule string, limit int, lock Locker, m *metrics.JobMetrics, logger *slog.Logger,
) *AutoAssignmentJob {
	if logger == nil {
		logger = slog.Default()
	}
	j := &AutoAssignmentJob{handler: handler, limit: limit, logger: logger.With("component", AutoAssignmentJobName)}
	j.run = newScheduledRun(AutoAssignmentJobName, schedule, time.Minute, lock, m, logger, j.assign)
	return j
}

func (j *AutoAssignmentJob) Start() error { return j.run.start() }

func (j *AutoAssignmentJob) Stop() { j.run.stop() }

// RunOnce executes one guarded run outside the schedule.
func (j *AutoAssignmentJob) RunOnce(ctx context.Context) (bool, error) {
	return j.run.execute(ctx)
}

func (j *AutoAssignmentJob) Running() bool { return j.run.isRunning() }

func (j *AutoAssignmentJob) assign(ctx context.Context) error {
	cmd, err := commands.NewAutoAssignOrdersCommand(j.limit, false)
	if err != nil {
		return err
	}

	result, err := j.handler.Handle(ctx, cmd)
	if err != nil {
		return err
	}
	if result.TotalProcessed > 0 {
		j.logger.InfoContext(ctx, "auto assignment finished",
			slog.Int("processed", result.TotalProcessed),
			slog.Int("assigned", result.SuccessfulAssignments),
			slog.Int("failed", result.FailedAssignments),
		)
	}
	return nil
}
