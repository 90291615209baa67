package jobs

import (
	"context"
	"log/slog"
	"time"

	"backoffice/internal/pkg/metrics"

	"github.com/robfig/cron/v3"
	"go.uber.org/atomic"
)

// Locker is a lease shared by every instance of the service.
type Locker interface {
	Acquire(ctx context.Context) (bool, error)
	Release(ctx context.Context) error
}

// scheduledRun owns the cron schedule of one job and makes sure a run never
// overlaps another one, here or on another instance.
type scheduledRun struct {
	name     string
	schedule string
	timeout  time.Duration
	lock     Locker
	metrics  *metrics.JobMetrics
	logger   *slog.Logger
	cron     *cron.Cron
	fn       func(ctx context.Context) error

	// cancel aborts the context of scheduled runs on stop.
	cancel context.CancelFunc

	running atomic.Bool
}

func newScheduledRun(
	name, schedule string, timeout time.Duration, lock Locker, m *metrics.JobMetrics, logger *slog.Logger,
	fn func(ctx context.Context) error,
) *scheduledRun {
	if logger == nil {
		logger = slog.Default()
	}
	return &scheduledRun{
		name:     name,
		schedule: schedule,
		timeout:  timeout,
		lock:     lock,
		metrics:  m,
		logger:   logger.With("component", name),
		cron:     cron.New(cron.WithSeconds()),
		fn:       fn,
	}
}

func (r *scheduledRun) start() error {
	base, cancel := context.WithCancel(context.Background())
	if _, err := r.cron.AddFunc(r.schedule, func() { _, _ = r.execute(base) }); err != nil {
		cancel()
		return err
	}
	r.cancel = cancel
	r.cron.Start()
	r.logger.InfoContext(base, "job started", slog.String("schedule", r.schedule))
	return nil
}

// stop cancels an in-flight scheduled run and waits for it to return.
func (r *scheduledRun) stop() {
	if r.cancel != nil {
		r.cancel()
	}
	<-r.cron.Stop().Done()
	r.logger.InfoContext(context.Background(), "job stopped")
}

// execute reports whether fn actually ran, and the error of that run or of
// taking the lock. A skipped run returns no error.
func (r *scheduledRun) execute(ctx context.Context) (bool, error) {
	if !r.running.CAS(false, true) {
		r.metrics.IncSkipped(r.name)
		r.logger.WarnContext(ctx, "previous run still in progress, skipping")
		return false, nil
	}
	defer r.running.Store(false)

	if r.lock != nil {
		acquired, err := r.lock.Acquire(ctx)
		if err != nil {
			r.logger.ErrorContext(ctx, "job lock unavailable", slog.Any("error", err))
			r.metrics.ObserveRun(r.name, 0, err)
			return false, err
		}
		if !acquired {
			r.metrics.IncSkipped(r.name)
			r.logger.DebugContext(ctx, "job running on another instance, skipping")
			return false, nil
		}
		defer func() {
			if err := r.lock.Release(context.WithoutCancel(ctx)); err != nil {
				r.logger.WarnContext(ctx, "job lock not released", slog.Any("error", err))
			}
		}()
	}

	runCtx := ctx
	if r.timeout > 0 {
		var cancel context.CancelFunc
		runCtx, cancel = context.WithTimeout(ctx, r.timeout)
		defer cancel()
	}

	started := time.Now()
	err := r.fn(runCtx)
	r.metrics.ObserveRun(r.name, time.Since(started), err)
	if err != nil {
		r.logger.ErrorContext(ctx, "job failed", slog.Any("error", err), slog.Duration("duration", time.Since(started)))
	}
	return true, err
}

func (r *scheduledRun) isRunning() bool { return r.running.Load() }
