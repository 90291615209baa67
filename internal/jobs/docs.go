// Package jobs provides the scheduled background tasks of the back office.
//
// Jobs use github.com/robfig/cron/v3 with a seconds field.
//
// # Available Jobs
//
// 1. AutoAssignmentJob - assigns the unassigned backlog to online agents (AUTO_ASSIGN_CRON)
// 2. TrackingSyncJob - syncs tracking numbers of every active Maystro account (TRACKING_SYNC_CRON)
//
// # Usage
//
//	manager := jobs.NewJobManager(autoAssignmentJob, trackingSyncJob)
//	if err := manager.StartAll(); err != nil {
//		return err
//	}
//	defer manager.StopAll()
//
// # Overlap
//
// A run is skipped when the previous one is still going in this process
// (atomic running flag) or on another instance (Redis lease). Skips and
// durations are exported as prometheus job metrics.
package jobs
