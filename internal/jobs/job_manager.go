package jobs

import (
	"fmt"
)

// JobManager starts and stops the scheduled jobs together.
type JobManager struct {
	autoAssignment *AutoAssignmentJob
	trackingSync   *TrackingSyncJob
}

func NewJobManager(autoAssignment *AutoAssignmentJob, trackingSync *TrackingSyncJob) *JobManager {
	return &JobManager{autoAssignment: autoAssignment, trackingSync: trackingSync}
}

// StartAll starts every job. Already started jobs are stopped when one fails.
func (jm *JobManager) StartAll() error {
	if err := jm.autoAssignment.Start(); err != nil {
		return fmt.Errorf("failed to start auto assignment job: %w", err)
	}

	if err := jm.trackingSync.Start(); err != nil {
		jm.autoAssignment.Stop()
		return fmt.Errorf("failed to start tracking sync job: %w", err)
	}

	return nil
}

// StopAll stops the jobs and waits for running executions.
func (jm *JobManager) StopAll() {
	jm.trackingSync.Stop()
	jm.autoAssignment.Stop()
}
