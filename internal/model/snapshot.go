package model

import "time"

// SchedulerSnapshot is the observable scheduler state served by the control API.
type SchedulerSnapshot struct {
	Running      bool       `json:"running"`
	ScheduleTime TimeOfDay  `json:"schedule_time"`
	StartedAt    *time.Time `json:"started_at,omitempty"`
	LastRun      *time.Time `json:"last_run,omitempty"`
	NextRun      *time.Time `json:"next_run,omitempty"`
	TotalRuns    int        `json:"total_runs"`
}
