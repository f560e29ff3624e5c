package catalog

import "time"

// SyncStatus is the state of a sync job
type SyncStatus string

const (
	SyncRunning   SyncStatus = "running"
	SyncCompleted SyncStatus = "completed"
	SyncFailed    SyncStatus = "failed"
	SyncSkipped   SyncStatus = "skipped"
)

// SyncReport describes one sync run
type SyncReport struct {
	JobID      string     `json:"job_id"`
	Status     SyncStatus `json:"status"`
	StartedAt  time.Time  `json:"started_at"`
	FinishedAt time.Time  `json:"finished_at,omitempty"`
	DurationMS int64      `json:"duration_ms"`
	Platforms  int        `json:"platforms"`
	Games      int        `json:"games"`
	Error      string     `json:"error,omitempty"`
}
