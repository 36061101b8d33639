package domain

import "time"

// SyncRunStatus represents the lifecycle of a ledger entry.
type SyncRunStatus string

const (
	SyncRunStatusRunning   SyncRunStatus = "running"
	SyncRunStatusCompleted SyncRunStatus = "completed"
	SyncRunStatusFailed    SyncRunStatus = "failed"
)

// SyncRun is one persisted pass of the sync engine.
type SyncRun struct {
	ID                 string
	StartedAt          time.Time
	EndedAt            *time.Time
	Status             SyncRunStatus
	IssuesSynced       int
	AccountsSynced     int
	MessagesSynced     int
	LastIssueUpdatedAt *time.Time
	Errors             []string
}

// RunStats carries the outcome recorded when a run completes.
type RunStats struct {
	IssuesSynced       int
	AccountsSynced     int
	MessagesSynced     int
	LastIssueUpdatedAt time.Time
}
