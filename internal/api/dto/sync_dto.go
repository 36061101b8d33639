package dto

import (
	"time"

	"github.com/spec-kit/support-insights/internal/domain"
)

// SyncRunResponse is one ledger entry as exposed over HTTP.
type SyncRunResponse struct {
	ID                 string     `json:"id"`
	Status             string     `json:"status"`
	StartedAt          time.Time  `json:"started_at"`
	EndedAt            *time.Time `json:"ended_at"`
	IssuesSynced       int        `json:"issues_synced"`
	AccountsSynced     int        `json:"accounts_synced"`
	MessagesSynced     int        `json:"messages_synced"`
	LastIssueUpdatedAt *time.Time `json:"last_issue_updated_at"`
	Errors             []string   `json:"errors"`
}

// NewSyncRunResponse converts a ledger entry.
func NewSyncRunResponse(run domain.SyncRun) SyncRunResponse {
	errs := run.Errors
	if errs == nil {
		errs = []string{}
	}
	return SyncRunResponse{
		ID:                 run.ID,
		Status:             string(run.Status),
		StartedAt:          run.StartedAt,
		EndedAt:            run.EndedAt,
		IssuesSynced:       run.IssuesSynced,
		AccountsSynced:     run.AccountsSynced,
		MessagesSynced:     run.MessagesSynced,
		LastIssueUpdatedAt: run.LastIssueUpdatedAt,
		Errors:             errs,
	}
}
