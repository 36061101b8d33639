package events

import "time"

// EventType enumerates supported event identifiers.
type EventType string

const (
	EventSyncCompleted EventType = "sync_completed"
	EventSyncFailed    EventType = "sync_failed"
)

// Event represents a domain event emitted by services.
type Event struct {
	ID        string    `json:"id"`
	Type      EventType `json:"type"`
	RunID     string    `json:"run_id"`
	Timestamp time.Time `json:"timestamp"`
	Payload   any       `json:"payload"`
}

// SyncCompletedPayload payload.
type SyncCompletedPayload struct {
	Mode           string    `json:"mode"`
	IssuesSynced   int       `json:"issues_synced"`
	AccountsSynced int       `json:"accounts_synced"`
	MessagesSynced int       `json:"messages_synced"`
	Watermark      time.Time `json:"watermark"`
}

// SyncFailedPayload payload.
type SyncFailedPayload struct {
	Mode  string `json:"mode"`
	Error string `json:"error"`
}
