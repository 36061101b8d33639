package domain

import "time"

// SenderType classifies who wrote a message.
type SenderType string

const (
	SenderTypeCustomer SenderType = "customer"
	SenderTypeTeam     SenderType = "team"
	SenderTypeSystem   SenderType = "system"
)

// Message is a single entry in an issue thread.
type Message struct {
	ID         string
	IssueID    string
	SenderType SenderType
	SenderName *string
	BodyHTML   *string
	BodyText   *string
	CreatedAt  time.Time
	SyncedAt   time.Time
}
