package domain

import "time"

// IssueState enumerates the upstream lifecycle states of an issue.
type IssueState string

const (
	IssueStateNew               IssueState = "new"
	IssueStateWaitingOnYou      IssueState = "waiting_on_you"
	IssueStateWaitingOnCustomer IssueState = "waiting_on_customer"
	IssueStateOnHold            IssueState = "on_hold"
	IssueStateClosed            IssueState = "closed"
)

// Issue is the normalized support ticket snapshot.
type Issue struct {
	ID                                string
	Title                             string
	State                             IssueState
	Source                            *string
	Type                              *string
	Link                              *string
	BodyHTML                          *string
	Tags                              []string
	AccountID                         *string
	AssigneeID                        *string
	CreatedAt                         time.Time
	ClosedAt                          *time.Time
	FirstResponseAt                   *time.Time
	FirstResponseSeconds              *int64
	BusinessHoursFirstResponseSeconds *int64
	ResolutionTime                    *time.Time
	NumberOfTouches                   *int64
	Priority                          *string
	Category                          *string
	Handler                           *string
	ResolutionType                    *string
	SelfServable                      *string
	SyncedAt                          time.Time
}

// IsOpen reports whether the issue still needs attention.
func (i Issue) IsOpen() bool {
	return i.State != IssueStateClosed
}

// IssueWithRelations joins an issue with its account and assignee names for read paths.
type IssueWithRelations struct {
	Issue
	AccountName  *string
	AssigneeName *string
}
