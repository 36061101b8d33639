package service_test

import (
	"time"

	"github.com/spec-kit/support-insights/internal/helpdesk"
)

func ptr[T any](v T) *T { return &v }

func mustTime(value string) time.Time {
	t, err := time.Parse(time.RFC3339, value)
	if err != nil {
		panic(err)
	}
	return t
}

func rawIssue(id string, overrides ...func(*helpdesk.Issue)) helpdesk.Issue {
	issue := helpdesk.Issue{
		ID:                id,
		Title:             "Issue " + id,
		State:             "new",
		CreatedAt:         "2026-02-14T10:00:00Z",
		LatestMessageTime: ptr("2026-02-14T11:00:00Z"),
		Tags:              []string{},
		Account:           &helpdesk.Ref{ID: "account-001"},
		Assignee:          &helpdesk.PersonRef{ID: "user-001", Email: ptr("juliana@camu.ai")},
		CustomFields:      helpdesk.CustomFields{"priority": {Value: "high"}},
	}
	for _, o := range overrides {
		o(&issue)
	}
	return issue
}

func rawMessage(id string) helpdesk.Message {
	return helpdesk.Message{
		ID:          id,
		Author:      &helpdesk.Author{Name: ptr("Juliana"), User: &helpdesk.Ref{ID: "user-001"}},
		MessageHTML: ptr("<p>Thanks for reaching out</p>"),
		Timestamp:   "2026-02-14T11:00:00Z",
	}
}
