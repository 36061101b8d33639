package mapper

import (
	"regexp"
	"strings"
	"time"

	"github.com/spec-kit/support-insights/internal/clock"
	"github.com/spec-kit/support-insights/internal/domain"
	"github.com/spec-kit/support-insights/internal/helpdesk"
)

const unknownAssigneeName = "Unknown"

var tagPattern = regexp.MustCompile(`<[^>]*>`)

// Mapper turns helpdesk wire records into domain records. Every record it
// produces is stamped with the clock's current time.
type Mapper struct {
	clock clock.Clock
}

// New returns a Mapper reading time from c, or the wall clock when c is nil.
func New(c clock.Clock) *Mapper {
	if c == nil {
		c = clock.Real()
	}
	return &Mapper{clock: c}
}

// MapIssue normalizes an upstream issue.
func (m *Mapper) MapIssue(raw helpdesk.Issue) domain.Issue {
	tags := raw.Tags
	if tags == nil {
		tags = []string{}
	}

	var accountID, assigneeID *string
	if raw.Account != nil {
		accountID = stringPtr(raw.Account.ID)
	}
	if raw.Assignee != nil {
		assigneeID = stringPtr(raw.Assignee.ID)
	}

	resolvedAt := parseOptionalTime(raw.ResolutionTime)

	return domain.Issue{
		ID:                                raw.ID,
		Title:                             raw.Title,
		State:                             domain.IssueState(raw.State),
		Source:                            raw.Source,
		Type:                              raw.Type,
		Link:                              raw.Link,
		BodyHTML:                          raw.BodyHTML,
		Tags:                              tags,
		AccountID:                         accountID,
		AssigneeID:                        assigneeID,
		CreatedAt:                         parseTime(raw.CreatedAt),
		ClosedAt:                          resolvedAt,
		FirstResponseAt:                   parseOptionalTime(raw.FirstResponseTime),
		FirstResponseSeconds:              raw.FirstResponseSeconds,
		BusinessHoursFirstResponseSeconds: raw.BusinessHoursFirstResponseSeconds,
		ResolutionTime:                    copyTime(resolvedAt),
		NumberOfTouches:                   raw.NumberOfTouches,
		Priority:                          raw.CustomFields.Value(helpdesk.FieldPriority),
		Category:                          raw.CustomFields.Value(helpdesk.FieldCategory),
		Handler:                           raw.CustomFields.Value(helpdesk.FieldHandler),
		ResolutionType:                    raw.CustomFields.Value(helpdesk.FieldResolutionType),
		SelfServable:                      raw.CustomFields.Value(helpdesk.FieldSelfServable),
		SyncedAt:                          m.clock.Now(),
	}
}

// MapMessage normalizes a thread message belonging to issueID.
func (m *Mapper) MapMessage(raw helpdesk.Message, issueID string) domain.Message {
	var senderName *string
	if raw.Author != nil {
		senderName = raw.Author.Name
	}

	var bodyText *string
	if raw.MessageHTML != nil {
		bodyText = stringPtr(StripHTML(*raw.MessageHTML))
	}

	return domain.Message{
		ID:         raw.ID,
		IssueID:    issueID,
		SenderType: senderType(raw.Author),
		SenderName: senderName,
		BodyHTML:   raw.MessageHTML,
		BodyText:   bodyText,
		CreatedAt:  parseTime(raw.Timestamp),
		SyncedAt:   m.clock.Now(),
	}
}

// MapAccount normalizes an account.
func (m *Mapper) MapAccount(raw helpdesk.Account) domain.Account {
	return domain.Account{
		ID:       raw.ID,
		Name:     raw.Name,
		Domain:   raw.Domain,
		SyncedAt: m.clock.Now(),
	}
}

// MapAssignee derives the assigned team member of an issue. It returns nil
// when the issue is unassigned.
func (m *Mapper) MapAssignee(raw helpdesk.Issue) *domain.User {
	if raw.Assignee == nil || raw.Assignee.ID == "" {
		return nil
	}

	name := unknownAssigneeName
	var email *string
	if raw.Assignee.Email != nil {
		email = stringPtr(*raw.Assignee.Email)
		name, _, _ = strings.Cut(*raw.Assignee.Email, "@")
	}

	return &domain.User{
		ID:       raw.Assignee.ID,
		Name:     name,
		Email:    email,
		SyncedAt: m.clock.Now(),
	}
}

// StripHTML removes every <...> span from html.
func StripHTML(html string) string {
	return tagPattern.ReplaceAllString(html, "")
}

// contact wins over user when both are set.
func senderType(author *helpdesk.Author) domain.SenderType {
	switch {
	case author != nil && author.Contact != nil:
		return domain.SenderTypeCustomer
	case author != nil && author.User != nil:
		return domain.SenderTypeTeam
	default:
		return domain.SenderTypeSystem
	}
}

// parseTime returns the zero instant for malformed input.
func parseTime(value string) time.Time {
	t, err := time.Parse(time.RFC3339Nano, value)
	if err != nil {
		return time.Time{}
	}
	return t
}

func parseOptionalTime(value *string) *time.Time {
	if value == nil || *value == "" {
		return nil
	}
	t, err := time.Parse(time.RFC3339Nano, *value)
	if err != nil {
		return nil
	}
	return &t
}

func copyTime(t *time.Time) *time.Time {
	if t == nil {
		return nil
	}
	v := *t
	return &v
}

func stringPtr(s string) *string {
	return &s
}
