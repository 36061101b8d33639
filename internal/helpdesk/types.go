package helpdesk

// CustomFieldSlug names a custom field the mapper knows how to read.
type CustomFieldSlug string

const (
	FieldPriority       CustomFieldSlug = "priority"
	FieldCategory       CustomFieldSlug = "category"
	FieldHandler        CustomFieldSlug = "handler"
	FieldResolutionType CustomFieldSlug = "resolution-type"
	FieldSelfServable   CustomFieldSlug = "self-servable"
)

// CustomField is the value envelope of a custom field.
type CustomField struct {
	Value string `json:"value"`
}

// CustomFields maps slugs to values. A nil map reads as empty.
type CustomFields map[string]*CustomField

// Value returns the value stored under slug, or nil when absent.
func (f CustomFields) Value(slug CustomFieldSlug) *string {
	if f == nil {
		return nil
	}
	field, ok := f[string(slug)]
	if !ok || field == nil {
		return nil
	}
	v := field.Value
	return &v
}

// Ref is a nested reference to another upstream object.
type Ref struct {
	ID string `json:"id"`
}

// PersonRef is a nested reference that may carry an email.
type PersonRef struct {
	ID    string  `json:"id"`
	Email *string `json:"email,omitempty"`
}

// CSATResponse is a satisfaction survey answer attached to an issue.
type CSATResponse struct {
	Score   int     `json:"score"`
	Comment *string `json:"comment"`
}

// ExternalIssue links an issue to another tracker.
type ExternalIssue struct {
	ExternalID string `json:"external_id"`
	Source     string `json:"source"`
	Link       string `json:"link"`
}

// Issue is the upstream wire shape of an issue.
type Issue struct {
	ID                                string          `json:"id"`
	Number                            int64           `json:"number"`
	Title                             string          `json:"title"`
	BodyHTML                          *string         `json:"body_html"`
	State                             string          `json:"state"`
	Type                              *string         `json:"type"`
	Source                            *string         `json:"source"`
	Link                              *string         `json:"link"`
	CreatedAt                         string          `json:"created_at"`
	LatestMessageTime                 *string         `json:"latest_message_time"`
	FirstResponseTime                 *string         `json:"first_response_time"`
	FirstResponseSeconds              *int64          `json:"first_response_seconds"`
	BusinessHoursFirstResponseSeconds *int64          `json:"business_hours_first_response_seconds"`
	ResolutionTime                    *string         `json:"resolution_time"`
	ResolutionSeconds                 *int64          `json:"resolution_seconds"`
	BusinessHoursResolutionSeconds    *int64          `json:"business_hours_resolution_seconds"`
	NumberOfTouches                   *int64          `json:"number_of_touches"`
	Tags                              []string        `json:"tags"`
	Account                           *Ref            `json:"account"`
	Assignee                          *PersonRef      `json:"assignee"`
	Requester                         *PersonRef      `json:"requester"`
	Team                              *Ref            `json:"team"`
	CustomFields                      CustomFields    `json:"custom_fields"`
	CSATResponses                     []CSATResponse  `json:"csat_responses"`
	ExternalIssues                    []ExternalIssue `json:"external_issues"`
	AttachmentURLs                    []string        `json:"attachment_urls"`
}

// Author identifies who wrote a message.
type Author struct {
	Name      *string `json:"name"`
	AvatarURL *string `json:"avatar_url"`
	Contact   *Ref    `json:"contact"`
	User      *Ref    `json:"user"`
}

// Message is the upstream wire shape of a thread message.
type Message struct {
	ID          string   `json:"id"`
	Author      *Author  `json:"author"`
	MessageHTML *string  `json:"message_html"`
	IsPrivate   bool     `json:"is_private"`
	Source      *string  `json:"source"`
	Timestamp   string   `json:"timestamp"`
	ThreadID    *string  `json:"thread_id"`
	FileURLs    []string `json:"file_urls"`
}

// Account is the upstream wire shape of a customer account.
type Account struct {
	ID     string  `json:"id"`
	Name   string  `json:"name"`
	Domain *string `json:"domain"`
}

// Pagination describes the cursor of a list response.
type Pagination struct {
	Cursor      *string `json:"cursor"`
	HasNextPage bool    `json:"has_next_page"`
}

// Envelope is the common response wrapper. Data is nil when the field is absent.
type Envelope[T any] struct {
	RequestID  string      `json:"request_id"`
	Data       *T          `json:"data"`
	Pagination *Pagination `json:"pagination"`
}

// NextCursor returns the cursor to request next, or "" when there are no more pages.
func (e Envelope[T]) NextCursor() string {
	if e.Pagination == nil || !e.Pagination.HasNextPage || e.Pagination.Cursor == nil {
		return ""
	}
	return *e.Pagination.Cursor
}
