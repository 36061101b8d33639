package helpdesk

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"iter"
	"net/http"
	"net/url"
	"strings"
	"time"

	"go.uber.org/zap"
)

const (
	// DefaultBaseURL is the public helpdesk API.
	DefaultBaseURL = "https://api.usepylon.com"
	// DefaultPageDelay paces paginated calls to stay under the rate limit.
	DefaultPageDelay = 500 * time.Millisecond

	maxErrorBody = 4 << 10
)

// Options configures a Client.
type Options struct {
	BaseURL    string
	Token      string
	HTTPClient *http.Client
	Retry      *RetryPolicy
	PageDelay  *time.Duration
	Sleep      SleepFunc
	Logger     *zap.Logger
}

// Client talks to the upstream ticketing API.
type Client struct {
	baseURL   string
	token     string
	http      *http.Client
	retry     RetryPolicy
	pageDelay time.Duration
	sleep     SleepFunc
	logger    *zap.Logger
}

// NewClient builds a client, applying defaults for unset options.
func NewClient(opts Options) *Client {
	c := &Client{
		baseURL:   strings.TrimRight(opts.BaseURL, "/"),
		token:     opts.Token,
		http:      opts.HTTPClient,
		retry:     DefaultRetryPolicy(),
		pageDelay: DefaultPageDelay,
		sleep:     opts.Sleep,
		logger:    opts.Logger,
	}
	if c.baseURL == "" {
		c.baseURL = DefaultBaseURL
	}
	if c.http == nil {
		c.http = &http.Client{Timeout: 30 * time.Second}
	}
	if opts.Retry != nil {
		c.retry = *opts.Retry
	}
	if opts.PageDelay != nil {
		c.pageDelay = *opts.PageDelay
	}
	if c.sleep == nil {
		c.sleep = Sleep
	}
	if c.logger == nil {
		c.logger = zap.NewNop()
	}
	return c
}

// IssuePages lazily walks the issue search for [start, end], one page per
// iteration. Iteration stops after the last page, on a page with no data, or
// after yielding an error.
func (c *Client) IssuePages(ctx context.Context, start, end time.Time) iter.Seq2[[]Issue, error] {
	return func(yield func([]Issue, error) bool) {
		cursor := ""
		for page := 1; ; page++ {
			q := url.Values{}
			q.Set("start_time", formatTime(start))
			q.Set("end_time", formatTime(end))
			if cursor != "" {
				q.Set("cursor", cursor)
			}

			var resp Envelope[[]Issue]
			if err := c.get(ctx, "/issues", q, &resp); err != nil {
				yield(nil, err)
				return
			}
			if resp.Data == nil {
				return
			}
			if !yield(*resp.Data, nil) {
				return
			}

			cursor = resp.NextCursor()
			if cursor == "" {
				return
			}
			c.logger.Debug("fetching next issue page", zap.Int("page", page+1), zap.Duration("delay", c.pageDelay))
			if err := c.sleep(ctx, c.pageDelay); err != nil {
				yield(nil, err)
				return
			}
		}
	}
}

// FetchIssues collects every issue page for [start, end] in order.
func (c *Client) FetchIssues(ctx context.Context, start, end time.Time) ([]Issue, error) {
	issues := []Issue{}
	for page, err := range c.IssuePages(ctx, start, end) {
		if err != nil {
			return nil, err
		}
		issues = append(issues, page...)
	}
	return issues, nil
}

// FetchMessages lists the thread of an issue.
func (c *Client) FetchMessages(ctx context.Context, issueID string) ([]Message, error) {
	var resp Envelope[[]Message]
	if err := c.get(ctx, "/issues/"+url.PathEscape(issueID)+"/messages", nil, &resp); err != nil {
		return nil, err
	}
	if resp.Data == nil {
		return []Message{}, nil
	}
	return *resp.Data, nil
}

// FetchAccount looks up an account by id.
func (c *Client) FetchAccount(ctx context.Context, accountID string) (*Account, error) {
	var resp Envelope[Account]
	if err := c.get(ctx, "/accounts/"+url.PathEscape(accountID), nil, &resp); err != nil {
		return nil, err
	}
	if resp.Data == nil {
		return nil, fmt.Errorf("account %s: empty response", accountID)
	}
	return resp.Data, nil
}

func (c *Client) get(ctx context.Context, path string, q url.Values, out any) error {
	u := c.baseURL + path
	if len(q) > 0 {
		u += "?" + q.Encode()
	}

	onRetry := func(attempt int, err error, wait time.Duration) {
		c.logger.Warn("retrying helpdesk request",
			zap.String("path", path),
			zap.Int("attempt", attempt),
			zap.Duration("wait", wait),
			zap.Error(err))
	}

	body, err := Execute(ctx, c.retry, c.sleep, onRetry, func(ctx context.Context) ([]byte, error) {
		return c.do(ctx, path, u)
	})
	if err != nil {
		return err
	}
	if err := json.Unmarshal(body, out); err != nil {
		return fmt.Errorf("decode %s: %w", path, err)
	}
	return nil
}

func (c *Client) do(ctx context.Context, path, u string) ([]byte, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, u, nil)
	if err != nil {
		return nil, err
	}
	req.Header.Set("Authorization", "Bearer "+c.token)
	req.Header.Set("Content-Type", "application/json")

	resp, err := c.http.Do(req)
	if err != nil {
		return nil, fmt.Errorf("request %s: %w", path, err)
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		b, _ := io.ReadAll(io.LimitReader(resp.Body, maxErrorBody))
		return nil, &APIError{StatusCode: resp.StatusCode, Path: path, Body: strings.TrimSpace(string(b))}
	}

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, fmt.Errorf("read %s: %w", path, err)
	}
	return body, nil
}

func formatTime(t time.Time) string {
	return t.UTC().Format("2006-01-02T15:04:05.000Z07:00")
}
