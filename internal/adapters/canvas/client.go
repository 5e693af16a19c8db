// Package canvas implements the Canvas LMS REST client behind
// secondary.CanvasClient.
package canvas

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"net"
	"net/http"
	"net/url"
	"strconv"
	"strings"
	"time"

	"github.com/cenkalti/backoff/v4"
	"golang.org/x/time/rate"

	"github.com/example/canvasai/internal/ports/secondary"
)

const (
	requestTimeout = 15 * time.Second
	maxBodyBytes   = 8 << 20
)

// DefaultRetryDelays are the waits before the second and third attempts.
var DefaultRetryDelays = []time.Duration{400 * time.Millisecond, time.Second}

var retryableStatus = map[int]bool{
	http.StatusTooManyRequests:     true,
	http.StatusInternalServerError: true,
	http.StatusBadGateway:          true,
	http.StatusServiceUnavailable:  true,
	http.StatusGatewayTimeout:      true,
}

// Client talks to the Canvas REST API.
type Client struct {
	baseURL    string
	token      string
	httpClient *http.Client
	limiter    *rate.Limiter
	delays     []time.Duration
	timer      backoff.Timer
	now        func() time.Time
	logger     *slog.Logger
}

// Option configures a Client.
type Option func(*Client)

// WithHTTPClient replaces the default HTTP client.
func WithHTTPClient(hc *http.Client) Option {
	return func(c *Client) { c.httpClient = hc }
}

// WithRetryDelays replaces DefaultRetryDelays. The number of attempts is
// len(delays)+1.
func WithRetryDelays(delays []time.Duration) Option {
	return func(c *Client) { c.delays = delays }
}

// WithTimer replaces the timer used to wait between attempts.
func WithTimer(t backoff.Timer) Option {
	return func(c *Client) { c.timer = t }
}

// WithClock replaces time.Now for computing date windows.
func WithClock(now func() time.Time) Option {
	return func(c *Client) { c.now = now }
}

// WithRateLimit bounds outgoing requests per second.
func WithRateLimit(r rate.Limit, burst int) Option {
	return func(c *Client) { c.limiter = rate.NewLimiter(r, burst) }
}

// WithLogger sets the diagnostic logger.
func WithLogger(l *slog.Logger) Option {
	return func(c *Client) { c.logger = l }
}

// New creates a client for the Canvas instance at baseURL.
func New(baseURL, token string, opts ...Option) *Client {
	c := &Client{
		baseURL:    strings.TrimRight(baseURL, "/"),
		token:      token,
		httpClient: &http.Client{Timeout: requestTimeout},
		limiter:    rate.NewLimiter(rate.Every(time.Second/10), 10),
		delays:     DefaultRetryDelays,
		now:        time.Now,
		logger:     slog.New(slog.NewTextHandler(io.Discard, nil)),
	}
	for _, opt := range opts {
		opt(c)
	}
	return c
}

// ListCourses returns the user's active courses.
func (c *Client) ListCourses(ctx context.Context) ([]secondary.Course, error) {
	courses := []secondary.Course{}
	if err := c.getList(ctx, "courses", url.Values{"enrollment_state": {"active"}}, &courses); err != nil {
		return nil, err
	}
	return courses, nil
}

// ListAssignmentsDue returns upcoming assignments across active courses due
// before now+within.
func (c *Client) ListAssignmentsDue(ctx context.Context, within time.Duration) ([]secondary.Assignment, error) {
	endDate := c.now().Add(within).UTC().Format(time.RFC3339)

	courses, err := c.ListCourses(ctx)
	if err != nil {
		return nil, err
	}

	all := []secondary.Assignment{}
	for _, course := range courses {
		if course.ID == 0 {
			continue
		}
		var items []secondary.Assignment
		path := fmt.Sprintf("courses/%d/assignments", course.ID)
		params := url.Values{"bucket": {"upcoming"}, "end_date": {endDate}}
		if err := c.getList(ctx, path, params, &items); err != nil {
			return nil, err
		}
		all = append(all, items...)
	}
	return all, nil
}

// GetAssignment returns an assignment, or nil when Canvas returns no object.
func (c *Client) GetAssignment(ctx context.Context, id int64) (*secondary.Assignment, error) {
	var a secondary.Assignment
	found, err := c.getObject(ctx, fmt.Sprintf("assignments/%d", id), nil, &a)
	if err != nil || !found {
		return nil, err
	}
	return &a, nil
}

// ListAccounts returns the accounts visible to the user.
func (c *Client) ListAccounts(ctx context.Context) ([]secondary.Account, error) {
	accounts := []secondary.Account{}
	if err := c.getList(ctx, "accounts", nil, &accounts); err != nil {
		return nil, err
	}
	return accounts, nil
}

// GetBrandingTheme returns the account theme, or nil when empty.
func (c *Client) GetBrandingTheme(ctx context.Context) (*secondary.Theme, error) {
	var theme secondary.Theme
	found, err := c.getObject(ctx, "accounts/self/theme", nil, &theme)
	if err != nil || !found {
		return nil, err
	}
	return &theme, nil
}

// SubmitAssignment is a stub: no file is uploaded.
func (c *Client) SubmitAssignment(ctx context.Context, assignmentID int64, filePath string) (map[string]any, error) {
	return map[string]any{
		"status":        "stubbed",
		"assignment_id": assignmentID,
		"file":          filePath,
		"message":       "Submission flow placeholder. Human-confirmed execution only.",
	}, nil
}

// getList decodes a JSON array into out. Any other JSON value yields an
// empty result.
func (c *Client) getList(ctx context.Context, path string, params url.Values, out any) error {
	body, err := c.get(ctx, path, params)
	if err != nil {
		return err
	}
	if firstByte(body) != '[' {
		return nil
	}
	if err := json.Unmarshal(body, out); err != nil {
		return &secondary.ClientError{Endpoint: path, Kind: secondary.KindRequest, Message: fmt.Sprintf("invalid JSON from %s: %v", path, err)}
	}
	return nil
}

// getObject decodes a non-empty JSON object into out and reports whether one
// was present.
func (c *Client) getObject(ctx context.Context, path string, params url.Values, out any) (bool, error) {
	body, err := c.get(ctx, path, params)
	if err != nil {
		return false, err
	}
	if firstByte(body) != '{' {
		return false, nil
	}
	var probe map[string]json.RawMessage
	if err := json.Unmarshal(body, &probe); err != nil {
		return false, &secondary.ClientError{Endpoint: path, Kind: secondary.KindRequest, Message: fmt.Sprintf("invalid JSON from %s: %v", path, err)}
	}
	if len(probe) == 0 {
		return false, nil
	}
	if err := json.Unmarshal(body, out); err != nil {
		return false, &secondary.ClientError{Endpoint: path, Kind: secondary.KindRequest, Message: fmt.Sprintf("invalid JSON from %s: %v", path, err)}
	}
	return true, nil
}

func firstByte(b []byte) byte {
	b = bytes.TrimSpace(b)
	if len(b) == 0 {
		return 0
	}
	return b[0]
}

// get performs a GET with bounded retries. 401/403 are never retried.
func (c *Client) get(ctx context.Context, path string, params url.Values) ([]byte, error) {
	target := c.baseURL + "/api/v1/" + strings.TrimLeft(path, "/")
	if len(params) > 0 {
		target += "?" + params.Encode()
	}

	schedule := &scheduleBackOff{delays: c.delays}
	attempt := 0
	var body []byte

	operation := func() error {
		attempt++
		if err := c.limiter.Wait(ctx); err != nil {
			return backoff.Permanent(&secondary.ClientError{Endpoint: path, Kind: secondary.KindRequest, Message: fmt.Sprintf("request error calling %s: %v", target, err)})
		}
		b, err := c.do(ctx, path, target, schedule)
		if err != nil {
			return err
		}
		body = b
		return nil
	}

	notify := func(err error, wait time.Duration) {
		c.logger.Debug("retrying canvas request", "endpoint", path, "attempt", attempt, "wait", wait, "error", err)
	}

	err := backoff.RetryNotifyWithTimer(operation, backoff.WithContext(schedule, ctx), notify, c.timer)
	if err != nil {
		var ce *secondary.ClientError
		if errors.As(err, &ce) {
			return nil, ce
		}
		return nil, &secondary.ClientError{Endpoint: path, Kind: secondary.KindRequest, Message: fmt.Sprintf("request error calling %s: %v", target, err)}
	}
	return body, nil
}

// do performs one attempt. Retryable failures are returned as plain errors;
// everything else is wrapped with backoff.Permanent.
func (c *Client) do(ctx context.Context, path, target string, schedule *scheduleBackOff) ([]byte, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, target, nil)
	if err != nil {
		return nil, backoff.Permanent(&secondary.ClientError{Endpoint: path, Kind: secondary.KindRequest, Message: fmt.Sprintf("request error calling %s: %v", target, err)})
	}
	req.Header.Set("Authorization", "Bearer "+c.token)
	req.Header.Set("Accept", "application/json")

	resp, err := c.httpClient.Do(req)
	if err != nil {
		if ctx.Err() != nil {
			return nil, backoff.Permanent(&secondary.ClientError{Endpoint: path, Kind: secondary.KindRequest, Message: fmt.Sprintf("request error calling %s: %v", target, ctx.Err())})
		}
		if isTimeout(err) {
			return nil, &secondary.ClientError{Endpoint: path, Kind: secondary.KindTimeout, Message: fmt.Sprintf("timeout calling %s", target)}
		}
		return nil, &secondary.ClientError{Endpoint: path, Kind: secondary.KindNetwork, Message: fmt.Sprintf("network error calling %s", target)}
	}
	defer resp.Body.Close()

	switch {
	case resp.StatusCode == http.StatusUnauthorized || resp.StatusCode == http.StatusForbidden:
		return nil, backoff.Permanent(httpError(path, target, resp.StatusCode, secondary.KindHTTPAuth))
	case retryableStatus[resp.StatusCode]:
		schedule.hint = retryAfter(resp.Header.Get("Retry-After"))
		return nil, httpError(path, target, resp.StatusCode, secondary.KindHTTP)
	case resp.StatusCode >= 400:
		return nil, backoff.Permanent(httpError(path, target, resp.StatusCode, secondary.KindHTTP))
	}

	body, err := io.ReadAll(io.LimitReader(resp.Body, maxBodyBytes))
	if err != nil {
		return nil, &secondary.ClientError{Endpoint: path, Kind: secondary.KindNetwork, Message: fmt.Sprintf("network error calling %s", target)}
	}
	return body, nil
}

func httpError(path, target string, status int, kind secondary.ErrorKind) *secondary.ClientError {
	return &secondary.ClientError{
		Endpoint:   path,
		StatusCode: status,
		Kind:       kind,
		Message:    fmt.Sprintf("http error %d calling %s", status, target),
	}
}

func isTimeout(err error) bool {
	if errors.Is(err, context.DeadlineExceeded) {
		return true
	}
	var ne net.Error
	return errors.As(err, &ne) && ne.Timeout()
}

// retryAfter parses a numeric Retry-After header. HTTP-date values are ignored.
func retryAfter(v string) time.Duration {
	secs, err := strconv.Atoi(strings.TrimSpace(v))
	if err != nil || secs < 0 {
		return 0
	}
	return time.Duration(secs) * time.Second
}

// scheduleBackOff yields a fixed list of delays, each extended by the most
// recent Retry-After hint, then stops.
type scheduleBackOff struct {
	delays []time.Duration
	next   int
	hint   time.Duration
}

func (b *scheduleBackOff) NextBackOff() time.Duration {
	if b.next >= len(b.delays) {
		return backoff.Stop
	}
	d := b.delays[b.next] + b.hint
	b.next++
	b.hint = 0
	return d
}

func (b *scheduleBackOff) Reset() {
	b.next = 0
	b.hint = 0
}

// Ensure Client implements the interface.
var _ secondary.CanvasClient = (*Client)(nil)
