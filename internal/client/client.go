// Package client talks to the academy REST API on behalf of a session.
package client

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"strings"
	"sync"
	"time"

	"github.com/mcoot/s3arena/internal/dependencies/clock"
	"github.com/mcoot/s3arena/internal/session"
)

// DefaultTimeout bounds every non-streaming request
const DefaultTimeout = 30 * time.Second

// SkewTolerance is the clock difference below which the local clock is trusted
const SkewTolerance = time.Second

// Client is an HTTP client for the academy API
type Client struct {
	baseURL    string
	httpClient *http.Client
	clock      clock.Clock

	mu      sync.RWMutex
	session *session.Session
	skew    time.Duration
	hasSkew bool
}

// Option configures a Client
type Option func(*Client)

// WithHTTPClient replaces the default http.Client
func WithHTTPClient(hc *http.Client) Option {
	return func(c *Client) { c.httpClient = hc }
}

// WithClock sets the clock used for skew estimation
func WithClock(clk clock.Clock) Option {
	return func(c *Client) { c.clock = clk }
}

// New creates a client for the API rooted at baseURL (e.g. http://host:8000/api).
// sess may be nil for unauthenticated calls.
func New(baseURL string, sess *session.Session, opts ...Option) *Client {
	c := &Client{
		baseURL:    strings.TrimSuffix(baseURL, "/"),
		httpClient: &http.Client{Timeout: DefaultTimeout},
		clock:      clock.New(),
		session:    sess,
	}
	for _, opt := range opts {
		opt(c)
	}
	return c
}

// BaseURL returns the API root
func (c *Client) BaseURL() string {
	return c.baseURL
}

// SetSession replaces the session whose credentials are sent
func (c *Client) SetSession(sess *session.Session) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.session = sess
}

// Session returns the current session, or nil
func (c *Client) Session() *session.Session {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return c.session
}

func (c *Client) accessToken() string {
	c.mu.RLock()
	defer c.mu.RUnlock()
	if c.session == nil {
		return ""
	}
	return c.session.Access
}

// Skew returns how far the server clock is ahead of the local one, as last
// measured from a Date header
func (c *Client) Skew() (time.Duration, bool) {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return c.skew, c.hasSkew
}

// ClockOffset is the correction to add to the local clock. Skews within
// SkewTolerance are treated as zero.
func (c *Client) ClockOffset() time.Duration {
	skew, ok := c.Skew()
	if !ok || (skew < SkewTolerance && skew > -SkewTolerance) {
		return 0
	}
	return skew
}

// Get performs a GET request
func (c *Client) Get(ctx context.Context, path string, out any) error {
	return c.Call(ctx, http.MethodGet, path, nil, out)
}

// Post performs a POST request
func (c *Client) Post(ctx context.Context, path string, body, out any) error {
	return c.Call(ctx, http.MethodPost, path, body, out)
}

// Patch performs a PATCH request
func (c *Client) Patch(ctx context.Context, path string, body, out any) error {
	return c.Call(ctx, http.MethodPatch, path, body, out)
}

// Call performs a request against the API and decodes a JSON response into out.
// body is JSON-encoded unless it is a *Multipart. Failures are *NetworkError
// or *APIError.
func (c *Client) Call(ctx context.Context, method, path string, body, out any) error {
	req, err := c.newRequest(ctx, method, path, body)
	if err != nil {
		return err
	}
	req.Header.Set("Accept", "application/json")

	sent := c.clock.Now()
	resp, err := c.httpClient.Do(req)
	if err != nil {
		return &NetworkError{Method: method, Path: path, Err: err}
	}
	defer func() { _ = resp.Body.Close() }()
	c.recordSkew(resp.Header.Get("Date"), sent, c.clock.Now())

	respBody, err := io.ReadAll(resp.Body)
	if err != nil {
		return &NetworkError{Method: method, Path: path, Err: err}
	}

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		return &APIError{Status: resp.StatusCode, Message: ErrorMessage(resp.StatusCode, respBody)}
	}

	if out != nil && len(respBody) > 0 {
		if err := json.Unmarshal(respBody, out); err != nil {
			return &APIError{Status: resp.StatusCode, Message: fmt.Sprintf("invalid response body: %v", err)}
		}
	}
	return nil
}

// Stream opens a long-lived text/event-stream response. The caller closes it.
func (c *Client) Stream(ctx context.Context, path string) (io.ReadCloser, error) {
	req, err := c.newRequest(ctx, http.MethodGet, path, nil)
	if err != nil {
		return nil, err
	}
	req.Header.Set("Accept", "text/event-stream")
	req.Header.Set("Cache-Control", "no-cache")

	// Same transport, no overall deadline
	streaming := &http.Client{Transport: c.httpClient.Transport}
	resp, err := streaming.Do(req)
	if err != nil {
		return nil, &NetworkError{Method: http.MethodGet, Path: path, Err: err}
	}
	if resp.StatusCode != http.StatusOK {
		defer func() { _ = resp.Body.Close() }()
		data, _ := io.ReadAll(resp.Body)
		return nil, &APIError{Status: resp.StatusCode, Message: ErrorMessage(resp.StatusCode, data)}
	}
	return resp.Body, nil
}

func (c *Client) newRequest(ctx context.Context, method, path string, body any) (*http.Request, error) {
	var (
		reader      io.Reader
		contentType string
	)
	switch b := body.(type) {
	case nil:
	case *Multipart:
		reader = b.body
		contentType = b.contentType
	default:
		data, err := json.Marshal(body)
		if err != nil {
			return nil, fmt.Errorf("failed to marshal request: %w", err)
		}
		reader = bytes.NewReader(data)
		contentType = "application/json"
	}

	req, err := http.NewRequestWithContext(ctx, method, c.baseURL+path, reader)
	if err != nil {
		return nil, &NetworkError{Method: method, Path: path, Err: err}
	}
	if contentType != "" {
		req.Header.Set("Content-Type", contentType)
	}
	if token := c.accessToken(); token != "" {
		req.Header.Set("Authorization", "Bearer "+token)
	}
	return req, nil
}

// recordSkew estimates the server clock offset from its Date header.
// The header has one second resolution, so the midpoint of the request is
// compared against the middle of the reported second.
func (c *Client) recordSkew(header string, sent, received time.Time) {
	if header == "" {
		return
	}
	serverTime, err := http.ParseTime(header)
	if err != nil {
		return
	}
	mid := sent.Add(received.Sub(sent) / 2)
	skew := serverTime.Add(500 * time.Millisecond).Sub(mid)

	c.mu.Lock()
	defer c.mu.Unlock()
	c.skew = skew
	c.hasSkew = true
}

// IsStatus reports whether err is an APIError with the given status
func IsStatus(err error, status int) bool {
	var apiErr *APIError
	return errors.As(err, &apiErr) && apiErr.Status == status
}
