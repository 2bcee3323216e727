// Copyright (c) 2025-2026 Lumen Learning Labs
// SPDX-License-Identifier: AGPL-3.0-or-later

package tutor

import (
	"context"
	"crypto/tls"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"log"
	"net/http"
	"strconv"
	"strings"
	"time"

	"github.com/lumenedu/tutorchat/internal/auth"
	"github.com/lumenedu/tutorchat/internal/pagectx"
	"github.com/lumenedu/tutorchat/internal/ratelimit"
	"github.com/lumenedu/tutorchat/internal/thread"
)

// =============================================================================
// CONSTANTS
// =============================================================================

const (
	// DefaultBaseURL is the tutoring API base used when the config does
	// not override it.
	DefaultBaseURL = "https://api.lumen.education/v1/tutor"

	// DefaultTimeout bounds the non-streaming REST calls.
	DefaultTimeout = 30 * time.Second

	// MaxErrorBody limits how much of an error response body is read.
	MaxErrorBody = 64 * 1024

	// readRetries is the retry budget for lenient read-path calls.
	readRetries = 3

	// retryBaseDelay is the base delay for read-path backoff.
	retryBaseDelay = 500 * time.Millisecond

	// retryMaxDelay caps the read-path backoff.
	retryMaxDelay = 10 * time.Second
)

// Page-context header names. Values are percent-encoded UTF-8.
const (
	HeaderPageURL      = "X-Lumen-Page-URL"
	HeaderPageTitle    = "X-Lumen-Page-Title"
	HeaderPageHeadings = "X-Lumen-Page-Headings"
)

var (
	// sharedHTTPClient serves the REST reads with connection pooling.
	sharedHTTPClient = &http.Client{
		Transport: &http.Transport{
			MaxIdleConns:        100,
			MaxIdleConnsPerHost: 10,
			IdleConnTimeout:     90 * time.Second,
			TLSHandshakeTimeout: 10 * time.Second,
			TLSClientConfig: &tls.Config{
				MinVersion: tls.VersionTLS12,
			},
		},
		Timeout: DefaultTimeout,
	}

	// sharedStreamingClient serves the chat stream. No client timeout:
	// the exchange ends when the transport closes the body or an event
	// classifies it as terminal.
	sharedStreamingClient = &http.Client{
		Transport: &http.Transport{
			MaxIdleConns:        100,
			MaxIdleConnsPerHost: 10,
			IdleConnTimeout:     90 * time.Second,
			TLSHandshakeTimeout: 10 * time.Second,
			TLSClientConfig: &tls.Config{
				MinVersion: tls.VersionTLS12,
			},
		},
	}
)

// =============================================================================
// ERRORS
// =============================================================================

var (
	// ErrEmptyMessage indicates a send with no content after trimming.
	ErrEmptyMessage = errors.New("message is empty")

	// ErrQuotaExhausted indicates the client-side rate-limit guard
	// refused the send before any network call.
	ErrQuotaExhausted = errors.New("tutoring quota exhausted")

	// ErrSessionSpent indicates a session was started twice. Sessions
	// are one exchange each and never reused.
	ErrSessionSpent = errors.New("session already spent")

	// ErrNoContent indicates the stream ended cleanly without any
	// assistant text or terminal marker.
	ErrNoContent = errors.New("stream ended before any assistant content")
)

// APIError is a non-2xx response on the send path, carrying the
// response body text for display.
type APIError struct {
	Status int
	Body   string
}

// Error implements the error interface.
func (e *APIError) Error() string {
	body := strings.TrimSpace(e.Body)
	if body == "" {
		return fmt.Sprintf("tutor API error (HTTP %d)", e.Status)
	}
	return fmt.Sprintf("tutor API error (HTTP %d): %s", e.Status, body)
}

// StreamError is a failure mid-stream, preserving the partial content
// received before it. Partial text is never discarded on error.
type StreamError struct {
	Partial string
	Err     error
}

// Error implements the error interface.
func (e *StreamError) Error() string {
	if e.Partial != "" {
		return fmt.Sprintf("stream error (partial content received: %d chars): %v", len(e.Partial), e.Err)
	}
	return fmt.Sprintf("stream error: %v", e.Err)
}

// Unwrap returns the underlying error.
func (e *StreamError) Unwrap() error {
	return e.Err
}

// =============================================================================
// CLIENT
// =============================================================================

// Client talks to the tutoring API. Safe for concurrent use.
type Client struct {
	baseURL   string
	tokens    *auth.TokenProvider
	userAgent string
}

// NewClient creates a client using the given token provider for bearer
// credentials. A nil provider means every request goes out with an
// empty bearer value.
func NewClient(tokens *auth.TokenProvider) *Client {
	return &Client{
		baseURL:   DefaultBaseURL,
		tokens:    tokens,
		userAgent: "tutorchat/0.3.0",
	}
}

// WithBaseURL sets a custom API base URL.
func (c *Client) WithBaseURL(u string) *Client {
	if u != "" {
		c.baseURL = strings.TrimSuffix(u, "/")
	}
	return c
}

// BaseURL returns the configured API base.
func (c *Client) BaseURL() string {
	return c.baseURL
}

// setHeaders applies the common request headers. The bearer header is
// always sent; an empty token degrades to an unauthenticated request
// that the backend rejects on its own terms.
func (c *Client) setHeaders(req *http.Request, token string) {
	req.Header.Set("Authorization", "Bearer "+token)
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("User-Agent", c.userAgent)
}

// setPageHeaders attaches the percent-encoded page context.
func setPageHeaders(req *http.Request, pc pagectx.PageContext) {
	if pc.URL != "" {
		req.Header.Set(HeaderPageURL, pc.HeaderURL())
	}
	if pc.Title != "" {
		req.Header.Set(HeaderPageTitle, pc.HeaderTitle())
	}
	if len(pc.Headings) > 0 {
		req.Header.Set(HeaderPageHeadings, pc.HeaderHeadings())
	}
}

// =============================================================================
// SEND PATH
// =============================================================================

// sendRequest is the JSON body of a chat-stream POST. ThreadID is null
// for the first message of a fresh thread.
type sendRequest struct {
	ThreadID *string `json:"thread_id"`
	Content  string  `json:"content"`
}

// openStream issues the chat-stream POST and returns the raw response.
// The caller owns the body. A non-2xx status is returned as-is for the
// session to classify.
func (c *Client) openStream(ctx context.Context, token string, body sendRequest, pc pagectx.PageContext) (*http.Response, error) {
	bodyBytes, err := json.Marshal(body)
	if err != nil {
		return nil, fmt.Errorf("failed to marshal request: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.baseURL+"/chat/stream", strings.NewReader(string(bodyBytes)))
	if err != nil {
		return nil, fmt.Errorf("failed to create request: %w", err)
	}

	c.setHeaders(req, token)
	setPageHeaders(req, pc)
	req.Header.Set("Accept", "text/event-stream")
	req.Header.Set("Cache-Control", "no-cache")

	resp, err := sharedStreamingClient.Do(req)
	if err != nil {
		return nil, fmt.Errorf("request failed: %w", err)
	}
	return resp, nil
}

// =============================================================================
// READ PATH (LENIENT)
// =============================================================================

// threadsResponse is the thread-list payload.
type threadsResponse struct {
	Threads []thread.Thread `json:"threads"`
}

// threadResponse is the single-thread payload.
type threadResponse struct {
	Messages []thread.Message `json:"messages"`
}

// usageResponse is the usage payload.
type usageResponse struct {
	Usage ratelimit.Snapshot `json:"usage"`
}

// ListThreads fetches the most recent threads, newest first.
func (c *Client) ListThreads(ctx context.Context, limit int) ([]thread.Thread, error) {
	if limit <= 0 {
		limit = 20
	}
	var out threadsResponse
	url := c.baseURL + "/threads?limit=" + strconv.Itoa(limit)
	if err := c.getJSON(ctx, url, &out); err != nil {
		return nil, err
	}
	return out.Threads, nil
}

// GetThread fetches one thread's message history.
func (c *Client) GetThread(ctx context.Context, id string) ([]thread.Message, error) {
	var out threadResponse
	if err := c.getJSON(ctx, c.baseURL+"/threads/"+id, &out); err != nil {
		return nil, err
	}
	return out.Messages, nil
}

// GetUsage fetches the current quota snapshot.
func (c *Client) GetUsage(ctx context.Context) (ratelimit.Snapshot, error) {
	var out usageResponse
	if err := c.getJSON(ctx, c.baseURL+"/usage", &out); err != nil {
		return ratelimit.Snapshot{}, err
	}
	return out.Usage, nil
}

// RefreshUsage applies the lenient read-path policy: the gate throttles
// how often a refresh runs at all, failures retry within a small backoff
// budget, and exhaustion leaves the tracker in an explicit unknown state
// instead of a stale guess. Never surfaces an error.
func (c *Client) RefreshUsage(ctx context.Context, limits *ratelimit.Tracker, gate *ratelimit.RefreshGate) {
	if gate != nil && !gate.Allow() {
		return
	}

	var lastErr error
	for attempt := 0; attempt < readRetries; attempt++ {
		if attempt > 0 {
			select {
			case <-ctx.Done():
				return
			case <-time.After(calculateBackoff(attempt)):
			}
		}

		snap, err := c.GetUsage(ctx)
		if err == nil {
			limits.Update(snap)
			return
		}
		lastErr = err
	}

	log.Printf("tutor: usage refresh failed after %d attempts: %v", readRetries, lastErr)
	limits.MarkUnknown()
}

// getJSON performs a GET and decodes the JSON response.
func (c *Client) getJSON(ctx context.Context, url string, out any) error {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, url, nil)
	if err != nil {
		return fmt.Errorf("failed to create request: %w", err)
	}
	c.setHeaders(req, c.tokenFor(ctx))

	resp, err := sharedHTTPClient.Do(req)
	if err != nil {
		return fmt.Errorf("request failed: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		body, _ := io.ReadAll(io.LimitReader(resp.Body, MaxErrorBody))
		return &APIError{Status: resp.StatusCode, Body: string(body)}
	}

	if err := json.NewDecoder(resp.Body).Decode(out); err != nil {
		return fmt.Errorf("failed to parse response: %w", err)
	}
	return nil
}

// tokenFor fetches the bearer token, degrading to empty.
func (c *Client) tokenFor(ctx context.Context) string {
	if c.tokens == nil {
		return ""
	}
	return c.tokens.GetToken(ctx)
}

// calculateBackoff returns the delay before the next read-path retry.
func calculateBackoff(attempt int) time.Duration {
	delay := retryBaseDelay * time.Duration(1<<uint(attempt))
	if delay > retryMaxDelay {
		delay = retryMaxDelay
	}
	return delay
}
