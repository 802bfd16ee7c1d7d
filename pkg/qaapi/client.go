// Package qaapi provides a client for the mentor question-answering API.
package qaapi

import (
	"context"
	"crypto/tls"
	"errors"
	"fmt"
	"io"
	"net"
	"net/http"
	"net/url"
	"strconv"
	"strings"
	"time"

	"github.com/google/uuid"
	"golang.org/x/time/rate"

	"github.com/sells-group/mentor-regress/internal/model"
)

const (
	containerName = "useruploaded"
	maxErrorChars = 100
)

// Client sends one prompt to a mentor endpoint.
type Client interface {
	// Fetch never returns an error: transport failures, timeouts and bad
	// statuses come back as an AnswerResult with status error.
	Fetch(ctx context.Context, prompt string, mentor model.Mentor) model.AnswerResult
}

// Option configures the QA API client.
type Option func(*httpClient)

// WithHTTPClient sets a custom HTTP client.
func WithHTTPClient(hc *http.Client) Option {
	return func(c *httpClient) {
		c.http = hc
	}
}

// WithIdentity sets the email and session sent with every question.
func WithIdentity(emailID, sessionID string) Option {
	return func(c *httpClient) {
		c.emailID = emailID
		c.sessionID = sessionID
	}
}

// WithAPIKey sends a bearer token with every request.
func WithAPIKey(key string) Option {
	return func(c *httpClient) {
		c.apiKey = key
	}
}

// WithUserAgent overrides the User-Agent header. Empty keeps the default.
func WithUserAgent(ua string) Option {
	return func(c *httpClient) {
		if ua != "" {
			c.userAgent = ua
		}
	}
}

// WithTimeout sets the per-request deadline.
func WithTimeout(d time.Duration) Option {
	return func(c *httpClient) {
		if d > 0 {
			c.timeout = d
		}
	}
}

// WithRateLimit paces requests to rps per second. Zero disables pacing.
func WithRateLimit(rps float64) Option {
	return func(c *httpClient) {
		if rps > 0 {
			c.limiter = rate.NewLimiter(rate.Limit(rps), 1)
		}
	}
}

// WithInsecureSkipVerify disables TLS certificate checks, for internal
// endpoints with self-signed certificates.
func WithInsecureSkipVerify(skip bool) Option {
	return func(c *httpClient) {
		c.insecure = skip
	}
}

type httpClient struct {
	baseURL   string
	emailID   string
	sessionID string
	apiKey    string
	userAgent string
	timeout   time.Duration
	insecure  bool
	limiter   *rate.Limiter
	http      *http.Client
}

// NewClient creates a client for the API rooted at baseURL.
func NewClient(baseURL string, opts ...Option) Client {
	c := &httpClient{
		baseURL:   strings.TrimRight(baseURL, "/"),
		userAgent: "mentor-regress/1.0",
		timeout:   60 * time.Second,
	}
	for _, opt := range opts {
		opt(c)
	}
	if c.http == nil {
		transport := &http.Transport{
			MaxIdleConnsPerHost: 10,
			IdleConnTimeout:     90 * time.Second,
		}
		if c.insecure {
			transport.TLSClientConfig = &tls.Config{InsecureSkipVerify: true} //nolint:gosec // opt-in for internal endpoints
		}
		c.http = &http.Client{Transport: transport}
	}
	return c
}

func (c *httpClient) Fetch(ctx context.Context, prompt string, mentor model.Mentor) model.AnswerResult {
	if c.limiter != nil {
		if err := c.limiter.Wait(ctx); err != nil {
			return errorResult(err)
		}
	}

	ctx, cancel := context.WithTimeout(ctx, c.timeout)
	defer cancel()

	form := url.Values{
		"email_id":        {c.emailID},
		"question":        {prompt},
		"session_id":      {c.sessionID},
		"conversation_id": {uuid.NewString()},
		"agent_id":        {mentor.AgentID},
		"thread_id":       {""},
		"selected_column": {""},
		"container":       {containerName},
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.baseURL+mentor.APIPath, strings.NewReader(form.Encode()))
	if err != nil {
		return errorResult(err)
	}
	req.Header.Set("Content-Type", "application/x-www-form-urlencoded")
	req.Header.Set("Accept", "text/event-stream, application/json")
	req.Header.Set("User-Agent", c.userAgent)
	if c.apiKey != "" {
		req.Header.Set("Authorization", "Bearer "+c.apiKey)
	}

	resp, err := c.http.Do(req)
	if err != nil {
		if isTimeout(err) {
			return c.timeoutResult()
		}
		return errorResult(err)
	}
	defer resp.Body.Close() //nolint:errcheck

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		if isTimeout(err) {
			return c.timeoutResult()
		}
		return errorResult(err)
	}

	if resp.StatusCode != http.StatusOK {
		return model.AnswerResult{
			Status: model.AnswerError,
			Text:   fmt.Sprintf("HTTP %d", resp.StatusCode),
		}
	}

	return ParseBody(string(body))
}

func (c *httpClient) timeoutResult() model.AnswerResult {
	return model.AnswerResult{
		Status: model.AnswerError,
		Text:   "Request timeout (" + strconv.FormatFloat(c.timeout.Seconds(), 'f', -1, 64) + "s)",
	}
}

func errorResult(err error) model.AnswerResult {
	return model.AnswerResult{
		Status: model.AnswerError,
		Text:   "Error: " + truncateRunes(err.Error(), maxErrorChars),
	}
}

func isTimeout(err error) bool {
	if errors.Is(err, context.DeadlineExceeded) {
		return true
	}
	var netErr net.Error
	return errors.As(err, &netErr) && netErr.Timeout()
}

func truncateRunes(s string, n int) string {
	r := []rune(s)
	if len(r) <= n {
		return s
	}
	return string(r[:n])
}
