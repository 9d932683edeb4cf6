// Package api provides the HTTP client for the storefront backend.
// All domain operations share a single request primitive that attaches
// session and auth headers and normalizes error bodies, so no operation
// duplicates header or error handling.
package api

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"time"

	"golang.org/x/time/rate"

	"github.com/openclerk/clerk/internal/identity"
)

// SessionHeader carries the session id on every request when one is stored.
const SessionHeader = "X-Session-Id"

// Client provides HTTP methods for the storefront REST API.
// It is safe for concurrent use.
type Client struct {
	baseURL    string
	httpClient *http.Client
	ids        identity.Store
	limiter    *rate.Limiter
	logger     *slog.Logger
}

// Option configures the client.
type Option func(*Client)

// WithHTTPClient sets a custom HTTP client.
func WithHTTPClient(c *http.Client) Option {
	return func(client *Client) {
		client.httpClient = c
	}
}

// WithTimeout sets the HTTP client timeout.
func WithTimeout(d time.Duration) Option {
	return func(client *Client) {
		client.httpClient.Timeout = d
	}
}

// WithRateLimit bounds outbound requests to rps with the given burst.
// Requests beyond the limit wait (respecting the request context) rather
// than fail.
func WithRateLimit(rps float64, burst int) Option {
	return func(client *Client) {
		client.limiter = rate.NewLimiter(rate.Limit(rps), burst)
	}
}

// WithLogger sets the logger for request-level events.
func WithLogger(logger *slog.Logger) Option {
	return func(client *Client) {
		client.logger = logger
	}
}

// New creates a new storefront API client.
// baseURL is the versioned API base (e.g. "http://localhost:8000/v1").
// ids supplies the persisted session id and access token.
func New(baseURL string, ids identity.Store, opts ...Option) *Client {
	c := &Client{
		baseURL: baseURL,
		ids:     ids,
		httpClient: &http.Client{
			Timeout: 30 * time.Second,
		},
	}
	for _, opt := range opts {
		opt(c)
	}
	return c
}

// BaseURL returns the base URL of the client.
func (c *Client) BaseURL() string {
	return c.baseURL
}

// RequestError is the typed error for non-2xx responses. Message is taken
// from the structured error body when one is present, else the status line.
type RequestError struct {
	Status  int
	Code    string
	Message string
}

func (e *RequestError) Error() string {
	if e.Code != "" {
		return fmt.Sprintf("%s (%s)", e.Message, e.Code)
	}
	return e.Message
}

// errorBody matches the backend's structured error envelope. Some routes
// use {"error":{"code","message"}}, others a bare {"detail":"..."}.
type errorBody struct {
	Error *struct {
		Code    string `json:"code"`
		Message string `json:"message"`
	} `json:"error"`
	Detail string `json:"detail"`
}

// do issues an HTTP request and decodes the JSON response into out.
// A nil out (or a 204 response) skips decoding. Non-2xx statuses return
// a *RequestError.
func (c *Client) do(ctx context.Context, method, path string, body, out any, extra http.Header) error {
	if c.limiter != nil {
		if err := c.limiter.Wait(ctx); err != nil {
			return err
		}
	}

	var reader io.Reader
	if body != nil {
		data, err := json.Marshal(body)
		if err != nil {
			return fmt.Errorf("%s %s: marshal: %w", method, path, err)
		}
		reader = bytes.NewReader(data)
	}

	req, err := http.NewRequestWithContext(ctx, method, c.baseURL+path, reader)
	if err != nil {
		return fmt.Errorf("%s %s: %w", method, path, err)
	}
	req.Header.Set("Content-Type", "application/json")
	for k, vs := range extra {
		for _, v := range vs {
			req.Header.Add(k, v)
		}
	}
	if token, err := c.ids.Get(identity.KeyAccessToken); err == nil && token != "" {
		req.Header.Set("Authorization", "Bearer "+token)
	}
	if sessionID, err := c.ids.Get(identity.KeySessionID); err == nil && sessionID != "" {
		req.Header.Set(SessionHeader, sessionID)
	}

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return fmt.Errorf("%s %s: %w", method, path, err)
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		reqErr := decodeError(resp)
		if c.logger != nil {
			c.logger.Debug("Request failed",
				"method", method, "path", path,
				"status", resp.StatusCode, "message", reqErr.Message)
		}
		return reqErr
	}

	if out == nil || resp.StatusCode == http.StatusNoContent {
		return nil
	}
	if err := json.NewDecoder(resp.Body).Decode(out); err != nil {
		return fmt.Errorf("%s %s: decode: %w", method, path, err)
	}
	return nil
}

// decodeError extracts a human-readable message from an error response.
func decodeError(resp *http.Response) *RequestError {
	reqErr := &RequestError{
		Status:  resp.StatusCode,
		Message: fmt.Sprintf("%d %s", resp.StatusCode, http.StatusText(resp.StatusCode)),
	}

	data, err := io.ReadAll(io.LimitReader(resp.Body, 64<<10))
	if err != nil {
		return reqErr
	}

	var body errorBody
	if json.Unmarshal(data, &body) != nil {
		return reqErr
	}
	if body.Error != nil && body.Error.Message != "" {
		reqErr.Code = body.Error.Code
		reqErr.Message = body.Error.Message
	} else if body.Detail != "" {
		reqErr.Message = body.Detail
	}
	return reqErr
}
