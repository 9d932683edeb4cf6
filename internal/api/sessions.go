package api

import (
	"context"
	"fmt"
	"net/url"

	"github.com/openclerk/clerk/internal/identity"
)

// createSessionRequest mints a new guest session.
type createSessionRequest struct {
	Channel        string         `json:"channel"`
	InitialContext map[string]any `json:"initialContext"`
}

// createSessionResponse carries the minted session id.
type createSessionResponse struct {
	SessionID string `json:"sessionId"`
}

// CreateSession mints a new guest session and persists its id.
func (c *Client) CreateSession(ctx context.Context) (string, error) {
	var resp createSessionResponse
	err := c.do(ctx, "POST", "/sessions", createSessionRequest{
		Channel:        "cli",
		InitialContext: map[string]any{},
	}, &resp, nil)
	if err != nil {
		return "", fmt.Errorf("create session: %w", err)
	}
	if err := c.ids.Set(identity.KeySessionID, resp.SessionID); err != nil {
		return "", fmt.Errorf("persist session id: %w", err)
	}
	return resp.SessionID, nil
}

// ProbeSession checks that a session still exists on the backend.
func (c *Client) ProbeSession(ctx context.Context, sessionID string) error {
	return c.do(ctx, "GET", "/sessions/"+url.PathEscape(sessionID), nil, nil, nil)
}

// EnsureSession returns a valid session id, reusing the persisted one when
// the backend still knows it and minting a new one otherwise. A failed
// existence probe silently discards the stale id; it is recovered locally,
// never surfaced. Idempotent: a second call without intervening
// invalidation performs no mint call and returns the same id.
func (c *Client) EnsureSession(ctx context.Context) (string, error) {
	existing, err := c.ids.Get(identity.KeySessionID)
	if err == nil && existing != "" {
		if err := c.ProbeSession(ctx, existing); err == nil {
			return existing, nil
		}
		// Stale or unknown session: drop it and mint a fresh one.
		if c.logger != nil {
			c.logger.Debug("Discarding stale session id", "session_id", existing)
		}
		if err := c.ids.Set(identity.KeySessionID, ""); err != nil {
			return "", fmt.Errorf("clear stale session id: %w", err)
		}
	}

	return c.CreateSession(ctx)
}
