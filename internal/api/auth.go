package api

import (
	"context"
	"fmt"

	"github.com/openclerk/clerk/internal/identity"
)

// RegisterRequest creates a new account.
type RegisterRequest struct {
	Email    string `json:"email"`
	Password string `json:"password"`
	Name     string `json:"name"`
}

// LoginRequest authenticates an existing account.
type LoginRequest struct {
	Email    string `json:"email"`
	Password string `json:"password"`
}

// Register creates an account and persists the returned credentials.
// When the backend rebinds the session, the new id is persisted too.
func (c *Client) Register(ctx context.Context, req RegisterRequest) (*AuthResponse, error) {
	var resp AuthResponse
	if err := c.do(ctx, "POST", "/auth/register", req, &resp, nil); err != nil {
		return nil, fmt.Errorf("register: %w", err)
	}
	if err := c.persistAuth(&resp); err != nil {
		return nil, err
	}
	return &resp, nil
}

// Login authenticates and persists the returned credentials.
// When the backend rebinds the session, the new id is persisted too.
func (c *Client) Login(ctx context.Context, req LoginRequest) (*AuthResponse, error) {
	var resp AuthResponse
	if err := c.do(ctx, "POST", "/auth/login", req, &resp, nil); err != nil {
		return nil, fmt.Errorf("login: %w", err)
	}
	if err := c.persistAuth(&resp); err != nil {
		return nil, err
	}
	return &resp, nil
}

// Logout clears the stored access token. The guest session id is kept so
// the cart and chat transcript survive the transition.
func (c *Client) Logout() error {
	if err := c.ids.Set(identity.KeyAccessToken, ""); err != nil {
		return fmt.Errorf("clear access token: %w", err)
	}
	return nil
}

// Token returns the stored access token, or "" when logged out.
func (c *Client) Token() string {
	token, err := c.ids.Get(identity.KeyAccessToken)
	if err != nil {
		return ""
	}
	return token
}

func (c *Client) persistAuth(resp *AuthResponse) error {
	if err := c.ids.Set(identity.KeyAccessToken, resp.AccessToken); err != nil {
		return fmt.Errorf("persist access token: %w", err)
	}
	if resp.SessionID != "" {
		if err := c.ids.Set(identity.KeySessionID, resp.SessionID); err != nil {
			return fmt.Errorf("persist session id: %w", err)
		}
	}
	return nil
}
