package api

import (
	"context"
	"fmt"
	"net/url"
	"strconv"
)

// DefaultHistoryLimit is used when ChatHistory is called with limit <= 0.
const DefaultHistoryLimit = 60

// ChatHistory fetches stored interaction pairs for a session, newest last.
func (c *Client) ChatHistory(ctx context.Context, sessionID string, limit int) (*HistoryPayload, error) {
	if limit <= 0 {
		limit = DefaultHistoryLimit
	}

	params := url.Values{}
	if sessionID != "" {
		params.Set("sessionId", sessionID)
	}
	params.Set("limit", strconv.Itoa(limit))

	var payload HistoryPayload
	if err := c.do(ctx, "GET", "/interactions/history?"+params.Encode(), nil, &payload, nil); err != nil {
		return nil, fmt.Errorf("chat history: %w", err)
	}
	return &payload, nil
}
