package chat

import "encoding/json"

// Frame types sent by the server.
const (
	frameSession     = "session"
	frameTyping      = "typing"
	frameResponse    = "response"
	frameStreamStart = "stream_start"
	frameStreamDelta = "stream_delta"
	frameStreamEnd   = "stream_end"
	frameError       = "error"
	framePing        = "ping"
	framePong        = "pong"
)

// frame is the tagged envelope used in both directions on the socket.
type frame struct {
	Type      string          `json:"type"`
	SessionID string          `json:"sessionId,omitempty"`
	StreamID  string          `json:"streamId,omitempty"`
	Payload   json.RawMessage `json:"payload,omitempty"`
}

// SuggestedAction is a follow-up the assistant proposes alongside a reply.
type SuggestedAction struct {
	Label  string `json:"label"`
	Action string `json:"action"`
}

// ResponsePayload is a complete assistant reply. Data carries embedded
// aggregates (cart, products, orders) that the normalizer extracts; the
// channel passes it through opaquely.
type ResponsePayload struct {
	Message          string            `json:"message"`
	Agent            string            `json:"agent"`
	Data             json.RawMessage   `json:"data"`
	Cart             json.RawMessage   `json:"cart"`
	SuggestedActions []SuggestedAction `json:"suggestedActions"`
	Metadata         map[string]any    `json:"metadata"`
}

type sessionPayload struct {
	SessionID string `json:"sessionId"`
	ExpiresAt string `json:"expiresAt"`
}

type typingPayload struct {
	Actor    string `json:"actor"`
	IsTyping *bool  `json:"isTyping"`
}

type streamStartPayload struct {
	StreamID string `json:"streamId"`
	Agent    string `json:"agent"`
}

type streamDeltaPayload struct {
	StreamID string `json:"streamId"`
	Delta    string `json:"delta"`
}

type streamEndPayload struct {
	StreamID string `json:"streamId"`
}

type errorPayload struct {
	Code    string `json:"code"`
	Message string `json:"message"`
}

type pongPayload struct {
	Timestamp int64 `json:"timestamp"`
}

// messagePayload is the outbound user message body.
type messagePayload struct {
	Content   string `json:"content"`
	Timestamp string `json:"timestamp"`
	Stream    bool   `json:"stream,omitempty"`
	Typing    bool   `json:"typing,omitempty"`
}
