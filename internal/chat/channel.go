package chat

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"net/url"
	"sync"
	"sync/atomic"
	"time"

	"github.com/gorilla/websocket"

	"github.com/openclerk/clerk/internal/identity"
	"github.com/openclerk/clerk/internal/logging"
)

// ErrNotOpen is returned by Send when the socket is closed or closing.
var ErrNotOpen = errors.New("chat channel not open")

// Callbacks defines callbacks for channel events.
// All callbacks are optional; nil callbacks are ignored.
type Callbacks struct {
	// OnOpen is called once the WebSocket connection is established.
	OnOpen func()

	// OnSession is called when the server rebinds the session id.
	// The new id is already persisted when the callback fires.
	OnSession func(sessionID string)

	// OnTyping is called when an actor starts or stops typing.
	OnTyping func(actor string, typing bool)

	// OnResponse is called when a complete assistant reply arrives.
	// streamID is empty for unstreamed replies.
	OnResponse func(payload ResponsePayload, streamID string)

	// OnStreamStart is called when a streamed reply begins.
	OnStreamStart func(streamID, agent string)

	// OnStreamDelta is called for each text increment of a streamed reply.
	OnStreamDelta func(streamID, delta string)

	// OnStreamEnd is called when a streamed reply finishes.
	OnStreamEnd func(streamID string)

	// OnError is called for server error frames and unparseable frames.
	// code is empty when the server sent none.
	OnError func(code, message string)

	// OnClose is called when the connection is closed, whatever the cause.
	OnClose func(err error)
}

// Dialer opens realtime chat connections against a fixed WebSocket base URL.
type Dialer struct {
	wsBase string
	ids    identity.Store
	ws     *websocket.Dialer
	logger *slog.Logger
	nextID atomic.Uint64
}

// DialerOption configures a Dialer.
type DialerOption func(*Dialer)

// WithWebsocketDialer replaces the underlying websocket dialer.
func WithWebsocketDialer(ws *websocket.Dialer) DialerOption {
	return func(d *Dialer) { d.ws = ws }
}

// WithLogger sets the logger used by connections.
func WithLogger(logger *slog.Logger) DialerOption {
	return func(d *Dialer) { d.logger = logger }
}

// NewDialer creates a Dialer. Session ids delivered over the wire are
// persisted through ids.
func NewDialer(wsBase string, ids identity.Store, opts ...DialerOption) *Dialer {
	d := &Dialer{
		wsBase: wsBase,
		ids:    ids,
		ws:     websocket.DefaultDialer,
		logger: logging.Chat(),
	}
	for _, opt := range opts {
		opt(d)
	}
	return d
}

// Conn is one live WebSocket connection to the chat backend.
// It is safe for concurrent use.
type Conn struct {
	id        uint64
	sessionID string
	conn      *websocket.Conn
	callbacks Callbacks
	ids       identity.Store
	logger    *slog.Logger

	ctx    context.Context
	cancel context.CancelFunc

	mu     sync.Mutex
	closed bool
}

// Dial opens a WebSocket connection bound to sessionID and starts its read
// loop. OnOpen fires on the read goroutine once the loop is running.
func (d *Dialer) Dial(ctx context.Context, sessionID string, callbacks Callbacks) (*Conn, error) {
	u, err := url.Parse(d.wsBase)
	if err != nil {
		return nil, fmt.Errorf("parse websocket URL: %w", err)
	}
	q := u.Query()
	q.Set("sessionId", sessionID)
	u.RawQuery = q.Encode()

	conn, _, err := d.ws.DialContext(ctx, u.String(), nil)
	if err != nil {
		return nil, fmt.Errorf("websocket connect: %w", err)
	}

	id := d.nextID.Add(1)
	connCtx, cancel := context.WithCancel(ctx)
	c := &Conn{
		id:        id,
		sessionID: sessionID,
		conn:      conn,
		callbacks: callbacks,
		ids:       d.ids,
		logger:    logging.WithConnection(d.logger, id, sessionID),
		ctx:       connCtx,
		cancel:    cancel,
	}

	c.logger.Debug("Chat channel connected")
	go c.readLoop()

	return c, nil
}

// ID returns the connection's monotonically assigned id. Later connections
// compare ids to tell a stale close apart from the current one.
func (c *Conn) ID() uint64 {
	return c.id
}

// SessionID returns the session id the connection was dialed with.
func (c *Conn) SessionID() string {
	return c.sessionID
}

// SendOptions carries the per-message request flags.
type SendOptions struct {
	// Stream asks the server to deliver the reply incrementally.
	Stream bool
	// Typing asks the server to emit typing indicator frames.
	Typing bool
}

// Send serializes a user message onto the socket. Returns ErrNotOpen when
// the connection is closed.
func (c *Conn) Send(text string, opts SendOptions) error {
	payload, err := json.Marshal(messagePayload{
		Content:   text,
		Timestamp: time.Now().UTC().Format(time.RFC3339),
		Stream:    opts.Stream,
		Typing:    opts.Typing,
	})
	if err != nil {
		return fmt.Errorf("encode message: %w", err)
	}
	return c.write(frame{Type: "message", Payload: payload})
}

// Close closes the WebSocket connection. Safe to call more than once.
func (c *Conn) Close() error {
	c.mu.Lock()
	if c.closed {
		c.mu.Unlock()
		return nil
	}
	c.closed = true
	c.mu.Unlock()

	c.cancel()
	return c.conn.Close()
}

// write sends a frame, failing with ErrNotOpen on a closed connection.
func (c *Conn) write(f frame) error {
	c.mu.Lock()
	defer c.mu.Unlock()

	if c.closed {
		return ErrNotOpen
	}
	return c.conn.WriteJSON(f)
}

// readLoop announces the open connection and reads frames until it drops.
// A message that is not valid frame JSON is reported through OnError and
// the loop keeps reading; only transport errors end the connection.
func (c *Conn) readLoop() {
	defer func() {
		c.mu.Lock()
		c.closed = true
		c.mu.Unlock()
	}()

	if c.callbacks.OnOpen != nil {
		c.callbacks.OnOpen()
	}

	for {
		select {
		case <-c.ctx.Done():
			return
		default:
		}

		_, data, err := c.conn.ReadMessage()
		if err != nil {
			c.conn.Close()
			if c.callbacks.OnClose != nil {
				c.callbacks.OnClose(err)
			}
			return
		}

		var f frame
		if err := json.Unmarshal(data, &f); err != nil {
			c.logger.Debug("Dropping unparseable frame", "error", err)
			c.parseError()
			continue
		}

		c.handleFrame(f)
	}
}

// handleFrame dispatches one received frame.
func (c *Conn) handleFrame(f frame) {
	switch f.Type {
	case frameSession:
		var p sessionPayload
		if json.Unmarshal(f.Payload, &p) != nil || p.SessionID == "" {
			c.parseError()
			return
		}
		if err := c.ids.Set(identity.KeySessionID, p.SessionID); err != nil {
			c.logger.Warn("Failed to persist rebound session id", "error", err)
		}
		if c.callbacks.OnSession != nil {
			c.callbacks.OnSession(p.SessionID)
		}

	case frameTyping:
		var p typingPayload
		if json.Unmarshal(f.Payload, &p) != nil || p.IsTyping == nil {
			c.parseError()
			return
		}
		if c.callbacks.OnTyping != nil {
			c.callbacks.OnTyping(p.Actor, *p.IsTyping)
		}

	case frameResponse:
		var p ResponsePayload
		if f.Payload == nil || json.Unmarshal(f.Payload, &p) != nil {
			c.parseError()
			return
		}
		if c.callbacks.OnResponse != nil {
			c.callbacks.OnResponse(p, f.StreamID)
		}

	case frameStreamStart:
		var p streamStartPayload
		if json.Unmarshal(f.Payload, &p) != nil || p.StreamID == "" {
			c.parseError()
			return
		}
		if c.callbacks.OnStreamStart != nil {
			c.callbacks.OnStreamStart(p.StreamID, p.Agent)
		}

	case frameStreamDelta:
		var p streamDeltaPayload
		if json.Unmarshal(f.Payload, &p) != nil || p.StreamID == "" {
			c.parseError()
			return
		}
		if c.callbacks.OnStreamDelta != nil {
			c.callbacks.OnStreamDelta(p.StreamID, p.Delta)
		}

	case frameStreamEnd:
		var p streamEndPayload
		if json.Unmarshal(f.Payload, &p) != nil || p.StreamID == "" {
			c.parseError()
			return
		}
		if c.callbacks.OnStreamEnd != nil {
			c.callbacks.OnStreamEnd(p.StreamID)
		}

	case frameError:
		var p errorPayload
		message := "Unknown websocket error"
		code := ""
		if json.Unmarshal(f.Payload, &p) == nil && p.Message != "" {
			message = p.Message
			code = p.Code
		}
		if c.callbacks.OnError != nil {
			c.callbacks.OnError(code, message)
		}

	case framePing:
		payload, _ := json.Marshal(pongPayload{Timestamp: time.Now().UnixMilli()})
		if err := c.write(frame{Type: framePong, Payload: payload}); err != nil {
			c.logger.Debug("Failed to answer ping", "error", err)
		}

	case framePong:
		// Keepalive answer, nothing to do.

	default:
		c.logger.Debug("Ignoring unknown frame type", "type", f.Type)
	}
}

func (c *Conn) parseError() {
	if c.callbacks.OnError != nil {
		c.callbacks.OnError("", "Failed to parse websocket message.")
	}
}
