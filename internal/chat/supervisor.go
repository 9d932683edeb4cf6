package chat

import (
	"context"
	"log/slog"
	"sync"
	"time"

	"github.com/openclerk/clerk/internal/logging"
)

// ReconnectDelay is the fixed pause before redialing a dropped connection.
const ReconnectDelay = 1200 * time.Millisecond

// State is the supervisor's connection state.
type State int

const (
	Disconnected State = iota
	Connecting
	Connected
)

func (s State) String() string {
	switch s {
	case Connecting:
		return "connecting"
	case Connected:
		return "connected"
	default:
		return "disconnected"
	}
}

// Supervisor owns the live connection and keeps it alive: an unintentional
// close schedules exactly one redial after ReconnectDelay, reusing the last
// known-good session id. Close callbacks from superseded connections are
// told apart by connection id and ignored.
type Supervisor struct {
	dialer    *Dialer
	callbacks Callbacks
	delay     time.Duration
	logger    *slog.Logger

	// OnStateChange, when set, observes every state transition.
	OnStateChange func(State)

	mu         sync.Mutex
	ctx        context.Context
	state      State
	sessionID  string
	current    *Conn
	gen        uint64
	currentGen uint64
	timer      *time.Timer
	closed     bool
}

// NewSupervisor creates a Supervisor dialing through dialer and forwarding
// channel events to callbacks. The callbacks' OnClose fires only for the
// current connection; OnOpen fires on every successful dial including
// reconnects.
func NewSupervisor(dialer *Dialer, callbacks Callbacks) *Supervisor {
	return &Supervisor{
		dialer:    dialer,
		callbacks: callbacks,
		delay:     ReconnectDelay,
		logger:    logging.Chat(),
	}
}

// State returns the current connection state.
func (s *Supervisor) State() State {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.state
}

// SessionID returns the session id the supervisor dials with.
func (s *Supervisor) SessionID() string {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.sessionID
}

// Connect dials the first connection for sessionID. ctx bounds the lifetime
// of the supervisor's dials, including later reconnects.
func (s *Supervisor) Connect(ctx context.Context, sessionID string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.closed {
		return ErrNotOpen
	}
	s.ctx = ctx
	s.sessionID = sessionID
	return s.dialLocked()
}

// Rebind intentionally replaces the current connection with one bound to a
// new session id. The old connection is superseded before it is closed so
// its close callback neither reports nor reschedules.
func (s *Supervisor) Rebind(sessionID string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.closed {
		return ErrNotOpen
	}

	s.cancelTimerLocked()
	old := s.supersedeLocked()
	if old != nil {
		old.Close()
	}

	s.sessionID = sessionID
	return s.dialLocked()
}

// UpdateSessionID records a server-delivered session id for later redials
// without touching the live connection.
func (s *Supervisor) UpdateSessionID(sessionID string) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.sessionID = sessionID
}

// Send forwards a message to the current connection.
func (s *Supervisor) Send(text string, opts SendOptions) error {
	s.mu.Lock()
	conn := s.current
	s.mu.Unlock()

	if conn == nil {
		return ErrNotOpen
	}
	return conn.Send(text, opts)
}

// Close tears the supervisor down: the pending reconnect timer is cancelled,
// the current socket is superseded and closed, and further dials refuse.
func (s *Supervisor) Close() error {
	s.mu.Lock()
	if s.closed {
		s.mu.Unlock()
		return nil
	}
	s.closed = true
	s.cancelTimerLocked()
	old := s.supersedeLocked()
	s.setStateLocked(Disconnected)
	s.mu.Unlock()

	if old != nil {
		return old.Close()
	}
	return nil
}

// dialLocked dials s.sessionID and installs the resulting connection.
// The generation is assigned before dialing so the close wrapper can tell
// whether it still speaks for the current connection. Called with s.mu held.
func (s *Supervisor) dialLocked() error {
	s.setStateLocked(Connecting)

	s.gen++
	gen := s.gen

	cb := s.callbacks
	inner := cb.OnClose
	cb.OnClose = func(err error) {
		s.handleClose(gen, err, inner)
	}

	c, err := s.dialer.Dial(s.ctx, s.sessionID, cb)
	if err != nil {
		s.setStateLocked(Disconnected)
		return err
	}
	s.current = c
	s.currentGen = gen
	s.setStateLocked(Connected)
	return nil
}

// handleClose runs on a connection's read loop when its socket drops.
func (s *Supervisor) handleClose(gen uint64, err error, inner func(error)) {
	s.mu.Lock()
	if s.closed || gen != s.currentGen {
		// Stale or superseded connection, nothing to do.
		s.mu.Unlock()
		return
	}
	s.current = nil
	s.currentGen = 0
	s.setStateLocked(Disconnected)
	s.logger.Info("Chat connection lost, scheduling reconnect",
		"session_id", s.sessionID, "delay", s.delay, "error", err)
	s.timer = time.AfterFunc(s.delay, s.reconnect)
	s.mu.Unlock()

	if inner != nil {
		inner(err)
	}
}

// reconnect fires from the timer after an unintentional close.
func (s *Supervisor) reconnect() {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.closed {
		return
	}
	s.timer = nil
	if err := s.dialLocked(); err != nil {
		s.logger.Warn("Reconnect failed, retrying", "session_id", s.sessionID, "error", err)
		s.timer = time.AfterFunc(s.delay, s.reconnect)
	}
}

// supersedeLocked detaches the current connection so its close callback is
// ignored, returning it for the caller to close outside any reporting path.
// Called with s.mu held.
func (s *Supervisor) supersedeLocked() *Conn {
	old := s.current
	s.current = nil
	s.currentGen = 0
	return old
}

// cancelTimerLocked stops a pending reconnect. Called with s.mu held.
func (s *Supervisor) cancelTimerLocked() {
	if s.timer != nil {
		s.timer.Stop()
		s.timer = nil
	}
}

func (s *Supervisor) setStateLocked(state State) {
	if s.state == state {
		return
	}
	s.state = state
	if s.OnStateChange != nil {
		s.OnStateChange(state)
	}
}
