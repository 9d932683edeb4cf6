package chat

import (
	"context"
	"testing"
	"time"

	"github.com/openclerk/clerk/internal/identity"
)

func newTestSupervisor(t *testing.T, h *wsHarness, callbacks Callbacks) *Supervisor {
	t.Helper()
	d := NewDialer(h.wsURL(), identity.NewMemStore())
	s := NewSupervisor(d, callbacks)
	s.delay = 50 * time.Millisecond
	t.Cleanup(func() { s.Close() })
	return s
}

func TestSupervisor_ReconnectsAfterDrop(t *testing.T) {
	h := newWSHarness(t)
	closeCh := make(chan error, 4)
	openCh := make(chan struct{}, 4)
	s := newTestSupervisor(t, h, Callbacks{
		OnOpen:  func() { openCh <- struct{}{} },
		OnClose: func(err error) { closeCh <- err },
	})

	if err := s.Connect(context.Background(), "sess-1"); err != nil {
		t.Fatalf("Connect failed: %v", err)
	}
	first := h.accept(t)
	waitFor(t, openCh, "first open")
	if s.State() != Connected {
		t.Fatalf("state = %v, want connected", s.State())
	}

	// Server drops the connection; the supervisor reports it once and
	// redials after the delay.
	first.Close()
	if err := waitFor(t, closeCh, "close callback"); err == nil {
		t.Error("expected a close error")
	}

	h.accept(t)
	waitFor(t, openCh, "reconnect open")
	if s.State() != Connected {
		t.Errorf("state after reconnect = %v, want connected", s.State())
	}
	if got := waitFor(t, h.sessions, "first session"); got != "sess-1" {
		t.Errorf("first dial session = %q", got)
	}
	if got := waitFor(t, h.sessions, "redial session"); got != "sess-1" {
		t.Errorf("redial session = %q, must reuse the known-good id", got)
	}

	select {
	case <-closeCh:
		t.Error("close reported more than once for a single drop")
	case <-time.After(150 * time.Millisecond):
	}
}

func TestSupervisor_RebindDoesNotReconnectOldSocket(t *testing.T) {
	h := newWSHarness(t)
	closeCh := make(chan error, 4)
	s := newTestSupervisor(t, h, Callbacks{
		OnClose: func(err error) { closeCh <- err },
	})

	if err := s.Connect(context.Background(), "sess-guest"); err != nil {
		t.Fatalf("Connect failed: %v", err)
	}
	h.accept(t)
	waitFor(t, h.sessions, "guest session")

	if err := s.Rebind("sess-user"); err != nil {
		t.Fatalf("Rebind failed: %v", err)
	}
	h.accept(t)
	if got := waitFor(t, h.sessions, "rebound session"); got != "sess-user" {
		t.Errorf("rebound dial session = %q, want sess-user", got)
	}
	if s.SessionID() != "sess-user" {
		t.Errorf("SessionID() = %q", s.SessionID())
	}

	// The superseded socket's close must neither be reported nor
	// trigger a second dial.
	select {
	case err := <-closeCh:
		t.Errorf("close callback fired for superseded connection: %v", err)
	case <-time.After(200 * time.Millisecond):
	}
	select {
	case <-h.conns:
		t.Error("unexpected extra dial after rebind")
	case <-time.After(200 * time.Millisecond):
	}
}

func TestSupervisor_CloseCancelsPendingReconnect(t *testing.T) {
	h := newWSHarness(t)
	s := newTestSupervisor(t, h, Callbacks{})
	s.delay = 300 * time.Millisecond

	if err := s.Connect(context.Background(), "sess-1"); err != nil {
		t.Fatalf("Connect failed: %v", err)
	}
	server := h.accept(t)

	// Drop the socket, then close the supervisor before the redial timer
	// fires.
	server.Close()
	time.Sleep(100 * time.Millisecond)
	if err := s.Close(); err != nil {
		t.Fatalf("Close failed: %v", err)
	}

	select {
	case <-h.conns:
		t.Error("dial happened after Close")
	case <-time.After(500 * time.Millisecond):
	}
	if s.State() != Disconnected {
		t.Errorf("state = %v, want disconnected", s.State())
	}
}

func TestSupervisor_SendWhileDisconnected(t *testing.T) {
	h := newWSHarness(t)
	s := newTestSupervisor(t, h, Callbacks{})

	if err := s.Send("hello", SendOptions{}); err != ErrNotOpen {
		t.Errorf("Send before connect = %v, want ErrNotOpen", err)
	}

	if err := s.Connect(context.Background(), "sess-1"); err != nil {
		t.Fatalf("Connect failed: %v", err)
	}
	h.accept(t)
	if err := s.Send("hello", SendOptions{}); err != nil {
		t.Errorf("Send while connected = %v", err)
	}
}

func TestSupervisor_StateChanges(t *testing.T) {
	h := newWSHarness(t)
	s := newTestSupervisor(t, h, Callbacks{})

	states := make(chan State, 8)
	s.OnStateChange = func(st State) { states <- st }

	if err := s.Connect(context.Background(), "sess-1"); err != nil {
		t.Fatalf("Connect failed: %v", err)
	}
	h.accept(t)

	if got := waitFor(t, states, "connecting"); got != Connecting {
		t.Errorf("first transition = %v, want connecting", got)
	}
	if got := waitFor(t, states, "connected"); got != Connected {
		t.Errorf("second transition = %v, want connected", got)
	}
}

func TestSupervisor_ConnectAfterClose(t *testing.T) {
	h := newWSHarness(t)
	s := newTestSupervisor(t, h, Callbacks{})

	if err := s.Close(); err != nil {
		t.Fatalf("Close failed: %v", err)
	}
	if err := s.Connect(context.Background(), "sess-1"); err != ErrNotOpen {
		t.Errorf("Connect after Close = %v, want ErrNotOpen", err)
	}
}
