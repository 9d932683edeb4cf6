package api

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"strings"
	"sync/atomic"
	"testing"

	"github.com/openclerk/clerk/internal/identity"
)

// sessionBackend fakes the session endpoints: it knows which ids exist and
// counts mints.
type sessionBackend struct {
	known map[string]bool
	mints atomic.Int32
}

func (b *sessionBackend) handler() http.Handler {
	mux := http.NewServeMux()
	mux.HandleFunc("POST /sessions", func(w http.ResponseWriter, r *http.Request) {
		n := b.mints.Add(1)
		id := fmt.Sprintf("sess-%d", n)
		b.known[id] = true
		json.NewEncoder(w).Encode(createSessionResponse{SessionID: id})
	})
	mux.HandleFunc("GET /sessions/", func(w http.ResponseWriter, r *http.Request) {
		id := strings.TrimPrefix(r.URL.Path, "/sessions/")
		if !b.known[id] {
			w.WriteHeader(http.StatusNotFound)
			json.NewEncoder(w).Encode(map[string]string{"detail": "Session not found"})
			return
		}
		json.NewEncoder(w).Encode(map[string]string{"sessionId": id})
	})
	return mux
}

func TestEnsureSession_Idempotent(t *testing.T) {
	backend := &sessionBackend{known: map[string]bool{}}
	c, ids := newTestClient(t, backend.handler())

	first, err := c.EnsureSession(context.Background())
	if err != nil {
		t.Fatalf("first EnsureSession failed: %v", err)
	}
	if first == "" {
		t.Fatal("empty session id")
	}

	second, err := c.EnsureSession(context.Background())
	if err != nil {
		t.Fatalf("second EnsureSession failed: %v", err)
	}
	if second != first {
		t.Errorf("second call returned %q, want %q", second, first)
	}
	if got := backend.mints.Load(); got != 1 {
		t.Errorf("mint calls = %d, want 1", got)
	}

	if sid, _ := ids.Get(identity.KeySessionID); sid != first {
		t.Errorf("persisted id = %q, want %q", sid, first)
	}
}

func TestEnsureSession_DiscardsStaleID(t *testing.T) {
	backend := &sessionBackend{known: map[string]bool{}}
	c, ids := newTestClient(t, backend.handler())

	ids.Set(identity.KeySessionID, "sess-stale")

	got, err := c.EnsureSession(context.Background())
	if err != nil {
		t.Fatalf("EnsureSession failed: %v", err)
	}
	if got == "sess-stale" {
		t.Error("stale id should have been discarded")
	}
	if got != "sess-1" {
		t.Errorf("session id = %q, want freshly minted sess-1", got)
	}
	if sid, _ := ids.Get(identity.KeySessionID); sid != got {
		t.Errorf("persisted id = %q, want %q", sid, got)
	}
}

func TestEnsureSession_ReusesValidStoredID(t *testing.T) {
	backend := &sessionBackend{known: map[string]bool{"sess-known": true}}
	c, ids := newTestClient(t, backend.handler())

	ids.Set(identity.KeySessionID, "sess-known")

	got, err := c.EnsureSession(context.Background())
	if err != nil {
		t.Fatalf("EnsureSession failed: %v", err)
	}
	if got != "sess-known" {
		t.Errorf("session id = %q, want sess-known", got)
	}
	if backend.mints.Load() != 0 {
		t.Error("no mint call expected for a valid stored id")
	}
}
