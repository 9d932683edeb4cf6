package identity

import (
	"errors"
	"os"
	"path/filepath"
	"testing"
	"time"

	jose "github.com/go-jose/go-jose/v4"
	"github.com/go-jose/go-jose/v4/jwt"
)

func TestMemStore(t *testing.T) {
	s := NewMemStore()

	if _, err := s.Get(KeySessionID); !errors.Is(err, ErrNotFound) {
		t.Errorf("Get on empty store = %v, want ErrNotFound", err)
	}

	if err := s.Set(KeySessionID, "sess-1"); err != nil {
		t.Fatalf("Set failed: %v", err)
	}
	got, err := s.Get(KeySessionID)
	if err != nil || got != "sess-1" {
		t.Errorf("Get = %q, %v; want sess-1", got, err)
	}

	// Empty value removes the key
	if err := s.Set(KeySessionID, ""); err != nil {
		t.Fatalf("Set empty failed: %v", err)
	}
	if _, err := s.Get(KeySessionID); !errors.Is(err, ErrNotFound) {
		t.Errorf("Get after clear = %v, want ErrNotFound", err)
	}
}

func TestFileStore_Roundtrip(t *testing.T) {
	path := filepath.Join(t.TempDir(), "identity.json")
	s := NewFileStore(path)

	if _, err := s.Get(KeyAccessToken); !errors.Is(err, ErrNotFound) {
		t.Errorf("Get on missing file = %v, want ErrNotFound", err)
	}

	if err := s.Set(KeySessionID, "sess-42"); err != nil {
		t.Fatalf("Set failed: %v", err)
	}
	if err := s.Set(KeyAccessToken, "tok-abc"); err != nil {
		t.Fatalf("Set failed: %v", err)
	}

	// A fresh store over the same file sees the persisted values
	fresh := NewFileStore(path)
	got, err := fresh.Get(KeySessionID)
	if err != nil || got != "sess-42" {
		t.Errorf("Get session = %q, %v", got, err)
	}
	got, err = fresh.Get(KeyAccessToken)
	if err != nil || got != "tok-abc" {
		t.Errorf("Get token = %q, %v", got, err)
	}

	// Clearing one key leaves the other
	if err := fresh.Set(KeyAccessToken, ""); err != nil {
		t.Fatalf("clear token failed: %v", err)
	}
	if _, err := fresh.Get(KeyAccessToken); !errors.Is(err, ErrNotFound) {
		t.Errorf("Get cleared token = %v, want ErrNotFound", err)
	}
	if _, err := fresh.Get(KeySessionID); err != nil {
		t.Errorf("session id should survive token clear: %v", err)
	}
}

func TestFileStore_CorruptFile(t *testing.T) {
	path := filepath.Join(t.TempDir(), "identity.json")
	if err := os.WriteFile(path, []byte("{not json"), 0600); err != nil {
		t.Fatalf("write corrupt file: %v", err)
	}

	s := NewFileStore(path)
	if _, err := s.Get(KeySessionID); err == nil || errors.Is(err, ErrNotFound) {
		t.Errorf("Get on corrupt file = %v, want parse error", err)
	}
}

func TestInspectToken_Opaque(t *testing.T) {
	if info := InspectToken("not-a-jwt"); info != nil {
		t.Errorf("InspectToken on opaque token = %+v, want nil", info)
	}
}

func TestInspectToken_Claims(t *testing.T) {
	signer, err := jose.NewSigner(
		jose.SigningKey{Algorithm: jose.HS256, Key: []byte("0123456789abcdef0123456789abcdef")},
		nil,
	)
	if err != nil {
		t.Fatalf("NewSigner failed: %v", err)
	}

	expiry := time.Now().Add(time.Hour).Truncate(time.Second)
	raw, err := jwt.Signed(signer).
		Claims(jwt.Claims{Subject: "user-7", Expiry: jwt.NewNumericDate(expiry)}).
		Claims(map[string]any{"email": "jo@example.com", "name": "Jo"}).
		Serialize()
	if err != nil {
		t.Fatalf("sign token: %v", err)
	}

	info := InspectToken(raw)
	if info == nil {
		t.Fatal("InspectToken returned nil for a valid JWT")
	}
	if info.Subject != "user-7" {
		t.Errorf("Subject = %q", info.Subject)
	}
	if info.Email != "jo@example.com" || info.Name != "Jo" {
		t.Errorf("custom claims = %q, %q", info.Email, info.Name)
	}
	if !info.Expiry.Equal(expiry) {
		t.Errorf("Expiry = %v, want %v", info.Expiry, expiry)
	}
	if info.Expired(time.Now()) {
		t.Error("token should not be expired yet")
	}
	if !info.Expired(expiry.Add(time.Minute)) {
		t.Error("token should report expired after its expiry")
	}
}

func TestTokenInfo_NoExpiry(t *testing.T) {
	info := &TokenInfo{Subject: "user-1"}
	if info.Expired(time.Now()) {
		t.Error("token without expiry claim should never report expired")
	}
}
