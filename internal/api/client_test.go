package api

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/openclerk/clerk/internal/identity"
)

func newTestClient(t *testing.T, handler http.Handler) (*Client, *identity.MemStore) {
	t.Helper()
	srv := httptest.NewServer(handler)
	t.Cleanup(srv.Close)
	ids := identity.NewMemStore()
	return New(srv.URL, ids), ids
}

func TestDo_AttachesHeaders(t *testing.T) {
	var gotAuth, gotSession, gotContentType string
	c, ids := newTestClient(t, http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		gotAuth = r.Header.Get("Authorization")
		gotSession = r.Header.Get(SessionHeader)
		gotContentType = r.Header.Get("Content-Type")
		w.Write([]byte(`{}`))
	}))

	ids.Set(identity.KeyAccessToken, "tok-1")
	ids.Set(identity.KeySessionID, "sess-1")

	if err := c.do(context.Background(), "GET", "/cart", nil, nil, nil); err != nil {
		t.Fatalf("do failed: %v", err)
	}

	if gotAuth != "Bearer tok-1" {
		t.Errorf("Authorization = %q, want Bearer tok-1", gotAuth)
	}
	if gotSession != "sess-1" {
		t.Errorf("%s = %q, want sess-1", SessionHeader, gotSession)
	}
	if gotContentType != "application/json" {
		t.Errorf("Content-Type = %q", gotContentType)
	}
}

func TestDo_OmitsHeadersWhenUnset(t *testing.T) {
	var hadAuth, hadSession bool
	c, _ := newTestClient(t, http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		_, hadAuth = r.Header["Authorization"]
		_, hadSession = r.Header[SessionHeader]
		w.Write([]byte(`{}`))
	}))

	if err := c.do(context.Background(), "GET", "/products", nil, nil, nil); err != nil {
		t.Fatalf("do failed: %v", err)
	}
	if hadAuth {
		t.Error("Authorization header should be absent without a token")
	}
	if hadSession {
		t.Errorf("%s header should be absent without a session", SessionHeader)
	}
}

func TestDo_ErrorBodies(t *testing.T) {
	tests := []struct {
		name        string
		status      int
		body        string
		wantMessage string
		wantCode    string
	}{
		{
			name:        "structured error envelope",
			status:      http.StatusConflict,
			body:        `{"error":{"code":"OUT_OF_STOCK","message":"Variant is out of stock."}}`,
			wantMessage: "Variant is out of stock.",
			wantCode:    "OUT_OF_STOCK",
		},
		{
			name:        "detail field",
			status:      http.StatusNotFound,
			body:        `{"detail":"Session not found"}`,
			wantMessage: "Session not found",
		},
		{
			name:        "unparseable body falls back to status line",
			status:      http.StatusBadGateway,
			body:        `<html>oops</html>`,
			wantMessage: "502 Bad Gateway",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			c, _ := newTestClient(t, http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
				w.WriteHeader(tt.status)
				w.Write([]byte(tt.body))
			}))

			err := c.do(context.Background(), "GET", "/cart", nil, nil, nil)
			var reqErr *RequestError
			if !errors.As(err, &reqErr) {
				t.Fatalf("error = %v, want *RequestError", err)
			}
			if reqErr.Status != tt.status {
				t.Errorf("Status = %d, want %d", reqErr.Status, tt.status)
			}
			if reqErr.Message != tt.wantMessage {
				t.Errorf("Message = %q, want %q", reqErr.Message, tt.wantMessage)
			}
			if reqErr.Code != tt.wantCode {
				t.Errorf("Code = %q, want %q", reqErr.Code, tt.wantCode)
			}
		})
	}
}

func TestDo_NoContent(t *testing.T) {
	c, _ := newTestClient(t, http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusNoContent)
	}))

	// A 204 must not fail JSON decoding even with a decode target.
	var out map[string]any
	if err := c.do(context.Background(), "DELETE", "/cart/items/x", nil, &out, nil); err != nil {
		t.Fatalf("do failed on 204: %v", err)
	}
	if out != nil {
		t.Errorf("out = %v, want untouched zero value", out)
	}
}

func TestCheckout_SendsIdempotencyKey(t *testing.T) {
	keys := map[string]bool{}
	c, _ := newTestClient(t, http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		key := r.Header.Get("Idempotency-Key")
		if key == "" {
			t.Error("missing Idempotency-Key header")
		}
		keys[key] = true
		json.NewEncoder(w).Encode(map[string]any{"order": map[string]any{"id": "order-1"}})
	}))

	req := CheckoutRequest{
		ShippingAddress: ShippingAddress{Name: "Jo", Line1: "1 Main St", City: "Springfield", State: "OR", PostalCode: "97477", Country: "US"},
		PaymentMethod:   PaymentMethod{Type: "card", Token: "tok_test"},
	}

	order, err := c.Checkout(context.Background(), req)
	if err != nil {
		t.Fatalf("Checkout failed: %v", err)
	}
	if order.ID != "order-1" {
		t.Errorf("order id = %q", order.ID)
	}

	if _, err := c.Checkout(context.Background(), req); err != nil {
		t.Fatalf("second Checkout failed: %v", err)
	}
	if len(keys) != 2 {
		t.Errorf("expected a fresh Idempotency-Key per call, got %d distinct keys", len(keys))
	}
}

func TestLogin_PersistsCredentials(t *testing.T) {
	c, ids := newTestClient(t, http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		json.NewEncoder(w).Encode(AuthResponse{
			User:        AuthUser{ID: "user-1", Email: "jo@example.com"},
			AccessToken: "tok-fresh",
			SessionID:   "sess-rebound",
		})
	}))

	ids.Set(identity.KeySessionID, "sess-guest")

	resp, err := c.Login(context.Background(), LoginRequest{Email: "jo@example.com", Password: "pw"})
	if err != nil {
		t.Fatalf("Login failed: %v", err)
	}
	if resp.User.ID != "user-1" {
		t.Errorf("user id = %q", resp.User.ID)
	}

	if tok, _ := ids.Get(identity.KeyAccessToken); tok != "tok-fresh" {
		t.Errorf("persisted token = %q", tok)
	}
	if sid, _ := ids.Get(identity.KeySessionID); sid != "sess-rebound" {
		t.Errorf("persisted session = %q, want rebound id", sid)
	}
}

func TestLogout_KeepsGuestSession(t *testing.T) {
	c, ids := newTestClient(t, http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Write([]byte(`{}`))
	}))

	ids.Set(identity.KeyAccessToken, "tok-1")
	ids.Set(identity.KeySessionID, "sess-1")

	if err := c.Logout(); err != nil {
		t.Fatalf("Logout failed: %v", err)
	}
	if _, err := ids.Get(identity.KeyAccessToken); !errors.Is(err, identity.ErrNotFound) {
		t.Error("token should be cleared on logout")
	}
	if sid, _ := ids.Get(identity.KeySessionID); sid != "sess-1" {
		t.Errorf("session id = %q, guest session must survive logout", sid)
	}
}

func TestProducts_QueryParameters(t *testing.T) {
	var gotQuery string
	c, _ := newTestClient(t, http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		gotQuery = r.URL.RawQuery
		json.NewEncoder(w).Encode(productsResponse{
			Products:   []Product{{ID: "p1", Name: "Boots"}},
			Pagination: &Pagination{Page: 2, Limit: 10, Total: 40, TotalPages: 4},
		})
	}))

	products, page, err := c.Products(context.Background(), ProductQuery{
		Query:    "boots",
		Category: "footwear",
		Page:     2,
		Limit:    10,
	})
	if err != nil {
		t.Fatalf("Products failed: %v", err)
	}
	if len(products) != 1 || products[0].ID != "p1" {
		t.Errorf("products = %+v", products)
	}
	if page == nil || page.TotalPages != 4 {
		t.Errorf("pagination = %+v", page)
	}

	for _, want := range []string{"query=boots", "category=footwear", "page=2", "limit=10"} {
		if !strings.Contains(gotQuery, want) {
			t.Errorf("query %q missing %q", gotQuery, want)
		}
	}
}
