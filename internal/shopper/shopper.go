// Package shopper composes the HTTP client, the realtime chat channel, and
// the conversation transcript into one client-side storefront session.
package shopper

import (
	"context"
	"log/slog"
	"sync"

	"github.com/openclerk/clerk/internal/api"
	"github.com/openclerk/clerk/internal/chat"
	"github.com/openclerk/clerk/internal/identity"
	"github.com/openclerk/clerk/internal/logging"
)

// Options tunes a Shopper.
type Options struct {
	// HistoryLimit caps how many stored exchanges a history load fetches.
	// Zero means the API default.
	HistoryLimit int

	// Stream and Typing are the request flags attached to every sent
	// message.
	Stream bool
	Typing bool

	Logger *slog.Logger
}

// Shopper is the UI's single collaborator: it owns the session, the
// transcript, and the last known cart, product, and order state. All
// mutation happens on its event callbacks; readers get copies.
type Shopper struct {
	client *api.Client
	ids    identity.Store
	sup    *chat.Supervisor
	opts   Options
	logger *slog.Logger

	// OnUpdate, when set, is invoked after every state mutation. It runs
	// on the mutating goroutine and must not call back into the Shopper.
	OnUpdate func()

	mu         sync.Mutex
	ctx        context.Context
	opened     bool
	transcript *chat.Transcript
	cart       *api.Cart
	products   []api.Product
	orders     []api.Order
	lastError  string
	closed     bool
}

// New assembles a Shopper from its collaborators. Call Start to bring the
// session up.
func New(client *api.Client, ids identity.Store, dialer *chat.Dialer, opts Options) *Shopper {
	if opts.Logger == nil {
		opts.Logger = logging.Session()
	}
	s := &Shopper{
		client:     client,
		ids:        ids,
		opts:       opts,
		logger:     opts.Logger,
		transcript: chat.NewTranscript(),
	}
	s.sup = chat.NewSupervisor(dialer, s.callbacks())
	return s
}

// Supervisor exposes the connection supervisor, mainly for state display.
func (s *Shopper) Supervisor() *chat.Supervisor {
	return s.sup
}

// Start negotiates a session, loads the stored transcript, and connects the
// realtime channel.
func (s *Shopper) Start(ctx context.Context) error {
	s.mu.Lock()
	s.ctx = ctx
	s.mu.Unlock()

	sessionID, err := s.client.EnsureSession(ctx)
	if err != nil {
		return err
	}

	if err := s.loadHistory(ctx, sessionID); err != nil {
		// A history failure is not fatal; the chat still works.
		s.logger.Warn("Failed to load chat history", "error", err)
	}

	return s.sup.Connect(ctx, sessionID)
}

// Close tears the session down. After Close the channel callbacks no longer
// mutate state, so a late frame from a dying socket has no effect.
func (s *Shopper) Close() error {
	s.mu.Lock()
	s.closed = true
	s.mu.Unlock()
	return s.sup.Close()
}

// Send echoes text into the transcript and forwards it over the channel.
// The echo is kept even when the send fails.
func (s *Shopper) Send(text string) error {
	s.mu.Lock()
	if s.closed {
		s.mu.Unlock()
		return chat.ErrNotOpen
	}
	s.transcript.AppendUserTurn(text)
	opts := chat.SendOptions{Stream: s.opts.Stream, Typing: s.opts.Typing}
	s.mu.Unlock()
	s.notify()

	return s.sup.Send(text, opts)
}

// SetSendFlags updates the per-message request flags, e.g. after a
// configuration reload.
func (s *Shopper) SetSendFlags(stream, typing bool) {
	s.mu.Lock()
	s.opts.Stream = stream
	s.opts.Typing = typing
	s.mu.Unlock()
}

// Turns returns a copy of the transcript.
func (s *Shopper) Turns() []chat.Turn {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.transcript.Turns()
}

// Typing reports the current typing indicator.
func (s *Shopper) Typing() (string, bool) {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.transcript.Typing()
}

// Cart returns a copy of the last known cart, or nil when none was seen.
func (s *Shopper) Cart() *api.Cart {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.cart == nil {
		return nil
	}
	cart := *s.cart
	cart.Items = append([]api.CartItem(nil), s.cart.Items...)
	return &cart
}

// Products returns a copy of the last product listing.
func (s *Shopper) Products() []api.Product {
	s.mu.Lock()
	defer s.mu.Unlock()
	return append([]api.Product(nil), s.products...)
}

// Orders returns a copy of the last known orders.
func (s *Shopper) Orders() []api.Order {
	s.mu.Lock()
	defer s.mu.Unlock()
	return append([]api.Order(nil), s.orders...)
}

// LastError returns the most recent channel error message, if any.
func (s *Shopper) LastError() string {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.lastError
}

// RefreshCart reloads the cart over HTTP.
func (s *Shopper) RefreshCart(ctx context.Context) (*api.Cart, error) {
	cart, err := s.client.Cart(ctx)
	if err != nil {
		return nil, err
	}
	s.setCart(cart)
	return s.Cart(), nil
}

// AddToCart adds an item, then refetches the cart. Mutation endpoints
// return no body; the server-computed cart is always reloaded.
func (s *Shopper) AddToCart(ctx context.Context, productID, variantID string, quantity int) (*api.Cart, error) {
	if err := s.client.AddCartItem(ctx, productID, variantID, quantity); err != nil {
		return nil, err
	}
	return s.RefreshCart(ctx)
}

// UpdateCartItem changes a line's quantity, then refetches the cart.
func (s *Shopper) UpdateCartItem(ctx context.Context, itemID string, quantity int) (*api.Cart, error) {
	if err := s.client.UpdateCartItem(ctx, itemID, quantity); err != nil {
		return nil, err
	}
	return s.RefreshCart(ctx)
}

// RemoveCartItem deletes a line, then refetches the cart.
func (s *Shopper) RemoveCartItem(ctx context.Context, itemID string) (*api.Cart, error) {
	if err := s.client.RemoveCartItem(ctx, itemID); err != nil {
		return nil, err
	}
	return s.RefreshCart(ctx)
}

// SearchProducts queries the catalog and installs the listing.
func (s *Shopper) SearchProducts(ctx context.Context, q api.ProductQuery) ([]api.Product, *api.Pagination, error) {
	products, page, err := s.client.Products(ctx, q)
	if err != nil {
		return nil, nil, err
	}
	s.mu.Lock()
	if !s.closed {
		s.products = products
	}
	s.mu.Unlock()
	s.notify()
	return s.Products(), page, nil
}

// Checkout places the order from the current cart and records it.
func (s *Shopper) Checkout(ctx context.Context, req api.CheckoutRequest) (*api.Order, error) {
	order, err := s.client.Checkout(ctx, req)
	if err != nil {
		return nil, err
	}
	s.mu.Lock()
	if !s.closed {
		s.orders = append([]api.Order{*order}, s.orders...)
		// The backend empties the cart on checkout.
		s.cart = nil
	}
	s.mu.Unlock()
	s.notify()
	return order, nil
}

// Login authenticates and rebinds the realtime channel when the server
// moves the session. The cart is reloaded afterwards; whether the guest
// cart survives is the backend's call.
func (s *Shopper) Login(ctx context.Context, req api.LoginRequest) (*api.AuthResponse, error) {
	resp, err := s.client.Login(ctx, req)
	if err != nil {
		return nil, err
	}
	return resp, s.afterAuth(ctx, resp)
}

// Register creates an account and rebinds like Login.
func (s *Shopper) Register(ctx context.Context, req api.RegisterRequest) (*api.AuthResponse, error) {
	resp, err := s.client.Register(ctx, req)
	if err != nil {
		return nil, err
	}
	return resp, s.afterAuth(ctx, resp)
}

// Logout drops the access token. The guest session and its cart stay.
func (s *Shopper) Logout() error {
	return s.client.Logout()
}

// afterAuth rebinds the channel to a server-chosen session id and
// resynchronizes transcript and cart.
func (s *Shopper) afterAuth(ctx context.Context, resp *api.AuthResponse) error {
	sessionID := resp.SessionID
	if sessionID == "" {
		if stored, err := s.ids.Get(identity.KeySessionID); err == nil {
			sessionID = stored
		}
	}
	if sessionID == "" {
		return nil
	}

	if err := s.sup.Rebind(sessionID); err != nil {
		return err
	}
	if err := s.loadHistory(ctx, sessionID); err != nil {
		s.logger.Warn("Failed to reload history after auth", "error", err)
	}
	if _, err := s.RefreshCart(ctx); err != nil {
		s.logger.Warn("Failed to reload cart after auth", "error", err)
	}
	return nil
}

// loadHistory replaces the transcript from the stored interaction log.
func (s *Shopper) loadHistory(ctx context.Context, sessionID string) error {
	history, err := s.client.ChatHistory(ctx, sessionID, s.opts.HistoryLimit)
	if err != nil {
		return err
	}

	pairs := make([]chat.HistoryPair, 0, len(history.Messages))
	for _, m := range history.Messages {
		pairs = append(pairs, chat.HistoryPair{
			ID:            m.ID,
			UserText:      m.Message,
			AssistantText: m.Response.Message,
			Agent:         m.Response.Agent,
			Timestamp:     api.ParseTimestamp(m.Timestamp),
		})
	}

	s.mu.Lock()
	if !s.closed {
		s.transcript.ApplyHistory(pairs)
	}
	s.mu.Unlock()
	s.notify()
	return nil
}

// callbacks wires channel events into state mutations. Every callback
// checks the closed flag so teardown bars further effects.
func (s *Shopper) callbacks() chat.Callbacks {
	return chat.Callbacks{
		OnOpen: func() {
			// Resynchronize the transcript after a reconnect.
			// Messages sent while offline are lost, not replayed.
			// The first open is skipped; Start loads history itself.
			s.mu.Lock()
			first := !s.opened
			s.opened = true
			ctx := s.ctx
			closed := s.closed
			s.mu.Unlock()
			if first || closed || ctx == nil {
				return
			}
			go func() {
				if err := s.loadHistory(ctx, s.sup.SessionID()); err != nil {
					s.logger.Warn("History resync failed", "error", err)
				}
			}()
		},
		OnSession: func(sessionID string) {
			s.sup.UpdateSessionID(sessionID)
			s.logger.Info("Session rebound by server", "session_id", sessionID)
		},
		OnTyping: func(actor string, typing bool) {
			s.mutate(func() { s.transcript.SetTyping(actor, typing) })
		},
		OnResponse: func(payload chat.ResponsePayload, streamID string) {
			update := chat.ExtractState(payload)
			s.mutate(func() {
				s.transcript.ApplyResponse(payload, streamID)
				s.applyUpdate(update)
			})
		},
		OnStreamStart: func(streamID, agent string) {
			s.mutate(func() { s.transcript.ApplyStreamStart(streamID, agent) })
		},
		OnStreamDelta: func(streamID, delta string) {
			s.mutate(func() { s.transcript.ApplyStreamDelta(streamID, delta) })
		},
		OnStreamEnd: func(streamID string) {
			s.mutate(func() { s.transcript.ApplyStreamEnd(streamID) })
		},
		OnError: func(code, message string) {
			s.logger.Warn("Chat channel error", "code", code, "message", message)
			s.mutate(func() { s.lastError = message })
		},
	}
}

// mutate runs fn under the lock unless the shopper is closed, then fires
// OnUpdate.
func (s *Shopper) mutate(fn func()) {
	s.mu.Lock()
	if s.closed {
		s.mu.Unlock()
		return
	}
	fn()
	s.mu.Unlock()
	s.notify()
}

// applyUpdate installs aggregates carried on a response payload. A found
// cart replaces the held one wholesale. Called with s.mu held.
func (s *Shopper) applyUpdate(update chat.StateUpdate) {
	if update.Cart != nil {
		s.cart = update.Cart
	}
	if update.Products != nil {
		s.products = update.Products
	}
	if update.Orders != nil {
		s.orders = update.Orders
	}
}

func (s *Shopper) setCart(cart *api.Cart) {
	s.mu.Lock()
	if !s.closed {
		s.cart = cart
	}
	s.mu.Unlock()
	s.notify()
}

func (s *Shopper) notify() {
	if s.OnUpdate != nil {
		s.OnUpdate()
	}
}
