package api

import "time"

// ParseTimestamp decodes an RFC 3339 timestamp, returning the zero time
// for anything unparseable.
func ParseTimestamp(s string) time.Time {
	t, err := time.Parse(time.RFC3339, s)
	if err != nil {
		return time.Time{}
	}
	return t
}

// ProductVariant is one purchasable variant of a product.
type ProductVariant struct {
	ID      string `json:"id"`
	Size    string `json:"size"`
	Color   string `json:"color"`
	InStock bool   `json:"inStock"`
}

// Product is a catalog entry.
type Product struct {
	ID          string           `json:"id"`
	Name        string           `json:"name"`
	Description string           `json:"description"`
	Category    string           `json:"category"`
	Price       float64          `json:"price"`
	Currency    string           `json:"currency"`
	Images      []string         `json:"images"`
	Variants    []ProductVariant `json:"variants"`
	Rating      float64          `json:"rating"`
}

// Pagination describes a page of catalog results.
type Pagination struct {
	Page       int `json:"page"`
	Limit      int `json:"limit"`
	Total      int `json:"total"`
	TotalPages int `json:"totalPages"`
}

// CartItem is one line in the cart.
type CartItem struct {
	ItemID    string  `json:"itemId"`
	ProductID string  `json:"productId"`
	VariantID string  `json:"variantId"`
	Name      string  `json:"name"`
	Price     float64 `json:"price"`
	Quantity  int     `json:"quantity"`
	Image     string  `json:"image"`
}

// Cart is the server-held cart. Totals are always server-computed; the
// client replaces the whole value on receipt and never recomputes locally.
type Cart struct {
	ID        string     `json:"id"`
	UserID    string     `json:"userId"`
	SessionID string     `json:"sessionId"`
	Items     []CartItem `json:"items"`
	Subtotal  float64    `json:"subtotal"`
	Tax       float64    `json:"tax"`
	Shipping  float64    `json:"shipping"`
	Discount  float64    `json:"discount"`
	Total     float64    `json:"total"`
	ItemCount int        `json:"itemCount"`
	Currency  string     `json:"currency"`
}

// AuthUser is the authenticated account profile.
type AuthUser struct {
	ID        string `json:"id"`
	Email     string `json:"email"`
	Name      string `json:"name"`
	Role      string `json:"role"`
	CreatedAt string `json:"createdAt"`
}

// AuthResponse is returned by login and register. SessionID, when present,
// rebinds the client to a server-chosen session.
type AuthResponse struct {
	User         AuthUser `json:"user"`
	AccessToken  string   `json:"accessToken"`
	RefreshToken string   `json:"refreshToken"`
	ExpiresIn    int      `json:"expiresIn"`
	SessionID    string   `json:"sessionId"`
}

// ShippingAddress is the checkout delivery address.
type ShippingAddress struct {
	Name       string `json:"name"`
	Line1      string `json:"line1"`
	City       string `json:"city"`
	State      string `json:"state"`
	PostalCode string `json:"postalCode"`
	Country    string `json:"country"`
}

// PaymentMethod is an opaque tokenized payment reference.
type PaymentMethod struct {
	Type  string `json:"type"`
	Token string `json:"token"`
}

// OrderItem is one line of a placed order.
type OrderItem struct {
	ProductID string  `json:"productId"`
	VariantID string  `json:"variantId"`
	Name      string  `json:"name"`
	Price     float64 `json:"price"`
	Quantity  int     `json:"quantity"`
}

// Order is a placed order.
type Order struct {
	ID        string      `json:"id"`
	Status    string      `json:"status"`
	Items     []OrderItem `json:"items"`
	Total     float64     `json:"total"`
	Currency  string      `json:"currency"`
	CreatedAt string      `json:"createdAt"`
}

// HistoryResponse is the assistant half of a stored interaction.
type HistoryResponse struct {
	Message string `json:"message"`
	Agent   string `json:"agent"`
}

// HistoryMessage is one stored request/response interaction pair.
type HistoryMessage struct {
	ID        string          `json:"id"`
	SessionID string          `json:"sessionId"`
	UserID    string          `json:"userId"`
	Message   string          `json:"message"`
	Intent    string          `json:"intent"`
	Agent     string          `json:"agent"`
	Response  HistoryResponse `json:"response"`
	Timestamp string          `json:"timestamp"`
}

// HistoryPayload is the chat history for a session.
type HistoryPayload struct {
	SessionID string           `json:"sessionId"`
	Messages  []HistoryMessage `json:"messages"`
}
