package api

import (
	"context"
	"fmt"
	"net/http"
	"net/url"

	"github.com/google/uuid"
)

// CheckoutRequest places an order from the current cart.
type CheckoutRequest struct {
	ShippingAddress ShippingAddress `json:"shippingAddress"`
	PaymentMethod   PaymentMethod   `json:"paymentMethod"`
}

// checkoutResponse carries the placed order reference.
type checkoutResponse struct {
	Order Order `json:"order"`
}

// ordersResponse is the order listing envelope.
type ordersResponse struct {
	Orders []Order `json:"orders"`
}

// Checkout places an order from the current cart. Each call sends a fresh
// Idempotency-Key so a retried request cannot double-charge.
func (c *Client) Checkout(ctx context.Context, req CheckoutRequest) (*Order, error) {
	headers := http.Header{}
	headers.Set("Idempotency-Key", uuid.NewString())

	var resp checkoutResponse
	if err := c.do(ctx, "POST", "/orders", req, &resp, headers); err != nil {
		return nil, fmt.Errorf("checkout: %w", err)
	}
	return &resp.Order, nil
}

// Orders lists the account's orders.
func (c *Client) Orders(ctx context.Context) ([]Order, error) {
	var resp ordersResponse
	if err := c.do(ctx, "GET", "/orders", nil, &resp, nil); err != nil {
		return nil, fmt.Errorf("list orders: %w", err)
	}
	return resp.Orders, nil
}

// Order fetches a single order.
func (c *Client) Order(ctx context.Context, orderID string) (*Order, error) {
	var order Order
	if err := c.do(ctx, "GET", "/orders/"+url.PathEscape(orderID), nil, &order, nil); err != nil {
		return nil, fmt.Errorf("get order: %w", err)
	}
	return &order, nil
}
