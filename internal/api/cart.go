package api

import (
	"context"
	"fmt"
	"net/url"
)

// addCartItemRequest adds a product variant to the cart.
type addCartItemRequest struct {
	ProductID string `json:"productId"`
	VariantID string `json:"variantId"`
	Quantity  int    `json:"quantity"`
}

// updateCartItemRequest changes the quantity of a cart line.
type updateCartItemRequest struct {
	Quantity int `json:"quantity"`
}

// Cart fetches the session's cart.
func (c *Client) Cart(ctx context.Context) (*Cart, error) {
	var cart Cart
	if err := c.do(ctx, "GET", "/cart", nil, &cart, nil); err != nil {
		return nil, fmt.Errorf("get cart: %w", err)
	}
	return &cart, nil
}

// AddCartItem adds a product variant to the cart.
func (c *Client) AddCartItem(ctx context.Context, productID, variantID string, quantity int) error {
	err := c.do(ctx, "POST", "/cart/items", addCartItemRequest{
		ProductID: productID,
		VariantID: variantID,
		Quantity:  quantity,
	}, nil, nil)
	if err != nil {
		return fmt.Errorf("add to cart: %w", err)
	}
	return nil
}

// UpdateCartItem changes the quantity of an existing cart line.
func (c *Client) UpdateCartItem(ctx context.Context, itemID string, quantity int) error {
	err := c.do(ctx, "PUT", "/cart/items/"+url.PathEscape(itemID), updateCartItemRequest{
		Quantity: quantity,
	}, nil, nil)
	if err != nil {
		return fmt.Errorf("update cart item: %w", err)
	}
	return nil
}

// RemoveCartItem removes a line from the cart.
func (c *Client) RemoveCartItem(ctx context.Context, itemID string) error {
	if err := c.do(ctx, "DELETE", "/cart/items/"+url.PathEscape(itemID), nil, nil, nil); err != nil {
		return fmt.Errorf("remove cart item: %w", err)
	}
	return nil
}
