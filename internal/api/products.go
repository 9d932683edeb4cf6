package api

import (
	"context"
	"fmt"
	"net/url"
	"strconv"
)

// ProductQuery filters and pages the catalog listing.
// Zero values are omitted from the request.
type ProductQuery struct {
	Query    string
	Category string
	Page     int
	Limit    int
}

// productsResponse is the catalog listing envelope.
type productsResponse struct {
	Products   []Product   `json:"products"`
	Pagination *Pagination `json:"pagination"`
}

// Products lists catalog products matching the query.
func (c *Client) Products(ctx context.Context, q ProductQuery) ([]Product, *Pagination, error) {
	params := url.Values{}
	if q.Query != "" {
		params.Set("query", q.Query)
	}
	if q.Category != "" {
		params.Set("category", q.Category)
	}
	if q.Page > 0 {
		params.Set("page", strconv.Itoa(q.Page))
	}
	if q.Limit > 0 {
		params.Set("limit", strconv.Itoa(q.Limit))
	}

	path := "/products"
	if encoded := params.Encode(); encoded != "" {
		path += "?" + encoded
	}

	var resp productsResponse
	if err := c.do(ctx, "GET", path, nil, &resp, nil); err != nil {
		return nil, nil, fmt.Errorf("list products: %w", err)
	}
	return resp.Products, resp.Pagination, nil
}

// Product fetches a single catalog product.
func (c *Client) Product(ctx context.Context, productID string) (*Product, error) {
	var product Product
	if err := c.do(ctx, "GET", "/products/"+url.PathEscape(productID), nil, &product, nil); err != nil {
		return nil, fmt.Errorf("get product: %w", err)
	}
	return &product, nil
}
