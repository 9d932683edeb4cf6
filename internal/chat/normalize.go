package chat

import (
	"encoding/json"

	"github.com/openclerk/clerk/internal/api"
)

// StateUpdate is what a response payload carried beyond its text. Nil or
// empty fields mean the payload said nothing about that aggregate.
type StateUpdate struct {
	// Cart, when non-nil, replaces the locally held cart wholesale.
	// Totals come from the server and are never recomputed here.
	Cart *api.Cart

	Products []api.Product
	Orders   []api.Order
}

// responseData mirrors the aggregate shapes agents embed under payload.data.
type responseData struct {
	Cart     *api.Cart     `json:"cart"`
	Products []api.Product `json:"products"`
	Order    *api.Order    `json:"order"`
	Orders   []api.Order   `json:"orders"`
}

// ExtractState probes a response payload for embedded aggregates. The cart
// is looked up under data.cart first, then the payload's top-level cart.
// Absence of any aggregate is not an error, and malformed embeds are
// treated as absent.
func ExtractState(payload ResponsePayload) StateUpdate {
	var update StateUpdate

	var data responseData
	if len(payload.Data) > 0 && json.Unmarshal(payload.Data, &data) == nil {
		update.Cart = data.Cart
		update.Products = data.Products
		if data.Order != nil {
			update.Orders = append(update.Orders, *data.Order)
		}
		update.Orders = append(update.Orders, data.Orders...)
	}

	if update.Cart == nil && len(payload.Cart) > 0 && string(payload.Cart) != "null" {
		var cart api.Cart
		if json.Unmarshal(payload.Cart, &cart) == nil {
			update.Cart = &cart
		}
	}

	return update
}
