package dto

import "github.com/shopspring/decimal"

// CreateOrderRequest body para POST /api/orders.
type CreateOrderRequest struct {
	OrderNumber       string            `json:"order_number"`
	RecipeCode        string            `json:"recipe_code"`
	Quantity          decimal.Decimal   `json:"quantity"`
	Unit              string            `json:"unit"`
	CustomerName      string            `json:"customer_name"`
	CustomerContact   string            `json:"customer_contact,omitempty"`
	FulfillmentMethod string            `json:"fulfillment_method,omitempty"`
	ManualSelection   []LotSelectionDTO `json:"manual_selection,omitempty"`
	Notes             string            `json:"notes,omitempty"`
	CreatedBy         string            `json:"created_by,omitempty"`
}

// UpdateOrderRequest body para PUT /api/orders/:id (cambio de estado).
type UpdateOrderRequest struct {
	Status      string `json:"status"`
	PerformedBy string `json:"performed_by,omitempty"`
	Reason      string `json:"reason,omitempty"`
}

// AllocateLotsRequest body para POST /api/orders/:id/allocate-lots.
type AllocateLotsRequest struct {
	Selections []LotSelectionDTO `json:"selections"`
}

// ShipPartialRequest body para POST /api/orders/:id/ship-partial.
type ShipPartialRequest struct {
	Lines     []LotSelectionDTO `json:"lines"`
	ShippedBy string            `json:"shipped_by,omitempty"`
}
