package validation

import "github.com/shopspring/decimal"

// CreateOrderRequest is the payload for POST /api/orders.
type CreateOrderRequest struct {
	Customer string          `json:"customer" validate:"required"`
	Amount   decimal.Decimal `json:"amount" validate:"required"`
}

// UpdateOrderRequest is the partial payload for PUT /api/orders/:id. Only
// fields present in the body override stored values.
type UpdateOrderRequest struct {
	Customer *string          `json:"customer,omitempty"`
	Amount   *decimal.Decimal `json:"amount,omitempty"`
	Status   *string          `json:"status,omitempty"`
	Date     *string          `json:"date,omitempty"`
}

// RenameCustomerRequest is the payload for PUT /api/customers/:name.
type RenameCustomerRequest struct {
	NewName string `json:"newName" validate:"required"`
}
