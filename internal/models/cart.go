package models

import (
	"github.com/google/uuid"
)

type Cart struct {
	ID     uuid.UUID `json:"id"`
	UserID uuid.UUID `json:"user_id"`
}

type CartItem struct {
	ID               uuid.UUID `json:"id"`
	CartID           uuid.UUID `json:"cart_id"`
	ProductVariantID uuid.UUID `json:"product_variant_id"`
	Quantity         int       `json:"quantity"`
}

// a cart row joined with its variant and product, priced at read time
type CartLine struct {
	ID               uuid.UUID `json:"id"`
	ProductVariantID uuid.UUID `json:"product_variant_id"`
	ProductName      string    `json:"product_name"`
	VariantInfo      string    `json:"variant_info"`
	Quantity         int       `json:"quantity"`
	UnitPrice        float64   `json:"unit_price"`
	TotalPrice       float64   `json:"total_price"`
}

type CartResponse struct {
	ID     uuid.UUID  `json:"id"`
	UserID uuid.UUID  `json:"user_id"`
	Items  []CartLine `json:"items"`
	Total  float64    `json:"total"`
}

type AddCartItemRequest struct {
	ProductVariantID uuid.UUID `json:"product_variant_id" validate:"required"`
	Quantity         int       `json:"quantity" validate:"required,min=1"`
}

type UpdateCartItemRequest struct {
	Quantity int `json:"quantity" validate:"required,min=1"`
}
