package models

import (
	"time"

	"github.com/google/uuid"
)

type OrderStatus string

const (
	OrderStatusPending   OrderStatus = "pending"
	OrderStatusConfirmed OrderStatus = "confirmed"
	OrderStatusShipping  OrderStatus = "shipping"
	OrderStatusDelivered OrderStatus = "delivered"
	OrderStatusCancelled OrderStatus = "cancelled"
)

type OrderItem struct {
	ID               uuid.UUID `json:"id"`
	OrderID          uuid.UUID `json:"order_id"`
	ProductVariantID uuid.UUID `json:"product_variant_id"`
	Quantity         int       `json:"quantity"`
	// snapshot of (product price + variant delta) at purchase time
	PriceAtPurchase float64 `json:"price_at_purchase"`
	ProductName     string  `json:"product_name,omitempty"`
	VariantInfo     string  `json:"variant_info,omitempty"`
}

type Order struct {
	ID          uuid.UUID   `json:"id"`
	UserID      uuid.UUID   `json:"user_id"`
	Status      OrderStatus `json:"status"`
	TotalAmount float64     `json:"total_amount"`
	Items       []OrderItem `json:"items"`
	CreatedAt   time.Time   `json:"created_at"`
	UpdatedAt   time.Time   `json:"updated_at"`
}

type OrderLineRequest struct {
	ProductVariantID uuid.UUID `json:"product_variant_id" validate:"required"`
	Quantity         int       `json:"quantity" validate:"required,min=1"`
}

type CreateOrderRequest struct {
	Items []OrderLineRequest `json:"items" validate:"required,min=1,dive"`
}

type UpdateOrderStatusRequest struct {
	Status OrderStatus `json:"status" validate:"required,oneof=pending confirmed shipping delivered cancelled"`
}
