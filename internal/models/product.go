package models

import (
	"time"

	"github.com/google/uuid"
)

type Category struct {
	ID          uuid.UUID `json:"id"`
	Name        string    `json:"name"`
	Description string    `json:"description"`
}

type CreateCategoryRequest struct {
	Name        string `json:"name" validate:"required,min=2,max=100"`
	Description string `json:"description,omitempty"`
}

type UpdateCategoryRequest struct {
	Name        *string `json:"name,omitempty" validate:"omitempty,min=2,max=100"`
	Description *string `json:"description,omitempty"`
}

type Product struct {
	ID          uuid.UUID `json:"id"`
	CategoryID  uuid.UUID `json:"category_id"`
	Name        string    `json:"name"`
	Description string    `json:"description"`
	Price       float64   `json:"price"`
	ImagePath   string    `json:"-"`
	ImageURL    string    `json:"image_url,omitempty"`
	CreatedAt   time.Time `json:"created_at"`
	UpdatedAt   time.Time `json:"updated_at"`
	Category    *Category `json:"category,omitempty"`
}

// decoded from multipart form fields, the image file travels separately
type CreateProductRequest struct {
	CategoryID  uuid.UUID `json:"category_id" validate:"required"`
	Name        string    `json:"name" validate:"required,min=3,max=200"`
	Description string    `json:"description,omitempty"`
	Price       float64   `json:"price" validate:"required,gt=0"`
}

type UpdateProductRequest struct {
	CategoryID  *uuid.UUID `json:"category_id,omitempty"`
	Name        *string    `json:"name,omitempty" validate:"omitempty,min=3,max=200"`
	Description *string    `json:"description,omitempty"`
	Price       *float64   `json:"price,omitempty" validate:"omitempty,gt=0"`
}

type ProductVariant struct {
	ID              uuid.UUID `json:"id"`
	ProductID       uuid.UUID `json:"product_id"`
	Size            string    `json:"size"`
	Color           string    `json:"color"`
	StockQuantity   int       `json:"stock_quantity"`
	AdditionalPrice float64   `json:"additional_price"`
	Product         *Product  `json:"product,omitempty"`
}

type VariantRequest struct {
	Size            string  `json:"size" validate:"required,max=50"`
	Color           string  `json:"color" validate:"required,max=50"`
	StockQuantity   int     `json:"stock_quantity" validate:"gte=0"`
	AdditionalPrice float64 `json:"additional_price" validate:"gte=0"`
}
