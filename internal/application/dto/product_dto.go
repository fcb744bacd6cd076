package dto

import (
	"time"

	"github.com/shopspring/decimal"
)

// CreateProductRequest entrada para crear un producto. El tenant sale del token; TenantID solo
// lo usa el superusuario para elegir el tenant destino y se ignora con un tenant resuelto.
type CreateProductRequest struct {
	TenantID      string           `json:"tenant_id,omitempty"`
	Name          string           `json:"name" validate:"required,min=1,max=200"`
	Description   string           `json:"description"`
	DOT           *time.Time       `json:"dot"`
	Brand         string           `json:"brand"`
	TyreSize      string           `json:"tyre_size"`
	TreadDepth    *decimal.Decimal `json:"tread_depth"`
	PurchasePrice decimal.Decimal  `json:"purchase_price"`
	SellingPrice  decimal.Decimal  `json:"selling_price"`
	Quantity      int              `json:"quantity" validate:"min=0"`
	Barcode       string           `json:"barcode"`
}

// UpdateProductRequest entrada para actualizar un producto (campos opcionales).
type UpdateProductRequest struct {
	Name          *string          `json:"name" validate:"omitempty,min=1,max=200"`
	Description   *string          `json:"description"`
	DOT           *time.Time       `json:"dot"`
	Brand         *string          `json:"brand"`
	TyreSize      *string          `json:"tyre_size"`
	TreadDepth    *decimal.Decimal `json:"tread_depth"`
	PurchasePrice *decimal.Decimal `json:"purchase_price"`
	SellingPrice  *decimal.Decimal `json:"selling_price"`
	Quantity      *int             `json:"quantity"`
	Barcode       *string          `json:"barcode"`
}

// ProductResponse salida de un producto.
type ProductResponse struct {
	ID            string           `json:"id"`
	TenantID      string           `json:"tenant_id"`
	Name          string           `json:"name"`
	Description   string           `json:"description"`
	DOT           *time.Time       `json:"dot,omitempty"`
	Brand         string           `json:"brand"`
	TyreSize      string           `json:"tyre_size"`
	TreadDepth    *decimal.Decimal `json:"tread_depth,omitempty"`
	PurchasePrice decimal.Decimal  `json:"purchase_price"`
	SellingPrice  decimal.Decimal  `json:"selling_price"`
	Quantity      int              `json:"quantity"`
	Barcode       string           `json:"barcode"`
	CreatedAt     time.Time        `json:"created_at"`
	UpdatedAt     *time.Time       `json:"updated_at,omitempty"`
}

// ProductListResponse lista paginada de productos.
type ProductListResponse struct {
	Items []ProductResponse `json:"items"`
	Page  PageResponse      `json:"page"`
}
