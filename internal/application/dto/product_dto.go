package dto

import (
	"time"

	"github.com/shopspring/decimal"
)

// CreateProductRequest entrada para crear un producto. StockQuantity se registra como movimiento inicial.
type CreateProductRequest struct {
	SKU             string          `json:"sku" validate:"required,min=1,max=100"`
	Name            string          `json:"name" validate:"required,min=1,max=200"`
	Description     string          `json:"description" validate:"max=2000"`
	Category        string          `json:"category" validate:"max=100"`
	Manufacturer    string          `json:"manufacturer" validate:"max=200"`
	StockQuantity   int64           `json:"stock_quantity" validate:"min=0"`
	ReorderLevel    int64           `json:"reorder_level" validate:"min=0"`
	UnitPrice       decimal.Decimal `json:"unit_price"`
	Cost            decimal.Decimal `json:"cost"`
	ExpiryDate      *time.Time      `json:"expiry_date"`
	SupplierID      string          `json:"supplier_id" validate:"omitempty,uuid"`
	JanAushadhiCode string          `json:"janaushadhi_code" validate:"max=50"`
}

// UpdateProductRequest entrada para actualizar un producto (sin stock ni costo).
type UpdateProductRequest struct {
	SKU          *string          `json:"sku" validate:"omitempty,min=1,max=100"`
	Name         *string          `json:"name" validate:"omitempty,min=1,max=200"`
	Description  *string          `json:"description" validate:"omitempty,max=2000"`
	Category     *string          `json:"category" validate:"omitempty,max=100"`
	Manufacturer *string          `json:"manufacturer" validate:"omitempty,max=200"`
	ReorderLevel *int64           `json:"reorder_level" validate:"omitempty,min=0"`
	UnitPrice    *decimal.Decimal `json:"unit_price"`
	ExpiryDate   *time.Time       `json:"expiry_date"`
	SupplierID   *string          `json:"supplier_id" validate:"omitempty,uuid"`
}

// ProductResponse salida de un producto.
type ProductResponse struct {
	ID              string          `json:"id"`
	SKU             string          `json:"sku"`
	Name            string          `json:"name"`
	Description     string          `json:"description"`
	Category        string          `json:"category"`
	Manufacturer    string          `json:"manufacturer"`
	StockQuantity   int64           `json:"stock_quantity"`
	ReorderLevel    int64           `json:"reorder_level"`
	UnitPrice       decimal.Decimal `json:"unit_price"`
	Cost            decimal.Decimal `json:"cost"`
	ExpiryDate      *time.Time      `json:"expiry_date,omitempty"`
	SupplierID      string          `json:"supplier_id,omitempty"`
	JanAushadhiCode string          `json:"janaushadhi_code,omitempty"`
	LowStock        bool            `json:"low_stock"`
	CreatedAt       time.Time       `json:"created_at"`
	UpdatedAt       time.Time       `json:"updated_at"`
}

// ProductListResponse lista paginada de productos.
type ProductListResponse struct {
	Items []ProductResponse `json:"items"`
	Page  PageResponse      `json:"page"`
}

// ReplenishmentSuggestionDTO producto en o bajo su nivel de reorden con la cantidad sugerida a pedir.
type ReplenishmentSuggestionDTO struct {
	ProductID          string          `json:"product_id"`
	SKU                string          `json:"sku"`
	ProductName        string          `json:"product_name"`
	SupplierID         string          `json:"supplier_id,omitempty"`
	CurrentStock       int64           `json:"current_stock"`
	ReorderLevel       int64           `json:"reorder_level"`
	Deficit            int64           `json:"deficit"`
	IdealStock         int64           `json:"ideal_stock"`         // ceil(reorden * 1.5)
	SuggestedOrderQty  int64           `json:"suggested_order_qty"` // IdealStock - CurrentStock
	UnitCost           decimal.Decimal `json:"unit_cost"`
	EstimatedOrderCost decimal.Decimal `json:"estimated_order_cost"`
	Priority           int             `json:"priority"`
}

// ExpiringProductDTO producto cuyo vencimiento más próximo cae dentro de la ventana consultada.
type ExpiringProductDTO struct {
	ProductID     string    `json:"product_id"`
	SKU           string    `json:"sku"`
	ProductName   string    `json:"product_name"`
	StockQuantity int64     `json:"stock_quantity"`
	ExpiryDate    time.Time `json:"expiry_date"`
	DaysToExpiry  int       `json:"days_to_expiry"` // negativo si ya venció
	Expired       bool      `json:"expired"`
}
