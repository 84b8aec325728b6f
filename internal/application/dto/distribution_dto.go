package dto

import (
	"time"

	"github.com/shopspring/decimal"
)

// DistributionItemRequest línea a despachar. UnitPrice vacío toma el precio de venta del producto.
type DistributionItemRequest struct {
	ProductID string           `json:"product_id" validate:"required,uuid"`
	Quantity  int64            `json:"quantity" validate:"gt=0"`
	UnitPrice *decimal.Decimal `json:"unit_price"`
}

// CreateDistributionRequest entrada para crear una orden de distribución.
type CreateDistributionRequest struct {
	Recipient     string                    `json:"recipient" validate:"required,min=1,max=200"`
	RecipientType string                    `json:"recipient_type" validate:"required,oneof=pharmacy hospital clinic patient"`
	Items         []DistributionItemRequest `json:"items" validate:"required,min=1,dive"`
	Notes         string                    `json:"notes" validate:"max=2000"`
}

// DistributionItemResponse línea despachada.
type DistributionItemResponse struct {
	ID          string          `json:"id"`
	ProductID   string          `json:"product_id"`
	ProductName string          `json:"product_name"`
	Quantity    int64           `json:"quantity"`
	UnitPrice   decimal.Decimal `json:"unit_price"`
}

// DistributionResponse salida de una orden de distribución.
type DistributionResponse struct {
	ID            string                     `json:"id"`
	OrderNumber   string                     `json:"order_number"`
	Recipient     string                     `json:"recipient"`
	RecipientType string                     `json:"recipient_type"`
	Items         []DistributionItemResponse `json:"items"`
	Status        string                     `json:"status"`
	Notes         string                     `json:"notes"`
	TotalAmount   decimal.Decimal            `json:"total_amount"`
	CreatedBy     string                     `json:"created_by"`
	CreatedAt     time.Time                  `json:"created_at"`
	UpdatedAt     time.Time                  `json:"updated_at"`
}

// DistributionListResponse lista paginada de distribuciones.
type DistributionListResponse struct {
	Items []DistributionResponse `json:"items"`
	Page  PageResponse           `json:"page"`
}
