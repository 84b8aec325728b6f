package dto

import (
	"time"

	"github.com/shopspring/decimal"
)

// PurchaseOrderItemRequest línea de una orden de compra. ProductID o ExternalRef es obligatorio.
type PurchaseOrderItemRequest struct {
	ProductID   string          `json:"product_id" validate:"omitempty,uuid"`
	ExternalRef string          `json:"external_ref" validate:"max=100"`
	ProductName string          `json:"product_name" validate:"max=200"`
	Quantity    int64           `json:"quantity" validate:"gt=0"`
	UnitPrice   decimal.Decimal `json:"unit_price"`
}

// CreatePurchaseOrderRequest entrada para crear una orden de compra en borrador.
type CreatePurchaseOrderRequest struct {
	SupplierID           string                     `json:"supplier_id" validate:"required,uuid"`
	Items                []PurchaseOrderItemRequest `json:"items" validate:"required,min=1,dive"`
	ExpectedDeliveryDate *time.Time                 `json:"expected_delivery_date"`
	Notes                string                     `json:"notes" validate:"max=2000"`
}

// UpdatePurchaseOrderRequest modifica una orden en borrador. Items, si viene, reemplaza todas las líneas.
type UpdatePurchaseOrderRequest struct {
	Items                []PurchaseOrderItemRequest `json:"items" validate:"omitempty,min=1,dive"`
	ExpectedDeliveryDate *time.Time                 `json:"expected_delivery_date"`
	Notes                *string                    `json:"notes" validate:"omitempty,max=2000"`
}

// PurchaseOrderItemResponse línea con cantidades recibidas y pendientes.
type PurchaseOrderItemResponse struct {
	ID                string          `json:"id"`
	ProductID         string          `json:"product_id,omitempty"`
	ExternalRef       string          `json:"external_ref,omitempty"`
	ProductName       string          `json:"product_name"`
	Quantity          int64           `json:"quantity"`
	UnitPrice         decimal.Decimal `json:"unit_price"`
	ReceivedQuantity  int64           `json:"received_quantity"`
	RemainingQuantity int64           `json:"remaining_quantity"`
}

// PurchaseOrderResponse salida de una orden de compra.
type PurchaseOrderResponse struct {
	ID                   string                      `json:"id"`
	OrderNumber          string                      `json:"order_number"`
	SupplierID           string                      `json:"supplier_id"`
	Status               string                      `json:"status"`
	Items                []PurchaseOrderItemResponse `json:"items"`
	TotalAmount          decimal.Decimal             `json:"total_amount"`
	ExpectedDeliveryDate *time.Time                  `json:"expected_delivery_date,omitempty"`
	Notes                string                      `json:"notes"`
	CreatedBy            string                      `json:"created_by"`
	ApprovedBy           string                      `json:"approved_by,omitempty"`
	ApprovedAt           *time.Time                  `json:"approved_at,omitempty"`
	CreatedAt            time.Time                   `json:"created_at"`
	UpdatedAt            time.Time                   `json:"updated_at"`
}

// PurchaseOrderListResponse lista paginada de órdenes de compra.
type PurchaseOrderListResponse struct {
	Items []PurchaseOrderResponse `json:"items"`
	Page  PageResponse            `json:"page"`
}

// QualityCheckDTO resultado de la inspección de calidad.
type QualityCheckDTO struct {
	Passed bool   `json:"passed"`
	Notes  string `json:"notes" validate:"max=2000"`
}

// ReceiptItemRequest línea recibida. Se concilia contra la orden por PurchaseOrderItemID o, en su
// defecto, por ProductID. UnitPrice vacío toma el precio de la línea de la orden.
type ReceiptItemRequest struct {
	PurchaseOrderItemID string           `json:"purchase_order_item_id" validate:"omitempty,uuid"`
	ProductID           string           `json:"product_id" validate:"omitempty,uuid"`
	ReceivedQuantity    int64            `json:"received_quantity"`
	BatchNumber         string           `json:"batch_number" validate:"max=100"`
	ExpiryDate          *time.Time       `json:"expiry_date"`
	UnitPrice           *decimal.Decimal `json:"unit_price"`
}

// CreateReceiptRequest entrada para registrar una recepción.
type CreateReceiptRequest struct {
	PurchaseOrderID string               `json:"purchase_order_id" validate:"required,uuid"`
	Items           []ReceiptItemRequest `json:"items" validate:"dive"`
	QualityCheck    QualityCheckDTO      `json:"quality_check"`
	Notes           string               `json:"notes" validate:"max=2000"`
}

// ReceiptItemResponse línea recibida.
type ReceiptItemResponse struct {
	ID                  string          `json:"id"`
	PurchaseOrderItemID string          `json:"purchase_order_item_id"`
	ProductID           string          `json:"product_id"`
	ReceivedQuantity    int64           `json:"received_quantity"`
	BatchNumber         string          `json:"batch_number"`
	ExpiryDate          time.Time       `json:"expiry_date"`
	UnitPrice           decimal.Decimal `json:"unit_price"`
}

// ReceiptResponse salida de una recepción. PurchaseOrderStatus refleja el estado tras conciliar.
type ReceiptResponse struct {
	ID                  string                `json:"id"`
	ReceiptNumber       string                `json:"receipt_number"`
	PurchaseOrderID     string                `json:"purchase_order_id"`
	PurchaseOrderStatus string                `json:"purchase_order_status,omitempty"`
	Items               []ReceiptItemResponse `json:"items"`
	QualityCheck        QualityCheckDTO       `json:"quality_check"`
	Notes               string                `json:"notes"`
	TotalAmount         decimal.Decimal       `json:"total_amount"`
	ReceivedBy          string                `json:"received_by"`
	ReceivedAt          time.Time             `json:"received_at"`
}

// ReceiptListResponse lista de recepciones.
type ReceiptListResponse struct {
	Items []ReceiptResponse `json:"items"`
	Page  PageResponse      `json:"page"`
}
