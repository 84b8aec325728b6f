package entity

import (
	"time"

	"github.com/shopspring/decimal"
)

// QualityCheck resultado de la inspección de la mercancía recibida.
type QualityCheck struct {
	Passed bool
	Notes  string
}

// PurchaseReceipt registro inmutable de mercancía recibida contra una orden de compra.
type PurchaseReceipt struct {
	ID              string
	ReceiptNumber   string
	PurchaseOrderID string
	Items           []PurchaseReceiptItem
	QualityCheck    QualityCheck
	Notes           string
	TotalAmount     decimal.Decimal
	ReceivedBy      string
	ReceivedAt      time.Time
}

// PurchaseReceiptItem línea recibida con trazabilidad de lote y vencimiento.
type PurchaseReceiptItem struct {
	ID                  string
	ReceiptID           string
	PurchaseOrderItemID string
	ProductID           string
	ReceivedQuantity    int64
	BatchNumber         string
	ExpiryDate          time.Time
	UnitPrice           decimal.Decimal
}
