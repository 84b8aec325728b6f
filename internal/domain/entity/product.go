package entity

import (
	"time"

	"github.com/shopspring/decimal"
)

// Product representa un medicamento o SKU del inventario de la farmacia.
// StockQuantity solo cambia a través de movimientos de stock; Cost es el costo promedio
// ponderado de las recepciones.
type Product struct {
	ID              string
	SKU             string // código único
	Name            string
	Description     string
	Category        string
	Manufacturer    string
	StockQuantity   int64
	ReorderLevel    int64
	UnitPrice       decimal.Decimal // precio de venta
	Cost            decimal.Decimal
	ExpiryDate      *time.Time // vencimiento más próximo del stock disponible
	SupplierID      string
	JanAushadhiCode string // código del catálogo JanAushadhi, si el producto proviene de él
	CreatedAt       time.Time
	UpdatedAt       time.Time
}

// IsLowStock indica si el stock está en o por debajo del nivel de reorden.
func (p *Product) IsLowStock() bool {
	return p.StockQuantity <= p.ReorderLevel
}

// ExpiresWithin indica si el producto vence antes de now+d.
func (p *Product) ExpiresWithin(now time.Time, d time.Duration) bool {
	if p.ExpiryDate == nil {
		return false
	}
	return p.ExpiryDate.Before(now.Add(d))
}
