package entity

import "time"

// Tipos de movimiento de stock.
const (
	MovementTypeIn  = "in"  // entrada
	MovementTypeOut = "out" // salida
)

// Origen causal de un movimiento. Cada movimiento nace de un único evento.
const (
	MovementSourceInitial      = "initial"      // stock inicial al crear el producto
	MovementSourceAdjustment   = "adjustment"   // ajuste manual
	MovementSourceReceipt      = "receipt"      // recepción de orden de compra
	MovementSourceDistribution = "distribution" // despacho o reverso de distribución
)

// StockMovement entrada del libro de movimientos (solo inserción).
// NewStock = PreviousStock ± Quantity y coincide con Product.StockQuantity al escribirse.
type StockMovement struct {
	ID            string
	ProductID     string
	Type          string // in, out
	Quantity      int64  // siempre positivo; el signo lo da Type
	PreviousStock int64
	NewStock      int64
	Reason        string
	Source        string
	ReferenceID   string // recepción, distribución, etc.
	CreatedBy     string // UserID
	CreatedAt     time.Time
}
