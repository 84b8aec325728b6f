package dto

import "time"

// CreateMovementRequest body para POST /api/stock-movements (ajuste manual).
type CreateMovementRequest struct {
	ProductID string `json:"product_id" validate:"required,uuid"`
	Type      string `json:"type" validate:"required,oneof=in out"`
	Quantity  int64  `json:"quantity" validate:"gt=0"`
	Reason    string `json:"reason" validate:"required,min=3,max=500"`
}

// MovementResponse entrada del libro de movimientos.
type MovementResponse struct {
	ID            string    `json:"id"`
	ProductID     string    `json:"product_id"`
	Type          string    `json:"type"`
	Quantity      int64     `json:"quantity"`
	PreviousStock int64     `json:"previous_stock"`
	NewStock      int64     `json:"new_stock"`
	Reason        string    `json:"reason"`
	Source        string    `json:"source"`
	ReferenceID   string    `json:"reference_id,omitempty"`
	CreatedBy     string    `json:"created_by"`
	CreatedAt     time.Time `json:"created_at"`
}

// MovementListResponse lista paginada de movimientos.
type MovementListResponse struct {
	Items []MovementResponse `json:"items"`
	Page  PageResponse       `json:"page"`
}

// ReconcileResponse resultado de reconstruir el stock de un producto desde su libro.
type ReconcileResponse struct {
	ProductID     string   `json:"product_id"`
	InitialStock  int64    `json:"initial_stock"`
	MovementCount int      `json:"movement_count"`
	ReplayedStock int64    `json:"replayed_stock"`
	CurrentStock  int64    `json:"current_stock"`
	Consistent    bool     `json:"consistent"`
	BrokenChain   []string `json:"broken_chain,omitempty"`
}
