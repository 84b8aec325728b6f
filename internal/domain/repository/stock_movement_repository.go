package repository

import (
	"context"
	"time"

	"github.com/jhoicas/Apothecary-api/internal/domain/entity"
)

// MovementFilter criterios de listado del libro de movimientos.
type MovementFilter struct {
	ProductID string
	Type      string
	Source    string
	From, To  *time.Time
	Limit     int
	Offset    int
}

// StockMovementRepository libro de movimientos de stock. Solo inserción: no existe Update ni Delete.
type StockMovementRepository interface {
	Create(ctx context.Context, movement *entity.StockMovement) error
	GetByID(ctx context.Context, id string) (*entity.StockMovement, error)
	List(ctx context.Context, filter MovementFilter) ([]*entity.StockMovement, error)
	// ListByProduct devuelve todos los movimientos del producto en orden de creación.
	ListByProduct(ctx context.Context, productID string) ([]*entity.StockMovement, error)
}
